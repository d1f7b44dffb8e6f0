package circuits

import (
	bn254poseidon2 "github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
	"github.com/consensys/gnark/frontend"
	stdhash "github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/permutation/poseidon2"
)

// ============================================================================
// Poseidon哈希辅助函数（理赔电路）
// ============================================================================
//
// 🎯 **设计目的**：
// 提供电路内的Poseidon2哈希，与链下承诺构造使用同一哈希结构：
// 链下用gnark-crypto的MerkleDamgard哈希器逐元素写入32字节大端块，
// 电路内用gnark std库的对应gadget逐变量写入，两侧吸收序列一致，
// 因此同一输入序列在两侧得到相同的域元素。
//
// ⚠️ **注意**：
// - hasher是有状态的，每次哈希都要新建
// - 约束数量约为200/次（相比SHA256的~2000约束，减少90%）
//
// ============================================================================

// PoseidonHasher Poseidon2哈希器
type PoseidonHasher struct {
	api frontend.API
}

// NewPoseidonHasher 创建Poseidon2哈希器
func NewPoseidonHasher(api frontend.API) (*PoseidonHasher, error) {
	return &PoseidonHasher{
		api: api,
	}, nil
}

// HashFields 计算任意个输入的Poseidon2哈希
// 与链下commitment.HashFields的吸收序列一致
func (h *PoseidonHasher) HashFields(inputs ...frontend.Variable) frontend.Variable {
	// gnark v0.14的std/hash/poseidon2.NewMerkleDamgardHasher尚无BN254默认参数，
	// 这里用gnark-crypto的BN254默认参数显式构造同一置换
	params := bn254poseidon2.GetDefaultParameters()
	perm, err := poseidon2.NewPoseidon2FromParameters(h.api, params.Width, params.NbFullRounds, params.NbPartialRounds)
	if err != nil {
		// 创建失败返回0，约束校验必然失败
		return 0
	}
	hasher := stdhash.NewMerkleDamgardHasher(h.api, perm, 0)

	hasher.Write(inputs...)
	return hasher.Sum()
}

// Hash2 计算2输入的Poseidon2哈希（Merkle节点组合）
func (h *PoseidonHasher) Hash2(left, right frontend.Variable) frontend.Variable {
	return h.HashFields(left, right)
}
