// Package commitment 提供购买承诺的构造与Poseidon哈希辅助函数
package commitment

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
)

// ============================================================================
// Poseidon哈希辅助函数（链下原生实现）
// ============================================================================
//
// 🎯 **设计目的**：
// 提供与电路内gnark std/hash/poseidon2完全一致的链下Poseidon2哈希，
// 用于承诺计算与Merkle路径重算。两侧都采用Merkle-Damgård链式结构，
// 链下按每个输入一个32字节大端块写入，与电路内逐变量Write等价。
//
// ⚠️ **注意**：
// - 输入先模约简进入BN254标量域，再按32字节大端序列化
// - 任何一侧改变输入顺序或分块方式都会破坏承诺与证明的一致性
//
// ============================================================================

// HashFields 计算任意数量域元素的Poseidon2链式哈希
//
// 承诺计算：commitment = HashFields(orderHash, invoicePrice, invoiceDate,
// productHash, salt, selectedTier)。
func HashFields(inputs ...*big.Int) *big.Int {
	hasher := poseidon2.NewMerkleDamgardHasher()

	buf := make([]byte, fr.Bytes)
	for _, in := range inputs {
		v := new(big.Int).Mod(in, fr.Modulus())
		v.FillBytes(buf)
		hasher.Write(buf)
	}

	return new(big.Int).SetBytes(hasher.Sum(nil))
}

// HashPair 计算2输入的Poseidon2哈希（Merkle树节点组合）
func HashPair(left, right *big.Int) *big.Int {
	return HashFields(left, right)
}
