package circuits

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
)

// ============================================================================
// 理赔资格验证电路
// ============================================================================
//
// 🎯 **验证目标**：
// 在不泄露购买明细的前提下证明：
//  1. 存在一组私有购买明细，其Poseidon2承诺等于链上登记的承诺
//  2. 商品当前价格在预言机发布的价格Merkle树中（叶子沿路径折叠等于根）
//  3. 降价幅度达到理赔阈值（dropAmount*100 >= threshold*invoicePrice）
//  4. 公开的已付保费与私有档位在费率表中对应
//
// 🏗️ **电路结构**：
// - 公开输入：承诺、Merkle根、当前价格、购买日期、保费、阈值
// - 私有输入：订单哈希、发票价格/日期、商品哈希、盐、档位、Merkle路径
//
// ⚠️ **关键设计决策**：
// - Siblings/PathIndices使用切片，长度必须在创建电路实例时确定
//   （gnark要求编译期固定长度），必须通过NewClaimCircuit创建实例
// - Merkle路径方向选择用线性组合而不是分支：
//   current = direction*hash(sibling,current) + (1-direction)*hash(current,sibling)
// - 费率表以电路常量形式固化（TierPremiums），换表需要重新编译电路
//   并在链上登记新的验证密钥
//
// ============================================================================

// MaxMerkleDepth 电路支持的最大Merkle树深度
const MaxMerkleDepth = 20

// ClaimCircuit 理赔资格验证电路
type ClaimCircuit struct {
	// 公开输入（链上可见）
	Commitment   frontend.Variable `gnark:",public"` // 购买承诺
	MerkleRoot   frontend.Variable `gnark:",public"` // 价格目录Merkle根
	CurrentPrice frontend.Variable `gnark:",public"` // 当前价格（micro-units）
	PurchaseDate frontend.Variable `gnark:",public"` // 保单起始日期（unix秒）
	Premium      frontend.Variable `gnark:",public"` // 已付保费（micro-units）
	Threshold    frontend.Variable `gnark:",public"` // 理赔阈值（整数百分比）

	// 私有输入（隐私保护）
	OrderHash    frontend.Variable   // 订单号哈希
	InvoicePrice frontend.Variable   // 发票价格（micro-units）
	InvoiceDate  frontend.Variable   // 发票日期（unix秒）
	ProductHash  frontend.Variable   // 商品哈希
	Salt         frontend.Variable   // 承诺盐
	Tier         frontend.Variable   // 选定档位（1..len(TierPremiums)）
	Siblings     []frontend.Variable // Merkle路径兄弟节点（自底向上）
	PathIndices  []frontend.Variable // 路径方向（0=左，1=右）

	// 电路常量（非witness）
	TierPremiums []uint64 `gnark:"-"` // 档位→保费费率表（下标=档位-1）
}

// Define 定义电路约束
func (circuit *ClaimCircuit) Define(api frontend.API) error {
	hasher, err := NewPoseidonHasher(api)
	if err != nil {
		return err
	}

	// 约束1: 承诺复算
	// commitment = Poseidon2(orderHash, invoicePrice, invoiceDate, productHash, salt, tier)
	computed := hasher.HashFields(
		circuit.OrderHash,
		circuit.InvoicePrice,
		circuit.InvoiceDate,
		circuit.ProductHash,
		circuit.Salt,
		circuit.Tier,
	)
	api.AssertIsEqual(computed, circuit.Commitment)

	// 约束2: 公开的保单起始日期等于承诺里的发票日期
	api.AssertIsEqual(circuit.InvoiceDate, circuit.PurchaseDate)

	// 约束3: Merkle包含证明
	// 叶子绑定商品与当前价格，沿路径折叠后必须等于公开的根
	currentHash := hasher.Hash2(circuit.ProductHash, circuit.CurrentPrice)
	for i := 0; i < len(circuit.Siblings); i++ {
		direction := circuit.PathIndices[i]
		api.AssertIsBoolean(direction)

		leftHash := hasher.Hash2(currentHash, circuit.Siblings[i])
		rightHash := hasher.Hash2(circuit.Siblings[i], currentHash)

		// direction=0 → 当前节点在左，direction=1 → 当前节点在右
		leftPart := api.Mul(api.Sub(1, direction), leftHash)
		rightPart := api.Mul(direction, rightHash)
		currentHash = api.Add(leftPart, rightPart)
	}
	api.AssertIsEqual(currentHash, circuit.MerkleRoot)

	// 约束4: 降价达到阈值
	// currentPrice < invoicePrice（严格降价，同时防减法下溢绕过域）
	api.AssertIsLessOrEqual(api.Add(circuit.CurrentPrice, 1), circuit.InvoicePrice)
	// dropAmount*100 >= threshold*invoicePrice（整数化避免电路内除法）
	dropAmount := api.Sub(circuit.InvoicePrice, circuit.CurrentPrice)
	api.AssertIsLessOrEqual(
		api.Mul(circuit.Threshold, circuit.InvoicePrice),
		api.Mul(dropAmount, 100),
	)

	// 约束5: 档位与保费对应费率表
	// indicator_t = (tier == t)，约束 Σ indicator = 1 保证档位在表内，
	// premium = Σ indicator_t * premium_t
	indicatorSum := frontend.Variable(0)
	expectedPremium := frontend.Variable(0)
	for i, premium := range circuit.TierPremiums {
		indicator := api.IsZero(api.Sub(circuit.Tier, i+1))
		indicatorSum = api.Add(indicatorSum, indicator)
		expectedPremium = api.Add(expectedPremium, api.Mul(indicator, premium))
	}
	api.AssertIsEqual(indicatorSum, 1)
	api.AssertIsEqual(expectedPremium, circuit.Premium)

	return nil
}

// NewClaimCircuit 创建理赔电路实例
//
// ⚠️ 必须使用本工厂函数创建：Siblings/PathIndices的长度要在编译期
// 固定为树深度，直接使用&ClaimCircuit{}会得到长度为0的路径，
// Merkle折叠循环不会执行。
func NewClaimCircuit(depth int, tierPremiums []uint64) (*ClaimCircuit, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("树深度必须大于0: %d", depth)
	}
	if depth > MaxMerkleDepth {
		return nil, fmt.Errorf("树深度超过最大限制: %d > %d", depth, MaxMerkleDepth)
	}
	if len(tierPremiums) == 0 {
		return nil, fmt.Errorf("费率表不能为空")
	}

	return &ClaimCircuit{
		Siblings:     make([]frontend.Variable, depth),
		PathIndices:  make([]frontend.Variable, depth),
		TierPremiums: append([]uint64(nil), tierPremiums...),
	}, nil
}
