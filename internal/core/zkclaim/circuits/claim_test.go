package circuits

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceshield/v1/internal/core/commitment"
)

// 测试用费率表，与默认档位表一致
var testPremiums = []uint64{1_000_000, 3_000_000, 5_000_000, 10_000_000}

// claimWitness 一组自洽的链下数据：承诺、Merkle路径、价格
type claimWitness struct {
	orderHash    *big.Int
	invoicePrice *big.Int
	invoiceDate  *big.Int
	productHash  *big.Int
	salt         *big.Int
	tier         *big.Int
	currentPrice *big.Int
	siblings     []*big.Int
	pathIndices  []int
	commitment   *big.Int
	root         *big.Int
}

// newClaimWitness 用链下Poseidon2构造有效witness
// 发票价199.99美元，当前价99.99美元，跌幅50%，阈值10%
func newClaimWitness(depth int) *claimWitness {
	w := &claimWitness{
		orderHash:    big.NewInt(123456789),
		invoicePrice: big.NewInt(199990000),
		invoiceDate:  big.NewInt(1785542400),
		productHash:  big.NewInt(987654321),
		salt:         big.NewInt(42424242),
		tier:         big.NewInt(2),
		currentPrice: big.NewInt(99990000),
	}

	w.commitment = commitment.HashFields(
		w.orderHash, w.invoicePrice, w.invoiceDate, w.productHash, w.salt, w.tier)

	// 叶子绑定商品与当前价格，路径方向交替
	node := commitment.HashPair(w.productHash, w.currentPrice)
	for i := 0; i < depth; i++ {
		sibling := big.NewInt(int64(1000 + i))
		w.siblings = append(w.siblings, sibling)
		direction := i % 2
		w.pathIndices = append(w.pathIndices, direction)
		if direction == 0 {
			node = commitment.HashPair(node, sibling)
		} else {
			node = commitment.HashPair(sibling, node)
		}
	}
	w.root = node
	return w
}

// assignment 转换为电路witness赋值
func (w *claimWitness) assignment(t *testing.T, threshold int64, premium uint64) *ClaimCircuit {
	t.Helper()
	circuit, err := NewClaimCircuit(len(w.siblings), testPremiums)
	require.NoError(t, err)

	circuit.OrderHash = w.orderHash
	circuit.InvoicePrice = w.invoicePrice
	circuit.InvoiceDate = w.invoiceDate
	circuit.ProductHash = w.productHash
	circuit.Salt = w.salt
	circuit.Tier = w.tier
	circuit.Commitment = w.commitment
	circuit.MerkleRoot = w.root
	circuit.CurrentPrice = w.currentPrice
	circuit.PurchaseDate = w.invoiceDate
	circuit.Premium = new(big.Int).SetUint64(premium)
	circuit.Threshold = big.NewInt(threshold)
	for i := range w.siblings {
		circuit.Siblings[i] = w.siblings[i]
		circuit.PathIndices[i] = w.pathIndices[i]
	}
	return circuit
}

func solve(t *testing.T, assignment *ClaimCircuit) error {
	t.Helper()
	circuit, err := NewClaimCircuit(len(assignment.Siblings), testPremiums)
	require.NoError(t, err)
	return test.IsSolved(circuit, assignment, ecc.BN254.ScalarField())
}

// TestClaimCircuitValid 自洽witness满足全部约束
func TestClaimCircuitValid(t *testing.T) {
	w := newClaimWitness(4)
	require.NoError(t, solve(t, w.assignment(t, 10, 3_000_000)))
}

// TestClaimCircuitWrongCommitment 承诺不匹配时求解失败
func TestClaimCircuitWrongCommitment(t *testing.T) {
	w := newClaimWitness(4)
	a := w.assignment(t, 10, 3_000_000)
	a.Commitment = big.NewInt(1)
	assert.Error(t, solve(t, a))
}

// TestClaimCircuitWrongRoot 根不匹配时求解失败
func TestClaimCircuitWrongRoot(t *testing.T) {
	w := newClaimWitness(4)
	a := w.assignment(t, 10, 3_000_000)
	a.MerkleRoot = big.NewInt(1)
	assert.Error(t, solve(t, a))
}

// TestClaimCircuitDropBelowThreshold 跌幅不足阈值时求解失败
func TestClaimCircuitDropBelowThreshold(t *testing.T) {
	w := newClaimWitness(4)
	// 跌幅50%，阈值60%
	assert.Error(t, solve(t, w.assignment(t, 60, 3_000_000)))
}

// TestClaimCircuitNoDrop 价格未跌时求解失败
func TestClaimCircuitNoDrop(t *testing.T) {
	w := newClaimWitness(4)
	a := w.assignment(t, 10, 3_000_000)
	// 当前价等于发票价（叶子随之变化，根也要重建才能通过Merkle约束，
	// 这里只改价格即可触发降价约束失败）
	a.CurrentPrice = w.invoicePrice
	assert.Error(t, solve(t, a))
}

// TestClaimCircuitPremiumMismatch 保费与档位不对应时求解失败
func TestClaimCircuitPremiumMismatch(t *testing.T) {
	w := newClaimWitness(4)
	assert.Error(t, solve(t, w.assignment(t, 10, 1_000_000)))
}

// TestClaimCircuitDateMismatch 公开购买日期与私有发票日期不一致时求解失败
func TestClaimCircuitDateMismatch(t *testing.T) {
	w := newClaimWitness(4)
	a := w.assignment(t, 10, 3_000_000)
	a.PurchaseDate = big.NewInt(1111111111)
	assert.Error(t, solve(t, a))
}

// TestClaimCircuitCompiles 各深度电路可编译
func TestClaimCircuitCompiles(t *testing.T) {
	if testing.Short() {
		t.Skip("编译耗时，short模式跳过")
	}

	for _, depth := range []int{2, 10} {
		circuit, err := NewClaimCircuit(depth, testPremiums)
		require.NoError(t, err)
		_, err = frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, circuit)
		require.NoError(t, err)
	}
}

// TestNewClaimCircuitValidation 工厂函数参数校验
func TestNewClaimCircuitValidation(t *testing.T) {
	_, err := NewClaimCircuit(0, testPremiums)
	assert.Error(t, err)

	_, err = NewClaimCircuit(MaxMerkleDepth+1, testPremiums)
	assert.Error(t, err)

	_, err = NewClaimCircuit(4, nil)
	assert.Error(t, err)
}
