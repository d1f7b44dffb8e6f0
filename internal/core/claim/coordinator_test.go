package claim

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceshield/v1/internal/core/commitment"
	"github.com/priceshield/v1/internal/core/encoding"
	"github.com/priceshield/v1/internal/core/oracle"
	"github.com/priceshield/v1/internal/core/policy"
	"github.com/priceshield/v1/internal/core/tier"
	"github.com/priceshield/v1/internal/core/zkclaim"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/storage"
	"github.com/priceshield/v1/pkg/interfaces/ledger"
)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memKV) Has(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *memKV) Close() error { return nil }

// fakeLedger 记录调用的账本假实现
type fakeLedger struct {
	root           string
	buyer          common.Address
	alreadyClaimed bool

	rootCalls   int
	policyCalls int
	claimCalls  int
}

func (f *fakeLedger) BuyPolicy(ctx context.Context, c common.Hash, premium uint64) (common.Hash, *big.Int, error) {
	return common.HexToHash("0xbuy"), big.NewInt(0), nil
}

func (f *fakeLedger) ClaimPayout(ctx context.Context, req *ledger.ClaimPayoutRequest) (common.Hash, error) {
	f.claimCalls++
	f.alreadyClaimed = true
	return common.HexToHash("0xclaimtx"), nil
}

func (f *fakeLedger) PriceMerkleRoot(ctx context.Context) (string, error) {
	f.rootCalls++
	return f.root, nil
}

func (f *fakeLedger) Policy(ctx context.Context, policyID *big.Int) (*ledger.OnChainPolicy, error) {
	f.policyCalls++
	return &ledger.OnChainPolicy{
		Buyer:          f.buyer,
		AlreadyClaimed: f.alreadyClaimed,
	}, nil
}

const (
	testAddress = "0x1111111111111111111111111111111111111111"
	otherWallet = "0x2222222222222222222222222222222222222222"
)

// consistentCase 构造链下自洽的保单+证明+根（深度2）
func consistentCase(t *testing.T) (*policy.PolicyRecord, *oracle.MerkleProof, string) {
	t.Helper()

	orderHash := big.NewInt(123456789)
	invoicePrice := big.NewInt(199990000)
	invoiceDate := big.NewInt(1785542400)
	productHash := big.NewInt(987654321)
	salt := big.NewInt(42424242)
	tierNo := big.NewInt(2)
	currentPrice := big.NewInt(99990000)

	secret := commitment.HashFields(orderHash, invoicePrice, invoiceDate, productHash, salt, tierNo)
	secretHex, err := encoding.ToHex32(secret.String())
	require.NoError(t, err)

	leaf := commitment.HashPair(productHash, currentPrice)
	siblings := []*big.Int{big.NewInt(1000), big.NewInt(1001)}
	node := commitment.HashPair(leaf, siblings[0])
	node = commitment.HashPair(siblings[1], node)

	record := &policy.PolicyRecord{
		PolicyID:         "0",
		TransactionHash:  "0xtx1",
		SecretCommitment: secretHex,
		Premium:          3000000,
		Tier:             2,
		ProductID:        "IPADPRO11",
		Details: &commitment.PurchaseDetails{
			OrderHash:    orderHash.String(),
			InvoicePrice: invoicePrice.Uint64(),
			InvoiceDate:  invoiceDate.Int64(),
			ProductHash:  productHash.String(),
			Salt:         salt.String(),
			SelectedTier: 2,
		},
	}
	proof := &oracle.MerkleProof{
		Leaf:         leaf.String(),
		Siblings:     []string{siblings[0].String(), siblings[1].String()},
		PathIndices:  []int{0, 1},
		Root:         node.String(),
		CurrentPrice: currentPrice.Uint64(),
		ProductHash:  productHash.String(),
		ProductID:    "IPADPRO11",
	}
	return record, proof, node.String()
}

// newCoordinator 组装测试协调器（深度2电路）
func newCoordinator(t *testing.T, store *policy.Store, ldg ledger.Ledger) *Coordinator {
	t.Helper()
	premiums := zkclaim.PremiumSchedule(tier.NewTable())
	builder := zkclaim.NewInputBuilder(encoding.NewEncoder(nil), 2, 10)
	prover := zkclaim.NewProver(zkclaim.NewArtifactManager(t.TempDir(), premiums, nil), premiums, nil)
	return NewCoordinator(store, ldg, builder, prover, nil, nil)
}

// seed 保存保单并写入资格快照
func seed(t *testing.T, store *policy.Store, record *policy.PolicyRecord, proof *oracle.MerkleProof, root string) {
	t.Helper()
	require.NoError(t, store.SavePolicy(testAddress, record))
	_, err := store.ReplaceEligibility(testAddress, record.PolicyID, &policy.EligibilitySnapshot{
		CheckedAt:      100,
		DropPercentage: 50,
		DropAmount:     100000000,
		CurrentPrice:   proof.CurrentPrice,
		MerkleRoot:     root,
		Proof:          proof,
		PayoutAmount:   100000000,
	}, policy.StatusEligible)
	require.NoError(t, err)
}

// TestSubmitClaimNoSnapshot 无资格快照时拒绝，且不触达账本
func TestSubmitClaimNoSnapshot(t *testing.T) {
	store := policy.NewStore(newMemKV(), nil)
	record, _, _ := consistentCase(t)
	require.NoError(t, store.SavePolicy(testAddress, record))

	ldg := &fakeLedger{}
	coordinator := newCoordinator(t, store, ldg)

	_, err := coordinator.SubmitClaim(context.Background(), testAddress, "0")
	assert.ErrorIs(t, err, ErrNoEligibilitySnapshot)
	assert.Zero(t, ldg.rootCalls)
	assert.Zero(t, ldg.claimCalls)
}

// TestSubmitClaimInvalidPolicyID 保单编号非法时拒绝，不触达账本
func TestSubmitClaimInvalidPolicyID(t *testing.T) {
	for _, badID := range []string{"abc", "-1", "1.5", ""} {
		store := policy.NewStore(newMemKV(), nil)
		record, proof, root := consistentCase(t)
		record.PolicyID = badID
		seed(t, store, record, proof, root)

		ldg := &fakeLedger{root: root}
		coordinator := newCoordinator(t, store, ldg)

		_, err := coordinator.SubmitClaim(context.Background(), testAddress, badID)
		assert.ErrorIs(t, err, ErrInvalidPolicyID, "policyID=%q", badID)
		assert.Zero(t, ldg.rootCalls)
		assert.Zero(t, ldg.claimCalls)
	}
}

// TestSubmitClaimStaleRoot 快照根落后于账本根时拒绝并可恢复
func TestSubmitClaimStaleRoot(t *testing.T) {
	store := policy.NewStore(newMemKV(), nil)
	record, proof, root := consistentCase(t)
	seed(t, store, record, proof, root)

	ldg := &fakeLedger{root: "999999", buyer: common.HexToAddress(testAddress)}
	coordinator := newCoordinator(t, store, ldg)

	_, err := coordinator.SubmitClaim(context.Background(), testAddress, "0")
	assert.ErrorIs(t, err, ErrStaleRoot)
	assert.Zero(t, ldg.claimCalls)

	// 保单状态未被破坏，重新检查资格后可重试
	current, err := store.GetPolicy(testAddress, "0")
	require.NoError(t, err)
	assert.Equal(t, policy.StatusEligible, current.Status)
}

// TestSubmitClaimHexSnapshotRoot 快照根为十六进制、账本根为十进制时
// 同一域元素不得被误判为过期根
func TestSubmitClaimHexSnapshotRoot(t *testing.T) {
	store := policy.NewStore(newMemKV(), nil)
	record, proof, root := consistentCase(t)

	// 预言机以0x十六进制发布根，账本以十进制域元素字符串返回同一根
	rootHex, err := encoding.ToHex32(root)
	require.NoError(t, err)
	seed(t, store, record, proof, rootHex)

	// 投保人设置为另一个钱包：根校验通过后流程应停在所有权校验，
	// 而不是更早的ErrStaleRoot
	ldg := &fakeLedger{root: root, buyer: common.HexToAddress(otherWallet)}
	coordinator := newCoordinator(t, store, ldg)

	_, err = coordinator.SubmitClaim(context.Background(), testAddress, "0")
	assert.NotErrorIs(t, err, ErrStaleRoot)
	assert.ErrorIs(t, err, ErrNotPolicyOwner)
	assert.Equal(t, 1, ldg.rootCalls)
	assert.Equal(t, 1, ldg.policyCalls)
}

// TestSubmitClaimNotOwner 钱包与链上投保人不一致时拒绝
func TestSubmitClaimNotOwner(t *testing.T) {
	store := policy.NewStore(newMemKV(), nil)
	record, proof, root := consistentCase(t)
	seed(t, store, record, proof, root)

	ldg := &fakeLedger{root: root, buyer: common.HexToAddress(otherWallet)}
	coordinator := newCoordinator(t, store, ldg)

	_, err := coordinator.SubmitClaim(context.Background(), testAddress, "0")
	assert.ErrorIs(t, err, ErrNotPolicyOwner)
	assert.Zero(t, ldg.claimCalls)
}

// TestSubmitClaimAlreadyClaimed 链上已理赔时拒绝，绝不二次提交
func TestSubmitClaimAlreadyClaimed(t *testing.T) {
	store := policy.NewStore(newMemKV(), nil)
	record, proof, root := consistentCase(t)
	seed(t, store, record, proof, root)

	ldg := &fakeLedger{root: root, buyer: common.HexToAddress(testAddress), alreadyClaimed: true}
	coordinator := newCoordinator(t, store, ldg)

	_, err := coordinator.SubmitClaim(context.Background(), testAddress, "0")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Zero(t, ldg.claimCalls)
}

// TestSubmitClaimSuccess 完整理赔流程：证明生成、提交、终态落库
func TestSubmitClaimSuccess(t *testing.T) {
	if testing.Short() {
		t.Skip("可信设置与证明生成耗时，short模式跳过")
	}

	store := policy.NewStore(newMemKV(), nil)
	record, proof, root := consistentCase(t)
	seed(t, store, record, proof, root)

	ldg := &fakeLedger{root: root, buyer: common.HexToAddress(testAddress)}
	coordinator := newCoordinator(t, store, ldg)

	updated, err := coordinator.SubmitClaim(context.Background(), testAddress, "0")
	require.NoError(t, err)

	assert.Equal(t, policy.StatusClaimed, updated.Status)
	assert.NotEmpty(t, updated.ClaimTxHash)
	assert.NotZero(t, updated.ClaimedAt)
	assert.Equal(t, 1, ldg.claimCalls)

	// claimed不可逆：二次提交在前置校验就被拒绝
	_, err = coordinator.SubmitClaim(context.Background(), testAddress, "0")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Equal(t, 1, ldg.claimCalls)
}
