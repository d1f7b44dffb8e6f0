package policy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceshield/v1/internal/core/oracle"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/storage"
)

// memKV 内存KV实现，测试专用
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

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

const testAddress = "0xAbCd000000000000000000000000000000001234"

func newTestRecord(policyID, txHash string) *PolicyRecord {
	return &PolicyRecord{
		PolicyID:         policyID,
		TransactionHash:  txHash,
		SecretCommitment: "0xabc123",
		ProductID:        "IPADPRO11",
		Premium:          3000000,
		Tier:             2,
	}
}

// TestSavePolicyDefaults 首次保存补全RecordID/CreatedAt/Status
func TestSavePolicyDefaults(t *testing.T) {
	store := NewStore(newMemKV(), nil)

	require.NoError(t, store.SavePolicy(testAddress, newTestRecord("0", "0xtx1")))

	records, err := store.ListPolicies(testAddress)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].RecordID)
	assert.NotZero(t, records[0].CreatedAt)
	assert.Equal(t, StatusActive, records[0].Status)
}

// TestSavePolicyDuplicateTxHash 同一transactionHash重复保存是no-op
func TestSavePolicyDuplicateTxHash(t *testing.T) {
	store := NewStore(newMemKV(), nil)

	require.NoError(t, store.SavePolicy(testAddress, newTestRecord("0", "0xtx1")))
	require.NoError(t, store.SavePolicy(testAddress, newTestRecord("0", "0xtx1")))
	require.NoError(t, store.SavePolicy(testAddress, newTestRecord("1", "0xtx2")))

	records, err := store.ListPolicies(testAddress)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

// TestAddressCaseNormalization 地址大小写不会造成查找miss
func TestAddressCaseNormalization(t *testing.T) {
	store := NewStore(newMemKV(), nil)

	require.NoError(t, store.SavePolicy(testAddress, newTestRecord("0", "0xtx1")))

	upper, err := store.ListPolicies("0XABCD000000000000000000000000000000001234")
	require.NoError(t, err)
	assert.Len(t, upper, 1)

	record, err := store.GetPolicy("0xabcd000000000000000000000000000000001234", "0")
	require.NoError(t, err)
	assert.Equal(t, "0xtx1", record.TransactionHash)
}

// TestGetPolicyNotFound 未知保单返回ErrPolicyNotFound
func TestGetPolicyNotFound(t *testing.T) {
	store := NewStore(newMemKV(), nil)

	_, err := store.GetPolicy(testAddress, "42")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPolicyNotFound)
}

// TestUpdatePolicyTransitions 合法状态迁移
func TestUpdatePolicyTransitions(t *testing.T) {
	store := NewStore(newMemKV(), nil)
	require.NoError(t, store.SavePolicy(testAddress, newTestRecord("0", "0xtx1")))

	// active → eligible
	updated, err := store.UpdatePolicy(testAddress, "0", func(r *PolicyRecord) error {
		r.Status = StatusEligible
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusEligible, updated.Status)

	// eligible → ineligible（重新检查latest-wins）
	updated, err = store.UpdatePolicy(testAddress, "0", func(r *PolicyRecord) error {
		r.Status = StatusIneligible
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusIneligible, updated.Status)

	// ineligible → eligible → claimed
	_, err = store.UpdatePolicy(testAddress, "0", func(r *PolicyRecord) error {
		r.Status = StatusEligible
		return nil
	})
	require.NoError(t, err)
	updated, err = store.UpdatePolicy(testAddress, "0", func(r *PolicyRecord) error {
		r.Status = StatusClaimed
		r.ClaimTxHash = "0xclaim"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusClaimed, updated.Status)
}

// TestUpdatePolicyInvalidTransition active不能直接跳到claimed
func TestUpdatePolicyInvalidTransition(t *testing.T) {
	store := NewStore(newMemKV(), nil)
	require.NoError(t, store.SavePolicy(testAddress, newTestRecord("0", "0xtx1")))

	_, err := store.UpdatePolicy(testAddress, "0", func(r *PolicyRecord) error {
		r.Status = StatusClaimed
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// 失败的变换不落库
	record, err := store.GetPolicy(testAddress, "0")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, record.Status)
}

// TestClaimedImmutable claimed是终态，状态/承诺/保费不可再变
func TestClaimedImmutable(t *testing.T) {
	store := NewStore(newMemKV(), nil)
	require.NoError(t, store.SavePolicy(testAddress, newTestRecord("0", "0xtx1")))

	_, err := store.UpdatePolicy(testAddress, "0", func(r *PolicyRecord) error {
		r.Status = StatusEligible
		return nil
	})
	require.NoError(t, err)
	_, err = store.UpdatePolicy(testAddress, "0", func(r *PolicyRecord) error {
		r.Status = StatusClaimed
		return nil
	})
	require.NoError(t, err)

	for _, mutate := range []func(*PolicyRecord) error{
		func(r *PolicyRecord) error { r.Status = StatusEligible; return nil },
		func(r *PolicyRecord) error { r.SecretCommitment = "0xother"; return nil },
		func(r *PolicyRecord) error { r.Premium = 1; return nil },
	} {
		_, err := store.UpdatePolicy(testAddress, "0", mutate)
		assert.ErrorIs(t, err, ErrClaimedImmutable)
	}
}

// TestMergePolicyDeepMergesEligibility 部分更新不抹掉快照中未提及的字段
func TestMergePolicyDeepMergesEligibility(t *testing.T) {
	store := NewStore(newMemKV(), nil)
	require.NoError(t, store.SavePolicy(testAddress, newTestRecord("0", "0xtx1")))

	// 先写入完整快照
	snapshot := &EligibilitySnapshot{
		CheckedAt:      100,
		DropPercentage: 50,
		DropAmount:     100000000,
		CurrentPrice:   99990000,
		MerkleRoot:     "42",
		Proof:          &oracle.MerkleProof{Leaf: "1", Root: "42"},
		PayoutAmount:   100000000,
	}
	_, err := store.ReplaceEligibility(testAddress, "0", snapshot, StatusEligible)
	require.NoError(t, err)

	// 只更新CheckedAt与DropAmount
	newCheckedAt := int64(200)
	newDrop := uint64(120000000)
	updated, err := store.MergePolicy(testAddress, "0", &Patch{
		Eligibility: &SnapshotPatch{
			CheckedAt:  &newCheckedAt,
			DropAmount: &newDrop,
		},
	})
	require.NoError(t, err)

	require.NotNil(t, updated.Eligibility)
	assert.Equal(t, int64(200), updated.Eligibility.CheckedAt)
	assert.Equal(t, uint64(120000000), updated.Eligibility.DropAmount)
	// 未提及的字段保留原值
	assert.Equal(t, "42", updated.Eligibility.MerkleRoot)
	assert.Equal(t, uint64(99990000), updated.Eligibility.CurrentPrice)
	require.NotNil(t, updated.Eligibility.Proof)
}

// TestSaveCommitmentIdempotent 承诺记录按承诺值去重
func TestSaveCommitmentIdempotent(t *testing.T) {
	store := NewStore(newMemKV(), nil)

	record := &CommitmentRecord{Commitment: "0xc1", Tier: 2, Premium: 3000000}
	require.NoError(t, store.SaveCommitment(testAddress, record))
	require.NoError(t, store.SaveCommitment(testAddress, &CommitmentRecord{Commitment: "0xc1"}))

	records, err := store.ListCommitments(testAddress)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.NotEmpty(t, records[0].RecordID)
}

// TestWipe 显式清空地址名下的全部记录
func TestWipe(t *testing.T) {
	store := NewStore(newMemKV(), nil)
	require.NoError(t, store.SavePolicy(testAddress, newTestRecord("0", "0xtx1")))
	require.NoError(t, store.SaveCommitment(testAddress, &CommitmentRecord{Commitment: "0xc1"}))

	require.NoError(t, store.Wipe(testAddress))

	policies, err := store.ListPolicies(testAddress)
	require.NoError(t, err)
	assert.Empty(t, policies)
	commitments, err := store.ListCommitments(testAddress)
	require.NoError(t, err)
	assert.Empty(t, commitments)
}
