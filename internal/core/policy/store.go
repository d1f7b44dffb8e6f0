package policy

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/priceshield/v1/pkg/interfaces/infrastructure/log"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/storage"
)

// 存储键前缀
// 每个地址的保单/承诺各存一个JSON数组，键按小写地址归一化
const (
	policiesKeyPrefix    = "policies_"
	commitmentsKeyPrefix = "commitments_"
)

// Store 保单库
//
// ⚠️ **并发约定**：
// 同一保单的操作必须由调用方串行化（引擎是单actor-per-policy模型）。
// 这里的读写锁只保证单次load-modify-store不被穿插，不提供跨调用的
// 乐观并发控制。
type Store struct {
	kv     storage.KVStore
	logger log.Logger
	mu     sync.RWMutex
}

// NewStore 创建保单库
func NewStore(kv storage.KVStore, logger log.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger,
	}
}

// SavePolicy 保存保单记录
//
// 同一transactionHash的重复保存是静默no-op而不是错误：链上确认回调
// 可能被触发多次，幂等落库。首次保存时补全RecordID/CreatedAt/Status。
func (s *Store) SavePolicy(address string, record *PolicyRecord) error {
	if record == nil {
		return fmt.Errorf("保单记录不能为空")
	}
	if record.TransactionHash == "" {
		return fmt.Errorf("保单记录缺少transactionHash")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadPolicies(address)
	if err != nil {
		return err
	}

	for _, existing := range records {
		if existing.TransactionHash == record.TransactionHash {
			// 重复保存：幂等no-op
			return nil
		}
	}

	if record.RecordID == "" {
		record.RecordID = uuid.NewString()
	}
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().Unix()
	}
	if record.Status == "" {
		record.Status = StatusActive
	}

	records = append(records, record)
	return s.storePolicies(address, records)
}

// GetPolicy 读取指定保单记录
func (s *Store) GetPolicy(address, policyID string) (*PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.loadPolicies(address)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		if record.PolicyID == policyID {
			return record, nil
		}
	}
	return nil, WrapPolicyNotFoundError(address, policyID)
}

// ListPolicies 列出地址名下全部保单记录
func (s *Store) ListPolicies(address string) ([]*PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadPolicies(address)
}

// UpdatePolicy 加载保单、应用纯变换、校验后持久化
//
// mutator返回错误时不落库。变换后的记录要过状态机校验：
// claimed记录的状态、承诺、保费均不可再变。
func (s *Store) UpdatePolicy(address, policyID string, mutator func(*PolicyRecord) error) (*PolicyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadPolicies(address)
	if err != nil {
		return nil, err
	}

	for i, record := range records {
		if record.PolicyID != policyID {
			continue
		}

		// 在副本上应用变换，校验失败时原集合不受影响
		updated := record.clone()
		if err := mutator(updated); err != nil {
			return nil, err
		}
		if err := validateMutation(record, updated); err != nil {
			return nil, err
		}

		records[i] = updated
		if err := s.storePolicies(address, records); err != nil {
			return nil, err
		}
		return updated, nil
	}

	return nil, WrapPolicyNotFoundError(address, policyID)
}

// MergePolicy 部分更新保单记录
//
// 顶层字段浅合并，eligibility子对象深度合并：patch未提及的快照
// 字段保留原值，不会被抹掉。
func (s *Store) MergePolicy(address, policyID string, patch *Patch) (*PolicyRecord, error) {
	if patch == nil {
		return s.GetPolicy(address, policyID)
	}

	return s.UpdatePolicy(address, policyID, func(record *PolicyRecord) error {
		if patch.PolicyID != nil {
			record.PolicyID = *patch.PolicyID
		}
		if patch.Status != nil {
			record.Status = *patch.Status
		}
		if patch.ClaimTxHash != nil {
			record.ClaimTxHash = *patch.ClaimTxHash
		}
		if patch.ClaimedAt != nil {
			record.ClaimedAt = *patch.ClaimedAt
		}
		if patch.Eligibility != nil {
			mergeSnapshot(record, patch.Eligibility)
		}
		return nil
	})
}

// ReplaceEligibility 整体覆盖资格快照（latest-wins）并更新状态
func (s *Store) ReplaceEligibility(address, policyID string, snapshot *EligibilitySnapshot, status Status) (*PolicyRecord, error) {
	return s.UpdatePolicy(address, policyID, func(record *PolicyRecord) error {
		record.Eligibility = snapshot
		record.Status = status
		return nil
	})
}

// SaveCommitment 保存承诺记录
// 投保动作先于链上确认产生承诺，单独留档便于崩溃恢复
func (s *Store) SaveCommitment(address string, record *CommitmentRecord) error {
	if record == nil {
		return fmt.Errorf("承诺记录不能为空")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadCommitments(address)
	if err != nil {
		return err
	}

	for _, existing := range records {
		if existing.Commitment == record.Commitment {
			return nil
		}
	}

	if record.RecordID == "" {
		record.RecordID = uuid.NewString()
	}
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().Unix()
	}

	records = append(records, record)
	return s.storeCommitments(address, records)
}

// ListCommitments 列出地址名下全部承诺记录
func (s *Store) ListCommitments(address string) ([]*CommitmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadCommitments(address)
}

// Wipe 删除地址名下的全部保单与承诺记录
func (s *Store) Wipe(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(policiesKey(address)); err != nil {
		return fmt.Errorf("删除保单集合失败: %w", err)
	}
	if err := s.kv.Delete(commitmentsKey(address)); err != nil {
		return fmt.Errorf("删除承诺集合失败: %w", err)
	}

	if s.logger != nil {
		s.logger.Infof("已清空地址的本地保单数据: address=%s", strings.ToLower(address))
	}
	return nil
}

// ============================================================================
//                               内部辅助方法
// ============================================================================

func (s *Store) loadPolicies(address string) ([]*PolicyRecord, error) {
	data, err := s.kv.Get(policiesKey(address))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取保单集合失败: %w", err)
	}

	var records []*PolicyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("解析保单集合失败: %w", err)
	}
	return records, nil
}

func (s *Store) storePolicies(address string, records []*PolicyRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("序列化保单集合失败: %w", err)
	}
	// 单键原子写：失败时旧集合保持完整，不会出现部分覆盖
	if err := s.kv.Set(policiesKey(address), data); err != nil {
		return fmt.Errorf("写入保单集合失败: %w", err)
	}
	return nil
}

func (s *Store) loadCommitments(address string) ([]*CommitmentRecord, error) {
	data, err := s.kv.Get(commitmentsKey(address))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取承诺集合失败: %w", err)
	}

	var records []*CommitmentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("解析承诺集合失败: %w", err)
	}
	return records, nil
}

func (s *Store) storeCommitments(address string, records []*CommitmentRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("序列化承诺集合失败: %w", err)
	}
	if err := s.kv.Set(commitmentsKey(address), data); err != nil {
		return fmt.Errorf("写入承诺集合失败: %w", err)
	}
	return nil
}

// policiesKey 保单集合键（地址小写归一化，大小写不因查询方式不同而miss）
func policiesKey(address string) string {
	return policiesKeyPrefix + strings.ToLower(address)
}

// commitmentsKey 承诺集合键
func commitmentsKey(address string) string {
	return commitmentsKeyPrefix + strings.ToLower(address)
}

// validateMutation 校验一次变换是否违反状态机约束
func validateMutation(before, after *PolicyRecord) error {
	if before.Status == StatusClaimed {
		if after.Status != before.Status ||
			after.SecretCommitment != before.SecretCommitment ||
			after.Premium != before.Premium {
			return ErrClaimedImmutable
		}
		return nil
	}
	if !canTransition(before.Status, after.Status) {
		return WrapInvalidTransitionError(before.Status, after.Status)
	}
	return nil
}

// mergeSnapshot 深度合并资格快照
func mergeSnapshot(record *PolicyRecord, patch *SnapshotPatch) {
	if record.Eligibility == nil {
		record.Eligibility = &EligibilitySnapshot{}
	}
	snap := record.Eligibility

	if patch.CheckedAt != nil {
		snap.CheckedAt = *patch.CheckedAt
	}
	if patch.DropPercentage != nil {
		snap.DropPercentage = *patch.DropPercentage
	}
	if patch.DropAmount != nil {
		snap.DropAmount = *patch.DropAmount
	}
	if patch.CurrentPrice != nil {
		snap.CurrentPrice = *patch.CurrentPrice
	}
	if patch.MerkleRoot != nil {
		snap.MerkleRoot = *patch.MerkleRoot
	}
	if patch.Proof != nil {
		snap.Proof = patch.Proof
	}
	if patch.PayoutAmount != nil {
		snap.PayoutAmount = *patch.PayoutAmount
	}
}

// clone 深拷贝保单记录（经JSON往返，记录全部字段可序列化）
func (r *PolicyRecord) clone() *PolicyRecord {
	data, err := json.Marshal(r)
	if err != nil {
		// 记录字段均为可序列化类型，此分支不可达
		copied := *r
		return &copied
	}
	var copied PolicyRecord
	if err := json.Unmarshal(data, &copied); err != nil {
		fallback := *r
		return &fallback
	}
	return &copied
}
