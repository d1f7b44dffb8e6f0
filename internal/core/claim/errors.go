package claim

import (
	"errors"
	"fmt"
)

// ============================================================================
//                            理赔协调器错误定义
// ============================================================================

var (
	// ErrNoEligibilitySnapshot 缺少资格快照错误
	// 提交理赔前必须先完成资格检查
	ErrNoEligibilitySnapshot = errors.New("eligibility snapshot with proof required before claim")

	// ErrInvalidPolicyID 保单编号非法错误
	ErrInvalidPolicyID = errors.New("policy id must be a non-negative integer string")

	// ErrStaleRoot 快照根与链上根不一致错误
	// 可恢复错误：重新运行资格检查获取新快照后重试
	ErrStaleRoot = errors.New("snapshot merkle root is stale against ledger root")

	// ErrNotPolicyOwner 提交钱包与链上登记投保人不一致错误（不可重试）
	ErrNotPolicyOwner = errors.New("submitting wallet is not the registered policy buyer")

	// ErrAlreadyClaimed 链上保单已理赔错误（不可重试）
	ErrAlreadyClaimed = errors.New("policy already claimed on ledger")
)

// WrapStaleRootError 包装根不一致错误
func WrapStaleRootError(snapshotRoot, ledgerRoot string) error {
	return fmt.Errorf("%w: snapshot=%s, ledger=%s", ErrStaleRoot, snapshotRoot, ledgerRoot)
}

// WrapNotPolicyOwnerError 包装所有权不一致错误
func WrapNotPolicyOwnerError(wallet, buyer string) error {
	return fmt.Errorf("%w: wallet=%s, buyer=%s", ErrNotPolicyOwner, wallet, buyer)
}
