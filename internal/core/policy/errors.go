package policy

import (
	"errors"
	"fmt"
)

// ============================================================================
//                              保单库错误定义
// ============================================================================

var (
	// ErrPolicyNotFound 保单记录未找到错误
	ErrPolicyNotFound = errors.New("policy record not found")

	// ErrClaimedImmutable 已理赔保单不可变更错误
	// claimed是终态，状态、承诺、保费都不允许再修改
	ErrClaimedImmutable = errors.New("claimed policy is immutable")

	// ErrInvalidTransition 非法状态迁移错误
	ErrInvalidTransition = errors.New("invalid policy status transition")

	// ErrMissingOpening 保单记录缺少私有开启错误
	// 没有开启无法复算承诺、检查资格或装配证明输入
	ErrMissingOpening = errors.New("policy record missing purchase opening")
)

// WrapPolicyNotFoundError 包装保单未找到错误
func WrapPolicyNotFoundError(address, policyID string) error {
	return fmt.Errorf("%w: address=%s, policyID=%s", ErrPolicyNotFound, address, policyID)
}

// WrapInvalidTransitionError 包装非法状态迁移错误
func WrapInvalidTransitionError(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// WrapMissingOpeningError 包装缺少私有开启错误
func WrapMissingOpeningError(policyID string) error {
	return fmt.Errorf("%w: policyID=%s", ErrMissingOpening, policyID)
}
