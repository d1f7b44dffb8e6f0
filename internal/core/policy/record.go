// Package policy 实现保单记录与保单库（PolicyStore）
//
// 🎯 **核心职责**：
// - 按钱包地址持久化保单记录与承诺记录
// - 保证transactionHash去重（同一链上购买只落一条记录）
// - 保证状态机单调：active → {eligible, ineligible} → claimed，claimed终态
//
// 🏗️ **实现策略**：
// 每个地址的保单存成一个JSON数组，整体读出、内存修改、整体写回；
// 底层KV的单键原子写保证不会出现集合的部分覆盖。
package policy

import (
	"github.com/priceshield/v1/internal/core/commitment"
	"github.com/priceshield/v1/internal/core/oracle"
)

// Status 保单状态
type Status string

// 保单状态常量
// checking/claiming是协调器内部的瞬时状态，不落库
const (
	StatusActive     Status = "active"     // 已投保，未检查资格
	StatusEligible   Status = "eligible"   // 满足理赔条件
	StatusIneligible Status = "ineligible" // 不满足理赔条件
	StatusClaimed    Status = "claimed"    // 已理赔（终态）
)

// ContractAddresses 保单关联的链上合约地址
type ContractAddresses struct {
	Vault    string `json:"vault"`    // 保险金库合约
	Token    string `json:"token"`    // 结算代币合约
	Verifier string `json:"verifier"` // Groth16验证合约
}

// EligibilitySnapshot 资格检查快照
//
// 附着在保单记录上的瞬时缓存，每次重新检查都会整体覆盖（latest-wins）。
// 提交理赔前必须存在且包含证明。
type EligibilitySnapshot struct {
	CheckedAt      int64               `json:"checked_at"`      // 检查时间（unix秒）
	DropPercentage float64             `json:"drop_percentage"` // 降价百分比
	DropAmount     uint64              `json:"drop_amount"`     // 降价金额（micro-units）
	CurrentPrice   uint64              `json:"current_price"`   // 当前价格（micro-units）
	MerkleRoot     string              `json:"merkle_root"`     // 检查时的目录根
	Proof          *oracle.MerkleProof `json:"proof"`           // 商品的Merkle包含证明
	PayoutAmount   uint64              `json:"payout_amount"`   // 赔付金额（micro-units）
}

// PolicyRecord 保单记录
//
// 生命周期：链上购买确认后创建一次；之后只有资格评估器
// （status+eligibility）和理赔协调器（status→claimed、claimTxHash、
// claimedAt）会修改它；除显式wipe外永不删除。
type PolicyRecord struct {
	RecordID         string                      `json:"record_id"`         // 本地记录标识（UUID）
	PolicyID         string                      `json:"policy_id"`         // 账本分配的保单编号（非负整数字符串）
	TransactionHash  string                      `json:"transaction_hash"`  // 购买交易哈希（去重键）
	SecretCommitment string                      `json:"secret_commitment"` // 购买承诺（0x固定64位十六进制）
	Details          *commitment.PurchaseDetails `json:"details"`           // 私有开启（仅存本地）
	ProductID        string                      `json:"product_id"`        // 商品标识（资格检查用）
	ProductName      string                      `json:"product_name"`      // 商品名称（展示用）
	Premium          uint64                      `json:"premium"`           // 已付保费（micro-units）
	Tier             uint32                      `json:"tier"`              // 保障档位
	Contracts        ContractAddresses           `json:"contracts"`         // 关联合约地址
	Status           Status                      `json:"status"`            // 当前状态
	Eligibility      *EligibilitySnapshot        `json:"eligibility"`       // 最近一次资格快照
	ClaimTxHash      string                      `json:"claim_tx_hash"`     // 理赔交易哈希
	ClaimedAt        int64                       `json:"claimed_at"`        // 理赔时间（unix秒）
	CreatedAt        int64                       `json:"created_at"`        // 创建时间（unix秒）
}

// CommitmentRecord 承诺记录
// 投保动作先于链上确认产生承诺，单独留档便于恢复与审计
type CommitmentRecord struct {
	RecordID   string                      `json:"record_id"`  // 本地记录标识（UUID）
	Commitment string                      `json:"commitment"` // 购买承诺
	Details    *commitment.PurchaseDetails `json:"details"`    // 私有开启
	Tier       uint32                      `json:"tier"`       // 保障档位
	Premium    uint64                      `json:"premium"`    // 应付保费（micro-units）
	CreatedAt  int64                       `json:"created_at"` // 创建时间（unix秒）
}

// SnapshotPatch 资格快照的部分更新
// 指针语义区分"未提及"与"显式置零"；未提及的字段保留原值
type SnapshotPatch struct {
	CheckedAt      *int64              `json:"checked_at,omitempty"`
	DropPercentage *float64            `json:"drop_percentage,omitempty"`
	DropAmount     *uint64             `json:"drop_amount,omitempty"`
	CurrentPrice   *uint64             `json:"current_price,omitempty"`
	MerkleRoot     *string             `json:"merkle_root,omitempty"`
	Proof          *oracle.MerkleProof `json:"proof,omitempty"`
	PayoutAmount   *uint64             `json:"payout_amount,omitempty"`
}

// Patch 保单记录的部分更新
// 顶层字段浅合并，eligibility子对象深度合并
type Patch struct {
	PolicyID    *string        `json:"policy_id,omitempty"`
	Status      *Status        `json:"status,omitempty"`
	ClaimTxHash *string        `json:"claim_tx_hash,omitempty"`
	ClaimedAt   *int64         `json:"claimed_at,omitempty"`
	Eligibility *SnapshotPatch `json:"eligibility,omitempty"`
}

// canTransition 判断状态迁移是否合法
//
// 状态机单调：active → {eligible, ineligible} → claimed。
// eligible与ineligible之间允许随重新检查互转（latest-wins），
// claimed是终态。原状态保持不变恒为合法。
func canTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusActive:
		return to == StatusEligible || to == StatusIneligible
	case StatusEligible:
		return to == StatusIneligible || to == StatusClaimed
	case StatusIneligible:
		return to == StatusEligible || to == StatusClaimed
	case StatusClaimed:
		return false
	default:
		return false
	}
}
