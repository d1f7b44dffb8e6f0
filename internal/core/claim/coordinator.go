// Package claim 实现理赔提交协调器（ClaimSubmissionCoordinator）
//
// 🎯 **核心职责**：
// 把资格快照变成一笔链上理赔交易：前置校验 → 装配电路输入 →
// 生成Groth16证明 → 提交账本 → 落库终态。
//
// ⚠️ **关键不变量**：
// - 全部前置条件在提交交易之前完成校验，任何一条不满足都不会发出交易
// - 整个证明/提交序列完成之前不发生任何持久化写入：中途取消或失败
//   不会破坏保单库状态
// - claimed转换不可逆，同一保单绝不允许二次理赔
package claim

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/priceshield/v1/internal/core/encoding"
	"github.com/priceshield/v1/internal/core/infrastructure/metrics"
	"github.com/priceshield/v1/internal/core/policy"
	"github.com/priceshield/v1/internal/core/zkclaim"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/event"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/log"
	"github.com/priceshield/v1/pkg/interfaces/ledger"
)

// Coordinator 理赔提交协调器
type Coordinator struct {
	store  *policy.Store
	ledger ledger.Ledger
	inputs *zkclaim.InputBuilder
	prover *zkclaim.Prover
	bus    event.Bus
	logger log.Logger
}

// NewCoordinator 创建理赔协调器
func NewCoordinator(
	store *policy.Store,
	ldg ledger.Ledger,
	inputs *zkclaim.InputBuilder,
	prover *zkclaim.Prover,
	bus event.Bus,
	logger log.Logger,
) *Coordinator {
	return &Coordinator{
		store:  store,
		ledger: ldg,
		inputs: inputs,
		prover: prover,
		bus:    bus,
		logger: logger,
	}
}

// SubmitClaim 提交理赔
//
// 📋 **前置条件（全部在提交交易前校验）**：
//  1. 保单存在资格快照且快照携带Merkle证明
//  2. policyId是格式正确的非负整数字符串
//  3. 账本当前发布的Merkle根等于快照根（防价格更新竞态，
//     不一致返回ErrStaleRoot，重新检查资格后可重试）
//  4. 账本登记的投保人等于提交钱包
//  5. 账本记录未标记已理赔
//
// 成功后状态转为claimed并记录结算交易哈希，该转换不可逆。
func (c *Coordinator) SubmitClaim(ctx context.Context, address, policyID string) (*policy.PolicyRecord, error) {
	record, err := c.store.GetPolicy(address, policyID)
	if err != nil {
		return nil, err
	}

	// 前置1: 资格快照与证明
	if record.Eligibility == nil || record.Eligibility.Proof == nil {
		return nil, ErrNoEligibilitySnapshot
	}
	snapshot := record.Eligibility

	// 前置2: 保单编号格式
	id, ok := new(big.Int).SetString(strings.TrimSpace(record.PolicyID), 10)
	if !ok || id.Sign() < 0 {
		return nil, ErrInvalidPolicyID
	}

	// 前置3: 快照根对账本根
	// 快照根沿用预言机发布时的编码（可能是0x十六进制），账本根是
	// 十进制域元素字符串，统一解析为域元素后比较，避免同一根因
	// 编码不同被误判为过期
	ledgerRoot, err := c.ledger.PriceMerkleRoot(ctx)
	if err != nil {
		return nil, err
	}
	ledgerRootField, err := encoding.ParseField(ledgerRoot)
	if err != nil {
		return nil, fmt.Errorf("解析账本merkle根失败: root=%s, cause=%w", ledgerRoot, err)
	}
	snapshotRootField, err := encoding.ParseField(snapshot.MerkleRoot)
	if err != nil {
		return nil, fmt.Errorf("解析快照merkle根失败: root=%s, cause=%w", snapshot.MerkleRoot, err)
	}
	if ledgerRootField.Cmp(snapshotRootField) != 0 {
		return nil, WrapStaleRootError(snapshot.MerkleRoot, ledgerRoot)
	}

	// 前置4+5: 链上所有权与重复理赔
	onchain, err := c.ledger.Policy(ctx, id)
	if err != nil {
		return nil, err
	}
	if onchain.Buyer != common.HexToAddress(address) {
		return nil, WrapNotPolicyOwnerError(address, onchain.Buyer.Hex())
	}
	if onchain.AlreadyClaimed {
		return nil, ErrAlreadyClaimed
	}

	// 装配输入并生成证明（长耗时，可被ctx取消，取消不留下任何写入）
	inputs, err := c.inputs.BuildInputs(record, snapshot.Proof, ledgerRoot)
	if err != nil {
		return nil, err
	}
	result, err := c.prover.GenerateProof(ctx, inputs)
	if err != nil {
		return nil, err
	}

	txHash, err := c.ledger.ClaimPayout(ctx, &ledger.ClaimPayoutRequest{
		PolicyID:      id,
		Commitment:    common.HexToHash(record.SecretCommitment),
		MerkleRoot:    ledgerRoot,
		PurchaseDate:  uint64(record.Details.InvoiceDate),
		Premium:       record.Premium,
		ProofA:        result.Proof.A,
		ProofB:        result.Proof.B,
		ProofC:        result.Proof.C,
		PublicSignals: result.PublicSignals,
	})
	if err != nil {
		metrics.IncClaimSubmission("error")
		return nil, err
	}
	metrics.IncClaimSubmission("ok")

	// 交易已提交，落库终态（首次持久化写入）
	claimedStatus := policy.StatusClaimed
	claimTx := txHash.Hex()
	claimedAt := time.Now().Unix()
	updated, err := c.store.MergePolicy(address, policyID, &policy.Patch{
		Status:      &claimedStatus,
		ClaimTxHash: &claimTx,
		ClaimedAt:   &claimedAt,
	})
	if err != nil {
		// 交易已上链但本地落库失败：记录后原样返回错误，
		// 下次同步时以链上alreadyClaimed为准
		if c.logger != nil {
			c.logger.Errorf("理赔交易已提交但本地状态更新失败: policyID=%s tx=%s err=%v",
				policyID, claimTx, err)
		}
		return nil, err
	}

	if c.logger != nil {
		c.logger.Infof("理赔提交完成: policyID=%s tx=%s payout=%d", policyID, claimTx, snapshot.PayoutAmount)
	}
	if c.bus != nil {
		c.bus.Publish(event.TopicPolicyClaimed, strings.ToLower(address), policyID)
	}

	return updated, nil
}
