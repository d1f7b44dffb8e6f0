// Package eligibility 实现保单资格评估器
//
// 对OracleClient的薄组合：检查商品当前价格，生成资格快照写回保单，
// 并把状态更新为eligible或ineligible。每次重新检查整体覆盖上一份
// 快照（latest-wins）；价格不变时重复评估得到相同的状态与金额。
package eligibility

import (
	"context"
	"time"

	"github.com/priceshield/v1/internal/core/infrastructure/metrics"
	"github.com/priceshield/v1/internal/core/oracle"
	"github.com/priceshield/v1/internal/core/policy"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/event"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/log"
)

// PriceChecker 价格资格检查接口（由oracle.Client实现）
type PriceChecker interface {
	CheckEligibility(ctx context.Context, productID string, originalPriceMicros uint64, dropThresholdPercent uint64) (*oracle.EligibilityResult, error)
}

// Evaluator 保单资格评估器
type Evaluator struct {
	checker      PriceChecker
	store        *policy.Store
	bus          event.Bus
	logger       log.Logger
	thresholdPct uint64
}

// NewEvaluator 创建资格评估器
func NewEvaluator(checker PriceChecker, store *policy.Store, bus event.Bus, thresholdPct uint64, logger log.Logger) *Evaluator {
	return &Evaluator{
		checker:      checker,
		store:        store,
		bus:          bus,
		logger:       logger,
		thresholdPct: thresholdPct,
	}
}

// Evaluate 评估单张保单的理赔资格
//
// 赔付金额等于降价金额（降多少赔多少），上限由投保时的档位隐含
// （保额边界在投保时已校验）。claimed保单不再评估。
func (e *Evaluator) Evaluate(ctx context.Context, address, policyID string) (*policy.PolicyRecord, error) {
	record, err := e.store.GetPolicy(address, policyID)
	if err != nil {
		return nil, err
	}
	if record.Status == policy.StatusClaimed {
		return nil, policy.ErrClaimedImmutable
	}
	if record.Details == nil {
		return nil, policy.WrapMissingOpeningError(policyID)
	}

	result, err := e.checker.CheckEligibility(ctx, record.ProductID, record.Details.InvoicePrice, e.thresholdPct)
	if err != nil {
		metrics.IncEligibilityCheck("error")
		return nil, err
	}

	snapshot := &policy.EligibilitySnapshot{
		CheckedAt:      time.Now().Unix(),
		DropPercentage: result.DropPercentage,
		DropAmount:     result.DropAmount,
		CurrentPrice:   result.CurrentPrice,
		MerkleRoot:     result.MerkleRoot,
		Proof:          result.Proof,
		PayoutAmount:   result.DropAmount,
	}

	status := policy.StatusIneligible
	if result.Eligible {
		status = policy.StatusEligible
	}
	metrics.IncEligibilityCheck(string(status))

	updated, err := e.store.ReplaceEligibility(address, policyID, snapshot, status)
	if err != nil {
		return nil, err
	}

	if e.logger != nil {
		e.logger.Infof("保单资格评估完成: policyID=%s status=%s drop=%d(%.2f%%)",
			policyID, status, result.DropAmount, result.DropPercentage)
	}

	if e.bus != nil {
		topic := event.TopicPolicyIneligible
		if result.Eligible {
			topic = event.TopicPolicyEligible
		}
		e.bus.Publish(topic, address, policyID)
	}

	return updated, nil
}

// EvaluateAll 评估地址名下全部未理赔保单
//
// 单张失败不阻断其余保单的评估，失败项记录日志后跳过。
func (e *Evaluator) EvaluateAll(ctx context.Context, address string) ([]*policy.PolicyRecord, error) {
	records, err := e.store.ListPolicies(address)
	if err != nil {
		return nil, err
	}

	updated := make([]*policy.PolicyRecord, 0, len(records))
	for _, record := range records {
		if record.Status == policy.StatusClaimed {
			updated = append(updated, record)
			continue
		}

		result, err := e.Evaluate(ctx, address, record.PolicyID)
		if err != nil {
			if e.logger != nil {
				e.logger.Warnf("保单资格评估失败，跳过: policyID=%s err=%v", record.PolicyID, err)
			}
			updated = append(updated, record)
			continue
		}
		updated = append(updated, result)
	}

	return updated, nil
}
