// Package metrics 提供协议引擎的Prometheus指标
//
// 设计原则：
// - 仅暴露少量高价值指标，避免噪音
// - 不在热路径做复杂计算，更新开销尽量常数级
// - 使用默认Registry，通过 /metrics 统一抓取
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	commitmentsBuilt = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "priceshield",
		Subsystem: "commitment",
		Name:      "built_total",
		Help:      "Total number of purchase commitments constructed.",
	})

	oracleRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "priceshield",
			Subsystem: "oracle",
			Name:      "requests_total",
			Help:      "Total number of oracle HTTP requests by endpoint and result.",
		},
		[]string{"endpoint", "result"},
	)

	eligibilityChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "priceshield",
			Subsystem: "eligibility",
			Name:      "checks_total",
			Help:      "Total number of eligibility evaluations by outcome.",
		},
		[]string{"outcome"},
	)

	proofsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "priceshield",
			Subsystem: "zkclaim",
			Name:      "proofs_total",
			Help:      "Total number of claim proof generations by result.",
		},
		[]string{"result"},
	)

	proofDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "priceshield",
		Subsystem: "zkclaim",
		Name:      "proof_duration_seconds",
		Help:      "Duration of Groth16 claim proof generation.",
		// 证明生成以秒计，默认桶太密集
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	claimsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "priceshield",
			Subsystem: "claim",
			Name:      "submissions_total",
			Help:      "Total number of claim submissions by result.",
		},
		[]string{"result"},
	)
)

// Init 注册所有指标，幂等
func Init() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(
			commitmentsBuilt,
			oracleRequests,
			eligibilityChecks,
			proofsGenerated,
			proofDuration,
			claimsSubmitted,
		)
	})
}

// IncCommitmentBuilt 记录一次承诺构造
func IncCommitmentBuilt() {
	Init()
	commitmentsBuilt.Inc()
}

// IncOracleRequest 记录一次预言机请求
// result 取 "ok" 或 "error"
func IncOracleRequest(endpoint, result string) {
	Init()
	oracleRequests.WithLabelValues(endpoint, result).Inc()
}

// IncEligibilityCheck 记录一次资格评估
// outcome 取 "eligible"、"ineligible" 或 "error"
func IncEligibilityCheck(outcome string) {
	Init()
	eligibilityChecks.WithLabelValues(outcome).Inc()
}

// ObserveProofGeneration 记录一次证明生成及其耗时
// result 取 "ok" 或 "error"
func ObserveProofGeneration(result string, elapsed time.Duration) {
	Init()
	proofsGenerated.WithLabelValues(result).Inc()
	if result == "ok" {
		proofDuration.Observe(elapsed.Seconds())
	}
}

// IncClaimSubmission 记录一次理赔提交
// result 取 "ok" 或 "error"
func IncClaimSubmission(result string) {
	Init()
	claimsSubmitted.WithLabelValues(result).Inc()
}
