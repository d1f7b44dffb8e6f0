package zkclaim

import (
	"context"
	"io"
	"math/big"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/frontend"
	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"github.com/priceshield/v1/internal/core/infrastructure/metrics"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/log"
)

// ProofPoints 链上验证合约期望的证明坐标编码（十进制字符串）
type ProofPoints struct {
	A [2]string    `json:"a"`
	B [2][2]string `json:"b"`
	C [2]string    `json:"c"`
}

// ProofResult 证明生成结果
type ProofResult struct {
	Proof           ProofPoints `json:"proof"`          // 证明三元组
	PublicSignals   []string    `json:"publicSignals"`  // 公开信号向量（十进制字符串）
	LocallyVerified bool        `json:"locallyVerified"` // 本地验证是否通过
}

// Prover 理赔证明生成器
//
// 🏗️ **技术栈**：基于gnark库实现Groth16证明方案（BN254曲线）
type Prover struct {
	artifacts    *ArtifactManager
	tierPremiums []uint64
	logger       log.Logger
}

// NewProver 创建证明生成器
func NewProver(artifacts *ArtifactManager, tierPremiums []uint64, logger log.Logger) *Prover {
	return &Prover{
		artifacts:    artifacts,
		tierPremiums: tierPremiums,
		logger:       logger,
	}
}

// GenerateProof 生成理赔证明
//
// 生成后尝试本地验证；本地验证失败只告警不报错，最终裁决权在链上
// 验证合约，本地的验证密钥可能落后于已部署的验证器，不允许因此
// 静默丢弃一个可能有效的证明。
func (p *Prover) GenerateProof(ctx context.Context, inputs *CircuitInputs) (*ProofResult, error) {
	startTime := time.Now()

	// ⚠️ **禁用gnark库的日志输出**
	// gnark的编译/求解日志会污染日志系统，执行期间重定向到丢弃端
	oldGnarkLogger := gnarklogger.Logger()
	discardLogger := zerolog.New(io.Discard).Level(zerolog.Disabled)
	gnarklogger.Set(discardLogger)
	defer func() {
		gnarklogger.Set(oldGnarkLogger)
	}()

	artifacts, err := p.artifacts.Get(len(inputs.Siblings))
	if err != nil {
		return nil, err
	}

	assignment, err := inputs.ToAssignment(p.tierPremiums)
	if err != nil {
		return nil, err
	}

	fullWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, WrapProofGenerationError(err)
	}

	// 证明生成是长耗时操作，进入前响应取消
	if err := ctx.Err(); err != nil {
		return nil, WrapProofGenerationError(err)
	}

	proof, err := groth16.Prove(artifacts.CS, artifacts.PK, fullWitness)
	if err != nil {
		metrics.ObserveProofGeneration("error", time.Since(startTime))
		return nil, WrapProofGenerationError(err)
	}

	publicWitness, err := fullWitness.Public()
	if err != nil {
		return nil, WrapProofGenerationError(err)
	}

	// 本地验证：失败仅告警
	locallyVerified := true
	if err := groth16.Verify(proof, artifacts.VK, publicWitness); err != nil {
		locallyVerified = false
		if p.logger != nil {
			p.logger.Warnf("证明本地验证未通过，仍允许提交（本地验证密钥可能过期）: %v", err)
		}
	}

	points, err := exportProofPoints(proof)
	if err != nil {
		return nil, err
	}

	signals, err := exportPublicSignals(publicWitness.Vector())
	if err != nil {
		return nil, err
	}

	if p.logger != nil {
		p.logger.Debugf("理赔证明生成完成: 耗时=%v 约束数=%d 本地验证=%v",
			time.Since(startTime), artifacts.CS.GetNbConstraints(), locallyVerified)
	}
	metrics.ObserveProofGeneration("ok", time.Since(startTime))

	return &ProofResult{
		Proof:           points,
		PublicSignals:   signals,
		LocallyVerified: locallyVerified,
	}, nil
}

// exportProofPoints 导出证明坐标
//
// ⚠️ **B分量坐标对换**：G2点的每对坐标要交换元素次序（[A1,A0]）
// 才是链上验证合约期望的编码。这是固定的、不可协商的变换。
func exportProofPoints(proof groth16.Proof) (ProofPoints, error) {
	bn254Proof, ok := proof.(*groth16bn254.Proof)
	if !ok {
		return ProofPoints{}, ErrProofExport
	}

	return ProofPoints{
		A: [2]string{
			bn254Proof.Ar.X.String(),
			bn254Proof.Ar.Y.String(),
		},
		B: [2][2]string{
			{bn254Proof.Bs.X.A1.String(), bn254Proof.Bs.X.A0.String()},
			{bn254Proof.Bs.Y.A1.String(), bn254Proof.Bs.Y.A0.String()},
		},
		C: [2]string{
			bn254Proof.Krs.X.String(),
			bn254Proof.Krs.Y.String(),
		},
	}, nil
}

// exportPublicSignals 导出公开信号向量
func exportPublicSignals(vector interface{}) ([]string, error) {
	vec, ok := vector.(fr.Vector)
	if !ok {
		return nil, ErrProofExport
	}

	signals := make([]string, len(vec))
	for i := range vec {
		var v big.Int
		vec[i].BigInt(&v)
		signals[i] = v.String()
	}
	return signals, nil
}
