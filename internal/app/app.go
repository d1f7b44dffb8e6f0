// Package app 提供PriceShield的组件装配
//
// 🏗️ **装配策略**：
// 引擎组件（承诺构造、保单库、资格评估、理赔协调）通过Engine一次性
// 装配，CLI各命令按需取用；HTTP服务进程在Engine之上叠加fx生命周期
// 管理（见 serve）。账本客户端单独按需构建：只有投保和理赔需要它，
// 未配置金库合约时不应拖垮其余命令。
package app

import (
	"fmt"

	"github.com/priceshield/v1/internal/config"
	"github.com/priceshield/v1/internal/core/catalog"
	"github.com/priceshield/v1/internal/core/claim"
	"github.com/priceshield/v1/internal/core/commitment"
	"github.com/priceshield/v1/internal/core/eligibility"
	"github.com/priceshield/v1/internal/core/encoding"
	eventimpl "github.com/priceshield/v1/internal/core/infrastructure/event"
	logimpl "github.com/priceshield/v1/internal/core/infrastructure/log"
	badgerimpl "github.com/priceshield/v1/internal/core/infrastructure/storage/badger"
	"github.com/priceshield/v1/internal/core/ledger/evm"
	"github.com/priceshield/v1/internal/core/oracle"
	"github.com/priceshield/v1/internal/core/policy"
	"github.com/priceshield/v1/internal/core/tier"
	"github.com/priceshield/v1/internal/core/zkclaim"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/event"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/log"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/storage"
	"github.com/priceshield/v1/pkg/interfaces/ledger"
)

// Engine 协议引擎的已装配组件集
type Engine struct {
	Config *config.Provider
	Logger log.Logger
	KV     storage.KVStore
	Bus    event.Bus

	Tier        *tier.Table
	Commitments *commitment.Builder
	Oracle      *oracle.Client
	Policies    *policy.Store
	Catalog     *catalog.Store
	Evaluator   *eligibility.Evaluator
	Inputs      *zkclaim.InputBuilder
	Prover      *zkclaim.Prover
}

// NewEngine 从配置装配协议引擎
//
// 装配顺序：日志 → 存储 → 总线 → 各业务组件。任何一步失败都整体
// 失败并释放已开启的资源。
func NewEngine(provider *config.Provider) (*Engine, error) {
	logger, err := logimpl.New(provider.GetLog())
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	kv, err := badgerimpl.New(provider.GetStorage(), logger)
	if err != nil {
		return nil, fmt.Errorf("初始化存储失败: %w", err)
	}

	oracleConfig := provider.GetOracle()
	oracleClient, err := oracle.NewClient(oracleConfig.GetBaseURL(), oracleConfig.GetCacheTTL(), logger)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("初始化预言机客户端失败: %w", err)
	}

	bus := eventimpl.New(logger)
	table := tier.NewTable()
	encoder := encoding.NewEncoder(logger)
	policies := policy.NewStore(kv, logger)

	zkConfig := provider.GetZKClaim()
	premiums := zkclaim.PremiumSchedule(table)
	artifacts := zkclaim.NewArtifactManager(zkConfig.GetArtifactDir(), premiums, logger)

	return &Engine{
		Config:      provider,
		Logger:      logger,
		KV:          kv,
		Bus:         bus,
		Tier:        table,
		Commitments: commitment.NewBuilder(table, encoder, logger),
		Oracle:      oracleClient,
		Policies:    policies,
		Catalog:     catalog.NewStore(kv, logger),
		Evaluator:   eligibility.NewEvaluator(oracleClient, policies, bus, zkConfig.GetDropThresholdPercent(), logger),
		Inputs:      zkclaim.NewInputBuilder(encoder, zkConfig.GetMerkleDepth(), zkConfig.GetDropThresholdPercent()),
		Prover:      zkclaim.NewProver(artifacts, premiums, logger),
	}, nil
}

// NewLedger 按需构建账本客户端
// 金库合约未配置时返回错误，调用方（投保/理赔命令）向用户提示补全配置
func (e *Engine) NewLedger() (ledger.Ledger, error) {
	contracts := e.Config.GetContracts()
	return evm.New(contracts.GetRPCURL(), contracts.GetVault(), e.Logger)
}

// NewCoordinator 构建理赔协调器
func (e *Engine) NewCoordinator(ldg ledger.Ledger) *claim.Coordinator {
	return claim.NewCoordinator(e.Policies, ldg, e.Inputs, e.Prover, e.Bus, e.Logger)
}

// Close 释放引擎持有的资源
func (e *Engine) Close() error {
	_ = e.Oracle.Close()
	if err := e.KV.Close(); err != nil {
		return err
	}
	_ = e.Logger.Sync()
	return nil
}
