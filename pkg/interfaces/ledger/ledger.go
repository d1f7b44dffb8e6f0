// Package ledger 定义PriceShield与链上合约交互的接口边界
//
// 📋 **账本接口 (Ledger Interface)**
//
// 合约执行环境本身不在协议引擎范围内：引擎把链上合约当作一个可查询的
// 预言机（priceMerkleRoot、policies）和一个可提交交易的账本（buyPolicy、
// claimPayout）。钱包/合约协作方负责提供具体实现（如go-ethereum绑定），
// 引擎内部只依赖本接口，测试使用假实现。
//
// ⚠️ **注意**：
// - 所有方法都接受context，调用方拥有超时与重试策略
// - Policy返回的记录是理赔前置校验（所有权、重复理赔）的唯一依据
package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OnChainPolicy 链上保单记录
type OnChainPolicy struct {
	Buyer          common.Address // 投保人地址
	Commitment     common.Hash    // 购买承诺（Poseidon哈希）
	PremiumPaid    uint64         // 已付保费（micro-units）
	PurchaseDate   uint64         // 购买日期（unix秒）
	AlreadyClaimed bool           // 是否已理赔
}

// ClaimPayoutRequest 理赔提交参数
//
// ProofB的坐标对已按目标验证合约期望的曲线点编码完成交换
//（zkclaim在证明导出时处理）。
type ClaimPayoutRequest struct {
	PolicyID      *big.Int
	Commitment    common.Hash
	MerkleRoot    string
	PurchaseDate  uint64
	Premium       uint64
	ProofA        [2]string
	ProofB        [2][2]string
	ProofC        [2]string
	PublicSignals []string
}

// Ledger 链上账本接口
type Ledger interface {
	// BuyPolicy 提交投保交易，返回交易哈希与账本分配的保单ID
	BuyPolicy(ctx context.Context, commitment common.Hash, premium uint64) (common.Hash, *big.Int, error)

	// ClaimPayout 提交理赔交易，返回结算交易哈希
	ClaimPayout(ctx context.Context, req *ClaimPayoutRequest) (common.Hash, error)

	// PriceMerkleRoot 查询链上当前发布的价格Merkle根
	PriceMerkleRoot(ctx context.Context) (string, error)

	// Policy 查询链上保单记录
	Policy(ctx context.Context, policyID *big.Int) (*OnChainPolicy, error)
}
