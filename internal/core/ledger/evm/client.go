// Package evm 提供账本接口的以太坊JSON-RPC实现
//
// 🎯 **职责边界**：
// 只做合约调用的编解码与交易提交。钱包会话管理在引擎之外：
// 签名私钥经 PRICESHIELD_PRIVATE_KEY 环境变量注入，未注入时
// 只读操作（priceMerkleRoot、policies）可用，写操作返回
// ErrSignerUnavailable。
package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/priceshield/v1/pkg/interfaces/infrastructure/log"
	"github.com/priceshield/v1/pkg/interfaces/ledger"
)

// 错误定义
var (
	// ErrSignerUnavailable 未配置签名私钥
	ErrSignerUnavailable = errors.New("evm: 未配置签名私钥，无法提交交易")

	// ErrVaultUnconfigured 金库合约地址未配置
	ErrVaultUnconfigured = errors.New("evm: 金库合约地址未配置")
)

// signerEnvKey 签名私钥的环境变量名
const signerEnvKey = "PRICESHIELD_PRIVATE_KEY"

// Client 账本接口的以太坊实现
type Client struct {
	eth    *ethclient.Client
	vault  common.Address
	abi    abi.ABI
	key    *ecdsa.PrivateKey
	from   common.Address
	logger log.Logger

	chainOnce sync.Once
	chainID   *big.Int
	chainErr  error
}

// New 创建账本客户端
//
// 私钥从 PRICESHIELD_PRIVATE_KEY 读取（0x前缀可选），缺省时
// 客户端以只读模式工作。
func New(rpcURL string, vault common.Address, logger log.Logger) (*Client, error) {
	if vault == (common.Address{}) {
		return nil, ErrVaultUnconfigured
	}

	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("连接以太坊节点失败: url=%s, cause=%w", rpcURL, err)
	}

	parsed, err := abi.JSON(strings.NewReader(vaultABI))
	if err != nil {
		return nil, fmt.Errorf("解析金库合约ABI失败: %w", err)
	}

	client := &Client{
		eth:    eth,
		vault:  vault,
		abi:    parsed,
		logger: logger,
	}

	if raw := os.Getenv(signerEnvKey); raw != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(raw, "0x"))
		if err != nil {
			return nil, fmt.Errorf("解析签名私钥失败: %w", err)
		}
		client.key = key
		client.from = crypto.PubkeyToAddress(key.PublicKey)
		if logger != nil {
			logger.Infof("账本客户端已启用签名: from=%s vault=%s", client.from.Hex(), vault.Hex())
		}
	} else if logger != nil {
		logger.Infof("账本客户端以只读模式工作: vault=%s", vault.Hex())
	}

	return client, nil
}

// Close 关闭底层RPC连接
func (c *Client) Close() {
	c.eth.Close()
}

// BuyPolicy 提交投保交易
//
// 保单ID从PolicyPurchased事件中解析；交易确认前阻塞
// （可被ctx取消，取消不会撤回已广播的交易）。
func (c *Client) BuyPolicy(ctx context.Context, commitment common.Hash, premium uint64) (common.Hash, *big.Int, error) {
	tx, err := c.submit(ctx, "buyPolicy", commitment, new(big.Int).SetUint64(premium))
	if err != nil {
		return common.Hash{}, nil, err
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return tx.Hash(), nil, fmt.Errorf("等待投保交易确认失败: tx=%s, cause=%w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return tx.Hash(), nil, fmt.Errorf("投保交易被回滚: tx=%s", tx.Hash().Hex())
	}

	policyID, err := c.policyIDFromReceipt(receipt)
	if err != nil {
		return tx.Hash(), nil, err
	}

	if c.logger != nil {
		c.logger.Infof("投保交易已确认: tx=%s policyID=%s", tx.Hash().Hex(), policyID.String())
	}
	return tx.Hash(), policyID, nil
}

// ClaimPayout 提交理赔交易
func (c *Client) ClaimPayout(ctx context.Context, req *ledger.ClaimPayoutRequest) (common.Hash, error) {
	proofA, err := parsePair(req.ProofA)
	if err != nil {
		return common.Hash{}, fmt.Errorf("解析证明A分量失败: %w", err)
	}
	proofC, err := parsePair(req.ProofC)
	if err != nil {
		return common.Hash{}, fmt.Errorf("解析证明C分量失败: %w", err)
	}
	var proofB [2][2]*big.Int
	for i := range req.ProofB {
		pair, err := parsePair(req.ProofB[i])
		if err != nil {
			return common.Hash{}, fmt.Errorf("解析证明B分量失败: %w", err)
		}
		proofB[i] = pair
	}

	signals := make([]*big.Int, len(req.PublicSignals))
	for i, raw := range req.PublicSignals {
		v, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return common.Hash{}, fmt.Errorf("解析公开信号失败: index=%d value=%q", i, raw)
		}
		signals[i] = v
	}

	root, ok := new(big.Int).SetString(req.MerkleRoot, 10)
	if !ok {
		return common.Hash{}, fmt.Errorf("解析Merkle根失败: value=%q", req.MerkleRoot)
	}

	tx, err := c.submit(ctx, "claimPayout",
		req.PolicyID,
		req.Commitment,
		common.BigToHash(root),
		new(big.Int).SetUint64(req.PurchaseDate),
		new(big.Int).SetUint64(req.Premium),
		proofA, proofB, proofC, signals,
	)
	if err != nil {
		return common.Hash{}, err
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return tx.Hash(), fmt.Errorf("等待理赔交易确认失败: tx=%s, cause=%w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return tx.Hash(), fmt.Errorf("理赔交易被回滚: tx=%s", tx.Hash().Hex())
	}

	if c.logger != nil {
		c.logger.Infof("理赔交易已确认: tx=%s policyID=%s", tx.Hash().Hex(), req.PolicyID.String())
	}
	return tx.Hash(), nil
}

// PriceMerkleRoot 查询链上当前发布的价格Merkle根
// 返回域元素十进制字符串，与预言机目录根同一编码
func (c *Client) PriceMerkleRoot(ctx context.Context) (string, error) {
	out, err := c.call(ctx, "priceMerkleRoot")
	if err != nil {
		return "", err
	}

	root, ok := out[0].([32]byte)
	if !ok {
		return "", fmt.Errorf("priceMerkleRoot返回类型异常: %T", out[0])
	}
	return new(big.Int).SetBytes(root[:]).String(), nil
}

// Policy 查询链上保单记录
func (c *Client) Policy(ctx context.Context, policyID *big.Int) (*ledger.OnChainPolicy, error) {
	out, err := c.call(ctx, "policies", policyID)
	if err != nil {
		return nil, err
	}
	if len(out) != 5 {
		return nil, fmt.Errorf("policies返回字段数异常: %d", len(out))
	}

	buyer, _ := out[0].(common.Address)
	commitment, _ := out[1].([32]byte)
	premiumPaid, _ := out[2].(*big.Int)
	purchaseDate, _ := out[3].(*big.Int)
	alreadyClaimed, _ := out[4].(bool)
	if premiumPaid == nil || purchaseDate == nil {
		return nil, fmt.Errorf("policies返回类型异常")
	}

	return &ledger.OnChainPolicy{
		Buyer:          buyer,
		Commitment:     common.Hash(commitment),
		PremiumPaid:    premiumPaid.Uint64(),
		PurchaseDate:   purchaseDate.Uint64(),
		AlreadyClaimed: alreadyClaimed,
	}, nil
}

// call 执行只读合约调用并解码返回值
func (c *Client) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("编码合约调用失败: method=%s, cause=%w", method, err)
	}

	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &c.vault, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("合约调用失败: method=%s, cause=%w", method, err)
	}

	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("解码合约返回失败: method=%s, cause=%w", method, err)
	}
	return out, nil
}

// submit 构造、签名并广播一笔合约交易
func (c *Client) submit(ctx context.Context, method string, args ...interface{}) (*types.Transaction, error) {
	if c.key == nil {
		return nil, ErrSignerUnavailable
	}

	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("编码交易数据失败: method=%s, cause=%w", method, err)
	}

	chainID, err := c.getChainID(ctx)
	if err != nil {
		return nil, err
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return nil, fmt.Errorf("获取nonce失败: %w", err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取gas价格失败: %w", err)
	}

	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From: c.from,
		To:   &c.vault,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("估算gas失败: method=%s, cause=%w", method, err)
	}

	tx := types.NewTransaction(nonce, c.vault, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), c.key)
	if err != nil {
		return nil, fmt.Errorf("签名交易失败: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("广播交易失败: method=%s, cause=%w", method, err)
	}
	return signed, nil
}

// getChainID 获取并缓存链ID
func (c *Client) getChainID(ctx context.Context) (*big.Int, error) {
	c.chainOnce.Do(func() {
		c.chainID, c.chainErr = c.eth.ChainID(ctx)
	})
	if c.chainErr != nil {
		return nil, fmt.Errorf("获取链ID失败: %w", c.chainErr)
	}
	return c.chainID, nil
}

// policyIDFromReceipt 从交易回执的PolicyPurchased事件解析保单ID
func (c *Client) policyIDFromReceipt(receipt *types.Receipt) (*big.Int, error) {
	eventID := c.abi.Events["PolicyPurchased"].ID
	for _, logEntry := range receipt.Logs {
		if logEntry.Address != c.vault || len(logEntry.Topics) < 2 {
			continue
		}
		if logEntry.Topics[0] != eventID {
			continue
		}
		return new(big.Int).SetBytes(logEntry.Topics[1].Bytes()), nil
	}
	return nil, fmt.Errorf("投保回执中未找到PolicyPurchased事件: tx=%s", receipt.TxHash.Hex())
}

// parsePair 解析一对十进制坐标
func parsePair(pair [2]string) ([2]*big.Int, error) {
	var out [2]*big.Int
	for i, raw := range pair {
		v, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return out, fmt.Errorf("无效坐标: %q", raw)
		}
		out[i] = v
	}
	return out, nil
}

var _ ledger.Ledger = (*Client)(nil)
