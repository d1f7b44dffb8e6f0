// Package contracts 提供链上合约地址的配置
package contracts

import (
	"github.com/ethereum/go-ethereum/common"

	configtypes "github.com/priceshield/v1/pkg/types"
)

// Options 合约地址配置选项
type Options struct {
	RPCURL   string         `json:"rpc_url"`  // 以太坊JSON-RPC端点
	Vault    common.Address `json:"vault"`    // 保险金库合约
	Token    common.Address `json:"token"`    // 结算代币合约（USDC）
	Verifier common.Address `json:"verifier"` // Groth16验证合约
}

// Config 合约地址配置实现
type Config struct {
	options *Options
}

// New 创建合约地址配置实现
//
// 合约地址没有有意义的默认值，未配置时保持零地址，
// 由依赖方（账本客户端）在使用时校验
func New(userConfig *configtypes.UserContractsConfig) *Config {
	options := &Options{
		RPCURL: defaultRPCURL,
	}

	if userConfig != nil {
		if userConfig.RPCURL != nil && *userConfig.RPCURL != "" {
			options.RPCURL = *userConfig.RPCURL
		}
		if userConfig.Vault != nil && common.IsHexAddress(*userConfig.Vault) {
			options.Vault = common.HexToAddress(*userConfig.Vault)
		}
		if userConfig.Token != nil && common.IsHexAddress(*userConfig.Token) {
			options.Token = common.HexToAddress(*userConfig.Token)
		}
		if userConfig.Verifier != nil && common.IsHexAddress(*userConfig.Verifier) {
			options.Verifier = common.HexToAddress(*userConfig.Verifier)
		}
	}

	return &Config{options: options}
}

// GetOptions 获取完整的合约地址配置选项
func (c *Config) GetOptions() *Options {
	return c.options
}

// GetRPCURL 获取以太坊JSON-RPC端点
func (c *Config) GetRPCURL() string {
	return c.options.RPCURL
}

// GetVault 获取保险金库合约地址
func (c *Config) GetVault() common.Address {
	return c.options.Vault
}

// GetToken 获取结算代币合约地址
func (c *Config) GetToken() common.Address {
	return c.options.Token
}

// GetVerifier 获取Groth16验证合约地址
func (c *Config) GetVerifier() common.Address {
	return c.options.Verifier
}
