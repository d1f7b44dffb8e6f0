// Package config 提供PriceShield的配置装配
//
// 配置分层：
//  1. pkg/types 定义用户配置结构（JSON文件中实际出现的字段，指针语义）
//  2. 各子包（oracle/zkclaim/storage/log/api/contracts）负责默认值与合并
//  3. Provider 作为统一入口，按需构造各子配置
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/priceshield/v1/internal/config/api"
	"github.com/priceshield/v1/internal/config/contracts"
	"github.com/priceshield/v1/internal/config/log"
	"github.com/priceshield/v1/internal/config/oracle"
	"github.com/priceshield/v1/internal/config/storage/badger"
	"github.com/priceshield/v1/internal/config/zkclaim"
	"github.com/priceshield/v1/pkg/types"
)

// Provider 配置提供者
// 持有解析后的用户配置，按需构造各模块配置（默认值合并在子包内完成）
type Provider struct {
	userConfig *types.UserConfig
}

// NewProvider 创建配置提供者
// userConfig 可以为nil，此时所有模块使用默认配置
func NewProvider(userConfig *types.UserConfig) *Provider {
	return &Provider{
		userConfig: userConfig,
	}
}

// LoadFromFile 从JSON配置文件创建配置提供者
// 文件不存在时返回使用默认配置的提供者，不视为错误
func LoadFromFile(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewProvider(nil), nil
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var userConfig types.UserConfig
	if err := json.Unmarshal(data, &userConfig); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return NewProvider(&userConfig), nil
}

// GetOracle 获取预言机客户端配置
func (p *Provider) GetOracle() *oracle.Config {
	var userOracle *types.UserOracleConfig
	if p.userConfig != nil {
		userOracle = p.userConfig.Oracle
	}
	return oracle.New(userOracle)
}

// GetZKClaim 获取理赔证明配置
func (p *Provider) GetZKClaim() *zkclaim.Config {
	var userZKClaim *types.UserZKClaimConfig
	if p.userConfig != nil {
		userZKClaim = p.userConfig.ZKClaim
	}
	return zkclaim.New(userZKClaim)
}

// GetStorage 获取BadgerDB存储配置
func (p *Provider) GetStorage() *badger.Config {
	var userStorage *types.UserStorageConfig
	if p.userConfig != nil {
		userStorage = p.userConfig.Storage
	}
	return badger.New(userStorage)
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *log.Config {
	var userLog *types.UserLogConfig
	if p.userConfig != nil {
		userLog = p.userConfig.Log
	}
	return log.New(userLog)
}

// GetAPI 获取HTTP API配置
func (p *Provider) GetAPI() *api.Config {
	var userAPI *types.UserAPIConfig
	if p.userConfig != nil {
		userAPI = p.userConfig.API
	}
	return api.New(userAPI)
}

// GetContracts 获取链上合约地址配置
func (p *Provider) GetContracts() *contracts.Config {
	var userContracts *types.UserContractsConfig
	if p.userConfig != nil {
		userContracts = p.userConfig.Contracts
	}
	return contracts.New(userContracts)
}
