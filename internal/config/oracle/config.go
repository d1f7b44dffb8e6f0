// Package oracle 提供价格预言机客户端的配置
package oracle

import (
	"time"

	configtypes "github.com/priceshield/v1/pkg/types"
)

// Options 预言机客户端配置选项
type Options struct {
	// === 基础配置 ===
	BaseURL string `json:"base_url"` // 预言机服务地址

	// === 缓存配置 ===
	CacheTTL time.Duration `json:"cache_ttl"` // 价格目录缓存TTL
}

// Config 预言机配置实现
type Config struct {
	options *Options
}

// New 创建预言机配置实现
func New(userConfig *configtypes.UserOracleConfig) *Config {
	options := &Options{
		BaseURL:  defaultBaseURL,
		CacheTTL: defaultCacheTTL,
	}

	// 应用用户配置覆盖默认值
	if userConfig != nil {
		if userConfig.BaseURL != nil && *userConfig.BaseURL != "" {
			options.BaseURL = *userConfig.BaseURL
		}
		if userConfig.CacheTTLSeconds != nil && *userConfig.CacheTTLSeconds >= 0 {
			options.CacheTTL = time.Duration(*userConfig.CacheTTLSeconds) * time.Second
		}
	}

	return &Config{options: options}
}

// GetBaseURL 获取预言机服务地址
func (c *Config) GetBaseURL() string {
	return c.options.BaseURL
}

// GetCacheTTL 获取目录缓存TTL
func (c *Config) GetCacheTTL() time.Duration {
	return c.options.CacheTTL
}
