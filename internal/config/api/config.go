// Package api 提供HTTP API服务的配置
package api

import (
	"fmt"
	"time"

	configtypes "github.com/priceshield/v1/pkg/types"
)

// Options HTTP API配置选项
type Options struct {
	// === 基础配置 ===
	Host string `json:"host"` // 监听地址
	Port int    `json:"port"` // 监听端口

	// === 超时配置 ===
	ReadTimeout  time.Duration `json:"read_timeout"`  // 读取超时时间
	WriteTimeout time.Duration `json:"write_timeout"` // 写入超时时间
}

// Config API配置实现
type Config struct {
	options *Options
}

// New 创建API配置实现
func New(userConfig *configtypes.UserAPIConfig) *Config {
	options := &Options{
		Host:         defaultHost,
		Port:         defaultPort,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	// 应用用户配置覆盖默认值
	if userConfig != nil {
		if userConfig.Host != nil && *userConfig.Host != "" {
			options.Host = *userConfig.Host
		}
		if userConfig.Port != nil && *userConfig.Port > 0 {
			options.Port = *userConfig.Port
		}
	}

	return &Config{options: options}
}

// GetOptions 获取完整的API配置选项
func (c *Config) GetOptions() *Options {
	return c.options
}

// GetHost 获取监听地址
func (c *Config) GetHost() string {
	return c.options.Host
}

// GetPort 获取监听端口
func (c *Config) GetPort() int {
	return c.options.Port
}

// GetListenAddr 获取完整监听地址（host:port）
func (c *Config) GetListenAddr() string {
	return fmt.Sprintf("%s:%d", c.options.Host, c.options.Port)
}

// GetReadTimeout 获取读取超时时间
func (c *Config) GetReadTimeout() time.Duration {
	return c.options.ReadTimeout
}

// GetWriteTimeout 获取写入超时时间
func (c *Config) GetWriteTimeout() time.Duration {
	return c.options.WriteTimeout
}
