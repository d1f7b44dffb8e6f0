// Package badger 提供BadgerDB存储的配置
package badger

import (
	"path/filepath"

	configtypes "github.com/priceshield/v1/pkg/types"
	"github.com/priceshield/v1/pkg/utils"
)

// Options BadgerDB存储配置选项
// 专注于保单存储需要的基础能力，省略Badger的高级调优项
type Options struct {
	// === 基础配置 ===
	Path       string `json:"path"`        // 数据库存储路径
	SyncWrites bool   `json:"sync_writes"` // 是否同步写入（数据安全性）
	InMemory   bool   `json:"in_memory"`   // 内存模式（测试/临时环境）

	// === 基础性能配置 ===
	MemTableSize int64 `json:"mem_table_size"` // 内存表大小
}

// Config BadgerDB配置实现
type Config struct {
	options *Options
}

// New 创建BadgerDB配置实现
func New(userConfig *configtypes.UserStorageConfig) *Config {
	options := &Options{
		Path:         getDefaultPath(),
		SyncWrites:   defaultSyncWrites,
		InMemory:     defaultInMemory,
		MemTableSize: defaultMemTableSize,
	}

	// 应用用户配置覆盖默认值
	//
	// 路径构建规则：配置了 storage.data_root 时使用 {data_root}/badger/，
	// 未配置时使用默认路径 ./data/badger/
	if userConfig != nil {
		if userConfig.DataRoot != nil && *userConfig.DataRoot != "" {
			options.Path = utils.ResolveDataPath(filepath.Join(*userConfig.DataRoot, "badger"))
		}
		if userConfig.SyncWrites != nil {
			options.SyncWrites = *userConfig.SyncWrites
		}
		if userConfig.InMemory != nil {
			options.InMemory = *userConfig.InMemory
		}
	}

	return &Config{options: options}
}

// NewFromOptions 从Options创建配置实现
func NewFromOptions(options *Options) *Config {
	return &Config{options: options}
}

// GetOptions 获取完整的BadgerDB配置选项
func (c *Config) GetOptions() *Options {
	return c.options
}

// GetPath 获取数据库路径
func (c *Config) GetPath() string {
	return c.options.Path
}

// IsSyncWritesEnabled 是否启用同步写入
func (c *Config) IsSyncWritesEnabled() bool {
	return c.options.SyncWrites
}

// IsInMemory 是否为内存模式
func (c *Config) IsInMemory() bool {
	return c.options.InMemory
}

// GetMemTableSize 获取内存表大小
func (c *Config) GetMemTableSize() int64 {
	return c.options.MemTableSize
}
