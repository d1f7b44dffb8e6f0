// Package zkclaim 提供理赔证明子系统的配置
package zkclaim

import (
	configtypes "github.com/priceshield/v1/pkg/types"
	"github.com/priceshield/v1/pkg/utils"
)

// Options 理赔证明配置选项
type Options struct {
	// === 工件配置 ===
	ArtifactDir string `json:"artifact_dir"` // 电路工件（r1cs/pk/vk）存放目录

	// === 电路参数 ===
	MerkleDepth          int    `json:"merkle_depth"`           // 价格Merkle树深度
	DropThresholdPercent uint64 `json:"drop_threshold_percent"` // 理赔降价阈值（整数百分比）
}

// Config 理赔证明配置实现
type Config struct {
	options *Options
}

// New 创建理赔证明配置实现
func New(userConfig *configtypes.UserZKClaimConfig) *Config {
	options := &Options{
		ArtifactDir:          getDefaultArtifactDir(),
		MerkleDepth:          defaultMerkleDepth,
		DropThresholdPercent: defaultDropThresholdPercent,
	}

	// 应用用户配置覆盖默认值
	if userConfig != nil {
		if userConfig.ArtifactDir != nil && *userConfig.ArtifactDir != "" {
			options.ArtifactDir = utils.ResolveDataPath(*userConfig.ArtifactDir)
		}
		if userConfig.MerkleDepth != nil && *userConfig.MerkleDepth > 0 {
			options.MerkleDepth = *userConfig.MerkleDepth
		}
		if userConfig.DropThresholdPercent != nil && *userConfig.DropThresholdPercent > 0 {
			options.DropThresholdPercent = *userConfig.DropThresholdPercent
		}
	}

	return &Config{options: options}
}

// GetOptions 获取完整的理赔证明配置选项
func (c *Config) GetOptions() *Options {
	return c.options
}

// GetArtifactDir 获取电路工件目录
func (c *Config) GetArtifactDir() string {
	return c.options.ArtifactDir
}

// GetMerkleDepth 获取价格Merkle树深度
func (c *Config) GetMerkleDepth() int {
	return c.options.MerkleDepth
}

// GetDropThresholdPercent 获取理赔降价阈值
func (c *Config) GetDropThresholdPercent() uint64 {
	return c.options.DropThresholdPercent
}
