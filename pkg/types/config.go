// Package types 定义PriceShield的共享配置数据类型
//
// 用户配置（JSON文件/环境覆盖）只声明实际出现的字段，指针语义表示
// "未设置则使用默认值"。各internal/config子包负责把用户配置合并到
// 带默认值的选项结构上。
package types

// UserConfig 用户配置根结构
type UserConfig struct {
	Oracle    *UserOracleConfig    `json:"oracle,omitempty"`
	Storage   *UserStorageConfig   `json:"storage,omitempty"`
	ZKClaim   *UserZKClaimConfig   `json:"zkclaim,omitempty"`
	API       *UserAPIConfig       `json:"api,omitempty"`
	Log       *UserLogConfig       `json:"log,omitempty"`
	Contracts *UserContractsConfig `json:"contracts,omitempty"`
}

// UserOracleConfig 价格预言机客户端配置
type UserOracleConfig struct {
	BaseURL         *string `json:"base_url,omitempty"`          // 预言机服务地址
	CacheTTLSeconds *int    `json:"cache_ttl_seconds,omitempty"` // 目录缓存TTL（秒）
}

// UserStorageConfig 存储配置
type UserStorageConfig struct {
	DataRoot   *string `json:"data_root,omitempty"`   // 数据根目录
	SyncWrites *bool   `json:"sync_writes,omitempty"` // 是否同步写入
	InMemory   *bool   `json:"in_memory,omitempty"`   // 内存模式（测试/临时）
}

// UserZKClaimConfig 理赔证明配置
type UserZKClaimConfig struct {
	ArtifactDir          *string `json:"artifact_dir,omitempty"`           // 证明工件基础路径
	MerkleDepth          *int    `json:"merkle_depth,omitempty"`           // 价格Merkle树深度
	DropThresholdPercent *uint64 `json:"drop_threshold_percent,omitempty"` // 理赔降价阈值（百分比整数）
}

// UserAPIConfig HTTP API配置
type UserAPIConfig struct {
	Host *string `json:"host,omitempty"`
	Port *int    `json:"port,omitempty"`
}

// UserLogConfig 日志配置
type UserLogConfig struct {
	Level      *string `json:"level,omitempty"`       // debug/info/warn/error
	Dir        *string `json:"dir,omitempty"`         // 日志目录（空则仅控制台）
	MaxSizeMB  *int    `json:"max_size_mb,omitempty"` // 单文件上限
	MaxBackups *int    `json:"max_backups,omitempty"` // 保留文件数
}

// UserContractsConfig 合约地址与链访问配置
type UserContractsConfig struct {
	RPCURL   *string `json:"rpc_url,omitempty"`  // 以太坊JSON-RPC端点
	Vault    *string `json:"vault,omitempty"`    // 保险金库合约
	Token    *string `json:"token,omitempty"`    // 结算代币合约（USDC）
	Verifier *string `json:"verifier,omitempty"` // Groth16验证合约
}
