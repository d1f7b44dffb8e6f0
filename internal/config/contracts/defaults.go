package contracts

// 合约配置默认值
const (
	// defaultRPCURL 默认JSON-RPC端点指向本地开发链
	// 原因：开发与演示环境以anvil/hardhat本地节点为主，
	// 主网/测试网端点必须由用户显式配置，不设隐式默认
	defaultRPCURL = "http://localhost:8545"
)
