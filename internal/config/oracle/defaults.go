package oracle

import "time"

// 预言机客户端默认配置值

const (
	// defaultBaseURL 默认预言机服务地址
	// 本地开发环境的价格预言机；生产部署必须通过配置覆盖
	defaultBaseURL = "http://localhost:3001"

	// defaultCacheTTL 默认目录缓存TTL
	// 价格目录变化频率低，短TTL缓存能吸收资格批量检查时的重复请求，
	// 又不会让理赔路径读到过期太久的目录（理赔最终以链上根为准）
	defaultCacheTTL = 15 * time.Second
)
