package api

import "time"

// HTTP API默认配置值
const (
	// defaultHost 默认监听地址
	// 原因：默认只监听本机，服务面向本地前端；对外暴露需显式配置
	defaultHost = "127.0.0.1"

	// defaultPort 默认监听端口
	defaultPort = 8080

	// defaultReadTimeout 默认读取超时
	defaultReadTimeout = 15 * time.Second

	// defaultWriteTimeout 默认写入超时
	// 原因：资格批量检查可能需要访问预言机，写超时略放宽
	defaultWriteTimeout = 30 * time.Second
)
