package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/priceshield/v1/pkg/interfaces/infrastructure/storage"
)

// HealthHandler 健康检查端点处理器
//
// - /health:       完整健康报告（存储连通性、运行时长）
// - /health/live:  存活检查（进程是否响应）
// - /health/ready: 就绪检查（是否可对外服务）
type HealthHandler struct {
	startTime time.Time
	kv        storage.KVStore
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(kv storage.KVStore) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		kv:        kv,
	}
}

// RegisterRoutes 注册健康检查路由
func (h *HealthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/health/live", h.Live)
	router.GET("/health/ready", h.Ready)
}

// Health 完整健康报告
func (h *HealthHandler) Health(c *gin.Context) {
	storageStatus := "up"
	httpStatus := http.StatusOK
	if _, err := h.kv.Has("healthcheck"); err != nil {
		storageStatus = "down"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":        map[bool]string{true: "healthy", false: "unhealthy"}[storageStatus == "up"],
		"uptimeSeconds": int64(time.Since(h.startTime).Seconds()),
		"components": gin.H{
			"storage": storageStatus,
		},
	})
}

// Live 存活检查
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Ready 就绪检查
func (h *HealthHandler) Ready(c *gin.Context) {
	if _, err := h.kv.Has("healthcheck"); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
