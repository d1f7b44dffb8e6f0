// Package http 提供PriceShield的HTTP API服务器
//
// 对外面只有三块：商品目录侧信道（运营登记可投保商品）、
// 健康检查、Prometheus指标。投保/检查/理赔走CLI，不经HTTP，
// 保单开启数据绝不出现在任何HTTP响应里。
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/priceshield/v1/internal/api/http/handlers"
	"github.com/priceshield/v1/internal/config"
	"github.com/priceshield/v1/internal/core/catalog"
	"github.com/priceshield/v1/internal/core/infrastructure/metrics"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/log"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/storage"
)

// Server HTTP服务器
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *config.Provider
	logger     log.Logger

	catalogStore *catalog.Store
	kv           storage.KVStore
}

// NewServer 创建HTTP服务器并注册fx生命周期钩子
func NewServer(
	lifecycle fx.Lifecycle,
	provider *config.Provider,
	logger log.Logger,
	catalogStore *catalog.Store,
	kv storage.KVStore,
) *Server {
	// CLI静默模式下抑制gin的控制台输出
	if os.Getenv("PRICESHIELD_QUIET") == "true" {
		gin.SetMode(gin.ReleaseMode)
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
	}

	router := gin.New()
	router.Use(gin.Recovery())

	server := &Server{
		router:       router,
		config:       provider,
		logger:       logger,
		catalogStore: catalogStore,
		kv:           kv,
	}
	server.setupRoutes()

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			return server.Stop(ctx)
		},
	})

	return server
}

// Router 暴露路由引擎，供测试直接发起请求
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes 设置HTTP路由
func (s *Server) setupRoutes() {
	metrics.Init()

	v1 := s.router.Group("/api/v1")
	handlers.NewCatalogHandler(s.catalogStore, s.logger).RegisterRoutes(v1)
	handlers.NewHealthHandler(s.kv).RegisterRoutes(s.router)

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Start 启动HTTP服务器
// 监听失败（端口被占等）异步记录错误，不阻塞启动序列
func (s *Server) Start() error {
	apiConfig := s.config.GetAPI()
	addr := apiConfig.GetListenAddr()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  apiConfig.GetReadTimeout(),
		WriteTimeout: apiConfig.GetWriteTimeout(),
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("HTTP服务器异常退出: %v", err)
			}
		}
	}()

	if s.logger != nil {
		s.logger.Infof("HTTP服务器已启动: http://%s", addr)
		s.logger.Infof("商品目录端点: http://%s/api/v1/catalog/products", addr)
	}
	return nil
}

// Stop 优雅停止HTTP服务器
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("关闭HTTP服务器失败: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("HTTP服务器已停止")
	}
	return nil
}
