package app

import (
	"go.uber.org/fx"

	httpapi "github.com/priceshield/v1/internal/api/http"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/log"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/storage"
)

// NewServerApp 在已装配引擎之上构建HTTP服务进程
//
// fx只托管服务进程的生命周期（启动监听、信号停机）；
// 组件本身来自Engine，避免两套装配逻辑漂移。
func NewServerApp(engine *Engine) *fx.App {
	return fx.New(
		fx.NopLogger,
		fx.Supply(engine.Config, engine.Catalog),
		fx.Provide(
			func() log.Logger { return engine.Logger },
			func() storage.KVStore { return engine.KV },
		),
		fx.Provide(httpapi.NewServer),
		// 强制实例化服务器，触发其生命周期钩子注册
		fx.Invoke(func(*httpapi.Server) {}),
	)
}
