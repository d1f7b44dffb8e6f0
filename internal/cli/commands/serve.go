package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/priceshield/v1/internal/app"
)

// newServeCommand 创建HTTP服务命令
//
// serve保留控制台日志，进程常驻直到收到退出信号。
func (c *CLI) newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动HTTP API服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(false); err != nil {
				return err
			}
			defer c.teardown()

			apiConfig := c.engine.Config.GetAPI()
			pterm.Info.Printfln("🏗️ PriceShield HTTP服务启动: %s", apiConfig.GetListenAddr())

			// fx接管生命周期，阻塞至SIGINT/SIGTERM
			app.NewServerApp(c.engine).Run()
			return nil
		},
	}

	return cmd
}
