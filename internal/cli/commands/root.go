// Package commands 提供PriceShield命令行入口
//
// 命令面向单钱包操作：insure（投保）、check（资格检查）、
// claim（理赔）、policies（保单清单）、serve（HTTP服务）。
// 所有命令共享 --config 与 --address 两个全局参数。
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/priceshield/v1/internal/app"
	"github.com/priceshield/v1/internal/config"
)

// CLI 命令行状态
type CLI struct {
	configPath string
	address    string

	engine *app.Engine
}

// NewRootCommand 创建根命令
func NewRootCommand(version string) *cobra.Command {
	cli := &CLI{}

	root := &cobra.Command{
		Use:     "priceshield",
		Short:   "隐私保价保险协议引擎",
		Long:    "PriceShield：基于零知识证明的隐私保价保险。\n投保时只有购买承诺上链，理赔时以Groth16证明降价事实而不泄露发票。",
		Version: version,
		// 子命令自行打印错误，cobra不重复输出
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cli.configPath, "config", "config.json", "配置文件路径")
	root.PersistentFlags().StringVar(&cli.address, "address", "", "钱包地址（0x前缀十六进制）")

	root.AddCommand(
		cli.newInsureCommand(),
		cli.newCheckCommand(),
		cli.newClaimCommand(),
		cli.newPoliciesCommand(),
		cli.newServeCommand(),
	)

	return root
}

// setup 装配协议引擎
//
// quiet模式下抑制控制台日志，保证pterm表格输出干净；
// serve命令保留控制台日志。
func (c *CLI) setup(quiet bool) error {
	if quiet {
		_ = os.Setenv("PRICESHIELD_QUIET", "true")
	}

	provider, err := config.LoadFromFile(c.configPath)
	if err != nil {
		return err
	}

	engine, err := app.NewEngine(provider)
	if err != nil {
		return err
	}
	c.engine = engine
	return nil
}

// teardown 释放引擎资源
func (c *CLI) teardown() {
	if c.engine != nil {
		_ = c.engine.Close()
	}
}

// requireAddress 校验钱包地址参数
func (c *CLI) requireAddress() (string, error) {
	address := strings.TrimSpace(c.address)
	if address == "" {
		return "", fmt.Errorf("缺少 --address 参数")
	}
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("钱包地址格式无效: %s", address)
	}
	return address, nil
}
