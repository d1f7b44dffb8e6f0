package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// newClaimCommand 创建理赔命令
//
// 先本地生成Groth16证明再提交链上claimPayout，证明生成可能耗时
// 数十秒（首次还需编译电路与可信设置）。
func (c *CLI) newClaimCommand() *cobra.Command {
	var policyID string

	cmd := &cobra.Command{
		Use:   "claim",
		Short: "提交理赔（零知识证明降价事实）",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := c.requireAddress()
			if err != nil {
				return err
			}
			if policyID == "" {
				return fmt.Errorf("缺少 --policy 参数")
			}

			if err := c.setup(true); err != nil {
				return err
			}
			defer c.teardown()

			ldg, err := c.engine.NewLedger()
			if err != nil {
				return err
			}
			coordinator := c.engine.NewCoordinator(ldg)

			spinner, _ := pterm.DefaultSpinner.Start("生成零知识证明并提交理赔...")
			started := time.Now()

			record, err := coordinator.SubmitClaim(cmd.Context(), address, policyID)
			if err != nil {
				spinner.Fail("理赔失败")
				return err
			}

			spinner.Success(pterm.Sprintf("理赔完成（耗时%.1fs）", time.Since(started).Seconds()))

			pterm.DefaultBox.WithTitle("🎯 理赔成功").Println(fmt.Sprintf(
				"保单编号: %s\n赔付金额: %s USDC\n理赔交易: %s",
				record.PolicyID, formatMicroUSD(record.Eligibility.PayoutAmount), record.ClaimTxHash,
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&policyID, "policy", "", "保单编号")
	_ = cmd.MarkFlagRequired("policy")

	return cmd
}
