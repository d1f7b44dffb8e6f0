package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/priceshield/v1/internal/core/policy"
)

// newCheckCommand 创建资格检查命令
//
// 按当前预言机价格重新评估保单资格，快照整体覆盖上一次结果。
func (c *CLI) newCheckCommand() *cobra.Command {
	var policyID string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "检查保单理赔资格",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := c.requireAddress()
			if err != nil {
				return err
			}

			if err := c.setup(true); err != nil {
				return err
			}
			defer c.teardown()

			spinner, _ := pterm.DefaultSpinner.Start("获取预言机价格并评估资格...")

			var records []*policy.PolicyRecord
			if policyID != "" {
				record, err := c.engine.Evaluator.Evaluate(cmd.Context(), address, policyID)
				if err != nil {
					spinner.Fail("资格评估失败")
					return err
				}
				records = append(records, record)
			} else {
				records, err = c.engine.Evaluator.EvaluateAll(cmd.Context(), address)
				if err != nil {
					spinner.Fail("资格评估失败")
					return err
				}
			}

			spinner.Success("评估完成")

			if len(records) == 0 {
				pterm.Info.Println("该地址下没有可评估的保单")
				return nil
			}

			data := pterm.TableData{{"保单编号", "商品", "状态", "当前价格", "降价幅度", "可赔金额"}}
			for _, record := range records {
				currentPrice, dropPct, payout := "-", "-", "-"
				if record.Eligibility != nil {
					currentPrice = formatMicroUSD(record.Eligibility.CurrentPrice)
					dropPct = pterm.Sprintf("%.1f%%", record.Eligibility.DropPercentage)
					if record.Status == policy.StatusEligible {
						payout = formatMicroUSD(record.Eligibility.PayoutAmount)
					}
				}
				data = append(data, []string{
					record.PolicyID, record.ProductID, string(record.Status),
					currentPrice, dropPct, payout,
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}

	cmd.Flags().StringVar(&policyID, "policy", "", "保单编号（省略则评估全部）")

	return cmd
}
