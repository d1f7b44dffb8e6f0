package commands

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// newPoliciesCommand 创建保单清单命令
func (c *CLI) newPoliciesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "列出本地保单",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := c.requireAddress()
			if err != nil {
				return err
			}

			if err := c.setup(true); err != nil {
				return err
			}
			defer c.teardown()

			records, err := c.engine.Policies.ListPolicies(address)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				pterm.Info.Println("该地址下没有保单")
				return nil
			}

			data := pterm.TableData{{"保单编号", "商品", "档位", "保费", "状态", "投保时间"}}
			for _, record := range records {
				data = append(data, []string{
					record.PolicyID,
					record.ProductID,
					pterm.Sprintf("%d", record.Tier),
					formatMicroUSD(record.Premium),
					string(record.Status),
					time.Unix(record.CreatedAt, 0).Format("2006-01-02 15:04"),
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}

	return cmd
}
