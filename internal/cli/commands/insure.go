package commands

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/priceshield/v1/internal/core/commitment"
	"github.com/priceshield/v1/internal/core/policy"
)

// newInsureCommand 创建投保命令
//
// 流程：发票数据 → 购买承诺 → 链上buyPolicy → 本地保单落库。
// 链上只出现承诺哈希与保费，发票明文仅存本地。
func (c *CLI) newInsureCommand() *cobra.Command {
	var (
		orderNumber string
		productID   string
		productName string
		priceUSD    string
		date        string
	)

	cmd := &cobra.Command{
		Use:   "insure",
		Short: "购买保价保单",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := c.requireAddress()
			if err != nil {
				return err
			}

			if err := c.setup(true); err != nil {
				return err
			}
			defer c.teardown()

			spinner, _ := pterm.DefaultSpinner.Start("构造购买承诺...")

			result, err := c.engine.Commitments.Build(commitment.InvoiceData{
				OrderNumber:      orderNumber,
				PurchasePriceUSD: priceUSD,
				PurchaseDate:     date,
				ProductID:        productID,
			})
			if err != nil {
				spinner.Fail("承诺构造失败")
				return err
			}

			// 承诺先单独留档，链上交易失败时仍可凭此恢复投保动作
			now := time.Now().Unix()
			if err := c.engine.Policies.SaveCommitment(address, &policy.CommitmentRecord{
				Commitment: result.Commitment,
				Details:    result.Details,
				Tier:       result.Tier,
				Premium:    result.Premium,
				CreatedAt:  now,
			}); err != nil {
				spinner.Fail("承诺落库失败")
				return err
			}

			spinner.UpdateText("提交链上投保交易...")

			ldg, err := c.engine.NewLedger()
			if err != nil {
				spinner.Fail("账本连接失败")
				return err
			}

			txHash, policyID, err := ldg.BuyPolicy(cmd.Context(), common.HexToHash(result.Commitment), result.Premium)
			if err != nil {
				spinner.Fail("投保交易失败")
				return err
			}

			contracts := c.engine.Config.GetContracts()
			record := &policy.PolicyRecord{
				PolicyID:         policyID.String(),
				TransactionHash:  txHash.Hex(),
				SecretCommitment: result.Commitment,
				Details:          result.Details,
				ProductID:        productID,
				ProductName:      productName,
				Premium:          result.Premium,
				Tier:             result.Tier,
				Contracts: policy.ContractAddresses{
					Vault:    contracts.GetVault().Hex(),
					Token:    contracts.GetToken().Hex(),
					Verifier: contracts.GetVerifier().Hex(),
				},
				Status:    policy.StatusActive,
				CreatedAt: now,
			}
			if err := c.engine.Policies.SavePolicy(address, record); err != nil {
				spinner.Fail("保单落库失败")
				return fmt.Errorf("交易已上链（tx=%s）但本地落库失败: %w", txHash.Hex(), err)
			}

			spinner.Success("投保完成")

			pterm.DefaultBox.WithTitle("🎯 保单已生效").Println(fmt.Sprintf(
				"保单编号: %s\n商品: %s\n保障档位: %d\n保费: %s USDC\n交易哈希: %s\n承诺: %s",
				record.PolicyID, productID, record.Tier,
				formatMicroUSD(record.Premium), record.TransactionHash, record.SecretCommitment,
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&orderNumber, "order", "", "订单号")
	cmd.Flags().StringVar(&productID, "product", "", "商品标识")
	cmd.Flags().StringVar(&productName, "name", "", "商品名称（展示用，可选）")
	cmd.Flags().StringVar(&priceUSD, "price", "", "购买价格（美元，如199.99）")
	cmd.Flags().StringVar(&date, "date", "", "购买日期（2006-01-02）")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

// formatMicroUSD micro-units转美元显示
func formatMicroUSD(micro uint64) string {
	return fmt.Sprintf("%d.%02d", micro/1_000_000, micro%1_000_000/10_000)
}
