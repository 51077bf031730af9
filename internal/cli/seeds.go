package cli

import (
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/grove-app/grove/internal/domain"
)

func init() {
	rootCmd.AddCommand(seedsCmd)
	seedsCmd.AddCommand(seedsBalanceCmd)
	seedsCmd.AddCommand(seedsHistoryCmd)
}

var seedsCmd = &cobra.Command{
	Use:   "seeds",
	Short: "Inspect the seed ledger",
}

var seedsBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the current seed balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		var b struct {
			Balance     int `json:"balance"`
			TotalEarned int `json:"totalEarned"`
			TotalSpent  int `json:"totalSpent"`
		}
		if err := c.get("/api/seeds/balance", &b); err != nil {
			return err
		}
		color.Green("Balance: %d seeds", b.Balance)
		color.New(color.Faint).Printf("earned %d, spent %d\n", b.TotalEarned, b.TotalSpent)
		return nil
	},
}

var seedsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List reward transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		var txs []domain.RewardTransaction
		if err := c.get("/api/seeds/transactions", &txs); err != nil {
			return err
		}

		table := uitable.New()
		table.AddRow("WHEN", "TYPE", "AMOUNT", "SOURCE")
		for _, tx := range txs {
			amount := tx.Amount
			if tx.Type == domain.TxSpent {
				amount = -amount
			}
			table.AddRow(tx.CreatedAt.Format("2006-01-02 15:04"), string(tx.Type), amount, tx.Source)
		}
		cmd.Println(table)
		return nil
	},
}
