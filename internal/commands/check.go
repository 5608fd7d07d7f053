package commands

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerport/internal/fiscal"
	"github.com/cleared-dev/ledgerport/internal/ledger"
	"github.com/cleared-dev/ledgerport/internal/model"
)

func newCheckCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Build every fiscal year without persisting and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*configPath)
			if err != nil {
				return err
			}
			defer p.close()

			b, err := p.builder()
			if err != nil {
				return err
			}
			res, err := b.Build()
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), res, p.cfg.Currency)
			return nil
		},
	}
}

func printSummary(out io.Writer, res *fiscal.Result, currency string) {
	for _, fy := range res.Years {
		c := ledger.Count(fy)
		fmt.Fprintf(out, "%d: %d transactions, %d items, %d opening balances, %d reimbursements, %d closing entries\n",
			fy.Year, c.Transactions, c.Items, c.Balances, c.Reimbursements, c.Closing)
		if net, ok := res.NetIncome[fy.Year]; ok {
			fmt.Fprintf(out, "  net income %s\n", formatMoney(net, currency))
		}
	}

	open := 0
	outstanding := decimal.Zero
	for _, it := range res.Index.Receivables() {
		if it.State() == model.StateFullyReimbursed {
			continue
		}
		open++
		outstanding = outstanding.Add(it.Outstanding())
	}
	fmt.Fprintf(out, "%d accounts, %d open receivables outstanding %s\n",
		len(res.Catalog.Accounts()), open, formatMoney(outstanding, currency))
}
