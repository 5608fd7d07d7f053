// Package ledger computes balances and net income over built fiscal years.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerport/internal/model"
)

// NetIncome returns credits minus debits on income and expense accounts of
// fy, ignoring closing transactions. A loss is negative.
func NetIncome(fy *model.FiscalYear) decimal.Decimal {
	total := decimal.Zero
	for _, t := range fy.Transactions {
		if t.IsClosing {
			continue
		}
		for _, it := range t.Items {
			if it.Account.Type.IsNominal() {
				total = total.Sub(it.Signed())
			}
		}
	}
	return total
}

// Balances returns debit-positive balances of every account touched by
// years, which must be in ascending order. Balance-sheet accounts accumulate
// across all years; income and expense accounts only count the last year.
func Balances(years []*model.FiscalYear) map[*model.Account]decimal.Decimal {
	out := make(map[*model.Account]decimal.Decimal)
	for i, fy := range years {
		last := i == len(years)-1
		for _, t := range fy.Transactions {
			for _, it := range t.Items {
				if it.Account.Type.IsNominal() && !last {
					continue
				}
				out[it.Account] = out[it.Account].Add(it.Signed())
			}
		}
	}
	return out
}

// Counts summarises a fiscal year.
type Counts struct {
	Transactions   int
	Items          int
	Balances       int
	Closing        int
	Reimbursements int
}

// Count tallies the transactions and items of fy. Reimbursements are counted
// on their reimbursing side so each link is counted once.
func Count(fy *model.FiscalYear) Counts {
	var c Counts
	for _, t := range fy.Transactions {
		switch {
		case t.IsBalance:
			c.Balances++
		case t.IsClosing:
			c.Closing++
		default:
			c.Transactions++
		}
		c.Items += len(t.Items)
		for _, it := range t.Items {
			for _, r := range it.Reimbursements {
				if r.ReimbursingItem == it {
					c.Reimbursements++
				}
			}
		}
	}
	return c
}
