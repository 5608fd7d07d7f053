package closing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerport/internal/model"
	"github.com/cleared-dev/ledgerport/internal/records"
)

// Reconcile compares post-closing balances against expected closing
// balances. balances and the expected rows are compared debit-positive and
// must match exactly. The first mismatch is returned.
func Reconcile(year int, accounts AccountSource, balances map[*model.Account]decimal.Decimal, expected []records.ClosingBalanceRow) error {
	for _, row := range expected {
		acct, ok := accounts.Account(row.Account)
		if !ok {
			return model.ConfigurationError{Reason: fmt.Sprintf("year %d: closing balance for unknown account %q", year, row.Account)}
		}
		actual := balances[acct]
		if !actual.Equal(row.Signed()) {
			return model.ReconciliationError{
				Year:     year,
				Account:  acct.Name,
				Expected: row.Signed(),
				Actual:   actual,
			}
		}
	}
	return nil
}
