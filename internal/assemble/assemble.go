// Package assemble turns item rows into balanced double-entry transactions.
package assemble

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerport/internal/model"
	"github.com/cleared-dev/ledgerport/internal/records"
)

// AccountLookup resolves the account declared under a number in a year.
type AccountLookup interface {
	Lookup(year int, number decimal.Decimal) (*model.Account, error)
}

// Assembler builds the transactions of one fiscal year at a time.
type Assembler struct {
	accounts AccountLookup
	calendar model.Calendar
}

// New creates an Assembler.
func New(accounts AccountLookup, calendar model.Calendar) *Assembler {
	return &Assembler{accounts: accounts, calendar: calendar}
}

// Assemble groups items by transaction id under their headers and checks
// that each transaction balances exactly. Transactions are returned in
// header order. Any unbalanced transaction fails the whole year.
func (a *Assembler) Assemble(year int, headers []records.TransactionRow, items []records.ItemRow) ([]*model.Transaction, error) {
	txns := make([]*model.Transaction, 0, len(headers))
	byID := make(map[int]*model.Transaction, len(headers))
	for _, h := range headers {
		if _, dup := byID[h.ID]; dup {
			return nil, model.ConfigurationError{Reason: fmt.Sprintf("year %d: duplicate transaction id %d", year, h.ID)}
		}
		t := &model.Transaction{
			FiscalYear:  year,
			ID:          h.ID,
			Date:        h.Date,
			Description: h.Description,
			Checked:     h.Checked,
		}
		byID[h.ID] = t
		txns = append(txns, t)
	}

	for _, row := range items {
		t, ok := byID[row.TransactionID]
		if !ok {
			return nil, model.ConfigurationError{Reason: fmt.Sprintf("year %d: item on account %s references unknown transaction %d", year, row.Number, row.TransactionID)}
		}
		acct, err := a.accounts.Lookup(year, row.Number)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", row.TransactionID, err)
		}
		t.Items = append(t.Items, &model.Item{
			FiscalYear:    year,
			TransactionID: row.TransactionID,
			Account:       acct,
			Number:        row.Number,
			Amount:        row.Amount,
			IsDebit:       row.IsDebit,
			Checked:       row.Checked,
		})
	}

	for _, t := range txns {
		if err := CheckBalanced(t); err != nil {
			return nil, err
		}
	}
	return txns, nil
}

// CheckBalanced returns an UnbalancedTransactionError when the debit and
// credit totals of t differ. Opening-balance transactions always pass.
func CheckBalanced(t *model.Transaction) error {
	if t.IsBalance {
		return nil
	}
	debit, credit := t.Totals()
	if !debit.Equal(credit) {
		return model.UnbalancedTransactionError{
			Year:          t.FiscalYear,
			TransactionID: t.ID,
			Debit:         debit,
			Credit:        credit,
		}
	}
	return nil
}

// OpeningBalances builds one single-item transaction per non-zero balance,
// dated at the start of year. They carry negative ids (-1, -2, ...) so they
// never collide with source transaction ids.
func (a *Assembler) OpeningBalances(year int, balances []model.Balance) ([]*model.Transaction, error) {
	var txns []*model.Transaction
	for i := range balances {
		b := balances[i]
		if b.Amount.IsZero() {
			continue
		}
		acct, err := a.accounts.Lookup(year, b.Number)
		if err != nil {
			return nil, fmt.Errorf("opening balance: %w", err)
		}
		id := -(len(txns) + 1)
		txns = append(txns, &model.Transaction{
			FiscalYear:  year,
			ID:          id,
			Date:        a.calendar.Start(year),
			Description: "Opening balance: " + acct.Name,
			IsBalance:   true,
			Opening:     &b,
			Items: []*model.Item{{
				FiscalYear:    year,
				TransactionID: id,
				Account:       acct,
				Number:        b.Number,
				Amount:        b.Amount,
				IsDebit:       b.IsDebit,
			}},
		})
	}
	return txns, nil
}
