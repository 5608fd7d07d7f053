package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ConfigurationError reports invalid setup: ownership shares that do not sum
// to one, a missing required field, an unknown closing account.
type ConfigurationError struct {
	Reason string
}

func (e ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// GroupLookupError reports an account number outside every group band of a
// fiscal year.
type GroupLookupError struct {
	Year   int
	Number decimal.Decimal
}

func (e GroupLookupError) Error() string {
	return fmt.Sprintf("year %d: account %s is not in any account group", e.Year, e.Number)
}

// UnbalancedTransactionError reports a transaction whose debits and credits
// differ. Difference is debit minus credit.
type UnbalancedTransactionError struct {
	Year          int
	TransactionID int
	Debit         decimal.Decimal
	Credit        decimal.Decimal
}

// Difference returns debit minus credit.
func (e UnbalancedTransactionError) Difference() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

func (e UnbalancedTransactionError) Error() string {
	return fmt.Sprintf("year %d: transaction %d unbalanced: debits (%s) != credits (%s), difference %s",
		e.Year, e.TransactionID, e.Debit.StringFixed(2), e.Credit.StringFixed(2), e.Difference().String())
}

// Sides of a dangling reimbursement.
const (
	SideReceivable  = "receivable"
	SideReimbursing = "reimbursing"
)

// DanglingReimbursementError reports a reimbursement or receivable row whose
// item cannot be found.
type DanglingReimbursementError struct {
	Side string
	Key  ItemKey
}

func (e DanglingReimbursementError) Error() string {
	return fmt.Sprintf("%s item not found: year %d transaction %d account %s",
		e.Side, e.Key.Year, e.Key.TransactionID, e.Key.Number)
}

// MalformedRecordError reports a row with the wrong field count or a value
// that does not parse.
type MalformedRecordError struct {
	File   string
	Line   int
	Reason string
	Err    error
}

func (e MalformedRecordError) Error() string {
	msg := fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e MalformedRecordError) Unwrap() error { return e.Err }

// ReconciliationError reports a post-closing balance that differs from the
// expected balance supplied for it. Amounts are debit-positive.
type ReconciliationError struct {
	Year     int
	Account  string
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

func (e ReconciliationError) Error() string {
	return fmt.Sprintf("year %d: %s closes at %s, expected %s",
		e.Year, e.Account, e.Actual.StringFixed(2), e.Expected.StringFixed(2))
}

// YearError carries the fiscal year whose build failed.
type YearError struct {
	Year int
	Err  error
}

func (e YearError) Error() string {
	return fmt.Sprintf("fiscal year %d: %v", e.Year, e.Err)
}

func (e YearError) Unwrap() error { return e.Err }
