package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeNone      AccountType = ""
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

type typeBand struct {
	low, high int64
	typ       AccountType
}

// Fixed for every fiscal year; bands are inclusive on the integer part.
var typeBands = []typeBand{
	{100, 199, AccountTypeAsset},
	{200, 299, AccountTypeLiability},
	{300, 399, AccountTypeEquity},
	{400, 599, AccountTypeIncome},
	{600, 699, AccountTypeExpense},
}

// Classify returns the account type for an account number. Sub-account
// numbers such as 110.5 classify by their integer part. ok is false when the
// number falls outside every band.
func Classify(number decimal.Decimal) (typ AccountType, ok bool) {
	whole := number.Truncate(0).IntPart()
	for _, b := range typeBands {
		if whole >= b.low && whole <= b.high {
			return b.typ, true
		}
	}
	return AccountTypeNone, false
}

// IsNominal reports whether balances of this type reset at each closing.
func (t AccountType) IsNominal() bool {
	return t == AccountTypeIncome || t == AccountTypeExpense
}

// NumberKey is the canonical string form of an account number, used as a
// map key. "110.0" and "110" produce the same key.
func NumberKey(number decimal.Decimal) string {
	return number.String()
}

// AccountGroup is one row of groups.txt: a contiguous account-number band
// valid for a single fiscal year.
type AccountGroup struct {
	FiscalYear int
	Name       string
	Start      decimal.Decimal
	End        decimal.Decimal
}

// Contains reports whether number lies within [Start, End].
func (g AccountGroup) Contains(number decimal.Decimal) bool {
	return number.GreaterThanOrEqual(g.Start) && number.LessThanOrEqual(g.End)
}

// Account is a canonical account shared by every fiscal year that refers to
// it. Identity is by pointer; two years naming the same canonical account
// hold the same *Account.
type Account struct {
	Name         string
	Number       decimal.Decimal // number in the most recent year that declared it
	DefaultDebit bool
	Type         AccountType
	Receivable   bool
}

// AccountMap is one row of accountmap.txt.
type AccountMap struct {
	FiscalYear    int
	Number        decimal.Decimal
	CanonicalName string
}

// Balance is one opening-balance row of balances.txt. Only the first fiscal
// year of a load carries balances.
type Balance struct {
	FiscalYear int
	Number     decimal.Decimal
	Date       time.Time // kept for export; the opening transaction is dated at year start
	Amount     decimal.Decimal
	IsDebit    bool
}

// CapitalEntity is an owner with a fractional share of the ledger's equity.
type CapitalEntity struct {
	CapitalAccount      string
	DistributionAccount string
	Share               decimal.Decimal
}
