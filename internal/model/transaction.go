package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a set of items posted together. Except for opening-balance
// transactions, the debit and credit totals are exactly equal.
type Transaction struct {
	FiscalYear  int
	ID          int
	Date        time.Time
	Description string
	Checked     bool
	Items       []*Item
	IsBalance   bool     // opening balance; exempt from the balance check
	IsClosing   bool     // year-end distribution produced by closing
	Opening     *Balance // source row of an opening balance transaction
}

// Totals returns the debit and credit sums of the transaction's items.
func (t *Transaction) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, it := range t.Items {
		if it.IsDebit {
			debit = debit.Add(it.Amount)
		} else {
			credit = credit.Add(it.Amount)
		}
	}
	return debit, credit
}

// Renumber assigns id to t and to each of its items.
func (t *Transaction) Renumber(id int) {
	t.ID = id
	for _, it := range t.Items {
		it.TransactionID = id
	}
}

// Item is one line of a transaction.
type Item struct {
	FiscalYear    int
	TransactionID int
	Account       *Account
	Number        decimal.Decimal // account number as written in this year's files
	Amount        decimal.Decimal
	IsDebit       bool
	Checked       bool

	// Set only on items of receivable accounts.
	Receivable     *Receivable
	Reimbursements []*Reimbursement
}

// Key returns the lookup key of the item.
func (i *Item) Key() ItemKey {
	return ItemKey{Year: i.FiscalYear, TransactionID: i.TransactionID, Number: NumberKey(i.Number)}
}

// Signed returns the amount as a debit-positive value.
func (i *Item) Signed() decimal.Decimal {
	if i.IsDebit {
		return i.Amount
	}
	return i.Amount.Neg()
}

// Reimbursed sums the reimbursed amounts of links where this item is the
// receivable side.
func (i *Item) Reimbursed() decimal.Decimal {
	total := decimal.Zero
	for _, r := range i.Reimbursements {
		if r.ReceivableItem == i {
			total = total.Add(r.Reimbursed)
		}
	}
	return total
}

// Outstanding returns the amount of the receivable still open. Items with no
// receivable record report their own amount as the original balance.
func (i *Item) Outstanding() decimal.Decimal {
	original := i.Amount
	if i.Receivable != nil {
		original = i.Receivable.Amount.Neg()
	}
	return original.Sub(i.Reimbursed())
}

// ReimbursementState is the pay-down state of a receivable item.
type ReimbursementState string

const (
	StateOpen                ReimbursementState = "open"
	StatePartiallyReimbursed ReimbursementState = "partially-reimbursed"
	StateFullyReimbursed     ReimbursementState = "fully-reimbursed"
)

// State derives the item's pay-down state from its reimbursement links.
func (i *Item) State() ReimbursementState {
	reimbursed := i.Reimbursed()
	switch {
	case reimbursed.IsZero():
		return StateOpen
	case i.Outstanding().IsPositive():
		return StatePartiallyReimbursed
	default:
		return StateFullyReimbursed
	}
}

// ItemKey locates an item across fiscal years.
type ItemKey struct {
	Year          int
	TransactionID int
	Number        string // NumberKey of the account number
}

// Receivable is one row of receivables.txt. Amount holds the negated source
// amount: a receivable reduces the open balance it is recorded against.
type Receivable struct {
	FiscalYear    int
	Number        decimal.Decimal
	TransactionID int
	Amount        decimal.Decimal
}

// NewReceivable builds a Receivable from a positive source amount.
func NewReceivable(year int, number decimal.Decimal, transactionID int, amount decimal.Decimal) Receivable {
	return Receivable{
		FiscalYear:    year,
		Number:        number,
		TransactionID: transactionID,
		Amount:        amount.Neg(),
	}
}

// SourceAmount returns the amount as it appears in the source file.
func (r Receivable) SourceAmount() decimal.Decimal {
	return r.Amount.Neg()
}

// Reimbursement links a receivable item to the item that pays it down. The
// same value is shared by both items and is not modified after linking.
type Reimbursement struct {
	Number                     decimal.Decimal
	ReceivableYear             int
	ReceivableTransactionID    int
	ReimbursementYear          int
	ReimbursementTransactionID int
	Reimbursed                 decimal.Decimal
	Allocated                  decimal.Decimal // part of the reimbursing item not drawn down by this link

	ReceivableItem  *Item
	ReimbursingItem *Item
}

// FiscalYear is the built ledger of one year.
type FiscalYear struct {
	Year         int
	Transactions []*Transaction
}

// Transaction returns the non-synthetic transaction with the given id.
func (fy *FiscalYear) Transaction(id int) (*Transaction, bool) {
	for _, t := range fy.Transactions {
		if t.ID == id && !t.IsBalance && !t.IsClosing {
			return t, true
		}
	}
	return nil, false
}

// MaxTransactionID returns the largest transaction id in the year, or 0.
func (fy *FiscalYear) MaxTransactionID() int {
	maxID := 0
	for _, t := range fy.Transactions {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	return maxID
}
