// Package store persists built fiscal years to a database.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerport/internal/model"
)

// Sink persists the built fiscal years of an entity and releases its
// connection on Close.
type Sink interface {
	Save(ctx context.Context, entity string, years []*model.FiscalYear) error
	Close() error
}

// Transaction kinds.
const (
	KindEntry   = "entry"
	KindBalance = "balance"
	KindClosing = "closing"
)

// Load is one persisted build.
type Load struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	Entity    string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (Load) TableName() string { return "loads" }

// AccountRecord is a canonical account of a load.
type AccountRecord struct {
	LoadID       string          `gorm:"primaryKey;type:uuid"`
	Name         string          `gorm:"primaryKey;type:varchar(200)"`
	Number       decimal.Decimal `gorm:"type:numeric;not null"`
	Type         string          `gorm:"type:varchar(16);not null"`
	DefaultDebit bool            `gorm:"not null"`
	Receivable   bool            `gorm:"not null"`
}

func (AccountRecord) TableName() string { return "accounts" }

// TransactionRecord is one transaction of a load.
type TransactionRecord struct {
	LoadID        string    `gorm:"primaryKey;type:uuid"`
	FiscalYear    int       `gorm:"primaryKey;autoIncrement:false"`
	TransactionID int       `gorm:"primaryKey;autoIncrement:false"`
	Date          time.Time `gorm:"type:date;not null"`
	Description   string    `gorm:"type:text"`
	Checked       bool      `gorm:"not null"`
	Kind          string    `gorm:"type:varchar(8);not null"`

	Items []ItemRecord `gorm:"foreignKey:LoadID,FiscalYear,TransactionID;references:LoadID,FiscalYear,TransactionID"`
}

func (TransactionRecord) TableName() string { return "transactions" }

// ItemRecord is one item of a transaction. ReceivableAmount is set when a
// receivable record is attached.
type ItemRecord struct {
	LoadID           string           `gorm:"primaryKey;type:uuid"`
	FiscalYear       int              `gorm:"primaryKey;autoIncrement:false"`
	TransactionID    int              `gorm:"primaryKey;autoIncrement:false"`
	Seq              int              `gorm:"primaryKey;autoIncrement:false"`
	Account          string           `gorm:"type:varchar(200);not null;index"`
	Number           decimal.Decimal  `gorm:"type:numeric;not null"`
	Amount           decimal.Decimal  `gorm:"type:numeric;not null"`
	IsDebit          bool             `gorm:"not null"`
	Checked          bool             `gorm:"not null"`
	ReceivableAmount *decimal.Decimal `gorm:"type:numeric"`
}

func (ItemRecord) TableName() string { return "items" }

// ReimbursementRecord is one link between a receivable item and the item
// that pays it down.
type ReimbursementRecord struct {
	ID                         int64           `gorm:"primaryKey;autoIncrement"`
	LoadID                     string          `gorm:"type:uuid;not null;index"`
	Number                     decimal.Decimal `gorm:"type:numeric;not null"`
	ReceivableYear             int             `gorm:"not null"`
	ReceivableTransactionID    int             `gorm:"not null"`
	ReimbursementYear          int             `gorm:"not null"`
	ReimbursementTransactionID int             `gorm:"not null"`
	Reimbursed                 decimal.Decimal `gorm:"type:numeric;not null"`
	Allocated                  decimal.Decimal `gorm:"type:numeric;not null"`
}

func (ReimbursementRecord) TableName() string { return "reimbursements" }

// Snapshot is the flattened form of a load.
type Snapshot struct {
	Load           Load
	Accounts       []AccountRecord
	Transactions   []TransactionRecord
	Reimbursements []ReimbursementRecord
}

// ItemCount returns the number of items across every transaction.
func (s *Snapshot) ItemCount() int {
	n := 0
	for _, t := range s.Transactions {
		n += len(t.Items)
	}
	return n
}

// NewSnapshot flattens years under loadID. Accounts are those referenced by
// any item, in first-seen order. Each reimbursement is recorded once, from
// its reimbursing item.
func NewSnapshot(loadID, entity string, years []*model.FiscalYear, now time.Time) *Snapshot {
	s := &Snapshot{Load: Load{ID: loadID, Entity: entity, CreatedAt: now}}
	seen := make(map[*model.Account]bool)

	for _, fy := range years {
		for _, t := range fy.Transactions {
			tr := TransactionRecord{
				LoadID:        loadID,
				FiscalYear:    fy.Year,
				TransactionID: t.ID,
				Date:          t.Date,
				Description:   t.Description,
				Checked:       t.Checked,
				Kind:          kind(t),
			}
			for i, it := range t.Items {
				if !seen[it.Account] {
					seen[it.Account] = true
					s.Accounts = append(s.Accounts, AccountRecord{
						LoadID:       loadID,
						Name:         it.Account.Name,
						Number:       it.Account.Number,
						Type:         string(it.Account.Type),
						DefaultDebit: it.Account.DefaultDebit,
						Receivable:   it.Account.Receivable,
					})
				}

				ir := ItemRecord{
					LoadID:        loadID,
					FiscalYear:    fy.Year,
					TransactionID: t.ID,
					Seq:           i + 1,
					Account:       it.Account.Name,
					Number:        it.Number,
					Amount:        it.Amount,
					IsDebit:       it.IsDebit,
					Checked:       it.Checked,
				}
				if it.Receivable != nil {
					amount := it.Receivable.Amount
					ir.ReceivableAmount = &amount
				}
				tr.Items = append(tr.Items, ir)

				for _, r := range it.Reimbursements {
					if r.ReimbursingItem != it {
						continue
					}
					s.Reimbursements = append(s.Reimbursements, ReimbursementRecord{
						LoadID:                     loadID,
						Number:                     r.Number,
						ReceivableYear:             r.ReceivableYear,
						ReceivableTransactionID:    r.ReceivableTransactionID,
						ReimbursementYear:          r.ReimbursementYear,
						ReimbursementTransactionID: r.ReimbursementTransactionID,
						Reimbursed:                 r.Reimbursed,
						Allocated:                  r.Allocated,
					})
				}
			}
			s.Transactions = append(s.Transactions, tr)
		}
	}
	return s
}

func kind(t *model.Transaction) string {
	switch {
	case t.IsBalance:
		return KindBalance
	case t.IsClosing:
		return KindClosing
	default:
		return KindEntry
	}
}
