// Package reimburse links receivable items to the items that pay them down,
// possibly in a later fiscal year.
package reimburse

import (
	"fmt"

	"github.com/cleared-dev/ledgerport/internal/model"
	"github.com/cleared-dev/ledgerport/internal/records"
)

// Linker attaches receivables and reimbursements to indexed items.
type Linker struct {
	index *Index
}

// New creates a Linker over index.
func New(index *Index) *Linker {
	return &Linker{index: index}
}

// AttachReceivables attaches each receivable row of year to its debit item
// and flags the item's account as receivable. Nothing is attached unless
// every row resolves.
func (l *Linker) AttachReceivables(year int, receivables []model.Receivable) error {
	if !l.index.Contains(year) {
		return fmt.Errorf("year %d has not been indexed", year)
	}

	items := make([]*model.Item, len(receivables))
	for i, rec := range receivables {
		key := model.ItemKey{Year: year, TransactionID: rec.TransactionID, Number: model.NumberKey(rec.Number)}
		it, ok := l.index.Find(key, true)
		if !ok {
			return model.DanglingReimbursementError{Side: model.SideReceivable, Key: key}
		}
		if it.Receivable != nil {
			return model.ConfigurationError{Reason: fmt.Sprintf("year %d: transaction %d account %s has more than one receivable record",
				year, rec.TransactionID, key.Number)}
		}
		items[i] = it
	}

	for i, it := range items {
		rec := receivables[i]
		it.Receivable = &rec
		it.Account.Receivable = true
	}
	return nil
}

// Link resolves every reimbursement row of year and attaches one shared
// Reimbursement to both the receivable item and the reimbursing item. The
// receivable item may belong to year or to any earlier indexed year; the
// reimbursing item belongs to year. Nothing is attached unless every row
// resolves.
func (l *Linker) Link(year int, rows []records.ReimbursementRow) ([]*model.Reimbursement, error) {
	if !l.index.Contains(year) {
		return nil, fmt.Errorf("year %d has not been indexed", year)
	}

	links := make([]*model.Reimbursement, 0, len(rows))
	for _, row := range rows {
		number := model.NumberKey(row.Number)

		recKey := model.ItemKey{Year: row.ReceivableYear, TransactionID: row.ReceivableTransactionID, Number: number}
		if row.ReceivableYear > year {
			return nil, model.DanglingReimbursementError{Side: model.SideReceivable, Key: recKey}
		}
		receivable, ok := l.index.Find(recKey, true)
		if !ok {
			return nil, model.DanglingReimbursementError{Side: model.SideReceivable, Key: recKey}
		}

		reimKey := model.ItemKey{Year: year, TransactionID: row.TransactionID, Number: number}
		reimbursing, ok := l.index.Find(reimKey, false)
		if !ok {
			return nil, model.DanglingReimbursementError{Side: model.SideReimbursing, Key: reimKey}
		}

		links = append(links, &model.Reimbursement{
			Number:                     row.Number,
			ReceivableYear:             row.ReceivableYear,
			ReceivableTransactionID:    row.ReceivableTransactionID,
			ReimbursementYear:          year,
			ReimbursementTransactionID: row.TransactionID,
			Reimbursed:                 row.Reimbursed,
			Allocated:                  row.Allocated,
			ReceivableItem:             receivable,
			ReimbursingItem:            reimbursing,
		})
	}

	for _, r := range links {
		r.ReceivableItem.Reimbursements = append(r.ReceivableItem.Reimbursements, r)
		if r.ReimbursingItem != r.ReceivableItem {
			r.ReimbursingItem.Reimbursements = append(r.ReimbursingItem.Reimbursements, r)
		}
		r.ReceivableItem.Account.Receivable = true
		r.ReimbursingItem.Account.Receivable = true
	}
	return links, nil
}
