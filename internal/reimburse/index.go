package reimburse

import (
	"github.com/cleared-dev/ledgerport/internal/model"
)

// Index locates items of built fiscal years by (year, transaction id,
// account number). Years are added as they complete and never removed.
type Index struct {
	items map[model.ItemKey][]*model.Item
	years map[int]bool
	order []*model.Item
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{
		items: make(map[model.ItemKey][]*model.Item),
		years: make(map[int]bool),
	}
}

// Add indexes the items of every source transaction of fy. Opening-balance
// and closing transactions are not indexed.
func (x *Index) Add(fy *model.FiscalYear) {
	x.years[fy.Year] = true
	for _, t := range fy.Transactions {
		if t.IsBalance || t.IsClosing {
			continue
		}
		for _, it := range t.Items {
			k := it.Key()
			x.items[k] = append(x.items[k], it)
			x.order = append(x.order, it)
		}
	}
}

// Contains reports whether year has been added.
func (x *Index) Contains(year int) bool {
	return x.years[year]
}

// Find returns the item under key. When a transaction holds several items on
// the same account, the first one on the preferred side wins, then the first
// one overall.
func (x *Index) Find(key model.ItemKey, preferDebit bool) (*model.Item, bool) {
	candidates := x.items[key]
	for _, it := range candidates {
		if it.IsDebit == preferDebit {
			return it, true
		}
	}
	if len(candidates) > 0 {
		return candidates[0], true
	}
	return nil, false
}

// Receivables returns every indexed item that is the receivable side of a
// receivable record or a reimbursement, in index order.
func (x *Index) Receivables() []*model.Item {
	var out []*model.Item
	for _, it := range x.order {
		if it.Receivable != nil {
			out = append(out, it)
			continue
		}
		for _, r := range it.Reimbursements {
			if r.ReceivableItem == it {
				out = append(out, it)
				break
			}
		}
	}
	return out
}
