package fiscal

import (
	"github.com/cleared-dev/ledgerport/internal/model"
	"github.com/cleared-dev/ledgerport/internal/records"
)

// Records converts a built year back into record rows. Closing entries are
// not written; the expected closing balances read for the year are passed
// through unchanged.
func (r *Result) Records(year int) (*records.YearRecords, bool) {
	fy, ok := r.Year(year)
	if !ok {
		return nil, false
	}

	yr := &records.YearRecords{
		Year:     year,
		Groups:   r.Catalog.Groups(year),
		Accounts: r.Catalog.Declared(year),
		Map:      r.Catalog.AccountMap(year),
	}
	if raw := r.raw[year]; raw != nil {
		yr.Closing = raw.Closing
	}

	for _, t := range fy.Transactions {
		switch {
		case t.IsClosing:
			continue
		case t.IsBalance:
			if t.Opening != nil {
				yr.Balances = append(yr.Balances, *t.Opening)
				continue
			}
			for _, it := range t.Items {
				yr.Balances = append(yr.Balances, model.Balance{
					FiscalYear: year,
					Number:     it.Number,
					Date:       t.Date,
					Amount:     it.Amount,
					IsDebit:    it.IsDebit,
				})
			}
			continue
		}

		yr.Transactions = append(yr.Transactions, records.TransactionRow{
			ID:          t.ID,
			Description: t.Description,
			Date:        t.Date,
			Checked:     t.Checked,
		})
		for _, it := range t.Items {
			yr.Items = append(yr.Items, records.ItemRow{
				TransactionID: t.ID,
				Number:        it.Number,
				Amount:        it.Amount,
				IsDebit:       it.IsDebit,
				Checked:       it.Checked,
			})
			if it.Receivable != nil {
				yr.Receivables = append(yr.Receivables, *it.Receivable)
			}
		}
	}

	for _, link := range r.links[year] {
		yr.Reimbursements = append(yr.Reimbursements, records.ReimbursementRow{
			TransactionID:           link.ReimbursementTransactionID,
			ReceivableYear:          link.ReceivableYear,
			ReceivableTransactionID: link.ReceivableTransactionID,
			Number:                  link.Number,
			Reimbursed:              link.Reimbursed,
			Allocated:               link.Allocated,
		})
	}
	return yr, true
}
