package closing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerport/internal/model"
)

// AccountSource resolves canonical account names.
type AccountSource interface {
	Account(name string) (*model.Account, bool)
}

// Options configures a Distributor.
type Options struct {
	SummaryAccount string // canonical name of the income summary account
	Precision      int32  // currency decimal places
	Policy         ResidualPolicy
}

// Distributor builds the year-end closing entries. Entries are numbered from
// 1; the caller renumbers them into the year's id space.
type Distributor struct {
	accounts AccountSource
	calendar model.Calendar
	opts     Options
}

// NewDistributor creates a Distributor.
func NewDistributor(accounts AccountSource, calendar model.Calendar, opts Options) *Distributor {
	return &Distributor{accounts: accounts, calendar: calendar, opts: opts}
}

func (d *Distributor) account(name, role string) (*model.Account, error) {
	a, ok := d.accounts.Account(name)
	if !ok {
		return nil, model.ConfigurationError{Reason: fmt.Sprintf("%s account %q not found", role, name)}
	}
	return a, nil
}

func (d *Distributor) entry(year, id int, description string, items ...*model.Item) *model.Transaction {
	t := &model.Transaction{
		FiscalYear:  year,
		ID:          id,
		Date:        d.calendar.End(year),
		Description: description,
		Checked:     true,
		IsClosing:   true,
	}
	for _, it := range items {
		it.FiscalYear = year
		it.TransactionID = id
		t.Items = append(t.Items, it)
	}
	return t
}

// item builds an item for a debit-positive amount on acct.
func item(acct *model.Account, signed decimal.Decimal) *model.Item {
	return &model.Item{
		Account: acct,
		Number:  acct.Number,
		Amount:  signed.Abs(),
		IsDebit: signed.IsPositive(),
		Checked: true,
	}
}

// CloseNominal moves the year's income and expense balances into the
// summary account in a single entry. It returns nil when every nominal
// balance is zero.
func (d *Distributor) CloseNominal(fy *model.FiscalYear) (*model.Transaction, error) {
	summary, err := d.account(d.opts.SummaryAccount, "summary")
	if err != nil {
		return nil, err
	}

	balances := make(map[*model.Account]decimal.Decimal)
	var order []*model.Account
	for _, t := range fy.Transactions {
		if t.IsClosing {
			continue
		}
		for _, it := range t.Items {
			if !it.Account.Type.IsNominal() {
				continue
			}
			if _, seen := balances[it.Account]; !seen {
				order = append(order, it.Account)
			}
			balances[it.Account] = balances[it.Account].Add(it.Signed())
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].Number.LessThan(order[j].Number) })

	var items []*model.Item
	net := decimal.Zero
	for _, acct := range order {
		b := balances[acct]
		if b.IsZero() {
			continue
		}
		items = append(items, item(acct, b.Neg()))
		net = net.Add(b)
	}
	if len(items) == 0 {
		return nil, nil
	}
	if !net.IsZero() {
		items = append(items, item(summary, net))
	}
	return d.entry(fy.Year, 1, "Closing: income and expense to "+summary.Name, items...), nil
}

// Close builds one allocation entry per entity moving its share of
// netIncome from the summary account to its capital account. A positive
// netIncome credits capital; a loss debits it. Entities whose allocation
// rounds to zero get no entry.
func (d *Distributor) Close(year int, entities []model.CapitalEntity, netIncome decimal.Decimal) ([]*model.Transaction, error) {
	allocations, err := Allocate(entities, netIncome, d.opts.Precision, d.opts.Policy)
	if err != nil {
		return nil, err
	}
	summary, err := d.account(d.opts.SummaryAccount, "summary")
	if err != nil {
		return nil, err
	}

	var txns []*model.Transaction
	for _, a := range allocations {
		capital, err := d.account(a.Entity.CapitalAccount, "capital")
		if err != nil {
			return nil, err
		}
		if a.Amount.IsZero() {
			continue
		}
		txns = append(txns, d.entry(year, len(txns)+1,
			fmt.Sprintf("Closing: %s share of net income", capital.Name),
			item(summary, a.Amount),
			item(capital, a.Amount.Neg()),
		))
	}
	return txns, nil
}

// CloseDistributions moves each entity's distribution account balance into
// its capital account. balances are debit-positive balances before closing.
func (d *Distributor) CloseDistributions(year int, entities []model.CapitalEntity, balances map[*model.Account]decimal.Decimal) ([]*model.Transaction, error) {
	var txns []*model.Transaction
	for _, e := range entities {
		if e.DistributionAccount == "" {
			continue
		}
		dist, err := d.account(e.DistributionAccount, "distribution")
		if err != nil {
			return nil, err
		}
		capital, err := d.account(e.CapitalAccount, "capital")
		if err != nil {
			return nil, err
		}
		b := balances[dist]
		if b.IsZero() {
			continue
		}
		txns = append(txns, d.entry(year, len(txns)+1,
			fmt.Sprintf("Closing: %s to %s", dist.Name, capital.Name),
			item(capital, b),
			item(dist, b.Neg()),
		))
	}
	return txns, nil
}
