package fiscal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cleared-dev/ledgerport/internal/closing"
	"github.com/cleared-dev/ledgerport/internal/ledger"
	"github.com/cleared-dev/ledgerport/internal/model"
	"github.com/cleared-dev/ledgerport/internal/records"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type memSource struct {
	years    map[int]*records.YearRecords
	entities []model.CapitalEntity
}

func (m *memSource) Years() ([]int, error) {
	var out []int
	for y := range m.years {
		out = append(out, y)
	}
	return out, nil
}

func (m *memSource) Year(year int) (*records.YearRecords, error) {
	yr, ok := m.years[year]
	if !ok {
		return nil, fmt.Errorf("no records for %d", year)
	}
	return yr, nil
}

func (m *memSource) CapitalEntities() ([]model.CapitalEntity, error) {
	return m.entities, nil
}

type memSink struct {
	entity string
	years  []*model.FiscalYear
	err    error
}

func (s *memSink) Save(_ context.Context, entity string, years []*model.FiscalYear) error {
	s.entity, s.years = entity, years
	return s.err
}

func groups() []model.AccountGroup {
	return []model.AccountGroup{
		{Name: "Assets", Start: dec("100"), End: dec("199.99")},
		{Name: "Liabilities", Start: dec("200"), End: dec("299.99")},
		{Name: "Equity", Start: dec("300"), End: dec("399.99")},
		{Name: "Income", Start: dec("400"), End: dec("499.99")},
		{Name: "Expenses", Start: dec("600"), End: dec("699.99")},
	}
}

func accounts(year int) []records.AccountRow {
	row := func(number, name string, debit bool) records.AccountRow {
		return records.AccountRow{FiscalYear: year, Number: dec(number), Name: name, DefaultDebit: debit}
	}
	return []records.AccountRow{
		row("100", "Cash", true),
		row("110", "Receivable Smith", true),
		row("300", "Capital Smith", false),
		row("301", "Capital Jones", false),
		row("310", "Drawing Smith", true),
		row("399", "Income Summary", false),
		row("400", "Fees", false),
		row("600", "Rent", true),
	}
}

func pair(id int, debitNumber, creditNumber, amount string) []records.ItemRow {
	return []records.ItemRow{
		{TransactionID: id, Number: dec(debitNumber), Amount: dec(amount), IsDebit: true, Checked: true},
		{TransactionID: id, Number: dec(creditNumber), Amount: dec(amount), Checked: true},
	}
}

func concat(rows ...[]records.ItemRow) []records.ItemRow {
	var out []records.ItemRow
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

// newSource builds two years for a 50/50 partnership. 2016 lends Smith 100
// and Smith draws 300; 2017 repays the loan and earns 1522.97 net.
func newSource() *memSource {
	y2016 := &records.YearRecords{
		Year:     2016,
		Groups:   groups(),
		Accounts: accounts(2016),
		Balances: []model.Balance{
			{FiscalYear: 2016, Number: dec("100"), Date: date(2016, 1, 1), Amount: dec("1000.00"), IsDebit: true},
		},
		Transactions: []records.TransactionRow{
			{ID: 1, Description: "Fees", Date: date(2016, 2, 1), Checked: true},
			{ID: 2, Description: "Rent", Date: date(2016, 2, 2), Checked: true},
			{ID: 3, Description: "Draw", Date: date(2016, 6, 30)},
			{ID: 100, Description: "Advance to Smith", Date: date(2016, 7, 1)},
		},
		Items: concat(
			pair(1, "100", "400", "2000.00"),
			pair(2, "600", "100", "477.03"),
			pair(3, "310", "100", "300.00"),
			pair(100, "110", "100", "100.00"),
		),
		Receivables: []model.Receivable{model.NewReceivable(2016, dec("110"), 100, dec("100.00"))},
	}
	y2017 := &records.YearRecords{
		Year:     2017,
		Groups:   groups(),
		Accounts: accounts(2017),
		Transactions: []records.TransactionRow{
			{ID: 1, Description: "Fees", Date: date(2017, 3, 1)},
			{ID: 2, Description: "Rent", Date: date(2017, 3, 2)},
			{ID: 400, Description: "Smith repays", Date: date(2017, 4, 1)},
		},
		Items: concat(
			pair(1, "100", "400", "2000.00"),
			pair(2, "600", "100", "477.03"),
			pair(400, "100", "110", "100.00"),
		),
		Reimbursements: []records.ReimbursementRow{{
			TransactionID:           400,
			ReceivableYear:          2016,
			ReceivableTransactionID: 100,
			Number:                  dec("110.0"),
			Reimbursed:              dec("100.00"),
			Allocated:               dec("0.00"),
		}},
		Closing: []records.ClosingBalanceRow{
			{Account: "Capital Smith", Amount: dec("461.49")},
			{Account: "Capital Jones", Amount: dec("761.48")},
			{Account: "Drawing Smith", Amount: dec("0")},
			{Account: "Income Summary", Amount: dec("0")},
			{Account: "Fees", Amount: dec("0")},
			{Account: "Cash", Amount: dec("3745.94"), IsDebit: true},
		},
	}
	return &memSource{
		years: map[int]*records.YearRecords{2016: y2016, 2017: y2017},
		entities: []model.CapitalEntity{
			{CapitalAccount: "Capital Smith", DistributionAccount: "Drawing Smith", Share: dec("0.5")},
			{CapitalAccount: "Capital Jones", Share: dec("0.5")},
		},
	}
}

func newOptions() Options {
	return Options{
		Calendar:           model.CalendarYear,
		Close:              true,
		CloseDistributions: true,
		Closing: closing.Options{
			SummaryAccount: "Income Summary",
			Precision:      2,
			Policy:         closing.ResidualLast,
		},
		DriftDistance: 2,
	}
}

func TestBuild(t *testing.T) {
	b := NewBuilder(newSource(), newOptions(), zaptest.NewLogger(t))
	res, err := b.Build()
	require.NoError(t, err)
	require.Len(t, res.Years, 2)

	fy2016, fy2017 := res.Years[0], res.Years[1]
	assert.Equal(t, 2016, fy2016.Year)

	c := ledger.Count(fy2016)
	assert.Equal(t, ledger.Counts{Transactions: 4, Items: 9, Balances: 1}, c)

	// 2017 is the final year and the only one closed.
	c = ledger.Count(fy2017)
	assert.Equal(t, 4, c.Closing)
	assert.Equal(t, 1, c.Reimbursements)
	assert.True(t, res.NetIncome[2017].Equal(dec("1522.97")))
	_, closed2016 := res.NetIncome[2016]
	assert.False(t, closed2016)

	var ids []int
	for _, txn := range fy2017.Transactions {
		if txn.IsClosing {
			ids = append(ids, txn.ID)
			assert.Equal(t, date(2017, 12, 31), txn.Date)
		}
	}
	assert.Equal(t, []int{401, 402, 403, 404}, ids)

	advance, ok := fy2016.Transaction(100)
	require.True(t, ok)
	recItem := advance.Items[0]
	require.NotNil(t, recItem.Receivable)
	assert.Equal(t, model.StateFullyReimbursed, recItem.State())

	repay, ok := fy2017.Transaction(400)
	require.True(t, ok)
	require.Len(t, repay.Items[1].Reimbursements, 1)
	assert.Same(t, recItem.Reimbursements[0], repay.Items[1].Reimbursements[0])
	assert.Len(t, res.Links(2017), 1)

	smith, ok := res.Catalog.Account("Capital Smith")
	require.True(t, ok)
	balances := ledger.Balances(res.Years)
	assert.Equal(t, "-461.49", balances[smith].StringFixed(2))
}

func TestBuild_SharedAccountsAcrossYears(t *testing.T) {
	src := newSource()
	src.years[2017].Closing = nil
	res, err := NewBuilder(src, Options{Calendar: model.CalendarYear}, nil).Build()
	require.NoError(t, err)

	a, _ := res.Years[0].Transaction(1)
	b, _ := res.Years[1].Transaction(1)
	assert.Same(t, a.Items[0].Account, b.Items[0].Account)
	assert.Len(t, res.Catalog.Accounts(), 8)
}

func TestBuild_ExplicitCloseYears(t *testing.T) {
	opts := newOptions()
	opts.CloseYears = []int{2016, 2017}
	src := newSource()
	src.years[2017].Closing = nil

	res, err := NewBuilder(src, opts, zaptest.NewLogger(t)).Build()
	require.NoError(t, err)

	// 2016 closes fees, Smith, Jones and the drawing; 2017 has no drawing left.
	assert.Equal(t, 4, ledger.Count(res.Years[0]).Closing)
	assert.Equal(t, 3, ledger.Count(res.Years[1]).Closing)
	assert.True(t, res.NetIncome[2016].Equal(dec("1522.97")))
}

func TestBuild_ClosingDisabled(t *testing.T) {
	src := newSource()
	src.years[2017].Closing = nil
	res, err := NewBuilder(src, Options{Calendar: model.CalendarYear}, nil).Build()
	require.NoError(t, err)
	assert.Zero(t, ledger.Count(res.Years[1]).Closing)
	assert.Empty(t, res.NetIncome)
}

func TestBuild_SelectedYears(t *testing.T) {
	opts := newOptions()
	opts.Years = []int{2016}
	res, err := NewBuilder(newSource(), opts, nil).Build()
	require.NoError(t, err)
	require.Len(t, res.Years, 1)
	assert.Equal(t, 4, ledger.Count(res.Years[0]).Closing, "2016 is the final selected year")
}

func TestBuild_UnbalancedYearFails(t *testing.T) {
	src := newSource()
	src.years[2017].Items[1].Amount = dec("1999.99")

	_, err := NewBuilder(src, newOptions(), zaptest.NewLogger(t)).Build()
	require.Error(t, err)

	year, ok := FailedYear(err)
	require.True(t, ok)
	assert.Equal(t, 2017, year)

	var ue model.UnbalancedTransactionError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 1, ue.TransactionID)
}

func TestBuild_DanglingReimbursement(t *testing.T) {
	src := newSource()
	src.years[2017].Reimbursements[0].ReceivableTransactionID = 999

	_, err := NewBuilder(src, newOptions(), nil).Build()
	var de model.DanglingReimbursementError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, model.SideReceivable, de.Side)
}

func TestBuild_ReconciliationMismatch(t *testing.T) {
	src := newSource()
	src.years[2017].Closing[1].Amount = dec("761.49")

	_, err := NewBuilder(src, newOptions(), nil).Build()
	var re model.ReconciliationError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Capital Jones", re.Account)
	assert.Equal(t, "-761.48", re.Actual.StringFixed(2))
}

func TestBuild_InvalidShares(t *testing.T) {
	src := newSource()
	src.entities[1].Share = dec("0.4")

	_, err := NewBuilder(src, newOptions(), nil).Build()
	var ce model.ConfigurationError
	require.True(t, errors.As(err, &ce))
	_, ok := FailedYear(err)
	assert.False(t, ok, "share validation runs before any year")
}

func TestBuild_NoYears(t *testing.T) {
	_, err := NewBuilder(&memSource{}, newOptions(), nil).Build()
	var ce model.ConfigurationError
	assert.True(t, errors.As(err, &ce))
}

func TestBuild_DriftWarning(t *testing.T) {
	src := newSource()
	src.years[2017].Accounts = append(src.years[2017].Accounts,
		records.AccountRow{FiscalYear: 2017, Number: dec("111"), Name: "Receivable Smiht", DefaultDebit: true})

	core, logs := observer.New(zapcore.WarnLevel)
	_, err := NewBuilder(src, newOptions(), zap.New(core)).Build()
	require.NoError(t, err)

	warnings := logs.FilterMessage("new canonical account resembles existing accounts").All()
	require.Len(t, warnings, 1)
	fields := warnings[0].ContextMap()
	assert.Equal(t, "Receivable Smiht", fields["account"])
	assert.Equal(t, int64(2017), fields["year"])
}

func TestBuild_LaterBalancesIgnored(t *testing.T) {
	src := newSource()
	src.years[2017].Balances = []model.Balance{{Number: dec("100"), Amount: dec("5"), IsDebit: true}}

	core, logs := observer.New(zapcore.WarnLevel)
	res, err := NewBuilder(src, newOptions(), zap.New(core)).Build()
	require.NoError(t, err)
	assert.Zero(t, ledger.Count(res.Years[1]).Balances)
	assert.Equal(t, 1, logs.FilterMessage("ignoring balances after the first fiscal year").Len())
}

func TestRun(t *testing.T) {
	sink := &memSink{}
	res, err := NewBuilder(newSource(), newOptions(), nil).Run(context.Background(), "Smith & Jones", sink)
	require.NoError(t, err)
	assert.Equal(t, "Smith & Jones", sink.entity)
	assert.Equal(t, res.Years, sink.years)

	sink.err = errors.New("disk full")
	_, err = NewBuilder(newSource(), newOptions(), nil).Run(context.Background(), "Smith & Jones", sink)
	assert.ErrorIs(t, err, sink.err)
}

func TestRecords_RoundTrip(t *testing.T) {
	src := newSource()
	src.years[2016].Balances[0].Date = date(2015, 12, 31)
	res, err := NewBuilder(src, newOptions(), nil).Build()
	require.NoError(t, err)

	for _, year := range []int{2016, 2017} {
		want := src.years[year]
		got, ok := res.Records(year)
		require.True(t, ok)

		assert.Len(t, got.Groups, len(want.Groups))
		assert.Equal(t, want.Accounts, got.Accounts)
		assert.Equal(t, want.Transactions, got.Transactions)
		require.Len(t, got.Items, len(want.Items), "closing entries are not exported")
		for i := range want.Items {
			assert.Equal(t, want.Items[i].TransactionID, got.Items[i].TransactionID)
			assert.True(t, want.Items[i].Amount.Equal(got.Items[i].Amount))
			assert.True(t, want.Items[i].Number.Equal(got.Items[i].Number))
			assert.Equal(t, want.Items[i].IsDebit, got.Items[i].IsDebit)
		}
		assert.Equal(t, want.Balances, got.Balances, "balance rows keep their own date")
		assert.Equal(t, want.Receivables, got.Receivables)
		require.Len(t, got.Reimbursements, len(want.Reimbursements))
		for i := range want.Reimbursements {
			assert.Equal(t, want.Reimbursements[i].TransactionID, got.Reimbursements[i].TransactionID)
			assert.True(t, want.Reimbursements[i].Reimbursed.Equal(got.Reimbursements[i].Reimbursed))
		}
		assert.Equal(t, want.Closing, got.Closing)
	}

	_, ok := res.Records(2020)
	assert.False(t, ok)
}
