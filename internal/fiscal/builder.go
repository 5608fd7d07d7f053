// Package fiscal drives the year-by-year build of a legacy ledger load.
package fiscal

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledgerport/internal/assemble"
	"github.com/cleared-dev/ledgerport/internal/catalog"
	"github.com/cleared-dev/ledgerport/internal/closing"
	"github.com/cleared-dev/ledgerport/internal/ledger"
	"github.com/cleared-dev/ledgerport/internal/model"
	"github.com/cleared-dev/ledgerport/internal/records"
	"github.com/cleared-dev/ledgerport/internal/reimburse"
)

// Source supplies the raw records of a load.
type Source interface {
	Years() ([]int, error)
	Year(year int) (*records.YearRecords, error)
	CapitalEntities() ([]model.CapitalEntity, error)
}

// Sink persists the built fiscal years of an entity.
type Sink interface {
	Save(ctx context.Context, entity string, years []*model.FiscalYear) error
}

// Options configures a Builder.
type Options struct {
	Years              []int // empty: every year the source reports
	Calendar           model.Calendar
	Close              bool
	CloseYears         []int // empty: final year only
	CloseDistributions bool
	Closing            closing.Options
	DriftDistance      int // edit distance for similar-name warnings; 0 disables
}

// Builder builds fiscal years strictly in ascending order. Each year either
// builds completely or the whole run stops.
type Builder struct {
	src  Source
	opts Options
	log  *zap.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(src Source, opts Options, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{src: src, opts: opts, log: log}
}

// Build loads and builds every fiscal year. A failing year is returned as a
// model.YearError wrapping the cause.
func (b *Builder) Build() (*Result, error) {
	years := slices.Clone(b.opts.Years)
	if len(years) == 0 {
		var err error
		years, err = b.src.Years()
		if err != nil {
			return nil, fmt.Errorf("listing fiscal years: %w", err)
		}
	}
	slices.Sort(years)
	years = slices.Compact(years)
	if len(years) == 0 {
		return nil, model.ConfigurationError{Reason: "no fiscal years to load"}
	}

	entities, err := b.src.CapitalEntities()
	if err != nil {
		return nil, fmt.Errorf("reading capital entities: %w", err)
	}
	if b.opts.Close {
		if err := closing.ValidateShares(entities); err != nil {
			return nil, err
		}
	}

	res := newResult(entities)
	for i, year := range years {
		yr, err := b.src.Year(year)
		if err != nil {
			b.log.Error("reading fiscal year failed", zap.Int("year", year), zap.Error(err))
			return nil, model.YearError{Year: year, Err: err}
		}
		fy, err := b.buildYear(res, yr, i == 0, i == len(years)-1)
		if err != nil {
			b.log.Error("building fiscal year failed", zap.Int("year", year), zap.Error(err))
			return nil, model.YearError{Year: year, Err: err}
		}
		counts := ledger.Count(fy)
		b.log.Info("built fiscal year",
			zap.Int("year", year),
			zap.Int("transactions", counts.Transactions),
			zap.Int("items", counts.Items),
			zap.Int("reimbursements", counts.Reimbursements),
			zap.Int("closing_entries", counts.Closing),
		)
	}
	return res, nil
}

func (b *Builder) buildYear(res *Result, yr *records.YearRecords, first, final bool) (*model.FiscalYear, error) {
	year := yr.Year

	created, err := res.Catalog.Register(yr)
	if err != nil {
		return nil, err
	}
	if b.opts.DriftDistance > 0 {
		for _, acct := range created {
			if similar := res.Catalog.SimilarNames(acct.Name, b.opts.DriftDistance); len(similar) > 0 {
				b.log.Warn("new canonical account resembles existing accounts",
					zap.Int("year", year),
					zap.String("account", acct.Name),
					zap.Strings("similar", similar),
				)
			}
		}
	}

	asm := assemble.New(res.Catalog, b.opts.Calendar)
	txns, err := asm.Assemble(year, yr.Transactions, yr.Items)
	if err != nil {
		return nil, err
	}
	if first {
		opening, err := asm.OpeningBalances(year, yr.Balances)
		if err != nil {
			return nil, err
		}
		txns = append(opening, txns...)
	} else if len(yr.Balances) > 0 {
		b.log.Warn("ignoring balances after the first fiscal year", zap.Int("year", year), zap.Int("rows", len(yr.Balances)))
	}

	fy := &model.FiscalYear{Year: year, Transactions: txns}
	res.Index.Add(fy)

	linker := reimburse.New(res.Index)
	if err := linker.AttachReceivables(year, yr.Receivables); err != nil {
		return nil, err
	}
	links, err := linker.Link(year, yr.Reimbursements)
	if err != nil {
		return nil, err
	}

	if b.shouldClose(year, final) {
		if err := b.closeYear(res, fy); err != nil {
			return nil, err
		}
	}

	res.Years = append(res.Years, fy)
	res.raw[year] = yr
	res.links[year] = links

	if len(yr.Closing) > 0 {
		if err := closing.Reconcile(year, res.Catalog, ledger.Balances(res.Years), yr.Closing); err != nil {
			return nil, err
		}
	}
	return fy, nil
}

func (b *Builder) shouldClose(year int, final bool) bool {
	if !b.opts.Close {
		return false
	}
	if len(b.opts.CloseYears) == 0 {
		return final
	}
	return slices.Contains(b.opts.CloseYears, year)
}

// closeYear appends the closing entries of fy: nominal accounts into the
// summary account, the summary into capital by ownership share, then
// distribution accounts into capital.
func (b *Builder) closeYear(res *Result, fy *model.FiscalYear) error {
	d := closing.NewDistributor(res.Catalog, b.opts.Calendar, b.opts.Closing)

	netIncome := ledger.NetIncome(fy)
	res.NetIncome[fy.Year] = netIncome

	var entries []*model.Transaction
	nominal, err := d.CloseNominal(fy)
	if err != nil {
		return err
	}
	if nominal != nil {
		entries = append(entries, nominal)
	}

	allocations, err := d.Close(fy.Year, res.Entities, netIncome)
	if err != nil {
		return err
	}
	entries = append(entries, allocations...)

	if b.opts.CloseDistributions {
		balances := ledger.Balances(append(slices.Clone(res.Years), fy))
		sweeps, err := d.CloseDistributions(fy.Year, res.Entities, balances)
		if err != nil {
			return err
		}
		entries = append(entries, sweeps...)
	}

	next := fy.MaxTransactionID() + 1
	for i, t := range entries {
		t.Renumber(next + i)
		if err := assemble.CheckBalanced(t); err != nil {
			return fmt.Errorf("closing entry: %w", err)
		}
	}
	fy.Transactions = append(fy.Transactions, entries...)

	b.log.Info("closed fiscal year",
		zap.Int("year", fy.Year),
		zap.String("net_income", netIncome.StringFixed(b.opts.Closing.Precision)),
		zap.Int("entries", len(entries)),
	)
	return nil
}

// Run builds the load and hands the result to sink.
func (b *Builder) Run(ctx context.Context, entity string, sink Sink) (*Result, error) {
	res, err := b.Build()
	if err != nil {
		return nil, err
	}
	if sink == nil {
		return res, nil
	}
	if err := sink.Save(ctx, entity, res.Years); err != nil {
		return nil, fmt.Errorf("saving %s: %w", entity, err)
	}
	b.log.Info("saved load", zap.String("entity", entity), zap.Int("years", len(res.Years)))
	return res, nil
}

// FailedYear returns the fiscal year carried by err, if any.
func FailedYear(err error) (int, bool) {
	var ye model.YearError
	if errors.As(err, &ye) {
		return ye.Year, true
	}
	return 0, false
}

// Result is the outcome of a build: the catalog and item index shared by
// every year, and the built years in ascending order.
type Result struct {
	Catalog   *catalog.Catalog
	Index     *reimburse.Index
	Years     []*model.FiscalYear
	Entities  []model.CapitalEntity
	NetIncome map[int]decimal.Decimal // closed years only

	raw   map[int]*records.YearRecords
	links map[int][]*model.Reimbursement
}

func newResult(entities []model.CapitalEntity) *Result {
	return &Result{
		Catalog:   catalog.New(),
		Index:     reimburse.NewIndex(),
		Entities:  entities,
		NetIncome: make(map[int]decimal.Decimal),
		raw:       make(map[int]*records.YearRecords),
		links:     make(map[int][]*model.Reimbursement),
	}
}

// Year returns the built year.
func (r *Result) Year(year int) (*model.FiscalYear, bool) {
	for _, fy := range r.Years {
		if fy.Year == year {
			return fy, true
		}
	}
	return nil, false
}

// Links returns the reimbursements whose reimbursing item belongs to year.
func (r *Result) Links(year int) []*model.Reimbursement {
	return r.links[year]
}
