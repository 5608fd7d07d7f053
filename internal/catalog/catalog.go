// Package catalog resolves account identity and group membership across
// fiscal years whose numbering and naming drift.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerport/internal/model"
	"github.com/cleared-dev/ledgerport/internal/records"
)

// Catalog holds the canonical accounts of a whole load and the per-year
// groups, account maps and number assignments. It only grows.
type Catalog struct {
	accounts []*model.Account
	byName   map[string]*model.Account

	groups   map[int][]model.AccountGroup
	maps     map[int][]model.AccountMap
	mapped   map[int]map[string]string // year -> number key -> canonical name
	byNumber map[int]map[string]*model.Account
	declared map[int][]records.AccountRow
}

// New creates an empty Catalog.
func New() *Catalog {
	return &Catalog{
		byName:   make(map[string]*model.Account),
		groups:   make(map[int][]model.AccountGroup),
		maps:     make(map[int][]model.AccountMap),
		mapped:   make(map[int]map[string]string),
		byNumber: make(map[int]map[string]*model.Account),
		declared: make(map[int][]records.AccountRow),
	}
}

// Classify returns the account type for number. It does not depend on the
// fiscal year.
func Classify(number decimal.Decimal) (model.AccountType, bool) {
	return model.Classify(number)
}

// Register loads the groups, account map and accounts of one fiscal year and
// returns the canonical accounts created for the first time by this year.
func (c *Catalog) Register(yr *records.YearRecords) ([]*model.Account, error) {
	if err := c.AddGroups(yr.Year, yr.Groups); err != nil {
		return nil, err
	}
	if err := c.AddAccountMap(yr.Year, yr.Map); err != nil {
		return nil, err
	}

	var created []*model.Account
	for _, row := range yr.Accounts {
		_, known := c.byName[c.canonicalName(yr.Year, row.Number, row.Name)]
		acct, err := c.ResolveAccount(yr.Year, row.Number, row.Name, row.DefaultDebit)
		if err != nil {
			return nil, err
		}
		if !known {
			created = append(created, acct)
		}
	}
	return created, nil
}

// AddGroups sets the group bands of a fiscal year. Bands must not overlap.
func (c *Catalog) AddGroups(year int, groups []model.AccountGroup) error {
	if _, ok := c.groups[year]; ok {
		return model.ConfigurationError{Reason: fmt.Sprintf("year %d: account groups already registered", year)}
	}

	sorted := make([]model.AccountGroup, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.LessThan(sorted[j].Start) })
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if !cur.Start.GreaterThan(prev.End) {
			return model.ConfigurationError{Reason: fmt.Sprintf("year %d: group %q [%s-%s] overlaps %q [%s-%s]",
				year, cur.Name, cur.Start, cur.End, prev.Name, prev.Start, prev.End)}
		}
	}

	for i := range sorted {
		sorted[i].FiscalYear = year
	}
	c.groups[year] = sorted
	return nil
}

// AddAccountMap sets the number-to-canonical-name overrides of a fiscal year.
func (c *Catalog) AddAccountMap(year int, rows []model.AccountMap) error {
	m := make(map[string]string, len(rows))
	for _, r := range rows {
		key := model.NumberKey(r.Number)
		if prev, dup := m[key]; dup && prev != r.CanonicalName {
			return model.ConfigurationError{Reason: fmt.Sprintf("year %d: account %s mapped to both %q and %q", year, key, prev, r.CanonicalName)}
		}
		m[key] = r.CanonicalName
	}
	c.mapped[year] = m
	c.maps[year] = append(c.maps[year], rows...)
	return nil
}

// ResolveGroup returns the group of year whose band contains number.
func (c *Catalog) ResolveGroup(year int, number decimal.Decimal) (model.AccountGroup, error) {
	for _, g := range c.groups[year] {
		if g.Contains(number) {
			return g, nil
		}
	}
	return model.AccountGroup{}, model.GroupLookupError{Year: year, Number: number}
}

func (c *Catalog) canonicalName(year int, number decimal.Decimal, rawName string) string {
	if name, ok := c.mapped[year][model.NumberKey(number)]; ok {
		return name
	}
	return rawName
}

// ResolveAccount returns the canonical account for a raw account row of
// year, creating it on first use. The year's account map takes precedence
// over rawName. Later years naming the same canonical account receive the
// same *model.Account.
func (c *Catalog) ResolveAccount(year int, number decimal.Decimal, rawName string, defaultDebit bool) (*model.Account, error) {
	if _, err := c.ResolveGroup(year, number); err != nil {
		return nil, err
	}

	name := c.canonicalName(year, number, rawName)
	acct, ok := c.byName[name]
	if !ok {
		acct = &model.Account{Name: name}
		c.byName[name] = acct
		c.accounts = append(c.accounts, acct)
	}
	acct.Number = number
	acct.DefaultDebit = defaultDebit
	acct.Type, _ = model.Classify(number)

	key := model.NumberKey(number)
	if c.byNumber[year] == nil {
		c.byNumber[year] = make(map[string]*model.Account)
	}
	if prev, dup := c.byNumber[year][key]; dup && prev != acct {
		return nil, model.ConfigurationError{Reason: fmt.Sprintf("year %d: account %s declared as both %q and %q", year, key, prev.Name, acct.Name)}
	}
	if _, dup := c.byNumber[year][key]; !dup {
		c.declared[year] = append(c.declared[year], records.AccountRow{
			FiscalYear:   year,
			Number:       number,
			Name:         rawName,
			DefaultDebit: defaultDebit,
		})
	}
	c.byNumber[year][key] = acct
	return acct, nil
}

// Lookup returns the account declared under number in year.
func (c *Catalog) Lookup(year int, number decimal.Decimal) (*model.Account, error) {
	if acct, ok := c.byNumber[year][model.NumberKey(number)]; ok {
		return acct, nil
	}
	if _, err := c.ResolveGroup(year, number); err != nil {
		return nil, err
	}
	return nil, model.ConfigurationError{Reason: fmt.Sprintf("year %d: account %s is not declared in %s", year, number, records.AccountsFile)}
}

// Account returns the canonical account with the given name.
func (c *Catalog) Account(name string) (*model.Account, bool) {
	a, ok := c.byName[name]
	return a, ok
}

// Accounts returns every canonical account in creation order.
func (c *Catalog) Accounts() []*model.Account {
	return c.accounts
}

// YearAccounts returns the distinct accounts declared in year, in
// declaration order.
func (c *Catalog) YearAccounts(year int) []*model.Account {
	var out []*model.Account
	seen := make(map[*model.Account]bool)
	for _, row := range c.declared[year] {
		acct := c.byNumber[year][model.NumberKey(row.Number)]
		if !seen[acct] {
			seen[acct] = true
			out = append(out, acct)
		}
	}
	return out
}

// Groups returns the group bands of year ordered by start.
func (c *Catalog) Groups(year int) []model.AccountGroup {
	return c.groups[year]
}

// Declared returns the raw account rows of year as they were registered.
func (c *Catalog) Declared(year int) []records.AccountRow {
	return c.declared[year]
}

// AccountMap returns the account map rows of year.
func (c *Catalog) AccountMap(year int) []model.AccountMap {
	return c.maps[year]
}

// SimilarNames returns existing canonical names, other than name itself,
// within maxDistance edits of name. Comparison ignores case.
func (c *Catalog) SimilarNames(name string, maxDistance int) []string {
	upper := strings.ToUpper(name)
	var out []string
	for _, a := range c.accounts {
		if a.Name == name {
			continue
		}
		if levenshtein.ComputeDistance(upper, strings.ToUpper(a.Name)) <= maxDistance {
			out = append(out, a.Name)
		}
	}
	return out
}
