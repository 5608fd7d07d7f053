package records

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/cleared-dev/ledgerport/internal/model"
)

// Record file names within a fiscal year directory.
const (
	GroupsFile         = "groups.txt"
	AccountsFile       = "accounts.txt"
	AccountMapFile     = "accountmap.txt"
	BalancesFile       = "balances.txt"
	TransactionsFile   = "transactions.txt"
	ItemsFile          = "items.txt"
	ReceivablesFile    = "receivables.txt"
	ReimbursementsFile = "reimbursements.txt"
	ClosingFile        = "closing.txt"

	// CapitalFile lives at the source root, not in a year directory.
	CapitalFile = "capital.txt"
)

// YearRecords holds every raw row of one fiscal year.
type YearRecords struct {
	Year           int
	Groups         []model.AccountGroup
	Accounts       []AccountRow
	Map            []model.AccountMap
	Balances       []model.Balance
	Transactions   []TransactionRow
	Items          []ItemRow
	Receivables    []model.Receivable
	Reimbursements []ReimbursementRow
	Closing        []ClosingBalanceRow
}

// ReadGroups reads groups.txt.
func ReadGroups(r io.Reader, year int, f Format) ([]model.AccountGroup, error) {
	return readFile(r, GroupsFile, f, 3, 3, func(fields []string) (model.AccountGroup, error) {
		return DecodeGroup(year, fields)
	})
}

// ReadAccounts reads accounts.txt.
func ReadAccounts(r io.Reader, year int, f Format) ([]AccountRow, error) {
	return readFile(r, AccountsFile, f, 3, 3, func(fields []string) (AccountRow, error) {
		return DecodeAccount(year, fields)
	})
}

// ReadAccountMap reads accountmap.txt.
func ReadAccountMap(r io.Reader, year int, f Format) ([]model.AccountMap, error) {
	return readFile(r, AccountMapFile, f, 2, 2, func(fields []string) (model.AccountMap, error) {
		return DecodeAccountMap(year, fields)
	})
}

// ReadBalances reads balances.txt.
func ReadBalances(r io.Reader, year int, f Format) ([]model.Balance, error) {
	return readFile(r, BalancesFile, f, 4, 4, func(fields []string) (model.Balance, error) {
		return DecodeBalance(year, f, fields)
	})
}

// ReadTransactions reads transactions.txt.
func ReadTransactions(r io.Reader, f Format) ([]TransactionRow, error) {
	return readFile(r, TransactionsFile, f, 4, 4, func(fields []string) (TransactionRow, error) {
		return DecodeTransaction(f, fields)
	})
}

// ReadItems reads items.txt.
func ReadItems(r io.Reader, f Format) ([]ItemRow, error) {
	return readFile(r, ItemsFile, f, 5, 5, DecodeItem)
}

// ReadReceivables reads receivables.txt.
func ReadReceivables(r io.Reader, year int, f Format) ([]model.Receivable, error) {
	return readFile(r, ReceivablesFile, f, 3, 3, func(fields []string) (model.Receivable, error) {
		return DecodeReceivable(year, fields)
	})
}

// ReadReimbursements reads reimbursements.txt.
func ReadReimbursements(r io.Reader, f Format) ([]ReimbursementRow, error) {
	return readFile(r, ReimbursementsFile, f, 5, 6, DecodeReimbursement)
}

// ReadClosing reads closing.txt.
func ReadClosing(r io.Reader, f Format) ([]ClosingBalanceRow, error) {
	return readFile(r, ClosingFile, f, 3, 3, DecodeClosingBalance)
}

// ReadCapitalEntities reads capital.txt.
func ReadCapitalEntities(r io.Reader, f Format) ([]model.CapitalEntity, error) {
	return readFile(r, CapitalFile, f, 2, 3, DecodeCapitalEntity)
}

// Dir reads record files laid out as <root>/<year>/<file>.
type Dir struct {
	root   string
	format Format
}

// NewDir creates a Dir over root.
func NewDir(root string, f Format) *Dir {
	return &Dir{root: root, format: f}
}

// Years returns the numeric subdirectories of the root in ascending order.
func (d *Dir) Years() ([]int, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("reading source dir: %w", err)
	}
	var years []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		y, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		years = append(years, y)
	}
	sort.Ints(years)
	return years, nil
}

// Year reads every record file of a fiscal year. Optional files that do
// not exist produce no rows.
func (d *Dir) Year(year int) (*YearRecords, error) {
	dir := filepath.Join(d.root, strconv.Itoa(year))
	yr := &YearRecords{Year: year}
	f := d.format

	steps := []struct {
		name     string
		required bool
		read     func(io.Reader) error
	}{
		{GroupsFile, true, func(r io.Reader) (err error) { yr.Groups, err = ReadGroups(r, year, f); return }},
		{AccountsFile, true, func(r io.Reader) (err error) { yr.Accounts, err = ReadAccounts(r, year, f); return }},
		{AccountMapFile, false, func(r io.Reader) (err error) { yr.Map, err = ReadAccountMap(r, year, f); return }},
		{BalancesFile, false, func(r io.Reader) (err error) { yr.Balances, err = ReadBalances(r, year, f); return }},
		{TransactionsFile, true, func(r io.Reader) (err error) { yr.Transactions, err = ReadTransactions(r, f); return }},
		{ItemsFile, true, func(r io.Reader) (err error) { yr.Items, err = ReadItems(r, f); return }},
		{ReceivablesFile, false, func(r io.Reader) (err error) { yr.Receivables, err = ReadReceivables(r, year, f); return }},
		{ReimbursementsFile, false, func(r io.Reader) (err error) { yr.Reimbursements, err = ReadReimbursements(r, f); return }},
		{ClosingFile, false, func(r io.Reader) (err error) { yr.Closing, err = ReadClosing(r, f); return }},
	}
	for _, s := range steps {
		if err := readPath(filepath.Join(dir, s.name), s.required, s.read); err != nil {
			return nil, err
		}
	}
	return yr, nil
}

// CapitalEntities reads capital.txt from the root. A missing file yields no
// entities.
func (d *Dir) CapitalEntities() ([]model.CapitalEntity, error) {
	var out []model.CapitalEntity
	err := readPath(filepath.Join(d.root, CapitalFile), false, func(r io.Reader) (err error) {
		out, err = ReadCapitalEntities(r, d.format)
		return err
	})
	return out, err
}

func readPath(path string, required bool, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if err := read(f); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}
