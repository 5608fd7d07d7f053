package commands_test

import (
	"database/sql"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerport/internal/config"
	"github.com/cleared-dev/ledgerport/internal/model"
	"github.com/cleared-dev/ledgerport/internal/records"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func pair(id int, debitNumber, creditNumber, amount string) []records.ItemRow {
	return []records.ItemRow{
		{TransactionID: id, Number: dec(debitNumber), Amount: dec(amount), IsDebit: true},
		{TransactionID: id, Number: dec(creditNumber), Amount: dec(amount)},
	}
}

func fixtureYear(year int) *records.YearRecords {
	yr := &records.YearRecords{
		Year: year,
		Groups: []model.AccountGroup{
			{Name: "Assets", Start: dec("100"), End: dec("199.99")},
			{Name: "Equity", Start: dec("300"), End: dec("399.99")},
			{Name: "Income", Start: dec("400"), End: dec("499.99")},
			{Name: "Expenses", Start: dec("600"), End: dec("699.99")},
		},
		Accounts: []records.AccountRow{
			{Number: dec("100"), Name: "Cash", DefaultDebit: true},
			{Number: dec("110"), Name: "Receivable Smith", DefaultDebit: true},
			{Number: dec("300"), Name: "Capital Smith"},
			{Number: dec("301"), Name: "Capital Jones"},
			{Number: dec("310"), Name: "Drawing Smith", DefaultDebit: true},
			{Number: dec("399"), Name: "Income Summary"},
			{Number: dec("400"), Name: "Fees"},
			{Number: dec("600"), Name: "Rent", DefaultDebit: true},
		},
		Transactions: []records.TransactionRow{
			{ID: 1, Description: "Fees", Date: date(year, 2, 1)},
			{ID: 2, Description: "Rent", Date: date(year, 2, 2)},
		},
	}
	yr.Items = append(pair(1, "100", "400", "2000.00"), pair(2, "600", "100", "477.03")...)
	return yr
}

// newProject initializes a two-partner project whose 2016 advance to Smith
// is repaid in 2017. Only 2017 is closed.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := run(t, "init", dir, "--entity", "Smith & Jones")
	require.NoError(t, err)

	legacy := filepath.Join(dir, "legacy")
	f := records.DefaultFormat

	y2016 := fixtureYear(2016)
	y2016.Balances = []model.Balance{{FiscalYear: 2016, Number: dec("100"), Date: date(2016, 1, 1), Amount: dec("1000.00"), IsDebit: true}}
	y2016.Transactions = append(y2016.Transactions,
		records.TransactionRow{ID: 3, Description: "Draw", Date: date(2016, 6, 30)},
		records.TransactionRow{ID: 100, Description: "Advance to Smith", Date: date(2016, 7, 1)})
	y2016.Items = append(y2016.Items, pair(3, "310", "100", "300.00")...)
	y2016.Items = append(y2016.Items, pair(100, "110", "100", "100.00")...)
	y2016.Receivables = []model.Receivable{model.NewReceivable(2016, dec("110"), 100, dec("100.00"))}
	require.NoError(t, records.WriteYear(legacy, f, y2016))

	y2017 := fixtureYear(2017)
	y2017.Transactions = append(y2017.Transactions,
		records.TransactionRow{ID: 400, Description: "Smith repays", Date: date(2017, 4, 1)})
	y2017.Items = append(y2017.Items, pair(400, "100", "110", "100.00")...)
	y2017.Reimbursements = []records.ReimbursementRow{{
		TransactionID: 400, ReceivableYear: 2016, ReceivableTransactionID: 100,
		Number: dec("110"), Reimbursed: dec("100.00"), Allocated: decimal.Zero,
	}}
	y2017.Closing = []records.ClosingBalanceRow{
		{Account: "Capital Smith", Amount: dec("461.49")},
		{Account: "Capital Jones", Amount: dec("761.48")},
		{Account: "Cash", Amount: dec("3745.94"), IsDebit: true},
	}
	require.NoError(t, records.WriteYear(legacy, f, y2017))

	require.NoError(t, records.WriteCapitalEntities(legacy, f, []model.CapitalEntity{
		{CapitalAccount: "Capital Smith", DistributionAccount: "Drawing Smith", Share: dec("0.5")},
		{CapitalAccount: "Capital Jones", Share: dec("0.5")},
	}))
	return dir
}

func TestCheck(t *testing.T) {
	dir := newProject(t)
	out, err := run(t, "check", "--config", filepath.Join(dir, config.FileName))
	require.NoError(t, err)

	assert.Contains(t, out, "2016: 4 transactions, 9 items, 1 opening balances, 0 reimbursements, 0 closing entries")
	assert.Contains(t, out, "2017: 3 transactions, 15 items, 0 opening balances, 1 reimbursements, 4 closing entries")
	assert.Contains(t, out, "net income $1,522.97")
	assert.Contains(t, out, "8 accounts, 0 open receivables outstanding $0.00")
	assert.NoFileExists(t, filepath.Join(dir, "ledger.db"))
}

func TestCheck_ReconciliationFailure(t *testing.T) {
	dir := newProject(t)
	legacy := filepath.Join(dir, "legacy")
	yr, err := records.NewDir(legacy, records.DefaultFormat).Year(2017)
	require.NoError(t, err)
	yr.Closing[1].Amount = dec("761.49")
	require.NoError(t, records.WriteYear(legacy, records.DefaultFormat, yr))

	_, err = run(t, "check", "--config", filepath.Join(dir, config.FileName))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2017")
	assert.Contains(t, err.Error(), "Capital Jones")
}

func TestCheck_MissingConfig(t *testing.T) {
	_, err := run(t, "check", "--config", filepath.Join(t.TempDir(), config.FileName))
	assert.ErrorContains(t, err, "reading config")
}

func TestConvert(t *testing.T) {
	dir := newProject(t)
	out, err := run(t, "convert", "--config", filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Contains(t, out, "Stored 2 fiscal years in sqlite")

	db, err := sql.Open("sqlite3", filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	defer db.Close()

	var loads, txns, links int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM loads").Scan(&loads))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&txns))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM reimbursements").Scan(&links))
	assert.Equal(t, 1, loads)
	assert.Equal(t, 12, txns, "entries, the opening balance and closing entries")
	assert.Equal(t, 1, links)
}

func TestConvert_DSNOverride(t *testing.T) {
	dir := newProject(t)
	dbPath := filepath.Join(t.TempDir(), "other.db")
	_, err := run(t, "convert", "--config", filepath.Join(dir, config.FileName), "--dsn", dbPath)
	require.NoError(t, err)
	assert.FileExists(t, dbPath)
	assert.NoFileExists(t, filepath.Join(dir, "ledger.db"))
}

func TestConvert_NoStore(t *testing.T) {
	dir := newProject(t)
	_, err := run(t, "convert", "--config", filepath.Join(dir, config.FileName), "--driver", "none")
	assert.ErrorContains(t, err, "no store configured")
}

func TestExport_RoundTrip(t *testing.T) {
	dir := newProject(t)
	cfgPath := filepath.Join(dir, config.FileName)
	exported := filepath.Join(dir, "exported")

	out, err := run(t, "export", exported, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 fiscal years")

	before, err := run(t, "check", "--config", cfgPath)
	require.NoError(t, err)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	cfg.Source.Dir = "exported"
	require.NoError(t, config.Save(cfgPath, cfg))

	after, err := run(t, "check", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, before, after, "exported records rebuild the same ledger")

	_, err = os.Stat(filepath.Join(exported, "2017", records.ClosingFile))
	assert.NoError(t, err)
}

func TestExport_Commit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := newProject(t)
	cfgPath := filepath.Join(dir, config.FileName)
	exported := filepath.Join(t.TempDir(), "exported")

	out, err := run(t, "export", exported, "--config", cfgPath, "--commit")
	require.NoError(t, err)
	assert.Contains(t, out, "Committed ")

	log := exec.Command("git", "log", "--format=%s", "-1")
	log.Dir = exported
	msg, err := log.Output()
	require.NoError(t, err)
	assert.Equal(t, "export: Smith & Jones 2016-2017\n", string(msg))

	out, err = run(t, "export", exported, "--config", cfgPath, "--commit")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported records unchanged")
}

func TestExport_CommitInsideProjectRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := newProject(t)
	gitInit := exec.Command("git", "init", "--quiet")
	gitInit.Dir = dir
	require.NoError(t, gitInit.Run())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes-unrelated.txt"), []byte("draft"), 0o644))

	_, err := run(t, "export", filepath.Join(dir, "export"), "--config", filepath.Join(dir, config.FileName), "--commit")
	require.NoError(t, err)

	show := exec.Command("git", "show", "--name-only", "--format=", "HEAD")
	show.Dir = dir
	out, err := show.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "export/capital.txt")
	assert.Contains(t, string(out), "export/2017/items.txt")
	assert.NotContains(t, string(out), "notes-unrelated.txt")
	assert.NotContains(t, string(out), "legacy/")
}
