package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerport/internal/model"
)

// formatAmount writes d at its own precision, padded to at least cents.
func formatAmount(d decimal.Decimal) string {
	places := int32(2)
	if e := -d.Exponent(); e > places {
		places = e
	}
	return d.StringFixed(places)
}

func formatDebit(debit bool) string {
	if debit {
		return "DR"
	}
	return "CR"
}

func formatChecked(checked bool) string {
	if checked {
		return "Y"
	}
	return "N"
}

// EncodeGroup converts an AccountGroup to a groups.txt row.
func EncodeGroup(g model.AccountGroup) []string {
	return []string{g.Start.String(), g.End.String(), g.Name}
}

// EncodeAccount converts an AccountRow to an accounts.txt row.
func EncodeAccount(a AccountRow) []string {
	return []string{a.Number.String(), a.Name, formatDebit(a.DefaultDebit)}
}

// EncodeAccountMap converts an AccountMap to an accountmap.txt row.
func EncodeAccountMap(m model.AccountMap) []string {
	return []string{m.Number.String(), m.CanonicalName}
}

// EncodeBalance converts a Balance to a balances.txt row.
func EncodeBalance(f Format, b model.Balance) []string {
	return []string{b.Number.String(), b.Date.Format(f.DateLayout), formatDebit(b.IsDebit), formatAmount(b.Amount)}
}

// EncodeTransaction converts a TransactionRow to a transactions.txt row.
func EncodeTransaction(f Format, t TransactionRow) []string {
	return []string{strconv.Itoa(t.ID), t.Description, t.Date.Format(f.DateLayout), formatChecked(t.Checked)}
}

// EncodeItem converts an ItemRow to an items.txt row.
func EncodeItem(it ItemRow) []string {
	return []string{
		strconv.Itoa(it.TransactionID),
		it.Number.String(),
		formatAmount(it.Amount),
		formatDebit(it.IsDebit),
		formatChecked(it.Checked),
	}
}

// EncodeReceivable converts a Receivable to a receivables.txt row, undoing
// the sign flip applied on decode.
func EncodeReceivable(r model.Receivable) []string {
	return []string{r.Number.String(), strconv.Itoa(r.TransactionID), formatAmount(r.SourceAmount())}
}

// EncodeReimbursement converts a ReimbursementRow to a reimbursements.txt row.
func EncodeReimbursement(r ReimbursementRow) []string {
	return []string{
		strconv.Itoa(r.TransactionID),
		strconv.Itoa(r.ReceivableYear),
		strconv.Itoa(r.ReceivableTransactionID),
		r.Number.String(),
		formatAmount(r.Reimbursed),
		formatAmount(r.Allocated),
	}
}

// EncodeClosingBalance converts a ClosingBalanceRow to a closing.txt row.
func EncodeClosingBalance(c ClosingBalanceRow) []string {
	return []string{c.Account, formatAmount(c.Amount), formatDebit(c.IsDebit)}
}

// EncodeCapitalEntity converts a CapitalEntity to a capital.txt row.
func EncodeCapitalEntity(c model.CapitalEntity) []string {
	return []string{c.CapitalAccount, c.DistributionAccount, c.Share.String()}
}

func writeRows(w io.Writer, comma rune, rows [][]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma

	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func encodeAll[T any](values []T, enc func(T) []string) [][]string {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = enc(v)
	}
	return rows
}

// WriteYear writes every record file of yr into <root>/<year>/. Optional
// files with no rows are not created.
func WriteYear(root string, f Format, yr *YearRecords) error {
	dir := filepath.Join(root, strconv.Itoa(yr.Year))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating year dir: %w", err)
	}

	files := []struct {
		name     string
		required bool
		rows     [][]string
	}{
		{GroupsFile, true, encodeAll(yr.Groups, EncodeGroup)},
		{AccountsFile, true, encodeAll(yr.Accounts, EncodeAccount)},
		{AccountMapFile, false, encodeAll(yr.Map, EncodeAccountMap)},
		{BalancesFile, false, encodeAll(yr.Balances, func(b model.Balance) []string { return EncodeBalance(f, b) })},
		{TransactionsFile, true, encodeAll(yr.Transactions, func(t TransactionRow) []string { return EncodeTransaction(f, t) })},
		{ItemsFile, true, encodeAll(yr.Items, EncodeItem)},
		{ReceivablesFile, false, encodeAll(yr.Receivables, EncodeReceivable)},
		{ReimbursementsFile, false, encodeAll(yr.Reimbursements, EncodeReimbursement)},
		{ClosingFile, false, encodeAll(yr.Closing, EncodeClosingBalance)},
	}
	for _, file := range files {
		if !file.required && len(file.rows) == 0 {
			continue
		}
		if err := writeFile(filepath.Join(dir, file.name), f.Comma, file.rows); err != nil {
			return err
		}
	}
	return nil
}

// WriteCapitalEntities writes capital.txt into root.
func WriteCapitalEntities(root string, f Format, entities []model.CapitalEntity) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	return writeFile(filepath.Join(root, CapitalFile), f.Comma, encodeAll(entities, EncodeCapitalEntity))
}

func writeFile(path string, comma rune, rows [][]string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := writeRows(out, comma, rows); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
