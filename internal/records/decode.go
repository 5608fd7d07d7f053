package records

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerport/internal/model"
)

// AccountRow is one row of accounts.txt.
type AccountRow struct {
	FiscalYear   int
	Number       decimal.Decimal
	Name         string
	DefaultDebit bool
}

// TransactionRow is one row of transactions.txt.
type TransactionRow struct {
	ID          int
	Description string
	Date        time.Time
	Checked     bool
}

// ItemRow is one row of items.txt.
type ItemRow struct {
	TransactionID int
	Number        decimal.Decimal
	Amount        decimal.Decimal
	IsDebit       bool
	Checked       bool
}

// ReimbursementRow is one row of reimbursements.txt. The reimbursement year
// is the year whose directory holds the file.
type ReimbursementRow struct {
	TransactionID           int
	ReceivableYear          int
	ReceivableTransactionID int
	Number                  decimal.Decimal
	Reimbursed              decimal.Decimal
	Allocated               decimal.Decimal
}

// ClosingBalanceRow is one row of closing.txt: the expected balance of a
// canonical account after the year is closed.
type ClosingBalanceRow struct {
	Account string
	Amount  decimal.Decimal
	IsDebit bool
}

// Signed returns the expected balance as a debit-positive value.
func (r ClosingBalanceRow) Signed() decimal.Decimal {
	if r.IsDebit {
		return r.Amount
	}
	return r.Amount.Neg()
}

// fieldError is a per-field decode failure; readFile adds file and line.
type fieldError struct {
	field   string
	value   string
	missing bool
	err     error
}

func (e *fieldError) Error() string {
	if e.missing {
		return "missing required field " + e.field
	}
	return fmt.Sprintf("parsing %s %q: %v", e.field, e.value, e.err)
}

func (e *fieldError) Unwrap() error { return e.err }

// readFile decodes every row of r. Rows must have between minFields and
// maxFields fields.
func readFile[T any](r io.Reader, name string, f Format, minFields, maxFields int, decode func([]string) (T, error)) ([]T, error) {
	var out []T
	for row, err := range Rows(r, f.Comma) {
		if err != nil {
			return nil, model.MalformedRecordError{File: name, Reason: "reading rows", Err: err}
		}
		if n := len(row.Fields); n < minFields || n > maxFields {
			want := strconv.Itoa(minFields)
			if maxFields != minFields {
				want = fmt.Sprintf("%d-%d", minFields, maxFields)
			}
			return nil, model.MalformedRecordError{
				File:   name,
				Line:   row.Line,
				Reason: fmt.Sprintf("expected %s fields, got %d", want, n),
			}
		}
		v, err := decode(row.Fields)
		if err != nil {
			var fe *fieldError
			if errors.As(err, &fe) && fe.missing {
				return nil, model.ConfigurationError{Reason: fmt.Sprintf("%s:%d: %s", name, row.Line, fe.Error())}
			}
			return nil, model.MalformedRecordError{File: name, Line: row.Line, Reason: err.Error()}
		}
		out = append(out, v)
	}
	return out, nil
}

// field returns fields[i], or "" when the optional trailing field is absent.
func field(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return fields[i]
}

func requireField(name, value string) error {
	if value == "" {
		return &fieldError{field: name, missing: true}
	}
	return nil
}

func parseDecimal(name, value string) (decimal.Decimal, error) {
	if err := requireField(name, value); err != nil {
		return decimal.Decimal{}, err
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, &fieldError{field: name, value: value, err: err}
	}
	return d, nil
}

// parseOptionalDecimal returns def when value is empty.
func parseOptionalDecimal(name, value string, def decimal.Decimal) (decimal.Decimal, error) {
	if value == "" {
		return def, nil
	}
	return parseDecimal(name, value)
}

func parseAmount(name, value string) (decimal.Decimal, error) {
	d, err := parseDecimal(name, value)
	if err != nil {
		return d, err
	}
	if d.IsNegative() {
		return decimal.Decimal{}, &fieldError{field: name, value: value, err: errors.New("amount must not be negative")}
	}
	return d, nil
}

func parseInt(name, value string) (int, error) {
	if err := requireField(name, value); err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &fieldError{field: name, value: value, err: err}
	}
	return n, nil
}

func parseDate(name, value string, f Format) (time.Time, error) {
	if err := requireField(name, value); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(f.DateLayout, value)
	if err != nil {
		return time.Time{}, &fieldError{field: name, value: value, err: err}
	}
	return t, nil
}

// parseDebit maps "DR" to true and "CR" to false.
func parseDebit(name, value string) (bool, error) {
	if err := requireField(name, value); err != nil {
		return false, err
	}
	switch strings.ToUpper(value) {
	case "DR":
		return true, nil
	case "CR":
		return false, nil
	}
	return false, &fieldError{field: name, value: value, err: errors.New(`want "CR" or "DR"`)}
}

// parseChecked maps "Y" to true; "N" and empty to false.
func parseChecked(name, value string) (bool, error) {
	switch strings.ToUpper(value) {
	case "Y":
		return true, nil
	case "N", "":
		return false, nil
	}
	return false, &fieldError{field: name, value: value, err: errors.New(`want "Y" or "N"`)}
}

// DecodeGroup parses a groups.txt row: start, end, name.
func DecodeGroup(year int, fields []string) (model.AccountGroup, error) {
	start, err := parseDecimal("start", field(fields, 0))
	if err != nil {
		return model.AccountGroup{}, err
	}
	end, err := parseDecimal("end", field(fields, 1))
	if err != nil {
		return model.AccountGroup{}, err
	}
	if end.LessThan(start) {
		return model.AccountGroup{}, &fieldError{field: "end", value: fields[1], err: errors.New("band ends before it starts")}
	}
	name := field(fields, 2)
	if err := requireField("name", name); err != nil {
		return model.AccountGroup{}, err
	}
	return model.AccountGroup{FiscalYear: year, Name: name, Start: start, End: end}, nil
}

// DecodeAccount parses an accounts.txt row: number, name, CR|DR.
func DecodeAccount(year int, fields []string) (AccountRow, error) {
	number, err := parseDecimal("number", field(fields, 0))
	if err != nil {
		return AccountRow{}, err
	}
	name := field(fields, 1)
	if err := requireField("name", name); err != nil {
		return AccountRow{}, err
	}
	debit, err := parseDebit("balance side", field(fields, 2))
	if err != nil {
		return AccountRow{}, err
	}
	return AccountRow{FiscalYear: year, Number: number, Name: name, DefaultDebit: debit}, nil
}

// DecodeAccountMap parses an accountmap.txt row: number, canonical name.
func DecodeAccountMap(year int, fields []string) (model.AccountMap, error) {
	number, err := parseDecimal("number", field(fields, 0))
	if err != nil {
		return model.AccountMap{}, err
	}
	name := field(fields, 1)
	if err := requireField("canonical name", name); err != nil {
		return model.AccountMap{}, err
	}
	return model.AccountMap{FiscalYear: year, Number: number, CanonicalName: name}, nil
}

// DecodeBalance parses a balances.txt row: number, date, CR|DR, amount.
func DecodeBalance(year int, f Format, fields []string) (model.Balance, error) {
	number, err := parseDecimal("number", field(fields, 0))
	if err != nil {
		return model.Balance{}, err
	}
	date, err := parseDate("date", field(fields, 1), f)
	if err != nil {
		return model.Balance{}, err
	}
	debit, err := parseDebit("side", field(fields, 2))
	if err != nil {
		return model.Balance{}, err
	}
	amount, err := parseAmount("amount", field(fields, 3))
	if err != nil {
		return model.Balance{}, err
	}
	return model.Balance{FiscalYear: year, Number: number, Date: date, Amount: amount, IsDebit: debit}, nil
}

// DecodeTransaction parses a transactions.txt row: id, description, date, Y|N.
func DecodeTransaction(f Format, fields []string) (TransactionRow, error) {
	id, err := parseInt("id", field(fields, 0))
	if err != nil {
		return TransactionRow{}, err
	}
	date, err := parseDate("date", field(fields, 2), f)
	if err != nil {
		return TransactionRow{}, err
	}
	checked, err := parseChecked("checked", field(fields, 3))
	if err != nil {
		return TransactionRow{}, err
	}
	return TransactionRow{ID: id, Description: field(fields, 1), Date: date, Checked: checked}, nil
}

// DecodeItem parses an items.txt row: transaction id, number, amount, CR|DR, Y|N.
func DecodeItem(fields []string) (ItemRow, error) {
	txID, err := parseInt("transaction id", field(fields, 0))
	if err != nil {
		return ItemRow{}, err
	}
	number, err := parseDecimal("account number", field(fields, 1))
	if err != nil {
		return ItemRow{}, err
	}
	amount, err := parseAmount("amount", field(fields, 2))
	if err != nil {
		return ItemRow{}, err
	}
	debit, err := parseDebit("side", field(fields, 3))
	if err != nil {
		return ItemRow{}, err
	}
	checked, err := parseChecked("checked", field(fields, 4))
	if err != nil {
		return ItemRow{}, err
	}
	return ItemRow{TransactionID: txID, Number: number, Amount: amount, IsDebit: debit, Checked: checked}, nil
}

// DecodeReceivable parses a receivables.txt row: number, transaction id,
// amount. The stored amount is negated.
func DecodeReceivable(year int, fields []string) (model.Receivable, error) {
	number, err := parseDecimal("account number", field(fields, 0))
	if err != nil {
		return model.Receivable{}, err
	}
	txID, err := parseInt("transaction id", field(fields, 1))
	if err != nil {
		return model.Receivable{}, err
	}
	amount, err := parseDecimal("amount", field(fields, 2))
	if err != nil {
		return model.Receivable{}, err
	}
	return model.NewReceivable(year, number, txID, amount), nil
}

// DecodeReimbursement parses a reimbursements.txt row: reimbursement
// transaction id, receivable year, receivable transaction id, number,
// reimbursed amount, and an optional allocated amount defaulting to zero.
func DecodeReimbursement(fields []string) (ReimbursementRow, error) {
	txID, err := parseInt("reimbursement transaction id", field(fields, 0))
	if err != nil {
		return ReimbursementRow{}, err
	}
	recYear, err := parseInt("receivable year", field(fields, 1))
	if err != nil {
		return ReimbursementRow{}, err
	}
	recTxID, err := parseInt("receivable transaction id", field(fields, 2))
	if err != nil {
		return ReimbursementRow{}, err
	}
	number, err := parseDecimal("account number", field(fields, 3))
	if err != nil {
		return ReimbursementRow{}, err
	}
	reimbursed, err := parseDecimal("reimbursed amount", field(fields, 4))
	if err != nil {
		return ReimbursementRow{}, err
	}
	allocated, err := parseOptionalDecimal("allocated amount", field(fields, 5), decimal.Zero)
	if err != nil {
		return ReimbursementRow{}, err
	}
	return ReimbursementRow{
		TransactionID:           txID,
		ReceivableYear:          recYear,
		ReceivableTransactionID: recTxID,
		Number:                  number,
		Reimbursed:              reimbursed,
		Allocated:               allocated,
	}, nil
}

// DecodeCapitalEntity parses a capital.txt row: capital account, distribution
// account, and an optional ownership share defaulting to one.
func DecodeCapitalEntity(fields []string) (model.CapitalEntity, error) {
	capital := field(fields, 0)
	if err := requireField("capital account", capital); err != nil {
		return model.CapitalEntity{}, err
	}
	share, err := parseOptionalDecimal("ownership share", field(fields, 2), decimal.NewFromInt(1))
	if err != nil {
		return model.CapitalEntity{}, err
	}
	return model.CapitalEntity{CapitalAccount: capital, DistributionAccount: field(fields, 1), Share: share}, nil
}

// DecodeClosingBalance parses a closing.txt row: account name, amount, CR|DR.
func DecodeClosingBalance(fields []string) (ClosingBalanceRow, error) {
	name := field(fields, 0)
	if err := requireField("account", name); err != nil {
		return ClosingBalanceRow{}, err
	}
	amount, err := parseAmount("amount", field(fields, 1))
	if err != nil {
		return ClosingBalanceRow{}, err
	}
	debit, err := parseDebit("side", field(fields, 2))
	if err != nil {
		return ClosingBalanceRow{}, err
	}
	return ClosingBalanceRow{Account: name, Amount: amount, IsDebit: debit}, nil
}
