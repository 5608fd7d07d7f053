package records

import (
	"encoding/csv"
	"errors"
	"io"
	"iter"
	"strings"
)

// Format describes the delimited layout of the legacy files.
type Format struct {
	Comma      rune
	DateLayout string
}

// DefaultFormat is comma-separated with ISO dates.
var DefaultFormat = Format{Comma: ',', DateLayout: "2006-01-02"}

// Row is one non-blank line of a record file.
type Row struct {
	Line   int
	Fields []string
}

// Rows iterates over the rows of r. Iteration ends when the input is
// exhausted; a read error is yielded once and ends iteration.
func Rows(r io.Reader, comma rune) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		cr := csv.NewReader(r)
		cr.Comma = comma
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true
		cr.TrimLeadingSpace = true

		for {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Row{}, err)
				return
			}
			line, _ := cr.FieldPos(0)
			blank := true
			for i := range rec {
				rec[i] = strings.TrimSpace(rec[i])
				blank = blank && rec[i] == ""
			}
			if blank {
				continue
			}
			if !yield(Row{Line: line, Fields: rec}, nil) {
				return
			}
		}
	}
}
