// Package entity maps sheet rows to typed entities and back. Each entity owns
// one sheet, a fixed column layout and a minimum column count; parsing is
// tolerant by design, because any row may be short, malformed or hand-edited
// in the spreadsheet UI.
//
// All defaulting goes through the RowReader/RowWriter codec below. Entity
// files declare their layout as a column-index table and never hand-roll
// per-field fallbacks.
package entity

import (
	"strconv"
	"strings"

	"github.com/sheetdesk/sheetdesk/internal/apperr"
	"github.com/sheetdesk/sheetdesk/internal/rowstore"
)

// truthyTokens are the cell values that parse as true, case-insensitively.
// "sim" is the affirmative the original spreadsheets were hand-edited with.
var truthyTokens = map[string]bool{
	"true":    true,
	"1":       true,
	"yes":     true,
	"active":  true,
	"enabled": true,
	"on":      true,
	"sim":     true,
}

// Truthy reports whether a cell holds one of the documented truthy tokens.
// Anything else, including "", is false.
func Truthy(cell string) bool {
	return truthyTokens[normalizeToken(cell)]
}

func normalizeToken(cell string) string {
	return strings.ToLower(strings.TrimSpace(cell))
}

// Schema fixes an entity's sheet geometry and key placement.
type Schema struct {
	Sheet      rowstore.Sheet
	MinColumns int
	KeyColumn  int
}

// Check rejects rows malformed beyond the minimum column count. List
// operations skip such rows; single-entity lookups surface the error.
func (s Schema) Check(row rowstore.Row) error {
	if len(row.Cells) < s.MinColumns {
		return apperr.NotFound("row %d of %s has %d cells, need at least %d",
			row.Number, s.Sheet.Name, len(row.Cells), s.MinColumns)
	}
	return nil
}

// RowReader reads cells with defensive defaults. Missing and malformed
// non-essential cells never fail a row; they yield the documented default.
type RowReader struct {
	row rowstore.Row
}

func ReadRow(row rowstore.Row) RowReader {
	return RowReader{row: row}
}

func (r RowReader) String(index int) string {
	return strings.TrimSpace(r.row.Cell(index))
}

func (r RowReader) StringDefault(index int, fallback string) string {
	if v := r.String(index); v != "" {
		return v
	}
	return fallback
}

func (r RowReader) Bool(index int) bool {
	return Truthy(r.row.Cell(index))
}

func (r RowReader) Float(index int) float64 {
	v, err := strconv.ParseFloat(r.String(index), 64)
	if err != nil {
		return 0
	}
	return v
}

func (r RowReader) Int(index, fallback int) int {
	v, err := strconv.Atoi(r.String(index))
	if err != nil {
		return fallback
	}
	return v
}

// RowWriter builds a row of fixed width. Unset cells stay "", never null or
// omitted, so column counts remain stable across writes.
type RowWriter struct {
	cells []string
}

func WriteRow(width int) *RowWriter {
	return &RowWriter{cells: make([]string, width)}
}

func (w *RowWriter) SetString(index int, value string) *RowWriter {
	if index >= 0 && index < len(w.cells) {
		w.cells[index] = value
	}
	return w
}

func (w *RowWriter) SetBool(index int, value bool) *RowWriter {
	return w.SetString(index, strconv.FormatBool(value))
}

// SetFloat writes "" for zero so optional numeric columns round-trip as
// empty cells.
func (w *RowWriter) SetFloat(index int, value float64) *RowWriter {
	if value == 0 {
		return w.SetString(index, "")
	}
	return w.SetString(index, strconv.FormatFloat(value, 'f', -1, 64))
}

func (w *RowWriter) SetInt(index int, value int) *RowWriter {
	return w.SetString(index, strconv.Itoa(value))
}

func (w *RowWriter) Cells() []string {
	return w.cells
}
