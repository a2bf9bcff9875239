// Package rowstore presents a remote sheet as numbered rows and provides the
// primitive operations every domain service composes: scan, key lookup,
// append, update-in-place and soft delete.
//
// Row numbers are positional addresses, not identities. They are trustworthy
// only for the lifetime of a single read-then-write sequence performed by
// this process; any operation that writes re-resolves the row number first.
// Nothing here is cached: every call re-reads the remote grid.
package rowstore

import (
	"context"

	"github.com/sheetdesk/sheetdesk/internal/apperr"
	"github.com/sheetdesk/sheetdesk/internal/sheets"
)

// Transport is the slice of the tabular transport the store needs.
// *sheets.Client satisfies it; tests use an in-memory fake.
type Transport interface {
	ReadRange(ctx context.Context, a1Range string) ([][]string, error)
	WriteRange(ctx context.Context, a1Range string, rows [][]string) error
	AppendRange(ctx context.Context, a1Range string, rows [][]string) error
	WriteCell(ctx context.Context, a1Range, value string) error
}

// Sheet names a tabular resource and fixes its column width, so that ranges,
// padding and blanking all agree on geometry.
type Sheet struct {
	Name    string
	Columns int
}

func (s Sheet) lastCol() int {
	if s.Columns <= 0 {
		return 0
	}
	return s.Columns - 1
}

// Row is one data row. Number is 2-based: the header row is never loaded, so
// the first data row is row 2.
type Row struct {
	Number int      `json:"rowNumber"`
	Cells  []string `json:"cells"`
}

// Cell returns the cell at index, or "" when the row is short.
func (r Row) Cell(index int) string {
	if index < 0 || index >= len(r.Cells) {
		return ""
	}
	return r.Cells[index]
}

type Store struct {
	transport Transport
}

func New(transport Transport) *Store {
	return &Store{transport: transport}
}

// Scan reads the full data range and numbers the rows in original order.
func (s *Store) Scan(ctx context.Context, sheet Sheet) ([]Row, error) {
	grid, err := s.transport.ReadRange(ctx, sheets.DataRange(sheet.Name, sheet.lastCol()))
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(grid))
	for i, cells := range grid {
		rows = append(rows, Row{Number: i + 2, Cells: cells})
	}
	return rows, nil
}

// FindByKey scans and returns the first row whose key cell equals key.
// Duplicate keys are not detected; the first match in scan order wins.
func (s *Store) FindByKey(ctx context.Context, sheet Sheet, keyCol int, key string) (Row, bool, error) {
	rows, err := s.Scan(ctx, sheet)
	if err != nil {
		return Row{}, false, err
	}
	for _, row := range rows {
		if row.Cell(keyCol) == key {
			return row, true, nil
		}
	}
	return Row{}, false, nil
}

// Append computes the next row number as scan count + 2 and overwrites that
// row range. Not atomic: two concurrent appenders may compute the same target
// and the second write clobbers the first. The backing API offers no
// compare-and-set, so this race is documented rather than resolved; callers
// that can tolerate an unknown landing row should use AppendTail instead.
func (s *Store) Append(ctx context.Context, sheet Sheet, cells []string) (int, error) {
	rows, err := s.Scan(ctx, sheet)
	if err != nil {
		return 0, err
	}
	next := len(rows) + 2
	if err := s.Update(ctx, sheet, next, cells); err != nil {
		return 0, err
	}
	return next, nil
}

// AppendTail hands the row to the backing store's own append primitive, which
// inserts after the last populated row atomically on the remote side. The
// landing row number is not reported; use it for log-style sheets where rows
// are never addressed individually (e.g. time tracking).
func (s *Store) AppendTail(ctx context.Context, sheet Sheet, cells []string) error {
	return s.transport.AppendRange(ctx, sheets.DataRange(sheet.Name, sheet.lastCol()), [][]string{s.pad(sheet, cells)})
}

// Update overwrites exactly one row's cell range. Cells are padded to the
// sheet width so stale trailing cells are cleared.
func (s *Store) Update(ctx context.Context, sheet Sheet, rowNumber int, cells []string) error {
	if rowNumber < 2 {
		return apperr.Validation("row number %d addresses the header or is out of range", rowNumber)
	}
	if len(cells) > sheet.Columns {
		return apperr.Validation("%d cells exceed sheet %s width %d", len(cells), sheet.Name, sheet.Columns)
	}
	return s.transport.WriteRange(ctx, sheets.RowRange(sheet.Name, rowNumber, sheet.lastCol()), [][]string{s.pad(sheet, cells)})
}

// SoftDelete blanks a row in place. The row is never physically removed, so
// the row numbers of everything below it stay aligned.
func (s *Store) SoftDelete(ctx context.Context, sheet Sheet, rowNumber int) error {
	return s.Update(ctx, sheet, rowNumber, make([]string, sheet.Columns))
}

// Upsert finds the row holding key and overwrites it, or appends when absent.
// The lookup happens inside this call, immediately before the write; a row
// number obtained earlier must never be passed in from outside.
func (s *Store) Upsert(ctx context.Context, sheet Sheet, keyCol int, key string, cells []string) (int, error) {
	existing, found, err := s.FindByKey(ctx, sheet, keyCol, key)
	if err != nil {
		return 0, err
	}
	if found {
		if err := s.Update(ctx, sheet, existing.Number, cells); err != nil {
			return 0, err
		}
		return existing.Number, nil
	}
	return s.Append(ctx, sheet, cells)
}

// WriteCell overwrites one cell of one row.
func (s *Store) WriteCell(ctx context.Context, sheet Sheet, col, rowNumber int, value string) error {
	if rowNumber < 2 {
		return apperr.Validation("row number %d addresses the header or is out of range", rowNumber)
	}
	if col < 0 || col >= sheet.Columns {
		return apperr.Validation("column %d out of range for sheet %s", col, sheet.Name)
	}
	return s.transport.WriteCell(ctx, sheets.CellRange(sheet.Name, col, rowNumber), value)
}

func (s *Store) pad(sheet Sheet, cells []string) []string {
	if len(cells) >= sheet.Columns {
		return cells
	}
	padded := make([]string, sheet.Columns)
	copy(padded, cells)
	return padded
}
