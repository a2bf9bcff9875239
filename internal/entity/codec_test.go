package entity

import (
	"errors"
	"testing"

	"github.com/sheetdesk/sheetdesk/internal/apperr"
	"github.com/sheetdesk/sheetdesk/internal/rowstore"
)

func TestTruthyAcceptsDocumentedTokensOnly(t *testing.T) {
	for _, cell := range []string{"true", "TRUE", " True ", "1", "yes", "active", "ENABLED", "on", "sim", "Sim"} {
		if !Truthy(cell) {
			t.Errorf("Truthy(%q) = false, want true", cell)
		}
	}
	for _, cell := range []string{"", "false", "0", "no", "off", "nao", "2", "truthy"} {
		if Truthy(cell) {
			t.Errorf("Truthy(%q) = true, want false", cell)
		}
	}
}

func TestRowReaderDefaultsOnMissingAndMalformedCells(t *testing.T) {
	r := ReadRow(rowstore.Row{Number: 2, Cells: []string{" padded ", "", "not-a-number", "3.5"}})

	if got := r.String(0); got != "padded" {
		t.Errorf("String trims: got %q", got)
	}
	if got := r.StringDefault(1, "fallback"); got != "fallback" {
		t.Errorf("StringDefault on empty: got %q", got)
	}
	if got := r.StringDefault(99, "fallback"); got != "fallback" {
		t.Errorf("StringDefault past row end: got %q", got)
	}
	if got := r.Float(2); got != 0 {
		t.Errorf("Float on garbage: got %v", got)
	}
	if got := r.Float(3); got != 3.5 {
		t.Errorf("Float: got %v", got)
	}
	if got := r.Int(2, 7); got != 7 {
		t.Errorf("Int on garbage: got %d", got)
	}
	if got := r.Int(99, 7); got != 7 {
		t.Errorf("Int past row end: got %d", got)
	}
}

func TestRowWriterKeepsFixedWidthAndEmptyZeroFloats(t *testing.T) {
	cells := WriteRow(5).
		SetString(0, "id").
		SetFloat(1, 0).
		SetFloat(2, 2.25).
		SetBool(3, false).
		SetString(99, "dropped").
		Cells()

	if len(cells) != 5 {
		t.Fatalf("width changed: %d", len(cells))
	}
	if cells[1] != "" {
		t.Errorf("zero float should serialize as empty cell, got %q", cells[1])
	}
	if cells[2] != "2.25" {
		t.Errorf("float: got %q", cells[2])
	}
	if cells[3] != "false" {
		t.Errorf("bool: got %q", cells[3])
	}
	if cells[4] != "" {
		t.Errorf("unset cell should stay empty, got %q", cells[4])
	}
}

func TestSchemaCheckRejectsShortRowsAsNotFound(t *testing.T) {
	schema := Schema{Sheet: rowstore.Sheet{Name: "Things", Columns: 6}, MinColumns: 4}

	err := schema.Check(rowstore.Row{Number: 3, Cells: []string{"a", "b", "c"}})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("short row: got %v, want not found", err)
	}
	if err := schema.Check(rowstore.Row{Number: 3, Cells: []string{"a", "b", "c", "d"}}); err != nil {
		t.Fatalf("minimum width row rejected: %v", err)
	}
}
