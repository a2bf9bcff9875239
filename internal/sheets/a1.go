package sheets

import "fmt"

// Row 1 of every sheet is a header and is never part of a data range.
const firstDataRow = 2

// ColumnName converts a 0-indexed column into its A1 letter ("A", "B", ...,
// "AA"). Sheet widths here stay well under two letters, but the carry is
// handled anyway.
func ColumnName(index int) string {
	if index < 0 {
		return "A"
	}
	name := ""
	n := index
	for {
		name = string(rune('A'+n%26)) + name
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return name
}

// DataRange addresses all data rows of a sheet: "Tasks!A2:N".
// lastCol is the 0-indexed final column of the sheet's layout.
func DataRange(sheet string, lastCol int) string {
	return fmt.Sprintf("%s!A%d:%s", sheet, firstDataRow, ColumnName(lastCol))
}

// RowRange addresses one full row: "Tasks!A5:N5".
func RowRange(sheet string, rowNumber, lastCol int) string {
	return fmt.Sprintf("%s!A%d:%s%d", sheet, rowNumber, ColumnName(lastCol), rowNumber)
}

// CellRange addresses a single cell: "Notifications!G5".
func CellRange(sheet string, col, rowNumber int) string {
	return fmt.Sprintf("%s!%s%d", sheet, ColumnName(col), rowNumber)
}
