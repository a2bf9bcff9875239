package entity

import "github.com/sheetdesk/sheetdesk/internal/rowstore"

// Selection records which branch a user currently works against. One row per
// user; writes go through the row store's upsert.
type Selection struct {
	UserID     string `json:"userId"`
	BranchID   string `json:"branchId"`
	SelectedAt string `json:"selectedAt"`
}

// UserSelections column layout, 0-indexed.
const (
	selColUserID = iota
	selColBranchID
	selColSelectedAt
	selColumns
)

var SelectionSchema = Schema{
	Sheet:      rowstore.Sheet{Name: "UserSelections", Columns: selColumns},
	MinColumns: 3,
	KeyColumn:  selColUserID,
}

func SelectionFromRow(row rowstore.Row) (Selection, error) {
	if err := SelectionSchema.Check(row); err != nil {
		return Selection{}, err
	}
	r := ReadRow(row)
	return Selection{
		UserID:     r.String(selColUserID),
		BranchID:   r.String(selColBranchID),
		SelectedAt: r.String(selColSelectedAt),
	}, nil
}

func (s Selection) Cells() []string {
	return WriteRow(selColumns).
		SetString(selColUserID, s.UserID).
		SetString(selColBranchID, s.BranchID).
		SetString(selColSelectedAt, s.SelectedAt).
		Cells()
}
