package entity

import "github.com/sheetdesk/sheetdesk/internal/rowstore"

// TimeEntry is one logged block of work. The TimeTracking sheet is
// append-only: rows are never updated or addressed individually, so entries
// carry no entity key.
type TimeEntry struct {
	UserID   string  `json:"userId"`
	BranchID string  `json:"branchId"`
	Date     string  `json:"date"` // YYYY-MM-DD
	Hours    float64 `json:"hours"`
	TaskID   string  `json:"taskId,omitempty"`
	Note     string  `json:"note,omitempty"`
}

// TimeTracking column layout, 0-indexed.
const (
	ttColUserID = iota
	ttColBranchID
	ttColDate
	ttColHours
	ttColTaskID
	ttColNote
	ttColumns
)

var TimeTrackingSchema = Schema{
	Sheet:      rowstore.Sheet{Name: "TimeTracking", Columns: ttColumns},
	MinColumns: 4,
	KeyColumn:  ttColUserID,
}

func TimeEntryFromRow(row rowstore.Row) (TimeEntry, error) {
	if err := TimeTrackingSchema.Check(row); err != nil {
		return TimeEntry{}, err
	}
	r := ReadRow(row)
	return TimeEntry{
		UserID:   r.String(ttColUserID),
		BranchID: r.String(ttColBranchID),
		Date:     r.String(ttColDate),
		Hours:    r.Float(ttColHours),
		TaskID:   r.String(ttColTaskID),
		Note:     r.String(ttColNote),
	}, nil
}

func (e TimeEntry) Cells() []string {
	return WriteRow(ttColumns).
		SetString(ttColUserID, e.UserID).
		SetString(ttColBranchID, e.BranchID).
		SetString(ttColDate, e.Date).
		SetFloat(ttColHours, e.Hours).
		SetString(ttColTaskID, e.TaskID).
		SetString(ttColNote, e.Note).
		Cells()
}
