package entity

import "github.com/sheetdesk/sheetdesk/internal/rowstore"

// ScheduleEntry is one weekday's working span for one user. A user's workload
// is the set of their active entries.
type ScheduleEntry struct {
	UserID    string `json:"userId"`
	BranchID  string `json:"branchId"`
	Weekday   int    `json:"weekday"` // 1-7, Monday-Sunday
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Active    bool   `json:"active"`
}

// Workload column layout, 0-indexed.
const (
	wlColUserID = iota
	wlColBranchID
	wlColWeekday
	wlColStartTime
	wlColEndTime
	wlColActive
	wlColumns
)

var WorkloadSchema = Schema{
	Sheet:      rowstore.Sheet{Name: "Workload", Columns: wlColumns},
	MinColumns: 6,
	KeyColumn:  wlColUserID,
}

func ScheduleEntryFromRow(row rowstore.Row) (ScheduleEntry, error) {
	if err := WorkloadSchema.Check(row); err != nil {
		return ScheduleEntry{}, err
	}
	r := ReadRow(row)
	return ScheduleEntry{
		UserID:    r.String(wlColUserID),
		BranchID:  r.String(wlColBranchID),
		Weekday:   clampWeekday(r.Int(wlColWeekday, 1)),
		StartTime: r.String(wlColStartTime),
		EndTime:   r.String(wlColEndTime),
		Active:    r.Bool(wlColActive),
	}, nil
}

func (e ScheduleEntry) Cells() []string {
	return WriteRow(wlColumns).
		SetString(wlColUserID, e.UserID).
		SetString(wlColBranchID, e.BranchID).
		SetInt(wlColWeekday, clampWeekday(e.Weekday)).
		SetString(wlColStartTime, e.StartTime).
		SetString(wlColEndTime, e.EndTime).
		SetBool(wlColActive, e.Active).
		Cells()
}

func clampWeekday(d int) int {
	if d < 1 || d > 7 {
		return 1
	}
	return d
}
