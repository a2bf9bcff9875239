package entity

import (
	"testing"

	"github.com/sheetdesk/sheetdesk/internal/rowstore"
)

func TestScheduleEntryClampsWeekday(t *testing.T) {
	cases := map[string]int{"0": 1, "8": 1, "-3": 1, "junk": 1, "7": 7, "3": 3}
	for cell, want := range cases {
		entry, err := ScheduleEntryFromRow(rowstore.Row{
			Number: 2,
			Cells:  []string{"alice", "b1", cell, "09:00", "18:00", "true"},
		})
		if err != nil {
			t.Fatalf("weekday %q: %v", cell, err)
		}
		if entry.Weekday != want {
			t.Errorf("weekday %q parsed as %d, want %d", cell, entry.Weekday, want)
		}
	}
}

func TestScheduleEntryRoundTripThroughCells(t *testing.T) {
	entry := ScheduleEntry{UserID: "alice", BranchID: "b1", Weekday: 5, StartTime: "08:30", EndTime: "17:30", Active: true}

	back, err := ScheduleEntryFromRow(rowstore.Row{Number: 2, Cells: entry.Cells()})
	if err != nil {
		t.Fatalf("from row: %v", err)
	}
	if back != entry {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", back, entry)
	}
}

func TestTimeEntryRoundTripThroughCells(t *testing.T) {
	entry := TimeEntry{UserID: "alice", BranchID: "b1", Date: "2026-08-20", Hours: 7.5, TaskID: "t1", Note: "inventory"}

	back, err := TimeEntryFromRow(rowstore.Row{Number: 2, Cells: entry.Cells()})
	if err != nil {
		t.Fatalf("from row: %v", err)
	}
	if back != entry {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", back, entry)
	}
}
