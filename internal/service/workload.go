package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sheetdesk/sheetdesk/internal/apperr"
	"github.com/sheetdesk/sheetdesk/internal/entity"
	"github.com/sheetdesk/sheetdesk/internal/rowstore"
)

type WorkloadService struct {
	store *rowstore.Store
	now   func() time.Time
}

func NewWorkloadService(store *rowstore.Store) *WorkloadService {
	return &WorkloadService{store: store, now: defaultNow}
}

// Workload is a user's weekly schedule plus hours derived from the spans.
// WeeklyHours is computed, never stored: the sheet holds only the raw spans.
type Workload struct {
	UserID      string                 `json:"userId"`
	BranchID    string                 `json:"branchId"`
	WeeklyHours float64                `json:"weeklyHours"`
	Schedule    []entity.ScheduleEntry `json:"schedule"`
}

func (s *WorkloadService) GetWorkload(ctx context.Context, userID string) (Workload, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Workload{}, apperr.Validation("user id is required")
	}
	rows, err := s.store.Scan(ctx, entity.WorkloadSchema.Sheet)
	if err != nil {
		return Workload{}, err
	}
	workload := Workload{UserID: userID, Schedule: []entity.ScheduleEntry{}}
	for _, row := range rows {
		scheduleEntry, err := entity.ScheduleEntryFromRow(row)
		if err != nil || scheduleEntry.UserID != userID || !scheduleEntry.Active {
			continue
		}
		workload.Schedule = append(workload.Schedule, scheduleEntry)
		if workload.BranchID == "" {
			workload.BranchID = scheduleEntry.BranchID
		}
		workload.WeeklyHours += spanHours(scheduleEntry.StartTime, scheduleEntry.EndTime)
	}
	return workload, nil
}

// UpsertSchedule writes one weekday's span for a user: the composite key is
// user+weekday, so the lookup scans for both cells and the write re-resolves
// inside this call like every other upsert.
func (s *WorkloadService) UpsertSchedule(ctx context.Context, scheduleEntry entity.ScheduleEntry) error {
	if strings.TrimSpace(scheduleEntry.UserID) == "" {
		return apperr.Validation("user id is required")
	}
	if scheduleEntry.Weekday < 1 || scheduleEntry.Weekday > 7 {
		return apperr.Validation("weekday %d out of range 1-7", scheduleEntry.Weekday)
	}
	if _, ok := parseClock(scheduleEntry.StartTime); !ok {
		return apperr.Validation("start time %q is not HH:MM", scheduleEntry.StartTime)
	}
	if _, ok := parseClock(scheduleEntry.EndTime); !ok {
		return apperr.Validation("end time %q is not HH:MM", scheduleEntry.EndTime)
	}
	rows, err := s.store.Scan(ctx, entity.WorkloadSchema.Sheet)
	if err != nil {
		return err
	}
	for _, row := range rows {
		existing, err := entity.ScheduleEntryFromRow(row)
		if err != nil {
			continue
		}
		if existing.UserID == scheduleEntry.UserID && existing.Weekday == scheduleEntry.Weekday {
			return s.store.Update(ctx, entity.WorkloadSchema.Sheet, row.Number, scheduleEntry.Cells())
		}
	}
	_, err = s.store.Append(ctx, entity.WorkloadSchema.Sheet, scheduleEntry.Cells())
	return err
}

type WorkHoursValidation struct {
	IsWithinHours bool                  `json:"isWithinHours"`
	CurrentTime   string                `json:"currentTime"`
	Schedule      *entity.ScheduleEntry `json:"schedule,omitempty"`
	Message       string                `json:"message"`
}

// ValidateWorkHours reports whether the user is inside today's scheduled
// span. Weekdays follow the sheet convention, 1=Monday.
func (s *WorkloadService) ValidateWorkHours(ctx context.Context, userID string) (WorkHoursValidation, error) {
	workload, err := s.GetWorkload(ctx, userID)
	if err != nil {
		return WorkHoursValidation{}, err
	}
	now := s.now()
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	validation := WorkHoursValidation{
		CurrentTime: timestamp(now),
		Message:     "Outside working hours",
	}
	minutes := now.Hour()*60 + now.Minute()
	for i := range workload.Schedule {
		scheduleEntry := workload.Schedule[i]
		if scheduleEntry.Weekday != weekday {
			continue
		}
		start, okStart := parseClock(scheduleEntry.StartTime)
		end, okEnd := parseClock(scheduleEntry.EndTime)
		validation.Schedule = &scheduleEntry
		if okStart && okEnd && minutes >= start && minutes < end {
			validation.IsWithinHours = true
			validation.Message = "Within working hours"
			return validation, nil
		}
	}
	return validation, nil
}

// LogTime appends one time-tracking entry through the backing store's own
// append primitive; the landing row is never addressed again, so the append
// race on computed row numbers does not apply here.
func (s *WorkloadService) LogTime(ctx context.Context, timeEntry entity.TimeEntry) error {
	if strings.TrimSpace(timeEntry.UserID) == "" {
		return apperr.Validation("user id is required")
	}
	if timeEntry.Hours <= 0 {
		return apperr.Validation("hours must be positive, got %v", timeEntry.Hours)
	}
	if _, ok := parseDate(timeEntry.Date); !ok {
		return apperr.Validation("date %q is not YYYY-MM-DD", timeEntry.Date)
	}
	return s.store.AppendTail(ctx, entity.TimeTrackingSchema.Sheet, timeEntry.Cells())
}

// parseClock turns "HH:MM" into minutes since midnight.
func parseClock(s string) (int, bool) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func spanHours(start, end string) float64 {
	a, okA := parseClock(start)
	b, okB := parseClock(end)
	if !okA || !okB || b <= a {
		return 0
	}
	return float64(b-a) / 60.0
}
