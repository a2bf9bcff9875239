package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sheetdesk/sheetdesk/internal/apperr"
	"github.com/sheetdesk/sheetdesk/internal/entity"
	"github.com/sheetdesk/sheetdesk/internal/rowstore"
)

type MetricsService struct {
	store *rowstore.Store
	now   func() time.Time
}

func NewMetricsService(store *rowstore.Store) *MetricsService {
	return &MetricsService{store: store, now: defaultNow}
}

// MetricsFilter scopes a report. Empty UserID/BranchID mean everyone /
// every branch; an empty date range defaults to the trailing 7 days.
type MetricsFilter struct {
	UserID    string `json:"userId,omitempty"`
	BranchID  string `json:"branchId,omitempty"`
	StartDate string `json:"startDate,omitempty"` // YYYY-MM-DD inclusive
	EndDate   string `json:"endDate,omitempty"`   // YYYY-MM-DD inclusive
}

type MetricsSummary struct {
	TotalHours     float64 `json:"totalHours"`
	TotalTasks     int     `json:"totalTasks"`
	CompletedTasks int     `json:"completedTasks"`
	PendingTasks   int     `json:"pendingTasks"`
	CompletionRate float64 `json:"completionRate"` // percent
}

type TrendPoint struct {
	Date           string  `json:"date"`
	Hours          float64 `json:"hours"`
	TasksCompleted int     `json:"tasksCompleted"`
}

// PeriodComparison compares the requested period to the immediately
// preceding period of equal length. When the previous period holds no data
// there is nothing honest to compare against: InsufficientData is set and
// the deltas are zero, never invented.
type PeriodComparison struct {
	InsufficientData bool    `json:"insufficientData"`
	CurrentHours     float64 `json:"currentHours"`
	PreviousHours    float64 `json:"previousHours"`
	HoursChangePct   float64 `json:"hoursChangePercent"`
	CurrentTasks     int     `json:"currentTasks"`
	PreviousTasks    int     `json:"previousTasks"`
	TasksChangePct   float64 `json:"tasksChangePercent"`
}

type MetricsReport struct {
	StartDate  string           `json:"startDate"`
	EndDate    string           `json:"endDate"`
	BranchID   string           `json:"branchId,omitempty"`
	UserID     string           `json:"userId,omitempty"`
	Summary    MetricsSummary   `json:"summary"`
	Trends     []TrendPoint     `json:"trends"`
	Comparison PeriodComparison `json:"comparison"`
}

// Report materializes Tasks and TimeTracking and aggregates them. All
// figures are computed from rows; no placeholder numbers.
func (s *MetricsService) Report(ctx context.Context, filter MetricsFilter) (MetricsReport, error) {
	start, end, err := s.resolveRange(filter)
	if err != nil {
		return MetricsReport{}, err
	}
	tasks, timeEntries, err := s.load(ctx, filter)
	if err != nil {
		return MetricsReport{}, err
	}

	report := MetricsReport{
		StartDate: start.Format(dateLayout),
		EndDate:   end.Format(dateLayout),
		BranchID:  filter.BranchID,
		UserID:    filter.UserID,
	}
	report.Summary = summarize(tasks, timeEntries, start, end)
	report.Trends = trend(tasks, timeEntries, start, end)

	// Previous period of equal length, ending the day before start.
	length := end.Sub(start)
	prevEnd := start.AddDate(0, 0, -1)
	prevStart := prevEnd.Add(-length)
	previous := summarize(tasks, timeEntries, prevStart, prevEnd)
	report.Comparison = compare(report.Summary, previous)
	return report, nil
}

type Forecast struct {
	InsufficientData bool      `json:"insufficientData"`
	Days             int       `json:"days"`
	PredictedHours   []float64 `json:"predictedHours,omitempty"`
	PredictedTasks   []int     `json:"predictedTasks,omitempty"`
	HistoryDays      int       `json:"historyDays"`
}

// ForecastHistoryDays is the minimum distinct days of logged time required
// before a projection is produced.
const ForecastHistoryDays = 7

// Forecast projects mean daily hours and completions over the coming days.
// With fewer than ForecastHistoryDays distinct days of history it declines
// with InsufficientData instead of inventing a curve.
func (s *MetricsService) Forecast(ctx context.Context, filter MetricsFilter, days int) (Forecast, error) {
	if days < 1 {
		return Forecast{}, apperr.Validation("forecast days must be positive, got %d", days)
	}
	tasks, timeEntries, err := s.load(ctx, filter)
	if err != nil {
		return Forecast{}, err
	}
	byDay := map[string]float64{}
	for _, timeEntry := range timeEntries {
		if _, ok := parseDate(timeEntry.Date); ok {
			byDay[timeEntry.Date] += timeEntry.Hours
		}
	}
	forecast := Forecast{Days: days, HistoryDays: len(byDay)}
	if len(byDay) < ForecastHistoryDays {
		forecast.InsufficientData = true
		return forecast, nil
	}
	var totalHours float64
	for _, h := range byDay {
		totalHours += h
	}
	meanHours := totalHours / float64(len(byDay))

	completedByDay := map[string]int{}
	for _, task := range tasks {
		if task.Status != entity.StatusDone {
			continue
		}
		if done, ok := parseTimestamp(task.CompletedAt); ok {
			completedByDay[done.Format(dateLayout)]++
		}
	}
	meanTasks := 0
	if len(completedByDay) > 0 {
		total := 0
		for _, c := range completedByDay {
			total += c
		}
		meanTasks = total / len(completedByDay)
	}
	forecast.PredictedHours = make([]float64, days)
	forecast.PredictedTasks = make([]int, days)
	for i := 0; i < days; i++ {
		forecast.PredictedHours[i] = meanHours
		forecast.PredictedTasks[i] = meanTasks
	}
	return forecast, nil
}

func (s *MetricsService) resolveRange(filter MetricsFilter) (time.Time, time.Time, error) {
	now := s.now()
	end := now.Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -6)
	if filter.StartDate != "" {
		t, ok := parseDate(filter.StartDate)
		if !ok {
			return time.Time{}, time.Time{}, apperr.Validation("start date %q is not YYYY-MM-DD", filter.StartDate)
		}
		start = t
	}
	if filter.EndDate != "" {
		t, ok := parseDate(filter.EndDate)
		if !ok {
			return time.Time{}, time.Time{}, apperr.Validation("end date %q is not YYYY-MM-DD", filter.EndDate)
		}
		end = t
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperr.Validation("end date %s precedes start date %s", end.Format(dateLayout), start.Format(dateLayout))
	}
	return start, end, nil
}

func (s *MetricsService) load(ctx context.Context, filter MetricsFilter) ([]entity.Task, []entity.TimeEntry, error) {
	taskRows, err := s.store.Scan(ctx, entity.TaskSchema.Sheet)
	if err != nil {
		return nil, nil, err
	}
	tasks := make([]entity.Task, 0, len(taskRows))
	for _, row := range taskRows {
		task, err := entity.TaskFromRow(row)
		if err != nil || task.ID == "" {
			continue
		}
		if filter.BranchID != "" && task.BranchID != filter.BranchID {
			continue
		}
		if filter.UserID != "" && task.AssignedTo != filter.UserID {
			continue
		}
		tasks = append(tasks, task)
	}

	timeRows, err := s.store.Scan(ctx, entity.TimeTrackingSchema.Sheet)
	if err != nil {
		return nil, nil, err
	}
	timeEntries := make([]entity.TimeEntry, 0, len(timeRows))
	for _, row := range timeRows {
		timeEntry, err := entity.TimeEntryFromRow(row)
		if err != nil || timeEntry.UserID == "" {
			continue
		}
		if filter.BranchID != "" && timeEntry.BranchID != filter.BranchID {
			continue
		}
		if filter.UserID != "" && timeEntry.UserID != filter.UserID {
			continue
		}
		timeEntries = append(timeEntries, timeEntry)
	}
	return tasks, timeEntries, nil
}

func inRange(day, start, end time.Time) bool {
	return !day.Before(start) && !day.After(end)
}

func summarize(tasks []entity.Task, timeEntries []entity.TimeEntry, start, end time.Time) MetricsSummary {
	var summary MetricsSummary
	for _, timeEntry := range timeEntries {
		if day, ok := parseDate(timeEntry.Date); ok && inRange(day, start, end) {
			summary.TotalHours += timeEntry.Hours
		}
	}
	for _, task := range tasks {
		created, createdOK := parseTimestamp(task.CreatedAt)
		completed, completedOK := parseTimestamp(task.CompletedAt)
		switch {
		case task.Status == entity.StatusDone && completedOK && inRange(completed.Truncate(24*time.Hour), start, end):
			summary.TotalTasks++
			summary.CompletedTasks++
		case createdOK && inRange(created.Truncate(24*time.Hour), start, end):
			summary.TotalTasks++
			if task.Status == entity.StatusPending || task.Status == entity.StatusInProgress || task.Status == entity.StatusOnHold {
				summary.PendingTasks++
			}
		}
	}
	if summary.TotalTasks > 0 {
		summary.CompletionRate = 100 * float64(summary.CompletedTasks) / float64(summary.TotalTasks)
	}
	return summary
}

func trend(tasks []entity.Task, timeEntries []entity.TimeEntry, start, end time.Time) []TrendPoint {
	points := map[string]*TrendPoint{}
	point := func(date string) *TrendPoint {
		if p, ok := points[date]; ok {
			return p
		}
		p := &TrendPoint{Date: date}
		points[date] = p
		return p
	}
	for _, timeEntry := range timeEntries {
		if day, ok := parseDate(timeEntry.Date); ok && inRange(day, start, end) {
			point(timeEntry.Date).Hours += timeEntry.Hours
		}
	}
	for _, task := range tasks {
		if task.Status != entity.StatusDone {
			continue
		}
		if done, ok := parseTimestamp(task.CompletedAt); ok {
			day := done.Truncate(24 * time.Hour)
			if inRange(day, start, end) {
				point(day.Format(dateLayout)).TasksCompleted++
			}
		}
	}
	out := make([]TrendPoint, 0, len(points))
	for _, p := range points {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return strings.Compare(out[i].Date, out[j].Date) < 0 })
	return out
}

func compare(current, previous MetricsSummary) PeriodComparison {
	comparison := PeriodComparison{
		CurrentHours:  current.TotalHours,
		PreviousHours: previous.TotalHours,
		CurrentTasks:  current.TotalTasks,
		PreviousTasks: previous.TotalTasks,
	}
	if previous.TotalHours == 0 && previous.TotalTasks == 0 {
		comparison.InsufficientData = true
		return comparison
	}
	if previous.TotalHours > 0 {
		comparison.HoursChangePct = 100 * (current.TotalHours - previous.TotalHours) / previous.TotalHours
	}
	if previous.TotalTasks > 0 {
		comparison.TasksChangePct = 100 * float64(current.TotalTasks-previous.TotalTasks) / float64(previous.TotalTasks)
	}
	return comparison
}
