package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sheetdesk/sheetdesk/internal/apperr"
	"github.com/sheetdesk/sheetdesk/internal/entity"
)

func seedTimeEntries(transport *fakeTransport, entries ...entity.TimeEntry) {
	for _, entry := range entries {
		transport.seed(entity.TimeTrackingSchema.Sheet.Name, entry.Cells())
	}
}

func newTestMetricsService(transport *fakeTransport) *MetricsService {
	svc := NewMetricsService(newTestStore(transport))
	svc.now = fixedClock("2026-08-20T12:00:00Z")
	return svc
}

func TestReportAggregatesHoursAndTasksInRange(t *testing.T) {
	transport := newFakeTransport()
	seedTimeEntries(transport,
		entity.TimeEntry{UserID: "alice", BranchID: "b1", Date: "2026-08-18", Hours: 8},
		entity.TimeEntry{UserID: "alice", BranchID: "b1", Date: "2026-08-19", Hours: 6},
		entity.TimeEntry{UserID: "alice", BranchID: "b1", Date: "2026-07-01", Hours: 5}, // out of range
	)
	transport.seedTasks(
		entity.Task{ID: "t1", Title: "a", AssignedTo: "alice", BranchID: "b1", Status: entity.StatusDone,
			Priority: entity.PriorityNormal, CreatedAt: "2026-08-17T09:00:00Z", CompletedAt: "2026-08-18T17:00:00Z"},
		entity.Task{ID: "t2", Title: "b", AssignedTo: "alice", BranchID: "b1", Status: entity.StatusPending,
			Priority: entity.PriorityNormal, CreatedAt: "2026-08-19T09:00:00Z"},
	)
	svc := newTestMetricsService(transport)

	report, err := svc.Report(context.Background(), MetricsFilter{StartDate: "2026-08-14", EndDate: "2026-08-20"})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Summary.TotalHours != 14 {
		t.Errorf("total hours: got %v", report.Summary.TotalHours)
	}
	if report.Summary.TotalTasks != 2 || report.Summary.CompletedTasks != 1 || report.Summary.PendingTasks != 1 {
		t.Errorf("task counts: %+v", report.Summary)
	}
	if report.Summary.CompletionRate != 50 {
		t.Errorf("completion rate: got %v", report.Summary.CompletionRate)
	}

	if len(report.Trends) != 2 {
		t.Fatalf("trends: %+v", report.Trends)
	}
	if report.Trends[0].Date != "2026-08-18" || report.Trends[0].Hours != 8 || report.Trends[0].TasksCompleted != 1 {
		t.Errorf("trend point: %+v", report.Trends[0])
	}
}

func TestReportComparisonDeclinesWithoutPreviousData(t *testing.T) {
	transport := newFakeTransport()
	seedTimeEntries(transport,
		entity.TimeEntry{UserID: "alice", BranchID: "b1", Date: "2026-08-19", Hours: 6},
	)
	svc := newTestMetricsService(transport)

	report, err := svc.Report(context.Background(), MetricsFilter{StartDate: "2026-08-14", EndDate: "2026-08-20"})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !report.Comparison.InsufficientData {
		t.Fatalf("empty previous period should set InsufficientData: %+v", report.Comparison)
	}
	if report.Comparison.HoursChangePct != 0 || report.Comparison.TasksChangePct != 0 {
		t.Fatalf("deltas invented: %+v", report.Comparison)
	}
}

func TestReportComparisonComputesDeltasWhenPreviousPeriodHasData(t *testing.T) {
	transport := newFakeTransport()
	seedTimeEntries(transport,
		entity.TimeEntry{UserID: "alice", BranchID: "b1", Date: "2026-08-10", Hours: 5}, // previous period
		entity.TimeEntry{UserID: "alice", BranchID: "b1", Date: "2026-08-18", Hours: 10},
	)
	svc := newTestMetricsService(transport)

	report, err := svc.Report(context.Background(), MetricsFilter{StartDate: "2026-08-14", EndDate: "2026-08-20"})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Comparison.InsufficientData {
		t.Fatalf("previous period has data: %+v", report.Comparison)
	}
	if report.Comparison.HoursChangePct != 100 {
		t.Errorf("hours change: got %v, want 100", report.Comparison.HoursChangePct)
	}
}

func TestReportScopesByUserAndBranch(t *testing.T) {
	transport := newFakeTransport()
	seedTimeEntries(transport,
		entity.TimeEntry{UserID: "alice", BranchID: "b1", Date: "2026-08-18", Hours: 8},
		entity.TimeEntry{UserID: "bob", BranchID: "b1", Date: "2026-08-18", Hours: 4},
		entity.TimeEntry{UserID: "alice", BranchID: "b2", Date: "2026-08-18", Hours: 2},
	)
	svc := newTestMetricsService(transport)
	ctx := context.Background()

	report, err := svc.Report(ctx, MetricsFilter{UserID: "alice", BranchID: "b1", StartDate: "2026-08-14", EndDate: "2026-08-20"})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Summary.TotalHours != 8 {
		t.Errorf("scoped hours: got %v, want 8", report.Summary.TotalHours)
	}
}

func TestReportValidatesDateRange(t *testing.T) {
	svc := newTestMetricsService(newFakeTransport())
	ctx := context.Background()

	cases := []MetricsFilter{
		{StartDate: "not-a-date"},
		{EndDate: "2026/08/20"},
		{StartDate: "2026-08-20", EndDate: "2026-08-10"},
	}
	for i, filter := range cases {
		if _, err := svc.Report(ctx, filter); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("case %d: got %v, want validation error", i, err)
		}
	}
}

func TestForecastDeclinesBelowMinimumHistory(t *testing.T) {
	transport := newFakeTransport()
	seedTimeEntries(transport,
		entity.TimeEntry{UserID: "alice", BranchID: "b1", Date: "2026-08-18", Hours: 8},
		entity.TimeEntry{UserID: "alice", BranchID: "b1", Date: "2026-08-19", Hours: 6},
	)
	svc := newTestMetricsService(transport)

	forecast, err := svc.Forecast(context.Background(), MetricsFilter{}, 7)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if !forecast.InsufficientData {
		t.Fatalf("2 history days should decline: %+v", forecast)
	}
	if forecast.HistoryDays != 2 || forecast.PredictedHours != nil {
		t.Fatalf("declined forecast should carry no projection: %+v", forecast)
	}
}

func TestForecastProjectsMeanDailyFigures(t *testing.T) {
	transport := newFakeTransport()
	for day := 10; day < 17; day++ { // 7 distinct days, 6 hours each
		seedTimeEntries(transport,
			entity.TimeEntry{UserID: "alice", BranchID: "b1", Date: fmt.Sprintf("2026-08-%d", day), Hours: 6},
		)
	}
	transport.seedTasks(
		entity.Task{ID: "t1", Title: "a", AssignedTo: "alice", Status: entity.StatusDone,
			Priority: entity.PriorityNormal, CompletedAt: "2026-08-12T15:00:00Z"},
		entity.Task{ID: "t2", Title: "b", AssignedTo: "alice", Status: entity.StatusDone,
			Priority: entity.PriorityNormal, CompletedAt: "2026-08-12T16:00:00Z"},
	)
	svc := newTestMetricsService(transport)

	forecast, err := svc.Forecast(context.Background(), MetricsFilter{}, 3)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if forecast.InsufficientData {
		t.Fatalf("7 history days declined: %+v", forecast)
	}
	if len(forecast.PredictedHours) != 3 || forecast.PredictedHours[0] != 6 {
		t.Fatalf("predicted hours: %+v", forecast.PredictedHours)
	}
	if forecast.PredictedTasks[0] != 2 {
		t.Fatalf("predicted tasks: %+v", forecast.PredictedTasks)
	}

	if _, err := svc.Forecast(context.Background(), MetricsFilter{}, 0); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("zero days: got %v, want validation error", err)
	}
}
