// Package export writes metrics reports to local files for sharing outside
// the app. The spreadsheet backing store is never written here; exports are
// one-way artifacts.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sheetdesk/sheetdesk/internal/apperr"
	"github.com/sheetdesk/sheetdesk/internal/service"
)

// WriteReport writes a report under dir as metrics_<start>_<end>.<format>.
// Supported formats: "xlsx", "csv". Returns the written path.
func WriteReport(dir string, report service.MetricsReport, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Wrap(apperr.ErrInternal, err)
	}
	name := fmt.Sprintf("metrics_%s_%s.%s", report.StartDate, report.EndDate, format)
	path := filepath.Join(dir, name)
	switch format {
	case "xlsx":
		if err := writeXLSX(path, report); err != nil {
			return "", err
		}
	case "csv":
		if err := writeCSV(path, report); err != nil {
			return "", err
		}
	default:
		return "", apperr.Validation("unsupported export format %q, want xlsx or csv", format)
	}
	return path, nil
}

func writeXLSX(path string, report service.MetricsReport) error {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return apperr.Wrap(apperr.ErrInternal, err)
	}
	summaryRows := [][]any{
		{"Period", report.StartDate + " to " + report.EndDate},
		{"Branch", report.BranchID},
		{"User", report.UserID},
		{"Total hours", report.Summary.TotalHours},
		{"Total tasks", report.Summary.TotalTasks},
		{"Completed tasks", report.Summary.CompletedTasks},
		{"Pending tasks", report.Summary.PendingTasks},
		{"Completion rate %", report.Summary.CompletionRate},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return apperr.Wrap(apperr.ErrInternal, err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return apperr.Wrap(apperr.ErrInternal, err)
		}
	}

	const trendSheet = "Trends"
	if _, err := f.NewSheet(trendSheet); err != nil {
		return apperr.Wrap(apperr.ErrInternal, err)
	}
	header := []any{"Date", "Hours", "Tasks completed"}
	if err := f.SetSheetRow(trendSheet, "A1", &header); err != nil {
		return apperr.Wrap(apperr.ErrInternal, err)
	}
	for i, point := range report.Trends {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperr.Wrap(apperr.ErrInternal, err)
		}
		row := []any{point.Date, point.Hours, point.TasksCompleted}
		if err := f.SetSheetRow(trendSheet, cell, &row); err != nil {
			return apperr.Wrap(apperr.ErrInternal, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return apperr.Wrap(apperr.ErrInternal, err)
	}
	return nil
}

func writeCSV(path string, report service.MetricsReport) error {
	f, err := os.Create(path)
	if err != nil {
		return apperr.Wrap(apperr.ErrInternal, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	records := [][]string{
		{"start_date", "end_date", "branch_id", "user_id", "total_hours", "total_tasks", "completed_tasks", "pending_tasks", "completion_rate"},
		{
			report.StartDate, report.EndDate, report.BranchID, report.UserID,
			formatFloat(report.Summary.TotalHours),
			strconv.Itoa(report.Summary.TotalTasks),
			strconv.Itoa(report.Summary.CompletedTasks),
			strconv.Itoa(report.Summary.PendingTasks),
			formatFloat(report.Summary.CompletionRate),
		},
		{},
		{"date", "hours", "tasks_completed"},
	}
	for _, point := range report.Trends {
		records = append(records, []string{point.Date, formatFloat(point.Hours), strconv.Itoa(point.TasksCompleted)})
	}
	if err := w.WriteAll(records); err != nil {
		return apperr.Wrap(apperr.ErrInternal, err)
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
