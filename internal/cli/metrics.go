package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sheetdesk/sheetdesk/internal/export"
	"github.com/sheetdesk/sheetdesk/internal/service"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Productivity reports, forecasts and exports",
}

func init() {
	metricsCmd.AddCommand(metricsReportCmd())
	metricsCmd.AddCommand(metricsForecastCmd())
	metricsCmd.AddCommand(metricsExportCmd())
}

func metricsFilterFlags(cmd *cobra.Command, filter *service.MetricsFilter) {
	cmd.Flags().StringVar(&filter.UserID, "user", "", "restrict to one user")
	cmd.Flags().StringVar(&filter.BranchID, "branch", "", "restrict to one branch")
	cmd.Flags().StringVar(&filter.StartDate, "from", "", "start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&filter.EndDate, "to", "", "end date, YYYY-MM-DD")
}

func metricsReportCmd() *cobra.Command {
	var filter service.MetricsFilter
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate hours and task completion over a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			report, err := a.metrics.Report(ctx, filter)
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}
	metricsFilterFlags(cmd, &filter)
	return cmd
}

func printReport(report service.MetricsReport) {
	fmt.Printf("Period %s .. %s\n", report.StartDate, report.EndDate)
	fmt.Printf("Hours: %.2f  Tasks: %d  Completed: %d (%.1f%%)\n",
		report.Summary.TotalHours, report.Summary.TotalTasks,
		report.Summary.CompletedTasks, report.Summary.CompletionRate)

	if len(report.Trends) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tHOURS\tCOMPLETED")
		for _, point := range report.Trends {
			fmt.Fprintf(w, "%s\t%.2f\t%d\n", point.Date, point.Hours, point.TasksCompleted)
		}
		w.Flush()
	}

	if report.Comparison.InsufficientData {
		fmt.Println(color.YellowString("No data in the previous period; comparison omitted."))
		return
	}
	fmt.Printf("vs previous period: hours %+.1f%%, tasks %+.1f%%\n",
		report.Comparison.HoursChangePct, report.Comparison.TasksChangePct)
}

func metricsForecastCmd() *cobra.Command {
	var filter service.MetricsFilter
	var days int
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project hours and completions over the coming days",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			forecast, err := a.metrics.Forecast(ctx, filter, days)
			if err != nil {
				return err
			}
			if forecast.InsufficientData {
				fmt.Println(color.YellowString(
					"Not enough history: %d days logged, %d required.",
					forecast.HistoryDays, service.ForecastHistoryDays))
				return nil
			}
			for i := 0; i < forecast.Days; i++ {
				fmt.Printf("day %d: %.2fh, %d tasks\n",
					i+1, forecast.PredictedHours[i], forecast.PredictedTasks[i])
			}
			return nil
		},
	}
	metricsFilterFlags(cmd, &filter)
	cmd.Flags().IntVar(&days, "days", 7, "days to project")
	return cmd
}

func metricsExportCmd() *cobra.Command {
	var filter service.MetricsFilter
	var format, dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a report to xlsx or csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			report, err := a.metrics.Report(ctx, filter)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = a.cfg.ExportsDir
			}
			path, err := export.WriteReport(dir, report, format)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Wrote %s\n", path)
			return nil
		},
	}
	metricsFilterFlags(cmd, &filter)
	cmd.Flags().StringVar(&format, "format", "xlsx", "xlsx or csv")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (defaults to exports_dir)")
	return cmd
}
