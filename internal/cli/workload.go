package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sheetdesk/sheetdesk/internal/entity"
)

var weekdayNames = [8]string{"", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var workloadCmd = &cobra.Command{
	Use:   "workload",
	Short: "Manage work schedules and time tracking",
}

func init() {
	workloadCmd.AddCommand(workloadShowCmd())
	workloadCmd.AddCommand(workloadSetCmd())
	workloadCmd.AddCommand(workloadValidateCmd())
	workloadCmd.AddCommand(workloadLogCmd())
}

func workloadShowCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a user's weekly schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			workload, err := a.workload.GetWorkload(ctx, userID)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DAY\tSTART\tEND\tACTIVE")
			for _, entry := range workload.Schedule {
				active := "no"
				if entry.Active {
					active = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					weekdayNames[entry.Weekday], entry.StartTime, entry.EndTime, active)
			}
			w.Flush()
			fmt.Printf("\nWeekly hours: %.1f\n", workload.WeeklyHours)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	return cmd
}

func workloadSetCmd() *cobra.Command {
	var entry entity.ScheduleEntry
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set one weekday of a user's schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			if err := a.workload.UpsertSchedule(ctx, entry); err != nil {
				return err
			}
			fmt.Printf("✓ Schedule set: %s %s %s-%s\n",
				entry.UserID, weekdayNames[entry.Weekday], entry.StartTime, entry.EndTime)
			return nil
		},
	}
	cmd.Flags().StringVar(&entry.UserID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&entry.BranchID, "branch", "", "branch id")
	cmd.Flags().IntVar(&entry.Weekday, "weekday", 1, "1=Monday .. 7=Sunday")
	cmd.Flags().StringVar(&entry.StartTime, "start", "09:00", "start time, HH:MM")
	cmd.Flags().StringVar(&entry.EndTime, "end", "18:00", "end time, HH:MM")
	cmd.Flags().BoolVar(&entry.Active, "active", true, "whether the entry is active")
	return cmd
}

func workloadValidateCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check whether a user is inside working hours right now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			result, err := a.workload.ValidateWorkHours(ctx, userID)
			if err != nil {
				return err
			}
			if result.IsWithinHours {
				fmt.Printf("%s %s\n", color.GreenString("✓"), result.Message)
			} else {
				fmt.Printf("%s %s\n", color.YellowString("✗"), result.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	return cmd
}

func workloadLogCmd() *cobra.Command {
	var entry entity.TimeEntry
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log worked hours for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			if err := a.workload.LogTime(ctx, entry); err != nil {
				return err
			}
			fmt.Printf("✓ Logged %.2fh for %s on %s\n", entry.Hours, entry.UserID, entry.Date)
			return nil
		},
	}
	cmd.Flags().StringVar(&entry.UserID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&entry.BranchID, "branch", "", "branch id")
	cmd.Flags().StringVar(&entry.Date, "date", "", "date, YYYY-MM-DD (required)")
	cmd.Flags().Float64Var(&entry.Hours, "hours", 0, "hours worked (required)")
	cmd.Flags().StringVar(&entry.TaskID, "task", "", "related task id")
	cmd.Flags().StringVar(&entry.Note, "note", "", "free-form note")
	return cmd
}
