package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sheetdesk/sheetdesk/internal/entity"
	"github.com/sheetdesk/sheetdesk/internal/service"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

func init() {
	taskCmd.AddCommand(taskListCmd())
	taskCmd.AddCommand(taskCreateCmd())
	taskCmd.AddCommand(taskStatusCmd())
	taskCmd.AddCommand(taskDoneCmd())
	taskCmd.AddCommand(taskReopenCmd())
	taskCmd.AddCommand(taskDeleteCmd())
	taskCmd.AddCommand(taskStatsCmd())
}

func taskListCmd() *cobra.Command {
	var filter service.TaskFilter
	var page, pageSize int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			result, err := a.tasks.ListTasks(ctx, filter, page, pageSize)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tASSIGNEE\tDUE\tTITLE")
			for _, t := range result.Tasks {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, colorStatus(t.Status), t.Priority, t.AssignedTo, t.DueDate, t.Title)
			}
			w.Flush()
			fmt.Printf("\n%d of %d tasks (page %d)\n", len(result.Tasks), result.Total, result.Page)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&filter.Priority, "priority", "", "filter by priority")
	cmd.Flags().StringVar(&filter.AssignedTo, "assignee", "", "filter by assignee")
	cmd.Flags().StringVar(&filter.BranchID, "branch", "", "filter by branch")
	cmd.Flags().StringVar(&filter.Search, "search", "", "substring match on title and description")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 50, "tasks per page")
	return cmd
}

func taskCreateCmd() *cobra.Command {
	var req service.CreateTaskRequest
	var creator string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			task, err := a.tasks.CreateTask(ctx, creator, req)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Created task %s: %s\n", task.ID, task.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "task title (required)")
	cmd.Flags().StringVar(&req.Description, "description", "", "task description")
	cmd.Flags().StringVar(&req.BranchID, "branch", "", "branch id")
	cmd.Flags().StringVar(&req.AssignedTo, "assignee", "", "assignee user id (required)")
	cmd.Flags().StringVar(&req.Priority, "priority", "normal", "low, normal, high or urgent")
	cmd.Flags().StringVar(&req.DueDate, "due", "", "due date, YYYY-MM-DD")
	cmd.Flags().Float64Var(&req.EstimatedHours, "estimate", 0, "estimated hours")
	cmd.Flags().StringVar(&creator, "by", "", "creating user id")
	return cmd
}

func taskStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id> <status>",
		Short: "Move a task to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			status, err := entity.TaskStatusFromInput(args[1])
			if err != nil {
				return err
			}
			task, err := a.tasks.UpdateStatus(ctx, args[0], status)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Task %s is now %s\n", task.ID, colorStatus(task.Status))
			return nil
		},
	}
}

func taskDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <task-id>",
		Short: "Mark a task done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			task, err := a.tasks.UpdateStatus(ctx, args[0], entity.StatusDone)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Task %s done (completed at %s)\n", task.ID, task.CompletedAt)
			return nil
		},
	}
}

func taskReopenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <task-id>",
		Short: "Reopen a completed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			task, err := a.tasks.Reopen(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("✓ Task %s reopened as %s\n", task.ID, task.Status)
			return nil
		},
	}
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task (the row is blanked, not removed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			if err := a.tasks.DeleteTask(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Deleted task %s\n", args[0])
			return nil
		},
	}
}

func taskStatsCmd() *cobra.Command {
	var branchID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show task statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			stats, err := a.tasks.Stats(ctx, branchID)
			if err != nil {
				return err
			}
			fmt.Printf("Total: %d  Overdue: %d  Completed today: %d\n",
				stats.Total, stats.Overdue, stats.CompletedToday)
			for status, n := range stats.ByStatus {
				fmt.Printf("  %-12s %d\n", status, n)
			}
			if stats.CompletionSampleSize > 0 {
				fmt.Printf("Average completion: %.1fh over %d tasks\n",
					stats.AverageCompletionHrs, stats.CompletionSampleSize)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&branchID, "branch", "", "restrict to one branch")
	return cmd
}

func colorStatus(status entity.TaskStatus) string {
	switch status {
	case entity.StatusDone:
		return color.GreenString(string(status))
	case entity.StatusInProgress:
		return color.CyanString(string(status))
	case entity.StatusCancelled:
		return color.RedString(string(status))
	case entity.StatusOnHold:
		return color.YellowString(string(status))
	default:
		return string(status)
	}
}
