package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Manage branches and the active branch selection",
}

func init() {
	branchCmd.AddCommand(branchListCmd())
	branchCmd.AddCommand(branchSelectCmd())
	branchCmd.AddCommand(branchSelectionCmd())
}

func branchListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List branches",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			branches, err := a.branches.ListBranches(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tMANAGER\tACTIVE\tHOURS")
			for _, b := range branches {
				active := color.RedString("no")
				if b.Active {
					active = color.GreenString("yes")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s-%s\n",
					b.ID, b.Name, b.Manager, active,
					b.Config.WorkingHours.Start, b.Config.WorkingHours.End)
			}
			return w.Flush()
		},
	}
}

func branchSelectCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "select <branch-id>",
		Short: "Select the active branch for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			selection, err := a.branches.SelectBranch(ctx, userID, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("✓ %s now works in branch %s\n", selection.UserID, selection.BranchID)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	return cmd
}

func branchSelectionCmd() *cobra.Command {
	var userID string
	var clear bool
	cmd := &cobra.Command{
		Use:   "selection",
		Short: "Show or clear a user's branch selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			if clear {
				if err := a.branches.ClearSelection(ctx, userID); err != nil {
					return err
				}
				fmt.Printf("✓ Cleared selection for %s\n", userID)
				return nil
			}
			selection, err := a.branches.GetSelection(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Printf("%s -> %s (since %s)\n", selection.UserID, selection.BranchID, selection.SelectedAt)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().BoolVar(&clear, "clear", false, "clear the selection instead of showing it")
	return cmd
}
