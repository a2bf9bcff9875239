package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sheetdesk/sheetdesk/internal/service"
)

var notificationCmd = &cobra.Command{
	Use:     "notification",
	Aliases: []string{"notif"},
	Short:   "Manage notifications",
}

func init() {
	notificationCmd.AddCommand(notificationListCmd())
	notificationCmd.AddCommand(notificationReadAllCmd())
	notificationCmd.AddCommand(notificationSendCmd())
}

func notificationListCmd() *cobra.Command {
	var userID string
	var unreadOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			filter := service.NotificationFilter{}
			if unreadOnly {
				unread := false
				filter.Read = &unread
			}
			list, err := a.notifications.List(ctx, userID, filter)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPRIORITY\tREAD\tTITLE\tMESSAGE")
			for _, n := range list.Notifications {
				read := color.YellowString("unread")
				if n.Read {
					read = "read"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", n.ID, n.Priority, read, n.Title, n.Message)
			}
			w.Flush()
			fmt.Printf("\n%d notifications, %d unread\n", list.Total, list.UnreadCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "show only unread notifications")
	return cmd
}

func notificationReadAllCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "read-all",
		Short: "Mark all of a user's notifications as read",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			if err := a.notifications.MarkAllRead(ctx, userID); err != nil {
				return err
			}
			fmt.Printf("✓ Marked all notifications read for %s\n", userID)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	return cmd
}

func notificationSendCmd() *cobra.Command {
	var req service.CreateNotificationRequest
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a notification to a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			n, err := a.notifications.Create(ctx, req)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Sent notification %s to %s\n", n.ID, n.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.UserID, "user", "", "recipient user id (required)")
	cmd.Flags().StringVar(&req.Title, "title", "", "notification title")
	cmd.Flags().StringVar(&req.Message, "message", "", "notification message (required)")
	cmd.Flags().StringVar(&req.Type, "type", "info", "notification type")
	cmd.Flags().StringVar(&req.Priority, "priority", "normal", "low, normal, high or urgent")
	cmd.Flags().StringVar(&req.ExpiresAt, "expires", "", "expiry timestamp, RFC3339")
	return cmd
}
