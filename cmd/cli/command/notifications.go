package command

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"schooladmin/cmd/cli/authentication"
	"schooladmin/cmd/cli/command/client"
	"schooladmin/internal/notification"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "Live notification commands",
	Long:    `List, acknowledge, clear and watch payment and consultation notifications.`,
}

var listNotificationsCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the notification list, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := authedClient()
		if err != nil {
			return err
		}
		resp, err := c.ListNotifications()
		if err != nil {
			return fmt.Errorf("failed to list notifications: %w", err)
		}
		printSnapshot(notification.Snapshot{
			Notifications:   resp.Notifications,
			UnreadCount:     resp.UnreadCount,
			IsConnected:     resp.IsConnected,
			ConnectionState: resp.ConnectionState,
		})
		return nil
	},
}

var readNotificationCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark one notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := authedClient()
		if err != nil {
			return err
		}
		if err := c.MarkNotificationRead(args[0]); err != nil {
			if client.IsStatus(err, http.StatusNotFound) {
				return fmt.Errorf("notification %s not found", args[0])
			}
			return err
		}
		printSuccess("Marked %s as read.", args[0])
		return nil
	},
}

var readAllNotificationsCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := authedClient()
		if err != nil {
			return err
		}
		if err := c.MarkAllNotificationsRead(); err != nil {
			return err
		}
		printSuccess("All notifications marked as read.")
		return nil
	},
}

var clearNotificationsCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every notification",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := authedClient()
		if err != nil {
			return err
		}
		if err := c.ClearNotifications(); err != nil {
			return err
		}
		printSuccess("Notifications cleared.")
		return nil
	},
}

var showNotificationCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the consultation behind a consultation notification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := authedClient()
		if err != nil {
			return err
		}
		detail, err := c.ConsultationDetail(args[0])
		if err != nil {
			if client.IsStatus(err, http.StatusNotFound) {
				return fmt.Errorf("no consultation details for %s (unknown, not a consultation, or no longer in the feed)", args[0])
			}
			return err
		}

		headerColor.Printf("Consultation #%d\n", detail.ID)
		fmt.Printf("Name:    %s\n", detail.Name)
		fmt.Printf("Email:   %s\n", detail.Email)
		fmt.Printf("Phone:   %s\n", detail.Phone)
		if detail.MenuName != "" {
			fmt.Printf("Program: %s\n", detail.MenuName)
		}
		fmt.Printf("Created: %s\n", detail.CreatedAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var watchNotificationsCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream notification updates until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := authentication.GetTokens()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Println("Watching notifications, press Ctrl+C to stop.")
		return client.WatchNotifications(ctx, apiURL, creds.AccessToken, func(snap notification.Snapshot) {
			fmt.Println()
			printSnapshot(snap)
		})
	},
}

func init() {
	notificationsCmd.AddCommand(listNotificationsCmd)
	notificationsCmd.AddCommand(readNotificationCmd)
	notificationsCmd.AddCommand(readAllNotificationsCmd)
	notificationsCmd.AddCommand(clearNotificationsCmd)
	notificationsCmd.AddCommand(showNotificationCmd)
	notificationsCmd.AddCommand(watchNotificationsCmd)
}
