package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taskcollab/internal/api"
	"taskcollab/internal/config"
	"taskcollab/internal/models"
	"taskcollab/internal/notify"
)

func newNotificationsCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Read and follow your notifications",
	}
	cmd.AddCommand(
		newNotificationListCmd(cfg, opts),
		newNotificationUnreadCmd(cfg, opts),
		newNotificationReadCmd(cfg, opts),
		newNotificationReadAllCmd(cfg, opts),
		newNotificationWatchCmd(cfg, opts),
	)
	return cmd
}

func newNotificationListCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				notifications, err := client.ListNotifications(cmd.Context())
				if err != nil {
					return err
				}
				return emit(opts, notifications, func() error { return writeNotificationList(notifications) })
			})
		},
	}
}

func newNotificationUnreadCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unread",
		Short: "Show the number of unread notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				count, err := client.UnreadCount(cmd.Context())
				if err != nil {
					return err
				}
				return emit(opts, api.CountResponse{Count: count}, func() error { return writePlain("%d\n", count) })
			})
		},
	}
}

func newNotificationReadCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id> [<id>...]",
		Short: "Mark notifications read",
		Args:  positionalAtLeast("id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				for _, id := range args {
					if err := client.MarkNotificationRead(cmd.Context(), id); err != nil {
						return err
					}
				}
				return emit(opts, map[string][]string{"read": args}, func() error { return writeLines(args) })
			})
		},
	}
}

func newNotificationReadAllCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				count, err := client.MarkAllNotificationsRead(cmd.Context())
				if err != nil {
					return err
				}
				return emit(opts, api.CountResponse{Count: count}, func() error { return writePlain("marked %d read\n", count) })
			})
		},
	}
}

func newNotificationWatchCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	var interval time.Duration
	var stream, all bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print new notifications as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if interval <= 0 {
				interval = cfg.Notifications.PollInterval.Duration
			}
			return withClient(cfg, opts, func(client *api.Client) error {
				var err error
				if stream {
					err = client.StreamNotifications(ctx, func(n models.Notification) { _ = printNotification(opts, n) })
				} else {
					err = watchByPolling(ctx, client, interval, !all, opts)
				}
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (defaults to notifications.poll_interval)")
	cmd.Flags().BoolVar(&stream, "stream", false, "use the server-sent event stream instead of polling")
	cmd.Flags().BoolVar(&all, "all", false, "print existing notifications before waiting for new ones")
	return cmd
}

func watchByPolling(ctx context.Context, client *api.Client, interval time.Duration, skipExisting bool, opts *cliOptions) error {
	poller := notify.NewPoller(client.ListNotifications, interval)
	return poller.Run(ctx, skipExisting, func(fresh []models.Notification) {
		// Fetches are newest first; print in arrival order.
		for i := len(fresh) - 1; i >= 0; i-- {
			_ = printNotification(opts, fresh[i])
		}
	})
}

func printNotification(opts *cliOptions, n models.Notification) error {
	return emit(opts, n, func() error { return writePlain("%s\n", formatNotificationLine(n)) })
}
