package root

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/realQhimself/dopamine-app/internal/calendar"
	"github.com/realQhimself/dopamine-app/internal/coach"
	"github.com/realQhimself/dopamine-app/internal/engine"
	applog "github.com/realQhimself/dopamine-app/internal/log"
	"github.com/realQhimself/dopamine-app/internal/ui"
)

func newCalendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Google Calendar integration",
	}
	cmd.AddCommand(
		newCalendarConnectCmd(),
		newCalendarDisconnectCmd(),
		newCalendarSyncCmd(),
		newCalendarPushCmd(),
		newCalendarImportCmd(),
		newCalendarWatchCmd(),
	)
	return cmd
}

func newCalendarConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Connect a Google account (opens a browser consent page)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			sess, err := openCalendarSession(ctx, svc, cfg)
			if err != nil {
				return err
			}
			if err := sess.Connect(ctx); err != nil {
				if errors.Is(err, calendar.ErrNotConfigured) {
					return fmt.Errorf("%w (set google_client_id in the config file or %s)", err, "DOPA_GOOGLE_CLIENT_ID")
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(fmt.Sprintf("%s Connected as %s.", ui.IconCalendar, sess.Email())))
			return nil
		},
	}
}

func newCalendarDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect and revoke the calendar token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			sess, err := openCalendarSession(ctx, svc, cfg)
			if err != nil {
				return err
			}
			if err := sess.Disconnect(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("Disconnected."))
			return nil
		},
	}
}

func newCalendarSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch today's events",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			sess, err := openCalendarSession(ctx, svc, cfg)
			if err != nil {
				return err
			}
			if !sess.Connected() {
				return calendar.ErrNotConnected
			}
			if err := sess.SyncToday(ctx); err != nil {
				return err
			}

			events := sess.Events()
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, ui.Heading(ui.IconCalendar, fmt.Sprintf("Today (%d events)", len(events))))
			for _, ev := range events {
				when := "all day"
				if !ev.AllDay {
					when = ev.StartTime().Format("15:04") + "-" + ev.EndTime().Format("15:04")
				}
				fmt.Fprintf(w, "- %s  %s %s\n", when, ev.Summary, ui.Muted.Render(ev.CalendarName))
			}
			return nil
		},
	}
}

func newCalendarPushCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "push <task-id>",
		Short: "Schedule a task as a calendar event",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("task id is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := resolveTaskID(svc, args[0])
			if err != nil {
				return err
			}
			t := svc.Tasks.Get(id)

			start := time.Now()
			if at != "" {
				parsed, err := time.ParseInLocation("15:04", at, time.Local)
				if err != nil {
					return fmt.Errorf("parse --at %q: %w", at, err)
				}
				now := time.Now()
				start = time.Date(now.Year(), now.Month(), now.Day(), parsed.Hour(), parsed.Minute(), 0, 0, time.Local)
			}
			startAt, endAt := calendar.EventWindow(start, t.EstimatedMinutes)

			sess, err := openCalendarSession(ctx, svc, cfg)
			if err != nil {
				return err
			}
			created, err := sess.PushTask(ctx, t.Text, startAt, endAt)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(fmt.Sprintf("%s Scheduled %q at %s.", ui.IconCalendar, t.Text, startAt.Format("15:04"))))
			if created.HTMLLink != "" {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render(created.HTMLLink))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Start time today (HH:MM, default now)")

	return cmd
}

func newCalendarImportCmd() *cobra.Command {
	var smart bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import today's events as tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			sess, err := openCalendarSession(ctx, svc, cfg)
			if err != nil {
				return err
			}
			if !sess.Connected() {
				return calendar.ErrNotConnected
			}
			if err := sess.SyncToday(ctx); err != nil {
				return err
			}
			events := sess.Events()
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("No events today."))
				return nil
			}

			if smart {
				client := coach.NewClient(cfg.GeminiAPIKey)
				ids, err := client.FilterActionableEvents(ctx, events)
				if err != nil {
					applog.Warn("smart filter failed, importing all events", "err", err)
				} else {
					events = filterEvents(events, ids)
				}
			}

			added := 0
			for _, ev := range events {
				minutes := ev.DurationMinutes()
				if ev.AllDay {
					minutes = 0
				}
				_, err := svc.Tasks.Add(ctx, engine.AddTaskInput{
					Text:             ev.Summary,
					Category:         engine.CategoryWork,
					EstimatedMinutes: minutes,
				})
				if err != nil {
					return err
				}
				added++
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(fmt.Sprintf("%s Imported %d events as tasks.", ui.IconCalendar, added)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&smart, "smart", false, "Ask the coach to skip passive events (lunch, commute, busy blocks)")

	return cmd
}

func newCalendarWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run in the foreground and sync on a cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			sess, err := openCalendarSession(ctx, svc, cfg)
			if err != nil {
				return err
			}
			if !sess.Connected() {
				return calendar.ErrNotConnected
			}

			c := cron.New()
			_, err = c.AddFunc(cfg.SyncCron, func() {
				if err := sess.SyncToday(ctx); err != nil {
					applog.Error("scheduled sync failed", err)
					return
				}
				applog.Info("calendar synced", "events", len(sess.Events()))
			})
			if err != nil {
				return fmt.Errorf("parse sync_cron %q: %w", cfg.SyncCron, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render(fmt.Sprintf("Watching (schedule %q). Ctrl-C to stop.", cfg.SyncCron)))
			c.Start()
			defer c.Stop()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			return nil
		},
	}
}

func filterEvents(events []calendar.Event, ids []string) []calendar.Event {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	var out []calendar.Event
	for _, ev := range events {
		if keep[ev.ID] {
			out = append(out, ev)
		}
	}
	return out
}
