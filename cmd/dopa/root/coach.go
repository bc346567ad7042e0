package root

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/realQhimself/dopamine-app/internal/calendar"
	"github.com/realQhimself/dopamine-app/internal/coach"
	"github.com/realQhimself/dopamine-app/internal/config"
	"github.com/realQhimself/dopamine-app/internal/engine"
	"github.com/realQhimself/dopamine-app/internal/ui"
)

func newCoachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coach",
		Short: "Chat with Spark, the built-in ADHD coach",
	}
	cmd.AddCommand(
		newCoachChatCmd(),
		newCoachSuggestCmd(),
		newCoachClearCmd(),
	)
	return cmd
}

func newCoachChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message>",
		Short: "Send a message to the coach",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("message is required")
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

			store, err := openCoach(ctx, svc, cfg)
			if err != nil {
				return err
			}

			snap, err := buildSnapshot(ctx, svc, cfg)
			if err != nil {
				return err
			}
			reply, err := store.Send(ctx, strings.Join(args, " "), snap)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconChat, "Spark"))
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}
}

func newCoachSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <task-id>",
		Short: "Ask for the best time slot for a task",
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

			sess, err := openCalendarSession(ctx, svc, cfg)
			if err != nil {
				return err
			}

			client := coach.NewClient(cfg.GeminiAPIKey)
			suggestion, err := client.SuggestTimeSlot(ctx, t.Text, t.EstimatedMinutes, sess.Events())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconChat, "Spark suggests"))
			fmt.Fprintln(cmd.OutOrStdout(), suggestion)
			return nil
		},
	}
}

func newCoachClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the chat history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			store, err := openCoach(ctx, svc, cfg)
			if err != nil {
				return err
			}
			if err := store.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("Chat history cleared."))
			return nil
		},
	}
}

// buildSnapshot collects the app state the coach sees alongside a chat turn.
// Calendar events are included only when a session exists.
func buildSnapshot(ctx context.Context, svc *engine.Service, cfg *config.Config) (*coach.Snapshot, error) {
	var events []calendar.Event
	sess, err := openCalendarSession(ctx, svc, cfg)
	if err == nil && sess.Connected() {
		events = sess.Events()
	}

	return &coach.Snapshot{
		Tasks:   svc.Tasks.Visible(),
		Events:  events,
		XP:      svc.Progress.TotalXP(),
		Level:   svc.Progress.CurrentLevel(),
		Streak:  svc.Progress.CurrentStreak(),
		Energy:  svc.Tasks.Energy(),
		MVDMode: svc.Tasks.MVDMode(),
	}, nil
}
