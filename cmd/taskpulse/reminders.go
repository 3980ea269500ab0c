package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/phrazzld/taskpulse/internal/platform/postgres"
	"github.com/phrazzld/taskpulse/internal/reminder"
)

func remindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Inspect and manage reminder jobs",
	}
	cmd.AddCommand(reminderScheduleCmd())
	cmd.AddCommand(reminderCancelCmd())
	cmd.AddCommand(reminderStatusCmd())
	return cmd
}

func (app *application) reminderClient() *reminder.Client {
	return reminder.NewClient(reminder.Config{
		BaseURL:     app.config.Scheduler.BaseURL,
		CallbackURL: app.config.Scheduler.CallbackURL,
		Timeout:     app.config.Scheduler.Timeout,
	}, app.logger)
}

func reminderScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <task-id>",
		Short: "Arm the reminder of a stored task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return withApplication(cmd.Context(), func(ctx context.Context, app *application) error {
				db, err := app.database(ctx)
				if err != nil {
					return err
				}

				task, err := postgres.NewPostgresTaskStore(db, app.logger).GetByID(ctx, taskID)
				if err != nil {
					return fmt.Errorf("failed to load task %d: %w", taskID, err)
				}

				req, ok := reminder.RequestFor(task)
				if !ok {
					return fmt.Errorf("task %d has no due date", taskID)
				}

				result := app.reminderClient().Schedule(ctx, req)
				if err := result.AsError(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", reminder.JobName(taskID), result)
				return nil
			})
		},
	}
}

func reminderCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <task-id>",
		Short: "Delete the reminder job of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return withApplication(cmd.Context(), func(ctx context.Context, app *application) error {
				result := app.reminderClient().Cancel(ctx, taskID)
				if err := result.AsError(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", reminder.JobName(taskID), result)
				return nil
			})
		},
	}
}

func reminderStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id>...",
		Short: "Show the reminder jobs of tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseTaskID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return withApplication(cmd.Context(), func(ctx context.Context, app *application) error {
				client := app.reminderClient()

				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"Task", "Job", "Armed", "Schedule", "Due Time"})
				for _, id := range ids {
					info, ok := client.Status(ctx, id)
					tw.AppendRow(jobRow(id, info, ok))
				}
				tw.Render()
				return nil
			})
		},
	}
}

func jobRow(taskID int64, info *reminder.JobInfo, ok bool) table.Row {
	if !ok || info == nil {
		return table.Row{taskID, reminder.JobName(taskID), "no", "", ""}
	}
	name := info.Name
	if name == "" {
		name = reminder.JobName(taskID)
	}
	return table.Row{taskID, name, "yes", info.Schedule, info.DueTime}
}

func parseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}
