package main

import (
	"github.com/spf13/cobra"

	"shopbackend/internal/config"
	"shopbackend/internal/queue"
	"shopbackend/internal/server"
	"shopbackend/internal/tasks"
)

var beatCmd = &cobra.Command{
	Use:   "beat",
	Short: "Run the periodic task scheduler",
	Long:  "Run the scheduler that enqueues periodic tasks on their cron specs. Run exactly one beat per deployment.",
	RunE:  runBeat,
}

func runBeat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	entries := tasks.Schedule()
	if err := queue.ValidateSchedule(entries); err != nil {
		return err
	}

	ctx := signalContext()
	app, err := server.NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	beat := queue.NewBeat(app.Client, entries, log)
	return beat.Run(ctx)
}
