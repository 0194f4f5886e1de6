package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"shopbackend/internal/config"
	"shopbackend/internal/queue"
	"shopbackend/internal/server"
	"shopbackend/internal/tasks"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a task worker",
	Long: `Run a worker consuming background tasks from the configured queues.

The solo pool executes one task at a time; the goroutine pool runs up to
--concurrency tasks in parallel.`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().StringP("queues", "Q", strings.Join(tasks.Queues(), ","),
		"comma-separated queues to consume, in priority order")
	workerCmd.Flags().StringP("pool", "P", "goroutine", "execution pool: solo or goroutine")
	workerCmd.Flags().IntP("concurrency", "c", 0, "executor slots for the goroutine pool (0 = config default)")
	viper.BindPFlag("queues", workerCmd.Flags().Lookup("queues"))
	viper.BindPFlag("pool", workerCmd.Flags().Lookup("pool"))
	viper.BindPFlag("concurrency", workerCmd.Flags().Lookup("concurrency"))
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	concurrency := viper.GetInt("concurrency")
	if concurrency <= 0 {
		concurrency = cfg.Worker.Concurrency
	}
	switch pool := viper.GetString("pool"); pool {
	case "solo":
		concurrency = 1
	case "goroutine":
	default:
		return fmt.Errorf("unknown pool %q (want solo or goroutine)", pool)
	}

	var queues []string
	for _, q := range strings.Split(viper.GetString("queues"), ",") {
		if q = strings.TrimSpace(q); q != "" {
			queues = append(queues, q)
		}
	}

	ctx := signalContext()
	app, err := server.NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	registry := queue.NewRegistry()
	tasks.RegisterAll(registry, app.TaskServices())

	worker := queue.NewWorker(app.Broker, registry, tasks.NewRouter(), queue.WorkerOptions{
		Queues:        queues,
		Concurrency:   concurrency,
		TimeLimit:     cfg.Worker.TaskTimeLimit,
		ResultExpires: cfg.Worker.ResultExpires,
		MaxRetries:    cfg.Worker.MaxRetries,
		RetryDelay:    cfg.Worker.RetryDelay,
	}, log)

	return worker.Run(ctx)
}
