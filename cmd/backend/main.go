package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	_ "github.com/joho/godotenv/autoload"
)

var (
	log = logrus.New()

	rootCmd = &cobra.Command{
		Use:           "backend",
		Short:         "SoundWave Audio shop backend task runner",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(viper.GetString("loglevel"))
			if err != nil {
				return err
			}
			log.SetLevel(level)
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().String("loglevel", "info", "log level (debug, info, warning, error)")
	viper.BindPFlag("loglevel", rootCmd.PersistentFlags().Lookup("loglevel"))

	viper.SetEnvPrefix("backend")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(beatCmd)
}

// signalContext is cancelled on SIGINT/SIGTERM so workers drain in-flight
// tasks before exiting.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("shutdown signal received")
		cancel()
	}()
	return ctx
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
