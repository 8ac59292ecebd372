// Package main provides the CLI entrypoint for the notify service.
// It wires subcommands (serve, subscribe, preview), loads configuration, and initializes logging.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"notify/internal/config"
	"notify/pkg/logger"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// main sets up the root Cobra command, loads configuration and logging, and
// registers subcommands before executing the CLI.
func main() {
	rootCmd := &cobra.Command{
		Use:          "notify",
		SilenceUsage: true,
	}

	// there is no way to access flags before command execution in cobra.
	// configPath here is parsed using the standard flags package.
	// following line is just added to prevent errors when Cobra is parsing the flags.
	rootCmd.PersistentFlags().StringP("config", "c", "config.yml", "Config File Path")

	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flags.SetOutput(nopWriter{})
	configPath := flags.String("c", "config.yml", "The config file path")
	_ = flags.Parse(os.Args[1:])

	// local runs keep secrets in .env; deployments set real env vars
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Println("could not load .env file", err)
	}

	log.Println("loading config ...")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("could not load config file", err)
	}

	logger.Setup(cfg.Environment)

	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			logger.Sync(ctx)

			panic(p)
		}
	}()

	rootCmd.AddCommand(
		serveCommand(cfg),
		subscribeCommand(cfg),
		previewCommand(cfg),
	)

	err = rootCmd.Execute()
	logger.Sync(ctx)
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}

// nopWriter silences the standard flag set; cobra reports usage errors itself.
type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
