package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/segyhp/dialoger-export/internal/app"
	"github.com/segyhp/dialoger-export/internal/config"
	"github.com/segyhp/dialoger-export/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	version     = "dev"
	application *app.App

	rootCmd = &cobra.Command{
		Use:   "exportctl",
		Short: "Generate dialoger payment exports by hand",
		Long: `exportctl builds the same xlsx payment export the scheduler sends every
morning, for any range of days. Write it to a file or email it to the
address stored in the export configuration.`,
		Version:            version,
		PersistentPreRunE:  initApp,
		PersistentPostRunE: closeApp,
		SilenceUsage:       true,
	}
)

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error), overrides LOG_LEVEL")

	rootCmd.AddCommand(fileCmd())
	rootCmd.AddCommand(emailCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initApp(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if flag, _ := cmd.Flags().GetString("log-level"); flag != "" {
		level = flag
	}
	log := logger.Setup(level, "text")

	application, err = app.New(cmd.Context(), cfg, log)
	return err
}

func closeApp(_ *cobra.Command, _ []string) error {
	if application == nil {
		return nil
	}
	return application.Close()
}
