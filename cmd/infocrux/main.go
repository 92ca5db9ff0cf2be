package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/trace"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	err := root.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = trace.Shutdown(shutdownCtx)
	cancel()
	_ = logger.Sync()

	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "infocrux",
		Short: "Market intelligence for NSE corporate announcements",
		Long: `Infocrux explains how the market reacted to corporate announcements on the NSE.
It serves a dashboard API, answers questions about stocks with a language model,
summarizes announcements and watches for statistically abnormal reactions.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to a YAML or TOML config file")

	root.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newSummarizeCmd(),
		newExplainCmd(),
		newMonitorCmd(),
		newSearchCmd(),
	)
	return root
}

// withApp initializes the system and the services, runs fn and releases
// everything afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	cfg, err := initializeSystem(configPath)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	app, err := initializeApp(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize", err)
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
