// Package cli provides the command-line interface for the multibagger screener
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"multibagger/config"
	"multibagger/internal/app"
	"multibagger/observability"
)

// WireFunc builds the dashboard a command operates on
type WireFunc func(ctx context.Context, cfg *config.Config) (*app.Dashboard, error)

// Option customises the command tree
type Option func(*runtime)

// WithWire replaces the dashboard constructor
func WithWire(fn WireFunc) Option {
	return func(r *runtime) { r.wire = fn }
}

// WithPrompter replaces the interactive prompts
func WithPrompter(p Prompter) Option {
	return func(r *runtime) { r.prompter = p }
}

// runtime is shared by every command. cfg is filled in by the root pre-run.
type runtime struct {
	cfg      *config.Config
	wire     WireFunc
	prompter Prompter
}

// dashboard wires a Dashboard and registers its shutdown with the command
func (rt *runtime) dashboard(cmd *cobra.Command) (*app.Dashboard, func(), error) {
	dash, err := rt.wire(cmd.Context(), rt.cfg)
	if err != nil {
		return nil, nil, err
	}
	return dash, func() {
		if err := dash.Shutdown(); err != nil {
			observability.Warn("shutdown failed", "error", err)
		}
	}, nil
}

// Execute runs the command tree, cancelling on SIGINT/SIGTERM
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// NewRootCmd creates the root command
func NewRootCmd(opts ...Option) *cobra.Command {
	rt := &runtime{
		wire:     app.Wire,
		prompter: surveyPrompter{},
	}
	for _, opt := range opts {
		opt(rt)
	}

	rootCmd := &cobra.Command{
		Use:   "multibagger",
		Short: "Multibagger - agent-driven stock screening for NSE/BSE",
		Long: `multibagger asks a coordinator agent to screen Indian listed stocks for
multibagger candidates, keeps a bounded history of completed runs, forwards
selected picks to a messaging channel and manages the recurring screening schedule.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				observability.Debug("no .env file found, using environment variables")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Log.Level = "debug"
			}
			observability.InitLoggerWithLevel(cfg.Log.Production, observability.ParseLevel(cfg.Log.Level))
			observability.GetMetrics()

			rt.cfg = cfg
			return nil
		},
	}

	rootCmd.AddCommand(newServeCmd(rt))
	rootCmd.AddCommand(newAnalyzeCmd(rt))
	rootCmd.AddCommand(newHistoryCmd(rt))
	rootCmd.AddCommand(newScheduleCmd(rt))
	rootCmd.AddCommand(newAlertCmd(rt))
	rootCmd.AddCommand(newSettingsCmd(rt))

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}
