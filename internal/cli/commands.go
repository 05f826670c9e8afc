package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"multibagger/analysis"
	"multibagger/internal/api"
	"multibagger/internal/settings"
	"multibagger/models"
	"multibagger/observability"
	"multibagger/viewmodel"
)

// newServeCmd creates the serve command
func newServeCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API and keep the schedule mirror fresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			refresh, _ := cmd.Flags().GetDuration("schedule-refresh")
			return runServe(cmd, rt, refresh)
		},
	}
	cmd.Flags().Duration("schedule-refresh", time.Minute, "Interval between schedule refreshes (0 disables)")
	return cmd
}

func runServe(cmd *cobra.Command, rt *runtime, refresh time.Duration) error {
	dash, shutdown, err := rt.dashboard(cmd)
	if err != nil {
		return err
	}
	defer shutdown()

	server := &http.Server{
		Addr:              rt.cfg.HTTP.Addr,
		Handler:           api.NewRouter(api.NewHandler(dash, rt.cfg), rt.cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		observability.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if refresh > 0 {
		g.Go(func() error {
			return dash.Schedule().RefreshLoop(ctx, refresh)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		observability.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newAnalyzeCmd creates the analyze command
func newAnalyzeCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a screening analysis and print the recommendations",
		Long: `Run a screening analysis through the coordinator agent.
Criteria not given as flags are asked for interactively.
Example: multibagger analyze --sector "IT Services" --sector Pharma --market-cap small --risk moderate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := criteriaFromFlags(cmd, rt.prompter)
			if err != nil {
				return err
			}
			return runAnalyze(cmd, rt, c)
		},
	}

	cmd.Flags().StringSliceP("sector", "s", nil, "Sector to screen (repeatable)")
	cmd.Flags().String("market-cap", "small", "Market cap band: micro, small, mid or large")
	cmd.Flags().String("risk", models.RiskModerate, "Risk tolerance: Conservative, Moderate or Aggressive")
	cmd.Flags().String("sort", viewmodel.SortComposite, "Sort by composite_score, upside, risk or rank")
	cmd.Flags().String("search", "", "Only show tickers or companies containing this text")
	cmd.Flags().String("risk-filter", viewmodel.RiskAll, "Only show this risk level (all, Low, Medium, High)")
	cmd.Flags().StringSlice("expand", nil, "Show details for these tickers")
	cmd.Flags().StringSlice("alert", nil, "Send these tickers to the messaging channel after the run")

	return cmd
}

// criteriaFromFlags reads the screening criteria, prompting for any that were
// not supplied when no sector flag was given
func criteriaFromFlags(cmd *cobra.Command, p Prompter) (analysis.Criteria, error) {
	c := analysis.DefaultCriteria()
	flags := cmd.Flags()
	interactive := !flags.Changed("sector")

	if interactive {
		sectors, err := p.Sectors()
		if err != nil {
			return c, err
		}
		c.Sectors = sectors
	} else {
		names, _ := flags.GetStringSlice("sector")
		for _, n := range names {
			s, err := parseSector(n)
			if err != nil {
				return c, err
			}
			if !slices.Contains(c.Sectors, s) {
				c.ToggleSector(s)
			}
		}
	}

	switch {
	case flags.Changed("market-cap") || !interactive:
		name, _ := flags.GetString("market-cap")
		tier, err := parseMarketCap(name)
		if err != nil {
			return c, err
		}
		c.MarketCap = tier
	default:
		tier, err := p.MarketCap()
		if err != nil {
			return c, err
		}
		c.MarketCap = tier
	}

	switch {
	case flags.Changed("risk") || !interactive:
		name, _ := flags.GetString("risk")
		risk, err := parseRisk(name)
		if err != nil {
			return c, err
		}
		c.RiskTolerance = risk
	default:
		risk, err := p.RiskTolerance()
		if err != nil {
			return c, err
		}
		c.RiskTolerance = risk
	}

	return c, nil
}

func runAnalyze(cmd *cobra.Command, rt *runtime, c analysis.Criteria) error {
	out := cmd.OutOrStdout()
	dash, shutdown, err := rt.dashboard(cmd)
	if err != nil {
		return err
	}
	defer shutdown()

	flags := cmd.Flags()
	sort, _ := flags.GetString("sort")
	search, _ := flags.GetString("search")
	riskFilter, _ := flags.GetString("risk-filter")
	dash.View().SetFilter(viewmodel.Filter{Search: search, Sort: sort, Risk: riskFilter})

	renderTitle(out, fmt.Sprintf("Screening %v (%s, %s)", c.Sectors, c.MarketCap.Label(), c.RiskTolerance))

	if err := dash.RunAnalysis(cmd.Context(), c); err != nil {
		renderError(out, models.UserMessage(err))
		return err
	}

	snap := dash.Analysis().Snapshot()
	renderSummary(out, snap.Result, snap.LastAnalysisTime)

	expand, _ := flags.GetStringSlice("expand")
	for _, t := range expand {
		dash.View().ToggleExpand(t)
	}
	alert, _ := flags.GetStringSlice("alert")
	for _, t := range alert {
		dash.View().SetSelected(t, true)
	}

	renderRecommendations(out, dash.Recommendations())

	if len(alert) == 0 {
		return nil
	}
	delivery, err := dash.SendAlert(cmd.Context())
	if err != nil {
		return err
	}
	if delivery == nil {
		renderError(out, "Alert was not delivered")
		return nil
	}
	renderDelivery(out, delivery)
	return nil
}

// newHistoryCmd creates the history command
func newHistoryCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show completed analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, shutdown, err := rt.dashboard(cmd)
			if err != nil {
				return err
			}
			defer shutdown()

			out := cmd.OutOrStdout()
			entries := dash.History().Entries()
			renderTitle(out, fmt.Sprintf("Analysis history (%d of %d)", len(entries), rt.cfg.History.Capacity))
			renderHistory(out, entries)
			return nil
		},
	}
}

// newScheduleCmd creates the schedule command group
func newScheduleCmd(rt *runtime) *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect and control the recurring screening schedule",
	}

	scheduleCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, shutdown, err := rt.dashboard(cmd)
			if err != nil {
				return err
			}
			defer shutdown()

			if _, err := dash.Schedule().Refresh(cmd.Context()); err != nil {
				renderError(cmd.OutOrStdout(), models.MsgNetworkError)
				return err
			}
			renderSchedule(cmd.OutOrStdout(), dash.Schedule().Snapshot())
			return nil
		},
	})

	scheduleCmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Pause an active schedule or resume a paused one",
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, shutdown, err := rt.dashboard(cmd)
			if err != nil {
				return err
			}
			defer shutdown()

			out := cmd.OutOrStdout()
			if _, err := dash.Schedule().Refresh(cmd.Context()); err != nil {
				renderError(out, models.MsgNetworkError)
				return err
			}
			msg, ok := dash.Schedule().Toggle(cmd.Context())
			if !ok {
				renderError(out, msg)
				return errors.New(msg)
			}
			renderSuccess(out, msg)
			renderSchedule(out, dash.Schedule().Snapshot())
			return nil
		},
	})

	scheduleCmd.AddCommand(&cobra.Command{
		Use:   "trigger",
		Short: "Run the schedule now",
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, shutdown, err := rt.dashboard(cmd)
			if err != nil {
				return err
			}
			defer shutdown()

			msg, ok := dash.Schedule().TriggerNow(cmd.Context())
			if !ok {
				renderError(cmd.OutOrStdout(), msg)
				return errors.New(msg)
			}
			renderSuccess(cmd.OutOrStdout(), msg)
			return nil
		},
	})

	scheduleCmd.AddCommand(&cobra.Command{
		Use:   "logs",
		Short: "Show recent schedule executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, shutdown, err := rt.dashboard(cmd)
			if err != nil {
				return err
			}
			defer shutdown()

			logs, err := dash.Schedule().LoadLogs(cmd.Context())
			if err != nil {
				renderError(cmd.OutOrStdout(), models.MsgNetworkError)
				return err
			}
			renderLogs(cmd.OutOrStdout(), logs)
			return nil
		},
	})

	return scheduleCmd
}

// newAlertCmd creates the alert command group
func newAlertCmd(rt *runtime) *cobra.Command {
	alertCmd := &cobra.Command{
		Use:   "alert",
		Short: "Messaging channel operations",
	}

	alertCmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a connectivity test to the configured channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, shutdown, err := rt.dashboard(cmd)
			if err != nil {
				return err
			}
			defer shutdown()

			status, err := dash.TestConnection(cmd.Context())
			if err != nil {
				return err
			}
			if status != models.ConnectionSuccess {
				renderError(cmd.OutOrStdout(), "Connection test failed")
				return errors.New("connection test failed")
			}
			renderSuccess(cmd.OutOrStdout(), "Connection test succeeded")
			return nil
		},
	})

	return alertCmd
}

// newSettingsCmd creates the settings command group
func newSettingsCmd(rt *runtime) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Messaging preferences",
	}

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show stored preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, shutdown, err := rt.dashboard(cmd)
			if err != nil {
				return err
			}
			defer shutdown()

			prefs, err := dash.Preferences()
			if err != nil {
				return err
			}
			renderPreferences(cmd.OutOrStdout(), prefs)
			return nil
		},
	})

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Update stored preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, shutdown, err := rt.dashboard(cmd)
			if err != nil {
				return err
			}
			defer shutdown()

			prefs, err := dash.Preferences()
			if err != nil {
				return err
			}
			applyPreferenceFlags(cmd, &prefs)
			if err := dash.UpdatePreferences(prefs); err != nil {
				renderError(cmd.OutOrStdout(), err.Error())
				return err
			}
			renderSuccess(cmd.OutOrStdout(), "Preferences saved")
			renderPreferences(cmd.OutOrStdout(), prefs)
			return nil
		},
	}
	setCmd.Flags().String("team", "", "Messaging team id")
	setCmd.Flags().String("channel", "", "Messaging channel id")
	setCmd.Flags().String("risk-threshold", "", "Alert risk threshold: all, low, medium or high")
	setCmd.Flags().Float64("min-score", 0, "Alert minimum composite score (0-10)")
	settingsCmd.AddCommand(setCmd)

	return settingsCmd
}

// applyPreferenceFlags overwrites only the fields whose flags were given
func applyPreferenceFlags(cmd *cobra.Command, prefs *settings.Preferences) {
	flags := cmd.Flags()
	if flags.Changed("team") {
		prefs.TeamID, _ = flags.GetString("team")
	}
	if flags.Changed("channel") {
		prefs.ChannelID, _ = flags.GetString("channel")
	}
	if flags.Changed("risk-threshold") {
		prefs.AlertRiskThreshold, _ = flags.GetString("risk-threshold")
	}
	if flags.Changed("min-score") {
		prefs.AlertMinScore, _ = flags.GetFloat64("min-score")
	}
}
