package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/atfloor/floorcli/internal/poller"
	"github.com/atfloor/floorcli/internal/state"
	"github.com/atfloor/floorcli/internal/storage"
	"github.com/atfloor/floorcli/internal/stubs"
	"github.com/atfloor/floorcli/internal/theater"
	"github.com/atfloor/floorcli/internal/tui"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "floorcli",
		Short: "floorcli - Autonomous Trading Floor dashboard",
		Long: `floorcli is a terminal dashboard for the autonomous trading floor backend.
It polls agent status, decisions and market prices, triggers democratic
voting cycles, and narrates each cycle as a multi-agent deliberation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default behavior: launch the live dashboard.
			return runDashboard(cmd)
		},
	}

	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVoteCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newStubCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Configuration file path")

	return rootCmd
}

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Launch the live trading floor dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd)
		},
	}
}

// runDashboard wires the full client, then hands control to the TUI loop.
func runDashboard(cmd *cobra.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mgr, err := a.newManager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	trig := poller.NewTrigger(a.client, a.store, a.log)
	p := poller.New(a.client, a.store, trig, a.cfg, a.log)
	if err := p.Start(ctx); err != nil {
		return err
	}
	defer p.Stop()

	th := theater.New()
	model := tui.NewModel(tui.Deps{
		Store:   a.store,
		Trigger: trig,
		Theater: th,
		Manager: mgr,
	})
	th.SetNotify(model.TheaterNotify())

	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Fetch floor state once and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.HTTPTimeout)
			defer cancel()

			if err := a.client.Health(ctx); err != nil {
				a.store.SetConnection(state.Disconnected)
			} else {
				a.store.SetConnection(state.Connected)
			}
			if resp, err := a.client.AgentsStatus(ctx); err == nil {
				a.store.ApplyAgents(resp.Agents)
			}
			if decisions, err := a.client.Decisions(ctx); err == nil {
				a.store.ApplyFetchedDecisions(decisions)
			}
			if prices, err := a.client.CurrentPrices(ctx); err == nil {
				a.store.SetPrices(prices)
			}

			fmt.Fprint(cmd.OutOrStdout(), tui.RenderSnapshot(a.store.Snapshot()))
			return nil
		},
	}
}

func newVoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vote",
		Short: "Trigger one democratic voting cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				ok, err := confirmAction("Trigger a full trading cycle across all nine agents?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			trig := poller.NewTrigger(a.client, a.store, a.log)
			result, ok := trig.ExecuteVoting(cmd.Context(), false)
			if !ok {
				return errors.New("trading cycle failed, see log for details")
			}

			fmt.Fprint(cmd.OutOrStdout(), renderVotingResult(result))
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Run a market analysis cycle without trading",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			trig := poller.NewTrigger(a.client, a.store, a.log)
			resp, ok := trig.RunAnalysis(cmd.Context(), false)
			if !ok {
				return errors.New("analysis failed, see log for details")
			}

			fmt.Fprint(cmd.OutOrStdout(), renderAnalysis(resp))
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List persisted trading or analysis records",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			limit, _ := cmd.Flags().GetInt("limit")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.HTTPTimeout)
			defer cancel()

			var resp *historyResult
			switch kind {
			case "trading":
				r, err := a.client.TradingHistory(ctx, limit)
				if err != nil {
					return err
				}
				resp = &historyResult{title: "TRADING HISTORY", resp: r}
			case "analysis":
				r, err := a.client.AnalysisHistory(ctx, limit)
				if err != nil {
					return err
				}
				resp = &historyResult{title: "ANALYSIS HISTORY", resp: r}
			default:
				return fmt.Errorf("unknown history kind %q (want trading or analysis)", kind)
			}

			fmt.Fprint(cmd.OutOrStdout(), renderHistory(resp))
			return nil
		},
	}
	cmd.Flags().String("kind", "trading", "Record kind: trading or analysis")
	cmd.Flags().Int("limit", 10, "Maximum records to list")
	return cmd
}

func newStubCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stub",
		Short: "Run the local stub backend",
		Long: `Run a local implementation of the trading floor HTTP and WebSocket
contract, backed by live Yahoo Finance quotes with hardcoded fallbacks.
Useful for demos and development without the real backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			db, err := storage.Open(a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			srv := stubs.NewServer(stubs.NewMarketSource(a.log), db, a.log)
			httpSrv := &http.Server{
				Addr:    a.cfg.StubAddr,
				Handler: srv.Handler(),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("stub backend listening", "addr", a.cfg.StubAddr)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "floorcli v1.0.0")
			fmt.Fprintln(cmd.OutOrStdout(), "Autonomous Trading Floor dashboard")
		},
	}
}
