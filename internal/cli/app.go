package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/atfloor/floorcli/internal/api"
	"github.com/atfloor/floorcli/internal/config"
	"github.com/atfloor/floorcli/internal/connection"
	"github.com/atfloor/floorcli/internal/logger"
	"github.com/atfloor/floorcli/internal/state"
)

// app bundles the collaborators every command needs: configuration, the
// structured logger, the floor API client and the shared state store.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	closeLog func() error
	client   *api.Client
	store    *state.Store
}

// newApp loads configuration from flags and environment, then builds the
// shared collaborators.
func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}

	log, closeLog, err := logger.New(cfg)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		log:      log,
		closeLog: closeLog,
		client:   api.New(cfg.BaseURL, cfg.HTTPTimeout),
		store:    state.New(),
	}, nil
}

func (a *app) Close() {
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

// newManager starts the connection variant selected by the transport
// setting. Both variants report status exclusively through the store.
func (a *app) newManager(ctx context.Context) (connection.Manager, error) {
	switch a.cfg.Transport {
	case "websocket":
		m := connection.NewWSManager(a.cfg.WebSocketURL, a.store,
			a.cfg.ReconnectAttempts, a.cfg.ReconnectDelay, a.log)
		go connection.Dispatch(ctx, m.Messages(), a.store, a.log)
		m.Connect()
		return m, nil
	case "polling":
		m := connection.NewPollingManager(a.client, a.store, a.cfg.HealthInterval, a.log)
		m.Start(ctx)
		return m, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", a.cfg.Transport)
	}
}
