package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/holdings/internal/storage"
	"github.com/wonny/holdings/internal/store"
	"github.com/wonny/holdings/pkg/config"
	"github.com/wonny/holdings/pkg/logger"
)

// app bundles the dependencies every data command needs
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	bridge storage.Bridge
	ws     *store.Workspace
}

// openApp loads config, opens the configured bridge and loads the workspace
func openApp(ctx context.Context) (*app, error) {
	if env != "" {
		os.Setenv("ENV", env)
	}
	if verbose {
		os.Setenv("LOG_LEVEL", "debug")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	bridge, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	ws := store.NewWorkspace(bridge, store.Options{Logger: log})
	if err := ws.Load(ctx); err != nil {
		bridge.Close()
		return nil, fmt.Errorf("load workspace: %w", err)
	}

	return &app{cfg: cfg, log: log, bridge: bridge, ws: ws}, nil
}

func (a *app) Close() {
	if err := a.bridge.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close storage")
	}
}

func (a *app) printer(w io.Writer) *printer {
	return newPrinter(w, a.cfg.Currency)
}

// commandContext returns the command's context, or Background outside Execute
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// wantJSON reports whether --output json was requested
func wantJSON() bool {
	return output == "json"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
