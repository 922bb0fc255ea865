package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mdindex/internal/adapter/fs"
	"mdindex/internal/adapter/mcp"
	"mdindex/internal/usecase"
)

var (
	serveTransport string
	serveAddr      string
	serveWatch     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep the index up to date and serve it over MCP",
	Long: `Scan the document folder immediately and then every scan.interval, and
serve the index to MCP clients. Over HTTP the MCP endpoint is mounted at
server.path and Prometheus metrics at server.metrics_path.

Examples:
  mdindex serve                                  # stdio, for local clients
  mdindex serve --transport http --addr :8000    # streamable HTTP
  mdindex serve --watch                          # also rescan on file events`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "MCP transport: stdio or http (default from config)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address for the http transport (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "rescan early when documents change on disk")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cmd.Flags().Changed("transport") {
		cfg.Server.Transport = serveTransport
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
	}
	if cmd.Flags().Changed("watch") {
		cfg.Scan.Watch = serveWatch
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	folder, err := filepath.Abs(cfg.Scan.Folder)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	release, err := a.writerLock()
	if err != nil {
		return err
	}
	defer release()

	indexUC, _, err := a.indexer(ctx)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(a.queries, logger)
	if err != nil {
		return err
	}

	scheduler := usecase.NewScheduler(indexUC, folder, cfg.Scan.Interval, logger)

	var watcher *fs.Watcher
	if cfg.Scan.Watch {
		watcher, err = fs.NewWatcher(folder, a.walker, cfg.Scan.Debounce, logger)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", folder, err)
		}
		defer watcher.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return scheduler.Run(ctx)
	})

	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(ctx, scheduler.Trigger)
		})
	}

	g.Go(func() error {
		// The server ending, e.g. a stdio client disconnecting, ends the process.
		defer cancel()
		if cfg.Server.Transport == "http" {
			extra := map[string]http.Handler{}
			if cfg.Server.MetricsPath != "" {
				extra[cfg.Server.MetricsPath] = a.metrics.Handler()
			}
			return server.RunHTTP(ctx, cfg.Server.Addr, cfg.Server.Path, extra)
		}
		return server.Run(ctx)
	})

	logger.Info("serving",
		"folder", folder,
		"store", cfg.Store.Driver,
		"db", cfg.Store.Path,
		"transport", cfg.Server.Transport,
		"interval", cfg.Scan.Interval,
		"watch", cfg.Scan.Watch,
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
