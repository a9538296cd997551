// Command realestate-mcp serves the real estate tools, resources and prompts
// over a stdio stream or an HTTP event stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/realestate-mcp/realestate-mcp-server/internal/config"
	"github.com/realestate-mcp/realestate-mcp-server/internal/host"
	"github.com/realestate-mcp/realestate-mcp-server/internal/logging"
	"github.com/realestate-mcp/realestate-mcp-server/internal/metrics"
	"github.com/realestate-mcp/realestate-mcp-server/internal/protocol"
	"github.com/realestate-mcp/realestate-mcp-server/internal/realestate"
	"github.com/realestate-mcp/realestate-mcp-server/internal/server"
	"github.com/realestate-mcp/realestate-mcp-server/internal/transport/mcpstdio"
	"github.com/realestate-mcp/realestate-mcp-server/internal/wire"

	httpx "github.com/realestate-mcp/realestate-mcp-server/internal/transport/http"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:      "realestate-mcp",
		Usage:     "Real estate capability server",
		Version:   fmt.Sprintf("%s (%s)", version, commit),
		ArgsUsage: "[stdio|sse]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "transport", Aliases: []string{"t"}, Usage: "stdio or sse"},
			&cli.StringFlag{Name: "host", Usage: "listen host for sse"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "listen port for sse"},
		},
		Action: run,
	}
	if err := cmd.Run(ctx, os.Args); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("Invalid config: %v", err)
	}
	if arg := cmd.Args().First(); arg != "" {
		cfg.Transport = config.Transport(arg)
	}
	if cmd.IsSet("transport") {
		cfg.Transport = config.Transport(cmd.String("transport"))
	}
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		config.Exitf("Invalid config: %v", err)
	}

	// Stdout carries frames in stdio mode, so logs always go to stderr.
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)
	ctx = logging.WithContext(ctx, logger)

	ds, err := realestate.LoadDataset(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	store, err := realestate.Open(ctx, ds)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer store.Close()

	reg := host.NewRegistry()
	info := realestate.ServerInfo{Name: cfg.ServerName, Version: version, Started: time.Now()}
	if err := host.Bootstrap(reg, realestate.Modules(store, info)...); err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	logger.Info("capabilities registered",
		"tools", reg.Len(protocol.ClassTool),
		"resources", reg.Len(protocol.ClassResource),
		"prompts", reg.Len(protocol.ClassPrompt),
		"version", version, "env", cfg.Environment)

	opts := []host.DispatcherOption{host.WithLogger(logger)}
	m := newMetrics(cfg)
	if m != nil {
		opts = append(opts, host.WithObserver(m))
	}
	dispatcher := host.NewDispatcher(reg, opts...)
	codec := &wire.Codec{ServerName: cfg.ServerName, ServerVersion: version}

	switch cfg.Transport {
	case config.TransportSSE:
		return runSSE(ctx, cfg, dispatcher, codec, m, logger)
	default:
		return runStdio(ctx, cfg, dispatcher, codec, logger)
	}
}

// newMetrics returns collectors when they can be scraped. Only the sse
// transport serves /metrics, so stdio runs without them.
func newMetrics(cfg *config.Config) *metrics.Metrics {
	if !cfg.EnableMetrics || cfg.Transport != config.TransportSSE {
		return nil
	}
	return metrics.New()
}

func runStdio(ctx context.Context, cfg *config.Config, d *host.Dispatcher, codec *wire.Codec, logger *slog.Logger) error {
	logger.Info("starting stdio transport")
	adapter := mcpstdio.NewAdapter(d, os.Stdin, os.Stdout,
		mcpstdio.WithCodec(codec),
		mcpstdio.WithMaxFrameBytes(cfg.MaxFrameBytes),
		mcpstdio.WithLogger(logger))
	if err := adapter.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

func runSSE(ctx context.Context, cfg *config.Config, d *host.Dispatcher, codec *wire.Codec, m *metrics.Metrics, logger *slog.Logger) error {
	opts := httpx.Options{
		QueueCapacity: cfg.QueueCapacity,
		KeepAlive:     cfg.KeepAlive,
		MaxFrameBytes: int64(cfg.MaxFrameBytes),
		Codec:         codec,
		Logger:        logger,
	}
	if m != nil {
		opts.Observer = m
		opts.Metrics = m.Router
	}
	adapter := httpx.NewAdapter(d, opts)

	srv := server.New(adapter, server.Options{
		Addr:              cfg.Addr(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ShutdownTimeout:   cfg.ShutdownTimeout,
		Logger:            logger,
	})
	srv.OnShutdown(adapter.Shutdown)

	logger.Info("starting sse transport", "addr", cfg.Addr())
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("sse transport: %w", err)
	}
	return nil
}
