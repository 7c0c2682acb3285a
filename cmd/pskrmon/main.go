package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/pskrmon/pskrmon/internal/alerts"
	"github.com/pskrmon/pskrmon/internal/api"
	"github.com/pskrmon/pskrmon/internal/archive"
	"github.com/pskrmon/pskrmon/internal/auth"
	"github.com/pskrmon/pskrmon/internal/config"
	"github.com/pskrmon/pskrmon/internal/discovery"
	"github.com/pskrmon/pskrmon/internal/engine"
	"github.com/pskrmon/pskrmon/internal/feed"
	"github.com/pskrmon/pskrmon/internal/probe"
	"github.com/pskrmon/pskrmon/internal/ws"
	"github.com/pskrmon/pskrmon/pkg/types"
)

const (
	streamInterval = 5 * time.Second
	probeInterval  = 5 * time.Second
	pruneInterval  = time.Hour
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	slog.Info("pskrmon starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Level())
	slog.Info("config loaded",
		"mode", cfg.Monitor.Mode,
		"callsign", cfg.Monitor.Callsign,
		"direction", cfg.Monitor.Direction,
		"stats_window", cfg.Monitor.StatsWindow,
		"broker", cfg.Feed.Broker,
		"transport", cfg.Feed.Transport,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	session, err := engine.New(engine.Options{
		Mode:        cfg.Monitor.Mode,
		Callsign:    cfg.Monitor.Callsign,
		Direction:   cfg.Monitor.Direction,
		StatsWindow: cfg.Monitor.StatsWindow,
		SpotTTL:     cfg.Monitor.SpotTTL,
		MaxSpots:    cfg.Monitor.MaxSpots,
		SampleRate:  cfg.Monitor.SampleRate,
		Filter:      cfg.Monitor.Filters,
	})
	if err != nil {
		slog.Error("failed to create session", "err", err)
		os.Exit(1)
	}

	// Alerts engine evaluates rules on every published snapshot.
	alertEngine := alerts.New(cfg.Alerts)
	session.OnSnapshot(alertEngine.Evaluate)

	opts := api.Options{
		Session: session,
		Alerts:  alertEngine,
		Auth:    auth.Middleware(cfg.Server.Auth.Mode, cfg.Server.Auth.Header, cfg.Server.Auth.Key()),
	}

	// Optional snapshot archive, written off the recompute goroutine.
	if cfg.Storage.Enabled {
		st, err := openArchive(ctx, cfg.Storage.Path)
		if err != nil {
			slog.Error("failed to open archive", "path", cfg.Storage.Path, "err", err)
			os.Exit(1)
		}
		defer st.Close()
		opts.History = st

		snaps := make(chan types.WindowedSnapshot, 4)
		session.OnSnapshot(func(s types.WindowedSnapshot) {
			select {
			case snaps <- s:
			default:
				slog.Warn("archive: writer busy, snapshot dropped", "generated_at", s.GeneratedAt)
			}
		})
		go runArchive(ctx, st, snaps, cfg.Storage.Retention)
	}

	// WebSocket hub pushes the latest snapshot to dashboards.
	hub := ws.New(session, streamInterval)
	go hub.Run(ctx)
	opts.Stream = hub

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           api.New(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	// gRPC health probe with optional API key authentication interceptor.
	var health *probe.Probe
	if cfg.Server.GRPCPort > 0 {
		interceptor := auth.APIKeyInterceptor(cfg.Server.Auth.Mode, cfg.Server.Auth.Header, cfg.Server.Auth.Key())
		health = probe.New(session, probeInterval, grpc.UnaryInterceptor(interceptor))
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			slog.Error("failed to listen on gRPC port", "port", cfg.Server.GRPCPort, "err", err)
			os.Exit(1)
		}
		go health.Run(ctx)
		go func() {
			slog.Info("gRPC health probe listening", "port", cfg.Server.GRPCPort)
			if err := health.Serve(lis); err != nil {
				slog.Error("gRPC server stopped", "err", err)
			}
		}()
	}

	if cfg.Server.MDNS.Enabled {
		adv, err := discovery.Register(discovery.Info{
			Instance: cfg.Server.MDNS.Instance,
			HTTPPort: cfg.Server.HTTPPort,
			GRPCPort: cfg.Server.GRPCPort,
			Callsign: cfg.Monitor.Callsign,
			Mode:     string(cfg.Monitor.Mode),
		})
		if err != nil {
			slog.Warn("mDNS advertisement unavailable", "err", err)
		}
		defer adv.Shutdown()
	}

	// Watch config file for hot-reload of log level and alert rules.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			applyReload(cfg, updated, &level, alertEngine)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	client, err := feed.New(feed.Options{
		Broker:                cfg.Feed.Broker,
		Transport:             feed.Transport(cfg.Feed.Transport),
		Port:                  cfg.Feed.Port,
		ClientID:              cfg.Feed.ClientID,
		Mode:                  cfg.Monitor.Mode,
		Callsign:              cfg.Monitor.Callsign,
		Direction:             cfg.Monitor.Direction,
		Modes:                 cfg.Feed.Modes,
		TLSInsecureSkipVerify: cfg.Feed.TLSInsecureSkipVerify,
		ConnectTimeout:        cfg.Feed.ConnectTimeout,
	}, session)
	if err != nil {
		slog.Error("failed to create feed client", "err", err)
		os.Exit(1)
	}
	// paho keeps retrying in the background, so a failed first connect is not fatal.
	if err := client.Connect(ctx); err != nil {
		slog.Warn("initial broker connect failed, retrying in background", "url", client.URL(), "err", err)
	}

	go session.Run(ctx, cfg.Monitor.UpdateInterval)

	<-ctx.Done()
	slog.Info("pskrmon shutting down")
	session.Stop()
	client.Close()
	if health != nil {
		health.Stop()
	}
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	alertEngine.Wait()
}

func openArchive(ctx context.Context, path string) (*archive.Store, error) {
	st, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	if err := st.InitSchema(ctx); err != nil {
		st.Close()
		return nil, err
	}
	slog.Info("archive opened", "path", path)
	return st, nil
}

// runArchive records snapshots and prunes entries older than retention.
func runArchive(ctx context.Context, st *archive.Store, snaps <-chan types.WindowedSnapshot, retention time.Duration) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-snaps:
			if err := st.Record(ctx, s); err != nil {
				slog.Warn("archive: record failed", "err", err)
			}
		case now := <-ticker.C:
			n, err := st.Prune(ctx, now.Add(-retention))
			if err != nil {
				slog.Warn("archive: prune failed", "err", err)
				continue
			}
			if n > 0 {
				slog.Info("archive: pruned", "rows", n)
			}
		}
	}
}

// applyReload applies the settings that can change at runtime and reports
// the ones that need a restart.
func applyReload(current, updated *config.Config, level *slog.LevelVar, alertEngine *alerts.Engine) {
	level.Set(updated.Level())
	alertEngine.SetRules(updated.Alerts)
	slog.Info("config hot-reloaded", "log_level", updated.LogLevel, "alert_rules", len(updated.Alerts.Rules))

	if !reflect.DeepEqual(current.Monitor, updated.Monitor) ||
		!reflect.DeepEqual(current.Feed, updated.Feed) ||
		!reflect.DeepEqual(current.Server, updated.Server) ||
		current.Storage != updated.Storage {
		slog.Warn("config: monitor, feed, server or storage changed; restart required to apply")
	}
}
