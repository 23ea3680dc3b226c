package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/blizzardproto/blizzard"
	"github.com/blizzardproto/blizzard/internal/config"
	"github.com/blizzardproto/blizzard/internal/metrics"
	"github.com/blizzardproto/blizzard/internal/ratelimit"
	"github.com/blizzardproto/blizzard/zlog"
)

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a Blizzard server exposing the demo method set",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (defaults used if omitted)")

	return cmd
}

func runServe(configPath string) error {
	cfg := config.Config{}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg.Addr = "127.0.0.1:7331"
		cfg.IdleTimeout = 30 * time.Second
		cfg.MaxStreamBytes = 16 * 1024 * 1024
	}

	logger := zlog.New("blizzardd")
	collector := metrics.New()

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("metrics listening", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	sessionOpts := []blizzard.Option{
		blizzard.WithIdleTimeout(cfg.IdleTimeout),
		blizzard.WithMaxStreamBytes(cfg.MaxStreamBytes),
		blizzard.WithObserver(collector),
	}
	if cfg.RateLimit.Enabled {
		sessionOpts = append(sessionOpts, blizzard.WithRateLimit(ratelimit.New(cfg.RateLimit.BytesPerSec, cfg.RateLimit.Burst)))
	}

	addr, err := net.ResolveTCPAddr("tcp", cfg.Addr)
	if err != nil {
		return err
	}

	server, err := blizzard.New(addr,
		blizzard.ServerLoggerOption(logger),
		blizzard.ServerShutdownTimeoutOption(cfg.ShutdownTimeout),
		blizzard.ServerSessionOptions(sessionOpts...),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("blizzardd serving", "addr", server.Addr().String())
	return server.Serve(ctx, handleSession)
}

func handleSession(session *blizzard.Session) {
	exposeDemoMethods(session)
	_ = session.Run(context.Background())
}

// exposeDemoMethods registers the small method set blizzardd advertises
// for manual testing and as a runnable example of the dispatch path.
func exposeDemoMethods(session *blizzard.Session) {
	session.Expose("echo", func(params json.RawMessage, done blizzard.Completion) {
		done(nil, params)
	})

	session.Expose("time", func(params json.RawMessage, done blizzard.Completion) {
		done(nil, time.Now().UTC().Format(time.RFC3339))
	})

	session.Expose("blob", func(params json.RawMessage, done blizzard.Completion) {
		done(nil, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	})
}
