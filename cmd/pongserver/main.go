// Command pongserver runs the pairing and relay server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/cyberinferno/netpong/cacher"
	"github.com/cyberinferno/netpong/config"
	"github.com/cyberinferno/netpong/logger"
	"github.com/cyberinferno/netpong/metrics"
	"github.com/cyberinferno/netpong/relay"
)

const (
	serviceName     = "pongserver"
	shutdownTimeout = 5 * time.Second
	statusInterval  = time.Minute
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	envFile := flag.String("env", ".env", "path to a .env file")
	flag.Parse()

	if err := run(*configPath, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(configPath, envFile string) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	cfg, err := config.LoadServer(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Options(serviceName))
	if err != nil {
		return err
	}
	defer log.Close()

	store, closeStore, err := newStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := relay.NewServer(*cfg, log, metrics.New(reg), store)
	if err := srv.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down relay")
		srv.Stop()
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(statusInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				logStatus(ctx, log, srv, store)
			}
		}
	})

	if cfg.MetricsAddr != "" {
		metricsSrv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			log.Info("metrics endpoint listening", logger.Field{Key: "addr", Value: cfg.MetricsAddr})
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}

			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	log.Info("relay stopped")
	return err
}

func newStore(cfg config.Store) (cacher.Cacher[relay.SessionRecord], func(), error) {
	switch cfg.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}

		return cacher.NewRedisCacher[relay.SessionRecord](client, "netpong:"), func() { _ = client.Close() }, nil
	default:
		return cacher.NewMemoryCacher[relay.SessionRecord](cfg.RecordTTL, 10*time.Minute), func() {}, nil
	}
}

func metricsMux(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

func logStatus(ctx context.Context, log logger.Logger, srv *relay.Server, store cacher.Cacher[relay.SessionRecord]) {
	st, err := srv.Status(ctx)
	if err != nil {
		return
	}

	fields := []logger.Field{
		{Key: "connections", Value: st.Connections},
		{Key: "active_sessions", Value: st.Sessions[relay.StateActive]},
		{Key: "resets", Value: st.Resets},
	}

	if n, err := store.ItemCount(ctx); err == nil {
		fields = append(fields, logger.Field{Key: "session_records", Value: n})
	}

	log.Info("relay status", fields...)
}
