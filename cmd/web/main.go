package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/screwyprof/lnisp/pkg/coindesk"
	"github.com/screwyprof/lnisp/pkg/logger"
	"github.com/screwyprof/lnisp/pkg/mempool"
	"github.com/screwyprof/lnisp/web/config"
	"github.com/screwyprof/lnisp/web/handler"
	"github.com/screwyprof/lnisp/web/nodelist"
	"github.com/screwyprof/lnisp/web/page"
	"github.com/screwyprof/lnisp/web/session"
)

var (
	version = "dev"
	date    = "unknown"
)

func main() {
	// Load configuration
	cfg := config.New()

	// Initialize logger and set as default
	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	// Prepare context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoContext(ctx, "Lightning ISP explorer starting",
		slog.String("version", version),
		slog.String("date", date),
	)

	loc, err := cfg.Location()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load display timezone", slog.Any("error", err))
		os.Exit(1)
	}

	// HTTP client & upstream clients
	httpClient := &http.Client{Timeout: cfg.HttpClientTimeout}
	mempoolClient := mempool.NewClient(httpClient, cfg.MempoolAPIURL)
	coindeskClient := coindesk.NewClient(httpClient, cfg.CoindeskAPIURL)

	// Session registry
	registry := session.NewRegistry(
		nodelist.NewMempoolNodes(mempoolClient),
		nodelist.NewCoindeskRates(coindeskClient),
		session.WithTTL(cfg.SessionTTL),
		session.WithSweepInterval(cfg.SweepInterval),
		session.WithLogger(log),
		session.WithSubscribers(func(id uuid.UUID) []nodelist.SubscriberOption {
			return eventLogging(ctx, log.With(slog.String("session", id.String())))
		}),
	)

	registryDone := make(chan struct{})
	go func() {
		defer close(registryDone)
		registry.Run(ctx)
	}()

	// Create HTTP server
	mux := http.NewServeMux()

	nodeListHandler := handler.NewNodeListPage(registry, page.NewRenderer(loc, cfg.TimestampLayout), cfg.DefaultASN,
		handler.WithLogger(log),
	)
	nodeListHandler.AddRoutes(mux)

	// Wrap with logging middleware
	loggedMux := logger.NewMiddleware(log)(mux)

	// Create server address
	addr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)

	server := &http.Server{
		Addr:    addr,
		Handler: loggedMux,
	}

	// Start server in a goroutine
	go func() {
		log.InfoContext(ctx, "Server started", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.ErrorContext(ctx, "Server failed to start", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	log.InfoContext(ctx, "Shutting down server...")

	// Closing sessions ends live connections, which Shutdown does not track
	<-registryDone

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(ctx, "Server forced to shutdown", slog.Any("error", err))
		os.Exit(1)
	}

	log.InfoContext(ctx, "Server exited gracefully")
}

// eventLogging configures view event handlers using slog directly
func eventLogging(ctx context.Context, log *slog.Logger) []nodelist.SubscriberOption {
	return []nodelist.SubscriberOption{
		nodelist.OnNodesRequested(func(event nodelist.NodesRequested) {
			log.DebugContext(ctx, "Nodes requested",
				slog.Uint64("seq", event.Seq),
				slog.String("asn", event.ASN),
			)
		}),
		nodelist.OnNodesReplaced(func(event nodelist.NodesReplaced) {
			log.InfoContext(ctx, "Nodes replaced",
				slog.Uint64("seq", event.Seq),
				slog.String("asn", event.ASN),
				slog.Int("count", event.Count),
				slog.Int64("capacity", event.Totals.Capacity),
				slog.Int64("channels", event.Totals.Channels),
				slog.Duration("duration", event.Duration),
			)
		}),
		nodelist.OnNodesDiscarded(func(event nodelist.NodesDiscarded) {
			log.DebugContext(ctx, "Stale nodes response discarded",
				slog.Uint64("seq", event.Seq),
				slog.Uint64("latest", event.Latest),
				slog.String("asn", event.ASN),
			)
		}),
		nodelist.OnNodesFetchFailed(func(event nodelist.NodesFetchFailed) {
			log.ErrorContext(ctx, "Nodes fetch failed",
				slog.Uint64("seq", event.Seq),
				slog.String("asn", event.ASN),
				slog.Any("error", event.Err),
			)
		}),
		nodelist.OnRateFetched(func(event nodelist.RateFetched) {
			log.InfoContext(ctx, "Price fetched",
				slog.String("rate", event.Rate.String()),
				slog.Duration("duration", event.Duration),
			)
		}),
		nodelist.OnRateFetchFailed(func(event nodelist.RateFetchFailed) {
			log.ErrorContext(ctx, "Price fetch failed", slog.Any("error", event.Err))
		}),
	}
}
