package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/marketdash/marketdash/feed"
	"github.com/marketdash/marketdash/logging"
	"github.com/marketdash/marketdash/pkg/config"
	"github.com/marketdash/marketdash/pkg/endpoint"
	"github.com/marketdash/marketdash/pkg/metrics"
	"github.com/marketdash/marketdash/pkg/service"
	httptransport "github.com/marketdash/marketdash/pkg/transport/http"
)

var version = "dev"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "dashboard API server",
	Long:  `Starts the HTTP server backing the stock market dashboard`,
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

func runServer() {
	logger := logging.SetupLogger(viper.GetString("LOG_FILE"))
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg := config.LoadConfig()

	dataFeed, err := feed.NewFeedConsumer(cfg.FeedProvider, feed.Options{
		Timeout:         cfg.FeedTimeout,
		AlphaVantageKey: cfg.AlphaVantageKey,
		LocalDataDir:    cfg.LocalDataDir,
	})
	if err != nil {
		logger.Fatal("failed to create data feed", zap.Error(err))
	}

	collector := metrics.NewSimpleMetricsCollector(logger)
	appMetrics := metrics.NewApplicationMetrics(collector, logger)

	svc := service.NewStockService(dataFeed, service.Options{
		QuoteCacheTTL:  cfg.QuoteCacheTTL,
		ChartCacheTTL:  cfg.ChartCacheTTL,
		SearchCacheTTL: cfg.SearchCacheTTL,
		SearchCacheMax: cfg.SearchCacheMax,
		TopMoversCount: cfg.TopMoversCount,
		FeedRetryMax:   cfg.FeedRetryMax,
	}, logger, appMetrics)
	health := service.NewHealthService(dataFeed, logger, version)

	endpoints := endpoint.MakeEndpoints(svc, health)
	handler := httptransport.NewHTTPHandler(endpoints, httptransport.HTTPConfig{
		RequestsPerSecond: cfg.RequestsPerSecond,
		BurstSize:         cfg.BurstSize,
		Logger:            logger,
		Metrics:           appMetrics,
	})

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: handler,
	}

	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.HTTPPort),
			zap.String("provider", cfg.FeedProvider))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	<-sigchan
	logger.Info("received termination signal, shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
