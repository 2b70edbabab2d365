// Command lobd runs the limit order book daemon: a single-instrument
// matching engine behind a newline-delimited TCP protocol, with executed
// trades appended to a CSV log.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tickforge/limitbook"
	"github.com/tickforge/limitbook/config"
	"github.com/tickforge/limitbook/server"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to the YAML config file")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" || os.Getenv("CONFIG_FILE") != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			zap.NewExample().Fatal("load config", zap.Error(err))
		}
		cfg = loaded
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("init logger", zap.Error(err))
	}
	defer logger.Sync()

	recorder, err := limitbook.NewCSVTradeRecorder(cfg.TradeLog)
	if err != nil {
		logger.Fatal("open trade log", zap.String("path", cfg.TradeLog), zap.Error(err))
	}
	defer recorder.Close()

	book := limitbook.NewOrderBook(recorder, nil)

	srv := server.New(server.Config{
		Addr:             cfg.ListenAddr,
		MaxSnapshotDepth: cfg.MaxSnapshotDepth,
	}, book, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}

	stats := book.Stats()
	logger.Info("shutdown complete",
		zap.Int64("resting_bids", stats.BidOrderCount),
		zap.Int64("resting_asks", stats.AskOrderCount))
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
