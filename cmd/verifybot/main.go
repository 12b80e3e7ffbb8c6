package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/EgorLis/Verifybot/internal/bot"
	"github.com/EgorLis/Verifybot/internal/dcapi"
	"github.com/EgorLis/Verifybot/internal/gateway"
	"github.com/EgorLis/Verifybot/internal/keepalive"
	"github.com/EgorLis/Verifybot/internal/tracker"
)

func main() {
	zcfg := zap.NewProductionConfig()
	if os.Getenv("DEBUG") != "" {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	// missing token is the one fatal startup condition
	cfg, err := bot.LoadConfig()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	api := dcapi.New(cfg.APIURL, cfg.Token, logger)
	store := tracker.NewStore(cfg.StateFile, logger)
	tr := tracker.New(cfg.EarlyCap, store,
		bot.NewRewardGranter(api, cfg, logger), logger)

	b := bot.New(cfg, logger)
	b.SetClient(api)
	b.SetTracker(tr)
	b.SetGateway(gateway.New(cfg.GatewayURL, cfg.Token, logger))

	web := keepalive.New(cfg.Port, logger)
	web.Start()

	if err := b.Start(); err != nil {
		logger.Fatal("start bot", zap.Error(err))
	}
	defer b.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("running, press Ctrl+C to stop")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	web.Stop(shutdownCtx)
}
