package main

import (
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/mboehm/sizewatch/internal/config"
	"github.com/mboehm/sizewatch/internal/httpapi"
	"github.com/mboehm/sizewatch/internal/httpapi/middleware"
	"github.com/mboehm/sizewatch/internal/logging"
	"github.com/mboehm/sizewatch/internal/monitor"
	"github.com/mboehm/sizewatch/internal/notify"
	"github.com/mboehm/sizewatch/internal/repo/memory"
	"github.com/mboehm/sizewatch/internal/scheduler"
	"github.com/mboehm/sizewatch/internal/vendor"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, os.Getenv("LOG_CONSOLE") == "1")
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("config_invalid", zap.Error(err))
	}

	sinks := make(notify.Multi, 0, len(cfg.DiscordWebhooks))
	for _, u := range cfg.DiscordWebhooks {
		sinks = append(sinks, notify.NewDiscord(u))
	}
	alerts := notify.NewAlerts(sinks)

	client := vendor.NewClient(cfg.VendorBaseURL, vendor.Credentials{
		Headers:  cfg.VendorHeaders,
		Token:    cfg.AuthToken,
		ClientID: cfg.ClientID,
		CRMID:    cfg.CRMID,
	}, cfg.RequestTimeout, cfg.VendorRatePerSec, cfg.VendorBurst)

	mon := monitor.New(logger, client, alerts, cfg.CheckoutWindow)
	poller := scheduler.New(logger, cfg.PollInterval, mon.Tick)
	history := memory.New() // later: swap to a DB-backed store

	api := httpapi.NewServer(logger, mon, poller, client, alerts, history)
	api.Keys = middleware.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	api.APIRatePerMin = cfg.APIRatePerMin
	api.APIBurst = cfg.APIBurst

	logger.Info("api_listen",
		zap.String("addr", cfg.Addr),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Int("webhooks", len(sinks)),
	)
	if err := http.ListenAndServe(cfg.Addr, api.Router()); err != nil {
		log.Fatal(err)
	}
}
