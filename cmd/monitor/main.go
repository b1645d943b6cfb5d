package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"streakwatch/config"
	"streakwatch/internal/metrics"
	"streakwatch/internal/quotex/monitor"
	"streakwatch/logger"
	"streakwatch/pkg/quotex"
	"streakwatch/pkg/storage/memory"
	"streakwatch/pkg/storage/postgres"
	"streakwatch/pkg/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	if failed := cfg.ResolveSecrets(); len(failed) > 0 {
		log.Warn("failed to read parameters from SSM", zap.Strings("params", failed))
	}
	for _, key := range cfg.Missing() {
		log.Warn("missing configuration", zap.String("env", key))
	}
	for _, fix := range cfg.Sanitize() {
		log.Warn("invalid configuration replaced by default", zap.String("detail", fix))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var options []monitor.Option

	// prometheus
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		options = append(options, monitor.WithMetrics(metrics.NewRecorder(reg)))
		srv := metrics.Serve(cfg.Metrics.Addr, reg, log)
		defer srv.Close()
		log.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))
	}

	// alert journal: postgres when enabled, in-process otherwise
	var journal monitor.Journal
	if cfg.Postgres.Enabled {
		pg, err := postgres.InitializeAndMigrateAlertRecord(cfg.Postgres, cfg.Log.Environment)
		if err != nil {
			log.Warn("postgres alert journal unavailable, keeping alerts in memory", zap.Error(err))
		} else {
			defer pg.Close()
			journal = pg
		}
	}
	if journal == nil {
		mem := memory.NewMemoryJournal(memory.DefaultJournalCapacity)
		defer func() { log.Info("alerts sent this session", zap.Int("count", mem.Total())) }()
		journal = mem
	}
	options = append(options, monitor.WithJournal(journal))

	session := quotex.NewSession(quotex.SessionConfig{
		Email:    cfg.Quotex.Email,
		Password: cfg.Quotex.Password,
		BaseURL:  cfg.Quotex.REST.BaseURL,
		Timeout:  cfg.Quotex.REST.Timeout,
		WSURL:    cfg.Quotex.WS.URL,
		Period:   cfg.Monitor.Timeframe,
	}, log)
	defer session.Close()

	notifier := telegram.New(telegram.Options{
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
		BaseURL:  cfg.Telegram.BaseURL,
		Timeout:  cfg.Telegram.Timeout,
	}, log)

	m := monitor.New(session, notifier, log, monitor.Options{
		Timeframe:    cfg.Monitor.Timeframe,
		Cooldown:     cfg.Monitor.Cooldown(),
		PollInterval: cfg.Monitor.PollEvery(),
	}, options...)

	// run monitor
	if err := m.Run(ctx); err != nil {
		log.Error("monitor failed to start", zap.Error(err))
		return
	}
}
