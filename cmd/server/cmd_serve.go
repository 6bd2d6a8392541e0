package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wecare-alerts/internal/alert"
	"wecare-alerts/internal/platform/mailer"
	"wecare-alerts/internal/predict"
	"wecare-alerts/internal/profile"
	"wecare-alerts/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openHistory(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	engine, err := newEngine(cfg, store, log)
	if err != nil {
		return err
	}

	renderer, err := alert.NewRenderer(cfg.Alert.DashboardURL)
	if err != nil {
		return err
	}
	profiles := profile.NewClient(cfg.Profile.BaseURL, cfg.Profile.Timeout, cfg.Profile.Retries, log)
	mail := mailer.NewClient(mailer.Options{
		BaseURL: cfg.Mail.BaseURL,
		APIKey:  cfg.Mail.APIKey,
		From:    cfg.Mail.From,
		Timeout: cfg.Mail.Timeout,
		Retries: cfg.Mail.RetryCount,
	}, log)
	if cfg.Mail.APIKey == "" {
		log.Warn("MAIL_API_KEY is not set; the mail provider will likely reject alerts")
	}
	fanout := alert.NewFanout(profiles, mail, renderer, alert.Options{
		Concurrency:     cfg.Mail.Concurrency,
		LookupTimeout:   cfg.Profile.Timeout,
		DispatchTimeout: cfg.Mail.Timeout,
	}, log)

	svc := predict.NewService(engine, store, fanout, log)
	router := server.NewRouter(log)
	predict.RegisterRoutes(router, predict.NewHandler(svc, log))

	srv := server.NewServer(":"+cfg.Server.Port, router, server.Timeouts{
		Read:  cfg.Server.ReadTimeout,
		Write: cfg.Server.WriteTimeout,
		Idle:  cfg.Server.IdleTimeout,
	}, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
