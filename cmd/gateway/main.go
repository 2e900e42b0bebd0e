package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Dongwon38/wpyvr-sub000/internal/config"
	"github.com/Dongwon38/wpyvr-sub000/internal/contact"
	"github.com/Dongwon38/wpyvr-sub000/internal/email"
	"github.com/Dongwon38/wpyvr-sub000/internal/gateway"
	"github.com/Dongwon38/wpyvr-sub000/internal/health"
	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
	"github.com/Dongwon38/wpyvr-sub000/pkg/htmltext"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	if err := run(logger); err != nil {
		logger.Fatal("gateway exited with error", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	// ── Configuration ────────────────────────────────────────────────────────
	cfg, err := config.Load(config.Options{Name: "gateway", File: os.Getenv("WPYVR_CONFIG")}, logger)
	if err != nil {
		return err
	}

	// ── Content client ───────────────────────────────────────────────────────
	opts := append(cfg.ClientOptions(logger), client.WithObserver(gateway.RecordUpstream))
	if cfg.Gateway.SanitizeContent {
		opts = append(opts, client.WithSanitizer(htmltext.NewSanitizer().Sanitize))
		logger.Info("rich content sanitizing enabled")
	}
	cms, err := client.New(cfg.WP.BaseURL, opts...)
	if err != nil {
		return fmt.Errorf("content client: %w", err)
	}
	logger.Info("content client ready",
		zap.String("base_url", cms.BaseURL()),
		zap.String("hub_url", cms.HubURL()),
		zap.Bool("cache", cfg.Cache.Enabled),
	)

	// ── Email Sender ──────────────────────────────────────────────────────────
	var mailer email.Sender
	if cfg.Email.SMTPHost != "" {
		mailer = email.NewSMTPSender(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPass,
			cfg.Email.FromAddress,
		)
		logger.Info("SMTP email sender configured", zap.String("host", cfg.Email.SMTPHost))
	} else {
		mailer = email.NewNoopSender(logger)
		logger.Info("email sender: noop (set email.smtp_host to enable SMTP)")
	}

	var contactSvc *contact.Service
	if cfg.Contact.ToAddress != "" {
		contactSvc = contact.NewService(mailer, cfg.Contact.ToAddress, logger)
	} else {
		logger.Warn("contact.to_address not set; contact form disabled")
	}

	// ── Upstream health ──────────────────────────────────────────────────────
	checker := health.New([]health.Target{
		{Name: "cms", URL: cms.BaseURL() + "/wp-json/"},
		{Name: "hub", URL: cms.HubURL() + "/wp-json/"},
	}, health.Config{CheckInterval: cfg.Gateway.ProbeInterval}, logger)
	checker.SetMetricsRecord(gateway.RecordHealthCheck)

	// ── HTTP Router ───────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gateway.NewRouter(gateway.RouterConfig{
		CMS:          cms,
		Contact:      contactSvc,
		Health:       checker,
		CORSOrigins:  cfg.Gateway.CORSOrigins,
		RateLimitRPS: cfg.Gateway.RateLimitRPS,
		Logger:       logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go checker.Start(ctx)

	// ── Background: purge expired cache entries every 5 minutes ──────────────
	if cfg.Cache.Enabled {
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if n := cms.PurgeExpired(); n > 0 {
						logger.Debug("response cache purged", zap.Int("entries", n))
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Gateway.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("gateway HTTP listening", zap.Int("port", cfg.Gateway.Port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP listen error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ──────────────────────────────────────────────────────
	<-ctx.Done()
	logger.Info("shutting down gateway...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	logger.Info("gateway stopped")
	return nil
}
