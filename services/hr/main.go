package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-hr-management-system/shared/audit"
	"github.com/pavitra93/go-hr-management-system/shared/config"
	"github.com/pavitra93/go-hr-management-system/shared/store"
	"github.com/pavitra93/go-hr-management-system/shared/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	cfg, err := config.GetAppConfig()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}
	config.ConfigureLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if cfg.AutoMigrate {
		if err := store.Migrate(db); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
	}

	// Redis and Kafka are optional; the service runs without them
	var cache *utils.PrincipalCache
	if cfg.RedisEnabled() {
		cache, err = utils.NewPrincipalCache(ctx, utils.RedisOptions{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.PrincipalCacheTTL)
		if err != nil {
			logrus.WithError(err).Warn("Principal cache disabled")
			cache = nil
		}
	}
	defer cache.Close()

	var sink audit.Sink
	if cfg.KafkaEnabled() {
		exporter, err := audit.NewKafkaExporter(audit.KafkaExporterConfig{
			Broker: cfg.KafkaBroker,
			Topic:  cfg.KafkaAuditTopic,
		})
		if err != nil {
			log.Fatal("Failed to initialize audit exporter:", err)
		}
		defer exporter.Close()
		sink = exporter
	}

	svc, err := newHRService(
		store.New(db),
		audit.NewLogger(sink),
		utils.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL),
		cache,
		cfg.BcryptCost,
	)
	if err != nil {
		log.Fatal("Failed to initialize HR service:", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(svc, cfg.AllowedOrigin),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"port":      cfg.Port,
			"token_ttl": svc.tokens.TTL().String(),
		}).Info("HR service starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start HR service:", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down HR service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
}
