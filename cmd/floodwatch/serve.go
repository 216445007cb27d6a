package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/mr1hm/go-flood-alerts/internal/api"
	"github.com/mr1hm/go-flood-alerts/internal/auth"
	"github.com/mr1hm/go-flood-alerts/internal/config"
	"github.com/mr1hm/go-flood-alerts/internal/events"
	"github.com/mr1hm/go-flood-alerts/internal/ingestion"
	"github.com/mr1hm/go-flood-alerts/internal/logging"
	"github.com/mr1hm/go-flood-alerts/internal/models"
	"github.com/mr1hm/go-flood-alerts/internal/notify"
	"github.com/mr1hm/go-flood-alerts/internal/repository"
	"github.com/mr1hm/go-flood-alerts/internal/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.Open(cfg.DB)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	revoked, closeRevoked := revocationStore(ctx, cfg.Redis)
	defer closeRevoked()

	publisher := eventPublisher(cfg)
	defer publisher.Close()

	// Live alert stream for SSE clients
	broadcaster := stream.NewBroadcaster()

	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.SMTP.Enabled() {
		mailer = notify.NewSMTPMailer(cfg.SMTP)
	}
	var sms notify.SMSSender = notify.LogSMS{}
	if cfg.Twilio.Enabled() {
		sms = notify.NewTwilioSender(cfg.Twilio)
	}

	mgr := ingestion.NewManager(cfg, db, publisher)
	mgr.Start(ctx)

	floods := repository.NewFloodTable(db)
	handler := api.NewHandler(api.Deps{
		Alerts:        db,
		Subscriptions: db,
		AlertLogs:     db,
		Users:         db,
		Reports:       db,
		Floods:        floods,
		Resources: []api.ResourceRoutes{
			api.TableRoutes("resources", repository.NewTable[models.Resource](db, "resources")),
			api.TableRoutes("locations", repository.NewTable[models.Location](db, "locations")),
			api.TableRoutes("demographics", repository.NewTable[models.Demographics](db, "demographics")),
			api.TableRoutes("healthcare", repository.NewTable[models.Healthcare](db, "healthcare")),
			api.TableRoutes("floods", floods),
			api.TableRoutes("responders", repository.NewTable[models.Responder](db, "responders")),
			api.TableRoutes("generated-reports", repository.NewTable[models.GeneratedReport](db, "generated reports")),
		},
		Sessions:    auth.NewSessions(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, revoked),
		Dispatcher:  notify.NewDispatcher(db, db, db, mailer, sms, publisher),
		Broadcaster: broadcaster,
		Publisher:   publisher,
		Uploads: api.UploadConfig{
			Dir:      cfg.HTTP.UploadDir,
			MaxBytes: int64(cfg.HTTP.MaxUploadMB) << 20,
		},
	})

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.MaxMultipartMemory = int64(cfg.HTTP.MaxUploadMB) << 20
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.HTTP.CORSOrigins)))
	router.Use(api.RequestLogger())
	router.Use(api.RateLimitMiddleware(cfg.HTTP.RateLimitRPS))

	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	mgr.Stop()
	broadcaster.Close() // ends open SSE streams

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
	}
	if len(origins) == 1 && origins[0] == "*" {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}

// revocationStore keeps logged-out tokens in redis when REDIS_ADDR is set so
// every instance sees them, and in process memory otherwise.
func revocationStore(ctx context.Context, cfg config.RedisConfig) (auth.RevocationStore, func()) {
	if cfg.Addr == "" {
		return auth.NewMemoryStore(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logging.Fatalf("Failed to connect to redis at %s: %v", cfg.Addr, err)
	}

	slog.Info("token revocation backed by redis", "addr", cfg.Addr)
	return auth.NewRedisStore(client), func() {
		if err := client.Close(); err != nil {
			slog.Warn("error closing redis client", "error", err)
		}
	}
}

func eventPublisher(cfg *config.Config) events.Publisher {
	if cfg.AMQP.URL == "" {
		return events.NopPublisher{}
	}
	p, err := events.DialAMQP(cfg.AMQP, cfg.Worker.BufferSize)
	if err != nil {
		logging.Fatalf("Failed to connect to message broker: %v", err)
	}
	slog.Info("publishing domain events", "exchange", cfg.AMQP.Exchange)
	return p
}
