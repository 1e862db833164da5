package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"campusattend/internal/attendance"
	"campusattend/internal/biometric"
	"campusattend/internal/config"
	"campusattend/internal/handler"
	"campusattend/internal/notify"
	"campusattend/internal/queue"
	"campusattend/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DBDriver, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	repo := attendance.NewRepository(db.Client)
	notifications := notify.NewRepository(db.Client)

	var opts []attendance.Option
	if !cfg.BiometricSkip {
		bio := biometric.New(cfg.BiometricServiceURL, false)
		if err := bio.Health(ctx); err != nil {
			log.Printf("warning: biometric service not available: %v", err)
		}
		opts = append(opts, attendance.WithVerifier(bio))
	}

	checks := map[string]func(context.Context) bool{"db": db.Healthy}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		mem := queue.NewInMemory(256)
		q = mem
		// No separate worker can see an in-process queue, so deliver from here.
		dispatcher := notify.NewDispatcher(notifications, notify.NewPushClient(cfg.PushGatewayURL, cfg.PushGatewayKey))
		go func() {
			if err := dispatcher.Run(ctx, mem); err != nil {
				log.Printf("dispatcher stopped: %v", err)
			}
		}()
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.NotifyQueueKey)
		checks["redis"] = redisClient.Healthy
	}

	h := handler.New(handler.Deps{
		CheckIns: attendance.NewService(repo, repo, opts...),
		Catalog:  attendance.NewCatalog(repo),
		Records:  repo,
		Notify:   notify.NewService(notifications, q),
		Checks:   checks,
	})
	r := handler.Router(h, handler.RouterConfig{
		SigningKey:      cfg.JWTSigningKey,
		Issuer:          cfg.JWTIssuer,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s (db=%s, queue=%s)", cfg.HTTPPort, db.Dialect, cfg.QueueBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}

	log.Println("server exited")
	return nil
}
