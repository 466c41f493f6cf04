package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/cache"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/catalog"
	h "github.com/Pellowyink/Crafted-Commune-WebBased/internal/http"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/mailer"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/publisher"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/repository"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/service"
)

type Config struct {
	HTTPPort        string
	CatalogPath     string
	RatingBaseURL   string
	RedisAddr       string
	KafkaBrokers    []string
	EnableEmails    bool
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	DBHost        string
	DBPort        int
	DBUser        string
	DBPassword    string
	DBName        string
	MigrationsDir string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		CatalogPath:     getEnv("CATALOG_PATH", "config/catalog.yaml"),
		RatingBaseURL:   getEnv("RATING_BASE_URL", "http://localhost:8080/api/v1"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		EnableEmails:    getEnv("ENABLE_EMAILS", "false") == "true",
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnvInt("DB_PORT", 5432),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "cafe"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@cafe.local"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Crafted Commune"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	cred := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsDir,
	}
	repo, err := repository.NewRepository(cred)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(cred); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	menu, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	memberCache := cache.NewRedisCache(redisClient)

	checkoutSvc := service.NewCheckoutService(repo, menu, cfg.RatingBaseURL)
	memberSvc := service.NewMemberService(repo, memberCache)
	ratingSvc := service.NewRatingService(repo)

	var mail mailer.Mailer = mailer.DisabledMailer{}
	if cfg.EnableEmails {
		mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		})
	}

	pollerCtx, stopPoller := context.WithCancel(context.Background())
	poller := publisher.NewOutboxPoller(repo, mail, cfg.KafkaBrokers...)
	go poller.Run(pollerCtx)

	checkoutHandler := h.NewCheckoutHandler(memberSvc, checkoutSvc, cfg.RequestTimeout)
	ratingHandler := h.NewRatingHandler(ratingSvc, cfg.RequestTimeout)
	catalogHandler := h.NewCatalogHandler(menu)
	adminHandler := h.NewAdminHandler(repo, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout", checkoutHandler.Handle)

		r.Get("/rate", ratingHandler.GetPage)
		r.Post("/rate", ratingHandler.Submit)

		r.Get("/catalog", catalogHandler.List)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/stock", adminHandler.UpdateStock)
			r.Get("/members", adminHandler.ListMembers)
			r.Get("/rating-links", adminHandler.ListRatingLinks)
			r.Get("/ratings", adminHandler.RatingSummary)
			r.Post("/cutoffs", adminHandler.CreateCutoff)
			r.Get("/cutoffs", adminHandler.ListCutoffs)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("cafe server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPoller()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
