package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riskscope/riskscope/internal/config"
	"github.com/riskscope/riskscope/internal/history"
	"github.com/riskscope/riskscope/internal/scoring"
	"github.com/riskscope/riskscope/internal/server/handler"
	"github.com/riskscope/riskscope/pkg/provider"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	if err := run(logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	// ── Configuration ────────────────────────────────────────────────────────
	viper.SetConfigName("riskscope")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("server.rate_limit_rps", 20)
	viper.SetDefault("server.auth_secret", "")
	viper.SetDefault("provider.base_url", "https://api.example-provider.com/gateway/1.0/api")
	viper.SetDefault("provider.api_key", "")
	viper.SetDefault("provider.customer_id", "")
	viper.SetDefault("provider.rate_limit_rps", 5.0)
	viper.SetDefault("database.url", "")

	if err := viper.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgNotFound) {
			return fmt.Errorf("read config: %w", err)
		}
		logger.Warn("no config file found, using defaults and env vars")
	}

	// ── Scoring configuration ────────────────────────────────────────────────
	scoreCfg := config.Default()
	if viper.IsSet("scoring") {
		if err := viper.UnmarshalKey("scoring", scoreCfg); err != nil {
			return fmt.Errorf("decode scoring config: %w", err)
		}
	}

	composer, err := scoring.NewComposer(scoreCfg)
	if err != nil {
		return fmt.Errorf("invalid scoring config: %w", err)
	}
	logger.Info("scoring engine ready",
		zap.String("formula_version", scoreCfg.FormulaVersion),
		zap.Bool("active_only", scoreCfg.ActiveOnly),
	)

	// ── Provider client ──────────────────────────────────────────────────────
	client, err := provider.New(
		viper.GetString("provider.base_url"),
		viper.GetString("provider.api_key"),
		viper.GetString("provider.customer_id"),
		provider.WithRateLimit(viper.GetFloat64("provider.rate_limit_rps")),
	)
	if err != nil {
		return fmt.Errorf("provider client: %w", err)
	}

	// ── Score history store ──────────────────────────────────────────────────
	var store history.Store
	if dbURL := viper.GetString("database.url"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}

		pgStore := history.NewPostgresStore(pool, logger)
		if err := pgStore.Migrate(context.Background()); err != nil {
			return err
		}
		store = pgStore
		logger.Info("score history: postgres")
	} else {
		store = history.NewMemoryStore()
		logger.Info("score history: in-memory (set database.url for durability)")
	}

	scoreHandler := handler.NewScoreHandler(composer, client, store, logger)

	// ── HTTP Router ───────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	corsOrigins := viper.GetStringSlice("server.cors_origins")
	router.Use(cors.New(cors.Config{
		AllowOrigins:  corsOrigins,
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	// Security headers
	router.Use(func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	if rps := viper.GetInt("server.rate_limit_rps"); rps > 0 {
		router.Use(handler.RateLimiter(rps, rps*2))
	}
	router.Use(handler.PrometheusMiddleware())
	router.Use(requestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", handler.MetricsHandler())

	authSecret := viper.GetString("server.auth_secret")
	if authSecret == "" {
		logger.Warn("server.auth_secret is empty — API runs in open mode")
	}

	v1 := router.Group("/api/v1")
	v1.Use(handler.RequireToken(authSecret))
	scoreHandler.Register(v1)

	// ── Serve with graceful shutdown ──────────────────────────────────────────
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", viper.GetInt("server.port")),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("riskscope API listening", zap.Int("port", viper.GetInt("server.port")))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}

// requestLogger returns a Gin middleware that logs each request with zap.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
