package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sourcegraph/conc"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"socialgraph/config"
	"socialgraph/database"
	"socialgraph/handlers"
	"socialgraph/middleware"
	"socialgraph/push"
	"socialgraph/social"
	"socialgraph/utils"
	"socialgraph/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "socialgraph",
		Usage: "Friends, blacklist and presence service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.toml",
				Usage:   "Path to the TOML config file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP and websocket server",
				Action: func(ctx context.Context, c *cli.Command) error {
					return serve(ctx, c.String("config"))
				},
			},
			{
				Name:  "migrate",
				Usage: "Create the database tables",
				Action: func(ctx context.Context, c *cli.Command) error {
					return migrate(ctx, c.String("config"))
				},
			},
		},
	}

	return app.Run(ctx, os.Args)
}

func setup(path string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	logger, err := utils.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func migrate(ctx context.Context, path string) error {
	cfg, logger, err := setup(path)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CreateTables(ctx); err != nil {
		return err
	}
	logger.Info("Database tables are up to date", zap.String("driver", cfg.Database.Driver))
	return nil
}

func serve(ctx context.Context, path string) error {
	cfg, logger, err := setup(path)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CreateTables(ctx); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tokens := utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLDuration())
	hub := websocket.NewHub(tokens, logger)
	users := database.NewUserRepository(db)
	devices := database.NewDeviceTokenRepository(db)

	opts := []social.Option{
		social.WithTeleporter(hub),
		social.WithMetrics(social.NewMetrics(registry)),
	}
	if cfg.Push.Enabled {
		client, err := push.NewFCMClient(ctx, cfg.Push.CredentialsFile)
		if err != nil {
			return err
		}
		opts = append(opts, social.WithNotifier(push.NewNotifier(client, devices, cfg.Messages.ColorPrefix, logger)))
		logger.Info("Push notifications enabled")
	}

	svc := social.NewService(
		cfg.Social,
		cfg.Messages,
		database.NewFriendshipRepository(db),
		database.NewBlacklistRepository(db),
		hub,
		hub,
		logger,
		opts...,
	)
	hub.SetListener(svc)

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.NewHTTPMetrics(registry).Middleware())
		r.GET(cfg.Metrics.Path,
			middleware.BasicAuth(cfg.Metrics.User, cfg.Metrics.Password),
			gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "online": hub.OnlineCount()})
	})
	r.GET("/ws", hub.HandleWebSocket)

	api := r.Group("")
	api.Use(limiter.Middleware())
	handlers.New(users, devices, svc, hub, tokens, logger).RegisterRoutes(api, middleware.AuthMiddleware(tokens))

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var serveErr error
	var wg conc.WaitGroup
	wg.Go(func() { hub.Run(ctx) })
	wg.Go(func() { svc.RunSweeper(ctx, cfg.Social.SweepEvery()) })
	wg.Go(func() { limiter.Cleanup(ctx) })
	wg.Go(func() {
		logger.Info("Server starting", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server failed: %w", err)
			cancel()
		}
	})

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown did not complete", zap.Error(err))
	}

	wg.Wait()
	return serveErr
}
