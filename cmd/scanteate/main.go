package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"scanteate/internal/config"
	"scanteate/internal/jobs"
	"scanteate/internal/logger"
	"scanteate/internal/mongo"
	"scanteate/internal/mysql"
	"scanteate/internal/redis"
	"scanteate/internal/routing"
	"scanteate/pkg/activity"
	"scanteate/pkg/actsession"
	"scanteate/pkg/audit"
	"scanteate/pkg/auth"
	"scanteate/pkg/cache"
	"scanteate/pkg/emotion"
	"scanteate/pkg/password"
	"scanteate/pkg/session"
	"scanteate/pkg/user"
)

func main() {
	cfg, err := config.Load() // .env, then SCANTEATE_* env vars
	if err != nil {
		log.Fatal("config: ", err)
	}

	logger, err := logger.Load(cfg.Log)
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := mysql.LoadDB(ctx, cfg.MySQL.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	gdb, err := mysql.OpenGorm(db)
	if err != nil {
		return err
	}

	sessionCache, closeCache, err := loadCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	var auditRepo audit.Repository
	if cfg.Mongo.URI != "" {
		client, mongoDB, err := mongo.LoadDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		auditRepo = audit.NewMongoRepo(mongoDB)
		logger.Info("request auditing enabled", zap.String("database", cfg.Mongo.Database))
	}

	hasher, err := password.New(cfg.Password.Algorithm)
	if err != nil {
		return err
	}

	users := user.NewMySQLRepo(db)
	sessions := session.NewService(session.NewMySQLRepo(db), session.Config{
		TTL:          cfg.Session.TTL,
		RenewWithin:  cfg.Session.RenewWithin,
		SecretTokens: cfg.Session.SecretTokens,
		Cache:        sessionCache,
		CacheTTL:     cfg.Cache.TTL,
	}, logger)

	handler := routing.NewHandler(routing.Services{
		Sessions:    sessions,
		Auth:        auth.NewService(users, sessions, hasher, user.Role(cfg.Session.DefaultRole)),
		Users:       user.NewService(users, hasher, sessions),
		Activities:  activity.NewRepo(gdb),
		ActSessions: actsession.NewRepo(gdb),
		Emotions:    emotion.NewRepo(gdb),
		Audit:       auditRepo,
	}, cfg.Session.Header, cfg.Server.AllowedOrigins, logger)

	if cfg.Cron.Sweep != "" {
		sweeper, err := jobs.StartSweeper(cfg.Cron.Sweep, sessions, logger)
		if err != nil {
			return err
		}
		defer func() { <-sweeper.Stop().Done() }()
	}

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return routing.StartServer(ctx, srv, cfg.Server.ShutdownTimeout, logger)
}

// loadCache returns the configured session cache, or nil when caching is off.
func loadCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.Cache, func(), error) {
	switch cfg.Cache.Driver {
	case "memory":
		logger.Info("session cache enabled", zap.String("driver", "memory"), zap.Int("max_size", cfg.Cache.MaxSize))
		return cache.NewMemory(cfg.Cache.MaxSize), func() {}, nil
	case "redis":
		client, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("session cache enabled", zap.String("driver", "redis"), zap.String("addr", cfg.Redis.Addr))
		return cache.NewRedis(client, cfg.Session.TTL), func() { client.Close() }, nil
	case "", "none":
		return nil, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}
