// Package bootstrap assembles the runtime from configuration: persistence,
// restored store state, the save outbox, media storage and services.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bitsconnect/internal/app"
	"bitsconnect/internal/config"
	"bitsconnect/internal/database"
	"bitsconnect/internal/identity"
	"bitsconnect/internal/media"
	"bitsconnect/internal/observability"
	"bitsconnect/internal/persistence"
	"bitsconnect/internal/service"
	"bitsconnect/internal/store"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Runtime is a fully wired instance of the application core.
type Runtime struct {
	Config   *config.Config
	Store    *store.Store
	Port     persistence.Port
	Outbox   *persistence.Outbox
	Storage  *media.DiskStorage
	Services app.Services
	Tokens   *identity.Tokens
	DB       *gorm.DB
	Redis    *redis.Client
}

// Options control runtime initialization behavior.
type Options struct {
	// BcryptCost overrides the password hashing cost. Zero uses the default.
	BcryptCost int
}

// InitRuntime connects the configured backend, restores the store from it
// and starts the outbox that saves later changes back.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{Config: cfg}

	var creds identity.CredentialStore
	switch cfg.PersistenceDriver {
	case config.DriverMemory:
		rt.Port = persistence.NewMemoryPort()
		creds = identity.NewMemoryCredentials()
	case config.DriverSQLite, config.DriverPostgres:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		rt.DB = db
		rt.Port = persistence.NewGormPort(db)
		creds = identity.NewGormCredentials(db)
	case config.DriverRedis:
		client, err := ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		rt.Redis = client
		rt.Port = persistence.NewRedisPort(client, persistence.DefaultRedisPrefix)
		creds = identity.NewRedisCredentials(client, "")
	default:
		return nil, fmt.Errorf("unknown persistence driver %q", cfg.PersistenceDriver)
	}

	// Rate limits use Redis whenever it is reachable, whatever the driver.
	if rt.Redis == nil && cfg.RedisURL != "" {
		client, err := ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			observability.Logger.Warn("Redis unavailable, rate limits fail open", slog.String("error", err.Error()))
		} else {
			rt.Redis = client
		}
	}

	return rt.wire(ctx, creds, opts), nil
}

// NewRuntime wires a runtime around an existing port and credential store.
func NewRuntime(ctx context.Context, cfg *config.Config, port persistence.Port, creds identity.CredentialStore, opts Options) *Runtime {
	rt := &Runtime{Config: cfg, Port: port}
	return rt.wire(ctx, creds, opts)
}

func (rt *Runtime) wire(ctx context.Context, creds identity.CredentialStore, opts Options) *Runtime {
	cfg := rt.Config
	rt.Store = store.New()
	persistence.Restore(ctx, rt.Port, rt.Store)
	rt.Outbox = persistence.NewOutbox(rt.Port, rt.Store)
	rt.Outbox.Start(ctx)

	rt.Storage = media.NewDiskStorage(cfg)
	provider := identity.NewLocal(creds, opts.BcryptCost)
	users := service.NewUserService(rt.Store, provider, rt.Storage, cfg)
	rt.Services = app.Services{
		Posts: service.NewPostService(rt.Store, rt.Storage),
		Chat:  service.NewChatService(rt.Store, cfg.AllowSelfMessages),
		Users: users,
		Auth:  service.NewAuthService(rt.Store, users, provider),
	}
	rt.Tokens = identity.NewTokens(cfg.JWTSecret, 0)
	return rt
}

// Ready pings the persistence backend.
func (rt *Runtime) Ready(ctx context.Context) error {
	switch {
	case rt.DB != nil:
		sqlDB, err := rt.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	case rt.Config.PersistenceDriver == config.DriverRedis && rt.Redis != nil:
		return rt.Redis.Ping(ctx).Err()
	default:
		return nil
	}
}

// Close drains the outbox and releases connections. A Redis client the
// server already closed is skipped.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Outbox != nil {
		if err := rt.Outbox.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("final flush: %w", err))
		}
	}
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
	}
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
