package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eleven-am/live-commentary/internal/settings"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ProvideRedisClient returns nil unless settings are kept in redis.
func ProvideRedisClient(lc fx.Lifecycle, cfg *Config) *redis.Client {
	if cfg.SettingsBackend != SettingsBackendRedis {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}

// ProvideDatabase returns nil unless settings are kept in postgres.
func ProvideDatabase(cfg *Config) (*gorm.DB, error) {
	if cfg.SettingsBackend != SettingsBackendPostgres {
		return nil, nil
	}
	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN is required for the %s settings backend", SettingsBackendPostgres)
	}
	return gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func ProvideSettingsStore(cfg *Config, rdb *redis.Client, db *gorm.DB, log *slog.Logger) (settings.Store, error) {
	switch cfg.SettingsBackend {
	case SettingsBackendRedis:
		return settings.NewRedisStore(rdb), nil
	case SettingsBackendPostgres:
		return settings.NewGormStore(db), nil
	case SettingsBackendMemory:
		log.Warn("settings are kept in memory and will not survive a restart")
		return settings.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown SETTINGS_BACKEND %q", cfg.SettingsBackend)
	}
}

func RunMigrations(store settings.Store) error {
	if gs, ok := store.(*settings.GormStore); ok {
		return gs.Migrate()
	}
	return nil
}

var InfrastructureModule = fx.Options(
	fx.Provide(
		ProvideRedisClient,
		ProvideDatabase,
		ProvideSettingsStore,
	),
	fx.Invoke(RunMigrations),
)
