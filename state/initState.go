package state

import (
	"context"
	"crypto/rsa"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/PI304/PinTalk-API/config"
)

// AppState bundles the shared backends every repo and service hangs off:
// Postgres for the durable store, Redis for the hot cache and job queue,
// and the public half of the auth keypair for verifying host tokens.
type AppState struct {
	Ctx       context.Context
	Cancel    context.CancelFunc
	DB        *gorm.DB
	Redis     *redis.Client
	JwtPublic *rsa.PublicKey
}

func InitAppState(ctx context.Context, cancel context.CancelFunc) (*AppState, error) {
	pgConf := config.Conf.DATABASE.Postgres
	rConf := config.Conf.DATABASE.Redis

	db, _, err := InitPostgres(pgConf.DSN, pgConf.MaxIdleConns, pgConf.MaxOpenConns)
	if err != nil {
		return nil, err
	}

	rdb, err := InitRedis(rConf.Addr, rConf.Password, 0, rConf.PoolSize)
	if err != nil {
		return nil, err
	}

	pubKey, err := InitSecret(config.Conf.AUTH.PublicKeyPath)
	if err != nil {
		return nil, err
	}

	return &AppState{
		Ctx:       ctx,
		Cancel:    cancel,
		DB:        db,
		Redis:     rdb,
		JwtPublic: pubKey,
	}, nil
}

func (a *AppState) Close() {
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			log.Info().Msg("Closing PostgreSQL database connection...")
			sqlDB.Close()
		}
	}

	if a.Redis != nil {
		log.Info().Msg("Closing Redis client...")
		if err := a.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis client")
		}
	}
}
