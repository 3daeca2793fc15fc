package redis

import (
	"context"

	"collaborative-canvas/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// InitRedis connects to the Presence Store. A nil client is returned when
// Redis is unreachable; callers fall back to the in-memory store.
func InitRedis() *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: config.AppConfig.RedisAddress,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		log.Warn().Err(err).Msg("Redis not available. Running without Redis.")
		return nil
	}

	log.Info().Str("addr", config.AppConfig.RedisAddress).Msg("Redis connected successfully")
	return client
}
