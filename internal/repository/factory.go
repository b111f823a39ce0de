package repository

import (
	"fmt"

	"github.com/fomoclub/liveroom/internal/config"
	"github.com/fomoclub/liveroom/internal/repository/memory"
	"github.com/fomoclub/liveroom/internal/repository/redis"
)

// New builds the repository selected by configuration.
func New(cfg *config.Config) (Repository, error) {
	switch cfg.Repository {
	case "", "memory":
		return memory.NewRepository(), nil
	case "redis":
		return redis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix)
	default:
		return nil, fmt.Errorf("unknown repository backend: %q", cfg.Repository)
	}
}
