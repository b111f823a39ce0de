package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode   string `mapstructure:"mode"`
	Port   int    `mapstructure:"port"`
	Secret string `mapstructure:"secret"`

	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`

	// PresenceGrace is how long a silent push connection may idle before
	// the participant is marked disconnected. Presence only: role and
	// queue position are never touched by the sweeper.
	PresenceGrace time.Duration `mapstructure:"presence_grace"`

	ChatHistoryLimit int           `mapstructure:"chat_history_limit"`
	QueueLimit       int           `mapstructure:"queue_limit"`
	ChatRateLimit    int           `mapstructure:"chat_rate_limit"`
	ChatRateWindow   time.Duration `mapstructure:"chat_rate_window"`

	Repository     string `mapstructure:"repository"`
	RedisAddr      string `mapstructure:"redis_addr"`
	RedisPassword  string `mapstructure:"redis_password"`
	RedisDB        int    `mapstructure:"redis_db"`
	RedisKeyPrefix string `mapstructure:"redis_key_prefix"`

	RelayTimeout time.Duration `mapstructure:"relay_timeout"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("presence_grace", "90s")
	v.SetDefault("chat_history_limit", 100)
	v.SetDefault("queue_limit", 10)
	v.SetDefault("chat_rate_limit", 10)
	v.SetDefault("chat_rate_window", "10s")
	v.SetDefault("repository", "memory")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_key_prefix", "liveroom:")
	v.SetDefault("relay_timeout", "5s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Repository: %s\n", cfg.Mode, cfg.Port, cfg.Repository)
	return &cfg, nil
}
