package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type RateLimit struct {
	Frames int           `mapstructure:"frames" validate:"gte=0"`
	Window time.Duration `mapstructure:"window"`
}

type Config struct {
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release"`
	Port            int           `mapstructure:"port" validate:"gte=1,lte=65535"`
	Secret          string        `mapstructure:"secret" validate:"required"`
	ReadLimit       int64         `mapstructure:"read_limit" validate:"gt=0"`
	PingPeriod      time.Duration `mapstructure:"ping_period"`
	Verbose         bool          `mapstructure:"verbose"`
	MaxConnsPerUser int           `mapstructure:"max_conns_per_user" validate:"gte=0"`
	EchoToSender    bool          `mapstructure:"echo_to_sender"`
	RateLimit       RateLimit     `mapstructure:"rate_limit"`
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

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("secret", "huddle-dev-secret")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("verbose", false)
	v.SetDefault("max_conns_per_user", 0)
	v.SetDefault("echo_to_sender", true)
	v.SetDefault("rate_limit.frames", 0)
	v.SetDefault("rate_limit.window", "10s")
}
