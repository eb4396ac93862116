package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode        string        `mapstructure:"mode"`
	Port        int           `mapstructure:"port"`
	StaticPath  string        `mapstructure:"static_path"`
	ReadLimit   int64         `mapstructure:"read_limit"`
	PingPeriod  time.Duration `mapstructure:"ping_period"`
	PongWait    time.Duration `mapstructure:"pong_wait"`
	WriteWait   time.Duration `mapstructure:"write_wait"`
	SendBuffer  int           `mapstructure:"send_buffer"`
	Secret      string        `mapstructure:"secret"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
	LogLevel    string        `mapstructure:"log_level"`
	MetricsPath string        `mapstructure:"metrics_path"`

	RoomCodeLength int     `mapstructure:"room_code_length"`
	MaxMessageLen  int     `mapstructure:"max_message_len"`
	IntentRate     float64 `mapstructure:"intent_rate"`
	IntentBurst    int     `mapstructure:"intent_burst"`
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

	v.SetEnvPrefix("TUNE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Strs("cors_origins", cfg.CORSOrigins).Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("secret", "tune-dev-secret")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_path", "/metrics")
	v.SetDefault("room_code_length", 6)
	v.SetDefault("max_message_len", 1000)
	v.SetDefault("intent_rate", 20)
	v.SetDefault("intent_burst", 40)
}

var ErrInvalidConfig = errors.New("invalid config")

func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.Port)
	case c.PingPeriod <= 0:
		return fmt.Errorf("%w: ping_period must be positive", ErrInvalidConfig)
	case c.PongWait <= c.PingPeriod:
		return fmt.Errorf("%w: pong_wait (%s) must exceed ping_period (%s)", ErrInvalidConfig, c.PongWait, c.PingPeriod)
	case c.WriteWait <= 0:
		return fmt.Errorf("%w: write_wait must be positive", ErrInvalidConfig)
	case c.ReadLimit <= 0 || c.SendBuffer <= 0:
		return fmt.Errorf("%w: read_limit and send_buffer must be positive", ErrInvalidConfig)
	case c.IntentRate <= 0 || c.IntentBurst <= 0:
		return fmt.Errorf("%w: intent_rate and intent_burst must be positive", ErrInvalidConfig)
	}
	return nil
}

// AllowOrigin reports whether a browser origin may connect. An empty list
// or a "*" entry allows everything.
func (c *Config) AllowOrigin(origin string) bool {
	if len(c.CORSOrigins) == 0 {
		return true
	}
	for _, o := range c.CORSOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
