package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	DBDriver    string
	DBDSN       string
	LogFile     string
	LogLevel    string
	CORSOrigins string
	TokenTTL    time.Duration
	RateLimit   int
	ServiceName string
	Env         string
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "smartdeals.db") // sqlite file in project root
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("token_ttl", "24h")
	v.SetDefault("rate_limit", 120)
	v.SetDefault("service_name", "smartdeals")
	v.SetDefault("env", "dev")
}

// Load reads defaults, then the optional config file, then environment
// variables (PORT, DB_DSN, ...), later sources winning.
func Load(file string) (Config, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config %s: %w", file, err)
			}
		}
	}

	cfg := Config{
		Port:        v.GetString("port"),
		DBDriver:    v.GetString("db_driver"),
		DBDSN:       v.GetString("db_dsn"),
		LogFile:     v.GetString("log_file"),
		LogLevel:    v.GetString("log_level"),
		CORSOrigins: v.GetString("cors_origins"),
		TokenTTL:    v.GetDuration("token_ttl"),
		RateLimit:   v.GetInt("rate_limit"),
		ServiceName: v.GetString("service_name"),
		Env:         v.GetString("env"),
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("token_ttl must be positive, got %s", v.GetString("token_ttl"))
	}
	return cfg, nil
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
