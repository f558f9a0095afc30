package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultPath is read when no --config flag is given. A missing default file
// is not an error; configuration then comes from the environment alone.
const DefaultPath = "config.json"

// Config represents the application's configuration structure.
type Config struct {
	Address  string `json:"address" mapstructure:"address"`
	LogLevel string `json:"log-level" mapstructure:"log-level"`

	DBDriver   string `json:"db-driver" mapstructure:"db-driver"`
	DBHost     string `json:"db-host" mapstructure:"db-host"`
	DBPort     int    `json:"db-port" mapstructure:"db-port"`
	DBUser     string `json:"db-user" mapstructure:"db-user"`
	DBPassword string `json:"db-password" mapstructure:"db-password"`
	DBName     string `json:"db-name" mapstructure:"db-name"`
	DBTLS      string `json:"db-tls" mapstructure:"db-tls"`
	DBPath     string `json:"db-path" mapstructure:"db-path"`

	TaxRate float64 `json:"tax-rate" mapstructure:"tax-rate"`

	RedisAddress string        `json:"redis-address" mapstructure:"redis-address"`
	CacheTTL     time.Duration `json:"cache-ttl" mapstructure:"cache-ttl"`

	AMQPURL        string `json:"amqp-url" mapstructure:"amqp-url"`
	EventsExchange string `json:"events-exchange" mapstructure:"events-exchange"`
}

// required when db-driver is mysql
var mysqlRequiredFields = []string{
	"db-host",
	"db-user",
	"db-name",
}

// field: default value
var optionalFields = map[string]interface{}{
	"address":         ":8081",
	"log-level":       "info",
	"db-driver":       "mysql",
	"db-port":         3306,
	"db-tls":          "",
	"db-path":         "pos.db",
	"db-password":     "",
	"tax-rate":        0.18,
	"redis-address":   "",
	"cache-ttl":       "30s",
	"amqp-url":        "",
	"events-exchange": "pos.events",
}

// InitConfig reads configuration from a JSON file and environment variables.
// Environment variables take precedence over the config file.
func InitConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("json")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	for field, defaultValue := range optionalFields {
		v.SetDefault(field, defaultValue)
	}
	for _, field := range mysqlRequiredFields {
		v.BindEnv(field)
	}

	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	} else if path != DefaultPath {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := config.validate(v); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate(v *viper.Viper) error {
	switch c.DBDriver {
	case "mysql":
		for _, field := range mysqlRequiredFields {
			if v.GetString(field) == "" {
				return fmt.Errorf("missing required config field: %s", field)
			}
		}
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("missing required config field: db-path")
		}
	default:
		return fmt.Errorf("unsupported db-driver %q", c.DBDriver)
	}
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		return fmt.Errorf("tax-rate must be in [0, 1), got %v", c.TaxRate)
	}
	return nil
}
