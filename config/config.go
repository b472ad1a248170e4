package config

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	AppName  string `mapstructure:"APP_NAME"`
	HTTPPort int    `mapstructure:"HTTP_PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	Currency string `mapstructure:"CURRENCY"`

	// PostgreSQL configuration
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         int    `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSL_MODE"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS"`

	// Event publishing. When disabled the services run with a no-op
	// publisher and no broker connection is attempted.
	EventsEnabled bool `mapstructure:"EVENTS_ENABLED"`

	// RabbitMQ configuration
	RabbitMQHost     string `mapstructure:"RABBITMQ_HOST"`
	RabbitMQPort     int    `mapstructure:"RABBITMQ_PORT"`
	RabbitMQUser     string `mapstructure:"RABBITMQ_USERNAME"`
	RabbitMQPassword string `mapstructure:"RABBITMQ_PASSWORD"`
	RabbitMQVHost    string `mapstructure:"RABBITMQ_VHOST"`
	RabbitMQExchange string `mapstructure:"RABBITMQ_EXCHANGE"`
}

func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("APP_NAME", "backoffice")
	viper.SetDefault("HTTP_PORT", 8080)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CURRENCY", "TND")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USER", "backoffice")
	viper.SetDefault("DB_PASSWORD", "backoffice")
	viper.SetDefault("DB_NAME", "backoffice_db")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)

	viper.SetDefault("EVENTS_ENABLED", false)

	viper.SetDefault("RABBITMQ_HOST", "localhost")
	viper.SetDefault("RABBITMQ_PORT", 5672)
	viper.SetDefault("RABBITMQ_USERNAME", "guest")
	viper.SetDefault("RABBITMQ_PASSWORD", "guest")
	viper.SetDefault("RABBITMQ_VHOST", "/")
	viper.SetDefault("RABBITMQ_EXCHANGE", "shop.events")

	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Info().Msg("No config file found, using environment variables and defaults.")
			err = nil
		} else {
			log.Error().Err(err).Msg("Error reading config file")
			return
		}
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	err = viper.Unmarshal(&config)
	return
}
