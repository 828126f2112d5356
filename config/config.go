package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppConfig struct {
	App struct {
		Name string `mapstructure:"NAME"`
		Port string `mapstructure:"PORT"`
	}

	DATABASE struct {
		Postgres struct {
			DSN          string `mapstructure:"URL"`
			MaxIdleConns int    `mapstructure:"MAX_IDLE_CONNS"`
			MaxOpenConns int    `mapstructure:"MAX_OPEN_CONNS"`
		}
		Redis struct {
			Addr     string `mapstructure:"ADDR"`
			Password string `mapstructure:"PASSWORD"`
			PoolSize int    `mapstructure:"POOL_SIZE"`
		}
	}

	CHAT struct {
		BacklogWindow    time.Duration `mapstructure:"BACKLOG_WINDOW"`
		BacklogLimit     int           `mapstructure:"BACKLOG_LIMIT"`
		MaxMessageLen    int           `mapstructure:"MAX_MESSAGE_LEN"`
		HandshakeTimeout time.Duration `mapstructure:"HANDSHAKE_TIMEOUT"`
		PinLimit         int           `mapstructure:"PIN_LIMIT"`
		WorkerCount      int           `mapstructure:"WORKER_COUNT"`
	}

	AUTH struct {
		PublicKeyPath string `mapstructure:"PUBLIC_KEY_PATH"`
	}
}

var Conf *AppConfig

func LoadConfig() error {
	viper.SetConfigName("application")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("PINTALK")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("DATABASE.POSTGRES.MAX_IDLE_CONNS", 10)
	viper.SetDefault("DATABASE.POSTGRES.MAX_OPEN_CONNS", 100)
	viper.SetDefault("DATABASE.REDIS.POOL_SIZE", 50)
	viper.SetDefault("CHAT.BACKLOG_WINDOW", 1944*time.Hour)
	viper.SetDefault("CHAT.BACKLOG_LIMIT", 50)
	viper.SetDefault("CHAT.MAX_MESSAGE_LEN", 1000)
	viper.SetDefault("CHAT.HANDSHAKE_TIMEOUT", 5*time.Second)
	viper.SetDefault("CHAT.PIN_LIMIT", 5)
	viper.SetDefault("CHAT.WORKER_COUNT", 5)
	viper.SetDefault("AUTH.PUBLIC_KEY_PATH", "public.pem")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	var config AppConfig
	if err := viper.Unmarshal(&config); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	Conf = &config
	log.Info().Msg("configuration loaded...")
	return nil
}
