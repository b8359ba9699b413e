package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"schedule.db"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`

	// Бот не запускается, если токен не задан
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramDebug bool   `env:"TELEGRAM_DEBUG" envDefault:"false"`

	BaseDirectorChatID   int64  `env:"BASE_DIRECTOR_CHAT_ID"`
	BaseDirectorUsername string `env:"BASE_DIRECTOR_USERNAME" envDefault:"director"`
}

var instance *Config
var once sync.Once

func GetConfig() *Config {
	once.Do(func() {
		cfg, err := Load(".env")
		if err != nil {
			logrus.Fatalf("error loading config: %s", err.Error())
		}
		instance = &cfg
	})

	return instance
}

// Load читает .env (если он есть) и переменные окружения
func Load(envPath string) (Config, error) {
	var cfg Config

	err := godotenv.Load(envPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.DBDriver != DriverSQLite && cfg.DBDriver != DriverPostgres {
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("could not get db url")
	}

	return cfg, nil
}

func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// NewLogger создает логгер с уровнем и форматом из конфига
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
