package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrEmptyToken   = errors.New("error getting BW_TELEGRAM_TOKEN: variable not specified or contains an empty string")
	ErrEmptyBaseURL = errors.New("error getting BW_BASE_URL: variable not specified or contains an empty string")
)

type Config struct {
	Env         string // Env is the current environment: local, dev, prod.
	BaseURL     string // BaseURL is the root URL of the crawled catalog site.
	StoragePath string // StoragePath is the sqlite database file location.
	Tg          Telegram
	Crawl       Crawl
}

type Telegram struct {
	Token   string        // Token is an unique telegram bot token.
	Timeout time.Duration // Timeout is a poller timeout duration.
}

type Crawl struct {
	Interval   time.Duration // Interval is the scheduling period between crawl runs.
	PageDelay  time.Duration // PageDelay is the politeness delay between page fetches.
	RetryLimit int           // RetryLimit is the number of fetch attempts before a failure is fatal.
	Timeout    time.Duration // Timeout bounds a single page fetch.
}

// MustLoad loads the configuration from environment variables and returns a Config struct.
func MustLoad() *Config {
	// Automatically binds environment variables to config keys
	viper.SetEnvPrefix("BW")
	viper.AutomaticEnv()

	// optional args
	viper.SetDefault("ENV", "production")
	viper.SetDefault("STORAGE_PATH", "book-watch.db")
	viper.SetDefault("TELEGRAM_TIMEOUT", "15s")
	viper.SetDefault("CRAWL_INTERVAL", "60m")
	viper.SetDefault("PAGE_DELAY", "1s")
	viper.SetDefault("FETCH_RETRY_LIMIT", 3)
	viper.SetDefault("FETCH_TIMEOUT", "30s")

	if viper.GetString("TELEGRAM_TOKEN") == "" {
		panic(ErrEmptyToken)
	}
	if viper.GetString("BASE_URL") == "" {
		panic(ErrEmptyBaseURL)
	}

	return &Config{
		Env:         viper.GetString("ENV"),
		BaseURL:     viper.GetString("BASE_URL"),
		StoragePath: viper.GetString("STORAGE_PATH"),
		Tg: Telegram{
			Token:   viper.GetString("TELEGRAM_TOKEN"),
			Timeout: viper.GetDuration("TELEGRAM_TIMEOUT"),
		},
		Crawl: Crawl{
			Interval:   viper.GetDuration("CRAWL_INTERVAL"),
			PageDelay:  viper.GetDuration("PAGE_DELAY"),
			RetryLimit: viper.GetInt("FETCH_RETRY_LIMIT"),
			Timeout:    viper.GetDuration("FETCH_TIMEOUT"),
		},
	}
}
