package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultDatabase = "data.db"

	envConfig    = "WORKSFORME_CONFIG"
	envToken     = "WORKSFORME_TOKEN"
	envDatabase  = "WORKSFORME_DB"
	envBotName   = "WORKSFORME_BOT_NAME"
	envLogLevel  = "WORKSFORME_LOG_LEVEL"
	envLogFormat = "WORKSFORME_LOG_FORMAT"
)

var ErrMissingToken = errors.New("bot access token is required")

type Config struct {
	Token    string        `toml:"token"`
	Database string        `toml:"database"`
	BotName  string        `toml:"bot_name"` // resolved from Telegram when empty
	Logging  LoggingConfig `toml:"logging"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

func defaults() Config {
	return Config{
		Database: DefaultDatabase,
		Logging:  LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load builds the configuration from, in increasing priority: defaults, the
// TOML file named by WORKSFORME_CONFIG, the environment (a .env file in the
// working directory fills in unset variables), and the positional arguments
// <token> [database] [bot name].
func Load(args []string) (Config, error) {
	cfg := defaults()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("reading .env: %w", err)
	}

	if path := os.Getenv(envConfig); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	overrideFromEnv(&cfg.Token, envToken)
	overrideFromEnv(&cfg.Database, envDatabase)
	overrideFromEnv(&cfg.BotName, envBotName)
	overrideFromEnv(&cfg.Logging.Level, envLogLevel)
	overrideFromEnv(&cfg.Logging.Format, envLogFormat)

	positional := []*string{&cfg.Token, &cfg.Database, &cfg.BotName}
	for i, arg := range args {
		if i >= len(positional) {
			return Config{}, fmt.Errorf("unexpected argument %q", arg)
		}
		if arg != "" {
			*positional[i] = arg
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overrideFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func (c Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if c.Database == "" {
		return errors.New("database path must not be empty")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}
