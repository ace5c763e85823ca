package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

var (
	ErrInvalidFormat = errors.New("invalid output format")
	ErrInvalidDriver = errors.New("invalid database driver")
)

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Dice     DiceConfig     `mapstructure:"dice"`
	Output   OutputConfig   `mapstructure:"output"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type DiceConfig struct {
	Presses   int  `mapstructure:"presses"`
	Number    int  `mapstructure:"number"`
	Randomize bool `mapstructure:"randomize"`
	Faces     int  `mapstructure:"faces"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

const (
	DriverMemory   = "memory"
	DriverGorm     = "gorm"
	DriverPostgres = "postgres"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("dice.presses", 3)
	v.SetDefault("dice.number", 4)
	v.SetDefault("dice.randomize", false)
	v.SetDefault("dice.faces", 6)
	v.SetDefault("output.format", "text")
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":8081")
	v.SetDefault("server.metrics_address", "")
	v.SetDefault("database.driver", DriverMemory)
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "dicebox")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "dicebox")
	v.SetDefault("database.postgres.sslmode", "disable")
}

// LoadConfig reads config.yaml from path. A missing file is not an error; the
// defaults and DICEBOX_* environment variables apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("dicebox")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot check by itself.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("%w: %q (allowed: text, json, yaml)", ErrInvalidFormat, c.Output.Format)
	}
	switch c.Database.Driver {
	case DriverMemory, DriverGorm, DriverPostgres:
	default:
		return fmt.Errorf("%w: %q (allowed: memory, gorm, postgres)", ErrInvalidDriver, c.Database.Driver)
	}
	if c.Dice.Presses < 0 {
		return fmt.Errorf("dice.presses must be >= 0, got %d", c.Dice.Presses)
	}
	if c.Dice.Number < 1 || c.Dice.Number > 255 {
		return fmt.Errorf("dice.number must be in [1, 255], got %d", c.Dice.Number)
	}
	if c.Dice.Randomize && (c.Dice.Faces < 1 || c.Dice.Faces > 255) {
		return fmt.Errorf("dice.faces must be in [1, 255], got %d", c.Dice.Faces)
	}
	return nil
}

// DSN builds a lib/pq keyword/value connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}
