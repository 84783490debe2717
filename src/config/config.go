package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Databases DatabasesConfig `mapstructure:"databases"`
	Reports   ReportsConfig   `mapstructure:"reports"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	AWS       AWSConfig       `mapstructure:"aws"`
}

type ServiceType string

const (
	API    ServiceType = "API"
	WORKER ServiceType = "WORKER"
)

type ServiceConfig struct {
	Type           ServiceType   `mapstructure:"type"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
	CORSOrigins    []string      `mapstructure:"corsOrigins"`
}

type DatabasesConfig struct {
	SQL   SQLConfig   `mapstructure:"sql"`
	Redis RedisConfig `mapstructure:"redis"`
}

type SQLConfig struct {
	Host             string `mapstructure:"host"`
	Port             string `mapstructure:"port"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	Driver           string `mapstructure:"driver"`
	Database         string `mapstructure:"database"`
	ConnectionString string `mapstructure:"connection_string"`
	MaxConns         int32  `mapstructure:"maxConns"`
	MinConns         int32  `mapstructure:"minConns"`
	// PasswordSecretID names an AWS Secrets Manager secret holding the password.
	PasswordSecretID string `mapstructure:"passwordSecretId"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
	TLS      bool   `mapstructure:"tls"`
}

type ReportsConfig struct {
	CacheTTL time.Duration `mapstructure:"cacheTTL"`
}

type SchedulerConfig struct {
	HistorySnapshotCron string `mapstructure:"historySnapshotCron"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	ToFile   bool   `mapstructure:"toFile"`
	FilePath string `mapstructure:"filePath"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DSN builds the Postgres connection string, preferring an explicit connection string.
func (c SQLConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host,
		c.Username,
		c.Password,
		c.Database,
		c.Port)
}

// LoadConfig reads appsettings.yaml from path and, when env is not empty, merges
// appsettings.<env>.yaml on top of it. Environment variables override both,
// e.g. DATABASES_SQL_PASSWORD for databases.sql.password.
func LoadConfig(path string, env string) (*Config, error) {
	// A missing .env is the normal case outside local development.
	if err := godotenv.Load(filepath.Join(path, "..", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("appsettings")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	if env != "" {
		v.SetConfigName("appsettings." + env)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.type", string(API))
	v.SetDefault("service.port", "8088")
	v.SetDefault("service.readTimeout", 30*time.Second)
	v.SetDefault("service.writeTimeout", 30*time.Second)
	v.SetDefault("service.requestTimeout", 10*time.Second)
	v.SetDefault("service.corsOrigins", []string{"*"})
	v.SetDefault("databases.sql.driver", DriverPostgres)
	v.SetDefault("databases.sql.maxConns", 10)
	v.SetDefault("databases.sql.minConns", 1)
	v.SetDefault("scheduler.historySnapshotCron", "0 18 * * 1-5")
	v.SetDefault("logging.level", "info")
	v.SetDefault("aws.region", "us-east-1")
}

func (c *Config) validate() error {
	switch c.Service.Type {
	case API, WORKER:
	default:
		return fmt.Errorf("unknown service type %q", c.Service.Type)
	}
	switch c.Databases.SQL.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported sql driver %q", c.Databases.SQL.Driver)
	}
	return nil
}

// Env returns the ENV variable used to pick the settings overlay.
func Env() string {
	return os.Getenv("ENV")
}
