package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yaml"

const (
	HistorySourceArtifact  = "artifact"
	HistorySourceSQL       = "sql"
	HistorySourceOpenMeteo = "open-meteo"
)

// Config is layered: defaults, then the YAML file, then environment variables
// (a .env file in the working directory is loaded into the environment first).
type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Model    ModelConfig    `yaml:"model"`
	History  HistoryConfig  `yaml:"history"`
	Database DatabaseConfig `yaml:"database"`
	Sentry   SentryConfig   `yaml:"sentry"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type AppConfig struct {
	Name    string `yaml:"name" envconfig:"NAME"`
	Version string `yaml:"version" envconfig:"VERSION"`
	Env     string `yaml:"env" envconfig:"ENV"`
}

// ServerConfig timeouts are in seconds.
type ServerConfig struct {
	Port         string `yaml:"port" envconfig:"PORT"`
	ReadTimeout  int    `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout int    `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout  int    `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// ModelConfig points at the persisted forecasting model and bounds the
// user supplied temperature override.
type ModelConfig struct {
	ArtifactPath       string  `yaml:"artifact_path" envconfig:"ARTIFACT_PATH"`
	DefaultTemperature float64 `yaml:"default_temperature" envconfig:"DEFAULT_TEMPERATURE"`
	MinTemperature     float64 `yaml:"min_temperature" envconfig:"MIN_TEMPERATURE"`
	MaxTemperature     float64 `yaml:"max_temperature" envconfig:"MAX_TEMPERATURE"`
}

type HistoryConfig struct {
	Source    string          `yaml:"source" envconfig:"SOURCE"`
	Query     string          `yaml:"query" envconfig:"QUERY"`
	OpenMeteo OpenMeteoConfig `yaml:"open_meteo"`
}

type OpenMeteoConfig struct {
	BaseURL   string  `yaml:"base_url" envconfig:"BASE_URL"`
	Latitude  float64 `yaml:"latitude" envconfig:"LATITUDE"`
	Longitude float64 `yaml:"longitude" envconfig:"LONGITUDE"`
	StartDate string  `yaml:"start_date" envconfig:"START_DATE"`
	EndDate   string  `yaml:"end_date" envconfig:"END_DATE"`
	Timeout   int     `yaml:"timeout" envconfig:"TIMEOUT"`
	RateLimit float64 `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	Burst     int     `yaml:"burst" envconfig:"BURST"`
}

type DatabaseConfig struct {
	Driver              string        `yaml:"driver" envconfig:"DRIVER"`
	DSN                 string        `yaml:"dsn" envconfig:"DSN"`
	MaxOpenConns        int           `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS"`
	MaxIdleConns        int           `yaml:"max_idle_conns" envconfig:"MAX_IDLE_CONNS"`
	ConnMaxLifetime     time.Duration `yaml:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME"`
	PoolMonitorInterval time.Duration `yaml:"pool_monitor_interval" envconfig:"POOL_MONITOR_INTERVAL"`
}

type SentryConfig struct {
	DSN   string `yaml:"dsn" envconfig:"DSN"`
	Debug bool   `yaml:"debug" envconfig:"DEBUG"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" envconfig:"ENABLED"`
	Namespace string `yaml:"namespace" envconfig:"NAMESPACE"`
}

// ConfigProvider loads and validates a Config.
type ConfigProvider interface {
	Load() (*Config, error)
	Validate(config *Config) error
}

// FileConfigProvider reads a YAML file. A missing file is not an error.
type FileConfigProvider struct {
	path string
}

func NewFileConfigProvider(path string) *FileConfigProvider {
	return &FileConfigProvider{path: path}
}

// NewConfig loads config/config.yaml, or the file named by CONFIG_PATH.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	path := defaultConfigPath
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		path = p
	}

	return NewConfigWithProvider(NewFileConfigProvider(path))
}

func NewConfigWithProvider(provider ConfigProvider) (*Config, error) {
	cnf, err := provider.Load()
	if err != nil {
		return nil, err
	}

	if err := provider.Validate(cnf); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cnf, nil
}

func (p *FileConfigProvider) Load() (*Config, error) {
	cnf := Defaults()

	if err := p.loadFromFile(cnf); err != nil {
		return nil, err
	}

	if err := envconfig.Process("", cnf); err != nil {
		return nil, fmt.Errorf("error environment variable parsing: %w", err)
	}

	return cnf, nil
}

func (p *FileConfigProvider) loadFromFile(cnf *Config) error {
	yamlData, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", p.path, err)
	}

	if err := yaml.Unmarshal(yamlData, cnf); err != nil {
		return fmt.Errorf("failed to parse YAML config %s: %w", p.path, err)
	}

	return nil
}

func (p *FileConfigProvider) Validate(cnf *Config) error {
	var errs []string

	if cnf.App.Name == "" {
		errs = append(errs, "app.name is required")
	}
	if cnf.Server.Port == "" {
		errs = append(errs, "server.port is required")
	}
	if cnf.Server.ReadTimeout <= 0 || cnf.Server.WriteTimeout <= 0 || cnf.Server.IdleTimeout <= 0 {
		errs = append(errs, "server timeouts must be positive")
	}

	switch strings.ToLower(cnf.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", cnf.Log.Level))
	}
	if cnf.Log.Format != "json" && cnf.Log.Format != "console" {
		errs = append(errs, fmt.Sprintf("log.format %q is not one of json, console", cnf.Log.Format))
	}

	m := cnf.Model
	if m.ArtifactPath == "" {
		errs = append(errs, "model.artifact_path is required")
	}
	if m.MinTemperature >= m.MaxTemperature {
		errs = append(errs, "model.min_temperature must be below model.max_temperature")
	}

	switch cnf.History.Source {
	case HistorySourceArtifact:
	case HistorySourceSQL:
		if cnf.History.Query == "" {
			errs = append(errs, "history.query is required for the sql source")
		}
		if cnf.Database.DSN == "" {
			errs = append(errs, "database.dsn is required for the sql source")
		}
	case HistorySourceOpenMeteo:
		om := cnf.History.OpenMeteo
		if om.BaseURL == "" || om.StartDate == "" || om.EndDate == "" {
			errs = append(errs, "history.open_meteo base_url, start_date and end_date are required")
		}
		if om.RateLimit <= 0 || om.Burst <= 0 {
			errs = append(errs, "history.open_meteo rate_limit and burst must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("history.source %q is not one of artifact, sql, open-meteo", cnf.History.Source))
	}

	switch cnf.Database.Driver {
	case "sqlite3", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not one of sqlite3, postgres", cnf.Database.Driver))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Defaults is the configuration used when neither file nor environment say otherwise.
func Defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:    "aqi-forecast",
			Version: "1.0.0",
			Env:     "development",
		},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  10,
			WriteTimeout: 10,
			IdleTimeout:  120,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Model: ModelConfig{
			ArtifactPath:       "models/aqi_model.json",
			DefaultTemperature: 28.0,
			MinTemperature:     15.0,
			MaxTemperature:     40.0,
		},
		History: HistoryConfig{
			Source: HistorySourceArtifact,
			Query:  "SELECT date, temperature FROM temperature_history ORDER BY date",
			OpenMeteo: OpenMeteoConfig{
				BaseURL:   "https://archive-api.open-meteo.com/v1/archive",
				Latitude:  2.5225,
				Longitude: 101.7963,
				Timeout:   30,
				RateLimit: 1,
				Burst:     1,
			},
		},
		Database: DatabaseConfig{
			Driver:              "sqlite3",
			DSN:                 "nafas.db",
			MaxOpenConns:        10,
			MaxIdleConns:        5,
			ConnMaxLifetime:     30 * time.Minute,
			PoolMonitorInterval: 10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "aqi_forecast",
		},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (s ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

func (s ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

func (s ServerConfig) IdleTimeoutDuration() time.Duration {
	return time.Duration(s.IdleTimeout) * time.Second
}
