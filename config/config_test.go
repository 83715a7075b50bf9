package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	// Test with default values (without config file)
	provider := NewFileConfigProvider("nonexistent.yaml")
	config, err := NewConfigWithProvider(provider)
	require.NoError(t, err)
	assert.NotNil(t, config)

	assert.Equal(t, "aqi-forecast", config.App.Name)
	assert.Equal(t, "1.0.0", config.App.Version)
	assert.Equal(t, "development", config.App.Env)
	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, 10*time.Second, config.Server.ReadTimeoutDuration())
	assert.Equal(t, 120*time.Second, config.Server.IdleTimeoutDuration())
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, 28.0, config.Model.DefaultTemperature)
	assert.Equal(t, 15.0, config.Model.MinTemperature)
	assert.Equal(t, 40.0, config.Model.MaxTemperature)
	assert.Equal(t, HistorySourceArtifact, config.History.Source)
	assert.Equal(t, "sqlite3", config.Database.Driver)
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	t.Setenv("APP_NAME", "test-app")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MODEL_DEFAULT_TEMPERATURE", "27.5")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_CONN_MAX_LIFETIME", "5m")
	t.Setenv("HISTORY_OPENMETEO_LATITUDE", "3.139")

	provider := NewFileConfigProvider("nonexistent.yaml")
	config, err := NewConfigWithProvider(provider)
	require.NoError(t, err)

	assert.Equal(t, "test-app", config.App.Name)
	assert.Equal(t, "production", config.App.Env)
	assert.Equal(t, "9090", config.Server.Port)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, 27.5, config.Model.DefaultTemperature)
	assert.Equal(t, "postgres", config.Database.Driver)
	assert.Equal(t, 5*time.Minute, config.Database.ConnMaxLifetime)
	assert.Equal(t, 3.139, config.History.OpenMeteo.Latitude)
	assert.False(t, config.IsDevelopment())
}

func TestConfigFileLoading(t *testing.T) {
	config, err := NewConfigWithProvider(NewFileConfigProvider("config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "models/aqi_model.json", config.Model.ArtifactPath)
	assert.Equal(t, "2020-01-01", config.History.OpenMeteo.StartDate)
	assert.Equal(t, 10*time.Second, config.Database.PoolMonitorInterval)
	assert.Equal(t, "nafas.db", config.Database.DSN)
}

func TestConfigFileOverriddenByEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: from-file\nserver:\n  port: \"7000\"\n"), 0o600))

	t.Setenv("SERVER_PORT", "7001")

	config, err := NewConfigWithProvider(NewFileConfigProvider(path))
	require.NoError(t, err)

	assert.Equal(t, "from-file", config.App.Name)
	assert.Equal(t, "7001", config.Server.Port)
	// untouched sections keep their defaults
	assert.Equal(t, 10, config.Server.ReadTimeout)
}

func TestFileConfigProvider_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [unterminated"), 0o600))

	_, err := NewConfigWithProvider(NewFileConfigProvider(path))
	assert.Error(t, err)
}

func TestFileConfigProvider_LoadFromFile(t *testing.T) {
	provider := NewFileConfigProvider("nonexistent.yaml")
	config := &Config{}

	// Test loading from non-existent file (should not error)
	err := provider.loadFromFile(config)
	assert.NoError(t, err)
}

func TestConfigValidation(t *testing.T) {
	provider := NewFileConfigProvider("nonexistent.yaml")

	assert.NoError(t, provider.Validate(Defaults()))

	invalid := Defaults()
	invalid.App.Name = ""
	err := provider.Validate(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.name is required")

	invalid = Defaults()
	invalid.Model.MinTemperature = 40
	err = provider.Validate(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model.min_temperature")

	invalid = Defaults()
	invalid.History.Source = "csv"
	err = provider.Validate(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history.source")

	invalid = Defaults()
	invalid.History.Source = HistorySourceOpenMeteo
	err = provider.Validate(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start_date")

	invalid = Defaults()
	invalid.Log.Level = "verbose"
	invalid.Log.Format = "logfmt"
	invalid.Database.Driver = "mysql"
	err = provider.Validate(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "log.format")
	assert.Contains(t, err.Error(), "database.driver")
}

func TestConfigHelperMethods(t *testing.T) {
	config := Defaults()

	assert.True(t, config.IsDevelopment())
	assert.Equal(t, 10*time.Second, config.Server.WriteTimeoutDuration())
}

func TestNewConfigWithProvider(t *testing.T) {
	mockProvider := &MockConfigProvider{config: Defaults()}
	mockProvider.config.App.Name = "test-app"

	config, err := NewConfigWithProvider(mockProvider)
	require.NoError(t, err)
	assert.Equal(t, "test-app", config.App.Name)

	failing := &MockConfigProvider{err: errors.New("boom")}
	_, err = NewConfigWithProvider(failing)
	assert.Error(t, err)
}

// MockConfigProvider for testing
type MockConfigProvider struct {
	config *Config
	err    error
}

func (m *MockConfigProvider) Load() (*Config, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.config, nil
}

func (m *MockConfigProvider) Validate(config *Config) error {
	return nil
}
