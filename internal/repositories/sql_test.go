package repositories

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqi-forecast/config"
	"aqi-forecast/internal/forecaster"
	"aqi-forecast/internal/models"
	"aqi-forecast/pkg/database"
	"aqi-forecast/pkg/metrics"
	"aqi-forecast/pkg/observe"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), database.Config{
		Driver:       "sqlite3",
		DSN:          "file:repositories?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}, observe.NewZapLogger("test-app", io.Discard), metrics.NewCollector("test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range []string{
		`DROP TABLE IF EXISTS temperatures`,
		`CREATE TABLE temperatures (date TEXT, temperature REAL)`,
		`INSERT INTO temperatures (date, temperature) VALUES
			('2024-03-01', 27.5),
			('2024-03-02 00:00:00', 28.0),
			('2024-03-03', NULL),
			('garbage', 30.0)`,
		`DROP TABLE IF EXISTS aqi_data`,
		`CREATE TABLE aqi_data (id INTEGER PRIMARY KEY, city TEXT, date TEXT, aqi INTEGER)`,
		`INSERT INTO aqi_data (id, city, date, aqi) VALUES
			(1, 'Penang', '2025-03-02', 48),
			(2, 'Port Dickson', '2025-03-01', 112),
			(3, 'Penang', '2025-03-01', 51)`,
	} {
		_, err := db.Unwrap().Exec(stmt)
		require.NoError(t, err)
	}

	return db
}

func TestSQLHistoryRepository_LoadObservations(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLHistoryRepository(db, `SELECT date, temperature FROM temperatures`, observe.NewZapLogger("test-app", io.Discard))

	got, err := repo.LoadObservations(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "sql", repo.Name())
	assert.Equal(t, []models.Observation{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Temperature: 27.5},
		{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Temperature: 28.0},
	}, got)
}

func TestSQLHistoryRepository_BadQuery(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLHistoryRepository(db, `SELECT date, temperature FROM nowhere`, observe.NewZapLogger("test-app", io.Discard))

	_, err := repo.LoadObservations(context.Background())
	assert.Error(t, err)
}

func TestSQLReadingRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLReadingRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	cities, err := repo.Cities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Penang", "Port Dickson"}, cities)

	all, err := repo.Readings(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(2), all[0].ID)
	assert.Equal(t, int64(3), all[1].ID)
	assert.Equal(t, int64(1), all[2].ID)

	penang, err := repo.Readings(ctx, "Penang")
	require.NoError(t, err)
	assert.Equal(t, []models.AQIReading{
		{ID: 3, City: "Penang", Date: "2025-03-01", AQI: 51},
		{ID: 1, City: "Penang", Date: "2025-03-02", AQI: 48},
	}, penang)

	none, err := repo.Readings(ctx, "Ipoh")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSQLReadingRepository_ClosedDB(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLReadingRepository(db)
	require.NoError(t, db.Close())

	assert.Error(t, repo.Ping(context.Background()))
}

func TestParseDBDate(t *testing.T) {
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	for _, v := range []any{
		"2024-02-29",
		"2024-02-29T13:45:00Z",
		[]byte("2024-02-29"),
		time.Date(2024, 2, 29, 13, 45, 0, 0, time.UTC),
	} {
		got, err := parseDBDate(v)
		require.NoError(t, err, "%v", v)
		assert.True(t, want.Equal(got), "%v parsed as %v", v, got)
	}

	for _, v := range []any{"", "29/02/2024", 42, nil} {
		_, err := parseDBDate(v)
		assert.Error(t, err, "%v", v)
	}
}

func TestInitHistoryRepository(t *testing.T) {
	l := observe.NewZapLogger("test-app", io.Discard)
	artifact, err := forecaster.LoadArtifact("../forecaster/testdata/artifact.json")
	require.NoError(t, err)

	cfg := config.Defaults()

	cfg.History.Source = config.HistorySourceArtifact
	repo, err := InitHistoryRepository(cfg, artifact, nil, l)
	require.NoError(t, err)
	assert.Equal(t, "artifact", repo.Name())

	observations, err := repo.LoadObservations(context.Background())
	require.NoError(t, err)
	assert.Len(t, observations, len(artifact.History))

	_, err = InitHistoryRepository(cfg, nil, nil, l)
	assert.Error(t, err)

	cfg.History.Source = config.HistorySourceSQL
	_, err = InitHistoryRepository(cfg, artifact, nil, l)
	assert.Error(t, err)

	repo, err = InitHistoryRepository(cfg, nil, openTestDB(t), l)
	require.NoError(t, err)
	assert.Equal(t, "sql", repo.Name())

	cfg.History.Source = config.HistorySourceOpenMeteo
	repo, err = InitHistoryRepository(cfg, nil, nil, l)
	require.NoError(t, err)
	assert.Equal(t, "open-meteo", repo.Name())

	cfg.History.Source = "csv"
	_, err = InitHistoryRepository(cfg, nil, nil, l)
	assert.Error(t, err)
}
