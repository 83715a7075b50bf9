package repositories

import (
	"context"
	"fmt"
	"time"

	"aqi-forecast/internal/models"
	"aqi-forecast/pkg/database"
	"aqi-forecast/pkg/observe"
)

// SQLHistoryRepository reads (date, temperature) rows with a configured query.
type SQLHistoryRepository struct {
	db    *database.DB
	query string
	l     *observe.Logger
}

func NewSQLHistoryRepository(db *database.DB, query string, l *observe.Logger) *SQLHistoryRepository {
	return &SQLHistoryRepository{db: db, query: query, l: l}
}

func (s *SQLHistoryRepository) Name() string {
	return "sql"
}

// historyRow accepts dates stored either as text or as timestamps.
type historyRow struct {
	Date        any      `db:"date"`
	Temperature *float64 `db:"temperature"`
}

func (s *SQLHistoryRepository) LoadObservations(ctx context.Context) ([]models.Observation, error) {
	var rows []historyRow
	if err := s.db.SelectContext(ctx, "load_history", &rows, s.query); err != nil {
		return nil, fmt.Errorf("failed to load temperature history: %w", err)
	}

	out := make([]models.Observation, 0, len(rows))
	skipped := 0
	for _, r := range rows {
		if r.Temperature == nil {
			skipped++
			continue
		}
		date, err := parseDBDate(r.Date)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, models.Observation{Date: date, Temperature: *r.Temperature})
	}

	s.l.Info("loaded temperature history", map[string]any{
		"rows":    len(rows),
		"kept":    len(out),
		"skipped": skipped,
	})

	return out, nil
}

func parseDBDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return models.Day(d), nil
	case string:
		return parseDateString(d)
	case []byte:
		return parseDateString(string(d))
	}
	return time.Time{}, fmt.Errorf("unsupported date value %T", v)
}

func parseDateString(s string) (time.Time, error) {
	if len(s) >= len(models.DateLayout) {
		if d, err := models.ParseDay(s[:len(models.DateLayout)]); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// ReadingRepository reads recorded AQI values.
type ReadingRepository interface {
	Ping(ctx context.Context) error
	Cities(ctx context.Context) ([]string, error)
	Readings(ctx context.Context, city string) ([]models.AQIReading, error)
}

// SQLReadingRepository reads the aqi_data(id, city, date, aqi) table.
type SQLReadingRepository struct {
	db *database.DB
}

func NewSQLReadingRepository(db *database.DB) *SQLReadingRepository {
	return &SQLReadingRepository{db: db}
}

func (r *SQLReadingRepository) Ping(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

func (r *SQLReadingRepository) Cities(ctx context.Context) ([]string, error) {
	var cities []string
	if err := r.db.SelectContext(ctx, "list_cities", &cities,
		`SELECT DISTINCT city FROM aqi_data ORDER BY city`); err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	return cities, nil
}

// Readings returns every reading, or only those of city when it is not empty.
func (r *SQLReadingRepository) Readings(ctx context.Context, city string) ([]models.AQIReading, error) {
	readings := []models.AQIReading{}

	var err error
	if city == "" {
		err = r.db.SelectContext(ctx, "list_readings", &readings,
			`SELECT id, city, date, aqi FROM aqi_data ORDER BY date, id`)
	} else {
		err = r.db.SelectContext(ctx, "list_readings_by_city", &readings,
			`SELECT id, city, date, aqi FROM aqi_data WHERE city = ? ORDER BY date, id`, city)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}

	return readings, nil
}
