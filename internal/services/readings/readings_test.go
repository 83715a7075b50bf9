package readings_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqi-forecast/internal/models"
	"aqi-forecast/internal/services/readings"
	"aqi-forecast/pkg/observe"
)

// MockRepository implements ReadingRepository for testing
type MockRepository struct {
	rows       []models.AQIReading
	shouldFail bool
	down       bool
	lastCity   string
}

func (m *MockRepository) Ping(ctx context.Context) error {
	if m.down {
		return errors.New("connection refused")
	}
	return nil
}

func (m *MockRepository) Cities(ctx context.Context) ([]string, error) {
	if m.shouldFail {
		return nil, errors.New("mock repository error")
	}
	seen := map[string]bool{}
	var out []string
	for _, r := range m.rows {
		if !seen[r.City] {
			seen[r.City] = true
			out = append(out, r.City)
		}
	}
	return out, nil
}

func (m *MockRepository) Readings(ctx context.Context, city string) ([]models.AQIReading, error) {
	m.lastCity = city
	out := []models.AQIReading{}
	for _, r := range m.rows {
		if city == "" || r.City == city {
			out = append(out, r)
		}
	}
	return out, nil
}

func newRepo() *MockRepository {
	return &MockRepository{rows: []models.AQIReading{
		{ID: 1, City: "Penang", Date: "2025-03-01", AQI: 48},
		{ID: 2, City: "Johor", Date: "2025-03-02", AQI: 151},
		{ID: 3, City: "Penang", Date: "2025-03-03", AQI: 101},
	}}
}

func TestReadingService_View_All(t *testing.T) {
	for _, city := range []string{"", readings.AllCities} {
		repo := newRepo()
		service := readings.NewReadingService(repo, observe.NewZapLogger("test-app", io.Discard))

		view, err := service.View(context.Background(), city)
		require.NoError(t, err)

		assert.Equal(t, "", repo.lastCity)
		assert.Equal(t, readings.AllCities, view.City)
		assert.Equal(t, []string{"All", "Penang", "Johor"}, view.Cities)
		require.Len(t, view.Readings, 3)
		assert.Equal(t, models.CategoryGood, view.Readings[0].Category)
		assert.Equal(t, "green", view.Readings[0].Color)
		assert.Equal(t, models.CategoryUnhealthy, view.Readings[1].Category)
		assert.Equal(t, models.CategoryUnhealthySensitive, view.Readings[2].Category)
	}
}

func TestReadingService_View_City(t *testing.T) {
	repo := newRepo()
	service := readings.NewReadingService(repo, observe.NewZapLogger("test-app", io.Discard))

	view, err := service.View(context.Background(), "Penang")
	require.NoError(t, err)

	assert.Equal(t, "Penang", repo.lastCity)
	assert.Equal(t, "Penang", view.City)
	require.Len(t, view.Readings, 2)
	assert.Equal(t, int64(1), view.Readings[0].ID)
	assert.Equal(t, int64(3), view.Readings[1].ID)
}

func TestReadingService_View_Error(t *testing.T) {
	repo := newRepo()
	repo.shouldFail = true
	service := readings.NewReadingService(repo, observe.NewZapLogger("test-app", io.Discard))

	view, err := service.View(context.Background(), "")
	assert.Error(t, err)
	assert.Nil(t, view)
}

func TestReadingService_View_StoreDown(t *testing.T) {
	repo := newRepo()
	repo.down = true
	service := readings.NewReadingService(repo, observe.NewZapLogger("test-app", io.Discard))

	view, err := service.View(context.Background(), "Penang")
	require.Error(t, err)
	assert.Nil(t, view)
	assert.ErrorIs(t, err, readings.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, repo.lastCity)
}
