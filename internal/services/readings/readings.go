package readings

import (
	"context"

	"github.com/pkg/errors"

	"aqi-forecast/internal/models"
	"aqi-forecast/internal/repositories"
	"aqi-forecast/pkg/observe"
)

// AllCities is the city filter value that selects every reading.
const AllCities = "All"

var ErrStoreUnavailable = errors.New("AQI readings store is unreachable")

type Reading struct {
	models.AQIReading
	Category models.Category
	Color    string
}

// View is the filtered table together with the filter options.
type View struct {
	City     string
	Cities   []string
	Readings []Reading
}

// ReadingService serves the recorded AQI table.
type ReadingService struct {
	repo repositories.ReadingRepository
	l    *observe.Logger
}

func NewReadingService(repo repositories.ReadingRepository, l *observe.Logger) *ReadingService {
	return &ReadingService{
		repo: repo,
		l:    l,
	}
}

// View lists the readings of city. An empty city or AllCities disables the filter.
func (s *ReadingService) View(ctx context.Context, city string) (*View, error) {
	if city == AllCities {
		city = ""
	}

	if err := s.repo.Ping(ctx); err != nil {
		return nil, errors.Wrap(ErrStoreUnavailable, err.Error())
	}

	cities, err := s.repo.Cities(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load city list")
	}

	rows, err := s.repo.Readings(ctx, city)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load readings")
	}

	view := &View{
		City:     AllCities,
		Cities:   append([]string{AllCities}, cities...),
		Readings: make([]Reading, 0, len(rows)),
	}
	if city != "" {
		view.City = city
	}

	for _, r := range rows {
		category := r.Category()
		view.Readings = append(view.Readings, Reading{
			AQIReading: r,
			Category:   category,
			Color:      category.Color(),
		})
	}

	s.l.Debug("readings listed", map[string]any{
		"city":  view.City,
		"count": len(view.Readings),
	})

	return view, nil
}
