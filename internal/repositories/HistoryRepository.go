package repositories

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"aqi-forecast/config"
	"aqi-forecast/internal/forecaster"
	"aqi-forecast/internal/models"
	"aqi-forecast/pkg/database"
	"aqi-forecast/pkg/observe"
)

// HistoryRepository supplies historical daily temperatures.
type HistoryRepository interface {
	Name() string
	LoadObservations(ctx context.Context) ([]models.Observation, error)
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// InitHistoryRepository picks the history source named in the configuration.
// The artifact is only consulted for the artifact source; db only for sql.
func InitHistoryRepository(
	cfg *config.Config,
	artifact *forecaster.Artifact,
	db *database.DB,
	l *observe.Logger,
) (HistoryRepository, error) {
	switch cfg.History.Source {
	case config.HistorySourceArtifact:
		if artifact == nil {
			return nil, fmt.Errorf("history source %q needs a loaded model artifact", cfg.History.Source)
		}
		return NewArtifactHistoryRepository(artifact), nil

	case config.HistorySourceSQL:
		if db == nil {
			return nil, fmt.Errorf("history source %q needs a database connection", cfg.History.Source)
		}
		return NewSQLHistoryRepository(db, cfg.History.Query, l), nil

	case config.HistorySourceOpenMeteo:
		om := cfg.History.OpenMeteo
		client := NewResilientClient(
			"open-meteo-archive",
			&http.Client{Timeout: time.Duration(om.Timeout) * time.Second},
			om.RateLimit,
			om.Burst,
		)
		return NewOpenMeteoRepository(om, client, l), nil
	}

	return nil, fmt.Errorf("unknown history source %q", cfg.History.Source)
}

// ArtifactHistoryRepository serves the observations embedded in a model artifact.
type ArtifactHistoryRepository struct {
	artifact *forecaster.Artifact
}

func NewArtifactHistoryRepository(artifact *forecaster.Artifact) *ArtifactHistoryRepository {
	return &ArtifactHistoryRepository{artifact: artifact}
}

func (a *ArtifactHistoryRepository) Name() string {
	return "artifact"
}

func (a *ArtifactHistoryRepository) LoadObservations(_ context.Context) ([]models.Observation, error) {
	return a.artifact.Observations(), nil
}
