package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"aqi-forecast/config"
	"aqi-forecast/internal/models"
	"aqi-forecast/pkg/observe"
)

const (
	OpenMeteoArchiveURL = "https://archive-api.open-meteo.com/v1/archive"
)

// OpenMeteoRepository loads daily mean temperatures from the Open-Meteo archive.
type OpenMeteoRepository struct {
	cfg        config.OpenMeteoConfig
	httpClient HTTPClient
	l          *observe.Logger
}

func NewOpenMeteoRepository(cfg config.OpenMeteoConfig, httpClient HTTPClient, l *observe.Logger) *OpenMeteoRepository {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenMeteoArchiveURL
	}
	return &OpenMeteoRepository{
		cfg:        cfg,
		httpClient: httpClient,
		l:          l,
	}
}

func (o *OpenMeteoRepository) Name() string {
	return "open-meteo"
}

type OpenMeteoResponse struct {
	Time          []string   `json:"time"`
	Temperature2m []*float64 `json:"temperature_2m_mean"`
}

type OpenMeteoErrorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

func (o *OpenMeteoRepository) requestURL() (string, error) {
	u, err := url.Parse(o.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(o.cfg.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(o.cfg.Longitude, 'f', 4, 64))
	q.Set("start_date", o.cfg.StartDate)
	q.Set("end_date", o.cfg.EndDate)
	q.Set("daily", "temperature_2m_mean")
	q.Set("timezone", "auto")
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (o *OpenMeteoRepository) LoadObservations(ctx context.Context) ([]models.Observation, error) {
	reqURL, err := o.requestURL()
	if err != nil {
		return nil, err
	}

	o.l.Info("making openmeteo archive request", map[string]any{
		"lat":   o.cfg.Latitude,
		"lon":   o.cfg.Longitude,
		"start": o.cfg.StartDate,
		"end":   o.cfg.EndDate,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to do request: %w", err)
	}
	defer resp.Body.Close()

	o.l.Info("received openmeteo archive response", map[string]any{
		"status":     resp.StatusCode,
		"statusText": resp.Status,
	})

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp OpenMeteoErrorResponse
		if jsonErr := json.Unmarshal(body, &errorResp); jsonErr == nil && errorResp.Error {
			return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, errorResp.Reason)
		}
		return nil, fmt.Errorf("HTTP error (status %d): %s", resp.StatusCode, resp.Status)
	}

	var response struct {
		Daily OpenMeteoResponse `json:"daily"`
	}
	if err = json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if len(response.Daily.Time) == 0 {
		return nil, fmt.Errorf("no temperature history available")
	}

	observations, skipped := dailyMeansOpenMeteo(response.Daily)

	o.l.Info("parsed openmeteo archive response", map[string]any{
		"days":    len(response.Daily.Time),
		"kept":    len(observations),
		"skipped": skipped,
	})

	return observations, nil
}

// dailyMeansOpenMeteo pairs dates with temperatures, dropping nulls and unparseable dates.
func dailyMeansOpenMeteo(daily OpenMeteoResponse) ([]models.Observation, int) {
	n := min(len(daily.Time), len(daily.Temperature2m))
	out := make([]models.Observation, 0, n)
	skipped := len(daily.Time) - n

	for i := 0; i < n; i++ {
		if daily.Temperature2m[i] == nil {
			skipped++
			continue
		}
		date, err := models.ParseDay(daily.Time[i])
		if err != nil {
			skipped++
			continue
		}
		out = append(out, models.Observation{Date: date, Temperature: *daily.Temperature2m[i]})
	}

	return out, skipped
}
