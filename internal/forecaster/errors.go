package forecaster

import (
	"errors"
	"fmt"
	"time"

	"aqi-forecast/internal/models"
)

// InvalidDateError rejects a target date outside the forecastable horizon.
type InvalidDateError struct {
	Target   time.Time
	LastDate time.Time
	Horizon  int
	Reason   string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid target date %s (last known %s, horizon %d days): %s",
		e.Target.Format(models.DateLayout), e.LastDate.Format(models.DateLayout), e.Horizon, e.Reason)
}

var (
	ErrCorruptArtifact = errors.New("corrupt model artifact")
	ErrRowCount        = errors.New("prediction count does not match row count")
)
