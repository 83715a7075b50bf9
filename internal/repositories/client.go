package repositories

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ResilientClient rate limits outgoing requests and trips a circuit breaker
// after consecutive failures. 5xx responses count as failures.
type ResilientClient struct {
	client  HTTPClient
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewResilientClient allows rps requests per second with the given burst.
func NewResilientClient(name string, client HTTPClient, rps float64, burst int) *ResilientClient {
	return &ResilientClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

func (c *ResilientClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			return nil, fmt.Errorf("server error: %s", resp.Status)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return res.(*http.Response), nil
}

// State reports the breaker state, for logging.
func (c *ResilientClient) State() string {
	return c.breaker.State().String()
}
