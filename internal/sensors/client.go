// Package sensors reads zone temperatures from the sensor gateway's HTTP API.
package sensors

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/codeGROOVE-dev/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"
	"net/http"
	"time"
)

// A Client reads zone temperatures from the sensor gateway. Transient failures are retried with a
// jittered backoff for as long as the caller's context allows.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(baseURL string, registry prometheus.Registerer, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Transport: instrumentedRoundTripper(registry)},
		logger:     logger,
	}
}

func (c *Client) ReadTemperature(ctx context.Context, zoneId int) (float64, error) {
	var temperature float64
	err := retry.Do(
		func() error {
			var err error
			temperature, err = c.readTemperature(ctx, zoneId)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(100*time.Millisecond),
		retry.MaxDelay(time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("sensor read failed. retrying", "zone", zoneId, "attempt", n, "err", err)
		}),
	)
	return temperature, err
}

func (c *Client) readTemperature(ctx context.Context, zoneId int) (float64, error) {
	url := fmt.Sprintf("%s/zones/%d/temperature", c.baseURL, zoneId)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("sensor gateway: %s", resp.Status)
	}

	var body struct {
		Temperature float64 `json:"temperature"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("invalid sensor response: %w", err)
	}
	return body.Temperature, nil
}

func instrumentedRoundTripper(registry prometheus.Registerer) http.RoundTripper {
	requestCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "climate",
		Subsystem: "sensors",
		Name:      "http_requests_total",
		Help:      "total number of sensor gateway requests",
	}, []string{"code", "method"})
	requestDuration := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: "climate",
		Subsystem: "sensors",
		Name:      "http_request_duration_seconds",
		Help:      "duration of sensor gateway requests",
	}, []string{"code", "method"})
	if registry != nil {
		registry.MustRegister(requestCounter, requestDuration)
	}

	return promhttp.InstrumentRoundTripperCounter(requestCounter,
		promhttp.InstrumentRoundTripperDuration(requestDuration,
			http.DefaultTransport,
		),
	)
}
