package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/preacpe/go-frost-alerts/internal/config"
	"github.com/preacpe/go-frost-alerts/internal/models"
)

// ErrUpstreamUnavailable marks any failure to obtain hourly data from the
// weather provider. It is fatal to a prediction request; there is no retry.
var ErrUpstreamUnavailable = errors.New("weather provider unavailable")

// hourlyVariables is the fixed set of hourly fields the frost model consumes.
var hourlyVariables = []string{
	"temperature_2m",
	"relative_humidity_2m",
	"dew_point_2m",
	"precipitation",
	"wind_speed_10m",
	"surface_pressure",
	"is_day",
}

// Client fetches hourly forecasts from Open-Meteo. Requests carry
// timezone=auto so returned hour-of-day values are local to the queried
// point, and a circuit breaker fails fast while the provider is down.
type Client struct {
	cfg     config.WeatherConfig
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewClient(cfg config.WeatherConfig) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 3,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		circuit: cb,
	}
}

// FetchHourly retrieves the hourly window (PastDays back, ForecastDays
// ahead) for the given point.
func (c *Client) FetchHourly(ctx context.Context, lat, lon float64) (*models.ForecastData, error) {
	result, err := c.circuit.Execute(func() (interface{}, error) {
		return c.fetch(ctx, lat, lon)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	data := result.(*models.ForecastData)
	if err := validateSeries(&data.Hourly); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	return data, nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (*models.ForecastData, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("hourly", strings.Join(hourlyVariables, ","))
	q.Set("timezone", "auto")
	q.Set("past_days", strconv.Itoa(c.cfg.PastDays))
	q.Set("forecast_days", strconv.Itoa(c.cfg.ForecastDays))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data models.ForecastData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	return &data, nil
}

// validateSeries checks the alignment invariant: every consumed array has
// one entry per hour in time. surface_pressure and is_day may be absent
// entirely but must be aligned when present.
func validateSeries(h *models.HourlySeries) error {
	n := len(h.Time)
	if n == 0 {
		return errors.New("no hourly data in response")
	}

	required := map[string]int{
		"temperature_2m":       len(h.Temperature2m),
		"relative_humidity_2m": len(h.RelativeHumidity),
		"dew_point_2m":         len(h.DewPoint2m),
		"precipitation":        len(h.Precipitation),
		"wind_speed_10m":       len(h.WindSpeed10m),
	}
	for name, l := range required {
		if l != n {
			return fmt.Errorf("misaligned hourly series: %s has %d entries, want %d", name, l, n)
		}
	}

	if len(h.SurfacePressure) != 0 && len(h.SurfacePressure) != n {
		return fmt.Errorf("misaligned hourly series: surface_pressure has %d entries, want %d", len(h.SurfacePressure), n)
	}
	if len(h.IsDay) != 0 && len(h.IsDay) != n {
		return fmt.Errorf("misaligned hourly series: is_day has %d entries, want %d", len(h.IsDay), n)
	}

	return nil
}
