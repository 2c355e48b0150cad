package features

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/preacpe/go-frost-alerts/internal/models"
)

// minLagHours is how much history the lag features need before the target
// hour (TT_lag_6h is the deepest lag).
const minLagHours = 6

// hourlyLayout is the timestamp format Open-Meteo uses with timezone=auto:
// local wall time, no offset suffix.
const hourlyLayout = "2006-01-02T15:04"

// ErrInsufficientHistory means the target hour sits too close to the start
// of the series to compute the lag features. Inference must not proceed.
var ErrInsufficientHistory = errors.New("insufficient past hours for lag features")

// Fetcher is the slice of the weather client the builder needs.
type Fetcher interface {
	FetchHourly(ctx context.Context, lat, lon float64) (*models.ForecastData, error)
}

// Meta describes the hour and place a feature vector was built for. The
// alert message formatting downstream depends on it.
type Meta struct {
	TargetHour string  `json:"targetHour"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Timezone   string  `json:"timezone"`
	Elevation  float64 `json:"elevation"`
}

// Result carries the model input both as the positional vector the model
// requires and as a named map for the API response.
type Result struct {
	Vector  []float64
	Ordered map[string]float64
	Meta    Meta
}

// Builder derives the 12-element frost feature vector from provider data.
// The clock is injected so target-hour selection is testable.
type Builder struct {
	fetcher Fetcher
	clock   clockwork.Clock
}

func NewBuilder(fetcher Fetcher, clock clockwork.Clock) *Builder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Builder{
		fetcher: fetcher,
		clock:   clock,
	}
}

// Build fetches the hourly window around now and derives the features for
// the target hour: the first hour strictly after now, or the last available
// hour when the whole series is in the past.
func (b *Builder) Build(ctx context.Context, lat, lon float64) (*Result, error) {
	data, err := b.fetcher.FetchHourly(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	h := &data.Hourly
	loc := time.FixedZone(data.Timezone, data.UTCOffsetSeconds)

	times := make([]time.Time, len(h.Time))
	for i, raw := range h.Time {
		ts, err := time.ParseInLocation(hourlyLayout, raw, loc)
		if err != nil {
			return nil, fmt.Errorf("error parsing hourly timestamp %q: %w", raw, err)
		}
		times[i] = ts
	}

	now := b.clock.Now()
	targetIdx := len(times) - 1
	for i, ts := range times {
		if ts.After(now) {
			targetIdx = i
			break
		}
	}

	if targetIdx < minLagHours {
		return nil, fmt.Errorf("%w: target index %d, need >= %d", ErrInsufficientHistory, targetIdx, minLagHours)
	}

	target := times[targetIdx]
	hour := target.Hour()
	month := int(target.Month())

	hr := h.RelativeHumidity[targetIdx]
	ff := h.WindSpeed10m[targetIdx]
	dewPoint := h.DewPoint2m[targetIdx]
	ttChange := h.Temperature2m[targetIdx] - h.Temperature2m[targetIdx-1]
	ttLag6h := h.Temperature2m[targetIdx-minLagHours]
	hrLag3h := h.RelativeHumidity[targetIdx-3]

	// Surface pressure can be missing from the provider response; the model
	// contract falls back to precipitation in that slot.
	pp := h.Precipitation[targetIdx]
	if len(h.SurfacePressure) == len(h.Time) {
		pp = h.SurfacePressure[targetIdx]
	}

	hourSin := math.Sin(2 * math.Pi * float64(hour) / 24)
	hourCos := math.Cos(2 * math.Pi * float64(hour) / 24)
	monthSin := math.Sin(2 * math.Pi * float64(month-1) / 12)
	monthCos := math.Cos(2 * math.Pi * float64(month-1) / 12)

	isNight := 0.0
	if len(h.IsDay) == len(h.Time) {
		if h.IsDay[targetIdx] == 0 {
			isNight = 1.0
		}
	} else if hour < 6 || hour >= 18 {
		isNight = 1.0
	}

	// Positional order is the model contract; see models.FeatureNames.
	vector := []float64{
		hr,
		ff,
		pp,
		dewPoint,
		ttChange,
		hourSin,
		hourCos,
		monthSin,
		monthCos,
		isNight,
		ttLag6h,
		hrLag3h,
	}

	ordered := make(map[string]float64, len(vector))
	for i, name := range models.FeatureNames {
		ordered[name] = vector[i]
	}

	return &Result{
		Vector:  vector,
		Ordered: ordered,
		Meta: Meta{
			TargetHour: h.Time[targetIdx],
			Latitude:   data.Latitude,
			Longitude:  data.Longitude,
			Timezone:   data.Timezone,
			Elevation:  data.Elevation,
		},
	}, nil
}
