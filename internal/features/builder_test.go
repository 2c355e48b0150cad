package features

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/preacpe/go-frost-alerts/internal/models"
)

// Lima: UTC-5, no DST.
const limaOffset = -5 * 3600

var limaZone = time.FixedZone("America/Lima", limaOffset)

type fakeFetcher struct {
	data *models.ForecastData
	err  error
}

func (f *fakeFetcher) FetchHourly(ctx context.Context, lat, lon float64) (*models.ForecastData, error) {
	return f.data, f.err
}

// makeForecast builds an aligned series of n hours starting at start, with
// distinct per-hour values so lag features are verifiable:
// temp=i, humidity=50+i, dew=i-5, precip=0.1*i, wind=2*i, pressure=1000+i.
func makeForecast(n int, start time.Time) *models.ForecastData {
	h := models.HourlySeries{}
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		h.Time = append(h.Time, ts.Format("2006-01-02T15:04"))
		h.Temperature2m = append(h.Temperature2m, float64(i))
		h.RelativeHumidity = append(h.RelativeHumidity, float64(50+i))
		h.DewPoint2m = append(h.DewPoint2m, float64(i-5))
		h.Precipitation = append(h.Precipitation, 0.1*float64(i))
		h.WindSpeed10m = append(h.WindSpeed10m, float64(2*i))
		h.SurfacePressure = append(h.SurfacePressure, float64(1000+i))
		day := 0
		if ts.Hour() >= 6 && ts.Hour() < 18 {
			day = 1
		}
		h.IsDay = append(h.IsDay, day)
	}

	return &models.ForecastData{
		Latitude:         -12.0,
		Longitude:        -77.0,
		Timezone:         "America/Lima",
		UTCOffsetSeconds: limaOffset,
		Elevation:        154,
		Hourly:           h,
	}
}

func TestBuilder_VectorOrderAndLags(t *testing.T) {
	start := time.Date(2025, 6, 14, 0, 0, 0, 0, limaZone)
	data := makeForecast(48, start)

	// 12:30 local; first hour strictly after now is index 13 (13:00).
	clock := clockwork.NewFakeClockAt(start.Add(12*time.Hour + 30*time.Minute))
	b := NewBuilder(&fakeFetcher{data: data}, clock)

	result, err := b.Build(context.Background(), -12.0, -77.0)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(result.Vector) != models.FeatureCount {
		t.Fatalf("expected %d features, got %d", models.FeatureCount, len(result.Vector))
	}

	idx := 13
	want := map[int]float64{
		0:  float64(50 + idx),  // HR
		1:  float64(2 * idx),   // FF
		2:  float64(1000 + idx), // PP (pressure present)
		3:  float64(idx - 5),   // dew_point
		4:  1.0,                // TT_change
		9:  0.0,                // is_night (13:00 is day)
		10: float64(idx - 6),   // TT_lag_6h
		11: float64(50 + idx - 3), // HR_lag_3h
	}
	for pos, expected := range want {
		if result.Vector[pos] != expected {
			t.Errorf("vector[%d] (%s): expected %g, got %g", pos, models.FeatureNames[pos], expected, result.Vector[pos])
		}
	}

	if math.Abs(result.Vector[5]-math.Sin(2*math.Pi*13/24)) > 1e-12 {
		t.Errorf("hour_sin mismatch: got %g", result.Vector[5])
	}
	if math.Abs(result.Vector[7]-math.Sin(2*math.Pi*5/12)) > 1e-12 {
		t.Errorf("month_sin mismatch: got %g", result.Vector[7])
	}

	for i, name := range models.FeatureNames {
		v, ok := result.Ordered[name]
		if !ok {
			t.Fatalf("ordered map missing %s", name)
		}
		if v != result.Vector[i] {
			t.Errorf("ordered[%s] = %g, vector[%d] = %g", name, v, i, result.Vector[i])
		}
	}

	if result.Meta.TargetHour != data.Hourly.Time[idx] {
		t.Errorf("expected target hour %s, got %s", data.Hourly.Time[idx], result.Meta.TargetHour)
	}
	if result.Meta.Timezone != "America/Lima" {
		t.Errorf("expected timezone America/Lima, got %s", result.Meta.Timezone)
	}
}

func TestBuilder_CyclicalEncodingUnitNorm(t *testing.T) {
	start := time.Date(2025, 1, 3, 0, 0, 0, 0, limaZone)

	for _, hour := range []int{7, 11, 17, 23} {
		data := makeForecast(30, start)
		clock := clockwork.NewFakeClockAt(start.Add(time.Duration(hour)*time.Hour - 30*time.Minute))
		b := NewBuilder(&fakeFetcher{data: data}, clock)

		result, err := b.Build(context.Background(), -12.0, -77.0)
		if err != nil {
			t.Fatalf("Build failed at hour %d: %v", hour, err)
		}

		hourNorm := result.Vector[5]*result.Vector[5] + result.Vector[6]*result.Vector[6]
		if math.Abs(hourNorm-1) > 1e-9 {
			t.Errorf("hour encoding norm at hour %d: expected 1, got %g", hour, hourNorm)
		}
		monthNorm := result.Vector[7]*result.Vector[7] + result.Vector[8]*result.Vector[8]
		if math.Abs(monthNorm-1) > 1e-9 {
			t.Errorf("month encoding norm at hour %d: expected 1, got %g", hour, monthNorm)
		}
	}
}

func TestBuilder_InsufficientHistory(t *testing.T) {
	start := time.Date(2025, 6, 14, 0, 0, 0, 0, limaZone)
	data := makeForecast(48, start)

	// 03:30 local selects index 4, below the 6-hour lag requirement.
	clock := clockwork.NewFakeClockAt(start.Add(3*time.Hour + 30*time.Minute))
	b := NewBuilder(&fakeFetcher{data: data}, clock)

	_, err := b.Build(context.Background(), -12.0, -77.0)
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestBuilder_SeriesEntirelyInPast(t *testing.T) {
	start := time.Date(2025, 6, 14, 0, 0, 0, 0, limaZone)
	data := makeForecast(24, start)

	clock := clockwork.NewFakeClockAt(start.Add(72 * time.Hour))
	b := NewBuilder(&fakeFetcher{data: data}, clock)

	result, err := b.Build(context.Background(), -12.0, -77.0)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	last := len(data.Hourly.Time) - 1
	if result.Meta.TargetHour != data.Hourly.Time[last] {
		t.Errorf("expected last hour %s, got %s", data.Hourly.Time[last], result.Meta.TargetHour)
	}
}

func TestBuilder_NightHeuristicWithoutIsDay(t *testing.T) {
	start := time.Date(2025, 6, 14, 0, 0, 0, 0, limaZone)

	cases := []struct {
		hour int
		want float64
	}{
		{22, 1},
		{12, 0},
		{18, 1},
	}

	for _, tc := range cases {
		data := makeForecast(48, start)
		data.Hourly.IsDay = nil

		clock := clockwork.NewFakeClockAt(start.Add(time.Duration(tc.hour)*time.Hour - 30*time.Minute))
		b := NewBuilder(&fakeFetcher{data: data}, clock)

		result, err := b.Build(context.Background(), -12.0, -77.0)
		if err != nil {
			t.Fatalf("Build failed at hour %d: %v", tc.hour, err)
		}
		if result.Vector[9] != tc.want {
			t.Errorf("is_night at hour %d: expected %g, got %g", tc.hour, tc.want, result.Vector[9])
		}
	}
}

func TestBuilder_PressureFallsBackToPrecipitation(t *testing.T) {
	start := time.Date(2025, 6, 14, 0, 0, 0, 0, limaZone)
	data := makeForecast(48, start)
	data.Hourly.SurfacePressure = nil

	clock := clockwork.NewFakeClockAt(start.Add(12*time.Hour + 30*time.Minute))
	b := NewBuilder(&fakeFetcher{data: data}, clock)

	result, err := b.Build(context.Background(), -12.0, -77.0)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := 0.1 * float64(13)
	if result.Vector[2] != want {
		t.Errorf("expected PP to fall back to precipitation %g, got %g", want, result.Vector[2])
	}
}

func TestBuilder_PropagatesFetchError(t *testing.T) {
	wantErr := errors.New("provider down")
	b := NewBuilder(&fakeFetcher{err: wantErr}, clockwork.NewFakeClock())

	_, err := b.Build(context.Background(), -12.0, -77.0)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fetch error to propagate, got %v", err)
	}
}
