package models

// HourlySeries holds the aligned hourly arrays returned by the weather
// provider. Index i refers to the same hour across every field; all arrays
// have the same length as Time.
type HourlySeries struct {
	Time             []string  `json:"time"`
	Temperature2m    []float64 `json:"temperature_2m"`
	RelativeHumidity []float64 `json:"relative_humidity_2m"`
	DewPoint2m       []float64 `json:"dew_point_2m"`
	Precipitation    []float64 `json:"precipitation"`
	WindSpeed10m     []float64 `json:"wind_speed_10m"`
	SurfacePressure  []float64 `json:"surface_pressure"`
	IsDay            []int     `json:"is_day"`
}

// ForecastData is one provider response: the hourly series plus the
// provider-resolved location metadata. Timestamps in Hourly are local to the
// resolved timezone (the provider is queried with timezone=auto).
type ForecastData struct {
	Latitude         float64      `json:"latitude"`
	Longitude        float64      `json:"longitude"`
	Timezone         string       `json:"timezone"`
	UTCOffsetSeconds int          `json:"utc_offset_seconds"`
	Elevation        float64      `json:"elevation"`
	GenerationTimeMs float64      `json:"generationtime_ms"`
	Hourly           HourlySeries `json:"hourly"`
}
