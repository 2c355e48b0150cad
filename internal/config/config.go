package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Weather   WeatherConfig
	Inference InferenceConfig
	Heuristic HeuristicConfig
	SMS       SMSConfig
	Dispatch  DispatchConfig
	DB        DatabaseConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type WeatherConfig struct {
	URL          string
	Timeout      time.Duration
	PastDays     int
	ForecastDays int
}

type InferenceConfig struct {
	PythonBin  string
	ScriptPath string
	Timeout    time.Duration
	Threshold  float64
}

// HeuristicConfig holds the fallback scoring constants. Their calibration is
// provisional, hence configurable rather than hard-coded.
type HeuristicConfig struct {
	BaseRisk        float64
	ColdTempC       float64
	CriticalTempC   float64
	HighHumidityPct float64
	FrostDewPointC  float64
	ColdWeight      float64
	CriticalWeight  float64
	HumidityWeight  float64
	DewPointWeight  float64
}

type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	GatewayURL string
}

// Configured reports whether the credentials look usable for real sends.
// Anything else means simulation mode.
func (s SMSConfig) Configured() bool {
	return strings.HasPrefix(s.AccountSID, "AC") && s.AuthToken != "" && s.FromNumber != ""
}

type DispatchConfig struct {
	Workers    int
	BufferSize int
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 5003),
		},
		Weather: WeatherConfig{
			URL:          getEnv("OPEN_METEO_URL", "https://api.open-meteo.com/v1/forecast"),
			Timeout:      getEnvDuration("OPEN_METEO_TIMEOUT", 30*time.Second),
			PastDays:     getEnvInt("OPEN_METEO_PAST_DAYS", 1),
			ForecastDays: getEnvInt("OPEN_METEO_FORECAST_DAYS", 1),
		},
		Inference: InferenceConfig{
			PythonBin:  getEnv("FROST_MODEL_PYTHON", "python3"),
			ScriptPath: getEnv("FROST_MODEL_SCRIPT", "./scripts/predict_frost_vector.py"),
			Timeout:    getEnvDuration("FROST_MODEL_TIMEOUT", 15*time.Second),
			Threshold:  getEnvFloat("FROST_RISK_THRESHOLD", 0.90),
		},
		Heuristic: HeuristicConfig{
			BaseRisk:        getEnvFloat("FROST_HEURISTIC_BASE_RISK", 0.1),
			ColdTempC:       getEnvFloat("FROST_HEURISTIC_COLD_TEMP", 5),
			CriticalTempC:   getEnvFloat("FROST_HEURISTIC_CRITICAL_TEMP", 2),
			HighHumidityPct: getEnvFloat("FROST_HEURISTIC_HIGH_HUMIDITY", 85),
			FrostDewPointC:  getEnvFloat("FROST_HEURISTIC_FROST_DEW_POINT", 0),
			ColdWeight:      getEnvFloat("FROST_HEURISTIC_COLD_WEIGHT", 0.3),
			CriticalWeight:  getEnvFloat("FROST_HEURISTIC_CRITICAL_WEIGHT", 0.3),
			HumidityWeight:  getEnvFloat("FROST_HEURISTIC_HUMIDITY_WEIGHT", 0.2),
			DewPointWeight:  getEnvFloat("FROST_HEURISTIC_DEW_POINT_WEIGHT", 0.2),
		},
		SMS: SMSConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
			GatewayURL: getEnv("TWILIO_API_URL", "https://api.twilio.com"),
		},
		Dispatch: DispatchConfig{
			Workers:    getEnvInt("DISPATCH_WORKERS", 2),
			BufferSize: getEnvInt("DISPATCH_BUFFER_SIZE", 50),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/frost-alerts.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Weather.Timeout <= 0 {
		return fmt.Errorf("weather timeout must be positive")
	}
	// The 6-hour lag features need at least one past day in the window.
	if c.Weather.PastDays < 1 {
		return fmt.Errorf("past days must be at least 1, got %d", c.Weather.PastDays)
	}
	if c.Weather.ForecastDays < 1 {
		return fmt.Errorf("forecast days must be at least 1, got %d", c.Weather.ForecastDays)
	}

	if c.Inference.Threshold <= 0 || c.Inference.Threshold > 1 {
		return fmt.Errorf("risk threshold must be in (0,1], got %g", c.Inference.Threshold)
	}

	if c.Dispatch.Workers < 1 {
		return fmt.Errorf("dispatch workers must be at least 1, got %d", c.Dispatch.Workers)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
