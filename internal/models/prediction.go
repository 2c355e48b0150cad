package models

type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "bajo"
	RiskLevelMedium RiskLevel = "medio"
	RiskLevelHigh   RiskLevel = "alto"
)

// Prediction is the outcome of one frost inference. Mock and Fallback are
// set only when the heuristic replaced the real model.
type Prediction struct {
	Risk      float64   `json:"risk"`
	RiskLevel RiskLevel `json:"risk_level"`
	Threshold float64   `json:"threshold"`
	Mock      bool      `json:"mock,omitempty"`
	Fallback  bool      `json:"fallback,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// FeatureNames lists the 12 frost-model features in the exact order the
// model expects them. The order is a contract; changing it silently breaks
// inference.
var FeatureNames = []string{
	"HR",
	"FF",
	"PP",
	"dew_point",
	"TT_change",
	"hour_sin",
	"hour_cos",
	"month_sin",
	"month_cos",
	"is_night",
	"TT_lag_6h",
	"HR_lag_3h",
}

// FeatureCount is the length of the frost feature vector.
const FeatureCount = 12
