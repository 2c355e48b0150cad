package inference

import (
	"context"

	"github.com/preacpe/go-frost-alerts/internal/models"
)

// Backend produces a frost-risk prediction for a feature vector. A backend
// may fail; composing primary and fallback into something that cannot is
// the Client's job.
type Backend interface {
	Infer(ctx context.Context, vector []float64, threshold float64) (models.Prediction, error)
}

// bandRisk maps a continuous risk to the discrete alert levels used in SMS
// and API responses.
func bandRisk(risk, threshold float64) models.RiskLevel {
	switch {
	case risk >= threshold:
		return models.RiskLevelHigh
	case risk >= 0.5:
		return models.RiskLevelMedium
	default:
		return models.RiskLevelLow
	}
}
