package inference

import (
	"context"
	"fmt"

	"github.com/preacpe/go-frost-alerts/internal/config"
	"github.com/preacpe/go-frost-alerts/internal/models"
)

// Positions of the features the heuristic reads, per models.FeatureNames.
const (
	idxHR       = 0
	idxDewPoint = 3
	idxTTLag6h  = 10
)

// HeuristicBackend is the pure-function fallback: an additive score over a
// handful of frost indicators. It keeps alerts flowing when the real model
// process is down.
type HeuristicBackend struct {
	cfg config.HeuristicConfig
}

func NewHeuristicBackend(cfg config.HeuristicConfig) *HeuristicBackend {
	return &HeuristicBackend{cfg: cfg}
}

func (b *HeuristicBackend) Infer(_ context.Context, vector []float64, threshold float64) (models.Prediction, error) {
	if len(vector) != models.FeatureCount {
		return models.Prediction{}, fmt.Errorf("expected %d features, got %d", models.FeatureCount, len(vector))
	}

	temp := vector[idxTTLag6h]
	humidity := vector[idxHR]
	dewPoint := vector[idxDewPoint]

	risk := b.cfg.BaseRisk
	if temp < b.cfg.ColdTempC {
		risk += b.cfg.ColdWeight
	}
	if temp < b.cfg.CriticalTempC {
		risk += b.cfg.CriticalWeight
	}
	if humidity > b.cfg.HighHumidityPct {
		risk += b.cfg.HumidityWeight
	}
	if dewPoint < b.cfg.FrostDewPointC {
		risk += b.cfg.DewPointWeight
	}

	if risk > 1 {
		risk = 1
	}
	if risk < 0 {
		risk = 0
	}

	return models.Prediction{
		Risk:      risk,
		RiskLevel: bandRisk(risk, threshold),
		Threshold: threshold,
	}, nil
}
