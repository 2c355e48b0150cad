package inference

import (
	"context"
	"log/slog"

	"github.com/preacpe/go-frost-alerts/internal/models"
)

// Client composes the real model with the heuristic fallback. Infer always
// returns a Prediction: a frost alert must not go silent just because the
// ML backend is down.
type Client struct {
	primary  Backend
	fallback Backend
}

func NewClient(primary, fallback Backend) *Client {
	return &Client{
		primary:  primary,
		fallback: fallback,
	}
}

func (c *Client) Infer(ctx context.Context, vector []float64, threshold float64) models.Prediction {
	pred, err := c.primary.Infer(ctx, vector, threshold)
	if err == nil {
		return pred
	}

	slog.Warn("frost model unavailable, using heuristic fallback", "error", err)

	pred, ferr := c.fallback.Infer(ctx, vector, threshold)
	if ferr != nil {
		// The heuristic only fails on a malformed vector, which the feature
		// builder should have made impossible.
		slog.Error("heuristic fallback failed", "error", ferr)
		pred = models.Prediction{
			RiskLevel: models.RiskLevelLow,
			Threshold: threshold,
		}
		err = ferr
	}

	pred.Mock = true
	pred.Fallback = true
	pred.Error = err.Error()

	return pred
}
