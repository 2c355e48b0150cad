package inference

import (
	"context"
	"errors"
	"testing"

	"github.com/preacpe/go-frost-alerts/internal/models"
)

type stubBackend struct {
	pred  models.Prediction
	err   error
	calls int
}

func (s *stubBackend) Infer(_ context.Context, _ []float64, _ float64) (models.Prediction, error) {
	s.calls++
	return s.pred, s.err
}

func TestClient_PrimaryPassthrough(t *testing.T) {
	primary := &stubBackend{pred: models.Prediction{Risk: 0.95, RiskLevel: models.RiskLevelHigh, Threshold: 0.9}}
	fallback := &stubBackend{}
	c := NewClient(primary, fallback)

	pred := c.Infer(context.Background(), make([]float64, models.FeatureCount), 0.9)
	if pred.Risk != 0.95 || pred.RiskLevel != models.RiskLevelHigh {
		t.Errorf("unexpected prediction: %+v", pred)
	}
	if pred.Mock || pred.Fallback || pred.Error != "" {
		t.Errorf("primary result must not be tagged as fallback: %+v", pred)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.calls)
	}
}

func TestClient_FallbackTagged(t *testing.T) {
	primary := &stubBackend{err: errors.New("model process failed")}
	fallback := &stubBackend{pred: models.Prediction{Risk: 0.6, RiskLevel: models.RiskLevelMedium, Threshold: 0.9}}
	c := NewClient(primary, fallback)

	pred := c.Infer(context.Background(), make([]float64, models.FeatureCount), 0.9)
	if pred.Risk != 0.6 || pred.RiskLevel != models.RiskLevelMedium {
		t.Errorf("unexpected prediction: %+v", pred)
	}
	if !pred.Mock || !pred.Fallback {
		t.Errorf("fallback result must carry mock and fallback flags: %+v", pred)
	}
	if pred.Error != "model process failed" {
		t.Errorf("expected primary error carried through, got %q", pred.Error)
	}
}

func TestClient_BothFail(t *testing.T) {
	primary := &stubBackend{err: errors.New("model process failed")}
	fallback := &stubBackend{err: errors.New("bad vector")}
	c := NewClient(primary, fallback)

	pred := c.Infer(context.Background(), nil, 0.9)
	if pred.Risk != 0 {
		t.Errorf("expected zero risk when both backends fail, got %g", pred.Risk)
	}
	if pred.RiskLevel != models.RiskLevelLow {
		t.Errorf("expected level bajo, got %s", pred.RiskLevel)
	}
	if !pred.Mock || !pred.Fallback || pred.Error == "" {
		t.Errorf("degraded result must be tagged: %+v", pred)
	}
}
