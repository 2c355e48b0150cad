package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/preacpe/go-frost-alerts/internal/config"
	"github.com/preacpe/go-frost-alerts/internal/models"
)

// SubprocessBackend invokes the external frost model: one process per
// prediction, the payload as a JSON argument, the result as the first JSON
// object on stdout.
type SubprocessBackend struct {
	bin     string
	script  string
	timeout time.Duration
}

func NewSubprocessBackend(cfg config.InferenceConfig) *SubprocessBackend {
	return &SubprocessBackend{
		bin:     cfg.PythonBin,
		script:  cfg.ScriptPath,
		timeout: cfg.Timeout,
	}
}

type modelPayload struct {
	Vector    []float64 `json:"vector"`
	Threshold float64   `json:"threshold"`
}

type modelOutput struct {
	Risk      float64 `json:"risk"`
	RiskLevel string  `json:"risk_level"`
	Threshold float64 `json:"threshold"`
}

func (b *SubprocessBackend) Infer(ctx context.Context, vector []float64, threshold float64) (models.Prediction, error) {
	if len(vector) != models.FeatureCount {
		return models.Prediction{}, fmt.Errorf("expected %d features, got %d", models.FeatureCount, len(vector))
	}

	payload, err := json.Marshal(modelPayload{Vector: vector, Threshold: threshold})
	if err != nil {
		return models.Prediction{}, fmt.Errorf("error encoding model payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.bin, b.script, string(payload))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return models.Prediction{}, fmt.Errorf("model process failed: %w (stderr: %s)", err, truncate(stderr.String(), 200))
	}

	out, err := parseModelOutput(stdout.Bytes())
	if err != nil {
		return models.Prediction{}, err
	}

	level := models.RiskLevel(out.RiskLevel)
	switch level {
	case models.RiskLevelLow, models.RiskLevelMedium, models.RiskLevelHigh:
	default:
		level = bandRisk(out.Risk, threshold)
	}

	return models.Prediction{
		Risk:      out.Risk,
		RiskLevel: level,
		Threshold: threshold,
	}, nil
}

// parseModelOutput decodes the first JSON object found on stdout, ignoring
// any log noise the model process prints before it.
func parseModelOutput(raw []byte) (modelOutput, error) {
	start := bytes.IndexByte(raw, '{')
	if start < 0 {
		return modelOutput{}, fmt.Errorf("no JSON object in model output: %q", truncate(string(raw), 200))
	}

	var out modelOutput
	if err := json.NewDecoder(bytes.NewReader(raw[start:])).Decode(&out); err != nil {
		return modelOutput{}, fmt.Errorf("error decoding model output: %w", err)
	}

	if out.Risk < 0 || out.Risk > 1 {
		return modelOutput{}, fmt.Errorf("model risk out of range: %g", out.Risk)
	}

	return out, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
