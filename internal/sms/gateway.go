package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/preacpe/go-frost-alerts/internal/config"
	"github.com/preacpe/go-frost-alerts/internal/models"
)

// Gateway is the carrier-facing side of SMS dispatch. Which implementation
// runs is decided once at startup from the credential config, not checked
// per call site.
type Gateway interface {
	Send(ctx context.Context, to, body string) (id, status string, err error)
	Mode() string
}

// SimulatedGateway stands in when no real credentials are configured: it
// logs the intent and fabricates a success.
type SimulatedGateway struct{}

func (SimulatedGateway) Send(_ context.Context, to, body string) (string, string, error) {
	slog.Info("simulated SMS send", "to", to, "body", body)
	return "sim_" + uuid.NewString(), models.SMSStatusSimulated, nil
}

func (SimulatedGateway) Mode() string { return "simulation" }

// TwilioGateway sends through the Twilio Messages REST endpoint.
type TwilioGateway struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

func NewTwilioGateway(cfg config.SMSConfig) *TwilioGateway {
	return &TwilioGateway{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		baseURL:    cfg.GatewayURL,
		client:     &http.Client{},
	}
}

func (g *TwilioGateway) Mode() string { return "real" }

func (g *TwilioGateway) Send(ctx context.Context, to, body string) (string, string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", g.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", g.baseURL, g.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", fmt.Errorf("error creating request: %w", err)
	}
	req.SetBasicAuth(g.accountSID, g.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return "", "", fmt.Errorf("gateway error: status %d: %s", resp.StatusCode, apiErr.Message)
	}

	var out struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("error decoding gateway response: %w", err)
	}

	return out.SID, out.Status, nil
}
