package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/preacpe/go-frost-alerts/internal/features"
	"github.com/preacpe/go-frost-alerts/internal/models"
)

// Peruvian mobile format: +51 9XX XXX XXX, internal spaces optional.
var phonePattern = regexp.MustCompile(`^\+51 ?9\d{2} ?\d{3} ?\d{3}$`)

// ErrInvalidPhone rejects a number before any gateway call is attempted.
var ErrInvalidPhone = errors.New("invalid Peruvian phone number, expected +51 9XX XXX XXX")

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// NormalizePhone strips spaces, leaving the E.164-like +519XXXXXXXX form
// used as the subscriber key.
func NormalizePhone(phone string) string {
	return strings.ReplaceAll(phone, " ", "")
}

var pestSeverities = map[string]string{
	"low":      "BAJA",
	"medium":   "MEDIA",
	"high":     "ALTA",
	"critical": "CRÍTICA",
}

// Service formats alert messages and dispatches them through the gateway.
// Send never returns a Go error: gateway failures come back as a failed
// SMSResult and the caller decides whether that is user-visible. The
// template wrappers do validate the phone shape first.
type Service struct {
	gateway Gateway
}

func NewService(gateway Gateway) *Service {
	return &Service{gateway: gateway}
}

// Mode reports "real" or "simulation" for the config endpoint.
func (s *Service) Mode() string {
	return s.gateway.Mode()
}

func (s *Service) Send(ctx context.Context, phone, message, smsType string) models.SMSResult {
	to := NormalizePhone(phone)
	now := time.Now().UTC()

	id, status, err := s.gateway.Send(ctx, to, message)
	if err != nil {
		slog.Error("SMS send failed", "type", smsType, "to", to, "error", err)
		return models.SMSResult{
			Success:   false,
			Error:     err.Error(),
			Phone:     to,
			Message:   message,
			Type:      smsType,
			Timestamp: now,
		}
	}

	slog.Info("SMS sent", "type", smsType, "to", to, "id", id, "status", status)
	return models.SMSResult{
		Success:   true,
		MessageID: id,
		Phone:     to,
		Message:   message,
		Type:      smsType,
		Status:    status,
		Timestamp: now,
	}
}

func (s *Service) SendFrostAlert(ctx context.Context, phone string, pred models.Prediction, meta features.Meta) (models.SMSResult, error) {
	if !ValidPhone(phone) {
		return models.SMSResult{}, ErrInvalidPhone
	}
	pct := int(math.Round(pred.Risk * 100))
	msg := fmt.Sprintf("ALERTA HELADA (%d%% - %s) Hora objetivo: %s. Protege tus cultivos.",
		pct, strings.ToUpper(string(pred.RiskLevel)), meta.TargetHour)
	return s.Send(ctx, phone, msg, "frost_alert"), nil
}

// SendFrostWelcome greets a phone newly opted in through the prediction
// endpoint, embedding the current risk for its zone.
func (s *Service) SendFrostWelcome(ctx context.Context, phone string, pred models.Prediction) (models.SMSResult, error) {
	if !ValidPhone(phone) {
		return models.SMSResult{}, ErrInvalidPhone
	}
	pct := int(math.Round(pred.Risk * 100))
	msg := fmt.Sprintf("Bienvenido a las alertas de heladas. Riesgo actual en tu zona: %s (%d%%). Te avisaremos si el riesgo es alto.",
		strings.ToUpper(string(pred.RiskLevel)), pct)
	return s.Send(ctx, phone, msg, "frost_welcome"), nil
}

func (s *Service) SendIrrigationAlert(ctx context.Context, phone, cropType, recommendation string) (models.SMSResult, error) {
	if !ValidPhone(phone) {
		return models.SMSResult{}, ErrInvalidPhone
	}
	msg := fmt.Sprintf("ALERTA DE RIEGO - %s: %s. Revisa la app para más detalles. AgroTech PE",
		strings.ToUpper(cropType), recommendation)
	return s.Send(ctx, phone, msg, "irrigation_alert"), nil
}

func (s *Service) SendWeatherAlert(ctx context.Context, phone, message string) (models.SMSResult, error) {
	if !ValidPhone(phone) {
		return models.SMSResult{}, ErrInvalidPhone
	}
	msg := fmt.Sprintf("ALERTA CLIMÁTICA: %s. Toma las precauciones necesarias. AgroTech PE", message)
	return s.Send(ctx, phone, msg, "weather_alert"), nil
}

func (s *Service) SendPestAlert(ctx context.Context, phone, pestType, severity, recommendation string) (models.SMSResult, error) {
	if !ValidPhone(phone) {
		return models.SMSResult{}, ErrInvalidPhone
	}
	sev, ok := pestSeverities[severity]
	if !ok {
		sev = strings.ToUpper(severity)
	}
	msg := fmt.Sprintf("ALERTA DE PLAGAS - Severidad: %s. %s: %s. Revisa la app para más información. AgroTech PE",
		sev, pestType, recommendation)
	return s.Send(ctx, phone, msg, "pest_alert"), nil
}

func (s *Service) SendSolarMaintenanceReminder(ctx context.Context, phone, systemType, nextMaintenance string) (models.SMSResult, error) {
	if !ValidPhone(phone) {
		return models.SMSResult{}, ErrInvalidPhone
	}
	msg := fmt.Sprintf("RECORDATORIO: Mantenimiento de tu sistema solar %s programado para %s. AgroTech PE",
		systemType, nextMaintenance)
	return s.Send(ctx, phone, msg, "solar_maintenance"), nil
}

func (s *Service) SendTest(ctx context.Context, phone string) (models.SMSResult, error) {
	if !ValidPhone(phone) {
		return models.SMSResult{}, ErrInvalidPhone
	}
	msg := "Prueba de SMS desde AgroTech PE. Tu suscripción de SMS funciona correctamente."
	return s.Send(ctx, phone, msg, "test"), nil
}
