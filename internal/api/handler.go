package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/preacpe/go-frost-alerts/internal/features"
	"github.com/preacpe/go-frost-alerts/internal/models"
	"github.com/preacpe/go-frost-alerts/internal/repository"
	"github.com/preacpe/go-frost-alerts/internal/sms"
	"github.com/preacpe/go-frost-alerts/internal/weather"
)

const (
	defaultSubscriberName = "Usuario de App"
	guestSubscriberName   = "Invitado"

	invalidPhoneMessage = "Número de teléfono peruano inválido (+51 9XX XXX XXX)"
)

// FeatureBuilder is the pipeline stage producing the model input.
type FeatureBuilder interface {
	Build(ctx context.Context, lat, lon float64) (*features.Result, error)
}

// Inferer classifies a feature vector. It cannot fail; a model outage comes
// back as a degraded Prediction.
type Inferer interface {
	Infer(ctx context.Context, vector []float64, threshold float64) models.Prediction
}

// Broadcaster fans a frost alert out to every subscriber.
type Broadcaster interface {
	BroadcastFrost(ctx context.Context, pred models.Prediction, meta features.Meta) (int, error)
}

type Handler struct {
	builder     FeatureBuilder
	inferer     Inferer
	sms         *sms.Service
	repo        repository.SubscriberRepository
	broadcaster Broadcaster
	threshold   float64
}

func NewHandler(builder FeatureBuilder, inferer Inferer, smsSvc *sms.Service, repo repository.SubscriberRepository, broadcaster Broadcaster, threshold float64) *Handler {
	return &Handler{
		builder:     builder,
		inferer:     inferer,
		sms:         smsSvc,
		repo:        repo,
		broadcaster: broadcaster,
		threshold:   threshold,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.POST("/api/weather/frost/predict", h.predictFrost)

	n := r.Group("/api/notifications")
	n.GET("/config", h.smsConfig)
	n.POST("/subscribe", h.subscribe)
	n.POST("/unsubscribe", h.unsubscribe)
	n.GET("/status", h.subscriptionStatus)
	n.POST("/test", h.testSMS)
	n.POST("/irrigation-alert", h.irrigationAlert)
	n.POST("/weather-alert", h.weatherAlert)
	n.POST("/pest-alert", h.pestAlert)
	n.POST("/solar-maintenance", h.solarMaintenance)
	n.POST("/frost-broadcast", h.frostBroadcast)
}

type frostPredictRequest struct {
	Lat   *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lon   *float64 `json:"lon" binding:"required,gte=-180,lte=180"`
	Phone string   `json:"phone"`
}

// predictFrost runs the pipeline: fetch+build features, infer, and when a
// phone was supplied, subscribe it and send a welcome SMS with the current
// risk. Only missing weather data fails the request; a dead model or
// gateway degrades to flags in a 200 response.
func (h *Handler) predictFrost(c *gin.Context) {
	var req frostPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Parámetros inválidos",
			"error":   err.Error(),
		})
		return
	}
	if req.Phone != "" && !sms.ValidPhone(req.Phone) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": invalidPhoneMessage,
		})
		return
	}

	ctx := c.Request.Context()

	built, err := h.builder.Build(ctx, *req.Lat, *req.Lon)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, weather.ErrUpstreamUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"success": false,
			"message": "Fallo en predicción",
			"error":   err.Error(),
		})
		return
	}

	prediction := h.inferer.Infer(ctx, built.Vector, h.threshold)

	smsSent := false
	if req.Phone != "" {
		phone := sms.NormalizePhone(req.Phone)
		if _, _, err := h.repo.Subscribe(ctx, phone, defaultSubscriberName); err != nil {
			slog.Error("error subscribing phone", "phone", phone, "error", err)
		}
		if result, err := h.sms.SendFrostWelcome(ctx, phone, prediction); err == nil {
			smsSent = result.Success
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"prediction":       prediction,
		"features_ordered": built.Ordered,
		"meta":             built.Meta,
		"smsSent":          smsSent,
	})
}

type frostBroadcastRequest struct {
	Lat *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lon *float64 `json:"lon" binding:"required,gte=-180,lte=180"`
}

// frostBroadcast runs the pipeline for a point and, when the risk is alto,
// queues an alert for every subscriber.
func (h *Handler) frostBroadcast(c *gin.Context) {
	var req frostBroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Parámetros inválidos",
			"error":   err.Error(),
		})
		return
	}

	ctx := c.Request.Context()

	built, err := h.builder.Build(ctx, *req.Lat, *req.Lon)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, weather.ErrUpstreamUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"success": false,
			"message": "Fallo en predicción",
			"error":   err.Error(),
		})
		return
	}

	prediction := h.inferer.Infer(ctx, built.Vector, h.threshold)

	notified := 0
	if prediction.RiskLevel == models.RiskLevelHigh {
		notified, err = h.broadcaster.BroadcastFrost(ctx, prediction, built.Meta)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Error notificando suscriptores",
				"error":   err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"prediction": prediction,
		"meta":       built.Meta,
		"notified":   notified,
	})
}

func (h *Handler) smsConfig(c *gin.Context) {
	mode := h.sms.Mode()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"isConfigured": mode == "real",
			"mode":         mode,
		},
	})
}

type subscribeRequest struct {
	Phone string `json:"phone" binding:"required"`
	Name  string `json:"name"`
}

func (h *Handler) subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil || !sms.ValidPhone(req.Phone) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": invalidPhoneMessage})
		return
	}

	name := req.Name
	if name == "" {
		name = guestSubscriberName
	}

	phone := sms.NormalizePhone(req.Phone)
	sub, already, err := h.repo.Subscribe(c.Request.Context(), phone, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error interno del servidor"})
		return
	}

	if already {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"already": true, "phone": phone}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sub})
}

type unsubscribeRequest struct {
	Phone string `json:"phone" binding:"required"`
}

func (h *Handler) unsubscribe(c *gin.Context) {
	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil || !sms.ValidPhone(req.Phone) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": invalidPhoneMessage})
		return
	}

	phone := sms.NormalizePhone(req.Phone)
	removed, err := h.repo.Unsubscribe(c.Request.Context(), phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error interno del servidor"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"phone": phone, "removed": removed}})
}

func (h *Handler) subscriptionStatus(c *gin.Context) {
	phone := c.Query("phone")
	if !sms.ValidPhone(phone) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": invalidPhoneMessage})
		return
	}

	normalized := sms.NormalizePhone(phone)
	sub, err := h.repo.GetByPhone(c.Request.Context(), normalized)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error interno del servidor"})
		return
	}

	if sub == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"subscribed": false, "phone": normalized}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"subscribed":   true,
		"phone":        sub.Phone,
		"name":         sub.Name,
		"subscribedAt": sub.SubscribedAt,
	}})
}

type testSMSRequest struct {
	Phone string `json:"phone" binding:"required"`
}

func (h *Handler) testSMS(c *gin.Context) {
	var req testSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": invalidPhoneMessage})
		return
	}

	result, err := h.sms.SendTest(c.Request.Context(), req.Phone)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": invalidPhoneMessage})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "SMS de prueba enviado", "data": result})
}

type irrigationAlertRequest struct {
	Phone          string `json:"phone" binding:"required"`
	CropType       string `json:"cropType" binding:"required"`
	Recommendation string `json:"recommendation" binding:"required"`
}

func (h *Handler) irrigationAlert(c *gin.Context) {
	var req irrigationAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Teléfono válido (+51 9XX XXX XXX), tipo de cultivo y recomendación son requeridos",
		})
		return
	}

	result, err := h.sms.SendIrrigationAlert(c.Request.Context(), req.Phone, req.CropType, req.Recommendation)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": invalidPhoneMessage})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Alerta de riego enviada", "data": result})
}

type weatherAlertRequest struct {
	Phone     string `json:"phone" binding:"required"`
	AlertType string `json:"alertType" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

func (h *Handler) weatherAlert(c *gin.Context) {
	var req weatherAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Teléfono válido (+51 9XX XXX XXX), tipo de alerta y mensaje son requeridos",
		})
		return
	}

	result, err := h.sms.SendWeatherAlert(c.Request.Context(), req.Phone, req.Message)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": invalidPhoneMessage})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Alerta climática enviada", "data": result})
}

type pestAlertRequest struct {
	Phone          string `json:"phone" binding:"required"`
	PestType       string `json:"pestType" binding:"required"`
	Severity       string `json:"severity" binding:"required"`
	Recommendation string `json:"recommendation" binding:"required"`
}

func (h *Handler) pestAlert(c *gin.Context) {
	var req pestAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Todos los campos son requeridos: teléfono válido (+51 9XX XXX XXX), tipo de plaga, severidad y recomendación",
		})
		return
	}

	result, err := h.sms.SendPestAlert(c.Request.Context(), req.Phone, req.PestType, req.Severity, req.Recommendation)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": invalidPhoneMessage})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Alerta de plagas enviada", "data": result})
}

type solarMaintenanceRequest struct {
	Phone           string `json:"phone" binding:"required"`
	SystemType      string `json:"systemType" binding:"required"`
	NextMaintenance string `json:"nextMaintenance" binding:"required"`
}

func (h *Handler) solarMaintenance(c *gin.Context) {
	var req solarMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Teléfono válido (+51 9XX XXX XXX), tipo de sistema y fecha de mantenimiento son requeridos",
		})
		return
	}

	result, err := h.sms.SendSolarMaintenanceReminder(c.Request.Context(), req.Phone, req.SystemType, req.NextMaintenance)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": invalidPhoneMessage})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Recordatorio solar enviado", "data": result})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
