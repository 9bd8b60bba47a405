package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/sublimeminds/mindful-bot-compass-sub016/docs"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/dto"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/engine"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/metrics"
	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/service"
)

type Handler struct {
	eventService  service.EventServicer
	timingService service.TimingServicer
	router        *gin.Engine
	log           *zap.Logger
}

func NewHandler(eventService service.EventServicer, timingService service.TimingServicer, log *zap.Logger) *Handler {
	h := &Handler{
		eventService:  eventService,
		timingService: timingService,
		router:        gin.Default(),
		log:           log,
	}

	h.router.Use(observeDuration)
	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.router.POST("/events", h.publishEvent)
	h.router.POST("/events/bulk", h.publishEventsBulk)
	h.router.POST("/feedback", h.recordFeedback)

	users := h.router.Group("/users/:user_id")
	users.GET("/patterns", h.getPatterns)
	users.POST("/predictions", h.predictTiming)
	users.GET("/frequency-policy", h.getFrequencyPolicy)
	users.GET("/frequency-policy/snapshot", h.getPolicySnapshot)
	users.PUT("/quiet-hours", h.setQuietHours)

	h.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func observeDuration(c *gin.Context) {
	start := time.Now()
	c.Next()

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	metrics.HTTPRequestDuration.
		WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
		Observe(time.Since(start).Seconds())
}

// respondError maps service errors onto HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrStorage):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error:   "storage_unavailable",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrPreferencesReadOnly):
		c.JSON(http.StatusNotImplemented, dto.ErrorResponse{
			Error:   "not_configured",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
	}
}

func (h *Handler) bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}

func userIDParam(c *gin.Context) (string, bool) {
	userID := strings.TrimSpace(c.Param("user_id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: "user_id is required",
		})
		return "", false
	}
	return userID, true
}

// healthCheck handles health check requests
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// publishEvent handles POST /events
// @Summary Publish a single interaction event
// @Description Validate an interaction event and enqueue it for storage
// @Tags events
// @Accept json
// @Produce json
// @Param event body dto.PublishEventRequest true "Event data"
// @Success 202 {object} dto.PublishEventResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /events [post]
func (h *Handler) publishEvent(c *gin.Context) {
	var req dto.PublishEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid event request",
			zap.Error(err),
			zap.String("notification_type", req.NotificationType))
		h.bindError(c, err)
		return
	}

	eventID, err := h.eventService.ProcessEvent(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to process event",
			zap.Error(err),
			zap.String("notification_type", req.NotificationType),
			zap.String("user_id", req.UserID))
		h.respondError(c, err)
		return
	}

	h.log.Info("Event accepted",
		zap.String("event_id", eventID),
		zap.String("event_type", req.EventType))

	c.JSON(http.StatusAccepted, dto.PublishEventResponse{
		EventID: eventID,
		Status:  "accepted",
	})
}

// publishEventsBulk handles POST /events/bulk
// @Summary Publish multiple interaction events
// @Description Validate and enqueue up to 1000 interaction events; invalid events are reported per index
// @Tags events
// @Accept json
// @Produce json
// @Param events body dto.PublishEventsBulkRequest true "Bulk events data"
// @Success 202 {object} dto.PublishBulkEventsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /events/bulk [post]
func (h *Handler) publishEventsBulk(c *gin.Context) {
	var bulkRequest dto.PublishEventsBulkRequest

	if err := c.ShouldBindJSON(&bulkRequest); err != nil {
		h.log.Warn("Invalid bulk event request", zap.Error(err))
		h.bindError(c, err)
		return
	}

	eventIDs, errs, err := h.eventService.ProcessBulkEvents(c.Request.Context(), bulkRequest.Events)
	if err != nil {
		h.log.Error("Failed to process bulk events",
			zap.Error(err),
			zap.Int("event_count", len(bulkRequest.Events)))
		h.respondError(c, err)
		return
	}

	accepted := len(eventIDs)
	rejected := len(errs)

	h.log.Info("Bulk events processed",
		zap.Int("accepted", accepted),
		zap.Int("rejected", rejected),
		zap.Int("total", len(bulkRequest.Events)))

	c.JSON(http.StatusAccepted, dto.PublishBulkEventsResponse{
		Accepted: accepted,
		Rejected: rejected,
		EventIDs: eventIDs,
		Errors:   errs,
	})
}

// getPatterns handles GET /users/{user_id}/patterns
// @Summary Engagement patterns
// @Description Engagement aggregated per hour of day and day of week
// @Tags timing
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} dto.PatternsResponse
// @Router /users/{user_id}/patterns [get]
func (h *Handler) getPatterns(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	patterns, err := h.timingService.AnalyzePatterns(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PatternsResponse{
		UserID:   userID,
		Patterns: patterns,
	})
}

// predictTiming handles POST /users/{user_id}/predictions
// @Summary Predict optimal delivery time
// @Description Recommend the next delivery time for a notification type with confidence and alternatives
// @Tags timing
// @Accept json
// @Produce json
// @Param user_id path string true "User ID"
// @Param request body dto.PredictTimingRequest true "Notification type and current context"
// @Success 200 {object} dto.PredictionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /users/{user_id}/predictions [post]
func (h *Handler) predictTiming(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var req dto.PredictTimingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid prediction request", zap.Error(err), zap.String("user_id", userID))
		h.bindError(c, err)
		return
	}

	prediction, err := h.timingService.PredictOptimalTiming(c.Request.Context(), userID, req.NotificationType, req.ContextFactors)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PredictionResponse{
		UserID:           userID,
		TimingPrediction: prediction,
	})
}

// recordFeedback handles POST /feedback
// @Summary Record delivery feedback
// @Description Score a user's response to a delivered notification and append it to the history
// @Tags timing
// @Accept json
// @Produce json
// @Param feedback body dto.RecordFeedbackRequest true "Feedback"
// @Success 201 {object} dto.FeedbackResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /feedback [post]
func (h *Handler) recordFeedback(c *gin.Context) {
	var req dto.RecordFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid feedback request", zap.Error(err))
		h.bindError(c, err)
		return
	}

	in := engine.FeedbackInput{
		UserID:                 req.UserID,
		NotificationID:         req.NotificationID,
		NotificationType:       req.NotificationType,
		ResponseType:           domain.EventType(strings.ToLower(strings.TrimSpace(req.ResponseType))),
		ResponseLatencyMinutes: *req.ResponseLatencyMinutes,
		ContextFactors:         req.ContextFactors,
	}
	if req.OccurredAt != nil {
		in.OccurredAt = *req.OccurredAt
	}

	record, err := h.timingService.RecordFeedback(c.Request.Context(), in)
	if err != nil {
		h.log.Warn("Failed to record feedback",
			zap.Error(err),
			zap.String("user_id", req.UserID),
			zap.String("notification_id", req.NotificationID))
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FeedbackResponse{
		EventID: record.Event.ID,
		Score:   record.Score,
		Status:  "recorded",
	})
}

// getFrequencyPolicy handles GET /users/{user_id}/frequency-policy
// @Summary Frequency policy
// @Description Personalized daily, hourly and spacing limits plus quiet hours
// @Tags frequency
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} dto.FrequencyPolicyResponse
// @Router /users/{user_id}/frequency-policy [get]
func (h *Handler) getFrequencyPolicy(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	policy, err := h.timingService.GetFrequencyPolicy(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FrequencyPolicyResponse{
		UserID:          userID,
		FrequencyPolicy: policy,
	})
}

// getPolicySnapshot handles GET /users/{user_id}/frequency-policy/snapshot
// @Summary Precomputed frequency policy
// @Description The policy last stored by the nightly refresher
// @Tags frequency
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} dto.FrequencyPolicyResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /users/{user_id}/frequency-policy/snapshot [get]
func (h *Handler) getPolicySnapshot(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	policy, err := h.timingService.GetPolicySnapshot(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if policy == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: "no policy snapshot for user " + userID,
		})
		return
	}

	c.JSON(http.StatusOK, dto.FrequencyPolicyResponse{
		UserID:          userID,
		FrequencyPolicy: *policy,
	})
}

// setQuietHours handles PUT /users/{user_id}/quiet-hours
// @Summary Set quiet hours
// @Description Store a quiet hours override, or clear it with "clear": true
// @Tags frequency
// @Accept json
// @Produce json
// @Param user_id path string true "User ID"
// @Param request body dto.SetQuietHoursRequest true "Quiet hours"
// @Success 200 {object} dto.QuietHoursResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 501 {object} dto.ErrorResponse
// @Router /users/{user_id}/quiet-hours [put]
func (h *Handler) setQuietHours(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var req dto.SetQuietHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	var quietHours *domain.QuietHours
	if !req.Clear {
		quietHours = &domain.QuietHours{Start: req.Start, End: req.End}
	}

	if err := h.timingService.SetQuietHours(c.Request.Context(), userID, quietHours); err != nil {
		h.respondError(c, err)
		return
	}

	h.log.Info("Quiet hours updated",
		zap.String("user_id", userID),
		zap.Bool("cleared", req.Clear))

	c.JSON(http.StatusOK, dto.QuietHoursResponse{
		UserID:     userID,
		QuietHours: quietHours,
	})
}
