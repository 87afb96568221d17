package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustbase/internal/platform/metrics"
	"trustbase/internal/platform/middleware"
	"trustbase/internal/timeline"
	dErrors "trustbase/pkg/domain-errors"
	"trustbase/pkg/platform/httputil"
)

// Service defines the interface for timeline reporting.
type Service interface {
	View(ctx context.Context, principalID string) (*timeline.View, error)
}

// Handler handles the timeline endpoint.
type Handler struct {
	logger       *slog.Logger
	timeline     Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new timeline Handler.
func New(timelineService Service, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		timeline:     timelineService,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the timeline routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(timelineRouter chi.Router) {
		timelineRouter.Use(middleware.Recovery(h.logger))
		timelineRouter.Use(middleware.RequestID)
		timelineRouter.Use(middleware.Logger(h.logger))
		timelineRouter.Use(middleware.Timeout(30 * time.Second))
		timelineRouter.Use(middleware.LatencyMiddleware(h.metrics))
		timelineRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		timelineRouter.Get("/api/timeline", h.handleGetTimeline)
	})
}

func (h *Handler) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	view, err := h.timeline.View(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build timeline",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, view)
}
