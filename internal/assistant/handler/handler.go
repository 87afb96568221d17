package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustbase/internal/assistant"
	"trustbase/internal/platform/metrics"
	"trustbase/internal/platform/middleware"
	dErrors "trustbase/pkg/domain-errors"
	"trustbase/pkg/platform/httputil"
)

// Service defines the interface for assistant responses.
type Service interface {
	Respond(ctx context.Context, message string) (*assistant.Reply, error)
}

type messageRequest struct {
	Message string `json:"message"`
}

// Handler handles the assistant endpoint.
type Handler struct {
	logger    *slog.Logger
	assistant Service
	metrics   *metrics.Metrics
}

// New creates a new assistant Handler.
func New(assistantService Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		assistant: assistantService,
		metrics:   metrics,
	}
}

// Register registers the assistant routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(assistantRouter chi.Router) {
		assistantRouter.Use(middleware.Recovery(h.logger))
		assistantRouter.Use(middleware.RequestID)
		assistantRouter.Use(middleware.Logger(h.logger))
		assistantRouter.Use(middleware.Timeout(30 * time.Second))
		assistantRouter.Use(middleware.ContentTypeJSON)
		assistantRouter.Use(middleware.LatencyMiddleware(h.metrics))
		assistantRouter.Post("/api/assistant", h.handleMessage)
	})
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid assistant request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	reply, err := h.assistant.Respond(ctx, req.Message)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reply)
}
