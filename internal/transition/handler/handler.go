package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustbase/internal/platform/metrics"
	"trustbase/internal/platform/middleware"
	"trustbase/internal/transition"
	dErrors "trustbase/pkg/domain-errors"
	"trustbase/pkg/platform/httputil"
)

// Service defines the interface for permission transitions.
type Service interface {
	Transition(ctx context.Context, principalID, organizationID string, desiredGranted bool) (*transition.Result, error)
	Permissions(ctx context.Context, principalID string) (*transition.PermissionsView, error)
}

// transitionRequest is the payload for a permission change. AccessGranted
// is a pointer so a missing field is distinguishable from false.
type transitionRequest struct {
	OrganizationID string `json:"organization_id"`
	AccessGranted  *bool  `json:"access_granted"`
}

// Handler handles data-access endpoints.
type Handler struct {
	logger       *slog.Logger
	transitions  Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new transition Handler.
func New(transitions Service, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		transitions:  transitions,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the data-access routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(accessRouter chi.Router) {
		accessRouter.Use(middleware.Recovery(h.logger))
		accessRouter.Use(middleware.RequestID)
		accessRouter.Use(middleware.Logger(h.logger))
		accessRouter.Use(middleware.Timeout(30 * time.Second))
		accessRouter.Use(middleware.LatencyMiddleware(h.metrics))
		accessRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		accessRouter.With(middleware.ContentTypeJSON).Post("/api/data-access", h.handleTransition)
		accessRouter.Get("/api/data-access", h.handleGetPermissions)
	})
}

// handleTransition applies one permission change for the authenticated user.
func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
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

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid transition request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.OrganizationID == "" || req.AccessGranted == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation,
			"missing required fields: organization_id, access_granted"))
		return
	}

	result, err := h.transitions.Transition(ctx, userID, req.OrganizationID, *req.AccessGranted)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeValidation) || dErrors.Is(err, dErrors.CodeNotFound) {
			h.logger.WarnContext(ctx, "transition rejected",
				"request_id", requestID,
				"organization_id", req.OrganizationID,
				"error", err.Error(),
			)
		} else {
			h.logger.ErrorContext(ctx, "transition failed",
				"request_id", requestID,
				"organization_id", req.OrganizationID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// handleGetPermissions returns the authenticated user's permission state per
// organization, most recently updated first.
func (h *Handler) handleGetPermissions(w http.ResponseWriter, r *http.Request) {
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

	view, err := h.transitions.Permissions(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list permissions",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, view)
}
