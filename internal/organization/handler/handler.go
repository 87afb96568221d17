package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustbase/internal/organization"
	"trustbase/internal/platform/metrics"
	"trustbase/internal/platform/middleware"
	dErrors "trustbase/pkg/domain-errors"
	"trustbase/pkg/platform/httputil"
)

// Service defines the interface for catalog operations.
type Service interface {
	ListForPrincipal(ctx context.Context, principalID string) ([]organization.WithAccess, error)
	Create(ctx context.Context, req organization.CreateRequest) (organization.Organization, error)
}

// Handler handles organization catalog endpoints.
type Handler struct {
	logger       *slog.Logger
	catalog      Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new organization Handler.
func New(catalog Service, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		catalog:      catalog,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the organization routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(orgRouter chi.Router) {
		orgRouter.Use(middleware.Recovery(h.logger))
		orgRouter.Use(middleware.RequestID)
		orgRouter.Use(middleware.Logger(h.logger))
		orgRouter.Use(middleware.Timeout(30 * time.Second))
		orgRouter.Use(middleware.LatencyMiddleware(h.metrics))
		orgRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		orgRouter.Get("/api/organizations", h.handleListOrganizations)
		orgRouter.With(middleware.ContentTypeJSON).Post("/api/organizations", h.handleCreateOrganization)
	})
}

func (h *Handler) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
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

	orgs, err := h.catalog.ListForPrincipal(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list organizations",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"organizations": orgs})
}

func (h *Handler) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req organization.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid create organization request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	org, err := h.catalog.Create(ctx, req)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeValidation) {
			h.logger.WarnContext(ctx, "invalid create organization request",
				"request_id", requestID,
				"error", err.Error(),
			)
		} else {
			h.logger.ErrorContext(ctx, "failed to create organization",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"organization": org})
}
