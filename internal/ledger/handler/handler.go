package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"trustbase/internal/ledger"
	"trustbase/internal/platform/metrics"
	"trustbase/internal/platform/middleware"
	dErrors "trustbase/pkg/domain-errors"
	"trustbase/pkg/platform/httputil"
)

// Reader serves pages of the public ledger.
type Reader interface {
	List(ctx context.Context, limit, offset int) (*ledger.Page, error)
}

// Handler handles the public transparency-ledger endpoint. The route is
// unauthenticated: the history it serves is anonymized and verifiable.
type Handler struct {
	logger  *slog.Logger
	reader  Reader
	metrics *metrics.Metrics
}

// New creates a new ledger Handler.
func New(reader Reader, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		reader:  reader,
		metrics: metrics,
	}
}

// Register registers the ledger routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(ledgerRouter chi.Router) {
		ledgerRouter.Use(middleware.Recovery(h.logger))
		ledgerRouter.Use(middleware.RequestID)
		ledgerRouter.Use(middleware.Logger(h.logger))
		ledgerRouter.Use(middleware.Timeout(30 * time.Second))
		ledgerRouter.Use(middleware.LatencyMiddleware(h.metrics))
		ledgerRouter.Get("/api/transparency-ledger", h.handleListLedger)
	})
}

// handleListLedger returns one page of the anonymized history together with
// a whole-chain integrity verdict and aggregate statistics.
func (h *Handler) handleListLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	limit, err := queryInt(r, "limit")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer"))
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "offset must be an integer"))
		return
	}

	page, err := h.reader.List(ctx, limit, offset)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeValidation) {
			h.logger.WarnContext(ctx, "invalid ledger page request",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to read transparency ledger",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	if !page.ChainIntegrity.Valid {
		h.logger.ErrorContext(ctx, "transparency ledger failed verification",
			"request_id", requestID,
			"first_break_index", page.ChainIntegrity.FirstBreakIndex,
		)
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
