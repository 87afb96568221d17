package testutil

import (
	"context"
	"net/http"

	"trustbase/internal/platform/middleware"
)

// WithUserID adds a user ID to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithUserID(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserID, userID)
	return req.WithContext(ctx)
}
