package handler

import (
	"context"

	"github.com/sangamlabs/sangam/internal/api/middleware"
)

// GetMemberID retrieves the authenticated member ID from the context.
// This is a convenience wrapper around middleware.GetMemberID.
func GetMemberID(ctx context.Context) string {
	return middleware.GetMemberID(ctx)
}
