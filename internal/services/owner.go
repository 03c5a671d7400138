package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/yungbote/breadlog-backend/internal/platform/apierr"
	"github.com/yungbote/breadlog-backend/internal/platform/ctxutil"
)

var ErrUnauthenticated = errors.New("request is not authenticated")

// ownerFromContext returns the authenticated owner set by the auth middleware.
func ownerFromContext(ctx context.Context) (uuid.UUID, error) {
	ownerID := ctxutil.OwnerID(ctx)
	if ownerID == uuid.Nil {
		return uuid.Nil, apierr.New(http.StatusUnauthorized, "unauthorized", ErrUnauthenticated)
	}
	return ownerID, nil
}
