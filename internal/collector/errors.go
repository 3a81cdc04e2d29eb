package collector

import (
	"context"
	"errors"

	"matchsync/internal/riot"
)

// ErrSyncInProgress is returned when a sync for the same player is already running
var ErrSyncInProgress = errors.New("sync already in progress for player")

// IsAPIKeyError reports whether err means the credential was rejected (401 or 403)
func IsAPIKeyError(err error) bool {
	return errors.Is(err, riot.ErrUnauthorized) || errors.Is(err, riot.ErrForbidden)
}

// NotifyFunc is called to send notifications (e.g., Discord webhook)
type NotifyFunc func(ctx context.Context, message string) error
