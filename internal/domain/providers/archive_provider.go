package providers

import (
	"context"
)

// ArchiveProvider stores immutable snapshots outside the service.
type ArchiveProvider interface {
	// Put uploads body under key and returns its location.
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}
