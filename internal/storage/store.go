package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by SignGet when the key refers to no live object.
var ErrNotFound = errors.New("object not found")

// PutResult describes a committed object.
type PutResult struct {
	Key  string
	Size int64
	ETag string
}

// ObjectStore is the durable blob backend the media pipeline commits to.
// Delete is idempotent: removing an absent key is not an error.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string, meta map[string]string) (*PutResult, error)
	Delete(ctx context.Context, key string) error
	SignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
