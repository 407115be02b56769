// Package settings persists the client's single configured value: the base
// URL of the inference service.
package settings

import (
	"context"
	"errors"
)

// EndpointKey is the fixed key the endpoint URL is stored under.
const EndpointKey = "apiUrl"

// ErrNotFound is returned by a Store when the key has no value.
var ErrNotFound = errors.New("setting not found")

// Store is a string key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
