package settings

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidEndpoint is returned by Save for values that are not absolute
// http(s) URLs.
var ErrInvalidEndpoint = errors.New("endpoint must be an absolute http or https URL")

// Endpoints reads and writes the configured endpoint through a Store.
type Endpoints struct {
	store Store
}

// NewEndpoints wraps store for the inference endpoint setting.
func NewEndpoints(store Store) *Endpoints {
	return &Endpoints{store: store}
}

// Endpoint returns the stored URL, or "" when none is set.
func (e *Endpoints) Endpoint(ctx context.Context) (string, error) {
	value, err := e.store.Get(ctx, EndpointKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Save validates and stores raw. An empty value removes the setting.
func (e *Endpoints) Save(ctx context.Context, raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		if err := e.store.Delete(ctx, EndpointKey); err != nil && !errors.Is(err, ErrNotFound) {
			return "", err
		}
		return "", nil
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", ErrInvalidEndpoint
	}

	if err := e.store.Set(ctx, EndpointKey, value); err != nil {
		return "", err
	}
	return value, nil
}
