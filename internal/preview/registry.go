// Package preview hands out short-lived URLs for uploaded images so the page
// can display them before and after analysis.
package preview

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/example/forgery-check/internal/analysis"
)

// PathPrefix is the URL prefix previews are served under.
const PathPrefix = "/previews/"

// Registry maps preview IDs to images until they are revoked.
type Registry struct {
	mu     sync.RWMutex
	images map[string]analysis.Image
}

// NewRegistry returns an empty preview registry.
func NewRegistry() *Registry {
	return &Registry{images: make(map[string]analysis.Image)}
}

// Create registers img and returns its preview URL.
func (r *Registry) Create(img analysis.Image) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.images[id] = img
	r.mu.Unlock()
	return PathPrefix + id
}

// Open returns the image behind a preview ID.
func (r *Registry) Open(id string) (analysis.Image, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	img, ok := r.images[id]
	return img, ok
}

// Revoke releases the image behind url. Unknown URLs are ignored.
func (r *Registry) Revoke(url string) {
	id := strings.TrimPrefix(url, PathPrefix)
	r.mu.Lock()
	delete(r.images, id)
	r.mu.Unlock()
}

// Len reports how many previews are still held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.images)
}
