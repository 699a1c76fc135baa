package media

import (
	"context"
	"log"
	"strings"
	"time"
)

// Presigner issues time-limited object URLs
type Presigner interface {
	PresignedGet(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}

// Resolver turns logical media names into URLs. With a presigner it
// issues signed links; otherwise it joins the object path to baseURL.
type Resolver struct {
	manifest  Manifest
	baseURL   string
	presigner Presigner
	ttl       time.Duration
}

// NewResolver creates a resolver serving static links under baseURL
func NewResolver(manifest Manifest, baseURL string) *Resolver {
	return &Resolver{manifest: manifest, baseURL: strings.TrimRight(baseURL, "/")}
}

// WithPresigner switches the resolver to signed links valid for ttl
func (r *Resolver) WithPresigner(p Presigner, ttl time.Duration) *Resolver {
	r.presigner = p
	r.ttl = ttl
	return r
}

// URL returns the link for name, or "" when the manifest does not know it
func (r *Resolver) URL(ctx context.Context, name string) string {
	path, ok := r.manifest.Lookup(name)
	if !ok {
		return ""
	}

	if r.presigner != nil {
		u, err := r.presigner.PresignedGet(ctx, path, r.ttl)
		if err == nil {
			return u
		}
		log.Printf("media presign failed for %s, using static link: %v", name, err)
	}
	return r.baseURL + "/" + strings.TrimLeft(path, "/")
}
