package template

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/reelforge/reelforge-agent/internal/backend"
)

// Templates change rarely; a short cache keeps template picking snappy
// without risking a long-stale catalog.
const cacheTTL = 5 * time.Minute

// Lister is the slice of the backend client the catalog needs.
type Lister interface {
	ListTemplates(ctx context.Context) ([]backend.Template, error)
	GetTemplate(ctx context.Context, templateID string) (*backend.Template, error)
}

// Catalog is a read-through cache over the backend template list.
type Catalog struct {
	client Lister
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	templates []backend.Template
	fetchedAt time.Time
}

func NewCatalog(client Lister, logger *slog.Logger) *Catalog {
	return &Catalog{client: client, logger: logger, now: time.Now}
}

// Templates returns the cached template list, refreshing it from the
// backend when the cache is empty or older than the TTL.
func (c *Catalog) Templates(ctx context.Context) ([]backend.Template, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.templates != nil && c.now().Sub(c.fetchedAt) < cacheTTL {
		return c.templates, nil
	}

	templates, err := c.client.ListTemplates(ctx)
	if err != nil {
		// Serve the stale list rather than fail when the backend blips.
		if c.templates != nil {
			c.logger.Warn("template refresh failed, serving cached list", "error", err)
			return c.templates, nil
		}
		return nil, fmt.Errorf("fetch templates: %w", err)
	}

	c.templates = templates
	c.fetchedAt = c.now()
	return c.templates, nil
}

// Template returns one template by id, preferring the cached list and
// falling back to a direct fetch.
func (c *Catalog) Template(ctx context.Context, id string) (*backend.Template, error) {
	templates, err := c.Templates(ctx)
	if err == nil {
		for i := range templates {
			if templates[i].ID == id {
				return &templates[i], nil
			}
		}
	}

	tmpl, err := c.client.GetTemplate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch template %s: %w", id, err)
	}
	return tmpl, nil
}

// Invalidate drops the cached list. The next read refetches.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates = nil
	c.fetchedAt = time.Time{}
}
