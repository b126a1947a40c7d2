// Package mock provides test doubles for parley interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/parley"
)

// Interface compliance checks.
var (
	_ parley.Provider     = (*Provider)(nil)
	_ parley.ModelCatalog = (*Catalog)(nil)
)

// Provider is a test double for parley.Provider.
// Set StreamFn before calling Stream.
type Provider struct {
	StreamFn func(ctx context.Context, req parley.Request) (parley.Stream, error)
}

// Stream delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, req parley.Request) (parley.Stream, error) {
	return p.StreamFn(ctx, req)
}

// Catalog is a test double for parley.ModelCatalog.
type Catalog struct {
	ModelsFn func(ctx context.Context) ([]string, error)
}

// Models delegates to ModelsFn.
func (c *Catalog) Models(ctx context.Context) ([]string, error) {
	return c.ModelsFn(ctx)
}
