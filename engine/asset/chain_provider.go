package asset

import (
	"context"
	"errors"
	"fmt"
)

type chainProvider struct {
	providers []Provider
}

var _ Provider = &chainProvider{}

// NewChainProvider creates a Provider that asks each provider in turn. A provider that reports
// ErrUnknownGeometry passes the handle on to the next one; any other result is final.
//
// Parameters:
//   - providers: the providers in priority order
//
// Returns:
//   - Provider: the combined provider
func NewChainProvider(providers ...Provider) Provider {
	return &chainProvider{providers: providers}
}

func (c *chainProvider) LoadGeometry(ctx context.Context, handle Handle, completion func(*MeshData, error)) {
	c.load(ctx, 0, handle, completion)
}

func (c *chainProvider) load(ctx context.Context, i int, handle Handle, completion func(*MeshData, error)) {
	if i >= len(c.providers) {
		go completion(nil, fmt.Errorf("%w: %q", ErrUnknownGeometry, handle))
		return
	}
	c.providers[i].LoadGeometry(ctx, handle, func(data *MeshData, err error) {
		if errors.Is(err, ErrUnknownGeometry) {
			c.load(ctx, i+1, handle, completion)
			return
		}
		completion(data, err)
	})
}
