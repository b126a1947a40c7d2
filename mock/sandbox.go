package mock

import (
	"context"

	"github.com/fwojciec/parley"
)

// Interface compliance checks.
var (
	_ parley.Sandbox       = (*Sandbox)(nil)
	_ parley.SceneProvider = (*Scene)(nil)
	_ parley.Settings      = (*Settings)(nil)
)

// Sandbox is a test double for parley.Sandbox.
type Sandbox struct {
	ExecuteFn func(ctx context.Context, code string) error
}

// Execute delegates to ExecuteFn.
func (s *Sandbox) Execute(ctx context.Context, code string) error {
	return s.ExecuteFn(ctx, code)
}

// Scene is a test double for parley.SceneProvider.
// Describe returns an empty description when DescribeFn is nil.
type Scene struct {
	DescribeFn func(ctx context.Context) (string, error)
}

// Describe delegates to DescribeFn.
func (s *Scene) Describe(ctx context.Context) (string, error) {
	if s.DescribeFn == nil {
		return "", nil
	}
	return s.DescribeFn(ctx)
}

// Settings is a test double for parley.Settings. Unset functions return
// zero values.
type Settings struct {
	BaseURLFn     func() string
	AutoExecuteFn func() bool
}

// BaseURL delegates to BaseURLFn.
func (s *Settings) BaseURL() string {
	if s.BaseURLFn == nil {
		return ""
	}
	return s.BaseURLFn()
}

// AutoExecute delegates to AutoExecuteFn.
func (s *Settings) AutoExecute() bool {
	if s.AutoExecuteFn == nil {
		return false
	}
	return s.AutoExecuteFn()
}
