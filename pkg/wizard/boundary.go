// Package wizard runs multi-step registration flows: one controller per
// screen, a cursor over the screens, and the persistence and navigation
// boundaries they talk to.
package wizard

import (
	"context"
	"errors"

	"github.com/campusmatch/campusmatch/pkg/forms"
)

// Common wizard errors.
var (
	ErrInvalidFlow    = errors.New("invalid flow")
	ErrStepOutOfRange = errors.New("step index out of range")
	ErrInactive       = errors.New("step is not active")
	ErrNoPersister    = errors.New("no persister configured")
	ErrNoNavigator    = errors.New("no navigator configured")
)

// Persister reads and writes one screen's answers by storage key.
type Persister interface {
	// Load returns the decoded answers saved under key, or nil when
	// nothing was saved.
	Load(ctx context.Context, key string) (map[string]any, error)

	// Save overwrites the answers saved under key.
	Save(ctx context.Context, key string, answers forms.AnswerSet) error
}

// Navigator moves the host application between pages.
type Navigator interface {
	// Navigate goes to path.
	Navigate(ctx context.Context, path string) error

	// Back goes one entry back in the navigation history.
	Back(ctx context.Context) error
}

// NavigatorFuncs adapts two functions to a Navigator.
type NavigatorFuncs struct {
	NavigateFn func(ctx context.Context, path string) error
	BackFn     func(ctx context.Context) error
}

func (n NavigatorFuncs) Navigate(ctx context.Context, path string) error {
	if n.NavigateFn == nil {
		return ErrNoNavigator
	}
	return n.NavigateFn(ctx, path)
}

func (n NavigatorFuncs) Back(ctx context.Context) error {
	if n.BackFn == nil {
		return ErrNoNavigator
	}
	return n.BackFn(ctx)
}
