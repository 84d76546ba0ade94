package wizard

import (
	"fmt"

	"github.com/gosimple/slug"

	"github.com/campusmatch/campusmatch/pkg/forms"
)

// Action is what the primary button of a step does.
type Action int

const (
	// ActionSubmit validates, saves the answers and advances or completes.
	ActionSubmit Action = iota
	// ActionContinue validates and advances without saving.
	ActionContinue
)

func (a Action) String() string {
	if a == ActionContinue {
		return "continue"
	}
	return "submit"
}

// Step is one screen of a flow.
type Step struct {
	// ID identifies the step. Defaults to the slug of Title.
	ID       string
	Title    string
	Subtitle string

	// Label is the short name shown in the progress indicator.
	Label string

	// StorageKey is where the answers are saved on submit. Steps
	// without one are never persisted.
	StorageKey string

	Schema *forms.Schema
	Rules  []forms.Rule
	Action Action
}

// Flow is an ordered list of steps served at one path.
type Flow struct {
	Name  string
	Path  string
	Steps []Step

	// CompletePath is where the terminal submit navigates to.
	CompletePath string
}

// NewFlow checks the steps and fills in default ids and labels.
func NewFlow(name, path, completePath string, steps ...Step) (*Flow, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: %s has no steps", ErrInvalidFlow, name)
	}

	seen := make(map[string]bool, len(steps))
	out := make([]Step, len(steps))
	for i, s := range steps {
		if s.Schema == nil {
			return nil, fmt.Errorf("%w: %s step %d has no schema", ErrInvalidFlow, name, i)
		}
		if s.ID == "" {
			s.ID = slug.Make(s.Title)
		}
		if s.ID == "" {
			return nil, fmt.Errorf("%w: %s step %d has neither id nor title", ErrInvalidFlow, name, i)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("%w: %s: duplicate step %q", ErrInvalidFlow, name, s.ID)
		}
		seen[s.ID] = true
		if s.Label == "" {
			s.Label = s.Title
		}
		if _, err := forms.NewForm(s.Schema, s.Rules...); err != nil {
			return nil, fmt.Errorf("%w: %s step %q: %w", ErrInvalidFlow, name, s.ID, err)
		}
		out[i] = s
	}

	return &Flow{
		Name:         name,
		Path:         path,
		Steps:        out,
		CompletePath: completePath,
	}, nil
}

// MustFlow is NewFlow that panics on error.
func MustFlow(name, path, completePath string, steps ...Step) *Flow {
	f, err := NewFlow(name, path, completePath, steps...)
	if err != nil {
		panic(err)
	}
	return f
}

// StepIndex returns the index of the step with the given id, or -1.
func (f *Flow) StepIndex(id string) int {
	for i, s := range f.Steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// StorageKeys lists the keys written by the flow's steps.
func (f *Flow) StorageKeys() []string {
	var keys []string
	for _, s := range f.Steps {
		if s.StorageKey != "" {
			keys = append(keys, s.StorageKey)
		}
	}
	return keys
}
