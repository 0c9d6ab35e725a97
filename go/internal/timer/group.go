package timer

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTimer is returned when a group has no engine with the requested name
var ErrUnknownTimer = errors.New("unknown timer")

// Group holds the independent engines of one board, addressed by name
type Group struct {
	engines map[string]*Engine
}

// NewGroup indexes engines by name
func NewGroup(engines ...*Engine) *Group {
	g := &Group{engines: make(map[string]*Engine, len(engines))}
	for _, e := range engines {
		g.engines[e.Name()] = e
	}
	return g
}

// Get returns the engine called name
func (g *Group) Get(name string) (*Engine, error) {
	e, ok := g.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTimer, name)
	}
	return e, nil
}

// Names lists engine names in sorted order
func (g *Group) Names() []string {
	names := make([]string, 0, len(g.engines))
	for name := range g.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RestoreAll restores every engine, stopping at the first failure
func (g *Group) RestoreAll(ctx context.Context) error {
	for _, name := range g.Names() {
		if err := g.engines[name].Restore(ctx); err != nil {
			return fmt.Errorf("failed to restore timer %s: %w", name, err)
		}
	}
	return nil
}

// Close stops every engine's ticker
func (g *Group) Close() {
	for _, e := range g.engines {
		e.Close()
	}
}
