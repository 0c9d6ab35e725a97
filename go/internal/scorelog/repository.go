package scorelog

import (
	"context"
	"fmt"

	"github.com/mcdev12/scorekeeper/go/internal/kvstore"
)

// Session-scoped storage keys
const (
	KeyScoreLogs     = "scoreLogs"
	KeyTotals        = "scoreTotals"
	KeySelectedTeams = "selectedTeams"
)

// Repository persists the session: log, totals and team selection
type Repository struct {
	store kvstore.Store
}

// NewRepository creates a repository over a session-scoped store
func NewRepository(store kvstore.Store) *Repository {
	return &Repository{store: store}
}

// LoadEntries returns the persisted log in insertion order
func (r *Repository) LoadEntries(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if _, err := kvstore.LoadJSON(ctx, r.store, KeyScoreLogs, &entries); err != nil {
		return nil, fmt.Errorf("failed to load score log: %w", err)
	}
	return entries, nil
}

// SaveEntries replaces the persisted log. An empty log removes the key.
func (r *Repository) SaveEntries(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		if err := r.store.Remove(ctx, KeyScoreLogs); err != nil {
			return fmt.Errorf("failed to clear score log: %w", err)
		}
		return nil
	}

	if err := kvstore.SaveJSON(ctx, r.store, KeyScoreLogs, entries); err != nil {
		return fmt.Errorf("failed to save score log: %w", err)
	}
	return nil
}

// LoadTotals returns the persisted totals, zero when absent
func (r *Repository) LoadTotals(ctx context.Context) (Totals, error) {
	var totals Totals
	if _, err := kvstore.LoadJSON(ctx, r.store, KeyTotals, &totals); err != nil {
		return Totals{}, fmt.Errorf("failed to load totals: %w", err)
	}
	return totals, nil
}

// SaveTotals persists the totals
func (r *Repository) SaveTotals(ctx context.Context, totals Totals) error {
	if err := kvstore.SaveJSON(ctx, r.store, KeyTotals, totals); err != nil {
		return fmt.Errorf("failed to save totals: %w", err)
	}
	return nil
}

// LoadTeams returns the persisted team selection
func (r *Repository) LoadTeams(ctx context.Context) (Teams, error) {
	var teams Teams
	if _, err := kvstore.LoadJSON(ctx, r.store, KeySelectedTeams, &teams); err != nil {
		return Teams{}, fmt.Errorf("failed to load team selection: %w", err)
	}
	return teams, nil
}

// SaveTeams persists the team selection
func (r *Repository) SaveTeams(ctx context.Context, teams Teams) error {
	if err := kvstore.SaveJSON(ctx, r.store, KeySelectedTeams, teams); err != nil {
		return fmt.Errorf("failed to save team selection: %w", err)
	}
	return nil
}
