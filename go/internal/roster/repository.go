package roster

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SchemaSQL creates the table the Postgres source reads from
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS roster_entries (
    team_name   TEXT NOT NULL,
    player_name TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (team_name, player_name)
)`

// Querier defines what the repository needs from the database layer. *pgxpool.Pool satisfies it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository reads rosters from Postgres
type Repository struct {
	queries Querier
}

// NewRepository creates a new roster repository
func NewRepository(querier Querier) *Repository {
	return &Repository{
		queries: querier,
	}
}

// FetchPairs returns every roster row in insertion order
func (r *Repository) FetchPairs(ctx context.Context) ([]Pair, error) {
	rows, err := r.queries.Query(ctx, `
		SELECT team_name, player_name
		FROM roster_entries
		ORDER BY created_at, team_name, player_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rosters: %w", err)
	}

	pairs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Pair, error) {
		var p Pair
		err := row.Scan(&p.TeamA, &p.TeamB)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan rosters: %w", err)
	}
	return pairs, nil
}
