package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/scorekeeper/go/internal/dbconfig"
	"github.com/mcdev12/scorekeeper/go/internal/roster"
)

func main() {
	path := "go/internal/assets/rosters.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the JSON snapshot, same shape the league endpoint serves
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var pairs []roster.Pair
	if err := json.Unmarshal(data, &pairs); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, roster.SchemaSQL); err != nil {
		fmt.Fprintf(os.Stderr, "create roster table: %v\n", err)
		os.Exit(1)
	}

	// 3) Upsert and count
	var (
		total    = len(pairs)
		inserted int
		skipped  int
		errs     int
	)

	for _, p := range pairs {
		if p.TeamA == "" || p.TeamB == "" {
			fmt.Fprintf(os.Stderr, "skipping incomplete row %+v\n", p)
			errs++
			continue
		}
		cmdTag, err := pool.Exec(ctx, `
            INSERT INTO roster_entries (team_name, player_name)
            VALUES ($1, $2)
            ON CONFLICT (team_name, player_name) DO NOTHING
        `, p.TeamA, p.TeamB)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting %s/%s: %v\n", p.TeamA, p.TeamB, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Rosters seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
}
