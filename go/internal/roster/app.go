package roster

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mcdev12/scorekeeper/go/internal/kvstore"
	"github.com/mcdev12/scorekeeper/go/internal/scorelog"
	"github.com/rs/zerolog/log"
)

// App serves team and player lists, fetching the roster at most once per session
type App struct {
	source  Source
	session kvstore.Store

	mu     sync.Mutex
	pairs  []Pair
	loaded bool
}

// NewApp creates a roster App over a source and the session store
func NewApp(source Source, session kvstore.Store) *App {
	return &App{
		source:  source,
		session: session,
	}
}

// Load returns the roster pairs. The session cache is consulted first; a successful fetch is
// written back to it. A failed fetch is not cached, so the next call tries again.
func (a *App) Load(ctx context.Context) ([]Pair, error) {
	a.mu.Lock()
	if a.loaded {
		pairs := a.pairs
		a.mu.Unlock()
		return pairs, nil
	}
	a.mu.Unlock()

	var cached []Pair
	ok, err := kvstore.LoadJSON(ctx, a.session, KeyTeams, &cached)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring unreadable roster cache")
	}
	if ok && err == nil {
		a.set(cached)
		return cached, nil
	}

	pairs, err := a.source.FetchPairs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch rosters")
		return nil, fmt.Errorf("%w: failed to fetch rosters: %w", scorelog.ErrTransport, err)
	}

	if err := kvstore.SaveJSON(ctx, a.session, KeyTeams, pairs); err != nil {
		log.Warn().Err(err).Msg("failed to cache rosters")
	}
	a.set(pairs)

	log.Info().Int("pairs", len(pairs)).Msg("rosters loaded")
	return pairs, nil
}

// Teams returns the unique team names in the order they first appear
func (a *App) Teams(ctx context.Context) ([]string, error) {
	pairs, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	teams := make([]string, 0)
	for _, p := range pairs {
		if p.TeamA == "" || seen[p.TeamA] {
			continue
		}
		seen[p.TeamA] = true
		teams = append(teams, p.TeamA)
	}
	return teams, nil
}

// Players returns the sorted player names of team
func (a *App) Players(ctx context.Context, team string) ([]string, error) {
	pairs, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}

	players := make([]string, 0)
	for _, p := range pairs {
		if p.TeamA == team && p.TeamB != "" {
			players = append(players, p.TeamB)
		}
	}
	sort.Strings(players)
	return players, nil
}

func (a *App) set(pairs []Pair) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pairs = pairs
	a.loaded = true
}
