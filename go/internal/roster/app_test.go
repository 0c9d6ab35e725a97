package roster

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/scorekeeper/go/internal/kvstore"
	"github.com/mcdev12/scorekeeper/go/internal/scorelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	pairs []Pair
	err   error
	calls int
}

func (f *fakeSource) FetchPairs(context.Context) ([]Pair, error) {
	f.calls++
	return f.pairs, f.err
}

var leaguePairs = []Pair{
	{TeamA: "Hive", TeamB: "Zed"},
	{TeamA: "Rival", TeamB: "Cal"},
	{TeamA: "Hive", TeamB: "Ada"},
	{TeamA: "Rival", TeamB: "Bo"},
	{TeamA: "Hive", TeamB: "Mo"},
}

func TestTeamsInFirstSeenOrder(t *testing.T) {
	app := NewApp(&fakeSource{pairs: leaguePairs}, kvstore.NewMemory())

	teams, err := app.Teams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Hive", "Rival"}, teams)
}

func TestPlayersAreSorted(t *testing.T) {
	app := NewApp(&fakeSource{pairs: leaguePairs}, kvstore.NewMemory())

	players, err := app.Players(context.Background(), "Hive")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada", "Mo", "Zed"}, players)

	players, err = app.Players(context.Background(), "Nobody")
	require.NoError(t, err)
	assert.Empty(t, players)
}

func TestLoadFetchesOncePerSession(t *testing.T) {
	ctx := context.Background()
	session := kvstore.NewMemory()
	src := &fakeSource{pairs: leaguePairs}

	app := NewApp(src, session)
	_, err := app.Teams(ctx)
	require.NoError(t, err)
	_, err = app.Players(ctx, "Rival")
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	// a reload within the same session reads the cache
	reloaded := NewApp(src, session)
	pairs, err := reloaded.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, leaguePairs, pairs)
	assert.Equal(t, 1, src.calls)
}

func TestLoadFailureIsTransport(t *testing.T) {
	ctx := context.Background()
	session := kvstore.NewMemory()
	src := &fakeSource{err: errors.New("dial tcp: connection refused")}
	app := NewApp(src, session)

	_, err := app.Teams(ctx)
	require.ErrorIs(t, err, scorelog.ErrTransport)

	_, err = session.Get(ctx, KeyTeams)
	require.ErrorIs(t, err, kvstore.ErrNotFound)

	src.err = nil
	src.pairs = leaguePairs
	teams, err := app.Teams(ctx)
	require.NoError(t, err)
	assert.Len(t, teams, 2)
	assert.Equal(t, 2, src.calls)
}

func TestCorruptCacheIsRefetched(t *testing.T) {
	ctx := context.Background()
	session := kvstore.NewMemory()
	require.NoError(t, session.Set(ctx, KeyTeams, "{not json"))
	src := &fakeSource{pairs: leaguePairs}

	teams, err := NewApp(src, session).Teams(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hive", "Rival"}, teams)
	assert.Equal(t, 1, src.calls)
}

func TestRepository(t *testing.T) {
	dsn := os.Getenv("ROSTER_TEST_DSN")
	if dsn == "" {
		t.Skip("ROSTER_TEST_DSN not set")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, SchemaSQL)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM roster_entries WHERE team_name = 'Test Hive'`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO roster_entries (team_name, player_name) VALUES ('Test Hive', 'Ada'), ('Test Hive', 'Bea')`)
	require.NoError(t, err)

	pairs, err := NewRepository(pool).FetchPairs(ctx)
	require.NoError(t, err)
	assert.Contains(t, pairs, Pair{TeamA: "Test Hive", TeamB: "Ada"})
	assert.Contains(t, pairs, Pair{TeamA: "Test Hive", TeamB: "Bea"})
}
