package scorelog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultSubmitTimeout bounds a single submission
	DefaultSubmitTimeout = 15 * time.Second

	recordedAtLayout = "1/2/2006, 3:04:05 PM"
	dateLayout       = "1/2/2006"

	submitSuccessMessage = "Data has been successfully exported!"
)

// RosterProvider returns the player names of a team
type RosterProvider interface {
	Players(ctx context.Context, team string) ([]string, error)
}

// Option configures a Manager
type Option func(*Manager)

// WithClock sets the clock used for ids and timestamps
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithSubmitTimeout bounds each submission
func WithSubmitTimeout(d time.Duration) Option {
	return func(m *Manager) { m.submitTimeout = d }
}

// WithLocation sets the zone human-readable timestamps are written in
func WithLocation(loc *time.Location) Option {
	return func(m *Manager) { m.location = loc }
}

// form is the popup the host currently has open
type form struct {
	side   Side
	editID string
}

// Manager keeps the score log, the totals and the persisted session consistent.
// Every mutation runs under mu; the roster lookup and the sink call never do.
type Manager struct {
	repo          *Repository
	rosters       RosterProvider
	sink          Sink
	renderer      Renderer
	clock         clockwork.Clock
	submitTimeout time.Duration
	location      *time.Location

	mu         sync.Mutex
	teams      Teams
	entries    []Entry
	totals     Totals
	form       *form
	lastID     int64
	submitting bool
}

// NewManager creates a manager. Call Restore to pick up a persisted session.
func NewManager(repo *Repository, rosters RosterProvider, sink Sink, renderer Renderer, opts ...Option) *Manager {
	if renderer == nil {
		renderer = NopRenderer{}
	}

	m := &Manager{
		repo:          repo,
		rosters:       rosters,
		sink:          sink,
		renderer:      renderer,
		clock:         clockwork.NewRealClock(),
		submitTimeout: DefaultSubmitTimeout,
		location:      time.Local,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore loads the session and re-renders every logged row
func (m *Manager) Restore(ctx context.Context) error {
	entries, err := m.repo.LoadEntries(ctx)
	if err != nil {
		return err
	}
	totals, err := m.repo.LoadTotals(ctx)
	if err != nil {
		return err
	}
	teams, err := m.repo.LoadTeams(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.teams = teams
	m.totals = totals
	m.entries = entries
	m.form = nil
	m.lastID = 0
	for i := range m.entries {
		e := &m.entries[i]
		if e.Side == "" {
			e.Side = SideB
			if e.Team == teams.A {
				e.Side = SideA
			}
		}
		if id, err := strconv.ParseInt(e.ID, 10, 64); err == nil && id > m.lastID {
			m.lastID = id
		}
		m.renderer.RowAdded(e.Row())
	}

	log.Info().
		Int("entries", len(m.entries)).
		Str("scoreboard", m.totals.Scoreboard()).
		Msg("restored score log")
	return nil
}

// SelectTeams records the two teams of the match. The game id stays whatever the first
// entry fixed it to.
func (m *Manager) SelectTeams(ctx context.Context, teamA, teamB string) error {
	teamA, teamB = strings.TrimSpace(teamA), strings.TrimSpace(teamB)
	if teamA == "" || teamB == "" {
		return fmt.Errorf("%w: both teams are required", ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	teams := Teams{A: teamA, B: teamB, GameID: m.teams.GameID}
	if err := m.repo.SaveTeams(ctx, teams); err != nil {
		return err
	}
	m.teams = teams
	return nil
}

// Teams returns the current team selection
func (m *Manager) Teams() Teams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.teams
}

// OpenAddForm prepares a new entry for side
func (m *Manager) OpenAddForm(ctx context.Context, side Side) (Form, error) {
	m.mu.Lock()
	m.form = nil
	team := m.teams.Name(side)
	m.mu.Unlock()

	if team == "" {
		return Form{}, fmt.Errorf("%w: no team selected for side %s", ErrValidation, side)
	}

	players := m.players(ctx, team)

	m.mu.Lock()
	m.form = &form{side: side}
	m.mu.Unlock()

	return newForm(FormAdd, side, team, players), nil
}

// OpenEditForm prepares an edit of entry id. The team cannot change, so the form always
// offers the entry's own roster.
func (m *Manager) OpenEditForm(ctx context.Context, id string) (Form, error) {
	m.mu.Lock()
	idx := m.indexOf(id)
	if idx == -1 {
		m.mu.Unlock()
		return Form{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	entry := m.entries[idx]
	m.mu.Unlock()

	players := m.players(ctx, entry.Team)

	m.mu.Lock()
	m.form = &form{side: entry.Side, editID: id}
	m.mu.Unlock()

	f := newForm(FormEdit, entry.Side, entry.Team, players)
	f.EntryID = id
	f.Selected = &Selection{
		Scorer: entry.Scorer.String(),
		Assist: entry.Assist.String(),
	}
	return f, nil
}

// Save adds a new entry or, when an edit form is open, rewrites that entry's credits
func (m *Manager) Save(ctx context.Context, scorer, assist Credit) (Entry, error) {
	if !scorer.IsSet() || !assist.IsSet() {
		return Entry{}, fmt.Errorf("%w: please select both scorer and assist", ErrValidation)
	}
	if scorer.Kind == CreditCallahan {
		return Entry{}, fmt.Errorf("%w: a callahan is recorded as the assist", ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.form == nil {
		return Entry{}, fmt.Errorf("%w: no score form is open", ErrValidation)
	}
	if m.form.editID != "" {
		return m.edit(ctx, m.form.editID, scorer, assist)
	}
	return m.add(ctx, m.form.side, scorer, assist)
}

// add appends a new entry. Caller holds mu.
func (m *Manager) add(ctx context.Context, side Side, scorer, assist Credit) (Entry, error) {
	team := m.teams.Name(side)
	if team == "" {
		return Entry{}, fmt.Errorf("%w: no team selected for side %s", ErrValidation, side)
	}

	now := m.clock.Now()
	id := now.UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}

	teams := m.teams
	if teams.GameID == "" {
		teams.GameID = teams.derivedGameID()
	}
	totals := m.totals.add(side)

	entry := Entry{
		ID:         strconv.FormatInt(id, 10),
		GameID:     teams.GameID,
		RecordedAt: now.In(m.location).Format(recordedAtLayout),
		Team:       team,
		Scorer:     scorer,
		Assist:     assist,
		Side:       side,
		Scoreboard: totals.Scoreboard(),
	}

	entries := make([]Entry, len(m.entries), len(m.entries)+1)
	copy(entries, m.entries)
	entries = append(entries, entry)

	// the log is written last: an entry on disk means its totals and game id are too
	if err := m.repo.SaveTotals(ctx, totals); err != nil {
		return Entry{}, err
	}
	teamsChanged := teams != m.teams
	if teamsChanged {
		if err := m.repo.SaveTeams(ctx, teams); err != nil {
			m.rollback(ctx, false)
			return Entry{}, err
		}
	}
	if err := m.repo.SaveEntries(ctx, entries); err != nil {
		m.rollback(ctx, teamsChanged)
		return Entry{}, err
	}

	m.entries = entries
	m.totals = totals
	m.teams = teams
	m.lastID = id
	m.form.editID = ""

	log.Info().
		Str("entry_id", entry.ID).
		Str("team", team).
		Str("scoreboard", entry.Scoreboard).
		Msg("score added")

	m.renderer.RowAdded(entry.Row())
	return entry, nil
}

// rollback rewrites the committed totals, and the team selection when it was overwritten, after
// a failed add. Caller holds mu.
func (m *Manager) rollback(ctx context.Context, teams bool) {
	if err := m.repo.SaveTotals(ctx, m.totals); err != nil {
		log.Error().Err(err).Msg("failed to roll back totals")
	}
	if teams {
		if err := m.repo.SaveTeams(ctx, m.teams); err != nil {
			log.Error().Err(err).Msg("failed to roll back team selection")
		}
	}
}

// edit rewrites the credits of an existing entry. Caller holds mu.
func (m *Manager) edit(ctx context.Context, id string, scorer, assist Credit) (Entry, error) {
	idx := m.indexOf(id)
	if idx == -1 {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	entries := make([]Entry, len(m.entries))
	copy(entries, m.entries)
	entries[idx].Scorer = scorer
	entries[idx].Assist = assist

	if err := m.repo.SaveEntries(ctx, entries); err != nil {
		return Entry{}, err
	}

	m.entries = entries
	m.form.editID = ""
	entry := entries[idx]

	log.Info().Str("entry_id", id).Msg("score edited")

	m.renderer.RowUpdated(RowUpdate{
		EntryID: entry.ID,
		Side:    entry.Side,
		Scorer:  entry.Scorer.String(),
		Assist:  entry.Assist.String(),
	})
	return entry, nil
}

// Submit sends the whole log to the sink. On success exactly the submitted entries leave the
// persisted log; totals stay as they are. On failure the log is left for a retry.
func (m *Manager) Submit(ctx context.Context) error {
	m.mu.Lock()
	if m.submitting {
		m.mu.Unlock()
		return ErrSubmitInProgress
	}
	if len(m.entries) == 0 {
		m.mu.Unlock()
		return ErrEmptyLog
	}

	gameID := m.teams.GameID
	if gameID == "" {
		gameID = m.teams.derivedGameID()
	}
	payload := Payload{
		GameID: gameID,
		Date:   m.clock.Now().In(m.location).Format(dateLayout),
		Logs:   make([]LogRecord, len(m.entries)),
	}
	sent := make(map[string]bool, len(m.entries))
	for i, e := range m.entries {
		payload.Logs[i] = e.Record()
		sent[e.ID] = true
	}
	m.submitting = true
	m.mu.Unlock()

	m.renderer.Loading(true)
	sendCtx, cancel := context.WithTimeout(ctx, m.submitTimeout)
	err := m.sink.Send(sendCtx, payload)
	cancel()
	m.renderer.Loading(false)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitting = false

	if err != nil {
		log.Error().Err(err).Str("game_id", gameID).Int("entries", len(payload.Logs)).Msg("failed to submit game log")
		m.renderer.Banner(Banner{Kind: BannerError, Message: "Error exporting data: " + err.Error()})
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	// entries logged while the request was in flight stay for the next submission
	kept := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if !sent[e.ID] {
			kept = append(kept, e)
		}
	}
	if err := m.repo.SaveEntries(ctx, kept); err != nil {
		return fmt.Errorf("game log submitted but not cleared: %w", err)
	}
	m.entries = kept

	log.Info().Str("game_id", gameID).Int("entries", len(payload.Logs)).Msg("game log submitted")

	m.renderer.Banner(Banner{Kind: BannerSuccess, Message: submitSuccessMessage})
	return nil
}

// Entries returns a copy of the log in insertion order
func (m *Manager) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Totals returns the running team scores
func (m *Manager) Totals() Totals {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals
}

// players fetches a roster; a failed fetch leaves the dropdowns with only the sentinels
func (m *Manager) players(ctx context.Context, team string) []string {
	if m.rosters == nil {
		return nil
	}
	players, err := m.rosters.Players(ctx, team)
	if err != nil {
		log.Error().Err(err).Str("team", team).Msg("failed to load roster")
		return nil
	}
	return players
}

func (m *Manager) indexOf(id string) int {
	for i, e := range m.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
