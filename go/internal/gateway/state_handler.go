package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mcdev12/scorekeeper/go/internal/scorelog"
	"github.com/mcdev12/scorekeeper/go/internal/timer"
	"github.com/rs/zerolog/log"
)

// StateProvider builds the full board for clients that (re)connect
type StateProvider interface {
	BoardState(ctx context.Context) (*BoardState, error)
}

// BoardState is everything a freshly loaded page needs to draw
type BoardState struct {
	Teams  scorelog.Teams  `json:"teams"`
	Totals scorelog.Totals `json:"totals"`
	Rows   []scorelog.Row  `json:"rows"`
	Timers []timer.State   `json:"timers"`
}

// ScoreKeeper is what the handlers need from the score log manager
type ScoreKeeper interface {
	SelectTeams(ctx context.Context, teamA, teamB string) error
	Teams() scorelog.Teams
	OpenAddForm(ctx context.Context, side scorelog.Side) (scorelog.Form, error)
	OpenEditForm(ctx context.Context, id string) (scorelog.Form, error)
	Save(ctx context.Context, scorer, assist scorelog.Credit) (scorelog.Entry, error)
	Submit(ctx context.Context) error
	Entries() []scorelog.Entry
	Totals() scorelog.Totals
}

// TeamDirectory lists teams and their players
type TeamDirectory interface {
	Teams(ctx context.Context) ([]string, error)
	Players(ctx context.Context, team string) ([]string, error)
}

// TimerRegistry looks engines up by name
type TimerRegistry interface {
	Get(name string) (*timer.Engine, error)
	Names() []string
}

// StateHandler serves the board REST API
type StateHandler struct {
	scores ScoreKeeper
	teams  TeamDirectory
	timers TimerRegistry
}

var _ StateProvider = (*StateHandler)(nil)

// NewStateHandler creates a new state handler
func NewStateHandler(scores ScoreKeeper, teams TeamDirectory, timers TimerRegistry) *StateHandler {
	return &StateHandler{
		scores: scores,
		teams:  teams,
		timers: timers,
	}
}

type selectTeamsRequest struct {
	TeamA string `json:"teamA"`
	TeamB string `json:"teamB"`
}

type openFormRequest struct {
	Side string `json:"side"`
}

type saveScoreRequest struct {
	Scorer string `json:"scorer"`
	Assist string `json:"assist"`
}

type resetTimerRequest struct {
	Minutes string `json:"minutes"`
}

type scoresResponse struct {
	Entries []scorelog.Entry `json:"entries"`
	Totals  scorelog.Totals  `json:"totals"`
}

// BoardState snapshots teams, rows and timers
func (h *StateHandler) BoardState(ctx context.Context) (*BoardState, error) {
	entries := h.scores.Entries()
	rows := make([]scorelog.Row, len(entries))
	for i, e := range entries {
		rows[i] = e.Row()
	}

	names := h.timers.Names()
	timers := make([]timer.State, 0, len(names))
	for _, name := range names {
		engine, err := h.timers.Get(name)
		if err != nil {
			return nil, err
		}
		timers = append(timers, engine.State())
	}

	return &BoardState{
		Teams:  h.scores.Teams(),
		Totals: h.scores.Totals(),
		Rows:   rows,
		Timers: timers,
	}, nil
}

// HandleGetBoardState handles GET /api/board/state
func (h *StateHandler) HandleGetBoardState(w http.ResponseWriter, r *http.Request) {
	state, err := h.BoardState(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleListTeams handles GET /api/teams
func (h *StateHandler) HandleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teams.Teams(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// HandleListPlayers handles GET /api/teams/{team}/players
func (h *StateHandler) HandleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.teams.Players(r.Context(), r.PathValue("team"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

// HandleSelectTeams handles PUT /api/session/teams
func (h *StateHandler) HandleSelectTeams(w http.ResponseWriter, r *http.Request) {
	var req selectTeamsRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.scores.SelectTeams(r.Context(), req.TeamA, req.TeamB); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.scores.Teams())
}

// HandleOpenAddForm handles POST /api/scores/form
func (h *StateHandler) HandleOpenAddForm(w http.ResponseWriter, r *http.Request) {
	var req openFormRequest
	if !decode(w, r, &req) {
		return
	}

	side, err := scorelog.ParseSide(req.Side)
	if err != nil {
		writeError(w, err)
		return
	}

	form, err := h.scores.OpenAddForm(r.Context(), side)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// HandleOpenEditForm handles POST /api/scores/{id}/form
func (h *StateHandler) HandleOpenEditForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.scores.OpenEditForm(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// HandleSaveScore handles POST /api/scores
func (h *StateHandler) HandleSaveScore(w http.ResponseWriter, r *http.Request) {
	var req saveScoreRequest
	if !decode(w, r, &req) {
		return
	}

	entry, err := h.scores.Save(r.Context(), scorelog.ParseCredit(req.Scorer), scorelog.ParseCredit(req.Assist))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleListScores handles GET /api/scores
func (h *StateHandler) HandleListScores(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scoresResponse{
		Entries: h.scores.Entries(),
		Totals:  h.scores.Totals(),
	})
}

// HandleSubmitScores handles POST /api/scores/submit
func (h *StateHandler) HandleSubmitScores(w http.ResponseWriter, r *http.Request) {
	if err := h.scores.Submit(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "submitted"})
}

// HandleListTimers handles GET /api/timers
func (h *StateHandler) HandleListTimers(w http.ResponseWriter, r *http.Request) {
	state, err := h.BoardState(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state.Timers)
}

// HandleGetTimer handles GET /api/timers/{name}
func (h *StateHandler) HandleGetTimer(w http.ResponseWriter, r *http.Request) {
	engine, err := h.timers.Get(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, engine.State())
}

// HandleTimerAction handles POST /api/timers/{name}/{action}
func (h *StateHandler) HandleTimerAction(w http.ResponseWriter, r *http.Request) {
	engine, err := h.timers.Get(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	switch action := r.PathValue("action"); action {
	case "start":
		err = engine.Start(ctx)
	case "pause":
		err = engine.Pause(ctx)
	case "toggle":
		err = engine.Toggle(ctx)
	case "reset":
		var req resetTimerRequest
		if r.ContentLength != 0 && !decode(w, r, &req) {
			return
		}
		err = engine.Reset(ctx, timer.ParseMinutes(req.Minutes))
	default:
		writeError(w, fmt.Errorf("%w: unknown timer action %q", scorelog.ErrValidation, action))
		return
	}
	if err != nil {
		log.Error().Err(err).Str("timer", engine.Name()).Msg("timer action failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, engine.State())
}

// RegisterStateRoutes registers the board REST routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/board/state", h.HandleGetBoardState)

	mux.HandleFunc("GET /api/teams", h.HandleListTeams)
	mux.HandleFunc("GET /api/teams/{team}/players", h.HandleListPlayers)
	mux.HandleFunc("PUT /api/session/teams", h.HandleSelectTeams)

	mux.HandleFunc("POST /api/scores/form", h.HandleOpenAddForm)
	mux.HandleFunc("POST /api/scores/{id}/form", h.HandleOpenEditForm)
	mux.HandleFunc("POST /api/scores", h.HandleSaveScore)
	mux.HandleFunc("GET /api/scores", h.HandleListScores)
	mux.HandleFunc("POST /api/scores/submit", h.HandleSubmitScores)

	mux.HandleFunc("GET /api/timers", h.HandleListTimers)
	mux.HandleFunc("GET /api/timers/{name}", h.HandleGetTimer)
	mux.HandleFunc("POST /api/timers/{name}/{action}", h.HandleTimerAction)
}
