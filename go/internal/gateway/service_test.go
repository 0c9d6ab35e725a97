package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/scorekeeper/go/internal/scorelog"
	"github.com/mcdev12/scorekeeper/go/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialBoard(t *testing.T, b *board) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(b.server.URL, "http") + "/ws/board?client_id=scorer-table"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// nextEvent reads until an event of type want arrives
func nextEvent(t *testing.T, conn *websocket.Conn, want EventType) *BoardEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var event BoardEvent
		require.NoError(t, json.Unmarshal(data, &event))
		if event.Type == want {
			return &event
		}
	}
}

func TestBoardClientGetsSnapshotAndRows(t *testing.T) {
	b := newBoard(t, fakeDirectory{})
	require.Equal(t, http.StatusOK, b.do(t, http.MethodPut, "/api/session/teams", selectTeamsRequest{TeamA: "Hive", TeamB: "Rival"}, nil))

	conn := dialBoard(t, b)

	snapshot := nextEvent(t, conn, EventTypeSnapshot)
	payload, err := ParseEventPayload(snapshot)
	require.NoError(t, err)
	state := payload.(BoardState)
	assert.Equal(t, "Hive", state.Teams.A)
	require.Len(t, state.Timers, 2)
	assert.Equal(t, "timer1", state.Timers[0].Name)

	// the connection joins the pool right after the greeting
	require.Eventually(t, func() bool {
		return b.service.GetStats()["total_connections"] == 1
	}, time.Second, 5*time.Millisecond)

	b.do(t, http.MethodPost, "/api/scores/form", openFormRequest{Side: "B"}, nil)
	b.do(t, http.MethodPost, "/api/scores", saveScoreRequest{Scorer: "Cal", Assist: "CALLAHAN"}, nil)

	added := nextEvent(t, conn, EventTypeRowAdded)
	payload, err = ParseEventPayload(added)
	require.NoError(t, err)
	row := payload.(scorelog.Row)
	assert.Equal(t, scorelog.SideB, row.Side)
	assert.Equal(t, "0:1", row.Scoreboard)
	assert.Equal(t, "CALLAHAN", row.Assist)

	b.do(t, http.MethodPost, "/api/scores/submit", nil, nil)
	loading := nextEvent(t, conn, EventTypeLoading)
	payload, err = ParseEventPayload(loading)
	require.NoError(t, err)
	assert.True(t, payload.(LoadingPayload).Active)

	banner := nextEvent(t, conn, EventTypeBanner)
	payload, err = ParseEventPayload(banner)
	require.NoError(t, err)
	assert.Equal(t, scorelog.BannerSuccess, payload.(scorelog.Banner).Kind)
}

func TestBoardClientGetsTimerEvents(t *testing.T) {
	b := newBoard(t, fakeDirectory{})
	conn := dialBoard(t, b)
	nextEvent(t, conn, EventTypeSnapshot)
	require.Eventually(t, func() bool {
		return b.service.GetStats()["total_connections"] == 1
	}, time.Second, 5*time.Millisecond)

	b.do(t, http.MethodPost, "/api/timers/timer2/toggle", nil, nil)

	cue := nextEvent(t, conn, EventTypeTimerCue)
	payload, err := ParseEventPayload(cue)
	require.NoError(t, err)
	assert.Equal(t, TimerCuePayload{Timer: "timer2", Cue: timer.CueToggle}, payload)

	display := nextEvent(t, conn, EventTypeTimerDisplay)
	payload, err = ParseEventPayload(display)
	require.NoError(t, err)
	assert.Equal(t, "timer2", payload.(TimerDisplayPayload).Timer)
}

func TestParseUnknownEvent(t *testing.T) {
	payload, err := ParseEventPayload(&BoardEvent{Type: "Mystery", Data: json.RawMessage(`{}`)})
	require.ErrorIs(t, err, ErrUnknownEvent)
	assert.Nil(t, payload)
}

// racingProvider broadcasts a row while the snapshot for a new client is being built
type racingProvider struct {
	service *Service
}

func (p *racingProvider) BoardState(context.Context) (*BoardState, error) {
	event, err := NewBoardEvent(EventTypeRowAdded, scorelog.Row{EntryID: "1", Scoreboard: "1:0"})
	if err != nil {
		return nil, err
	}
	p.service.connectionManager.handleBroadcast(event)
	return &BoardState{}, nil
}

func TestBroadcastDuringGreetingIsDelivered(t *testing.T) {
	service := NewService(DefaultConfig())
	service.SetStateProvider(&racingProvider{service: service})

	mux := http.NewServeMux()
	service.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/board?client_id=scorer-table"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	added := nextEvent(t, conn, EventTypeRowAdded)
	payload, err := ParseEventPayload(added)
	require.NoError(t, err)
	assert.Equal(t, "1:0", payload.(scorelog.Row).Scoreboard)

	nextEvent(t, conn, EventTypeSnapshot)
}
