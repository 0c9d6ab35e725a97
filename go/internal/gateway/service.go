package gateway

import (
	"context"
	"net/http"

	"github.com/mcdev12/scorekeeper/go/internal/scorelog"
	"github.com/mcdev12/scorekeeper/go/internal/timer"
	"github.com/rs/zerolog/log"
)

// Service is the host surface of the board. The score log manager renders through it and the
// timer engines notify through it; both end up as events on every connected client.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateProvider     StateProvider
}

var (
	_ scorelog.Renderer = (*Service)(nil)
	_ timer.Notifier    = (*Service)(nil)
)

// Config holds configuration for the board gateway
type Config struct {
	ConnectionConfig ConnectionConfig
}

// DefaultConfig returns default configuration for the board gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService creates a new board gateway service
func NewService(config Config) *Service {
	connectionManager := NewConnectionManager(config.ConnectionConfig)

	s := &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager),
	}
	connectionManager.OnConnect(s.greet)
	return s
}

// SetStateProvider sets where new connections get their initial snapshot from. It must be
// called before Start.
func (s *Service) SetStateProvider(provider StateProvider) {
	s.stateProvider = provider
}

// Start runs the broadcast loop until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting board gateway service")
	s.connectionManager.Start(ctx)
	log.Info().Msg("board gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("board gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() map[string]interface{} {
	stats := s.connectionManager.GetConnectionStats()
	stats["service"] = "board_gateway"
	stats["status"] = "running"
	return stats
}

func (s *Service) RowAdded(row scorelog.Row) {
	s.broadcast(EventTypeRowAdded, row)
}

func (s *Service) RowUpdated(update scorelog.RowUpdate) {
	s.broadcast(EventTypeRowUpdated, update)
}

func (s *Service) Loading(active bool) {
	s.broadcast(EventTypeLoading, LoadingPayload{Active: active})
}

func (s *Service) Banner(banner scorelog.Banner) {
	s.broadcast(EventTypeBanner, banner)
}

func (s *Service) TimerDisplay(name string, d timer.Display) {
	s.broadcast(EventTypeTimerDisplay, TimerDisplayPayload{Timer: name, Display: d})
}

func (s *Service) TimerCue(name string, cue timer.Cue) {
	s.broadcast(EventTypeTimerCue, TimerCuePayload{Timer: name, Cue: cue})
}

func (s *Service) broadcast(eventType EventType, payload interface{}) {
	event, err := NewBoardEvent(eventType, payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to build board event")
		return
	}
	s.connectionManager.Broadcast(event)
}

// greet sends the current board to a client that just connected
func (s *Service) greet(conn *Connection) {
	if s.stateProvider == nil {
		return
	}

	state, err := s.stateProvider.BoardState(context.Background())
	if err != nil {
		log.Error().Err(err).Str("connection_id", conn.ID).Msg("failed to build board snapshot")
		return
	}

	event, err := NewBoardEvent(EventTypeSnapshot, state)
	if err != nil {
		log.Error().Err(err).Msg("failed to build snapshot event")
		return
	}
	if err := s.connectionManager.SendTo(conn, event); err != nil {
		log.Warn().Err(err).Msg("failed to send board snapshot")
	}
}
