package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/scorekeeper/go/internal/scorelog"
	"github.com/mcdev12/scorekeeper/go/internal/timer"
)

// BoardEvent is the envelope of every message pushed to board clients
type BoardEvent struct {
	ID        string          `json:"id"`        // Event UUID
	Type      EventType       `json:"type"`      // Event type
	Timestamp time.Time       `json:"timestamp"` // Event creation time
	Data      json.RawMessage `json:"data"`      // Event-specific payload
}

// EventType represents the type of board event
type EventType string

const (
	EventTypeSnapshot     EventType = "Snapshot"
	EventTypeRowAdded     EventType = "RowAdded"
	EventTypeRowUpdated   EventType = "RowUpdated"
	EventTypeLoading      EventType = "Loading"
	EventTypeBanner       EventType = "Banner"
	EventTypeTimerDisplay EventType = "TimerDisplay"
	EventTypeTimerCue     EventType = "TimerCue"
)

// LoadingPayload shows or hides the submit spinner
type LoadingPayload struct {
	Active bool `json:"active"`
}

// TimerDisplayPayload refreshes one timer's text and style
type TimerDisplayPayload struct {
	Timer   string        `json:"timer"`
	Display timer.Display `json:"display"`
}

// TimerCuePayload asks the host to play a sound
type TimerCuePayload struct {
	Timer string    `json:"timer"`
	Cue   timer.Cue `json:"cue"`
}

// ErrUnknownEvent is returned when parsing an event type this package does not define
var ErrUnknownEvent = errors.New("unknown board event type")

// NewBoardEvent wraps payload in an envelope
func NewBoardEvent(eventType EventType, payload interface{}) (*BoardEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	return &BoardEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// ParseEventPayload parses event data into the appropriate payload struct
func ParseEventPayload(event *BoardEvent) (interface{}, error) {
	switch event.Type {
	case EventTypeSnapshot:
		var payload BoardState
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeRowAdded:
		var payload scorelog.Row
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeRowUpdated:
		var payload scorelog.RowUpdate
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeLoading:
		var payload LoadingPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeBanner:
		var payload scorelog.Banner
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeTimerDisplay:
		var payload TimerDisplayPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeTimerCue:
		var payload TimerCuePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, event.Type)
	}
}
