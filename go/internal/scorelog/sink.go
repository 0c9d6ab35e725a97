package scorelog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Sink delivers a game log somewhere outside the service
type Sink interface {
	Send(ctx context.Context, payload Payload) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, payload Payload) error

func (f SinkFunc) Send(ctx context.Context, payload Payload) error {
	return f(ctx, payload)
}

// MultiSink sends to each sink in order and stops at the first failure
type MultiSink []Sink

func (m MultiSink) Send(ctx context.Context, payload Payload) error {
	for i, s := range m {
		if err := s.Send(ctx, payload); err != nil {
			return fmt.Errorf("sink %d: %w", i, err)
		}
	}
	return nil
}

// BestEffort wraps a secondary sink: failures are logged and never fail the submission, so a
// retry cannot deliver the log to the primary sink twice.
func BestEffort(name string, sink Sink) Sink {
	return SinkFunc(func(ctx context.Context, payload Payload) error {
		if err := sink.Send(ctx, payload); err != nil {
			log.Warn().Err(err).Str("sink", name).Str("game_id", payload.GameID).Msg("secondary sink failed")
		}
		return nil
	})
}

// Renderer is the host surface the manager draws on
type Renderer interface {
	RowAdded(row Row)
	RowUpdated(update RowUpdate)
	Loading(active bool)
	Banner(banner Banner)
}

// NopRenderer draws nothing
type NopRenderer struct{}

func (NopRenderer) RowAdded(Row)         {}
func (NopRenderer) RowUpdated(RowUpdate) {}
func (NopRenderer) Loading(bool)         {}
func (NopRenderer) Banner(Banner)        {}
