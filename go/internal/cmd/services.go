package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scorekeeper/go/clients/gamelog_client"
	"github.com/mcdev12/scorekeeper/go/internal/config"
	"github.com/mcdev12/scorekeeper/go/internal/gateway"
	"github.com/mcdev12/scorekeeper/go/internal/publish"
	"github.com/mcdev12/scorekeeper/go/internal/roster"
	"github.com/mcdev12/scorekeeper/go/internal/scorelog"
	"github.com/mcdev12/scorekeeper/go/internal/timer"
)

type Services struct {
	Gateway *gateway.Service
	State   *gateway.StateHandler
	Scores  *scorelog.Manager
	Rosters *roster.App
	Timers  *timer.Group

	closers []func()
}

func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func setupServices(ctx context.Context, cfg *config.Config, stores *Stores) (*Services, error) {
	// Wire up dependency injection chain
	// Store layer → Repository layer → App layer → Gateway layer
	services := &Services{}
	clock := clockwork.NewRealClock()

	gamelogClient := gamelog_client.NewClient(cfg.Endpoint.URL, cfg.Endpoint.Timeout)

	// Rosters
	var source roster.Source = gamelogClient
	if cfg.Rosters.Source == config.RosterPostgres {
		pool, err := setupRosterPool(ctx)
		if err != nil {
			return nil, err
		}
		services.closers = append(services.closers, pool.Close)
		source = roster.NewRepository(pool)
	}
	services.Rosters = roster.NewApp(source, stores.Session)

	// Sinks
	sinks := scorelog.MultiSink{gamelogClient}
	if cfg.NATS.Enabled {
		jsCfg := publish.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATS.URL
		jsCfg.StreamName = cfg.NATS.StreamName
		jsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix

		js, err := publish.NewJetStreamSink(ctx, jsCfg)
		if err != nil {
			services.Close()
			return nil, fmt.Errorf("failed to create JetStream sink: %w", err)
		}
		services.closers = append(services.closers, func() {
			if err := js.Close(); err != nil {
				log.Error().Err(err).Msg("close JetStream sink")
			}
		})
		sinks = append(sinks, scorelog.BestEffort("jetstream", js))
	}

	// Gateway
	services.Gateway = gateway.NewService(gateway.DefaultConfig())

	// Timers
	timerOpts := []timer.Option{timer.WithDefaultDuration(cfg.Timers.DefaultDuration)}
	services.Timers = timer.NewGroup(
		timer.New("timer1", timer.KeysFor(""), stores.Durable, clock, services.Gateway, timerOpts...),
		timer.New("timer2", timer.KeysFor("2"), stores.Durable, clock, services.Gateway, timerOpts...),
	)
	services.closers = append(services.closers, services.Timers.Close)

	// Score log
	services.Scores = scorelog.NewManager(
		scorelog.NewRepository(stores.Session),
		services.Rosters,
		sinks,
		services.Gateway,
		scorelog.WithClock(clock),
		scorelog.WithSubmitTimeout(cfg.Submit.Timeout),
		scorelog.WithLocation(cfg.Submit.Location),
	)

	services.State = gateway.NewStateHandler(services.Scores, services.Rosters, services.Timers)
	services.Gateway.SetStateProvider(services.State)

	if err := services.Timers.RestoreAll(ctx); err != nil {
		services.Close()
		return nil, fmt.Errorf("failed to restore timers: %w", err)
	}
	if err := services.Scores.Restore(ctx); err != nil {
		services.Close()
		return nil, fmt.Errorf("failed to restore score log: %w", err)
	}

	log.Info().
		Int("entries", len(services.Scores.Entries())).
		Strs("timers", services.Timers.Names()).
		Msg("state restored")
	return services, nil
}
