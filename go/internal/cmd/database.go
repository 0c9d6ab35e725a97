package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scorekeeper/go/internal/config"
	"github.com/mcdev12/scorekeeper/go/internal/dbconfig"
	"github.com/mcdev12/scorekeeper/go/internal/kvstore"
)

// Stores holds the two persistence scopes. Durable survives restarts. Session holds the score log
// and roster cache; it lives as long as the process, like a browser tab, unless
// storage.persist_session keeps it in the durable backend under its own bucket or scope.
type Stores struct {
	Durable kvstore.Store
	Session kvstore.Store

	closers []func() error
}

func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}
}

func setupStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	stores := &Stores{Session: kvstore.NewMemory()}

	switch cfg.Storage.Backend {
	case config.StorageBolt:
		db, err := kvstore.OpenBoltDB(cfg.Storage.BoltPath)
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, db.Close)

		durable, err := kvstore.NewBolt(db, cfg.Storage.Scope)
		if err != nil {
			stores.Close()
			return nil, err
		}
		stores.Durable = durable

		if cfg.Storage.PersistSession {
			session, err := kvstore.NewBolt(db, sessionScope(cfg))
			if err != nil {
				stores.Close()
				return nil, err
			}
			stores.Session = session
		}
		log.Info().
			Str("path", cfg.Storage.BoltPath).
			Bool("persist_session", cfg.Storage.PersistSession).
			Msg("using bolt storage")

	case config.StoragePostgres:
		db, err := setupDatabase(ctx)
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, db.Close)

		durable := kvstore.NewPostgres(db, cfg.Storage.Scope)
		if err := durable.EnsureSchema(ctx); err != nil {
			stores.Close()
			return nil, err
		}
		stores.Durable = durable

		if cfg.Storage.PersistSession {
			stores.Session = kvstore.NewPostgres(db, sessionScope(cfg))
		}
		log.Info().
			Str("scope", cfg.Storage.Scope).
			Bool("persist_session", cfg.Storage.PersistSession).
			Msg("using postgres storage")

	default:
		stores.Durable = kvstore.NewMemory()
		log.Warn().Msg("using in-memory storage; state is lost on restart")
	}

	return stores, nil
}

func sessionScope(cfg *config.Config) string {
	return cfg.Storage.Scope + "-session"
}

func setupDatabase(ctx context.Context) (*sql.DB, error) {
	dbCfg := dbconfig.NewConfigFromEnv()

	database, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("dsn", dbCfg.Redacted()).Msg("connected to database")
	return database, nil
}

func setupRosterPool(ctx context.Context) (*pgxpool.Pool, error) {
	dbCfg := dbconfig.NewConfigFromEnv()

	pool, err := pgxpool.New(ctx, dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create roster pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping roster database: %w", err)
	}
	return pool, nil
}
