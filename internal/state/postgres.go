package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/salesreport/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

const createStateTable = `
CREATE TABLE IF NOT EXISTS report_state (
	state_key  TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type postgresStore struct {
	db  *sqlx.DB
	sem *semaphore.Weighted
	key string
}

// NewPostgresStore keeps the payload in one row of report_state. Driver
// "pgx" uses pgx's database/sql adapter, "postgres" uses lib/pq.
func NewPostgresStore(cfg *config.DatabaseConfig, key string) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "pgx"
	}
	if driver != "pgx" && driver != "postgres" {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, createStateTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create report_state table: %w", err)
	}

	return &postgresStore{
		db:  db,
		sem: semaphore.NewWeighted(4),
		key: key,
	}, nil
}

func (p *postgresStore) Load(ctx context.Context) ([]byte, error) {
	var payload string
	err := p.db.GetContext(ctx, &payload, `SELECT payload FROM report_state WHERE state_key = $1`, p.key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load report state: %w", err)
	}
	return []byte(payload), nil
}

func (p *postgresStore) Save(ctx context.Context, payload []byte) error {
	return p.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO report_state (state_key, payload, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (state_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`,
			p.key, string(payload))
		if err != nil {
			return fmt.Errorf("save report state: %w", err)
		}
		return nil
	})
}

func (p *postgresStore) Clear(ctx context.Context) error {
	return p.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM report_state WHERE state_key = $1`, p.key); err != nil {
			return fmt.Errorf("clear report state: %w", err)
		}
		return nil
	})
}

func (p *postgresStore) Close() error {
	return p.db.Close()
}

func (p *postgresStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer p.sem.Release(1)

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}
