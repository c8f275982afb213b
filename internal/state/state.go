// Package state persists the last successfully ingested report so it
// survives restarts.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/salesreport/internal/config"
	"github.com/andresuchdata/salesreport/internal/domain"
)

// CurrentVersion is the persisted schema version written by Encode.
const CurrentVersion = 1

// ErrNothingToPersist is returned when encoding an empty source.
var ErrNothingToPersist = errors.New("no dataset to persist")

// Store is a single-slot blob store.
type Store interface {
	// Load returns the stored payload, or nil when nothing is stored.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
	Clear(ctx context.Context) error
	Close() error
}

// PersistedState is the on-disk shape of the active dataset. Dates are RFC 3339
// strings.
type PersistedState struct {
	Version    int                `json:"version"`
	Source     string             `json:"source"`
	ID         string             `json:"id"`
	FileName   string             `json:"fileName"`
	IngestedAt time.Time          `json:"ingestedAt"`
	Data       *domain.Aggregates `json:"data"`
	DateRange  domain.DateRange   `json:"dateRange"`
}

// Encode serializes the active source.
func Encode(src domain.ActiveSource) ([]byte, error) {
	ds, ok := src.Dataset()
	if !ok {
		return nil, ErrNothingToPersist
	}

	payload, err := json.Marshal(PersistedState{
		Version:    CurrentVersion,
		Source:     src.Kind().String(),
		ID:         ds.ID,
		FileName:   ds.FileName,
		IngestedAt: ds.IngestedAt,
		Data:       ds.Aggregates,
		DateRange:  ds.DateRange,
	})
	if err != nil {
		return nil, fmt.Errorf("encode persisted state: %w", err)
	}
	return payload, nil
}

// Decode restores an active source. Any shape mismatch yields no source and
// false rather than an error.
func Decode(payload []byte) (domain.ActiveSource, bool) {
	if len(payload) == 0 {
		return domain.NoSource(), false
	}

	var st PersistedState
	if err := json.Unmarshal(payload, &st); err != nil {
		return domain.NoSource(), false
	}
	if st.Version != CurrentVersion || st.Data == nil {
		return domain.NoSource(), false
	}

	kind, ok := domain.ParseSourceKind(st.Source)
	if !ok || kind == domain.SourceNone {
		return domain.NoSource(), false
	}

	return domain.NewActiveSource(kind, &domain.Dataset{
		ID:         st.ID,
		FileName:   st.FileName,
		IngestedAt: st.IngestedAt,
		Aggregates: st.Data,
		DateRange:  st.DateRange,
	}), true
}

// Restore loads and decodes the stored state. A missing or undecodable
// payload yields no source and a nil error.
func Restore(ctx context.Context, store Store) (domain.ActiveSource, error) {
	payload, err := store.Load(ctx)
	if err != nil {
		return domain.NoSource(), err
	}
	src, _ := Decode(payload)
	return src, nil
}

// Persist encodes and saves the active source.
func Persist(ctx context.Context, store Store, src domain.ActiveSource) error {
	payload, err := Encode(src)
	if err != nil {
		return err
	}
	return store.Save(ctx, payload)
}

// New opens the store selected by cfg.State.Backend.
func New(cfg *config.Config) (Store, error) {
	switch cfg.State.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg.Cache, cfg.State.Key)
	case "postgres":
		return NewPostgresStore(&cfg.Database, cfg.State.Key)
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.State.Backend)
	}
}
