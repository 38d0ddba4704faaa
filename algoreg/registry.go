// Copyright (c) 2025 BVK Chaitanya

// Package algoreg implements the algo-order registry. Every running
// strategy registers a record at start, polls it for cooperative
// cancellation on every iteration, and removes it exactly once at exit.
// Records live in the key-value database so that a cancel command from
// another process is observed by a running loop.
package algoreg

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"

	"github.com/bvk/algobot/gobs"
	"github.com/bvk/algobot/kvutil"
	"github.com/bvk/algobot/syncmap"
	"github.com/bvkgo/kv"
)

const (
	Keyspace        = "/algos/"
	SessionKeyspace = "/sessions/"
)

type Registry struct {
	db kv.Database

	// cache holds records flipped or created by this process, as a
	// fast-path in front of the database. Cancellation checks always fall
	// through to the database because another process may own the flip.
	cache syncmap.Map[string, *gobs.AlgoOrderRecord]
}

func New(db kv.Database) *Registry {
	return &Registry{db: db}
}

func recordKey(id string) string {
	return path.Join(Keyspace, id)
}

// Start registers a new algo-order record. Returns os.ErrExist if a record
// with the same id already exists.
func (r *Registry) Start(ctx context.Context, id string, side, session, tag string) error {
	if id == "" {
		return fmt.Errorf("algo order id cannot be empty: %w", os.ErrInvalid)
	}
	if _, err := kvutil.GetDB[gobs.AlgoOrderRecord](ctx, r.db, recordKey(id)); err == nil {
		return fmt.Errorf("algo order %q: %w", id, os.ErrExist)
	}
	record := &gobs.AlgoOrderRecord{
		ID:      id,
		Side:    side,
		Session: session,
		Tag:     tag,
	}
	if err := kvutil.SetDB(ctx, r.db, recordKey(id), record); err != nil {
		return err
	}
	r.cache.Store(id, record)
	return nil
}

// Get returns the record for the given id.
func (r *Registry) Get(ctx context.Context, id string) (*gobs.AlgoOrderRecord, error) {
	return kvutil.GetDB[gobs.AlgoOrderRecord](ctx, r.db, recordKey(id))
}

// IsCancelled reports whether the algo order was asked to cancel. A record
// that cannot be read is reported as not-cancelled; the strategy keeps
// running and the next poll retries.
func (r *Registry) IsCancelled(ctx context.Context, id string) bool {
	if record, ok := r.cache.Load(id); ok && record.Cancelled {
		return true
	}
	record, err := kvutil.GetDB[gobs.AlgoOrderRecord](ctx, r.db, recordKey(id))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("could not read algo order %q (assuming not cancelled): %v", id, err)
		}
		return false
	}
	return record.Cancelled
}

// Cancel flips the cancelled flag on the record. The owning strategy
// observes the flag at the start of its next iteration.
func (r *Registry) Cancel(ctx context.Context, id string) error {
	record, err := kvutil.GetDB[gobs.AlgoOrderRecord](ctx, r.db, recordKey(id))
	if err != nil {
		return fmt.Errorf("could not load algo order %q: %w", id, err)
	}
	record.Cancelled = true
	if err := kvutil.SetDB(ctx, r.db, recordKey(id), record); err != nil {
		return err
	}
	r.cache.Store(id, record)
	return nil
}

// CancelTag flips the cancelled flag on every record matching the tag, and
// the session when non-empty. Returns the ids of the flipped records.
func (r *Registry) CancelTag(ctx context.Context, session, tag string) ([]string, error) {
	var ids []string
	begin, end := kvutil.PathRange(Keyspace)
	fn := func(ctx context.Context, rw kv.ReadWriter, key string, record *gobs.AlgoOrderRecord) error {
		if tag != "" && record.Tag != tag {
			return nil
		}
		if session != "" && record.Session != session {
			return nil
		}
		if record.Cancelled {
			return nil
		}
		record.Cancelled = true
		if err := kvutil.Set(ctx, rw, key, record); err != nil {
			return err
		}
		r.cache.Store(record.ID, record)
		ids = append(ids, record.ID)
		return nil
	}
	err := kv.WithReadWriter(ctx, r.db, func(ctx context.Context, rw kv.ReadWriter) error {
		return kvutil.Ascend(ctx, rw, begin, end, func(ctx context.Context, _ kv.Reader, key string, record *gobs.AlgoOrderRecord) error {
			return fn(ctx, rw, key, record)
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// End removes the record. Returns os.ErrNotExist if it was already
// removed; records are removed exactly once, by the owning strategy.
func (r *Registry) End(ctx context.Context, id string) error {
	if _, err := kvutil.GetDB[gobs.AlgoOrderRecord](ctx, r.db, recordKey(id)); err != nil {
		return fmt.Errorf("algo order %q: %w", id, err)
	}
	if err := kvutil.DeleteDB(ctx, r.db, recordKey(id)); err != nil {
		return err
	}
	r.cache.Delete(id)
	return nil
}

// List returns all live algo-order records.
func (r *Registry) List(ctx context.Context) ([]*gobs.AlgoOrderRecord, error) {
	var records []*gobs.AlgoOrderRecord
	begin, end := kvutil.PathRange(Keyspace)
	err := kvutil.AscendDB(ctx, r.db, begin, end, func(_ context.Context, _ kv.Reader, _ string, record *gobs.AlgoOrderRecord) error {
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
