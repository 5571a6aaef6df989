// Package store persists distilled books in a Badger database, keyed by the
// SHA-256 of the uploaded file.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/dgallion1/distill/internal/distill"
)

const bookPrefix = "book:"

// ErrNotFound is returned when no record exists for a hash.
var ErrNotFound = errors.New("record not found")

// Record is one distilled book.
type Record struct {
	Hash      string            `json:"hash"`
	Filename  string            `json:"filename"`
	Title     string            `json:"title"`
	Author    string            `json:"author"`
	Summary   bool              `json:"summary"`
	Sentences int               `json:"sentences"`
	Fallback  string            `json:"fallback,omitempty"`
	Chapters  []distill.Chapter `json:"chapters"`
	CreatedAt time.Time         `json:"created_at"`
}

// Matches reports whether r was produced with the given summary settings.
func (r *Record) Matches(summary bool, sentences int) bool {
	if !summary {
		return true
	}
	return r.Summary && r.Sentences == sentences
}

// Info is the listing view of a Record.
type Info struct {
	Hash      string    `json:"hash"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Chapters  int       `json:"chapters"`
	Summary   bool      `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// Options configures Open. An empty Dir with InMemory false is an error.
type Options struct {
	Dir      string
	InMemory bool
}

// Store wraps a Badger database.
type Store struct {
	db  *badger.DB
	log *slog.Logger
}

// Open opens (or creates) the database.
func Open(opts Options, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.Dir == "" && !opts.InMemory {
		return nil, errors.New("store directory is required")
	}

	bopts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	} else {
		bopts.SyncWrites = true
		bopts.CompactL0OnClose = true
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	log.Info("result store opened", "dir", opts.Dir, "in_memory", opts.InMemory)
	return &Store{db: db, log: log}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put writes rec, replacing any record with the same hash.
func (s *Store) Put(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.Hash == "" {
		return errors.New("record hash is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(bookPrefix+rec.Hash), data)
	})
}

// Get returns the record for hash, or ErrNotFound.
func (s *Store) Get(ctx context.Context, hash string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(bookPrefix + hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", hash, err)
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("unmarshal record: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns up to limit records, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []Info
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(bookPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				s.log.Warn("skipping unreadable record", "key", string(it.Item().Key()), "error", err)
				continue
			}
			out = append(out, Info{
				Hash:      rec.Hash,
				Filename:  rec.Filename,
				Title:     rec.Title,
				Author:    rec.Author,
				Chapters:  len(rec.Chapters),
				Summary:   rec.Summary,
				CreatedAt: rec.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes the record for hash. Returns ErrNotFound if absent.
func (s *Store) Delete(ctx context.Context, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := []byte(bookPrefix + hash)
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}
