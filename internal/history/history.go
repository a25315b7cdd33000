// Package history persists processed units in an embedded badger store.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

const keyPrefix = "unit/"

// Entry is one processed unit.
type Entry struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	SegmentIndex int       `json:"segment_index"`
	Final        bool      `json:"final"`
	Mode         string    `json:"mode"`
	WindowClass  string    `json:"window_class,omitempty"`
	WindowTitle  string    `json:"window_title,omitempty"`
	Terminal     bool      `json:"terminal"`
	Selection    bool      `json:"selection"`
	Transcript   string    `json:"transcript,omitempty"`
	Output       string    `json:"output,omitempty"`
	Outcome      string    `json:"outcome"`
	Error        string    `json:"error,omitempty"`
	AudioMillis  int64     `json:"audio_ms"`
	QueuedMillis int64     `json:"queued_ms"`
	STTMillis    int64     `json:"stt_ms"`
	PolishMillis int64     `json:"polish_ms"`
	OutputMillis int64     `json:"output_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Options configure a Store. An empty Path opens an in-memory store.
type Options struct {
	Path      string
	Retention time.Duration
	Logger    *slog.Logger
}

// Store is a time-ordered entry log.
type Store struct {
	db        *badger.DB
	retention time.Duration
}

// Open opens or creates the store at opts.Path.
func Open(opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var bopts badger.Options
	if opts.Path == "" {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0o700); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
		bopts = badger.DefaultOptions(filepath.Clean(opts.Path))
	}
	bopts = bopts.WithLogger(badgerLogger{logger: logger}).WithNumVersionsToKeep(1)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return &Store{db: db, retention: opts.Retention}, nil
}

// Close flushes and closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends entry. Keys sort by creation time so List can scan backwards.
func (s *Store) Record(_ context.Context, entry Entry) error {
	if entry.ID == "" {
		return errors.New("history entry requires an id")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(entryKey(entry), value)
		if s.retention > 0 {
			e = e.WithTTL(s.retention)
		}
		return txn.SetEntry(e)
	})
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(_ context.Context, limit int) ([]Entry, error) {
	entries := make([]Entry, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(append([]byte(keyPrefix), 0xff)); it.ValidForPrefix(opts.Prefix); it.Next() {
			if limit > 0 && len(entries) >= limit {
				return nil
			}
			var entry Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("decode history entry %q: %w", it.Item().Key(), err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func entryKey(entry Entry) []byte {
	// Zero-padded nanoseconds keep lexicographic order equal to time order.
	ts := strconv.FormatInt(entry.CreatedAt.UnixNano(), 10)
	key := make([]byte, 0, len(keyPrefix)+20+1+len(entry.ID))
	key = append(key, keyPrefix...)
	for i := len(ts); i < 20; i++ {
		key = append(key, '0')
	}
	key = append(key, ts...)
	key = append(key, '/')
	return append(key, entry.ID...)
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
