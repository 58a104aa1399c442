// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"

	"github.com/tomtom215/guardian/internal/detection"
	"github.com/tomtom215/guardian/internal/logging"
)

// Errors
var (
	// ErrStoreClosed is returned when the store is closed.
	ErrStoreClosed = errors.New("report store is closed")

	// ErrReportNotFound is returned when a report doesn't exist.
	ErrReportNotFound = errors.New("report not found")
)

// Key prefixes. Report keys sort by entity then creation time; the id
// index maps a report id back to its primary key.
const (
	prefixReport = "report/"
	prefixID     = "id/"
)

// StoreConfig configures report persistence.
type StoreConfig struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string `koanf:"path" validate:"required_without=InMemory"`

	// InMemory keeps reports in memory only.
	InMemory bool `koanf:"in_memory"`

	// SyncWrites fsyncs every write.
	SyncWrites bool `koanf:"sync_writes"`

	// Compression enables Snappy block compression.
	Compression bool `koanf:"compression"`

	// Retention expires reports after this long. Zero keeps them forever.
	Retention time.Duration `koanf:"retention" validate:"min=0"`

	// GCInterval is how often value log GC runs. Zero disables it.
	GCInterval time.Duration `koanf:"gc_interval" validate:"min=0"`

	// CloseTimeout bounds Close.
	CloseTimeout time.Duration `koanf:"close_timeout" validate:"min=0"`
}

// DefaultStoreConfig returns production defaults.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Path:         "/data/reports",
		Compression:  true,
		Retention:    30 * 24 * time.Hour,
		GCInterval:   10 * time.Minute,
		CloseTimeout: 30 * time.Second,
	}
}

// Store persists reports in BadgerDB.
type Store struct {
	db     *badger.DB
	config StoreConfig

	writes atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// OpenStore opens (or creates) the store.
func OpenStore(cfg StoreConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.Compression {
		opts.Compression = options.Snappy
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Dur("retention", cfg.Retention).
		Msg("report store opened")
	return &Store{db: db, config: cfg}, nil
}

func reportKey(r *detection.Report) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d/%s", prefixReport, r.EntityID, r.CreatedAt.UnixNano(), r.ID))
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Name implements Sink.
func (s *Store) Name() string {
	return "store"
}

// Send persists r.
func (s *Store) Send(_ context.Context, r *detection.Report) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	key := reportKey(r)
	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key, data)
		idx := badger.NewEntry([]byte(prefixID+r.ID), key)
		if s.config.Retention > 0 {
			e = e.WithTTL(s.config.Retention)
			idx = idx.WithTTL(s.config.Retention)
		}
		if err := txn.SetEntry(e); err != nil {
			return err
		}
		return txn.SetEntry(idx)
	})
	if err != nil {
		return fmt.Errorf("write to BadgerDB: %w", err)
	}
	s.writes.Add(1)
	return nil
}

// Get returns the report with the given id.
func (s *Store) Get(_ context.Context, id string) (*detection.Report, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var r detection.Report
	err := s.db.View(func(txn *badger.Txn) error {
		idx, err := txn.Get([]byte(prefixID + id))
		if err != nil {
			return err
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return &r, nil
}

// List returns matching reports, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]*detection.Report, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	prefix := []byte(prefixReport)
	if f.Entity != "" {
		prefix = []byte(prefixReport + f.Entity + "/")
	}

	var out []*detection.Report
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			item := it.Item()
			var r detection.Report
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				logging.Warn().Err(err).Str("key", string(item.Key())).Msg("failed to unmarshal stored report")
				continue
			}
			if f.Matches(&r) {
				out = append(out, &r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of stored reports.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte(prefixReport)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

// Writes returns the number of reports written since open.
func (s *Store) Writes() int64 {
	return s.writes.Load()
}

// RunGC triggers BadgerDB value log garbage collection until nothing is
// left to rewrite.
func (s *Store) RunGC() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.config.InMemory {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// RunWithContext runs periodic GC until ctx is canceled.
func (s *Store) RunWithContext(ctx context.Context) error {
	if s.config.GCInterval <= 0 || s.config.InMemory {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(s.config.GCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("report store GC failed")
			}
		}
	}
}

// Serve implements suture.Service.
func (s *Store) Serve(ctx context.Context) error {
	return s.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture logging.
func (s *Store) String() string {
	return "report-store-gc"
}

// Close shuts down the store. It returns an error if BadgerDB does not
// close within CloseTimeout.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	timeout := s.config.CloseTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		logging.Info().Int64("writes", s.writes.Load()).Msg("report store closed")
		return nil
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("BadgerDB close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", timeout)
	}
}
