// Package badgerstore persists documents of equation objects in BadgerDB.
//
// A document is stored as one key per object under the "equation/" prefix.
// Keys carry the stacking position so a load restores the original order;
// values are the JSON form of the object.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/specialistvlad/texpen/internal/equation"
	"github.com/specialistvlad/texpen/internal/objectid"
	"github.com/specialistvlad/texpen/internal/periodic"
	"github.com/specialistvlad/texpen/internal/store"
)

const prefix = "equation/"

// Config configures the database.
type Config struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	// GCInterval enables periodic value log garbage collection when positive.
	GCInterval time.Duration
	// MemTableSize overrides badger's memtable size, which also bounds the
	// size of one write batch. Zero keeps the default.
	MemTableSize int64
	Logger       *slog.Logger
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// DB is a document database.
type DB struct {
	db     *badger.DB
	gc     *periodic.Handle
	logger *slog.Logger
}

// Open opens the database described by cfg.
func Open(cfg Config) (*DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.MemTableSize > 0 {
		opts = opts.WithMemTableSize(cfg.MemTableSize)
	}

	logger := cfg.Logger
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		logger = slog.Default()
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	d := &DB{db: db, logger: logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		d.gc = periodic.Start(d.runGC, cfg.GCInterval)
	}
	return d, nil
}

func (d *DB) runGC() periodic.Result {
	err := d.db.RunValueLogGC(0.5)
	switch {
	case err == nil:
		d.logger.Debug("Badger value log GC completed.")
	case errors.Is(err, badger.ErrNoRewrite):
	case errors.Is(err, badger.ErrDBClosed):
		return periodic.Stop
	default:
		d.logger.Warn("Badger value log GC failed.", "error", err)
	}
	return periodic.Continue
}

// Close stops garbage collection and closes the database.
func (d *DB) Close() error {
	if d.gc != nil {
		d.gc.Stop()
	}
	return d.db.Close()
}

type record struct {
	ID     objectid.ID      `json:"id"`
	Object *equation.Object `json:"object"`
}

func key(pos int) []byte {
	return fmt.Appendf(nil, "%s%08d", prefix, pos)
}

// SaveDocument replaces the stored document with the contents of st.
// Objects are written through a write batch, so documents larger than one
// transaction are split over several commits.
func (d *DB) SaveDocument(ctx context.Context, st store.Store) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	existing, err := d.keys()
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	wb := d.db.NewWriteBatch()
	defer wb.Cancel()

	written := make(map[string]bool)
	for _, id := range st.IDs() {
		obj, ok := st.Get(id)
		if !ok {
			continue
		}
		val, err := json.Marshal(record{ID: id, Object: obj})
		if err != nil {
			return fmt.Errorf("encode object %s: %w", id, err)
		}
		k := key(len(written))
		if err := wb.Set(k, val); err != nil {
			return fmt.Errorf("store object %s: %w", id, err)
		}
		written[string(k)] = true
	}
	removed := 0
	for _, k := range existing {
		if written[string(k)] {
			continue
		}
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
		removed++
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	d.logger.Debug("Document saved.", "objects", len(written), "removed", removed)
	return nil
}

// keys returns every stored object key in order.
func (d *DB) keys() ([][]byte, error) {
	var keys [][]byte
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

// LoadDocument puts every stored object into st, in stored order, and
// returns how many were loaded.
func (d *DB) LoadDocument(ctx context.Context, st store.Store) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context cancelled: %w", err)
	}
	var records []record
	err := d.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %s: %w", item.Key(), err)
			}
			var rec record
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("load document: %w", err)
	}
	for _, rec := range records {
		if rec.Object != nil {
			st.Put(rec.ID, rec.Object)
		}
	}
	d.logger.Debug("Document loaded.", "objects", len(records))
	return len(records), nil
}
