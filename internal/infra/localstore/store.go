package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/deepfraud/deepfraud/internal/domain/analysis"
	"github.com/deepfraud/deepfraud/internal/domain/session"
)

// The local device state is two keyed JSON blobs, same as the browser
// console kept in localStorage. Absence of a key is a valid empty state.
const (
	recordsKey = "deepfraud_db_v1"
	sessionKey = "deepfraud_session"
)

// MaxRecords caps the record blob; inserting beyond the cap evicts the oldest.
const MaxRecords = 100

// Store is the durable on-device cache, the fallback of last resort. The
// record list is read-modify-written as a whole; the mutex serializes
// writers within the process, concurrent processes are last-writer-wins.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS blobs (k TEXT PRIMARY KEY, v BLOB NOT NULL)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating blobs table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping reports whether the underlying file is usable, for health checks.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) get(ctx context.Context, key string, out any) (bool, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT v FROM blobs WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(v, out); err != nil {
		return false, fmt.Errorf("decoding blob %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) put(ctx context.Context, key string, val any) error {
	v, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encoding blob %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO blobs (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`, key, v)
	return err
}

func (s *Store) delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE k = ?`, key)
	return err
}

// Records returns the record-list view of the store.
func (s *Store) Records() *RecordCache { return &RecordCache{s} }

// Sessions returns the session-blob view of the store.
func (s *Store) Sessions() *SessionCache { return &SessionCache{s} }

// RecordCache implements the record store port over the capped blob.
type RecordCache struct{ store *Store }

// Create prepends the record, assigns a local id, and evicts beyond the cap.
func (c *RecordCache) Create(ctx context.Context, r *analysis.Result) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	var list []*analysis.Result
	if _, err := c.store.get(ctx, recordsKey, &list); err != nil {
		return err
	}

	cp := *r
	if cp.ID == "" {
		cp.ID = analysis.RecordID(fmt.Sprintf("case_%d", time.Now().UnixMilli()))
	}
	list = append([]*analysis.Result{&cp}, list...)
	if len(list) > MaxRecords {
		list = list[:MaxRecords]
	}

	if err := c.store.put(ctx, recordsKey, list); err != nil {
		return err
	}
	r.ID = cp.ID
	return nil
}

// List returns the cached records, newest first.
func (c *RecordCache) List(ctx context.Context) ([]*analysis.Result, error) {
	var list []*analysis.Result
	if _, err := c.store.get(ctx, recordsKey, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []*analysis.Result{}
	}
	return list, nil
}

// Clear drops the record blob entirely.
func (c *RecordCache) Clear(ctx context.Context) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return c.store.delete(ctx, recordsKey)
}

func (c *RecordCache) Name() string { return "local" }

// SessionCache implements the session store port.
type SessionCache struct{ store *Store }

func (c *SessionCache) Save(ctx context.Context, s *session.Session) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return c.store.put(ctx, sessionKey, s)
}

func (c *SessionCache) Load(ctx context.Context) (*session.Session, error) {
	var s session.Session
	ok, err := c.store.get(ctx, sessionKey, &s)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, session.ErrNoSession
	}
	return &s, nil
}

func (c *SessionCache) Delete(ctx context.Context) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return c.store.delete(ctx, sessionKey)
}
