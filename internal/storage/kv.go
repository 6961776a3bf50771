package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
)

// KV is a durable string-keyed document store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Atomic is implemented by stores that can apply several writes as one unit.
type Atomic interface {
	Atomic(ctx context.Context, fn func(kv KV) error) error
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// KVRepo stores values in the kv table.
type KVRepo struct {
	db *sql.DB
	q  querier
}

func NewKVRepo(db *sql.DB) *KVRepo {
	return &KVRepo{db: db, q: db}
}

func (r *KVRepo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := r.q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("kv get %s: %w", key, err)
	}
	return []byte(v), true, nil
}

func (r *KVRepo) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

func (r *KVRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}

// Atomic runs fn against a KV bound to a single transaction.
func (r *KVRepo) Atomic(ctx context.Context, fn func(kv KV) error) error {
	if r.db == nil {
		// Already inside a transaction.
		return fn(r)
	}
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&KVRepo{q: tx})
	})
}

// MemoryKV keeps values in process memory.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: map[string][]byte{}}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *MemoryKV) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.values))
	for k := range m.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Atomic stages fn's writes and applies them only if fn succeeds.
func (m *MemoryKV) Atomic(ctx context.Context, fn func(kv KV) error) error {
	stage := &MemoryKV{values: map[string][]byte{}}
	m.mu.Lock()
	for k, v := range m.values {
		stage.values[k] = v
	}
	m.mu.Unlock()

	if err := fn(stage); err != nil {
		return err
	}

	m.mu.Lock()
	m.values = stage.values
	m.mu.Unlock()
	return nil
}
