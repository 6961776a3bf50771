package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) (*KVRepo, func()) {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "nested", "test.db")
	db, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return NewKVRepo(db), func() { _ = db.Close() }
}

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) ok=%v err=%v, want false,nil", ok, err)
	}
	if err := kv.Set(ctx, "k", []byte(`[1]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set(ctx, "k", []byte(`[1,2]`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok || string(v) != `[1,2]` {
		t.Fatalf("Get(k)=%q,%v,%v, want [1,2]", v, ok, err)
	}
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Fatalf("key still present after Delete")
	}
}

func TestKVRepo(t *testing.T) {
	repo, cleanup := newTestDB(t)
	defer cleanup()
	exerciseKV(t, repo)
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestAtomicRollsBack(t *testing.T) {
	repo, cleanup := newTestDB(t)
	defer cleanup()

	for name, kv := range map[string]interface {
		KV
		Atomic
	}{"sqlite": repo, "memory": NewMemoryKV()} {
		ctx := context.Background()
		if err := kv.Set(ctx, "a", []byte("old")); err != nil {
			t.Fatalf("%s: Set: %v", name, err)
		}
		boom := errors.New("boom")
		err := kv.Atomic(ctx, func(tx KV) error {
			if err := tx.Set(ctx, "a", []byte("new")); err != nil {
				return err
			}
			if err := tx.Set(ctx, "b", []byte("new")); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("%s: Atomic err=%v, want boom", name, err)
		}
		v, _, _ := kv.Get(ctx, "a")
		if string(v) != "old" {
			t.Fatalf("%s: a=%q after rollback, want old", name, v)
		}
		if _, ok, _ := kv.Get(ctx, "b"); ok {
			t.Fatalf("%s: b present after rollback", name)
		}

		if err := kv.Atomic(ctx, func(tx KV) error { return tx.Set(ctx, "b", []byte("ok")) }); err != nil {
			t.Fatalf("%s: Atomic commit: %v", name, err)
		}
		if v, _, _ := kv.Get(ctx, "b"); string(v) != "ok" {
			t.Fatalf("%s: b=%q, want ok", name, v)
		}
	}
}
