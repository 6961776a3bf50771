package backend

import (
	"context"
	"fmt"

	"habitline/internal/storage"
)

// Options carries what each backend kind needs to open.
type Options struct {
	DBPath string
	WebDAV WebDAVConfig
	Dir    string
}

// Open builds the backend for kind. The returned cleanup releases whatever
// the backend holds open.
func Open(ctx context.Context, kind Kind, opts Options) (Backend, func(), error) {
	switch kind {
	case KindSQLite:
		path, err := storage.ResolveDBPath(opts.DBPath)
		if err != nil {
			return nil, nil, err
		}
		db, err := storage.Open(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return NewKVBackend(storage.NewKVRepo(db)), func() { _ = db.Close() }, nil
	case KindMemory:
		return NewKVBackend(storage.NewMemoryKV()), func() {}, nil
	case KindWebDAV:
		s, err := NewWebDAVStore(opts.WebDAV)
		if err != nil {
			return nil, nil, err
		}
		return NewDocumentBackend(s), func() {}, nil
	case KindDir:
		s, err := OpenDirStore(opts.Dir)
		if err != nil {
			return nil, nil, err
		}
		return NewDocumentBackend(s), func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", kind)
	}
}
