package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"habitline/internal/domain"
)

// DirFile is the backup file name inside the chosen directory.
const DirFile = "habit-tracker-backup.json"

// DirStore reads and writes the sync document through a handle scoped to one
// directory. Paths cannot escape the directory.
type DirStore struct {
	path string
	root *os.Root
}

// OpenDirStore opens a handle on dir. The directory must already exist.
func OpenDirStore(dir string) (*DirStore, error) {
	if dir == "" {
		return nil, domain.ValidationError{Field: "dir.path", Reason: "is required"}
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, dirError(dir, err)
	}
	return &DirStore{path: dir, root: root}, nil
}

func (s *DirStore) Name() string { return s.path + string(os.PathSeparator) + DirFile }

func (s *DirStore) Close() error { return s.root.Close() }

func (s *DirStore) ReadDocument(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.root.Open(DirFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", s.Name(), ErrNoDocument)
		}
		return nil, dirError(s.path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, dirError(s.path, err)
	}
	return data, nil
}

// WriteDocument replaces the backup file, creating it if needed.
func (s *DirStore) WriteDocument(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := s.root.OpenFile(DirFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return dirError(s.path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return dirError(s.path, err)
	}
	if err := f.Close(); err != nil {
		return dirError(s.path, err)
	}
	return nil
}

func dirError(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return domain.PermissionError{Path: path, Err: err}
	}
	return fmt.Errorf("directory %s: %w", path, err)
}
