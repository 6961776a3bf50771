package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/studio-b12/gowebdav"

	"habitline/internal/domain"
)

// WebDAVFile is the remote document path.
const WebDAVFile = "/habit-tracker-data.json"

type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

// WebDAVStore reads and writes the sync document on a WebDAV server.
type WebDAVStore struct {
	cfg    WebDAVConfig
	client *gowebdav.Client
}

func NewWebDAVStore(cfg WebDAVConfig) (*WebDAVStore, error) {
	if cfg.URL == "" {
		return nil, domain.ValidationError{Field: "webdav.url", Reason: "is required"}
	}
	c := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c.SetTimeout(timeout)
	return &WebDAVStore{cfg: cfg, client: c}, nil
}

func (s *WebDAVStore) Name() string { return s.cfg.URL + WebDAVFile }

// Ping lists the remote root to check the URL and credentials.
func (s *WebDAVStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client.ReadDir("/"); err != nil {
		return s.wrap(err)
	}
	return nil
}

func (s *WebDAVStore) ReadDocument(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.client.Read(WebDAVFile)
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, fmt.Errorf("read %s: %w", s.Name(), ErrNoDocument)
		}
		return nil, s.wrap(err)
	}
	return data, nil
}

// WriteDocument overwrites the remote document.
func (s *WebDAVStore) WriteDocument(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.Write(WebDAVFile, data, 0o644); err != nil {
		return s.wrap(err)
	}
	return nil
}

func (s *WebDAVStore) wrap(err error) error {
	if gowebdav.IsErrCode(err, http.StatusUnauthorized) || gowebdav.IsErrCode(err, http.StatusForbidden) {
		return domain.ConnectivityError{Endpoint: s.cfg.URL, Err: fmt.Errorf("authentication failed: %w", err)}
	}
	return domain.ConnectivityError{Endpoint: s.cfg.URL, Err: err}
}
