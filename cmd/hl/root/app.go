package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"habitline/internal/backend"
	"habitline/internal/config"
	"habitline/internal/domain"
	"habitline/internal/engine"
	"habitline/internal/transfer"
	"habitline/internal/ui"
)

type app struct {
	cfg      *config.Config
	store    *engine.Store
	transfer *transfer.Service

	// pulled suppresses the auto sync push after a restore.
	pulled bool
}

// openApp opens the configured backend and loads the store from it. The
// cleanup func waits for pending writes before closing the backend.
func openApp(ctx context.Context) (*app, func(), error) {
	b, closeBackend, err := backend.Open(ctx, cfg.Kind(), cfg.BackendOptions())
	if err != nil {
		return nil, nil, err
	}
	store := engine.NewStore(b)
	if err := store.Load(ctx); err != nil {
		_ = store.Close(ctx)
		closeBackend()
		return nil, nil, err
	}
	a := &app{
		cfg:      cfg,
		store:    store,
		transfer: transfer.New(store, transfer.WithRecorder(config.NewSyncRecorder(cfgPath))),
	}
	var changed atomic.Bool
	unsubscribe := store.Subscribe(func(domain.AppState) { changed.Store(true) })
	cleanup := func() {
		unsubscribe()
		cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if changed.Load() {
			a.autoSync(cctx)
		}
		if err := store.Close(cctx); err != nil {
			log.Printf("warning: close store: %v", err)
		}
		closeBackend()
	}
	return a, cleanup, nil
}

// autoSync pushes to the configured directory and WebDAV server after a
// local change when sync.auto is set. The active backend is skipped.
func (a *app) autoSync(ctx context.Context) {
	if a.pulled || !a.cfg.Sync.Auto {
		return
	}
	kind := a.cfg.Kind()
	if a.cfg.Dir.Path != "" && kind != backend.KindDir {
		if remote, err := backend.OpenDirStore(a.cfg.Dir.Path); err != nil {
			log.Printf("warning: auto sync: %v", err)
		} else {
			a.push(ctx, remote)
			_ = remote.Close()
		}
	}
	if a.cfg.WebDAV.URL != "" && kind != backend.KindWebDAV {
		if remote, err := backend.NewWebDAVStore(a.cfg.BackendOptions().WebDAV); err != nil {
			log.Printf("warning: auto sync: %v", err)
		} else {
			a.push(ctx, remote)
		}
	}
}

func (a *app) push(ctx context.Context, remote backend.DocumentStore) {
	if res := a.transfer.Push(ctx, remote); !res.Success {
		log.Printf("warning: auto sync: %s", res.Message)
	}
}

// applyTheme saves and applies the theme carried by a restored document.
func (a *app) applyTheme(res transfer.Result) {
	if !res.Success || res.Theme == "" || res.Theme == a.cfg.Theme {
		return
	}
	if err := config.NewSyncRecorder(cfgPath).RecordTheme(res.Theme); err != nil {
		log.Printf("warning: save theme: %v", err)
		return
	}
	a.cfg.Theme = res.Theme
	ui.Apply(res.Theme)
}

func (a *app) resolve(ref string) (domain.Task, error) {
	state := a.store.State()
	id, err := domain.ResolveTaskID(state.Tasks, ref)
	if err != nil {
		return domain.Task{}, err
	}
	return state.Tasks[domain.FindTask(state.Tasks, id)], nil
}

func (a *app) now() time.Time {
	if now := a.store.Env().Now; now != nil {
		return now()
	}
	return time.Now()
}

// printResult prints res and turns a failed result into an error.
func printResult(w io.Writer, res transfer.Result) error {
	if jsonOutput() {
		if err := printJSON(w, res); err != nil {
			return err
		}
	} else if res.Success {
		fmt.Fprintln(w, ui.Good.Render(ui.IconDone+" "+res.Message))
	}
	if !res.Success {
		return errors.New(res.Message)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
