package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"habitline/internal/domain"
	"habitline/internal/engine"
	"habitline/internal/transfer"
)

// Config for the HTTP API handler.
type Config struct {
	Store    *engine.Store
	Transfer *transfer.Service
	Logger   *log.Logger
	Now      func() time.Time
}

type api struct {
	store    *engine.Store
	transfer *transfer.Service
	now      func() time.Time
}

// New returns an HTTP handler exposing the tracker API under /api.
func New(cfg Config) (http.Handler, error) {
	if cfg.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if cfg.Transfer == nil {
		cfg.Transfer = transfer.New(cfg.Store)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Now == nil {
		cfg.Now = cfg.Store.Env().Now
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	a := &api{store: cfg.Store, transfer: cfg.Transfer, now: cfg.Now}

	huma.DefaultArrayNullable = false

	router := chi.NewRouter()
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: cfg.Logger, NoColor: true}))
	router.Use(middleware.Recoverer)

	hcfg := huma.DefaultConfig("habitline API", "1.0.0")
	hcfg.OpenAPIPath = "/api/openapi"
	hcfg.DocsPath = "/api/docs"
	hapi := humachi.New(router, hcfg)
	group := huma.NewGroup(hapi, "/api")

	registerHealth(group)
	a.registerState(group)
	a.registerTasks(group)
	a.registerCompletions(group)
	a.registerTransfer(group)

	return router, nil
}

func handleError(err error) error {
	if err == nil {
		return nil
	}
	var (
		verr domain.ValidationError
		cerr domain.ConnectivityError
		perr domain.PermissionError
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.As(err, &verr):
		return huma.Error400BadRequest(err.Error())
	case errors.As(err, &perr):
		return huma.Error403Forbidden(err.Error())
	case errors.As(err, &cerr):
		return huma.Error502BadGateway(err.Error())
	default:
		return huma.Error500InternalServerError("internal error", err)
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func (a *api) registerState(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-state",
		Method:      http.MethodGet,
		Path:        "/state",
		Summary:     "Tasks, completions and unlocked achievements",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body StateResponse `json:"body"`
	}, error) {
		return &struct {
			Body StateResponse `json:"body"`
		}{Body: stateResponse(a.store.Catalog(), a.store.State())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-today",
		Method:      http.MethodGet,
		Path:        "/today",
		Summary:     "Tasks due today with completion status",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body TodayResponse `json:"body"`
	}, error) {
		return &struct {
			Body TodayResponse `json:"body"`
		}{Body: todayResponse(a.store.State(), a.now())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "clear-pending-achievement",
		Method:        http.MethodDelete,
		Path:          "/achievements/pending",
		Summary:       "Dismiss the pending achievement notification",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		a.store.Dispatch(engine.ClearPendingAchievement{})
		return nil, nil
	})
}

type taskPath struct {
	ID string `path:"id"`
}

func (a *api) resolve(ref string) (string, error) {
	return domain.ResolveTaskID(a.store.State().Tasks, ref)
}

func (a *api) registerTasks(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		t, err := input.Body.task()
		if err != nil {
			return nil, handleError(err)
		}
		// Dispatch returns the state its own reduction produced, so the last
		// task is the one just added even under concurrent requests.
		state := a.store.Dispatch(engine.AddTasks{Tasks: []domain.Task{t}})
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: state.Tasks[len(state.Tasks)-1]}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{id}",
		Summary:     "Update task fields",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string           `path:"id"`
		Body domain.TaskPatch `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		id, err := a.resolve(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if input.Body.IsEmpty() {
			return nil, huma.Error400BadRequest("no fields to update")
		}
		state := a.store.State()
		i := domain.FindTask(state.Tasks, id)
		if i < 0 {
			return nil, huma.Error404NotFound("task " + id + " not found")
		}
		if err := input.Body.Apply(state.Tasks[i]).Validate(); err != nil {
			return nil, handleError(err)
		}
		state = a.store.Dispatch(engine.UpdateTask{ID: id, Patch: input.Body})
		if i = domain.FindTask(state.Tasks, id); i < 0 {
			return nil, huma.Error404NotFound("task " + id + " not found")
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: state.Tasks[i]}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-task",
		Method:        http.MethodDelete,
		Path:          "/tasks/{id}",
		Summary:       "Delete task; its completion history is kept",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *taskPath) (*struct{}, error) {
		id, err := a.resolve(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		a.store.Dispatch(engine.DeleteTask{ID: id})
		return nil, nil
	})
}

func (a *api) registerCompletions(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "complete-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/complete",
		Summary:     "Complete task for today",
		Description: "Completing a task twice on one day is a no-op. The response names the achievement unlocked by this completion, if any.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *taskPath) (*struct {
		Body CompleteResponse `json:"body"`
	}, error) {
		id, err := a.resolve(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		before := len(a.store.State().Completions)
		state := a.store.Dispatch(engine.CompleteTask{TaskID: id})
		resp := CompleteResponse{
			TaskID:    id,
			Completed: engine.IsCompletedToday(state.Completions, id, a.now()),
			New:       len(state.Completions) > before,
		}
		if resp.New {
			resp.Unlocked = definitionView(state.Achievements.Pending)
		}
		return &struct {
			Body CompleteResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "uncomplete-task",
		Method:        http.MethodDelete,
		Path:          "/tasks/{id}/complete",
		Summary:       "Remove every completion of the task",
		Description:   "Achievements whose proof completion is removed are revoked.",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *taskPath) (*struct{}, error) {
		id, err := a.resolve(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		a.store.Dispatch(engine.UncompleteTask{TaskID: id})
		return nil, nil
	})
}

type resultOutput struct {
	Status int
	Body   transfer.Result `json:"body"`
}

func result(res transfer.Result) *resultOutput {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	return &resultOutput{Status: status, Body: res}
}

func (a *api) registerTransfer(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "export",
		Method:      http.MethodGet,
		Path:        "/export",
		Summary:     "Export all data as a JSON document",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		ContentType string `header:"Content-Type"`
		Body        []byte
	}, error) {
		data, res := a.transfer.ExportJSON(ctx)
		if !res.Success {
			return nil, huma.Error500InternalServerError(res.Message)
		}
		return &struct {
			ContentType string `header:"Content-Type"`
			Body        []byte
		}{ContentType: "application/json", Body: data}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "import",
		Method:      http.MethodPost,
		Path:        "/import",
		Summary:     "Replace all data with an exported document",
	}, func(ctx context.Context, input *struct {
		RawBody []byte
	}) (*resultOutput, error) {
		return result(a.transfer.ImportJSON(ctx, input.RawBody)), nil
	})
}
