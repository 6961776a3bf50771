package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"habitline/internal/achievement"
	"habitline/internal/backend"
	"habitline/internal/domain"
	"habitline/internal/storage"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

// newClock starts at noon local time on Monday 2024-01-01, clear of the
// early-hour achievements.
func newClock() *testClock {
	return &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)}
}

func (c *testClock) advanceDays(n int) { c.now = c.now.AddDate(0, 0, n) }

func testEnv(clock *testClock) Env {
	n := 0
	return Env{
		Now: clock.Now,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
		Catalog: achievement.DefaultCatalog(),
	}
}

func seeded(t *testing.T, env Env, tasks ...domain.Task) domain.AppState {
	t.Helper()
	var state domain.AppState
	state, _ = Reduce(state, AddTasks{Tasks: tasks}, env)
	if len(state.Tasks) != len(tasks) {
		t.Fatalf("seed tasks=%d, want %d", len(state.Tasks), len(tasks))
	}
	return state
}

func daily(title string, reward int) domain.Task {
	return domain.Task{Title: title, Reward: reward, Type: domain.TaskTypeDaily}
}

func TestCompleteTaskIsIdempotentPerDay(t *testing.T) {
	clock := newClock()
	env := testEnv(clock)
	state := seeded(t, env, daily("Run", 3))
	id := state.Tasks[0].ID

	state, eff := Reduce(state, CompleteTask{TaskID: id}, env)
	if !eff.Has(SliceCompletions) || len(state.Completions) != 1 {
		t.Fatalf("first completion: effects=%v completions=%d", eff.Slices(), len(state.Completions))
	}

	clock.now = clock.now.Add(5 * time.Hour)
	again, eff := Reduce(state, CompleteTask{TaskID: id}, env)
	if eff != 0 {
		t.Fatalf("second completion effects=%v, want none", eff.Slices())
	}
	if len(again.Completions) != 1 {
		t.Fatalf("completions=%d, want 1", len(again.Completions))
	}

	clock.advanceDays(1)
	next, _ := Reduce(again, CompleteTask{TaskID: id}, env)
	if len(next.Completions) != 2 {
		t.Fatalf("next day completions=%d, want 2", len(next.Completions))
	}
}

func TestCompleteUnknownTaskIsNoop(t *testing.T) {
	clock := newClock()
	env := testEnv(clock)
	state := seeded(t, env, daily("Run", 3))

	next, eff := Reduce(state, CompleteTask{TaskID: "missing"}, env)
	if eff != 0 || len(next.Completions) != 0 {
		t.Fatalf("effects=%v completions=%d", eff.Slices(), len(next.Completions))
	}
}

func TestFirstCompletionUnlocksWithPending(t *testing.T) {
	clock := newClock()
	env := testEnv(clock)
	state := seeded(t, env, daily("Run", 3))

	state, eff := Reduce(state, CompleteTask{TaskID: state.Tasks[0].ID}, env)
	c := state.Completions[0]
	if c.Reward != 3 || c.CompletedAt != domain.FormatTimestamp(clock.now) {
		t.Fatalf("completion=%+v", c)
	}
	if !eff.Has(SliceAchievements) {
		t.Fatalf("effects=%v, want achievements", eff.Slices())
	}
	if len(state.Achievements.Unlocked) != 1 {
		t.Fatalf("unlocked=%d, want 1", len(state.Achievements.Unlocked))
	}
	r := state.Achievements.Unlocked[0]
	if r.AchievementID != achievement.FirstCompletion || r.CompletionID != c.ID || r.CompletedTime != c.CompletedAt {
		t.Fatalf("record=%+v completion=%+v", r, c)
	}
	if p := state.Achievements.Pending; p == nil || p.ID != achievement.FirstCompletion {
		t.Fatalf("pending=%v, want id 1", p)
	}

	state, eff = Reduce(state, ClearPendingAchievement{}, env)
	if state.Achievements.Pending != nil || eff != 0 {
		t.Fatalf("pending=%v effects=%v after clear", state.Achievements.Pending, eff.Slices())
	}
}

func TestTaskRewardEditDoesNotChangeCompletion(t *testing.T) {
	clock := newClock()
	env := testEnv(clock)
	state := seeded(t, env, daily("Run", 3))
	id := state.Tasks[0].ID

	state, _ = Reduce(state, CompleteTask{TaskID: id}, env)
	reward := 10
	state, _ = Reduce(state, UpdateTask{ID: id, Patch: domain.TaskPatch{Reward: &reward}}, env)
	if state.Tasks[0].Reward != 10 {
		t.Fatalf("task reward=%d, want 10", state.Tasks[0].Reward)
	}
	if state.Completions[0].Reward != 3 {
		t.Fatalf("completion reward=%d, want 3", state.Completions[0].Reward)
	}
}

func TestSevenDayStreakUnlocksOnSeventhDay(t *testing.T) {
	clock := newClock()
	env := testEnv(clock)
	state := seeded(t, env, daily("Run", 1))
	id := state.Tasks[0].ID

	for day := 1; day <= 7; day++ {
		state, _ = Reduce(state, CompleteTask{TaskID: id}, env)
		pending := state.Achievements.Pending
		switch day {
		case 1:
			if pending == nil || pending.ID != achievement.FirstCompletion {
				t.Fatalf("day 1 pending=%v, want id 1", pending)
			}
		case 7:
			if pending == nil || pending.ID != achievement.SevenDayStreak {
				t.Fatalf("day 7 pending=%v, want id 2", pending)
			}
		default:
			if pending != nil {
				t.Fatalf("day %d pending=%d, want none", day, pending.ID)
			}
		}
		clock.advanceDays(1)
	}

	// Perfectionist is satisfied too but waits for the next event.
	if got := len(state.Achievements.Unlocked); got != 2 {
		t.Fatalf("unlocked=%d, want 2", got)
	}
	state, _ = Reduce(state, CompleteTask{TaskID: id}, env)
	if p := state.Achievements.Pending; p == nil || p.ID != 12 {
		t.Fatalf("day 8 pending=%v, want id 12", p)
	}
}

func TestAtMostOneUnlockPerEvent(t *testing.T) {
	clock := newClock()
	env := testEnv(clock)
	always := func([]domain.Task, []domain.TaskCompletion) bool { return true }
	env.Catalog = achievement.NewCatalog(
		domain.AchievementDefinition{ID: 5, Title: "five", Condition: always},
		domain.AchievementDefinition{ID: 3, Title: "three", Condition: always},
	)
	state := seeded(t, env, daily("A", 1), daily("B", 1))

	state, _ = Reduce(state, CompleteTask{TaskID: state.Tasks[0].ID}, env)
	if len(state.Achievements.Unlocked) != 1 || state.Achievements.Unlocked[0].AchievementID != 3 {
		t.Fatalf("unlocked=%+v, want only id 3", state.Achievements.Unlocked)
	}
	state, _ = Reduce(state, CompleteTask{TaskID: state.Tasks[1].ID}, env)
	if len(state.Achievements.Unlocked) != 2 || state.Achievements.Unlocked[1].AchievementID != 5 {
		t.Fatalf("unlocked=%+v, want id 5 second", state.Achievements.Unlocked)
	}

	state, _ = Reduce(state, CompleteTask{TaskID: state.Tasks[1].ID}, env)
	if len(state.Achievements.Unlocked) != 2 {
		t.Fatalf("unlocked=%d after duplicate, want 2", len(state.Achievements.Unlocked))
	}
}

func TestUncompleteRemovesAllCompletionsAndRevokes(t *testing.T) {
	clock := newClock()
	env := testEnv(clock)
	state := seeded(t, env, daily("Run", 2), daily("Read", 1))
	run, read := state.Tasks[0].ID, state.Tasks[1].ID

	state, _ = Reduce(state, CompleteTask{TaskID: run}, env)
	clock.advanceDays(1)
	state, _ = Reduce(state, CompleteTask{TaskID: run}, env)
	state, _ = Reduce(state, CompleteTask{TaskID: read}, env)
	if len(state.Completions) != 3 || len(state.Achievements.Unlocked) != 1 {
		t.Fatalf("completions=%d unlocked=%d", len(state.Completions), len(state.Achievements.Unlocked))
	}

	state, eff := Reduce(state, UncompleteTask{TaskID: run}, env)
	if !eff.Has(SliceCompletions) || !eff.Has(SliceAchievements) {
		t.Fatalf("effects=%v", eff.Slices())
	}
	if len(state.Completions) != 1 || state.Completions[0].TaskID != read {
		t.Fatalf("completions=%+v, want only read", state.Completions)
	}
	if len(state.Achievements.Unlocked) != 0 {
		t.Fatalf("unlocked=%+v, want revoked", state.Achievements.Unlocked)
	}
}

func TestUncompleteKeepsRecordsWithLiveProof(t *testing.T) {
	clock := newClock()
	env := testEnv(clock)
	state := seeded(t, env, daily("Run", 2), daily("Read", 1))

	state, _ = Reduce(state, CompleteTask{TaskID: state.Tasks[0].ID}, env)
	state, _ = Reduce(state, CompleteTask{TaskID: state.Tasks[1].ID}, env)
	state, _ = Reduce(state, UncompleteTask{TaskID: state.Tasks[1].ID}, env)
	if len(state.Achievements.Unlocked) != 1 {
		t.Fatalf("unlocked=%d, want 1", len(state.Achievements.Unlocked))
	}
}

func TestUpdateAndDeleteTask(t *testing.T) {
	clock := newClock()
	env := testEnv(clock)
	state := seeded(t, env, daily("Run", 2))
	id := state.Tasks[0].ID

	if _, eff := Reduce(state, UpdateTask{ID: "missing"}, env); eff != 0 {
		t.Fatalf("update missing effects=%v", eff.Slices())
	}

	title := "Jog"
	state, eff := Reduce(state, UpdateTask{ID: id, Patch: domain.TaskPatch{Title: &title}}, env)
	if !eff.Has(SliceTasks) || state.Tasks[0].Title != "Jog" || state.Tasks[0].ID != id {
		t.Fatalf("task=%+v effects=%v", state.Tasks[0], eff.Slices())
	}

	state, _ = Reduce(state, CompleteTask{TaskID: id}, env)
	state, _ = Reduce(state, DeleteTask{ID: id}, env)
	if len(state.Tasks) != 0 {
		t.Fatalf("tasks=%d, want 0", len(state.Tasks))
	}
	if len(state.Completions) != 1 {
		t.Fatalf("completions=%d, want history kept", len(state.Completions))
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	clock := newClock()
	env := testEnv(clock)
	state := seeded(t, env, daily("Run", 2), daily("Read", 1))
	state, _ = Reduce(state, CompleteTask{TaskID: state.Tasks[0].ID}, env)

	before := state.Clone()
	_, _ = Reduce(state, DeleteTask{ID: state.Tasks[0].ID}, env)
	_, _ = Reduce(state, UncompleteTask{TaskID: state.Tasks[0].ID}, env)
	if len(state.Tasks) != 2 || state.Tasks[0].ID != before.Tasks[0].ID {
		t.Fatalf("tasks mutated: %+v", state.Tasks)
	}
	if len(state.Completions) != 1 || len(state.Achievements.Unlocked) != 1 {
		t.Fatalf("state mutated: %+v", state)
	}
}

func TestStorePersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	b := backend.NewKVBackend(storage.NewMemoryKV())

	s := NewStore(b, WithEnv(testEnv(clock)))
	state := s.Dispatch(AddTasks{Tasks: []domain.Task{daily("Run", 3)}})
	s.Dispatch(CompleteTask{TaskID: state.Tasks[0].ID})
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if p := s.Pending(); p == nil || p.ID != achievement.FirstCompletion {
		t.Fatalf("pending=%v", p)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reloaded := NewStore(b)
	defer reloaded.Close(ctx)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := reloaded.State()
	if len(got.Tasks) != 1 || len(got.Completions) != 1 || len(got.Achievements.Unlocked) != 1 {
		t.Fatalf("reloaded=%+v", got)
	}
	if got.Achievements.Pending != nil {
		t.Fatalf("pending survived reload: %v", got.Achievements.Pending)
	}
}

func TestStoreLoadDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	fb := &failingBackend{Backend: backend.NewKVBackend(storage.NewMemoryKV())}
	s := NewStore(fb)
	defer s.Close(ctx)

	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if n := fb.saves(); n != 0 {
		t.Fatalf("saves=%d, want 0", n)
	}
}

type failingBackend struct {
	backend.Backend
	fail bool

	mu    sync.Mutex
	count int
}

func (f *failingBackend) save() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	if f.fail {
		return errors.New("disk full")
	}
	return nil
}

func (f *failingBackend) saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func (f *failingBackend) SaveTasks(ctx context.Context, tasks []domain.Task) error {
	if err := f.save(); err != nil {
		return err
	}
	return f.Backend.SaveTasks(ctx, tasks)
}

func (f *failingBackend) SaveCompletions(ctx context.Context, cs []domain.TaskCompletion) error {
	if err := f.save(); err != nil {
		return err
	}
	return f.Backend.SaveCompletions(ctx, cs)
}

func (f *failingBackend) SaveAchievements(ctx context.Context, rs []domain.AchievementRecord) error {
	if err := f.save(); err != nil {
		return err
	}
	return f.Backend.SaveAchievements(ctx, rs)
}

func TestStorePersistFailureIsLoggedNotRetried(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	fb := &failingBackend{Backend: backend.NewKVBackend(storage.NewMemoryKV()), fail: true}
	var failed []Slice
	s := NewStore(fb, WithLogger(log.New(&buf, "", 0)), WithPersistErrorHook(func(sl Slice, err error) {
		failed = append(failed, sl)
	}))
	defer s.Close(ctx)

	state := s.Dispatch(AddTasks{Tasks: []domain.Task{daily("Run", 3)}})
	if len(state.Tasks) != 1 {
		t.Fatalf("tasks=%d, want in-memory update despite failure", len(state.Tasks))
	}
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if n := fb.saves(); n != 1 {
		t.Fatalf("saves=%d, want 1", n)
	}
	if !strings.Contains(buf.String(), "warning: persist tasks failed: disk full") {
		t.Fatalf("log=%q", buf.String())
	}
	if len(failed) != 1 || failed[0] != SliceTasks {
		t.Fatalf("hook slices=%v, want [tasks]", failed)
	}
}

func TestAddTasksZeroesProgress(t *testing.T) {
	env := testEnv(newClock())
	in := daily("Run", 3)
	in.ID = "caller-id"
	in.Progress = 5
	state, _ := Reduce(domain.AppState{}, AddTasks{Tasks: []domain.Task{in}}, env)
	if got := state.Tasks[0]; got.Progress != 0 || got.ID != "id-1" {
		t.Fatalf("task=%+v, want fresh id and zero progress", got)
	}
}

func TestConcurrentDispatchReturnsOwnTask(t *testing.T) {
	ctx := context.Background()
	s := NewStore(backend.NewKVBackend(storage.NewMemoryKV()))
	defer s.Close(ctx)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			title := fmt.Sprintf("task-%d", i)
			state := s.Dispatch(AddTasks{Tasks: []domain.Task{daily(title, 1)}})
			if got := state.Tasks[len(state.Tasks)-1].Title; got != title {
				errs <- fmt.Sprintf("got %q, want %q", got, title)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatal(e)
	}
	if got := len(s.State().Tasks); got != n {
		t.Fatalf("tasks=%d, want %d", got, n)
	}
}

func TestStoreSubscribe(t *testing.T) {
	ctx := context.Background()
	s := NewStore(backend.NewKVBackend(storage.NewMemoryKV()))
	defer s.Close(ctx)

	var seen []int
	unsubscribe := s.Subscribe(func(st domain.AppState) { seen = append(seen, len(st.Tasks)) })
	s.Dispatch(AddTasks{Tasks: []domain.Task{daily("Run", 3)}})
	s.Dispatch(AddTasks{Tasks: []domain.Task{daily("Read", 1)}})
	unsubscribe()
	s.Dispatch(AddTasks{Tasks: []domain.Task{daily("Swim", 1)}})

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("seen=%v, want [1 2]", seen)
	}
}

func TestPersisterKeepsOrder(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	b := backend.NewKVBackend(kv)
	p := NewPersister(b, nil)

	for i := 1; i <= 20; i++ {
		tasks := make([]domain.Task, i)
		p.Enqueue(domain.AppState{Tasks: tasks}, Effects(0).With(SliceTasks))
	}
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	tasks, err := b.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("LoadTasks: %v", err)
	}
	if len(tasks) != 20 {
		t.Fatalf("tasks=%d, want last write (20)", len(tasks))
	}
	if err := p.Flush(ctx); !errors.Is(err, ErrPersisterClosed) {
		t.Fatalf("Flush after Close err=%v", err)
	}
}

func TestTodayViews(t *testing.T) {
	// 2024-01-01 is a Monday.
	now := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	state := domain.AppState{
		Tasks: []domain.Task{
			{ID: "a", Title: "Run", Reward: 3, Type: domain.TaskTypeDaily},
			{ID: "b", Title: "Gym", Reward: 5, Type: domain.TaskTypeWeekly, Days: []int{1, 3}},
			{ID: "c", Title: "Hike", Reward: 8, Type: domain.TaskTypeWeekly, Days: []int{0, 6}},
		},
		Completions: []domain.TaskCompletion{
			{ID: "1", TaskID: "a", CompletedAt: "2023-12-31T08:00:00.000Z", Reward: 3},
			{ID: "2", TaskID: "b", CompletedAt: "2024-01-01T07:00:00.000Z", Reward: 5},
			{ID: "3", TaskID: "c", CompletedAt: "2024-01-01T07:30:00.000Z", Reward: 8},
		},
	}

	today := TodayTasks(state.Tasks, now)
	if len(today) != 2 || today[0].ID != "a" || today[1].ID != "b" {
		t.Fatalf("TodayTasks=%+v", today)
	}
	if IsCompletedToday(state.Completions, "a", now) || !IsCompletedToday(state.Completions, "b", now) {
		t.Fatalf("IsCompletedToday mismatch")
	}
	if got := len(TodayCompletions(state.Completions, now)); got != 2 {
		t.Fatalf("TodayCompletions=%d, want 2", got)
	}

	p := TodayProgress(state, now)
	if p.Done != 1 || p.Total != 2 || p.Reward != 8 || p.Earned != 13 {
		t.Fatalf("TodayProgress=%+v", p)
	}

	days := RewardByDay(state.Completions)
	if len(days) != 2 || days[0].Date != "2024-01-01" || days[0].Reward != 13 || days[1].Count != 1 {
		t.Fatalf("RewardByDay=%+v", days)
	}
	if got := TotalReward(state.Completions); got != 16 {
		t.Fatalf("TotalReward=%d, want 16", got)
	}
}

func TestLevelCurve(t *testing.T) {
	if got := RewardRequiredForLevel(0); got != 0 {
		t.Fatalf("RewardRequiredForLevel(0)=%d, want 0", got)
	}
	l1 := RewardRequiredForLevel(1)
	if got := LevelForReward(l1 - 1); got != 0 {
		t.Fatalf("LevelForReward(l1-1)=%d, want 0", got)
	}
	if got := LevelForReward(l1); got != 1 {
		t.Fatalf("LevelForReward(l1)=%d, want 1", got)
	}
	l7 := RewardRequiredForLevel(7)
	if got := LevelForReward(l7); got != 7 {
		t.Fatalf("LevelForReward(l7)=%d, want 7", got)
	}

	l := LevelFor(l1)
	if l.Level != 1 || l.Fraction() != 0 || l.Next != RewardRequiredForLevel(2) {
		t.Fatalf("LevelFor=%+v", l)
	}
}
