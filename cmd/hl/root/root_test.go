package root

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"habitline/internal/backend"
	"habitline/internal/domain"
)

type cli struct {
	t    *testing.T
	base []string
}

func newCLI(t *testing.T) cli {
	t.Helper()
	setup()
	dir := t.TempDir()
	return cli{t: t, base: []string{
		"--config", filepath.Join(dir, "config.yaml"),
		"--backend", "sqlite",
		"--db", filepath.Join(dir, "habitline.db"),
	}}
}

// run executes one command line. Flag values stick between runs on the shared
// root command, so every run passes --json explicitly.
func (c cli) run(asJSON bool, args ...string) string {
	c.t.Helper()
	var out bytes.Buffer
	full := append(append([]string{}, args...), c.base...)
	if asJSON {
		full = append(full, "--json=true")
	} else {
		full = append(full, "--json=false")
	}
	rootCmd.SetArgs(full)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		c.t.Fatalf("hl %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestAddDoStatus(t *testing.T) {
	c := newCLI(t)

	var task domain.Task
	if err := json.Unmarshal([]byte(c.run(true, "add", "Read a book", "--reward", "3")), &task); err != nil {
		t.Fatalf("decode add: %v", err)
	}
	if task.ID == "" || task.Reward != 3 || task.Type != domain.TaskTypeDaily {
		t.Fatalf("task=%+v", task)
	}

	out := c.run(false, "do", task.ID[:8])
	if !strings.Contains(out, "Getting Started") {
		t.Fatalf("expected unlock banner, got %q", out)
	}
	if out := c.run(false, "do", task.ID); !strings.Contains(out, "already done") {
		t.Fatalf("second do=%q", out)
	}

	var st statusView
	if err := json.Unmarshal([]byte(c.run(true, "status")), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.Completions != 1 || st.Level.Total != 3 || st.Unlocked != 1 || st.Tasks != 1 {
		t.Fatalf("status=%+v", st)
	}
	if st.Today.Done != 1 || st.Today.Total != 1 {
		t.Fatalf("today=%+v", st.Today)
	}
}

func TestUndoRevokes(t *testing.T) {
	c := newCLI(t)

	var task domain.Task
	if err := json.Unmarshal([]byte(c.run(true, "add", "Stretch")), &task); err != nil {
		t.Fatalf("decode add: %v", err)
	}
	c.run(false, "do", task.ID)
	out := c.run(false, "undo", task.ID)
	if !strings.Contains(out, "Removed 1 completion") || !strings.Contains(out, "1 achievement(s) revoked") {
		t.Fatalf("undo=%q", out)
	}

	var rows []achievementRow
	if err := json.Unmarshal([]byte(c.run(true, "achievements", "--unlocked")), &rows); err != nil {
		t.Fatalf("decode achievements: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("unlocked=%+v, want none", rows)
	}
}

func TestImportAppliesTheme(t *testing.T) {
	c := newCLI(t)
	file := filepath.Join(t.TempDir(), "backup.json")
	doc := `{"tasks":[{"id":"t1","title":"Run","reward":3,"type":"daily","progress":0}],"completions":[],"achievements":[],"theme":"dark"}`
	if err := os.WriteFile(file, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c.run(false, "import", file)

	var shown struct {
		Theme string
	}
	if err := json.Unmarshal([]byte(c.run(true, "config", "show")), &shown); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if shown.Theme != "dark" {
		t.Fatalf("theme=%q, want dark", shown.Theme)
	}
}

func TestDirPushWritesBackup(t *testing.T) {
	c := newCLI(t)
	c.run(true, "add", "Walk")

	dir := t.TempDir()
	c.run(false, "dir", "push", "--path", dir)

	data, err := os.ReadFile(filepath.Join(dir, backend.DirFile))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	doc, err := domain.ParseDocument(data)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(doc.Tasks) != 1 || doc.Tasks[0].Title != "Walk" || doc.SyncTime == nil {
		t.Fatalf("doc=%+v", doc)
	}
}
