package repl

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/railyardhq/railyard/internal/engine"
	"github.com/railyardhq/railyard/internal/storage"
	"github.com/railyardhq/railyard/internal/storage/sqlite"
)

func newTestREPL(t *testing.T) *REPL {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewStorage(ctx, &storage.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open in-memory storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	r, err := New(&Config{Store: store, Engine: engine.DefaultConfig()})
	if err != nil {
		t.Fatalf("Failed to create REPL: %v", err)
	}
	r.ctx = ctx
	return r
}

func writeTestDocument(t *testing.T) string {
	t.Helper()
	content := `
name: PI-2026.2
horizon:
  start: 2026-03-02
  iterations: 2
  iteration_days: 14
teams:
  - id: alpha
    velocity: 20
items:
  - id: s1
    title: Login page
    points: 3
    acceptance_criteria: Renders on mobile
  - id: s2
    title: Checkout flow
    points: 5
    acceptance_criteria: Payments succeed
dependencies:
  - source: s2
    target: s1
`
	path := filepath.Join(t.TempDir(), "pi.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test document: %v", err)
	}
	return path
}

func TestNewRequiresStorage(t *testing.T) {
	if _, err := New(&Config{}); err == nil {
		t.Error("Expected error when storage is missing")
	}
}

func TestNewPreloadsDocument(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewStorage(ctx, &storage.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open in-memory storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	r, err := New(&Config{
		Store:    store,
		Engine:   engine.DefaultConfig(),
		Document: writeTestDocument(t),
	})
	if err != nil {
		t.Fatalf("New with document failed: %v", err)
	}
	if r.inc == nil || r.inc.Name != "PI-2026.2" {
		t.Errorf("Expected preloaded increment, got %+v", r.inc)
	}

	if _, err := New(&Config{
		Store:    store,
		Engine:   engine.DefaultConfig(),
		Document: filepath.Join(t.TempDir(), "missing.yaml"),
	}); err == nil {
		t.Error("Expected error for missing document")
	}
}

func TestCommandsRequireState(t *testing.T) {
	r := newTestREPL(t)

	if err := r.cmdRun(nil); err == nil || !strings.Contains(err.Error(), "no document loaded") {
		t.Errorf("Expected no-document error from run, got %v", err)
	}
	for name, handler := range map[string]CommandHandler{
		"graph":    r.cmdGraph,
		"assess":   r.cmdAssess,
		"alloc":    r.cmdAlloc,
		"save":     r.cmdSave,
		"optimize": r.cmdOptimize,
	} {
		if err := handler(nil); err == nil || !strings.Contains(err.Error(), "no planning run") {
			t.Errorf("Expected no-run error from %s, got %v", name, err)
		}
	}
}

func TestLoadRunSaveFlow(t *testing.T) {
	r := newTestREPL(t)
	path := writeTestDocument(t)

	if err := r.cmdLoad([]string{path}); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if r.inc == nil || len(r.inc.Items) != 2 {
		t.Fatalf("Expected 2 loaded items, got %+v", r.inc)
	}

	if err := r.cmdRun(nil); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if r.result == nil {
		t.Fatal("Expected a plan result after run")
	}
	if !r.result.Ready() {
		t.Error("Expected the two-story fixture to plan ready")
	}
	if len(r.trail) == 0 {
		t.Error("Expected the run to collect planning events")
	}
	if r.saved {
		t.Error("Expected a fresh run to be unsaved")
	}

	// Exploration commands work against the stored result.
	for name, handler := range map[string]CommandHandler{
		"graph":    r.cmdGraph,
		"cycles":   r.cmdCycles,
		"critical": r.cmdCritical,
		"capacity": r.cmdCapacity,
		"alloc":    r.cmdAlloc,
		"unalloc":  r.cmdUnalloc,
		"assess":   r.cmdAssess,
		"optimize": r.cmdOptimize,
	} {
		if err := handler(nil); err != nil {
			t.Errorf("%s failed after run: %v", name, err)
		}
	}

	if err := r.cmdSave(nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !r.saved {
		t.Error("Expected save to mark the run saved")
	}

	summaries, err := r.store.ListRuns(r.ctx, sqlite.RunFilter{})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(summaries) != 1 || summaries[0].RunID != r.result.RunID {
		t.Errorf("Expected the saved run in storage, got %+v", summaries)
	}

	// Saving twice is a no-op, not a duplicate row.
	if err := r.cmdSave(nil); err != nil {
		t.Errorf("second save errored: %v", err)
	}
	summaries, err = r.store.ListRuns(r.ctx, sqlite.RunFilter{})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("Expected 1 stored run after re-save, got %d", len(summaries))
	}

	// Loading a new document clears the session.
	if err := r.cmdLoad([]string{path}); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if r.result != nil || r.trail != nil || r.saved {
		t.Error("Expected reload to reset the run state")
	}
}

func TestProcessInputDispatch(t *testing.T) {
	r := newTestREPL(t)

	// Unknown commands print a note instead of failing.
	if err := r.processInput("definitely-not-a-command"); err != nil {
		t.Errorf("Unknown command should not error, got %v", err)
	}
	if err := r.processInput("   "); err != nil {
		t.Errorf("Blank input should not error, got %v", err)
	}

	// Registered commands dispatch with their arguments.
	if err := r.processInput("load"); err == nil || !strings.Contains(err.Error(), "usage: load") {
		t.Errorf("Expected usage error from bare load, got %v", err)
	}
}

func TestCmdAllocValidatesIteration(t *testing.T) {
	r := newTestREPL(t)
	if err := r.cmdLoad([]string{writeTestDocument(t)}); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := r.cmdRun(nil); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if err := r.cmdAlloc([]string{"zero"}); err == nil {
		t.Error("Expected error for non-numeric iteration")
	}
	if err := r.cmdAlloc([]string{"1"}); err != nil {
		t.Errorf("alloc 1 failed: %v", err)
	}
}

func TestCmdRunsOnEmptyStore(t *testing.T) {
	r := newTestREPL(t)

	if err := r.cmdRuns(nil); err != nil {
		t.Errorf("runs on empty store failed: %v", err)
	}
	if err := r.cmdRuns([]string{"bogus"}); err == nil {
		t.Error("Expected usage error for non-numeric count")
	}
}
