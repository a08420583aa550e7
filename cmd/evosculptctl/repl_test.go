package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"evosculpt/internal/model"
	"evosculpt/internal/storage"
	"evosculpt/internal/studio"
)

func newTestREPL(t *testing.T, store storage.Store) (*repl, *bytes.Buffer) {
	t.Helper()
	session, err := studio.NewSession(context.Background(), studio.Config{
		ID:        "repl",
		GridSize:  2,
		Seed:      5,
		ImageSize: 8,
		Workers:   2,
		Store:     store,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	var out bytes.Buffer
	return newREPL(session, &out), &out
}

func TestREPLScriptDrivesSession(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init store: %v", err)
	}
	r, out := newTestREPL(t, store)
	dir := t.TempDir()
	script := strings.Join([]string{
		"# select two parents",
		"toggle 1",
		"select 2 0.5",
		"show",
		"evolve",
		"mode torus",
		"export-image 0 " + filepath.Join(dir, "p0.png") + " 2",
		"export-mesh 0 " + filepath.Join(dir, "p0.obj"),
		"export-sheet " + filepath.Join(dir, "sheet.png"),
		"preview 0",
		"stats",
		"bogus",
		"toggle 99",
		"resize 3",
		"quit",
		"evolve",
	}, "\n")

	if err := r.run(ctx, strings.NewReader(script)); err != nil {
		t.Fatalf("run script: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"generation=0 grid=2 population=4",
		"tick serviced=evolve generation=1 population=4 champions=2 fallback=false",
		"stitching=torus",
		"exported image=0",
		"exported mesh=0 triangles=128",
		"exported sheet population=4",
		"activation=",
		`error: unknown command "bogus"`,
		"error: index 99 out of range [0,4)",
		"tick serviced=resize generation=1 population=9",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if r.session.CurrentGeneration() != 1 {
		t.Fatalf("commands after quit ran: generation=%d", r.session.CurrentGeneration())
	}
	if r.session.Stitching() != model.StitchTorus {
		t.Fatalf("unexpected stitching: %s", r.session.Stitching())
	}
	for _, name := range []string{"p0.png", "p0.obj", "sheet.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected export %s: %v", name, err)
		}
	}
	records, err := store.ListGenerations(ctx, "repl")
	if err != nil {
		t.Fatalf("list generations: %v", err)
	}
	if len(records) != 1 || len(records[0].Champions) != 2 {
		t.Fatalf("unexpected journal: %+v", records)
	}
}

func TestREPLPreviewASCII(t *testing.T) {
	r, out := newTestREPL(t, nil)
	if quit, err := r.execute("preview 3"); quit || err != nil {
		t.Fatalf("preview: quit=%t err=%v", quit, err)
	}
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected 8 preview rows, got %d", len(lines))
	}
	for _, line := range lines {
		if len(line) != 8 {
			t.Fatalf("expected 8 columns, got %q", line)
		}
	}
}

func TestREPLPreviewTruecolor(t *testing.T) {
	r, out := newTestREPL(t, nil)
	r.color = true
	if _, err := r.execute("preview 0"); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if got := strings.Count(out.String(), "\x1b[0m\n"); got != 4 {
		t.Fatalf("expected 4 half-block rows, got %d", got)
	}
}

func TestREPLUsageErrors(t *testing.T) {
	r, _ := newTestREPL(t, nil)
	for _, line := range []string{
		"select",
		"select x",
		"select 0 high",
		"toggle",
		"resize big",
		"resize 40",
		"mode klein",
		"export-image 0",
		"export-image 0 out.png 0",
		"export-mesh 0",
		"export-sheet",
		"preview -1",
	} {
		if _, err := r.execute(line); err == nil {
			t.Fatalf("expected error for %q", line)
		}
	}
}

func TestRampIndexBounds(t *testing.T) {
	if got := rampIndex(model.RGB{}); got != 0 {
		t.Fatalf("black should map to the first ramp entry, got %d", got)
	}
	if got := rampIndex(model.RGB{R: 255, G: 255, B: 255}); got != len(asciiRamp)-1 {
		t.Fatalf("white should map to the last ramp entry, got %d", got)
	}
}
