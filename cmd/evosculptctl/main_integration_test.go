//go:build sqlite

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"evosculpt/internal/storage"
)

func TestSessionCommandSQLiteJournalFeedsHistory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "evosculpt.db")
	script := filepath.Join(dir, "script.txt")
	if err := os.WriteFile(script, []byte("toggle 0\nevolve\ntoggle 1\nevolve\nevolve\nquit\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	args := []string{
		"session",
		"--store", "sqlite",
		"--db-path", dbPath,
		"--grid", "2",
		"--size", "8",
		"--seed", "21",
		"--script", script,
		"--log-level", "error",
	}
	if err := run(ctx, args); err != nil {
		t.Fatalf("session command: %v", err)
	}

	store := storage.NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init sqlite: %v", err)
	}
	sessions, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	_ = store.Close()
	if len(sessions) != 1 || sessions[0].GridSize != 2 || sessions[0].Seed != 21 {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}

	plot := filepath.Join(dir, "history.png")
	csvPath := filepath.Join(dir, "history.csv")
	args = []string{
		"history",
		"--store", "sqlite",
		"--db-path", dbPath,
		"--session", sessions[0].ID,
		"--plot", plot,
		"--csv", csvPath,
	}
	if err := run(ctx, args); err != nil {
		t.Fatalf("history command: %v", err)
	}
	if _, err := os.Stat(plot); err != nil {
		t.Fatalf("expected plot: %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	// Header plus three generations.
	if rows := strings.Count(strings.TrimSpace(string(data)), "\n") + 1; rows != 4 {
		t.Fatalf("expected 4 csv rows, got %d:\n%s", rows, data)
	}

	if err := run(ctx, []string{"sessions", "--store", "sqlite", "--db-path", dbPath, "--json"}); err != nil {
		t.Fatalf("sessions command: %v", err)
	}
}
