package world

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMap(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "map.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write test map: %v", err)
	}
	return path
}

func TestLoadEmpty3x3Grid(t *testing.T) {
	path := writeMap(t, "...\n...\n...\n")
	w, err := Load(path, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.AgentIDs()) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(w.AgentIDs()))
	}
}

func TestLoadRejectsUnreachablePair(t *testing.T) {
	path := writeMap(t, ".#.\n###\n.#.\n")
	_, err := Load(path, 2, 1)
	if err == nil {
		t.Fatalf("expected error for a map whose free cells are all mutually unreachable")
	}
}

func TestLoadRejectsInconsistentWidth(t *testing.T) {
	path := writeMap(t, "...\n..\n...\n")
	if _, err := Load(path, 1, 1); err == nil {
		t.Fatalf("expected error for inconsistent row widths")
	}
}

func TestLoadRejectsInvalidCharacter(t *testing.T) {
	path := writeMap(t, "..x\n...\n")
	if _, err := Load(path, 1, 1); err == nil {
		t.Fatalf("expected error for invalid character")
	}
}

func TestLoadIgnoresCommentsAndBlankLines(t *testing.T) {
	path := writeMap(t, "/ this is a comment\n\n...\n...\n\n")
	if _, err := Load(path, 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadDeterministicForSameSeed(t *testing.T) {
	path := writeMap(t, ".........\n.........\n.........\n.........\n")
	w1, err := Load(path, 4, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w2, err := Load(path, 4, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap1, snap2 := w1.Snapshot(), w2.Snapshot()
	if len(snap1) != len(snap2) {
		t.Fatalf("agent count mismatch across identical seeds")
	}
	for i := range snap1 {
		if snap1[i].Pos != snap2[i].Pos || snap1[i].Goal != snap2[i].Goal {
			t.Fatalf("agent %d placement differs across identical seeds: %+v vs %+v", i, snap1[i], snap2[i])
		}
		if snap1[i].ID != snap2[i].ID {
			t.Fatalf("agent %d identifier differs across identical seeds: %s vs %s", i, snap1[i].ID, snap2[i].ID)
		}
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt"), 1, 1); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
