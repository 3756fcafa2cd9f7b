package history_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"aish/history"
)

func newStore(t *testing.T) (*history.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aish", "history")
	return history.NewStore(path), path
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, path := newStore(t)
	// Appending c3, c2, c1 leaves the buffer newest first as [c1 c2 c3].
	store.Append("c3")
	store.Append("c2")
	store.Append("c1")

	if err := store.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading history file: %v", err)
	}
	if got, want := string(data), "c3\nc2\nc1\n"; got != want {
		t.Errorf("file contents = %q, want %q (oldest first)", got, want)
	}

	fresh := history.NewStore(path)
	if err := fresh.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff([]string{"c1", "c2", "c3"}, fresh.Entries()); diff != "" {
		t.Errorf("loaded buffer mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFile(t *testing.T) {
	store, _ := newStore(t)
	if err := store.Load(); err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty buffer, got %v", store.Entries())
	}
}

func TestLoadSkipsBlankLines(t *testing.T) {
	store, path := newStore(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("ls\n\n  \r\ngit status\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff([]string{"git status", "ls"}, store.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestAppend(t *testing.T) {
	t.Run("IgnoresBlankAndRepeats", func(t *testing.T) {
		store, _ := newStore(t)
		store.Append("ls")
		store.Append("   ")
		store.Append("ls")
		store.Append("pwd")
		store.Append("ls")
		if diff := cmp.Diff([]string{"ls", "pwd", "ls"}, store.Entries()); diff != "" {
			t.Errorf("entries mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("TruncatesWithHysteresis", func(t *testing.T) {
		store, _ := newStore(t)
		for i := 0; i < history.MaxEntries; i++ {
			store.Append(fmt.Sprintf("cmd-%d", i))
		}
		if store.Len() != history.MaxEntries {
			t.Fatalf("len = %d, want %d", store.Len(), history.MaxEntries)
		}

		store.Append("overflow")
		if store.Len() != history.TrimTo {
			t.Fatalf("len after overflow = %d, want %d", store.Len(), history.TrimTo)
		}
		entries := store.Entries()
		if entries[0] != "overflow" || entries[1] != fmt.Sprintf("cmd-%d", history.MaxEntries-1) {
			t.Errorf("most recent entries not kept: %v", entries[:2])
		}

		store.Append("next")
		if store.Len() != history.TrimTo+1 {
			t.Errorf("len = %d, want %d", store.Len(), history.TrimTo+1)
		}
	})
}

func TestSaveCapsFileAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	lines := ""
	for i := 0; i < history.MaxEntries+200; i++ {
		lines += fmt.Sprintf("old-%d\n", i)
	}
	if err := os.WriteFile(path, []byte(lines), 0o600); err != nil {
		t.Fatal(err)
	}

	store := history.NewStore(path)
	if err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if store.Len() != history.MaxEntries {
		t.Fatalf("loaded %d entries, want %d", store.Len(), history.MaxEntries)
	}
	if store.Entries()[0] != fmt.Sprintf("old-%d", history.MaxEntries+199) {
		t.Errorf("newest entry = %q", store.Entries()[0])
	}

	if err := store.Save(); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	first, _ := os.ReadFile(path)
	if err := store.Save(); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	second, _ := os.ReadFile(path)
	if string(first) != string(second) {
		t.Error("repeated Save changed the file")
	}

	saved, err := history.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != history.MaxEntries {
		t.Errorf("saved %d lines, want %d", len(saved), history.MaxEntries)
	}
	if saved[0] != "old-200" {
		t.Errorf("oldest saved line = %q, want old-200", saved[0])
	}
}

// Property: any buffer survives Save followed by Load into a fresh store.
func TestRoundTripProperty(t *testing.T) {
	dir := t.TempDir()
	n := 0

	rapid.Check(t, func(rt *rapid.T) {
		n++
		path := filepath.Join(dir, fmt.Sprintf("h%d", n), "history")
		store := history.NewStore(path)

		cmds := rapid.SliceOfN(rapid.StringMatching(`[a-z0-9|./ -]{1,24}`), 0, 60).Draw(rt, "commands")
		for _, c := range cmds {
			store.Append(c)
		}

		if err := store.Save(); err != nil {
			rt.Fatalf("Save: %v", err)
		}
		fresh := history.NewStore(path)
		if err := fresh.Load(); err != nil {
			rt.Fatalf("Load: %v", err)
		}
		if diff := cmp.Diff(store.Entries(), fresh.Entries()); diff != "" {
			rt.Fatalf("round trip mismatch (-saved +loaded):\n%s", diff)
		}
	})
}
