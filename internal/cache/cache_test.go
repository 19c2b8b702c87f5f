package cache

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/rewired-gh/pollsight/internal/models"
)

func TestCache_SaveAndGet(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "responses.json"))

	if c.HasResponded("u1", "p1") {
		t.Fatal("empty cache should not report a response")
	}
	if _, err := c.Get("u1", "p1"); !errors.Is(err, ErrNotResponded) {
		t.Fatalf("expected ErrNotResponded, got %v", err)
	}

	c.Save("u1", "p1", models.StringValue("o2"))
	c.Save("u1", "p2", models.NumberValue(7))
	c.Save("u2", "p1", models.BoolValue(true))

	v, err := c.Get("u1", "p1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != models.StringValue("o2") {
		t.Errorf("expected o2, got %v", v)
	}
	if !c.HasResponded("u2", "p1") || c.HasResponded("u2", "p2") {
		t.Error("HasResponded mismatch for u2")
	}
	if c.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", c.Len())
	}

	// Saving again replaces the answer.
	c.Save("u1", "p1", models.StringValue("o1"))
	if v, _ := c.Get("u1", "p1"); v != models.StringValue("o1") {
		t.Errorf("expected replaced answer o1, got %v", v)
	}

	answered := c.Answered("u1")
	sort.Strings(answered)
	if len(answered) != 2 || answered[0] != "p1" || answered[1] != "p2" {
		t.Errorf("unexpected answered list: %v", answered)
	}
}

func TestCache_Clear(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "responses.json"))
	c.Save("u1", "p1", models.BoolValue(true))
	c.Save("u2", "p1", models.BoolValue(false))

	c.Clear("u1")
	if c.HasResponded("u1", "p1") {
		t.Error("u1 should have been cleared")
	}
	if !c.HasResponded("u2", "p1") {
		t.Error("u2 should be untouched")
	}
}

func TestCache_PersistAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "responses.json")

	c := New(path)
	c.Save("u1", "p1", models.StringValue("o1"))
	c.Save("u1", "p2", models.NumberValue(42.5))
	c.Save("u2", "p3", models.BoolValue(false))
	if err := c.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain after Persist")
	}

	restored := New(path)
	if err := restored.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if restored.Len() != 3 {
		t.Fatalf("expected 3 entries after load, got %d", restored.Len())
	}
	tests := []struct {
		user, poll string
		want       models.Value
	}{
		{"u1", "p1", models.StringValue("o1")},
		{"u1", "p2", models.NumberValue(42.5)},
		{"u2", "p3", models.BoolValue(false)},
	}
	for _, tt := range tests {
		got, err := restored.Get(tt.user, tt.poll)
		if err != nil || got != tt.want {
			t.Errorf("Get(%s, %s) = %v, %v; want %v", tt.user, tt.poll, got, err, tt.want)
		}
	}
}

func TestCache_LoadMissingFile(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "absent.json"))
	if err := c.Load(); err != nil {
		t.Fatalf("Load of missing file should succeed, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}

func TestCache_LoadRemovesStaleTemp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.json")
	if err := os.WriteFile(path+".tmp", []byte("{garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(path)
	if err := c.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("stale temp file should be removed")
	}
}

func TestCache_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := New(path).Load(); err == nil {
		t.Error("expected error for corrupt file")
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "responses.json"))
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := string(rune('a' + i))
			for j := 0; j < 50; j++ {
				c.Save(user, "p", models.NumberValue(float64(j)))
				_ = c.HasResponded(user, "p")
			}
		}(i)
	}
	wg.Wait()
	if c.Len() != 10 {
		t.Errorf("expected 10 entries, got %d", c.Len())
	}
}
