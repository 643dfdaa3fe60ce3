package snapstore

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoad(t *testing.T) {
	store := openTestStore(t)

	id, err := store.Save("https://example.com", "Example", "<html><body>x</body></html>")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero id")
	}

	snap, err := store.Load(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.URL != "https://example.com" || snap.Title != "Example" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if snap.HTML != "<html><body>x</body></html>" {
		t.Errorf("unexpected html: %q", snap.HTML)
	}
	if snap.CreatedAt.IsZero() {
		t.Error("expected a creation timestamp")
	}
}

func TestListOrdersByIDAndSkipsHTML(t *testing.T) {
	store := openTestStore(t)

	first, err := store.Save("https://a.example", "A", "<p>a</p>")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := store.Save("https://b.example", "B", "<p>b</p>")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	snaps, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].ID != first || snaps[1].ID != second {
		t.Errorf("unexpected order: %d, %d", snaps[0].ID, snaps[1].ID)
	}
	if snaps[0].HTML != "" {
		t.Error("expected list entries without html")
	}
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)

	id, err := store.Save("https://example.com", "Example", "<p>x</p>")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.Delete(id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a second delete, got %v", err)
	}
}

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snaps.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if _, err := store.Save("https://example.com", "t", "<p>x</p>"); err != nil {
		t.Fatalf("save on fresh file store: %v", err)
	}
}
