package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchReloadsExternalChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.xlsx")
	watched, err := Open(path, StoreOptions{})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan error, 4)
	go func() {
		_ = watched.Watch(ctx, func(err error) { reloaded <- err })
	}()

	// Give the watcher time to register, then change the file through a
	// second store as another process would.
	time.Sleep(300 * time.Millisecond)
	other, err := Open(path, StoreOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.AddCategory("스티커", nil); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-reloaded:
		if err != nil {
			t.Fatalf("reload error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload within 5s")
	}

	if _, err := watched.CategoryByName("스티커"); err != nil {
		t.Errorf("watched store should see the new category: %v", err)
	}
}

func TestWatchIgnoresOwnWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.xlsx")
	s, err := Open(path, StoreOptions{})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan error, 4)
	go func() {
		_ = s.Watch(ctx, func(err error) { reloaded <- err })
	}()
	time.Sleep(300 * time.Millisecond)

	if _, err := s.AddCategory("스티커", nil); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
		t.Error("store reloaded after its own write")
	case <-time.After(1500 * time.Millisecond):
	}
}
