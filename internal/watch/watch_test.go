package watch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/zettpub/internal/testutil"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatch(t *testing.T, dir string, fn Func) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, dir, ".md", 50*time.Millisecond, testutil.Logger(), fn) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Watch: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	time.Sleep(100 * time.Millisecond)
}

func TestWatch_DebouncesNoteChanges(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	startWatch(t, dir, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	for i := 0; i < 5; i++ {
		testutil.WriteFile(t, dir, "burst.md", "#PublishToPages(burst)\n")
	}

	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "publish not triggered")
	time.Sleep(200 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1 for one burst", n)
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	startWatch(t, dir, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	testutil.WriteFile(t, dir, "image.png", "binary")
	testutil.WriteFile(t, dir, ".draft.swp", "swap")
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("calls = %d, want 0", n)
	}
}

func TestWatch_KeepsGoingAfterFailure(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	startWatch(t, dir, func(context.Context) error {
		calls.Add(1)
		return errors.New("push rejected")
	})

	testutil.WriteFile(t, dir, "a.md", "a")
	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool { return calls.Load() == 1 }, "first publish not triggered")
	testutil.WriteFile(t, dir, "b.md", "b")
	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool { return calls.Load() == 2 }, "watcher stopped after a failed publish")
}

func TestRelevant(t *testing.T) {
	cases := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "/n/a.md", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/n/a.md", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "/n/a.md", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/n/a.txt", Op: fsnotify.Create}, false},
	}
	for _, tc := range cases {
		if got := relevant(tc.ev, ".md"); got != tc.want {
			t.Errorf("relevant(%v) = %v, want %v", tc.ev, got, tc.want)
		}
	}
}
