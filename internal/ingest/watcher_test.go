package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	require.Error(t, err)
}

func TestWatcherEmitsEligibleFiles(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "invoice.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	seen := map[string]bool{}
	deadline := time.After(5 * time.Second)
	for !seen[filepath.Join(root, "invoice.pdf")] {
		select {
		case p := <-events:
			seen[p] = true
		case <-deadline:
			t.Fatalf("invoice.pdf never emitted; saw %v", seen)
		}
	}
	assert.False(t, seen[filepath.Join(root, ".hidden.pdf")])
	assert.False(t, seen[filepath.Join(root, "notes.txt")])
}

func TestWatcherDebouncedBurstDeliversEverything(t *testing.T) {
	// an event burst racing the debounce timer must neither crash nor
	// lose files
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:    []string{root},
		Debounce: time.Millisecond,
	})
	require.NoError(t, err)

	const n = 200
	seen := map[string]bool{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		deadline := time.After(10 * time.Second)
		for len(seen) < n {
			select {
			case p := <-events:
				seen[p] = true
			case <-deadline:
				return
			}
		}
	}()

	for i := 0; i < n; i++ {
		path := filepath.Join(root, fmt.Sprintf("invoice-%03d.pdf", i))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	<-done
	assert.Len(t, seen, n)
}

func TestWatcherInitialScan(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "already-there.png")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true})
	require.NoError(t, err)

	select {
	case p := <-events:
		assert.Equal(t, existing, p)
	case <-time.After(2 * time.Second):
		t.Fatal("initial scan did not emit existing file")
	}
}
