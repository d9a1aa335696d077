package expert

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/fwexpert/framework"
	"github.com/c360studio/fwexpert/knowledge"
)

func TestWatcherMarksStale(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := t.TempDir()

	store := knowledge.NewStore(knowledge.NewMemKV())
	lease, err := store.Begin(ctx, framework.TypePstaff)
	require.NoError(t, err)
	require.NoError(t, store.Commit(ctx, lease, &framework.Knowledge{
		FrameworkType: framework.TypePstaff,
		Classes:       map[string]framework.ClassInfo{"AppAccess": {Purpose: "auth"}},
	}))

	w := NewWatcher(store, map[string]framework.Type{root: framework.TypePstaff}, 50*time.Millisecond, nil)
	go func() { _ = w.Run(ctx) }()

	// Give the watcher time to register before touching the tree
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "AppAccess.py"), []byte("class AppAccess: pass"), 0644))

	assert.Eventually(t, func() bool {
		stats, err := store.Stats(ctx, framework.TypePstaff)
		return err == nil && stats.Status == framework.StatusStale
	}, 3*time.Second, 50*time.Millisecond)
}

func TestWatcherIgnoresForeignPaths(t *testing.T) {
	w := NewWatcher(nil, map[string]framework.Type{"/frameworks/pstaff": framework.TypePstaff}, 0, nil)

	ft, ok := w.typeForPath("/frameworks/pstaff/lib/AppAccess.py")
	assert.True(t, ok)
	assert.Equal(t, framework.TypePstaff, ft)

	_, ok = w.typeForPath("/frameworks/pstaff-other/file.py")
	assert.False(t, ok)

	_, ok = w.typeForPath("/tmp/unrelated.py")
	assert.False(t, ok)
}
