//go:build integration

package knowledge

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/fwexpert/framework"
)

// startJetStream runs an embedded NATS server with JetStream for the test.
func startJetStream(t *testing.T) jetstream.JetStream {
	t.Helper()

	opts := &server.Options{
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	}
	ns, err := server.NewServer(opts)
	require.NoError(t, err)

	ns.Start()
	t.Cleanup(ns.Shutdown)

	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS server did not become ready")
	}

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	js, err := jetstream.New(nc)
	require.NoError(t, err)
	return js
}

func TestNATSKVStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	js := startJetStream(t)

	kv, err := NewNATSKV(ctx, js, "test-knowledge")
	require.NoError(t, err)

	store := NewStore(kv)

	lease, err := store.Begin(ctx, framework.TypePstaff)
	require.NoError(t, err)

	// Single-flight enforced through JetStream revisions
	_, err = store.Begin(ctx, framework.TypePstaff)
	assert.ErrorIs(t, err, ErrAnalysisInProgress)

	k := &framework.Knowledge{
		FrameworkType: framework.TypePstaff,
		Classes: map[string]framework.ClassInfo{
			"AppAccess": {Purpose: "Application login and session management"},
		},
		Patterns: []framework.Pattern{
			{Name: "browser_login", Description: "Admin login via browser"},
		},
	}
	require.NoError(t, store.Commit(ctx, lease, k))

	got, err := store.Get(ctx, framework.TypePstaff)
	require.NoError(t, err)
	assert.Contains(t, got.Classes, "AppAccess")

	stats, err := store.Stats(ctx, framework.TypePstaff)
	require.NoError(t, err)
	assert.Equal(t, framework.StatusAnalyzed, stats.Status)
	assert.Equal(t, 1, stats.ClassesCount)
}

func TestNATSKVRevisionSemantics(t *testing.T) {
	ctx := context.Background()
	js := startJetStream(t)

	kv, err := NewNATSKV(ctx, js, "test-revisions")
	require.NoError(t, err)

	rev, err := kv.Create(ctx, "key", []byte("v1"))
	require.NoError(t, err)

	// Create on an existing key conflicts
	_, err = kv.Create(ctx, "key", []byte("v2"))
	assert.ErrorIs(t, err, ErrRevisionConflict)

	// Update with a stale revision conflicts
	_, err = kv.Update(ctx, "key", []byte("v2"), rev+100)
	assert.ErrorIs(t, err, ErrRevisionConflict)

	// Update at the current revision succeeds
	rev2, err := kv.Update(ctx, "key", []byte("v2"), rev)
	require.NoError(t, err)
	assert.Greater(t, rev2, rev)

	entry, err := kv.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), entry.Value)

	require.NoError(t, kv.Delete(ctx, "key"))
	_, err = kv.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrNotFound)
}
