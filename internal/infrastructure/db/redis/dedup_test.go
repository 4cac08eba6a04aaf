package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDedup(t *testing.T) (*DedupChecker, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewDedupChecker(client, time.Hour), mr
}

func TestDedupChecker_MarkThenDuplicate(t *testing.T) {
	d, mr := setupTestDedup(t)
	ctx := context.Background()

	dup, err := d.IsDuplicate(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, dup)

	require.NoError(t, d.Mark(ctx, "evt_1"))
	assert.True(t, mr.Exists("webhook:evt_1"))

	dup, err = d.IsDuplicate(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = d.IsDuplicate(ctx, "evt_2")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestDedupChecker_Expires(t *testing.T) {
	d, mr := setupTestDedup(t)
	ctx := context.Background()

	require.NoError(t, d.Mark(ctx, "evt_1"))
	mr.FastForward(2 * time.Hour)

	dup, err := d.IsDuplicate(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestConnect_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = Connect(context.Background(), Config{Addr: addr, Timeout: 200 * time.Millisecond})
	assert.Error(t, err)
}
