package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/msgo/internal/db"
	"github.com/udisondev/msgo/internal/testutil"
)

func TestCaptureStore_RecordAndList(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	store := db.NewCaptureStore(pool, true)
	ctx := testutil.ContextWithTimeout(t, 10*time.Second)

	captures := []db.Capture{
		{SessionID: "s-1", Direction: db.Inbound, IV: []byte{1, 2, 3, 4}, Header: []byte{0xA, 0xB, 0xC, 0xD}, PayloadLen: 3, Payload: []byte{7, 7, 7}},
		{SessionID: "s-1", Direction: db.Outbound, IV: []byte{5, 6, 7, 8}, Header: []byte{0x1, 0x2, 0x3, 0x4}, PayloadLen: 2, Payload: []byte{8, 8}},
		{SessionID: "s-2", Direction: db.Inbound, IV: []byte{0, 0, 0, 0}, Header: []byte{0, 0, 0, 0}, PayloadLen: 2},
	}
	for _, c := range captures {
		require.NoError(t, store.Record(ctx, c))
	}

	got, err := store.ListBySession(ctx, "s-1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, db.Inbound, got[0].Direction)
	assert.Equal(t, []byte{1, 2, 3, 4}, got[0].IV)
	assert.Equal(t, []byte{7, 7, 7}, got[0].Payload)
	assert.Equal(t, db.Outbound, got[1].Direction)
	assert.Equal(t, 2, got[1].PayloadLen)
	assert.Less(t, got[0].ID, got[1].ID)
	assert.False(t, got[0].CapturedAt.IsZero())

	limited, err := store.ListBySession(ctx, "s-1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestCaptureStore_PayloadDisabled(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	store := db.NewCaptureStore(pool, false)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, db.Capture{
		SessionID:  "s-3",
		Direction:  db.Inbound,
		IV:         []byte{1, 1, 1, 1},
		Header:     []byte{2, 2, 2, 2},
		PayloadLen: 4,
		Payload:    []byte{9, 9, 9, 9},
	}))

	got, err := store.ListBySession(ctx, "s-3", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Payload)
	assert.Equal(t, 4, got[0].PayloadLen)
}
