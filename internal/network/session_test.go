package network

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/msgo/internal/constants"
	"github.com/udisondev/msgo/internal/testutil"
)

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(constants.TestEventTimeout):
		t.Fatal("timeout waiting for event")
		var zero T
		return zero
	}
}

func TestSession_StartValidation(t *testing.T) {
	s := NewSession()
	require.ErrorIs(t, s.Start(), ErrInvalidState, "no conn attached")

	require.ErrorIs(t, s.AttachConn(nil), ErrInvalidArgument)

	_, server := testutil.PipeConn(t)
	require.NoError(t, s.AttachConn(server))
	require.ErrorIs(t, s.AttachConn(server), ErrInvalidState)

	require.ErrorIs(t, s.Start(), ErrNoSubscriber)

	require.ErrorIs(t, s.OnDataArrived(nil), ErrInvalidArgument)
	require.NoError(t, s.OnDataArrived(func([]byte) {}))
	require.ErrorIs(t, s.OnDataArrived(func([]byte) {}), ErrHandlerAlreadySet)

	require.NoError(t, s.Start())
	t.Cleanup(s.Close)
	assert.True(t, s.IsActive())
	require.ErrorIs(t, s.Start(), ErrInvalidState, "second start")

	s.Close()
	require.ErrorIs(t, s.Start(), ErrInvalidState, "start after close")
}

func TestSession_ReceivesChunksInOrder(t *testing.T) {
	client, server := testutil.PipeConn(t)

	chunks := make(chan []byte, 8)
	s := NewSession()
	require.NoError(t, s.AttachConn(server))
	require.NoError(t, s.OnDataArrived(func(b []byte) {
		chunks <- append([]byte(nil), b...)
	}))
	require.NoError(t, s.Start())
	t.Cleanup(s.Close)

	for _, c := range [][]byte{{1, 2, 3}, {4}, {5, 6}} {
		_, err := client.Write(c)
		require.NoError(t, err)
	}

	assert.Equal(t, []byte{1, 2, 3}, waitFor(t, chunks))
	assert.Equal(t, []byte{4}, waitFor(t, chunks))
	assert.Equal(t, []byte{5, 6}, waitFor(t, chunks))
}

func TestSession_WriteDelivers(t *testing.T) {
	client, server := testutil.PipeConn(t)

	s := NewSession()
	require.NoError(t, s.AttachConn(server))
	require.NoError(t, s.OnDataArrived(func([]byte) {}))
	require.NoError(t, s.Start())
	t.Cleanup(s.Close)

	frame := s.Pool().Get(4)
	copy(frame, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	s.Write(frame)

	got := testutil.ReadFull(t, client, 4, constants.TestEventTimeout)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, got)
}

func TestSession_CloseFiresClosingOnce(t *testing.T) {
	_, server := testutil.PipeConn(t)

	var closing atomic.Int32
	s := NewSession()
	require.NoError(t, s.AttachConn(server))
	require.NoError(t, s.OnDataArrived(func([]byte) {}))
	s.OnClosing(func() { closing.Add(1) })
	require.NoError(t, s.Start())

	s.Close()
	s.Close()
	s.Wait()

	assert.Equal(t, int32(1), closing.Load())
	assert.False(t, s.IsActive())

	// запись после закрытия - no-op
	s.Write(s.Pool().Get(2))
}

func TestSession_PeerCloseClosesSession(t *testing.T) {
	client, server := testutil.PipeConn(t)

	closed := make(chan struct{})
	var reported atomic.Int32
	s := NewSession()
	require.NoError(t, s.AttachConn(server))
	require.NoError(t, s.OnDataArrived(func([]byte) {}))
	s.OnError(func(error) { reported.Add(1) })
	s.OnClosing(func() { close(closed) })
	require.NoError(t, s.Start())

	require.NoError(t, client.Close())

	waitFor(t, closed)
	s.Wait()
	assert.Equal(t, int32(0), reported.Load(), "EOF is not a fault")
}

func TestSession_ReadFaultReported(t *testing.T) {
	_, server := testutil.PipeConn(t)
	conn := testutil.NewFaultConn(server)

	errs := make(chan error, 4)
	closed := make(chan struct{})
	s := NewSession()
	require.NoError(t, s.AttachConn(conn))
	require.NoError(t, s.OnDataArrived(func([]byte) {}))
	s.OnError(func(err error) { errs <- err })
	s.OnClosing(func() { close(closed) })
	require.NoError(t, s.Start())

	conn.Fail(testutil.ErrSimulated)

	err := waitFor(t, errs)
	assert.ErrorIs(t, err, ErrSocketFault)
	assert.ErrorIs(t, err, testutil.ErrSimulated)
	waitFor(t, closed)
	assert.False(t, s.IsActive())
}

func TestSession_LocalCloseIsNotReported(t *testing.T) {
	_, server := testutil.PipeConn(t)

	var reported atomic.Int32
	s := NewSession()
	require.NoError(t, s.AttachConn(server))
	require.NoError(t, s.OnDataArrived(func([]byte) {}))
	s.OnError(func(error) { reported.Add(1) })
	require.NoError(t, s.Start())

	s.Close()
	s.Wait()
	assert.Equal(t, int32(0), reported.Load())
}

func TestSession_SendQueueFullClosesSlowPeer(t *testing.T) {
	_, server := testutil.PipeConn(t) // пир никогда не читает

	errs := make(chan error, 16)
	s := NewSession(WithSendQueueSize(1), WithWriteTimeout(0))
	require.NoError(t, s.AttachConn(server))
	require.NoError(t, s.OnDataArrived(func([]byte) {}))
	s.OnError(func(err error) { errs <- err })
	require.NoError(t, s.Start())

	for range 8 {
		s.Write(s.Pool().Get(16))
	}

	err := waitFor(t, errs)
	assert.True(t, errors.Is(err, ErrSendQueueFull), "got %v", err)
	assert.False(t, s.IsActive())
	s.Wait()
}
