package server

import (
	"strings"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/msgo/internal/bridge"
	"github.com/udisondev/msgo/internal/constants"
	"github.com/udisondev/msgo/internal/crypto"
	"github.com/udisondev/msgo/internal/testutil"
)

// Игровая логика на другом конце NATS: отвечает на каждый пакет
// префиксом 0xFF и исходными байтами.
func TestServer_NATSBridgeRoundTrip(t *testing.T) {
	nc, err := nats.Connect(testutil.SetupNATS(t))
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	logic, err := nats.Connect(nc.ConnectedUrl())
	require.NoError(t, err)
	t.Cleanup(logic.Close)

	_, err = logic.Subscribe("e2e.inbound.*", func(msg *nats.Msg) {
		id := strings.TrimPrefix(msg.Subject, "e2e.inbound.")
		_ = logic.Publish("e2e.outbound."+id, append([]byte{0xFF}, msg.Data...))
	})
	require.NoError(t, err)
	events, err := logic.SubscribeSync("e2e.session.*")
	require.NoError(t, err)
	require.NoError(t, logic.Flush())

	srv := startServer(t, testConfig(crypto.CipherAES), nil, bridge.New(nc, "e2e"), nil)

	client, err := testutil.NewClient(t, srv.Addr().String(), testutil.Suite(crypto.CipherAES))
	require.NoError(t, err)

	opened, err := events.NextMsg(constants.TestServerStartupTimeout)
	require.NoError(t, err)
	assert.Equal(t, "e2e.session.opened", opened.Subject)
	id := string(opened.Data)

	require.NoError(t, client.SendPacket([]byte{0x01, 0x02, 0x03}))
	reply, err := client.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0x01, 0x02, 0x03}, reply)

	require.NoError(t, client.Close())
	closed, err := events.NextMsg(constants.TestServerStartupTimeout)
	require.NoError(t, err)
	assert.Equal(t, "e2e.session.closed", closed.Subject)
	assert.Equal(t, id, string(closed.Data))
}
