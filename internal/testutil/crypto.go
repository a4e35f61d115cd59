package testutil

import (
	"testing"

	"github.com/udisondev/msgo/internal/crypto"
)

// PairCrypto создаёт согласованные серверную и клиентскую криптографии на фикстурах.
func PairCrypto(t testing.TB, kind crypto.CipherKind) (server, client *crypto.EndpointCrypto) {
	t.Helper()

	server, err := crypto.NewServerCrypto(Suite(kind), Fixtures.Version, Fixtures.ClientIV, Fixtures.ServerIV)
	if err != nil {
		t.Fatalf("creating server crypto: %v", err)
	}
	client, err = crypto.NewClientCrypto(Suite(kind), Fixtures.Version, Fixtures.ClientIV, Fixtures.ServerIV)
	if err != nil {
		t.Fatalf("creating client crypto: %v", err)
	}
	return server, client
}

// EncodeFrame шифрует payload и возвращает кадр (заголовок + тело).
func EncodeFrame(t testing.TB, ec *crypto.EndpointCrypto, payload []byte) []byte {
	t.Helper()

	frame := make([]byte, crypto.FrameSize(len(payload)))
	if err := ec.EncryptAndPack(frame, payload); err != nil {
		t.Fatalf("encoding frame: %v", err)
	}
	return frame
}
