package handshake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHello_MarshalLayout(t *testing.T) {
	h := Hello{
		Version:       83,
		PatchLocation: "1",
		ClientIV:      [4]byte{0x46, 0x72, 0x7A, 0x21},
		ServerIV:      [4]byte{0x52, 0x30, 0x78, 0x61},
		LocaleID:      8,
	}

	want := []byte{
		0x0E, 0x00, // 13 + len("1")
		0x53, 0x00, // version 83
		0x01, 0x00, '1',
		0x46, 0x72, 0x7A, 0x21,
		0x52, 0x30, 0x78, 0x61,
		0x08,
	}
	assert.Equal(t, want, h.Marshal())

	n, err := FrameLength(want[:2])
	require.NoError(t, err)
	assert.Equal(t, len(want), n)
}

func TestHello_Parse(t *testing.T) {
	h := Hello{
		Version:       95,
		PatchLocation: "patch-2",
		ClientIV:      [4]byte{1, 2, 3, 4},
		ServerIV:      [4]byte{5, 6, 7, 8},
		LocaleID:      6,
	}

	got, err := Parse(h.Marshal())
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestHello_ParseMalformed(t *testing.T) {
	frame := Hello{Version: 1, PatchLocation: "x"}.Marshal()

	tests := []struct {
		name  string
		frame []byte
	}{
		{name: "empty", frame: nil},
		{name: "truncated", frame: frame[:len(frame)-1]},
		{name: "trailing byte", frame: append(append([]byte{}, frame...), 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.frame)
			require.ErrorIs(t, err, ErrMalformedHello)
		})
	}
}
