package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_ReadsWhatWriterWrites(t *testing.T) {
	w := NewWriter(32)
	_ = w.WriteByte(0x07)
	w.WriteUShort(0xBEEF)
	w.WriteLengthString("patch")
	w.WriteBytes([]byte{9, 9})

	r := NewReader(w.Bytes())

	b, err := r.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x07), b)

	u, err := r.ReadUShort()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), u)

	s, err := r.ReadLengthString()
	require.NoError(t, err)
	assert.Equal(t, "patch", s)

	rest, err := r.ReadBytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9}, rest)
	assert.Equal(t, 0, r.Remaining())
}

func TestReader_NotEnoughData(t *testing.T) {
	r := NewReader([]byte{0x05, 0x00, 'a'})

	_, err := r.ReadLengthString()
	require.Error(t, err)

	r = NewReader([]byte{1})
	_, err = r.ReadUShort()
	require.Error(t, err)
	_, err = r.ReadBytes(-1)
	require.Error(t, err)
	_, err = r.ReadBytes(2)
	require.Error(t, err)
	assert.Equal(t, 1, r.Remaining(), "failed reads do not advance")

	_, err = r.ReadByte()
	require.NoError(t, err)
	_, err = r.ReadByte()
	require.Error(t, err)
}
