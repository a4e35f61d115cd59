package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableCipher_GoldenZeroTable(t *testing.T) {
	tests := []struct {
		name string
		iv   []byte
		in   []byte
		want []byte
	}{
		{name: "single 0xFF", iv: []byte{0, 0, 0, 0}, in: []byte{0xFF}, want: []byte{0xFF}},
		{name: "bit swap", iv: []byte{0, 0, 0, 0}, in: []byte{0x01, 0x80, 0xFF}, want: []byte{0x20, 0x04, 0xFF}},
		// с нулевой таблицей IV не влияет на результат
		{name: "iv ignored", iv: []byte{0xDE, 0xAD, 0xBE, 0xEF}, in: []byte{0x01, 0x80, 0xFF}, want: []byte{0x20, 0x04, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewTableEncryptor(make([]byte, TableSize), make([]byte, IVSize))
			require.NoError(t, err)

			data := bytes.Clone(tt.in)
			require.NoError(t, c.TransformSegment(data, tt.iv, 0, len(data)))
			assert.Equal(t, tt.want, data)
		})
	}
}

func TestTableCipher_DecryptorInvertsEncryptor(t *testing.T) {
	enc, err := NewTableEncryptor(testTable(), testVector)
	require.NoError(t, err)
	dec, err := NewTableDecryptor(testTable(), testVector)
	require.NoError(t, err)

	original := make([]byte, 512)
	for i := range original {
		original[i] = byte(i * 31)
	}
	iv := []byte{0x52, 0x30, 0x78, 0x61}

	data := bytes.Clone(original)
	require.NoError(t, enc.TransformSegment(data, iv, 0, len(data)))
	assert.NotEqual(t, original, data)

	require.NoError(t, dec.TransformSegment(data, iv, 0, len(data)))
	assert.Equal(t, original, data)
}

func TestTableCipher_SegmentOnly(t *testing.T) {
	enc, err := NewTableEncryptor(testTable(), testVector)
	require.NoError(t, err)

	data := []byte{1, 2, 3, 4, 5, 6}
	require.NoError(t, enc.TransformSegment(data, testVector, 2, 4))

	assert.Equal(t, []byte{1, 2}, data[:2])
	assert.Equal(t, []byte{5, 6}, data[4:])
}
