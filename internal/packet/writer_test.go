package packet

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestWriter_WriteUShort(t *testing.T) {
	w := NewWriter(16)

	w.WriteUShort(0x1234)

	data := w.Bytes()
	if len(data) != 2 {
		t.Fatalf("expected length 2, got %d", len(data))
	}
	if val := binary.LittleEndian.Uint16(data); val != 0x1234 {
		t.Errorf("expected 0x1234, got 0x%04X", val)
	}
}

func TestWriter_WriteLengthString(t *testing.T) {
	w := NewWriter(16)

	w.WriteLengthString("abc")

	want := []byte{0x03, 0x00, 'a', 'b', 'c'}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("got %v, want %v", w.Bytes(), want)
	}
}

func TestWriter_GrowsPastCapacity(t *testing.T) {
	w := NewWriter(1)

	_ = w.WriteByte(0x01)
	w.WriteBytes([]byte{0x02, 0x03, 0x04})

	if want := []byte{1, 2, 3, 4}; !bytes.Equal(w.Bytes(), want) {
		t.Errorf("got %v, want %v", w.Bytes(), want)
	}
}
