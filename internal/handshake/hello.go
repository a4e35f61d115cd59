// Package handshake реализует открытый (незашифрованный) hello-кадр,
// которым сервер сообщает клиенту версию и начальные IV.
package handshake

import (
	"errors"
	"fmt"

	"github.com/udisondev/msgo/internal/constants"
	"github.com/udisondev/msgo/internal/packet"
)

var ErrMalformedHello = errors.New("malformed hello frame")

// Hello - первый кадр соединения.
//
//	[uint16 LE length][uint16 version][lenstring patch][clientIV 4][serverIV 4][locale 1]
type Hello struct {
	Version       uint16
	PatchLocation string
	ClientIV      [constants.IVSize]byte
	ServerIV      [constants.IVSize]byte
	LocaleID      byte
}

// Marshal возвращает полный кадр вместе с префиксом длины.
func (h Hello) Marshal() []byte {
	bodyLen := constants.HelloFixedSize + len(h.PatchLocation)

	w := packet.NewWriter(constants.HelloLengthPrefixSize + bodyLen)
	w.WriteUShort(uint16(bodyLen))
	w.WriteUShort(h.Version)
	w.WriteLengthString(h.PatchLocation)
	w.WriteBytes(h.ClientIV[:])
	w.WriteBytes(h.ServerIV[:])
	_ = w.WriteByte(h.LocaleID)
	return w.Bytes()
}

// Parse разбирает кадр, полученный через Marshal.
func Parse(frame []byte) (Hello, error) {
	var h Hello
	r := packet.NewReader(frame)

	bodyLen, err := r.ReadUShort()
	if err != nil {
		return h, fmt.Errorf("%w: %w", ErrMalformedHello, err)
	}
	if int(bodyLen) != r.Remaining() {
		return h, fmt.Errorf("%w: length %d, body %d bytes", ErrMalformedHello, bodyLen, r.Remaining())
	}

	if h.Version, err = r.ReadUShort(); err != nil {
		return h, fmt.Errorf("%w: version: %w", ErrMalformedHello, err)
	}
	if h.PatchLocation, err = r.ReadLengthString(); err != nil {
		return h, fmt.Errorf("%w: patch location: %w", ErrMalformedHello, err)
	}

	iv, err := r.ReadBytes(constants.IVSize)
	if err != nil {
		return h, fmt.Errorf("%w: client iv: %w", ErrMalformedHello, err)
	}
	copy(h.ClientIV[:], iv)

	if iv, err = r.ReadBytes(constants.IVSize); err != nil {
		return h, fmt.Errorf("%w: server iv: %w", ErrMalformedHello, err)
	}
	copy(h.ServerIV[:], iv)

	if h.LocaleID, err = r.ReadByte(); err != nil {
		return h, fmt.Errorf("%w: locale: %w", ErrMalformedHello, err)
	}
	return h, nil
}

// FrameLength возвращает полную длину кадра по первым двум байтам.
// Клиент читает префикс, затем остаток кадра.
func FrameLength(prefix []byte) (int, error) {
	r := packet.NewReader(prefix)
	n, err := r.ReadUShort()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedHello, err)
	}
	return constants.HelloLengthPrefixSize + int(n), nil
}
