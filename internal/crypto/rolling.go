package crypto

import (
	"encoding/binary"
	"fmt"

	"github.com/udisondev/msgo/internal/constants"
)

const (
	// HeaderSize - размер заголовка пакета.
	HeaderSize = constants.PacketHeaderSize
	// MinPacketLength - минимальная длина тела пакета.
	MinPacketLength = constants.MinPacketLength
	// MaxPacketLength - максимальная длина, которую можно закодировать в заголовке.
	MaxPacketLength = 0xFFFF
)

// RollingIV связывает алгоритм с IV одного направления и маской версии.
// После каждого Transform IV продвигается через ShuffleIV, поэтому порядок
// пакетов в направлении должен строго соблюдаться. Не потокобезопасен.
type RollingIV struct {
	alg  Algorithm
	iv   [IVSize]byte
	mask uint16
}

// NewRollingIV создаёт состояние направления. versionMask хранится с
// переставленными байтами.
func NewRollingIV(alg Algorithm, initialIV []byte, versionMask uint16) (*RollingIV, error) {
	if alg == nil {
		return nil, fmt.Errorf("rolling iv without algorithm: %w", ErrInvalidArgument)
	}
	if len(initialIV) != IVSize {
		return nil, fmt.Errorf("rolling iv of %d bytes: %w", len(initialIV), ErrInvalidIV)
	}

	r := &RollingIV{
		alg:  alg,
		mask: swap16(versionMask),
	}
	copy(r.iv[:], initialIV)
	return r, nil
}

// Transform преобразует весь слайс текущим IV и продвигает IV.
func (r *RollingIV) Transform(data []byte) error {
	if data == nil {
		return fmt.Errorf("transform nil data: %w", ErrInvalidArgument)
	}

	if err := r.alg.TransformSegment(data, r.iv[:], 0, len(data)); err != nil {
		return fmt.Errorf("transforming %d bytes: %w", len(data), err)
	}

	next, err := r.alg.ShuffleIV(r.iv[:])
	if err != nil {
		return fmt.Errorf("shuffling iv: %w", err)
	}
	copy(r.iv[:], next)
	return nil
}

// ConstructHeader возвращает новый 4-байтовый заголовок для тела длиной length.
func (r *RollingIV) ConstructHeader(length int) ([]byte, error) {
	header := make([]byte, HeaderSize)
	if err := r.WriteHeader(header, length); err != nil {
		return nil, err
	}
	return header, nil
}

// WriteHeader пишет заголовок в dst[:4].
//
//	ev = (iv[2]<<8 | iv[3]) ^ mask
//	el = ev ^ swap16(length)
//
// Оба значения пишутся big-endian.
func (r *RollingIV) WriteHeader(dst []byte, length int) error {
	if length < MinPacketLength || length > MaxPacketLength {
		return fmt.Errorf("header for length %d: %w", length, ErrLengthOutOfRange)
	}
	if len(dst) < HeaderSize {
		return fmt.Errorf("header buffer of %d bytes: %w", len(dst), ErrHeaderTooShort)
	}

	ev := r.ivWord() ^ r.mask
	el := ev ^ swap16(uint16(length))

	binary.BigEndian.PutUint16(dst[0:2], ev)
	binary.BigEndian.PutUint16(dst[2:4], el)
	return nil
}

// ValidateHeader проверяет, что заголовок закодирован текущим IV и маской версии.
func (r *RollingIV) ValidateHeader(header []byte) (bool, error) {
	if len(header) < HeaderSize {
		return false, fmt.Errorf("validating header of %d bytes: %w", len(header), ErrHeaderTooShort)
	}
	return binary.BigEndian.Uint16(header)^r.ivWord() == r.mask, nil
}

// TryGetLength валидирует заголовок и возвращает длину тела.
// ok == false означает нарушение протокола.
func (r *RollingIV) TryGetLength(header []byte) (length int, ok bool, err error) {
	valid, err := r.ValidateHeader(header)
	if err != nil || !valid {
		return 0, false, err
	}
	return decodeLength(header), true, nil
}

// IV возвращает снимок текущего IV.
func (r *RollingIV) IV() [IVSize]byte {
	return r.iv
}

// VersionMask возвращает хранимую (переставленную) маску версии.
func (r *RollingIV) VersionMask() uint16 {
	return r.mask
}

// SwapVersion переставляет байты 16-битной версии.
func SwapVersion(v uint16) uint16 {
	return swap16(v)
}

func (r *RollingIV) ivWord() uint16 {
	return uint16(r.iv[2])<<8 | uint16(r.iv[3])
}

// GetVersion восстанавливает маску версии из заголовка и IV без состояния сессии.
// Результат в том же порядке байт, в котором маска хранится в RollingIV
// (swap16 от значения, переданного в NewRollingIV). Используется диагностикой
// и разбором захваченного трафика.
func GetVersion(header, iv []byte) (uint16, error) {
	if len(header) < HeaderSize {
		return 0, fmt.Errorf("version from header of %d bytes: %w", len(header), ErrHeaderTooShort)
	}
	if len(iv) != IVSize {
		return 0, fmt.Errorf("version with iv of %d bytes: %w", len(iv), ErrInvalidIV)
	}

	return binary.BigEndian.Uint16(header) ^ (uint16(iv[2])<<8 | uint16(iv[3])), nil
}

// GetPacketLength извлекает длину тела без проверки заголовка.
func GetPacketLength(header []byte) (int, error) {
	if len(header) < HeaderSize {
		return 0, fmt.Errorf("length from header of %d bytes: %w", len(header), ErrHeaderTooShort)
	}
	return decodeLength(header), nil
}

func decodeLength(h []byte) int {
	return int(h[1]^h[3])<<8 | int(h[0]^h[2])
}

func swap16(v uint16) uint16 {
	return v>>8 | v<<8
}
