package crypto

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/udisondev/msgo/internal/constants"
)

const (
	// IVSize - размер rolling IV в байтах.
	IVSize = constants.IVSize
	// TableSize - размер таблицы перемешивания.
	TableSize = constants.ShuffleTableSize
)

// Algorithm - преобразование данных, параметризованное 4-байтовым IV,
// плюс функция эволюции IV. Реализации: TableCipher и AESCipher.
type Algorithm interface {
	// TransformSegment преобразует data[start:end] на месте.
	TransformSegment(data, iv []byte, start, end int) error
	// ShuffleIV возвращает следующий IV. Исходный слайс не изменяется.
	ShuffleIV(iv []byte) ([]byte, error)

	sealed()
}

// shuffler хранит таблицу и начальный вектор перемешивания.
// Копируются при создании и дальше не меняются.
type shuffler struct {
	table  [TableSize]byte
	vector [IVSize]byte
}

func newShuffler(table, vector []byte) (shuffler, error) {
	var s shuffler
	if len(table) != TableSize {
		return s, fmt.Errorf("shuffle table of %d bytes: %w", len(table), ErrInvalidTable)
	}
	if len(vector) != IVSize {
		return s, fmt.Errorf("shuffle vector of %d bytes: %w", len(vector), ErrInvalidIV)
	}
	copy(s.table[:], table)
	copy(s.vector[:], vector)
	return s, nil
}

func (s *shuffler) sealed() {}

// ShuffleIV прогоняет шаг перемешивания по каждому байту iv, начиная с копии вектора.
func (s *shuffler) ShuffleIV(iv []byte) ([]byte, error) {
	if len(iv) != IVSize {
		return nil, fmt.Errorf("shuffle iv of %d bytes: %w", len(iv), ErrInvalidIV)
	}

	state := s.vector
	for _, in := range iv {
		s.step(&state, in)
	}
	return state[:], nil
}

// step - один шаг эволюции состояния. Вся арифметика по модулю 256.
func (s *shuffler) step(state *[IVSize]byte, in byte) {
	t := &s.table
	ti := t[in]

	state[0] += t[state[1]] - in
	state[1] -= state[2] ^ ti
	state[2] ^= t[state[3]] + in
	state[3] -= state[0] - ti

	merged := binary.LittleEndian.Uint32(state[:])
	binary.LittleEndian.PutUint32(state[:], bits.RotateLeft32(merged, 3))
}

func checkSegment(data, iv []byte, start, end int) error {
	if len(iv) != IVSize {
		return fmt.Errorf("transform iv of %d bytes: %w", len(iv), ErrInvalidIV)
	}
	if start < 0 || end < start || end > len(data) {
		return fmt.Errorf("segment [%d:%d] of %d bytes: %w", start, end, len(data), ErrInvalidSegment)
	}
	return nil
}
