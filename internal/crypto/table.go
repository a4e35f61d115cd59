package crypto

import "math/bits"

// TableCipher - табличный побайтовый шифр (KMST). Каждый байт зависит от
// всех предыдущих байт сегмента через состояние step.
type TableCipher struct {
	shuffler
	decrypt bool
}

var _ Algorithm = (*TableCipher)(nil)

// NewTableEncryptor создаёт шифрующее направление.
func NewTableEncryptor(table, vector []byte) (*TableCipher, error) {
	s, err := newShuffler(table, vector)
	if err != nil {
		return nil, err
	}
	return &TableCipher{shuffler: s}, nil
}

// NewTableDecryptor создаёт обратное направление: восстанавливает байт и
// продвигает step тем же открытым байтом, что и шифратор.
func NewTableDecryptor(table, vector []byte) (*TableCipher, error) {
	s, err := newShuffler(table, vector)
	if err != nil {
		return nil, err
	}
	return &TableCipher{shuffler: s, decrypt: true}, nil
}

// TransformSegment implements Algorithm.
func (c *TableCipher) TransformSegment(data, iv []byte, start, end int) error {
	if err := checkSegment(data, iv, start, end); err != nil {
		return err
	}

	var step [IVSize]byte
	copy(step[:], iv)

	for i := start; i < end; i++ {
		var plain byte
		if c.decrypt {
			x := data[i] ^ c.table[step[0]]
			r := ((x >> 1) & 0x55) | ((x << 1) & 0xAA)
			plain = bits.RotateLeft8(r, 4)
			data[i] = plain
		} else {
			plain = data[i]
			r := bits.RotateLeft8(plain, 4)
			x := ((r >> 1) & 0x55) | ((r & 0xD5) << 1)
			data[i] = c.table[step[0]] ^ x
		}

		// step всегда продвигается открытым байтом
		c.step(&step, plain)
	}
	return nil
}
