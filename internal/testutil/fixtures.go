package testutil

import (
	"github.com/udisondev/msgo/internal/constants"
	"github.com/udisondev/msgo/internal/crypto"
)

// Fixtures содержит предварительно сгенерированные тестовые данные
// для избежания дублирования в тестах.
var Fixtures = struct {
	// Таблица перемешивания (256 байт), вектор и AES-ключ
	Table  []byte
	Vector []byte
	Key    []byte

	// Начальные IV соединения
	ClientIV []byte
	ServerIV []byte

	Version uint16
}{
	Table:    deterministicBytes(constants.ShuffleTableSize, 167, 13),
	Vector:   []byte{0xF2, 0x53, 0x50, 0xC6},
	Key:      deterministicBytes(constants.AESKeySize, 7, 3),
	ClientIV: []byte{0x46, 0x72, 0x7A, 0x21},
	ServerIV: []byte{0x52, 0x30, 0x78, 0x61},
	Version:  constants.TestVersion,
}

// Suite возвращает набор шифрования на фикстурах.
func Suite(kind crypto.CipherKind) crypto.Suite {
	return crypto.Suite{
		Kind:   kind,
		Table:  Fixtures.Table,
		Vector: Fixtures.Vector,
		Key:    Fixtures.Key,
	}
}

func deterministicBytes(n int, mul, add byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)*mul + add
	}
	return b
}
