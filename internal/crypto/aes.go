package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/udisondev/msgo/internal/constants"
)

const (
	// AESKeySize - размер ключа AES-256.
	AESKeySize = constants.AESKeySize
	// AESBlockLength - длина блока, на которую режется сегмент.
	AESBlockLength = 1460
	// первый блок короче на размер заголовка
	aesFirstBlockLength = AESBlockLength - constants.PacketHeaderSize
)

// AESCipher - OFB-подобный поточный шифр: 4-байтовый IV размножается до 16 байт
// и прогоняется через AES-ECB. Каждый блок стартует с одного и того же IV,
// поэтому преобразование - инволюция.
type AESCipher struct {
	shuffler
	block cipher.Block
}

var _ Algorithm = (*AESCipher)(nil)

// NewAESCipher создаёт AES-преобразование с таблицей и вектором для ShuffleIV.
func NewAESCipher(table, vector, key []byte) (*AESCipher, error) {
	s, err := newShuffler(table, vector)
	if err != nil {
		return nil, err
	}
	if len(key) != AESKeySize {
		return nil, fmt.Errorf("aes key of %d bytes: %w", len(key), ErrInvalidKey)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating aes cipher: %w", err)
	}
	return &AESCipher{shuffler: s, block: block}, nil
}

// TransformSegment implements Algorithm.
func (c *AESCipher) TransformSegment(data, iv []byte, start, end int) error {
	if err := checkSegment(data, iv, start, end); err != nil {
		return err
	}

	var xor [aes.BlockSize]byte

	blockStart := start
	blockEnd := min(blockStart+aesFirstBlockLength, end)
	c.transformBlock(data[blockStart:blockEnd], iv, &xor)

	for blockStart += aesFirstBlockLength; blockStart < end; blockStart += AESBlockLength {
		blockEnd = min(blockStart+AESBlockLength, end)
		c.transformBlock(data[blockStart:blockEnd], iv, &xor)
	}
	return nil
}

func (c *AESCipher) transformBlock(block, iv []byte, xor *[aes.BlockSize]byte) {
	for i := 0; i < aes.BlockSize; i += IVSize {
		copy(xor[i:], iv)
	}

	for i := range block {
		k := i % aes.BlockSize
		if k == 0 {
			c.block.Encrypt(xor[:], xor[:])
		}
		block[i] ^= xor[k]
	}
}
