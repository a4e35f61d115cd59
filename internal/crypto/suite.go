package crypto

import "fmt"

// CipherKind выбирает алгоритм пакетного шифрования.
type CipherKind string

const (
	CipherAES   CipherKind = "aes"
	CipherTable CipherKind = "table"
)

// Suite - параметры шифрования, общие для всех сессий сервера.
type Suite struct {
	Kind   CipherKind
	Table  []byte
	Vector []byte
	Key    []byte // только для CipherAES
}

// Encryptor строит алгоритм для исходящего направления.
func (s Suite) Encryptor() (Algorithm, error) {
	return s.build(false)
}

// Decryptor строит алгоритм для входящего направления.
// Для AES совпадает с Encryptor.
func (s Suite) Decryptor() (Algorithm, error) {
	return s.build(true)
}

func (s Suite) build(decrypt bool) (Algorithm, error) {
	switch s.Kind {
	case CipherAES:
		return NewAESCipher(s.Table, s.Vector, s.Key)
	case CipherTable:
		if decrypt {
			return NewTableDecryptor(s.Table, s.Vector)
		}
		return NewTableEncryptor(s.Table, s.Vector)
	default:
		return nil, fmt.Errorf("cipher %q: %w", s.Kind, ErrUnknownCipher)
	}
}
