package crypto

import "errors"

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidIV        = errors.New("iv must be 4 bytes")
	ErrInvalidTable     = errors.New("shuffle table must be 256 bytes")
	ErrInvalidKey       = errors.New("aes key must be 32 bytes")
	ErrInvalidSegment   = errors.New("segment out of data bounds")
	ErrLengthOutOfRange = errors.New("packet length out of range")
	ErrHeaderTooShort   = errors.New("header must be at least 4 bytes")
	ErrUnknownCipher    = errors.New("unknown cipher kind")
)
