package crypto

import "fmt"

// EndpointCrypto держит два независимых RollingIV: для входящих и исходящих
// пакетов. Направления никогда не делят IV.
type EndpointCrypto struct {
	encryptor *RollingIV
	decryptor *RollingIV
}

// NewServerCrypto создаёт криптографию серверной стороны:
// входящие расшифровываются clientIV с маской version,
// исходящие шифруются serverIV с маской 0xFFFF-version.
func NewServerCrypto(s Suite, version uint16, clientIV, serverIV []byte) (*EndpointCrypto, error) {
	return newEndpointCrypto(s, serverIV, 0xFFFF-version, clientIV, version)
}

// NewClientCrypto - зеркальная клиентская сторона.
func NewClientCrypto(s Suite, version uint16, clientIV, serverIV []byte) (*EndpointCrypto, error) {
	return newEndpointCrypto(s, clientIV, version, serverIV, 0xFFFF-version)
}

func newEndpointCrypto(s Suite, encIV []byte, encMask uint16, decIV []byte, decMask uint16) (*EndpointCrypto, error) {
	encAlg, err := s.Encryptor()
	if err != nil {
		return nil, fmt.Errorf("building encryptor: %w", err)
	}
	decAlg, err := s.Decryptor()
	if err != nil {
		return nil, fmt.Errorf("building decryptor: %w", err)
	}

	enc, err := NewRollingIV(encAlg, encIV, encMask)
	if err != nil {
		return nil, fmt.Errorf("encrypt direction: %w", err)
	}
	dec, err := NewRollingIV(decAlg, decIV, decMask)
	if err != nil {
		return nil, fmt.Errorf("decrypt direction: %w", err)
	}

	return &EndpointCrypto{encryptor: enc, decryptor: dec}, nil
}

// FrameSize возвращает размер кадра (заголовок + тело) для payloadLen.
func FrameSize(payloadLen int) int {
	return HeaderSize + payloadLen
}

// EncryptAndPack пишет в dst заголовок и зашифрованную копию payload.
// payload не изменяется. Заголовок строится до сдвига IV.
func (e *EndpointCrypto) EncryptAndPack(dst, payload []byte) error {
	if payload == nil {
		return fmt.Errorf("pack nil payload: %w", ErrInvalidArgument)
	}
	if len(dst) < FrameSize(len(payload)) {
		return fmt.Errorf("frame buffer %d < %d: %w", len(dst), FrameSize(len(payload)), ErrInvalidArgument)
	}

	if err := e.encryptor.WriteHeader(dst, len(payload)); err != nil {
		return err
	}

	body := dst[HeaderSize:FrameSize(len(payload))]
	copy(body, payload)
	return e.encryptor.Transform(body)
}

// Decrypt расшифровывает тело входящего пакета на месте.
func (e *EndpointCrypto) Decrypt(packet []byte) error {
	return e.decryptor.Transform(packet)
}

// TryGetLength проверяет входящий заголовок и возвращает длину тела.
func (e *EndpointCrypto) TryGetLength(header []byte) (int, bool, error) {
	return e.decryptor.TryGetLength(header)
}

// EncryptIV возвращает текущий IV исходящего направления.
func (e *EndpointCrypto) EncryptIV() [IVSize]byte {
	return e.encryptor.IV()
}

// DecryptIV возвращает текущий IV входящего направления.
func (e *EndpointCrypto) DecryptIV() [IVSize]byte {
	return e.decryptor.IV()
}
