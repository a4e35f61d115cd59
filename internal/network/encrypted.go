package network

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/udisondev/msgo/internal/buffer"
	"github.com/udisondev/msgo/internal/crypto"
)

// Direction - направление кадра.
type Direction uint8

const (
	Inbound Direction = iota + 1
	Outbound
)

// Frame описывает один кадр для WithFrameTap. IV - значение IV направления
// до обработки кадра.
type Frame struct {
	Direction Direction
	IV        [crypto.IVSize]byte
	Header    [crypto.HeaderSize]byte
	Payload   []byte
}

// EncryptedSession собирает зашифрованные пакеты из произвольно нарезанного
// TCP-потока и шифрует исходящие. Поверх Session.
//
// Входящий поток: [заголовок 4 байта][тело length байт]... Заголовок
// проверяется по текущему IV; ошибка проверки фатальна для соединения.
type EncryptedSession struct {
	session *Session
	crypto  *crypto.EndpointCrypto

	handlerMu sync.Mutex
	onPacket  func([]byte)

	// recvMu guards header, packet and released.
	recvMu   sync.Mutex
	header   *buffer.BoundedBuffer
	packet   *buffer.BoundedBuffer
	released bool
	inbound  Frame // заголовок и IV собираемого пакета

	// sendMu держит шифрование и постановку в очередь атомарными,
	// иначе кадры уйдут не в порядке IV.
	sendMu sync.Mutex
}

// NewEncryptedSession создаёт сессию поверх криптографии одного соединения.
func NewEncryptedSession(ec *crypto.EndpointCrypto, opts ...Option) (*EncryptedSession, error) {
	if ec == nil {
		return nil, fmt.Errorf("encrypted session without crypto: %w", ErrInvalidArgument)
	}

	header, err := buffer.NewBoundedBuffer(crypto.HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("allocating header buffer: %w", err)
	}

	es := &EncryptedSession{
		session: NewSession(opts...),
		crypto:  ec,
		header:  header,
		packet:  &buffer.BoundedBuffer{},
	}

	if err := es.session.OnDataArrived(es.handleIncomingData); err != nil {
		return nil, err
	}
	es.session.OnClosing(es.releaseBuffers)
	return es, nil
}

// AttachConn привязывает принятое соединение.
func (es *EncryptedSession) AttachConn(conn net.Conn) error {
	return es.session.AttachConn(conn)
}

// OnPacket регистрирует единственного получателя расшифрованных пакетов.
// Пакеты приходят по порядку; срез принадлежит получателю.
func (es *EncryptedSession) OnPacket(fn func([]byte)) error {
	if fn == nil {
		return fmt.Errorf("nil packet handler: %w", ErrInvalidArgument)
	}

	es.handlerMu.Lock()
	defer es.handlerMu.Unlock()
	if es.onPacket != nil {
		return fmt.Errorf("packet handler: %w", ErrHandlerAlreadySet)
	}
	es.onPacket = fn
	return nil
}

// OnError добавляет обработчик ошибок.
func (es *EncryptedSession) OnError(fn func(error)) {
	es.session.OnError(fn)
}

// OnClosing добавляет обработчик закрытия.
func (es *EncryptedSession) OnClosing(fn func()) {
	es.session.OnClosing(fn)
}

// Start запускает сессию. Требует обработчик пакетов.
func (es *EncryptedSession) Start() error {
	if es.packetHandler() == nil {
		return fmt.Errorf("start encrypted session: %w", ErrNoSubscriber)
	}
	return es.session.Start()
}

// Close закрывает сессию и освобождает буферы сборки.
func (es *EncryptedSession) Close() {
	es.session.Close()
}

// Wait ждёт завершения горутин дескрипторов.
func (es *EncryptedSession) Wait() {
	es.session.Wait()
}

// IsActive сообщает, открыто ли соединение.
func (es *EncryptedSession) IsActive() bool {
	return es.session.IsActive()
}

// RemoteAddr возвращает адрес пира.
func (es *EncryptedSession) RemoteAddr() net.Addr {
	return es.session.RemoteAddr()
}

// Send шифрует payload, добавляет заголовок и ставит кадр в очередь.
// Для неподключённой сессии ничего не делает.
func (es *EncryptedSession) Send(payload []byte) error {
	if payload == nil {
		return fmt.Errorf("send nil payload: %w", ErrInvalidArgument)
	}
	if len(payload) < crypto.MinPacketLength {
		return fmt.Errorf("send %d bytes: %w", len(payload), crypto.ErrLengthOutOfRange)
	}
	if !es.session.IsActive() {
		return nil
	}

	pool := es.session.Pool()

	es.sendMu.Lock()
	defer es.sendMu.Unlock()

	iv := es.crypto.EncryptIV()
	frame := pool.Get(crypto.FrameSize(len(payload)))
	if err := es.crypto.EncryptAndPack(frame, payload); err != nil {
		pool.Put(frame)
		return fmt.Errorf("encrypting packet: %w", err)
	}
	if tap := es.session.opts.frameTap; tap != nil {
		f := Frame{Direction: Outbound, IV: iv, Payload: payload}
		copy(f.Header[:], frame)
		tap(f)
	}
	es.session.Write(frame)
	return nil
}

// SendRaw отправляет кадр как есть (приветствие до начала шифрования).
func (es *EncryptedSession) SendRaw(frame []byte) error {
	if len(frame) == 0 {
		return fmt.Errorf("send empty raw frame: %w", ErrInvalidArgument)
	}
	if !es.session.IsActive() {
		return nil
	}

	pool := es.session.Pool()
	out := pool.Get(len(frame))
	copy(out, frame)

	es.sendMu.Lock()
	es.session.Write(out)
	es.sendMu.Unlock()
	return nil
}

func (es *EncryptedSession) packetHandler() func([]byte) {
	es.handlerMu.Lock()
	defer es.handlerMu.Unlock()
	return es.onPacket
}

// handleIncomingData вызывается приёмным дескриптором для каждого чанка.
// Пакеты отдаются вне блокировки, поэтому обработчик может вызывать Send и Close.
func (es *EncryptedSession) handleIncomingData(chunk []byte) {
	packets, err := es.reassemble(chunk)

	handler := es.packetHandler()
	for _, p := range packets {
		if !es.session.IsActive() {
			return
		}
		handler(p)
	}

	if err != nil {
		slog.Warn("closing session", "remote", es.session.RemoteAddr(), "error", err)
		es.session.fault(err)
		es.session.Close()
	}
}

// reassemble продвигает автомат сборки на один чанк и возвращает
// готовые расшифрованные пакеты в порядке поступления.
func (es *EncryptedSession) reassemble(chunk []byte) ([][]byte, error) {
	es.recvMu.Lock()
	defer es.recvMu.Unlock()

	if es.released {
		return nil, nil
	}

	var out [][]byte
	pos := 0
	for {
		// Дописываем незавершённое тело пакета
		free, err := es.packet.FreeSpace()
		if err != nil {
			return out, err
		}
		if free > 0 {
			if pos == len(chunk) {
				return out, nil
			}
			n, err := es.packet.AppendFill(chunk, pos, len(chunk)-pos)
			if err != nil {
				return out, err
			}
			pos += n
			if n < free {
				return out, nil
			}
		}

		payload, err := es.packet.ExtractAndReset(0)
		if err != nil {
			return out, err
		}
		if len(payload) > 0 {
			if err := es.crypto.Decrypt(payload); err != nil {
				return out, fmt.Errorf("decrypting packet: %w", err)
			}
			if tap := es.session.opts.frameTap; tap != nil {
				f := es.inbound
				f.Payload = payload
				tap(f)
			}
			out = append(out, payload)
		}

		if pos == len(chunk) {
			return out, nil
		}

		// Заголовок может прийти по частям
		n, err := es.header.AppendFill(chunk, pos, len(chunk)-pos)
		if err != nil {
			return out, err
		}
		pos += n
		headerFree, err := es.header.FreeSpace()
		if err != nil {
			return out, err
		}
		if headerFree > 0 {
			return out, nil
		}

		header, err := es.header.ExtractAndReset(crypto.HeaderSize)
		if err != nil {
			return out, err
		}
		length, ok, err := es.crypto.TryGetLength(header)
		if err != nil {
			return out, fmt.Errorf("reading header: %w", err)
		}
		if !ok {
			return out, fmt.Errorf("header %x failed version check: %w", header, ErrProtocolViolation)
		}
		if length < crypto.MinPacketLength {
			return out, fmt.Errorf("header announces %d bytes: %w", length, ErrProtocolViolation)
		}
		if err := es.packet.Reset(length); err != nil {
			return out, err
		}
		es.inbound = Frame{Direction: Inbound, IV: es.crypto.DecryptIV()}
		copy(es.inbound.Header[:], header)
	}
}

func (es *EncryptedSession) releaseBuffers() {
	es.recvMu.Lock()
	defer es.recvMu.Unlock()

	if es.released {
		return
	}
	es.released = true
	es.header.Release()
	es.packet.Release()
}
