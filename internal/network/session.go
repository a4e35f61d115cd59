package network

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/udisondev/msgo/internal/buffer"
	"github.com/udisondev/msgo/internal/constants"
)

// Session - сырое сетевое соединение: один приёмный и один отправляющий
// дескриптор поверх net.Conn. Шифрования не знает.
type Session struct {
	opts options

	mu       sync.Mutex
	conn     net.Conn
	onData   func([]byte)
	closing  []func()
	finished bool

	errs   errorHandlers
	active atomic.Bool

	recv *receiveDescriptor
	send *sendDescriptor
}

var _ descriptorContainer = (*Session)(nil)

// NewSession создаёт сессию без сокета.
func NewSession(opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.pool == nil {
		o.pool = buffer.NewFramePool(constants.DefaultFrameBufSize, constants.MaxPooledFrameSize)
	}
	return &Session{opts: o}
}

// AttachConn привязывает принятое соединение.
func (s *Session) AttachConn(conn net.Conn) error {
	if conn == nil {
		return fmt.Errorf("attach nil conn: %w", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return fmt.Errorf("conn already attached: %w", ErrInvalidState)
	}
	s.conn = conn
	return nil
}

// OnDataArrived регистрирует единственного получателя сырых чанков.
// Чанк валиден только до возврата из fn.
func (s *Session) OnDataArrived(fn func([]byte)) error {
	if fn == nil {
		return fmt.Errorf("nil data handler: %w", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.onData != nil {
		return fmt.Errorf("data handler: %w", ErrHandlerAlreadySet)
	}
	s.onData = fn
	return nil
}

// OnError добавляет обработчик ошибок сокета и протокола.
func (s *Session) OnError(fn func(error)) {
	if fn != nil {
		s.errs.add(fn)
	}
}

// OnClosing добавляет обработчик, вызываемый один раз при закрытии.
func (s *Session) OnClosing(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.closing = append(s.closing, fn)
	s.mu.Unlock()
}

// Start запускает чтение и writePump.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.conn == nil:
		return fmt.Errorf("start without conn: %w", ErrInvalidState)
	case s.finished:
		return fmt.Errorf("start closed session: %w", ErrInvalidState)
	case s.active.Load():
		return fmt.Errorf("session already started: %w", ErrInvalidState)
	case s.onData == nil:
		return fmt.Errorf("start session: %w", ErrNoSubscriber)
	}

	s.send = newSendDescriptor(s, s.conn, s.opts.sendQueueSize, s.opts.pool, s.opts.writeTimeout, &s.errs)
	s.recv = newReceiveDescriptor(s, s.conn, s.opts.receiveBufferSize, s.onData, &s.errs)
	s.active.Store(true)

	go s.send.writePump()
	go s.recv.readLoop()
	return nil
}

// Write ставит готовый кадр в очередь отправки. No-op для неактивной сессии.
// OWNERSHIP: забирает frame (буфер из пула сессии).
func (s *Session) Write(frame []byte) {
	if !s.active.Load() {
		s.opts.pool.Put(frame)
		return
	}
	s.send.write(frame)
}

// Close закрывает сессию. Обработчики OnClosing вызываются до закрытия сокета.
// Повторные вызовы ничего не делают.
func (s *Session) Close() {
	if !s.active.CompareAndSwap(true, false) {
		return
	}

	s.mu.Lock()
	s.finished = true
	handlers := s.closing
	s.closing = nil
	conn := s.conn
	send := s.send
	s.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}

	_ = conn.Close()
	send.close()
}

// IsActive сообщает, запущена ли сессия и не закрыта ли она.
func (s *Session) IsActive() bool {
	return s.active.Load()
}

// RemoteAddr возвращает адрес пира или nil без сокета.
func (s *Session) RemoteAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.RemoteAddr()
}

// Pool возвращает пул исходящих кадров.
func (s *Session) Pool() *buffer.FramePool {
	return s.opts.pool
}

// fault сообщает ошибку подписчикам.
func (s *Session) fault(err error) {
	s.errs.notify(err)
}

// Wait блокируется до завершения обеих горутин дескрипторов.
func (s *Session) Wait() {
	s.mu.Lock()
	recv, send := s.recv, s.send
	s.mu.Unlock()

	if recv != nil {
		<-recv.done
	}
	if send != nil {
		<-send.done
	}
}
