package network

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/udisondev/msgo/internal/constants"
)

// Acceptor слушает TCP-порт и отдаёт каждое принятое соединение потребителю.
// После ошибки accept уведомляет подписчиков и останавливается; повторных
// попыток нет. Stop освобождает порт, Start можно вызвать снова.
type Acceptor struct {
	host string
	port int

	mu         sync.Mutex
	ln         net.Listener
	done       chan struct{}
	onAccepted func(net.Conn)

	errs errorHandlers
}

// NewAcceptor создаёт acceptor для host:port. Пустой host - все интерфейсы.
func NewAcceptor(host string, port int) *Acceptor {
	return &Acceptor{host: host, port: port}
}

// OnAccepted регистрирует потребителя принятых соединений.
func (a *Acceptor) OnAccepted(fn func(net.Conn)) {
	a.mu.Lock()
	a.onAccepted = fn
	a.mu.Unlock()
}

// OnError добавляет обработчик ошибок accept.
func (a *Acceptor) OnError(fn func(error)) {
	if fn != nil {
		a.errs.add(fn)
	}
}

// Start открывает сокет с backlog 100 и запускает цикл accept.
func (a *Acceptor) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.onAccepted == nil {
		return fmt.Errorf("start acceptor: %w: %w", ErrInvalidState, ErrNoSubscriber)
	}
	if a.ln != nil {
		return fmt.Errorf("acceptor already listening on %s: %w", a.ln.Addr(), ErrInvalidState)
	}

	ln, err := listenTCP(a.host, a.port, constants.AcceptBacklog)
	if err != nil {
		return fmt.Errorf("listening on %s: %w: %w", net.JoinHostPort(a.host, fmt.Sprint(a.port)), ErrSocketFault, err)
	}

	a.ln = ln
	a.done = make(chan struct{})
	go a.acceptLoop(ln, a.onAccepted, a.done)

	slog.Info("acceptor started", "address", ln.Addr())
	return nil
}

// Stop закрывает сокет и ждёт завершения цикла. Повторный вызов безопасен.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	ln, done := a.ln, a.done
	a.ln, a.done = nil, nil
	a.mu.Unlock()

	if ln == nil {
		return
	}
	_ = ln.Close()
	<-done
}

// Addr возвращает адрес прослушивания или nil, если acceptor остановлен.
func (a *Acceptor) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ln == nil {
		return nil
	}
	return a.ln.Addr()
}

func (a *Acceptor) acceptLoop(ln net.Listener, onAccepted func(net.Conn), done chan struct{}) {
	defer close(done)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Error("accept failed, stopping acceptor", "error", err)
			a.errs.notify(fmt.Errorf("accept: %w: %w", ErrSocketFault, err))
			a.detach(ln)
			return
		}

		onAccepted(conn)
	}
}

// detach закрывает сокет, если он всё ещё текущий. Не ждёт цикл.
func (a *Acceptor) detach(ln net.Listener) {
	a.mu.Lock()
	if a.ln == ln {
		a.ln, a.done = nil, nil
	}
	a.mu.Unlock()
	_ = ln.Close()
}
