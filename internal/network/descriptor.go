package network

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

// descriptorContainer - владелец дескрипторов (сессия).
// Дескриптор закрывает контейнер при ошибке сокета.
type descriptorContainer interface {
	IsActive() bool
	Close()
}

// errorHandlers - fan-out список обработчиков ошибок.
type errorHandlers struct {
	mu   sync.Mutex
	list []func(error)
}

func (h *errorHandlers) add(fn func(error)) {
	h.mu.Lock()
	h.list = append(h.list, fn)
	h.mu.Unlock()
}

func (h *errorHandlers) notify(err error) {
	h.mu.Lock()
	list := h.list
	h.mu.Unlock()

	for _, fn := range list {
		fn(err)
	}
}

// isAbort сообщает, что ошибка вызвана локальным закрытием соединения.
func isAbort(err error, c descriptorContainer) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) || !c.IsActive()
}

// handleSocketError реализует общую политику дескрипторов:
// локальный abort молча игнорируется, EOF закрывает контейнер,
// остальные ошибки уходят подписчикам и закрывают контейнер.
func handleSocketError(c descriptorContainer, errs *errorHandlers, op string, err error) {
	switch {
	case isAbort(err, c):
	case errors.Is(err, io.EOF):
	default:
		errs.notify(fmt.Errorf("%s: %w: %w", op, ErrSocketFault, err))
	}
	c.Close()
}
