package network

import (
	"time"

	"github.com/udisondev/msgo/internal/buffer"
	"github.com/udisondev/msgo/internal/constants"
)

type options struct {
	receiveBufferSize int
	sendQueueSize     int
	writeTimeout      time.Duration
	pool              *buffer.FramePool
	frameTap          func(Frame)
}

func defaultOptions() options {
	return options{
		receiveBufferSize: constants.DefaultReceiveBufferSize,
		sendQueueSize:     constants.DefaultSendQueueSize,
		writeTimeout:      constants.DefaultWriteTimeout,
	}
}

// Option настраивает Session.
type Option func(*options)

// WithReceiveBufferSize задаёт размер чанка чтения из сокета.
func WithReceiveBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.receiveBufferSize = n
		}
	}
}

// WithSendQueueSize задаёт ёмкость очереди исходящих кадров.
func WithSendQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.sendQueueSize = n
		}
	}
}

// WithWriteTimeout задаёт deadline одной записи в сокет. 0 отключает deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.writeTimeout = d
		}
	}
}

// WithFramePool задаёт общий пул для исходящих кадров.
func WithFramePool(p *buffer.FramePool) Option {
	return func(o *options) {
		if p != nil {
			o.pool = p
		}
	}
}

// WithFrameTap подписывает fn на каждый кадр EncryptedSession в обоих
// направлениях. fn вызывается под блокировкой сессии и не должна блокироваться;
// Frame.Payload только для чтения.
func WithFrameTap(fn func(Frame)) Option {
	return func(o *options) {
		o.frameTap = fn
	}
}
