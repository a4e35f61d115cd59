package network

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/udisondev/msgo/internal/buffer"
)

// sendDescriptor - очередь исходящих кадров с одним writePump.
// Запись fire-and-forget: кадры ставятся в очередь под мьютексом и пишутся
// в сокет строго в порядке постановки.
type sendDescriptor struct {
	container    descriptorContainer
	conn         net.Conn
	pool         *buffer.FramePool
	writeTimeout time.Duration
	errs         *errorHandlers

	mu     sync.Mutex
	closed bool
	queue  chan []byte

	closeCh   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

func newSendDescriptor(c descriptorContainer, conn net.Conn, queueSize int, pool *buffer.FramePool, writeTimeout time.Duration, errs *errorHandlers) *sendDescriptor {
	return &sendDescriptor{
		container:    c,
		conn:         conn,
		pool:         pool,
		writeTimeout: writeTimeout,
		errs:         errs,
		queue:        make(chan []byte, queueSize),
		closeCh:      make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// write ставит кадр в очередь.
// OWNERSHIP: забирает frame, writePump вернёт его в pool.
func (d *sendDescriptor) write(frame []byte) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.pool.Put(frame)
		return
	}

	select {
	case d.queue <- frame:
		d.mu.Unlock()
		return
	default:
	}
	d.mu.Unlock()

	d.pool.Put(frame)
	slog.Warn("send queue full, disconnecting slow client", "remote", d.conn.RemoteAddr())
	d.errs.notify(fmt.Errorf("send: %w", ErrSendQueueFull))
	d.container.Close()
}

// close останавливает writePump. Не ждёт его завершения.
func (d *sendDescriptor) close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.closeCh)
	})
}

func (d *sendDescriptor) writePump() {
	defer close(d.done)

	bufs := make(net.Buffers, 0, 64)
	poolBufs := make([][]byte, 0, 64)

	defer func() {
		// Drain remaining frames and return to pool
		for {
			select {
			case frame := <-d.queue:
				d.pool.Put(frame)
			default:
				return
			}
		}
	}()

	for {
		select {
		case frame := <-d.queue:
			if d.writeTimeout > 0 {
				if err := d.conn.SetWriteDeadline(time.Now().Add(d.writeTimeout)); err != nil {
					d.pool.Put(frame)
					handleSocketError(d.container, d.errs, "set write deadline", err)
					return
				}
			}

			queued := len(d.queue)
			if queued == 0 {
				_, err := d.conn.Write(frame)
				d.pool.Put(frame)
				if err != nil {
					handleSocketError(d.container, d.errs, "send", err)
					return
				}
				continue
			}

			// Несколько кадров - одной writev через net.Buffers
			bufs = bufs[:0]
			poolBufs = poolBufs[:0]
			bufs = append(bufs, frame)
			poolBufs = append(poolBufs, frame)
			for range queued {
				f := <-d.queue
				bufs = append(bufs, f)
				poolBufs = append(poolBufs, f)
			}

			_, err := bufs.WriteTo(d.conn)
			for _, b := range poolBufs {
				d.pool.Put(b)
			}
			if err != nil {
				handleSocketError(d.container, d.errs, "batch send", err)
				return
			}

		case <-d.closeCh:
			return
		}
	}
}
