package network

import "net"

// receiveDescriptor читает сокет чанками и синхронно отдаёт их единственному
// обработчику. Следующее чтение начинается только после возврата обработчика,
// поэтому порядок чанков сохраняется.
type receiveDescriptor struct {
	container descriptorContainer
	conn      net.Conn
	bufSize   int
	onData    func([]byte)
	errs      *errorHandlers
	done      chan struct{}
}

func newReceiveDescriptor(c descriptorContainer, conn net.Conn, bufSize int, onData func([]byte), errs *errorHandlers) *receiveDescriptor {
	return &receiveDescriptor{
		container: c,
		conn:      conn,
		bufSize:   bufSize,
		onData:    onData,
		errs:      errs,
		done:      make(chan struct{}),
	}
}

// readLoop владеет буфером чтения: чанк валиден только до возврата onData.
func (d *receiveDescriptor) readLoop() {
	defer close(d.done)

	buf := make([]byte, d.bufSize)
	for {
		n, err := d.conn.Read(buf)
		if n > 0 {
			d.onData(buf[:n])
		}
		if err != nil {
			handleSocketError(d.container, d.errs, "receive", err)
			return
		}
		if !d.container.IsActive() {
			return
		}
	}
}
