//go:build !linux

package network

import (
	"context"
	"net"
	"strconv"
)

// listenTCP на остальных платформах: backlog задаёт ОС.
func listenTCP(host string, port, _ int) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(context.Background(), "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}
