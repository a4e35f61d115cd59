package server

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/udisondev/msgo/internal/bridge"
	"github.com/udisondev/msgo/internal/crypto"
	"github.com/udisondev/msgo/internal/db"
	"github.com/udisondev/msgo/internal/handshake"
	"github.com/udisondev/msgo/internal/network"
	"github.com/udisondev/msgo/internal/registry"
)

// clientSession - одно клиентское соединение.
type clientSession struct {
	id          string
	remote      string
	es          *network.EncryptedSession
	unsubscribe func()
}

func (s *Server) handleConnection(conn net.Conn) {
	remote := conn.RemoteAddr().String()

	cs, hello, err := s.newClientSession(conn)
	if err != nil {
		slog.Error("failed to set up session", "remote", remote, "error", err)
		_ = conn.Close()
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.sessions[cs.id] = cs
	s.mu.Unlock()

	s.announce(cs)

	if err := cs.es.Start(); err != nil {
		slog.Error("failed to start session", "session", cs.id, "error", err)
		_ = conn.Close()
		s.forget(cs)
		return
	}

	// hello уходит открытым текстом: клиент узнаёт из него IV
	if err := cs.es.SendRaw(hello.Marshal()); err != nil {
		slog.Error("failed to send hello", "session", cs.id, "error", err)
		cs.es.Close()
		return
	}

	slog.Info("new client connection", "session", cs.id, "remote", remote)
}

func (s *Server) newClientSession(conn net.Conn) (*clientSession, handshake.Hello, error) {
	clientIV, err := randomIV()
	if err != nil {
		return nil, handshake.Hello{}, err
	}
	serverIV, err := randomIV()
	if err != nil {
		return nil, handshake.Hello{}, err
	}

	ec, err := crypto.NewServerCrypto(s.suite, s.cfg.Version, clientIV, serverIV)
	if err != nil {
		return nil, handshake.Hello{}, fmt.Errorf("server crypto: %w", err)
	}

	cs := &clientSession{
		id:     newSessionID(),
		remote: conn.RemoteAddr().String(),
	}

	opts := []network.Option{
		network.WithReceiveBufferSize(s.cfg.ReceiveBufferSize),
		network.WithSendQueueSize(s.cfg.SendQueueSize),
		network.WithWriteTimeout(s.cfg.WriteTimeout),
		network.WithFramePool(s.pool),
	}
	if s.captures != nil {
		opts = append(opts, network.WithFrameTap(func(f network.Frame) {
			s.enqueueCapture(cs.id, f)
		}))
	}

	es, err := network.NewEncryptedSession(ec, opts...)
	if err != nil {
		return nil, handshake.Hello{}, err
	}
	if err := es.AttachConn(conn); err != nil {
		return nil, handshake.Hello{}, err
	}
	if err := es.OnPacket(func(p []byte) { s.handlePacket(cs, p) }); err != nil {
		return nil, handshake.Hello{}, err
	}
	es.OnError(func(err error) {
		slog.Warn("session error", "session", cs.id, "error", err)
	})
	es.OnClosing(func() { s.forget(cs) })
	cs.es = es

	hello := handshake.Hello{
		Version:       s.cfg.Version,
		PatchLocation: s.cfg.PatchLocation,
		LocaleID:      s.cfg.LocaleID,
	}
	copy(hello.ClientIV[:], clientIV)
	copy(hello.ServerIV[:], serverIV)
	return cs, hello, nil
}

// announce регистрирует сессию и подписывает её на исходящие пакеты.
// Ошибки внешних систем не рвут соединение.
func (s *Server) announce(cs *clientSession) {
	if s.registry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), registryTimeout)
		err := s.registry.Register(ctx, registry.Entry{ID: cs.id, Remote: cs.remote, ConnectedAt: time.Now()})
		cancel()
		if err != nil {
			slog.Warn("register session", "session", cs.id, "error", err)
		}
	}

	if s.bridge == nil {
		return
	}
	unsubscribe, err := s.bridge.SubscribeOutbound(cs.id, func(p []byte) {
		if err := cs.es.Send(p); err != nil {
			slog.Warn("dropping outbound packet", "session", cs.id, "len", len(p), "error", err)
		}
	})
	if err != nil {
		slog.Warn("subscribe outbound", "session", cs.id, "error", err)
	} else {
		cs.unsubscribe = unsubscribe
	}
	if err := s.bridge.PublishLifecycle(bridge.EventOpened, cs.id); err != nil {
		slog.Warn("publish session opened", "session", cs.id, "error", err)
	}
}

func (s *Server) handlePacket(cs *clientSession, p []byte) {
	if s.bridge == nil {
		slog.Debug("packet dropped, no bridge", "session", cs.id, "len", len(p))
		return
	}
	if err := s.bridge.PublishPacket(cs.id, p); err != nil {
		slog.Warn("publish packet", "session", cs.id, "error", err)
	}
}

// forget вызывается один раз при закрытии сессии.
func (s *Server) forget(cs *clientSession) {
	s.mu.Lock()
	delete(s.sessions, cs.id)
	s.mu.Unlock()

	if cs.unsubscribe != nil {
		cs.unsubscribe()
	}
	if s.registry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), registryTimeout)
		if err := s.registry.Unregister(ctx, cs.id); err != nil {
			slog.Warn("unregister session", "session", cs.id, "error", err)
		}
		cancel()
	}
	if s.bridge != nil {
		if err := s.bridge.PublishLifecycle(bridge.EventClosed, cs.id); err != nil {
			slog.Warn("publish session closed", "session", cs.id, "error", err)
		}
	}

	slog.Info("client disconnected", "session", cs.id, "remote", cs.remote)
}

// enqueueCapture вызывается из tap под блокировкой сессии: не блокируется,
// при переполнении очереди кадр теряется.
func (s *Server) enqueueCapture(sessionID string, f network.Frame) {
	dir := db.Inbound
	if f.Direction == network.Outbound {
		dir = db.Outbound
	}

	c := db.Capture{
		SessionID:  sessionID,
		Direction:  dir,
		IV:         bytes.Clone(f.IV[:]),
		Header:     bytes.Clone(f.Header[:]),
		PayloadLen: len(f.Payload),
		Payload:    bytes.Clone(f.Payload),
		CapturedAt: time.Now(),
	}

	select {
	case s.captures <- c:
	default:
		slog.Debug("capture queue full, frame dropped", "session", sessionID)
	}
}

func (s *Server) captureLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-s.captures:
			if err := s.capture.Record(ctx, c); err != nil {
				slog.Warn("record capture", "session", c.SessionID, "error", err)
			}
		}
	}
}
