package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/msgo/internal/buffer"
	"github.com/udisondev/msgo/internal/config"
	"github.com/udisondev/msgo/internal/constants"
	"github.com/udisondev/msgo/internal/crypto"
	"github.com/udisondev/msgo/internal/db"
	"github.com/udisondev/msgo/internal/network"
)

// ErrServerClosed возвращается Run после Close.
var ErrServerClosed = errors.New("server closed")

const (
	captureQueueSize = 1024
	registryTimeout  = 3 * time.Second
)

// Server принимает клиентские соединения, выдаёт каждому свежие IV,
// отправляет hello и переводит соединение на зашифрованный обмен.
// Registry, bridge и capture необязательны (nil).
type Server struct {
	cfg   config.GameServer
	suite crypto.Suite

	registry SessionRegistry
	bridge   PacketBridge
	capture  CaptureRecorder

	pool     *buffer.FramePool
	acceptor *network.Acceptor
	captures chan db.Capture

	handshakes sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*clientSession
	cancel   context.CancelFunc
	closed   bool
}

// NewServer creates a new game server. Cipher parameters are validated here
// so a bad config fails before the port is opened.
func NewServer(cfg config.GameServer, reg SessionRegistry, br PacketBridge, rec CaptureRecorder) (*Server, error) {
	suite, err := cfg.Cipher.Suite()
	if err != nil {
		return nil, fmt.Errorf("cipher config: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		suite:    suite,
		registry: reg,
		bridge:   br,
		capture:  rec,
		pool:     buffer.NewFramePool(constants.DefaultFrameBufSize, constants.MaxPooledFrameSize),
		acceptor: network.NewAcceptor(cfg.BindAddress, cfg.Port),
		sessions: make(map[string]*clientSession),
	}
	if rec != nil {
		s.captures = make(chan db.Capture, captureQueueSize)
	}
	return s, nil
}

// Addr returns the address the server is listening on.
// Returns nil if the server hasn't started yet.
func (s *Server) Addr() net.Addr {
	return s.acceptor.Addr()
}

// SessionCount возвращает число открытых сессий.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run открывает порт и обслуживает соединения до отмены ctx, вызова Close
// или сбоя accept. При выходе все сессии закрыты.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	faults := make(chan error, 1)
	s.acceptor.OnAccepted(func(conn net.Conn) {
		s.handshakes.Go(func() {
			s.handleConnection(conn)
		})
	})
	s.acceptor.OnError(func(err error) {
		select {
		case faults <- err:
		default:
		}
	})

	if err := s.acceptor.Start(); err != nil {
		return fmt.Errorf("starting acceptor: %w", err)
	}
	slog.Info("game server started", "address", s.acceptor.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case err := <-faults:
			return fmt.Errorf("accepting connections: %w", err)
		}
	})
	if s.registry != nil && s.cfg.Redis.Keepalive > 0 {
		g.Go(func() error {
			s.keepaliveLoop(gctx, s.cfg.Redis.Keepalive)
			return nil
		})
	}
	if s.captures != nil {
		g.Go(func() error {
			s.captureLoop(gctx)
			return nil
		})
	}

	err := g.Wait()
	s.shutdown()
	slog.Info("game server stopped", "address", s.cfg.BindAddress, "port", s.cfg.Port)
	return err
}

// Close останавливает приём соединений и закрывает все сессии.
func (s *Server) Close() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.shutdown()
	return nil
}

func (s *Server) shutdown() {
	s.acceptor.Stop()
	s.handshakes.Wait()

	s.mu.Lock()
	s.closed = true
	open := make([]*clientSession, 0, len(s.sessions))
	for _, cs := range s.sessions {
		open = append(open, cs)
	}
	s.mu.Unlock()

	// OnClosing берёт s.mu, поэтому закрываем вне блокировки
	for _, cs := range open {
		cs.es.Close()
	}
	for _, cs := range open {
		cs.es.Wait()
	}
}

func (s *Server) keepaliveLoop(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range s.sessionIDs() {
				tctx, cancel := context.WithTimeout(ctx, registryTimeout)
				if err := s.registry.Touch(tctx, id); err != nil {
					slog.Warn("touch session", "session", id, "error", err)
				}
				cancel()
			}
		}
	}
}

func (s *Server) sessionIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

func randomIV() ([]byte, error) {
	iv := make([]byte, crypto.IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("generating iv: %w", err)
	}
	return iv, nil
}

func newSessionID() string {
	return uuid.NewString()
}
