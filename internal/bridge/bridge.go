// Package bridge связывает сессии с игровой логикой через NATS.
//
// Сервер публикует расшифрованные пакеты в <prefix>.inbound.<id>
// и шифрует всё, что приходит в <prefix>.outbound.<id>.
package bridge

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// DefaultPrefix - префикс субъектов по умолчанию.
const DefaultPrefix = "msgo"

// Event - событие жизненного цикла сессии.
type Event string

const (
	EventOpened Event = "opened"
	EventClosed Event = "closed"
)

// ErrNilHandler возвращается SubscribeOutbound без обработчика.
var ErrNilHandler = errors.New("nil outbound handler")

// Bridge публикует пакеты и события сессий.
type Bridge struct {
	nc     *nats.Conn
	prefix string
}

// New создаёт мост поверх установленного соединения NATS.
func New(nc *nats.Conn, prefix string) *Bridge {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Bridge{nc: nc, prefix: prefix}
}

// InboundSubject - субъект входящих пакетов сессии.
func (b *Bridge) InboundSubject(sessionID string) string {
	return fmt.Sprintf("%s.inbound.%s", b.prefix, sessionID)
}

// OutboundSubject - субъект исходящих пакетов сессии.
func (b *Bridge) OutboundSubject(sessionID string) string {
	return fmt.Sprintf("%s.outbound.%s", b.prefix, sessionID)
}

// LifecycleSubject - субъект событий.
func (b *Bridge) LifecycleSubject(event Event) string {
	return fmt.Sprintf("%s.session.%s", b.prefix, event)
}

// PublishPacket отправляет расшифрованный пакет игровой логике.
func (b *Bridge) PublishPacket(sessionID string, packet []byte) error {
	if err := b.nc.Publish(b.InboundSubject(sessionID), packet); err != nil {
		return fmt.Errorf("publish packet for %s: %w", sessionID, err)
	}
	return nil
}

// SubscribeOutbound подписывает fn на исходящие пакеты сессии.
// Возвращённая функция снимает подписку.
func (b *Bridge) SubscribeOutbound(sessionID string, fn func([]byte)) (func(), error) {
	if fn == nil {
		return nil, ErrNilHandler
	}

	subject := b.OutboundSubject(sessionID)
	sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		fn(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			slog.Warn("unsubscribe outbound", "subject", subject, "error", err)
		}
	}, nil
}

// PublishLifecycle публикует событие; тело - идентификатор сессии.
func (b *Bridge) PublishLifecycle(event Event, sessionID string) error {
	if err := b.nc.Publish(b.LifecycleSubject(event), []byte(sessionID)); err != nil {
		return fmt.Errorf("publish %s for %s: %w", event, sessionID, err)
	}
	return nil
}

// Flush дожидается подтверждения сервером всех публикаций.
func (b *Bridge) Flush() error {
	return b.nc.Flush()
}
