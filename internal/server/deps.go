package server

import (
	"context"

	"github.com/udisondev/msgo/internal/bridge"
	"github.com/udisondev/msgo/internal/db"
	"github.com/udisondev/msgo/internal/registry"
)

// SessionRegistry публикует живые сессии (реализация: registry.Registry).
type SessionRegistry interface {
	Register(ctx context.Context, e registry.Entry) error
	Touch(ctx context.Context, id string) error
	Unregister(ctx context.Context, id string) error
}

// PacketBridge передаёт расшифрованные пакеты игровой логике и получает
// от неё ответы (реализация: bridge.Bridge).
type PacketBridge interface {
	PublishPacket(sessionID string, packet []byte) error
	SubscribeOutbound(sessionID string, fn func([]byte)) (func(), error)
	PublishLifecycle(event bridge.Event, sessionID string) error
}

// CaptureRecorder сохраняет трафик для разбора (реализация: db.CaptureStore).
type CaptureRecorder interface {
	Record(ctx context.Context, c db.Capture) error
}
