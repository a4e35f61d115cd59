// Package registry хранит живые сессии сервера в Redis.
//
// Схема ключей:
//
//	msgo:sess:<id>          hash {remote, server, connected_at}, TTL
//	msgo:sessions:<server>  set идентификаторов сессий сервера
package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL - время жизни записи без Touch.
const DefaultTTL = 300 * time.Second

// ErrNotFound возвращается Get для неизвестной или истёкшей сессии.
var ErrNotFound = errors.New("session not registered")

// Entry - запись о подключённой сессии.
type Entry struct {
	ID          string
	Remote      string
	Server      string
	ConnectedAt time.Time
}

// Registry - реестр сессий одного сервера.
type Registry struct {
	rdb    *redis.Client
	server string
	ttl    time.Duration
}

// New создаёт реестр. ttl <= 0 заменяется на DefaultTTL.
func New(rdb *redis.Client, server string, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{rdb: rdb, server: server, ttl: ttl}
}

func sessionKey(id string) string {
	return "msgo:sess:" + id
}

func (r *Registry) serverKey() string {
	return "msgo:sessions:" + r.server
}

// Register записывает сессию и добавляет её в множество сервера.
func (r *Registry) Register(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("register session: empty id")
	}
	connectedAt := e.ConnectedAt
	if connectedAt.IsZero() {
		connectedAt = time.Now()
	}

	key := sessionKey(e.ID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"remote", e.Remote,
			"server", r.server,
			"connected_at", connectedAt.UnixMilli(),
		)
		pipe.Expire(ctx, key, r.ttl)
		pipe.SAdd(ctx, r.serverKey(), e.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("register session %s: %w", e.ID, err)
	}
	return nil
}

// Touch продлевает TTL записи.
func (r *Registry) Touch(ctx context.Context, id string) error {
	ok, err := r.rdb.Expire(ctx, sessionKey(id), r.ttl).Result()
	if err != nil {
		return fmt.Errorf("touch session %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("touch session %s: %w", id, ErrNotFound)
	}
	return nil
}

// Unregister удаляет запись. Отсутствующая запись не ошибка.
func (r *Registry) Unregister(ctx context.Context, id string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		pipe.SRem(ctx, r.serverKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("unregister session %s: %w", id, err)
	}
	return nil
}

// Get читает запись сессии.
func (r *Registry) Get(ctx context.Context, id string) (Entry, error) {
	fields, err := r.rdb.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("get session %s: %w", id, err)
	}
	if len(fields) == 0 {
		return Entry{}, fmt.Errorf("get session %s: %w", id, ErrNotFound)
	}

	e := Entry{
		ID:     id,
		Remote: fields["remote"],
		Server: fields["server"],
	}
	if ms, err := strconv.ParseInt(fields["connected_at"], 10, 64); err == nil {
		e.ConnectedAt = time.UnixMilli(ms)
	}
	return e, nil
}

// Count возвращает число сессий сервера.
func (r *Registry) Count(ctx context.Context) (int64, error) {
	n, err := r.rdb.SCard(ctx, r.serverKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// Clear удаляет все сессии сервера. Вызывается при старте,
// чтобы убрать записи, оставшиеся от упавшего процесса.
func (r *Registry) Clear(ctx context.Context) error {
	ids, err := r.rdb.SMembers(ctx, r.serverKey()).Result()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, r.serverKey())

	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	return nil
}
