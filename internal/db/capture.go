package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Direction - направление захваченного пакета.
type Direction int16

const (
	Inbound  Direction = 1
	Outbound Direction = 2
)

// Capture - один захваченный пакет. IV - значение IV направления до
// обработки пакета, поэтому заголовок можно разобрать повторно через
// crypto.GetVersion.
type Capture struct {
	ID         int64
	SessionID  string
	Direction  Direction
	IV         []byte
	Header     []byte
	PayloadLen int
	Payload    []byte // nil, если тело не сохраняется
	CapturedAt time.Time
}

// CaptureStore пишет захваченный трафик в PostgreSQL.
type CaptureStore struct {
	pool        *pgxpool.Pool
	keepPayload bool
}

// NewCaptureStore создаёт store. keepPayload включает сохранение тел пакетов.
func NewCaptureStore(pool *pgxpool.Pool, keepPayload bool) *CaptureStore {
	return &CaptureStore{pool: pool, keepPayload: keepPayload}
}

// Record сохраняет один пакет.
func (s *CaptureStore) Record(ctx context.Context, c Capture) error {
	var payload []byte
	if s.keepPayload {
		payload = c.Payload
	}
	capturedAt := c.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO packet_captures (session_id, direction, iv, header, payload_len, payload, captured_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.SessionID, int16(c.Direction), c.IV, c.Header, c.PayloadLen, payload, capturedAt,
	)
	if err != nil {
		return fmt.Errorf("recording capture for session %s: %w", c.SessionID, err)
	}
	return nil
}

// ListBySession возвращает до limit записей сессии в порядке захвата.
func (s *CaptureStore) ListBySession(ctx context.Context, sessionID string, limit int) ([]Capture, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, direction, iv, header, payload_len, payload, captured_at
		 FROM packet_captures WHERE session_id = $1 ORDER BY id LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying captures for session %s: %w", sessionID, err)
	}

	captures, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Capture, error) {
		var c Capture
		var dir int16
		err := row.Scan(&c.ID, &c.SessionID, &dir, &c.IV, &c.Header, &c.PayloadLen, &c.Payload, &c.CapturedAt)
		c.Direction = Direction(dir)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning captures for session %s: %w", sessionID, err)
	}
	return captures, nil
}
