package buffer

import "fmt"

// BoundedBuffer - буфер фиксированной ёмкости, который заполняется до конца
// и затем извлекается целиком. Используется при сборке заголовка и тела пакета
// из произвольно нарезанных TCP-чанков.
//
// Инвариант: 0 <= free <= capacity. Не потокобезопасен, владелец сериализует доступ.
// Нулевое значение имеет ёмкость 0 и готово к работе после Reset.
type BoundedBuffer struct {
	data     []byte
	free     int
	released bool
}

// NewBoundedBuffer создаёт буфер с заданной ёмкостью.
func NewBoundedBuffer(capacity int) (*BoundedBuffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("new bounded buffer %d: %w", capacity, ErrInvalidCapacity)
	}
	return &BoundedBuffer{
		data: make([]byte, capacity),
		free: capacity,
	}, nil
}

// AppendFill копирует min(FreeSpace, count) байт из src[offset:] и возвращает
// количество скопированных байт.
func (b *BoundedBuffer) AppendFill(src []byte, offset, count int) (int, error) {
	if b.released {
		return 0, ErrReleased
	}
	if src == nil || offset < 0 || count <= 0 || offset+count > len(src) {
		return 0, fmt.Errorf("append fill offset=%d count=%d len=%d: %w", offset, count, len(src), ErrInvalidArgument)
	}

	n := min(b.free, count)
	pos := len(b.data) - b.free
	copy(b.data[pos:pos+n], src[offset:offset+n])
	b.free -= n
	return n, nil
}

// Reset отбрасывает содержимое и переустанавливает ёмкость.
func (b *BoundedBuffer) Reset(capacity int) error {
	if b.released {
		return ErrReleased
	}
	if capacity < 0 {
		return fmt.Errorf("reset bounded buffer %d: %w", capacity, ErrInvalidCapacity)
	}

	if cap(b.data) >= capacity {
		b.data = b.data[:capacity]
	} else {
		b.data = make([]byte, capacity)
	}
	b.free = capacity
	return nil
}

// ExtractAndReset возвращает копию записанных байт и переустанавливает буфер
// на новую ёмкость. Единственный путь чтения.
func (b *BoundedBuffer) ExtractAndReset(capacity int) ([]byte, error) {
	if b.released {
		return nil, ErrReleased
	}
	if capacity < 0 {
		return nil, fmt.Errorf("extract and reset %d: %w", capacity, ErrInvalidCapacity)
	}

	written := len(b.data) - b.free
	out := make([]byte, written)
	copy(out, b.data[:written])

	if err := b.Reset(capacity); err != nil {
		return nil, err
	}
	return out, nil
}

// FreeSpace возвращает число байт, которое ещё можно записать.
func (b *BoundedBuffer) FreeSpace() (int, error) {
	if b.released {
		return 0, ErrReleased
	}
	return b.free, nil
}

// Capacity возвращает текущую ёмкость.
func (b *BoundedBuffer) Capacity() (int, error) {
	if b.released {
		return 0, ErrReleased
	}
	return len(b.data), nil
}

// Release освобождает память. Повторный вызов безопасен.
func (b *BoundedBuffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.data = nil
	b.free = 0
}
