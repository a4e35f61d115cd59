package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFramePool_GetLength(t *testing.T) {
	p := NewFramePool(16, 64)

	for _, size := range []int{0, 4, 16, 17, 64, 65, 4096} {
		frame := p.Get(size)
		assert.Len(t, frame, size)
		p.Put(frame)
	}
	p.Put(nil)
}

func TestFramePool_MaxRetainNotBelowFrameCap(t *testing.T) {
	assert.Equal(t, 512, NewFramePool(512, 0).MaxRetain())
	assert.Equal(t, 4096, NewFramePool(512, 4096).MaxRetain())
}

func TestFramePool_OversizedFrameIsNotRetained(t *testing.T) {
	p := NewFramePool(8, 32)

	big := p.Get(1024)
	assert.Equal(t, 1024, cap(big))
	p.Put(big)

	// пул не должен вернуть крупный буфер под маленький кадр
	for range 16 {
		frame := p.Get(8)
		assert.LessOrEqual(t, cap(frame), p.MaxRetain())
	}
}
