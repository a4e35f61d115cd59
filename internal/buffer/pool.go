package buffer

import "sync"

// FramePool раздаёт буферы под исходящие кадры (заголовок + тело).
// Send берёт кадр из пула, writePump возвращает его после записи в сокет.
//
// Кадры длиннее maxRetain выделяются напрямую и в пул не попадают, чтобы
// редкий пакет на 64 КиБ не оседал в памяти каждого P.
type FramePool struct {
	frames    sync.Pool
	maxRetain int
}

// NewFramePool создаёт пул кадров ёмкостью frameCap. Буферы ёмкостью
// больше maxRetain не переиспользуются; maxRetain < frameCap поднимается до frameCap.
func NewFramePool(frameCap, maxRetain int) *FramePool {
	p := &FramePool{maxRetain: max(frameCap, maxRetain)}
	p.frames.New = func() any {
		return make([]byte, 0, frameCap)
	}
	return p
}

// Get возвращает кадр длиной size. Содержимое не обнуляется:
// вызывающий перезаписывает кадр целиком (EncryptAndPack, copy).
func (p *FramePool) Get(size int) []byte {
	if size > p.maxRetain {
		return make([]byte, size)
	}

	frame := p.frames.Get().([]byte)
	if cap(frame) < size {
		p.frames.Put(frame)
		return make([]byte, size)
	}
	return frame[:size]
}

// Put возвращает отправленный кадр.
func (p *FramePool) Put(frame []byte) {
	if frame == nil || cap(frame) > p.maxRetain {
		return
	}
	p.frames.Put(frame[:0])
}

// MaxRetain возвращает предельную ёмкость переиспользуемого кадра.
func (p *FramePool) MaxRetain() int {
	return p.maxRetain
}
