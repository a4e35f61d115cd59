package buffer

import "errors"

var (
	// ErrInvalidCapacity возвращается при отрицательной (или нулевой в конструкторе) ёмкости.
	ErrInvalidCapacity = errors.New("invalid buffer capacity")

	// ErrInvalidArgument возвращается при некорректном окне источника в AppendFill.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrReleased возвращается при любой операции над освобождённым буфером.
	ErrReleased = errors.New("buffer used after release")
)
