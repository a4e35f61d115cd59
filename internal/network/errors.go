package network

import "errors"

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidState      = errors.New("invalid state")
	ErrNoSubscriber      = errors.New("no subscriber registered")
	ErrHandlerAlreadySet = errors.New("handler already registered")

	// ErrProtocolViolation - заголовок входящего пакета не прошёл проверку версии.
	// Соединение закрывается, ресинхронизация не выполняется.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrSocketFault оборачивает ошибку ОС, не вызванную локальным закрытием.
	ErrSocketFault = errors.New("socket fault")

	// ErrSendQueueFull - клиент не успевает читать, очередь отправки переполнена.
	ErrSendQueueFull = errors.New("send queue full")
)
