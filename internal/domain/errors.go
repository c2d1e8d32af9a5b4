package domain

import "errors"

var (
	ErrInvalidPayload    = errors.New("invalid event payload")
	ErrRoomNotOpen       = errors.New("room is not open")
	ErrDuplicateIdentity = errors.New("identity already connected")
	ErrUnknownConnection = errors.New("connection not registered")
)
