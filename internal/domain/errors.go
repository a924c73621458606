package domain

import "errors"

var (
	// ErrAlreadyExists is returned when a unique key is already taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidMessage is returned when an inbound message fails validation.
	ErrInvalidMessage = errors.New("invalid message")
)
