package domain

import "errors"

var (
	ErrInvalidUser        = errors.New("invalid user id")
	ErrUnknownCategory    = errors.New("unknown cooldown category")
	ErrUnknownHistoryKind = errors.New("unknown history kind")
	ErrUnknownDecision    = errors.New("unknown decision")
)
