package apperror

import "errors"

var (
	ErrInvalidSize     = errors.New("invalid board size")
	ErrInvalidClue     = errors.New("invalid clue")
	ErrCellImmutable   = errors.New("cell is immutable")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrSessionFull     = errors.New("session is full")
	ErrSessionClosed   = errors.New("session is closed")
	ErrSessionNotFound = errors.New("session not found")
	ErrGameNotStarted  = errors.New("game is not started")

	ErrMalformedMessage = errors.New("malformed message")
)
