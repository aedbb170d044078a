package chat_errors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAlreadyExists      = errors.New("already exists")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Messaging errors
var (
	ErrInvalidIdentity  = errors.New("invalid participant identity")
	ErrSelfConversation = errors.New("cannot open a conversation with yourself")
	ErrEmptyMessage     = errors.New("message needs text or an attachment")
	ErrBlocked          = errors.New("conversation is blocked")
	ErrNoConversation   = errors.New("no open conversation")
	ErrSessionClosed    = errors.New("session is closed")
)

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
