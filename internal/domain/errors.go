package domain

import (
	"errors"
	"strings"
	"time"
)

// Error is a domain failure carrying a machine-readable code.
type Error struct {
	Code string
}

func (e *Error) Error() string { return strings.ReplaceAll(e.Code, "_", " ") }

func newError(code string) *Error { return &Error{Code: code} }

var (
	ErrRoomNotFound     = newError("room_not_found")
	ErrItemNotFound     = newError("not_found")
	ErrMissingVideoID   = newError("missing_videoId")
	ErrMissingItemID    = newError("missing_itemId")
	ErrInvalidDirection = newError("invalid_direction")
	ErrInvalidAction    = newError("invalid_action")
	ErrMissingRename    = newError("missing_userId_or_newName")
	ErrNameEmpty        = newError("empty_name")
	ErrNameTooLong      = newError("name_too_long")
	ErrDuplicateName    = newError("duplicate_name")
	ErrCooldown         = newError("cooldown")
	ErrNothingPlaying   = newError("nothing_playing")
	ErrMissingQuery     = newError("missing_query")
	ErrValidation       = newError("validation_error")

	ErrUnauthorized       = newError("unauthorized")
	ErrForbidden          = newError("forbidden")
	ErrInvalidToken       = newError("invalid_token")
	ErrWrongRoom          = newError("wrong_room")
	ErrInvalidPassword    = newError("invalid_password")
	ErrInvalidCredentials = newError("invalid_credentials")
	ErrNoPassword         = newError("no_password")
	ErrEmailRegistered    = newError("email_registered")
	ErrAlreadyHost        = newError("already_host")
	ErrAlreadyComplete    = newError("already_complete")
	ErrUserNotFound       = newError("user_not_found")
)

// detailed attaches a human readable message to a domain error.
type detailed struct {
	err     *Error
	message string
}

func (d *detailed) Error() string { return d.err.Error() + ": " + d.message }
func (d *detailed) Unwrap() error { return d.err }

func WithMessage(err *Error, message string) error {
	return &detailed{err: err, message: message}
}

// CooldownError reports a finalize rejected inside the cooldown window.
type CooldownError struct {
	Window time.Duration
}

func (e *CooldownError) Error() string { return ErrCooldown.Error() }
func (e *CooldownError) Unwrap() error { return ErrCooldown }

// Code returns the machine-readable code for err, or "internal_error".
func Code(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "internal_error"
}

// Message returns the human readable message attached with WithMessage.
func Message(err error) string {
	var d *detailed
	if errors.As(err, &d) {
		return d.message
	}
	return ""
}
