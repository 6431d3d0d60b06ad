package broadcast

import (
	"errors"
	"unicode/utf8"
)

// Validation constants
const (
	MaxUsernameLength = 50
	MaxRoomNameLength = 100
	MaxMessageLength  = 5000
)

// Validation errors
var (
	ErrUsernameEmpty   = errors.New("username cannot be empty")
	ErrUsernameTooLong = errors.New("username exceeds maximum length")
	ErrUsernameInvalid = errors.New("username contains invalid characters")
	ErrRoomNameEmpty   = errors.New("room name cannot be empty")
	ErrRoomNameTooLong = errors.New("room name exceeds maximum length")
	ErrRoomNameInvalid = errors.New("room name contains invalid characters")
	ErrMessageEmpty    = errors.New("message text cannot be empty")
	ErrMessageTooLong  = errors.New("message exceeds maximum length")
	ErrMessageInvalid  = errors.New("message contains invalid characters")
)

// ValidateUsername validates a username.
func ValidateUsername(username string) error {
	if username == "" {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	if !utf8.ValidString(username) {
		return ErrUsernameInvalid
	}
	return nil
}

// ValidateRoomName validates a room name.
func ValidateRoomName(name string) error {
	if name == "" {
		return ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLength {
		return ErrRoomNameTooLong
	}
	if !utf8.ValidString(name) {
		return ErrRoomNameInvalid
	}
	return nil
}

// ValidateMessage validates message text.
func ValidateMessage(text string) error {
	if text == "" {
		return ErrMessageEmpty
	}
	if len(text) > MaxMessageLength {
		return ErrMessageTooLong
	}
	if !utf8.ValidString(text) {
		return ErrMessageInvalid
	}
	return nil
}
