// Package domain contains entity without logic, just meta-data
package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxUsernameLen = 36
)

// Participant is a visible member of a room. ID is stable across reconnects.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is a durable account record.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	City         string     `json:"city,omitempty"`
	BirthDate    *time.Time `json:"birthDate,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	CanHost      bool       `json:"canHost"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (u *User) IsComplete() bool { return u.PasswordHash != "" }

// CleanUsername trims a display name and validates its length.
func CleanUsername(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxUsernameLen {
		return "", ErrNameTooLong
	}
	return name, nil
}
