// Package auth issues and verifies bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/golang-jwt/jwt/v4"
)

const (
	UserTokenTTL = 24 * time.Hour
	TVTokenTTL   = 12 * time.Hour
)

var ErrEmptySecret = errors.New("jwt secret cannot be empty")

// Claims is the token body for both user and tv tokens.
type Claims struct {
	Type     core.PrincipalKind `json:"type"`
	UserID   string             `json:"userId,omitempty"`
	Email    string             `json:"email,omitempty"`
	Name     string             `json:"name,omitempty"`
	CanHost  bool               `json:"canHost,omitempty"`
	RoomCode string             `json:"roomCode,omitempty"`
	jwt.RegisteredClaims
}

// Tokens signs HS256 tokens with a shared secret.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret string) (*Tokens, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Tokens{secret: []byte(secret), now: time.Now}, nil
}

func (t *Tokens) IssueUser(u *domain.User) (string, error) {
	return t.sign(Claims{
		Type:    core.PrincipalUser,
		UserID:  u.ID,
		Email:   u.Email,
		Name:    u.Name,
		CanHost: u.CanHost,
	}, UserTokenTTL)
}

func (t *Tokens) IssueTV(code domain.RoomCode) (string, error) {
	return t.sign(Claims{Type: core.PrincipalTV, RoomCode: string(code)}, TVTokenTTL)
}

func (t *Tokens) sign(c Claims, ttl time.Duration) (string, error) {
	now := t.now()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return s, nil
}

// Verify checks signature and expiry and returns the token's principal.
func (t *Tokens) Verify(token string) (*core.Principal, error) {
	var c Claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	switch c.Type {
	case core.PrincipalUser:
		if c.UserID == "" {
			return nil, domain.ErrInvalidToken
		}
		return &core.Principal{
			Kind:    core.PrincipalUser,
			UserID:  c.UserID,
			Email:   c.Email,
			Name:    c.Name,
			CanHost: c.CanHost,
		}, nil
	case core.PrincipalTV:
		if c.RoomCode == "" {
			return nil, domain.ErrInvalidToken
		}
		return &core.Principal{Kind: core.PrincipalTV, RoomCode: domain.NormalizeCode(c.RoomCode)}, nil
	}
	return nil, domain.ErrInvalidToken
}
