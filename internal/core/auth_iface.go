package core

import "github.com/dkeye/Karaoke/internal/domain"

type PrincipalKind string

const (
	PrincipalUser PrincipalKind = "user"
	PrincipalTV   PrincipalKind = "tv"
)

// Principal is the verified subject of a bearer token.
type Principal struct {
	Kind     PrincipalKind
	UserID   string
	Email    string
	Name     string
	CanHost  bool
	RoomCode domain.RoomCode
}

type TokenVerifier interface {
	Verify(token string) (*Principal, error)
}
