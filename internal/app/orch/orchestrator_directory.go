package orch

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const TVPasswordLen = 6

// NewRoomCode draws RoomCodeLen characters from the confusable-free alphabet.
func NewRoomCode() domain.RoomCode {
	max := big.NewInt(int64(len(domain.RoomCodeAlphabet)))
	code := make([]byte, domain.RoomCodeLen)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand: %v", err))
		}
		code[i] = domain.RoomCodeAlphabet[n.Int64()]
	}
	return domain.RoomCode(code)
}

// CreateRoom persists a new room owned by a host and materializes it in memory.
func (o *Orchestrator) CreateRoom(ctx context.Context, host *core.Principal, tvPassword string) (domain.RoomCode, error) {
	if host == nil || host.Kind != core.PrincipalUser {
		return "", domain.ErrUnauthorized
	}
	if !host.CanHost {
		return "", domain.WithMessage(domain.ErrForbidden, "Você precisa completar seu cadastro para criar salas")
	}
	if len([]rune(tvPassword)) != TVPasswordLen {
		return "", domain.WithMessage(domain.ErrValidation, "Senha do TV deve ter exatamente 6 caracteres")
	}

	code, err := o.freeCode(ctx)
	if err != nil {
		return "", err
	}
	hash, err := o.Passwords.Hash(tvPassword)
	if err != nil {
		return "", fmt.Errorf("hash tv password: %w", err)
	}
	rec := &core.RoomRecord{
		ID:             uuid.NewString(),
		Code:           code,
		OwnerID:        host.UserID,
		TVPasswordHash: hash,
		CreatedAt:      time.Now(),
	}
	if err := o.Directory.CreateRoom(ctx, rec); err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}

	o.Rooms.Create(code, host.UserID)
	log.Info().Str("module", "orch").Str("room", string(code)).Str("owner", host.UserID).Msg("room created")
	o.track(ctx, core.EventRoomCreated, code, map[string]any{"ownerId": host.UserID})
	return code, nil
}

// freeCode retries up to CodeAttempts times; the last candidate is used even
// if every attempt collided, leaving the directory's unique key as the arbiter.
func (o *Orchestrator) freeCode(ctx context.Context) (domain.RoomCode, error) {
	code := NewRoomCode()
	for i := 0; i < o.CodeAttempts; i++ {
		_, err := o.Directory.FindRoom(ctx, code)
		if errors.Is(err, core.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("check room code: %w", err)
		}
		code = NewRoomCode()
	}
	return code, nil
}

func (o *Orchestrator) findRoom(ctx context.Context, code domain.RoomCode) (*core.RoomRecord, error) {
	rec, err := o.Directory.FindRoom(ctx, code)
	if errors.Is(err, core.ErrNotFound) {
		return nil, domain.ErrRoomNotFound
	}
	return rec, err
}

// TVLogin exchanges the room's tv password for a tv token.
func (o *Orchestrator) TVLogin(ctx context.Context, code domain.RoomCode, password string) (string, error) {
	if password == "" {
		return "", domain.WithMessage(domain.ErrValidation, "Senha é obrigatória")
	}
	rec, err := o.findRoom(ctx, code)
	if err != nil {
		return "", err
	}
	if !o.Passwords.Compare(rec.TVPasswordHash, password) {
		return "", domain.WithMessage(domain.ErrInvalidPassword, "Senha incorreta")
	}
	return o.Issuer.IssueTV(rec.Code)
}

// OwnerAccess issues a tv token to the room owner without the tv password.
func (o *Orchestrator) OwnerAccess(ctx context.Context, user *core.Principal, code domain.RoomCode) (string, error) {
	if user == nil || user.Kind != core.PrincipalUser {
		return "", domain.ErrUnauthorized
	}
	rec, err := o.findRoom(ctx, code)
	if err != nil {
		return "", err
	}
	if rec.OwnerID != user.UserID {
		return "", domain.WithMessage(domain.ErrForbidden, "Você não é o dono desta sala")
	}
	return o.Issuer.IssueTV(rec.Code)
}

func (o *Orchestrator) RoomExists(ctx context.Context, code domain.RoomCode) (bool, error) {
	_, err := o.findRoom(ctx, code)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (o *Orchestrator) MyRooms(ctx context.Context, user *core.Principal) ([]core.RoomRecord, error) {
	if user == nil || user.Kind != core.PrincipalUser {
		return nil, domain.ErrUnauthorized
	}
	return o.Directory.RoomsByOwner(ctx, user.UserID)
}
