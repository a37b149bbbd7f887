package core

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Karaoke/internal/domain"
)

var ErrNotFound = errors.New("record not found")

// RoomRecord is the durable part of a room.
type RoomRecord struct {
	ID             string          `json:"id"`
	Code           domain.RoomCode `json:"code"`
	OwnerID        string          `json:"ownerId"`
	TVPasswordHash string          `json:"-"`
	UniqueVisitors int             `json:"uniqueVisitors"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// RoomDirectory is the durable room store. FindRoom returns ErrNotFound for unknown codes.
type RoomDirectory interface {
	FindRoom(ctx context.Context, code domain.RoomCode) (*RoomRecord, error)
	CreateRoom(ctx context.Context, rec *RoomRecord) error
	RoomsByOwner(ctx context.Context, ownerID string) ([]RoomRecord, error)
	IncrementVisitors(ctx context.Context, code domain.RoomCode) error
}

type Song struct {
	ID           string     `json:"id"`
	VideoID      string     `json:"videoId"`
	Title        string     `json:"title"`
	AddedBy      string     `json:"addedBy"`
	PlayCount    int        `json:"playCount"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastPlayedAt *time.Time `json:"lastPlayedAt"`
}

// SongLibrary is the global, durable song catalogue keyed by video id.
type SongLibrary interface {
	AddSong(ctx context.Context, videoID, title, addedBy string) (*Song, error)
	IncrementPlayCount(ctx context.Context, videoID string) error
	ListSongs(ctx context.Context) ([]Song, error)
	TopSongs(ctx context.Context, limit int) ([]Song, error)
	RemoveSong(ctx context.Context, idOrVideoID string) (bool, error)
}

// UserStore persists accounts. FindByEmail/FindByID return ErrNotFound.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
}
