package domain

import (
	"sort"
	"strings"
	"time"
)

const (
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	RoomCodeLen      = 5
)

type RoomCode string

// NormalizeCode uppercases a client supplied room code.
func NormalizeCode(raw string) RoomCode {
	return RoomCode(strings.ToUpper(strings.TrimSpace(raw)))
}

type Singer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type QueueItem struct {
	ID          string   `json:"id"`
	VideoID     string   `json:"videoId"`
	Title       string   `json:"title"`
	RequestedBy string   `json:"requestedBy"`
	Singers     []Singer `json:"singers"`
}

// Clone copies the item including its singers slice.
func (q QueueItem) Clone() QueueItem {
	q.Singers = append([]Singer(nil), q.Singers...)
	return q
}

type RankingEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// DuetRankingEntry keeps SingerIDs sorted; Names[i] belongs to SingerIDs[i].
type DuetRankingEntry struct {
	SingerIDs [2]string `json:"singerIds"`
	Names     [2]string `json:"names"`
	Score     int       `json:"score"`
	Count     int       `json:"count"`
}

// Room is the live state of a karaoke session. Queue and rankings are never persisted.
type Room struct {
	Code           RoomCode
	OwnerID        string
	CreatedAt      time.Time
	LastActivityAt time.Time
	NowPlaying     *QueueItem
	Queue          []QueueItem
	Ranking        Ranking
	DuetRanking    map[string]*DuetRankingEntry
	LastFinalize   time.Time
	ShowingScore   bool
}

func NewRoom(code RoomCode, ownerID string, now time.Time) *Room {
	return &Room{
		Code:           code,
		OwnerID:        ownerID,
		CreatedAt:      now,
		LastActivityAt: now,
		Queue:          make([]QueueItem, 0),
		Ranking:        make(Ranking),
		DuetRanking:    make(map[string]*DuetRankingEntry),
	}
}

// DuetKey is order independent: both ids sorted and joined with "|".
func DuetKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + "|" + ids[1]
}

// JoinRequestedBy rebuilds the requestedBy label from singer names.
func JoinRequestedBy(singers []Singer) string {
	names := make([]string, len(singers))
	for i, s := range singers {
		names[i] = s.Name
	}
	return strings.Join(names, " e ")
}

// SingerDisplay renders "A", "A e B", "A, B e C".
func SingerDisplay(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " e " + names[len(names)-1]
}
