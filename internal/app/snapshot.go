package app

import (
	"sort"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
)

const (
	MsgHello            = "HELLO"
	MsgState            = "STATE"
	MsgParticipants     = "PARTICIPANTS"
	MsgNicknameAssigned = "NICKNAME_ASSIGNED"
	MsgFinalized        = "FINALIZED"
	MsgPlayerCommand    = "PLAYER_COMMAND"
	MsgError            = "ERROR"
	MsgAck              = "ACK"
)

// Snapshot is the full room state pushed on every mutation.
type Snapshot struct {
	RoomCode     domain.RoomCode                `json:"roomCode"`
	NowPlaying   *domain.QueueItem              `json:"nowPlaying"`
	Queue        []domain.QueueItem             `json:"queue"`
	Ranking      map[string]domain.RankingEntry `json:"ranking"`
	DuetRanking  []DuetStanding                 `json:"duetRanking"`
	ShowingScore bool                           `json:"showingScore"`
}

type DuetStanding struct {
	Names [2]string `json:"names"`
	Score int       `json:"score"`
	Count int       `json:"count"`
}

type StateMessage struct {
	Type  string   `json:"type"`
	State Snapshot `json:"state"`
}

type ParticipantsMessage struct {
	Type         string               `json:"type"`
	Participants []domain.Participant `json:"participants"`
}

type HelloMessage struct {
	Type     string          `json:"type"`
	RoomCode domain.RoomCode `json:"roomCode"`
	Role     core.Role       `json:"role"`
	Name     string          `json:"name"`
	UserID   string          `json:"odUserId"`
}

type NicknameAssignedMessage struct {
	Type         string `json:"type"`
	Nickname     string `json:"nickname"`
	OriginalName string `json:"originalName"`
	WasModified  bool   `json:"wasModified"`
}

type FinalizedMessage struct {
	Type    string   `json:"type"`
	By      string   `json:"by"`
	Singer  string   `json:"singer"`
	Singers []string `json:"singers"`
	Score   int      `json:"score"`
	VideoID string   `json:"videoId"`
	Title   string   `json:"title"`
}

type PlayerCommandMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type AckMessage struct {
	Type string `json:"type"`
}

func snapshotOf(room *domain.Room) Snapshot {
	snap := Snapshot{
		RoomCode:     room.Code,
		Queue:        make([]domain.QueueItem, len(room.Queue)),
		Ranking:      make(map[string]domain.RankingEntry, len(room.Ranking)),
		DuetRanking:  make([]DuetStanding, 0, len(room.DuetRanking)),
		ShowingScore: room.ShowingScore,
	}
	if room.NowPlaying != nil {
		np := room.NowPlaying.Clone()
		snap.NowPlaying = &np
	}
	for i, item := range room.Queue {
		snap.Queue[i] = item.Clone()
	}
	for id, entry := range room.Ranking {
		snap.Ranking[id] = entry
	}

	keys := make([]string, 0, len(room.DuetRanking))
	for k := range room.DuetRanking {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e := room.DuetRanking[k]
		snap.DuetRanking = append(snap.DuetRanking, DuetStanding{Names: e.Names, Score: e.Score, Count: e.Count})
	}
	sort.SliceStable(snap.DuetRanking, func(i, j int) bool {
		return snap.DuetRanking[i].Score > snap.DuetRanking[j].Score
	})
	return snap
}
