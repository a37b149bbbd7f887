package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/dkeye/Karaoke/internal/core"
)

const day = 24 * time.Hour

type Period string

const (
	PeriodToday Period = "today"
	Period7d    Period = "7d"
	Period30d   Period = "30d"
	PeriodAll   Period = "all"
)

type TopSong struct {
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	PlayCount int    `json:"playCount"`
}

type Summary struct {
	TotalRooms       int       `json:"totalRooms"`
	TotalSongsPlayed int       `json:"totalSongsPlayed"`
	TotalUsers       int       `json:"totalUsers"`
	RoomsToday       int       `json:"roomsToday"`
	RoomsThisWeek    int       `json:"roomsThisWeek"`
	RoomsThisMonth   int       `json:"roomsThisMonth"`
	SongsToday       int       `json:"songsToday"`
	SongsThisWeek    int       `json:"songsThisWeek"`
	SongsThisMonth   int       `json:"songsThisMonth"`
	AvgSongsPerRoom  int       `json:"avgSongsPerRoom"`
	TopSongs         []TopSong `json:"topSongs"`
	RoomsLastWeek    int       `json:"roomsLastWeek"`
	SongsLastWeek    int       `json:"songsLastWeek"`
	RoomsGrowth      int       `json:"roomsGrowth"`
	SongsGrowth      int       `json:"songsGrowth"`
}

type DailyStats struct {
	Date  string `json:"date"`
	Rooms int    `json:"rooms"`
	Songs int    `json:"songs"`
	Users int    `json:"users"`
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// bounds returns the inclusive [start, end] window in ms; zero means open.
func (s *Store) bounds(p Period) (int64, int64) {
	now := s.now()
	switch p {
	case PeriodToday:
		return startOfDay(now).UnixMilli(), now.UnixMilli()
	case Period7d:
		return now.Add(-7 * day).UnixMilli(), now.UnixMilli()
	case Period30d:
		return now.Add(-30 * day).UnixMilli(), now.UnixMilli()
	}
	return 0, 0
}

// TopSongs counts song_finalized events per video within the period.
func (s *Store) TopSongs(limit int, p Period) []TopSong {
	if limit <= 0 {
		limit = 20
	}
	start, end := s.bounds(p)

	counts := map[string]*TopSong{}
	var order []string
	for _, e := range s.load() {
		if e.Event != core.EventSongFinalized {
			continue
		}
		if (start > 0 && e.TS < start) || (end > 0 && e.TS > end) {
			continue
		}
		videoID, _ := e.Data["videoId"].(string)
		if videoID == "" {
			continue
		}
		if ts, ok := counts[videoID]; ok {
			ts.PlayCount++
			continue
		}
		title, _ := e.Data["title"].(string)
		if title == "" {
			title = "Sem título"
		}
		counts[videoID] = &TopSong{VideoID: videoID, Title: title, PlayCount: 1}
		order = append(order, videoID)
	}

	out := make([]TopSong, 0, len(order))
	for _, id := range order {
		out = append(out, *counts[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlayCount > out[j].PlayCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func growth(current, previous int) int {
	if previous > 0 {
		return int(math.Round(float64(current-previous) / float64(previous) * 100))
	}
	if current > 0 {
		return 100
	}
	return 0
}

func (s *Store) Summary() Summary {
	now := s.now()
	today := startOfDay(now).UnixMilli()
	week := now.Add(-7 * day).UnixMilli()
	month := now.Add(-30 * day).UnixMilli()
	lastWeek := now.Add(-14 * day).UnixMilli()

	rooms := map[string]struct{}{}
	users := map[string]struct{}{}
	created := [4]map[string]struct{}{{}, {}, {}, {}}
	var sum Summary

	for _, e := range s.load() {
		if e.RoomCode != "" {
			rooms[e.RoomCode] = struct{}{}
		}
		switch e.Event {
		case core.EventRoomCreated:
			if e.RoomCode == "" {
				continue
			}
			if e.TS >= today {
				created[0][e.RoomCode] = struct{}{}
			}
			if e.TS >= week {
				created[1][e.RoomCode] = struct{}{}
			}
			if e.TS >= month {
				created[2][e.RoomCode] = struct{}{}
			}
			if e.TS >= lastWeek && e.TS < week {
				created[3][e.RoomCode] = struct{}{}
			}
		case core.EventUserJoined:
			if name, _ := e.Data["userName"].(string); name != "" {
				users[e.RoomCode+":"+name] = struct{}{}
			}
		case core.EventSongFinalized:
			sum.TotalSongsPlayed++
			if e.TS >= today {
				sum.SongsToday++
			}
			if e.TS >= week {
				sum.SongsThisWeek++
			}
			if e.TS >= month {
				sum.SongsThisMonth++
			}
			if e.TS >= lastWeek && e.TS < week {
				sum.SongsLastWeek++
			}
		}
	}

	sum.TotalRooms = len(rooms)
	sum.TotalUsers = len(users)
	sum.RoomsToday = len(created[0])
	sum.RoomsThisWeek = len(created[1])
	sum.RoomsThisMonth = len(created[2])
	sum.RoomsLastWeek = len(created[3])
	sum.RoomsGrowth = growth(sum.RoomsThisWeek, sum.RoomsLastWeek)
	sum.SongsGrowth = growth(sum.SongsThisWeek, sum.SongsLastWeek)
	if sum.TotalRooms > 0 {
		sum.AvgSongsPerRoom = int(math.Round(float64(sum.TotalSongsPlayed) / float64(sum.TotalRooms)))
	}
	sum.TopSongs = s.TopSongs(10, PeriodAll)
	return sum
}

// DailyStats buckets the last days by UTC date, oldest first.
func (s *Store) DailyStats(days int) []DailyStats {
	if days <= 0 {
		days = 30
	}
	now := s.now()
	start := now.Add(-time.Duration(days) * day).UnixMilli()

	type bucket struct {
		rooms map[string]struct{}
		users map[string]struct{}
		songs int
	}
	buckets := map[string]*bucket{}
	get := func(date string) *bucket {
		b, ok := buckets[date]
		if !ok {
			b = &bucket{rooms: map[string]struct{}{}, users: map[string]struct{}{}}
			buckets[date] = b
		}
		return b
	}
	for i := 0; i < days; i++ {
		get(now.Add(-time.Duration(i) * day).UTC().Format(time.DateOnly))
	}

	for _, e := range s.load() {
		if e.TS < start {
			continue
		}
		b := get(time.UnixMilli(e.TS).UTC().Format(time.DateOnly))
		switch e.Event {
		case core.EventRoomCreated:
			if e.RoomCode != "" {
				b.rooms[e.RoomCode] = struct{}{}
			}
		case core.EventSongFinalized:
			b.songs++
		case core.EventUserJoined:
			if name, _ := e.Data["userName"].(string); name != "" {
				b.users[name] = struct{}{}
			}
		}
	}

	out := make([]DailyStats, 0, len(buckets))
	for date, b := range buckets {
		out = append(out, DailyStats{Date: date, Rooms: len(b.rooms), Songs: b.songs, Users: len(b.users)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
