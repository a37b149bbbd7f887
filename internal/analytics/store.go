// Package analytics keeps an append-only JSONL log of room events and the
// reducers that report on it.
package analytics

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/rs/zerolog/log"
)

const CacheTTL = time.Minute

// Store appends events to a JSONL file and caches reads for CacheTTL.
type Store struct {
	path string
	now  func() time.Time

	mu       sync.Mutex
	cache    []core.Event
	cachedAt time.Time
}

func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create analytics dir: %w", err)
	}
	return &Store{path: path, now: time.Now}, nil
}

// Track appends e. Write failures are logged and dropped.
func (s *Store) Track(e core.Event) {
	if e.TS == 0 {
		e.TS = s.now().UnixMilli()
	}
	line, err := json.Marshal(e)
	if err != nil {
		log.Warn().Err(err).Str("module", "analytics").Str("event", e.Event).Msg("encode event")
		return
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		log.Warn().Err(err).Str("module", "analytics").Msg("open event log")
		return
	}
	defer f.Close()
	if _, err := f.Write(line); err != nil {
		log.Warn().Err(err).Str("module", "analytics").Msg("write event")
		return
	}
	s.cache = nil
}

func (s *Store) load() []core.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.cache != nil && now.Sub(s.cachedAt) < CacheTTL {
		return s.cache
	}

	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("module", "analytics").Msg("read event log")
		return nil
	}
	events := []core.Event{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e core.Event
		if json.Unmarshal(line, &e) != nil {
			continue
		}
		events = append(events, e)
	}
	s.cache = events
	s.cachedAt = now
	return events
}

// Events returns the logged events, optionally of one type and at or after since (ms).
func (s *Store) Events(event string, since int64) []core.Event {
	all := s.load()
	out := make([]core.Event, 0, len(all))
	for _, e := range all {
		if event != "" && e.Event != event {
			continue
		}
		if since > 0 && e.TS < since {
			continue
		}
		out = append(out, e)
	}
	return out
}
