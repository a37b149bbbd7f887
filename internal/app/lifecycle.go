package app

import (
	"time"

	"github.com/rs/zerolog/log"
)

// cleanupLoop runs Sweep on a ticker. It only exists while the store is non-empty.
type cleanupLoop struct {
	quit chan struct{}
}

func (c *cleanupLoop) stop() { close(c.quit) }

func (s *RoomStore) armLocked() {
	if s.cleanup != nil || len(s.rooms) == 0 {
		return
	}
	loop := &cleanupLoop{quit: make(chan struct{})}
	s.cleanup = loop
	go s.runCleanup(loop, s.opts.CleanupInterval)
	log.Info().Str("module", "app.lifecycle").Dur("interval", s.opts.CleanupInterval).Msg("cleanup armed")
}

func (s *RoomStore) disarmLocked() {
	if s.cleanup == nil || len(s.rooms) > 0 {
		return
	}
	s.cleanup.stop()
	s.cleanup = nil
	log.Info().Str("module", "app.lifecycle").Msg("cleanup disarmed")
}

func (s *RoomStore) runCleanup(loop *cleanupLoop, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-loop.quit:
			return
		case <-t.C:
			s.Sweep()
		}
	}
}
