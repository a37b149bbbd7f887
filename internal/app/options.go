package app

import "time"

// Options tunes the room engine. Zero fields fall back to DefaultOptions.
type Options struct {
	Now               func() time.Time
	FinalizeCooldown  time.Duration
	PlayDelay         time.Duration
	GraceWindow       time.Duration
	CleanupInterval   time.Duration
	InactiveThreshold time.Duration
	Scorer            Scorer
	Policy            Policy
}

func DefaultOptions() Options {
	return Options{
		Now:               time.Now,
		FinalizeCooldown:  10 * time.Second,
		PlayDelay:         800 * time.Millisecond,
		GraceWindow:       time.Hour,
		CleanupInterval:   30 * time.Minute,
		InactiveThreshold: 2 * time.Hour,
		Scorer:            NewBiasedScorer(100, 2, 0.01),
		Policy:            SimplePolicy{},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Now == nil {
		o.Now = d.Now
	}
	if o.FinalizeCooldown <= 0 {
		o.FinalizeCooldown = d.FinalizeCooldown
	}
	if o.PlayDelay <= 0 {
		o.PlayDelay = d.PlayDelay
	}
	if o.GraceWindow <= 0 {
		o.GraceWindow = d.GraceWindow
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = d.CleanupInterval
	}
	if o.InactiveThreshold <= 0 {
		o.InactiveThreshold = d.InactiveThreshold
	}
	if o.Scorer == nil {
		o.Scorer = d.Scorer
	}
	if o.Policy == nil {
		o.Policy = d.Policy
	}
	return o
}
