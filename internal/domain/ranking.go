package domain

import (
	"encoding/json"
	"fmt"
)

// Ranking maps a participant id to its accumulated solo score.
type Ranking map[string]RankingEntry

// UnmarshalJSON accepts the legacy shape where a value is a bare number keyed
// by display name; such entries are converted to {name: key, score: n}.
func (r *Ranking) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Ranking, len(raw))
	for key, v := range raw {
		entry, err := decodeRankingValue(key, v)
		if err != nil {
			return fmt.Errorf("ranking %q: %w", key, err)
		}
		out[key] = entry
	}
	*r = out
	return nil
}

func decodeRankingValue(key string, v json.RawMessage) (RankingEntry, error) {
	var score float64
	if err := json.Unmarshal(v, &score); err == nil {
		return RankingEntry{Name: key, Score: int(score)}, nil
	}
	var entry RankingEntry
	if err := json.Unmarshal(v, &entry); err != nil {
		return RankingEntry{}, err
	}
	return entry, nil
}

// Add credits score to id, creating the entry if needed and refreshing its name.
func (r Ranking) Add(id, name string, score int) {
	entry := r[id]
	entry.Name = name
	entry.Score += score
	r[id] = entry
}
