package app

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/dkeye/Karaoke/internal/domain"
)

type Scorer interface {
	Score() int
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func() int

func (f ScorerFunc) Score() int { return f() }

// BiasedScorer draws floor(u^(1/bias) * max) and returns max outright with
// probability perfectChance. bias > 1 skews toward the top of the range.
type BiasedScorer struct {
	max           int
	bias          float64
	perfectChance float64
	float         func() float64
}

func NewBiasedScorer(max int, bias, perfectChance float64) *BiasedScorer {
	if bias <= 0 {
		bias = 1
	}
	return &BiasedScorer{max: max, bias: bias, perfectChance: perfectChance, float: rand.Float64}
}

func (s *BiasedScorer) Score() int {
	if s.float() < s.perfectChance {
		return s.max
	}
	v := int(math.Floor(math.Pow(s.float(), 1/s.bias) * float64(s.max)))
	return clampScore(v, s.max)
}

func clampScore(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// applyScore credits every singer and, for exactly two singers, the pair.
func applyScore(room *domain.Room, singers []domain.Singer, score int) {
	for _, s := range singers {
		room.Ranking.Add(s.ID, s.Name, score)
	}
	if len(singers) != 2 {
		return
	}

	key := domain.DuetKey(singers[0].ID, singers[1].ID)
	entry, ok := room.DuetRanking[key]
	if !ok {
		pair := []domain.Singer{singers[0], singers[1]}
		sort.SliceStable(pair, func(i, j int) bool { return pair[i].ID < pair[j].ID })
		entry = &domain.DuetRankingEntry{
			SingerIDs: [2]string{pair[0].ID, pair[1].ID},
			Names:     [2]string{pair[0].Name, pair[1].Name},
		}
		room.DuetRanking[key] = entry
	} else {
		for i, id := range entry.SingerIDs {
			for _, s := range singers {
				if s.ID == id {
					entry.Names[i] = s.Name
				}
			}
		}
	}
	entry.Score += score
	entry.Count++
}

func singerNames(singers []domain.Singer) []string {
	names := make([]string, len(singers))
	for i, s := range singers {
		names[i] = s.Name
	}
	return names
}
