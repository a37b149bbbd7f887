package app

import (
	"strconv"
	"strings"

	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/google/uuid"
)

const maxNicknameSuffix = 100

// ResolveNickname returns a name no other visible participant holds
// (case-insensitively), appending 2, 3, ... on collision. The bool reports
// whether the result differs from desired.
func ResolveNickname(desired, id string, visible []domain.Participant) (string, bool) {
	name := strings.TrimSpace(desired)
	taken := func(candidate string) bool { return nameTaken(candidate, id, visible) }

	if !taken(name) {
		return name, name != desired
	}
	for suffix := 2; suffix < maxNicknameSuffix; suffix++ {
		candidate := name + strconv.Itoa(suffix)
		if !taken(candidate) {
			return candidate, true
		}
	}
	return name + "_" + uuid.NewString()[:4], true
}

// nameTaken reports whether another participant already uses name.
func nameTaken(name, id string, visible []domain.Participant) bool {
	for _, p := range visible {
		if p.ID != id && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}
