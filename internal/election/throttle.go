package election

import "github.com/DoyleJ11/commander-election/internal/battle"

// RequestThrottle caps how many elections a participant may open in one
// match. Counters only reset with a new match.
type RequestThrottle struct {
	limit  int
	counts map[battle.ParticipantID]int
}

func NewRequestThrottle(limit int) *RequestThrottle {
	return &RequestThrottle{limit: limit, counts: make(map[battle.ParticipantID]int)}
}

func (t *RequestThrottle) Allow(id battle.ParticipantID) bool {
	return t.counts[id] < t.limit
}

func (t *RequestThrottle) Record(id battle.ParticipantID) {
	t.counts[id]++
}

func (t *RequestThrottle) Count(id battle.ParticipantID) int {
	return t.counts[id]
}
