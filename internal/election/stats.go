package election

import (
	"maps"

	"github.com/DoyleJ11/commander-election/internal/protocol"
)

// Stats counts election outcomes over the life of a match.
type Stats struct {
	Opened     int                     `json:"opened"`
	Accepted   int                     `json:"accepted"`
	Declined   int                     `json:"declined"`
	Cancelled  int                     `json:"cancelled"`
	Rejections map[protocol.Reason]int `json:"rejections"`
}

func newStats() Stats {
	return Stats{Rejections: make(map[protocol.Reason]int)}
}

func (s Stats) clone() Stats {
	s.Rejections = maps.Clone(s.Rejections)
	return s
}
