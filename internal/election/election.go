// Package election implements the in-match commander election protocol:
// per-side polls, their validation and tallying, and the authoritative
// commander registry they drive.
//
// Nothing in this package is safe for concurrent use. A Manager belongs to a
// single match loop, which calls every method from one goroutine.
package election

import (
	"time"

	"github.com/DoyleJ11/commander-election/internal/battle"
	"github.com/DoyleJ11/commander-election/internal/protocol"
)

// Roster is the read-only view of participant membership the protocol needs.
type Roster interface {
	IsConnected(id battle.ParticipantID) bool
	Side(id battle.ParticipantID) battle.Side
	IsSynchronized(id battle.ParticipantID) bool
	IsMuted(id battle.ParticipantID) bool
	HasChatRestriction(id battle.ParticipantID) bool
	Members(side battle.Side) []battle.ParticipantID
}

// Transport delivers messages. Send is a reliable ordered unicast; Broadcast
// fans out to whoever is connected at call time.
type Transport interface {
	Send(to battle.ParticipantID, msg protocol.Message)
	Broadcast(msg protocol.Message)
}

// MatchState exposes the match-wide flags that gate new elections. The kick
// poll flag is the "one disruptive poll at a time" rule shared with the
// unrelated kick vote.
type MatchState interface {
	WarmingUp() bool
	KickPollActive() bool
}

type Config struct {
	Timeout time.Duration
	// AcceptThreshold is the share of cast ballots that must be exceeded for
	// a poll to pass.
	AcceptThreshold     float64
	MaxRequestsPerMatch int
	MinEligibleVoters   int
}

func DefaultConfig() Config {
	return Config{
		Timeout:             30 * time.Second,
		AcceptThreshold:     0.5,
		MaxRequestsPerMatch: 1,
		MinEligibleVoters:   2,
	}
}

// Accepted reports whether a tally passes. With no ballots cast the ratio is
// undefined and the poll fails.
func Accepted(accepted, rejected int, threshold float64) bool {
	cast := accepted + rejected
	if cast == 0 {
		return false
	}
	return float64(accepted)/float64(cast) > threshold
}
