package battle

import "errors"

var ErrUnknownParticipant = errors.New("unknown participant")

type Side string

const (
	SideNone     Side = ""
	SideAttacker Side = "attacker"
	SideDefender Side = "defender"
)

// Sides lists the two playable sides in a stable order.
var Sides = []Side{SideAttacker, SideDefender}

func ParseSide(s string) (Side, bool) {
	switch s {
	case "attacker", "a":
		return SideAttacker, true
	case "defender", "b":
		return SideDefender, true
	case "", "none":
		return SideNone, true
	default:
		return SideNone, false
	}
}

// ParticipantID is the stable identity of a connected peer. The zero value
// means "nobody".
type ParticipantID string

const NoParticipant ParticipantID = ""

type Participant struct {
	ID             ParticipantID
	Side           Side
	Connected      bool
	Synchronized   bool
	Muted          bool
	ChatRestricted bool
}
