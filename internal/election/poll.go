package election

import (
	"slices"
	"time"

	"github.com/DoyleJ11/commander-election/internal/battle"
)

type State int

const (
	StateOpen State = iota
	StateClosed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Poll is one election attempt on one side.
type Poll struct {
	Requester  battle.ParticipantID
	Target     battle.ParticipantID
	IsDemotion bool
	Side       battle.Side
	OpenedAt   time.Time
	Timeout    time.Duration

	state         State
	eligible      []battle.ParticipantID
	initialVoters int
	accepted      int
	rejected      int
}

func newPoll(requester, target battle.ParticipantID, isDemotion bool, side battle.Side,
	voters []battle.ParticipantID, openedAt time.Time, timeout time.Duration) *Poll {
	return &Poll{
		Requester:     requester,
		Target:        target,
		IsDemotion:    isDemotion,
		Side:          side,
		OpenedAt:      openedAt,
		Timeout:       timeout,
		state:         StateOpen,
		eligible:      slices.Clone(voters),
		initialVoters: len(voters),
	}
}

func (p *Poll) State() State { return p.state }

func (p *Poll) Tally() (accepted, rejected int) { return p.accepted, p.rejected }

func (p *Poll) InitialVoters() int { return p.initialVoters }

func (p *Poll) EligibleVoters() []battle.ParticipantID { return slices.Clone(p.eligible) }

func (p *Poll) IsEligible(id battle.ParticipantID) bool {
	return slices.Contains(p.eligible, id)
}

// Deadline is the instant the poll times out.
func (p *Poll) Deadline() time.Time { return p.OpenedAt.Add(p.Timeout) }

func (p *Poll) expired(now time.Time) bool { return !now.Before(p.Deadline()) }

// applyVote records one ballot. A voter leaves the eligible set on voting, so
// a second ballot from the same participant is refused.
func (p *Poll) applyVote(id battle.ParticipantID, accepted bool) bool {
	if p.state != StateOpen {
		return false
	}
	i := slices.Index(p.eligible, id)
	if i < 0 {
		return false
	}
	p.eligible = slices.Delete(p.eligible, i, i+1)
	if accepted {
		p.accepted++
	} else {
		p.rejected++
	}
	return true
}

// prune drops eligible voters for which gone returns true. Their ballots are
// lost, not counted either way.
func (p *Poll) prune(gone func(battle.ParticipantID) bool) []battle.ParticipantID {
	var dropped []battle.ParticipantID
	p.eligible = slices.DeleteFunc(p.eligible, func(id battle.ParticipantID) bool {
		if gone(id) {
			dropped = append(dropped, id)
			return true
		}
		return false
	})
	return dropped
}

// audience is the current eligible voters plus requester and target, without
// duplicates.
func (p *Poll) audience() []battle.ParticipantID {
	out := slices.Clone(p.eligible)
	for _, id := range []battle.ParticipantID{p.Requester, p.Target} {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
