package election

import (
	"github.com/DoyleJ11/commander-election/internal/battle"
	"github.com/DoyleJ11/commander-election/internal/protocol"
)

// CommanderRegistry is the authoritative per-side commander slot. Every
// mutation is followed by a CommanderUpdated broadcast.
type CommanderRegistry struct {
	commanders map[battle.Side]battle.ParticipantID
	transport  Transport
}

func NewCommanderRegistry(t Transport) *CommanderRegistry {
	return &CommanderRegistry{
		commanders: make(map[battle.Side]battle.ParticipantID),
		transport:  t,
	}
}

func (r *CommanderRegistry) Commander(side battle.Side) (battle.ParticipantID, bool) {
	id, ok := r.commanders[side]
	return id, ok
}

// SideOf returns the side id commands, or SideNone.
func (r *CommanderRegistry) SideOf(id battle.ParticipantID) battle.Side {
	for _, side := range battle.Sides {
		if c, ok := r.commanders[side]; ok && c == id {
			return side
		}
	}
	return battle.SideNone
}

func (r *CommanderRegistry) Assign(side battle.Side, id battle.ParticipantID) {
	if id == battle.NoParticipant {
		r.Clear(side)
		return
	}
	r.commanders[side] = id
	r.Broadcast(side)
}

func (r *CommanderRegistry) Clear(side battle.Side) {
	delete(r.commanders, side)
	r.Broadcast(side)
}

// Broadcast sends the current assignment of side to everyone connected.
func (r *CommanderRegistry) Broadcast(side battle.Side) {
	r.transport.Broadcast(r.update(side))
}

// Replay sends the assignment of every side to one participant. Called when a
// client finishes connecting so late joiners converge without asking.
func (r *CommanderRegistry) Replay(to battle.ParticipantID) {
	for _, side := range battle.Sides {
		r.transport.Send(to, r.update(side))
	}
}

// Release clears whichever side id commands. It reports whether anything
// changed.
func (r *CommanderRegistry) Release(id battle.ParticipantID) bool {
	side := r.SideOf(id)
	if side == battle.SideNone {
		return false
	}
	r.Clear(side)
	return true
}

// UnitEliminated emits the presentation-only kill notice when victim is a
// commander. The assignment is left untouched.
func (r *CommanderRegistry) UnitEliminated(killer, victim battle.ParticipantID) bool {
	if victim == battle.NoParticipant || r.SideOf(victim) == battle.SideNone {
		return false
	}
	r.transport.Broadcast(protocol.CommanderEliminated{Killer: killer, Commander: victim})
	return true
}

func (r *CommanderRegistry) update(side battle.Side) protocol.CommanderUpdated {
	return protocol.CommanderUpdated{Side: side, Commander: r.commanders[side]}
}
