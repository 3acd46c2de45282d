package battle

import "slices"

// Roster is the in-memory participant registry for a single match. It is not
// safe for concurrent use; the owning match loop serialises access.
type Roster struct {
	order        []ParticipantID
	participants map[ParticipantID]*Participant
}

func NewRoster() *Roster {
	return &Roster{participants: make(map[ParticipantID]*Participant)}
}

// Add registers a connected, not yet synchronized participant. Re-adding a
// known ID reconnects it on the given side.
func (r *Roster) Add(id ParticipantID, side Side) {
	if p, ok := r.participants[id]; ok {
		p.Connected = true
		p.Side = side
		return
	}
	r.participants[id] = &Participant{ID: id, Side: side, Connected: true}
	r.order = append(r.order, id)
}

func (r *Roster) Remove(id ParticipantID) {
	if _, ok := r.participants[id]; !ok {
		return
	}
	delete(r.participants, id)
	r.order = slices.DeleteFunc(r.order, func(o ParticipantID) bool { return o == id })
}

func (r *Roster) Get(id ParticipantID) (Participant, bool) {
	p, ok := r.participants[id]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

func (r *Roster) SetSide(id ParticipantID, side Side) error {
	p, ok := r.participants[id]
	if !ok {
		return ErrUnknownParticipant
	}
	p.Side = side
	return nil
}

func (r *Roster) SetSynchronized(id ParticipantID) error {
	p, ok := r.participants[id]
	if !ok {
		return ErrUnknownParticipant
	}
	p.Synchronized = true
	return nil
}

func (r *Roster) SetRestrictions(id ParticipantID, muted, chatRestricted bool) error {
	p, ok := r.participants[id]
	if !ok {
		return ErrUnknownParticipant
	}
	p.Muted = muted
	p.ChatRestricted = chatRestricted
	return nil
}

func (r *Roster) IsConnected(id ParticipantID) bool {
	p, ok := r.participants[id]
	return ok && p.Connected
}

func (r *Roster) Side(id ParticipantID) Side {
	if p, ok := r.participants[id]; ok {
		return p.Side
	}
	return SideNone
}

func (r *Roster) IsSynchronized(id ParticipantID) bool {
	p, ok := r.participants[id]
	return ok && p.Synchronized
}

func (r *Roster) IsMuted(id ParticipantID) bool {
	p, ok := r.participants[id]
	return ok && p.Muted
}

func (r *Roster) HasChatRestriction(id ParticipantID) bool {
	p, ok := r.participants[id]
	return ok && p.ChatRestricted
}

// Members returns the connected participants on side in join order.
func (r *Roster) Members(side Side) []ParticipantID {
	var out []ParticipantID
	for _, id := range r.order {
		p := r.participants[id]
		if p.Connected && p.Side == side {
			out = append(out, id)
		}
	}
	return out
}

// Connected returns every connected participant in join order.
func (r *Roster) Connected() []ParticipantID {
	out := make([]ParticipantID, 0, len(r.order))
	for _, id := range r.order {
		if r.participants[id].Connected {
			out = append(out, id)
		}
	}
	return out
}

func (r *Roster) Len() int { return len(r.order) }
