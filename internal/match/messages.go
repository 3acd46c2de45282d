package match

import (
	"time"

	"github.com/DoyleJ11/commander-election/internal/battle"
	"github.com/DoyleJ11/commander-election/internal/election"
	"github.com/DoyleJ11/commander-election/internal/protocol"
)

type Msg interface{ isMatchMsg() }

// Join connects a participant. Outbox is where this client wants to receive
// server messages; the match closes it when the client is dropped.
type Join struct {
	ClientID battle.ParticipantID
	Side     battle.Side
	Outbox   chan protocol.Message
}

type Leave struct{ ClientID battle.ParticipantID }

type FromClient struct {
	ClientID battle.ParticipantID
	Msg      protocol.Message
}

type ChangeSide struct {
	ClientID battle.ParticipantID
	Side     battle.Side
}

type SetRestrictions struct {
	ClientID       battle.ParticipantID
	Muted          bool
	ChatRestricted bool
}

// StartRound ends the warm-up.
type StartRound struct{}

type KickPollStarted struct{}

type KickPollEnded struct{}

type CancelElection struct{ Side battle.Side }

// UnitEliminated reports that Victim's controlled unit was killed.
type UnitEliminated struct {
	Killer battle.ParticipantID
	Victim battle.ParticipantID
}

// Tick advances election timers to Now. The internal ticker sends the same
// thing; tests use it to drive time explicitly.
type Tick struct{ Now time.Time }

type GetState struct {
	Reply chan View
}

type Shutdown struct{}

func (Join) isMatchMsg()            {}
func (Leave) isMatchMsg()           {}
func (FromClient) isMatchMsg()      {}
func (ChangeSide) isMatchMsg()      {}
func (SetRestrictions) isMatchMsg() {}
func (StartRound) isMatchMsg()      {}
func (KickPollStarted) isMatchMsg() {}
func (KickPollEnded) isMatchMsg()   {}
func (CancelElection) isMatchMsg()  {}
func (UnitEliminated) isMatchMsg()  {}
func (Tick) isMatchMsg()            {}
func (GetState) isMatchMsg()        {}
func (Shutdown) isMatchMsg()        {}

type PollView struct {
	Requester      battle.ParticipantID `json:"requester"`
	Target         battle.ParticipantID `json:"target"`
	IsDemotion     bool                 `json:"is_demotion"`
	Accepted       int                  `json:"accepted"`
	Rejected       int                  `json:"rejected"`
	EligibleVoters int                  `json:"eligible_voters"`
	Deadline       time.Time            `json:"deadline"`
}

type View struct {
	Code           string                               `json:"code"`
	WarmingUp      bool                                 `json:"warming_up"`
	KickPollActive bool                                 `json:"kick_poll_active"`
	NumClients     int                                  `json:"num_clients"`
	Commanders     map[battle.Side]battle.ParticipantID `json:"commanders"`
	Polls          map[battle.Side]PollView             `json:"polls"`
	Stats          election.Stats                       `json:"stats"`
}
