package protocol

import "github.com/DoyleJ11/commander-election/internal/battle"

type Kind string

const (
	// Client -> Server
	KindElectionRequested Kind = "ElectionRequested"
	KindElectionVoteCast  Kind = "ElectionVoteCast"
	KindClientReady       Kind = "ClientReady"
	KindChatCommand       Kind = "ChatCommand"

	// Server -> Client
	KindElectionOpened      Kind = "ElectionOpened"
	KindElectionProgress    Kind = "ElectionProgress"
	KindElectionClosed      Kind = "ElectionClosed"
	KindElectionCancelled   Kind = "ElectionCancelled"
	KindElectionRejected    Kind = "ElectionRejected"
	KindCommanderUpdated    Kind = "CommanderUpdated"
	KindCommanderEliminated Kind = "CommanderEliminated"
	KindChatCommandRejected Kind = "ChatCommandRejected"
	KindOrderAnnounced      Kind = "OrderAnnounced"
	KindWelcome             Kind = "Welcome"
	KindError               Kind = "Error"
)

// Reason is the rejection vocabulary shared by elections, kick polls and
// rate-limited chat commands. It is only ever sent to the requester.
type Reason string

const (
	ReasonTargetNotSynced            Reason = "TargetNotSynced"
	ReasonHasOngoingPoll             Reason = "HasOngoingPoll"
	ReasonTargetIsMuted              Reason = "TargetIsMuted"
	ReasonTooManyPollRequests        Reason = "TooManyPollRequests"
	ReasonNotEnoughPlayersToOpenPoll Reason = "NotEnoughPlayersToOpenPoll"
)

// Reasons lists every rejection reason.
var Reasons = []Reason{
	ReasonTargetNotSynced,
	ReasonHasOngoingPoll,
	ReasonTargetIsMuted,
	ReasonTooManyPollRequests,
	ReasonNotEnoughPlayersToOpenPoll,
}

// Message is implemented by every wire message. Messages carry primitive
// fields only.
type Message interface {
	Kind() Kind
}

type ElectionRequested struct {
	Target     battle.ParticipantID `json:"target"`
	IsDemotion bool                 `json:"is_demotion,omitempty"`
}

type ElectionVoteCast struct {
	Accepted bool `json:"accepted"`
}

// ClientReady tells the server the client finished loading.
type ClientReady struct{}

type ChatCommand struct {
	Text string `json:"text"`
}

type ElectionOpened struct {
	Requester  battle.ParticipantID `json:"requester"`
	Target     battle.ParticipantID `json:"target"`
	IsDemotion bool                 `json:"is_demotion,omitempty"`
}

type ElectionProgress struct {
	Accepted int         `json:"accepted"`
	Rejected int         `json:"rejected"`
	Side     battle.Side `json:"side"`
}

type ElectionClosed struct {
	Target   battle.ParticipantID `json:"target"`
	Accepted bool                 `json:"accepted"`
}

type ElectionCancelled struct {
	Side battle.Side `json:"side"`
}

type ElectionRejected struct {
	Reason Reason `json:"reason"`
}

// CommanderUpdated carries the authoritative commander of a side. An empty
// Commander means the side has none.
type CommanderUpdated struct {
	Side      battle.Side          `json:"side"`
	Commander battle.ParticipantID `json:"commander,omitempty"`
}

type CommanderEliminated struct {
	Killer    battle.ParticipantID `json:"killer"`
	Commander battle.ParticipantID `json:"commander"`
}

type ChatCommandRejected struct {
	Reason   Reason  `json:"reason"`
	Cooldown float32 `json:"cooldown"` // seconds
}

type OrderAnnounced struct {
	Commander battle.ParticipantID `json:"commander"`
	Text      string               `json:"text"`
}

type Welcome struct {
	Participant battle.ParticipantID `json:"participant"`
	Side        battle.Side          `json:"side"`
}

type Error struct {
	Message string `json:"message"`
}

func (ElectionRequested) Kind() Kind   { return KindElectionRequested }
func (ElectionVoteCast) Kind() Kind    { return KindElectionVoteCast }
func (ClientReady) Kind() Kind         { return KindClientReady }
func (ChatCommand) Kind() Kind         { return KindChatCommand }
func (ElectionOpened) Kind() Kind      { return KindElectionOpened }
func (ElectionProgress) Kind() Kind    { return KindElectionProgress }
func (ElectionClosed) Kind() Kind      { return KindElectionClosed }
func (ElectionCancelled) Kind() Kind   { return KindElectionCancelled }
func (ElectionRejected) Kind() Kind    { return KindElectionRejected }
func (CommanderUpdated) Kind() Kind    { return KindCommanderUpdated }
func (CommanderEliminated) Kind() Kind { return KindCommanderEliminated }
func (ChatCommandRejected) Kind() Kind { return KindChatCommandRejected }
func (OrderAnnounced) Kind() Kind      { return KindOrderAnnounced }
func (Welcome) Kind() Kind             { return KindWelcome }
func (Error) Kind() Kind               { return KindError }

// ClientBound reports whether k may only travel from the server to clients.
func ClientBound(k Kind) bool {
	switch k {
	case KindElectionRequested, KindElectionVoteCast, KindClientReady, KindChatCommand:
		return false
	default:
		return true
	}
}
