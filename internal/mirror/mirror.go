// Package mirror keeps a client's read-only copy of election and commander
// state. It applies what the server replicates and never decides an outcome.
package mirror

import (
	"fmt"

	"github.com/DoyleJ11/commander-election/internal/battle"
	"github.com/DoyleJ11/commander-election/internal/protocol"
)

type Sound string

const (
	SoundPollOpened   Sound = "poll_opened"
	SoundPollAccepted Sound = "poll_accepted"
	SoundPollDeclined Sound = "poll_declined"
	SoundRejected     Sound = "rejected"
)

// Presenter receives local feedback cues, e.g. a UI layer or a log.
type Presenter interface {
	Text(msg string)
	Sound(cue Sound)
}

type Poll struct {
	Requester  battle.ParticipantID
	Target     battle.ParticipantID
	IsDemotion bool
	Side       battle.Side
	Accepted   int
	Rejected   int
	Voted      bool
}

type Mirror struct {
	self       battle.ParticipantID
	side       battle.Side
	poll       *Poll
	commanders map[battle.Side]battle.ParticipantID
	presenter  Presenter
}

func New(p Presenter) *Mirror {
	if p == nil {
		p = nopPresenter{}
	}
	return &Mirror{
		commanders: make(map[battle.Side]battle.ParticipantID),
		presenter:  p,
	}
}

func (m *Mirror) Self() (battle.ParticipantID, battle.Side) { return m.self, m.side }

// Poll returns the open poll this client was told about.
func (m *Mirror) Poll() (Poll, bool) {
	if m.poll == nil {
		return Poll{}, false
	}
	return *m.poll, true
}

func (m *Mirror) Commander(side battle.Side) (battle.ParticipantID, bool) {
	id, ok := m.commanders[side]
	return id, ok
}

// Vote builds this client's ballot. It refuses when there is nothing to vote
// on, the client already voted, or the client is the one being voted on.
func (m *Mirror) Vote(accepted bool) (protocol.ElectionVoteCast, bool) {
	if m.poll == nil || m.poll.Voted || m.poll.Target == m.self || m.poll.Requester == m.self {
		return protocol.ElectionVoteCast{}, false
	}
	m.poll.Voted = true
	return protocol.ElectionVoteCast{Accepted: accepted}, true
}

func (m *Mirror) Apply(msg protocol.Message) {
	switch msg := msg.(type) {
	case protocol.Welcome:
		// Also re-sent after a side change; a poll seen on the old side is
		// no longer ours to vote on.
		if m.side != msg.Side {
			m.poll = nil
		}
		m.self = msg.Participant
		m.side = msg.Side

	case protocol.ElectionOpened:
		m.poll = &Poll{
			Requester:  msg.Requester,
			Target:     msg.Target,
			IsDemotion: msg.IsDemotion,
			Side:       m.side,
		}
		m.presenter.Sound(SoundPollOpened)
		switch {
		case msg.Target == m.self && msg.IsDemotion:
			m.presenter.Text(fmt.Sprintf("%s started a vote to demote you", msg.Requester))
		case msg.Target == m.self:
			m.presenter.Text(fmt.Sprintf("%s started a vote to make you commander", msg.Requester))
		case msg.IsDemotion:
			m.presenter.Text(fmt.Sprintf("%s wants to demote %s", msg.Requester, msg.Target))
		default:
			m.presenter.Text(fmt.Sprintf("%s wants %s as commander", msg.Requester, msg.Target))
		}

	case protocol.ElectionProgress:
		if m.poll == nil {
			break
		}
		m.poll.Side = msg.Side
		m.poll.Accepted = msg.Accepted
		m.poll.Rejected = msg.Rejected

	case protocol.ElectionClosed:
		if m.poll != nil && m.poll.Target == msg.Target {
			m.poll = nil
		}
		if msg.Accepted {
			m.presenter.Sound(SoundPollAccepted)
			m.presenter.Text(fmt.Sprintf("vote on %s passed", msg.Target))
		} else {
			m.presenter.Sound(SoundPollDeclined)
			m.presenter.Text(fmt.Sprintf("vote on %s failed", msg.Target))
		}

	case protocol.ElectionCancelled:
		if m.poll != nil && m.poll.Side == msg.Side {
			m.poll = nil
			m.presenter.Text("the commander vote was cancelled")
		}

	case protocol.ElectionRejected:
		m.presenter.Sound(SoundRejected)
		m.presenter.Text(describe(msg.Reason))

	case protocol.ChatCommandRejected:
		m.presenter.Sound(SoundRejected)
		m.presenter.Text(fmt.Sprintf("%s (wait %.1fs)", describe(msg.Reason), msg.Cooldown))

	case protocol.CommanderUpdated:
		if msg.Commander == battle.NoParticipant {
			delete(m.commanders, msg.Side)
		} else {
			m.commanders[msg.Side] = msg.Commander
		}

	case protocol.CommanderEliminated:
		m.presenter.Text(fmt.Sprintf("commander %s was killed by %s", msg.Commander, msg.Killer))

	case protocol.OrderAnnounced:
		m.presenter.Text(fmt.Sprintf("[%s] %s", msg.Commander, msg.Text))

	case protocol.Error:
		m.presenter.Text("server: " + msg.Message)
	}
}

func describe(r protocol.Reason) string {
	switch r {
	case protocol.ReasonTargetNotSynced:
		return "that player is not ready yet"
	case protocol.ReasonHasOngoingPoll:
		return "another vote is already running"
	case protocol.ReasonTargetIsMuted:
		return "that player is muted"
	case protocol.ReasonTooManyPollRequests:
		return "you have made too many requests"
	case protocol.ReasonNotEnoughPlayersToOpenPoll:
		return "not enough players to vote"
	default:
		return string(r)
	}
}

type nopPresenter struct{}

func (nopPresenter) Text(string) {}
func (nopPresenter) Sound(Sound) {}
