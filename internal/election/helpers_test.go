package election

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/commander-election/internal/battle"
	"github.com/DoyleJ11/commander-election/internal/protocol"
)

type sent struct {
	To  battle.ParticipantID
	Msg protocol.Message
}

type fakeTransport struct {
	unicast   []sent
	broadcast []protocol.Message
}

func (f *fakeTransport) Send(to battle.ParticipantID, msg protocol.Message) {
	f.unicast = append(f.unicast, sent{To: to, Msg: msg})
}

func (f *fakeTransport) Broadcast(msg protocol.Message) {
	f.broadcast = append(f.broadcast, msg)
}

func (f *fakeTransport) reset() {
	f.unicast = nil
	f.broadcast = nil
}

// recipients returns who received a unicast of kind k, in send order.
func (f *fakeTransport) recipients(k protocol.Kind) []battle.ParticipantID {
	var out []battle.ParticipantID
	for _, s := range f.unicast {
		if s.Msg.Kind() == k {
			out = append(out, s.To)
		}
	}
	return out
}

func (f *fakeTransport) broadcasts(k protocol.Kind) []protocol.Message {
	var out []protocol.Message
	for _, m := range f.broadcast {
		if m.Kind() == k {
			out = append(out, m)
		}
	}
	return out
}

type fakeMatch struct {
	warmingUp bool
	kickPoll  bool
}

func (f *fakeMatch) WarmingUp() bool      { return f.warmingUp }
func (f *fakeMatch) KickPollActive() bool { return f.kickPoll }

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	mgr       *Manager
	roster    *battle.Roster
	transport *fakeTransport
	match     *fakeMatch
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		roster:    battle.NewRoster(),
		transport: &fakeTransport{},
		match:     &fakeMatch{},
	}
	f.mgr = NewManager(cfg, f.roster, f.transport, f.match, nil)
	return f
}

func (f *fixture) join(t *testing.T, side battle.Side, ids ...battle.ParticipantID) {
	t.Helper()
	for _, id := range ids {
		f.roster.Add(id, side)
		require.NoError(t, f.roster.SetSynchronized(id))
	}
}

// open requests an election that is expected to succeed.
func (f *fixture) open(t *testing.T, requester, target battle.ParticipantID, demotion bool) *Poll {
	t.Helper()
	p, reason := f.mgr.RequestElection(t0, requester, target, demotion)
	require.Empty(t, reason)
	require.NotNil(t, p)
	return p
}
