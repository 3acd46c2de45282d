package election

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/commander-election/internal/battle"
	"github.com/DoyleJ11/commander-election/internal/protocol"
)

const atk = battle.SideAttacker

func TestAccepted_StrictMajorityOfCastBallots(t *testing.T) {
	cases := []struct {
		name      string
		yes, no   int
		threshold float64
		want      bool
	}{
		{name: "six to four", yes: 6, no: 4, threshold: 0.5, want: true},
		{name: "tie", yes: 5, no: 5, threshold: 0.5, want: false},
		{name: "no ballots", yes: 0, no: 0, threshold: 0.5, want: false},
		{name: "unanimous", yes: 3, no: 0, threshold: 0.5, want: true},
		{name: "two to one", yes: 2, no: 1, threshold: 0.5, want: true},
		{name: "epsilon threshold still passes 6/4", yes: 6, no: 4, threshold: 0.50001, want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Accepted(tc.yes, tc.no, tc.threshold))
		})
	}
}

func TestManager_EndToEndPromotion(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "R", "T", "V1", "V2")

	p := f.open(t, "R", "T", false)

	assert.Equal(t, []battle.ParticipantID{"V1", "V2"}, p.EligibleVoters(), "requester already voted, target never votes")
	assert.Equal(t, 3, p.InitialVoters())
	assert.Equal(t, []battle.ParticipantID{"R", "V1", "V2", "T"}, f.transport.recipients(protocol.KindElectionOpened))
	yes, no := p.Tally()
	assert.Equal(t, 1, yes)
	assert.Equal(t, 0, no)

	require.True(t, f.mgr.Vote("V1", true))
	_, open := f.mgr.Poll(atk)
	require.True(t, open, "V2 has not voted yet")

	f.transport.reset()
	require.True(t, f.mgr.Vote("V2", false))

	_, open = f.mgr.Poll(atk)
	assert.False(t, open)
	assert.Equal(t, StateClosed, p.State())

	commander, ok := f.mgr.Commanders().Commander(atk)
	require.True(t, ok)
	assert.Equal(t, battle.ParticipantID("T"), commander)

	require.Len(t, f.transport.broadcast, 2)
	assert.Equal(t, protocol.CommanderUpdated{Side: atk, Commander: "T"}, f.transport.broadcast[0])
	assert.Equal(t, protocol.ElectionClosed{Target: "T", Accepted: true}, f.transport.broadcast[1])

	stats := f.mgr.Stats()
	assert.Equal(t, 1, stats.Opened)
	assert.Equal(t, 1, stats.Accepted)
}

func TestManager_ProgressGoesToVotersRequesterAndTarget(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "R", "T", "V1", "V2")
	f.open(t, "R", "T", false)

	f.transport.reset()
	require.True(t, f.mgr.Vote("V1", false))

	assert.Equal(t, []battle.ParticipantID{"V2", "R", "T"}, f.transport.recipients(protocol.KindElectionProgress))
	assert.Equal(t, protocol.ElectionProgress{Accepted: 1, Rejected: 1, Side: atk}, f.transport.unicast[0].Msg)
}

func TestManager_RequestElectionRejections(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T, f *fixture)
		want  protocol.Reason
	}{
		{
			name:  "warm-up",
			setup: func(t *testing.T, f *fixture) { f.match.warmingUp = true },
			want:  protocol.ReasonTargetNotSynced,
		},
		{
			name:  "kick poll active",
			setup: func(t *testing.T, f *fixture) { f.match.kickPoll = true },
			want:  protocol.ReasonHasOngoingPoll,
		},
		{
			name: "target muted",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, f.roster.SetRestrictions("T", true, false))
			},
			want: protocol.ReasonTargetIsMuted,
		},
		{
			name: "target chat restricted",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, f.roster.SetRestrictions("T", false, true))
			},
			want: protocol.ReasonTargetIsMuted,
		},
		{
			name: "side already has an election",
			setup: func(t *testing.T, f *fixture) {
				f.open(t, "V1", "V2", false)
			},
			want: protocol.ReasonHasOngoingPoll,
		},
		{
			name: "target not synchronized",
			setup: func(t *testing.T, f *fixture) {
				f.roster.Remove("T")
				f.roster.Add("T", atk)
			},
			want: protocol.ReasonTargetNotSynced,
		},
		{
			name: "requester already used their request",
			setup: func(t *testing.T, f *fixture) {
				f.open(t, "R", "V1", false)
				require.True(t, f.mgr.Cancel(atk))
			},
			want: protocol.ReasonTooManyPollRequests,
		},
		{
			name: "not enough voters",
			setup: func(t *testing.T, f *fixture) {
				f.roster.Remove("V1")
				f.roster.Remove("V2")
			},
			want: protocol.ReasonNotEnoughPlayersToOpenPoll,
		},
		{
			name: "warm-up checked before mute",
			setup: func(t *testing.T, f *fixture) {
				f.match.warmingUp = true
				require.NoError(t, f.roster.SetRestrictions("T", true, true))
			},
			want: protocol.ReasonTargetNotSynced,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, DefaultConfig())
			f.join(t, atk, "R", "T", "V1", "V2")
			tc.setup(t, f)
			f.transport.reset()

			p, reason := f.mgr.RequestElection(t0, "R", "T", false)

			assert.Nil(t, p)
			assert.Equal(t, tc.want, reason)
			require.Len(t, f.transport.unicast, 1, "rejection goes to the requester only")
			assert.Equal(t, sent{To: "R", Msg: protocol.ElectionRejected{Reason: tc.want}}, f.transport.unicast[0])
			assert.Empty(t, f.transport.broadcast)
			assert.Equal(t, 1, f.mgr.Stats().Rejections[tc.want])
		})
	}
}

func TestManager_DisconnectedRequesterIsIgnoredSilently(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "T", "V1", "V2")

	p, reason := f.mgr.RequestElection(t0, "ghost", "T", false)

	assert.Nil(t, p)
	assert.Empty(t, reason)
	assert.Empty(t, f.transport.unicast)
	assert.Zero(t, f.mgr.Throttle().Count("ghost"))
}

func TestManager_RequesterOnOtherSideIsIgnored(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "T", "V1", "V2")
	f.join(t, battle.SideDefender, "D")

	p, reason := f.mgr.RequestElection(t0, "D", "T", false)

	assert.Nil(t, p)
	assert.Empty(t, reason)
	assert.Empty(t, f.transport.unicast)
}

func TestManager_ThrottleSurvivesOutcomeAndTarget(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "R", "T", "V1", "V2")

	f.open(t, "R", "T", false)
	require.True(t, f.mgr.Vote("V1", false))
	require.True(t, f.mgr.Vote("V2", false))
	_, open := f.mgr.Poll(atk)
	require.False(t, open)

	p, reason := f.mgr.RequestElection(t0.Add(time.Minute), "R", "V1", false)
	assert.Nil(t, p)
	assert.Equal(t, protocol.ReasonTooManyPollRequests, reason)
	assert.Equal(t, 1, f.mgr.Throttle().Count("R"))
}

func TestManager_NoDoubleVoting(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "R", "T", "V1", "V2", "V3")
	p := f.open(t, "R", "T", false)

	require.True(t, f.mgr.ApplyVote("V1", p, true))
	assert.False(t, f.mgr.ApplyVote("V1", p, false))
	assert.False(t, f.mgr.ApplyVote("R", p, false), "requester already voted")
	assert.False(t, f.mgr.ApplyVote("T", p, true), "target never votes")

	yes, no := p.Tally()
	assert.Equal(t, 2, yes)
	assert.Equal(t, 0, no)
}

func TestManager_TimeoutResolvesWithCurrentTally(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "R", "T", "V1", "V2")
	p := f.open(t, "R", "T", false)

	f.mgr.Tick(t0.Add(29 * time.Second))
	_, open := f.mgr.Poll(atk)
	require.True(t, open)

	f.mgr.Tick(t0.Add(30 * time.Second))
	_, open = f.mgr.Poll(atk)
	require.False(t, open)
	assert.Equal(t, StateClosed, p.State())

	commander, _ := f.mgr.Commanders().Commander(atk)
	assert.Equal(t, battle.ParticipantID("T"), commander, "the requester's ballot alone is a majority of cast ballots")
}

func TestManager_EarlyFinalizeWhenRemainingVotersDisconnect(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "R", "T", "V1", "V2")
	p := f.open(t, "R", "T", false)

	require.True(t, f.mgr.Vote("V1", false))
	f.roster.Remove("V2")
	f.transport.reset()

	f.mgr.Tick(t0.Add(time.Second))

	assert.Equal(t, StateClosed, p.State())
	_, ok := f.mgr.Commanders().Commander(atk)
	assert.False(t, ok, "1/2 is not a strict majority")
	require.Len(t, f.transport.broadcast, 2)
	assert.Equal(t, protocol.CommanderUpdated{Side: atk}, f.transport.broadcast[0])
	assert.Equal(t, protocol.ElectionClosed{Target: "T", Accepted: false}, f.transport.broadcast[1])
}

func TestManager_DisconnectKeepsRecordedTallies(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "R", "T", "V1", "V2", "V3")
	p := f.open(t, "R", "T", false)

	require.True(t, f.mgr.Vote("V1", true))
	f.roster.Remove("V1")
	f.roster.Remove("V2")
	f.mgr.Tick(t0.Add(time.Second))

	yes, no := p.Tally()
	assert.Equal(t, 2, yes)
	assert.Equal(t, 0, no)
	assert.Equal(t, []battle.ParticipantID{"V3"}, p.EligibleVoters())
	assert.Equal(t, StateOpen, p.State())
}

func TestManager_OnePollPerSideAndSidesAreIndependent(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "A1", "A2", "A3")
	f.join(t, battle.SideDefender, "D1", "D2", "D3")

	f.open(t, "A1", "A2", false)
	f.open(t, "D1", "D2", true)

	_, reason := f.mgr.RequestElection(t0, "A3", "A1", false)
	assert.Equal(t, protocol.ReasonHasOngoingPoll, reason)

	require.True(t, f.mgr.Vote("D3", true))
	_, open := f.mgr.Poll(battle.SideDefender)
	assert.False(t, open)
	_, open = f.mgr.Poll(atk)
	assert.True(t, open, "the attacker election is unaffected")
}

func TestManager_CancelTearsDownWithoutTally(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "R", "T", "V1", "V2")
	p := f.open(t, "R", "T", false)
	f.transport.reset()

	require.True(t, f.mgr.Cancel(atk))

	assert.Equal(t, StateCancelled, p.State())
	assert.Equal(t, []battle.ParticipantID{"V1", "V2", "R", "T"}, f.transport.recipients(protocol.KindElectionCancelled))
	assert.Empty(t, f.transport.broadcast)
	assert.False(t, f.mgr.Vote("V1", true), "ballots for a cancelled poll are stale")
	assert.False(t, f.mgr.Cancel(atk))
	assert.Equal(t, 1, f.mgr.Stats().Cancelled)
}

func TestManager_StaleBallotAfterResolution(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "R", "T", "V1", "V2", "V3")
	p := f.open(t, "R", "T", false)

	f.mgr.Tick(t0.Add(time.Hour))
	require.Equal(t, StateClosed, p.State())

	assert.False(t, f.mgr.Vote("V1", true))
	assert.False(t, f.mgr.ApplyVote("V1", p, true))
}

func TestManager_AcceptedDemotionClearsCommander(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "R", "T", "V1", "V2")
	f.mgr.Commanders().Assign(atk, "T")

	f.open(t, "R", "T", true)
	require.True(t, f.mgr.Vote("V1", true))
	require.True(t, f.mgr.Vote("V2", true))

	_, ok := f.mgr.Commanders().Commander(atk)
	assert.False(t, ok)
}

func TestManager_CommanderLeavingDoesNotCancelElection(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "R", "C", "V1", "V2", "V3")
	f.mgr.Commanders().Assign(atk, "C")

	p := f.open(t, "R", "V1", true)
	f.transport.reset()

	f.roster.Remove("C")
	f.mgr.ParticipantLeft("C")

	assert.Equal(t, []protocol.Message{protocol.CommanderUpdated{Side: atk}}, f.transport.broadcast)
	got, open := f.mgr.Poll(atk)
	require.True(t, open)
	assert.Same(t, p, got)

	f.mgr.Tick(t0.Add(time.Second))
	assert.Equal(t, []battle.ParticipantID{"V2", "V3"}, p.EligibleVoters())
}

func TestManager_SideChangeReleasesCommander(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "C")
	f.mgr.Commanders().Assign(atk, "C")

	f.mgr.ParticipantChangedSide("C", atk, atk)
	_, ok := f.mgr.Commanders().Commander(atk)
	require.True(t, ok, "no real move, nothing to release")

	f.mgr.ParticipantChangedSide("C", atk, battle.SideDefender)
	_, ok = f.mgr.Commanders().Commander(atk)
	assert.False(t, ok)
}

func TestManager_CloseCancelsEverySide(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "A1", "A2", "A3")
	f.join(t, battle.SideDefender, "D1", "D2", "D3")
	f.open(t, "A1", "A2", false)
	f.open(t, "D1", "D2", false)

	f.mgr.Close()

	_, open := f.mgr.Poll(atk)
	assert.False(t, open)
	_, open = f.mgr.Poll(battle.SideDefender)
	assert.False(t, open)
	assert.Equal(t, 2, f.mgr.Stats().Cancelled)
}

func TestManager_UnsynchronizedMembersDoNotVote(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "R", "T", "V1", "V2")
	f.roster.Add("loading", atk)

	p := f.open(t, "R", "T", false)

	assert.NotContains(t, p.EligibleVoters(), battle.ParticipantID("loading"))
	assert.NotContains(t, f.transport.recipients(protocol.KindElectionOpened), battle.ParticipantID("loading"))
}

func TestManager_PassedPromotionSkipsTargetWhoLeft(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "R", "T", "V1", "V2")
	f.open(t, "R", "T", false)

	f.roster.Remove("T")
	f.mgr.ParticipantLeft("T")
	f.transport.reset()

	require.True(t, f.mgr.Vote("V1", true))
	require.True(t, f.mgr.Vote("V2", true))

	_, ok := f.mgr.Commanders().Commander(atk)
	assert.False(t, ok)
	assert.Equal(t, []protocol.Message{
		protocol.CommanderUpdated{Side: atk},
		protocol.ElectionClosed{Target: "T", Accepted: true},
	}, f.transport.broadcast)
}

func TestManager_PassedPromotionSkipsTargetWhoSwitchedSides(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.join(t, atk, "R", "T", "V1", "V2")
	f.open(t, "R", "T", false)

	require.NoError(t, f.roster.SetSide("T", battle.SideDefender))
	f.mgr.ParticipantChangedSide("T", atk, battle.SideDefender)

	require.True(t, f.mgr.Vote("V1", true))
	require.True(t, f.mgr.Vote("V2", true))

	_, ok := f.mgr.Commanders().Commander(atk)
	assert.False(t, ok, "attackers must not be led from the other side")
	_, ok = f.mgr.Commanders().Commander(battle.SideDefender)
	assert.False(t, ok)
	assert.Equal(t, 1, f.mgr.Stats().Accepted)
}
