package election

import (
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/commander-election/internal/battle"
	"github.com/DoyleJ11/commander-election/internal/protocol"
)

// Manager owns the live polls of one match, at most one per side, and is the
// only writer of the commander registry. Build a fresh Manager per match.
type Manager struct {
	cfg        Config
	roster     Roster
	transport  Transport
	match      MatchState
	commanders *CommanderRegistry
	throttle   *RequestThrottle
	live       map[battle.Side]*Poll
	stats      Stats
	log        *zap.Logger
}

func NewManager(cfg Config, roster Roster, transport Transport, match MatchState, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cfg:        cfg,
		roster:     roster,
		transport:  transport,
		match:      match,
		commanders: NewCommanderRegistry(transport),
		throttle:   NewRequestThrottle(cfg.MaxRequestsPerMatch),
		live:       make(map[battle.Side]*Poll),
		stats:      newStats(),
		log:        log.Named("election"),
	}
}

func (m *Manager) Commanders() *CommanderRegistry { return m.commanders }

func (m *Manager) Throttle() *RequestThrottle { return m.throttle }

// Poll returns the open poll for side, if any.
func (m *Manager) Poll(side battle.Side) (*Poll, bool) {
	p, ok := m.live[side]
	return p, ok
}

func (m *Manager) Stats() Stats { return m.stats.clone() }

// RequestElection validates and opens a poll. It returns the opened poll, or
// the rejection reason already sent to the requester. When both are zero the
// request was dropped without a reply.
func (m *Manager) RequestElection(now time.Time, requester, target battle.ParticipantID, isDemotion bool) (*Poll, protocol.Reason) {
	if m.match.WarmingUp() {
		return nil, m.reject(requester, target, protocol.ReasonTargetNotSynced)
	}
	if m.match.KickPollActive() {
		return nil, m.reject(requester, target, protocol.ReasonHasOngoingPoll)
	}
	if m.roster.IsMuted(target) || m.roster.HasChatRestriction(target) {
		return nil, m.reject(requester, target, protocol.ReasonTargetIsMuted)
	}
	side := m.roster.Side(target)
	if _, open := m.live[side]; open {
		return nil, m.reject(requester, target, protocol.ReasonHasOngoingPoll)
	}
	if !m.roster.IsConnected(requester) || !m.roster.IsConnected(target) {
		m.log.Debug("election request dropped: not connected",
			zap.String("requester", string(requester)), zap.String("target", string(target)))
		return nil, ""
	}
	if side == battle.SideNone || m.roster.Side(requester) != side {
		m.log.Debug("election request dropped: requester not on target side",
			zap.String("requester", string(requester)), zap.String("target", string(target)))
		return nil, ""
	}
	if !m.roster.IsSynchronized(target) {
		return nil, m.reject(requester, target, protocol.ReasonTargetNotSynced)
	}
	if !m.throttle.Allow(requester) {
		return nil, m.reject(requester, target, protocol.ReasonTooManyPollRequests)
	}

	voters := m.eligibleVoters(side, requester, target)
	if len(voters) < m.cfg.MinEligibleVoters {
		return nil, m.reject(requester, target, protocol.ReasonNotEnoughPlayersToOpenPoll)
	}

	p := newPoll(requester, target, isDemotion, side, voters, now, m.cfg.Timeout)
	m.throttle.Record(requester)
	m.live[side] = p
	m.stats.Opened++

	m.log.Info("election opened",
		zap.String("side", string(side)),
		zap.String("requester", string(requester)),
		zap.String("target", string(target)),
		zap.Bool("demotion", isDemotion),
		zap.Int("voters", len(voters)))

	opened := protocol.ElectionOpened{Requester: requester, Target: target, IsDemotion: isDemotion}
	for _, id := range voters {
		m.transport.Send(id, opened)
	}
	if !slices.Contains(voters, target) {
		m.transport.Send(target, opened)
	}

	m.ApplyVote(requester, p, true)
	m.finalizeIfDrained(p)
	return p, ""
}

// eligibleVoters captures the synchronized members of side except target.
// The requester always votes on their own request.
func (m *Manager) eligibleVoters(side battle.Side, requester, target battle.ParticipantID) []battle.ParticipantID {
	var voters []battle.ParticipantID
	for _, id := range m.roster.Members(side) {
		if id == target {
			continue
		}
		if id == requester || m.roster.IsSynchronized(id) {
			voters = append(voters, id)
		}
	}
	return voters
}

func (m *Manager) reject(requester, target battle.ParticipantID, reason protocol.Reason) protocol.Reason {
	m.stats.Rejections[reason]++
	m.log.Debug("election request rejected",
		zap.String("requester", string(requester)),
		zap.String("target", string(target)),
		zap.String("reason", string(reason)))
	m.transport.Send(requester, protocol.ElectionRejected{Reason: reason})
	return reason
}

// ApplyVote records a ballot on p. It is a no-op returning false when the
// participant is not an eligible voter or p is no longer live.
func (m *Manager) ApplyVote(id battle.ParticipantID, p *Poll, accepted bool) bool {
	if p == nil || m.live[p.Side] != p {
		return false
	}
	if !p.applyVote(id, accepted) {
		return false
	}
	m.log.Debug("ballot cast",
		zap.String("side", string(p.Side)),
		zap.String("voter", string(id)),
		zap.Bool("accepted", accepted))

	progress := protocol.ElectionProgress{Accepted: p.accepted, Rejected: p.rejected, Side: p.Side}
	for _, to := range p.audience() {
		m.transport.Send(to, progress)
	}
	return true
}

// Vote routes a ballot to the open poll on the voter's current side and
// resolves it at once if nobody is left to vote. Ballots without a matching
// poll are stale and dropped.
func (m *Manager) Vote(id battle.ParticipantID, accepted bool) bool {
	p, ok := m.live[m.roster.Side(id)]
	if !ok {
		return false
	}
	if !m.ApplyVote(id, p, accepted) {
		return false
	}
	m.finalizeIfDrained(p)
	return true
}

// Tick advances every open poll by one simulation step.
func (m *Manager) Tick(now time.Time) {
	for _, side := range battle.Sides {
		p, ok := m.live[side]
		if !ok {
			continue
		}
		dropped := p.prune(func(id battle.ParticipantID) bool { return !m.roster.IsConnected(id) })
		for _, id := range dropped {
			m.log.Debug("voter pruned", zap.String("side", string(side)), zap.String("voter", string(id)))
		}

		switch {
		case p.expired(now):
			m.resolve(p, "timeout")
		case len(p.eligible) == 0:
			m.resolve(p, "finalized")
		}
	}
}

func (m *Manager) finalizeIfDrained(p *Poll) {
	if m.live[p.Side] == p && len(p.eligible) == 0 {
		m.resolve(p, "finalized")
	}
}

func (m *Manager) resolve(p *Poll, cause string) {
	accepted := Accepted(p.accepted, p.rejected, m.cfg.AcceptThreshold)
	p.state = StateClosed
	delete(m.live, p.Side)

	switch {
	case accepted && p.IsDemotion:
		m.commanders.Clear(p.Side)
	case accepted && !m.canCommand(p.Target, p.Side):
		// The target left or switched sides while the poll was open.
		m.log.Info("election passed but target is gone",
			zap.String("side", string(p.Side)), zap.String("target", string(p.Target)))
		m.commanders.Broadcast(p.Side)
	case accepted:
		m.commanders.Assign(p.Side, p.Target)
	default:
		m.commanders.Broadcast(p.Side)
	}
	m.transport.Broadcast(protocol.ElectionClosed{Target: p.Target, Accepted: accepted})

	if accepted {
		m.stats.Accepted++
	} else {
		m.stats.Declined++
	}
	m.log.Info("election closed",
		zap.String("side", string(p.Side)),
		zap.String("target", string(p.Target)),
		zap.String("cause", cause),
		zap.Bool("accepted", accepted),
		zap.Int("yes", p.accepted),
		zap.Int("no", p.rejected))
}

func (m *Manager) canCommand(id battle.ParticipantID, side battle.Side) bool {
	return m.roster.IsConnected(id) && m.roster.Side(id) == side
}

// Cancel tears down the open poll on side without tallying.
func (m *Manager) Cancel(side battle.Side) bool {
	p, ok := m.live[side]
	if !ok {
		return false
	}
	p.state = StateCancelled
	delete(m.live, side)

	cancelled := protocol.ElectionCancelled{Side: side}
	for _, to := range p.audience() {
		m.transport.Send(to, cancelled)
	}
	m.stats.Cancelled++
	m.log.Info("election cancelled", zap.String("side", string(side)), zap.String("target", string(p.Target)))
	return true
}

// Close cancels every open poll. Called when the match ends.
func (m *Manager) Close() {
	for _, side := range battle.Sides {
		m.Cancel(side)
	}
}

// ParticipantLeft releases a departing commander. Open polls are untouched;
// Tick prunes the voter.
func (m *Manager) ParticipantLeft(id battle.ParticipantID) {
	if m.commanders.Release(id) {
		m.log.Info("commander left", zap.String("participant", string(id)))
	}
}

// ParticipantChangedSide releases a commander who moved to another side.
func (m *Manager) ParticipantChangedSide(id battle.ParticipantID, from, to battle.Side) {
	if from == to {
		return
	}
	if m.commanders.Release(id) {
		m.log.Info("commander changed side",
			zap.String("participant", string(id)),
			zap.String("from", string(from)),
			zap.String("to", string(to)))
	}
}
