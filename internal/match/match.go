package match

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/commander-election/internal/battle"
	"github.com/DoyleJ11/commander-election/internal/chatcmd"
	"github.com/DoyleJ11/commander-election/internal/election"
	"github.com/DoyleJ11/commander-election/internal/protocol"
)

type Config struct {
	Election      election.Config
	TickInterval  time.Duration // 0 disables the internal ticker
	OrderCooldown time.Duration
	WarmUp        bool // start in warm-up until StartRound
	InboxSize     int
}

func DefaultConfig() Config {
	return Config{
		Election:      election.DefaultConfig(),
		TickInterval:  100 * time.Millisecond,
		OrderCooldown: 5 * time.Second,
		WarmUp:        true,
		InboxSize:     64,
	}
}

// LifecycleObserver is told about roster changes that matter outside the
// roster itself. Calls happen on the match loop.
type LifecycleObserver interface {
	ParticipantLeft(id battle.ParticipantID)
	ParticipantChangedSide(id battle.ParticipantID, from, to battle.Side)
}

// Match is a single battle. One goroutine owns all of its state; everything
// else talks to it through Inbox.
type Match struct {
	code      string
	cfg       Config
	inbox     chan Msg
	roster    *battle.Roster
	elections *election.Manager
	orders    *chatcmd.Cooldown
	clients   map[battle.ParticipantID]chan protocol.Message
	dropped   []battle.ParticipantID
	observers []LifecycleObserver
	warmingUp bool
	kickPoll  bool
	now       func() time.Time
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewMatch(parent context.Context, code string, cfg Config, log *zap.Logger) *Match {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 64
	}
	ctx, cancel := context.WithCancel(parent)

	m := &Match{
		code:      code,
		cfg:       cfg,
		inbox:     make(chan Msg, cfg.InboxSize),
		roster:    battle.NewRoster(),
		orders:    chatcmd.NewCooldown(cfg.OrderCooldown),
		clients:   make(map[battle.ParticipantID]chan protocol.Message),
		warmingUp: cfg.WarmUp,
		now:       time.Now,
		log:       log.Named("match").With(zap.String("match", code)),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	m.elections = election.NewManager(cfg.Election, m.roster, transport{m}, phase{m}, m.log)

	go m.loop()
	return m
}

// Inbox exposes the inbox so the ws layer and tests can send messages.
func (m *Match) Inbox() chan<- Msg { return m.inbox }

// Done is closed once the loop has exited.
func (m *Match) Done() <-chan struct{} { return m.done }

func (m *Match) Code() string { return m.code }

func (m *Match) observe(o LifecycleObserver) (unsubscribe func()) {
	m.observers = append(m.observers, o)
	return func() {
		for i, cur := range m.observers {
			if cur == o {
				m.observers = append(m.observers[:i], m.observers[i+1:]...)
				return
			}
		}
	}
}

func (m *Match) loop() {
	defer close(m.done)

	unsubscribe := m.observe(m.elections)
	defer unsubscribe()

	var tick <-chan time.Time
	if m.cfg.TickInterval > 0 {
		t := time.NewTicker(m.cfg.TickInterval)
		defer t.Stop()
		tick = t.C
	}

	m.log.Info("match started", zap.Bool("warm_up", m.warmingUp))

	for {
		select {
		case <-m.ctx.Done():
			m.shutdown()
			return

		case now := <-tick:
			m.elections.Tick(now)

		case msg := <-m.inbox:
			if stop := m.handle(msg); stop {
				m.shutdown()
				return
			}
		}
		m.flushDropped()
	}
}

func (m *Match) handle(msg Msg) (stop bool) {
	switch msg := msg.(type) {
	case Join:
		m.join(msg)

	case Leave:
		if ch, ok := m.clients[msg.ClientID]; ok {
			close(ch)
			delete(m.clients, msg.ClientID)
		}
		m.depart(msg.ClientID)

	case FromClient:
		if _, ok := m.clients[msg.ClientID]; !ok {
			// late frame from a client we already dropped
			break
		}
		m.fromClient(msg.ClientID, msg.Msg)

	case ChangeSide:
		from := m.roster.Side(msg.ClientID)
		if err := m.roster.SetSide(msg.ClientID, msg.Side); err != nil {
			m.log.Debug("change side", zap.String("participant", string(msg.ClientID)), zap.Error(err))
			break
		}
		for _, o := range m.observers {
			o.ParticipantChangedSide(msg.ClientID, from, msg.Side)
		}
		if from != msg.Side {
			m.send(msg.ClientID, protocol.Welcome{Participant: msg.ClientID, Side: msg.Side})
		}

	case SetRestrictions:
		if err := m.roster.SetRestrictions(msg.ClientID, msg.Muted, msg.ChatRestricted); err != nil {
			m.log.Debug("set restrictions", zap.String("participant", string(msg.ClientID)), zap.Error(err))
		}

	case StartRound:
		if m.warmingUp {
			m.warmingUp = false
			m.log.Info("round started")
		}

	case KickPollStarted:
		m.kickPoll = true

	case KickPollEnded:
		m.kickPoll = false

	case CancelElection:
		m.elections.Cancel(msg.Side)

	case UnitEliminated:
		m.elections.Commanders().UnitEliminated(msg.Killer, msg.Victim)

	case Tick:
		m.elections.Tick(msg.Now)

	case GetState:
		msg.Reply <- m.view()

	case Shutdown:
		return true
	}
	return false
}

func (m *Match) join(msg Join) {
	if old, ok := m.clients[msg.ClientID]; ok {
		close(old)
	}
	m.clients[msg.ClientID] = msg.Outbox
	m.roster.Add(msg.ClientID, msg.Side)
	m.log.Info("participant joined", zap.String("participant", string(msg.ClientID)), zap.String("side", string(msg.Side)))
	m.send(msg.ClientID, protocol.Welcome{Participant: msg.ClientID, Side: msg.Side})
}

// depart removes a participant that is no longer connected, whatever the
// reason, and tells the observers.
func (m *Match) depart(id battle.ParticipantID) {
	if _, ok := m.roster.Get(id); !ok {
		return
	}
	m.roster.Remove(id)
	m.orders.Forget(id)
	m.log.Info("participant left", zap.String("participant", string(id)))
	for _, o := range m.observers {
		o.ParticipantLeft(id)
	}
}

func (m *Match) fromClient(id battle.ParticipantID, msg protocol.Message) {
	switch msg := msg.(type) {
	case protocol.ClientReady:
		if err := m.roster.SetSynchronized(id); err != nil {
			return
		}
		m.elections.Commanders().Replay(id)

	case protocol.ElectionRequested:
		m.elections.RequestElection(m.now(), id, msg.Target, msg.IsDemotion)

	case protocol.ElectionVoteCast:
		if !m.elections.Vote(id, msg.Accepted) {
			m.log.Debug("stale ballot dropped", zap.String("participant", string(id)))
		}

	case protocol.ChatCommand:
		m.chatCommand(id, msg.Text)

	default:
		m.log.Debug("unexpected client message", zap.String("participant", string(id)), zap.String("type", string(msg.Kind())))
	}
}

func (m *Match) chatCommand(id battle.ParticipantID, text string) {
	cmd, err := chatcmd.Parse(text)
	switch {
	case errors.Is(err, chatcmd.ErrNotCommand):
		return
	case err != nil:
		m.send(id, protocol.Error{Message: err.Error()})
		return
	}

	switch cmd.Kind {
	case chatcmd.KindElect, chatcmd.KindDemote:
		// Election commands are never relayed as chat, so a rejected one
		// (e.g. TargetIsMuted) leaves nothing behind but the rejection.
		m.elections.RequestElection(m.now(), id, cmd.Target, cmd.Kind == chatcmd.KindDemote)

	case chatcmd.KindOrder:
		side := m.roster.Side(id)
		if side == battle.SideNone || m.elections.Commanders().SideOf(id) != side {
			return
		}
		if left, ok := m.orders.Try(id, m.now()); !ok {
			m.send(id, protocol.ChatCommandRejected{
				Reason:   protocol.ReasonTooManyPollRequests,
				Cooldown: float32(left.Seconds()),
			})
			return
		}
		order := protocol.OrderAnnounced{Commander: id, Text: cmd.Text}
		for _, member := range m.roster.Members(side) {
			m.send(member, order)
		}
	}
}

// send delivers to one client. A client whose outbox is full is dropped, as
// in broadcast.
func (m *Match) send(to battle.ParticipantID, msg protocol.Message) {
	ch, ok := m.clients[to]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		m.drop(to)
	}
}

func (m *Match) broadcast(msg protocol.Message) {
	for id, ch := range m.clients {
		select {
		case ch <- msg:
			//ok
		default:
			// Client is slow/full - drop them.
			m.drop(id)
		}
	}
}

// drop closes a slow client's outbox now and defers the roster departure
// until the current message is fully handled.
func (m *Match) drop(id battle.ParticipantID) {
	ch, ok := m.clients[id]
	if !ok {
		return
	}
	close(ch)
	delete(m.clients, id)
	m.dropped = append(m.dropped, id)
	m.log.Warn("dropping slow client", zap.String("participant", string(id)))
}

func (m *Match) flushDropped() {
	for len(m.dropped) > 0 {
		id := m.dropped[0]
		m.dropped = m.dropped[1:]
		m.depart(id)
	}
}

func (m *Match) shutdown() {
	m.elections.Close()
	for id, ch := range m.clients {
		close(ch) // Tell client no more messages
		delete(m.clients, id)
	}
	m.dropped = nil
	m.cancel()
	m.log.Info("match stopped", zap.Any("stats", m.elections.Stats()))
}

func (m *Match) view() View {
	v := View{
		Code:           m.code,
		WarmingUp:      m.warmingUp,
		KickPollActive: m.kickPoll,
		NumClients:     len(m.clients),
		Commanders:     make(map[battle.Side]battle.ParticipantID),
		Polls:          make(map[battle.Side]PollView),
		Stats:          m.elections.Stats(),
	}
	for _, side := range battle.Sides {
		if c, ok := m.elections.Commanders().Commander(side); ok {
			v.Commanders[side] = c
		}
		if p, ok := m.elections.Poll(side); ok {
			yes, no := p.Tally()
			v.Polls[side] = PollView{
				Requester:      p.Requester,
				Target:         p.Target,
				IsDemotion:     p.IsDemotion,
				Accepted:       yes,
				Rejected:       no,
				EligibleVoters: len(p.EligibleVoters()),
				Deadline:       p.Deadline(),
			}
		}
	}
	return v
}

// transport adapts the match's client outboxes to election.Transport.
type transport struct{ m *Match }

func (t transport) Send(to battle.ParticipantID, msg protocol.Message) { t.m.send(to, msg) }
func (t transport) Broadcast(msg protocol.Message)                     { t.m.broadcast(msg) }

type phase struct{ m *Match }

func (p phase) WarmingUp() bool      { return p.m.warmingUp }
func (p phase) KickPollActive() bool { return p.m.kickPoll }
