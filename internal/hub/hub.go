package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/commander-election/internal/match"
)

type HubMsg interface{ isHubMsg() }

type CreateMatch struct {
	Code  string
	Reply chan *match.Match
}

type GetMatch struct {
	Code  string
	Reply chan *match.Match
}

type EnsureMatch struct {
	Code  string
	Reply chan *match.Match
}

// RemoveMatch shuts the match down and forgets it. The next match under the
// same code starts with fresh election state.
type RemoveMatch struct {
	Code string
}

type Hub struct {
	inbox   chan HubMsg
	matches map[string]*match.Match
	cfg     match.Config
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

type ShutdownHub struct{}

func (CreateMatch) isHubMsg() {}
func (GetMatch) isHubMsg()    {}
func (EnsureMatch) isHubMsg() {}
func (RemoveMatch) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

func NewHub(parent context.Context, cfg match.Config, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		matches: make(map[string]*match.Match),
		cfg:     cfg,
		log:     log.Named("hub"),
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateMatch, EnsureMatch:
				code, reply := codeAndReply(msg)
				if mt := h.matches[code]; mt != nil {
					reply <- mt
					break
				}
				mt := match.NewMatch(h.ctx, code, h.cfg, h.log)
				h.matches[code] = mt
				h.log.Info("match created", zap.String("match", code))
				reply <- mt

			case GetMatch:
				msg.Reply <- h.matches[msg.Code] // May be nil

			case RemoveMatch:
				if mt := h.matches[msg.Code]; mt != nil {
					stop(mt)
					delete(h.matches, msg.Code)
					h.log.Info("match removed", zap.String("match", msg.Code))
				}

			case ShutdownHub:
				for _, mt := range h.matches {
					stop(mt)
				}
				clear(h.matches)
				h.cancel()
			}
		}
	}
}

// stop asks mt to shut down without blocking the hub on a full inbox. A
// match whose loop already exited needs nothing.
func stop(mt *match.Match) {
	select {
	case mt.Inbox() <- match.Shutdown{}:
	case <-mt.Done():
	default:
		go func() {
			select {
			case mt.Inbox() <- match.Shutdown{}:
			case <-mt.Done():
			}
		}()
	}
}

func codeAndReply(m HubMsg) (string, chan *match.Match) {
	switch msg := m.(type) {
	case CreateMatch:
		return msg.Code, msg.Reply
	case EnsureMatch:
		return msg.Code, msg.Reply
	}
	return "", nil
}
