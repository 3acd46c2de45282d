package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/commander-election/internal/battle"
	"github.com/DoyleJ11/commander-election/internal/hub"
	"github.com/DoyleJ11/commander-election/internal/match"
	"github.com/DoyleJ11/commander-election/internal/protocol"
)

type Options struct {
	OutboxSize  int
	ReadTimeout time.Duration
}

func Handler(h *hub.Hub, opts Options, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ws")

	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		side, ok := battle.ParseSide(r.URL.Query().Get("side"))
		if !ok {
			http.Error(w, "bad side", http.StatusBadRequest)
			return
		}

		reply := make(chan *match.Match, 1)
		h.Inbox() <- hub.GetMatch{Code: code, Reply: reply}
		mt := <-reply
		if mt == nil {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan protocol.Message, opts.OutboxSize)
		clientID := battle.ParticipantID(uuid.NewString())
		clog := log.With(zap.String("match", code), zap.String("participant", string(clientID)))

		if !deliver(mt, match.Join{ClientID: clientID, Side: side, Outbox: out}) {
			return
		}
		defer deliver(mt, match.Leave{ClientID: clientID})

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range out {
				payload, err := protocol.Encode(msg)
				if err != nil {
					clog.Error("encode", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				err = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					clog.Debug("write failed", zap.Error(err))
				}
			}
			// The match closed our outbox: we were dropped or it ended.
			conn.Close(websocket.StatusGoingAway, "match closed the connection")
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), opts.ReadTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					clog.Debug("read ended", zap.Error(err))
				}
				return
			}

			msg, err := protocol.Decode(data)
			if err != nil {
				writeError(r.Context(), conn, err)
				continue
			}
			if protocol.ClientBound(msg.Kind()) {
				writeError(r.Context(), conn, errors.New("message type not accepted from clients"))
				continue
			}

			if !deliver(mt, match.FromClient{ClientID: clientID, Msg: msg}) {
				return
			}
		}
	}
}

// deliver hands msg to the match unless its loop has already exited.
func deliver(mt *match.Match, msg match.Msg) bool {
	select {
	case mt.Inbox() <- msg:
		return true
	case <-mt.Done():
		return false
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, cause error) {
	payload, err := protocol.Encode(protocol.Error{Message: cause.Error()})
	if err != nil {
		return
	}
	_ = conn.Write(ctx, websocket.MessageText, payload)
}
