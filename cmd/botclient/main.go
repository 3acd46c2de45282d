// Command botclient joins a match over websocket, mirrors its election state
// and votes on every poll it is shown. Handy for filling a side in local
// testing.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/commander-election/internal/battle"
	"github.com/DoyleJ11/commander-election/internal/mirror"
	"github.com/DoyleJ11/commander-election/internal/protocol"
)

type logPresenter struct{ log *zap.Logger }

func (p logPresenter) Text(msg string)        { p.log.Info(msg) }
func (p logPresenter) Sound(cue mirror.Sound) { p.log.Debug("sound", zap.String("cue", string(cue))) }

func main() {
	server := flag.String("server", "ws://localhost:8080/ws", "websocket endpoint")
	code := flag.String("code", "", "match code")
	side := flag.String("side", "attacker", "attacker or defender")
	accept := flag.Bool("accept", true, "how to vote on every poll")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(*server, *code, *side, *accept, log); err != nil {
		log.Error("botclient stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(server, code, side string, accept bool, log *zap.Logger) error {
	if code == "" {
		return errors.New("-code is required")
	}
	if _, ok := battle.ParseSide(side); !ok {
		return fmt.Errorf("bad side %q", side)
	}
	u, err := url.Parse(server)
	if err != nil {
		return fmt.Errorf("parse server url: %w", err)
	}
	q := u.Query()
	q.Set("code", code)
	q.Set("side", side)
	u.RawQuery = q.Encode()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	out := make(chan protocol.Message, 16)
	mir := mirror.New(logPresenter{log: log})

	g, gctx := errgroup.WithContext(ctx)

	// Writer
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case msg := <-out:
				data, err := protocol.Encode(msg)
				if err != nil {
					return err
				}
				wctx, cancel := context.WithTimeout(gctx, 3*time.Second)
				err = conn.Write(wctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					return fmt.Errorf("write: %w", err)
				}
			}
		}
	})

	// Reader. The mirror is only touched from here.
	g.Go(func() error {
		for {
			_, data, err := conn.Read(gctx)
			if err != nil {
				if websocket.CloseStatus(err) != -1 || gctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("read: %w", err)
			}
			msg, err := protocol.Decode(data)
			if err != nil {
				log.Warn("undecodable frame", zap.Error(err))
				continue
			}
			mir.Apply(msg)

			switch msg.(type) {
			case protocol.Welcome:
				self, s := mir.Self()
				log.Info("joined", zap.String("participant", string(self)), zap.String("side", string(s)))
				queue(gctx, out, protocol.ClientReady{})
			case protocol.ElectionOpened:
				if ballot, ok := mir.Vote(accept); ok {
					queue(gctx, out, ballot)
				}
			}
		}
	})

	// Stdin lines go out as chat, so /elect, /demote and /order work by hand.
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			queue(gctx, out, protocol.ChatCommand{Text: line})
		}
	}()

	return g.Wait()
}

func queue(ctx context.Context, out chan<- protocol.Message, msg protocol.Message) {
	select {
	case out <- msg:
	case <-ctx.Done():
	}
}
