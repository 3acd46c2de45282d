package chatcmd

import (
	"errors"
	"strings"
	"time"

	"github.com/DoyleJ11/commander-election/internal/battle"
)

var ErrNotCommand = errors.New("not a chat command")
var ErrUsage = errors.New("bad command usage")
var ErrUnknownCommand = errors.New("unknown chat command")

type Kind string

const (
	KindElect  Kind = "elect"
	KindDemote Kind = "demote"
	KindOrder  Kind = "order"
)

type Command struct {
	Kind   Kind
	Target battle.ParticipantID
	Text   string
}

// Parse reads "/elect <id>", "/demote <id>" and "/order <text>".
func Parse(text string) (Command, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Command{}, ErrNotCommand
	}
	name, rest, _ := strings.Cut(text[1:], " ")
	rest = strings.TrimSpace(rest)

	switch Kind(strings.ToLower(name)) {
	case KindElect, KindDemote:
		if rest == "" || strings.ContainsAny(rest, " \t") {
			return Command{}, ErrUsage
		}
		return Command{Kind: Kind(strings.ToLower(name)), Target: battle.ParticipantID(rest)}, nil
	case KindOrder:
		if rest == "" {
			return Command{}, ErrUsage
		}
		return Command{Kind: KindOrder, Text: rest}, nil
	default:
		return Command{}, ErrUnknownCommand
	}
}

// Cooldown rate limits a command per participant.
type Cooldown struct {
	period time.Duration
	last   map[battle.ParticipantID]time.Time
}

func NewCooldown(period time.Duration) *Cooldown {
	return &Cooldown{period: period, last: make(map[battle.ParticipantID]time.Time)}
}

// Try consumes the participant's slot if it is free. Otherwise it returns the
// time left until the next use is allowed.
func (c *Cooldown) Try(id battle.ParticipantID, now time.Time) (time.Duration, bool) {
	if last, ok := c.last[id]; ok {
		if left := last.Add(c.period).Sub(now); left > 0 {
			return left, false
		}
	}
	c.last[id] = now
	return 0, true
}

func (c *Cooldown) Forget(id battle.ParticipantID) {
	delete(c.last, id)
}
