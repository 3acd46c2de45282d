package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownType = errors.New("unknown message type")
var ErrMalformed = errors.New("malformed message")

// Envelope is the JSON frame on the websocket:
//
//	{"type": "ElectionOpened", "payload": {"requester": "...", "target": "..."}}
type Envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var factories = map[Kind]func() Message{
	KindElectionRequested:   func() Message { return &ElectionRequested{} },
	KindElectionVoteCast:    func() Message { return &ElectionVoteCast{} },
	KindClientReady:         func() Message { return &ClientReady{} },
	KindChatCommand:         func() Message { return &ChatCommand{} },
	KindElectionOpened:      func() Message { return &ElectionOpened{} },
	KindElectionProgress:    func() Message { return &ElectionProgress{} },
	KindElectionClosed:      func() Message { return &ElectionClosed{} },
	KindElectionCancelled:   func() Message { return &ElectionCancelled{} },
	KindElectionRejected:    func() Message { return &ElectionRejected{} },
	KindCommanderUpdated:    func() Message { return &CommanderUpdated{} },
	KindCommanderEliminated: func() Message { return &CommanderEliminated{} },
	KindChatCommandRejected: func() Message { return &ChatCommandRejected{} },
	KindOrderAnnounced:      func() Message { return &OrderAnnounced{} },
	KindWelcome:             func() Message { return &Welcome{} },
	KindError:               func() Message { return &Error{} },
}

func Encode(m Message) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Kind(), err)
	}
	return json.Marshal(Envelope{Type: m.Kind(), Payload: payload})
}

// Decode parses a frame and returns the message by value (never a pointer),
// so callers can type-switch on the plain struct types.
func Decode(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	newMsg, ok := factories[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	ptr := newMsg()
	if len(env.Payload) > 0 && string(env.Payload) != "null" {
		if err := json.Unmarshal(env.Payload, ptr); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
		}
	}
	return deref(ptr), nil
}

func deref(m Message) Message {
	switch v := m.(type) {
	case *ElectionRequested:
		return *v
	case *ElectionVoteCast:
		return *v
	case *ClientReady:
		return *v
	case *ChatCommand:
		return *v
	case *ElectionOpened:
		return *v
	case *ElectionProgress:
		return *v
	case *ElectionClosed:
		return *v
	case *ElectionCancelled:
		return *v
	case *ElectionRejected:
		return *v
	case *CommanderUpdated:
		return *v
	case *CommanderEliminated:
		return *v
	case *ChatCommandRejected:
		return *v
	case *OrderAnnounced:
		return *v
	case *Welcome:
		return *v
	case *Error:
		return *v
	default:
		return m
	}
}
