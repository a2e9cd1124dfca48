package protocol

import (
	"encoding/json"
	"fmt"
)

// Outbound message methods.
const (
	MethodUserEvent   = "user_event"
	MethodFileDialog  = "file_dialog"
	MethodBrowserOpen = "browser_open"
)

// Message is an outbound message from the interpreter to its host.
type Message struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

// EventMessage reports a normalized user event on a tracked node.
type EventMessage struct {
	Name    string    `json:"name"`
	Element NodeID    `json:"element"`
	Bubbles bool      `json:"bubbles"`
	Data    EventData `json:"data"`
}

// FileDialogRequest asks the host to open a native file picker for a file
// input.
type FileDialogRequest struct {
	Accept    string `json:"accept,omitempty"`
	Directory bool   `json:"directory"`
	Multiple  bool   `json:"multiple"`
	Target    NodeID `json:"target"`
	Event     string `json:"event"`
	Bubbles   bool   `json:"bubbles"`
}

// NavigateRequest asks the host to open a link that no listener claimed.
type NavigateRequest struct {
	Href string `json:"href"`
}

// NewEventMessage wraps an event in a user_event message.
func NewEventMessage(ev EventMessage) Message {
	return Message{Method: MethodUserEvent, Params: ev}
}

// NewFileDialogMessage wraps a file dialog request.
func NewFileDialogMessage(req FileDialogRequest) Message {
	return Message{Method: MethodFileDialog, Params: req}
}

// NewNavigateMessage wraps a navigation request.
func NewNavigateMessage(href string) Message {
	return Message{Method: MethodBrowserOpen, Params: NavigateRequest{Href: href}}
}

// EncodeMessage serializes a message as JSON.
func EncodeMessage(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", m.Method, err)
	}
	return data, nil
}

// rawMessage delays params decoding until the method is known.
type rawMessage struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// DecodeMessage parses a JSON message. Params are decoded into the concrete
// request type for file_dialog and browser_open; user_event params are
// decoded into EventMessage with Data left as json.RawMessage inside
// RawEvent, since the payload shape depends on the event name.
func DecodeMessage(data []byte) (Message, error) {
	var raw rawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Message{}, fmt.Errorf("protocol: decode message: %w", err)
	}
	m := Message{Method: raw.Method}
	switch raw.Method {
	case MethodUserEvent:
		var ev RawEvent
		if err := json.Unmarshal(raw.Params, &ev); err != nil {
			return Message{}, fmt.Errorf("protocol: decode user_event: %w", err)
		}
		m.Params = ev
	case MethodFileDialog:
		var req FileDialogRequest
		if err := json.Unmarshal(raw.Params, &req); err != nil {
			return Message{}, fmt.Errorf("protocol: decode file_dialog: %w", err)
		}
		m.Params = req
	case MethodBrowserOpen:
		var req NavigateRequest
		if err := json.Unmarshal(raw.Params, &req); err != nil {
			return Message{}, fmt.Errorf("protocol: decode browser_open: %w", err)
		}
		m.Params = req
	default:
		return Message{}, fmt.Errorf("protocol: unknown message method %q", raw.Method)
	}
	return m, nil
}

// RawEvent is a decoded user_event with its payload left undecoded.
type RawEvent struct {
	Name    string          `json:"name"`
	Element NodeID          `json:"element"`
	Bubbles bool            `json:"bubbles"`
	Data    json.RawMessage `json:"data"`
}
