package game

import "PrankTerminal/internal/typewriter"

// Outbound message types.
const (
	MsgHello    = "hello"    // Hello payload, sent once per attach
	MsgMutation = "mutation" // typewriter.Mutation payload
	MsgState    = "state"    // StateUpdate payload, after each completed state
	MsgClose    = "close"    // no payload; the host should close the window
)

// OutboundMessage packages queued websocket events.
type OutboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// HeaderControl describes one window dot.
type HeaderControl struct {
	Name   string `json:"name"`
	Color  string `json:"color"`
	Armed  bool   `json:"armed"`
	Target string `json:"target,omitempty"`
}

// Hello is the full terminal picture sent to a client when it attaches.
type Hello struct {
	Session string                 `json:"session"`
	Header  []HeaderControl        `json:"header"`
	Blocks  []typewriter.BlockView `json:"blocks"`
}

// StateUpdate reports a completed dialogue state.
type StateUpdate struct {
	State      string `json:"state"`
	Iterations int    `json:"iterations"`
}
