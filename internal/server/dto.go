package server

import "encoding/json"

// Inbound message types.
const (
	inStart    = "start"
	inActivate = "activate"
	inHeader   = "header"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// activateDTO identifies a control inside a rich block.
type activateDTO struct {
	Block   int `json:"block"`
	Control int `json:"control"`
}

// headerDTO identifies a window dot.
type headerDTO struct {
	Control string `json:"control"`
}
