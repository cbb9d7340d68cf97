package server

import (
	"encoding/json"
	"fmt"

	. "PrankTerminal/internal/game"

	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Binary frames carry a google.protobuf.Struct with the same shape as the
// JSON frames, so both codecs share one message vocabulary.

func messageToProto(msg OutboundMessage) (*structpb.Struct, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", msg.Type, err)
	}
	var st structpb.Struct
	if err := protojson.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("convert %s: %w", msg.Type, err)
	}
	return &st, nil
}

// sendProtoMessage wraps msg in a Struct and sends it as a binary frame.
func sendProtoMessage(conn *websocket.Conn, msg OutboundMessage) error {
	st, err := messageToProto(msg)
	if err != nil {
		return err
	}
	data, err := proto.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

func decodeProtoInbound(data []byte) (inboundMessage, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return inboundMessage{}, err
	}
	raw, err := protojson.Marshal(&st)
	if err != nil {
		return inboundMessage{}, err
	}
	var inbound inboundMessage
	if err := json.Unmarshal(raw, &inbound); err != nil {
		return inboundMessage{}, err
	}
	return inbound, nil
}
