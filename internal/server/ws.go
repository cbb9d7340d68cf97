package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"PrankTerminal/internal/dialogue"
	. "PrankTerminal/internal/game"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096

	codecJSON  = "json"
	codecProto = "proto"
)

// A nil CheckOrigin rejects browser handshakes whose Origin host differs
// from the request host.
var upgrader = websocket.Upgrader{}

// frameWriter sends outbound messages in the codec the client asked for.
type frameWriter func(conn *websocket.Conn, msg OutboundMessage) error

func writeJSONFrame(conn *websocket.Conn, msg OutboundMessage) error {
	return conn.WriteJSON(msg)
}

func writerFor(codec string) frameWriter {
	if codec == codecProto {
		return sendProtoMessage
	}
	return writeJSONFrame
}

func serveWS(h *Hub, w http.ResponseWriter, r *http.Request) {
	codec := strings.ToLower(r.URL.Query().Get("codec"))
	if codec != codecProto {
		codec = codecJSON
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	session := h.Open()
	log.Printf("[ws] session %s connected (%s codec)", session.ID, codec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		defer cancel()
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var inbound inboundMessage
			switch msgType {
			case websocket.BinaryMessage:
				inbound, err = decodeProtoInbound(data)
				if err != nil {
					log.Printf("[ws] protobuf unmarshal error: %v", err)
					continue
				}
			case websocket.TextMessage:
				if err := json.Unmarshal(data, &inbound); err != nil {
					log.Printf("[ws] invalid JSON message: %v", err)
					continue
				}
			default:
				log.Printf("[ws] unsupported message type %d", msgType)
				continue
			}
			dispatchInbound(ctx, session, inbound)
		}
	}()

	go func() {
		defer cancel()
		write := writerFor(codec)
		send := func(msg OutboundMessage) bool {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := write(conn, msg); err != nil {
				log.Printf("[ws] send %s error: %v", msg.Type, err)
				return false
			}
			return true
		}
		if !send(session.Hello()) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-session.Done():
				return
			case msg := <-session.Outbound():
				if !send(msg) {
					return
				}
			}
		}
	}()

	<-ctx.Done()
	conn.Close()
	<-readerDone
	h.Close(session.ID)
	session.Wait()
	log.Printf("[ws] session %s disconnected", session.ID)
}

func dispatchInbound(ctx context.Context, session *Session, inbound inboundMessage) {
	switch inbound.Type {
	case inStart:
		session.Go(func() {
			logTransition(session, session.Start(ctx))
		})
	case inActivate:
		var dto activateDTO
		if err := json.Unmarshal(inbound.Payload, &dto); err != nil {
			log.Printf("[ws] invalid activate payload: %v", err)
			return
		}
		session.Go(func() {
			logTransition(session, session.Activate(ctx, dto.Block, dto.Control))
		})
	case inHeader:
		var dto headerDTO
		if err := json.Unmarshal(inbound.Payload, &dto); err != nil {
			log.Printf("[ws] invalid header payload: %v", err)
			return
		}
		session.Go(func() {
			logTransition(session, session.PressHeader(ctx, dto.Control))
		})
	default:
		log.Printf("[ws] unknown message type: %s", inbound.Type)
	}
}

func logTransition(session *Session, err error) {
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
	case errors.Is(err, dialogue.ErrTransitionInProgress):
		log.Printf("[story] session %s: click ignored while typing", session.ID)
	default:
		log.Printf("[story] %v", err)
	}
}
