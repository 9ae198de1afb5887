// Package ws exposes the world over a websocket session: HELLO/WELCOME
// handshake, COMMAND/ACK for builders, and a FRAME stream for everyone.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"tilecity.ai/internal/protocol"
	"tilecity.ai/internal/sim/world"
)

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader

	nextSession atomic.Uint64
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		mode, out, observerID := s.handshake(conn)
		if out == nil {
			return
		}
		defer func() { s.world.ObserverLeave() <- observerID }()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine: frames from the sim loop plus acks we inject.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			if base.Type != protocol.TypeCommand {
				continue
			}
			if mode != protocol.ModeBuilder {
				s.sendAck(out, protocol.AckMsg{
					Type:            protocol.TypeAck,
					ProtocolVersion: protocol.Version,
					Accepted:        false,
					Code:            protocol.ErrBadRequest,
					Message:         "observer sessions cannot issue commands",
				})
				continue
			}
			var cmd protocol.CommandMsg
			if err := json.Unmarshal(msg, &cmd); err != nil {
				continue
			}
			if cmd.ProtocolVersion != protocol.Version {
				continue
			}

			respCh := make(chan protocol.AckMsg, 1)
			select {
			case s.world.Inbox() <- world.CommandEnvelope{Cmd: cmd, Resp: respCh}:
			case <-s.world.Done():
				continue
			}
			go func() {
				select {
				case ack := <-respCh:
					s.sendAck(out, ack)
				case <-ctx.Done():
				case <-s.world.Done():
				}
			}()
		}
	}
}

// sendAck shares the frame channel; an ack is never worth stalling the sim
// loop's broadcast, so it is dropped when the session is backed up.
func (s *Server) sendAck(out chan []byte, ack protocol.AckMsg) {
	b, err := json.Marshal(ack)
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func (s *Server) handshake(conn *websocket.Conn) (mode string, out chan []byte, observerID int) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil, 0
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil, 0
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil, 0
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil, 0
	}

	mode = hello.Mode
	if mode == "" {
		mode = protocol.ModeBuilder
	}
	if mode != protocol.ModeBuilder && mode != protocol.ModeObserver {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad mode"), time.Now().Add(time.Second))
		return "", nil, 0
	}

	out = make(chan []byte, 16)

	respCh := make(chan int, 1)
	s.world.ObserverJoin() <- world.ObserverJoinRequest{Out: out, Resp: respCh}
	observerID = <-respCh

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       fmt.Sprintf("S%06d", s.nextSession.Add(1)),
		Mode:            mode,
		WorldParams:     s.world.Params(),
	}
	if err := writeJSON(conn, welcome); err != nil {
		s.world.ObserverLeave() <- observerID
		return "", nil, 0
	}
	if s.log != nil {
		s.log.Printf("session %s joined mode=%s", welcome.SessionID, mode)
	}

	return mode, out, observerID
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
