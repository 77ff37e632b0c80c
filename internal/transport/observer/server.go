// Package observer serves the session over HTTP: a bootstrap document and a
// websocket stream of snapshots and chunk meshes that also accepts key input.
package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"rovercraft.ai/internal/observerproto"
	"rovercraft.ai/internal/sim/world"
)

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	inputsDropped atomic.Uint64
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// InputsDropped counts INPUT messages discarded because the world loop was
// backed up.
func (s *Server) InputsDropped() uint64 { return s.inputsDropped.Load() }

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		cfg := s.world.Config()
		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			WorldID:         cfg.ID,
			Tick:            s.world.CurrentTick(),
			WorldParams: observerproto.WorldParams{
				TickRateHz:   cfg.TickRateHz,
				Seed:         cfg.Seed,
				Primitive:    cfg.Primitive,
				ChunkSize:    cfg.Terrain.ChunkSize,
				Subdivisions: cfg.Terrain.Subdivisions,
				NearRadius:   cfg.Visibility.NearRadius,
				FarRadius:    cfg.Visibility.FarRadius,
			},
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub observerproto.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			closeWith(conn, websocket.ClosePolicyViolation, "bad subscribe")
			return
		}
		if sub.Type != observerproto.TypeSubscribe || sub.ProtocolVersion != observerproto.Version {
			closeWith(conn, websocket.ClosePolicyViolation, "expected SUBSCRIBE")
			return
		}

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		tickOut := make(chan []byte, 8)
		dataOut := make(chan []byte, 4096)

		joinReq := world.ObserverJoinRequest{
			SessionID: sid,
			TickOut:   tickOut,
			DataOut:   dataOut,
			Meshes:    sub.Meshes,
		}
		select {
		case s.world.ObserverJoin() <- joinReq:
		default:
			closeWith(conn, websocket.CloseTryAgainLater, "server busy")
			return
		}
		if s.log != nil {
			s.log.Printf("observer %s joined from %s meshes=%v", sid, r.RemoteAddr, sub.Meshes)
		}
		defer func() {
			select {
			case s.world.ObserverLeave() <- sid:
			default:
				// World loop is stopping; nothing else to do.
			}
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine. Chunk data is drained before the snapshot that
		// references it whenever both are ready.
		writeErr := make(chan error, 1)
		go func() {
			write := func(b []byte) error {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				return conn.WriteMessage(websocket.TextMessage, b)
			}
			for {
				select {
				case b, ok := <-dataOut:
					if !ok {
						writeErr <- nil
						return
					}
					if err := write(b); err != nil {
						writeErr <- err
						return
					}
					continue
				default:
				}
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b, ok := <-dataOut:
					if !ok {
						writeErr <- nil
						return
					}
					if err := write(b); err != nil {
						writeErr <- err
						return
					}
				case b, ok := <-tickOut:
					if !ok {
						writeErr <- nil
						return
					}
					if err := write(b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: INPUT replaces the held key state; SUBSCRIBE is accepted
		// but settings are fixed for the session.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var base struct {
				Type            string `json:"type"`
				ProtocolVersion string `json:"protocol_version"`
			}
			if err := json.Unmarshal(msg, &base); err != nil || base.ProtocolVersion != observerproto.Version {
				continue
			}
			switch base.Type {
			case observerproto.TypeInput:
				var in observerproto.InputMsg
				if err := json.Unmarshal(msg, &in); err != nil {
					continue
				}
				s.sendInput(world.Input{
					Forward: in.Forward,
					Back:    in.Back,
					Left:    in.Left,
					Right:   in.Right,
					Boost:   in.Boost,
				})
			case observerproto.TypeSubscribe:
			}
		}

		cancel()
		closeWith(conn, websocket.CloseNormalClosure, "bye")
		if s.log != nil {
			s.log.Printf("observer %s left", sid)
		}

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Server) sendInput(in world.Input) {
	select {
	case s.world.Input() <- in:
	default:
		s.inputsDropped.Add(1)
	}
}

func closeWith(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
