package services

import (
	"context"
	"net/http"
	"time"

	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/dpup/saferoute/server/internal/lib/geo"
)

const (
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 54 * time.Second
	streamWriteWait  = 10 * time.Second
	streamReadLimit  = 4096
)

// StreamMessage is sent by the client over the position stream
type StreamMessage struct {
	Type     string     `json:"type"` // position, dismiss, voice or ping
	Position *geo.Point `json:"position,omitempty"`
	Enabled  *bool      `json:"enabled,omitempty"`
}

// StreamReply is sent back for every client message
type StreamReply struct {
	Type  string      `json:"type"` // update, dismissed, session, pong or error
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
	Code  string      `json:"code,omitempty"`
}

// PositionStream serves a websocket that accepts location samples for one
// session and replies with guidance updates
type PositionStream struct {
	svc      *NavigationService
	upgrader websocket.Upgrader
}

// NewPositionStream creates a websocket handler for svc
func NewPositionStream(svc *NavigationService) *PositionStream {
	return &PositionStream{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (s *PositionStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	// Fail before upgrading so the client sees a normal 404
	if _, err := s.svc.GetSession(id); err != nil {
		writeError(ctx, w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warnw(ctx, "Failed to upgrade position stream", "error", err, "session_id", id)
		return
	}
	defer conn.Close()

	logging.Infow(ctx, "Position stream connected", "session_id", id)

	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go pingLoop(conn, done)

	for {
		var msg StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warnw(ctx, "Position stream closed unexpectedly", "error", err, "session_id", id)
			}
			return
		}

		reply := s.handle(ctx, id, msg)
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			logging.Warnw(ctx, "Failed to write position stream reply", "error", err, "session_id", id)
			return
		}
	}
}

func (s *PositionStream) handle(ctx context.Context, id string, msg StreamMessage) StreamReply {
	switch msg.Type {
	case "position":
		if msg.Position == nil {
			return StreamReply{Type: "error", Error: "position is required", Code: "InvalidArgument"}
		}
		update, err := s.svc.UpdatePosition(ctx, id, *msg.Position)
		if err != nil {
			return errorReply(err)
		}
		return StreamReply{Type: "update", Data: update}
	case "dismiss":
		zoneID, err := s.svc.DismissAlert(ctx, id)
		if err != nil {
			return errorReply(err)
		}
		return StreamReply{Type: "dismissed", Data: map[string]string{"zone_id": zoneID}}
	case "voice":
		if msg.Enabled == nil {
			return StreamReply{Type: "error", Error: "enabled is required", Code: "InvalidArgument"}
		}
		view, err := s.svc.SetVoice(id, *msg.Enabled)
		if err != nil {
			return errorReply(err)
		}
		return StreamReply{Type: "session", Data: view}
	case "ping":
		return StreamReply{Type: "pong"}
	default:
		return StreamReply{Type: "error", Error: "unknown message type: " + msg.Type, Code: "InvalidArgument"}
	}
}

func errorReply(err error) StreamReply {
	return StreamReply{Type: "error", Error: err.Error(), Code: errors.Code(err).String()}
}

// pingLoop keeps the connection alive. WriteControl is safe alongside the
// reader's writes.
func pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}
