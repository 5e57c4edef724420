package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/pollwave/pollwave/internal/domain"
	ws "github.com/pollwave/pollwave/internal/websocket"
)

const idleReadDeadline = 60 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type joinPollPayload struct {
	PollID uuid.UUID `json:"pollId"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// handleWebSocket upgrades the connection and runs its read loop. A client
// joins a poll's broadcast group with a joinPoll message and then receives
// pollUpdated events until it disconnects or joins another poll.
func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("Failed to upgrade WebSocket", "error", err)
		return nil
	}

	session := &wsSession{server: s, conn: conn}
	session.readLoop(c)

	s.hub.Unsubscribe(conn)
	_ = conn.Close()
	return nil
}

// wsSession tracks one connection's state between messages. Once the
// connection is subscribed, the hub's writer goroutine owns all writes and
// replies must go through the hub; before that the read loop writes directly.
type wsSession struct {
	server *Server
	conn   *websocket.Conn
	joined bool
}

func (w *wsSession) readLoop(c echo.Context) {
	_ = w.conn.SetReadDeadline(time.Now().Add(idleReadDeadline))

	for {
		_, raw, err := w.conn.ReadMessage()
		if err != nil {
			return
		}
		if !w.joined {
			// The writer's pong handler takes over deadline management
			// after the connection joins a poll.
			_ = w.conn.SetReadDeadline(time.Now().Add(idleReadDeadline))
		}

		var envelope ws.Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			w.sendError("malformed message")
			continue
		}

		switch envelope.Event {
		case ws.EventJoinPoll:
			w.handleJoinPoll(c, envelope.Data)
		case ws.EventPing:
			w.reply(ws.EventPong, nil)
		default:
			w.sendError("unknown event: " + envelope.Event)
		}
	}
}

func (w *wsSession) handleJoinPoll(c echo.Context, data json.RawMessage) {
	var payload joinPollPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.PollID == uuid.Nil {
		w.sendError("joinPoll requires a pollId")
		return
	}

	snapshot, err := w.server.app.Results(c.Request().Context(), payload.PollID)
	if err != nil {
		if errors.Is(err, domain.ErrPollNotFound) {
			w.sendError("poll not found")
		} else {
			slog.Error("Failed to load poll for subscription", "poll_id", payload.PollID.String(), "error", err)
			w.sendError("failed to join poll")
		}
		return
	}

	if err := w.server.hub.Subscribe(payload.PollID, w.conn); err != nil {
		slog.Warn("Subscription rejected", "poll_id", payload.PollID.String(), "error", err)
		return
	}
	w.joined = true

	// Ack carries the current tally so clients render before the first delta.
	w.reply(ws.EventJoinedPoll, snapshot)
}

// reply sends an envelope back to the client over whichever write path the
// session is allowed to use.
func (w *wsSession) reply(event string, payload any) {
	if w.joined {
		if err := w.server.hub.SendTo(w.conn, event, payload); err != nil {
			slog.Warn("Failed to send reply", "event", event, "error", err)
		}
		return
	}

	envelope, err := ws.NewEnvelope(event, payload)
	if err != nil {
		slog.Error("Failed to marshal reply", "event", event, "error", err)
		return
	}
	_ = w.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := w.conn.WriteJSON(envelope); err != nil {
		slog.Warn("Failed to write reply", "event", event, "error", err)
	}
}

func (w *wsSession) sendError(message string) {
	w.reply(ws.EventError, errorPayload{Message: message})
}
