package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/types"
)

const (
	wsReadLimit  = 64 << 10
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 2 * time.Minute
	maxHistory   = 50
	msgSession   = "session"
	msgUser      = "message"
	msgReply     = "reply"
	msgError     = "error"
	msgReset     = "reset"
	msgResetDone = "reset_done"
)

func newUpgrader(allowed []string) websocket.Upgrader {
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		origins[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(origins) == 0 {
				return true
			}
			return origins[strings.ToLower(r.Header.Get("Origin"))]
		},
	}
}

// WSMessage is the envelope for both directions. Clients send type
// "message" with Content, or "reset" to clear the conversation.
type WSMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// chatSession holds one connection's conversation. History lives only as
// long as the connection.
type chatSession struct {
	id      string
	conn    *websocket.Conn
	history []types.Message
}

func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(r.Context(), "WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess := &chatSession{id: uuid.NewString(), conn: conn}
	ctx := r.Context()
	logger.Info(ctx, "Chat session opened", "session_id", sess.id)

	conn.SetReadLimit(wsReadLimit)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go keepAlive(conn, s.pongWait*9/10, done)

	if err := sess.send(WSMessage{Type: msgSession, Payload: map[string]string{"sessionId": sess.id}}); err != nil {
		return
	}

	for {
		// Restarted before each read: a model turn may outlast pongWait.
		_ = conn.SetReadDeadline(time.Now().Add(s.pongWait))
		var in WSMessage
		if err := conn.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug(ctx, "Chat session read ended", "session_id", sess.id, "error", err)
			}
			break
		}

		switch in.Type {
		case msgReset:
			sess.history = nil
			err = sess.send(WSMessage{Type: msgResetDone})
		case msgUser, "":
			err = s.answer(sess, r, in.Content)
		default:
			err = sess.send(WSMessage{Type: msgError, Payload: map[string]string{"error": "unknown message type " + in.Type}})
		}
		if err != nil {
			break
		}
	}

	logger.Info(ctx, "Chat session closed", "session_id", sess.id, "turns", len(sess.history))
}

// answer appends the user turn, runs the chat flow over the whole history
// and appends the reply. A failed turn is dropped from history.
func (s *Server) answer(sess *chatSession, r *http.Request, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return sess.send(WSMessage{Type: msgError, Payload: map[string]string{"error": "empty message"}})
	}

	user := types.Message{ID: uuid.NewString(), Role: types.RoleUser, Content: content}
	turn := append(sess.history, user)

	reply, err := s.chat.Reply(r.Context(), turn)
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError && !errors.Is(err, r.Context().Err()) {
			logger.ErrorWithErr(r.Context(), "Chat turn failed", err, "session_id", sess.id)
		}
		return sess.send(WSMessage{Type: msgError, Payload: map[string]string{"error": err.Error()}})
	}

	sess.history = append(turn, *reply)
	if len(sess.history) > maxHistory {
		sess.history = sess.history[len(sess.history)-maxHistory:]
	}
	return sess.send(WSMessage{Type: msgReply, Payload: reply})
}

// keepAlive pings the client every period until done is closed or a ping
// fails. WriteControl may run concurrently with the session's writes.
func keepAlive(conn *websocket.Conn, period time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func (c *chatSession) send(msg WSMessage) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(msg)
}
