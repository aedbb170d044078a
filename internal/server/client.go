package server

import (
	"encoding/json"
	"time"

	"linkup-chat/internal/chat"
	"linkup-chat/internal/transport/httpdto"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024

	sendBuffer = 32
)

var newline = []byte{'\n'}

// wsMessages carries a full conversation snapshot; the client replaces its
// entire message view with it.
type wsMessages struct {
	Type           string               `json:"type"`
	ConversationID string               `json:"conversation_id"`
	Messages       []httpdto.MessageDTO `json:"messages"`
}

type wsBlockStatus struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Blocked        bool   `json:"blocked"`
}

type wsUnread struct {
	Type   string `json:"type"`
	Unread bool   `json:"unread"`
}

func wireEvent(u chat.Update) any {
	switch u.Kind {
	case chat.UpdateMessages:
		return wsMessages{
			Type:           "messages",
			ConversationID: u.ConversationID,
			Messages:       httpdto.FromMessageSlice(u.Messages),
		}
	case chat.UpdateBlockStatus:
		return wsBlockStatus{
			Type:           "block_status",
			ConversationID: u.ConversationID,
			Blocked:        u.Blocked,
		}
	default:
		return wsUnread{Type: "unread", Unread: u.Unread}
	}
}

// wsClient is one WebSocket connection streaming a session's updates. The
// connection is outbound-only: client frames are read solely to keep the
// pong deadline alive. Closing the connection drops the update subscription
// but leaves the session running for the next reconnect.
type wsClient struct {
	conn    *websocket.Conn
	session *chat.Session
	send    chan []byte
	userID  uuid.UUID
	logger  *zap.Logger
}

func newWSClient(conn *websocket.Conn, session *chat.Session, userID uuid.UUID, logger *zap.Logger) *wsClient {
	return &wsClient{
		conn:    conn,
		session: session,
		send:    make(chan []byte, sendBuffer),
		userID:  userID,
		logger:  logger,
	}
}

func (c *wsClient) run() {
	updates, cancel := c.session.Updates()
	defer cancel()

	go c.writePump()

	// The initial unread state, so a reconnecting client does not wait for
	// the next transition.
	c.push(wsUnread{Type: "unread", Unread: c.session.Unread()})

	go func() {
		for u := range updates {
			c.push(wireEvent(u))
		}
	}()

	c.readPump()
}

// push marshals and queues one event, dropping it when the connection
// cannot keep up. Snapshots are full-state, so a dropped frame is repaired
// by the next one.
func (c *wsClient) push(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		c.logger.Error("marshal ws event failed", zap.Error(err))
		return
	}
	select {
	case c.send <- payload:
	default:
		c.logger.Warn("ws send buffer full, dropping event",
			zap.String("user_id", c.userID.String()))
	}
}

func (c *wsClient) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket unexpected close",
					zap.String("user_id", c.userID.String()), zap.Error(err))
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(newline)
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
