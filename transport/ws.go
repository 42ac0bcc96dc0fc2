package transport

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/caseway/agent-core/registry"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // audio chunks dominate frame size
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin enforcement happens at the reverse proxy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request to the session websocket and runs
// its read loop until disconnect. Each inbound event is handled on its
// own goroutine; per-session ordering is enforced by the session's
// turn lock, not the connection.
func (b *Bridge) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient()
	go writePump(conn, client)

	clientIP := remoteIP(r)
	ctx := context.Background()

	var session *registry.Session
	defer func() {
		b.HandleDisconnect(ctx, client, session)
		client.close()
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Error("Websocket read failed", zap.Error(err))
			}
			return
		}

		if messageType == websocket.BinaryMessage {
			if session != nil {
				b.HandleAudioChunk(session, data)
			}
			continue
		}

		envelope, err := DecodeEnvelope(data)
		if err != nil {
			b.hub.SendTo(client, NewErrorEvent("malformed event"))
			continue
		}

		switch envelope.Type {
		case EventJoin:
			// One session per connection; a re-join would leak the
			// previous room subscription.
			if session != nil {
				b.hub.SendTo(client, NewErrorEvent("already joined a session"))
				continue
			}
			var payload JoinPayload
			if err := envelope.DecodePayload(&payload); err != nil {
				b.hub.SendTo(client, NewErrorEvent("malformed join payload"))
				continue
			}
			if session, err = b.HandleJoin(ctx, client, payload, clientIP); err != nil {
				return
			}

		case EventUserMessage:
			if session == nil {
				b.hub.SendTo(client, NewErrorEvent("join a session first"))
				continue
			}
			var payload UserMessagePayload
			if err := envelope.DecodePayload(&payload); err != nil {
				b.hub.SendTo(client, NewErrorEvent("malformed message payload"))
				continue
			}
			// The turn outlives a mid-turn disconnect: broadcasts to a
			// closed client are dropped, document mutations are kept.
			go b.HandleUserMessage(ctx, session, payload.Text)

		case EventAudioStop:
			if session != nil {
				go b.HandleAudioStop(ctx, session)
			}

		default:
			b.hub.SendTo(client, NewErrorEvent("unknown event type"))
		}
	}
}

// writePump drains the client's outbox onto the connection and keeps
// the peer alive with pings.
func writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-client.Done():
			_ = conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
			return
		case data := <-client.Outbox():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				client.close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.close()
				return
			}
		}
	}
}

func remoteIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
