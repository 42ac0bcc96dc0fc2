package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestServer(t *testing.T, bridge *Bridge) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(bridge.ServeWS))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func writeEnvelope(t *testing.T, conn *websocket.Conn, env Envelope) {
	t.Helper()
	data, err := env.Encode()
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	env, err := DecodeEnvelope(data)
	require.NoError(t, err)
	return env
}

func TestServeWS_SecondJoinRejected(t *testing.T) {
	bridge, _ := newTestBridge(t, &scriptedClient{}, nil)
	conn := dialTestServer(t, bridge)

	writeEnvelope(t, conn, newEnvelope(EventJoin, JoinPayload{Kind: "intake"}))
	ready := readEnvelope(t, conn)
	require.Equal(t, EventSessionReady, ready.Type)

	var payload SessionReadyPayload
	require.NoError(t, ready.DecodePayload(&payload))
	require.Equal(t, 1, bridge.hub.SubscriberCount(payload.SessionID))

	// A connection carries exactly one session; a re-join is refused
	// and the original subscription stays intact.
	writeEnvelope(t, conn, newEnvelope(EventJoin, JoinPayload{Kind: "intake"}))
	rejected := readEnvelope(t, conn)
	assert.Equal(t, EventError, rejected.Type)
	assert.Equal(t, 1, bridge.hub.SubscriberCount(payload.SessionID))
}

func TestServeWS_MessageBeforeJoinRejected(t *testing.T) {
	bridge, _ := newTestBridge(t, &scriptedClient{}, nil)
	conn := dialTestServer(t, bridge)

	writeEnvelope(t, conn, newEnvelope(EventUserMessage, UserMessagePayload{Text: "hello?"}))
	rejected := readEnvelope(t, conn)
	assert.Equal(t, EventError, rejected.Type)
}
