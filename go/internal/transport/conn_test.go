package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/makeitmeme/go/internal/protocol"
)

// recordingHandler captures transport callbacks
type recordingHandler struct {
	mu           sync.Mutex
	connected    int
	disconnected int
	events       []*protocol.Envelope
}

func (h *recordingHandler) OnConnected(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected++
}

func (h *recordingHandler) OnDisconnected(ctx context.Context, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnected++
}

func (h *recordingHandler) OnEvent(ctx context.Context, env *protocol.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, env)
}

func (h *recordingHandler) counts() (int, int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected, h.disconnected, len(h.events)
}

// fakeServer upgrades every request and hands the socket to the test
type fakeServer struct {
	*httptest.Server
	conns   chan *websocket.Conn
	clients chan string
}

func newFakeServer(t *testing.T) *fakeServer {
	fs := &fakeServer{conns: make(chan *websocket.Conn, 4), clients: make(chan string, 4)}
	upgrader := websocket.Upgrader{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fs.clients <- r.Header.Get("X-Client-ID")
		fs.conns <- ws
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) url() string {
	return "ws" + strings.TrimPrefix(fs.URL, "http")
}

func (fs *fakeServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case ws := <-fs.conns:
		t.Cleanup(func() { ws.Close() })
		return ws
	case <-time.After(2 * time.Second):
		t.Fatal("client never connected")
		return nil
	}
}

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.ClientID = "client-1"
	cfg.MinBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 20 * time.Millisecond
	return cfg
}

func startClient(t *testing.T, cfg Config, handler Handler) (*Client, context.CancelFunc) {
	t.Helper()
	client := New(cfg, handler, clockwork.NewRealClock())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		client.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return client, cancel
}

func TestClient_ReceivesFrames(t *testing.T) {
	fs := newFakeServer(t)
	handler := &recordingHandler{}
	client, _ := startClient(t, testConfig(fs.url()), handler)

	ws := fs.accept(t)
	assert.Equal(t, "client-1", <-fs.clients)
	require.Eventually(t, client.Connected, time.Second, 5*time.Millisecond)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, ws.WriteJSON(map[string]interface{}{
		"id":   "frame-1",
		"type": "new_host",
		"data": map[string]string{"host_id": "p2"},
	}))

	require.Eventually(t, func() bool {
		_, _, events := handler.counts()
		return events == 1
	}, time.Second, 5*time.Millisecond)

	handler.mu.Lock()
	env := handler.events[0]
	handler.mu.Unlock()
	assert.Equal(t, protocol.EventNewHost, env.Type)
	assert.Equal(t, "frame-1", env.ID)

	connected, _, _ := handler.counts()
	assert.Equal(t, 1, connected)
}

func TestClient_EmitWritesEnvelope(t *testing.T) {
	fs := newFakeServer(t)
	client, _ := startClient(t, testConfig(fs.url()), &recordingHandler{})

	ws := fs.accept(t)
	require.Eventually(t, client.Connected, time.Second, 5*time.Millisecond)

	require.NoError(t, client.Emit(context.Background(), protocol.NextRound{RoomCode: "ABCD"}))

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := ws.ReadMessage()
	require.NoError(t, err)

	var env protocol.Envelope
	require.NoError(t, json.Unmarshal(message, &env))
	assert.Equal(t, protocol.CommandNextRound, env.Type)
	assert.NotEmpty(t, env.ID)
	assert.JSONEq(t, `{"room_code":"ABCD"}`, string(env.Data))
}

func TestClient_EmitWithoutConnection(t *testing.T) {
	client := New(testConfig("ws://127.0.0.1:1/ws"), &recordingHandler{}, nil)

	err := client.Emit(context.Background(), protocol.StartGame{RoomCode: "ABCD"})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, client.Connected())
}

func TestClient_ReconnectsAfterServerClose(t *testing.T) {
	fs := newFakeServer(t)
	handler := &recordingHandler{}
	client, _ := startClient(t, testConfig(fs.url()), handler)

	first := fs.accept(t)
	require.Eventually(t, client.Connected, time.Second, 5*time.Millisecond)
	first.Close()

	require.Eventually(t, func() bool {
		_, disconnected, _ := handler.counts()
		return disconnected == 1
	}, 2*time.Second, 5*time.Millisecond)

	fs.accept(t)
	require.Eventually(t, func() bool {
		connected, _, _ := handler.counts()
		return connected == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, client.Connected())
}

func TestClient_StopsOnCancel(t *testing.T) {
	fs := newFakeServer(t)
	handler := &recordingHandler{}
	client, cancel := startClient(t, testConfig(fs.url()), handler)

	fs.accept(t)
	require.Eventually(t, client.Connected, time.Second, 5*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool {
		_, disconnected, _ := handler.counts()
		return disconnected == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.False(t, client.Connected())
}

func TestClient_DropSendsCloseFrameAndReconnects(t *testing.T) {
	fs := newFakeServer(t)
	handler := &recordingHandler{}
	client, _ := startClient(t, testConfig(fs.url()), handler)

	first := fs.accept(t)
	require.Eventually(t, client.Connected, time.Second, 5*time.Millisecond)

	assert.True(t, client.Drop())

	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := first.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	require.Eventually(t, func() bool {
		_, disconnected, _ := handler.counts()
		return disconnected == 1
	}, 2*time.Second, 5*time.Millisecond)

	fs.accept(t)
	require.Eventually(t, func() bool {
		connected, _, _ := handler.counts()
		return connected == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestClient_DropWithoutConnection(t *testing.T) {
	client := New(testConfig("ws://127.0.0.1:1/ws"), &recordingHandler{}, nil)
	assert.False(t, client.Drop())
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextBackoff(time.Second, 15*time.Second))
	assert.Equal(t, 15*time.Second, nextBackoff(10*time.Second, 15*time.Second))
}
