package client

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/makeitmeme/go/internal/protocol"
	"github.com/mcdev12/makeitmeme/go/internal/session"
	"github.com/mcdev12/makeitmeme/go/internal/store"
)

// safeEmitter records commands from the control goroutine
type safeEmitter struct {
	mu   sync.Mutex
	cmds []protocol.Command
}

func (e *safeEmitter) Emit(ctx context.Context, cmd protocol.Command) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cmds = append(e.cmds, cmd)
	return nil
}

func (e *safeEmitter) all() []protocol.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]protocol.Command(nil), e.cmds...)
}

// safeRenderer records views from the control goroutine
type safeRenderer struct {
	mu    sync.Mutex
	views []session.View
}

func (r *safeRenderer) Render(v session.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *safeRenderer) has(match func(session.View) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.views {
		if match(v) {
			return true
		}
	}
	return false
}

type rig struct {
	client   *Client
	clock    *clockwork.FakeClock
	emitter  *safeEmitter
	renderer *safeRenderer
	store    *store.MemoryStore
	cancel   context.CancelFunc
	stopped  chan struct{}
}

func newRig(t *testing.T) *rig {
	r := &rig{
		clock:    clockwork.NewFakeClock(),
		emitter:  &safeEmitter{},
		renderer: &safeRenderer{},
		store:    store.NewMemoryStore(),
		stopped:  make(chan struct{}),
	}
	r.client = New(Options{
		Session:  session.DefaultConfig(),
		Renderer: r.renderer,
		Store:    r.store,
		Clock:    r.clock,
		Emitter:  r.emitter,
	})

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go func() {
		defer close(r.stopped)
		r.client.Run(ctx)
	}()
	t.Cleanup(r.stop)
	return r
}

func (r *rig) stop() {
	r.cancel()
	<-r.stopped
}

func (r *rig) push(t *testing.T, typ protocol.EventType, data string) {
	t.Helper()
	r.client.OnEvent(context.Background(), &protocol.Envelope{ID: "frame", Type: typ, Data: json.RawMessage(data)})
}

func (r *rig) status(t *testing.T) Status {
	t.Helper()
	st, err := r.client.Status(context.Background())
	require.NoError(t, err)
	return st
}

func TestClient_JoinFlow(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	r.client.OnConnected(ctx)
	require.Eventually(t, func() bool {
		return r.renderer.has(func(v session.View) bool { _, ok := v.(session.EntryView); return ok })
	}, time.Second, time.Millisecond)

	err := r.client.Do(ctx, func(ctx context.Context, s *session.Session) error {
		return s.JoinGame(ctx, "Ada", "abcd")
	})
	require.NoError(t, err)
	assert.Equal(t, []protocol.Command{protocol.JoinGame{PlayerName: "Ada", RoomCode: "ABCD"}}, r.emitter.all())

	r.push(t, protocol.EventGameJoined, `{"room_code":"ABCD","player_id":"p2","is_host":false,
		"mode":"normal","image_type":"custom","num_rounds":5,"timer_duration":60,
		"players":[{"player_id":"p1","name":"Bo","is_host":true},{"player_id":"p2","name":"Ada"}]}`)

	st := r.status(t)
	assert.True(t, st.Connected)
	assert.Equal(t, "lobby", st.Phase)
	assert.Equal(t, "ABCD", st.RoomCode)
	assert.Equal(t, 2, st.Players)

	id, ok, err := r.store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "p2", id.PlayerID)
}

func TestClient_ValidationErrorReturnedFromDo(t *testing.T) {
	r := newRig(t)

	err := r.client.Do(context.Background(), func(ctx context.Context, s *session.Session) error {
		return s.JoinGame(ctx, "  ", "ABCD")
	})
	assert.ErrorIs(t, err, session.ErrEmptyName)
	assert.Empty(t, r.emitter.all())
}

func TestClient_TimerTicksRunOnLoop(t *testing.T) {
	r := newRig(t)
	r.push(t, protocol.EventGameCreated, `{"room_code":"WXYZ","player_id":"p1","is_host":true,
		"mode":"normal","image_type":"custom","num_rounds":3,"timer_duration":60,
		"players":[{"player_id":"p1","name":"Ada","is_host":true}]}`)
	r.push(t, protocol.EventRoundStart, `{"round":1,"total_rounds":3,"template":{"name":"Drake","image":"drake.jpg"},"theme":null,"mode":"normal","timer_duration":60}`)

	require.Eventually(t, func() bool { return r.status(t).Phase == "composing" }, time.Second, time.Millisecond)

	r.clock.Advance(time.Second)

	require.Eventually(t, func() bool {
		return r.renderer.has(func(v session.View) bool {
			tv, ok := v.(session.TimerView)
			return ok && tv.Remaining == 59
		})
	}, time.Second, time.Millisecond)
}

func TestClient_UnknownEventDropped(t *testing.T) {
	r := newRig(t)
	r.push(t, "player_danced", `{}`)

	assert.Equal(t, "disconnected", r.status(t).Phase)
}

func TestClient_DisconnectResetsSession(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	r.client.OnConnected(ctx)
	r.push(t, protocol.EventGameCreated, `{"room_code":"WXYZ","player_id":"p1","is_host":true,
		"players":[{"player_id":"p1","name":"Ada","is_host":true}]}`)
	require.Equal(t, "lobby", r.status(t).Phase)

	r.client.OnDisconnected(ctx, nil)
	st := r.status(t)
	assert.False(t, st.Connected)
	assert.Equal(t, "disconnected", st.Phase)
	assert.Empty(t, st.RoomCode)
}

func TestClient_DoAfterStop(t *testing.T) {
	r := newRig(t)
	r.stop()

	err := r.client.Do(context.Background(), func(ctx context.Context, s *session.Session) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrStopped)

	assert.NotPanics(t, func() {
		r.client.Post(func(ctx context.Context) {})
	})
}
