package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/makeitmeme/go/internal/protocol"
	"github.com/mcdev12/makeitmeme/go/internal/store"
)

// --- Dispatcher ---

// queueDispatcher collects posted work until the test runs it
type queueDispatcher struct {
	mu  sync.Mutex
	fns []func(context.Context)
}

func (q *queueDispatcher) Post(fn func(ctx context.Context)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.fns = append(q.fns, fn)
}

func (q *queueDispatcher) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fns)
}

func (q *queueDispatcher) Drain(ctx context.Context) int {
	q.mu.Lock()
	fns := q.fns
	q.fns = nil
	q.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
	return len(fns)
}

// --- Emitter ---

type recordingEmitter struct {
	mu   sync.Mutex
	cmds []protocol.Command
	err  error
}

func (e *recordingEmitter) Emit(ctx context.Context, cmd protocol.Command) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.cmds = append(e.cmds, cmd)
	return nil
}

func (e *recordingEmitter) All() []protocol.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]protocol.Command(nil), e.cmds...)
}

// sent returns every emitted command of type T
func sent[T protocol.Command](e *recordingEmitter) []T {
	var out []T
	for _, c := range e.All() {
		if v, ok := c.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// --- Renderer ---

type recordingRenderer struct {
	mu    sync.Mutex
	views []View
}

func (r *recordingRenderer) Render(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *recordingRenderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = nil
}

// rendered returns every view of type T in order
func rendered[T View](r *recordingRenderer) []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []T
	for _, v := range r.views {
		if tv, ok := v.(T); ok {
			out = append(out, tv)
		}
	}
	return out
}

// lastRendered returns the most recent view of type T
func lastRendered[T View](t *testing.T, r *recordingRenderer) T {
	t.Helper()
	views := rendered[T](r)
	require.NotEmpty(t, views, "no %T rendered", *new(T))
	return views[len(views)-1]
}

// --- Store ---

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Load(ctx context.Context) (store.Identity, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(store.Identity), args.Bool(1), args.Error(2)
}

func (m *MockStore) Save(ctx context.Context, id store.Identity) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- harness ---

type harness struct {
	t     *testing.T
	ctx   context.Context
	clock *clockwork.FakeClock
	queue *queueDispatcher
	em    *recordingEmitter
	r     *recordingRenderer
	store store.Store
	s     *Session
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithStore(t, store.NewMemoryStore())
}

func newHarnessWithStore(t *testing.T, st store.Store) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		ctx:   context.Background(),
		clock: clockwork.NewFakeClock(),
		queue: &queueDispatcher{},
		em:    &recordingEmitter{},
		r:     &recordingRenderer{},
		store: st,
	}
	h.s = New(Deps{
		Emitter:    h.em,
		Renderer:   h.r,
		Store:      st,
		Clock:      h.clock,
		Dispatcher: h.queue,
	}, DefaultConfig())
	t.Cleanup(h.s.stopTimers)
	return h
}

func (h *harness) handle(ev protocol.Inbound) {
	h.t.Helper()
	require.NoError(h.t, h.s.Handle(h.ctx, ev))
}

// advance moves the fake clock and runs whatever work it produced
func (h *harness) advance(d time.Duration) {
	h.t.Helper()
	h.clock.Advance(d)
	require.Eventually(h.t, func() bool { return h.queue.Len() > 0 }, time.Second, time.Millisecond,
		"nothing posted after advancing %s", d)
	h.queue.Drain(h.ctx)
}

// tick advances one countdown second
func (h *harness) tick() {
	h.t.Helper()
	h.advance(time.Second)
}

// quiet advances the clock and asserts nothing was posted
func (h *harness) quiet(d time.Duration) {
	h.t.Helper()
	h.clock.Advance(d)
	require.Never(h.t, func() bool { return h.queue.Len() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func players(ids ...string) []protocol.Player {
	out := make([]protocol.Player, 0, len(ids))
	for i, id := range ids {
		out = append(out, protocol.Player{ID: id, Name: "name-" + id, IsHost: i == 0})
	}
	return out
}

// joinRoom opens a room as player "me"
func (h *harness) joinRoom(host bool, roster ...string) {
	h.t.Helper()
	if len(roster) == 0 {
		roster = []string{"me", "p2"}
	}
	h.s.playerName = "Me"
	h.handle(protocol.SessionOpened{
		Created:  host,
		RoomCode: "ABCD",
		PlayerID: "me",
		IsHost:   host,
		Config:   protocol.GameConfig{Mode: ModeNormal, ImageType: ImageCustom, NumRounds: 5, TimerDuration: 60},
		Players:  players(roster...),
	})
}

func (h *harness) startRound(round, seconds int) {
	h.t.Helper()
	h.handle(protocol.RoundStarted{
		Round:         round,
		TotalRounds:   5,
		Template:      protocol.Template{Name: "Drake", Image: "drake.jpg"},
		Mode:          ModeNormal,
		TimerDuration: seconds,
	})
}

func meme(creator string, index, total int) protocol.Meme {
	return protocol.Meme{
		CreatorID: creator,
		Text1:     "top",
		Caption:   "top",
		Template:  protocol.Template{Name: "Drake"},
		Index:     index,
		Total:     total,
	}
}

func (h *harness) showItem(creator string, index, total int) {
	h.t.Helper()
	h.handle(protocol.VotingItem{First: index == 1, Meme: meme(creator, index, total)})
}
