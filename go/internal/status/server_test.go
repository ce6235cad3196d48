package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/makeitmeme/go/internal/client"
	"github.com/mcdev12/makeitmeme/go/internal/render"
	"github.com/mcdev12/makeitmeme/go/internal/session"
)

type MockStatusSource struct {
	mock.Mock
}

func (m *MockStatusSource) Status(ctx context.Context) (client.Status, error) {
	args := m.Called(ctx)
	return args.Get(0).(client.Status), args.Error(1)
}

func newTestServer(t *testing.T) (*httptest.Server, *render.Latest, *MockStatusSource) {
	latest := render.NewLatest(clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	src := new(MockStatusSource)
	srv := httptest.NewServer(NewServer("", latest, src).Handler())
	t.Cleanup(srv.Close)
	return srv, latest, src
}

func TestServer_Health(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Views(t *testing.T) {
	srv, latest, _ := newTestServer(t)
	latest.Render(session.LobbyView{RoomCode: "ABCD", MaxPlayers: 8})

	resp, err := http.Get(srv.URL + "/api/view")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var frames map[string]render.Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&frames))
	require.Contains(t, frames, session.ViewLobby)
	assert.Contains(t, string(frames[session.ViewLobby].Data), `"room_code":"ABCD"`)

	resp2, err := http.Get(srv.URL + "/api/view/voting")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestServer_CORS(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/view", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://overlay.local")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_Status(t *testing.T) {
	srv, _, src := newTestServer(t)

	src.On("Status", mock.Anything).Return(client.Status{Phase: "voting", RoomCode: "ABCD", Round: 2}, nil).Once()
	src.On("Status", mock.Anything).Return(client.Status{}, errors.New("client stopped")).Once()

	resp, err := http.Get(srv.URL + "/api/status")
	require.NoError(t, err)
	var st client.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()
	assert.Equal(t, "voting", st.Phase)
	assert.Equal(t, 2, st.Round)

	resp, err = http.Get(srv.URL + "/api/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	src.AssertExpectations(t)
}
