package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/engine"
	"github.com/lixenwraith/skyfight/input"
)

func startGateway(t *testing.T) (*Server, *engine.Session) {
	t.Helper()
	session := engine.NewSession()
	srv := NewServer(session, Config{Listen: "127.0.0.1:0"}, input.NewGate(0), zerolog.Nop())
	require.NoError(t, srv.Init())
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { srv.Stop() })
	return srv, session
}

func dialWS(t *testing.T, srv *Server, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := url.URL{Scheme: "ws", Host: srv.Addr(), Path: "/ws", RawQuery: query}
	return websocket.DefaultDialer.Dial(u.String(), nil)
}

func readEnvelope(t *testing.T, conn *websocket.Conn, want string) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var env Envelope
		require.NoError(t, conn.ReadJSON(&env))
		if env.Type == want {
			return env
		}
	}
}

func TestGatewayJoinSnapshotLeave(t *testing.T) {
	srv, session := startGateway(t)

	conn, _, err := dialWS(t, srv, "kind=drone&id=d1&team=2&y=10")
	require.NoError(t, err)

	welcome := readEnvelope(t, conn, TypeWelcome)
	assert.Equal(t, core.VehicleID("d1"), welcome.VehicleID)
	assert.NotEmpty(t, welcome.ClientID)
	assert.InDelta(t, 1000.0/60, welcome.StepMs, 0.01)
	require.True(t, session.HasVehicle("d1"))
	require.Eventually(t, func() bool { return srv.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	sample := core.InputSample{Tick: 1, Timestamp: time.Now().UnixMilli(), Forward: true}
	require.NoError(t, conn.WriteJSON(Envelope{Type: TypeInput, Input: &sample}))
	stale := core.InputSample{Tick: 2, Timestamp: time.Now().Add(-time.Minute).UnixMilli()}
	require.NoError(t, conn.WriteJSON(Envelope{Type: TypeInput, Input: &stale}))
	require.Eventually(t, func() bool { return srv.Rejected() == 1 }, time.Second, 5*time.Millisecond)

	require.Equal(t, 1, session.Update(session.FixedStep()))
	snap := readEnvelope(t, conn, TypeSnapshot)
	require.NotNil(t, snap.Snapshot)
	assert.Equal(t, uint64(1), snap.Tick)
	d1, ok := snap.Snapshot.Find("d1")
	require.True(t, ok)
	assert.Equal(t, core.Team(2), d1.Team)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return !session.HasVehicle("d1") }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, srv.ClientCount())
}

func TestGatewayRejectsBadJoin(t *testing.T) {
	srv, _ := startGateway(t)

	_, resp, err := dialWS(t, srv, "kind=submarine")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	conn, _, err := dialWS(t, srv, "kind=plane&id=p1&y=40")
	require.NoError(t, err)
	defer conn.Close()

	_, resp, err = dialWS(t, srv, "kind=drone&id=p1")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	_, resp, err = dialWS(t, srv, "kind=drone&x=abc")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGatewayHTTPRoutes(t *testing.T) {
	srv, session := startGateway(t)
	require.NoError(t, session.CreateVehicle("d9", core.KindDrone, 1, core.Transform{}))
	session.Update(session.FixedStep())

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	var health Health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, Health{Status: "ok", Tick: 1, Vehicles: 1}, health)

	resp, err = http.Get("http://" + srv.Addr() + "/vehicles/d9")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get("http://" + srv.Addr() + "/vehicles/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get("http://" + srv.Addr() + "/snapshot")
	require.NoError(t, err)
	var latest struct {
		Tick uint64 `json:"tick"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&latest))
	resp.Body.Close()
	assert.Equal(t, uint64(1), latest.Tick)
}
