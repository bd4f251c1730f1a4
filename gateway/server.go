// Package gateway serves browser clients over websockets: JSON inputs in, JSON snapshots out
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/engine"
	"github.com/lixenwraith/skyfight/input"
	"github.com/lixenwraith/skyfight/service"
	"github.com/lixenwraith/skyfight/snapshot"
	"github.com/lixenwraith/skyfight/vmath"
)

// Config configures the HTTP listener
type Config struct {
	Listen string
	// SendEvery forwards one snapshot per this many ticks
	SendEvery int
	// SendQueue bounds frames buffered per client
	SendQueue int
	// AllowOrigin is checked against the Origin header, "*" accepts any
	AllowOrigin string
}

// Server is the websocket gateway service
type Server struct {
	cfg     Config
	session *engine.Session
	gate    input.Gate
	log     zerolog.Logger
	sampled zerolog.Logger

	router   *mux.Router
	upgrader websocket.Upgrader
	http     *http.Server
	listener net.Listener

	mu      sync.RWMutex
	clients map[ksuid.KSUID]*wsClient
	wg      sync.WaitGroup

	running  atomic.Bool
	rejected atomic.Int64
}

// NewServer creates the gateway for session
func NewServer(session *engine.Session, cfg Config, gate input.Gate, log zerolog.Logger) *Server {
	if cfg.SendEvery <= 0 {
		cfg.SendEvery = 1
	}
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = 32
	}
	if cfg.AllowOrigin == "" {
		cfg.AllowOrigin = "*"
	}
	s := &Server{
		cfg:     cfg,
		session: session,
		gate:    gate,
		log:     log,
		sampled: log.Sample(&zerolog.BasicSampler{N: 100}),
		clients: make(map[ksuid.KSUID]*wsClient),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	s.router = mux.NewRouter()
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	s.router.HandleFunc("/vehicles/{id}", s.handleVehicle).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWebsocket)
	return s
}

func (s *Server) Name() string { return "gateway" }

func (s *Server) Dependencies() []string { return []string{service.SimulationName} }

func (s *Server) Init() error {
	s.session.AddSink(s)
	return nil
}

func (s *Server) Start(context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("gateway listen %s: %w", s.cfg.Listen, err)
	}
	s.listener = ln
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.running.Store(true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("Gateway stopped")
		}
	}()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("Gateway listening")
	return nil
}

func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Hijacked websocket connections are not tracked by Shutdown
	err := s.http.Shutdown(ctx)

	s.mu.Lock()
	for _, c := range s.clients {
		close(c.done)
	}
	s.clients = make(map[ksuid.KSUID]*wsClient)
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler exposes the router, for embedding or httptest
func (s *Server) Handler() http.Handler { return s.router }

// ClientCount returns connected websocket clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Rejected returns inputs refused by the latency gate
func (s *Server) Rejected() int64 { return s.rejected.Load() }

// OnSnapshot implements engine.SnapshotSink, encoding once per tick for all clients
func (s *Server) OnSnapshot(b snapshot.Batch) {
	if b.Tick%uint64(s.cfg.SendEvery) != 0 {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.clients) == 0 {
		return
	}

	frame, err := json.Marshal(Envelope{Type: TypeSnapshot, Tick: b.Tick, Snapshot: &b})
	if err != nil {
		s.sampled.Warn().Err(err).Msg("Snapshot encode failed")
		return
	}
	for _, c := range s.clients {
		if !c.enqueue(frame) {
			s.sampled.Debug().Str("client", c.id.String()).Msg("Client lagging, snapshot dropped")
		}
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.cfg.AllowOrigin == "*" {
		return true
	}
	return r.Header.Get("Origin") == s.cfg.AllowOrigin
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Health{
		Status:   "ok",
		Tick:     s.session.Tick(),
		Vehicles: len(s.session.Vehicles()),
		Clients:  s.ClientCount(),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleVehicle(w http.ResponseWriter, r *http.Request) {
	id := core.VehicleID(mux.Vars(r)["id"])
	state, ok := s.session.VehicleState(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, Envelope{Type: TypeError, Error: "unknown vehicle"})
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// spawnFromQuery reads kind, team, id, x, y, z and yaw query parameters
func spawnFromQuery(r *http.Request) (core.Kind, core.Team, core.VehicleID, core.Transform, error) {
	q := r.URL.Query()
	kind, err := core.ParseKind(q.Get("kind"))
	if err != nil {
		return 0, 0, "", core.Transform{}, err
	}

	num := func(key string) (float64, error) {
		v := q.Get(key)
		if v == "" {
			return 0, nil
		}
		return strconv.ParseFloat(v, 64)
	}
	var pos vmath.Vec3
	var yaw float64
	for _, f := range []struct {
		key string
		dst *float64
	}{{"x", &pos.X}, {"y", &pos.Y}, {"z", &pos.Z}, {"yaw", &yaw}} {
		if *f.dst, err = num(f.key); err != nil {
			return 0, 0, "", core.Transform{}, fmt.Errorf("query %s: %w", f.key, err)
		}
	}

	team, err := strconv.ParseUint(q.Get("team"), 10, 8)
	if err != nil && q.Get("team") != "" {
		return 0, 0, "", core.Transform{}, fmt.Errorf("query team: %w", err)
	}
	return kind, core.Team(team), core.VehicleID(q.Get("id")), core.SpawnAt(pos, yaw), nil
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	kind, team, vehicleID, spawn, err := spawnFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Envelope{Type: TypeError, Error: err.Error()})
		return
	}

	clientID := ksuid.New()
	if vehicleID == "" {
		vehicleID = core.VehicleID(clientID.String())
	}
	if err := s.session.CreateVehicle(vehicleID, kind, team, spawn); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, engine.ErrVehicleExists) {
			status = http.StatusConflict
		}
		writeJSON(w, status, Envelope{Type: TypeError, Error: err.Error()})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		s.session.RemoveVehicle(vehicleID)
		return
	}

	c := newClient(clientID, vehicleID, conn, s.cfg.SendQueue)
	welcome, _ := json.Marshal(Envelope{
		Type:      TypeWelcome,
		ClientID:  clientID.String(),
		VehicleID: vehicleID,
		Tick:      s.session.Tick(),
		StepMs:    float64(s.session.FixedStep()) / float64(time.Millisecond),
	})
	c.enqueue(welcome)

	s.mu.Lock()
	s.clients[clientID] = c
	s.mu.Unlock()
	s.log.Info().Str("client", clientID.String()).Str("vehicle", string(vehicleID)).Str("kind", kind.String()).Msg("Client joined")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		c.writeLoop()
	}()
	s.readLoop(c)
}

// readLoop runs on the request goroutine until the client goes away
func (s *Server) readLoop(c *wsClient) {
	defer s.dropClient(c)

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(c.handlePong)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Type != TypeInput || env.Input == nil {
			s.reply(c, "expected input envelope")
			continue
		}
		if err := s.gate.Admit(*env.Input, time.Now(), c.RTT()); err != nil {
			s.rejected.Add(1)
			s.sampled.Debug().Err(err).Str("client", c.id.String()).Msg("Input refused")
			continue
		}
		s.session.AddInput(c.vehicle, *env.Input)
	}
}

func (s *Server) reply(c *wsClient, msg string) {
	if frame, err := json.Marshal(Envelope{Type: TypeError, Error: msg}); err == nil {
		c.enqueue(frame)
	}
}

func (s *Server) dropClient(c *wsClient) {
	s.mu.Lock()
	_, ok := s.clients[c.id]
	if ok {
		delete(s.clients, c.id)
		close(c.done)
	}
	s.mu.Unlock()

	s.session.RemoveVehicle(c.vehicle)
	s.log.Info().Str("client", c.id.String()).Str("vehicle", string(c.vehicle)).Msg("Client left")
}
