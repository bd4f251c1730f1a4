package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/engine"
	"github.com/lixenwraith/skyfight/input"
	"github.com/lixenwraith/skyfight/service"
	"github.com/lixenwraith/skyfight/snapshot"
)

// ErrNotJoined rejects inputs from a peer without a vehicle
var ErrNotJoined = errors.New("peer has not joined")

// Server bridges framed TCP peers to a Session
// Joins create vehicles, inputs pass the latency gate, snapshots are broadcast each tick
type Server struct {
	config  *Config
	session *engine.Session
	gate    input.Gate
	log     zerolog.Logger
	sampled zerolog.Logger

	transport *Transport
	disabled  atomic.Bool

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	accepted atomic.Int64
	rejected atomic.Int64
}

// NewServer creates a network service for session, disabled when cfg.Role is RoleNone
func NewServer(session *engine.Session, cfg *Config, gate input.Gate, log zerolog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = 1
	}
	return &Server{
		config:  cfg,
		session: session,
		gate:    gate,
		log:     log,
		sampled: log.Sample(&zerolog.BasicSampler{N: 100}),
		stopCh:  make(chan struct{}),
	}
}

func (s *Server) Name() string { return "network" }

func (s *Server) Dependencies() []string { return []string{service.SimulationName} }

func (s *Server) Init() error {
	if s.config.Role == RoleNone {
		s.disabled.Store(true)
		return nil
	}
	if s.config.Role != RoleServer {
		return fmt.Errorf("network service needs server role, got %d", s.config.Role)
	}

	s.transport = NewTransport(s.config)
	s.transport.SetHandlers(s.onConnect, s.onDisconnect, s.onMessage)
	s.session.AddSink(s)
	return nil
}

func (s *Server) Start(context.Context) error {
	if s.disabled.Load() || s.transport == nil {
		return nil
	}
	if err := s.transport.Start(); err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Address, err)
	}
	s.log.Info().Str("addr", s.transport.Addr().String()).Msg("Network listening")

	if s.config.HeartbeatInterval > 0 {
		s.wg.Add(1)
		go s.heartbeatLoop()
	}
	return nil
}

func (s *Server) Stop() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	if s.transport != nil {
		return s.transport.Stop()
	}
	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	if s.transport == nil || s.transport.Addr() == nil {
		return ""
	}
	return s.transport.Addr().String()
}

// PeerCount returns connected peer count
func (s *Server) PeerCount() int {
	if s.transport == nil {
		return 0
	}
	return s.transport.PeerCount()
}

// Inputs returns how many samples were forwarded and how many the gate refused
func (s *Server) Inputs() (accepted, rejected int64) {
	return s.accepted.Load(), s.rejected.Load()
}

// OnSnapshot implements engine.SnapshotSink
func (s *Server) OnSnapshot(b snapshot.Batch) {
	if s.transport == nil || !s.transport.IsRunning() || s.transport.PeerCount() == 0 {
		return
	}
	if b.Tick%uint64(s.config.SnapshotEvery) != 0 {
		return
	}
	data, err := snapshot.Marshal(b)
	if err != nil {
		s.sampled.Warn().Err(err).Msg("Snapshot encode failed")
		return
	}
	if len(data) > MaxPayload {
		s.sampled.Warn().Int("bytes", len(data)).Uint64("tick", b.Tick).Msg("Snapshot too large for one frame")
		return
	}
	s.transport.Broadcast(NewMessage(MsgSnapshot, data))
}

func (s *Server) heartbeatLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			if msg, err := EncodePayload(MsgPing, Ping{SentNanos: now.UnixNano()}); err == nil {
				s.transport.Broadcast(msg)
			}
		}
	}
}

func (s *Server) onConnect(p *Peer) {
	s.log.Debug().Uint32("peer", uint32(p.ID)).Str("addr", p.Addr).Msg("Peer connected")
}

func (s *Server) onDisconnect(p *Peer) {
	if id := p.unbind(); id != "" {
		s.session.RemoveVehicle(id)
	}
	s.log.Debug().Uint32("peer", uint32(p.ID)).Msg("Peer disconnected")
}

func (s *Server) onMessage(p *Peer, msg *Message) {
	var err error
	switch msg.Type {
	case MsgPing:
		p.Send(NewMessage(MsgPong, msg.Payload))
	case MsgPong:
		err = s.handlePong(p, msg)
	case MsgJoin:
		err = s.handleJoin(p, msg)
	case MsgLeave:
		if id := p.unbind(); id != "" {
			s.session.RemoveVehicle(id)
		}
	case MsgInput:
		err = s.handleInput(p, msg)
	default:
		err = fmt.Errorf("unexpected message %s", msg.Type)
	}

	if err != nil {
		s.sampled.Debug().Err(err).Uint32("peer", uint32(p.ID)).Str("type", msg.Type.String()).Msg("Request refused")
		if reply, encErr := EncodePayload(MsgError, ErrorReply{Request: msg.Type, Reason: err.Error()}); encErr == nil {
			p.Send(reply)
		}
	}
}

func (s *Server) handlePong(p *Peer, msg *Message) error {
	var ping Ping
	if err := DecodePayload(msg, &ping); err != nil {
		return err
	}
	p.setRTT(time.Duration(time.Now().UnixNano() - ping.SentNanos))
	return nil
}

func (s *Server) handleJoin(p *Peer, msg *Message) error {
	var join Join
	if err := DecodePayload(msg, &join); err != nil {
		return err
	}
	if _, bound := p.Vehicle(); bound {
		return fmt.Errorf("peer %d already controls a vehicle", p.ID)
	}
	kind, err := core.ParseKind(join.Kind)
	if err != nil {
		return err
	}
	id := join.VehicleID
	if id == "" {
		id = core.VehicleID(fmt.Sprintf("peer-%d", p.ID))
	}

	if err := s.session.CreateVehicle(id, kind, join.Team, core.SpawnAt(join.Spawn, join.Yaw)); err != nil {
		return err
	}
	p.bind(id)

	reply, err := EncodePayload(MsgWelcome, Welcome{
		VehicleID: id,
		Tick:      s.session.Tick(),
		StepNanos: int64(s.session.FixedStep()),
	})
	if err != nil {
		return err
	}
	p.Send(reply)
	s.log.Info().Uint32("peer", uint32(p.ID)).Str("vehicle", string(id)).Str("kind", kind.String()).Msg("Peer joined")
	return nil
}

func (s *Server) handleInput(p *Peer, msg *Message) error {
	id, ok := p.Vehicle()
	if !ok {
		return ErrNotJoined
	}
	var sample core.InputSample
	if err := DecodePayload(msg, &sample); err != nil {
		return err
	}
	if err := s.gate.Admit(sample, time.Now(), p.RTT()); err != nil {
		s.rejected.Add(1)
		return err
	}
	if s.session.AddInput(id, sample) {
		s.accepted.Add(1)
	}
	return nil
}
