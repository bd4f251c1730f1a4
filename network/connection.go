package network

import (
	"bufio"
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/skyfight/core"
)

// ErrMaxPeers rejects connections beyond Config.MaxPeers
var ErrMaxPeers = errors.New("max peers reached")

// PeerID uniquely identifies a connection for its lifetime
type PeerID uint32

// ConnState represents connection lifecycle state
type ConnState uint8

const (
	StateDisconnected ConnState = iota
	StateConnected
	StateDisconnecting
)

// Peer represents a remote endpoint
type Peer struct {
	ID       PeerID
	Addr     string
	State    atomic.Uint32 // ConnState
	LastSeen atomic.Int64  // UnixNano

	OutSeq atomic.Uint32 // next outbound sequence
	InSeq  atomic.Uint32 // last processed inbound sequence

	// rtt is the latest ping round trip in nanoseconds
	rtt atomic.Int64

	mu      sync.RWMutex
	vehicle core.VehicleID

	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	sendCh chan *Message

	closeCh   chan struct{}
	closeOnce sync.Once
}

func newPeer(id PeerID, conn net.Conn, cfg *Config) *Peer {
	p := &Peer{
		ID:      id,
		Addr:    conn.RemoteAddr().String(),
		conn:    conn,
		reader:  bufio.NewReaderSize(conn, cfg.ReadBufferSize),
		writer:  bufio.NewWriterSize(conn, cfg.WriteBufferSize),
		sendCh:  make(chan *Message, cfg.SendQueueSize),
		closeCh: make(chan struct{}),
	}
	p.State.Store(uint32(StateConnected))
	p.LastSeen.Store(time.Now().UnixNano())
	return p
}

// Send queues msg, false if the peer is closing or its queue is full
// Never blocks, callers inside the tick loop rely on that
func (p *Peer) Send(msg *Message) bool {
	if ConnState(p.State.Load()) != StateConnected {
		return false
	}

	msg.Seq = p.OutSeq.Add(1)
	msg.Ack = p.InSeq.Load()

	select {
	case p.sendCh <- msg:
		return true
	default:
		return false
	}
}

// RTT returns the last measured round trip, 0 before the first pong
func (p *Peer) RTT() time.Duration {
	return time.Duration(p.rtt.Load())
}

func (p *Peer) setRTT(d time.Duration) {
	if d > 0 {
		p.rtt.Store(int64(d))
	}
}

// Vehicle returns the vehicle bound by a successful join
func (p *Peer) Vehicle() (core.VehicleID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.vehicle, p.vehicle != ""
}

// bind sets the peer's vehicle, false if one is already bound
func (p *Peer) bind(id core.VehicleID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.vehicle != "" {
		return false
	}
	p.vehicle = id
	return true
}

func (p *Peer) unbind() core.VehicleID {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.vehicle
	p.vehicle = ""
	return id
}

// Close initiates shutdown, safe to call repeatedly
func (p *Peer) Close() {
	p.closeOnce.Do(func() {
		p.State.Store(uint32(StateDisconnecting))
		close(p.closeCh)
		p.conn.Close()
	})
}

// Done is closed once the peer shuts down
func (p *Peer) Done() <-chan struct{} {
	return p.closeCh
}

func (p *Peer) readLoop(handler func(*Peer, *Message)) {
	defer p.Close()

	for {
		msg, err := Decode(p.reader)
		if err != nil {
			return
		}

		p.LastSeen.Store(time.Now().UnixNano())
		if msg.Seq > p.InSeq.Load() {
			p.InSeq.Store(msg.Seq)
		}

		handler(p, msg)
	}
}

func (p *Peer) writeLoop() {
	defer p.Close()

	for {
		select {
		case <-p.closeCh:
			return
		case msg := <-p.sendCh:
			if err := msg.Encode(p.writer); err != nil {
				return
			}
			// Coalesce whatever queued meanwhile into one flush
			for drained := false; !drained; {
				select {
				case more := <-p.sendCh:
					if err := more.Encode(p.writer); err != nil {
						return
					}
				default:
					drained = true
				}
			}
			if err := p.writer.Flush(); err != nil {
				return
			}
		}
	}
}

// PeerManager handles multiple peer connections
type PeerManager struct {
	mu       sync.RWMutex
	peers    map[PeerID]*Peer
	nextID   atomic.Uint32
	maxPeers int
	config   *Config
	wg       sync.WaitGroup

	onConnect    func(*Peer)
	onDisconnect func(*Peer)
	onMessage    func(*Peer, *Message)
}

// NewPeerManager creates a peer manager
func NewPeerManager(cfg *Config) *PeerManager {
	return &PeerManager{
		peers:    make(map[PeerID]*Peer),
		maxPeers: cfg.MaxPeers,
		config:   cfg,
	}
}

// SetHandlers configures event callbacks, must be called before the first connection
func (pm *PeerManager) SetHandlers(
	onConnect func(*Peer),
	onDisconnect func(*Peer),
	onMessage func(*Peer, *Message),
) {
	pm.onConnect = onConnect
	pm.onDisconnect = onDisconnect
	pm.onMessage = onMessage
}

// AddConnection registers a peer for conn and starts its I/O loops
func (pm *PeerManager) AddConnection(conn net.Conn) (*Peer, error) {
	pm.mu.Lock()
	if pm.maxPeers > 0 && len(pm.peers) >= pm.maxPeers {
		pm.mu.Unlock()
		conn.Close()
		return nil, ErrMaxPeers
	}
	peer := newPeer(PeerID(pm.nextID.Add(1)), conn, pm.config)
	pm.peers[peer.ID] = peer
	pm.mu.Unlock()

	if pm.onConnect != nil {
		pm.onConnect(peer)
	}

	pm.wg.Add(3)
	go func() {
		defer pm.wg.Done()
		peer.readLoop(pm.handleMessage)
	}()
	go func() {
		defer pm.wg.Done()
		peer.writeLoop()
	}()
	go func() {
		defer pm.wg.Done()
		pm.monitorPeer(peer)
	}()

	return peer, nil
}

func (pm *PeerManager) handleMessage(p *Peer, msg *Message) {
	if pm.onMessage != nil {
		pm.onMessage(p, msg)
	}
}

// monitorPeer closes silent peers and unregisters closed ones
func (pm *PeerManager) monitorPeer(peer *Peer) {
	var tick <-chan time.Time
	if pm.config.DisconnectTimeout > 0 {
		ticker := time.NewTicker(pm.config.DisconnectTimeout / 4)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-peer.closeCh:
			pm.mu.Lock()
			delete(pm.peers, peer.ID)
			pm.mu.Unlock()
			if pm.onDisconnect != nil {
				pm.onDisconnect(peer)
			}
			return
		case now := <-tick:
			if now.UnixNano()-peer.LastSeen.Load() > int64(pm.config.DisconnectTimeout) {
				peer.Close()
			}
		}
	}
}

// Send transmits a message to a specific peer
func (pm *PeerManager) Send(id PeerID, msg *Message) bool {
	pm.mu.RLock()
	peer, ok := pm.peers[id]
	pm.mu.RUnlock()
	if !ok {
		return false
	}
	return peer.Send(msg)
}

// Broadcast sends msg to every connected peer
func (pm *PeerManager) Broadcast(msg *Message) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	for _, peer := range pm.peers {
		// Each peer stamps its own sequence numbers
		clone := *msg
		peer.Send(&clone)
	}
}

// GetPeer retrieves a peer by ID
func (pm *PeerManager) GetPeer(id PeerID) (*Peer, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	p, ok := pm.peers[id]
	return p, ok
}

// PeerCount returns current connected peer count
func (pm *PeerManager) PeerCount() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.peers)
}

// Close disconnects all peers and waits for their loops
func (pm *PeerManager) Close() {
	pm.mu.RLock()
	peers := make([]*Peer, 0, len(pm.peers))
	for _, p := range pm.peers {
		peers = append(peers, p)
	}
	pm.mu.RUnlock()

	for _, p := range peers {
		p.Close()
	}
	pm.wg.Wait()
}

// dial establishes a connection with optional TLS
func dial(addr string, cfg *Config) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	if cfg.TLS != nil {
		return tls.DialWithDialer(dialer, "tcp", addr, cfg.TLS)
	}
	return dialer.Dial("tcp", addr)
}
