package network

import (
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"sync/atomic"
)

// ErrNotRunning is returned by operations that need a started transport
var ErrNotRunning = errors.New("transport not running")

// Transport handles network I/O for a specific role
type Transport struct {
	config   *Config
	listener net.Listener
	peers    *PeerManager
	server   *Peer // client role: the connection to the server

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewTransport creates a transport with the given configuration
func NewTransport(cfg *Config) *Transport {
	return &Transport{
		config: cfg,
		peers:  NewPeerManager(cfg),
		stopCh: make(chan struct{}),
	}
}

// SetHandlers configures message and connection callbacks
func (t *Transport) SetHandlers(
	onConnect func(*Peer),
	onDisconnect func(*Peer),
	onMessage func(*Peer, *Message),
) {
	t.peers.SetHandlers(onConnect, onDisconnect, onMessage)
}

// Start begins listening (server) or connecting (client)
func (t *Transport) Start() error {
	if !t.running.CompareAndSwap(false, true) {
		return nil
	}

	switch t.config.Role {
	case RoleServer:
		return t.startServer()
	case RoleClient:
		return t.startClient()
	default:
		return nil
	}
}

func (t *Transport) startServer() error {
	var ln net.Listener
	var err error
	if t.config.TLS != nil {
		ln, err = tls.Listen("tcp", t.config.Address, t.config.TLS)
	} else {
		ln, err = net.Listen("tcp", t.config.Address)
	}
	if err != nil {
		t.running.Store(false)
		return err
	}
	t.listener = ln

	t.wg.Add(1)
	go t.acceptLoop()
	return nil
}

func (t *Transport) acceptLoop() {
	defer t.wg.Done()

	for {
		conn, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.stopCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		// Over-limit connections are closed by AddConnection
		_, _ = t.peers.AddConnection(conn)
	}
}

func (t *Transport) startClient() error {
	conn, err := dial(t.config.Address, t.config)
	if err != nil {
		t.running.Store(false)
		return err
	}
	peer, err := t.peers.AddConnection(conn)
	if err != nil {
		t.running.Store(false)
		return err
	}
	t.server = peer
	return nil
}

// Stop closes the listener and every peer, safe to call repeatedly
func (t *Transport) Stop() error {
	if !t.running.CompareAndSwap(true, false) {
		return nil
	}
	close(t.stopCh)
	if t.listener != nil {
		t.listener.Close()
	}
	t.wg.Wait()
	t.peers.Close()
	return nil
}

// Addr returns the bound listen address, nil unless serving
func (t *Transport) Addr() net.Addr {
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

// Server returns the client role's server connection
func (t *Transport) Server() (*Peer, error) {
	if !t.running.Load() || t.server == nil {
		return nil, ErrNotRunning
	}
	return t.server, nil
}

// Send transmits to a specific peer
func (t *Transport) Send(id PeerID, msg *Message) bool {
	return t.peers.Send(id, msg)
}

// Broadcast sends to all peers
func (t *Transport) Broadcast(msg *Message) {
	t.peers.Broadcast(msg)
}

// Peer returns a connected peer
func (t *Transport) Peer(id PeerID) (*Peer, bool) {
	return t.peers.GetPeer(id)
}

// PeerCount returns connected peer count
func (t *Transport) PeerCount() int {
	return t.peers.PeerCount()
}

// IsRunning returns transport state
func (t *Transport) IsRunning() bool {
	return t.running.Load()
}
