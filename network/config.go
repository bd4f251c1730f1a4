package network

import (
	"crypto/tls"
	"time"
)

// Role defines which side of the connection this transport plays
type Role uint8

const (
	RoleNone   Role = iota // network disabled
	RoleClient             // connects to a server
	RoleServer             // accepts connections
)

// Config holds network configuration
type Config struct {
	Role Role

	// Address to bind (server) or connect to (client)
	Address string

	// TLS configuration, nil means plaintext
	TLS *tls.Config

	MaxPeers int

	// Timing
	ConnectTimeout    time.Duration
	HeartbeatInterval time.Duration
	DisconnectTimeout time.Duration

	// Buffers
	ReadBufferSize  int
	WriteBufferSize int
	SendQueueSize   int

	// SnapshotEvery sends one snapshot per this many ticks, 1 sends all
	SnapshotEvery int
}

// DefaultConfig returns production-safe defaults
func DefaultConfig() *Config {
	return &Config{
		Role:              RoleNone,
		Address:           ":7777",
		MaxPeers:          16,
		ConnectTimeout:    5 * time.Second,
		HeartbeatInterval: time.Second,
		DisconnectTimeout: 10 * time.Second,
		ReadBufferSize:    64 * 1024,
		WriteBufferSize:   64 * 1024,
		SendQueueSize:     256,
		SnapshotEvery:     1,
	}
}

// ServerConfig returns defaults for a listening server on addr
func ServerConfig(addr string) *Config {
	cfg := DefaultConfig()
	cfg.Role = RoleServer
	cfg.Address = addr
	return cfg
}

// ClientConfig returns defaults for a client dialing addr
func ClientConfig(addr string) *Config {
	cfg := DefaultConfig()
	cfg.Role = RoleClient
	cfg.Address = addr
	return cfg
}
