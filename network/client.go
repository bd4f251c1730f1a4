package network

import (
	"errors"
	"fmt"
	"time"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/snapshot"
)

// ErrRefused carries the server's ErrorReply reason
var ErrRefused = errors.New("request refused")

// Client is the player side of the framed protocol
// Snapshots arrive on a bounded channel, older batches are dropped when the reader lags
type Client struct {
	transport *Transport
	server    *Peer

	welcome   chan Welcome
	errs      chan error
	snapshots chan snapshot.Batch
}

// Dial connects to a server at cfg.Address
func Dial(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.Role != RoleClient {
		return nil, fmt.Errorf("dial needs client role config")
	}
	c := &Client{
		transport: NewTransport(cfg),
		welcome:   make(chan Welcome, 1),
		errs:      make(chan error, 8),
		snapshots: make(chan snapshot.Batch, 16),
	}
	c.transport.SetHandlers(nil, nil, c.onMessage)
	if err := c.transport.Start(); err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Address, err)
	}
	server, err := c.transport.Server()
	if err != nil {
		return nil, err
	}
	c.server = server
	return c, nil
}

// Snapshots returns the channel of received batches
func (c *Client) Snapshots() <-chan snapshot.Batch { return c.snapshots }

// Errors returns refusals reported by the server
func (c *Client) Errors() <-chan error { return c.errs }

// Done is closed when the connection ends
func (c *Client) Done() <-chan struct{} { return c.server.Done() }

// RTT returns the last measured round trip to the server
func (c *Client) RTT() time.Duration { return c.server.RTT() }

// Join requests a vehicle and waits for the welcome or a refusal
func (c *Client) Join(j Join, timeout time.Duration) (Welcome, error) {
	if err := c.send(MsgJoin, j); err != nil {
		return Welcome{}, err
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case w := <-c.welcome:
		return w, nil
	case err := <-c.errs:
		return Welcome{}, err
	case <-c.server.Done():
		return Welcome{}, ErrNotRunning
	case <-timer.C:
		return Welcome{}, fmt.Errorf("join: no reply within %v", timeout)
	}
}

// SendInput queues one sample for the server
func (c *Client) SendInput(s core.InputSample) error {
	return c.send(MsgInput, s)
}

// Leave releases the vehicle, the connection stays open
func (c *Client) Leave() error {
	if !c.server.Send(NewMessage(MsgLeave, nil)) {
		return ErrNotRunning
	}
	return nil
}

// Ping starts an RTT measurement
func (c *Client) Ping() error {
	return c.send(MsgPing, Ping{SentNanos: time.Now().UnixNano()})
}

// Close disconnects
func (c *Client) Close() error {
	return c.transport.Stop()
}

func (c *Client) send(t MessageType, v any) error {
	msg, err := EncodePayload(t, v)
	if err != nil {
		return err
	}
	if !c.server.Send(msg) {
		return ErrNotRunning
	}
	return nil
}

func (c *Client) onMessage(p *Peer, msg *Message) {
	switch msg.Type {
	case MsgPing:
		p.Send(NewMessage(MsgPong, msg.Payload))
	case MsgPong:
		var ping Ping
		if DecodePayload(msg, &ping) == nil {
			p.setRTT(time.Duration(time.Now().UnixNano() - ping.SentNanos))
		}
	case MsgWelcome:
		var w Welcome
		if DecodePayload(msg, &w) == nil {
			select {
			case c.welcome <- w:
			default:
			}
		}
	case MsgError:
		var reply ErrorReply
		if DecodePayload(msg, &reply) == nil {
			select {
			case c.errs <- fmt.Errorf("%w: %s: %s", ErrRefused, reply.Request, reply.Reason):
			default:
			}
		}
	case MsgSnapshot:
		b, err := snapshot.Unmarshal(msg.Payload)
		if err != nil {
			return
		}
		for {
			select {
			case c.snapshots <- b:
				return
			default:
			}
			// Full: discard the oldest and retry
			select {
			case <-c.snapshots:
			default:
			}
		}
	}
}
