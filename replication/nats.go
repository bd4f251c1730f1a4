package replication

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/lixenwraith/skyfight/snapshot"
)

// JetStream is the subset of nats.JetStreamContext used for publishing
type JetStream interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSTarget publishes msgpack batches to a JetStream subject
type NATSTarget struct {
	conn    *nats.Conn
	js      JetStream
	subject string
}

// NewNATS connects to url and ensures stream captures subject
func NewNATS(url, stream, subject string) (*NATSTarget, error) {
	nc, err := nats.Connect(url, nats.Name("skyfight"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     stream,
		Subjects: []string{subject},
		Storage:  nats.MemoryStorage,
		MaxAge:   10 * time.Minute,
	})
	if err != nil && !strings.Contains(err.Error(), "stream name already in use") {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream %s: %w", stream, err)
	}

	return &NATSTarget{conn: nc, js: js, subject: subject}, nil
}

// NewNATSWithJetStream wraps an existing publisher, used by tests
func NewNATSWithJetStream(js JetStream, subject string) *NATSTarget {
	return &NATSTarget{js: js, subject: subject}
}

func (n *NATSTarget) Name() string { return "nats" }

// Replicate publishes b, deduplicated by JetStream on its tick
func (n *NATSTarget) Replicate(ctx context.Context, b snapshot.Batch) error {
	data, err := snapshot.Marshal(b)
	if err != nil {
		return err
	}
	_, err = n.js.Publish(n.subject, data,
		nats.Context(ctx),
		nats.MsgId(fmt.Sprintf("tick-%d", b.Tick)),
	)
	if err != nil {
		return fmt.Errorf("failed to publish tick %d: %w", b.Tick, err)
	}
	return nil
}

func (n *NATSTarget) Close() error {
	if n.conn != nil {
		return n.conn.Drain()
	}
	return nil
}
