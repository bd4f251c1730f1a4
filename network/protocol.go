package network

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/vmath"
)

// MessageType identifies the semantic meaning of a message
type MessageType uint8

const (
	// Control
	MsgPing  MessageType = 0x01
	MsgPong  MessageType = 0x02
	MsgError MessageType = 0x03

	// Session membership
	MsgJoin    MessageType = 0x10 // client asks for a vehicle
	MsgWelcome MessageType = 0x11 // server confirms the vehicle and clock
	MsgLeave   MessageType = 0x12

	// Simulation
	MsgInput    MessageType = 0x20 // one InputSample
	MsgSnapshot MessageType = 0x21 // one snapshot.Batch
)

func (t MessageType) String() string {
	switch t {
	case MsgPing:
		return "ping"
	case MsgPong:
		return "pong"
	case MsgError:
		return "error"
	case MsgJoin:
		return "join"
	case MsgWelcome:
		return "welcome"
	case MsgLeave:
		return "leave"
	case MsgInput:
		return "input"
	case MsgSnapshot:
		return "snapshot"
	}
	return fmt.Sprintf("0x%02x", uint8(t))
}

// HeaderSize is the fixed frame header: [Type:1][Flags:1][Seq:4][Ack:4][Len:2]
const HeaderSize = 12

// MaxPayload is the largest payload a frame can carry
const MaxPayload = 65535

const (
	FlagNone uint8 = 0x00
)

// ErrPayloadTooLarge rejects frames whose payload exceeds MaxPayload
var ErrPayloadTooLarge = errors.New("payload exceeds maximum size")

// Message represents a framed network message
type Message struct {
	Type    MessageType
	Flags   uint8
	Seq     uint32 // sender's sequence number
	Ack     uint32 // last sequence received from peer
	Payload []byte
}

// Encode writes header and payload to w
func (m *Message) Encode(w io.Writer) error {
	n := len(m.Payload)
	if n > MaxPayload {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, n)
	}

	var header [HeaderSize]byte
	header[0] = byte(m.Type)
	header[1] = m.Flags
	binary.BigEndian.PutUint32(header[2:6], m.Seq)
	binary.BigEndian.PutUint32(header[6:10], m.Ack)
	binary.BigEndian.PutUint16(header[10:12], uint16(n))

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if n > 0 {
		if _, err := w.Write(m.Payload); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads one message from r
func Decode(r io.Reader) (*Message, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	m := &Message{
		Type:  MessageType(header[0]),
		Flags: header[1],
		Seq:   binary.BigEndian.Uint32(header[2:6]),
		Ack:   binary.BigEndian.Uint32(header[6:10]),
	}
	if n := binary.BigEndian.Uint16(header[10:12]); n > 0 {
		m.Payload = make([]byte, n)
		if _, err := io.ReadFull(r, m.Payload); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewMessage creates a message with the given type and payload
func NewMessage(t MessageType, payload []byte) *Message {
	return &Message{Type: t, Payload: payload}
}

// Join asks the server for a vehicle
type Join struct {
	VehicleID core.VehicleID `msgpack:"id"`
	Kind      string         `msgpack:"kind"`
	Team      core.Team      `msgpack:"team"`
	Spawn     vmath.Vec3     `msgpack:"spawn"`
	Yaw       float64        `msgpack:"yaw"`
}

// Welcome confirms a Join with the server clock
type Welcome struct {
	VehicleID core.VehicleID `msgpack:"id"`
	Tick      uint64         `msgpack:"tick"`
	StepNanos int64          `msgpack:"step"`
}

// Ping carries the sender's clock, echoed back in Pong
type Ping struct {
	SentNanos int64 `msgpack:"sent"`
}

// ErrorReply explains a refused request
type ErrorReply struct {
	Request MessageType `msgpack:"req"`
	Reason  string      `msgpack:"reason"`
}

// EncodePayload packs v as a message of type t
func EncodePayload(t MessageType, v any) (*Message, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return NewMessage(t, data), nil
}

// DecodePayload unpacks m's payload into v
func DecodePayload(m *Message, v any) error {
	if err := msgpack.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}
