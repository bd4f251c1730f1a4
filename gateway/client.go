package gateway

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/ksuid"

	"github.com/lixenwraith/skyfight/core"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = time.Second
)

// wsClient is one browser connection controlling one vehicle
type wsClient struct {
	id      ksuid.KSUID
	vehicle core.VehicleID
	conn    *websocket.Conn
	send    chan []byte

	// rtt from websocket ping/pong control frames, nanoseconds
	rtt atomic.Int64

	done chan struct{}
}

func newClient(id ksuid.KSUID, vehicle core.VehicleID, conn *websocket.Conn, queue int) *wsClient {
	return &wsClient{
		id:      id,
		vehicle: vehicle,
		conn:    conn,
		send:    make(chan []byte, queue),
		done:    make(chan struct{}),
	}
}

func (c *wsClient) RTT() time.Duration {
	return time.Duration(c.rtt.Load())
}

// enqueue never blocks, a lagging browser drops frames
func (c *wsClient) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// writeLoop owns all writes to conn, including ping control frames carrying send time
func (c *wsClient) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case now := <-ticker.C:
			stamp, _ := now.MarshalBinary()
			if err := c.conn.WriteControl(websocket.PingMessage, stamp, now.Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) handlePong(data string) error {
	var sent time.Time
	if err := sent.UnmarshalBinary([]byte(data)); err == nil {
		if d := time.Since(sent); d > 0 {
			c.rtt.Store(int64(d))
		}
	}
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}
