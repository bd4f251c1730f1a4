package gateway

import (
	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/snapshot"
)

// Envelope types on the websocket
const (
	TypeWelcome  = "welcome"
	TypeInput    = "input"
	TypeSnapshot = "snapshot"
	TypeError    = "error"
)

// Envelope is every JSON frame exchanged with a browser client
type Envelope struct {
	Type string `json:"type"`

	ClientID  string         `json:"clientId,omitempty"`
	VehicleID core.VehicleID `json:"vehicleId,omitempty"`
	Tick      uint64         `json:"tick,omitempty"`
	StepMs    float64        `json:"stepMs,omitempty"`

	Input    *core.InputSample `json:"input,omitempty"`
	Snapshot *snapshot.Batch   `json:"snapshot,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Health is the /health response body
type Health struct {
	Status   string `json:"status"`
	Tick     uint64 `json:"tick"`
	Vehicles int    `json:"vehicles"`
	Clients  int    `json:"clients"`
}
