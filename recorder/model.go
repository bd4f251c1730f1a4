package recorder

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Match is one recorded session run
type Match struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	StartedAt time.Time `gorm:"not null"`
	EndedAt   *time.Time
	TickRate  int
	LastTick  uint64
	Settings  datatypes.JSON
}

// CollisionRecord is one classified collision
type CollisionRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	MatchID   uuid.UUID `gorm:"type:uuid;index:idx_collision_match_tick,priority:1"`
	Tick      uint64    `gorm:"index:idx_collision_match_tick,priority:2"`
	Timestamp int64
	Type      string `gorm:"size:32;index"`
	Severity  string `gorm:"size:16"`
	VehicleA  string `gorm:"size:64"`
	VehicleB  string `gorm:"size:64"`
	Impact    float64
	Contact   datatypes.JSON
}

// SnapshotRecord is one sampled snapshot batch
type SnapshotRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	MatchID   uuid.UUID `gorm:"type:uuid;index:idx_snapshot_match_tick,priority:1"`
	Tick      uint64    `gorm:"index:idx_snapshot_match_tick,priority:2"`
	Timestamp int64
	Vehicles  int
	Data      datatypes.JSON
}

// Models lists every table for migration
func Models() []any {
	return []any{&Match{}, &CollisionRecord{}, &SnapshotRecord{}}
}
