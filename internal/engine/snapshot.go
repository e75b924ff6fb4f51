package engine

import "github.com/dvaldano/heatworks/server/internal/domain/structure"

// CellSnapshot is the read-only view of one occupied-or-heated cell.
type CellSnapshot struct {
	X    int            `json:"x"`
	Y    int            `json:"y"`
	Type structure.Type `json:"type,omitempty"`
	Heat float64        `json:"heat"`
}

// PowerStats is the cumulative generation record for the stats display.
type PowerStats struct {
	PowerProduced    float64     `json:"power_produced"`
	PowerSold        float64     `json:"power_sold"`
	LifetimeEarnings int64       `json:"lifetime_earnings"`
	LastTick         PowerReport `json:"last_tick"`
}

// Snapshot is the full read-only state as of the last completed tick. It is
// rebuilt once per tick and safe to hand out to any number of readers.
type Snapshot struct {
	Tick       uint64         `json:"tick"`
	GridSize   int            `json:"grid_size"`
	Cells      []CellSnapshot `json:"cells"`
	Money      int64          `json:"money"`
	Tier       int            `json:"tier"`
	TotalHeat  float64        `json:"total_heat"`
	PowerStats PowerStats     `json:"power_stats"`
}
