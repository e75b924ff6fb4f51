package engine

import (
	"testing"

	"github.com/dvaldano/heatworks/server/internal/domain/structure"
	"github.com/dvaldano/heatworks/server/internal/events"
	"github.com/dvaldano/heatworks/server/internal/platform/logger"
	"github.com/dvaldano/heatworks/server/internal/platform/tuning"
)

func newTestEngine(t *testing.T) (*Engine, *events.EventLog, tuning.Tuning) {
	t.Helper()
	tun := tuning.Default()
	el := events.NewEventLog(nil)
	return NewEngine(tun, el, logger.NewLogger()), el, tun
}

func TestRequestsSettleAtTickBoundary(t *testing.T) {
	eng, _, tun := newTestEngine(t)

	id := eng.EnqueueBuild(3, 3, structure.TypeFuelRod, "OP_1")
	if id == "" {
		t.Fatal("Expected a non-empty request ID")
	}

	// Nothing happens until the tick boundary.
	snap := eng.Snapshot()
	if snap.Money != tun.Economy.StartingMoney {
		t.Fatalf("Expected untouched balance before the tick, got %d", snap.Money)
	}
	if len(snap.Cells) != 0 {
		t.Fatalf("Expected empty grid before the tick, got %d cells", len(snap.Cells))
	}

	report := eng.Tick()

	if len(report.Results) != 1 {
		t.Fatalf("Expected 1 settlement result, got %d", len(report.Results))
	}
	if !report.Results[0].Accepted {
		t.Fatalf("Expected the build accepted, got %s", report.Results[0].Reason)
	}
	if report.Results[0].Request.ID != id {
		t.Errorf("Expected result to carry request ID %s, got %s", id, report.Results[0].Request.ID)
	}

	snap = eng.Snapshot()
	if snap.Tick != 1 {
		t.Errorf("Expected snapshot at tick 1, got %d", snap.Tick)
	}
	if snap.Money != tun.Economy.StartingMoney-tun.Economy.BaseCosts.FuelRod {
		t.Errorf("Expected the rod cost debited, got %d", snap.Money)
	}
	found := false
	for _, c := range snap.Cells {
		if c.X == 3 && c.Y == 3 && c.Type == structure.TypeFuelRod {
			found = true
		}
	}
	if !found {
		t.Error("Expected the snapshot to contain the built fuel rod")
	}
}

func TestVentilatorReducesHeatAgainstBaseline(t *testing.T) {
	// Baseline plant: a lone fuel rod.
	baseline, _, _ := newTestEngine(t)
	baseline.EnqueueBuild(7, 7, structure.TypeFuelRod, "OP_1")

	// Cooled plant: the same rod with a ventilator next door.
	cooled, _, _ := newTestEngine(t)
	cooled.EnqueueBuild(7, 7, structure.TypeFuelRod, "OP_1")
	cooled.EnqueueBuild(6, 7, structure.TypeVentilator, "OP_1")

	for i := 0; i < 10; i++ {
		baseline.Tick()
		cooled.Tick()
	}

	var rodHeat float64
	for _, c := range cooled.Snapshot().Cells {
		if c.X == 7 && c.Y == 7 {
			rodHeat = c.Heat
		}
	}
	if rodHeat <= 0 {
		t.Errorf("Expected the fuel rod cell to be hot, got %.3f", rodHeat)
	}
	if cooled.Snapshot().TotalHeat >= baseline.Snapshot().TotalHeat {
		t.Errorf("Expected the ventilator to remove heat: %.3f vs baseline %.3f",
			cooled.Snapshot().TotalHeat, baseline.Snapshot().TotalHeat)
	}
}

func TestSubstationSpamUntilBroke(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	// 100 starting money buys exactly 5 substations at 20 each.
	for i := 0; i < 6; i++ {
		eng.EnqueueBuild(i, 0, structure.TypeSubstation, "SPAMMER")
	}
	report := eng.Tick()

	accepted, rejected := 0, 0
	for _, r := range report.Results {
		if r.Accepted {
			accepted++
		} else {
			rejected++
			if r.Reason != "not enough money" {
				t.Errorf("Expected insufficient-funds rejection, got %q", r.Reason)
			}
		}
	}
	if accepted != 5 || rejected != 1 {
		t.Errorf("Expected 5 accepted and 1 rejected, got %d and %d", accepted, rejected)
	}
	if snap := eng.Snapshot(); snap.Money != 0 {
		t.Errorf("Expected the spammer to hit zero, got %d", snap.Money)
	}
}

func TestTurbineChainEarnsOverTime(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	eng.EnqueueBuild(4, 4, structure.TypeFuelRod, "OP_1")
	eng.EnqueueBuild(5, 4, structure.TypeTurbine, "OP_1")
	eng.EnqueueBuild(6, 4, structure.TypeSubstation, "OP_1")
	eng.Tick()

	afterBuild := eng.Snapshot().Money
	for i := 0; i < 80; i++ {
		eng.Tick()
	}
	snap := eng.Snapshot()

	if snap.Money <= afterBuild {
		t.Errorf("Expected the rod-turbine-substation chain to earn money, got %d -> %d", afterBuild, snap.Money)
	}
	if snap.PowerStats.PowerProduced <= 0 {
		t.Errorf("Expected cumulative power production, got %.3f", snap.PowerStats.PowerProduced)
	}
	if snap.PowerStats.PowerSold > snap.PowerStats.PowerProduced {
		t.Errorf("Sold power %.3f cannot exceed produced %.3f", snap.PowerStats.PowerSold, snap.PowerStats.PowerProduced)
	}
	if snap.TotalHeat < 0 {
		t.Errorf("Total heat must stay non-negative, got %.3f", snap.TotalHeat)
	}
}

func TestTimeTickEventsAccumulate(t *testing.T) {
	eng, el, _ := newTestEngine(t)

	for i := 0; i < 5; i++ {
		eng.Tick()
	}

	ticks := el.GetByType(events.EventTypeTimeTick)
	if len(ticks) != 5 {
		t.Fatalf("Expected 5 TIME_TICK events, got %d", len(ticks))
	}
	for i, e := range ticks {
		if e.Tick != uint64(i+1) {
			t.Errorf("Expected event %d on tick %d, got %d", i, i+1, e.Tick)
		}
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	eng, el, tun := newTestEngine(t)

	eng.EnqueueBuild(0, 0, structure.TypeFuelRod, "OP_1")
	eng.Tick()
	eng.Tick()

	// A queued request left over from before the reset must not leak through.
	eng.EnqueueBuild(1, 1, structure.TypeTurbine, "OP_1")
	eng.Reset()

	snap := eng.Snapshot()
	if snap.Tick != 0 {
		t.Errorf("Expected tick 0 after reset, got %d", snap.Tick)
	}
	if snap.Money != tun.Economy.StartingMoney {
		t.Errorf("Expected starting balance after reset, got %d", snap.Money)
	}
	if len(snap.Cells) != 0 {
		t.Errorf("Expected empty grid after reset, got %d cells", len(snap.Cells))
	}

	report := eng.Tick()
	if len(report.Results) != 0 {
		t.Errorf("Expected drained queue after reset, got %d settlements", len(report.Results))
	}

	if n := len(el.GetByType(events.EventTypePlantReset)); n != 1 {
		t.Errorf("Expected 1 PLANT_RESET event, got %d", n)
	}
}
