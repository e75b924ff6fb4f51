// Package test - coldstart.go
// Acceptance harness: "Cold Start". Boots a fresh plant, builds a small
// working layout and runs the simulation for a fixed number of ticks,
// checking the economy and thermal invariants hold end to end.
package test

import (
	"fmt"
	"math"

	"github.com/dvaldano/heatworks/server/internal/domain/structure"
	"github.com/dvaldano/heatworks/server/internal/engine"
	"github.com/dvaldano/heatworks/server/internal/events"
	"github.com/dvaldano/heatworks/server/internal/platform/logger"
	"github.com/dvaldano/heatworks/server/internal/platform/tuning"
)

// TestResult captures the outcome of each scenario.
type TestResult struct {
	ScenarioName string
	Expected     string
	Actual       string
	Passed       bool
	Reason       string
}

// ColdStartTest drives a fresh engine through the standard bring-up:
// fuel rods, cooling, a turbine and a substation.
type ColdStartTest struct {
	engine   *engine.Engine
	eventLog *events.EventLog
	tuning   tuning.Tuning
	logger   *logger.Logger
	results  []TestResult
}

// NewColdStartTest creates the harness with compiled-in tuning defaults.
func NewColdStartTest() *ColdStartTest {
	log := logger.NewLogger()
	el := events.NewEventLog(nil)
	tun := tuning.Default()

	return &ColdStartTest{
		engine:   engine.NewEngine(tun, el, log),
		eventLog: el,
		tuning:   tun,
		logger:   log,
		results:  make([]TestResult, 0),
	}
}

func (t *ColdStartTest) record(name, expected, actual string, passed bool, reason string) {
	t.results = append(t.results, TestResult{
		ScenarioName: name,
		Expected:     expected,
		Actual:       actual,
		Passed:       passed,
		Reason:       reason,
	})
}

// RunTest executes the cold start acceptance scenario.
func (t *ColdStartTest) RunTest(ticks int) {
	fmt.Println("\n============================================================")
	fmt.Println("ACCEPTANCE TEST: COLD START")
	fmt.Println("============================================================")

	// Phase 1: build the starter layout. Requests settle on the next tick.
	t.engine.EnqueueBuild(4, 4, structure.TypeFuelRod, "ACCEPTANCE")
	t.engine.EnqueueBuild(5, 4, structure.TypeTurbine, "ACCEPTANCE")
	t.engine.EnqueueBuild(6, 4, structure.TypeSubstation, "ACCEPTANCE")
	t.engine.EnqueueBuild(4, 5, structure.TypeVentilator, "ACCEPTANCE")

	report := t.engine.Tick()

	accepted := 0
	for _, r := range report.Results {
		if r.Accepted {
			accepted++
		}
	}
	t.record(
		"Starter layout settles",
		"4 requests accepted",
		fmt.Sprintf("%d accepted", accepted),
		accepted == 4,
		"queued builds settle in FIFO order on the next tick",
	)

	snap := t.engine.Snapshot()
	spent := t.tuning.Economy.StartingMoney - snap.Money
	wantSpent := t.tuning.Economy.BaseCosts.FuelRod +
		t.tuning.Economy.BaseCosts.Turbine +
		t.tuning.Economy.BaseCosts.Substation +
		t.tuning.Economy.BaseCosts.Ventilator
	t.record(
		"Build costs debited",
		fmt.Sprintf("spent %d", wantSpent),
		fmt.Sprintf("spent %d", spent),
		spent == wantSpent,
		"every accepted build debits its tier-0 base cost",
	)

	// Phase 2: run the plant.
	startMoney := snap.Money
	for i := 0; i < ticks; i++ {
		t.engine.Tick()
		s := t.engine.Snapshot()
		if s.TotalHeat < 0 || math.IsNaN(s.TotalHeat) {
			t.record(
				"Heat stays physical",
				"total heat >= 0",
				fmt.Sprintf("total heat %.3f at tick %d", s.TotalHeat, s.Tick),
				false,
				"diffusion or sinks drove heat negative",
			)
			break
		}
	}

	final := t.engine.Snapshot()
	t.record(
		"Heat stays physical",
		"total heat >= 0 over all ticks",
		fmt.Sprintf("total heat %.3f", final.TotalHeat),
		final.TotalHeat >= 0,
		"clamped sinks never push a cell below zero",
	)

	t.record(
		"Turbine chain earns money",
		"money grows after enough ticks",
		fmt.Sprintf("money %d -> %d", startMoney, final.Money),
		final.Money > startMoney,
		"rod heat reaches the adjacent turbine, substation sells the power",
	)

	t.record(
		"Power accounted",
		"produced >= sold",
		fmt.Sprintf("produced %.2f sold %.2f", final.PowerStats.PowerProduced, final.PowerStats.PowerSold),
		final.PowerStats.PowerProduced >= final.PowerStats.PowerSold,
		"substation capacity bounds what can be sold",
	)

	// Phase 3: demolish refunds 75% of the price paid.
	beforeDemolish := t.engine.Snapshot().Money
	t.engine.EnqueueDemolish(4, 5, "ACCEPTANCE")
	t.engine.Tick()
	afterDemolish := t.engine.Snapshot().Money

	paid := t.tuning.Economy.BaseCosts.Ventilator
	wantRefund := paid * int64(t.tuning.Economy.RefundPercent) / 100
	gotGain := afterDemolish - beforeDemolish
	// The running tick may also credit sale income; refund sets the floor.
	t.record(
		"Demolish refunds paid cost",
		fmt.Sprintf("gain >= %d", wantRefund),
		fmt.Sprintf("gain %d", gotGain),
		gotGain >= wantRefund,
		"refund is a fixed percentage of the recorded purchase price",
	)

	// Phase 4: replay journal sanity.
	stats := map[events.EventType]int{}
	for _, e := range t.eventLog.Replay() {
		stats[e.Type]++
	}
	t.record(
		"Event journal complete",
		fmt.Sprintf("%d TIME_TICK, 4 STRUCTURE_BUILT, 1 STRUCTURE_DEMOLISHED", ticks+2),
		fmt.Sprintf("%d TIME_TICK, %d STRUCTURE_BUILT, %d STRUCTURE_DEMOLISHED",
			stats[events.EventTypeTimeTick],
			stats[events.EventTypeStructureBuilt],
			stats[events.EventTypeStructureDemolished]),
		stats[events.EventTypeTimeTick] == ticks+2 &&
			stats[events.EventTypeStructureBuilt] == 4 &&
			stats[events.EventTypeStructureDemolished] == 1,
		"every settled request and tick leaves a journal entry",
	)

	t.printResults()
}

func (t *ColdStartTest) printResults() {
	fmt.Println("\n------------------------------------------------------------")
	for _, r := range t.results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s\n", status, r.ScenarioName)
		fmt.Printf("       expected: %s\n", r.Expected)
		fmt.Printf("       actual:   %s\n", r.Actual)
		if !r.Passed {
			fmt.Printf("       reason:   %s\n", r.Reason)
		}
	}
	fmt.Println("------------------------------------------------------------")
}

// GetResults returns all scenario results.
func (t *ColdStartTest) GetResults() []TestResult {
	return t.results
}
