// Package economy tracks the plant's money, tech tier and cumulative power
// statistics. This package is PURE and must NOT import any infrastructure
// packages.
package economy

import "errors"

// ErrInsufficientFunds rejects a debit that would take money negative.
var ErrInsufficientFunds = errors.New("not enough money")

// Economy is the plant-wide financial state. It owns tier progression:
// crossing a lifetime-earnings threshold advances the tier. Everything else
// reads tier as an input and never mutates it.
type Economy struct {
	money int64
	tier  int

	lifetimeEarnings int64
	powerProduced    float64
	powerSold        float64

	// earningsCarry holds the fractional part of power revenue so integer
	// money loses nothing across ticks.
	earningsCarry float64

	tierThresholds []int64
}

// New creates an economy with the given starting balance and tier schedule.
func New(startingMoney int64, tierThresholds []int64) *Economy {
	return &Economy{
		money:          startingMoney,
		tierThresholds: tierThresholds,
	}
}

// Money returns the current balance.
func (e *Economy) Money() int64 {
	return e.money
}

// Tier returns the current tech tier. Tiers only ever go up.
func (e *Economy) Tier() int {
	return e.tier
}

// LifetimeEarnings returns total money ever credited from power sales.
func (e *Economy) LifetimeEarnings() int64 {
	return e.lifetimeEarnings
}

// PowerProduced returns cumulative power generated by turbines.
func (e *Economy) PowerProduced() float64 {
	return e.powerProduced
}

// PowerSold returns cumulative power accepted by substations.
func (e *Economy) PowerSold() float64 {
	return e.powerSold
}

// Debit removes cost from the balance, or fails leaving it unchanged.
func (e *Economy) Debit(cost int64) error {
	if cost > e.money {
		return ErrInsufficientFunds
	}
	e.money -= cost
	return nil
}

// Credit adds a refund or grant to the balance. Refund credits do not count
// toward tier progression.
func (e *Economy) Credit(amount int64) {
	if amount < 0 {
		amount = 0
	}
	e.money += amount
}

// RecordProduction accumulates turbine output for the stats display.
func (e *Economy) RecordProduction(power float64) {
	e.powerProduced += power
}

// CreditEarnings converts power revenue into money, carrying the fractional
// remainder forward. Returns true when the credit advanced the tier.
func (e *Economy) CreditEarnings(powerSold, revenue float64) bool {
	e.powerSold += powerSold
	e.earningsCarry += revenue

	whole := int64(e.earningsCarry)
	if whole <= 0 {
		return false
	}
	e.earningsCarry -= float64(whole)
	e.money += whole
	e.lifetimeEarnings += whole

	advanced := false
	for e.tier < len(e.tierThresholds) && e.lifetimeEarnings >= e.tierThresholds[e.tier] {
		e.tier++
		advanced = true
	}
	return advanced
}
