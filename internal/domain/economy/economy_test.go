package economy

import (
	"errors"
	"testing"
)

func TestDebitRejectsOverdraft(t *testing.T) {
	eco := New(100, nil)

	if err := eco.Debit(100); err != nil {
		t.Fatalf("Expected debit of full balance to succeed, got %v", err)
	}
	if eco.Money() != 0 {
		t.Fatalf("Expected zero balance, got %d", eco.Money())
	}

	if err := eco.Debit(1); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}
	if eco.Money() != 0 {
		t.Errorf("Failed debit must not change the balance, got %d", eco.Money())
	}
}

func TestEarningsCarryLosesNothing(t *testing.T) {
	eco := New(0, nil)

	// Twelve credits of 0.25 pay out exactly 3 whole units.
	for i := 0; i < 12; i++ {
		eco.CreditEarnings(1.0, 0.25)
	}

	if eco.Money() != 3 {
		t.Errorf("Expected 3 money from twelve 0.25 credits, got %d", eco.Money())
	}
	if eco.LifetimeEarnings() != 3 {
		t.Errorf("Expected lifetime earnings 3, got %d", eco.LifetimeEarnings())
	}
	if eco.PowerSold() != 12.0 {
		t.Errorf("Expected 12.0 power sold, got %.2f", eco.PowerSold())
	}
}

func TestRefundDoesNotAdvanceTier(t *testing.T) {
	eco := New(0, []int64{10})

	eco.Credit(1000)
	if eco.Tier() != 0 {
		t.Errorf("Refund credits must not advance the tier, got tier %d", eco.Tier())
	}

	if advanced := eco.CreditEarnings(50, 10); !advanced {
		t.Error("Expected earnings crossing the threshold to advance the tier")
	}
	if eco.Tier() != 1 {
		t.Errorf("Expected tier 1, got %d", eco.Tier())
	}
}

func TestTierAdvancesThroughSchedule(t *testing.T) {
	eco := New(0, []int64{10, 20, 30})

	eco.CreditEarnings(1, 9)
	if eco.Tier() != 0 {
		t.Fatalf("Expected tier 0 below first threshold, got %d", eco.Tier())
	}

	// One large credit can cross several thresholds at once.
	if advanced := eco.CreditEarnings(1, 25); !advanced {
		t.Fatal("Expected tier advance")
	}
	if eco.Tier() != 3 {
		t.Errorf("Expected tier 3 after crossing all thresholds, got %d", eco.Tier())
	}

	// Tiers never go down and never pass the schedule length.
	eco.CreditEarnings(1, 1000)
	if eco.Tier() != 3 {
		t.Errorf("Expected tier capped at 3, got %d", eco.Tier())
	}
}
