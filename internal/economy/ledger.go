// Package economy provides the shared ledger every bakery system draws on:
// the cookie balance, click and passive production rates, and the
// multiplier stack that purchases and timed effects feed into.
package economy

import (
	"fmt"
	"time"
)

// Ledger is the single owned economic state. Components receive a *Ledger at
// construction instead of reaching for globals, so each one can be tested
// against its own ledger instance.
type Ledger struct {
	Currency    float64 `json:"currency"`     // spendable cookies, never negative
	TotalEarned float64 `json:"total_earned"` // cumulative cookies ever credited, drives unlocks

	BaseClickYield  float64 `json:"base_click_yield"` // set by click upgrades, starts at 1
	ClickMultiplier float64 `json:"click_multiplier"` // permanent click multiplier (market items)
	PerClickYield   float64 `json:"per_click_yield"`  // recomputed: (base + cursor synergy) × multiplier

	CPSMultiplier float64 `json:"cps_multiplier"` // permanent multiplier on passive production
	AllMultiplier float64 `json:"all_multiplier"` // multiplier on every cookie source
	TotalRate     float64 `json:"total_rate"`     // recomputed aggregate cookies/second

	Effects []*Effect `json:"effects"` // active timed effects, expiry-timestamp based
}

// NewLedger returns a ledger at game-start values.
func NewLedger() *Ledger {
	return &Ledger{
		BaseClickYield:  1,
		ClickMultiplier: 1,
		PerClickYield:   1,
		CPSMultiplier:   1,
		AllMultiplier:   1,
	}
}

// Spend deducts amount from the balance. Rejected outright, never clamped:
// the caller's operation must not partially apply.
func (l *Ledger) Spend(amount float64) error {
	if amount < 0 {
		return fmt.Errorf("spend %.2f: negative amount", amount)
	}
	if l.Currency < amount {
		return fmt.Errorf("spend %.2f with balance %.2f: %w", amount, l.Currency, ErrInsufficientFunds)
	}
	l.Currency -= amount
	return nil
}

// Credit adds cookies to the balance and to the cumulative total.
func (l *Ledger) Credit(amount float64) {
	if amount <= 0 {
		return
	}
	l.Currency += amount
	l.TotalEarned += amount
}

// CanAfford reports whether the balance covers cost.
func (l *Ledger) CanAfford(cost float64) bool {
	return l.Currency >= cost
}

// ClickValue returns the cookies one click yields at the given instant,
// including timed click effects and the global multiplier.
func (l *Ledger) ClickValue(now time.Time) float64 {
	return l.PerClickYield * l.AllMultiplier * l.effectFactor(now, EffectClick)
}

// EffectiveRate returns the passive production rate at the given instant.
// TotalRate already carries the permanent multipliers; timed production and
// cps effects stack on top.
func (l *Ledger) EffectiveRate(now time.Time) float64 {
	return l.TotalRate * l.effectFactor(now, EffectProduction, EffectCPS)
}
