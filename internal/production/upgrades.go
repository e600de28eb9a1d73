package production

import (
	"fmt"

	"github.com/talgya/bakerysim/internal/economy"
)

// Upgrade is a one-time purchase whose effect is folded into Recompute so
// the rate calculation stays idempotent and survives reload.
type Upgrade struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
	Purchased   bool    `json:"purchased"`

	// Effect slots; zero values mean "no effect of that kind".
	TargetUnit string  `json:"target_unit,omitempty"` // unitFactor applies to this unit
	UnitFactor float64 `json:"unit_factor,omitempty"`
	AllFactor  float64 `json:"all_factor,omitempty"`  // multiplies every unit's output
	ClickBase  float64 `json:"click_base,omitempty"`  // raises the base click yield
	OvenFactor float64 `json:"oven_factor,omitempty"` // multiplies baking yield

	visible func(e *Engine) bool
}

// DefaultUpgrades returns the upgrade catalog.
func DefaultUpgrades() []*Upgrade {
	return []*Upgrade{
		{
			ID: "click_power_1", Name: "Click Power I",
			Description: "Doubles cookies per click",
			Cost:        100, ClickBase: 2,
			visible: func(e *Engine) bool { return e.ledger.Currency >= 50 },
		},
		{
			ID: "click_power_2", Name: "Click Power II",
			Description: "Five cookies per click",
			Cost:        500, ClickBase: 5,
			visible: func(e *Engine) bool {
				return e.upgrades["click_power_1"].Purchased && e.ledger.Currency >= 200
			},
		},
		{
			ID: "cursor_efficiency", Name: "Helper Efficiency",
			Description: "Click helpers produce twice as much",
			Cost:        200, TargetUnit: "cursor", UnitFactor: 2,
			visible: func(e *Engine) bool { return e.units["cursor"].Count >= 10 },
		},
		{
			ID: "grandma_recipe", Name: "Grandma's Secret Recipe",
			Description: "Grandmas produce twice as much",
			Cost:        1000, TargetUnit: "grandma", UnitFactor: 2,
			visible: func(e *Engine) bool { return e.units["grandma"].Count >= 5 },
		},
		{
			ID: "global_boost", Name: "Global Efficiency",
			Description: "All units produce 50% more",
			Cost:        5000, AllFactor: 1.5,
			visible: func(e *Engine) bool { return e.ledger.TotalRate >= 50 },
		},
		{
			ID: "better_oven", Name: "Better Oven",
			Description: "Baked batches yield 50% more",
			Cost:        2000, OvenFactor: 1.5,
			visible: func(e *Engine) bool { return e.ledger.Currency >= 500 },
		},
	}
}

// Upgrades returns the catalog in definition order.
func (e *Engine) Upgrades() []*Upgrade {
	out := make([]*Upgrade, 0, len(e.upOrder))
	for _, id := range e.upOrder {
		out = append(out, e.upgrades[id])
	}
	return out
}

// AvailableUpgrades returns unpurchased upgrades whose visibility condition
// currently holds.
func (e *Engine) AvailableUpgrades() []*Upgrade {
	var out []*Upgrade
	for _, id := range e.upOrder {
		up := e.upgrades[id]
		if !up.Purchased && up.visible(e) {
			out = append(out, up)
		}
	}
	return out
}

// BuyUpgrade purchases an upgrade and re-derives every affected rate.
func (e *Engine) BuyUpgrade(id string) (*Upgrade, error) {
	up, ok := e.upgrades[id]
	if !ok {
		return nil, fmt.Errorf("upgrade %q: %w", id, economy.ErrNotFound)
	}
	if up.Purchased {
		return nil, fmt.Errorf("upgrade %q: %w", id, economy.ErrAlreadyPurchased)
	}
	if err := e.ledger.Spend(up.Cost); err != nil {
		return nil, fmt.Errorf("buy upgrade %s: %w", id, err)
	}
	up.Purchased = true
	e.applyPurchasedStatics()
	e.Recompute()
	return up, nil
}

// upgradeFactor is the product of purchased upgrade multipliers that apply
// to the given unit, including all-unit boosts.
func (e *Engine) upgradeFactor(unitID string) float64 {
	factor := 1.0
	for _, id := range e.upOrder {
		up := e.upgrades[id]
		if !up.Purchased {
			continue
		}
		if up.TargetUnit == unitID && up.UnitFactor > 0 {
			factor *= up.UnitFactor
		}
		if up.AllFactor > 0 {
			factor *= up.AllFactor
		}
	}
	return factor
}

// applyPurchasedStatics re-derives the base click yield from purchased
// click upgrades. The highest purchased tier wins.
func (e *Engine) applyPurchasedStatics() {
	base := 1.0
	for _, id := range e.upOrder {
		up := e.upgrades[id]
		if up.Purchased && up.ClickBase > base {
			base = up.ClickBase
		}
	}
	e.ledger.BaseClickYield = base
}

// BakingMultiplier aggregates purchased oven upgrade bonuses. The kitchen
// consults this when a batch finishes.
func (e *Engine) BakingMultiplier() float64 {
	factor := 1.0
	for _, id := range e.upOrder {
		up := e.upgrades[id]
		if up.Purchased && up.OvenFactor > 0 {
			factor *= up.OvenFactor
		}
	}
	return factor
}
