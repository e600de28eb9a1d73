package production

import (
	"fmt"

	"github.com/talgya/bakerysim/internal/economy"
)

// Engine computes unit production and handles unit/upgrade purchases against
// the shared ledger.
type Engine struct {
	ledger *economy.Ledger

	units    map[string]*Unit
	order    []string // stable iteration order for deterministic recompute
	upgrades map[string]*Upgrade
	upOrder  []string
}

// PurchaseResult reports a successful unit purchase.
type PurchaseResult struct {
	Unit      *Unit
	Cost      float64
	Crossed   []Milestone // milestones newly crossed by this purchase
	TotalRate float64     // aggregate rate after recompute
}

// NewEngine builds the engine with the default roster and upgrade catalog.
func NewEngine(ledger *economy.Ledger) *Engine {
	e := &Engine{
		ledger:   ledger,
		units:    make(map[string]*Unit),
		upgrades: make(map[string]*Upgrade),
	}
	for _, u := range DefaultUnits() {
		e.units[u.ID] = u
		e.order = append(e.order, u.ID)
	}
	for _, up := range DefaultUpgrades() {
		e.upgrades[up.ID] = up
		e.upOrder = append(e.upOrder, up.ID)
	}
	e.Recompute()
	return e
}

// Unit returns a unit by ID, or nil.
func (e *Engine) Unit(id string) *Unit {
	return e.units[id]
}

// Units returns the roster in definition order.
func (e *Engine) Units() []*Unit {
	out := make([]*Unit, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.units[id])
	}
	return out
}

// Purchase buys one unit: deducts the geometric-curve cost, detects
// milestone crossings, and recomputes all rates.
func (e *Engine) Purchase(unitID string) (*PurchaseResult, error) {
	unit, ok := e.units[unitID]
	if !ok {
		return nil, fmt.Errorf("unit %q: %w", unitID, economy.ErrNotFound)
	}

	cost := unit.NextCost()
	if err := e.ledger.Spend(cost); err != nil {
		return nil, fmt.Errorf("buy %s: %w", unitID, err)
	}

	prev := unit.Count
	unit.Count++

	// A milestone fires exactly once: the level records how many
	// thresholds were crossed, and counts never decrease.
	var crossed []Milestone
	for i, m := range Milestones {
		if prev < m.Count && unit.Count >= m.Count {
			unit.MilestoneLevel = i + 1
			crossed = append(crossed, m)
		}
	}

	e.Recompute()

	return &PurchaseResult{
		Unit:      unit,
		Cost:      cost,
		Crossed:   crossed,
		TotalRate: e.ledger.TotalRate,
	}, nil
}

// Recompute rebuilds every unit's effective rate, the aggregate production
// rate, and the per-click yield from scratch. Idempotent: running it twice
// with no purchases in between yields identical rates. The fixed order —
// reset to base, apply own milestone bonus, then add incoming synergy —
// prevents bonuses from compounding across runs.
func (e *Engine) Recompute() {
	for _, id := range e.order {
		u := e.units[id]
		u.Rate = u.BaseRate * e.upgradeFactor(id)
		if u.MilestoneLevel > 0 {
			u.Rate *= Milestones[u.MilestoneLevel-1].Bonus
		}
	}

	// Synergy is all-to-all: each owned source unit adds a fraction of the
	// target's base rate. Base rate, not the boosted rate, so synergy and
	// milestones never multiply each other.
	for _, sourceID := range e.order {
		source := e.units[sourceID]
		if source.Count == 0 {
			continue
		}
		for targetID, bonus := range source.Synergy {
			target, ok := e.units[targetID]
			if !ok || target.Count == 0 {
				continue
			}
			target.Rate += target.BaseRate * bonus * float64(source.Count)
		}
	}

	total := 0.0
	for _, id := range e.order {
		u := e.units[id]
		total += u.Rate * float64(u.Count)
	}
	e.ledger.TotalRate = total * e.ledger.CPSMultiplier * e.ledger.AllMultiplier

	e.ledger.PerClickYield = e.clickYield()
}

// clickYield derives the per-click value from the click upgrades and the
// cursor synergy contribution.
func (e *Engine) clickYield() float64 {
	base := e.ledger.BaseClickYield
	if cursor, ok := e.units["cursor"]; ok && cursor.Count > 0 {
		base += cursor.Synergy["cursor"] * float64(cursor.Count)
	}
	return base * e.ledger.ClickMultiplier
}

// Snapshot captures the persistent slice of engine state.
type Snapshot struct {
	Counts    map[string]int  `json:"counts"`
	Purchased map[string]bool `json:"purchased"`
}

// Snapshot returns the owned counts and purchased upgrade flags. Rates and
// costs are derived, never persisted.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Counts:    make(map[string]int, len(e.units)),
		Purchased: make(map[string]bool, len(e.upgrades)),
	}
	for id, u := range e.units {
		s.Counts[id] = u.Count
	}
	for id, up := range e.upgrades {
		s.Purchased[id] = up.Purchased
	}
	return s
}

// Restore applies a snapshot and recomputes. Unknown IDs are ignored so old
// saves survive roster changes. Milestone levels are rebuilt from counts.
func (e *Engine) Restore(s Snapshot) {
	for id, count := range s.Counts {
		u, ok := e.units[id]
		if !ok {
			continue
		}
		u.Count = count
		u.MilestoneLevel = 0
		for i, m := range Milestones {
			if count >= m.Count {
				u.MilestoneLevel = i + 1
			}
		}
	}
	for id, purchased := range s.Purchased {
		if up, ok := e.upgrades[id]; ok {
			up.Purchased = purchased
		}
	}
	e.applyPurchasedStatics()
	e.Recompute()
}
