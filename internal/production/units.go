// Package production owns the purchasable unit roster and computes the
// bakery's passive output under synergy, milestone, and upgrade rules.
package production

import "math"

// Unit is a purchasable passive-income source. Units are created once at
// game init and never destroyed; only Count grows.
type Unit struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Count       int     `json:"count"`
	BaseCost    float64 `json:"base_cost"`
	CostGrowth  float64 `json:"cost_growth"`
	BaseRate    float64 `json:"base_rate"` // cookies/second per unit, before bonuses

	// Synergy maps target unit IDs to the per-source-unit bonus each owned
	// unit of this type grants to the target's output.
	Synergy map[string]float64 `json:"synergy"`

	MilestoneLevel int `json:"milestone_level"` // thresholds crossed so far

	// Rate is the effective cookies/second per owned unit, rebuilt by
	// Recompute. Never mutated anywhere else.
	Rate float64 `json:"rate"`
}

// NextCost is the price of the next purchase on the geometric cost curve.
func (u *Unit) NextCost() float64 {
	return math.Ceil(u.BaseCost * math.Pow(u.CostGrowth, float64(u.Count)))
}

// Milestone is an owned-count threshold granting a one-time output
// multiplier. Thresholds and bonuses are strictly increasing.
type Milestone struct {
	Count int     `json:"count"`
	Bonus float64 `json:"bonus"`
}

// Milestones applies to every unit type.
var Milestones = []Milestone{
	{Count: 10, Bonus: 2.0},
	{Count: 25, Bonus: 2.5},
	{Count: 50, Bonus: 3.0},
	{Count: 100, Bonus: 5.0},
	{Count: 200, Bonus: 10.0},
	{Count: 500, Bonus: 20.0},
}

// DefaultUnits returns the starting roster. Cursors feed the click yield,
// grandmas support cursors, factories support everything below them.
func DefaultUnits() []*Unit {
	return []*Unit{
		{
			ID:          "cursor",
			Name:        "Click Helper",
			Description: "A little hand that clicks cookies for you",
			BaseCost:    10,
			CostGrowth:  1.15,
			BaseRate:    0.1,
			Synergy:     map[string]float64{"cursor": 0.1},
		},
		{
			ID:          "grandma",
			Name:        "Grandma",
			Description: "Bakes delicious cookies",
			BaseCost:    100,
			CostGrowth:  1.15,
			BaseRate:    1,
			Synergy:     map[string]float64{"cursor": 0.2, "grandma": 0.1},
		},
		{
			ID:          "factory",
			Name:        "Factory",
			Description: "Mass-produces cookies",
			BaseCost:    1000,
			CostGrowth:  1.15,
			BaseRate:    10,
			Synergy:     map[string]float64{"cursor": 0.5, "grandma": 2.0, "factory": 1.0},
		},
	}
}
