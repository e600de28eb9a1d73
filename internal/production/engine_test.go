package production_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/bakerysim/internal/economy"
	"github.com/talgya/bakerysim/internal/production"
)

func newEngine(funds float64) (*economy.Ledger, *production.Engine) {
	l := economy.NewLedger()
	l.Credit(funds)
	return l, production.NewEngine(l)
}

func TestUnit_CostCurve(t *testing.T) {
	u := &production.Unit{BaseCost: 10, CostGrowth: 1.15}

	assert.Equal(t, 10.0, u.NextCost())
	u.Count = 1
	assert.Equal(t, 12.0, u.NextCost()) // ceil(11.5)
	u.Count = 5
	assert.Equal(t, math.Ceil(10*math.Pow(1.15, 5)), u.NextCost())
}

func TestEngine_PurchaseSpendsAndRecomputes(t *testing.T) {
	l, e := newEngine(1000)

	res, err := e.Purchase("cursor")
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.Cost)
	assert.Equal(t, 990.0, l.Currency)
	assert.Equal(t, 1, res.Unit.Count)
	// One cursor: base 0.1 plus its own synergy 0.1 per cursor.
	assert.InDelta(t, 0.1+0.1*1, res.Unit.Rate, 1e-9)
	assert.InDelta(t, res.Unit.Rate, l.TotalRate, 1e-9)
}

func TestEngine_PurchaseInsufficientFunds(t *testing.T) {
	l, e := newEngine(5)

	_, err := e.Purchase("cursor")
	require.ErrorIs(t, err, economy.ErrInsufficientFunds)
	assert.Equal(t, 5.0, l.Currency)
	assert.Equal(t, 0, e.Unit("cursor").Count)
}

func TestEngine_PurchaseUnknownUnit(t *testing.T) {
	_, e := newEngine(100)
	_, err := e.Purchase("spaceship")
	require.ErrorIs(t, err, economy.ErrNotFound)
}

func TestEngine_MilestoneFiresOnce(t *testing.T) {
	_, e := newEngine(1e9)

	var crossings int
	for i := 0; i < 12; i++ {
		res, err := e.Purchase("cursor")
		require.NoError(t, err)
		crossings += len(res.Crossed)
		if res.Unit.Count == 10 {
			require.Len(t, res.Crossed, 1)
			assert.Equal(t, 10, res.Crossed[0].Count)
			assert.Equal(t, 2.0, res.Crossed[0].Bonus)
		}
	}

	assert.Equal(t, 1, crossings)
	assert.Equal(t, 1, e.Unit("cursor").MilestoneLevel)
}

func TestEngine_RecomputeIdempotent(t *testing.T) {
	l, e := newEngine(1e9)

	for i := 0; i < 15; i++ {
		_, err := e.Purchase("cursor")
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := e.Purchase("grandma")
		require.NoError(t, err)
	}

	first := l.TotalRate
	e.Recompute()
	e.Recompute()
	assert.Equal(t, first, l.TotalRate)
}

func TestEngine_SynergyUsesBaseRate(t *testing.T) {
	l, e := newEngine(1e9)

	// 10 cursors cross the first milestone (x2 on cursor output).
	for i := 0; i < 10; i++ {
		_, err := e.Purchase("cursor")
		require.NoError(t, err)
	}
	_, err := e.Purchase("grandma")
	require.NoError(t, err)

	// Cursor rate: base 0.1 doubled by the milestone, then synergy on the
	// unboosted base: 10 cursors x 0.1 plus 1 grandma x 0.2.
	cursor := e.Unit("cursor")
	want := 0.1*2.0 + 0.1*0.1*10 + 0.1*0.2*1
	assert.InDelta(t, want, cursor.Rate, 1e-9)

	grandma := e.Unit("grandma")
	// Grandma rate: base 1 plus its own synergy 0.1 per grandma.
	assert.InDelta(t, 1+1*0.1*1, grandma.Rate, 1e-9)

	wantTotal := cursor.Rate*10 + grandma.Rate*1
	assert.InDelta(t, wantTotal, l.TotalRate, 1e-9)
}

func TestEngine_ClickYieldFollowsCursors(t *testing.T) {
	l, e := newEngine(1e6)

	assert.Equal(t, 1.0, l.PerClickYield)

	for i := 0; i < 5; i++ {
		_, err := e.Purchase("cursor")
		require.NoError(t, err)
	}
	// Base 1 plus cursor click synergy 0.1 each.
	assert.InDelta(t, 1.5, l.PerClickYield, 1e-9)
}

func TestEngine_BuyUpgradeAffectsRates(t *testing.T) {
	_, e := newEngine(1e6)

	for i := 0; i < 10; i++ {
		_, err := e.Purchase("cursor")
		require.NoError(t, err)
	}
	before := e.Unit("cursor").Rate

	up, err := e.BuyUpgrade("cursor_efficiency")
	require.NoError(t, err)
	assert.True(t, up.Purchased)
	assert.InDelta(t, before*2, e.Unit("cursor").Rate, 1e-9)

	_, err = e.BuyUpgrade("cursor_efficiency")
	require.ErrorIs(t, err, economy.ErrAlreadyPurchased)
}

func TestEngine_ClickUpgradeHighestTierWins(t *testing.T) {
	l, e := newEngine(1e6)

	_, err := e.BuyUpgrade("click_power_1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, l.BaseClickYield)

	_, err = e.BuyUpgrade("click_power_2")
	require.NoError(t, err)
	assert.Equal(t, 5.0, l.BaseClickYield)
}

func TestEngine_AvailableUpgradesGating(t *testing.T) {
	l, e := newEngine(0)

	ids := func() []string {
		var out []string
		for _, up := range e.AvailableUpgrades() {
			out = append(out, up.ID)
		}
		return out
	}

	assert.Empty(t, ids())

	l.Credit(60)
	assert.Contains(t, ids(), "click_power_1")
	assert.NotContains(t, ids(), "click_power_2")

	l.Credit(1000)
	_, err := e.BuyUpgrade("click_power_1")
	require.NoError(t, err)
	assert.Contains(t, ids(), "click_power_2")
	assert.NotContains(t, ids(), "click_power_1")
}

func TestEngine_BakingMultiplier(t *testing.T) {
	_, e := newEngine(1e6)

	assert.Equal(t, 1.0, e.BakingMultiplier())
	_, err := e.BuyUpgrade("better_oven")
	require.NoError(t, err)
	assert.Equal(t, 1.5, e.BakingMultiplier())
}

func TestEngine_SnapshotRestoreRoundTrip(t *testing.T) {
	l1, e1 := newEngine(1e9)
	for i := 0; i < 25; i++ {
		_, err := e1.Purchase("cursor")
		require.NoError(t, err)
	}
	for i := 0; i < 5; i++ {
		_, err := e1.Purchase("grandma")
		require.NoError(t, err)
	}
	_, err := e1.BuyUpgrade("click_power_1")
	require.NoError(t, err)
	_, err = e1.BuyUpgrade("grandma_recipe")
	require.NoError(t, err)

	snap := e1.Snapshot()

	l2 := economy.NewLedger()
	e2 := production.NewEngine(l2)
	e2.Restore(snap)

	assert.Equal(t, 25, e2.Unit("cursor").Count)
	assert.Equal(t, 2, e2.Unit("cursor").MilestoneLevel)
	assert.Equal(t, 5, e2.Unit("grandma").Count)
	assert.InDelta(t, l1.TotalRate, l2.TotalRate, 1e-9)
	assert.Equal(t, l1.BaseClickYield, l2.BaseClickYield)
	assert.InDelta(t, l1.PerClickYield, l2.PerClickYield, 1e-9)
}
