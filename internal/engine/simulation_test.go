package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/bakerysim/internal/engine"
)

func newSim(t *testing.T) (*engine.Simulation, time.Time) {
	t.Helper()
	epoch := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	return engine.NewSimulation(7, false, epoch), epoch
}

func TestSimulation_TickAccruesPassiveProduction(t *testing.T) {
	sim, epoch := newSim(t)

	sim.Ledger.Credit(100)
	_, err := sim.BuyUnit("cursor", epoch)
	require.NoError(t, err)
	rate := sim.Ledger.TotalRate
	require.Greater(t, rate, 0.0)

	before := sim.Ledger.Currency
	sim.TickSecond(1, epoch.Add(time.Second))
	assert.InDelta(t, before+rate, sim.Ledger.Currency, 1e-9)
	assert.Equal(t, uint64(1), sim.CurrentTick())
}

func TestSimulation_TickAdvancesGameClock(t *testing.T) {
	sim, epoch := newSim(t)

	// Ten game minutes per tick: six ticks per game hour.
	for i := 1; i <= 6; i++ {
		sim.TickSecond(uint64(i), epoch.Add(time.Duration(i)*time.Second))
	}
	assert.InDelta(t, 9.0, sim.Progress.Clock.HourOfDay, 1e-9)
}

func TestSimulation_TickCompletesCookingAndGrantsXP(t *testing.T) {
	sim, epoch := newSim(t)

	require.NoError(t, sim.Pantry.Add("flour", 1))
	require.NoError(t, sim.Pantry.Add("sugar", 1))
	require.NoError(t, sim.Pantry.Add("butter", 1))
	require.NoError(t, sim.StartCook("plain_cookie", epoch))

	sim.TickSecond(1, epoch.Add(5*time.Second))

	assert.Equal(t, 3, sim.Inventory.Stock("plain_cookie"))
	// ceil(3 / 10) experience for the batch.
	assert.Equal(t, 1, sim.Progress.Experience)
	assert.NotNil(t, sim.Stats.Day(epoch.Add(5*time.Second)))
}

func TestSimulation_TickUnlocksRecipes(t *testing.T) {
	sim, epoch := newSim(t)

	sim.Ledger.Credit(60)
	sim.TickSecond(1, epoch.Add(time.Second))

	assert.True(t, sim.Kitchen.Recipe("chocolate_chip").Unlocked)
}

func TestSimulation_ClickCreditsValue(t *testing.T) {
	sim, epoch := newSim(t)

	value, _ := sim.Click(epoch)
	assert.Equal(t, 1.0, value)
	assert.Equal(t, 1.0, sim.Ledger.Currency)
}

func TestSimulation_DirtyReportsAndClears(t *testing.T) {
	sim, epoch := newSim(t)

	assert.False(t, sim.Dirty())

	sim.Ledger.Credit(100)
	_, err := sim.BuyUnit("cursor", epoch)
	require.NoError(t, err)

	assert.True(t, sim.Dirty())
	assert.False(t, sim.Dirty())
}

func TestSimulation_RecentEventsNewestLast(t *testing.T) {
	sim, epoch := newSim(t)

	sim.Ledger.Credit(1000)
	_, err := sim.BuyUnit("cursor", epoch)
	require.NoError(t, err)
	_, err = sim.BuyUnit("grandma", epoch)
	require.NoError(t, err)

	events := sim.RecentEvents(1)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Description, "Grandma")

	all := sim.RecentEvents(0)
	assert.GreaterOrEqual(t, len(all), 2)
}

func TestEngine_SpeedRoundTrip(t *testing.T) {
	e := engine.NewEngine()
	assert.Equal(t, 1.0, e.Speed())
	assert.False(t, e.Running())

	e.SetSpeed(2.5)
	assert.Equal(t, 2.5, e.Speed())
}

func TestSimulation_ConcurrentReadsDuringTicks(t *testing.T) {
	sim, epoch := newSim(t)

	sim.Ledger.Credit(200)
	_, err := sim.BuyUnit("cursor", epoch)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 500; i++ {
			sim.TickSecond(uint64(i), epoch.Add(time.Duration(i)*time.Second))
		}
	}()

	// Hammer every read-side view while the tick loop mutates the same
	// state; the race detector flags any unlocked access.
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		now := time.Now()
		v := sim.StatusView(now)
		assert.GreaterOrEqual(t, v.Currency, 0.0)
		sim.OrdersView(now)
		sim.KitchenView(now)
		sim.ProductionView()
		sim.SuppliersView()
		sim.MarketView()
		_, err := sim.StatsJSON()
		require.NoError(t, err)
		sim.RecentEvents(10)
	}
}

func TestSimulation_DomainRoundTrip(t *testing.T) {
	sim, epoch := newSim(t)

	sim.Ledger.Credit(5000)
	_, err := sim.BuyUnit("cursor", epoch)
	require.NoError(t, err)
	require.NoError(t, sim.BuyIngredient("flour", 5, epoch))
	require.NoError(t, sim.BuyIngredient("sugar", 2, epoch))
	require.NoError(t, sim.BuyIngredient("butter", 2, epoch))
	require.NoError(t, sim.StartCook("plain_cookie", epoch))
	sim.CheckLogin(epoch)

	domains, err := sim.DomainSnapshots()
	require.NoError(t, err)
	assert.Len(t, domains, 9)

	fresh := engine.NewSimulation(7, false, epoch)
	for name, raw := range domains {
		require.NoError(t, fresh.RestoreDomain(name, raw))
	}

	assert.Equal(t, sim.Ledger.Currency, fresh.Ledger.Currency)
	assert.Equal(t, sim.Ledger.TotalRate, fresh.Ledger.TotalRate)
	assert.Equal(t, 1, fresh.Production.Unit("cursor").Count)
	assert.Equal(t, sim.Pantry.Ingredient("flour").Amount, fresh.Pantry.Ingredient("flour").Amount)
	assert.True(t, fresh.Kitchen.Slot().Active())
	assert.Equal(t, sim.Progress.LoginStreak, fresh.Progress.LoginStreak)
}

func TestSimulation_RestoreDomainRejectsGarbage(t *testing.T) {
	sim, _ := newSim(t)

	err := sim.RestoreDomain(engine.DomainEconomy, []byte("{not json"))
	require.Error(t, err)

	err = sim.RestoreDomain("teleporter", []byte("{}"))
	require.Error(t, err)
}

func TestSimulation_Reset(t *testing.T) {
	sim, epoch := newSim(t)

	sim.Ledger.Credit(500)
	sim.Reset(epoch)
	assert.Equal(t, 0.0, sim.Ledger.Currency)
	assert.True(t, sim.Dirty())
}
