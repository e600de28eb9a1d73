package persistence_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/bakerysim/internal/engine"
	"github.com/talgya/bakerysim/internal/persistence"
)

func openDB(t *testing.T) *persistence.DB {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "bakery.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_DomainUpsert(t *testing.T) {
	db := openDB(t)

	require.NoError(t, db.SaveDomain("economy", []byte(`{"currency":10}`)))
	require.NoError(t, db.SaveDomain("economy", []byte(`{"currency":25}`)))

	payload, err := db.LoadDomain("economy")
	require.NoError(t, err)
	assert.JSONEq(t, `{"currency":25}`, string(payload))
}

func TestDB_LoadMissingDomain(t *testing.T) {
	db := openDB(t)

	payload, err := db.LoadDomain("never_saved")
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestDB_Meta(t *testing.T) {
	db := openDB(t)

	require.NoError(t, db.SaveMeta("last_tick", "42"))
	require.NoError(t, db.SaveMeta("last_tick", "43"))

	v, err := db.GetMeta("last_tick")
	require.NoError(t, err)
	assert.Equal(t, "43", v)

	_, err = db.GetMeta("missing")
	require.Error(t, err)
}

func TestDB_Events(t *testing.T) {
	db := openDB(t)
	now := time.Now()

	events := []engine.Event{
		{Tick: 1, Time: now, Description: "first", Category: "economy"},
		{Tick: 2, Time: now, Description: "second", Category: "orders"},
		{Tick: 3, Time: now, Description: "third", Category: "market"},
	}
	require.NoError(t, db.SaveEvents(events))

	recent, err := db.RecentEvents(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Description)
	assert.Equal(t, "second", recent[1].Description)
	assert.Equal(t, uint64(3), recent[0].Tick)
}

func TestDB_SaveEventsEmpty(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.SaveEvents(nil))
}

func TestDB_SaveLoadGameRoundTrip(t *testing.T) {
	db := openDB(t)
	epoch := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	sim := engine.NewSimulation(7, false, epoch)
	sim.Ledger.Credit(5000)
	_, err := sim.BuyUnit("cursor", epoch)
	require.NoError(t, err)
	require.NoError(t, sim.BuyIngredient("flour", 3, epoch))
	sim.CheckLogin(epoch)
	sim.TickSecond(10, epoch.Add(time.Second))

	require.NoError(t, db.SaveGame(sim))

	restored := engine.NewSimulation(7, false, epoch)
	require.NoError(t, db.LoadGame(restored))

	assert.Equal(t, sim.Ledger.Currency, restored.Ledger.Currency)
	assert.Equal(t, sim.Ledger.TotalEarned, restored.Ledger.TotalEarned)
	assert.Equal(t, 1, restored.Production.Unit("cursor").Count)
	assert.Equal(t, 3, restored.Pantry.Ingredient("flour").Amount)
	assert.Equal(t, sim.Progress.LoginStreak, restored.Progress.LoginStreak)

	tick, err := db.GetMeta("last_tick")
	require.NoError(t, err)
	assert.Equal(t, "10", tick)
}

func TestDB_LoadGameSkipsCorruptDomain(t *testing.T) {
	db := openDB(t)
	epoch := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	sim := engine.NewSimulation(7, false, epoch)
	sim.Ledger.Credit(1234)
	require.NoError(t, db.SaveGame(sim))

	// Corrupt one domain in place.
	require.NoError(t, db.SaveDomain(engine.DomainMarket, []byte("{broken")))

	restored := engine.NewSimulation(7, false, epoch)
	require.NoError(t, db.LoadGame(restored))

	// The good domains still load; the corrupt one keeps defaults.
	assert.Equal(t, 1234.0, restored.Ledger.Currency)
	assert.Equal(t, 1.0, restored.Market.Price)
}
