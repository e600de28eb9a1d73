package kitchen_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/bakerysim/internal/economy"
	"github.com/talgya/bakerysim/internal/entropy"
	"github.com/talgya/bakerysim/internal/inventory"
	"github.com/talgya/bakerysim/internal/kitchen"
	"github.com/talgya/bakerysim/internal/pantry"
)

type fixedOven struct{ factor float64 }

func (o fixedOven) BakingMultiplier() float64 { return o.factor }

func newKitchen(t *testing.T, ovenFactor float64) (*economy.Ledger, *pantry.Pantry, *inventory.Inventory, *kitchen.Kitchen) {
	t.Helper()
	l := economy.NewLedger()
	p := pantry.New(l)
	v := inventory.New(l)
	k := kitchen.New(l, p, v, fixedOven{ovenFactor})
	return l, p, v, k
}

func stockFor(t *testing.T, p *pantry.Pantry, items map[string]int) {
	t.Helper()
	for id, n := range items {
		require.NoError(t, p.Add(id, n))
	}
}

func TestKitchen_StartCookConsumesIngredients(t *testing.T) {
	_, p, _, k := newKitchen(t, 1)
	now := time.Now()

	stockFor(t, p, map[string]int{"flour": 1, "sugar": 1, "butter": 1})
	require.NoError(t, k.StartCook("plain_cookie", now))

	assert.Equal(t, 0, p.Ingredient("flour").Amount)
	assert.True(t, k.Slot().Active())
	assert.Equal(t, now.Add(5*time.Second), k.Slot().EndAt)
}

func TestKitchen_StartCookGates(t *testing.T) {
	_, p, _, k := newKitchen(t, 1)
	now := time.Now()

	err := k.StartCook("plain_cookie", now)
	require.ErrorIs(t, err, economy.ErrInsufficientIngredients)

	err = k.StartCook("royal_cookie", now)
	require.ErrorIs(t, err, economy.ErrLocked)

	err = k.StartCook("nonexistent", now)
	require.ErrorIs(t, err, economy.ErrNotFound)

	stockFor(t, p, map[string]int{"flour": 2, "sugar": 2, "butter": 2})
	require.NoError(t, k.StartCook("plain_cookie", now))

	err = k.StartCook("plain_cookie", now)
	require.ErrorIs(t, err, economy.ErrAlreadyCooking)
	// The failed start must not eat ingredients.
	assert.Equal(t, 1, p.Ingredient("flour").Amount)
}

func TestKitchen_AdvanceCompletesAfterEndTime(t *testing.T) {
	_, p, v, k := newKitchen(t, 1)
	now := time.Now()

	stockFor(t, p, map[string]int{"flour": 1, "sugar": 1, "butter": 1})
	require.NoError(t, k.StartCook("plain_cookie", now))

	assert.Nil(t, k.Advance(now.Add(4*time.Second)))

	batch := k.Advance(now.Add(5 * time.Second))
	require.NotNil(t, batch)
	assert.Equal(t, "plain_cookie", batch.Recipe.ID)
	assert.Equal(t, 3, batch.Produced)
	assert.Equal(t, 3, batch.Stored)
	assert.Equal(t, 3, v.Stock("plain_cookie"))
	assert.False(t, k.Slot().Active())
}

func TestKitchen_AdvanceAppliesOvenBonus(t *testing.T) {
	_, p, _, k := newKitchen(t, 1.5)
	now := time.Now()

	stockFor(t, p, map[string]int{"flour": 1, "sugar": 1, "butter": 1})
	require.NoError(t, k.StartCook("plain_cookie", now))

	batch := k.Advance(now.Add(5 * time.Second))
	require.NotNil(t, batch)
	// floor(3 x 1.5)
	assert.Equal(t, 4, batch.Produced)
}

func TestKitchen_AdvanceGrantsSpecialEffect(t *testing.T) {
	l, p, _, k := newKitchen(t, 1)
	now := time.Now()

	k.Recipe("matcha_cookie").Unlocked = true
	stockFor(t, p, map[string]int{"flour": 2, "sugar": 1, "butter": 1, "matcha": 2})
	require.NoError(t, k.StartCook("matcha_cookie", now))

	done := now.Add(15 * time.Second)
	batch := k.Advance(done)
	require.NotNil(t, batch)

	require.Len(t, l.Effects, 1)
	assert.Equal(t, economy.EffectProduction, l.Effects[0].Kind)
	assert.Equal(t, 1.1, l.Effects[0].Multiplier)
	assert.Equal(t, done.Add(60*time.Second), l.Effects[0].ExpiresAt)
}

func TestKitchen_OverflowIsLost(t *testing.T) {
	_, p, v, k := newKitchen(t, 1)
	now := time.Now()

	// Fill the plain rack to one below its ceiling.
	require.NoError(t, v.Add("plain_cookie", 49))

	stockFor(t, p, map[string]int{"flour": 1, "sugar": 1, "butter": 1})
	require.NoError(t, k.StartCook("plain_cookie", now))

	batch := k.Advance(now.Add(5 * time.Second))
	require.NotNil(t, batch)
	assert.Equal(t, 3, batch.Produced)
	assert.Equal(t, 1, batch.Stored)
	assert.Equal(t, 50, v.Stock("plain_cookie"))
}

func TestKitchen_CheckUnlocksFiresOnce(t *testing.T) {
	l, _, _, k := newKitchen(t, 1)

	assert.Empty(t, k.CheckUnlocks())

	l.Credit(60)
	unlocked := k.CheckUnlocks()
	require.Len(t, unlocked, 1)
	assert.Equal(t, "chocolate_chip", unlocked[0].ID)

	assert.Empty(t, k.CheckUnlocks())

	// Spending does not re-lock; unlocks key off cumulative earnings.
	require.NoError(t, l.Spend(60))
	assert.True(t, k.Recipe("chocolate_chip").Unlocked)
}

func TestKitchen_TeasedAtThirtyPercent(t *testing.T) {
	l, _, _, k := newKitchen(t, 1)

	assert.False(t, k.Teased("almond_cookie"))
	l.Credit(60) // 30% of 200
	assert.True(t, k.Teased("almond_cookie"))
	assert.False(t, k.Teased("coconut_cookie"))
	assert.False(t, k.Teased("plain_cookie"))
}

func TestKitchen_UnlockRandomSkipsUnlocked(t *testing.T) {
	_, _, _, k := newKitchen(t, 1)
	rng := entropy.NewSource(3)

	seen := make(map[string]bool)
	for {
		r := k.UnlockRandom(rng)
		if r == nil {
			break
		}
		assert.False(t, seen[r.ID], "recipe %s unlocked twice", r.ID)
		seen[r.ID] = true
	}
	// Seven recipes start locked.
	assert.Len(t, seen, 7)
}

func TestKitchen_HalveCookTimesOnce(t *testing.T) {
	_, p, _, k := newKitchen(t, 1)
	now := time.Now()

	assert.True(t, k.HalveCookTimes())
	assert.False(t, k.HalveCookTimes())

	stockFor(t, p, map[string]int{"flour": 1, "sugar": 1, "butter": 1})
	require.NoError(t, k.StartCook("plain_cookie", now))
	// ceil(5 x 0.5) = 3 seconds.
	assert.Equal(t, now.Add(3*time.Second), k.Slot().EndAt)
}

func TestKitchen_SnapshotRestore(t *testing.T) {
	l1, p1, _, k1 := newKitchen(t, 1)
	now := time.Now()

	l1.Credit(60)
	k1.CheckUnlocks()
	k1.HalveCookTimes()
	stockFor(t, p1, map[string]int{"flour": 1, "sugar": 1, "butter": 1})
	require.NoError(t, k1.StartCook("plain_cookie", now))

	snap := k1.Snapshot()

	_, _, _, k2 := newKitchen(t, 1)
	k2.Restore(snap)

	assert.True(t, k2.Recipe("chocolate_chip").Unlocked)
	assert.False(t, k2.Recipe("royal_cookie").Unlocked)
	assert.True(t, k2.Slot().Active())
	assert.Equal(t, "plain_cookie", k2.Slot().RecipeID)

	// The in-flight cook resumes and completes on the restored clock.
	batch := k2.Advance(k2.Slot().EndAt)
	require.NotNil(t, batch)
	assert.Equal(t, "plain_cookie", batch.Recipe.ID)
}
