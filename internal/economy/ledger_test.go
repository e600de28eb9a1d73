package economy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/bakerysim/internal/economy"
)

func TestLedger_SpendRejectsOverdraft(t *testing.T) {
	l := economy.NewLedger()
	l.Credit(100)

	err := l.Spend(150)
	require.ErrorIs(t, err, economy.ErrInsufficientFunds)
	assert.Equal(t, 100.0, l.Currency)

	require.NoError(t, l.Spend(40))
	assert.Equal(t, 60.0, l.Currency)
}

func TestLedger_SpendNegativeAmount(t *testing.T) {
	l := economy.NewLedger()
	l.Credit(10)

	err := l.Spend(-5)
	require.Error(t, err)
	assert.Equal(t, 10.0, l.Currency)
}

func TestLedger_CreditTracksTotalEarned(t *testing.T) {
	l := economy.NewLedger()

	l.Credit(50)
	require.NoError(t, l.Spend(30))
	l.Credit(25)

	assert.Equal(t, 45.0, l.Currency)
	// Spending never reduces the cumulative total.
	assert.Equal(t, 75.0, l.TotalEarned)
}

func TestLedger_CreditIgnoresNonPositive(t *testing.T) {
	l := economy.NewLedger()
	l.Credit(0)
	l.Credit(-10)
	assert.Equal(t, 0.0, l.Currency)
	assert.Equal(t, 0.0, l.TotalEarned)
}

func TestLedger_ClickValueAppliesTimedEffects(t *testing.T) {
	now := time.Now()
	l := economy.NewLedger()
	l.PerClickYield = 2

	assert.Equal(t, 2.0, l.ClickValue(now))

	l.AddEffect("strawberry cookie", economy.EffectClick, 1.2, 90*time.Second, now)
	assert.InDelta(t, 2.4, l.ClickValue(now), 1e-9)

	// A production effect must not touch click yield.
	l.AddEffect("matcha cookie", economy.EffectProduction, 1.1, time.Minute, now)
	assert.InDelta(t, 2.4, l.ClickValue(now), 1e-9)

	// An "all" effect applies everywhere.
	l.AddEffect("royal cookie", economy.EffectAll, 1.5, 5*time.Minute, now)
	assert.InDelta(t, 3.6, l.ClickValue(now), 1e-9)
}

func TestLedger_EffectiveRateStacksProductionAndCPS(t *testing.T) {
	now := time.Now()
	l := economy.NewLedger()
	l.TotalRate = 10

	l.AddEffect("matcha cookie", economy.EffectProduction, 1.1, time.Minute, now)
	l.AddEffect("double chocolate cookie", economy.EffectCPS, 1.15, 2*time.Minute, now)

	assert.InDelta(t, 10*1.1*1.15, l.EffectiveRate(now), 1e-9)
}

func TestLedger_EffectsExpireByTimestamp(t *testing.T) {
	now := time.Now()
	l := economy.NewLedger()
	l.TotalRate = 10

	l.AddEffect("matcha cookie", economy.EffectProduction, 1.1, time.Minute, now)
	assert.InDelta(t, 11.0, l.EffectiveRate(now), 1e-9)

	later := now.Add(61 * time.Second)
	assert.InDelta(t, 10.0, l.EffectiveRate(later), 1e-9)

	expired := l.SweepEffects(later)
	require.Len(t, expired, 1)
	assert.Equal(t, "matcha cookie", expired[0].Source)
	assert.Empty(t, l.Effects)
}

func TestLedger_SweepKeepsActiveEffects(t *testing.T) {
	now := time.Now()
	l := economy.NewLedger()

	l.AddEffect("short", economy.EffectClick, 1.2, 10*time.Second, now)
	l.AddEffect("long", economy.EffectAll, 1.5, 10*time.Minute, now)

	expired := l.SweepEffects(now.Add(30 * time.Second))
	require.Len(t, expired, 1)
	assert.Equal(t, "short", expired[0].Source)
	require.Len(t, l.Effects, 1)
	assert.Equal(t, "long", l.Effects[0].Source)
}
