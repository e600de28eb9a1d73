// Package market simulates a bounded random-walk cookie price, a coin
// balance earned by selling, and a small catalog of purchasable items.
package market

import (
	"fmt"
	"math"
	"time"

	"github.com/ojrac/opensimplex-go"

	"github.com/talgya/bakerysim/internal/economy"
	"github.com/talgya/bakerysim/internal/entropy"
	"github.com/talgya/bakerysim/internal/kitchen"
	"github.com/talgya/bakerysim/internal/pantry"
)

const (
	minPrice       = 0.5
	maxPrice       = 5.0
	volatility     = 0.2
	updateInterval = 5 * time.Second
	trendLimit     = 10.0
	alertThreshold = 8.0
	historyLimit   = 20

	// Period of the slow demand cycle fed by the noise field, in seconds.
	demandCyclePeriod = 300.0
	demandCycleDepth  = 0.02
)

// PricePoint is one entry in the price history ring.
type PricePoint struct {
	Price float64   `json:"price"`
	Time  time.Time `json:"time"`
}

// TrendAlert is emitted when the trend crosses the extreme threshold.
type TrendAlert struct {
	Rising bool
	Trend  float64
}

// Recomputer re-derives production rates after an item mutates the
// ledger's multipliers.
type Recomputer interface {
	Recompute()
}

// Simulator is the market state.
type Simulator struct {
	ledger  *economy.Ledger
	catalog *kitchen.Kitchen
	shelf   *pantry.Pantry
	rates   Recomputer
	rng     *entropy.Source
	noise   opensimplex.Noise
	epoch   time.Time

	Price      float64      `json:"price"`
	Trend      float64      `json:"trend"`
	Coins      float64      `json:"coins"`
	History    []PricePoint `json:"history"`
	lastUpdate time.Time
	alerted    bool

	items []*Item
}

// Item is a market purchase. One-time items stay purchased; repeatable
// items never do.
type Item struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	OneTime     bool    `json:"one_time"`
	Purchased   bool    `json:"purchased"`

	// apply performs the effect. A false return means nothing could be
	// granted and the price is refunded.
	apply func(m *Simulator) (string, bool)
}

func New(ledger *economy.Ledger, catalog *kitchen.Kitchen, shelf *pantry.Pantry, rates Recomputer, rng *entropy.Source, seed int64, epoch time.Time) *Simulator {
	m := &Simulator{
		ledger:  ledger,
		catalog: catalog,
		shelf:   shelf,
		rates:   rates,
		rng:     rng,
		noise:   opensimplex.NewNormalized(seed),
		epoch:   epoch,
		Price:   1.0,
	}
	m.items = defaultItems()
	return m
}

func defaultItems() []*Item {
	return []*Item{
		{
			ID: "baker_hat", Name: "Master Chef's Hat",
			Description: "Doubles the click reward", Price: 500, OneTime: true,
			apply: func(m *Simulator) (string, bool) {
				m.ledger.ClickMultiplier *= 2
				m.rates.Recompute()
				return "click reward doubled", true
			},
		},
		{
			ID: "premium_oven", Name: "Premium Oven",
			Description: "Automatic production up 50%", Price: 1000, OneTime: true,
			apply: func(m *Simulator) (string, bool) {
				m.ledger.CPSMultiplier *= 1.5
				m.rates.Recompute()
				return "automatic production up 50%", true
			},
		},
		{
			ID: "recipe_book", Name: "Ancient Recipe Book",
			Description: "Instantly unlocks one new recipe", Price: 300,
			apply: func(m *Simulator) (string, bool) {
				r := m.catalog.UnlockRandom(m.rng)
				if r == nil {
					return "every recipe is already known", false
				}
				return "discovered " + r.Name, true
			},
		},
		{
			ID: "ingredient_package", Name: "Ingredient Package",
			Description: "Grants 10 of a random ingredient", Price: 200,
			apply: func(m *Simulator) (string, bool) {
				id := m.shelf.RandomUnlocked(m.rng)
				if id == "" {
					return "no ingredients available", false
				}
				m.shelf.Add(id, 10)
				return "received 10 " + id, true
			},
		},
		{
			ID: "golden_spatula", Name: "Golden Spatula",
			Description: "Halves all cooking times", Price: 2000, OneTime: true,
			apply: func(m *Simulator) (string, bool) {
				m.catalog.HalveCookTimes()
				return "cooking times halved", true
			},
		},
	}
}

// Items returns the catalog.
func (m *Simulator) Items() []*Item {
	out := make([]*Item, len(m.items))
	copy(out, m.items)
	return out
}

// Item returns the item with the given id, or nil.
func (m *Simulator) Item(id string) *Item {
	for _, it := range m.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// Update advances the price walk if the update interval has elapsed.
// A TrendAlert is returned when the trend newly crosses the extreme band.
func (m *Simulator) Update(now time.Time) *TrendAlert {
	if now.Sub(m.lastUpdate) < updateInterval {
		return nil
	}
	return m.step(now)
}

// step runs one walk iteration unconditionally.
func (m *Simulator) step(now time.Time) *TrendAlert {
	m.lastUpdate = now

	m.Trend += m.rng.Uniform(-1, 1)
	m.Trend = math.Max(-trendLimit, math.Min(trendLimit, m.Trend))

	trendFactor := 1 + m.Trend/50
	randomFactor := 1 + m.rng.Uniform(-0.5, 0.5)*volatility
	demandFactor := m.demandFactor(now)
	m.Price *= trendFactor * randomFactor * demandFactor
	m.Price = math.Max(minPrice, math.Min(maxPrice, m.Price))

	m.History = append(m.History, PricePoint{Price: m.Price, Time: now})
	if len(m.History) > historyLimit {
		m.History = m.History[len(m.History)-historyLimit:]
	}

	extreme := math.Abs(m.Trend) > alertThreshold
	if extreme && !m.alerted {
		m.alerted = true
		return &TrendAlert{Rising: m.Trend > 0, Trend: m.Trend}
	}
	if !extreme {
		m.alerted = false
	}
	return nil
}

// demandFactor is a slow, smooth demand cycle layered on the walk so the
// price drifts through multi-minute seasons rather than pure jitter.
func (m *Simulator) demandFactor(now time.Time) float64 {
	t := now.Sub(m.epoch).Seconds() / demandCyclePeriod
	cycle := m.noise.Eval2(t, 0)*2 - 1 // normalized noise back to [-1,1]
	return 1 + demandCycleDepth*cycle
}

// Sell trades cookies for market coins at the current price. Large sales
// depress the trend, and the walk re-runs immediately.
func (m *Simulator) Sell(amount int, now time.Time) (float64, *TrendAlert, error) {
	if amount <= 0 {
		return 0, nil, fmt.Errorf("sell: amount must be positive")
	}
	if err := m.ledger.Spend(float64(amount)); err != nil {
		return 0, nil, fmt.Errorf("sell %d cookies: %w", amount, err)
	}
	revenue := math.Floor(float64(amount) * m.Price)
	m.Coins += revenue

	m.Trend -= float64(amount) / 1000
	alert := m.step(now)
	return revenue, alert, nil
}

// BuyItem spends market coins on an item and applies its effect. When the
// effect cannot grant anything, the coins are refunded.
func (m *Simulator) BuyItem(id string) (string, error) {
	it := m.Item(id)
	if it == nil {
		return "", fmt.Errorf("market item %q: %w", id, economy.ErrNotFound)
	}
	if it.OneTime && it.Purchased {
		return "", fmt.Errorf("market item %q: %w", id, economy.ErrAlreadyPurchased)
	}
	if m.Coins < it.Price {
		return "", fmt.Errorf("buy %s: %w", id, economy.ErrInsufficientFunds)
	}
	m.Coins -= it.Price
	msg, ok := it.apply(m)
	if !ok {
		m.Coins += it.Price
		return msg, nil
	}
	if it.OneTime {
		it.Purchased = true
	}
	return msg, nil
}

// Snapshot captures persistable market state.
type Snapshot struct {
	Price      float64         `json:"price"`
	Trend      float64         `json:"trend"`
	Coins      float64         `json:"coins"`
	History    []PricePoint    `json:"history"`
	LastUpdate time.Time       `json:"last_update"`
	Purchased  map[string]bool `json:"purchased"`
}

func (m *Simulator) Snapshot() Snapshot {
	s := Snapshot{
		Price:      m.Price,
		Trend:      m.Trend,
		Coins:      m.Coins,
		History:    append([]PricePoint(nil), m.History...),
		LastUpdate: m.lastUpdate,
		Purchased:  make(map[string]bool, len(m.items)),
	}
	for _, it := range m.items {
		s.Purchased[it.ID] = it.Purchased
	}
	return s
}

func (m *Simulator) Restore(s Snapshot) {
	if s.Price >= minPrice && s.Price <= maxPrice {
		m.Price = s.Price
	}
	m.Trend = math.Max(-trendLimit, math.Min(trendLimit, s.Trend))
	if s.Coins >= 0 {
		m.Coins = s.Coins
	}
	if len(s.History) > 0 {
		m.History = s.History
		if len(m.History) > historyLimit {
			m.History = m.History[len(m.History)-historyLimit:]
		}
	}
	m.lastUpdate = s.LastUpdate
	for _, it := range m.items {
		if it.OneTime && s.Purchased[it.ID] {
			it.Purchased = true
		}
	}
}
