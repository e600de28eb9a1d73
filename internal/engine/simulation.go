// Simulation ties together all bakery systems and runs them each tick.
package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/bakerysim/internal/economy"
	"github.com/talgya/bakerysim/internal/entropy"
	"github.com/talgya/bakerysim/internal/inventory"
	"github.com/talgya/bakerysim/internal/kitchen"
	"github.com/talgya/bakerysim/internal/market"
	"github.com/talgya/bakerysim/internal/orders"
	"github.com/talgya/bakerysim/internal/pantry"
	"github.com/talgya/bakerysim/internal/player"
	"github.com/talgya/bakerysim/internal/production"
	"github.com/talgya/bakerysim/internal/stats"
	"github.com/talgya/bakerysim/internal/suppliers"
)

// Event is a notable occurrence in the bakery.
type Event struct {
	Tick        uint64    `json:"tick"`
	Time        time.Time `json:"time"`
	Description string    `json:"description"`
	Category    string    `json:"category"` // "economy", "orders", "kitchen", "market", ...
}

// maxEvents bounds the in-memory event ring.
const maxEvents = 200

// clickDropChance is the chance a click also drops a free ingredient.
const clickDropChance = 0.01

// Simulation holds the complete bakery state and wires systems together.
type Simulation struct {
	mu sync.Mutex

	Ledger     *economy.Ledger
	Production *production.Engine
	Pantry     *pantry.Pantry
	Inventory  *inventory.Inventory
	Kitchen    *kitchen.Kitchen
	Progress   *player.Progress
	Stats      *stats.Tracker
	Orders     *orders.Engine
	Suppliers  *suppliers.Engine
	Market     *market.Simulator

	Events   []Event
	LastTick uint64

	seed  int64
	jit   bool
	epoch time.Time
	rng   *entropy.Source
	dirty bool
}

// NewSimulation builds a fresh bakery from the default catalogs.
func NewSimulation(seed int64, jitCooking bool, now time.Time) *Simulation {
	s := &Simulation{seed: seed, jit: jitCooking, epoch: now}
	s.build(now)
	return s
}

func (s *Simulation) build(now time.Time) {
	s.rng = entropy.NewSource(s.seed)
	s.Ledger = economy.NewLedger()
	s.Production = production.NewEngine(s.Ledger)
	s.Pantry = pantry.New(s.Ledger)
	s.Inventory = inventory.New(s.Ledger)
	s.Kitchen = kitchen.New(s.Ledger, s.Pantry, s.Inventory, s.Production)
	s.Progress = player.New(s.Ledger)
	s.Stats = stats.New()
	s.Orders = orders.NewEngine(
		s.Ledger, s.Kitchen, s.Inventory, s.Pantry, s.Progress, s.Stats,
		s.rng, orders.JITCooking(s.jit),
	)
	s.Suppliers = suppliers.NewEngine(s.Ledger, s.Pantry, s.Progress)
	s.Market = market.New(s.Ledger, s.Kitchen, s.Pantry, s.Production, s.rng, s.seed, now)
	s.Events = nil
	s.LastTick = 0
}

// Reset discards all progress and rebuilds the bakery from scratch.
func (s *Simulation) Reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.build(now)
	s.dirty = true
	slog.Info("simulation reset")
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastTick
}

// Dirty reports and clears the pending-save flag.
func (s *Simulation) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.dirty
	s.dirty = false
	return d
}

func (s *Simulation) record(tick uint64, now time.Time, category, format string, args ...any) {
	s.Events = append(s.Events, Event{
		Tick:        tick,
		Time:        now,
		Description: fmt.Sprintf(format, args...),
		Category:    category,
	})
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}

// RecentEvents returns up to limit most recent events, newest last.
func (s *Simulation) RecentEvents(limit int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.Events) {
		limit = len(s.Events)
	}
	out := make([]Event, limit)
	copy(out, s.Events[len(s.Events)-limit:])
	return out
}

func money(v float64) string { return humanize.CommafWithDigits(v, 0) }

// TickSecond advances every system by one simulated second. Order is
// fixed: clock, production accrual, effect expiry, cooking, unlocks,
// suppliers, orders, market.
func (s *Simulation) TickSecond(tick uint64, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastTick = tick

	// Game clock: TimeScale game-minutes per real second.
	for _, ev := range s.Progress.Advance(s.Progress.TimeScale) {
		switch ev {
		case player.EventNewDay:
			c := s.Progress.Clock
			s.record(tick, now, "calendar", "a new day dawns: year %d, month %d, day %d", c.Year, c.Month, c.Day)
		case player.EventNewYear:
			s.record(tick, now, "calendar", "happy new year! bonus %s cookies", money(10000))
		case player.EventNoon:
			s.record(tick, now, "calendar", "lunchtime rush: cookie demand is climbing")
		case player.EventWeekendSale:
			s.record(tick, now, "calendar", "weekend market day: customers are out shopping")
		}
	}

	// Passive production accrues one second of the effective rate.
	if rate := s.Ledger.EffectiveRate(now); rate > 0 {
		s.Ledger.Credit(rate)
	}

	// Timed recipe effects expire on their absolute timestamps.
	for _, eff := range s.Ledger.SweepEffects(now) {
		s.record(tick, now, "kitchen", "the %s effect has worn off", eff.Source)
		s.dirty = true
	}

	// Cooking progress.
	if batch := s.Kitchen.Advance(now); batch != nil {
		s.Stats.RecordProduction(now, batch.Recipe.ID, batch.Produced)
		levels := s.Progress.AddExperience((batch.Produced + 9) / 10)
		s.record(tick, now, "kitchen", "%s finished: %d cookies baked (%d stored)",
			batch.Recipe.Name, batch.Produced, batch.Stored)
		if batch.Stored < batch.Produced {
			s.record(tick, now, "kitchen", "storage full: %d cookies went stale", batch.Produced-batch.Stored)
		}
		s.reportLevels(tick, now, levels)
		s.dirty = true
	}

	// Threshold unlocks.
	for _, r := range s.Kitchen.CheckUnlocks() {
		s.record(tick, now, "kitchen", "new recipe discovered: %s", r.Name)
		s.dirty = true
	}

	// Supplier deliveries and contract maintenance.
	rep := s.Suppliers.Tick(now)
	for ing, n := range rep.Delivered {
		s.record(tick, now, "suppliers", "%d %s delivered", n, ing)
	}
	for _, o := range rep.CompletedOrders {
		s.record(tick, now, "suppliers", "%s order from %s fulfilled", o.Ingredient, o.SupplierID)
	}
	for id, amount := range rep.Payments {
		s.record(tick, now, "suppliers", "paid %s cookies to %s", money(amount), id)
	}
	for _, c := range rep.Expired {
		s.record(tick, now, "suppliers", "contract with %s expired", c.SupplierID)
	}
	for _, c := range rep.Terminated {
		s.record(tick, now, "suppliers", "contract with %s cancelled: payment failed", c.SupplierID)
	}
	if len(rep.Delivered) > 0 || len(rep.Payments) > 0 ||
		len(rep.CompletedOrders) > 0 || len(rep.Expired) > 0 || len(rep.Terminated) > 0 {
		s.dirty = true
	}

	// Customer order sweep and generation.
	expired, generated := s.Orders.Tick(now)
	for _, o := range expired {
		s.record(tick, now, "orders", "order #%d from %s expired", o.ID, o.CustomerName)
		s.dirty = true
	}
	if generated != nil {
		label := ""
		if generated.Special {
			label = "special "
		}
		s.record(tick, now, "orders", "new %sorder #%d from %s, reward %s cookies",
			label, generated.ID, generated.CustomerName, money(generated.Reward))
		s.dirty = true
	}

	// Market price walk.
	if alert := s.Market.Update(now); alert != nil {
		if alert.Rising {
			s.record(tick, now, "market", "the market is booming! cookie prices are surging")
		} else {
			s.record(tick, now, "market", "the market is crashing: cookie prices are collapsing")
		}
	}
}

func (s *Simulation) reportLevels(tick uint64, now time.Time, levels int) {
	if levels > 0 {
		s.record(tick, now, "player", "reached level %d! bonus %s cookies",
			s.Progress.Level, money(float64(s.Progress.Level)*1000))
	}
}

// Click handles one bakery click: credits the click value and sometimes
// drops a free ingredient.
func (s *Simulation) Click(now time.Time) (float64, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value := s.Ledger.ClickValue(now)
	s.Ledger.Credit(value)
	drop := ""
	if s.rng.Chance(clickDropChance) {
		if id := s.Pantry.RandomUnlocked(s.rng); id != "" {
			s.Pantry.Add(id, 1)
			drop = id
			s.record(s.LastTick, now, "economy", "a stray %s fell out of the cupboard", id)
		}
	}
	return value, drop
}

// BuyUnit purchases one production unit.
func (s *Simulation) BuyUnit(id string, now time.Time) (*production.PurchaseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.Production.Purchase(id)
	if err != nil {
		return nil, err
	}
	s.record(s.LastTick, now, "economy", "bought %s for %s cookies", res.Unit.Name, money(res.Cost))
	for _, m := range res.Crossed {
		s.record(s.LastTick, now, "economy", "%s milestone: %d owned, output x%.1f",
			res.Unit.Name, m.Count, m.Bonus)
	}
	s.dirty = true
	return res, nil
}

// BuyUpgrade purchases a one-time upgrade.
func (s *Simulation) BuyUpgrade(id string, now time.Time) (*production.Upgrade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	up, err := s.Production.BuyUpgrade(id)
	if err != nil {
		return nil, err
	}
	s.record(s.LastTick, now, "economy", "upgrade purchased: %s", up.Name)
	s.dirty = true
	return up, nil
}

// BuyIngredient purchases pantry stock at the unit price.
func (s *Simulation) BuyIngredient(id string, n int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Pantry.Buy(id, n); err != nil {
		return err
	}
	s.record(s.LastTick, now, "economy", "bought %d %s", n, id)
	s.dirty = true
	return nil
}

// UnlockIngredient reveals a locked ingredient.
func (s *Simulation) UnlockIngredient(id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Pantry.Unlock(id); err != nil {
		return err
	}
	s.record(s.LastTick, now, "economy", "new ingredient unlocked: %s", id)
	s.dirty = true
	return nil
}

// StartCook begins baking a recipe.
func (s *Simulation) StartCook(id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Kitchen.StartCook(id, now); err != nil {
		return err
	}
	s.record(s.LastTick, now, "kitchen", "started baking %s", s.Kitchen.Recipe(id).Name)
	s.dirty = true
	return nil
}

// CompleteOrder fulfills an active customer order.
func (s *Simulation) CompleteOrder(id uint64, now time.Time) (*orders.CompleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.Orders.Complete(id, now)
	if err != nil {
		return nil, err
	}
	s.record(s.LastTick, now, "orders", "order #%d for %s completed, earned %s cookies",
		id, res.Order.CustomerName, money(res.Order.Reward))
	s.reportLevels(s.LastTick, now, res.LevelsGained)
	s.dirty = true
	return res, nil
}

// RejectOrder cancels an active customer order.
func (s *Simulation) RejectOrder(id uint64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.Orders.Reject(id)
	if err != nil {
		return err
	}
	s.record(s.LastTick, now, "orders", "order #%d from %s declined", id, o.CustomerName)
	s.dirty = true
	return nil
}

// SignContract opens a supplier contract.
func (s *Simulation) SignContract(supplierID string, tier suppliers.Tier, now time.Time) (*suppliers.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, o, err := s.Suppliers.Sign(supplierID, tier, now)
	if err != nil {
		return nil, err
	}
	s.record(s.LastTick, now, "suppliers", "signed %s contract with %s, %d %s on order",
		tier, supplierID, o.Amount, o.Ingredient)
	s.dirty = true
	return c, nil
}

// SellCookies trades cookies for market coins at the current price.
func (s *Simulation) SellCookies(amount int, now time.Time) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	revenue, alert, err := s.Market.Sell(amount, now)
	if err != nil {
		return 0, err
	}
	s.record(s.LastTick, now, "market", "sold %d cookies for %s coins", amount, money(revenue))
	if alert != nil && !alert.Rising {
		s.record(s.LastTick, now, "market", "the sale weighed on the market: prices are slipping")
	}
	s.dirty = true
	return revenue, nil
}

// BuyMarketItem spends market coins on a catalog item.
func (s *Simulation) BuyMarketItem(id string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, err := s.Market.BuyItem(id)
	if err != nil {
		return "", err
	}
	s.record(s.LastTick, now, "market", "market purchase %s: %s", id, msg)
	s.dirty = true
	return msg, nil
}

// UpgradeStorage buys the next inventory storage level.
func (s *Simulation) UpgradeStorage(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Inventory.UpgradeStorage(); err != nil {
		return err
	}
	s.record(s.LastTick, now, "economy", "storage upgraded to level %d", s.Inventory.StorageLevel)
	s.dirty = true
	return nil
}

// CheckLogin applies the daily login bonus and records the outcome.
func (s *Simulation) CheckLogin(now time.Time) player.LoginResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.Progress.CheckLogin(now)
	switch {
	case res.First:
		s.record(s.LastTick, now, "player", "welcome! first-login bonus %s cookies", money(res.Bonus))
	case res.Repeat:
		// Nothing granted.
	case res.StreakKept:
		s.record(s.LastTick, now, "player", "day %d login streak! bonus %s cookies", res.Streak, money(res.Bonus))
	case res.StreakBroke:
		s.record(s.LastTick, now, "player", "streak reset; login bonus %s cookies", money(res.Bonus))
	}
	if !res.Repeat {
		s.dirty = true
	}
	return res
}

// Save domains. Each is serialized independently so a corrupt payload
// costs only that domain on load.
const (
	DomainEconomy     = "economy"
	DomainIngredients = "ingredients"
	DomainRecipes     = "recipes"
	DomainInventory   = "inventory"
	DomainOrders      = "orders"
	DomainSuppliers   = "suppliers"
	DomainMarket      = "market"
	DomainPlayer      = "player"
	DomainStats       = "stats"
)

// economyDomain bundles the ledger with unit and upgrade state.
type economyDomain struct {
	Ledger     *economy.Ledger     `json:"ledger"`
	Production production.Snapshot `json:"production"`
}

// DomainSnapshots returns every domain payload, JSON-encoded.
func (s *Simulation) DomainSnapshots() (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payloads := map[string]any{
		DomainEconomy:     economyDomain{Ledger: s.Ledger, Production: s.Production.Snapshot()},
		DomainIngredients: s.Pantry.Snapshot(),
		DomainRecipes:     s.Kitchen.Snapshot(),
		DomainInventory:   s.Inventory.Snapshot(),
		DomainOrders:      s.Orders.Snapshot(),
		DomainSuppliers:   s.Suppliers.Snapshot(),
		DomainMarket:      s.Market.Snapshot(),
		DomainPlayer:      s.Progress.Snapshot(),
		DomainStats:       s.Stats,
	}
	out := make(map[string][]byte, len(payloads))
	for name, payload := range payloads {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal domain %s: %w", name, err)
		}
		out[name] = raw
	}
	return out, nil
}

// RestoreDomain applies one persisted domain payload.
func (s *Simulation) RestoreDomain(name string, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch name {
	case DomainEconomy:
		var d economyDomain
		if err := json.Unmarshal(raw, &d); err != nil {
			return err
		}
		if d.Ledger != nil {
			*s.Ledger = *d.Ledger
		}
		s.Production.Restore(d.Production)
	case DomainIngredients:
		var snap pantry.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return err
		}
		s.Pantry.Restore(snap)
	case DomainRecipes:
		var snap kitchen.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return err
		}
		s.Kitchen.Restore(snap)
	case DomainInventory:
		var snap inventory.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return err
		}
		s.Inventory.Restore(snap)
	case DomainOrders:
		var snap orders.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return err
		}
		s.Orders.Restore(snap)
	case DomainSuppliers:
		var snap suppliers.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return err
		}
		s.Suppliers.Restore(snap)
	case DomainMarket:
		var snap market.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return err
		}
		s.Market.Restore(snap)
	case DomainPlayer:
		var snap player.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return err
		}
		s.Progress.Restore(snap)
	case DomainStats:
		var tr stats.Tracker
		if err := json.Unmarshal(raw, &tr); err != nil {
			return err
		}
		s.Stats.Restore(&tr)
	default:
		return fmt.Errorf("unknown save domain %q", name)
	}
	return nil
}
