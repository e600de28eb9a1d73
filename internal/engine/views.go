// Read-side snapshots of simulation state. The HTTP handlers run on
// their own goroutine, so every view copies what it reports under the
// simulation lock; nothing returned here aliases tick-mutated state.
package engine

import (
	"encoding/json"
	"time"

	"github.com/talgya/bakerysim/internal/market"
	"github.com/talgya/bakerysim/internal/orders"
	"github.com/talgya/bakerysim/internal/player"
	"github.com/talgya/bakerysim/internal/suppliers"
)

// StatusView is a point-in-time summary of the whole bakery.
type StatusView struct {
	Tick           uint64
	Currency       float64
	TotalEarned    float64
	PerClick       float64
	ProductionRate float64
	Level          int
	Experience     int
	LoginStreak    int
	Clock          player.GameClock
	InventoryStock int
	InventoryCap   int
	StorageLevel   int
	ActiveOrders   int
	Completed      int
	BestSeller     string
	MarketPrice    float64
	MarketCoins    float64
}

// StatusView captures the headline numbers in one consistent read.
func (s *Simulation) StatusView(now time.Time) StatusView {
	s.mu.Lock()
	defer s.mu.Unlock()
	orderStats := s.Orders.Stats()
	return StatusView{
		Tick:           s.LastTick,
		Currency:       s.Ledger.Currency,
		TotalEarned:    s.Ledger.TotalEarned,
		PerClick:       s.Ledger.ClickValue(now),
		ProductionRate: s.Ledger.EffectiveRate(now),
		Level:          s.Progress.Level,
		Experience:     s.Progress.Experience,
		LoginStreak:    s.Progress.LoginStreak,
		Clock:          s.Progress.Clock,
		InventoryStock: s.Inventory.TotalStock(),
		InventoryCap:   s.Inventory.TotalCapacity(),
		StorageLevel:   s.Inventory.StorageLevel,
		ActiveOrders:   len(s.Orders.Active()),
		Completed:      orderStats.Completed,
		BestSeller:     orderStats.BestSeller(),
		MarketPrice:    s.Market.Price,
		MarketCoins:    s.Market.Coins,
	}
}

// UnitView is one production unit row.
type UnitView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Count     int     `json:"count"`
	Rate      float64 `json:"rate"`
	NextCost  float64 `json:"next_cost"`
	Milestone int     `json:"milestone_level"`
}

// UpgradeView is one upgrade row.
type UpgradeView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Cost      float64 `json:"cost"`
	Purchased bool    `json:"purchased"`
}

func (s *Simulation) ProductionView() ([]UnitView, []UpgradeView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var units []UnitView
	for _, u := range s.Production.Units() {
		units = append(units, UnitView{
			ID:        u.ID,
			Name:      u.Name,
			Count:     u.Count,
			Rate:      u.Rate,
			NextCost:  u.NextCost(),
			Milestone: u.MilestoneLevel,
		})
	}
	var upgrades []UpgradeView
	for _, up := range s.Production.Upgrades() {
		upgrades = append(upgrades, UpgradeView{
			ID: up.ID, Name: up.Name, Cost: up.Cost, Purchased: up.Purchased,
		})
	}
	return units, upgrades
}

// RecipeView is one catalog row; locked recipes only reveal the teaser.
type RecipeView struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Unlocked bool           `json:"unlocked"`
	Teased   bool           `json:"teased,omitempty"`
	Cost     map[string]int `json:"ingredients,omitempty"`
	Yield    int            `json:"yield,omitempty"`
	CookSecs float64        `json:"cook_seconds,omitempty"`
	Stock    int            `json:"stock"`
}

// CookingView reports the single cooking slot.
type CookingView struct {
	Active   bool    `json:"active"`
	RecipeID string  `json:"recipe_id,omitempty"`
	Progress float64 `json:"progress,omitempty"`
}

func (s *Simulation) KitchenView(now time.Time) ([]RecipeView, CookingView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var recipes []RecipeView
	for _, rec := range s.Kitchen.Recipes() {
		v := RecipeView{
			ID:       rec.ID,
			Name:     rec.Name,
			Unlocked: rec.Unlocked,
			Stock:    s.Inventory.Stock(rec.ID),
		}
		if rec.Unlocked {
			v.Cost = rec.Ingredients
			v.Yield = rec.Yield
			v.CookSecs = rec.CookTime.Seconds()
		} else {
			v.Teased = s.Kitchen.Teased(rec.ID)
		}
		recipes = append(recipes, v)
	}

	slot := s.Kitchen.Slot()
	cooking := CookingView{Active: slot.Active()}
	if cooking.Active {
		cooking.RecipeID = slot.RecipeID
		cooking.Progress = s.Kitchen.Progress(now)
	}
	return recipes, cooking
}

// OrderView is one active customer order.
type OrderView struct {
	ID          uint64         `json:"id"`
	Customer    string         `json:"customer"`
	Items       map[string]int `json:"items"`
	Reward      float64        `json:"reward"`
	RewardHuman string         `json:"reward_human"`
	Special     bool           `json:"special"`
	SecondsLeft float64        `json:"seconds_left"`
	Fulfillable bool           `json:"fulfillable"`
}

// OrdersView bundles the order board with its lifetime tallies.
type OrdersView struct {
	Active     []OrderView       `json:"active"`
	Stats      orders.Stats      `json:"stats"`
	Difficulty orders.Difficulty `json:"difficulty"`
}

func (s *Simulation) OrdersView(now time.Time) OrdersView {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []OrderView
	for _, o := range s.Orders.Active() {
		active = append(active, OrderView{
			ID:          o.ID,
			Customer:    o.CustomerName,
			Items:       o.Items,
			Reward:      o.Reward,
			RewardHuman: money(o.Reward),
			Special:     o.Special,
			SecondsLeft: o.ExpiresAt.Sub(now).Seconds(),
			Fulfillable: s.Inventory.CheckStock(o.Items),
		})
	}
	return OrdersView{
		Active:     active,
		Stats:      s.Orders.Stats(),
		Difficulty: s.Orders.Difficulty(),
	}
}

// ContractView is one active supplier contract.
type ContractView struct {
	SupplierID  string    `json:"supplier_id"`
	Tier        string    `json:"tier"`
	EndAt       time.Time `json:"end_at"`
	NextPayment time.Time `json:"next_payment"`
}

// SuppliersView bundles the static catalog with the live contract state.
type SuppliersView struct {
	Catalog   []*suppliers.Supplier       `json:"catalog"`
	Contracts []ContractView              `json:"contracts"`
	Orders    []suppliers.IngredientOrder `json:"orders"`
}

func (s *Simulation) SuppliersView() SuppliersView {
	s.mu.Lock()
	defer s.mu.Unlock()
	var contracts []ContractView
	for _, c := range s.Suppliers.Contracts() {
		contracts = append(contracts, ContractView{
			SupplierID:  c.SupplierID,
			Tier:        string(c.Tier),
			EndAt:       c.EndAt,
			NextPayment: c.NextPaymentAt,
		})
	}
	var pending []suppliers.IngredientOrder
	for _, o := range s.Suppliers.Orders() {
		pending = append(pending, *o)
	}
	return SuppliersView{
		Catalog:   s.Suppliers.Suppliers(),
		Contracts: contracts,
		Orders:    pending,
	}
}

// MarketView is the price walk and item catalog.
type MarketView struct {
	Price   float64             `json:"price"`
	Trend   float64             `json:"trend"`
	Coins   float64             `json:"coins"`
	History []market.PricePoint `json:"history"`
	Items   []market.Item       `json:"items"`
}

func (s *Simulation) MarketView() MarketView {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []market.Item
	for _, it := range s.Market.Items() {
		items = append(items, *it)
	}
	return MarketView{
		Price:   s.Market.Price,
		Trend:   s.Market.Trend,
		Coins:   s.Market.Coins,
		History: append([]market.PricePoint(nil), s.Market.History...),
		Items:   items,
	}
}

// StatsJSON marshals the production and sales statistics while the tick
// loop cannot be writing them.
func (s *Simulation) StatsJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(s.Stats)
}
