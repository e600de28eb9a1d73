// Package inventory tracks finished-cookie stock under per-type and total
// capacity ceilings that scale with the storage level.
package inventory

import (
	"fmt"
	"math"

	"github.com/talgya/bakerysim/internal/economy"
)

const (
	basePerTypeCapacity = 50
	baseTotalCapacity   = 200
	baseUpgradeCost     = 1000
)

// Inventory is the finished-goods store.
type Inventory struct {
	ledger       *economy.Ledger
	stock        map[string]int
	StorageLevel int `json:"storage_level"`
}

func New(ledger *economy.Ledger) *Inventory {
	return &Inventory{
		ledger:       ledger,
		stock:        make(map[string]int),
		StorageLevel: 1,
	}
}

// PerTypeCapacity is the ceiling for any single cookie type.
func (v *Inventory) PerTypeCapacity() int {
	return basePerTypeCapacity * v.StorageLevel
}

// TotalCapacity is the ceiling across all types.
func (v *Inventory) TotalCapacity() int {
	return baseTotalCapacity * v.StorageLevel
}

// TotalStock sums stock across all types.
func (v *Inventory) TotalStock() int {
	total := 0
	for _, n := range v.stock {
		total += n
	}
	return total
}

// Stock returns the stored amount for one cookie type.
func (v *Inventory) Stock(recipeID string) int {
	return v.stock[recipeID]
}

// Stocks returns a copy of the per-type stock map.
func (v *Inventory) Stocks() map[string]int {
	out := make(map[string]int, len(v.stock))
	for id, n := range v.stock {
		out[id] = n
	}
	return out
}

// Add stores amount of a cookie type. Rejected wholesale when either
// capacity ceiling would be exceeded.
func (v *Inventory) Add(recipeID string, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("inventory add: amount must be positive")
	}
	if v.TotalStock()+amount > v.TotalCapacity() {
		return fmt.Errorf("add %d %s: total capacity %d: %w",
			amount, recipeID, v.TotalCapacity(), economy.ErrCapacityExceeded)
	}
	if v.stock[recipeID]+amount > v.PerTypeCapacity() {
		return fmt.Errorf("add %d %s: per-type capacity %d: %w",
			amount, recipeID, v.PerTypeCapacity(), economy.ErrCapacityExceeded)
	}
	v.stock[recipeID] += amount
	return nil
}

// AddUpTo stores as much of amount as the ceilings allow and returns how
// much was actually stored. Cooking completions use this so a full rack
// never blocks the oven.
func (v *Inventory) AddUpTo(recipeID string, amount int) int {
	if amount <= 0 {
		return 0
	}
	room := v.TotalCapacity() - v.TotalStock()
	if typeRoom := v.PerTypeCapacity() - v.stock[recipeID]; typeRoom < room {
		room = typeRoom
	}
	if room <= 0 {
		return 0
	}
	if amount > room {
		amount = room
	}
	v.stock[recipeID] += amount
	return amount
}

// Remove deducts amount of a cookie type, pruning emptied entries.
func (v *Inventory) Remove(recipeID string, amount int) error {
	if v.stock[recipeID] < amount {
		return fmt.Errorf("remove %d %s: have %d: %w",
			amount, recipeID, v.stock[recipeID], economy.ErrInsufficientStock)
	}
	v.stock[recipeID] -= amount
	if v.stock[recipeID] == 0 {
		delete(v.stock, recipeID)
	}
	return nil
}

// CheckStock reports whether every line item is satisfiable.
func (v *Inventory) CheckStock(items map[string]int) bool {
	for id, need := range items {
		if v.stock[id] < need {
			return false
		}
	}
	return true
}

// ConsumeBatch deducts all line items atomically. No partial consumption
// is ever observable.
func (v *Inventory) ConsumeBatch(items map[string]int) error {
	if !v.CheckStock(items) {
		return economy.ErrInsufficientStock
	}
	for id, need := range items {
		v.stock[id] -= need
		if v.stock[id] == 0 {
			delete(v.stock, id)
		}
	}
	return nil
}

// UpgradeCost is the price of the next storage level.
func (v *Inventory) UpgradeCost() float64 {
	return baseUpgradeCost * math.Pow(3, float64(v.StorageLevel-1))
}

// UpgradeStorage buys the next storage level, scaling both ceilings.
func (v *Inventory) UpgradeStorage() error {
	if err := v.ledger.Spend(v.UpgradeCost()); err != nil {
		return fmt.Errorf("upgrade storage: %w", err)
	}
	v.StorageLevel++
	return nil
}

// Snapshot captures persistable inventory state.
type Snapshot struct {
	Stock        map[string]int `json:"stock"`
	StorageLevel int            `json:"storage_level"`
}

func (v *Inventory) Snapshot() Snapshot {
	return Snapshot{Stock: v.Stocks(), StorageLevel: v.StorageLevel}
}

func (v *Inventory) Restore(s Snapshot) {
	v.stock = make(map[string]int)
	for id, n := range s.Stock {
		if n > 0 {
			v.stock[id] = n
		}
	}
	if s.StorageLevel >= 1 {
		v.StorageLevel = s.StorageLevel
	}
}
