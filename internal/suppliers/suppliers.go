// Package suppliers manages recurring ingredient-supply contracts that
// drip-feed raw stock into the pantry for amortized daily payments.
package suppliers

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/bakerysim/internal/economy"
	"github.com/talgya/bakerysim/internal/pantry"
	"github.com/talgya/bakerysim/internal/player"
)

// Tier is a contract duration class.
type Tier string

const (
	TierDaily   Tier = "daily"
	TierWeekly  Tier = "weekly"
	TierMonthly Tier = "monthly"
)

// orderSizes maps a tier to the size of the ingredient order it spawns.
var orderSizes = map[Tier]int{
	TierDaily:   20,
	TierWeekly:  150,
	TierMonthly: 600,
}

// TierOption prices one duration class of a supplier.
type TierOption struct {
	Cost         float64 `json:"cost"`
	DurationDays int     `json:"duration_days"`
}

// Supplier is a contractable ingredient source.
type Supplier struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Ingredient  string              `json:"ingredient"`
	HourlyRate  float64             `json:"hourly_rate"`
	UnlockLevel int                 `json:"unlock_level"`
	Tiers       map[Tier]TierOption `json:"tiers"`
}

// Contract is an active agreement with one supplier. At most one contract
// per supplier exists; re-signing replaces it.
type Contract struct {
	SupplierID    string    `json:"supplier_id"`
	Tier          Tier      `json:"tier"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	NextPaymentAt time.Time `json:"next_payment_at"`
}

// IngredientOrder tracks cumulative delivery against an ordered amount.
type IngredientOrder struct {
	ID         string    `json:"id"`
	SupplierID string    `json:"supplier_id"`
	Ingredient string    `json:"ingredient"`
	Amount     int       `json:"amount"`
	Delivered  int       `json:"delivered"`
	Completed  bool      `json:"completed"`
	CreatedAt  time.Time `json:"created_at"`
}

func defaultSuppliers() []*Supplier {
	tiers := func(daily, weekly, monthly float64) map[Tier]TierOption {
		return map[Tier]TierOption{
			TierDaily:   {Cost: daily, DurationDays: 1},
			TierWeekly:  {Cost: weekly, DurationDays: 7},
			TierMonthly: {Cost: monthly, DurationDays: 30},
		}
	}
	return []*Supplier{
		{ID: "village_mill", Name: "Village Mill", Description: "A small village mill. Low output, low cost.",
			Ingredient: "flour", HourlyRate: 5, UnlockLevel: 1, Tiers: tiers(20, 120, 450)},
		{ID: "town_mill", Name: "Town Flour Works", Description: "Produces flour efficiently.",
			Ingredient: "flour", HourlyRate: 15, UnlockLevel: 5, Tiers: tiers(50, 300, 1200)},
		{ID: "automated_mill", Name: "Automated Milling System", Description: "Mass production with state-of-the-art equipment.",
			Ingredient: "flour", HourlyRate: 50, UnlockLevel: 10, Tiers: tiers(200, 1200, 4800)},

		{ID: "local_refinery", Name: "Local Sugar Refinery", Description: "Refines sugar from locally grown cane.",
			Ingredient: "sugar", HourlyRate: 4, UnlockLevel: 2, Tiers: tiers(25, 150, 600)},
		{ID: "sugar_factory", Name: "Sugar Factory", Description: "Refines large quantities of sugar efficiently.",
			Ingredient: "sugar", HourlyRate: 12, UnlockLevel: 6, Tiers: tiers(60, 360, 1440)},
		{ID: "modern_refinery", Name: "Modern Refining Plant", Description: "High-grade sugar at industrial scale.",
			Ingredient: "sugar", HourlyRate: 40, UnlockLevel: 12, Tiers: tiers(180, 1080, 4320)},

		{ID: "dairy_farm", Name: "Dairy Farm Butter", Description: "Quality butter churned from fresh milk.",
			Ingredient: "butter", HourlyRate: 3, UnlockLevel: 3, Tiers: tiers(30, 180, 720)},
		{ID: "butter_factory", Name: "Butter Factory", Description: "Butter made at factory scale.",
			Ingredient: "butter", HourlyRate: 10, UnlockLevel: 7, Tiers: tiers(70, 420, 1680)},
		{ID: "gourmet_creamery", Name: "Gourmet Creamery", Description: "Specializes in premium butter.",
			Ingredient: "butter", HourlyRate: 35, UnlockLevel: 14, Tiers: tiers(150, 900, 3600)},
	}
}

const (
	deliveryInterval    = 30 * time.Second
	maintenanceInterval = 60 * time.Second
	// An hour of production spread over twelve delivery windows.
	deliveryWindowsPerHour = 12
	paymentPeriod          = 24 * time.Hour
)

// Engine runs contract deliveries and maintenance.
type Engine struct {
	ledger   *economy.Ledger
	shelf    *pantry.Pantry
	progress *player.Progress

	catalog map[string]*Supplier
	order   []string

	contracts []*Contract
	orders    []*IngredientOrder

	lastDelivery    time.Time
	lastMaintenance time.Time
}

func NewEngine(ledger *economy.Ledger, shelf *pantry.Pantry, progress *player.Progress) *Engine {
	e := &Engine{
		ledger:   ledger,
		shelf:    shelf,
		progress: progress,
		catalog:  make(map[string]*Supplier),
	}
	for _, s := range defaultSuppliers() {
		e.catalog[s.ID] = s
		e.order = append(e.order, s.ID)
	}
	return e
}

// Supplier returns the catalog entry with the given id, or nil.
func (e *Engine) Supplier(id string) *Supplier { return e.catalog[id] }

// Suppliers returns the catalog in definition order.
func (e *Engine) Suppliers() []*Supplier {
	out := make([]*Supplier, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.catalog[id])
	}
	return out
}

// Contracts returns the active contracts.
func (e *Engine) Contracts() []*Contract {
	out := make([]*Contract, len(e.contracts))
	copy(out, e.contracts)
	return out
}

// Contract returns the active contract for a supplier, or nil.
func (e *Engine) Contract(supplierID string) *Contract {
	for _, c := range e.contracts {
		if c.SupplierID == supplierID {
			return c
		}
	}
	return nil
}

// Orders returns the incomplete ingredient orders, oldest first.
func (e *Engine) Orders() []*IngredientOrder {
	var out []*IngredientOrder
	for _, o := range e.orders {
		if !o.Completed {
			out = append(out, o)
		}
	}
	return out
}

// Sign opens a contract with a supplier. The player level must meet the
// supplier's unlock level and the tier cost must currently be affordable,
// though payment is collected as amortized daily debits, not upfront.
// An existing contract for the supplier is replaced, never stacked.
func (e *Engine) Sign(supplierID string, tier Tier, now time.Time) (*Contract, *IngredientOrder, error) {
	s, ok := e.catalog[supplierID]
	if !ok {
		return nil, nil, fmt.Errorf("supplier %q: %w", supplierID, economy.ErrNotFound)
	}
	opt, ok := s.Tiers[tier]
	if !ok {
		return nil, nil, fmt.Errorf("supplier %s tier %q: %w", supplierID, tier, economy.ErrNotFound)
	}
	if e.progress.Level < s.UnlockLevel {
		return nil, nil, fmt.Errorf("supplier %s needs level %d: %w", supplierID, s.UnlockLevel, economy.ErrLevelTooLow)
	}
	if !e.ledger.CanAfford(opt.Cost) {
		return nil, nil, fmt.Errorf("sign %s %s: %w", supplierID, tier, economy.ErrInsufficientFunds)
	}

	c := e.Contract(supplierID)
	if c == nil {
		c = &Contract{SupplierID: supplierID}
		e.contracts = append(e.contracts, c)
	}
	c.Tier = tier
	c.StartAt = now
	c.EndAt = now.Add(time.Duration(opt.DurationDays) * paymentPeriod)
	c.NextPaymentAt = now.Add(paymentPeriod)

	o := &IngredientOrder{
		ID:         uuid.NewString(),
		SupplierID: supplierID,
		Ingredient: s.Ingredient,
		Amount:     orderSizes[tier],
		CreatedAt:  now,
	}
	e.orders = append(e.orders, o)
	return c, o, nil
}

// TickReport collects what one Tick did, for event surfacing.
type TickReport struct {
	Delivered       map[string]int // ingredient -> units delivered
	CompletedOrders []*IngredientOrder
	Payments        map[string]float64 // supplier id -> amount debited
	Expired         []*Contract
	Terminated      []*Contract // cancelled for non-payment
}

// Tick runs the delivery and maintenance schedules when their intervals
// have elapsed.
func (e *Engine) Tick(now time.Time) TickReport {
	r := TickReport{
		Delivered: make(map[string]int),
		Payments:  make(map[string]float64),
	}
	if e.lastDelivery.IsZero() {
		e.lastDelivery = now
	}
	if e.lastMaintenance.IsZero() {
		e.lastMaintenance = now
	}
	if now.Sub(e.lastDelivery) >= deliveryInterval {
		e.deliver(now, &r)
		e.lastDelivery = now
	}
	if now.Sub(e.lastMaintenance) >= maintenanceInterval {
		e.maintain(now, &r)
		e.lastMaintenance = now
	}
	return r
}

// deliver applies one production window to the oldest incomplete order of
// each contracted supplier.
func (e *Engine) deliver(now time.Time, r *TickReport) {
	for _, c := range e.contracts {
		if now.After(c.EndAt) {
			continue
		}
		s := e.catalog[c.SupplierID]
		perWindow := int(s.HourlyRate / deliveryWindowsPerHour)
		if perWindow < 1 {
			perWindow = 1
		}
		o := e.oldestIncomplete(c.SupplierID)
		if o == nil {
			continue
		}
		delivery := o.Amount - o.Delivered
		if delivery > perWindow {
			delivery = perWindow
		}
		if delivery <= 0 {
			continue
		}
		o.Delivered += delivery
		if err := e.shelf.Add(o.Ingredient, delivery); err == nil {
			r.Delivered[o.Ingredient] += delivery
		}
		if o.Delivered >= o.Amount {
			o.Completed = true
			r.CompletedOrders = append(r.CompletedOrders, o)
		}
	}
}

func (e *Engine) oldestIncomplete(supplierID string) *IngredientOrder {
	for _, o := range e.orders {
		if o.SupplierID == supplierID && !o.Completed {
			return o
		}
	}
	return nil
}

// maintain expires ended contracts and charges due daily payments.
// A payment the ledger cannot cover force-terminates the contract with no
// refund and no further deliveries.
func (e *Engine) maintain(now time.Time, r *TickReport) {
	kept := e.contracts[:0]
	for _, c := range e.contracts {
		if now.After(c.EndAt) {
			r.Expired = append(r.Expired, c)
			continue
		}
		if !now.Before(c.NextPaymentAt) {
			s := e.catalog[c.SupplierID]
			opt := s.Tiers[c.Tier]
			daily := opt.Cost / float64(opt.DurationDays)
			if err := e.ledger.Spend(daily); err != nil {
				r.Terminated = append(r.Terminated, c)
				continue
			}
			r.Payments[c.SupplierID] += daily
			c.NextPaymentAt = now.Add(paymentPeriod)
		}
		kept = append(kept, c)
	}
	e.contracts = kept
}

// Snapshot captures persistable contract state.
type Snapshot struct {
	Contracts       []*Contract        `json:"contracts"`
	Orders          []*IngredientOrder `json:"orders"`
	LastDelivery    time.Time          `json:"last_delivery"`
	LastMaintenance time.Time          `json:"last_maintenance"`
}

func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Contracts:       e.Contracts(),
		Orders:          append([]*IngredientOrder(nil), e.orders...),
		LastDelivery:    e.lastDelivery,
		LastMaintenance: e.lastMaintenance,
	}
}

func (e *Engine) Restore(s Snapshot) {
	e.contracts = nil
	for _, c := range s.Contracts {
		sup, ok := e.catalog[c.SupplierID]
		if !ok {
			continue
		}
		// An unknown tier would make maintain divide by a zero duration.
		if _, ok := sup.Tiers[c.Tier]; !ok {
			continue
		}
		e.contracts = append(e.contracts, c)
	}
	e.orders = nil
	for _, o := range s.Orders {
		if _, ok := e.catalog[o.SupplierID]; ok {
			e.orders = append(e.orders, o)
		}
	}
	e.lastDelivery = s.LastDelivery
	e.lastMaintenance = s.LastMaintenance
}
