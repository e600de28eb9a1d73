// Package orders generates timed customer orders, sweeps expirations, and
// fulfills completions against the cookie inventory.
package orders

import (
	"fmt"
	"math"
	"time"

	"github.com/talgya/bakerysim/internal/economy"
	"github.com/talgya/bakerysim/internal/entropy"
	"github.com/talgya/bakerysim/internal/inventory"
	"github.com/talgya/bakerysim/internal/kitchen"
	"github.com/talgya/bakerysim/internal/pantry"
	"github.com/talgya/bakerysim/internal/player"
	"github.com/talgya/bakerysim/internal/stats"
)

// Status is an order's lifecycle state. Transitions out of StatusActive
// are terminal and one-way.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
)

// Order is a customer request. Immutable once created except Status.
type Order struct {
	ID           uint64         `json:"id"`
	CustomerName string         `json:"customer_name"`
	Items        map[string]int `json:"items"`
	CreatedAt    time.Time      `json:"created_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	Reward       float64        `json:"reward"`
	Special      bool           `json:"special"`
	Status       Status         `json:"status"`
}

// Difficulty holds the generation parameters tuned from player level.
type Difficulty struct {
	MinItems         int     `json:"min_items"`
	MaxItems         int     `json:"max_items"`
	MinQuantity      int     `json:"min_quantity"`
	MaxQuantity      int     `json:"max_quantity"`
	BaseTimeLimit    float64 `json:"base_time_limit"` // seconds
	TimeLimitVariance float64 `json:"time_limit_variance"`
	RewardMultiplier float64 `json:"reward_multiplier"`
}

func defaultDifficulty() Difficulty {
	return Difficulty{
		MinItems: 1, MaxItems: 3,
		MinQuantity: 1, MaxQuantity: 5,
		BaseTimeLimit: 60, TimeLimitVariance: 30,
		RewardMultiplier: 1.5,
	}
}

// Stats are the lifetime fulfillment tallies.
type Stats struct {
	Completed    int            `json:"completed"`
	Rejected     int            `json:"rejected"`
	Expired      int            `json:"expired"`
	TotalRevenue float64        `json:"total_revenue"`
	RecipeSales  map[string]int `json:"recipe_sales"`
}

// BestSeller returns the recipe with the most units sold, or "".
func (s *Stats) BestSeller() string {
	best, bestCount := "", 0
	for id, n := range s.RecipeSales {
		if n > bestCount || (n == bestCount && best != "" && id < best) {
			best, bestCount = id, n
		}
	}
	return best
}

const (
	maxActiveOrders   = 3
	baseOrderDelay    = 30 * time.Second
	specialChance     = 0.1
	specialRewardMult = 2.0
	specialTimeMult   = 0.8
)

var customerFirst = []string{
	"Tanaka", "Sato", "Suzuki", "Takahashi", "Watanabe",
	"Ito", "Yamamoto", "Nakamura", "Kobayashi", "Kato",
	"Yoshida", "Yamada", "Sasaki", "Yamaguchi", "Matsumoto",
}

var customerSecond = []string{
	"-san", " & Family", " Household", " Bakery Club", " Cafe",
	" Restaurant", " Hotel", " Academy", " Grocers", " & Sons",
}

// Engine is the order state machine.
type Engine struct {
	ledger   *economy.Ledger
	catalog  *kitchen.Kitchen
	store    *inventory.Inventory
	shelf    *pantry.Pantry
	progress *player.Progress
	tracker  *stats.Tracker
	rng      *entropy.Source

	active         []*Order
	nextID         uint64
	stats          Stats
	difficulty     Difficulty
	nextGenerateAt time.Time

	// jit lets Complete consume raw ingredients for stock shortfalls,
	// baking the missing cookies implicitly.
	jit bool
}

// Option configures an Engine.
type Option func(*Engine)

// JITCooking enables the just-in-time fallback on completion: when the
// inventory is short, missing cookies are baked on the spot from raw
// ingredients at the recipe's usual cost.
func JITCooking(enabled bool) Option {
	return func(e *Engine) { e.jit = enabled }
}

func NewEngine(
	ledger *economy.Ledger,
	catalog *kitchen.Kitchen,
	store *inventory.Inventory,
	shelf *pantry.Pantry,
	progress *player.Progress,
	tracker *stats.Tracker,
	rng *entropy.Source,
	opts ...Option,
) *Engine {
	e := &Engine{
		ledger:     ledger,
		catalog:    catalog,
		store:      store,
		shelf:      shelf,
		progress:   progress,
		tracker:    tracker,
		rng:        rng,
		nextID:     1,
		stats:      Stats{RecipeSales: make(map[string]int)},
		difficulty: defaultDifficulty(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Active returns the active orders, oldest first.
func (e *Engine) Active() []*Order {
	out := make([]*Order, len(e.active))
	copy(out, e.active)
	return out
}

// Order returns the active order with the given id, or nil.
func (e *Engine) Order(id uint64) *Order {
	for _, o := range e.active {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// Stats returns a copy of the lifetime tallies.
func (e *Engine) Stats() Stats {
	s := e.stats
	s.RecipeSales = make(map[string]int, len(e.stats.RecipeSales))
	for id, n := range e.stats.RecipeSales {
		s.RecipeSales[id] = n
	}
	return s
}

// Difficulty returns the current generation parameters.
func (e *Engine) Difficulty() Difficulty { return e.difficulty }

// adjustDifficulty retunes generation parameters from the player level.
func (e *Engine) adjustDifficulty() {
	d := defaultDifficulty()
	level := e.progress.Level
	if level >= 5 {
		d.MaxItems = min(5, 3+(level-5)/5)
		d.MaxQuantity = min(10, 5+(level-5)/3)
	}
	d.RewardMultiplier = 1.5 + float64(level)*0.1
	if level >= 10 {
		d.BaseTimeLimit = math.Max(45, 60-float64(level-10))
	}
	e.difficulty = d
}

// Tick sweeps expired orders and runs the generation schedule. Expired
// orders and any newly generated order are returned for event reporting.
func (e *Engine) Tick(now time.Time) (expired []*Order, generated *Order) {
	kept := e.active[:0]
	for _, o := range e.active {
		if now.After(o.ExpiresAt) {
			o.Status = StatusExpired
			e.stats.Expired++
			e.stats.Rejected++
			expired = append(expired, o)
			continue
		}
		kept = append(kept, o)
	}
	e.active = kept

	// A fresh engine generates on its first tick; afterwards the schedule
	// gates each attempt.
	if !e.nextGenerateAt.IsZero() && now.Before(e.nextGenerateAt) {
		return expired, nil
	}
	if len(e.active) < maxActiveOrders {
		e.adjustDifficulty()
		generated = e.generate(now)
	}
	// Recurring-timer semantics: reschedule whether or not one was made.
	e.nextGenerateAt = now.Add(e.nextDelay())
	return expired, generated
}

// nextDelay derives the wait before the next generation attempt from the
// game clock and a jitter factor.
func (e *Engine) nextDelay() time.Duration {
	mult := e.progress.OrderCadenceMultiplier() * e.rng.Uniform(0.8, 1.2)
	return time.Duration(float64(baseOrderDelay) * mult)
}

// generate builds one order from the unlocked recipe pool, or nil when no
// recipes are unlocked.
func (e *Engine) generate(now time.Time) *Order {
	pool := e.catalog.Unlocked()
	if len(pool) == 0 {
		return nil
	}
	d := e.difficulty

	size := e.rng.Between(d.MinItems, d.MaxItems)
	entropy.Shuffle(e.rng, pool)
	if size > len(pool) {
		size = len(pool)
	}

	items := make(map[string]int, size)
	baseReward := 0.0
	for _, r := range pool[:size] {
		qty := e.rng.Between(d.MinQuantity, d.MaxQuantity)
		items[r.ID] = qty
		baseReward += float64(r.Yield) * float64(qty)
	}

	timeLimit := d.BaseTimeLimit + e.rng.Uniform(-d.TimeLimitVariance, d.TimeLimitVariance)
	reward := math.Floor(baseReward * d.RewardMultiplier)

	o := &Order{
		ID:           e.nextID,
		CustomerName: entropy.Pick(e.rng, customerFirst) + entropy.Pick(e.rng, customerSecond),
		Items:        items,
		CreatedAt:    now,
		Reward:       reward,
		Status:       StatusActive,
	}
	e.nextID++

	if e.rng.Chance(specialChance) {
		o.Special = true
		o.Reward = math.Floor(o.Reward * specialRewardMult)
		timeLimit *= specialTimeMult
	}
	o.ExpiresAt = now.Add(time.Duration(timeLimit * float64(time.Second)))

	e.active = append(e.active, o)
	return o
}

// CompleteResult reports a successful fulfillment.
type CompleteResult struct {
	Order        *Order
	LevelsGained int
	JITBatches   map[string]int // batches baked on the spot, by recipe
}

// Complete fulfills an active order from inventory stock, crediting the
// reward and recording sales. With JIT cooking enabled, stock shortfalls
// are covered by baking from raw ingredients, all-or-nothing.
func (e *Engine) Complete(id uint64, now time.Time) (*CompleteResult, error) {
	o := e.Order(id)
	if o == nil {
		return nil, fmt.Errorf("order %d: %w", id, economy.ErrNotFound)
	}

	res := &CompleteResult{Order: o}
	if !e.store.CheckStock(o.Items) {
		if !e.jit {
			return nil, fmt.Errorf("order %d: %w", id, economy.ErrInsufficientStock)
		}
		batches, err := e.bakeShortfall(o.Items)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", id, err)
		}
		res.JITBatches = batches
	}
	if err := e.store.ConsumeBatch(o.Items); err != nil {
		return nil, fmt.Errorf("order %d: %w", id, err)
	}

	e.ledger.Credit(o.Reward)
	e.stats.Completed++
	e.stats.TotalRevenue += o.Reward

	totalQty := 0
	for _, qty := range o.Items {
		totalQty += qty
	}
	for recipeID, qty := range o.Items {
		e.stats.RecipeSales[recipeID] += qty
		share := o.Reward * float64(qty) / float64(totalQty)
		e.tracker.RecordSale(now, recipeID, qty, share)
	}

	res.LevelsGained = e.progress.AddExperience(int(math.Ceil(o.Reward / 10)))

	o.Status = StatusCompleted
	e.remove(id)
	return res, nil
}

// bakeShortfall covers inventory shortfalls by consuming raw ingredients
// for whole batches. Validates the full ingredient bill before touching
// any stock.
func (e *Engine) bakeShortfall(items map[string]int) (map[string]int, error) {
	need := make(map[string]int)  // total ingredient bill
	batches := make(map[string]int)
	credit := make(map[string]int) // cookies produced per recipe
	for recipeID, qty := range items {
		short := qty - e.store.Stock(recipeID)
		if short <= 0 {
			continue
		}
		r := e.catalog.Recipe(recipeID)
		if r == nil || !r.Unlocked {
			return nil, economy.ErrInsufficientStock
		}
		n := (short + r.Yield - 1) / r.Yield
		batches[recipeID] = n
		credit[recipeID] = short // only the shortfall must land in stock
		for ing, amt := range r.Ingredients {
			need[ing] += amt * n
		}
	}
	if !e.shelf.Has(need) {
		return nil, economy.ErrInsufficientIngredients
	}
	// Validate capacity for the shortfall units before mutating anything,
	// so a failure here leaves pantry and inventory untouched.
	totalShort := 0
	for recipeID, short := range credit {
		if e.store.Stock(recipeID)+short > e.store.PerTypeCapacity() {
			return nil, economy.ErrCapacityExceeded
		}
		totalShort += short
	}
	if e.store.TotalStock()+totalShort > e.store.TotalCapacity() {
		return nil, economy.ErrCapacityExceeded
	}
	if err := e.shelf.Consume(need); err != nil {
		return nil, err
	}
	for recipeID, short := range credit {
		if err := e.store.Add(recipeID, short); err != nil {
			return nil, err
		}
		// Whole batches can overshoot the shortfall; surplus goes to
		// stock too, capacity permitting.
		surplus := batches[recipeID]*e.catalog.Recipe(recipeID).Yield - short
		if surplus > 0 {
			e.store.AddUpTo(recipeID, surplus)
		}
	}
	return batches, nil
}

// Reject cancels an active order with no penalty.
func (e *Engine) Reject(id uint64) (*Order, error) {
	o := e.Order(id)
	if o == nil {
		return nil, fmt.Errorf("order %d: %w", id, economy.ErrNotFound)
	}
	o.Status = StatusRejected
	e.stats.Rejected++
	e.remove(id)
	return o, nil
}

func (e *Engine) remove(id uint64) {
	for i, o := range e.active {
		if o.ID == id {
			e.active = append(e.active[:i], e.active[i+1:]...)
			return
		}
	}
}

// Snapshot captures persistable order-engine state.
type Snapshot struct {
	Active         []*Order   `json:"active"`
	NextID         uint64     `json:"next_id"`
	Stats          Stats      `json:"stats"`
	Difficulty     Difficulty `json:"difficulty"`
	NextGenerateAt time.Time  `json:"next_generate_at"`
}

func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Active:         e.Active(),
		NextID:         e.nextID,
		Stats:          e.Stats(),
		Difficulty:     e.difficulty,
		NextGenerateAt: e.nextGenerateAt,
	}
}

func (e *Engine) Restore(s Snapshot) {
	e.active = nil
	for _, o := range s.Active {
		if o.Status == StatusActive {
			e.active = append(e.active, o)
		}
	}
	if s.NextID > e.nextID {
		e.nextID = s.NextID
	}
	if s.Stats.RecipeSales != nil {
		e.stats = s.Stats
	}
	if s.Difficulty.RewardMultiplier > 0 {
		e.difficulty = s.Difficulty
	}
	e.nextGenerateAt = s.NextGenerateAt
}
