// Package kitchen holds the recipe catalog and the single-slot cooking
// state machine that turns pantry stock into finished cookies.
package kitchen

import (
	"fmt"
	"math"
	"time"

	"github.com/talgya/bakerysim/internal/economy"
	"github.com/talgya/bakerysim/internal/entropy"
	"github.com/talgya/bakerysim/internal/inventory"
	"github.com/talgya/bakerysim/internal/pantry"
)

// SpecialEffect is a timed multiplier granted when a batch finishes.
type SpecialEffect struct {
	Kind       economy.EffectKind `json:"kind"`
	Multiplier float64            `json:"multiplier"`
	Duration   time.Duration      `json:"duration"`
}

// Recipe is one entry in the catalog.
type Recipe struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Ingredients map[string]int `json:"ingredients"`
	BaseValue   float64        `json:"base_value"`
	Yield       int            `json:"yield"`
	CookTime    time.Duration  `json:"cook_time"`
	Unlocked    bool           `json:"unlocked"`
	UnlockAt    float64        `json:"unlock_at,omitempty"`
	Special     *SpecialEffect `json:"special,omitempty"`
}

// OvenBonus supplies the multiplier applied to batch yield. The production
// engine implements it through its upgrade catalog.
type OvenBonus interface {
	BakingMultiplier() float64
}

// Slot is the single active cook. Only one batch bakes at a time.
type Slot struct {
	RecipeID string    `json:"recipe_id"`
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
}

func (s Slot) Active() bool { return s.RecipeID != "" }

// Batch reports a completed cook.
type Batch struct {
	Recipe   *Recipe
	Produced int // floor(yield x baking multiplier)
	Stored   int // amount that fit in the inventory
}

// Kitchen is the cooking state machine.
type Kitchen struct {
	ledger  *economy.Ledger
	pantry  *pantry.Pantry
	store   *inventory.Inventory
	oven    OvenBonus
	recipes map[string]*Recipe
	order   []string
	slot    Slot

	// timeFactor scales cook times; halved once by the golden spatula.
	timeFactor float64
}

func defaultRecipes() []*Recipe {
	return []*Recipe{
		{
			ID: "plain_cookie", Name: "Plain Cookie",
			Description: "The basic cookie. Simple taste.",
			Ingredients: map[string]int{"flour": 1, "sugar": 1, "butter": 1},
			BaseValue:   3, Yield: 3, CookTime: 5 * time.Second, Unlocked: true,
		},
		{
			ID: "chocolate_chip", Name: "Chocolate Chip Cookie",
			Description: "The classic, full of chocolate flavor.",
			Ingredients: map[string]int{"flour": 2, "sugar": 1, "butter": 1, "chocolate": 2},
			BaseValue:   8, Yield: 4, CookTime: 8 * time.Second, UnlockAt: 50,
		},
		{
			ID: "almond_cookie", Name: "Almond Cookie",
			Description: "Fragrant with toasted almonds.",
			Ingredients: map[string]int{"flour": 2, "sugar": 2, "butter": 1, "almond": 3},
			BaseValue:   15, Yield: 5, CookTime: 10 * time.Second, UnlockAt: 200,
		},
		{
			ID: "coconut_cookie", Name: "Coconut Cookie",
			Description: "An exotic cookie with tropical aroma.",
			Ingredients: map[string]int{"flour": 2, "sugar": 2, "butter": 1, "coconut": 3},
			BaseValue:   20, Yield: 6, CookTime: 12 * time.Second, UnlockAt: 500,
		},
		{
			ID: "matcha_cookie", Name: "Matcha Cookie",
			Description: "Japanese-style cookie with refined bitterness.",
			Ingredients: map[string]int{"flour": 2, "sugar": 1, "butter": 1, "matcha": 2},
			BaseValue:   25, Yield: 5, CookTime: 15 * time.Second, UnlockAt: 1000,
			Special: &SpecialEffect{Kind: economy.EffectProduction, Multiplier: 1.1, Duration: 60 * time.Second},
		},
		{
			ID: "strawberry_cookie", Name: "Strawberry Cookie",
			Description: "Sweet and tart strawberry flavor.",
			Ingredients: map[string]int{"flour": 2, "sugar": 3, "butter": 1, "strawberry": 3},
			BaseValue:   30, Yield: 7, CookTime: 18 * time.Second, UnlockAt: 2000,
			Special: &SpecialEffect{Kind: economy.EffectClick, Multiplier: 1.2, Duration: 90 * time.Second},
		},
		{
			ID: "double_chocolate", Name: "Double Chocolate Cookie",
			Description: "A decadent treat for chocolate lovers.",
			Ingredients: map[string]int{"flour": 1, "sugar": 2, "butter": 1, "chocolate": 4},
			BaseValue:   35, Yield: 6, CookTime: 20 * time.Second, UnlockAt: 3000,
			Special: &SpecialEffect{Kind: economy.EffectCPS, Multiplier: 1.15, Duration: 120 * time.Second},
		},
		{
			ID: "royal_cookie", Name: "Royal Cookie",
			Description: "The ultimate cookie, using every ingredient.",
			Ingredients: map[string]int{
				"flour": 3, "sugar": 3, "butter": 2, "chocolate": 2,
				"almond": 2, "coconut": 2, "matcha": 1, "strawberry": 1,
			},
			BaseValue: 100, Yield: 10, CookTime: 30 * time.Second, UnlockAt: 10000,
			Special: &SpecialEffect{Kind: economy.EffectAll, Multiplier: 1.5, Duration: 300 * time.Second},
		},
	}
}

func New(ledger *economy.Ledger, p *pantry.Pantry, store *inventory.Inventory, oven OvenBonus) *Kitchen {
	k := &Kitchen{
		ledger:     ledger,
		pantry:     p,
		store:      store,
		oven:       oven,
		recipes:    make(map[string]*Recipe),
		timeFactor: 1,
	}
	for _, r := range defaultRecipes() {
		k.recipes[r.ID] = r
		k.order = append(k.order, r.ID)
	}
	return k
}

// Recipe returns the recipe with the given id, or nil.
func (k *Kitchen) Recipe(id string) *Recipe { return k.recipes[id] }

// Recipes returns the catalog in definition order.
func (k *Kitchen) Recipes() []*Recipe {
	out := make([]*Recipe, 0, len(k.order))
	for _, id := range k.order {
		out = append(out, k.recipes[id])
	}
	return out
}

// Unlocked returns the unlocked recipes in definition order.
func (k *Kitchen) Unlocked() []*Recipe {
	var out []*Recipe
	for _, id := range k.order {
		if r := k.recipes[id]; r.Unlocked {
			out = append(out, r)
		}
	}
	return out
}

// Slot returns the current cooking slot.
func (k *Kitchen) Slot() Slot { return k.slot }

// StartCook begins baking a recipe, deducting its ingredients atomically.
func (k *Kitchen) StartCook(id string, now time.Time) error {
	r, ok := k.recipes[id]
	if !ok {
		return fmt.Errorf("recipe %q: %w", id, economy.ErrNotFound)
	}
	if !r.Unlocked {
		return fmt.Errorf("recipe %q: %w", id, economy.ErrLocked)
	}
	if k.slot.Active() {
		return fmt.Errorf("start %s: %w", id, economy.ErrAlreadyCooking)
	}
	if err := k.pantry.Consume(r.Ingredients); err != nil {
		return fmt.Errorf("start %s: %w", id, err)
	}
	dur := scaledCookTime(r.CookTime, k.timeFactor)
	k.slot = Slot{RecipeID: id, StartAt: now, EndAt: now.Add(dur)}
	return nil
}

// scaledCookTime applies factor and rounds up to whole seconds.
func scaledCookTime(base time.Duration, factor float64) time.Duration {
	secs := math.Ceil(base.Seconds() * factor)
	return time.Duration(secs) * time.Second
}

// Progress reports cook completion in [0,1], or 0 when idle.
func (k *Kitchen) Progress(now time.Time) float64 {
	if !k.slot.Active() {
		return 0
	}
	total := k.slot.EndAt.Sub(k.slot.StartAt)
	if total <= 0 {
		return 1
	}
	p := float64(now.Sub(k.slot.StartAt)) / float64(total)
	return math.Min(math.Max(p, 0), 1)
}

// Advance completes the active cook once its end time has passed. The
// finished batch is stored (overflow beyond capacity is lost) and any
// special effect is applied to the ledger with an absolute expiry.
func (k *Kitchen) Advance(now time.Time) *Batch {
	if !k.slot.Active() || now.Before(k.slot.EndAt) {
		return nil
	}
	r := k.recipes[k.slot.RecipeID]
	produced := int(math.Floor(float64(r.Yield) * k.oven.BakingMultiplier()))
	stored := k.store.AddUpTo(r.ID, produced)
	if r.Special != nil {
		k.ledger.AddEffect(r.Name, r.Special.Kind, r.Special.Multiplier, r.Special.Duration, now)
	}
	k.slot = Slot{}
	return &Batch{Recipe: r, Produced: produced, Stored: stored}
}

// CheckUnlocks flips recipes whose cumulative-earnings threshold has been
// reached. Each unlock fires exactly once.
func (k *Kitchen) CheckUnlocks() []*Recipe {
	var unlocked []*Recipe
	for _, id := range k.order {
		r := k.recipes[id]
		if !r.Unlocked && r.UnlockAt > 0 && k.ledger.TotalEarned >= r.UnlockAt {
			r.Unlocked = true
			unlocked = append(unlocked, r)
		}
	}
	return unlocked
}

// Teased reports whether a locked recipe's hint should show: 30% of the
// unlock threshold reached. Derived, never persisted.
func (k *Kitchen) Teased(id string) bool {
	r, ok := k.recipes[id]
	if !ok || r.Unlocked || r.UnlockAt <= 0 {
		return false
	}
	return k.ledger.TotalEarned >= r.UnlockAt*0.3
}

// UnlockRandom force-unlocks one random locked recipe, returning it or nil
// when everything is already unlocked. The recipe book market item uses it.
func (k *Kitchen) UnlockRandom(rng *entropy.Source) *Recipe {
	var locked []*Recipe
	for _, id := range k.order {
		if r := k.recipes[id]; !r.Unlocked {
			locked = append(locked, r)
		}
	}
	if len(locked) == 0 {
		return nil
	}
	r := entropy.Pick(rng, locked)
	r.Unlocked = true
	return r
}

// HalveCookTimes permanently halves all cook times. Returns false when
// already applied.
func (k *Kitchen) HalveCookTimes() bool {
	if k.timeFactor < 1 {
		return false
	}
	k.timeFactor = 0.5
	return true
}

// Snapshot captures persistable kitchen state.
type Snapshot struct {
	Unlocked   map[string]bool `json:"unlocked"`
	Slot       Slot            `json:"slot"`
	TimeFactor float64         `json:"time_factor"`
}

func (k *Kitchen) Snapshot() Snapshot {
	s := Snapshot{
		Unlocked:   make(map[string]bool, len(k.recipes)),
		Slot:       k.slot,
		TimeFactor: k.timeFactor,
	}
	for id, r := range k.recipes {
		s.Unlocked[id] = r.Unlocked
	}
	return s
}

func (k *Kitchen) Restore(s Snapshot) {
	for id, r := range k.recipes {
		if u, ok := s.Unlocked[id]; ok {
			r.Unlocked = r.Unlocked || u
		}
	}
	if _, ok := k.recipes[s.Slot.RecipeID]; ok || s.Slot.RecipeID == "" {
		k.slot = s.Slot
	}
	if s.TimeFactor > 0 && s.TimeFactor <= 1 {
		k.timeFactor = s.TimeFactor
	}
}
