// Package pantry tracks raw ingredient stock: buying, unlocking, and
// consumption by the kitchen and order fulfillment.
package pantry

import (
	"fmt"

	"github.com/talgya/bakerysim/internal/economy"
	"github.com/talgya/bakerysim/internal/entropy"
)

// Ingredient is one raw ingredient line in the pantry.
type Ingredient struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      int     `json:"amount"`
	Unlocked    bool    `json:"unlocked"`
	UnlockPrice float64 `json:"unlock_price,omitempty"`
}

// Pantry holds ingredient stock and mediates purchases against the ledger.
type Pantry struct {
	ledger      *economy.Ledger
	ingredients map[string]*Ingredient
	order       []string
}

func defaultIngredients() []*Ingredient {
	return []*Ingredient{
		{ID: "flour", Name: "Flour", Description: "The cookie staple", UnitPrice: 10, Unlocked: true},
		{ID: "sugar", Name: "Sugar", Description: "Source of sweetness", UnitPrice: 15, Unlocked: true},
		{ID: "butter", Name: "Butter", Description: "Richness and flavor", UnitPrice: 25, Unlocked: true},
		{ID: "chocolate", Name: "Chocolate", Description: "Everyone's favorite chips", UnitPrice: 30, Unlocked: true},
		{ID: "almond", Name: "Almond", Description: "Toasty crunch", UnitPrice: 40, UnlockPrice: 500},
		{ID: "coconut", Name: "Coconut", Description: "Tropical flavor", UnitPrice: 50, UnlockPrice: 1000},
		{ID: "matcha", Name: "Matcha", Description: "Japanese-style taste", UnitPrice: 60, UnlockPrice: 2000},
		{ID: "strawberry", Name: "Strawberry", Description: "Fruity sweetness", UnitPrice: 70, UnlockPrice: 3000},
	}
}

// New returns a pantry seeded with the default ingredient catalog.
func New(ledger *economy.Ledger) *Pantry {
	p := &Pantry{
		ledger:      ledger,
		ingredients: make(map[string]*Ingredient),
	}
	for _, ing := range defaultIngredients() {
		p.ingredients[ing.ID] = ing
		p.order = append(p.order, ing.ID)
	}
	return p
}

// Ingredient returns the ingredient with the given id, or nil.
func (p *Pantry) Ingredient(id string) *Ingredient {
	return p.ingredients[id]
}

// Ingredients returns the catalog in definition order.
func (p *Pantry) Ingredients() []*Ingredient {
	out := make([]*Ingredient, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.ingredients[id])
	}
	return out
}

// Teased reports whether a locked ingredient's hint should be shown:
// half the unlock price has been reached. Derived, never persisted.
func (p *Pantry) Teased(id string) bool {
	ing, ok := p.ingredients[id]
	if !ok || ing.Unlocked || ing.UnlockPrice <= 0 {
		return false
	}
	return p.ledger.Currency >= ing.UnlockPrice*0.5
}

// Buy purchases n units of an unlocked ingredient at its unit price.
func (p *Pantry) Buy(id string, n int) error {
	ing, ok := p.ingredients[id]
	if !ok {
		return fmt.Errorf("ingredient %q: %w", id, economy.ErrNotFound)
	}
	if !ing.Unlocked {
		return fmt.Errorf("ingredient %q: %w", id, economy.ErrLocked)
	}
	if n <= 0 {
		return fmt.Errorf("ingredient %q: buy amount must be positive", id)
	}
	if err := p.ledger.Spend(ing.UnitPrice * float64(n)); err != nil {
		return fmt.Errorf("buy %d %s: %w", n, id, err)
	}
	ing.Amount += n
	return nil
}

// Unlock reveals a locked ingredient by spending its unlock price.
func (p *Pantry) Unlock(id string) error {
	ing, ok := p.ingredients[id]
	if !ok {
		return fmt.Errorf("ingredient %q: %w", id, economy.ErrNotFound)
	}
	if ing.Unlocked {
		return fmt.Errorf("ingredient %q: %w", id, economy.ErrAlreadyPurchased)
	}
	if err := p.ledger.Spend(ing.UnlockPrice); err != nil {
		return fmt.Errorf("unlock %s: %w", id, err)
	}
	ing.Unlocked = true
	return nil
}

// Add credits stock without charging the ledger. Supplier deliveries and
// market item grants use this path.
func (p *Pantry) Add(id string, n int) error {
	ing, ok := p.ingredients[id]
	if !ok {
		return fmt.Errorf("ingredient %q: %w", id, economy.ErrNotFound)
	}
	ing.Amount += n
	return nil
}

// Has reports whether every requirement in cost is covered by current stock.
func (p *Pantry) Has(cost map[string]int) bool {
	for id, need := range cost {
		ing, ok := p.ingredients[id]
		if !ok || ing.Amount < need {
			return false
		}
	}
	return true
}

// Consume deducts the given amounts atomically. Nothing is deducted
// unless every line is covered.
func (p *Pantry) Consume(cost map[string]int) error {
	if !p.Has(cost) {
		return economy.ErrInsufficientIngredients
	}
	for id, need := range cost {
		p.ingredients[id].Amount -= need
	}
	return nil
}

// RandomUnlocked picks a random unlocked ingredient id, or "" when none.
func (p *Pantry) RandomUnlocked(rng *entropy.Source) string {
	var pool []string
	for _, id := range p.order {
		if p.ingredients[id].Unlocked {
			pool = append(pool, id)
		}
	}
	if len(pool) == 0 {
		return ""
	}
	return entropy.Pick(rng, pool)
}

// Snapshot captures persistable pantry state.
type Snapshot struct {
	Amounts  map[string]int  `json:"amounts"`
	Unlocked map[string]bool `json:"unlocked"`
}

func (p *Pantry) Snapshot() Snapshot {
	s := Snapshot{
		Amounts:  make(map[string]int, len(p.ingredients)),
		Unlocked: make(map[string]bool, len(p.ingredients)),
	}
	for id, ing := range p.ingredients {
		s.Amounts[id] = ing.Amount
		s.Unlocked[id] = ing.Unlocked
	}
	return s
}

func (p *Pantry) Restore(s Snapshot) {
	for id, ing := range p.ingredients {
		if n, ok := s.Amounts[id]; ok {
			ing.Amount = n
		}
		if u, ok := s.Unlocked[id]; ok {
			// Unlocks are one-way; never re-lock the starter set.
			ing.Unlocked = ing.Unlocked || u
		}
	}
}
