package economy

import "errors"

// Command failure taxonomy. All are recoverable and user-facing: a handler
// that returns one of these leaves every component unchanged.
var (
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrInsufficientIngredients = errors.New("insufficient ingredients")
	ErrCapacityExceeded        = errors.New("capacity exceeded")
	ErrAlreadyCooking          = errors.New("cooking already in progress")
	ErrLocked                  = errors.New("content not yet unlocked")
	ErrNotFound                = errors.New("not found")
	ErrLevelTooLow             = errors.New("player level too low")
	ErrAlreadyPurchased        = errors.New("already purchased")
)
