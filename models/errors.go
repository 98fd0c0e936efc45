package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInsufficientFunds     = errors.New("not enough coins")
	ErrInsufficientInventory = errors.New("not enough items in inventory")
	ErrAlreadyOwned          = errors.New("item already owned")
	ErrLevelLocked           = errors.New("required level not reached")
	ErrOnCooldown            = errors.New("power-up is on cooldown")
	ErrStackLimitExceeded    = errors.New("power-up stack limit reached")
	ErrInstanceNotFound      = errors.New("power-up instance not found")
	ErrInvalidDiscount       = errors.New("discount must be in [0, 1)")
	ErrNotFound              = errors.New("not found")
	ErrAlreadyClaimed        = errors.New("daily reward already claimed today")
	ErrInvalidArgument       = errors.New("invalid argument")

	// ErrTransactionConflict is transient and retried by the store transactor.
	ErrTransactionConflict = errors.New("transaction conflict")
	// ErrStoreUnavailable is returned once conflict retries are exhausted.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// CooldownError carries how long until the power-up can be activated again.
type CooldownError struct {
	PowerUpID string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("power-up %s is on cooldown for %.1fs", e.PowerUpID, e.Remaining.Seconds())
}

func (e *CooldownError) Is(target error) bool { return target == ErrOnCooldown }

// LevelLockedError carries the level gate that was not met.
type LevelLockedError struct {
	ItemID   string
	Required int
	Current  int
}

func (e *LevelLockedError) Error() string {
	return fmt.Sprintf("item %s requires level %d (current %d)", e.ItemID, e.Required, e.Current)
}

func (e *LevelLockedError) Is(target error) bool { return target == ErrLevelLocked }

// AlreadyClaimedError carries when the next daily claim opens.
type AlreadyClaimedError struct {
	NextClaimAt time.Time
}

func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("daily reward already claimed, next claim at %s", e.NextClaimAt.Format(time.RFC3339))
}

func (e *AlreadyClaimedError) Is(target error) bool { return target == ErrAlreadyClaimed }
