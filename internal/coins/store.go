package coins

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrDuplicateAward is returned by Tx.PutAward when the ledger already holds a
// row for the version key. It surfaces when two transactions race past the
// initial read; the loser maps it to an already_awarded result.
var ErrDuplicateAward = errors.New("award already exists for version key")

// Tx is the view of the store inside one award transaction. All reads and
// writes through a Tx happen under a single atomic transaction; either every
// write commits or none does.
type Tx interface {
	// GetAward returns the ledger row for the version key, or (nil, nil).
	GetAward(ctx context.Context, userID uuid.UUID, versionKey string) (*CoinAward, error)

	// SheetStamp returns the stored learning sheet's history count for the
	// pair, or (nil, nil) when no sheet exists.
	SheetStamp(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*int, error)

	// LastAwarded returns the watermark for the pair, or (nil, nil) when
	// the pair has never been awarded.
	LastAwarded(ctx context.Context, userID uuid.UUID, pairKey string) (*int, error)

	// PutAward appends a ledger row. Returns ErrDuplicateAward if a row for
	// the version key already exists.
	PutAward(ctx context.Context, award *CoinAward) error

	// SetLastAwarded moves the pair's watermark.
	SetLastAwarded(ctx context.Context, userID uuid.UUID, pairKey string, count int) error

	// AddCoins credits the user's balance and the per-language bucket,
	// returning the new total.
	AddCoins(ctx context.Context, userID uuid.UUID, lang string, amount int) (int, error)
}

// Store persists coin state. RunAward executes fn inside one atomic
// transaction, retrying on transient contention; if fn returns an error the
// transaction rolls back.
type Store interface {
	RunAward(ctx context.Context, fn func(tx Tx) error) error

	// Stats returns the user's balance, zero-valued when the user has never
	// been awarded.
	Stats(ctx context.Context, userID uuid.UUID) (*UserCoinStats, error)

	// LastAwardedCount reads the pair watermark outside a transaction, for
	// advisory eligibility snapshots.
	LastAwardedCount(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*int, error)
}
