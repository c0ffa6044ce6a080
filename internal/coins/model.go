package coins

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CoinAward is one row of the award ledger. At most one row per
// (user, version key) ever exists, enforced by the primary key; that is what
// makes the award idempotent.
type CoinAward struct {
	UserID       uuid.UUID `json:"user_id"`
	VersionKey   string    `json:"version_key"`
	AttemptID    uuid.UUID `json:"attempt_id"`
	CoinsAwarded int       `json:"coins_awarded"`
	AwardedAt    time.Time `json:"awarded_at"`
}

// UserCoinStats is the running balance for one user, with a per-target-language
// breakdown.
type UserCoinStats struct {
	UserID      uuid.UUID      `json:"user_id"`
	CoinTotal   int            `json:"coin_total"`
	CoinsByLang map[string]int `json:"coins_by_lang"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// AwardRequest is the client's claim for a completed quiz. The server trusts
// only HistoryCountAtGenerate, and only after cross-checking it against the
// stored sheet stamp.
type AwardRequest struct {
	AttemptID              uuid.UUID `json:"attempt_id" validate:"required"`
	PrimaryLang            string    `json:"primary_lang" validate:"required,min=2,max=8"`
	TargetLang             string    `json:"target_lang" validate:"required,min=2,max=8"`
	HistoryCountAtGenerate int       `json:"history_count_at_generate" validate:"gt=0"`
	TotalScore             int       `json:"total_score" validate:"min=0"`
}

// AwardResult is the outcome of an award request. A denial is a normal
// response carrying a machine-readable reason, never an error status.
type AwardResult struct {
	Awarded      bool   `json:"awarded"`
	Reason       string `json:"reason,omitempty"`
	CoinsAwarded int    `json:"coins_awarded,omitempty"`
	NewTotal     int    `json:"new_total,omitempty"`

	// Needed is set with reason insufficient_records: how many more
	// history records must accumulate before this pair is awardable.
	Needed int `json:"needed,omitempty"`
}

// Denial reasons. These travel to the client verbatim and drive its
// "not eligible yet" messaging.
const (
	ReasonAlreadyAwarded      = "already_awarded"
	ReasonNoSheet             = "no_sheet"
	ReasonInvalidSheet        = "invalid_sheet"
	ReasonVersionMismatch     = "version_mismatch"
	ReasonInsufficientRecords = "insufficient_records"
	ReasonZeroScore           = "zero_score"
)

// VersionKey identifies one awardable quiz version of a language pair.
func VersionKey(primaryLang, targetLang string, historyCount int) string {
	return fmt.Sprintf("%s__%s__%d", primaryLang, targetLang, historyCount)
}

// PairKey identifies a language pair for the award watermark.
func PairKey(primaryLang, targetLang string) string {
	return primaryLang + "__" + targetLang
}
