// Package events publishes domain events to NATS JetStream. Publishing is
// best effort: event emission never fails the request that triggered it.
package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	// StreamName is the JetStream stream all app events land on.
	StreamName = "LINGOPAL_EVENTS"

	// SubjectCoinsAwarded carries one event per successful coin award.
	SubjectCoinsAwarded = "lingopal.events.coins.awarded"
)

// CoinAwardedEvent is emitted after an award transaction commits.
type CoinAwardedEvent struct {
	UserID       uuid.UUID `json:"user_id"`
	PrimaryLang  string    `json:"primary_lang"`
	TargetLang   string    `json:"target_lang"`
	VersionKey   string    `json:"version_key"`
	CoinsAwarded int       `json:"coins_awarded"`
	NewTotal     int       `json:"new_total"`
	AwardedAt    time.Time `json:"awarded_at"`
}
