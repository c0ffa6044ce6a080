package coins

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lingopal-app/lingopal/internal/eligibility"
	"github.com/lingopal-app/lingopal/internal/events"
	"github.com/lingopal-app/lingopal/internal/metrics"
)

// Service owns the coin award transaction. It trusts nothing from the client
// beyond the quiz-generation stamp, which it cross-checks against the stored
// sheet inside the transaction.
type Service struct {
	store     Store
	publisher *events.Publisher
}

func NewService(store Store, publisher *events.Publisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// Award decides atomically whether a completed quiz attempt pays out, and if
// so credits the balance, appends the ledger row, and moves the watermark in
// one transaction. Denials are normal results; an error means the store
// itself failed and the caller may retry safely.
func (s *Service) Award(ctx context.Context, userID uuid.UUID, req *AwardRequest) (*AwardResult, error) {
	// A zero score touches no shared state, so it never enters the
	// transaction.
	if req.TotalScore == 0 {
		return s.deny(&AwardResult{Awarded: false, Reason: ReasonZeroScore}), nil
	}

	versionKey := VersionKey(req.PrimaryLang, req.TargetLang, req.HistoryCountAtGenerate)
	pairKey := PairKey(req.PrimaryLang, req.TargetLang)

	var result *AwardResult
	err := s.store.RunAward(ctx, func(tx Tx) error {
		existing, err := tx.GetAward(ctx, userID, versionKey)
		if err != nil {
			return err
		}
		if existing != nil {
			result = &AwardResult{Awarded: false, Reason: ReasonAlreadyAwarded}
			return nil
		}

		stamp, err := tx.SheetStamp(ctx, userID, req.PrimaryLang, req.TargetLang)
		if err != nil {
			return err
		}
		if stamp == nil {
			result = &AwardResult{Awarded: false, Reason: ReasonNoSheet}
			return nil
		}
		if *stamp <= 0 {
			result = &AwardResult{Awarded: false, Reason: ReasonInvalidSheet}
			return nil
		}
		if req.HistoryCountAtGenerate != *stamp {
			result = &AwardResult{Awarded: false, Reason: ReasonVersionMismatch}
			return nil
		}

		last, err := tx.LastAwarded(ctx, userID, pairKey)
		if err != nil {
			return err
		}
		if last != nil && req.HistoryCountAtGenerate < *last+eligibility.MinIncrementForCoins {
			result = &AwardResult{
				Awarded: false,
				Reason:  ReasonInsufficientRecords,
				Needed:  *last + eligibility.MinIncrementForCoins - req.HistoryCountAtGenerate,
			}
			return nil
		}

		newTotal, err := tx.AddCoins(ctx, userID, req.TargetLang, req.TotalScore)
		if err != nil {
			return err
		}
		if err := tx.PutAward(ctx, &CoinAward{
			UserID:       userID,
			VersionKey:   versionKey,
			AttemptID:    req.AttemptID,
			CoinsAwarded: req.TotalScore,
			AwardedAt:    time.Now(),
		}); err != nil {
			return err
		}
		if err := tx.SetLastAwarded(ctx, userID, pairKey, req.HistoryCountAtGenerate); err != nil {
			return err
		}

		result = &AwardResult{Awarded: true, CoinsAwarded: req.TotalScore, NewTotal: newTotal}
		return nil
	})
	if err != nil {
		// The unique ledger key backstops the transaction: a race that
		// slips past the read surfaces here, not as a double payout.
		if errors.Is(err, ErrDuplicateAward) {
			return s.deny(&AwardResult{Awarded: false, Reason: ReasonAlreadyAwarded}), nil
		}
		return nil, fmt.Errorf("running award transaction: %w", err)
	}

	if !result.Awarded {
		return s.deny(result), nil
	}

	metrics.CoinAwardsTotal.WithLabelValues("awarded").Inc()
	metrics.CoinsAwardedTotal.Add(float64(result.CoinsAwarded))

	if err := s.publisher.PublishCoinsAwarded(ctx, events.CoinAwardedEvent{
		UserID:       userID,
		PrimaryLang:  req.PrimaryLang,
		TargetLang:   req.TargetLang,
		VersionKey:   versionKey,
		CoinsAwarded: result.CoinsAwarded,
		NewTotal:     result.NewTotal,
		AwardedAt:    time.Now(),
	}); err != nil {
		slog.Error("publishing coins awarded event", "error", err, "version_key", versionKey)
	}

	return result, nil
}

func (s *Service) deny(result *AwardResult) *AwardResult {
	metrics.CoinAwardsTotal.WithLabelValues(result.Reason).Inc()
	return result
}

// Stats returns the user's coin balance, zero-valued for users that have
// never been awarded.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (*UserCoinStats, error) {
	return s.store.Stats(ctx, userID)
}

// LastAwardedCount exposes the pair watermark for advisory eligibility
// snapshots.
func (s *Service) LastAwardedCount(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*int, error) {
	return s.store.LastAwardedCount(ctx, userID, primaryLang, targetLang)
}
