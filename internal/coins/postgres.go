package coins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgSerializationFailure = "40001"
	pgUniqueViolation      = "23505"

	// maxAwardRetries bounds the retry loop on serialization conflicts.
	maxAwardRetries = 3
)

type postgresStore struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

// RunAward executes fn inside a serializable transaction. Serializable
// isolation is what makes two concurrent calls for the same version key
// impossible to both commit: the loser fails with SQLSTATE 40001 and is
// retried, on which pass it observes the winner's ledger row.
func (s *postgresStore) RunAward(ctx context.Context, fn func(tx Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < maxAwardRetries; attempt++ {
		err := s.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgSerializationFailure {
			lastErr = err
			continue
		}
		return err
	}
	return fmt.Errorf("award transaction did not settle after %d attempts: %w", maxAwardRetries, lastErr)
}

func (s *postgresStore) runOnce(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("beginning award transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&postgresTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing award transaction: %w", err)
	}
	return nil
}

func (s *postgresStore) Stats(ctx context.Context, userID uuid.UUID) (*UserCoinStats, error) {
	stats := &UserCoinStats{UserID: userID, CoinsByLang: map[string]int{}}
	var byLang []byte
	err := s.pool.QueryRow(ctx,
		`SELECT coin_total, coins_by_lang, updated_at
		 FROM user_coin_stats
		 WHERE user_id = $1`,
		userID,
	).Scan(&stats.CoinTotal, &byLang, &stats.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stats, nil
		}
		return nil, fmt.Errorf("querying coin stats: %w", err)
	}
	if err := json.Unmarshal(byLang, &stats.CoinsByLang); err != nil {
		return nil, fmt.Errorf("decoding per-language coins: %w", err)
	}
	return stats, nil
}

func (s *postgresStore) LastAwardedCount(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*int, error) {
	return queryLastAwarded(ctx, s.pool, userID, PairKey(primaryLang, targetLang))
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) GetAward(ctx context.Context, userID uuid.UUID, versionKey string) (*CoinAward, error) {
	award := &CoinAward{}
	err := t.tx.QueryRow(ctx,
		`SELECT user_id, version_key, attempt_id, coins_awarded, awarded_at
		 FROM coin_awards
		 WHERE user_id = $1 AND version_key = $2`,
		userID, versionKey,
	).Scan(&award.UserID, &award.VersionKey, &award.AttemptID, &award.CoinsAwarded, &award.AwardedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying coin award: %w", err)
	}
	return award, nil
}

func (t *postgresTx) SheetStamp(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*int, error) {
	var stamp int
	err := t.tx.QueryRow(ctx,
		`SELECT history_count_at_generate
		 FROM learning_sheets
		 WHERE user_id = $1 AND primary_lang = $2 AND target_lang = $3`,
		userID, primaryLang, targetLang,
	).Scan(&stamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying sheet stamp: %w", err)
	}
	return &stamp, nil
}

func (t *postgresTx) LastAwarded(ctx context.Context, userID uuid.UUID, pairKey string) (*int, error) {
	return queryLastAwarded(ctx, t.tx, userID, pairKey)
}

func (t *postgresTx) PutAward(ctx context.Context, award *CoinAward) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO coin_awards (user_id, version_key, attempt_id, coins_awarded, awarded_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		award.UserID, award.VersionKey, award.AttemptID, award.CoinsAwarded, award.AwardedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateAward
		}
		return fmt.Errorf("inserting coin award: %w", err)
	}
	return nil
}

func (t *postgresTx) SetLastAwarded(ctx context.Context, userID uuid.UUID, pairKey string, count int) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO last_awarded_quiz (user_id, pair_key, history_count, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id, pair_key) DO UPDATE
		 SET history_count = EXCLUDED.history_count,
		     updated_at = NOW()`,
		userID, pairKey, count,
	)
	if err != nil {
		return fmt.Errorf("updating award watermark: %w", err)
	}
	return nil
}

func (t *postgresTx) AddCoins(ctx context.Context, userID uuid.UUID, lang string, amount int) (int, error) {
	var newTotal int
	err := t.tx.QueryRow(ctx,
		`INSERT INTO user_coin_stats (user_id, coin_total, coins_by_lang, updated_at)
		 VALUES ($1, $2, jsonb_build_object($3::text, $2::int), NOW())
		 ON CONFLICT (user_id) DO UPDATE
		 SET coin_total = user_coin_stats.coin_total + EXCLUDED.coin_total,
		     coins_by_lang = user_coin_stats.coins_by_lang ||
		       jsonb_build_object($3::text, COALESCE((user_coin_stats.coins_by_lang->>$3)::int, 0) + $2),
		     updated_at = NOW()
		 RETURNING coin_total`,
		userID, amount, lang,
	).Scan(&newTotal)
	if err != nil {
		return 0, fmt.Errorf("crediting coins: %w", err)
	}
	return newTotal, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func queryLastAwarded(ctx context.Context, q rowQuerier, userID uuid.UUID, pairKey string) (*int, error) {
	var count int
	err := q.QueryRow(ctx,
		`SELECT history_count
		 FROM last_awarded_quiz
		 WHERE user_id = $1 AND pair_key = $2`,
		userID, pairKey,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying award watermark: %w", err)
	}
	return &count, nil
}
