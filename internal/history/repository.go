package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines translation-history persistence operations.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	CountByPair(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (int, error)
	ListRecent(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string, limit int) ([]Record, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO translation_history (id, user_id, primary_lang, target_lang, source_text, translated_text)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.UserID, rec.PrimaryLang, rec.TargetLang, rec.SourceText, rec.TranslatedText,
	)
	if err != nil {
		return fmt.Errorf("inserting history record: %w", err)
	}
	return nil
}

func (r *postgresRepository) CountByPair(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM translation_history
		 WHERE user_id = $1 AND primary_lang = $2 AND target_lang = $3`,
		userID, primaryLang, targetLang,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting history records: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) ListRecent(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string, limit int) ([]Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, primary_lang, target_lang, source_text, translated_text, created_at
		 FROM translation_history
		 WHERE user_id = $1 AND primary_lang = $2 AND target_lang = $3
		 ORDER BY created_at DESC
		 LIMIT $4`,
		userID, primaryLang, targetLang, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing history records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.PrimaryLang, &rec.TargetLang,
			&rec.SourceText, &rec.TranslatedText, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
