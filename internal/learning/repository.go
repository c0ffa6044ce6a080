package learning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence for sheets, word banks, quizzes and
// attempts. Get methods return (nil, nil) when the document does not exist.
type Repository interface {
	GetSheet(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*LearningSheet, error)
	UpsertSheet(ctx context.Context, sheet *LearningSheet) error

	GetWordBank(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*WordBank, error)
	UpsertWordBank(ctx context.Context, bank *WordBank) error

	GetQuiz(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*Quiz, error)
	UpsertQuiz(ctx context.Context, quiz *Quiz) error

	CreateAttempt(ctx context.Context, attempt *Attempt) error
	GetAttempt(ctx context.Context, id, userID uuid.UUID) (*Attempt, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) GetSheet(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*LearningSheet, error) {
	sheet := &LearningSheet{}
	var sections []byte
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, primary_lang, target_lang, content, history_count_at_generate, updated_at
		 FROM learning_sheets
		 WHERE user_id = $1 AND primary_lang = $2 AND target_lang = $3`,
		userID, primaryLang, targetLang,
	).Scan(&sheet.UserID, &sheet.PrimaryLang, &sheet.TargetLang, &sections, &sheet.HistoryCountAtGenerate, &sheet.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying learning sheet: %w", err)
	}
	if err := json.Unmarshal(sections, &sheet.Sections); err != nil {
		return nil, fmt.Errorf("decoding sheet content: %w", err)
	}
	return sheet, nil
}

func (r *postgresRepository) UpsertSheet(ctx context.Context, sheet *LearningSheet) error {
	sections, err := json.Marshal(sheet.Sections)
	if err != nil {
		return fmt.Errorf("encoding sheet content: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO learning_sheets (user_id, primary_lang, target_lang, content, history_count_at_generate, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (user_id, primary_lang, target_lang) DO UPDATE
		 SET content = EXCLUDED.content,
		     history_count_at_generate = EXCLUDED.history_count_at_generate,
		     updated_at = NOW()`,
		sheet.UserID, sheet.PrimaryLang, sheet.TargetLang, sections, sheet.HistoryCountAtGenerate,
	)
	if err != nil {
		return fmt.Errorf("upserting learning sheet: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetWordBank(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*WordBank, error) {
	bank := &WordBank{}
	var entries []byte
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, primary_lang, target_lang, entries, history_count_at_generate, updated_at
		 FROM word_banks
		 WHERE user_id = $1 AND primary_lang = $2 AND target_lang = $3`,
		userID, primaryLang, targetLang,
	).Scan(&bank.UserID, &bank.PrimaryLang, &bank.TargetLang, &entries, &bank.HistoryCountAtGenerate, &bank.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying word bank: %w", err)
	}
	if err := json.Unmarshal(entries, &bank.Entries); err != nil {
		return nil, fmt.Errorf("decoding word bank entries: %w", err)
	}
	return bank, nil
}

func (r *postgresRepository) UpsertWordBank(ctx context.Context, bank *WordBank) error {
	entries, err := json.Marshal(bank.Entries)
	if err != nil {
		return fmt.Errorf("encoding word bank entries: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO word_banks (user_id, primary_lang, target_lang, entries, history_count_at_generate, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (user_id, primary_lang, target_lang) DO UPDATE
		 SET entries = EXCLUDED.entries,
		     history_count_at_generate = EXCLUDED.history_count_at_generate,
		     updated_at = NOW()`,
		bank.UserID, bank.PrimaryLang, bank.TargetLang, entries, bank.HistoryCountAtGenerate,
	)
	if err != nil {
		return fmt.Errorf("upserting word bank: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetQuiz(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*Quiz, error) {
	quiz := &Quiz{}
	var questions []byte
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, primary_lang, target_lang, questions, history_count_at_generate, updated_at
		 FROM quizzes
		 WHERE user_id = $1 AND primary_lang = $2 AND target_lang = $3`,
		userID, primaryLang, targetLang,
	).Scan(&quiz.UserID, &quiz.PrimaryLang, &quiz.TargetLang, &questions, &quiz.HistoryCountAtGenerate, &quiz.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying quiz: %w", err)
	}
	if err := json.Unmarshal(questions, &quiz.Questions); err != nil {
		return nil, fmt.Errorf("decoding quiz questions: %w", err)
	}
	return quiz, nil
}

func (r *postgresRepository) UpsertQuiz(ctx context.Context, quiz *Quiz) error {
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("encoding quiz questions: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO quizzes (user_id, primary_lang, target_lang, questions, history_count_at_generate, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (user_id, primary_lang, target_lang) DO UPDATE
		 SET questions = EXCLUDED.questions,
		     history_count_at_generate = EXCLUDED.history_count_at_generate,
		     updated_at = NOW()`,
		quiz.UserID, quiz.PrimaryLang, quiz.TargetLang, questions, quiz.HistoryCountAtGenerate,
	)
	if err != nil {
		return fmt.Errorf("upserting quiz: %w", err)
	}
	return nil
}

func (r *postgresRepository) CreateAttempt(ctx context.Context, attempt *Attempt) error {
	questions, err := json.Marshal(attempt.Questions)
	if err != nil {
		return fmt.Errorf("encoding attempt questions: %w", err)
	}
	answers, err := json.Marshal(attempt.Answers)
	if err != nil {
		return fmt.Errorf("encoding attempt answers: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO quiz_attempts
		   (id, user_id, primary_lang, target_lang, questions, answers, total_score, max_score, quiz_history_count, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		attempt.ID, attempt.UserID, attempt.PrimaryLang, attempt.TargetLang,
		questions, answers, attempt.TotalScore, attempt.MaxScore, attempt.QuizHistoryCount, attempt.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting quiz attempt: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetAttempt(ctx context.Context, id, userID uuid.UUID) (*Attempt, error) {
	attempt := &Attempt{}
	var questions, answers []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, primary_lang, target_lang, questions, answers, total_score, max_score, quiz_history_count, completed_at
		 FROM quiz_attempts
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&attempt.ID, &attempt.UserID, &attempt.PrimaryLang, &attempt.TargetLang,
		&questions, &answers, &attempt.TotalScore, &attempt.MaxScore, &attempt.QuizHistoryCount, &attempt.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying quiz attempt: %w", err)
	}
	if err := json.Unmarshal(questions, &attempt.Questions); err != nil {
		return nil, fmt.Errorf("decoding attempt questions: %w", err)
	}
	if err := json.Unmarshal(answers, &attempt.Answers); err != nil {
		return nil, fmt.Errorf("decoding attempt answers: %w", err)
	}
	return attempt, nil
}
