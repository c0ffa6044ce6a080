package learning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lingopal-app/lingopal/internal/eligibility"
	"github.com/lingopal-app/lingopal/internal/history"
	"github.com/lingopal-app/lingopal/internal/metrics"
)

// recentRecordLimit bounds how much history feeds one generation pass.
const recentRecordLimit = 100

// HistoryCounter is the slice of the history service the gates need.
type HistoryCounter interface {
	Count(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (int, error)
	Recent(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string, limit int) ([]history.Record, error)
}

// Watermarks exposes the coin-award watermark for the eligibility snapshot.
type Watermarks interface {
	LastAwardedCount(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*int, error)
}

// Service enforces the regeneration gates and owns quiz attempts. Every
// decision re-derives counts from the store; client-supplied counts are
// never consulted.
type Service struct {
	repo       Repository
	hist       HistoryCounter
	watermarks Watermarks
	gen        Generator
}

func NewService(repo Repository, hist HistoryCounter, watermarks Watermarks, gen Generator) *Service {
	return &Service{repo: repo, hist: hist, watermarks: watermarks, gen: gen}
}

func (s *Service) GetSheet(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*LearningSheet, error) {
	return s.repo.GetSheet(ctx, userID, primaryLang, targetLang)
}

func (s *Service) GetWordBank(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*WordBank, error) {
	return s.repo.GetWordBank(ctx, userID, primaryLang, targetLang)
}

func (s *Service) GetQuiz(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*Quiz, error) {
	return s.repo.GetQuiz(ctx, userID, primaryLang, targetLang)
}

// Eligibility builds the advisory snapshot for the client's button state.
func (s *Service) Eligibility(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*EligibilitySnapshot, error) {
	count, err := s.hist.Count(ctx, userID, primaryLang, targetLang)
	if err != nil {
		return nil, err
	}

	snap := &EligibilitySnapshot{HistoryCount: count}

	sheet, err := s.repo.GetSheet(ctx, userID, primaryLang, targetLang)
	if err != nil {
		return nil, err
	}
	savedSheet := 0
	if sheet != nil {
		savedSheet = sheet.HistoryCountAtGenerate
		snap.SheetCount = &sheet.HistoryCountAtGenerate
	}
	snap.CanRegenerateSheet = eligibility.CanRegenerateLearningSheet(count, savedSheet)

	bank, err := s.repo.GetWordBank(ctx, userID, primaryLang, targetLang)
	if err != nil {
		return nil, err
	}
	savedBank := 0
	if bank != nil {
		savedBank = bank.HistoryCountAtGenerate
		snap.WordBankCount = &bank.HistoryCountAtGenerate
	}
	snap.CanRegenerateWordBank = eligibility.CanRegenerateWordBank(count, savedBank)

	if sheet != nil {
		quiz, err := s.repo.GetQuiz(ctx, userID, primaryLang, targetLang)
		if err != nil {
			return nil, err
		}
		var quizCount *int
		if quiz != nil {
			quizCount = &quiz.HistoryCountAtGenerate
			snap.QuizCount = quizCount
		}
		snap.CanRegenerateQuiz = eligibility.CanRegenerateQuiz(sheet.HistoryCountAtGenerate, quizCount)
	}

	if s.watermarks != nil {
		last, err := s.watermarks.LastAwardedCount(ctx, userID, primaryLang, targetLang)
		if err != nil {
			return nil, err
		}
		snap.LastAwardedCount = last
	}

	return snap, nil
}

// RegenerateSheet rebuilds the learning sheet if the history has grown
// enough. Denials are normal results, not errors.
func (s *Service) RegenerateSheet(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*RegenerateResult, *LearningSheet, error) {
	count, err := s.hist.Count(ctx, userID, primaryLang, targetLang)
	if err != nil {
		return nil, nil, err
	}

	existing, err := s.repo.GetSheet(ctx, userID, primaryLang, targetLang)
	if err != nil {
		return nil, nil, err
	}
	saved := 0
	if existing != nil {
		saved = existing.HistoryCountAtGenerate
	}

	if !eligibility.CanRegenerateLearningSheet(count, saved) {
		result := &RegenerateResult{Regenerated: false, Reason: denialReason(count, saved)}
		metrics.RegenerationsTotal.WithLabelValues("sheet", result.Reason).Inc()
		return result, nil, nil
	}

	records, err := s.hist.Recent(ctx, userID, primaryLang, targetLang, recentRecordLimit)
	if err != nil {
		return nil, nil, err
	}

	sheet := &LearningSheet{
		UserID:                 userID,
		PrimaryLang:            primaryLang,
		TargetLang:             targetLang,
		Sections:               s.gen.BuildSheet(records),
		HistoryCountAtGenerate: count,
		UpdatedAt:              time.Now(),
	}
	if err := s.repo.UpsertSheet(ctx, sheet); err != nil {
		return nil, nil, err
	}

	metrics.RegenerationsTotal.WithLabelValues("sheet", "regenerated").Inc()
	return &RegenerateResult{Regenerated: true}, sheet, nil
}

// RegenerateWordBank rebuilds the vocabulary bank. The first generation is
// subject to the same growth threshold as later ones.
func (s *Service) RegenerateWordBank(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*RegenerateResult, *WordBank, error) {
	count, err := s.hist.Count(ctx, userID, primaryLang, targetLang)
	if err != nil {
		return nil, nil, err
	}

	existing, err := s.repo.GetWordBank(ctx, userID, primaryLang, targetLang)
	if err != nil {
		return nil, nil, err
	}
	saved := 0
	if existing != nil {
		saved = existing.HistoryCountAtGenerate
	}

	if !eligibility.CanRegenerateWordBank(count, saved) {
		result := &RegenerateResult{Regenerated: false, Reason: denialReason(count, saved)}
		metrics.RegenerationsTotal.WithLabelValues("word_bank", result.Reason).Inc()
		return result, nil, nil
	}

	records, err := s.hist.Recent(ctx, userID, primaryLang, targetLang, recentRecordLimit)
	if err != nil {
		return nil, nil, err
	}

	bank := &WordBank{
		UserID:                 userID,
		PrimaryLang:            primaryLang,
		TargetLang:             targetLang,
		Entries:                s.gen.BuildWordBank(records),
		HistoryCountAtGenerate: count,
		UpdatedAt:              time.Now(),
	}
	if err := s.repo.UpsertWordBank(ctx, bank); err != nil {
		return nil, nil, err
	}

	metrics.RegenerationsTotal.WithLabelValues("word_bank", "regenerated").Inc()
	return &RegenerateResult{Regenerated: true}, bank, nil
}

// RegenerateQuiz creates the quiz for the current sheet version. A quiz
// version is locked until the sheet moves to a different stamp; the first
// quiz for a pair is always allowed.
func (s *Service) RegenerateQuiz(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (*RegenerateResult, *Quiz, error) {
	sheet, err := s.repo.GetSheet(ctx, userID, primaryLang, targetLang)
	if err != nil {
		return nil, nil, err
	}
	if sheet == nil {
		metrics.RegenerationsTotal.WithLabelValues("quiz", ReasonNoSheet).Inc()
		return &RegenerateResult{Regenerated: false, Reason: ReasonNoSheet}, nil, nil
	}

	existing, err := s.repo.GetQuiz(ctx, userID, primaryLang, targetLang)
	if err != nil {
		return nil, nil, err
	}
	var quizCount *int
	if existing != nil {
		quizCount = &existing.HistoryCountAtGenerate
	}

	if !eligibility.CanRegenerateQuiz(sheet.HistoryCountAtGenerate, quizCount) {
		metrics.RegenerationsTotal.WithLabelValues("quiz", ReasonSheetNotRegenerated).Inc()
		return &RegenerateResult{Regenerated: false, Reason: ReasonSheetNotRegenerated}, nil, nil
	}

	records, err := s.hist.Recent(ctx, userID, primaryLang, targetLang, recentRecordLimit)
	if err != nil {
		return nil, nil, err
	}

	quiz := &Quiz{
		UserID:      userID,
		PrimaryLang: primaryLang,
		TargetLang:  targetLang,
		Questions:   s.gen.BuildQuiz(records, sheet.Sections),
		// The quiz inherits the sheet's stamp, forming the awardable
		// version pair.
		HistoryCountAtGenerate: sheet.HistoryCountAtGenerate,
		UpdatedAt:              time.Now(),
	}
	if err := s.repo.UpsertQuiz(ctx, quiz); err != nil {
		return nil, nil, err
	}

	metrics.RegenerationsTotal.WithLabelValues("quiz", "regenerated").Inc()
	return &RegenerateResult{Regenerated: true}, quiz, nil
}

// SubmitAttempt grades a finished quiz run against the stored questions and
// appends an immutable attempt row.
func (s *Service) SubmitAttempt(ctx context.Context, userID uuid.UUID, req *SubmitAttemptRequest) (*Attempt, error) {
	quiz, err := s.repo.GetQuiz(ctx, userID, req.PrimaryLang, req.TargetLang)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrNoQuiz
	}
	if len(req.Answers) != len(quiz.Questions) {
		return nil, fmt.Errorf("%w: expected %d answers, got %d", ErrAnswerCount, len(quiz.Questions), len(req.Answers))
	}

	score := 0
	for i, q := range quiz.Questions {
		if req.Answers[i] == q.AnswerIndex {
			score++
		}
	}

	attempt := &Attempt{
		ID:               uuid.New(),
		UserID:           userID,
		PrimaryLang:      req.PrimaryLang,
		TargetLang:       req.TargetLang,
		Questions:        quiz.Questions,
		Answers:          req.Answers,
		TotalScore:       score,
		MaxScore:         len(quiz.Questions),
		QuizHistoryCount: quiz.HistoryCountAtGenerate,
		CompletedAt:      time.Now(),
	}
	if err := s.repo.CreateAttempt(ctx, attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

func denialReason(current, saved int) string {
	if current < saved {
		return ReasonHistoryCountRegressed
	}
	return ReasonInsufficientRecords
}
