package learning

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingopal-app/lingopal/internal/history"
)

type fakeRepo struct {
	sheet    *LearningSheet
	bank     *WordBank
	quiz     *Quiz
	attempts []*Attempt
}

func (f *fakeRepo) GetSheet(ctx context.Context, userID uuid.UUID, p, t string) (*LearningSheet, error) {
	return f.sheet, nil
}

func (f *fakeRepo) UpsertSheet(ctx context.Context, sheet *LearningSheet) error {
	f.sheet = sheet
	return nil
}

func (f *fakeRepo) GetWordBank(ctx context.Context, userID uuid.UUID, p, t string) (*WordBank, error) {
	return f.bank, nil
}

func (f *fakeRepo) UpsertWordBank(ctx context.Context, bank *WordBank) error {
	f.bank = bank
	return nil
}

func (f *fakeRepo) GetQuiz(ctx context.Context, userID uuid.UUID, p, t string) (*Quiz, error) {
	return f.quiz, nil
}

func (f *fakeRepo) UpsertQuiz(ctx context.Context, quiz *Quiz) error {
	f.quiz = quiz
	return nil
}

func (f *fakeRepo) CreateAttempt(ctx context.Context, attempt *Attempt) error {
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeRepo) GetAttempt(ctx context.Context, id, userID uuid.UUID) (*Attempt, error) {
	for _, a := range f.attempts {
		if a.ID == id && a.UserID == userID {
			return a, nil
		}
	}
	return nil, nil
}

type fakeHistory struct {
	count   int
	records []history.Record
}

func (f *fakeHistory) Count(ctx context.Context, userID uuid.UUID, p, t string) (int, error) {
	return f.count, nil
}

func (f *fakeHistory) Recent(ctx context.Context, userID uuid.UUID, p, t string, limit int) ([]history.Record, error) {
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

type fakeWatermarks struct {
	last *int
}

func (f *fakeWatermarks) LastAwardedCount(ctx context.Context, userID uuid.UUID, p, t string) (*int, error) {
	return f.last, nil
}

func sampleRecords(n int) []history.Record {
	records := make([]history.Record, n)
	for i := range records {
		records[i] = history.Record{
			SourceText:     "hello world",
			TranslatedText: "hola mundo",
		}
	}
	return records
}

func newTestService(repo *fakeRepo, hist *fakeHistory) *Service {
	return NewService(repo, hist, &fakeWatermarks{}, NewLocalGenerator())
}

func intPtr(v int) *int { return &v }

func TestRegenerateSheet(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("first generation needs the minimum history", func(t *testing.T) {
		repo := &fakeRepo{}
		hist := &fakeHistory{count: 4, records: sampleRecords(4)}
		svc := newTestService(repo, hist)

		result, sheet, err := svc.RegenerateSheet(ctx, userID, "en", "es")
		require.NoError(t, err)
		assert.False(t, result.Regenerated)
		assert.Equal(t, ReasonInsufficientRecords, result.Reason)
		assert.Nil(t, sheet)
		assert.Nil(t, repo.sheet)
	})

	t.Run("regenerates once growth reaches the threshold", func(t *testing.T) {
		repo := &fakeRepo{}
		hist := &fakeHistory{count: 5, records: sampleRecords(5)}
		svc := newTestService(repo, hist)

		result, sheet, err := svc.RegenerateSheet(ctx, userID, "en", "es")
		require.NoError(t, err)
		assert.True(t, result.Regenerated)
		require.NotNil(t, sheet)
		assert.Equal(t, 5, sheet.HistoryCountAtGenerate)
		assert.NotEmpty(t, sheet.Sections)
	})

	t.Run("denies until five more records accumulate", func(t *testing.T) {
		repo := &fakeRepo{sheet: &LearningSheet{HistoryCountAtGenerate: 10}}
		hist := &fakeHistory{count: 14, records: sampleRecords(14)}
		svc := newTestService(repo, hist)

		result, _, err := svc.RegenerateSheet(ctx, userID, "en", "es")
		require.NoError(t, err)
		assert.False(t, result.Regenerated)
		assert.Equal(t, ReasonInsufficientRecords, result.Reason)

		hist.count = 15
		hist.records = sampleRecords(15)
		result, sheet, err := svc.RegenerateSheet(ctx, userID, "en", "es")
		require.NoError(t, err)
		assert.True(t, result.Regenerated)
		assert.Equal(t, 15, sheet.HistoryCountAtGenerate)
	})

	t.Run("reports regressed history distinctly", func(t *testing.T) {
		repo := &fakeRepo{sheet: &LearningSheet{HistoryCountAtGenerate: 20}}
		hist := &fakeHistory{count: 12, records: sampleRecords(12)}
		svc := newTestService(repo, hist)

		result, _, err := svc.RegenerateSheet(ctx, userID, "en", "es")
		require.NoError(t, err)
		assert.False(t, result.Regenerated)
		assert.Equal(t, ReasonHistoryCountRegressed, result.Reason)
	})
}

func TestRegenerateWordBank(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("no free first generation", func(t *testing.T) {
		repo := &fakeRepo{}
		hist := &fakeHistory{count: 19, records: sampleRecords(19)}
		svc := newTestService(repo, hist)

		result, _, err := svc.RegenerateWordBank(ctx, userID, "en", "es")
		require.NoError(t, err)
		assert.False(t, result.Regenerated)
		assert.Equal(t, ReasonInsufficientRecords, result.Reason)
	})

	t.Run("regenerates at twenty new records", func(t *testing.T) {
		repo := &fakeRepo{bank: &WordBank{HistoryCountAtGenerate: 20}}
		hist := &fakeHistory{count: 40, records: sampleRecords(40)}
		svc := newTestService(repo, hist)

		result, bank, err := svc.RegenerateWordBank(ctx, userID, "en", "es")
		require.NoError(t, err)
		assert.True(t, result.Regenerated)
		assert.Equal(t, 40, bank.HistoryCountAtGenerate)
	})
}

func TestRegenerateQuiz(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("requires a sheet", func(t *testing.T) {
		repo := &fakeRepo{}
		hist := &fakeHistory{count: 30, records: sampleRecords(30)}
		svc := newTestService(repo, hist)

		result, _, err := svc.RegenerateQuiz(ctx, userID, "en", "es")
		require.NoError(t, err)
		assert.False(t, result.Regenerated)
		assert.Equal(t, ReasonNoSheet, result.Reason)
	})

	t.Run("first quiz is always allowed", func(t *testing.T) {
		repo := &fakeRepo{sheet: &LearningSheet{
			Sections:               []SheetSection{{Phrases: []Phrase{{Source: "a", Translation: "b"}, {Source: "c", Translation: "d"}}}},
			HistoryCountAtGenerate: 10,
		}}
		hist := &fakeHistory{count: 10, records: sampleRecords(10)}
		svc := newTestService(repo, hist)

		result, quiz, err := svc.RegenerateQuiz(ctx, userID, "en", "es")
		require.NoError(t, err)
		assert.True(t, result.Regenerated)
		require.NotNil(t, quiz)
		assert.Equal(t, 10, quiz.HistoryCountAtGenerate)
	})

	t.Run("locked while quiz matches the sheet stamp", func(t *testing.T) {
		repo := &fakeRepo{
			sheet: &LearningSheet{HistoryCountAtGenerate: 10},
			quiz:  &Quiz{HistoryCountAtGenerate: 10},
		}
		hist := &fakeHistory{count: 10, records: sampleRecords(10)}
		svc := newTestService(repo, hist)

		result, _, err := svc.RegenerateQuiz(ctx, userID, "en", "es")
		require.NoError(t, err)
		assert.False(t, result.Regenerated)
		assert.Equal(t, ReasonSheetNotRegenerated, result.Reason)
	})

	t.Run("unlocks whenever the sheet stamp differs", func(t *testing.T) {
		repo := &fakeRepo{
			sheet: &LearningSheet{
				Sections:               []SheetSection{{Phrases: []Phrase{{Source: "a", Translation: "b"}, {Source: "c", Translation: "d"}}}},
				HistoryCountAtGenerate: 15,
			},
			quiz: &Quiz{HistoryCountAtGenerate: 10},
		}
		hist := &fakeHistory{count: 15, records: sampleRecords(15)}
		svc := newTestService(repo, hist)

		result, quiz, err := svc.RegenerateQuiz(ctx, userID, "en", "es")
		require.NoError(t, err)
		assert.True(t, result.Regenerated)
		assert.Equal(t, 15, quiz.HistoryCountAtGenerate)
	})
}

func TestEligibilitySnapshot(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	repo := &fakeRepo{
		sheet: &LearningSheet{HistoryCountAtGenerate: 20},
		bank:  &WordBank{HistoryCountAtGenerate: 10},
		quiz:  &Quiz{HistoryCountAtGenerate: 20},
	}
	hist := &fakeHistory{count: 30}
	svc := NewService(repo, hist, &fakeWatermarks{last: intPtr(25)}, NewLocalGenerator())

	snap, err := svc.Eligibility(ctx, userID, "en", "es")
	require.NoError(t, err)

	assert.Equal(t, 30, snap.HistoryCount)
	assert.Equal(t, 20, *snap.SheetCount)
	assert.Equal(t, 10, *snap.WordBankCount)
	assert.Equal(t, 20, *snap.QuizCount)
	assert.Equal(t, 25, *snap.LastAwardedCount)
	assert.True(t, snap.CanRegenerateSheet)      // 30 - 20 >= 5
	assert.True(t, snap.CanRegenerateWordBank)   // 30 - 10 >= 20
	assert.False(t, snap.CanRegenerateQuiz)      // quiz stamp == sheet stamp
}

func TestSubmitAttempt(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	quiz := &Quiz{
		UserID:      userID,
		PrimaryLang: "en",
		TargetLang:  "es",
		Questions: []Question{
			{Prompt: "q1", Choices: []string{"a", "b"}, AnswerIndex: 0},
			{Prompt: "q2", Choices: []string{"a", "b"}, AnswerIndex: 1},
			{Prompt: "q3", Choices: []string{"a", "b"}, AnswerIndex: 1},
		},
		HistoryCountAtGenerate: 12,
	}

	t.Run("grades against stored answers", func(t *testing.T) {
		repo := &fakeRepo{quiz: quiz}
		svc := newTestService(repo, &fakeHistory{})

		attempt, err := svc.SubmitAttempt(ctx, userID, &SubmitAttemptRequest{
			PrimaryLang: "en",
			TargetLang:  "es",
			Answers:     []int{0, 1, 0},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, attempt.TotalScore)
		assert.Equal(t, 3, attempt.MaxScore)
		assert.Equal(t, 12, attempt.QuizHistoryCount)
		require.Len(t, repo.attempts, 1)
	})

	t.Run("rejects missing quiz", func(t *testing.T) {
		svc := newTestService(&fakeRepo{}, &fakeHistory{})

		_, err := svc.SubmitAttempt(ctx, userID, &SubmitAttemptRequest{
			PrimaryLang: "en",
			TargetLang:  "es",
			Answers:     []int{0},
		})
		assert.ErrorIs(t, err, ErrNoQuiz)
	})

	t.Run("rejects answer count mismatch", func(t *testing.T) {
		svc := newTestService(&fakeRepo{quiz: quiz}, &fakeHistory{})

		_, err := svc.SubmitAttempt(ctx, userID, &SubmitAttemptRequest{
			PrimaryLang: "en",
			TargetLang:  "es",
			Answers:     []int{0, 1},
		})
		assert.ErrorIs(t, err, ErrAnswerCount)
	})
}
