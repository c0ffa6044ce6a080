package learning

import (
	"time"

	"github.com/google/uuid"
)

// LearningSheet is the study material generated for a language pair. One
// live sheet per (user, primary, target); regeneration overwrites it.
// HistoryCountAtGenerate is the translation-history count at generation time
// and acts as the sheet's version stamp.
type LearningSheet struct {
	UserID                 uuid.UUID      `json:"user_id"`
	PrimaryLang            string         `json:"primary_lang"`
	TargetLang             string         `json:"target_lang"`
	Sections               []SheetSection `json:"sections"`
	HistoryCountAtGenerate int            `json:"history_count_at_generate"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

type SheetSection struct {
	Title   string   `json:"title"`
	Phrases []Phrase `json:"phrases"`
}

type Phrase struct {
	Source      string `json:"source"`
	Translation string `json:"translation"`
}

// WordBank is the vocabulary list for a language pair, same keying and
// versioning scheme as the sheet.
type WordBank struct {
	UserID                 uuid.UUID   `json:"user_id"`
	PrimaryLang            string      `json:"primary_lang"`
	TargetLang             string      `json:"target_lang"`
	Entries                []WordEntry `json:"entries"`
	HistoryCountAtGenerate int         `json:"history_count_at_generate"`
	UpdatedAt              time.Time   `json:"updated_at"`
}

type WordEntry struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
}

// Quiz is the single live quiz for a language pair. Its
// HistoryCountAtGenerate must equal the owning sheet's stamp at generation
// time; that pair of stamps is what makes a quiz "version" awardable.
type Quiz struct {
	UserID                 uuid.UUID  `json:"user_id"`
	PrimaryLang            string     `json:"primary_lang"`
	TargetLang             string     `json:"target_lang"`
	Questions              []Question `json:"questions"`
	HistoryCountAtGenerate int        `json:"history_count_at_generate"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

type Question struct {
	Prompt      string   `json:"prompt"`
	Choices     []string `json:"choices"`
	AnswerIndex int      `json:"answer_index"`
}

// QuestionView is a Question with the answer stripped, safe to return to
// clients. Grading happens server-side only.
type QuestionView struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
}

func (q Question) View() QuestionView {
	return QuestionView{Prompt: q.Prompt, Choices: q.Choices}
}

// Attempt is one completed quiz run. Append-only: rows are never updated
// after completion.
type Attempt struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	PrimaryLang string     `json:"primary_lang"`
	TargetLang  string     `json:"target_lang"`
	Questions   []Question `json:"-"`
	Answers     []int      `json:"answers"`
	TotalScore  int        `json:"total_score"`
	MaxScore    int        `json:"max_score"`
	CompletedAt time.Time  `json:"completed_at"`

	// Stamp of the quiz this attempt ran against; the client passes it
	// back when claiming coins.
	QuizHistoryCount int `json:"quiz_history_count"`
}

// SubmitAttemptRequest carries a finished quiz's answers, one index per
// question in order.
type SubmitAttemptRequest struct {
	PrimaryLang string `json:"primary_lang" validate:"required,min=2,max=8"`
	TargetLang  string `json:"target_lang" validate:"required,min=2,max=8"`
	Answers     []int  `json:"answers" validate:"required,min=1"`
}

// EligibilitySnapshot is the soft-gate payload the client uses to decide
// which regenerate buttons to show. Advisory only: every regeneration and
// award re-runs the same rules server-side.
type EligibilitySnapshot struct {
	HistoryCount          int  `json:"history_count"`
	SheetCount            *int `json:"sheet_count,omitempty"`
	WordBankCount         *int `json:"word_bank_count,omitempty"`
	QuizCount             *int `json:"quiz_count,omitempty"`
	LastAwardedCount      *int `json:"last_awarded_count,omitempty"`
	CanRegenerateSheet    bool `json:"can_regenerate_sheet"`
	CanRegenerateWordBank bool `json:"can_regenerate_word_bank"`
	CanRegenerateQuiz     bool `json:"can_regenerate_quiz"`
}

// RegenerateResult is the outcome of a regeneration request. A denial is a
// normal response with a machine-readable reason, not an error.
type RegenerateResult struct {
	Regenerated bool   `json:"regenerated"`
	Reason      string `json:"reason,omitempty"`
}

// Denial reasons for regeneration requests.
const (
	ReasonInsufficientRecords   = "insufficient_records"
	ReasonHistoryCountRegressed = "history_count_regressed"
	ReasonNoSheet               = "no_sheet"
	ReasonSheetNotRegenerated   = "sheet_not_regenerated"
)
