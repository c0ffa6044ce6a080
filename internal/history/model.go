package history

import (
	"time"

	"github.com/google/uuid"
)

// Record is one translation the user performed in the app. The number of
// records a user holds for a language pair is the version stamp everything
// else hangs off: sheets, word banks and quizzes are stamped with the count
// at generation time.
type Record struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	PrimaryLang    string    `json:"primary_lang"`
	TargetLang     string    `json:"target_lang"`
	SourceText     string    `json:"source_text"`
	TranslatedText string    `json:"translated_text"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateRecordRequest is the API payload for recording a translation.
type CreateRecordRequest struct {
	PrimaryLang    string `json:"primary_lang" validate:"required,min=2,max=8"`
	TargetLang     string `json:"target_lang" validate:"required,min=2,max=8"`
	SourceText     string `json:"source_text" validate:"required,min=1"`
	TranslatedText string `json:"translated_text" validate:"required,min=1"`
}
