package history

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Record(ctx context.Context, userID uuid.UUID, req *CreateRecordRequest) (*Record, error) {
	rec := &Record{
		ID:             uuid.New(),
		UserID:         userID,
		PrimaryLang:    req.PrimaryLang,
		TargetLang:     req.TargetLang,
		SourceText:     req.SourceText,
		TranslatedText: req.TranslatedText,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Count returns the authoritative record count for a language pair. This is
// the server-side truth for every eligibility decision; clients may cache it
// for button state but the server never trusts a client-supplied count.
func (s *Service) Count(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string) (int, error) {
	return s.repo.CountByPair(ctx, userID, primaryLang, targetLang)
}

func (s *Service) Recent(ctx context.Context, userID uuid.UUID, primaryLang, targetLang string, limit int) ([]Record, error) {
	return s.repo.ListRecent(ctx, userID, primaryLang, targetLang, limit)
}
