package service

import (
	"context"
	"fmt"

	"github.com/locvowork/pawsheets/internal/domain"
	"github.com/locvowork/pawsheets/internal/logger"
	"github.com/locvowork/pawsheets/pkg/sheet"
)

// WorksheetStore adapts a WorksheetRepository to the editor's load/save needs.
type WorksheetStore struct {
	repo domain.WorksheetRepository
}

func NewWorksheetStore(repo domain.WorksheetRepository) *WorksheetStore {
	return &WorksheetStore{repo: repo}
}

// Load fetches and decodes a worksheet. Malformed stored parts are replaced
// by defaults and logged, never returned as an error.
func (s *WorksheetStore) Load(ctx context.Context, id string) (sheet.Worksheet, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return sheet.Worksheet{}, err
	}
	ws, err := sheet.Decode(rec)
	if err != nil {
		logger.WarnLog(ctx, "worksheet %s has malformed stored data, defaults substituted: %v", id, err)
	}
	return ws, nil
}

func (s *WorksheetStore) Save(ctx context.Context, ws sheet.Worksheet) error {
	rec, err := sheet.Encode(ws)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, rec); err != nil {
		return fmt.Errorf("failed to save worksheet %s: %w", ws.ID, err)
	}
	return nil
}

func (s *WorksheetStore) Create(ctx context.Context, ws sheet.Worksheet) error {
	rec, err := sheet.Encode(ws)
	if err != nil {
		return err
	}
	return s.repo.Create(ctx, rec)
}
