package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/locvowork/pawsheets/internal/domain"
	"github.com/locvowork/pawsheets/pkg/sheet"
)

// MemoryBackend keeps every record in process memory. It serves tests and
// single-node demos; nothing survives a restart.
type MemoryBackend struct {
	mu         sync.RWMutex
	worksheets map[string]sheet.Record
	themes     map[string]domain.Theme
	feedback   []domain.Feedback
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		worksheets: make(map[string]sheet.Record),
		themes:     make(map[string]domain.Theme),
	}
}

// Repositories exposes the backend through the domain interfaces.
func (b *MemoryBackend) Repositories() domain.Repositories {
	return domain.Repositories{
		Worksheets: memoryWorksheets{b},
		Themes:     memoryThemes{b},
		Feedback:   memoryFeedback{b},
	}
}

func copyRecord(rec sheet.Record) sheet.Record {
	rec.Columns = append([]byte(nil), rec.Columns...)
	rec.Rows = append([]byte(nil), rec.Rows...)
	rec.Styles = append([]byte(nil), rec.Styles...)
	return rec
}

type memoryWorksheets struct{ b *MemoryBackend }

func (r memoryWorksheets) Create(_ context.Context, rec sheet.Record) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	if _, exists := r.b.worksheets[rec.ID]; exists {
		return fmt.Errorf("worksheet %s already exists", rec.ID)
	}
	r.b.worksheets[rec.ID] = copyRecord(rec)
	return nil
}

func (r memoryWorksheets) Get(_ context.Context, id string) (sheet.Record, error) {
	r.b.mu.RLock()
	defer r.b.mu.RUnlock()
	rec, ok := r.b.worksheets[id]
	if !ok {
		return sheet.Record{}, domain.ErrNotFound
	}
	return copyRecord(rec), nil
}

func (r memoryWorksheets) Update(_ context.Context, rec sheet.Record) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	existing, ok := r.b.worksheets[rec.ID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.UserID = existing.UserID
	rec.CreatedAt = existing.CreatedAt
	r.b.worksheets[rec.ID] = copyRecord(rec)
	return nil
}

func (r memoryWorksheets) Delete(_ context.Context, id string) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	if _, ok := r.b.worksheets[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.b.worksheets, id)
	return nil
}

func (r memoryWorksheets) ListByUser(_ context.Context, userID string) ([]sheet.Record, error) {
	r.b.mu.RLock()
	defer r.b.mu.RUnlock()
	var out []sheet.Record
	for _, rec := range r.b.worksheets {
		if rec.UserID == userID {
			out = append(out, copyRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type memoryThemes struct{ b *MemoryBackend }

func (r memoryThemes) Create(_ context.Context, theme domain.Theme) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	if _, exists := r.b.themes[theme.ID]; exists {
		return fmt.Errorf("theme %s already exists", theme.ID)
	}
	r.b.themes[theme.ID] = theme
	return nil
}

func (r memoryThemes) Get(_ context.Context, id string) (domain.Theme, error) {
	r.b.mu.RLock()
	defer r.b.mu.RUnlock()
	theme, ok := r.b.themes[id]
	if !ok {
		return domain.Theme{}, domain.ErrNotFound
	}
	return theme, nil
}

func (r memoryThemes) ListByUser(_ context.Context, userID string) ([]domain.Theme, error) {
	r.b.mu.RLock()
	defer r.b.mu.RUnlock()
	var out []domain.Theme
	for _, t := range r.b.themes {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type memoryFeedback struct{ b *MemoryBackend }

func (r memoryFeedback) Create(_ context.Context, fb domain.Feedback) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	r.b.feedback = append(r.b.feedback, fb)
	return nil
}

func (r memoryFeedback) List(_ context.Context) ([]domain.Feedback, error) {
	r.b.mu.RLock()
	defer r.b.mu.RUnlock()
	return append([]domain.Feedback(nil), r.b.feedback...), nil
}
