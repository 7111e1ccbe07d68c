package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shenikar/surakshita/internal/lifecycle"
	"github.com/shenikar/surakshita/internal/models"
	"github.com/shenikar/surakshita/pkg/e"
)

// applyTransition применяет переход одной условной записью. Если запись не
// совпала, lookup в той же области видимости только выбирает между
// ErrNotFound и отклонённым переходом.
func applyTransition(
	ctx context.Context,
	repo IncidentRepository,
	incidentID int64,
	t lifecycle.Transition,
	lookup func(context.Context) (*models.Incident, error),
) (*models.Incident, error) {
	updated, err := repo.ApplyTransition(ctx, incidentID, t)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, e.ErrNotFound) {
		return nil, err
	}

	current, lookupErr := lookup(ctx)
	if lookupErr != nil {
		return nil, lookupErr
	}
	if t.Permits(current) {
		// запись изменилась между UPDATE и чтением; клиент может повторить
		return nil, fmt.Errorf("incident %d changed concurrently: %w", incidentID, e.ErrConflict)
	}
	return nil, lifecycle.Rejected(t, current)
}
