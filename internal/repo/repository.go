package repo

import (
	"context"

	"github.com/mboehm/sizewatch/internal/domain"
)

// HistoryStore records watch-list changes for the UI. The monitor never
// reads it; a persistent adapter can replace the in-memory one later.
type HistoryStore interface {
	Append(ctx context.Context, ev *domain.RegistrationEvent) error
	List(ctx context.Context) ([]domain.RegistrationEvent, error)
}
