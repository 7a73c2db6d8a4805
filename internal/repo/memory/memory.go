package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mboehm/sizewatch/internal/domain"
)

type Store struct {
	mu     sync.RWMutex
	events []domain.RegistrationEvent
}

func New() *Store {
	return &Store{
		events: make([]domain.RegistrationEvent, 0, 64),
	}
}

func (m *Store) Append(ctx context.Context, ev *domain.RegistrationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	m.events = append(m.events, *ev)
	return nil
}

// List returns events newest first.
func (m *Store) List(ctx context.Context) ([]domain.RegistrationEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.RegistrationEvent, 0, len(m.events))
	for i := len(m.events) - 1; i >= 0; i-- {
		out = append(out, m.events[i])
	}
	return out, nil
}
