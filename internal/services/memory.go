package services

import (
	"context"
	"sync"

	"github.com/wellness-assistant/wellness-web-ui/internal/models"
)

// Memory keeps status checks in memory. It is used when no database path is configured.
type Memory struct {
	mu     sync.Mutex
	checks []models.StatusCheck
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// AddStatusCheck appends check.
func (m *Memory) AddStatusCheck(_ context.Context, check models.StatusCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, check)
	return nil
}

// StatusChecks returns a copy of the stored checks.
func (m *Memory) StatusChecks(context.Context) ([]models.StatusCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.StatusCheck{}, m.checks...), nil
}
