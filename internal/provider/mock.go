package provider

import (
	"context"
	"sync"
)

// Mock is a provider that replays scripted responses. It backs the "mock"
// backend tag for offline play and is the workhorse of the game tests.
type Mock struct {
	name  string
	model string

	mu        sync.Mutex
	responses []string
	calls     int
}

// NewMock creates a mock provider with a generic canned reply.
func NewMock(model string) *Mock {
	if model == "" {
		model = "mock-v1"
	}
	return NewScriptedMock(model,
		"SITUATION: A man is found dead in a field next to an unopened package.\n\nSOLUTION: He jumped from a plane and his parachute, the package, failed to open.",
		"Was the man alone when he died?",
		"YES\nSCORE: 3/10",
		"RESOLVER: He fell from a plane and his parachute did not open.",
		"🎉 ¡CORRECTO! The man was a skydiver whose parachute failed.",
	)
}

// NewScriptedMock creates a mock provider that cycles through the given
// responses in order.
func NewScriptedMock(model string, responses ...string) *Mock {
	return &Mock{
		name:      "mock",
		model:     model,
		responses: responses,
	}
}

// Name returns the backend identifier.
func (m *Mock) Name() string { return m.name }

// ModelName returns the configured model identifier.
func (m *Mock) ModelName() string { return m.model }

// Calls returns how many times Generate has been invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Generate replays the next scripted response.
func (m *Mock) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.responses) == 0 {
		m.calls++
		return "", nil
	}
	resp := m.responses[m.calls%len(m.responses)]
	m.calls++
	return resp, nil
}
