// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/dramanet/internal/domain/ports"
)

// Narrator is a mock implementation of ports.Narrator. By default it answers
// "narrative for <action id>" for each request.
type Narrator struct {
	Err error
	// Short drops the last paragraph of every response.
	Short bool

	mu        sync.Mutex
	CallCount int
	Requests  []ports.NarrationRequest
}

// Narrate returns one canned paragraph per request.
func (m *Narrator) Narrate(ctx context.Context, requests []ports.NarrationRequest) ([]string, error) {
	m.mu.Lock()
	m.CallCount++
	m.Requests = append(m.Requests, requests...)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]string, 0, len(requests))
	for _, r := range requests {
		out = append(out, "narrative for "+r.ActionID)
	}
	if m.Short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}
