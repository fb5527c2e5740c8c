package access

import (
	"context"
	"sync"

	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/domain/ports/adapter"
)

var _ adapter.NetworkAccessController = (*NoopGateway)(nil)

// NoopGateway grants everything in memory. Used in dev mode and tests so
// the portal can be exercised without a live controller.
type NoopGateway struct {
	mu       sync.Mutex
	sessions map[string]int // mac -> granted seconds
}

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{sessions: make(map[string]int)}
}

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) Grant(ctx context.Context, clientMAC string, durationSeconds int) (adapter.GrantResult, error) {
	mac, err := model.CanonicalMAC(clientMAC)
	if err != nil {
		return adapter.GrantResult{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[mac] = durationSeconds
	return adapter.GrantResult{Status: adapter.GrantGranted, SessionSeconds: durationSeconds}, nil
}

func (g *NoopGateway) Revoke(ctx context.Context, clientMAC string) error {
	mac, err := model.CanonicalMAC(clientMAC)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, mac)
	return nil
}

// Sessions returns a copy of granted sessions; test helper.
func (g *NoopGateway) Sessions() map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]int, len(g.sessions))
	for k, v := range g.sessions {
		out[k] = v
	}
	return out
}
