package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/dadyutenga/voucher/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.MobileMoneyGateway = (*DummyGateway)(nil)

// DummyGateway is an in-memory MobileMoneyGateway for local development
// and tests. Every push "succeeds" immediately with a synthetic checkout
// id; the confirmation callback must be driven manually (or via the dummy
// payment endpoint).
type DummyGateway struct {
	mu     sync.Mutex
	seq    int
	pushes []DummyPush
}

// DummyPush records one Push call for test assertions.
type DummyPush struct {
	Phone       string
	AmountCents int64
	Reference   string
}

func NewDummyGateway() *DummyGateway { return &DummyGateway{} }

func (g *DummyGateway) Name() string { return "dummy" }

func (g *DummyGateway) Push(ctx context.Context, phone string, amountCents int64, reference, description string) (adapter.PushResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.pushes = append(g.pushes, DummyPush{Phone: phone, AmountCents: amountCents, Reference: reference})
	return adapter.PushResult{
		ProviderID:  fmt.Sprintf("ws_CO_DUMMY_%06d", g.seq),
		MerchantID:  fmt.Sprintf("dummy-merchant-%06d", g.seq),
		Description: "Simulated request accepted for processing",
	}, nil
}

// Pushes returns a copy of the recorded push calls.
func (g *DummyGateway) Pushes() []DummyPush {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]DummyPush, len(g.pushes))
	copy(out, g.pushes)
	return out
}
