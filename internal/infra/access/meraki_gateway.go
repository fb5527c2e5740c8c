// File: internal/infra/access/meraki_gateway.go
package access

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/domain/ports/adapter"
	"github.com/dadyutenga/voucher/internal/infra/metrics"
)

// Ensure implementation satisfies the port.
var _ adapter.NetworkAccessController = (*MerakiGateway)(nil)

// MerakiGateway authorizes client devices on a Meraki-style splash-page
// controller using direct HTTP calls. It holds no state between calls and
// makes no persistence changes; it only classifies what the controller said.
type MerakiGateway struct {
	baseGrantURL string
	apiKey       string
	networkID    string
	timeout      time.Duration
	minSession   int
	client       *http.Client
	log          *zerolog.Logger
}

func NewMerakiGateway(baseGrantURL, apiKey, networkID string, timeout time.Duration, minSessionSeconds int, logger *zerolog.Logger) *MerakiGateway {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if minSessionSeconds <= 0 {
		minSessionSeconds = 60
	}
	l := logger.With().Str("component", "MerakiGateway").Logger()
	return &MerakiGateway{
		baseGrantURL: baseGrantURL,
		apiKey:       apiKey,
		networkID:    networkID,
		timeout:      timeout,
		minSession:   minSessionSeconds,
		client:       &http.Client{},
		log:          &l,
	}
}

func (g *MerakiGateway) Name() string { return "meraki" }

type merakiGrantRequest struct {
	ClientMAC       string `json:"client_mac"`
	NetworkID       string `json:"network_id,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
}

type merakiGrantResponse struct {
	Granted         bool   `json:"granted"`
	DurationSeconds int    `json:"duration_seconds"`
	Error           string `json:"error"`
}

// Grant authorizes clientMAC for durationSeconds. The external call is
// bounded by the gateway's own timeout regardless of the caller's context; a
// timeout or transport failure is Unavailable (retryable from the caller's
// point of view, the voucher has not been consumed), while an explicit
// controller refusal is Rejected.
func (g *MerakiGateway) Grant(ctx context.Context, clientMAC string, durationSeconds int) (adapter.GrantResult, error) {
	mac, err := model.CanonicalMAC(clientMAC)
	if err != nil {
		// Rejected locally; no external call is made for a malformed address.
		return adapter.GrantResult{}, err
	}
	if durationSeconds < g.minSession {
		durationSeconds = g.minSession
	}

	start := time.Now()
	res, err := g.doGrant(ctx, mac, durationSeconds)
	metrics.ObserveGrantLatency(g.Name(), string(res.Status), time.Since(start))
	if err != nil {
		return res, err
	}
	return res, nil
}

func (g *MerakiGateway) doGrant(ctx context.Context, mac string, durationSeconds int) (adapter.GrantResult, error) {
	body, err := json.Marshal(merakiGrantRequest{
		ClientMAC:       mac,
		NetworkID:       g.networkID,
		DurationSeconds: durationSeconds,
	})
	if err != nil {
		return adapter.GrantResult{Status: adapter.GrantUnavailable, Reason: err.Error()}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	url := g.baseGrantURL + "/grant"
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return adapter.GrantResult{Status: adapter.GrantUnavailable, Reason: err.Error()}, nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("X-Cisco-Meraki-API-Key", g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		reason := "transport failure"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = fmt.Sprintf("controller did not answer within %s", g.timeout)
		}
		g.log.Warn().Err(err).Str("client_mac", mac).Msg("grant call did not complete")
		return adapter.GrantResult{Status: adapter.GrantUnavailable, Reason: reason}, nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return adapter.GrantResult{Status: adapter.GrantUnavailable, Reason: "failed to read controller response"}, nil
	}

	switch {
	case resp.StatusCode >= 500:
		return adapter.GrantResult{Status: adapter.GrantUnavailable, Reason: fmt.Sprintf("controller error %d", resp.StatusCode)}, nil
	case resp.StatusCode >= 400:
		return adapter.GrantResult{Status: adapter.GrantRejected, Reason: fmt.Sprintf("controller refused: %d %s", resp.StatusCode, string(raw))}, nil
	}

	var parsed merakiGrantResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return adapter.GrantResult{Status: adapter.GrantUnavailable, Reason: fmt.Sprintf("unparseable controller response: %v", err)}, nil
	}
	if !parsed.Granted {
		return adapter.GrantResult{Status: adapter.GrantRejected, Reason: parsed.Error}, nil
	}
	session := parsed.DurationSeconds
	if session == 0 {
		session = durationSeconds
	}
	return adapter.GrantResult{Status: adapter.GrantGranted, SessionSeconds: session}, nil
}

// Revoke ends the device's session. Best-effort: callers log but do not act
// on failures.
func (g *MerakiGateway) Revoke(ctx context.Context, clientMAC string) error {
	mac, err := model.CanonicalMAC(clientMAC)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	body, _ := json.Marshal(merakiGrantRequest{ClientMAC: mac, NetworkID: g.networkID})
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, g.baseGrantURL+"/revoke", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("X-Cisco-Meraki-API-Key", g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("revoke call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("revoke refused: %d", resp.StatusCode)
	}
	return nil
}
