package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dadyutenga/voucher/internal/config"
	"github.com/dadyutenga/voucher/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.MobileMoneyGateway = (*MpesaGateway)(nil)

// MpesaGateway implements MobileMoneyGateway against the Safaricom Daraja
// STK push API using direct HTTP calls.
type MpesaGateway struct {
	consumerKey    string
	consumerSecret string
	shortcode      string
	passkey        string
	callbackURL    string
	baseURL        string
	client         *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time

	now func() time.Time
}

// NewMpesaGateway creates a Daraja STK push gateway.
func NewMpesaGateway(cfg config.MpesaConfig) *MpesaGateway {
	var baseURL string
	switch cfg.Sandbox {
	case true:
		baseURL = "https://sandbox.safaricom.co.ke"
	case false:
		baseURL = "https://api.safaricom.co.ke"
	}

	return &MpesaGateway{
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		shortcode:      cfg.Shortcode,
		passkey:        cfg.Passkey,
		callbackURL:    cfg.CallbackURL,
		baseURL:        baseURL,
		client:         &http.Client{Timeout: 30 * time.Second},
		now:            time.Now,
	}
}

func (g *MpesaGateway) Name() string { return "mpesa" }

// mpesaTokenResponse represents the response from the OAuth token API.
type mpesaTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"` // seconds, as a string
}

// mpesaPushResponse represents the response from the STK push API.
type mpesaPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	ErrorCode           string `json:"errorCode"`
	ErrorMessage        string `json:"errorMessage"`
}

// token returns a cached OAuth bearer token, refreshing it when expired.
func (g *MpesaGateway) token(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.accessToken != "" && g.now().Before(g.tokenExpiry) {
		return g.accessToken, nil
	}

	url := g.baseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(g.consumerKey, g.consumerSecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch access token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("daraja token error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var tr mpesaTokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("failed to unmarshal token response: %w, body: %s", err, string(body))
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("daraja token error: empty access_token, body: %s", string(body))
	}

	// Daraja tokens live ~3600s; refresh a minute early.
	g.accessToken = tr.AccessToken
	g.tokenExpiry = g.now().Add(59 * time.Minute)
	return g.accessToken, nil
}

// Push implements MobileMoneyGateway.Push: it initiates an STK prompt on
// the payer's handset. The payment itself is confirmed later through the
// callback URL registered with the request.
func (g *MpesaGateway) Push(ctx context.Context, phone string, amountCents int64, reference, description string) (adapter.PushResult, error) {
	bearer, err := g.token(ctx)
	if err != nil {
		return adapter.PushResult{}, err
	}

	timestamp := g.now().UTC().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(g.shortcode + g.passkey + timestamp))
	msisdn := normalizeMSISDN(phone)

	requestData := map[string]interface{}{
		"BusinessShortCode": g.shortcode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            amountCents / 100, // Daraja takes whole currency units
		"PartyA":            msisdn,
		"PartyB":            g.shortcode,
		"PhoneNumber":       msisdn,
		"CallBackURL":       g.callbackURL,
		"AccountReference":  reference,
		"TransactionDesc":   description,
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return adapter.PushResult{}, fmt.Errorf("failed to marshal push request: %w", err)
	}

	url := g.baseURL + "/mpesa/stkpush/v1/processrequest"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return adapter.PushResult{}, fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := g.client.Do(req)
	if err != nil {
		return adapter.PushResult{}, fmt.Errorf("failed to send push request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return adapter.PushResult{}, fmt.Errorf("failed to read push response: %w", err)
	}

	var pr mpesaPushResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return adapter.PushResult{}, fmt.Errorf("failed to unmarshal push response: %w, body: %s", err, string(body))
	}

	if pr.ErrorCode != "" {
		return adapter.PushResult{}, fmt.Errorf("daraja error: code %s, message: %s", pr.ErrorCode, pr.ErrorMessage)
	}
	if pr.ResponseCode != "0" {
		return adapter.PushResult{}, fmt.Errorf("daraja push rejected: code %s, description: %s", pr.ResponseCode, pr.ResponseDescription)
	}

	return adapter.PushResult{
		ProviderID:  pr.CheckoutRequestID,
		MerchantID:  pr.MerchantRequestID,
		Description: pr.CustomerMessage,
	}, nil
}

// normalizeMSISDN rewrites a Kenyan phone number into the 2547XXXXXXXX
// form Daraja expects.
func normalizeMSISDN(phone string) string {
	p := strings.TrimSpace(phone)
	p = strings.TrimPrefix(p, "+")
	if strings.HasPrefix(p, "0") {
		p = "254" + p[1:]
	}
	return p
}
