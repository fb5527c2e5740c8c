package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dadyutenga/voucher/internal/domain"
	"github.com/dadyutenga/voucher/internal/domain/model"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// ---- Catalog ----

type packageResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	DataCapMB       *int   `json:"data_cap_mb,omitempty"`
	PriceCents      int64  `json:"price_cents"`
	Currency        string `json:"currency"`
}

func toPackageResponse(p *model.Package) packageResponse {
	return packageResponse{
		ID:              p.ID,
		Name:            p.Name,
		DurationMinutes: p.DurationMinutes,
		DataCapMB:       p.DataCapMB,
		PriceCents:      p.PriceCents,
		Currency:        p.Currency,
	}
}

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := s.packageUC.ListActive(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list packages")
		return
	}
	out := make([]packageResponse, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, toPackageResponse(p))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []packageResponse `json:"data"`
	}{Data: out})
}

// ---- Redemption ----

type loginRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	ClientID string `json:"client_id"` // device MAC from the portal redirect
}

type loginResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	Retryable      bool   `json:"retryable"`
	SessionSeconds int    `json:"session_seconds,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "email and code are required")
		return
	}

	outcome := s.redemptionUC.Redeem(r.Context(), req.Code, req.Email, req.ClientID)
	status := http.StatusOK
	if !outcome.Success {
		// The splash page renders the message either way; the status code
		// distinguishes retryable infrastructure trouble for programmatic
		// clients.
		if outcome.Retryable {
			status = http.StatusServiceUnavailable
		} else {
			status = http.StatusUnprocessableEntity
		}
	}
	writeJSON(w, status, loginResponse{
		Success:        outcome.Success,
		Message:        outcome.Message,
		Retryable:      outcome.Retryable,
		SessionSeconds: outcome.SessionSeconds,
	})
}

type validateRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type validateResponse struct {
	Valid            bool   `json:"valid"`
	Message          string `json:"message"`
	MinutesRemaining *int   `json:"minutes_remaining,omitempty"`
	DataCapMB        *int   `json:"data_cap_mb,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acc, err := s.accountUC.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusOK, validateResponse{Valid: false, Message: "No account found for this e-mail"})
			return
		}
		writeError(w, http.StatusInternalServerError, "validation failed")
		return
	}

	res, err := s.voucherUC.Validate(r.Context(), req.Code, acc.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusOK, validateResponse{Valid: false, Message: "Voucher not found"})
			return
		}
		writeError(w, http.StatusInternalServerError, "validation failed")
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:            res.Valid,
		Message:          res.Message,
		MinutesRemaining: res.MinutesRemaining,
		DataCapMB:        res.DataCapMB,
	})
}

type logoutRequest struct {
	ClientID string `json:"client_id"`
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.redemptionUC.Logout(r.Context(), req.ClientID); err != nil {
		if errors.Is(err, domain.ErrInvalidClientID) {
			writeError(w, http.StatusBadRequest, "invalid client id")
			return
		}
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}

// ---- Demo vouchers ----

type demoRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleDemoVoucher(w http.ResponseWriter, r *http.Request) {
	var req demoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.demoUC == nil {
		writeError(w, http.StatusNotFound, "demo vouchers are not enabled")
		return
	}

	v, err := s.demoUC.Request(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, "demo voucher already issued recently")
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, "a valid e-mail is required")
		default:
			writeError(w, http.StatusInternalServerError, "failed to issue demo voucher")
		}
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Code            string `json:"code"`
		DurationMinutes int    `json:"duration_minutes"`
	}{Code: v.Code, DurationMinutes: v.DurationMinutes})
}

// ---- Voucher listing ----

type voucherResponse struct {
	ID               string     `json:"id"`
	Code             string     `json:"code"`
	DurationMinutes  int        `json:"duration_minutes"`
	DataCapMB        *int       `json:"data_cap_mb,omitempty"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	UsedAt           *time.Time `json:"used_at,omitempty"`
	MinutesRemaining *int       `json:"minutes_remaining,omitempty"`
}

func toVoucherResponse(v *model.Voucher) voucherResponse {
	return voucherResponse{
		ID:               v.ID,
		Code:             v.Code,
		DurationMinutes:  v.DurationMinutes,
		DataCapMB:        v.DataCapMB,
		Status:           string(v.Status),
		CreatedAt:        v.CreatedAt,
		ExpiresAt:        v.ExpiresAt,
		UsedAt:           v.UsedAt,
		MinutesRemaining: v.RemainingMinutes(time.Now().UTC()),
	}
}

func (s *Server) handleMyVouchers(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}

	acc, err := s.accountUC.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusOK, struct {
				Data []voucherResponse `json:"data"`
			}{Data: []voucherResponse{}})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list vouchers")
		return
	}

	vs, err := s.voucherUC.ListByAccount(r.Context(), acc.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list vouchers")
		return
	}
	out := make([]voucherResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, toVoucherResponse(v))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []voucherResponse `json:"data"`
	}{Data: out})
}

func parsePagination(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50 // Default page size
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
