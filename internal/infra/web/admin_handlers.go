package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dadyutenga/voucher/internal/domain"
	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/infra/metrics"
)

// adminOnly guards the admin API with the session JWT.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			metrics.IncAdminRequest(r.URL.Path, "unauthorized")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		metrics.IncAdminRequest(r.URL.Path, "authorized")
		next.ServeHTTP(w, r)
	})
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !s.auth.Check(req.Username, req.Password) {
		metrics.IncAdminRequest("login", "unauthorized")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.auth.Mint(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	metrics.IncAdminRequest("login", "authorized")
	writeJSON(w, http.StatusOK, struct {
		Token string `json:"token"`
	}{Token: token})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// ---- Stats ----

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	accounts, byStatus, err := s.statsUC.Totals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get totals")
		return
	}
	revenue, err := s.statsUC.Revenue(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get revenue")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		TotalAccounts    int              `json:"total_accounts"`
		VouchersByStatus map[string]int   `json:"vouchers_by_status"`
		RevenueByMethod  map[string]int64 `json:"revenue_cents_by_method"`
	}{
		TotalAccounts:    accounts,
		VouchersByStatus: byStatus,
		RevenueByMethod:  revenue,
	})
}

// ---- Packages ----

type packageCreateRequest struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	DataCapMB       *int   `json:"data_cap_mb"`
	PriceCents      int64  `json:"price_cents"`
	Currency        string `json:"currency"`
}

func (s *Server) handleAdminCreatePackage(w http.ResponseWriter, r *http.Request) {
	var req packageCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pkg, err := model.NewPackage("", req.Name, req.DurationMinutes, req.DataCapMB, req.PriceCents, req.Currency)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid package")
		return
	}
	if err := s.packageUC.Create(r.Context(), pkg); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create package")
		return
	}
	writeJSON(w, http.StatusCreated, toPackageResponse(pkg))
}

func (s *Server) handleAdminListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := s.packageUC.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list packages")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.Package `json:"data"`
	}{Data: pkgs})
}

func (s *Server) handleAdminDeletePackage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.packageUC.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "package not found")
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- Vouchers ----

func (s *Server) handleAdminListVouchers(w http.ResponseWriter, r *http.Request) {
	offset, limit := parsePagination(r)
	vs, err := s.voucherUC.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list vouchers")
		return
	}
	out := make([]voucherResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, toVoucherResponse(v))
	}
	writeJSON(w, http.StatusOK, struct {
		Data   []voucherResponse `json:"data"`
		Limit  int               `json:"limit"`
		Offset int               `json:"offset"`
	}{Data: out, Limit: limit, Offset: offset})
}

type adminIssueRequest struct {
	Email           string `json:"email"`
	DurationMinutes int    `json:"duration_minutes"`
	DataCapMB       *int   `json:"data_cap_mb"`
}

// handleAdminIssueVoucher issues a complimentary voucher to a subscriber,
// creating the account on first contact.
func (s *Server) handleAdminIssueVoucher(w http.ResponseWriter, r *http.Request) {
	var req adminIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acc, err := s.accountUC.RegisterOrFetch(r.Context(), req.Email, "")
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "a valid e-mail is required")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to resolve account")
		return
	}

	v, err := s.voucherUC.Issue(r.Context(), acc.ID, req.DurationMinutes, req.DataCapMB, nil)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "invalid voucher parameters")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to issue voucher")
		return
	}
	writeJSON(w, http.StatusCreated, toVoucherResponse(v))
}

func (s *Server) handleAdminExpireVoucher(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.voucherUC.ForceExpire(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "voucher not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "voucher is already in a terminal state")
		default:
			writeError(w, http.StatusInternalServerError, "failed to expire voucher")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- Transactions ----

func (s *Server) handleAdminListTransactions(w http.ResponseWriter, r *http.Request) {
	offset, limit := parsePagination(r)
	ts, err := s.paymentUC.ListTransactions(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	out := make([]transactionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, struct {
		Data   []transactionResponse `json:"data"`
		Limit  int                   `json:"limit"`
		Offset int                   `json:"offset"`
	}{Data: out, Limit: limit, Offset: offset})
}

func (s *Server) handleAdminGetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := s.paymentUC.GetTransaction(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get transaction")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

// ---- Accounts ----

type accountResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func (s *Server) handleAdminListAccounts(w http.ResponseWriter, r *http.Request) {
	offset, limit := parsePagination(r)
	accounts, err := s.accountUC.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	total, err := s.accountUC.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count accounts")
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountResponse{
			ID: a.ID, Email: a.Email, Phone: a.Phone,
			IsActive: a.IsActive, CreatedAt: a.CreatedAt, LastLoginAt: a.LastLoginAt,
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Data   []accountResponse `json:"data"`
		Total  int               `json:"total"`
		Limit  int               `json:"limit"`
		Offset int               `json:"offset"`
	}{Data: out, Total: total, Limit: limit, Offset: offset})
}

func (s *Server) handleAdminDeactivateAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.accountUC.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to deactivate account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
