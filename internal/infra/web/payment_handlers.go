package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dadyutenga/voucher/internal/domain"
	"github.com/dadyutenga/voucher/internal/domain/model"
)

type transactionResponse struct {
	ID          string `json:"id"`
	Reference   string `json:"reference"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Method      string `json:"method"`
	Status      string `json:"status"`
	VoucherID   string `json:"voucher_id,omitempty"`
}

func toTransactionResponse(t *model.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:          t.ID,
		Reference:   t.Reference,
		AmountCents: t.AmountCents,
		Currency:    t.Currency,
		Method:      t.Method,
		Status:      string(t.Status),
	}
	if t.VoucherID != nil {
		resp.VoucherID = *t.VoucherID
	}
	return resp
}

type intentRequest struct {
	Email     string `json:"email"`
	PackageID string `json:"package_id"`
}

func (s *Server) handlePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	intent, err := s.paymentUC.CreateIntent(r.Context(), req.Email, req.PackageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "package not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create payment intent")
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

type mpesaInitiateRequest struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	PackageID string `json:"package_id"`
}

func (s *Server) handleMpesaInitiate(w http.ResponseWriter, r *http.Request) {
	var req mpesaInitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Phone == "" {
		writeError(w, http.StatusBadRequest, "phone is required for M-Pesa")
		return
	}

	t, err := s.paymentUC.InitiateMpesa(r.Context(), req.Email, req.Phone, req.PackageID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "package not found")
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, "invalid payment request")
		default:
			writeError(w, http.StatusBadGateway, "payment provider unavailable")
		}
		return
	}
	writeJSON(w, http.StatusAccepted, toTransactionResponse(t))
}

type dummyPaymentRequest struct {
	Email     string `json:"email"`
	PackageID string `json:"package_id"`
}

func (s *Server) handleDummyPayment(w http.ResponseWriter, r *http.Request) {
	var req dummyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := s.paymentUC.ProcessDummy(r.Context(), req.Email, req.PackageID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusForbidden, "dummy payments are not enabled")
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "package not found")
		default:
			writeError(w, http.StatusInternalServerError, "payment failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
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

// ---- Daraja callback ----

// mpesaCallback mirrors the envelope Daraja POSTs to the registered URL.
type mpesaCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// receipt extracts the MpesaReceiptNumber item, empty when absent.
func (c *mpesaCallback) receipt() string {
	for _, item := range c.Body.StkCallback.CallbackMetadata.Item {
		if item.Name == "MpesaReceiptNumber" {
			if s, ok := item.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// handleMpesaCallback always acknowledges with the envelope Daraja expects;
// a non-zero response would make the provider retry a callback we already
// rejected for good reason.
func (s *Server) handleMpesaCallback(w http.ResponseWriter, r *http.Request) {
	var cb mpesaCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ResultCode": 1, "ResultDesc": "Invalid payload"})
		return
	}

	stk := cb.Body.StkCallback
	if stk.CheckoutRequestID == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ResultCode": 1, "ResultDesc": "Missing CheckoutRequestID"})
		return
	}

	_, err := s.paymentUC.ConfirmMpesa(r.Context(), stk.CheckoutRequestID, stk.ResultCode, stk.ResultDesc, cb.receipt())
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			// A concurrent delivery of the same callback is processing it.
			writeJSON(w, http.StatusOK, map[string]interface{}{"ResultCode": 0, "ResultDesc": "Accepted"})
			return
		}
		s.log.Error().Err(err).Str("checkout_request_id", stk.CheckoutRequestID).Msg("mpesa callback processing failed")
		writeJSON(w, http.StatusOK, map[string]interface{}{"ResultCode": 1, "ResultDesc": "Processing failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ResultCode": 0, "ResultDesc": "Accepted"})
}
