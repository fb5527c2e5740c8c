package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dadyutenga/voucher/internal/usecase"
)

// Server hosts the splash-page API, the payment callback endpoints and the
// admin API on a single port.
type Server struct {
	redemptionUC usecase.RedemptionUseCase
	voucherUC    usecase.VoucherUseCase
	accountUC    usecase.AccountUseCase
	packageUC    *usecase.PackageUseCase
	paymentUC    usecase.PaymentUseCase
	demoUC       usecase.DemoUseCase
	statsUC      usecase.StatsUseCase
	auth         *AuthManager
	log          *zerolog.Logger
}

func NewServer(
	redemptionUC usecase.RedemptionUseCase,
	voucherUC usecase.VoucherUseCase,
	accountUC usecase.AccountUseCase,
	packageUC *usecase.PackageUseCase,
	paymentUC usecase.PaymentUseCase,
	demoUC usecase.DemoUseCase,
	statsUC usecase.StatsUseCase,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		redemptionUC: redemptionUC,
		voucherUC:    voucherUC,
		accountUC:    accountUC,
		packageUC:    packageUC,
		paymentUC:    paymentUC,
		demoUC:       demoUC,
		statsUC:      statsUC,
		auth:         auth,
		log:          logger,
	}
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Recover(s.log))
	r.Use(TraceID())
	r.Use(RequestLog(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Splash-page API (unauthenticated; the captive portal has no session).
	r.Route("/api/v1/portal", func(r chi.Router) {
		r.Get("/packages", s.handleListPackages)
		r.Post("/login", s.handleLogin)
		r.Post("/validate", s.handleValidate)
		r.Post("/logout", s.handleLogout)
		r.Post("/demo-voucher", s.handleDemoVoucher)
		r.Get("/my-vouchers", s.handleMyVouchers)

		r.Post("/payments/intent", s.handlePaymentIntent)
		r.Post("/payments/mpesa", s.handleMpesaInitiate)
		r.Post("/payments/dummy", s.handleDummyPayment)
		r.Get("/payments/{id}", s.handlePaymentStatus)
	})

	// Provider callbacks (unauthenticated by necessity; dedup and state
	// checks happen in the use case).
	r.Post("/api/v1/callbacks/mpesa", s.handleMpesaCallback)

	// Admin API behind JWT.
	r.Post("/api/v1/admin/login", s.handleAdminLogin)
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(s.adminOnly)
		r.Post("/logout", s.handleAdminLogout)
		r.Get("/stats", s.handleStats)

		r.Get("/packages", s.handleAdminListPackages)
		r.Post("/packages", s.handleAdminCreatePackage)
		r.Delete("/packages/{id}", s.handleAdminDeletePackage)

		r.Get("/vouchers", s.handleAdminListVouchers)
		r.Post("/vouchers", s.handleAdminIssueVoucher)
		r.Post("/vouchers/{id}/expire", s.handleAdminExpireVoucher)

		r.Get("/transactions", s.handleAdminListTransactions)
		r.Get("/transactions/{id}", s.handleAdminGetTransaction)

		r.Get("/accounts", s.handleAdminListAccounts)
		r.Post("/accounts/{id}/deactivate", s.handleAdminDeactivateAccount)
	})

	return r
}
