package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"conti/internal/log"
	"conti/internal/middleware/ratelimit"
	"conti/internal/middleware/security"
	"conti/internal/middleware/trace"
	"conti/internal/services"
)

// HeaderUserID identifies the caller. It is set by the session gateway in
// front of this service.
const HeaderUserID = "X-User-ID"

type ownerKey struct{}

// Options tunes the HTTP server. Zero values select defaults.
type Options struct {
	RateLimitPerMinute int
	TrustedProxies     []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
}

type Server struct {
	http.Server
	ledger  *services.Ledger
	logger  *log.Logger
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	ips     *security.IPResolver
}

// NewServer wires the routes and middleware for the ledger API.
func NewServer(addr string, ledger *services.Ledger, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 15 * time.Second
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 60 * time.Second
	}

	s := &Server{
		ledger: ledger,
		logger: logger.WithComponent(log.ComponentHTTP),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		ips: security.NewIPResolver(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.ips.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err.Error())
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.ips.ClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/accounts", s.owned(s.handleCreateAccount))
	mux.HandleFunc("GET /api/accounts", s.owned(s.handleListAccounts))
	mux.HandleFunc("GET /api/accounts/{id}", s.owned(s.handleGetAccount))
	mux.HandleFunc("PATCH /api/accounts/{id}", s.owned(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.owned(s.handleDeleteAccount))

	mux.HandleFunc("POST /api/categories", s.owned(s.handleCreateCategory))
	mux.HandleFunc("GET /api/categories", s.owned(s.handleListCategories))
	mux.HandleFunc("GET /api/categories/{id}", s.owned(s.handleGetCategory))
	mux.HandleFunc("PATCH /api/categories/{id}", s.owned(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.owned(s.handleDeleteCategory))

	mux.HandleFunc("POST /api/transactions", s.owned(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.owned(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.owned(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.owned(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/accounts/{id}/transactions", s.owned(s.handleListTransactions))
	mux.HandleFunc("GET /api/accounts/{id}/transactions/count", s.owned(s.handleCountTransactions))
	mux.HandleFunc("GET /api/accounts/{id}/categories/{categoryId}/transactions", s.owned(s.handleListTransactionsByCategory))
	mux.HandleFunc("GET /api/accounts/{id}/category-summary", s.owned(s.handleCategorySummary))

	var handler http.Handler = mux
	handler = s.limitMutations(handler)
	handler = s.tracer.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
	}
	return s
}

// Shutdown stops the rate limiter and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

// limitMutations applies the rate limiter to writes only. Callers are keyed
// by owner when known and by client address otherwise.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(func(r *http.Request) string {
		if owner := requestOwner(r); owner != "" {
			return "owner:" + owner
		}
		return "ip:" + s.ips.ClientIP(r)
	}, func(w http.ResponseWriter, r *http.Request) {
		RateLimitedError().Write(w)
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			limited.ServeHTTP(w, r)
		}
	})
}

func requestOwner(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(HeaderUserID))
}

// owned rejects requests without a caller identity and passes the owner to h.
func (s *Server) owned(h func(w http.ResponseWriter, r *http.Request, owner string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := requestOwner(r)
		if owner == "" {
			UnauthorizedError().Write(w)
			return
		}
		ctx := context.WithValue(r.Context(), ownerKey{}, owner)
		h(w, r.WithContext(ctx), owner)
	}
}

// OwnerFromContext returns the caller set by the owner check, if any.
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ledger.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err.Error())
		NewJSONResponse().
			Status(http.StatusServiceUnavailable).
			Error("unavailable", "database unreachable", "").
			Write(w)
		return
	}
	NewJSONResponse().Data(map[string]string{"status": "ready"}).Write(w)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ErrorResponse(r, err).Write(w)
}

func writeData(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Data(v).Write(w)
}

// writeCreated answers 201 with the new resource's path in Location.
func writeCreated(w http.ResponseWriter, location string, v any) {
	NewJSONResponse().Status(http.StatusCreated).Header("Location", location).Data(v).Write(w)
}
