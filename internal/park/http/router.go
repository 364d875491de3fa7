package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/caremypark/caremypark/internal/park/domain"
	"github.com/caremypark/caremypark/internal/park/service"
	"github.com/caremypark/caremypark/internal/park/store"
	"github.com/caremypark/caremypark/pkg/httpx"
	"github.com/caremypark/caremypark/pkg/jwtx"
	"github.com/caremypark/caremypark/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     *jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store         store.Store
	AuthService   *service.AuthService
	ReportService *service.ReportService

	// PublicBaseURL is the site root encoded into generated QR codes.
	PublicBaseURL string
}

func NewRouter(
	verifier *jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerReports()
	r.registerTracking()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// POST /api/register - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /api/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /api/login - strict rate limit by IP (authentication attempts)
	r.Mux.Handle("POST /api/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /api/verify-2fa - strict rate limit by IP (prevent passcode brute force)
	r.Mux.Handle("POST /api/verify-2fa",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyTwoFactor),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /api/enable-2fa - authenticated, moderate rate limit by user
	r.Mux.Handle("POST /api/enable-2fa",
		httpx.Chain(http.HandlerFunc(h.HandleEnableTwoFactor),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerReports() {
	h := &ReportsHandler{ReportService: r.ReportService}

	// POST /api/reports - optional authn so anonymous submissions work when
	// enabled; moderate rate limit (uploads are not cheap)
	r.Mux.Handle("POST /api/reports",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.OptionalAuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// GET /api/reports - authenticated listing, lenient rate limit by user
	r.Mux.Handle("GET /api/reports",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// GET /api/reports/{referenceID} - authenticated read, lenient limit
	r.Mux.Handle("GET /api/reports/{referenceID}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// GET /api/reports/{referenceID}/history - same access rule as read
	r.Mux.Handle("GET /api/reports/{referenceID}/history",
		httpx.Chain(http.HandlerFunc(h.HandleHistory),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// PUT /api/reports/{referenceID}/status - authority only, moderate limit
	r.Mux.Handle("PUT /api/reports/{referenceID}/status",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateStatus),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(string(domain.RoleAuthority)),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// GET /api/statistics - authority only, moderate limit
	stats := &StatisticsHandler{ReportService: r.ReportService}
	r.Mux.Handle("GET /api/statistics",
		httpx.Chain(http.HandlerFunc(stats.HandleGet),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(string(domain.RoleAuthority)),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerTracking() {
	track := &TrackHandler{ReportService: r.ReportService}

	// GET /api/track/{referenceID} - public reduced view, high limit
	r.Mux.Handle("GET /api/track/{referenceID}",
		httpx.Chain(http.HandlerFunc(track.HandleGet),
			httpx.OptionalAuthnMiddleware(r.verifier),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	uploads := &UploadsHandler{ReportService: r.ReportService}

	// GET /uploads/{photoRef} - photo serving, lenient limit
	r.Mux.Handle("GET /uploads/{photoRef}",
		httpx.Chain(http.HandlerFunc(uploads.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	qr := &QRHandler{BaseURL: r.PublicBaseURL}

	// GET /api/generate-qr - public QR codes for park signage, lenient limit
	r.Mux.Handle("GET /api/generate-qr",
		httpx.Chain(http.HandlerFunc(qr.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
