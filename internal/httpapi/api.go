package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"loopline.social/internal/audit"
	"loopline.social/internal/auth"
	"loopline.social/internal/obs"
	"loopline.social/internal/profile"
)

// ReadyProbe reports whether the backing store is reachable.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options wires the API's collaborators. Roles is the resolver's single-row
// lookup; Profiles and Audit are the admin routes' persistence surfaces. In
// production all three are the same *pg.Store.
type Options struct {
	ReadyProbe ReadyProbe
	Version    string
	Roles      auth.ProfileStore
	Profiles   profile.Store
	Audit      audit.Store
}

// API is the HTTP layer: health endpoints, session issuance and the
// gate-protected admin routes.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	gate     *auth.Gate
	recorder *audit.Recorder
	profiles profile.Store

	rateBurst  int
	ratePerSec int
}

func New(opts Options) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: opts.ReadyProbe,
		version:    opts.Version,
		gate:       auth.NewGate(opts.Roles, obs.ObserveAuthzDecision),
		recorder:   audit.NewRecorder(opts.Audit),
		profiles:   opts.Profiles,
		rateBurst:  20,
		ratePerSec: 10,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// session issuance
	a.mux.HandleFunc("/api/auth/token", a.handleAuthToken)

	// admin API
	a.mux.HandleFunc("/api/admin/users", a.handleUsers)
	a.mux.HandleFunc("/api/admin/users/", a.handleUserScoped)
	a.mux.HandleFunc("/api/admin/warnings/", a.handleWarningResource)
	a.mux.HandleFunc("/api/admin/listings/", a.handleContentResource)
	a.mux.HandleFunc("/api/admin/posts/", a.handleContentResource)
	a.mux.HandleFunc("/api/admin/events/", a.handleContentResource)
	a.mux.HandleFunc("/api/admin/audit", a.handleAuditLog)

	a.mux.HandleFunc("/login", a.LoginPage)
	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler composes the middleware chain around the mux. The admin pre-check
// runs before authentication so requests without any session artifact are
// turned away cheaply; precise role verification happens in the per-route
// gate calls.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = a.withAuth(h)
	h = AdminPreCheck(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}
