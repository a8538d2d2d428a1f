package http

import (
	"net/http"

	"fixbet/internal/auth"
	"fixbet/internal/claim"
	"fixbet/internal/clock"
	"fixbet/internal/compliance"
	"fixbet/internal/config"
	"fixbet/internal/http/handler"
	mw "fixbet/internal/http/middleware"
	"fixbet/internal/job"
	"fixbet/internal/payment"
	"fixbet/internal/tasks"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

type Deps struct {
	Cfg       config.Config
	DB        *gorm.DB
	JWT       *auth.JWT
	Clock     clock.Clock
	Jobs      *job.Service
	Payments  *payment.Service
	Claims    *claim.Service
	Tasks     *tasks.Repo
	Evaluator compliance.Evaluator
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(d.Cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(d.Cfg.CORSAllowedOrigins, d.Cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	ah := &handler.AuthHandler{DB: d.DB, JWT: d.JWT}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	me := &handler.MeHandler{}
	r.With(auth.RequireAuth(d.JWT)).Get("/me", me.Me)

	jh := &handler.JobHandler{
		Svc:      d.Jobs,
		Payments: d.Payments,
		Tasks:    d.Tasks,
		DB:       d.DB,
		Clock:    d.Clock,
	}
	ph := &handler.PaymentHandler{Svc: d.Payments, Clock: d.Clock}
	ch := &handler.ClaimHandler{Svc: d.Claims, Tasks: d.Tasks}
	comp := &handler.ComplianceHandler{DB: d.DB, Evaluator: d.Evaluator, Clock: d.Clock}

	r.Route("/jobs", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.With(auth.RequireRole(auth.RoleClient)).Post("/", jh.Create)
		r.Get("/{id}", jh.Get)
		r.Get("/{id}/timeline", jh.Timeline)
		r.Get("/{id}/validate", jh.Validate)
		r.Get("/{id}/split", ph.GetSplit)

		r.With(auth.RequireRole(auth.RoleClient)).Post("/{id}/bidding/open", jh.OpenBidding)
		r.With(auth.RequireRole(auth.RolePlumber)).Post("/{id}/bids", jh.SubmitBid)
		r.With(auth.RequireRole(auth.RoleClient)).Post("/{id}/assign", jh.Assign)

		r.With(auth.RequireRole(auth.RolePlumber)).Post("/{id}/enroute", jh.EnRoute)
		r.With(auth.RequireRole(auth.RolePlumber)).Post("/{id}/start", jh.StartWork)
		r.With(auth.RequireRole(auth.RolePlumber)).Post("/{id}/complete", jh.CompleteWork)

		r.With(auth.RequireRole(auth.RoleClient)).Post("/{id}/pay", jh.Pay)
		r.With(auth.RequireRole(auth.RoleClient)).Post("/{id}/close", jh.Close)
		r.Post("/{id}/cancel", jh.Cancel)
	})

	r.Route("/splits", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.Get("/{id}/release-check", ph.ReleaseCheck)
		r.With(auth.RequireRole(auth.RoleAdmin)).Post("/{id}/release", ph.Release)
	})

	r.Route("/claims", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.With(auth.RequireRole(auth.RoleClient)).Post("/", ch.Submit)
		r.Get("/{id}", ch.Get)
		r.With(auth.RequireRole(auth.RolePlumber)).Post("/{id}/respond", ch.Respond)
		r.With(auth.RequireRole(auth.RoleAdmin)).Post("/{id}/resolve", ch.Resolve)
	})

	r.Route("/compliance", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.With(auth.RequireRole(auth.RolePlumber)).Put("/documents", comp.UpsertDocument)
		r.With(auth.RequireRole(auth.RolePlumber)).Get("/status", comp.Status)
		r.With(auth.RequireRole(auth.RoleAdmin)).Get("/plumbers/{id}", comp.Status)
	})

	return r
}
