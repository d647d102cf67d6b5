package http

import (
	"net/http"
	"time"

	"github.com/AgentPisite999/Car-Site/internal/http/handlers"
	httpmw "github.com/AgentPisite999/Car-Site/internal/http/middleware"
	"github.com/AgentPisite999/Car-Site/internal/http/response"
	"github.com/AgentPisite999/Car-Site/internal/metrics"
)

type RouterDependencies struct {
	AuthHandler      *handlers.AuthHandler
	PageHandler      *handlers.PageHandler
	ScreeningHandler *handlers.ScreeningHandler
	PaymentHandler   *handlers.PaymentHandler
	Limiter          httpmw.Limiter
	Metrics          *metrics.Collector
	RequestTimeout   time.Duration
	MaxBodyBytes     int64
	LoginPerMin      int
	SubmitPerMin     int
}

type Router struct {
	deps RouterDependencies
}

func NewRouter(deps RouterDependencies) http.Handler {
	r := &Router{deps: deps}
	return httpmw.Chain(r.baseHandler(), httpmw.RequestID, httpmw.Logging, httpmw.BodyLimit(deps.MaxBodyBytes), httpmw.Recover, httpmw.Metrics(deps.Metrics), httpmw.Timeout(deps.RequestTimeout))
}

func (r *Router) baseHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path

		switch {
		case req.Method == http.MethodGet && path == "/health":
			response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		case req.Method == http.MethodGet && path == "/metrics":
			metrics.NewHandler(r.deps.Metrics).ServeHTTP(w, req)
			return
		case req.Method == http.MethodGet && path == "/":
			r.deps.AuthHandler.LoginPage(w, req)
			return
		case req.Method == http.MethodPost && path == "/auth/google":
			r.limited(r.deps.AuthHandler.GoogleCallback, "login", r.deps.LoginPerMin).ServeHTTP(w, req)
			return
		case req.Method == http.MethodPost && path == "/logout":
			r.deps.AuthHandler.Logout(w, req)
			return
		case req.Method == http.MethodGet && path == "/home":
			r.deps.PageHandler.Home(w, req)
			return
		case req.Method == http.MethodPost && path == "/screening":
			r.limited(r.deps.ScreeningHandler.Submit, "screening", r.deps.SubmitPerMin).ServeHTTP(w, req)
			return
		case req.Method == http.MethodPost && path == "/payment/lookup":
			r.deps.PaymentHandler.Lookup(w, req)
			return
		case req.Method == http.MethodPost && path == "/payment/order":
			r.deps.PaymentHandler.Order(w, req)
			return
		case req.Method == http.MethodPost && path == "/payment/verify":
			r.deps.PaymentHandler.Verify(w, req)
			return
		}

		http.NotFound(w, req)
	})
}

func (r *Router) limited(handler http.HandlerFunc, prefix string, limit int) http.Handler {
	keyFn := func(req *http.Request) string {
		return prefix + ":" + httpmw.ClientIP(req)
	}
	return httpmw.RateLimit(r.deps.Limiter, keyFn, limit, time.Minute)(handler)
}
