package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/choreweek/internal/archive"
	"github.com/dukerupert/choreweek/internal/handler"
	"github.com/dukerupert/choreweek/internal/metrics"
	"github.com/dukerupert/choreweek/internal/middleware"
	"github.com/dukerupert/choreweek/internal/tracker"
	ws "github.com/dukerupert/choreweek/internal/websocket"
)

type Deps struct {
	Tracker *tracker.Tracker
	Hub     *ws.Hub
	Metrics *metrics.Metrics
	Archive *archive.Archiver

	// PushStore is nil when web push is disabled.
	PushStore      handler.PushStore
	VAPIDPublicKey string

	AllowedOrigins  []string
	LoginRateLimit  int
	LoginRateWindow time.Duration

	Logger *slog.Logger
}

type Server struct {
	tracker        *tracker.Tracker
	hub            *ws.Hub
	metrics        *metrics.Metrics
	archive        *archive.Archiver
	stateH         *handler.StateHandler
	memberH        *handler.MemberHandler
	taskH          *handler.TaskHandler
	rewardH        *handler.RewardHandler
	infractionH    *handler.InfractionHandler
	sessionH       *handler.SessionHandler
	historyH       *handler.HistoryHandler
	pushH          *handler.PushHandler
	rateLimiter    *middleware.RateLimiter
	allowedOrigins []string
	logger         *slog.Logger
}

func New(d Deps) *Server {
	logger := d.Logger
	t := d.Tracker

	var pushH *handler.PushHandler
	if d.PushStore != nil {
		pushH = handler.NewPushHandler(d.PushStore, d.VAPIDPublicKey, logger.With("component", "push_handler"))
	}

	s := &Server{
		tracker:        t,
		hub:            d.Hub,
		metrics:        d.Metrics,
		archive:        d.Archive,
		stateH:         handler.NewStateHandler(t, logger.With("component", "state")),
		memberH:        handler.NewMemberHandler(t, logger.With("component", "member")),
		taskH:          handler.NewTaskHandler(t, logger.With("component", "task")),
		rewardH:        handler.NewRewardHandler(t, logger.With("component", "reward")),
		infractionH:    handler.NewInfractionHandler(t, logger.With("component", "infraction")),
		sessionH:       handler.NewSessionHandler(t, logger.With("component", "session")),
		historyH:       handler.NewHistoryHandler(t, logger.With("component", "history")),
		pushH:          pushH,
		allowedOrigins: d.AllowedOrigins,
		logger:         logger,
	}

	limit, window := d.LoginRateLimit, d.LoginRateWindow
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	s.rateLimiter = middleware.NewRateLimiter(limit, window)
	return s
}

// RateLimiter returns the login rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	outerMux.HandleFunc("GET /healthz", s.healthHandler)
	outerMux.Handle("GET /metrics", s.metrics.Handler())
	// The websocket route stays outside the metrics middleware so the
	// upgrade sees a hijackable writer.
	outerMux.HandleFunc("GET /ws", ws.Handler(s.hub, s.allowedOrigins, s.logger.With("component", "websocket")))

	apiMux := http.NewServeMux()
	s.registerRoutes(apiMux)
	outerMux.Handle("/api/", s.metrics.Middleware(apiMux))

	return middleware.RequestLogger(s.logger.With("component", "http"), "/healthz", "/metrics")(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	}
	if s.archive != nil {
		resp["archive"] = s.archive.Status()
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc)
	return rl(h).ServeHTTP
}

func (s *Server) adminHandler(h http.HandlerFunc) http.HandlerFunc {
	return middleware.RequireAdmin(s.tracker.IsAdmin)(h).ServeHTTP
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	admin := s.adminHandler

	mux.HandleFunc("GET /api/state", s.stateH.Get)

	// Members
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("POST /api/members", admin(s.memberH.Create))
	mux.HandleFunc("PUT /api/members/{id}", admin(s.memberH.Update))
	mux.HandleFunc("DELETE /api/members/{id}", admin(s.memberH.Delete))

	// Tasks; marking is open to kiosk use
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", admin(s.taskH.Create))
	mux.HandleFunc("PUT /api/tasks/{id}", admin(s.taskH.Update))
	mux.HandleFunc("DELETE /api/tasks/{id}", admin(s.taskH.Delete))
	mux.HandleFunc("POST /api/tasks/{id}/mark", s.taskH.Mark)

	// Rewards
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("POST /api/rewards", admin(s.rewardH.Create))
	mux.HandleFunc("PUT /api/rewards/{id}", admin(s.rewardH.Update))
	mux.HandleFunc("DELETE /api/rewards/{id}", admin(s.rewardH.Delete))
	mux.HandleFunc("POST /api/rewards/{id}/claim", s.rewardH.Claim)
	mux.HandleFunc("GET /api/rewards/{id}/eligibility", s.rewardH.Eligibility)

	// Infractions
	mux.HandleFunc("GET /api/infraction-types", s.infractionH.ListTypes)
	mux.HandleFunc("POST /api/infraction-types", admin(s.infractionH.CreateType))
	mux.HandleFunc("PUT /api/infraction-types/{id}", admin(s.infractionH.UpdateType))
	mux.HandleFunc("DELETE /api/infraction-types/{id}", admin(s.infractionH.DeleteType))
	mux.HandleFunc("GET /api/infractions", s.infractionH.List)
	mux.HandleFunc("POST /api/infractions", admin(s.infractionH.Penalize))
	mux.HandleFunc("POST /api/infractions/{id}/compensate", admin(s.infractionH.Compensate))

	// Session, PIN and configuration
	mux.HandleFunc("GET /api/session", s.sessionH.Status)
	mux.HandleFunc("POST /api/session", s.rateLimitedHandler(s.sessionH.Login))
	mux.HandleFunc("DELETE /api/session", s.sessionH.Logout)
	mux.HandleFunc("PUT /api/pin", admin(s.sessionH.ChangePIN))
	mux.HandleFunc("GET /api/config", s.sessionH.GetConfig)
	mux.HandleFunc("PUT /api/config", admin(s.sessionH.UpdateConfig))

	// History
	mux.HandleFunc("GET /api/history", s.historyH.List)
	mux.HandleFunc("GET /api/history/export.csv", s.historyH.Export)
	mux.HandleFunc("POST /api/history/reset", admin(s.historyH.Reset))

	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
		mux.HandleFunc("GET /api/push/subscriptions", admin(s.pushH.List))
		mux.HandleFunc("POST /api/push/subscriptions", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions", s.pushH.Unsubscribe)
	}
}
