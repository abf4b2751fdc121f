package routing

import (
	"context"
	"errors"
	"net/http"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"scanteate/pkg/activity"
	"scanteate/pkg/actsession"
	"scanteate/pkg/audit"
	"scanteate/pkg/auth"
	"scanteate/pkg/emotion"
	"scanteate/pkg/handlers"
	"scanteate/pkg/middleware"
	"scanteate/pkg/record"
	"scanteate/pkg/session"
	"scanteate/pkg/user"
)

// Services are the dependencies the HTTP layer is built from.
type Services struct {
	Sessions    middleware.Validator
	Auth        auth.ServiceInterface
	Users       user.ServiceInterface
	Activities  record.Store[activity.Activity]
	ActSessions record.Store[actsession.ActSession]
	Emotions    record.Store[emotion.Emotion]
	// Audit is optional; nil disables request auditing.
	Audit audit.Repository
}

type guards struct {
	auth   *middleware.Auth
	audit  func(http.Handler) http.Handler
	short  func(http.Handler) http.Handler
	full   func(http.Handler) http.Handler
	admin  func(http.Handler) http.Handler
	public func(http.Handler) http.Handler
}

func newGuards(a *middleware.Auth, repo audit.Repository, logger *zap.Logger) *guards {
	g := &guards{
		auth:   a,
		short:  a.Require(session.Short),
		full:   a.Require(session.Full),
		admin:  a.RequireAdmin(),
		public: func(h http.Handler) http.Handler { return h },
	}
	g.audit = g.public
	if repo != nil {
		g.audit = middleware.Audit(repo, logger)
	}
	return g
}

// wrap puts the audit layer inside the auth layer so it sees the claims.
func (g *guards) wrap(mw func(http.Handler) http.Handler, h http.HandlerFunc) http.Handler {
	return mw(g.audit(h))
}

func InitRoutes(api *mux.Router, s Services, header string, logger *zap.Logger) {
	g := newGuards(middleware.NewAuth(s.Sessions, header, logger), s.Audit, logger)

	userHandler := handlers.NewUserHandler(s.Auth, s.Users, g.auth.Token, logger)
	activityHandler := handlers.NewRecordHandler[activity.Activity](s.Activities, "Activity", logger)
	actSessionHandler := handlers.NewRecordHandler[actsession.ActSession](s.ActSessions, "ActSession", logger)
	emotionHandler := handlers.NewRecordHandler[emotion.Emotion](s.Emotions, "Emotion", logger)

	/* -+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+ */

	usersRouter := api.PathPrefix("/users").Subrouter()

	/* user routers */
	usersRouter.HandleFunc("", userHandler.Register).Methods("POST").Name("register")
	usersRouter.HandleFunc("/login", userHandler.Login).Methods("POST").Name("login")
	usersRouter.HandleFunc("/logout", userHandler.Logout).Methods("POST").Name("logout")
	usersRouter.Handle("", g.wrap(g.admin, userHandler.List)).Methods("GET")
	usersRouter.Handle("/profile", g.wrap(g.full, userHandler.Profile)).Methods("GET")
	usersRouter.Handle("/unauth/{id:[0-9]+}", g.wrap(g.admin, userHandler.SignOut)).Methods("POST")

	/* user emotion routers */
	usersRouter.Handle("/emotions", g.wrap(g.short, emotionHandler.Create)).Methods("POST")
	usersRouter.Handle("/emotions/{id:[0-9]+}", g.wrap(g.short, emotionHandler.ListByUser)).Methods("GET")
	usersRouter.Handle("/emotions/{id:[0-9]+}", g.wrap(g.full, emotionHandler.Delete)).Methods("DELETE")

	usersRouter.Handle("/{id:[0-9]+}", g.wrap(g.short, userHandler.Get)).Methods("GET")
	usersRouter.Handle("/{id:[0-9]+}", g.wrap(g.short, userHandler.Update)).Methods("PUT")
	usersRouter.Handle("/{id:[0-9]+}", g.wrap(g.full, userHandler.Delete)).Methods("DELETE")

	/* record routers */
	mountRecords(api.PathPrefix("/activities").Subrouter(), g, activityHandler)
	mountRecords(api.PathPrefix("/sessions").Subrouter(), g, actSessionHandler)
	mountRecords(api.PathPrefix("/emotions").Subrouter(), g, emotionHandler)

	/* audit routers */
	if s.Audit != nil {
		auditHandler := handlers.NewAuditHandler(s.Audit, logger)
		api.Handle("/audit/{userId:[0-9]+}", g.admin(http.HandlerFunc(auditHandler.ByUser))).Methods("GET")
	}

	api.HandleFunc("/health", handlers.Health).Methods("GET").Name("health")
}

func mountRecords[T any, PT interface {
	*T
	record.Model
}](r *mux.Router, g *guards, h *handlers.RecordHandler[T, PT]) {
	r.Handle("", g.wrap(g.admin, h.List)).Methods("GET")
	r.Handle("", g.wrap(g.short, h.Create)).Methods("POST")
	r.Handle("/{id:[0-9]+}", g.wrap(g.short, h.Get)).Methods("GET")
	r.Handle("/{id:[0-9]+}", g.wrap(g.short, h.Update)).Methods("PUT")
	r.Handle("/{id:[0-9]+}", g.wrap(g.full, h.Delete)).Methods("DELETE")
}

// NewHandler builds the complete HTTP handler: /api routes behind panic
// recovery and access logging, a JSON 404 fallback, and CORS.
func NewHandler(s Services, header string, origins []string, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Panic(logger))
	api.Use(middleware.AccessLog(logger))

	InitRoutes(api, s, header, logger)
	ServeFallback(r)
	return CORS(origins)(r)
}

// ServeFallback answers unknown paths with the same JSON 404 the handlers use.
func ServeFallback(r *mux.Router) {
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not found"}`))
	})
}

func CORS(origins []string) func(http.Handler) http.Handler {
	return gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(origins),
		gorillahandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "auth"}),
	)
}

// StartServer serves until ctx is cancelled and then shuts down gracefully.
func StartServer(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("the server is running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
