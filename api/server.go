package api

import (
	"context"
	"net/http"
	"time"

	"reflector/config"
	"reflector/contract"
	"reflector/service"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

// ContractProvider returns the deployed contract's address and ABI
type ContractProvider interface {
	Get() (*contract.Deployment, error)
}

// Pinger reports whether the database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the HTTP handlers and their dependencies
type Server struct {
	users     service.UserService
	games     service.GameService
	stakes    service.StakeService
	contracts ContractProvider
	db        Pinger
	hub       *Hub

	tokenAuth   *jwtauth.JWTAuth
	sessionTTL  time.Duration
	corsOrigins []string
	rateLimit   int
}

// NewServer creates the HTTP server for the given services
func NewServer(cfg *config.Config, users service.UserService, games service.GameService, stakes service.StakeService, contracts ContractProvider, db Pinger, hub *Hub) *Server {
	return &Server{
		users:       users,
		games:       games,
		stakes:      stakes,
		contracts:   contracts,
		db:          db,
		hub:         hub,
		tokenAuth:   jwtauth.New("HS256", []byte(cfg.JWTSecret), nil),
		sessionTTL:  cfg.SessionTTL,
		corsOrigins: cfg.CORSOrigins,
		rateLimit:   cfg.RateLimit,
	}
}

// Router builds the chi router with the middleware stack and all routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	if s.rateLimit > 0 {
		r.Use(httprate.LimitByIP(s.rateLimit, 1*time.Minute))
	}

	r.Route("/v1", func(r chi.Router) {
		// Long-lived, so kept out of the request timeout
		r.Get("/games/{id}/live", s.handleLive)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/health", s.handleHealth)
			r.Get("/contract", s.handleContract)
			r.Post("/auth/connect", s.handleConnect)

			r.Get("/users", s.handleListUsers)
			r.Get("/users/id/{id}", s.handleGetUserByID)
			r.Get("/users/{wallet}", s.handleGetUserByWallet)
			r.Get("/users/{wallet}/stakes", s.handleGetStakerGames)

			r.Get("/games", s.handleListGames)
			r.Get("/games/{id}", s.handleGetGame)
			r.Get("/games/{id}/players", s.handleGetPlayers)
			r.Get("/games/{id}/stakes", s.handleGetStakes)

			// Secure routes
			r.Group(func(r chi.Router) {
				r.Use(jwtauth.Verifier(s.tokenAuth))
				r.Use(s.authenticator)

				r.Get("/me", s.handleMe)
				r.Post("/me/onboard", s.handleOnboard)

				r.Post("/games", s.handleCreateGame)
				r.Post("/games/{id}/players", s.handleJoinAsPlayer)
				r.Post("/games/{id}/stakes", s.handleJoinAsStaker)
				r.Post("/games/{id}/status", s.handleUpdateStatus)
				r.Post("/games/{id}/action", s.handleRecordAction)
			})
		})
	})

	return r
}

// requestLogger logs one line per request with logrus
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log.WithFields(log.Fields{
				"method":    r.Method,
				"path":      r.URL.Path,
				"remote":    r.RemoteAddr,
				"status":    ww.Status(),
				"bytes":     ww.BytesWritten(),
				"duration":  time.Since(start).String(),
				"requestID": middleware.GetReqID(r.Context()),
			}).Info("HTTP request")
		}()

		next.ServeHTTP(ww, r)
	})
}
