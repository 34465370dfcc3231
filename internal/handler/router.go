/*
Package handler provides the HTTP handlers and routing setup for the WhatsGram development backend.

This file defines the main Router, applying middleware like logging, CORS and IP-based rate
limiting before delegating requests to the REST handlers and the presence WebSocket.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"whatsgram/internal/pkg/auth/jwt"
	"whatsgram/internal/pkg/limiter"
	"whatsgram/internal/pkg/logx"
	"whatsgram/internal/pkg/resp"
)

const (
	AuthRate  = 1
	AuthBurst = 10
	WSRate    = 0.5
	WSBurst   = 10
)

// Router sets up the routing table of the development backend.
// The returned cleanup func stops the rate limiter sweepers.
func Router(deps *AppDeps) (http.Handler, func()) {
	authLimiter := limiter.New(rate.Limit(AuthRate), AuthBurst)
	wsLimiter := limiter.New(rate.Limit(WSRate), WSBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || deps.Config.IsDevelopment() {
				return true
			}

			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":  "ok",
			"service": "WhatsGram DevServer",
			"online":  len(deps.Hub.Online()),
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/auth", func(auth chi.Router) {
			auth.With(authLimiter.Middleware).Post("/register", HandleRegister(deps))
			auth.With(authLimiter.Middleware).Post("/login", HandleLogin(deps))
			auth.Post("/logout", HandleLogout(deps))
		})

		api.Group(func(protected chi.Router) {
			protected.Use(jwt.RequireIdentity)

			protected.Get("/user/currentChats", HandleCurrentChats(deps))
			protected.Get("/user/search", HandleSearchUsers(deps))

			protected.Get("/message/{id}", HandleGetMessages(deps))
			protected.Post("/message/send/{id}", HandleSendMessage(deps))
		})
	})

	r.Get("/ws", HandleWebSocket(deps, wsUpgrader, wsLimiter))

	cleanup := func() {
		authLimiter.Close()
		wsLimiter.Close()
	}

	return r, cleanup
}
