// Package httpapi exposes the mirror's document API over HTTP/JSON.
//
// Routes:
//
//	POST   /api/v1/session        exchange access keys for a session token
//	PUT    /api/v1/articles/{id}  create or replace an article document
//	DELETE /api/v1/articles/{id}  remove an article document
//	GET    /api/v1/articles       list documents (keyset pagination)
//	PUT    /api/v1/users/{id}     create or replace a user document
//	DELETE /api/v1/users/{id}     remove a user document
//	GET    /api/v1/users          list documents (keyset pagination)
//
// All collection routes require a Bearer token from /api/v1/session.
package httpapi

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nexuzy/artsync/internal/logging"
	"github.com/nexuzy/artsync/internal/server/repositories/articles"
	"github.com/nexuzy/artsync/internal/server/repositories/users"
)

const (
	defaultListLimit = 200
	maxListLimit     = 1000
)

type Handler struct {
	articles articles.Repository
	users    users.Repository
	logger   logging.Logger

	accessKey     string
	accessSecret  string
	jwtSecret     []byte
	tokenValidity time.Duration
}

type Options struct {
	Articles articles.Repository
	Users    users.Repository
	Logger   logging.Logger

	AccessKey     string
	AccessSecret  string
	JWTSecret     string
	TokenValidity time.Duration
}

func NewHandler(opts Options) *Handler {
	return &Handler{
		articles:      opts.Articles,
		users:         opts.Users,
		logger:        opts.Logger.With("component", "httpapi"),
		accessKey:     opts.AccessKey,
		accessSecret:  opts.AccessSecret,
		jwtSecret:     []byte(opts.JWTSecret),
		tokenValidity: opts.TokenValidity,
	}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", h.openSession)

		r.Group(func(r chi.Router) {
			r.Use(h.requireToken)

			r.Put("/articles/{id}", h.upsertArticle)
			r.Delete("/articles/{id}", h.deleteArticle)
			r.Get("/articles", h.listArticles)

			r.Put("/users/{id}", h.upsertUser)
			r.Delete("/users/{id}", h.deleteUser)
			r.Get("/users", h.listUsers)
		})
	})

	return r
}
