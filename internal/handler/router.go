package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/profscope/backend/internal/handler/ingest"
	"github.com/zhouzirui/profscope/backend/internal/handler/query"
	middlewarePkg "github.com/zhouzirui/profscope/backend/internal/middleware"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(querySvc query.Service, pipeline ingest.Pipeline) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	query.New(querySvc).RegisterRoutes(r)
	ingest.New(pipeline).RegisterRoutes(r)

	return r
}
