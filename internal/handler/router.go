package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/zhouzirui/geo-chat/backend/internal/handler/assets"
	"github.com/zhouzirui/geo-chat/backend/internal/handler/chat"
	"github.com/zhouzirui/geo-chat/backend/internal/handler/session"
	"github.com/zhouzirui/geo-chat/backend/internal/view"
	"github.com/zhouzirui/geo-chat/backend/pkg/utils"
)

// Options 控制路由行为。
type Options struct {
	Page view.PageOptions
}

// NewRouter wires HTTP routes to core services.
func NewRouter(logger zerolog.Logger, chatSvc chat.Service, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(assets.Static()))))

	chatHandler := chat.New(chatSvc, opts.Page)

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware)

		r.Get(view.HomePath, func(w http.ResponseWriter, r *http.Request) {
			utils.RespondHTML(w, http.StatusOK, view.HomePage())
		})
		chatHandler.RegisterRoutes(r)
	})

	return r
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("http: request served")
}
