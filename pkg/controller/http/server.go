package http

import (
	"net/http"

	"github.com/fitlens-dev/fitlens/pkg/domain/interfaces"
	"github.com/fitlens-dev/fitlens/pkg/utils/safe"
	"github.com/go-chi/chi/v5"
)

const DefaultMaxUploadSize = 5 << 20 // 5 MiB

type Server struct {
	router        *chi.Mux
	uc            interfaces.FitUsecases
	maxUploadSize int64
}

type Options func(*Server)

// WithMaxUploadSize bounds the accepted upload body in bytes.
func WithMaxUploadSize(size int64) Options {
	return func(s *Server) {
		s.maxUploadSize = size
	}
}

func New(uc interfaces.FitUsecases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:        r,
		uc:            uc,
		maxUploadSize: DefaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(loggingMiddleware)
	r.Use(panicRecoveryMiddleware)

	r.Get("/health", healthHandler)

	r.Route("/fit", func(r chi.Router) {
		r.Post("/start", startHandler(s.uc))
		r.Post("/upload", uploadHandler(s.uc, s.maxUploadSize))
		r.Post("/message", messageHandler(s.uc))
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	safe.Write(r.Context(), w, []byte(`{"status":"ok"}`))
}
