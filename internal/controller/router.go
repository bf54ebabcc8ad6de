package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)

	r.Get("/health", c.health)

	r.Route("/api/rooms", func(r chi.Router) {
		r.Post("/", c.createRoom)
		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", c.getRoom)
			r.Post("/join", c.joinRoom)
			r.Get("/queue", c.getQueue)
			r.Post("/next", c.next)
			r.Route("/tracks", func(r chi.Router) {
				r.Post("/", c.addTrack)
				r.Delete("/{track-id}", c.removeTrack)
				r.Post("/{track-id}/vote", c.vote)
			})
			r.Route("/playback", func(r chi.Router) {
				r.Post("/play", c.play)
				r.Post("/pause", c.pause)
				r.Post("/seek", c.seek)
			})
		})
	})

	r.Get("/ws/rooms/{code}", c.serveWS)

	return r
}
