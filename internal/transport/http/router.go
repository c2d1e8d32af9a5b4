package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"

	httpmw "github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/transport/http/middleware"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/transport/ws"
)

func NewRouter(h *Handler, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	// WS endpoint; identity claim rides on the query string
	r.Get("/ws", wsServer.HandleWS)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AccessLog)

		pr.Route("/api", func(ar chi.Router) {
			ar.Get("/connections", h.ListConnections)
			ar.Get("/rooms/open", h.ListOpenRooms)
			ar.Get("/rooms/available", h.ListAvailableRooms)
			ar.Get("/visitors", h.ListVisitors)
			ar.Get("/pending", h.ListPending)
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
