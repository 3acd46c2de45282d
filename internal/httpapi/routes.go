package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/commander-election/internal/hub"
	"github.com/DoyleJ11/commander-election/internal/ws"
)

func SetupRoutes(h *hub.Hub, wsOpts ws.Options, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()

	// Public routes
	r.Post("/matches", CreateMatch(h, log))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, wsOpts, log))

	r.Route("/matches/{code}", func(r chi.Router) {
		r.Get("/", GetMatch(h))
		r.Delete("/", RemoveMatch(h))
		r.Post("/round", StartRound(h))

		// Game-server hooks
		r.Post("/kick-poll", KickPoll(h))
		r.Delete("/elections/{side}", CancelElection(h))
		r.Post("/eliminations", UnitEliminated(h))
		r.Post("/participants/{participant}/side", ChangeSide(h))
		r.Post("/participants/{participant}/restrictions", SetRestrictions(h))
	})
	return r
}
