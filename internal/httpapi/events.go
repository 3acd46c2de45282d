package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/commander-election/internal/battle"
	"github.com/DoyleJ11/commander-election/internal/hub"
	"github.com/DoyleJ11/commander-election/internal/match"
)

// Game-server hooks. The simulation that owns kick polls, team changes,
// moderation and combat reports them here.

func KickPoll(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Active bool `json:"active"`
		}
		if !decode(w, r, &body) {
			return
		}
		if body.Active {
			post(h, w, r, match.KickPollStarted{})
		} else {
			post(h, w, r, match.KickPollEnded{})
		}
	}
}

func CancelElection(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		side, ok := battle.ParseSide(chi.URLParam(r, "side"))
		if !ok || side == battle.SideNone {
			http.Error(w, "bad side", http.StatusBadRequest)
			return
		}
		post(h, w, r, match.CancelElection{Side: side})
	}
}

func ChangeSide(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Side string `json:"side"`
		}
		if !decode(w, r, &body) {
			return
		}
		side, ok := battle.ParseSide(body.Side)
		if !ok {
			http.Error(w, "bad side", http.StatusBadRequest)
			return
		}
		post(h, w, r, match.ChangeSide{ClientID: participant(r), Side: side})
	}
}

func SetRestrictions(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Muted          bool `json:"muted"`
			ChatRestricted bool `json:"chat_restricted"`
		}
		if !decode(w, r, &body) {
			return
		}
		post(h, w, r, match.SetRestrictions{
			ClientID:       participant(r),
			Muted:          body.Muted,
			ChatRestricted: body.ChatRestricted,
		})
	}
}

func UnitEliminated(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Killer battle.ParticipantID `json:"killer"`
			Victim battle.ParticipantID `json:"victim"`
		}
		if !decode(w, r, &body) {
			return
		}
		if body.Victim == battle.NoParticipant {
			http.Error(w, "missing victim", http.StatusBadRequest)
			return
		}
		post(h, w, r, match.UnitEliminated{Killer: body.Killer, Victim: body.Victim})
	}
}

func participant(r *http.Request) battle.ParticipantID {
	return battle.ParticipantID(chi.URLParam(r, "participant"))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}
