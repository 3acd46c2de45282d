package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/commander-election/internal/hub"
	"github.com/DoyleJ11/commander-election/internal/match"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func lookup(h *hub.Hub, code string) *match.Match {
	reply := make(chan *match.Match, 1)
	h.Inbox() <- hub.GetMatch{Code: code, Reply: reply}
	return <-reply
}

func CreateMatch(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			if lookup(h, c) == nil {
				code = c
				break
			}
			log.Debug("collision on code, regenerating", zap.String("match", c))
		}

		reply := make(chan *match.Match, 1)
		h.Inbox() <- hub.EnsureMatch{Code: code, Reply: reply}
		if <-reply == nil {
			http.Error(w, "failed to create match", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

// GetMatch reports elections, commanders and stats for one match.
func GetMatch(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mt := lookup(h, chi.URLParam(r, "code"))
		if mt == nil {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}

		reply := make(chan match.View, 1)
		select {
		case mt.Inbox() <- match.GetState{Reply: reply}:
		case <-mt.Done():
			http.Error(w, "match not found", http.StatusNotFound)
			return
		case <-r.Context().Done():
			return
		}

		select {
		case v := <-reply:
			writeJSON(w, http.StatusOK, v)
		case <-mt.Done():
			http.Error(w, "match not found", http.StatusNotFound)
		case <-r.Context().Done():
		}
	}
}

// StartRound ends the warm-up so elections may open.
func StartRound(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post(h, w, r, match.StartRound{})
	}
}

func RemoveMatch(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if lookup(h, code) == nil {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}
		h.Inbox() <- hub.RemoveMatch{Code: code}
		w.WriteHeader(http.StatusNoContent)
	}
}

// post delivers msg to the match named in the URL and answers 202.
func post(h *hub.Hub, w http.ResponseWriter, r *http.Request, msg match.Msg) {
	mt := lookup(h, chi.URLParam(r, "code"))
	if mt == nil {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	select {
	case mt.Inbox() <- msg:
		w.WriteHeader(http.StatusAccepted)
	case <-mt.Done():
		http.Error(w, "match not found", http.StatusNotFound)
	case <-r.Context().Done():
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
