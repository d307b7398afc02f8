package app

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"henritrip/api/internal/auth"
)

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ready, checks := s.service.Readiness(ctx)
	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "checks": checks})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": checks})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeOrReject(w, r, &body) {
		return
	}
	result, err := s.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.service.Logout(r.Context(), auth.BearerToken(r.Header.Get("Authorization")))
	writeMessage(w, "Déconnecté.")
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, _ *http.Request, _ httprouter.Params, caller Identity) {
	writeJSON(w, http.StatusOK, s.service.Me(caller))
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request, _ httprouter.Params, caller Identity) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	response, err := s.service.Search(r.Context(), caller, query.Get("q"), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}
