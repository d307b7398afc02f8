package app

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params, caller Identity) {
	users, err := s.service.ListUsers(r.Context(), caller)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *HTTPServer) handleCreateUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params, caller Identity) {
	if err := s.service.requireUserAdmin(caller); err != nil {
		s.respondError(w, r, err)
		return
	}
	var body CreateUserInput
	if !decodeOrReject(w, r, &body) {
		return
	}
	user, err := s.service.CreateUser(r.Context(), caller, body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/users/%d", user.ID))
	writeJSON(w, http.StatusCreated, user)
}

func (s *HTTPServer) handleDeleteUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params, caller Identity) {
	if err := s.service.requireUserAdmin(caller); err != nil {
		s.respondError(w, r, err)
		return
	}
	ids, ok := pathIDs(w, ps, "userId")
	if !ok {
		return
	}
	if err := s.service.DeleteUser(r.Context(), caller, ids[0]); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
