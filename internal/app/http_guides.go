package app

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (s *HTTPServer) handleListGuides(w http.ResponseWriter, r *http.Request, _ httprouter.Params, caller Identity) {
	guides, err := s.service.ListGuides(r.Context(), caller, r.URL.Query().Get("search"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, guides)
}

func (s *HTTPServer) handleGetGuide(w http.ResponseWriter, r *http.Request, ps httprouter.Params, caller Identity) {
	ids, ok := pathIDs(w, ps, "guideId")
	if !ok {
		return
	}
	detail, err := s.service.GetGuideDetail(r.Context(), caller, ids[0])
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// writer checks the caller may mutate before any body or path parsing.
func (s *HTTPServer) writer(w http.ResponseWriter, r *http.Request, caller Identity) bool {
	if err := s.service.requireWrite(caller); err != nil {
		s.respondError(w, r, err)
		return false
	}
	return true
}

func (s *HTTPServer) handleCreateGuide(w http.ResponseWriter, r *http.Request, _ httprouter.Params, caller Identity) {
	if !s.writer(w, r, caller) {
		return
	}
	var body GuideInput
	if !decodeOrReject(w, r, &body) {
		return
	}
	id, err := s.service.CreateGuide(r.Context(), caller, body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/guides/%d", id))
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *HTTPServer) handleUpdateGuide(w http.ResponseWriter, r *http.Request, ps httprouter.Params, caller Identity) {
	if !s.writer(w, r, caller) {
		return
	}
	ids, ok := pathIDs(w, ps, "guideId")
	if !ok {
		return
	}
	var body GuideInput
	if !decodeOrReject(w, r, &body) {
		return
	}
	if err := s.service.UpdateGuide(r.Context(), caller, ids[0], body); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeMessage(w, "Guide modifié.")
}

func (s *HTTPServer) handleDeleteGuide(w http.ResponseWriter, r *http.Request, ps httprouter.Params, caller Identity) {
	if !s.writer(w, r, caller) {
		return
	}
	ids, ok := pathIDs(w, ps, "guideId")
	if !ok {
		return
	}
	if err := s.service.DeleteGuide(r.Context(), caller, ids[0]); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleExportGuide(w http.ResponseWriter, r *http.Request, ps httprouter.Params, caller Identity) {
	ids, ok := pathIDs(w, ps, "guideId")
	if !ok {
		return
	}
	result, err := s.service.ExportGuide(r.Context(), caller, ids[0], r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (s *HTTPServer) handleUpdateDay(w http.ResponseWriter, r *http.Request, ps httprouter.Params, caller Identity) {
	if !s.writer(w, r, caller) {
		return
	}
	ids, ok := pathIDs(w, ps, "guideId", "dayId")
	if !ok {
		return
	}
	var body DayInput
	if !decodeOrReject(w, r, &body) {
		return
	}
	if err := s.service.UpdateDay(r.Context(), caller, ids[0], ids[1], body); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeMessage(w, "Jour modifié.")
}

func (s *HTTPServer) handleCreateActivity(w http.ResponseWriter, r *http.Request, ps httprouter.Params, caller Identity) {
	if !s.writer(w, r, caller) {
		return
	}
	ids, ok := pathIDs(w, ps, "guideId", "dayId")
	if !ok {
		return
	}
	var body ActivityInput
	if !decodeOrReject(w, r, &body) {
		return
	}
	id, err := s.service.CreateActivity(r.Context(), caller, ids[0], ids[1], body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/guides/%d", ids[0]))
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *HTTPServer) handleUpdateActivity(w http.ResponseWriter, r *http.Request, ps httprouter.Params, caller Identity) {
	if !s.writer(w, r, caller) {
		return
	}
	ids, ok := pathIDs(w, ps, "guideId", "dayId", "activityId")
	if !ok {
		return
	}
	var body ActivityInput
	if !decodeOrReject(w, r, &body) {
		return
	}
	if err := s.service.UpdateActivity(r.Context(), caller, ids[0], ids[1], ids[2], body); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeMessage(w, "Activité modifiée.")
}

func (s *HTTPServer) handleDeleteActivity(w http.ResponseWriter, r *http.Request, ps httprouter.Params, caller Identity) {
	if !s.writer(w, r, caller) {
		return
	}
	ids, ok := pathIDs(w, ps, "guideId", "dayId", "activityId")
	if !ok {
		return
	}
	if err := s.service.DeleteActivity(r.Context(), caller, ids[0], ids[1], ids[2]); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleMoveActivity(w http.ResponseWriter, r *http.Request, ps httprouter.Params, caller Identity) {
	if !s.writer(w, r, caller) {
		return
	}
	ids, ok := pathIDs(w, ps, "guideId", "activityId")
	if !ok {
		return
	}
	var body MoveInput
	if !decodeOrReject(w, r, &body) {
		return
	}
	if err := s.service.MoveActivity(r.Context(), caller, ids[0], ids[1], body); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeMessage(w, "Activité déplacée.")
}

func (s *HTTPServer) handleListInvitations(w http.ResponseWriter, r *http.Request, ps httprouter.Params, caller Identity) {
	if !s.writer(w, r, caller) {
		return
	}
	ids, ok := pathIDs(w, ps, "guideId")
	if !ok {
		return
	}
	invitations, err := s.service.ListInvitations(r.Context(), caller, ids[0])
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invitations)
}

func (s *HTTPServer) handleInvite(w http.ResponseWriter, r *http.Request, ps httprouter.Params, caller Identity) {
	if !s.writer(w, r, caller) {
		return
	}
	ids, ok := pathIDs(w, ps, "guideId")
	if !ok {
		return
	}
	var body InvitationInput
	if !decodeOrReject(w, r, &body) {
		return
	}
	if err := s.service.InviteUser(r.Context(), caller, ids[0], body); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeMessage(w, "Invitation ajoutée.")
}

func (s *HTTPServer) handleRevokeInvitation(w http.ResponseWriter, r *http.Request, ps httprouter.Params, caller Identity) {
	if !s.writer(w, r, caller) {
		return
	}
	ids, ok := pathIDs(w, ps, "guideId", "userId")
	if !ok {
		return
	}
	if err := s.service.RevokeInvitation(r.Context(), caller, ids[0], ids[1]); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
