package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"henritrip/api/internal/obs"
	"henritrip/api/internal/util"
)

type HTTPServer struct {
	service      *Service
	corsOrigins  []string
	loginLimiter *rateLimiter
}

func NewHTTPServer(service *Service, corsOrigins []string) *HTTPServer {
	return &HTTPServer{
		service:      service,
		corsOrigins:  corsOrigins,
		loginLimiter: newRateLimiter(service.cfg.LoginRatePerMin, service.cfg.LoginRateBurst),
	}
}

func (s *HTTPServer) Handler() http.Handler {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-User-Id"},
		ExposedHeaders: []string{"Location", "X-Request-ID", "Content-Disposition"},
	}).Handler(s.routes())

	return obs.Instrument(s.withMiddleware(corsHandler))
}

// authedHandle is a handler that runs only for an identified caller.
type authedHandle func(w http.ResponseWriter, r *http.Request, ps httprouter.Params, caller Identity)

func (s *HTTPServer) routes() *httprouter.Router {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Ressource introuvable.", nil)
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Méthode non autorisée.", nil)
	})

	handle := func(method, pattern string, h httprouter.Handle) {
		router.Handle(method, pattern, route(pattern, h))
	}
	authed := func(method, pattern string, h authedHandle) {
		handle(method, pattern, s.requireIdentity(h))
	}

	handle(http.MethodGet, "/api/health", s.handleHealth)
	handle(http.MethodGet, "/api/ready", s.handleReady)
	handle(http.MethodGet, "/metrics", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		obs.Handler().ServeHTTP(w, r)
	})

	handle(http.MethodPost, "/api/auth/login", s.loginLimiter.Limit(s.handleLogin))
	handle(http.MethodPost, "/api/auth/logout", s.handleLogout)
	authed(http.MethodGet, "/api/me", s.handleMe)
	authed(http.MethodGet, "/api/search", s.handleSearch)

	authed(http.MethodGet, "/api/users", s.handleListUsers)
	authed(http.MethodPost, "/api/users", s.handleCreateUser)
	authed(http.MethodDelete, "/api/users/:userId", s.handleDeleteUser)

	authed(http.MethodGet, "/api/guides", s.handleListGuides)
	authed(http.MethodPost, "/api/guides", s.handleCreateGuide)
	authed(http.MethodGet, "/api/guides/:guideId", s.handleGetGuide)
	authed(http.MethodPut, "/api/guides/:guideId", s.handleUpdateGuide)
	authed(http.MethodDelete, "/api/guides/:guideId", s.handleDeleteGuide)
	authed(http.MethodGet, "/api/guides/:guideId/export", s.handleExportGuide)

	authed(http.MethodPut, "/api/guides/:guideId/days/:dayId", s.handleUpdateDay)
	authed(http.MethodPost, "/api/guides/:guideId/days/:dayId/activities", s.handleCreateActivity)
	authed(http.MethodPut, "/api/guides/:guideId/days/:dayId/activities/:activityId", s.handleUpdateActivity)
	authed(http.MethodDelete, "/api/guides/:guideId/days/:dayId/activities/:activityId", s.handleDeleteActivity)
	authed(http.MethodPatch, "/api/guides/:guideId/activities/:activityId/move", s.handleMoveActivity)

	authed(http.MethodGet, "/api/guides/:guideId/invitations", s.handleListInvitations)
	authed(http.MethodPost, "/api/guides/:guideId/invitations", s.handleInvite)
	authed(http.MethodDelete, "/api/guides/:guideId/invitations/:userId", s.handleRevokeInvitation)

	return router
}

// route labels the request with its pattern for metrics and access logs.
func route(pattern string, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		obs.SetRoute(r, pattern)
		next(w, r, ps)
	}
}

func (s *HTTPServer) requireIdentity(next authedHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		caller, ok, err := s.service.Identify(r.Context(), r.Header.Get("Authorization"), r.Header.Get("X-User-Id"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentification requise.", nil)
			return
		}
		next(w, r, ps, caller)
	}
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = util.NewRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		writer.Header().Set("X-Request-ID", requestID)
		writer.Header().Set("Cache-Control", "no-store")
		writer.Header().Set("Content-Type", "application/json")

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","route":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			obs.Route(ctx),
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]any{"message": message})
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":    code,
		"message": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

// respondError writes err as a JSON error. Unexpected errors are logged with
// the request id and reported without detail.
func (s *HTTPServer) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := mapError(err)
	if status == http.StatusInternalServerError {
		log.Printf(`{"request_id":"%s","level":"error","error":%q}`, requestID(r.Context()), err.Error())
	}
	writeError(w, status, code, message, details)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return fmt.Errorf("invalid JSON body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

// decodeOrReject decodes the body into target, answering 400 on failure.
func decodeOrReject(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := decodeBody(r, target); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return false
	}
	return true
}

// pathIDs parses the named path parameters as ids. A malformed id answers 404
// like an unknown one.
func pathIDs(w http.ResponseWriter, ps httprouter.Params, names ...string) ([]int64, bool) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, err := strconv.ParseInt(ps.ByName(name), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Ressource introuvable.", nil)
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Erreur serveur.", nil
}
