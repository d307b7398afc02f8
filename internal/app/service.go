package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"henritrip/api/internal/auth"
	"henritrip/api/internal/authpw"
	"henritrip/api/internal/config"
	"henritrip/api/internal/email"
	"henritrip/api/internal/export"
	"henritrip/api/internal/rbac"
	"henritrip/api/internal/search"
	"henritrip/api/internal/session"
	"henritrip/api/internal/store"
)

// DataStore is the repository behind the service. store.MemoryStore and
// store.PostgresStore both satisfy it.
type DataStore interface {
	Ping(context.Context) error

	CountUsers(context.Context) (int, error)
	ListUsers(context.Context) ([]store.User, error)
	GetUser(context.Context, int64) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	CreateUser(context.Context, store.User) (store.User, error)
	DeleteUser(context.Context, int64) error

	ListGuides(context.Context) ([]store.Guide, error)
	GetGuide(context.Context, int64) (store.Guide, error)
	CreateGuide(context.Context, store.Guide, []store.GuideDay) (store.Guide, []store.GuideDay, error)
	UpdateGuide(context.Context, store.Guide, []store.GuideDay) ([]int64, error)
	DeleteGuide(context.Context, int64) error

	ListDays(context.Context, int64) ([]store.GuideDay, error)
	GetDay(context.Context, int64) (store.GuideDay, error)
	UpdateDay(context.Context, store.GuideDay) error

	ListActivities(context.Context, int64) ([]store.Activity, error)
	ListGuideActivities(context.Context, int64) ([]store.Activity, error)
	GetActivity(context.Context, int64) (store.Activity, error)
	CreateActivity(context.Context, store.Activity) (store.Activity, error)
	UpdateActivity(context.Context, store.Activity) error
	DeleteActivity(context.Context, int64) error
	SetVisitOrders(context.Context, []store.VisitOrder) error

	ListInvitations(context.Context, int64) ([]store.InvitedUser, error)
	ListInvitedGuideIDs(context.Context, int64) ([]int64, error)
	HasInvitation(context.Context, int64, int64) (bool, error)
	CreateInvitation(context.Context, store.Invitation) error
	DeleteInvitation(context.Context, int64, int64) error
}

// SessionStore maps bearer tokens to user ids.
type SessionStore interface {
	Create(ctx context.Context, token string, userID int64) error
	Lookup(ctx context.Context, token string) (int64, error)
	Revoke(ctx context.Context, token string) error
	RevokeUser(ctx context.Context, userID int64) error
	Ping(ctx context.Context) error
}

// Exporter renders an itinerary in the requested format.
type Exporter interface {
	Export(ctx context.Context, itinerary export.Itinerary, format export.Format) (*export.Result, error)
}

// Notifier tells a user about a new invitation. It must not block.
type Notifier interface {
	NotifyInvitation(to string, guideID int64, guideTitle string)
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID int64
	Email  string
	Role   rbac.Role
	Token  string
}

func (i Identity) IsAdmin() bool {
	return i.Role == rbac.RoleAdmin
}

type UserView struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type LoginResult struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

type Service struct {
	cfg       config.Config
	store     DataStore
	sessions  SessionStore
	passwords *authpw.Service
	search    *search.Service
	exporter  Exporter
	notifier  Notifier
	locks     *guideLocks
	now       func() time.Time
}

// Options carries the optional collaborators of a Service. Without Meili,
// search scans the store directly; a nil Exporter prints through Chromium and
// a nil Notifier is an unconfigured mailer.
type Options struct {
	Meili    *search.Meili
	Exporter Exporter
	Notifier Notifier
}

func New(cfg config.Config, dataStore DataStore, sessions SessionStore, opts Options) *Service {
	s := &Service{
		cfg:       cfg,
		store:     dataStore,
		sessions:  sessions,
		passwords: authpw.NewService(dataStore, cfg.BcryptCost),
		exporter:  opts.Exporter,
		notifier:  opts.Notifier,
		locks:     newGuideLocks(),
		now:       time.Now,
	}
	s.search = search.NewService(opts.Meili, search.NewLocal(s))
	if s.exporter == nil {
		s.exporter = export.NewService()
	}
	if s.notifier == nil {
		s.notifier = email.NewService(email.Config{})
	}
	return s
}

// Bootstrap seeds an empty store when seeding is enabled, then pushes every
// guide and activity to the search index.
func (s *Service) Bootstrap(ctx context.Context) error {
	if s.cfg.Seed {
		count, err := s.store.CountUsers(ctx)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if count == 0 {
			if err := s.seed(ctx); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
		}
	}
	s.search.ReindexAll(ctx, s)
	return nil
}

func (s *Service) Login(ctx context.Context, emailAddress, password string) (LoginResult, error) {
	user, err := s.passwords.SignIn(ctx, emailAddress, password)
	if errors.Is(err, authpw.ErrMissingCredentials) {
		return LoginResult{}, validationError("Email et mot de passe sont obligatoires.", nil)
	}
	if errors.Is(err, authpw.ErrInvalidCredentials) {
		return LoginResult{}, unauthorized("Email ou mot de passe incorrect.")
	}
	if err != nil {
		return LoginResult{}, err
	}

	token := auth.NewSessionToken()
	if err := s.sessions.Create(ctx, token, user.ID); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}
	return LoginResult{Token: token, User: userView(user)}, nil
}

// Logout revokes the token if it is live. Failures are only logged.
func (s *Service) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.sessions.Revoke(ctx, token); err != nil {
		log.Printf("session: revoke failed: %v", err)
	}
}

// Identify resolves the caller from the Authorization header, then from the
// X-User-Id header when that fallback is enabled. A token whose session or
// user is gone resolves to nobody rather than to an error.
func (s *Service) Identify(ctx context.Context, authorization, userIDHeader string) (Identity, bool, error) {
	if token := auth.BearerToken(authorization); token != "" && auth.ValidateShape(token) == nil {
		userID, err := s.sessions.Lookup(ctx, token)
		switch {
		case err == nil:
			return s.identityFor(ctx, userID, token)
		case !errors.Is(err, session.ErrNotFound):
			return Identity{}, false, fmt.Errorf("lookup session: %w", err)
		}
	}

	if s.cfg.AllowUserIDHeader {
		if userID, err := strconv.ParseInt(strings.TrimSpace(userIDHeader), 10, 64); err == nil {
			return s.identityFor(ctx, userID, "")
		}
	}
	return Identity{}, false, nil
}

func (s *Service) identityFor(ctx context.Context, userID int64, token string) (Identity, bool, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return Identity{}, false, nil
	}
	if err != nil {
		return Identity{}, false, fmt.Errorf("get user: %w", err)
	}
	return Identity{
		UserID: user.ID,
		Email:  user.Email,
		Role:   rbac.Normalize(user.Role),
		Token:  token,
	}, true, nil
}

// Close stops background search health checks.
func (s *Service) Close() {
	s.search.Close()
}

func (s *Service) Can(role rbac.Role, action rbac.Action) bool {
	return rbac.Can(role, action)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Readiness pings every backend and reports each outcome by name.
func (s *Service) Readiness(ctx context.Context) (bool, map[string]any) {
	ready := true
	checks := map[string]any{}
	for name, ping := range map[string]func(context.Context) error{
		"store":    s.store.Ping,
		"sessions": s.sessions.Ping,
	} {
		if err := ping(ctx); err != nil {
			ready = false
			checks[name] = map[string]any{"status": "error", "error": err.Error()}
			continue
		}
		checks[name] = map[string]any{"status": "ok"}
	}
	return ready, checks
}

// Search runs a full-text query scoped to the guides the caller can read.
func (s *Service) Search(ctx context.Context, caller Identity, text string, limit int) (search.Response, error) {
	q := search.Query{Text: text, Limit: limit}
	if !s.Can(caller.Role, rbac.ActionReadAll) {
		ids, err := s.store.ListInvitedGuideIDs(ctx, caller.UserID)
		if err != nil {
			return search.Response{}, fmt.Errorf("list invited guides: %w", err)
		}
		q.Scoped = true
		q.GuideIDs = ids
	}
	return s.search.Search(ctx, q), nil
}

// SearchRecords lists every guide and activity in indexable form.
func (s *Service) SearchRecords(ctx context.Context) ([]search.GuideRecord, []search.ActivityRecord, error) {
	guides, err := s.store.ListGuides(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list guides: %w", err)
	}
	guideRecords := make([]search.GuideRecord, 0, len(guides))
	var activityRecords []search.ActivityRecord
	for _, guide := range guides {
		guideRecords = append(guideRecords, guideRecord(guide))
		activities, err := s.store.ListGuideActivities(ctx, guide.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("list activities of guide %d: %w", guide.ID, err)
		}
		for _, activity := range activities {
			activityRecords = append(activityRecords, activityRecord(guide.ID, activity))
		}
	}
	return guideRecords, activityRecords, nil
}

func guideRecord(guide store.Guide) search.GuideRecord {
	return search.GuideRecord{
		ID:          guide.ID,
		GuideID:     guide.ID,
		Title:       guide.Title,
		Description: guide.Description,
		Destination: deref(guide.Destination),
	}
}

func activityRecord(guideID int64, activity store.Activity) search.ActivityRecord {
	return search.ActivityRecord{
		ID:          activity.ID,
		GuideID:     guideID,
		DayID:       activity.GuideDayID,
		Title:       activity.Title,
		Description: activity.Description,
		Address:     activity.Address,
	}
}

func userView(user store.User) UserView {
	return UserView{ID: user.ID, Email: user.Email, Role: string(rbac.Normalize(user.Role))}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// optional trims value and maps blank to nil.
func optional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
