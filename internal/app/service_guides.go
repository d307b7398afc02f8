package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"henritrip/api/internal/export"
	"henritrip/api/internal/rbac"
	"henritrip/api/internal/store"
)

type GuideListItem struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Destination   *string `json:"destination"`
	CoverImageURL *string `json:"coverImageUrl"`
	DaysCount     int     `json:"daysCount"`
	Mobility      string  `json:"mobility"`
	Season        string  `json:"season"`
	ForWho        string  `json:"forWho"`
}

type GuideDetail struct {
	GuideListItem
	Days           []DayView `json:"days"`
	InvitedUserIDs []int64   `json:"invitedUserIds"`
}

type DayView struct {
	ID         int64          `json:"id"`
	DayNumber  int            `json:"dayNumber"`
	Title      string         `json:"title"`
	Date       *string        `json:"date"`
	Activities []ActivityView `json:"activities"`
}

type ActivityView struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	Address      string  `json:"address"`
	PhoneNumber  *string `json:"phoneNumber"`
	OpeningHours *string `json:"openingHours"`
	Website      *string `json:"website"`
	StartTime    *string `json:"startTime"`
	EndTime      *string `json:"endTime"`
	ForWho       string  `json:"forWho"`
	VisitOrder   int     `json:"visitOrder"`
}

// maxNumberOfDays bounds guide length so days can be scaffolded eagerly.
const maxNumberOfDays = 365

type GuideInput struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	NumberOfDays  int     `json:"numberOfDays"`
	Mobility      string  `json:"mobility"`
	Season        string  `json:"season"`
	ForWho        string  `json:"forWho"`
	Destination   *string `json:"destination"`
	CoverImageURL *string `json:"coverImageUrl"`
}

type DayInput struct {
	Title string  `json:"title"`
	Date  *string `json:"date"`
}

// ListGuides returns the guides visible to caller, optionally filtered by a
// case-insensitive substring of title, description or destination.
func (s *Service) ListGuides(ctx context.Context, caller Identity, term string) ([]GuideListItem, error) {
	guides, err := s.store.ListGuides(ctx)
	if err != nil {
		return nil, fmt.Errorf("list guides: %w", err)
	}

	visible := func(int64) bool { return true }
	if !s.Can(caller.Role, rbac.ActionReadAll) {
		ids, err := s.store.ListInvitedGuideIDs(ctx, caller.UserID)
		if err != nil {
			return nil, fmt.Errorf("list invited guides: %w", err)
		}
		invited := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			invited[id] = struct{}{}
		}
		visible = func(id int64) bool {
			_, ok := invited[id]
			return ok
		}
	}

	term = strings.ToLower(strings.TrimSpace(term))
	items := make([]GuideListItem, 0, len(guides))
	for _, guide := range guides {
		if !visible(guide.ID) || !guideMatches(guide, term) {
			continue
		}
		items = append(items, guideListItem(guide))
	}
	return items, nil
}

func guideMatches(guide store.Guide, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(guide.Title), term) ||
		strings.Contains(strings.ToLower(guide.Description), term) ||
		strings.Contains(strings.ToLower(deref(guide.Destination)), term)
}

func (s *Service) GetGuideDetail(ctx context.Context, caller Identity, guideID int64) (GuideDetail, error) {
	unlock := s.locks.rlock(guideID)
	defer unlock()

	guide, err := s.readableGuide(ctx, caller, guideID)
	if err != nil {
		return GuideDetail{}, err
	}

	days, err := s.store.ListDays(ctx, guideID)
	if err != nil {
		return GuideDetail{}, fmt.Errorf("list days: %w", err)
	}
	detail := GuideDetail{
		GuideListItem:  guideListItem(guide),
		Days:           make([]DayView, 0, len(days)),
		InvitedUserIDs: []int64{},
	}
	for _, day := range days {
		activities, err := s.store.ListActivities(ctx, day.ID)
		if err != nil {
			return GuideDetail{}, fmt.Errorf("list activities: %w", err)
		}
		view := DayView{
			ID:         day.ID,
			DayNumber:  day.DayNumber,
			Title:      day.Title,
			Date:       formatDate(day.Date),
			Activities: make([]ActivityView, 0, len(activities)),
		}
		for _, activity := range activities {
			view.Activities = append(view.Activities, activityView(activity))
		}
		detail.Days = append(detail.Days, view)
	}

	invited, err := s.store.ListInvitations(ctx, guideID)
	if err != nil {
		return GuideDetail{}, fmt.Errorf("list invitations: %w", err)
	}
	for _, invitation := range invited {
		detail.InvitedUserIDs = append(detail.InvitedUserIDs, invitation.UserID)
	}
	return detail, nil
}

// readableGuide loads the guide and checks that caller may read it. An
// unknown guide is reported before a denied one.
func (s *Service) readableGuide(ctx context.Context, caller Identity, guideID int64) (store.Guide, error) {
	guide, err := s.getGuide(ctx, guideID)
	if err != nil {
		return store.Guide{}, err
	}
	allowed, err := s.canReadGuide(ctx, caller, guideID)
	if err != nil {
		return store.Guide{}, err
	}
	if !allowed {
		return store.Guide{}, forbidden()
	}
	return guide, nil
}

func (s *Service) getGuide(ctx context.Context, guideID int64) (store.Guide, error) {
	guide, err := s.store.GetGuide(ctx, guideID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Guide{}, notFound(msgGuideNotFound)
	}
	if err != nil {
		return store.Guide{}, fmt.Errorf("get guide: %w", err)
	}
	return guide, nil
}

// getGuideDay loads a day and checks it belongs to guideID.
func (s *Service) getGuideDay(ctx context.Context, guideID, dayID int64, missing string) (store.GuideDay, error) {
	day, err := s.store.GetDay(ctx, dayID)
	if errors.Is(err, store.ErrNotFound) || err == nil && day.GuideID != guideID {
		return store.GuideDay{}, notFound(missing)
	}
	if err != nil {
		return store.GuideDay{}, fmt.Errorf("get day: %w", err)
	}
	return day, nil
}

func (s *Service) CreateGuide(ctx context.Context, caller Identity, input GuideInput) (int64, error) {
	if err := s.requireWrite(caller); err != nil {
		return 0, err
	}
	guide, err := input.validate()
	if err != nil {
		return 0, err
	}
	guide.CreatedByUserID = caller.UserID

	days := make([]store.GuideDay, 0, guide.NumberOfDays)
	for n := 1; n <= guide.NumberOfDays; n++ {
		days = append(days, scaffoldDay(n))
	}
	created, _, err := s.store.CreateGuide(ctx, guide, days)
	if err != nil {
		return 0, fmt.Errorf("create guide: %w", err)
	}
	s.search.IndexGuide(guideRecord(created))
	return created.ID, nil
}

// UpdateGuide rewrites the guide fields and grows or shrinks its days to
// match numberOfDays. Shrinking drops the trailing days with their activities.
func (s *Service) UpdateGuide(ctx context.Context, caller Identity, guideID int64, input GuideInput) error {
	if err := s.requireWrite(caller); err != nil {
		return err
	}
	unlock := s.locks.lock(guideID)
	defer unlock()

	current, err := s.getGuide(ctx, guideID)
	if err != nil {
		return err
	}
	guide, err := input.validate()
	if err != nil {
		return err
	}
	guide.ID = current.ID
	guide.CreatedByUserID = current.CreatedByUserID

	days, err := s.store.ListDays(ctx, guideID)
	if err != nil {
		return fmt.Errorf("list days: %w", err)
	}
	var added []store.GuideDay
	for n := len(days) + 1; n <= guide.NumberOfDays; n++ {
		added = append(added, scaffoldDay(n))
	}
	dropped, err := s.store.UpdateGuide(ctx, guide, added)
	if errors.Is(err, store.ErrNotFound) {
		return notFound(msgGuideNotFound)
	}
	if err != nil {
		return fmt.Errorf("update guide: %w", err)
	}
	s.search.IndexGuide(guideRecord(guide))
	s.search.DeleteActivities(dropped)
	return nil
}

func scaffoldDay(n int) store.GuideDay {
	return store.GuideDay{DayNumber: n, Title: fmt.Sprintf("Jour %d", n)}
}

func (s *Service) DeleteGuide(ctx context.Context, caller Identity, guideID int64) error {
	if err := s.requireWrite(caller); err != nil {
		return err
	}
	unlock := s.locks.lock(guideID)
	defer unlock()

	if _, err := s.getGuide(ctx, guideID); err != nil {
		return err
	}
	activities, err := s.store.ListGuideActivities(ctx, guideID)
	if err != nil {
		return fmt.Errorf("list activities: %w", err)
	}
	if err := s.store.DeleteGuide(ctx, guideID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound(msgGuideNotFound)
		}
		return fmt.Errorf("delete guide: %w", err)
	}

	ids := make([]int64, 0, len(activities))
	for _, activity := range activities {
		ids = append(ids, activity.ID)
	}
	s.search.DeleteGuide(guideID, ids)
	return nil
}

func (s *Service) UpdateDay(ctx context.Context, caller Identity, guideID, dayID int64, input DayInput) error {
	if err := s.requireWrite(caller); err != nil {
		return err
	}
	unlock := s.locks.lock(guideID)
	defer unlock()

	if _, err := s.getGuide(ctx, guideID); err != nil {
		return err
	}
	day, err := s.getGuideDay(ctx, guideID, dayID, msgDayNotFound)
	if err != nil {
		return err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return validationError("Le titre du jour est obligatoire.", nil)
	}
	date, err := parseDayDate(deref(input.Date))
	if err != nil {
		return err
	}

	day.Title = title
	day.Date = date
	if err := s.store.UpdateDay(ctx, day); err != nil {
		return fmt.Errorf("update day: %w", err)
	}
	return nil
}

var dayDateLayouts = []string{
	store.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseDayDate accepts a calendar date or a timestamp truncated to its date.
// Blank clears the date.
func parseDayDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range dayDateLayouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		date := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		return &date, nil
	}
	return nil, validationError("Date invalide. Format attendu: yyyy-MM-dd.", map[string]any{"date": value})
}

// ExportGuide renders the guide as a downloadable document.
func (s *Service) ExportGuide(ctx context.Context, caller Identity, guideID int64, format string) (*export.Result, error) {
	parsed, ok := export.ParseFormat(format)
	if !ok {
		return nil, validationError("Format d'export invalide.", map[string]any{"allowed": []export.Format{export.FormatHTML, export.FormatPDF}})
	}
	detail, err := s.GetGuideDetail(ctx, caller, guideID)
	if err != nil {
		return nil, err
	}

	result, err := s.exporter.Export(ctx, itinerary(detail, s.now()), parsed)
	if errors.Is(err, export.ErrPDFDependencyMissing) || errors.Is(err, export.ErrPDFTimeout) {
		return nil, exportUnavailable()
	}
	if err != nil {
		return nil, fmt.Errorf("export guide %d: %w", guideID, err)
	}
	return result, nil
}

func itinerary(detail GuideDetail, now time.Time) export.Itinerary {
	out := export.Itinerary{
		Title:         detail.Title,
		Description:   detail.Description,
		Destination:   deref(detail.Destination),
		CoverImageURL: deref(detail.CoverImageURL),
		Mobility:      detail.Mobility,
		Season:        detail.Season,
		ForWho:        detail.ForWho,
		GeneratedAt:   now,
	}
	for _, day := range detail.Days {
		exported := export.Day{Number: day.DayNumber, Title: day.Title, Date: deref(day.Date)}
		for _, activity := range day.Activities {
			exported.Activities = append(exported.Activities, export.Activity{
				VisitOrder:   activity.VisitOrder,
				Title:        activity.Title,
				Description:  activity.Description,
				Category:     activity.Category,
				Address:      activity.Address,
				PhoneNumber:  deref(activity.PhoneNumber),
				OpeningHours: deref(activity.OpeningHours),
				Website:      deref(activity.Website),
				StartTime:    deref(activity.StartTime),
				EndTime:      deref(activity.EndTime),
				ForWho:       activity.ForWho,
			})
		}
		out.Days = append(out.Days, exported)
	}
	return out
}

func (in GuideInput) validate() (store.Guide, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return store.Guide{}, validationError("Titre et description obligatoires.", nil)
	}
	if in.NumberOfDays < 1 || in.NumberOfDays > maxNumberOfDays {
		return store.Guide{}, validationError(fmt.Sprintf("Le nombre de jours doit être entre 1 et %d.", maxNumberOfDays), nil)
	}
	mobility, ok := store.ParseMobility(in.Mobility)
	if !ok {
		return store.Guide{}, validationError("Mobilité invalide.", map[string]any{"allowed": store.EnumValues(store.Mobilities)})
	}
	season, ok := store.ParseSeason(in.Season)
	if !ok {
		return store.Guide{}, validationError("Saison invalide.", map[string]any{"allowed": store.EnumValues(store.Seasons)})
	}
	forWho, ok := store.ParseForWho(in.ForWho)
	if !ok {
		return store.Guide{}, validationError("PourWho invalide.", map[string]any{"allowed": store.EnumValues(store.Audiences)})
	}
	return store.Guide{
		Title:         title,
		Description:   description,
		NumberOfDays:  in.NumberOfDays,
		Destination:   optional(in.Destination),
		CoverImageURL: optional(in.CoverImageURL),
		Mobility:      mobility,
		Season:        season,
		ForWho:        forWho,
	}, nil
}

func guideListItem(guide store.Guide) GuideListItem {
	return GuideListItem{
		ID:            guide.ID,
		Title:         guide.Title,
		Description:   guide.Description,
		Destination:   guide.Destination,
		CoverImageURL: guide.CoverImageURL,
		DaysCount:     guide.NumberOfDays,
		Mobility:      string(guide.Mobility),
		Season:        string(guide.Season),
		ForWho:        string(guide.ForWho),
	}
}

func activityView(activity store.Activity) ActivityView {
	return ActivityView{
		ID:           activity.ID,
		Title:        activity.Title,
		Description:  activity.Description,
		Category:     string(activity.Category),
		Address:      activity.Address,
		PhoneNumber:  activity.PhoneNumber,
		OpeningHours: activity.OpeningHours,
		Website:      activity.Website,
		StartTime:    activity.StartTime,
		EndTime:      activity.EndTime,
		ForWho:       string(activity.ForWho),
		VisitOrder:   activity.VisitOrder,
	}
}

func formatDate(date *time.Time) *string {
	if date == nil {
		return nil
	}
	formatted := date.Format(store.DateLayout)
	return &formatted
}
