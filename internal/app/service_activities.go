package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"henritrip/api/internal/store"
)

type ActivityInput struct {
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
	VisitOrder   *int    `json:"visitOrder"`
}

type MoveInput struct {
	TargetDayID int64 `json:"targetDayId"`
	VisitOrder  *int  `json:"visitOrder"`
}

func (in ActivityInput) validate() (store.Activity, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	address := strings.TrimSpace(in.Address)
	if title == "" || description == "" || address == "" {
		return store.Activity{}, validationError("Titre, description et adresse sont obligatoires.", nil)
	}
	category, ok := store.ParseCategory(in.Category)
	if !ok {
		return store.Activity{}, validationError("Catégorie invalide.", map[string]any{"allowed": store.EnumValues(store.Categories)})
	}
	forWho, ok := store.ParseForWho(in.ForWho)
	if !ok {
		return store.Activity{}, validationError("PourWho invalide.", map[string]any{"allowed": store.EnumValues(store.Audiences)})
	}
	return store.Activity{
		Title:        title,
		Description:  description,
		Category:     category,
		Address:      address,
		PhoneNumber:  optional(in.PhoneNumber),
		OpeningHours: optional(in.OpeningHours),
		Website:      optional(in.Website),
		StartTime:    optional(in.StartTime),
		EndTime:      optional(in.EndTime),
		ForWho:       forWho,
	}, nil
}

// CreateActivity inserts an activity at the requested position, or at the end
// of the day, and renumbers the day.
func (s *Service) CreateActivity(ctx context.Context, caller Identity, guideID, dayID int64, input ActivityInput) (int64, error) {
	if err := s.requireWrite(caller); err != nil {
		return 0, err
	}
	unlock := s.locks.lock(guideID)
	defer unlock()

	if _, err := s.getGuide(ctx, guideID); err != nil {
		return 0, err
	}
	if _, err := s.getGuideDay(ctx, guideID, dayID, msgDayNotFound); err != nil {
		return 0, err
	}
	activity, err := input.validate()
	if err != nil {
		return 0, err
	}

	existing, err := s.store.ListActivities(ctx, dayID)
	if err != nil {
		return 0, fmt.Errorf("list activities: %w", err)
	}
	activity.GuideDayID = dayID
	activity.VisitOrder = orderHint(input.VisitOrder, nextVisitOrder(existing, 0))

	created, err := s.store.CreateActivity(ctx, activity)
	if err != nil {
		return 0, fmt.Errorf("create activity: %w", err)
	}
	if err := s.renormalize(ctx, dayID); err != nil {
		return 0, err
	}
	s.search.IndexActivity(activityRecord(guideID, created))
	return created.ID, nil
}

func (s *Service) UpdateActivity(ctx context.Context, caller Identity, guideID, dayID, activityID int64, input ActivityInput) error {
	if err := s.requireWrite(caller); err != nil {
		return err
	}
	unlock := s.locks.lock(guideID)
	defer unlock()

	current, err := s.dayActivity(ctx, guideID, dayID, activityID)
	if err != nil {
		return err
	}
	activity, err := input.validate()
	if err != nil {
		return err
	}
	activity.ID = current.ID
	activity.GuideDayID = current.GuideDayID
	activity.VisitOrder = orderHint(input.VisitOrder, current.VisitOrder)

	if err := s.store.UpdateActivity(ctx, activity); err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	if err := s.renormalize(ctx, dayID); err != nil {
		return err
	}
	s.search.IndexActivity(activityRecord(guideID, activity))
	return nil
}

// MoveActivity re-parents an activity onto another day of the same guide and
// renumbers both days.
func (s *Service) MoveActivity(ctx context.Context, caller Identity, guideID, activityID int64, input MoveInput) error {
	if err := s.requireWrite(caller); err != nil {
		return err
	}
	unlock := s.locks.lock(guideID)
	defer unlock()

	if _, err := s.getGuide(ctx, guideID); err != nil {
		return err
	}
	activity, err := s.store.GetActivity(ctx, activityID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound(msgActivityNotFound)
	}
	if err != nil {
		return fmt.Errorf("get activity: %w", err)
	}
	source, err := s.store.GetDay(ctx, activity.GuideDayID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("get day: %w", err)
	}
	if err != nil || source.GuideID != guideID {
		return validationError("Cette activité n'appartient pas à ce guide.", nil)
	}
	if _, err := s.getGuideDay(ctx, guideID, input.TargetDayID, msgTargetDayNotFound); err != nil {
		return err
	}

	target, err := s.store.ListActivities(ctx, input.TargetDayID)
	if err != nil {
		return fmt.Errorf("list activities: %w", err)
	}
	activity.GuideDayID = input.TargetDayID
	activity.VisitOrder = orderHint(input.VisitOrder, nextVisitOrder(target, activity.ID))

	if err := s.store.UpdateActivity(ctx, activity); err != nil {
		return fmt.Errorf("move activity: %w", err)
	}
	if err := s.renormalize(ctx, source.ID); err != nil {
		return err
	}
	if source.ID != input.TargetDayID {
		if err := s.renormalize(ctx, input.TargetDayID); err != nil {
			return err
		}
	}
	s.search.IndexActivity(activityRecord(guideID, activity))
	return nil
}

func (s *Service) DeleteActivity(ctx context.Context, caller Identity, guideID, dayID, activityID int64) error {
	if err := s.requireWrite(caller); err != nil {
		return err
	}
	unlock := s.locks.lock(guideID)
	defer unlock()

	if _, err := s.dayActivity(ctx, guideID, dayID, activityID); err != nil {
		return err
	}
	if err := s.store.DeleteActivity(ctx, activityID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound(msgActivityNotFound)
		}
		return fmt.Errorf("delete activity: %w", err)
	}
	if err := s.renormalize(ctx, dayID); err != nil {
		return err
	}
	s.search.DeleteActivities([]int64{activityID})
	return nil
}

// dayActivity walks the guide, day and activity chain, reporting the first
// missing link.
func (s *Service) dayActivity(ctx context.Context, guideID, dayID, activityID int64) (store.Activity, error) {
	if _, err := s.getGuide(ctx, guideID); err != nil {
		return store.Activity{}, err
	}
	if _, err := s.getGuideDay(ctx, guideID, dayID, msgDayNotFound); err != nil {
		return store.Activity{}, err
	}
	activity, err := s.store.GetActivity(ctx, activityID)
	if errors.Is(err, store.ErrNotFound) || err == nil && activity.GuideDayID != dayID {
		return store.Activity{}, notFound(msgActivityNotFound)
	}
	if err != nil {
		return store.Activity{}, fmt.Errorf("get activity: %w", err)
	}
	return activity, nil
}

// renormalize rewrites the day's visit orders to 1..n.
func (s *Service) renormalize(ctx context.Context, dayID int64) error {
	activities, err := s.store.ListActivities(ctx, dayID)
	if err != nil {
		return fmt.Errorf("list activities: %w", err)
	}
	changes := renumber(activities)
	if len(changes) == 0 {
		return nil
	}
	if err := s.store.SetVisitOrders(ctx, changes); err != nil {
		return fmt.Errorf("renumber day %d: %w", dayID, err)
	}
	return nil
}
