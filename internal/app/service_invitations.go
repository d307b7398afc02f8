package app

import (
	"context"
	"errors"
	"fmt"

	"henritrip/api/internal/store"
)

type InvitationView struct {
	GuideID int64  `json:"guideId"`
	UserID  int64  `json:"userId"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

type InvitationInput struct {
	UserID int64 `json:"userId"`
}

// InviteUser grants userID read access to the guide and notifies them by
// e-mail without waiting for delivery.
func (s *Service) InviteUser(ctx context.Context, caller Identity, guideID int64, input InvitationInput) error {
	if err := s.requireWrite(caller); err != nil {
		return err
	}
	unlock := s.locks.lock(guideID)
	defer unlock()

	guide, err := s.getGuide(ctx, guideID)
	if err != nil {
		return err
	}
	user, err := s.store.GetUser(ctx, input.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound(msgUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	err = s.store.CreateInvitation(ctx, store.Invitation{GuideID: guideID, UserID: user.ID})
	switch {
	case errors.Is(err, store.ErrConflict):
		return conflict("Invitation déjà existante.")
	case errors.Is(err, store.ErrNotFound):
		return notFound(msgUserNotFound)
	case err != nil:
		return fmt.Errorf("create invitation: %w", err)
	}

	s.notifier.NotifyInvitation(user.Email, guide.ID, guide.Title)
	return nil
}

func (s *Service) ListInvitations(ctx context.Context, caller Identity, guideID int64) ([]InvitationView, error) {
	if err := s.requireWrite(caller); err != nil {
		return nil, err
	}
	if _, err := s.getGuide(ctx, guideID); err != nil {
		return nil, err
	}
	invited, err := s.store.ListInvitations(ctx, guideID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	views := make([]InvitationView, 0, len(invited))
	for _, invitation := range invited {
		views = append(views, InvitationView{
			GuideID: invitation.GuideID,
			UserID:  invitation.UserID,
			Email:   invitation.Email,
			Role:    invitation.Role,
		})
	}
	return views, nil
}

func (s *Service) RevokeInvitation(ctx context.Context, caller Identity, guideID, userID int64) error {
	if err := s.requireWrite(caller); err != nil {
		return err
	}
	unlock := s.locks.lock(guideID)
	defer unlock()

	if _, err := s.getGuide(ctx, guideID); err != nil {
		return err
	}
	err := s.store.DeleteInvitation(ctx, guideID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound(msgInvitationNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}
