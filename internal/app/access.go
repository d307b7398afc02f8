package app

import (
	"context"
	"fmt"

	"henritrip/api/internal/rbac"
)

// requireWrite rejects callers that may not mutate guides or accounts.
func (s *Service) requireWrite(caller Identity) error {
	if !s.Can(caller.Role, rbac.ActionWrite) {
		return forbidden()
	}
	return nil
}

func (s *Service) requireUserAdmin(caller Identity) error {
	if !s.Can(caller.Role, rbac.ActionManageUsers) {
		return forbidden()
	}
	return nil
}

// canReadGuide reports whether caller is an admin or was invited to guideID.
func (s *Service) canReadGuide(ctx context.Context, caller Identity, guideID int64) (bool, error) {
	if s.Can(caller.Role, rbac.ActionReadAll) {
		return true, nil
	}
	if !s.Can(caller.Role, rbac.ActionRead) {
		return false, nil
	}
	invited, err := s.store.HasInvitation(ctx, guideID, caller.UserID)
	if err != nil {
		return false, fmt.Errorf("check invitation: %w", err)
	}
	return invited, nil
}
