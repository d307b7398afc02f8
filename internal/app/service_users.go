package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"henritrip/api/internal/rbac"
	"henritrip/api/internal/store"
)

type CreateUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Service) Me(caller Identity) UserView {
	return UserView{ID: caller.UserID, Email: caller.Email, Role: string(caller.Role)}
}

func (s *Service) ListUsers(ctx context.Context, caller Identity) ([]UserView, error) {
	if err := s.requireUserAdmin(caller); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	views := make([]UserView, 0, len(users))
	for _, user := range users {
		views = append(views, userView(user))
	}
	return views, nil
}

func (s *Service) CreateUser(ctx context.Context, caller Identity, input CreateUserInput) (UserView, error) {
	if err := s.requireUserAdmin(caller); err != nil {
		return UserView{}, err
	}
	email := strings.TrimSpace(input.Email)
	password := strings.TrimSpace(input.Password)
	if email == "" || password == "" {
		return UserView{}, validationError("Email et mot de passe sont obligatoires.", nil)
	}
	role, ok := rbac.Parse(input.Role)
	if !ok {
		return UserView{}, validationError("Role invalide. Utiliser 'Admin' ou 'User'.", nil)
	}

	hash, err := s.passwords.HashPassword(password)
	if err != nil {
		return UserView{}, err
	}
	user, err := s.store.CreateUser(ctx, store.User{Email: email, PasswordHash: hash, Role: string(role)})
	if errors.Is(err, store.ErrConflict) {
		return UserView{}, conflict("Email déjà utilisé.")
	}
	if err != nil {
		return UserView{}, fmt.Errorf("create user: %w", err)
	}
	return userView(user), nil
}

// DeleteUser removes the account with its invitations and signs it out
// everywhere. Admins cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, caller Identity, userID int64) error {
	if err := s.requireUserAdmin(caller); err != nil {
		return err
	}
	if caller.UserID == userID {
		return validationError("Un admin ne peut pas se supprimer lui-même.", nil)
	}

	err := s.store.DeleteUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound(msgUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	// Identify already rejects tokens of deleted users.
	if err := s.sessions.RevokeUser(ctx, userID); err != nil {
		log.Printf("session: revoke sessions of user %d failed: %v", userID, err)
	}
	return nil
}
