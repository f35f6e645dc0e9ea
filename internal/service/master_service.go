package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/monitor-report/internal/auth"
	"github.com/spec-kit/monitor-report/internal/domain"
	"github.com/spec-kit/monitor-report/internal/policy"
	"github.com/spec-kit/monitor-report/internal/repository"
	apperrors "github.com/spec-kit/monitor-report/pkg/util"
)

// bcrypt only reads the first 72 bytes of a password and refuses longer input.
const maxPasswordBytes = 72

// MasterService manages master data: monitored servers and user accounts.
type MasterService struct {
	servers repository.ServerRepository
	users   repository.UserRepository
	hasher  *auth.PasswordHasher
	policy  *policy.Policy
}

// MasterDependencies bundles requirements for the master service.
type MasterDependencies struct {
	ServerRepo repository.ServerRepository
	UserRepo   repository.UserRepository
	Hasher     *auth.PasswordHasher
	Policy     *policy.Policy
}

// ServerInput describes server fields. Nil fields are left unchanged on update.
type ServerInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// UserInput describes user fields. Nil fields are left unchanged on update.
type UserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
}

// NewMasterService builds the service.
func NewMasterService(deps MasterDependencies) *MasterService {
	return &MasterService{
		servers: deps.ServerRepo,
		users:   deps.UserRepo,
		hasher:  deps.Hasher,
		policy:  deps.Policy,
	}
}

// ListServers is open to staff too, who pick servers when filing reports.
func (s *MasterService) ListServers(ctx context.Context, identity *domain.Identity, activeOnly bool) ([]domain.DiscordServer, error) {
	if err := s.policy.Check(identity, policy.ActionServerList); err != nil {
		return nil, err
	}
	servers, err := s.servers.List(ctx, activeOnly)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if servers == nil {
		servers = []domain.DiscordServer{}
	}
	return servers, nil
}

func (s *MasterService) CreateServer(ctx context.Context, identity *domain.Identity, input ServerInput) (*domain.DiscordServer, error) {
	if err := s.policy.Check(identity, policy.ActionMasterManage); err != nil {
		return nil, err
	}
	server := &domain.DiscordServer{IsActive: true}
	if err := applyServerInput(server, input, true); err != nil {
		return nil, err
	}
	if err := s.servers.Create(ctx, server); err != nil {
		return nil, mapRepoError(err)
	}
	return server, nil
}

func (s *MasterService) UpdateServer(ctx context.Context, identity *domain.Identity, id int64, input ServerInput) (*domain.DiscordServer, error) {
	if err := s.policy.Check(identity, policy.ActionMasterManage); err != nil {
		return nil, err
	}
	server, err := s.servers.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "server", id)
	}
	if err := applyServerInput(server, input, false); err != nil {
		return nil, err
	}
	if err := s.servers.Update(ctx, server); err != nil {
		return nil, notFoundOr(err, "server", id)
	}
	return server, nil
}

// DeleteServer refuses servers referenced by monitoring records.
func (s *MasterService) DeleteServer(ctx context.Context, identity *domain.Identity, id int64) error {
	if err := s.policy.Check(identity, policy.ActionMasterManage); err != nil {
		return err
	}
	if err := s.servers.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperrors.NewConflict("server is in use and cannot be deleted", map[string]any{"server_id": id})
		}
		return notFoundOr(err, "server", id)
	}
	return nil
}

func (s *MasterService) ListUsers(ctx context.Context, identity *domain.Identity) ([]domain.User, error) {
	if err := s.policy.Check(identity, policy.ActionMasterManage); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *MasterService) GetUser(ctx context.Context, identity *domain.Identity, id int64) (*domain.User, error) {
	if err := s.policy.Check(identity, policy.ActionMasterManage); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return user, nil
}

// CreateUser requires every field.
func (s *MasterService) CreateUser(ctx context.Context, identity *domain.Identity, input UserInput) (*domain.User, error) {
	if err := s.policy.Check(identity, policy.ActionMasterManage); err != nil {
		return nil, err
	}
	if input.Name == nil || input.Email == nil || input.Password == nil || input.Role == nil {
		return nil, apperrors.NewValidationError("name, email, password and role are required", nil)
	}
	user := &domain.User{}
	if err := s.applyUserInput(ctx, user, input); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, userWriteError(err, user.ID)
	}
	return user, nil
}

func (s *MasterService) UpdateUser(ctx context.Context, identity *domain.Identity, id int64, input UserInput) (*domain.User, error) {
	if err := s.policy.Check(identity, policy.ActionMasterManage); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	if err := s.applyUserInput(ctx, user, input); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, userWriteError(err, id)
	}
	return user, nil
}

// DeleteUser refuses accounts that still own reports or comments.
func (s *MasterService) DeleteUser(ctx context.Context, identity *domain.Identity, id int64) error {
	if err := s.policy.Check(identity, policy.ActionMasterManage); err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return notFoundOr(err, "user", id)
	}
	active, err := s.users.HasActivity(ctx, id)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if active {
		return apperrors.NewConflict("user has reports or comments and cannot be deleted", map[string]any{"user_id": id})
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return userWriteError(err, id)
	}
	return nil
}

func applyServerInput(server *domain.DiscordServer, input ServerInput, create bool) error {
	if input.Name != nil {
		server.Name = strings.TrimSpace(*input.Name)
	}
	if (create || input.Name != nil) && server.Name == "" {
		return apperrors.NewValidationError("server_name is required", map[string]any{"field": "server_name"})
	}
	if input.Description != nil {
		server.Description = strings.TrimSpace(*input.Description)
	}
	if input.IsActive != nil {
		server.IsActive = *input.IsActive
	}
	return nil
}

func (s *MasterService) applyUserInput(ctx context.Context, user *domain.User, input UserInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
		}
		user.Name = name
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
			return apperrors.NewValidationError("email is invalid", map[string]any{"field": "email"})
		}
		user.Email = email
	}
	if input.Role != nil {
		role, err := domain.ParseRole(*input.Role)
		if err != nil {
			return apperrors.NewValidationError("role must be STAFF or MANAGER", map[string]any{"field": "role"})
		}
		user.Role = role
	}
	if input.Password != nil {
		if !auth.ValidatePasswordStrength(*input.Password) {
			return apperrors.NewValidationError(auth.PasswordRequirements(), map[string]any{"field": "password"})
		}
		digest, err := s.hasher.Hash(ctx, *input.Password)
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return apperrors.NewValidationError(
				fmt.Sprintf("password must not exceed %d bytes", maxPasswordBytes),
				map[string]any{"field": "password"})
		}
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		user.PasswordHash = digest
	}
	return nil
}

func userWriteError(err error, id int64) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("email already exists", map[string]any{"field": "email"})
	case errors.Is(err, repository.ErrReferenced):
		return apperrors.NewConflict("user has reports or comments and cannot be deleted", map[string]any{"user_id": id})
	default:
		return notFoundOr(err, "user", id)
	}
}
