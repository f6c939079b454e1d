package users

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/gatehouse-io/gatehouse/internal/authz"
	"github.com/gatehouse-io/gatehouse/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, email, name, passwordHash string) (User, error)
	UpdateUser(ctx context.Context, id int64, name string) (User, error)
	SetActive(ctx context.Context, id int64, active bool) error
	DeleteUser(ctx context.Context, id int64) error
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user business logic. Every operation consults the
// authorizer bound to the request context before data leaves this layer.
type Service struct {
	repo  RepositoryPort
	audit AuditRecorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// ListUsers returns all users the actor may read.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	if err := authz.FromContext(ctx).Enforce(ctx, authz.ResourceUsers, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx)
}

// GetUser fetches one user. The scope check runs against the fetched row; a
// denial means the row is discarded, indistinguishable from not-found to the
// caller.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := authz.FromContext(ctx).Enforce(ctx, authz.ResourceUsers, authz.ActionRead, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// CreateUser registers an account with the default role. Ownership of the
// new row is unknown before the insert, so the guard runs afterwards with
// the created record; a denial keeps the result from the caller.
func (s *Service) CreateUser(ctx context.Context, input NewUser) (User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	created, err := s.repo.CreateUser(ctx, email, strings.TrimSpace(input.Name), string(hash))
	if err != nil {
		return User{}, err
	}
	if err := authz.FromContext(ctx).Enforce(ctx, authz.ResourceUsers, authz.ActionCreate, created); err != nil {
		return User{}, err
	}
	return created, nil
}

// UpdateUser changes the profile of an existing user.
func (s *Service) UpdateUser(ctx context.Context, id int64, name string) (User, error) {
	existing, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := authz.FromContext(ctx).Enforce(ctx, authz.ResourceUsers, authz.ActionUpdate, existing); err != nil {
		return User{}, err
	}
	return s.repo.UpdateUser(ctx, id, strings.TrimSpace(name))
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	existing, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}
	a := authz.FromContext(ctx)
	if err := a.Enforce(ctx, authz.ResourceUsers, authz.ActionDelete, existing); err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, a.Actor, "users.delete", id, nil)
	return nil
}

// BlockUser deactivates an account.
func (s *Service) BlockUser(ctx context.Context, id int64) error {
	existing, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}
	a := authz.FromContext(ctx)
	if err := a.Enforce(ctx, authz.ResourceUsers, authz.ActionBlock, existing); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.recordAudit(ctx, a.Actor, "users.block", id, map[string]any{"email": existing.Email})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "users",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
