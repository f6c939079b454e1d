package addresses

import (
	"context"
	"strconv"
	"strings"

	"github.com/gatehouse-io/gatehouse/internal/authz"
	"github.com/gatehouse-io/gatehouse/internal/shared"
)

// RepositoryPort defines data access methods for delivery addresses.
type RepositoryPort interface {
	ListByUser(ctx context.Context, userID int64) ([]Address, error)
	GetAddress(ctx context.Context, id int64) (Address, error)
	CreateAddress(ctx context.Context, input NewAddress) (Address, error)
	UpdateAddress(ctx context.Context, id int64, label, street, city, postalCode string) (Address, error)
	DeleteAddress(ctx context.Context, id int64) error
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles delivery address business logic.
type Service struct {
	repo  RepositoryPort
	audit AuditRecorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// ListForUser returns the addresses of one user. Ownership is decided by the
// target user id, so a synthetic candidate carries it into the scope check
// before any rows are read.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]Address, error) {
	probe := Address{UserID: userID}
	if err := authz.FromContext(ctx).Enforce(ctx, authz.ResourceDeliveryAddresses, authz.ActionRead, probe); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, userID)
}

// GetAddress fetches one address, guarding with the fetched row.
func (s *Service) GetAddress(ctx context.Context, id int64) (Address, error) {
	addr, err := s.repo.GetAddress(ctx, id)
	if err != nil {
		return Address{}, err
	}
	if err := authz.FromContext(ctx).Enforce(ctx, authz.ResourceDeliveryAddresses, authz.ActionRead, addr); err != nil {
		return Address{}, err
	}
	return addr, nil
}

// CreateAddress attaches an address to a user. The owning user id is known up
// front, so the guard runs before the insert with a candidate built from the
// input.
func (s *Service) CreateAddress(ctx context.Context, input NewAddress) (Address, error) {
	probe := Address{UserID: input.UserID}
	if err := authz.FromContext(ctx).Enforce(ctx, authz.ResourceDeliveryAddresses, authz.ActionCreate, probe); err != nil {
		return Address{}, err
	}
	input.Label = strings.TrimSpace(input.Label)
	input.Street = strings.TrimSpace(input.Street)
	input.City = strings.TrimSpace(input.City)
	input.PostalCode = strings.TrimSpace(input.PostalCode)
	return s.repo.CreateAddress(ctx, input)
}

// UpdateAddress changes the mutable fields of an address.
func (s *Service) UpdateAddress(ctx context.Context, id int64, label, street, city, postalCode string) (Address, error) {
	existing, err := s.repo.GetAddress(ctx, id)
	if err != nil {
		return Address{}, err
	}
	if err := authz.FromContext(ctx).Enforce(ctx, authz.ResourceDeliveryAddresses, authz.ActionUpdate, existing); err != nil {
		return Address{}, err
	}
	return s.repo.UpdateAddress(ctx, id,
		strings.TrimSpace(label), strings.TrimSpace(street), strings.TrimSpace(city), strings.TrimSpace(postalCode))
}

// DeleteAddress removes an address.
func (s *Service) DeleteAddress(ctx context.Context, id int64) error {
	existing, err := s.repo.GetAddress(ctx, id)
	if err != nil {
		return err
	}
	a := authz.FromContext(ctx)
	if err := a.Enforce(ctx, authz.ResourceDeliveryAddresses, authz.ActionDelete, existing); err != nil {
		return err
	}
	if err := s.repo.DeleteAddress(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, a.Actor, "delivery_addresses.delete", id, map[string]any{"user_id": existing.UserID})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "delivery_addresses",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
