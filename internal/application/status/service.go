// Package status applies the single-field status transitions of the
// library, hostel, transport and cafeteria modules.
package status

import (
	"context"
	"fmt"
	"time"

	"github.com/schoolerp/backend/internal/application/collection"
	"github.com/schoolerp/backend/internal/domain/cafeteria"
	"github.com/schoolerp/backend/internal/domain/hostel"
	"github.com/schoolerp/backend/internal/domain/library"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/transport"
	"go.uber.org/zap"
)

// Result is the applied patch of a transition.
type Result struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Fields     shared.Document `json:"fields"`
}

// Service writes status patches and mirrors them into the loaded caches
// without a refetch. Transitions do not check the previous status.
type Service struct {
	store  shared.DocumentStore
	caches *collection.Registry
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a new status service
func NewService(store shared.DocumentStore, caches *collection.Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, caches: caches, now: time.Now, logger: logger}
}

// SetClock overrides the service clock
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ReturnIssue closes a library issue.
func (s *Service) ReturnIssue(ctx context.Context, id string) (*Result, error) {
	return s.apply(ctx, library.CollectionIssues, id, library.ReturnPatch(s.now()))
}

// EndAllocation ends a hostel allocation today.
func (s *Service) EndAllocation(ctx context.Context, id string) (*Result, error) {
	return s.apply(ctx, hostel.CollectionAllocations, id, hostel.EndPatch(s.now()))
}

// PayHostel marks a hostel payment paid.
func (s *Service) PayHostel(ctx context.Context, id string) (*Result, error) {
	return s.apply(ctx, hostel.CollectionPayments, id, hostel.PaidPatch(s.now()))
}

// ToggleAssignment flips a transport assignment between active and
// inactive, reading the stored status first.
func (s *Service) ToggleAssignment(ctx context.Context, id string) (*Result, error) {
	raw, err := s.store.FetchOne(ctx, transport.CollectionAssignments, id)
	if err != nil {
		return nil, err
	}
	current, _ := raw["status"].(string)
	return s.apply(ctx, transport.CollectionAssignments, id, transport.TogglePatch(transport.AssignmentStatus(current)))
}

// PayTransport marks a transport payment paid.
func (s *Service) PayTransport(ctx context.Context, id string) (*Result, error) {
	return s.apply(ctx, transport.CollectionPayments, id, transport.PaidPatch(s.now()))
}

// PayOrder marks a cafeteria order paid.
func (s *Service) PayOrder(ctx context.Context, id string) (*Result, error) {
	return s.apply(ctx, cafeteria.CollectionOrders, id, cafeteria.PaidPatch(s.now()))
}

func (s *Service) apply(ctx context.Context, coll, id string, fields shared.Document) (*Result, error) {
	if id == "" {
		return nil, shared.NewValidationError("record id is required")
	}
	if err := s.store.Update(ctx, coll, id, fields); err != nil {
		return nil, err
	}
	s.caches.Patch(coll, id, fields)

	s.logger.Info("Status updated",
		zap.String("collection", coll),
		zap.String("id", id),
		zap.String("status", fmt.Sprint(fields["status"])))
	return &Result{Collection: coll, ID: id, Fields: fields}, nil
}
