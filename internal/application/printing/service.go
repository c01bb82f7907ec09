// Package printing builds printable documents from stored records, renders
// them and archives the output.
package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/schoolerp/backend/internal/domain/accounts"
	"github.com/schoolerp/backend/internal/domain/cafeteria"
	"github.com/schoolerp/backend/internal/domain/hostel"
	"github.com/schoolerp/backend/internal/domain/printing"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/transport"
	"go.uber.org/zap"
)

// Renderers resolves the renderer of an output format.
type Renderers interface {
	For(f printing.Format) (printing.Renderer, error)
}

// Config configures the print service
type Config struct {
	Profile school.Profile
	// VerifyURL prefixes the QR verification link; empty disables it
	VerifyURL string
	Now       func() time.Time
	Logger    *zap.Logger
}

// Service handles document printing operations
type Service struct {
	store     shared.DocumentStore
	renderers Renderers
	storage   printing.Storage
	profile   school.Profile
	verifyURL string
	now       func() time.Time
	logger    *zap.Logger
}

// NewService creates a new print service. storage may be nil when
// archiving is disabled.
func NewService(store shared.DocumentStore, renderers Renderers, storage printing.Storage, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:     store,
		renderers: renderers,
		storage:   storage,
		profile:   cfg.Profile,
		verifyURL: strings.TrimRight(cfg.VerifyURL, "/"),
		now:       now,
		logger:    logger,
	}
}

// collections maps each document kind to the collection of its record.
var collections = map[printing.Kind]string{
	printing.KindChalan:           accounts.CollectionChalans,
	printing.KindInvoice:          accounts.CollectionInvoices,
	printing.KindHostelReceipt:    hostel.CollectionPayments,
	printing.KindTransportReceipt: transport.CollectionPayments,
	printing.KindOrderReceipt:     cafeteria.CollectionOrders,
}

// ParseKind validates a document kind.
func ParseKind(s string) (printing.Kind, error) {
	k := printing.Kind(s)
	if !k.IsValid() {
		return "", shared.NewValidationError("unknown document kind %q", s)
	}
	return k, nil
}

// ParseFormat validates an output format; empty means HTML.
func ParseFormat(s string) (printing.Format, error) {
	if s == "" {
		return printing.FormatHTML, nil
	}
	f := printing.Format(strings.ToLower(s))
	if !f.IsValid() {
		return "", shared.NewValidationError("unsupported document format %q", s)
	}
	return f, nil
}

// =============================================================================
// Document building
// =============================================================================

// BuildDocument loads a record and its related records and builds its
// printable document.
func (s *Service) BuildDocument(ctx context.Context, kind printing.Kind, id string) (*printing.Document, error) {
	coll, ok := collections[kind]
	if !ok {
		return nil, shared.NewValidationError("unknown document kind %q", kind)
	}
	raw, err := s.store.FetchOne(ctx, coll, id)
	if err != nil {
		return nil, err
	}

	var doc *printing.Document
	switch kind {
	case printing.KindChalan:
		doc, err = s.chalanDocument(ctx, raw)
	case printing.KindInvoice:
		doc, err = s.invoiceDocument(ctx, raw)
	case printing.KindHostelReceipt:
		doc, err = s.hostelReceipt(ctx, raw)
	case printing.KindTransportReceipt:
		doc, err = s.transportReceipt(ctx, raw)
	case printing.KindOrderReceipt:
		doc, err = s.orderReceipt(ctx, raw)
	}
	if err != nil {
		return nil, err
	}
	s.stampVerifyURL(doc)
	return doc, nil
}

// ChalanDocument builds the document of an in-hand chalan without a store
// read of the chalan itself.
func (s *Service) ChalanDocument(ctx context.Context, c accounts.FeeChalan) (*printing.Document, error) {
	rel, err := s.chalanRelated(ctx, c)
	if err != nil {
		return nil, err
	}
	doc := printing.ChalanDocument(s.profile, c, rel, s.now())
	s.stampVerifyURL(doc)
	return doc, nil
}

func (s *Service) stampVerifyURL(doc *printing.Document) {
	if s.verifyURL != "" {
		doc.VerifyURL = fmt.Sprintf("%s/%s/%s", s.verifyURL, doc.Kind, doc.RecordID)
	}
}

func (s *Service) chalanDocument(ctx context.Context, raw shared.Document) (*printing.Document, error) {
	c, err := shared.DecodeOne[accounts.FeeChalan](raw)
	if err != nil {
		return nil, err
	}
	rel, err := s.chalanRelated(ctx, c)
	if err != nil {
		return nil, err
	}
	return printing.ChalanDocument(s.profile, c, rel, s.now()), nil
}

func (s *Service) chalanRelated(ctx context.Context, c accounts.FeeChalan) (printing.Related, error) {
	var rel printing.Related
	student, err := fetchOptional[school.Student](ctx, s.store, school.CollectionUsers, c.StudentID)
	if err != nil {
		return rel, err
	}
	rel.Student = student

	classID := c.ClassID
	if classID == "" && student != nil {
		classID = student.ClassID
	}
	rel.Class, err = fetchOptional[school.Class](ctx, s.store, school.CollectionClasses, classID)
	return rel, err
}

func (s *Service) invoiceDocument(ctx context.Context, raw shared.Document) (*printing.Document, error) {
	inv, err := shared.DecodeOne[accounts.Invoice](raw)
	if err != nil {
		return nil, err
	}
	student, err := fetchOptional[school.Student](ctx, s.store, school.CollectionUsers, inv.StudentID)
	if err != nil {
		return nil, err
	}
	return printing.InvoiceDocument(s.profile, inv, printing.Related{Student: student}, s.now()), nil
}

func (s *Service) hostelReceipt(ctx context.Context, raw shared.Document) (*printing.Document, error) {
	p, err := shared.DecodeOne[hostel.Payment](raw)
	if err != nil {
		return nil, err
	}
	rel := printing.Related{}
	if rel.Student, err = fetchOptional[school.Student](ctx, s.store, school.CollectionUsers, p.StudentID); err != nil {
		return nil, err
	}

	allocs, err := fetchBy[hostel.Allocation](ctx, s.store, hostel.CollectionAllocations, "studentId", p.StudentID)
	if err != nil {
		return nil, err
	}
	if a := pick(allocs, func(a hostel.Allocation) bool { return a.Status == hostel.AllocationActive }); a != nil {
		if rel.Room, err = fetchOptional[hostel.Room](ctx, s.store, hostel.CollectionRooms, a.RoomID); err != nil {
			return nil, err
		}
	}
	return printing.HostelReceipt(s.profile, p, rel, s.now()), nil
}

func (s *Service) transportReceipt(ctx context.Context, raw shared.Document) (*printing.Document, error) {
	p, err := shared.DecodeOne[transport.Payment](raw)
	if err != nil {
		return nil, err
	}
	rel := printing.Related{}
	if rel.Student, err = fetchOptional[school.Student](ctx, s.store, school.CollectionUsers, p.StudentID); err != nil {
		return nil, err
	}

	assignments, err := fetchBy[transport.Assignment](ctx, s.store, transport.CollectionAssignments, "studentId", p.StudentID)
	if err != nil {
		return nil, err
	}
	if a := pick(assignments, func(a transport.Assignment) bool { return a.Status == transport.AssignmentActive }); a != nil {
		if rel.Route, err = fetchOptional[transport.Route](ctx, s.store, transport.CollectionRoutes, a.RouteID); err != nil {
			return nil, err
		}
	}
	return printing.TransportReceipt(s.profile, p, rel, s.now()), nil
}

func (s *Service) orderReceipt(ctx context.Context, raw shared.Document) (*printing.Document, error) {
	o, err := shared.DecodeOne[cafeteria.Order](raw)
	if err != nil {
		return nil, err
	}
	rel := printing.Related{}
	if rel.MenuItem, err = fetchOptional[cafeteria.MenuItem](ctx, s.store, cafeteria.CollectionMenu, o.ItemID); err != nil {
		return nil, err
	}
	if rel.Student, err = fetchOptional[school.Student](ctx, s.store, school.CollectionUsers, o.StudentID); err != nil {
		return nil, err
	}
	return printing.OrderReceipt(s.profile, o, rel, s.now()), nil
}

// fetchOptional returns nil for an empty ID or a missing record.
func fetchOptional[T any](ctx context.Context, store shared.DocumentStore, coll, id string) (*T, error) {
	if id == "" {
		return nil, nil
	}
	raw, err := store.FetchOne(ctx, coll, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v, err := shared.DecodeOne[T](raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func fetchBy[T any](ctx context.Context, store shared.DocumentStore, coll, field, value string) ([]T, error) {
	if value == "" {
		return nil, nil
	}
	docs, err := store.FetchAll(ctx, coll, shared.Eq(field, value))
	if err != nil {
		return nil, err
	}
	return shared.Decode[T](docs)
}

// pick returns the first item matching prefer, else the first item.
func pick[T any](items []T, prefer func(T) bool) *T {
	for i := range items {
		if prefer(items[i]) {
			return &items[i]
		}
	}
	if len(items) > 0 {
		return &items[0]
	}
	return nil
}

// =============================================================================
// Rendering and archiving
// =============================================================================

// Render builds and renders a record's document. An unavailable renderer
// fails before any record is read.
func (s *Service) Render(ctx context.Context, kind printing.Kind, id string, format printing.Format) (*RenderedDocument, error) {
	renderer, err := s.renderers.For(format)
	if err != nil {
		return nil, err
	}
	doc, err := s.BuildDocument(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, renderer, doc)
}

// RenderDocument renders an already built document.
func (s *Service) RenderDocument(ctx context.Context, doc *printing.Document, format printing.Format) (*RenderedDocument, error) {
	renderer, err := s.renderers.For(format)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, renderer, doc)
}

func (s *Service) render(ctx context.Context, renderer printing.Renderer, doc *printing.Document) (*RenderedDocument, error) {
	res, err := renderer.Render(ctx, doc)
	if err != nil {
		s.logger.Error("Document rendering failed",
			zap.String("kind", doc.Kind.String()),
			zap.String("id", doc.RecordID),
			zap.Error(err))
		return nil, err
	}
	s.logger.Debug("Document rendered",
		zap.String("kind", doc.Kind.String()),
		zap.String("id", doc.RecordID),
		zap.String("format", string(res.Format)),
		zap.Duration("duration", res.Duration))
	return &RenderedDocument{
		Data:        res.Data,
		ContentType: res.ContentType,
		Filename:    doc.Filename(res.Format),
		Format:      res.Format,
		Pages:       res.Pages,
	}, nil
}

// Archive renders a record's document and stores it.
func (s *Service) Archive(ctx context.Context, kind printing.Kind, id string, format printing.Format) (*ArchiveResponse, error) {
	if s.storage == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Document archive is not configured")
	}
	renderer, err := s.renderers.For(format)
	if err != nil {
		return nil, err
	}
	doc, err := s.BuildDocument(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return s.archive(ctx, renderer, doc)
}

// ArchiveDocument renders an already built document and stores it.
func (s *Service) ArchiveDocument(ctx context.Context, doc *printing.Document, format printing.Format) (*ArchiveResponse, error) {
	if s.storage == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Document archive is not configured")
	}
	renderer, err := s.renderers.For(format)
	if err != nil {
		return nil, err
	}
	return s.archive(ctx, renderer, doc)
}

func (s *Service) archive(ctx context.Context, renderer printing.Renderer, doc *printing.Document) (*ArchiveResponse, error) {
	rendered, err := s.render(ctx, renderer, doc)
	if err != nil {
		return nil, err
	}
	stored, err := s.storage.Store(ctx, &printing.StoreRequest{
		Kind:        doc.Kind,
		ID:          doc.RecordID,
		Format:      rendered.Format,
		ContentType: rendered.ContentType,
		Data:        rendered.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("archive %s %s: %w", doc.Kind, doc.RecordID, err)
	}
	s.logger.Info("Document archived",
		zap.String("kind", doc.Kind.String()),
		zap.String("id", doc.RecordID),
		zap.String("key", stored.Key))
	return &ArchiveResponse{
		Kind:     doc.Kind,
		RecordID: doc.RecordID,
		Format:   rendered.Format,
		Filename: rendered.Filename,
		Key:      stored.Key,
		URL:      stored.URL,
		Size:     stored.Size,
	}, nil
}
