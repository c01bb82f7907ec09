// Package accounts implements the fee workflows of the accounts module:
// chalan generation, payments, class fee templates and overdue marking.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/schoolerp/backend/internal/application/collection"
	printingapp "github.com/schoolerp/backend/internal/application/printing"
	"github.com/schoolerp/backend/internal/application/records"
	"github.com/schoolerp/backend/internal/domain/accounts"
	"github.com/schoolerp/backend/internal/domain/printing"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Service handles accounts operations. Status changes are last-write-wins:
// paying an already paid chalan overwrites its payment.
type Service struct {
	store    shared.DocumentStore
	caches   *collection.Registry
	printer  *printingapp.Service
	bulk     *printingapp.BulkGenerator
	validate *validator.Validate
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates a new accounts service
func NewService(
	store shared.DocumentStore,
	caches *collection.Registry,
	printer *printingapp.Service,
	bulk *printingapp.BulkGenerator,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		caches:   caches,
		printer:  printer,
		bulk:     bulk,
		validate: records.NewValidator(),
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock overrides the service clock
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// =============================================================================
// Chalan generation
// =============================================================================

// GenerateChalan builds and inserts one pending chalan for a student.
// Every validation runs before the insert.
func (s *Service) GenerateChalan(ctx context.Context, req GenerateChalanRequest) (*accounts.FeeChalan, error) {
	if req.StudentID == "" {
		return nil, shared.NewValidationError("Please select a student")
	}
	student, err := s.student(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	classFees, err := s.classFees(ctx, student.ClassID)
	if err != nil {
		return nil, err
	}

	chalan, err := s.insertChalan(ctx, accounts.GenerateChalanInput{
		Student:      *student,
		ClassFees:    classFees,
		Overrides:    req.Overrides,
		DueDate:      req.DueDate,
		AcademicYear: req.AcademicYear,
		Now:          s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.reload(ctx, accounts.CollectionChalans)
	return chalan, nil
}

func (s *Service) insertChalan(ctx context.Context, in accounts.GenerateChalanInput) (*accounts.FeeChalan, error) {
	if err := s.validate.Struct(in.Overrides); err != nil {
		return nil, errors.Join(shared.ErrInvalidInput, err)
	}
	chalan, err := accounts.GenerateChalan(in)
	if err != nil {
		return nil, err
	}
	fields, err := shared.Encode(chalan)
	if err != nil {
		return nil, err
	}
	id, err := s.store.Insert(ctx, accounts.CollectionChalans, fields)
	if err != nil {
		return nil, err
	}
	chalan.ID = id
	chalan.CreatedAt = in.Now.UTC()

	s.logger.Info("Fee chalan generated",
		zap.String("id", id),
		zap.String("number", chalan.ChalanNumber),
		zap.String("studentId", chalan.StudentID),
		zap.Float64("total", chalan.Fees.TotalAmount))
	return chalan, nil
}

// BulkGenerateChalans starts a background run generating, inserting and,
// when a format is given, archiving one chalan per student of a class.
func (s *Service) BulkGenerateChalans(ctx context.Context, req BulkChalanRequest) (printing.BulkJobView, error) {
	if req.ClassID == "" {
		return printing.BulkJobView{}, shared.NewValidationError("Please select a class")
	}
	if !shared.IsISODate(req.DueDate) {
		return printing.BulkJobView{}, shared.NewValidationError("Due date must be YYYY-MM-DD, got %q", req.DueDate)
	}
	if err := s.validate.Struct(req.Overrides); err != nil {
		return printing.BulkJobView{}, errors.Join(shared.ErrInvalidInput, err)
	}
	var format printing.Format
	if req.Format != "" {
		f, err := printingapp.ParseFormat(req.Format)
		if err != nil {
			return printing.BulkJobView{}, err
		}
		format = f
	}

	students, err := s.classStudents(ctx, req.ClassID)
	if err != nil {
		return printing.BulkJobView{}, err
	}
	if len(students) == 0 {
		return printing.BulkJobView{}, shared.NewValidationError("No students found in this class")
	}
	classFees, err := s.classFees(ctx, req.ClassID)
	if err != nil {
		return printing.BulkJobView{}, err
	}

	byID := make(map[string]school.Student, len(students))
	targets := make([]printingapp.Target, 0, len(students))
	for _, st := range students {
		byID[st.ID] = st
		targets = append(targets, printingapp.Target{ID: st.ID, Label: st.Name})
	}

	item := func(ctx context.Context, t printingapp.Target) error {
		chalan, err := s.insertChalan(ctx, accounts.GenerateChalanInput{
			Student:      byID[t.ID],
			ClassFees:    classFees,
			Overrides:    req.Overrides,
			DueDate:      req.DueDate,
			AcademicYear: req.AcademicYear,
			Now:          s.now(),
		})
		if err != nil {
			return err
		}
		if format == "" {
			return nil
		}
		doc, err := s.printer.ChalanDocument(ctx, *chalan)
		if err != nil {
			return err
		}
		_, err = s.printer.ArchiveDocument(ctx, doc, format)
		return err
	}
	detached := context.WithoutCancel(ctx)
	onProgress := func(job printing.BulkJobView) {
		if job.Progress.Done == job.Progress.Total {
			s.reload(detached, accounts.CollectionChalans)
		}
	}

	label := fmt.Sprintf("Fee chalans for class %s due %s", req.ClassID, req.DueDate)
	return s.bulk.Start(ctx, label, targets, item, onProgress), nil
}

// BulkJob returns the state of a bulk run.
func (s *Service) BulkJob(id string) (printing.BulkJobView, error) {
	job, ok := s.bulk.Job(id)
	if !ok {
		return printing.BulkJobView{}, shared.NewNotFoundError("bulk job", id)
	}
	return job, nil
}

// =============================================================================
// Payments
// =============================================================================

// PayChalan attaches a payment and marks the chalan paid. The previous
// status is not checked.
func (s *Service) PayChalan(ctx context.Context, id string, payment accounts.ChalanPayment) error {
	if err := s.validate.Struct(payment); err != nil {
		return errors.Join(shared.ErrInvalidInput, err)
	}
	return s.patch(ctx, accounts.CollectionChalans, id, accounts.PaymentPatch(payment))
}

// PayInvoice marks an invoice paid now.
func (s *Service) PayInvoice(ctx context.Context, id string) error {
	return s.patch(ctx, accounts.CollectionInvoices, id, accounts.MarkPaidPatch(s.now()))
}

// MarkOverdue flips every pending chalan whose due date has passed.
func (s *Service) MarkOverdue(ctx context.Context) (*MarkOverdueResponse, error) {
	docs, err := s.store.FetchAll(ctx, accounts.CollectionChalans, shared.Eq("status", string(accounts.ChalanPending)))
	if err != nil {
		return nil, err
	}
	chalans, err := shared.Decode[accounts.FeeChalan](docs)
	if err != nil {
		return nil, err
	}

	today := s.now().UTC().Format(shared.DateLayout)
	resp := &MarkOverdueResponse{Updated: []string{}}
	for _, c := range chalans {
		if !c.IsOverdue(today) {
			continue
		}
		if err := s.patch(ctx, accounts.CollectionChalans, c.ID, accounts.OverduePatch()); err != nil {
			return resp, err
		}
		resp.Updated = append(resp.Updated, c.ID)
	}
	resp.Count = len(resp.Updated)
	if resp.Count > 0 {
		s.logger.Info("Chalans marked overdue", zap.Int("count", resp.Count), zap.String("today", today))
	}
	return resp, nil
}

func (s *Service) patch(ctx context.Context, coll, id string, fields shared.Document) error {
	if err := s.store.Update(ctx, coll, id, fields); err != nil {
		return err
	}
	s.caches.Patch(coll, id, fields)
	return nil
}

// =============================================================================
// Class fee templates
// =============================================================================

// GetClassFees returns the fee template of a class.
func (s *Service) GetClassFees(ctx context.Context, classID string) (*accounts.ClassFeeAmount, error) {
	fees, err := s.classFees(ctx, classID)
	if err != nil {
		return nil, err
	}
	if fees == nil {
		return nil, shared.NewNotFoundError("class fee amounts", classID)
	}
	return fees, nil
}

// UpsertClassFees creates or replaces the fee template of a class.
func (s *Service) UpsertClassFees(ctx context.Context, classID string, amounts accounts.FeeAmounts) (*accounts.ClassFeeAmount, error) {
	record := accounts.ClassFeeAmount{ClassID: classID, FeeAmounts: amounts}
	if err := s.validate.Struct(record); err != nil {
		return nil, errors.Join(shared.ErrInvalidInput, err)
	}
	existing, err := s.classFees(ctx, classID)
	if err != nil {
		return nil, err
	}
	fields, err := shared.Encode(record)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		// Replace every amount so a cleared field becomes unset.
		for _, k := range []string{"monthlyTuition", "examinationFee", "libraryFee", "sportsFee", "transportFee", "otherFees", "otherFeeDescription"} {
			if _, ok := fields[k]; !ok {
				fields[k] = nil
			}
		}
		if err := s.store.Update(ctx, accounts.CollectionClassFeeAmounts, existing.ID, fields); err != nil {
			return nil, err
		}
		record.BaseRecord = existing.BaseRecord
	} else {
		id, err := s.store.Insert(ctx, accounts.CollectionClassFeeAmounts, fields)
		if err != nil {
			return nil, err
		}
		record.ID = id
	}
	s.logger.Info("Class fee amounts saved", zap.String("classId", classID), zap.String("id", record.ID))
	s.reload(ctx, accounts.CollectionClassFeeAmounts)
	return &record, nil
}

// =============================================================================
// Lookups
// =============================================================================

func (s *Service) student(ctx context.Context, id string) (*school.Student, error) {
	raw, err := s.store.FetchOne(ctx, school.CollectionUsers, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("student", id)
		}
		return nil, err
	}
	st, err := shared.DecodeOne[school.Student](raw)
	if err != nil {
		return nil, err
	}
	if st.Role != school.RoleStudent {
		return nil, shared.NewNotFoundError("student", id)
	}
	return &st, nil
}

func (s *Service) classStudents(ctx context.Context, classID string) ([]school.Student, error) {
	docs, err := s.store.FetchAll(ctx, school.CollectionUsers, shared.Eq("classId", classID))
	if err != nil {
		return nil, err
	}
	all, err := shared.Decode[school.Student](docs)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, st := range all {
		if st.Role == school.RoleStudent {
			out = append(out, st)
		}
	}
	return out, nil
}

// classFees returns the class template, or nil when the class has none.
func (s *Service) classFees(ctx context.Context, classID string) (*accounts.ClassFeeAmount, error) {
	if classID == "" {
		return nil, nil
	}
	docs, err := s.store.FetchAll(ctx, accounts.CollectionClassFeeAmounts, shared.Eq("classId", classID))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	fees, err := shared.DecodeOne[accounts.ClassFeeAmount](docs[0])
	if err != nil {
		return nil, err
	}
	return &fees, nil
}

func (s *Service) reload(ctx context.Context, coll string) {
	if err := s.caches.Reload(ctx, coll); err != nil {
		s.logger.Warn("Module reload after write failed", zap.String("collection", coll), zap.Error(err))
	}
}
