package attendance

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"rollbook/internal/caldate"
)

// Mark is one student's status in a save request.
type Mark struct {
	StudentID int64
	Status    Status
}

// SaveResult counts what SaveMarks did with a batch.
type SaveResult struct {
	Saved   int
	Skipped int
}

// Service coordinates marking on top of a Store.
type Service struct {
	store Store
	log   *zap.Logger
}

// NewService creates a service backed by a store.
func NewService(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log}
}

// SaveMarks upserts each mark for (date, subjectID) independently. Malformed
// marks and marks naming a missing student or subject are skipped; any other
// storage fault stops the batch, leaving earlier marks saved.
//
// TODO: decide with stakeholders whether a batch should commit atomically.
func (s *Service) SaveMarks(ctx context.Context, date caldate.Date, subjectID int64, marks []Mark) (SaveResult, error) {
	var res SaveResult
	for _, m := range marks {
		if subjectID <= 0 || m.StudentID <= 0 || !m.Status.Valid() {
			s.log.Debug("skipping malformed mark",
				zap.Int64("subject_id", subjectID), zap.Int64("student_id", m.StudentID), zap.String("status", string(m.Status)))
			res.Skipped++
			continue
		}
		err := s.store.Upsert(ctx, Record{Date: date, SubjectID: subjectID, StudentID: m.StudentID, Status: m.Status})
		var refErr *ReferentialError
		switch {
		case errors.As(err, &refErr):
			s.log.Warn("skipping mark for missing student or subject",
				zap.Int64("subject_id", subjectID), zap.Int64("student_id", m.StudentID))
			res.Skipped++
		case err != nil:
			return res, err
		default:
			res.Saved++
		}
	}
	return res, nil
}

// Sheet returns the roster's statuses for one class session. fallback must
// be StatusAbsentUninformed (read-only view) or StatusNone (marking form).
func (s *Service) Sheet(ctx context.Context, subjectID int64, date caldate.Date, fallback Status) ([]SheetEntry, error) {
	if fallback != StatusAbsentUninformed && fallback != StatusNone {
		return nil, errors.Errorf("unsupported sheet fallback %q", fallback)
	}
	return s.store.Sheet(ctx, subjectID, date, fallback)
}
