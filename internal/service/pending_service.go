package service

import (
	"context"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/engine"
)

// PendingService builds the pending-collection reports
type PendingService struct {
	loanRepo       domain.LoanRepository
	collectionRepo domain.CollectionRepository
	loc            *time.Location
	now            func() time.Time
}

// NewPendingService creates a new PendingService. Today is taken in loc.
func NewPendingService(loanRepo domain.LoanRepository, collectionRepo domain.CollectionRepository, loc *time.Location) *PendingService {
	if loc == nil {
		loc = time.Local
	}
	return &PendingService{
		loanRepo:       loanRepo,
		collectionRepo: collectionRepo,
		loc:            loc,
		now:            time.Now,
	}
}

// Today returns the current calendar day in the business time zone
func (s *PendingService) Today() time.Time {
	return s.now().In(s.loc)
}

// GetPendingReport counts the pending cycles of every active loan of the
// collection type as of today
func (s *PendingService) GetPendingReport(ctx context.Context, workspaceID int32, collectionType domain.CollectionType) (*engine.PendingReport, error) {
	return s.GetPendingReportAsOf(ctx, workspaceID, collectionType, s.Today())
}

// GetPendingReportAsOf is GetPendingReport for an explicit day
func (s *PendingService) GetPendingReportAsOf(ctx context.Context, workspaceID int32, collectionType domain.CollectionType, today time.Time) (*engine.PendingReport, error) {
	params, ok := collectionType.Params()
	if !ok {
		return nil, domain.ErrInvalidCollectionType
	}
	if !params.CountsCycles {
		return nil, engine.ErrCycleCountingUnsupported
	}

	active := domain.LoanStatusActive
	loans, err := s.loanRepo.GetAllByWorkspace(ctx, workspaceID, &domain.LoanFilters{
		CollectionType: &collectionType,
		Status:         &active,
	})
	if err != nil {
		return nil, err
	}

	history, err := s.collectionRepo.GetAllByWorkspace(ctx, workspaceID, &domain.CollectionFilters{
		CollectionType: &collectionType,
	})
	if err != nil {
		return nil, err
	}

	return engine.BuildPendingReport(loans, today, history, collectionType)
}

// PendingReportTypes are the collection types that have a pending report
func PendingReportTypes() []domain.CollectionType {
	return []domain.CollectionType{
		domain.CollectionTypeWeekly,
		domain.CollectionTypeMonthly,
		domain.CollectionTypeFire,
	}
}
