package service

import (
	"context"
	"strings"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/engine"
	"github.com/kanakku/kanakku/kanakku-backend/internal/util"
	"github.com/kanakku/kanakku/kanakku-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LoanService handles loan business logic
type LoanService struct {
	loanRepo       domain.LoanRepository
	loc            *time.Location
	now            func() time.Time
	eventPublisher websocket.EventPublisher
}

// NewLoanService creates a new LoanService. loc is the business time zone
// used to derive ages.
func NewLoanService(loanRepo domain.LoanRepository, loc *time.Location) *LoanService {
	if loc == nil {
		loc = time.Local
	}
	return &LoanService{
		loanRepo: loanRepo,
		loc:      loc,
		now:      time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *LoanService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *LoanService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// LoanInput contains the editable fields of a loan. A zero Duration or
// InterestRate takes the collection type's default.
type LoanInput struct {
	LoanNumber      string
	PartyName       string
	FatherName      string
	DateOfBirth     *time.Time
	Age             int32
	Occupation      string
	Address         string
	Mobile          string
	Aadhar          string
	WitnessMobile   string
	Amount          decimal.Decimal
	AdvanceInterest decimal.Decimal
	Date            time.Time
	CollectionType  domain.CollectionType
	Duration        int32
	InterestRate    decimal.Decimal
}

// CreateLoan creates a loan with its derived fields filled in
func (s *LoanService) CreateLoan(ctx context.Context, workspaceID int32, input LoanInput) (*domain.Loan, error) {
	loan := &domain.Loan{
		WorkspaceID:   workspaceID,
		PrincipalPaid: decimal.Zero,
		Status:        domain.LoanStatusActive,
	}
	if err := s.apply(loan, input); err != nil {
		return nil, err
	}

	created, err := s.loanRepo.Create(ctx, loan)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Int32("loan_id", created.ID).
		Str("loan_number", created.LoanNumber).
		Str("collection_type", string(created.CollectionType)).
		Msg("Loan created")
	s.publishEvent(workspaceID, websocket.LoanCreated(created))
	return created, nil
}

// GetLoans lists a workspace's loans
func (s *LoanService) GetLoans(ctx context.Context, workspaceID int32, filters *domain.LoanFilters) ([]*domain.Loan, error) {
	return s.loanRepo.GetAllByWorkspace(ctx, workspaceID, filters)
}

// GetLoanByID retrieves a loan by ID
func (s *LoanService) GetLoanByID(ctx context.Context, workspaceID int32, id int32) (*domain.Loan, error) {
	return s.loanRepo.GetByID(ctx, workspaceID, id)
}

// GetLoanByNumber retrieves a loan by its loan number
func (s *LoanService) GetLoanByNumber(ctx context.Context, workspaceID int32, loanNumber string) (*domain.Loan, error) {
	loanNumber = strings.TrimSpace(loanNumber)
	if loanNumber == "" {
		return nil, domain.ErrLoanNumberRequired
	}
	return s.loanRepo.GetByLoanNumber(ctx, workspaceID, loanNumber)
}

// UpdateLoan overwrites the editable fields and recomputes the derived ones.
// Principal already collected is kept.
func (s *LoanService) UpdateLoan(ctx context.Context, workspaceID int32, id int32, input LoanInput) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(loan, input); err != nil {
		return nil, err
	}
	if loan.RemainingPrincipal().IsZero() {
		loan.Status = domain.LoanStatusClosed
	} else {
		loan.Status = domain.LoanStatusActive
	}

	updated, err := s.loanRepo.Update(ctx, loan)
	if err != nil {
		return nil, err
	}
	s.publishEvent(workspaceID, websocket.LoanUpdated(updated))
	return updated, nil
}

// DeleteLoan removes a loan together with its collections
func (s *LoanService) DeleteLoan(ctx context.Context, workspaceID int32, id int32) error {
	if err := s.loanRepo.Delete(ctx, workspaceID, id); err != nil {
		return err
	}
	log.Info().Int32("workspace_id", workspaceID).Int32("loan_id", id).Msg("Loan deleted")
	s.publishEvent(workspaceID, websocket.LoanDeleted(map[string]interface{}{"id": id}))
	return nil
}

// apply copies input onto loan, fills defaults and derived fields and validates
func (s *LoanService) apply(loan *domain.Loan, input LoanInput) error {
	params, ok := input.CollectionType.Params()
	if !ok {
		return domain.ErrInvalidCollectionType
	}

	loan.LoanNumber = strings.TrimSpace(input.LoanNumber)
	loan.PartyName = strings.TrimSpace(input.PartyName)
	loan.FatherName = strings.TrimSpace(input.FatherName)
	loan.DateOfBirth = input.DateOfBirth
	loan.Age = input.Age
	loan.Occupation = strings.TrimSpace(input.Occupation)
	loan.Address = strings.TrimSpace(input.Address)
	loan.Mobile = strings.TrimSpace(input.Mobile)
	loan.Aadhar = strings.TrimSpace(input.Aadhar)
	loan.WitnessMobile = strings.TrimSpace(input.WitnessMobile)
	loan.Amount = input.Amount.Round(2)
	loan.AdvanceInterest = input.AdvanceInterest.Round(2)
	loan.CollectionType = input.CollectionType
	loan.Duration = input.Duration
	loan.InterestRate = input.InterestRate

	if !input.Date.IsZero() {
		loan.Date = util.TruncateToDay(input.Date)
	} else {
		loan.Date = time.Time{}
	}
	if loan.Duration == 0 {
		loan.Duration = params.DefaultDuration
	}
	if loan.InterestRate.IsZero() {
		loan.InterestRate = params.DefaultInterestRate
	}
	if loan.DateOfBirth != nil {
		loan.Age = int32(util.AgeOn(*loan.DateOfBirth, s.now().In(s.loc)))
	}

	if err := loan.Validate(); err != nil {
		return err
	}

	loan.TotalPayable, loan.InstallmentAmount = LoanTerms(loan)
	end := util.AddDays(loan.Date, loan.CollectionType.TermDays(loan.Duration))
	loan.EndDate = &end
	return nil
}

// LoanTerms returns the total payable and the per-cycle installment.
// Interest-only types repay the principal once and bill one cycle of
// interest per installment.
func LoanTerms(loan *domain.Loan) (totalPayable, installment decimal.Decimal) {
	if loan.CollectionType.IsInterestOnly() {
		return loan.Amount.Round(2), engine.CycleInterest(loan)
	}
	totalPayable = loan.Amount.Mul(decimal.NewFromInt(1).Add(loan.InterestRate.Div(hundred))).Round(2)
	installment = totalPayable.Div(decimal.NewFromInt(int64(loan.Duration))).Round(2)
	return totalPayable, installment
}
