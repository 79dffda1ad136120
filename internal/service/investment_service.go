package service

import (
	"context"
	"strings"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/util"
	"github.com/kanakku/kanakku/kanakku-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// InvestmentService handles money put into the lending pool
type InvestmentService struct {
	investmentRepo domain.InvestmentRepository
	eventPublisher websocket.EventPublisher
}

// NewInvestmentService creates a new InvestmentService
func NewInvestmentService(investmentRepo domain.InvestmentRepository) *InvestmentService {
	return &InvestmentService{investmentRepo: investmentRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *InvestmentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// InvestmentInput contains the editable fields of an investment.
// Source is parsed, so the legacy "reinvest" value is accepted.
type InvestmentInput struct {
	Amount decimal.Decimal
	Source string
	Note   string
	Date   time.Time
}

func (in InvestmentInput) build(workspaceID int32) (*domain.Investment, error) {
	source, err := domain.ParseInvestmentSource(in.Source)
	if err != nil {
		return nil, err
	}
	inv := &domain.Investment{
		WorkspaceID: workspaceID,
		Amount:      in.Amount.Round(2),
		Source:      source,
		Note:        strings.TrimSpace(in.Note),
		Date:        in.Date,
	}
	if inv.Date.IsZero() {
		inv.Date = time.Now()
	}
	inv.Date = util.TruncateToDay(inv.Date)
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	return inv, nil
}

// CreateInvestment records a new investment
func (s *InvestmentService) CreateInvestment(ctx context.Context, workspaceID int32, input InvestmentInput) (*domain.Investment, error) {
	inv, err := input.build(workspaceID)
	if err != nil {
		return nil, err
	}
	created, err := s.investmentRepo.Create(ctx, inv)
	if err != nil {
		return nil, err
	}
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, websocket.InvestmentCreated(created))
	}
	return created, nil
}

// GetInvestments lists a workspace's investments
func (s *InvestmentService) GetInvestments(ctx context.Context, workspaceID int32) ([]*domain.Investment, error) {
	return s.investmentRepo.GetAllByWorkspace(ctx, workspaceID)
}

// GetInvestmentByID retrieves an investment by ID
func (s *InvestmentService) GetInvestmentByID(ctx context.Context, workspaceID int32, id int32) (*domain.Investment, error) {
	return s.investmentRepo.GetByID(ctx, workspaceID, id)
}

// UpdateInvestment overwrites an investment
func (s *InvestmentService) UpdateInvestment(ctx context.Context, workspaceID int32, id int32, input InvestmentInput) (*domain.Investment, error) {
	inv, err := input.build(workspaceID)
	if err != nil {
		return nil, err
	}
	inv.ID = id
	return s.investmentRepo.Update(ctx, inv)
}

// DeleteInvestment removes an investment
func (s *InvestmentService) DeleteInvestment(ctx context.Context, workspaceID int32, id int32) error {
	return s.investmentRepo.Delete(ctx, workspaceID, id)
}
