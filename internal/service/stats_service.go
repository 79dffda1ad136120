package service

import (
	"context"
	"strings"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/util"
	"github.com/kanakku/kanakku/kanakku-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	reinvestNote      = "Profit reinvested"
	profitExpenseName = "Profit allocation"
)

// StatsService builds the business summary and allocates profit
type StatsService struct {
	loanRepo       domain.LoanRepository
	collectionRepo domain.CollectionRepository
	investmentRepo domain.InvestmentRepository
	expenseRepo    domain.ExpenseRepository
	profitRepo     domain.ProfitRepository
	now            func() time.Time
	eventPublisher websocket.EventPublisher
}

// NewStatsService creates a new StatsService
func NewStatsService(
	loanRepo domain.LoanRepository,
	collectionRepo domain.CollectionRepository,
	investmentRepo domain.InvestmentRepository,
	expenseRepo domain.ExpenseRepository,
	profitRepo domain.ProfitRepository,
) *StatsService {
	return &StatsService{
		loanRepo:       loanRepo,
		collectionRepo: collectionRepo,
		investmentRepo: investmentRepo,
		expenseRepo:    expenseRepo,
		profitRepo:     profitRepo,
		now:            time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *StatsService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// GetStats returns the summary for a workspace
func (s *StatsService) GetStats(ctx context.Context, workspaceID int32) (*domain.Stats, error) {
	// 1. Loan book
	loans, err := s.loanRepo.GetTotals(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	// 2. Money collected, split into principal and interest
	collections, err := s.collectionRepo.GetTotals(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	// 3. Money put in
	investments, err := s.investmentRepo.GetTotals(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	// 4. Money spent
	expense, err := s.expenseRepo.GetTotal(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	// Net = interest earned + advance interest - expenses
	netProfit := collections.Interest.Add(loans.TotalAdvanceInterest).Sub(expense)

	// Cash = owner money - disbursed + advance interest + collections - expenses
	cashBalance := investments.Owner.
		Sub(loans.TotalDisbursed).
		Add(loans.TotalAdvanceInterest).
		Add(collections.Total).
		Sub(expense)

	available := netProfit.Sub(investments.ReinvestedProfit)
	if available.IsNegative() {
		available = decimal.Zero
	}

	return &domain.Stats{
		ActiveLoans:              loans.ActiveCount,
		PendingAmount:            loans.ActiveRemaining.Round(2),
		TotalDisbursed:           loans.TotalDisbursed.Round(2),
		TotalAdvanceInterest:     loans.TotalAdvanceInterest.Round(2),
		TotalInvestment:          investments.Total.Round(2),
		OwnerInvestment:          investments.Owner.Round(2),
		ReinvestedProfit:         investments.ReinvestedProfit.Round(2),
		TotalCollection:          collections.Total.Round(2),
		TotalCollectionPrincipal: collections.Principal.Round(2),
		TotalCollectionInterest:  collections.Interest.Round(2),
		TotalExpense:             expense.Round(2),
		NetProfit:                netProfit.Round(2),
		CashBalance:              cashBalance.Round(2),
		AvailableProfit:          available.Round(2),
	}, nil
}

// AllocationResult holds whatever an allocation recorded
type AllocationResult struct {
	Investment *domain.Investment `json:"investment,omitempty"`
	Expense    *domain.Expense    `json:"expense,omitempty"`
}

// AllocateProfit moves available profit into a reinvestment and/or a
// profit_allocation expense
func (s *StatsService) AllocateProfit(ctx context.Context, workspaceID int32, alloc domain.ProfitAllocation) (*AllocationResult, error) {
	alloc.ReinvestAmount = alloc.ReinvestAmount.Round(2)
	alloc.ExpenseAmount = alloc.ExpenseAmount.Round(2)
	if err := alloc.Validate(); err != nil {
		return nil, err
	}

	stats, err := s.GetStats(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if alloc.Total().GreaterThan(stats.AvailableProfit) {
		return nil, domain.ErrInsufficientProfit
	}

	today := util.TruncateToDay(s.now())
	note := strings.TrimSpace(alloc.Note)

	var (
		inv *domain.Investment
		exp *domain.Expense
	)
	if alloc.ReinvestAmount.IsPositive() {
		inv = &domain.Investment{
			WorkspaceID: workspaceID,
			Amount:      alloc.ReinvestAmount,
			Source:      domain.InvestmentSourceReinvestProfit,
			Note:        noteOr(note, reinvestNote),
			Date:        today,
		}
		if err := inv.Validate(); err != nil {
			return nil, err
		}
	}
	if alloc.ExpenseAmount.IsPositive() {
		exp = &domain.Expense{
			WorkspaceID: workspaceID,
			Title:       profitExpenseName,
			Amount:      alloc.ExpenseAmount,
			Category:    domain.ExpenseCategoryProfitAllocation,
			Note:        note,
			Date:        today,
		}
		if err := exp.Validate(); err != nil {
			return nil, err
		}
	}

	created, spent, err := s.profitRepo.Allocate(ctx, inv, exp)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Str("reinvest", alloc.ReinvestAmount.StringFixed(2)).
		Str("expense", alloc.ExpenseAmount.StringFixed(2)).
		Msg("Profit allocated")

	if s.eventPublisher != nil {
		if created != nil {
			s.eventPublisher.Publish(workspaceID, websocket.InvestmentCreated(created))
		}
		if spent != nil {
			s.eventPublisher.Publish(workspaceID, websocket.ExpenseCreated(spent))
		}
	}
	return &AllocationResult{Investment: created, Expense: spent}, nil
}

func noteOr(note, fallback string) string {
	if note == "" {
		return fallback
	}
	return note
}
