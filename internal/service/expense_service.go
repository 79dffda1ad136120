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

// ExpenseService handles business expenses
type ExpenseService struct {
	expenseRepo    domain.ExpenseRepository
	eventPublisher websocket.EventPublisher
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(expenseRepo domain.ExpenseRepository) *ExpenseService {
	return &ExpenseService{expenseRepo: expenseRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *ExpenseService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// ExpenseInput contains the editable fields of an expense
type ExpenseInput struct {
	Title    string
	Amount   decimal.Decimal
	Category string
	Note     string
	Date     time.Time
}

func (in ExpenseInput) build(workspaceID int32) (*domain.Expense, error) {
	category, err := domain.ParseExpenseCategory(in.Category)
	if err != nil {
		return nil, err
	}
	e := &domain.Expense{
		WorkspaceID: workspaceID,
		Title:       strings.TrimSpace(in.Title),
		Amount:      in.Amount.Round(2),
		Category:    category,
		Note:        strings.TrimSpace(in.Note),
		Date:        in.Date,
	}
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	e.Date = util.TruncateToDay(e.Date)
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// CreateExpense records a new expense
func (s *ExpenseService) CreateExpense(ctx context.Context, workspaceID int32, input ExpenseInput) (*domain.Expense, error) {
	e, err := input.build(workspaceID)
	if err != nil {
		return nil, err
	}
	created, err := s.expenseRepo.Create(ctx, e)
	if err != nil {
		return nil, err
	}
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, websocket.ExpenseCreated(created))
	}
	return created, nil
}

// ExpenseList is a listing of expenses with their total
type ExpenseList struct {
	Expenses []*domain.Expense `json:"expenses"`
	Total    decimal.Decimal   `json:"total"`
}

// GetExpenses lists expenses, optionally of one category, with their total
func (s *ExpenseService) GetExpenses(ctx context.Context, workspaceID int32, category *domain.ExpenseCategory) (*ExpenseList, error) {
	expenses, err := s.expenseRepo.GetAllByWorkspace(ctx, workspaceID, category)
	if err != nil {
		return nil, err
	}
	list := &ExpenseList{Expenses: expenses, Total: decimal.Zero}
	for _, e := range expenses {
		list.Total = list.Total.Add(e.Amount)
	}
	return list, nil
}

// GetExpenseByID retrieves an expense by ID
func (s *ExpenseService) GetExpenseByID(ctx context.Context, workspaceID int32, id int32) (*domain.Expense, error) {
	return s.expenseRepo.GetByID(ctx, workspaceID, id)
}

// UpdateExpense overwrites an expense
func (s *ExpenseService) UpdateExpense(ctx context.Context, workspaceID int32, id int32, input ExpenseInput) (*domain.Expense, error) {
	e, err := input.build(workspaceID)
	if err != nil {
		return nil, err
	}
	e.ID = id
	return s.expenseRepo.Update(ctx, e)
}

// DeleteExpense removes an expense
func (s *ExpenseService) DeleteExpense(ctx context.Context, workspaceID int32, id int32) error {
	return s.expenseRepo.Delete(ctx, workspaceID, id)
}
