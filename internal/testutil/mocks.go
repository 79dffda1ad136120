package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users    map[string]*domain.User
	UpsertFn func(profile domain.LoginProfile) (*domain.User, error)
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
	}
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// UpsertFromLogin mirrors the postgres upsert: blank name or picture keep the stored value
func (m *MockUserRepository) UpsertFromLogin(ctx context.Context, profile domain.LoginProfile) (*domain.User, error) {
	if m.UpsertFn != nil {
		return m.UpsertFn(profile)
	}
	now := time.Now()
	user, ok := m.Users[profile.Auth0ID]
	if !ok {
		user = &domain.User{ID: uuid.New(), Auth0ID: profile.Auth0ID, CreatedAt: now}
		m.Users[profile.Auth0ID] = user
	}
	user.Email = profile.Email
	if name := profile.NamePtr(); name != nil {
		user.Name = name
	}
	if picture := profile.PicturePtr(); picture != nil {
		user.PictureURL = picture
	}
	user.UpdatedAt = now
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.Auth0ID] = user
}

// MockWorkspaceRepository is a mock implementation of domain.WorkspaceRepository
type MockWorkspaceRepository struct {
	Workspaces    map[int32]*domain.Workspace
	ByUserAuth0ID map[string]*domain.Workspace
	NextID        int32
	CreateErr     error
	LookupErr     error
	Cleared       []int32
	ClearFn       func(id int32)
}

// NewMockWorkspaceRepository creates a new MockWorkspaceRepository
func NewMockWorkspaceRepository() *MockWorkspaceRepository {
	return &MockWorkspaceRepository{
		Workspaces:    make(map[int32]*domain.Workspace),
		ByUserAuth0ID: make(map[string]*domain.Workspace),
		NextID:        1,
	}
}

// GetByID retrieves a workspace by ID
func (m *MockWorkspaceRepository) GetByID(ctx context.Context, id int32) (*domain.Workspace, error) {
	if ws, ok := m.Workspaces[id]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// GetByUserAuth0ID retrieves a workspace by user's Auth0 ID
func (m *MockWorkspaceRepository) GetByUserAuth0ID(ctx context.Context, auth0ID string) (*domain.Workspace, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	if ws, ok := m.ByUserAuth0ID[auth0ID]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// Create creates a new workspace
func (m *MockWorkspaceRepository) Create(ctx context.Context, workspace *domain.Workspace) (*domain.Workspace, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	workspace.ID = m.NextID
	m.NextID++
	m.Workspaces[workspace.ID] = workspace
	return workspace, nil
}

// UpdateName renames a workspace
func (m *MockWorkspaceRepository) UpdateName(ctx context.Context, id int32, name string) (*domain.Workspace, error) {
	ws, ok := m.Workspaces[id]
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	ws.Name = name
	ws.UpdatedAt = time.Now()
	return ws, nil
}

// ClearAllData records the cleared workspace; linked repositories are
// emptied through ClearFn when set
func (m *MockWorkspaceRepository) ClearAllData(ctx context.Context, id int32) error {
	if _, ok := m.Workspaces[id]; !ok {
		return domain.ErrWorkspaceNotFound
	}
	m.Cleared = append(m.Cleared, id)
	if m.ClearFn != nil {
		m.ClearFn(id)
	}
	return nil
}

// AddWorkspace adds a workspace to the mock repository (helper for tests)
func (m *MockWorkspaceRepository) AddWorkspace(workspace *domain.Workspace, auth0ID string) {
	m.Workspaces[workspace.ID] = workspace
	if auth0ID != "" {
		m.ByUserAuth0ID[auth0ID] = workspace
	}
	if workspace.ID >= m.NextID {
		m.NextID = workspace.ID + 1
	}
}

// MockLoanRepository is a mock implementation of domain.LoanRepository.
// Loans are copied in and out so callers never share state with the store.
type MockLoanRepository struct {
	Loans     map[int32]*domain.Loan
	NextID    int32
	CreateErr error
	UpdateErr error
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{
		Loans:  make(map[int32]*domain.Loan),
		NextID: 1,
	}
}

func copyLoan(l *domain.Loan) *domain.Loan {
	cp := *l
	return &cp
}

func (m *MockLoanRepository) numberTaken(workspaceID, exceptID int32, number string) bool {
	for _, l := range m.Loans {
		if l.WorkspaceID == workspaceID && l.ID != exceptID && l.LoanNumber == number {
			return true
		}
	}
	return false
}

// Create creates a new loan
func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if m.numberTaken(loan.WorkspaceID, 0, loan.LoanNumber) {
		return nil, domain.ErrLoanNumberTaken
	}
	stored := copyLoan(loan)
	stored.ID = m.NextID
	m.NextID++
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.Loans[stored.ID] = stored
	return copyLoan(stored), nil
}

// GetByID retrieves a loan by ID
func (m *MockLoanRepository) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.Loan, error) {
	if l, ok := m.Loans[id]; ok && l.WorkspaceID == workspaceID {
		return copyLoan(l), nil
	}
	return nil, domain.ErrLoanNotFound
}

// GetByLoanNumber retrieves a loan by its number
func (m *MockLoanRepository) GetByLoanNumber(ctx context.Context, workspaceID int32, loanNumber string) (*domain.Loan, error) {
	for _, l := range m.Loans {
		if l.WorkspaceID == workspaceID && l.LoanNumber == loanNumber {
			return copyLoan(l), nil
		}
	}
	return nil, domain.ErrLoanNotFound
}

// GetAllByWorkspace lists loans, newest first
func (m *MockLoanRepository) GetAllByWorkspace(ctx context.Context, workspaceID int32, filters *domain.LoanFilters) ([]*domain.Loan, error) {
	result := []*domain.Loan{}
	for _, l := range m.Loans {
		if l.WorkspaceID != workspaceID {
			continue
		}
		if filters != nil {
			if filters.CollectionType != nil && l.CollectionType != *filters.CollectionType {
				continue
			}
			if filters.Status != nil && l.Status != *filters.Status {
				continue
			}
			if filters.PartyName != nil && !strings.EqualFold(l.PartyName, *filters.PartyName) {
				continue
			}
		}
		result = append(result, copyLoan(l))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// Update overwrites a loan, keeping its principal paid
func (m *MockLoanRepository) Update(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	existing, ok := m.Loans[loan.ID]
	if !ok || existing.WorkspaceID != loan.WorkspaceID {
		return nil, domain.ErrLoanNotFound
	}
	if m.numberTaken(loan.WorkspaceID, loan.ID, loan.LoanNumber) {
		return nil, domain.ErrLoanNumberTaken
	}
	stored := copyLoan(loan)
	stored.PrincipalPaid = existing.PrincipalPaid
	stored.PhotoKey = existing.PhotoKey
	stored.ProofKey = existing.ProofKey
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now()
	m.Loans[loan.ID] = stored
	return copyLoan(stored), nil
}

// UpdateDocumentKey stores a document key on the loan
func (m *MockLoanRepository) UpdateDocumentKey(ctx context.Context, workspaceID int32, id int32, kind domain.DocumentKind, key string) error {
	l, ok := m.Loans[id]
	if !ok || l.WorkspaceID != workspaceID {
		return domain.ErrLoanNotFound
	}
	switch kind {
	case domain.DocumentKindPhoto:
		l.PhotoKey = &key
	case domain.DocumentKindProof:
		l.ProofKey = &key
	default:
		return domain.ErrInvalidInput
	}
	return nil
}

// Delete removes a loan
func (m *MockLoanRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	l, ok := m.Loans[id]
	if !ok || l.WorkspaceID != workspaceID {
		return domain.ErrLoanNotFound
	}
	delete(m.Loans, id)
	return nil
}

// GetTotals aggregates loan amounts
func (m *MockLoanRepository) GetTotals(ctx context.Context, workspaceID int32) (*domain.LoanTotals, error) {
	totals := &domain.LoanTotals{
		TotalDisbursed:       decimal.Zero,
		TotalAdvanceInterest: decimal.Zero,
		ActiveRemaining:      decimal.Zero,
	}
	for _, l := range m.Loans {
		if l.WorkspaceID != workspaceID {
			continue
		}
		totals.TotalDisbursed = totals.TotalDisbursed.Add(l.Amount)
		totals.TotalAdvanceInterest = totals.TotalAdvanceInterest.Add(l.AdvanceInterest)
		if l.Status == domain.LoanStatusActive {
			totals.ActiveCount++
			totals.ActiveRemaining = totals.ActiveRemaining.Add(l.RemainingPrincipal())
		}
	}
	return totals, nil
}

// GetActiveWorkspaceIDs lists workspaces with an active loan
func (m *MockLoanRepository) GetActiveWorkspaceIDs(ctx context.Context) ([]int32, error) {
	seen := map[int32]bool{}
	ids := []int32{}
	for _, l := range m.Loans {
		if l.Status == domain.LoanStatusActive && !seen[l.WorkspaceID] {
			seen[l.WorkspaceID] = true
			ids = append(ids, l.WorkspaceID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// AddLoan adds a loan to the mock repository (helper for tests)
func (m *MockLoanRepository) AddLoan(loan *domain.Loan) {
	m.Loans[loan.ID] = copyLoan(loan)
	if loan.ID >= m.NextID {
		m.NextID = loan.ID + 1
	}
}

// MockCollectionRepository is a mock implementation of domain.CollectionRepository.
// Post reads and writes loans through the linked MockLoanRepository.
type MockCollectionRepository struct {
	Collections map[int32]*domain.Collection
	NextID      int32
	Loans       *MockLoanRepository
	PostErr     error
}

// NewMockCollectionRepository creates a new MockCollectionRepository
func NewMockCollectionRepository(loans *MockLoanRepository) *MockCollectionRepository {
	return &MockCollectionRepository{
		Collections: make(map[int32]*domain.Collection),
		NextID:      1,
		Loans:       loans,
	}
}

func copyCollection(c *domain.Collection) *domain.Collection {
	cp := *c
	return &cp
}

// Post builds and stores a collection against the loan
func (m *MockCollectionRepository) Post(ctx context.Context, workspaceID int32, loanNo string, build domain.PostingFunc) (*domain.Collection, *domain.Loan, error) {
	if m.PostErr != nil {
		return nil, nil, m.PostErr
	}
	loan, err := m.Loans.GetByLoanNumber(ctx, workspaceID, loanNo)
	if err != nil {
		return nil, nil, err
	}

	collection, posting, err := build(loan)
	if err != nil {
		return nil, nil, err
	}

	stored := copyCollection(collection)
	stored.ID = m.NextID
	m.NextID++
	stored.WorkspaceID = workspaceID
	stored.LoanID = loan.ID
	stored.LoanNo = loan.LoanNumber
	stored.PartyName = loan.PartyName
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.Collections[stored.ID] = stored

	current := m.Loans.Loans[loan.ID]
	current.PrincipalPaid = posting.PrincipalPaid
	current.Status = posting.Status

	return copyCollection(stored), copyLoan(current), nil
}

// GetByID retrieves a collection by ID
func (m *MockCollectionRepository) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.Collection, error) {
	if c, ok := m.Collections[id]; ok && c.WorkspaceID == workspaceID {
		return copyCollection(c), nil
	}
	return nil, domain.ErrCollectionNotFound
}

// GetAllByWorkspace lists collections, newest first
func (m *MockCollectionRepository) GetAllByWorkspace(ctx context.Context, workspaceID int32, filters *domain.CollectionFilters) ([]*domain.Collection, error) {
	result := []*domain.Collection{}
	for _, c := range m.Collections {
		if c.WorkspaceID != workspaceID {
			continue
		}
		if filters != nil {
			if filters.Date != nil && !sameDay(c.Date, *filters.Date) {
				continue
			}
			if filters.StartDate != nil && c.Date.Before(*filters.StartDate) {
				continue
			}
			if filters.EndDate != nil && c.Date.After(*filters.EndDate) {
				continue
			}
			if filters.LoanNo != nil && c.LoanNo != *filters.LoanNo {
				continue
			}
			if filters.PartyName != nil && !strings.EqualFold(c.PartyName, *filters.PartyName) {
				continue
			}
			if filters.CollectionType != nil && c.CollectionType != *filters.CollectionType {
				continue
			}
		}
		result = append(result, copyCollection(c))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Update changes the amount, split and date of a collection
func (m *MockCollectionRepository) Update(ctx context.Context, collection *domain.Collection) (*domain.Collection, error) {
	existing, ok := m.Collections[collection.ID]
	if !ok || existing.WorkspaceID != collection.WorkspaceID {
		return nil, domain.ErrCollectionNotFound
	}
	existing.Amount = collection.Amount
	existing.PrincipalPaid = collection.PrincipalPaid
	existing.InterestPaid = collection.InterestPaid
	existing.Date = collection.Date
	existing.UpdatedAt = time.Now()
	return copyCollection(existing), nil
}

// Delete removes a collection
func (m *MockCollectionRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	c, ok := m.Collections[id]
	if !ok || c.WorkspaceID != workspaceID {
		return domain.ErrCollectionNotFound
	}
	delete(m.Collections, id)
	return nil
}

// GetTotals sums collected money
func (m *MockCollectionRepository) GetTotals(ctx context.Context, workspaceID int32) (*domain.CollectionTotals, error) {
	totals := &domain.CollectionTotals{Total: decimal.Zero, Principal: decimal.Zero, Interest: decimal.Zero}
	for _, c := range m.Collections {
		if c.WorkspaceID != workspaceID {
			continue
		}
		totals.Total = totals.Total.Add(c.Amount)
		totals.Principal = totals.Principal.Add(c.PrincipalPaid)
		totals.Interest = totals.Interest.Add(c.InterestPaid)
	}
	return totals, nil
}

// AddCollection adds a collection to the mock repository (helper for tests)
func (m *MockCollectionRepository) AddCollection(c *domain.Collection) {
	m.Collections[c.ID] = copyCollection(c)
	if c.ID >= m.NextID {
		m.NextID = c.ID + 1
	}
}

// MockInvestmentRepository is a mock implementation of domain.InvestmentRepository
type MockInvestmentRepository struct {
	Investments map[int32]*domain.Investment
	NextID      int32
	CreateErr   error
}

// NewMockInvestmentRepository creates a new MockInvestmentRepository
func NewMockInvestmentRepository() *MockInvestmentRepository {
	return &MockInvestmentRepository{
		Investments: make(map[int32]*domain.Investment),
		NextID:      1,
	}
}

// Create stores an investment
func (m *MockInvestmentRepository) Create(ctx context.Context, investment *domain.Investment) (*domain.Investment, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	cp := *investment
	cp.ID = m.NextID
	m.NextID++
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.Investments[cp.ID] = &cp
	out := cp
	return &out, nil
}

// GetByID retrieves an investment by ID
func (m *MockInvestmentRepository) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.Investment, error) {
	if inv, ok := m.Investments[id]; ok && inv.WorkspaceID == workspaceID {
		cp := *inv
		return &cp, nil
	}
	return nil, domain.ErrInvestmentNotFound
}

// GetAllByWorkspace lists investments, newest first
func (m *MockInvestmentRepository) GetAllByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.Investment, error) {
	result := []*domain.Investment{}
	for _, inv := range m.Investments {
		if inv.WorkspaceID == workspaceID {
			cp := *inv
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

// Update overwrites an investment
func (m *MockInvestmentRepository) Update(ctx context.Context, investment *domain.Investment) (*domain.Investment, error) {
	existing, ok := m.Investments[investment.ID]
	if !ok || existing.WorkspaceID != investment.WorkspaceID {
		return nil, domain.ErrInvestmentNotFound
	}
	cp := *investment
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	m.Investments[cp.ID] = &cp
	out := cp
	return &out, nil
}

// Delete removes an investment
func (m *MockInvestmentRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	inv, ok := m.Investments[id]
	if !ok || inv.WorkspaceID != workspaceID {
		return domain.ErrInvestmentNotFound
	}
	delete(m.Investments, id)
	return nil
}

// GetTotals sums investments per source
func (m *MockInvestmentRepository) GetTotals(ctx context.Context, workspaceID int32) (*domain.InvestmentTotals, error) {
	totals := &domain.InvestmentTotals{Total: decimal.Zero, Owner: decimal.Zero, ReinvestedProfit: decimal.Zero}
	for _, inv := range m.Investments {
		if inv.WorkspaceID != workspaceID {
			continue
		}
		totals.Total = totals.Total.Add(inv.Amount)
		switch inv.Source {
		case domain.InvestmentSourceOwner:
			totals.Owner = totals.Owner.Add(inv.Amount)
		case domain.InvestmentSourceReinvestProfit:
			totals.ReinvestedProfit = totals.ReinvestedProfit.Add(inv.Amount)
		}
	}
	return totals, nil
}

// MockExpenseRepository is a mock implementation of domain.ExpenseRepository
type MockExpenseRepository struct {
	Expenses  map[int32]*domain.Expense
	NextID    int32
	CreateErr error
}

// NewMockExpenseRepository creates a new MockExpenseRepository
func NewMockExpenseRepository() *MockExpenseRepository {
	return &MockExpenseRepository{
		Expenses: make(map[int32]*domain.Expense),
		NextID:   1,
	}
}

// Create stores an expense
func (m *MockExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	cp := *expense
	cp.ID = m.NextID
	m.NextID++
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.Expenses[cp.ID] = &cp
	out := cp
	return &out, nil
}

// GetByID retrieves an expense by ID
func (m *MockExpenseRepository) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.Expense, error) {
	if e, ok := m.Expenses[id]; ok && e.WorkspaceID == workspaceID {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrExpenseNotFound
}

// GetAllByWorkspace lists expenses, optionally of one category
func (m *MockExpenseRepository) GetAllByWorkspace(ctx context.Context, workspaceID int32, category *domain.ExpenseCategory) ([]*domain.Expense, error) {
	result := []*domain.Expense{}
	for _, e := range m.Expenses {
		if e.WorkspaceID != workspaceID {
			continue
		}
		if category != nil && e.Category != *category {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

// Update overwrites an expense
func (m *MockExpenseRepository) Update(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	existing, ok := m.Expenses[expense.ID]
	if !ok || existing.WorkspaceID != expense.WorkspaceID {
		return nil, domain.ErrExpenseNotFound
	}
	cp := *expense
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	m.Expenses[cp.ID] = &cp
	out := cp
	return &out, nil
}

// Delete removes an expense
func (m *MockExpenseRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	e, ok := m.Expenses[id]
	if !ok || e.WorkspaceID != workspaceID {
		return domain.ErrExpenseNotFound
	}
	delete(m.Expenses, id)
	return nil
}

// GetTotal sums all expenses
func (m *MockExpenseRepository) GetTotal(ctx context.Context, workspaceID int32) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range m.Expenses {
		if e.WorkspaceID == workspaceID {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

// MockProfitRepository is a mock implementation of domain.ProfitRepository
// writing into the linked investment and expense mocks
type MockProfitRepository struct {
	Investments *MockInvestmentRepository
	Expenses    *MockExpenseRepository
	AllocateErr error
}

// NewMockProfitRepository creates a new MockProfitRepository
func NewMockProfitRepository(investments *MockInvestmentRepository, expenses *MockExpenseRepository) *MockProfitRepository {
	return &MockProfitRepository{Investments: investments, Expenses: expenses}
}

// Allocate records the non-nil parts
func (m *MockProfitRepository) Allocate(ctx context.Context, investment *domain.Investment, expense *domain.Expense) (*domain.Investment, *domain.Expense, error) {
	if m.AllocateErr != nil {
		return nil, nil, m.AllocateErr
	}
	var (
		inv *domain.Investment
		exp *domain.Expense
		err error
	)
	if investment != nil {
		if inv, err = m.Investments.Create(ctx, investment); err != nil {
			return nil, nil, err
		}
	}
	if expense != nil {
		if exp, err = m.Expenses.Create(ctx, expense); err != nil {
			return nil, nil, err
		}
	}
	return inv, exp, nil
}

// MockDocumentStorage is an in-memory storage.DocumentRepository
type MockDocumentStorage struct {
	Objects   map[string][]byte
	UploadErr error
	// FailAfter makes uploads fail once this many have succeeded; 0 disables it
	FailAfter int
	uploads   int
}

// NewMockDocumentStorage creates a new MockDocumentStorage
func NewMockDocumentStorage() *MockDocumentStorage {
	return &MockDocumentStorage{Objects: make(map[string][]byte)}
}

// Upload stores the object and returns its key
func (m *MockDocumentStorage) Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	if m.FailAfter > 0 && m.uploads >= m.FailAfter {
		return "", fmt.Errorf("upload %s: storage unavailable", key)
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.uploads++
	m.Objects[key] = b
	return key, nil
}

// Delete removes an object
func (m *MockDocumentStorage) Delete(ctx context.Context, key string) error {
	delete(m.Objects, key)
	return nil
}

// GeneratePresignedURL returns a deterministic fake URL
func (m *MockDocumentStorage) GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if _, ok := m.Objects[key]; !ok {
		return "", fmt.Errorf("object %s not found", key)
	}
	return fmt.Sprintf("https://storage.test/%s?expires=%d", key, int(expiry.Seconds())), nil
}

// PublishedEvent is one call recorded by MockEventPublisher
type PublishedEvent struct {
	WorkspaceID int32
	Event       websocket.Event
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records the event
func (m *MockEventPublisher) Publish(workspaceID int32, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{WorkspaceID: workspaceID, Event: event})
}

// Types returns the recorded event types in order
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Event.Type
	}
	return types
}
