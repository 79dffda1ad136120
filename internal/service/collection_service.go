package service

import (
	"context"
	"strings"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/engine"
	"github.com/kanakku/kanakku/kanakku-backend/internal/metrics"
	"github.com/kanakku/kanakku/kanakku-backend/internal/util"
	"github.com/kanakku/kanakku/kanakku-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CollectionService records payments against loans
type CollectionService struct {
	collectionRepo domain.CollectionRepository
	loanRepo       domain.LoanRepository
	eventPublisher websocket.EventPublisher
}

// NewCollectionService creates a new CollectionService
func NewCollectionService(collectionRepo domain.CollectionRepository, loanRepo domain.LoanRepository) *CollectionService {
	return &CollectionService{
		collectionRepo: collectionRepo,
		loanRepo:       loanRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *CollectionService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *CollectionService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// PreviewInput identifies the loan and the payment to preview.
// A nil Amount previews the suggested amount.
type PreviewInput struct {
	LoanNo         string
	CollectionType domain.CollectionType
	PaymentMode    domain.PaymentMode
	Amount         *decimal.Decimal
}

// Preview is the server-side split of a prospective payment
type Preview struct {
	SuggestedAmount    decimal.Decimal `json:"suggestedAmount"`
	Amount             decimal.Decimal `json:"amount"`
	PrincipalPaid      decimal.Decimal `json:"principalPaid"`
	InterestPaid       decimal.Decimal `json:"interestPaid"`
	RemainingPrincipal decimal.Decimal `json:"remainingPrincipal"`
}

// PreviewCollection suggests an amount for the loan and splits the payment
// without storing anything
func (s *CollectionService) PreviewCollection(ctx context.Context, workspaceID int32, input PreviewInput) (*Preview, error) {
	loan, err := s.loanRepo.GetByLoanNumber(ctx, workspaceID, strings.TrimSpace(input.LoanNo))
	if err != nil {
		return nil, err
	}
	if err := checkCollectable(loan, input.CollectionType); err != nil {
		return nil, err
	}

	suggested, err := engine.DefaultAmount(loan, input.CollectionType, input.PaymentMode)
	if err != nil {
		return nil, err
	}

	amount := suggested
	if input.Amount != nil {
		amount = *input.Amount
	}

	preview := &Preview{
		SuggestedAmount:    suggested,
		Amount:             amount,
		PrincipalPaid:      decimal.Zero,
		InterestPaid:       decimal.Zero,
		RemainingPrincipal: loan.RemainingPrincipal(),
	}
	// nothing left to suggest, e.g. a fully repaid loan in close mode
	if !amount.IsPositive() && input.Amount == nil {
		return preview, nil
	}

	split, err := engine.ComputeSplit(loan, amount, input.CollectionType, input.PaymentMode)
	if err != nil {
		return nil, err
	}
	preview.Amount = split.PrincipalPaid.Add(split.InterestPaid)
	preview.PrincipalPaid = split.PrincipalPaid
	preview.InterestPaid = split.InterestPaid
	preview.RemainingPrincipal = loan.RemainingPrincipal().Sub(split.PrincipalPaid)
	return preview, nil
}

// CollectionInput is a payment to record. Any principal/interest split the
// client computed is ignored.
type CollectionInput struct {
	LoanNo         string
	CollectionType domain.CollectionType
	PaymentMode    domain.PaymentMode
	Amount         decimal.Decimal
	Date           time.Time
}

// CreateCollection splits the payment against the loan as stored, records
// the collection and advances the loan's principal in one transaction.
// The loan is closed when no principal remains.
func (s *CollectionService) CreateCollection(ctx context.Context, workspaceID int32, input CollectionInput) (*domain.Collection, *domain.Loan, error) {
	if !input.CollectionType.IsValid() {
		return nil, nil, domain.ErrInvalidCollectionType
	}
	if !engine.ValidPayment(input.Amount) {
		return nil, nil, domain.ErrCollectionAmountInvalid
	}
	if input.Date.IsZero() {
		return nil, nil, domain.ErrCollectionDateRequired
	}
	mode := input.PaymentMode
	if mode == "" {
		mode = domain.PaymentModeRegular
	}

	build := func(loan *domain.Loan) (*domain.Collection, domain.LoanPosting, error) {
		if err := checkCollectable(loan, input.CollectionType); err != nil {
			return nil, domain.LoanPosting{}, err
		}
		split, err := engine.ComputeSplit(loan, input.Amount, input.CollectionType, mode)
		if err != nil {
			return nil, domain.LoanPosting{}, err
		}

		posting := domain.LoanPosting{
			PrincipalPaid: loan.PrincipalPaid.Add(split.PrincipalPaid),
			Status:        domain.LoanStatusActive,
		}
		if !loan.Amount.Sub(posting.PrincipalPaid).IsPositive() {
			posting.Status = domain.LoanStatusClosed
		}

		return &domain.Collection{
			WorkspaceID:    workspaceID,
			LoanID:         loan.ID,
			LoanNo:         loan.LoanNumber,
			PartyName:      loan.PartyName,
			CollectionType: input.CollectionType,
			PaymentMode:    mode,
			Amount:         split.PrincipalPaid.Add(split.InterestPaid),
			PrincipalPaid:  split.PrincipalPaid,
			InterestPaid:   split.InterestPaid,
			Date:           util.TruncateToDay(input.Date),
		}, posting, nil
	}

	collection, loan, err := s.collectionRepo.Post(ctx, workspaceID, strings.TrimSpace(input.LoanNo), build)
	if err != nil {
		return nil, nil, err
	}

	closed := loan.IsClosed()
	metrics.ObserveCollection(string(collection.CollectionType), string(collection.PaymentMode),
		collection.PrincipalPaid, collection.InterestPaid, closed)

	log.Info().
		Int32("workspace_id", workspaceID).
		Int32("collection_id", collection.ID).
		Str("loan_number", collection.LoanNo).
		Str("amount", collection.Amount.String()).
		Bool("loan_closed", closed).
		Msg("Collection recorded")

	s.publishEvent(workspaceID, websocket.CollectionCreated(collection))
	if closed {
		s.publishEvent(workspaceID, websocket.LoanClosed(loan))
	} else {
		s.publishEvent(workspaceID, websocket.LoanUpdated(loan))
	}
	return collection, loan, nil
}

// checkCollectable rejects payments a loan cannot take
func checkCollectable(loan *domain.Loan, collectionType domain.CollectionType) error {
	if !collectionType.IsValid() {
		return domain.ErrInvalidCollectionType
	}
	if loan.CollectionType != collectionType {
		return domain.ErrCollectionTypeMismatch
	}
	if loan.IsClosed() {
		return domain.ErrLoanClosed
	}
	return nil
}

// GetCollections lists collections matching filters
func (s *CollectionService) GetCollections(ctx context.Context, workspaceID int32, filters *domain.CollectionFilters) ([]*domain.Collection, error) {
	return s.collectionRepo.GetAllByWorkspace(ctx, workspaceID, filters)
}

// CollectionReport is a filtered listing with its total
type CollectionReport struct {
	Collections    []*domain.Collection `json:"collections"`
	Total          decimal.Decimal      `json:"total"`
	TotalPrincipal decimal.Decimal      `json:"totalPrincipal"`
	TotalInterest  decimal.Decimal      `json:"totalInterest"`
}

// GetReport lists collections matching filters with their totals
func (s *CollectionService) GetReport(ctx context.Context, workspaceID int32, filters *domain.CollectionFilters) (*CollectionReport, error) {
	collections, err := s.collectionRepo.GetAllByWorkspace(ctx, workspaceID, filters)
	if err != nil {
		return nil, err
	}

	report := &CollectionReport{
		Collections:    collections,
		Total:          decimal.Zero,
		TotalPrincipal: decimal.Zero,
		TotalInterest:  decimal.Zero,
	}
	for _, c := range collections {
		report.Total = report.Total.Add(c.Amount)
		report.TotalPrincipal = report.TotalPrincipal.Add(c.PrincipalPaid)
		report.TotalInterest = report.TotalInterest.Add(c.InterestPaid)
	}
	return report, nil
}

// GetCollectionByID retrieves a collection by ID
func (s *CollectionService) GetCollectionByID(ctx context.Context, workspaceID int32, id int32) (*domain.Collection, error) {
	return s.collectionRepo.GetByID(ctx, workspaceID, id)
}

// UpdateCollectionInput holds the editable fields of a collection
type UpdateCollectionInput struct {
	Amount decimal.Decimal
	Date   time.Time
}

// UpdateCollection corrects the amount or date of a collection. The loan is
// not reconciled: the recorded principal is kept, capped at the new amount,
// and the rest is interest.
func (s *CollectionService) UpdateCollection(ctx context.Context, workspaceID int32, id int32, input UpdateCollectionInput) (*domain.Collection, error) {
	if !engine.ValidPayment(input.Amount) {
		return nil, domain.ErrCollectionAmountInvalid
	}
	if input.Date.IsZero() {
		return nil, domain.ErrCollectionDateRequired
	}

	existing, err := s.collectionRepo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}

	existing.Amount = input.Amount
	existing.PrincipalPaid = decimal.Min(existing.PrincipalPaid, existing.Amount)
	existing.InterestPaid = existing.Amount.Sub(existing.PrincipalPaid)
	existing.Date = util.TruncateToDay(input.Date)

	updated, err := s.collectionRepo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	log.Warn().
		Int32("workspace_id", workspaceID).
		Int32("collection_id", id).
		Str("loan_number", updated.LoanNo).
		Msg("Collection edited; loan principal not reconciled")
	s.publishEvent(workspaceID, websocket.CollectionUpdated(updated))
	return updated, nil
}

// DeleteCollection removes a collection without touching the loan
func (s *CollectionService) DeleteCollection(ctx context.Context, workspaceID int32, id int32) error {
	if err := s.collectionRepo.Delete(ctx, workspaceID, id); err != nil {
		return err
	}
	log.Info().Int32("workspace_id", workspaceID).Int32("collection_id", id).Msg("Collection deleted")
	s.publishEvent(workspaceID, websocket.CollectionDeleted(map[string]interface{}{"id": id}))
	return nil
}

// LedgerSummary totals a party's loans against what they have paid
type LedgerSummary struct {
	LoanCount         int                   `json:"loanCount"`
	LoanAmount        decimal.Decimal       `json:"loanAmount"`
	TotalPayable      decimal.Decimal       `json:"totalPayable"`
	TotalPaid         decimal.Decimal       `json:"totalPaid"`
	RemainingBalance  decimal.Decimal       `json:"remainingBalance"`
	CollectionType    domain.CollectionType `json:"collectionType"`
	InstallmentAmount decimal.Decimal       `json:"installmentAmount"`
}

// Ledger is every collection of one party with a summary of their loans
type Ledger struct {
	PartyName   string               `json:"partyName"`
	Collections []*domain.Collection `json:"collections"`
	Summary     *LedgerSummary       `json:"summary"`
}

// GetLedger returns a party's ledger. The party name matches case-insensitively.
// Summary is nil when the party has no loans.
func (s *CollectionService) GetLedger(ctx context.Context, workspaceID int32, partyName string) (*Ledger, error) {
	partyName = strings.TrimSpace(partyName)
	if partyName == "" {
		return nil, domain.ErrPartyNameRequired
	}

	collections, err := s.collectionRepo.GetAllByWorkspace(ctx, workspaceID, &domain.CollectionFilters{PartyName: &partyName})
	if err != nil {
		return nil, err
	}
	loans, err := s.loanRepo.GetAllByWorkspace(ctx, workspaceID, &domain.LoanFilters{PartyName: &partyName})
	if err != nil {
		return nil, err
	}

	ledger := &Ledger{PartyName: partyName, Collections: collections}
	if len(loans) == 0 {
		return ledger, nil
	}

	summary := &LedgerSummary{
		LoanCount:    len(loans),
		LoanAmount:   decimal.Zero,
		TotalPayable: decimal.Zero,
		TotalPaid:    decimal.Zero,
		// loans are listed newest first
		CollectionType:    loans[0].CollectionType,
		InstallmentAmount: loans[0].InstallmentAmount,
	}
	for _, l := range loans {
		summary.LoanAmount = summary.LoanAmount.Add(l.Amount)
		summary.TotalPayable = summary.TotalPayable.Add(l.TotalPayable)
	}
	for _, c := range collections {
		summary.TotalPaid = summary.TotalPaid.Add(c.Amount)
	}
	summary.RemainingBalance = decimal.Max(summary.TotalPayable.Sub(summary.TotalPaid), decimal.Zero)
	ledger.Summary = summary
	return ledger, nil
}
