package engine

import (
	"sort"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PendingReport lists the loans of one collection type with pending cycles
type PendingReport struct {
	CollectionType domain.CollectionType `json:"collectionType"`
	AsOf           time.Time             `json:"asOf"`
	Rows           []PendingCycles       `json:"rows"`
	TotalPending   int                   `json:"totalPending"`
	TotalAmount    decimal.Decimal       `json:"totalAmount"`
}

// BuildPendingReport counts pending cycles for every active loan of
// cycleType. Loans with nothing pending are left out. Rows are ordered by
// pending count descending, then by next due date ascending.
// A loan that cannot be counted is logged and skipped.
func BuildPendingReport(loans []*domain.Loan, today time.Time, history []*domain.Collection, cycleType domain.CollectionType) (*PendingReport, error) {
	params, ok := cycleType.Params()
	if !ok {
		return nil, domain.ErrInvalidCollectionType
	}
	if !params.CountsCycles {
		return nil, ErrCycleCountingUnsupported
	}

	report := &PendingReport{
		CollectionType: cycleType,
		AsOf:           today,
		Rows:           []PendingCycles{},
		TotalAmount:    decimal.Zero,
	}

	for _, loan := range loans {
		if loan == nil || loan.CollectionType != cycleType || loan.IsClosed() {
			continue
		}
		row, err := CountPending(loan, today, history)
		if err != nil {
			log.Warn().Err(err).Int32("loan_id", loan.ID).Msg("Skipping loan in pending report")
			continue
		}
		if row.Pending == 0 {
			continue
		}
		report.Rows = append(report.Rows, row)
		report.TotalPending += row.Pending
		report.TotalAmount = report.TotalAmount.Add(row.PendingAmount)
	}

	sort.SliceStable(report.Rows, func(i, j int) bool {
		a, b := report.Rows[i], report.Rows[j]
		if a.Pending != b.Pending {
			return a.Pending > b.Pending
		}
		return a.NextDueDate.Before(b.NextDueDate)
	})

	report.TotalAmount = round2(report.TotalAmount)
	return report, nil
}
