package practice

import (
	"context"
	"fmt"
	"strings"

	"github.com/JustJay7/chamber-desk/internal/billing"
	"gorm.io/gorm"
)

// Statement is the fee position of a brief after a payment
type Statement struct {
	CaseID      string  `json:"case_id"`
	TotalFee    float64 `json:"total_fee"`
	PaidFee     float64 `json:"paid_fee"`
	Outstanding float64 `json:"outstanding"`
}

// SaveStrategy stores confidential strategy notes on the brief
func (s *Cases) SaveStrategy(ctx context.Context, caseID, notes string) error {
	return s.update(ctx, caseID, map[string]interface{}{"strategy_notes": notes})
}

// GenerateMemo computes the GST memo for a fee and records the total as billed
func (s *Cases) GenerateMemo(ctx context.Context, caseID string, fee float64) (billing.Memo, error) {
	memo, err := billing.NewMemo(caseID, fee)
	if err != nil {
		return billing.Memo{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.update(ctx, caseID, map[string]interface{}{"total_fee": memo.Total}); err != nil {
		return billing.Memo{}, err
	}

	s.logger.Info("Fee memo generated", "case_id", caseID, "total", memo.Total)
	archive(ctx, s.archiver, s.logger)
	return memo, nil
}

// RecordPayment adds a receipt against the first brief under caseID
func (s *Cases) RecordPayment(ctx context.Context, caseID string, amount float64) (Statement, error) {
	if amount <= 0 || !billing.Finite(amount) {
		return Statement{}, fmt.Errorf("%w: %v", ErrInvalidInput, billing.ErrNegativePayment)
	}
	caseID = strings.TrimSpace(caseID)

	var st Statement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := (&Cases{db: tx}).Get(ctx, caseID)
		if err != nil {
			return err
		}
		c.PaidFee += amount
		if !billing.Finite(c.PaidFee) {
			return fmt.Errorf("%w: %v", ErrInvalidInput, billing.ErrAmountTooLarge)
		}
		if err := tx.Model(c).Update("paid_fee", c.PaidFee).Error; err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}
		st = Statement{
			CaseID:      c.CaseID,
			TotalFee:    c.TotalFee,
			PaidFee:     c.PaidFee,
			Outstanding: c.Outstanding(),
		}
		return nil
	})
	if err != nil {
		return Statement{}, err
	}

	s.logger.Info("Payment recorded", "case_id", caseID, "amount", amount, "outstanding", st.Outstanding)
	archive(ctx, s.archiver, s.logger)
	return st, nil
}
