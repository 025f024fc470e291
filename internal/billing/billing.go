// Package billing holds the fee and bail arithmetic used by the chamber.
package billing

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// GSTRate is the goods and services tax levied on professional fees
const GSTRate = 0.18

var (
	ErrNegativeFee      = errors.New("fee must not be negative")
	ErrNegativeTerm     = errors.New("term must be positive")
	ErrNotBailable      = errors.New("offence punishable with death or life imprisonment")
	ErrNegativePayment  = errors.New("payment must be positive")
	ErrAmountTooLarge   = errors.New("amount is too large")
	ErrInvalidDetention = errors.New("detention must be a number of months")
)

// Finite reports whether v is an ordinary number
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Memo is a memo of fees for one brief
type Memo struct {
	CaseID string  `json:"case_id"`
	NetFee float64 `json:"net_fee"`
	GST    float64 `json:"gst"`
	Total  float64 `json:"total"`
}

// NewMemo computes GST at 18% and the grand total for a professional fee
func NewMemo(caseID string, fee float64) (Memo, error) {
	if fee < 0 || !Finite(fee) {
		return Memo{}, ErrNegativeFee
	}
	m := Memo{
		CaseID: caseID,
		NetFee: fee,
		GST:    fee * GSTRate,
		Total:  fee * (1 + GSTRate),
	}
	if !Finite(m.Total) {
		return Memo{}, ErrAmountTooLarge
	}
	return m, nil
}

var inrPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders an amount in rupees with Indian digit grouping
func FormatINR(amount float64) string {
	return "₹" + FormatAmount(amount)
}

// FormatAmount renders an amount with Indian digit grouping and two decimals
func FormatAmount(amount float64) string {
	return inrPrinter.Sprint(number.Decimal(amount, number.Scale(2)))
}

// Lines returns the memo as printable label/amount pairs
func (m Memo) Lines() [][2]string {
	return [][2]string{
		{"Net Fee", FormatINR(m.NetFee)},
		{fmt.Sprintf("GST (%.0f%%)", GSTRate*100), FormatINR(m.GST)},
		{"Grand Total", FormatINR(m.Total)},
	}
}
