package billing

import "math"

const (
	// FirstOffenderRatio is the share of the maximum term after which a first-time undertrial is released
	FirstOffenderRatio = 0.33
	// UndertrialRatio is the share of the maximum term for every other undertrial
	UndertrialRatio = 0.50
)

// BailQuery describes an undertrial's detention against the offence charged
type BailQuery struct {
	MaxTermMonths  float64 `json:"max_term_months" form:"max_term_months"`
	DetainedMonths float64 `json:"detained_months" form:"detained_months"`
	FirstOffender  bool    `json:"first_offender" form:"first_offender"`
	CapitalOrLife  bool    `json:"capital_or_life" form:"capital_or_life"`
}

// BailAssessment is the statutory default-bail position
type BailAssessment struct {
	Ratio           float64 `json:"ratio"`
	ThresholdMonths float64 `json:"threshold_months"`
	DetainedMonths  float64 `json:"detained_months"`
	RemainingMonths float64 `json:"remaining_months"`
	Eligible        bool    `json:"eligible"`
}

// BailThreshold returns the months of detention after which statutory bail is due
func BailThreshold(maxTermMonths float64, firstOffender bool) (float64, error) {
	if maxTermMonths <= 0 || math.IsNaN(maxTermMonths) || math.IsInf(maxTermMonths, 0) {
		return 0, ErrNegativeTerm
	}
	if firstOffender {
		return maxTermMonths * FirstOffenderRatio, nil
	}
	return maxTermMonths * UndertrialRatio, nil
}

// AssessBail compares detention served against the statutory threshold
func AssessBail(q BailQuery) (BailAssessment, error) {
	if q.CapitalOrLife {
		return BailAssessment{}, ErrNotBailable
	}
	threshold, err := BailThreshold(q.MaxTermMonths, q.FirstOffender)
	if err != nil {
		return BailAssessment{}, err
	}
	if !Finite(q.DetainedMonths) {
		return BailAssessment{}, ErrInvalidDetention
	}
	ratio := UndertrialRatio
	if q.FirstOffender {
		ratio = FirstOffenderRatio
	}

	detained := math.Max(q.DetainedMonths, 0)
	return BailAssessment{
		Ratio:           ratio,
		ThresholdMonths: threshold,
		DetainedMonths:  detained,
		RemainingMonths: math.Max(threshold-detained, 0),
		Eligible:        detained >= threshold,
	}, nil
}
