package ecourts

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidCNR is returned for identifiers that are not 16-character CNRs
var ErrInvalidCNR = errors.New("CNR must be 4 letters followed by 12 digits")

var cnrPattern = regexp.MustCompile(`^[A-Z]{4}[0-9]{12}$`)

// NormalizeCNR strips separators and upper-cases a CNR, then validates it.
// A CNR is the establishment code (state, district, court) plus serial and year.
func NormalizeCNR(cnr string) (string, error) {
	cnr = strings.ToUpper(strings.NewReplacer(" ", "", "-", "", "/", "").Replace(strings.TrimSpace(cnr)))
	if !cnrPattern.MatchString(cnr) {
		return "", ErrInvalidCNR
	}
	return cnr, nil
}

// FilingYear returns the year encoded in the last four digits of a valid CNR
func FilingYear(cnr string) string {
	if len(cnr) != 16 {
		return ""
	}
	return cnr[12:]
}
