package ecourts

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/JustJay7/chamber-desk/internal/database"
)

var (
	whitespace   = regexp.MustCompile(`[ \t]+`)
	ordinal      = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)\b`)
	dayName      = regexp.MustCompile(`(?i)(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday),?\s*`)
	partyIndex   = regexp.MustCompile(`^\s*\d+\)\s*`)
	advocateTail = regexp.MustCompile(`(?i)\s*advocate\s*[-:].*$`)
	partyHeading = regexp.MustCompile(`(?i)^(petitioner|respondent)s?\s+and\s+advocates?$`)
	noRecord     = regexp.MustCompile(`(?i)(no record|not found|invalid cnr|this case code does not exists?)`)
)

// ParseStatus extracts case status fields from the text of an e-Courts case details page
func ParseStatus(text string) (*database.CourtStatus, error) {
	if m := noRecord.FindString(text); m != "" {
		return nil, fmt.Errorf("search error: %s", m)
	}

	status := &database.CourtStatus{}
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(whitespace.ReplaceAllString(lines[i], " "))
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			if !partyHeading.MatchString(line) {
				continue
			}
			label, value = line, ""
		}
		label = strings.ToLower(strings.TrimSpace(label))
		value = strings.TrimSpace(value)

		// Party blocks put the names on the following line
		if value == "" && i+1 < len(lines) && (strings.Contains(label, "petitioner") || strings.Contains(label, "respondent")) {
			value = strings.TrimSpace(lines[i+1])
		}

		switch {
		case strings.Contains(label, "cnr"):
			if fields := strings.Fields(value); len(fields) > 0 {
				status.CNR = strings.ToUpper(fields[0])
			}
		case strings.Contains(label, "case type"):
			status.CaseType = value
		case strings.Contains(label, "filing number"):
			status.FilingNumber = value
		case strings.Contains(label, "filing date"):
			status.FilingDate, _ = ParseDate(value)
		case strings.Contains(label, "next hearing") || strings.Contains(label, "next date"):
			status.NextHearing, _ = ParseDate(value)
		case strings.Contains(label, "case stage") || label == "stage" || strings.Contains(label, "case status"):
			status.Stage = value
		case strings.Contains(label, "judge") || strings.Contains(label, "coram"):
			status.Judge = value
		case strings.Contains(label, "court") && !strings.Contains(label, "court number"):
			status.CourtComplex = value
		case strings.Contains(label, "petitioner") && status.Petitioner == "":
			status.Petitioner = partyName(value)
		case strings.Contains(label, "respondent") && status.Respondent == "":
			status.Respondent = partyName(value)
		}
	}

	if status.CNR == "" && status.CaseType == "" && status.FilingNumber == "" {
		return nil, fmt.Errorf("failed to extract case details")
	}
	return status, nil
}

func partyName(value string) string {
	value = partyIndex.ReplaceAllString(value, "")
	value = advocateTail.ReplaceAllString(value, "")
	return strings.TrimSpace(value)
}

// ParseDate parses the date formats used by Indian court systems
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(whitespace.ReplaceAllString(dateStr, " "))
	dateStr = dayName.ReplaceAllString(dateStr, "")
	dateStr = ordinal.ReplaceAllString(dateStr, "$1")

	formats := []string{
		"02-01-2006",
		"02/01/2006",
		"02.01.2006",
		"02-Jan-2006",
		"02-January-2006",
		"2 Jan 2006",
		"2 January 2006",
		"2006-01-02",
		"Jan 2, 2006",
		"January 2, 2006",
	}

	for _, format := range formats {
		if date, err := time.Parse(format, dateStr); err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
