package practice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JustJay7/chamber-desk/internal/database"
	"github.com/JustJay7/chamber-desk/pkg/logger"
	"gorm.io/gorm"
)

// DateLayout is the calendar date format used on forms and in the API
const DateLayout = "2006-01-02"

// HearingRequest carries the fields of the scheduling form
type HearingRequest struct {
	CaseID  string `json:"case_id" form:"case_id"`
	Date    string `json:"hearing_date" form:"hearing_date"`
	Purpose string `json:"purpose" form:"purpose"`
}

// Hearings manages the board position
type Hearings struct {
	db     *gorm.DB
	loc    *time.Location
	logger *logger.Logger
}

// NewHearings creates a hearing service; loc decides what "today" means
func NewHearings(db *gorm.DB, loc *time.Location, log *logger.Logger) *Hearings {
	if loc == nil {
		loc = time.UTC
	}
	return &Hearings{db: db, loc: loc, logger: log}
}

// Schedule adds a hearing to the cause list. The case id is not checked.
func (s *Hearings) Schedule(ctx context.Context, req HearingRequest) (*database.Hearing, error) {
	caseID := strings.TrimSpace(req.CaseID)
	if caseID == "" {
		return nil, invalid("case id is required")
	}
	day, err := time.Parse(DateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return nil, invalid("hearing date %q is not YYYY-MM-DD", req.Date)
	}

	h := &database.Hearing{
		CaseID:      caseID,
		HearingDate: day,
		Purpose:     strings.TrimSpace(req.Purpose),
	}
	if err := s.db.WithContext(ctx).Create(h).Error; err != nil {
		return nil, fmt.Errorf("failed to schedule hearing: %w", err)
	}

	s.logger.Info("Hearing scheduled", "case_id", h.CaseID, "date", day.Format(DateLayout))
	return h, nil
}

// Board returns every hearing in date order
func (s *Hearings) Board(ctx context.Context) ([]database.Hearing, error) {
	var hearings []database.Hearing
	if err := s.db.WithContext(ctx).Order("hearing_date ASC, id ASC").Find(&hearings).Error; err != nil {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}
	return hearings, nil
}

// Today returns the hearings listed for the calendar day of now
func (s *Hearings) Today(ctx context.Context, now time.Time) ([]database.Hearing, error) {
	day := s.Day(now)
	var hearings []database.Hearing
	if err := s.db.WithContext(ctx).
		Where("hearing_date >= ? AND hearing_date < ?", day, day.AddDate(0, 0, 1)).
		Order("id ASC").
		Find(&hearings).Error; err != nil {
		return nil, fmt.Errorf("failed to load today's hearings: %w", err)
	}
	return hearings, nil
}

// Upcoming returns up to limit hearings from today onward
func (s *Hearings) Upcoming(ctx context.Context, now time.Time, limit int) ([]database.Hearing, error) {
	var hearings []database.Hearing
	if err := s.db.WithContext(ctx).
		Where("hearing_date >= ?", s.Day(now)).
		Order("hearing_date ASC, id ASC").
		Limit(limit).
		Find(&hearings).Error; err != nil {
		return nil, fmt.Errorf("failed to load upcoming hearings: %w", err)
	}
	return hearings, nil
}

// Day maps an instant to the UTC midnight of its calendar date in the chamber's zone
func (s *Hearings) Day(now time.Time) time.Time {
	y, m, d := now.In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
