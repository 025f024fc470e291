package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JustJay7/chamber-desk/internal/database"
	"github.com/JustJay7/chamber-desk/pkg/logger"
	"gorm.io/gorm"
)

// Courts lists the fora a brief can be filed in
var Courts = []string{"Supreme Court", "High Court", "District Court", "Tribunal"}

// IntakeRequest carries the fields of the onboarding form
type IntakeRequest struct {
	CaseID     string `json:"case_id" form:"case_id"`
	Petitioner string `json:"petitioner" form:"petitioner"`
	Respondent string `json:"respondent" form:"respondent"`
	Court      string `json:"court" form:"court"`
	SectionBNS string `json:"section_bns" form:"section_bns"`
}

// ConflictHit is one brief in which a searched name appears
type ConflictHit struct {
	CaseID string `json:"case_id"`
	Side   string `json:"side"`
	Party  string `json:"party"`
	Court  string `json:"court"`
}

// Cases manages briefs and the intake conflict check
type Cases struct {
	db       *gorm.DB
	archiver Archiver
	logger   *logger.Logger
}

// NewCases creates a case service. A nil archiver disables backups.
func NewCases(db *gorm.DB, archiver Archiver, log *logger.Logger) *Cases {
	if archiver == nil {
		archiver = nopArchiver{}
	}
	return &Cases{db: db, archiver: archiver, logger: log}
}

// Intake onboards a brief unless the respondent was ever our petitioner
func (s *Cases) Intake(ctx context.Context, req IntakeRequest) (*database.Case, error) {
	req.CaseID = strings.TrimSpace(req.CaseID)
	req.Petitioner = strings.TrimSpace(req.Petitioner)
	req.Respondent = strings.TrimSpace(req.Respondent)
	req.Court = strings.TrimSpace(req.Court)

	if req.CaseID == "" {
		return nil, invalid("case id is required")
	}
	if req.Petitioner == "" {
		return nil, invalid("petitioner is required")
	}
	if !ValidCourt(req.Court) {
		return nil, invalid("unknown court %q", req.Court)
	}

	if req.Respondent != "" {
		var prior database.Case
		err := s.db.WithContext(ctx).
			Where("petitioner LIKE ? ESCAPE '\\'", likePattern(req.Respondent)).
			Order("id ASC").
			First(&prior).Error
		switch {
		case err == nil:
			s.logger.Warn("Intake refused on conflict", "respondent", req.Respondent, "prior_case", prior.CaseID)
			return nil, &ConflictError{Party: req.Respondent, CaseID: prior.CaseID}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("conflict check: %w", err)
		}
	}

	c := &database.Case{
		CaseID:     req.CaseID,
		Petitioner: req.Petitioner,
		Respondent: req.Respondent,
		Court:      req.Court,
		SectionBNS: strings.TrimSpace(req.SectionBNS),
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("failed to save case: %w", err)
	}

	s.logger.Info("Case onboarded", "case_id", c.CaseID, "court", c.Court)
	archive(ctx, s.archiver, s.logger)
	return c, nil
}

// ConflictSearch lists every brief where name appears on either side
func (s *Cases) ConflictSearch(ctx context.Context, name string) ([]ConflictHit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name is required")
	}

	pattern := likePattern(name)
	var cases []database.Case
	if err := s.db.WithContext(ctx).
		Where("petitioner LIKE ? ESCAPE '\\' OR respondent LIKE ? ESCAPE '\\'", pattern, pattern).
		Order("id ASC").
		Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("conflict search: %w", err)
	}

	needle := strings.ToLower(name)
	hits := make([]ConflictHit, 0, len(cases))
	for _, c := range cases {
		if strings.Contains(strings.ToLower(c.Petitioner), needle) {
			hits = append(hits, ConflictHit{CaseID: c.CaseID, Side: "petitioner", Party: c.Petitioner, Court: c.Court})
		}
		if strings.Contains(strings.ToLower(c.Respondent), needle) {
			hits = append(hits, ConflictHit{CaseID: c.CaseID, Side: "respondent", Party: c.Respondent, Court: c.Court})
		}
	}
	return hits, nil
}

// List returns every brief in intake order
func (s *Cases) List(ctx context.Context) ([]database.Case, error) {
	var cases []database.Case
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	return cases, nil
}

// Get returns the first brief filed under caseID
func (s *Cases) Get(ctx context.Context, caseID string) (*database.Case, error) {
	var c database.Case
	err := s.db.WithContext(ctx).Where("case_id = ?", caseID).Order("id ASC").First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("case %s: %w", caseID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load case: %w", err)
	}
	return &c, nil
}

// SetSection records the BNS section charged on every brief under caseID
func (s *Cases) SetSection(ctx context.Context, caseID, section string) error {
	return s.update(ctx, caseID, map[string]interface{}{"section_bns": strings.TrimSpace(section)})
}

// update applies columns to every row under caseID, as the register has no unique key
func (s *Cases) update(ctx context.Context, caseID string, columns map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&database.Case{}).Where("case_id = ?", caseID).Updates(columns)
	if res.Error != nil {
		return fmt.Errorf("failed to update case: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("case %s: %w", caseID, ErrNotFound)
	}
	return nil
}

// ValidCourt reports whether court is one of Courts
func ValidCourt(court string) bool {
	for _, c := range Courts {
		if c == court {
			return true
		}
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a substring LIKE pattern with wildcards in s escaped
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
