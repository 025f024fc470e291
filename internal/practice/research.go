package practice

import (
	"context"
	"fmt"
	"strings"

	"github.com/JustJay7/chamber-desk/internal/database"
	"gorm.io/gorm"
)

// ResearchRequest carries the fields of the research log form
type ResearchRequest struct {
	Title    string `json:"title" form:"title"`
	Citation string `json:"citation" form:"citation"`
	Summary  string `json:"summary" form:"summary"`
}

// ResearchLog is an append-only log of authorities
type ResearchLog struct {
	db *gorm.DB
}

func NewResearchLog(db *gorm.DB) *ResearchLog {
	return &ResearchLog{db: db}
}

// Add appends an entry
func (r *ResearchLog) Add(ctx context.Context, req ResearchRequest) (*database.Research, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	entry := &database.Research{
		Title:    title,
		Citation: strings.TrimSpace(req.Citation),
		Summary:  strings.TrimSpace(req.Summary),
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to save research: %w", err)
	}
	return entry, nil
}

// List returns entries newest first
func (r *ResearchLog) List(ctx context.Context) ([]database.Research, error) {
	var entries []database.Research
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list research: %w", err)
	}
	return entries, nil
}
