package practice

import (
	"context"
	"fmt"
	"time"

	"github.com/JustJay7/chamber-desk/internal/database"
	"gorm.io/gorm"
)

// UpcomingLimit is how many hearings the dashboard board shows
const UpcomingLimit = 5

// CourtCount is one slice of the practice mix
type CourtCount struct {
	Court  string `json:"court"`
	Counts int64  `json:"counts"`
}

// Summary is the chamber command view
type Summary struct {
	ActiveFiles   int64              `json:"active_files"`
	HearingsToday int64              `json:"hearings_today"`
	Research      int64              `json:"research"`
	Documents     int64              `json:"documents"`
	Upcoming      []database.Hearing `json:"upcoming"`
	PracticeMix   []CourtCount       `json:"practice_mix"`
}

// Dashboard aggregates counts across the register
type Dashboard struct {
	db       *gorm.DB
	hearings *Hearings
}

func NewDashboard(db *gorm.DB, hearings *Hearings) *Dashboard {
	return &Dashboard{db: db, hearings: hearings}
}

// Summary builds the dashboard as of now
func (d *Dashboard) Summary(ctx context.Context, now time.Time) (*Summary, error) {
	db := d.db.WithContext(ctx)
	s := &Summary{}

	if err := db.Model(&database.Case{}).Count(&s.ActiveFiles).Error; err != nil {
		return nil, fmt.Errorf("count cases: %w", err)
	}
	if err := db.Model(&database.Research{}).Count(&s.Research).Error; err != nil {
		return nil, fmt.Errorf("count research: %w", err)
	}
	if err := db.Model(&database.Document{}).Count(&s.Documents).Error; err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	today, err := d.hearings.Today(ctx, now)
	if err != nil {
		return nil, err
	}
	s.HearingsToday = int64(len(today))

	if s.Upcoming, err = d.hearings.Upcoming(ctx, now, UpcomingLimit); err != nil {
		return nil, err
	}

	if err := db.Model(&database.Case{}).
		Select("court, COUNT(*) AS counts").
		Group("court").
		Order("counts DESC, court ASC").
		Scan(&s.PracticeMix).Error; err != nil {
		return nil, fmt.Errorf("practice mix: %w", err)
	}

	return s, nil
}
