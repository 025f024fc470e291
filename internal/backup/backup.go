// Package backup exports the case register to CSV, on demand and on a schedule.
package backup

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/JustJay7/chamber-desk/internal/database"
	"github.com/JustJay7/chamber-desk/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

var header = []string{
	"id", "case_id", "petitioner", "respondent", "court",
	"section_bns", "strategy_notes", "total_fee", "paid_fee",
}

// Writer writes the case register to a CSV file
type Writer struct {
	db     *gorm.DB
	path   string
	mu     sync.Mutex
	logger *logger.Logger
}

func NewWriter(db *gorm.DB, path string, log *logger.Logger) *Writer {
	return &Writer{db: db, path: path, logger: log}
}

// Path returns the backup file location
func (w *Writer) Path() string {
	return w.path
}

// Archive writes a fresh backup
func (w *Writer) Archive(ctx context.Context) error {
	_, err := w.WriteCases(ctx)
	return err
}

// WriteCases replaces the backup file atomically and returns the number of rows written
func (w *Writer) WriteCases(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var cases []database.Case
	if err := w.db.WithContext(ctx).Order("id ASC").Find(&cases).Error; err != nil {
		return 0, fmt.Errorf("failed to read cases: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create backup directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".backup-*.csv")
	if err != nil {
		return 0, fmt.Errorf("failed to create backup file: %w", err)
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(header); err != nil {
		tmp.Close()
		return 0, err
	}
	for _, c := range cases {
		if err := cw.Write([]string{
			strconv.FormatUint(uint64(c.ID), 10),
			c.CaseID,
			c.Petitioner,
			c.Respondent,
			c.Court,
			c.SectionBNS,
			c.StrategyNotes,
			strconv.FormatFloat(c.TotalFee, 'f', 2, 64),
			strconv.FormatFloat(c.PaidFee, 'f', 2, 64),
		}); err != nil {
			tmp.Close()
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close backup: %w", err)
	}

	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return 0, fmt.Errorf("failed to replace backup: %w", err)
	}

	w.logger.Debug("Case backup written", "path", w.path, "rows", len(cases))
	return len(cases), nil
}

// Scheduler runs periodic backups
type Scheduler struct {
	cron   *cron.Cron
	writer *Writer
	logger *logger.Logger
}

// NewScheduler registers the backup job on schedule (standard cron syntax or descriptors like @hourly)
func NewScheduler(writer *Writer, schedule string, log *logger.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		writer: writer,
		logger: log,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Backup scheduler started", "path", s.writer.Path())
}

// Stop halts the scheduler and waits for a running backup to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Backup scheduler stopped")
}

func (s *Scheduler) run() {
	n, err := s.writer.WriteCases(context.Background())
	if err != nil {
		s.logger.Error("Scheduled backup failed", "error", err)
		return
	}
	s.logger.Info("Scheduled backup completed", "rows", n)
}
