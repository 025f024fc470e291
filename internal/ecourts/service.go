package ecourts

import (
	"context"
	"fmt"
	"time"

	"github.com/JustJay7/chamber-desk/internal/cache"
	"github.com/JustJay7/chamber-desk/internal/database"
	"github.com/JustJay7/chamber-desk/pkg/logger"
	"gorm.io/gorm"
)

// Fetcher returns the raw text of the case details page for a CNR
type Fetcher interface {
	Fetch(ctx context.Context, cnr string) (string, error)
}

// Service looks up case status by CNR, caching results and logging every attempt
type Service struct {
	fetcher Fetcher
	db      *gorm.DB
	cache   cache.Cache[*database.CourtStatus]
	timeout time.Duration
	logger  *logger.Logger
}

func NewService(fetcher Fetcher, db *gorm.DB, c cache.Cache[*database.CourtStatus], timeout time.Duration, log *logger.Logger) *Service {
	return &Service{fetcher: fetcher, db: db, cache: c, timeout: timeout, logger: log}
}

// Lookup returns the status for cnr and whether it came from cache
func (s *Service) Lookup(ctx context.Context, cnr, clientIP string) (*database.CourtStatus, bool, error) {
	cnr, err := NormalizeCNR(cnr)
	if err != nil {
		return nil, false, err
	}

	cacheKey := cache.Key("cnr", cnr)
	if cached, found := s.cache.Get(cacheKey); found {
		s.logger.Info("Cache hit", "key", cacheKey)
		return cached, true, nil
	}

	lookupLog := &database.LookupLog{
		CNR:       cnr,
		QueryTime: time.Now(),
		IPAddress: clientIP,
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.fetcher.Fetch(fetchCtx, cnr)
	lookupLog.RawResponse = raw
	if err == nil {
		var status *database.CourtStatus
		status, err = ParseStatus(raw)
		if err == nil {
			return s.record(ctx, lookupLog, status, cacheKey)
		}
	}

	lookupLog.Success = false
	lookupLog.ErrorMessage = err.Error()
	if dbErr := s.db.WithContext(ctx).Create(lookupLog).Error; dbErr != nil {
		s.logger.Error("Failed to save lookup log", "error", dbErr)
	}
	s.logger.Warn("CNR lookup failed", "cnr", cnr, "filing_year", FilingYear(cnr), "error", err)
	return nil, false, fmt.Errorf("failed to fetch case status: %w", err)
}

func (s *Service) record(ctx context.Context, lookupLog *database.LookupLog, status *database.CourtStatus, cacheKey string) (*database.CourtStatus, bool, error) {
	lookupLog.Success = true
	if status.CNR == "" {
		status.CNR = lookupLog.CNR
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(lookupLog).Error; err != nil {
			return err
		}
		status.LookupLogID = lookupLog.ID
		return tx.Create(status).Error
	})
	if err != nil {
		s.logger.Error("Failed to save case status", "error", err)
	}

	s.cache.Set(cacheKey, status)
	s.logger.Info("CNR lookup succeeded", "cnr", lookupLog.CNR, "filing_year", FilingYear(lookupLog.CNR))
	return status, false, nil
}

// History returns the stored statuses for a CNR, newest first
func (s *Service) History(ctx context.Context, cnr string) ([]database.CourtStatus, error) {
	cnr, err := NormalizeCNR(cnr)
	if err != nil {
		return nil, err
	}
	var statuses []database.CourtStatus
	if err := s.db.WithContext(ctx).Where("cnr = ?", cnr).Order("id DESC").Find(&statuses).Error; err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return statuses, nil
}

// CacheStats reports lookup cache statistics
func (s *Service) CacheStats() cache.CacheStats {
	return s.cache.Stats()
}
