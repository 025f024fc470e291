package ecourts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrCaptchaNotFound is returned for unknown or already solved CAPTCHAs
	ErrCaptchaNotFound = errors.New("CAPTCHA not found")
	ErrEmptySolution   = errors.New("solution must not be empty")
)

var captchaID = regexp.MustCompile(`^captcha_[0-9]+$`)

// CaptchaStore queues CAPTCHA images for a person to solve through the API
type CaptchaStore struct {
	dir  string
	poll time.Duration
}

func NewCaptchaStore(dir string) *CaptchaStore {
	return &CaptchaStore{dir: dir, poll: 500 * time.Millisecond}
}

// NewID returns a fresh CAPTCHA id
func (s *CaptchaStore) NewID() string {
	return fmt.Sprintf("captcha_%d", time.Now().UnixNano())
}

// Save stores the CAPTCHA image
func (s *CaptchaStore) Save(id string, png []byte) error {
	if !captchaID.MatchString(id) {
		return ErrCaptchaNotFound
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create captcha directory: %w", err)
	}
	return os.WriteFile(s.path(id, ".png"), png, 0644)
}

// Image returns a pending CAPTCHA image
func (s *CaptchaStore) Image(id string) ([]byte, error) {
	if !captchaID.MatchString(id) {
		return nil, ErrCaptchaNotFound
	}
	data, err := os.ReadFile(s.path(id, ".png"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCaptchaNotFound
	}
	return data, err
}

// Pending lists CAPTCHAs waiting for a solution
func (s *CaptchaStore) Pending() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "captcha_*.png"))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(filepath.Base(m), ".png"))
	}
	return ids, nil
}

// Solve records the solution for a pending CAPTCHA
func (s *CaptchaStore) Solve(id, solution string) error {
	if _, err := s.Image(id); err != nil {
		return err
	}
	solution = strings.TrimSpace(solution)
	if solution == "" {
		return ErrEmptySolution
	}
	return os.WriteFile(s.path(id, ".txt"), []byte(solution), 0644)
}

// Wait blocks until the CAPTCHA is solved or ctx ends, then removes it from the queue
func (s *CaptchaStore) Wait(ctx context.Context, id string) (string, error) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	defer s.discard(id)

	for {
		if data, err := os.ReadFile(s.path(id, ".txt")); err == nil {
			if solution := strings.TrimSpace(string(data)); solution != "" {
				return solution, nil
			}
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("timeout waiting for manual solution: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *CaptchaStore) discard(id string) {
	os.Remove(s.path(id, ".png"))
	os.Remove(s.path(id, ".txt"))
}

func (s *CaptchaStore) path(id, ext string) string {
	return filepath.Join(s.dir, id+ext)
}
