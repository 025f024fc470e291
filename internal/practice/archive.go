package practice

import (
	"context"

	"github.com/JustJay7/chamber-desk/pkg/logger"
)

// Archiver snapshots the case register after a write
type Archiver interface {
	Archive(ctx context.Context) error
}

type nopArchiver struct{}

func (nopArchiver) Archive(context.Context) error { return nil }

// archive runs the archiver and logs, never fails, the calling write
func archive(ctx context.Context, a Archiver, log *logger.Logger) {
	if a == nil {
		return
	}
	if err := a.Archive(ctx); err != nil {
		log.Warn("Case backup failed", "error", err)
	}
}
