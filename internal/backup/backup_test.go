package backup

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JustJay7/chamber-desk/internal/database"
	"github.com/JustJay7/chamber-desk/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "chamber.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteCases(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&database.Case{CaseID: "OS/1", Petitioner: "Rao, K.", Court: "High Court", TotalFee: 1180}).Error)
	require.NoError(t, db.Create(&database.Case{CaseID: "OS/2", Petitioner: "Devi", Court: "Tribunal", StrategyNotes: "line one\nline two"}).Error)

	path := filepath.Join(t.TempDir(), "out", "backup.csv")
	w := NewWriter(db, path, logger.NewNop())

	n, err := w.WriteCases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, "Rao, K.", rows[1][2])
	assert.Equal(t, "1180.00", rows[1][7])
	assert.Equal(t, "line one\nline two", rows[2][6])
}

func TestArchiveEmptyRegister(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.csv")
	w := NewWriter(newTestDB(t), path, logger.NewNop())

	require.NoError(t, w.Archive(context.Background()))
	assert.Equal(t, [][]string{header}, readCSV(t, path))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be cleaned up")
}

func TestSchedulerRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.csv")
	w := NewWriter(newTestDB(t), path, logger.NewNop())

	s, err := NewScheduler(w, "@every 1s", logger.NewNop())
	require.NoError(t, err)
	s.Start()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	_, err := NewScheduler(NewWriter(nil, "x.csv", logger.NewNop()), "every tuesday", logger.NewNop())
	assert.Error(t, err)
}
