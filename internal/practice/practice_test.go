package practice

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/JustJay7/chamber-desk/internal/database"
	"github.com/JustJay7/chamber-desk/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type countingArchiver struct {
	calls int
	err   error
}

func (a *countingArchiver) Archive(context.Context) error {
	a.calls++
	return a.err
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

func intake(t *testing.T, s *Cases, id, pet, res string) *database.Case {
	t.Helper()
	c, err := s.Intake(context.Background(), IntakeRequest{CaseID: id, Petitioner: pet, Respondent: res, Court: "High Court"})
	require.NoError(t, err)
	return c
}

func TestIntakeRoundTrip(t *testing.T) {
	arch := &countingArchiver{}
	s := NewCases(newTestDB(t), arch, logger.NewNop())
	ctx := context.Background()

	c := intake(t, s, "WP/101/2026", "Ramesh Kumar", "State of Telangana")
	assert.NotZero(t, c.ID)
	assert.Equal(t, 1, arch.calls)

	got, err := s.Get(ctx, "WP/101/2026")
	require.NoError(t, err)
	assert.Equal(t, "Ramesh Kumar", got.Petitioner)
	assert.Equal(t, "High Court", got.Court)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestIntakeValidation(t *testing.T) {
	s := NewCases(newTestDB(t), nil, logger.NewNop())

	tests := []struct {
		name string
		req  IntakeRequest
	}{
		{"missing case id", IntakeRequest{Petitioner: "A", Court: "Tribunal"}},
		{"missing petitioner", IntakeRequest{CaseID: "1", Court: "Tribunal"}},
		{"unknown court", IntakeRequest{CaseID: "1", Petitioner: "A", Court: "Moon Court"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Intake(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestIntakeConflict(t *testing.T) {
	arch := &countingArchiver{}
	s := NewCases(newTestDB(t), arch, logger.NewNop())
	ctx := context.Background()

	intake(t, s, "OS/12/2024", "Lakshmi Textiles Pvt Ltd", "Suresh Rao")

	_, err := s.Intake(ctx, IntakeRequest{CaseID: "OS/99/2026", Petitioner: "Suresh Rao", Respondent: "lakshmi textiles", Court: "District Court"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "OS/12/2024", conflict.CaseID)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "conflicting brief must not be stored")
	assert.Equal(t, 1, arch.calls)
}

func TestIntakeEmptyRespondentNeverConflicts(t *testing.T) {
	s := NewCases(newTestDB(t), nil, logger.NewNop())
	intake(t, s, "A/1", "Alpha", "")
	intake(t, s, "A/2", "Beta", "")
}

func TestIntakeLikeWildcardsAreLiteral(t *testing.T) {
	s := NewCases(newTestDB(t), nil, logger.NewNop())
	intake(t, s, "A/1", "Alpha Traders", "")

	// "%" must not match everything
	intake(t, s, "A/2", "Beta", "%")
	intake(t, s, "A/3", "Gamma", "_")
}

func TestIntakeArchiveFailureDoesNotFail(t *testing.T) {
	arch := &countingArchiver{err: errors.New("disk full")}
	s := NewCases(newTestDB(t), arch, logger.NewNop())
	intake(t, s, "A/1", "Alpha", "")
	assert.Equal(t, 1, arch.calls)
}

func TestConflictSearch(t *testing.T) {
	s := NewCases(newTestDB(t), nil, logger.NewNop())
	ctx := context.Background()
	// respondent side first so intake does not refuse the second brief
	intake(t, s, "A/1", "Anil", "Reddy Constructions")
	intake(t, s, "A/2", "Reddy Constructions", "Municipal Corporation")
	intake(t, s, "A/3", "Unrelated", "Other")

	hits, err := s.ConflictSearch(ctx, "reddy")
	require.NoError(t, err)
	assert.Equal(t, []ConflictHit{
		{CaseID: "A/1", Side: "respondent", Party: "Reddy Constructions", Court: "High Court"},
		{CaseID: "A/2", Side: "petitioner", Party: "Reddy Constructions", Court: "High Court"},
	}, hits)

	_, err = s.ConflictSearch(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStrategyAndSection(t *testing.T) {
	s := NewCases(newTestDB(t), nil, logger.NewNop())
	ctx := context.Background()
	intake(t, s, "CRL/7/2026", "Accused", "State")

	require.NoError(t, s.SaveStrategy(ctx, "CRL/7/2026", "Challenge the recovery panchnama"))
	require.NoError(t, s.SetSection(ctx, "CRL/7/2026", " 318 "))

	got, err := s.Get(ctx, "CRL/7/2026")
	require.NoError(t, err)
	assert.Equal(t, "Challenge the recovery panchnama", got.StrategyNotes)
	assert.Equal(t, "318", got.SectionBNS)

	assert.ErrorIs(t, s.SaveStrategy(ctx, "missing", "x"), ErrNotFound)
}

func TestGenerateMemoAndPayments(t *testing.T) {
	arch := &countingArchiver{}
	s := NewCases(newTestDB(t), arch, logger.NewNop())
	ctx := context.Background()
	intake(t, s, "OS/5/2026", "Client", "Opponent")

	memo, err := s.GenerateMemo(ctx, "OS/5/2026", 50000)
	require.NoError(t, err)
	assert.InDelta(t, 9000, memo.GST, 1e-6)
	assert.InDelta(t, 59000, memo.Total, 1e-6)

	got, err := s.Get(ctx, "OS/5/2026")
	require.NoError(t, err)
	assert.InDelta(t, 59000, got.TotalFee, 1e-6)

	st, err := s.RecordPayment(ctx, "OS/5/2026", 20000)
	require.NoError(t, err)
	assert.InDelta(t, 20000, st.PaidFee, 1e-6)
	assert.InDelta(t, 39000, st.Outstanding, 1e-6)

	st, err = s.RecordPayment(ctx, "OS/5/2026", 9000)
	require.NoError(t, err)
	assert.InDelta(t, 30000, st.Outstanding, 1e-6)
	assert.Equal(t, 4, arch.calls)

	_, err = s.GenerateMemo(ctx, "OS/5/2026", -5)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.GenerateMemo(ctx, "nope", 10)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.RecordPayment(ctx, "OS/5/2026", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.RecordPayment(ctx, "nope", 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNonFiniteFeesRejected(t *testing.T) {
	s := NewCases(newTestDB(t), nil, logger.NewNop())
	ctx := context.Background()
	intake(t, s, "OS/9/2026", "Client", "Opponent")

	_, err := s.GenerateMemo(ctx, "OS/9/2026", 1.6e308)
	assert.ErrorIs(t, err, ErrInvalidInput)
	for _, amount := range []float64{math.NaN(), math.Inf(1)} {
		_, err = s.RecordPayment(ctx, "OS/9/2026", amount)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}

	_, err = s.RecordPayment(ctx, "OS/9/2026", math.MaxFloat64)
	require.NoError(t, err)
	_, err = s.RecordPayment(ctx, "OS/9/2026", math.MaxFloat64)
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := s.Get(ctx, "OS/9/2026")
	require.NoError(t, err)
	assert.Zero(t, got.TotalFee)
	assert.Equal(t, math.MaxFloat64, got.PaidFee)
}

func TestHearingsBoard(t *testing.T) {
	db := newTestDB(t)
	h := NewHearings(db, time.UTC, logger.NewNop())
	ctx := context.Background()

	for _, req := range []HearingRequest{
		{CaseID: "B", Date: "2026-11-02", Purpose: "Arguments"},
		{CaseID: "A", Date: "2026-10-18", Purpose: "Bail"},
		{CaseID: "ghost", Date: "2026-10-20", Purpose: "Evidence"},
		{CaseID: "C", Date: "2026-10-01", Purpose: "Past"},
	} {
		_, err := h.Schedule(ctx, req)
		require.NoError(t, err)
	}

	board, err := h.Board(ctx)
	require.NoError(t, err)
	require.Len(t, board, 4)
	assert.Equal(t, []string{"C", "A", "ghost", "B"}, []string{board[0].CaseID, board[1].CaseID, board[2].CaseID, board[3].CaseID})

	now := time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC)
	today, err := h.Today(ctx, now)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, "A", today[0].CaseID)

	upcoming, err := h.Upcoming(ctx, now, 2)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "A", upcoming[0].CaseID)
	assert.Equal(t, "ghost", upcoming[1].CaseID)
}

func TestHearingsValidation(t *testing.T) {
	h := NewHearings(newTestDB(t), nil, logger.NewNop())
	_, err := h.Schedule(context.Background(), HearingRequest{CaseID: "A", Date: "18/10/2026"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.Schedule(context.Background(), HearingRequest{Date: "2026-10-18"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHearingsDayUsesChamberZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	h := NewHearings(nil, ist, logger.NewNop())

	// 20:00 UTC is already the next day in India
	got := h.Day(time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), got)
}

func TestResearchLog(t *testing.T) {
	r := NewResearchLog(newTestDB(t))
	ctx := context.Background()

	_, err := r.Add(ctx, ResearchRequest{Title: "Arnesh Kumar", Citation: "(2014) 8 SCC 273"})
	require.NoError(t, err)
	_, err = r.Add(ctx, ResearchRequest{Title: "Satender Kumar Antil", Citation: "(2022) 10 SCC 51"})
	require.NoError(t, err)
	_, err = r.Add(ctx, ResearchRequest{Citation: "no title"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	entries, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Satender Kumar Antil", entries[0].Title)
}

func TestDashboardSummary(t *testing.T) {
	db := newTestDB(t)
	cases := NewCases(db, nil, logger.NewNop())
	hearings := NewHearings(db, time.UTC, logger.NewNop())
	ctx := context.Background()

	intake(t, cases, "A/1", "One", "")
	intake(t, cases, "A/2", "Two", "")
	_, err := cases.Intake(ctx, IntakeRequest{CaseID: "S/1", Petitioner: "Three", Court: "Supreme Court"})
	require.NoError(t, err)

	for _, d := range []string{"2026-10-18", "2026-10-18", "2026-10-19", "2026-10-20", "2026-10-21", "2026-10-22", "2026-10-23"} {
		_, err := hearings.Schedule(ctx, HearingRequest{CaseID: "A/1", Date: d})
		require.NoError(t, err)
	}

	sum, err := NewDashboard(db, hearings).Summary(ctx, time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.EqualValues(t, 3, sum.ActiveFiles)
	assert.EqualValues(t, 2, sum.HearingsToday)
	assert.Len(t, sum.Upcoming, UpcomingLimit)
	require.Len(t, sum.PracticeMix, 2)
	assert.Equal(t, CourtCount{Court: "High Court", Counts: 2}, sum.PracticeMix[0])
}
