package statutes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JustJay7/chamber-desk/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"))
}

func TestDefaultTable(t *testing.T) {
	table := Default()

	tests := []struct {
		offence string
		ipc     string
		bns     string
	}{
		{"Murder", "302", "101"},
		{"Attempt to Murder", "307", "109"},
		{"Cheating", "420", "318"},
		{"Theft", "378", "303"},
		{"Defamation", "499", "356"},
		{"Unlawful Assembly", "141", "189"},
	}

	for _, tt := range tests {
		t.Run(tt.offence, func(t *testing.T) {
			m, ok := table.LookupIPC(tt.ipc)
			require.True(t, ok)
			assert.Equal(t, tt.bns, m.BNS)
			assert.Equal(t, tt.offence, m.Offence)

			back, ok := table.LookupBNS(tt.bns)
			require.True(t, ok)
			assert.Equal(t, tt.ipc, back.IPC)
		})
	}

	_, ok := table.LookupIPC("9999")
	assert.False(t, ok)
}

func TestNormalizeSection(t *testing.T) {
	assert.Equal(t, "498A", NormalizeSection("Sec. 498-a"))
	assert.Equal(t, "302", NormalizeSection(" section 302 "))
	assert.Equal(t, "420", NormalizeSection("u/s 420"))
	assert.Equal(t, "3(5)", NormalizeSection("3(5)"))
}

func TestLookupAcceptsLooseInput(t *testing.T) {
	m, ok := Default().LookupIPC("S. 498 A")
	require.True(t, ok)
	assert.Equal(t, "85", m.BNS)
}

func TestSearch(t *testing.T) {
	table := Default()

	got := table.Search("murder")
	require.Len(t, got, 2)
	assert.Equal(t, "Attempt to Murder", got[0].Offence)

	got = table.Search("318")
	require.Len(t, got, 1)
	assert.Equal(t, "Cheating", got[0].Offence)

	assert.Equal(t, table.Len(), len(table.Search("")))
}

func TestParseRejectsIncompleteEntries(t *testing.T) {
	_, err := Parse([]byte("mappings:\n  - offence: Broken\n    ipc: \"1\"\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("mappings: [unterminated"))
	assert.Error(t, err)
}

func TestOverlayReplacesByIPC(t *testing.T) {
	base := NewTable([]Mapping{{Offence: "Murder", IPC: "302", BNS: "101"}})
	merged := base.Overlay([]Mapping{
		{Offence: "Murder (punishment)", IPC: "302", BNS: "103"},
		{Offence: "Hurt", IPC: "323", BNS: "115"},
	})

	assert.Equal(t, 1, base.Len(), "overlay must not mutate the base table")
	assert.Equal(t, 2, merged.Len())

	m, ok := merged.LookupIPC("302")
	require.True(t, ok)
	assert.Equal(t, "103", m.BNS)

	_, ok = merged.LookupBNS("101")
	assert.False(t, ok)
}

func TestParseCSV(t *testing.T) {
	data := "\ufeffOffence, IPC (Old), BNS (New)\nMurder,302,103\nBlank,,\nHurt,323,115\n"
	rows, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Mapping{Offence: "Murder", IPC: "302", BNS: "103"}, rows[0])

	_, err = ParseCSV(strings.NewReader("name,value\na,b\n"))
	assert.Error(t, err)
}

func newClient() *http.Client {
	return &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
}

func TestBridgeOverlaysAndCachesFeed(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("offence,ipc,bns\nMurder,302,103\nSedition,124A,152\n"))
	}))
	defer srv.Close()

	bridge := NewBridge(Default(), NewFeed(srv.URL, newClient(), time.Second), time.Minute, logger.NewNop())
	ctx := context.Background()

	table := bridge.Table(ctx)
	m, ok := table.LookupIPC("302")
	require.True(t, ok)
	assert.Equal(t, "103", m.BNS)
	_, ok = table.LookupIPC("124A")
	assert.True(t, ok)

	bridge.Table(ctx)
	bridge.Table(ctx)
	assert.EqualValues(t, 1, hits.Load(), "feed must be served from cache within the ttl")
	assert.EqualValues(t, 2, bridge.Stats().Hits)
}

func TestBridgeFetchSurvivesCancelledRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("offence,ipc,bns\nSedition,124A,152\n"))
	}))
	defer srv.Close()

	bridge := NewBridge(Default(), NewFeed(srv.URL, newClient(), time.Second), time.Minute, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := bridge.Table(ctx).LookupIPC("124A")
	assert.True(t, ok, "a disconnected caller must not discard the shared feed fetch")
	_, ok = bridge.Table(context.Background()).LookupIPC("124A")
	assert.True(t, ok)
}

func TestBridgeRefetchesAfterTTL(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("offence,ipc,bns\nHurt,323,115\n"))
	}))
	defer srv.Close()

	bridge := NewBridge(Default(), NewFeed(srv.URL, newClient(), time.Second), 30*time.Millisecond, logger.NewNop())
	bridge.Table(context.Background())
	time.Sleep(60 * time.Millisecond)
	bridge.Table(context.Background())

	assert.EqualValues(t, 2, hits.Load())
}

func TestBridgeFallsBackOnFeedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	base := Default()
	bridge := NewBridge(base, NewFeed(srv.URL, newClient(), time.Second), time.Minute, logger.NewNop())

	table := bridge.Table(context.Background())
	assert.Same(t, base, table)
}

func TestBridgeWithoutFeed(t *testing.T) {
	base := Default()
	bridge := NewBridge(base, nil, time.Minute, logger.NewNop())
	assert.Same(t, base, bridge.Table(context.Background()))
}
