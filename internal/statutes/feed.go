package statutes

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JustJay7/chamber-desk/internal/cache"
	"github.com/JustJay7/chamber-desk/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// Feed fetches extra mappings from a CSV export with an offence,ipc,bns header
type Feed struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// NewFeed returns a feed for url; a nil client uses http.DefaultClient
func NewFeed(url string, client *http.Client, timeout time.Duration) *Feed {
	if client == nil {
		client = http.DefaultClient
	}
	return &Feed{url: url, client: client, timeout: timeout}
}

// Fetch downloads and parses the feed
func (f *Feed) Fetch(ctx context.Context) ([]Mapping, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch statute feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	return ParseCSV(resp.Body)
}

// ParseCSV reads mappings from CSV. Column order is taken from the header row.
func ParseCSV(r io.Reader) ([]Mapping, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := map[string]int{"offence": -1, "ipc": -1, "bns": -1}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		switch {
		case key == "offence" || key == "offense":
			cols["offence"] = i
		case strings.HasPrefix(key, "ipc"):
			cols["ipc"] = i
		case strings.HasPrefix(key, "bns"):
			cols["bns"] = i
		}
	}
	if cols["ipc"] < 0 || cols["bns"] < 0 {
		return nil, errors.New("feed header must name ipc and bns columns")
	}

	field := func(rec []string, col int) string {
		if col < 0 || col >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[col])
	}

	var mappings []Mapping
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		m := Mapping{
			Offence: field(rec, cols["offence"]),
			IPC:     field(rec, cols["ipc"]),
			BNS:     field(rec, cols["bns"]),
		}
		if m.IPC == "" || m.BNS == "" {
			continue
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

// Bridge serves the statute table, overlaying the remote feed when configured
type Bridge struct {
	base   *Table
	feed   *Feed
	cache  cache.Cache[[]Mapping]
	group  singleflight.Group
	logger *logger.Logger
}

// NewBridge wraps base. feed may be nil; feed rows are cached for ttl.
func NewBridge(base *Table, feed *Feed, ttl time.Duration, log *logger.Logger) *Bridge {
	return &Bridge{
		base:   base,
		feed:   feed,
		cache:  cache.NewCache[[]Mapping](1, ttl),
		logger: log,
	}
}

// Table returns the current table. Feed failures fall back to the built-in table.
func (b *Bridge) Table(ctx context.Context) *Table {
	if b.feed == nil {
		return b.base
	}

	key := cache.Key("statute-feed", b.feed.url)
	if rows, ok := b.cache.Get(key); ok {
		return b.base.Overlay(rows)
	}

	// shared by every waiting caller, not tied to the first one's request
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := b.group.Do(key, func() (interface{}, error) {
		rows, err := b.feed.Fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		b.cache.Set(key, rows)
		b.logger.Info("Statute feed refreshed", "rows", len(rows), "mappings", b.base.Overlay(rows).Len())
		return rows, nil
	})
	if err != nil {
		b.logger.Warn("Statute feed unavailable, serving built-in table", "error", err)
		return b.base
	}
	return b.base.Overlay(v.([]Mapping))
}

// Stats reports feed cache statistics
func (b *Bridge) Stats() cache.CacheStats {
	return b.cache.Stats()
}
