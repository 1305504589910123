package holidays

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const dateLayout = "2006-01-02"

type Holiday struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

type calendarEvents struct {
	Items []struct {
		Summary string `json:"summary"`
		Start   struct {
			Date     string `json:"date"`
			DateTime string `json:"dateTime"`
		} `json:"start"`
	} `json:"items"`
}

// Feed reads a public calendar events feed. It never returns an error:
// any failure yields an empty list.
type Feed struct {
	url  string
	http *http.Client
	now  func() time.Time

	mu     sync.RWMutex
	cached []Holiday
	loaded bool
}

func NewFeed(url string, timeout time.Duration) *Feed {
	return &Feed{
		url: url,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		now: time.Now,
	}
}

// Upcoming returns the last polled list, fetching once if nothing has been loaded yet.
func (f *Feed) Upcoming(ctx context.Context) []Holiday {
	f.mu.RLock()
	if f.loaded {
		out := upcoming(f.cached, f.now())
		f.mu.RUnlock()
		return out
	}
	f.mu.RUnlock()
	return f.Refresh(ctx)
}

// Refresh fetches the feed and replaces the cached list when the fetch succeeds.
func (f *Feed) Refresh(ctx context.Context) []Holiday {
	list, err := f.fetch(ctx)
	if err != nil {
		slog.Warn("holiday feed fetch failed", "err", err)
		f.mu.RLock()
		defer f.mu.RUnlock()
		return upcoming(f.cached, f.now())
	}
	f.mu.Lock()
	f.cached = list
	f.loaded = true
	f.mu.Unlock()
	return upcoming(list, f.now())
}

// Run refreshes the feed every interval until ctx is done.
func (f *Feed) Run(ctx context.Context, interval time.Duration) {
	if f.url == "" || interval <= 0 {
		return
	}
	f.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.Refresh(ctx)
		}
	}
}

func (f *Feed) fetch(ctx context.Context) ([]Holiday, error) {
	if f.url == "" {
		return nil, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday feed status %d", resp.StatusCode)
	}

	var events calendarEvents
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode holiday feed: %w", err)
	}

	out := make([]Holiday, 0, len(events.Items))
	for _, item := range events.Items {
		date := item.Start.Date
		if date == "" && len(item.Start.DateTime) >= len(dateLayout) {
			date = item.Start.DateTime[:len(dateLayout)]
		}
		if _, err := time.Parse(dateLayout, date); err != nil {
			continue
		}
		out = append(out, Holiday{Date: date, Name: item.Summary})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func upcoming(list []Holiday, now time.Time) []Holiday {
	today := now.Format(dateLayout)
	out := make([]Holiday, 0, len(list))
	for _, h := range list {
		if h.Date >= today {
			out = append(out, h)
		}
	}
	return out
}
