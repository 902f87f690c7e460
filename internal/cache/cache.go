// Package cache memoizes reports by filter parameters. The source dataset
// never changes within a process, so entries are never invalidated.
package cache

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"

	"retailense/internal/analytics"
)

type Store interface {
	Get(ctx context.Context, key string) (*analytics.Report, bool)
	Set(ctx context.Context, key string, report *analytics.Report) error
	Len() int
}

// Key normalises the parameters: country order does not matter.
func Key(r analytics.DateRange, countries []string, topN int) string {
	sorted := slices.Clone(countries)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var b strings.Builder
	b.WriteString(r.Start.UTC().Format("20060102T150405.000000000"))
	b.WriteByte('|')
	b.WriteString(r.End.UTC().Format("20060102T150405.000000000"))
	b.WriteByte('|')
	b.WriteString(strings.Join(sorted, ","))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(topN))
	return b.String()
}

type Memory struct {
	mu      sync.RWMutex
	entries map[string]*analytics.Report
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*analytics.Report)}
}

func (m *Memory) Get(_ context.Context, key string) (*analytics.Report, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	report, ok := m.entries[key]
	return report, ok
}

// Set keeps the first report stored under a key.
func (m *Memory) Set(_ context.Context, key string, report *analytics.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[key]; !exists {
		m.entries[key] = report
	}
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
