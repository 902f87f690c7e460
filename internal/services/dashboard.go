package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"retailense/internal/analytics"
	"retailense/internal/cache"
	"retailense/internal/errors"
	"retailense/internal/interaction"
	"retailense/internal/models"
	"retailense/internal/observability"
)

const dateLayout = "2006-01-02"

type Settings struct {
	Cache            cache.Store
	Logger           *slog.Logger
	SnapshotDir      string
	DefaultCountries []string
	DefaultTopN      int
}

// Dashboard owns the loaded dataset and answers filter and selection
// requests against it. The dataset is replaced only by LoadFromCSV or
// SetData; reports computed from it are memoized.
type Dashboard struct {
	mu        sync.RWMutex
	data      analytics.Dataset
	countries []string
	firstDate time.Time
	lastDate  time.Time
	loadedAt  time.Time
	skipped   int
	source    string
	version   string
	installs  int

	cache            cache.Store
	snapshotDir      string
	defaultCountries []string
	defaultTopN      int

	recordsProcessed atomic.Int64
	reportsComputed  atomic.Int64
	cacheHits        atomic.Int64
	logger           *slog.Logger
}

func NewDashboard(settings Settings) *Dashboard {
	d := &Dashboard{
		data:             analytics.Dataset{},
		countries:        []string{},
		cache:            settings.Cache,
		snapshotDir:      settings.SnapshotDir,
		defaultCountries: slices.Clone(settings.DefaultCountries),
		defaultTopN:      settings.DefaultTopN,
		logger:           settings.Logger,
	}
	if d.cache == nil {
		d.cache = cache.NewMemory()
	}
	if d.snapshotDir == "" {
		d.snapshotDir = ".cache"
	}
	if len(d.defaultCountries) == 0 {
		d.defaultCountries = []string{analytics.UnitedKingdom}
	}
	if d.defaultTopN <= 0 {
		d.defaultTopN = analytics.DefaultTopN
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

func (d *Dashboard) SetData(data []models.Transaction) {
	d.install(analytics.Dataset(slices.Clone(data)), 0, "memory")
}

func (d *Dashboard) install(ds analytics.Dataset, skipped int, source string) {
	first, last, _ := ds.DateBounds()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.data = ds
	d.countries = ds.Countries()
	d.firstDate = first
	d.lastDate = last
	d.loadedAt = time.Now()
	d.skipped = skipped
	d.source = source
	d.installs++
	d.version = fmt.Sprintf("%s:%d:%d", source, len(ds), d.installs)
	d.recordsProcessed.Store(int64(len(ds)))
}

func (d *Dashboard) LoadFromCSV(ctx context.Context, filename string) error {
	if snap, err := loadSnapshot(d.snapshotDir, filename); err == nil {
		d.install(snap.Transactions, snap.Skipped, filename)
		d.logger.Info("loaded from snapshot", "records", len(snap.Transactions), "skipped", snap.Skipped)
		return nil
	}

	start := time.Now()
	d.logger.Info("processing CSV file", "filename", filename)

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	result, err := readCSV(ctx, file)
	if err != nil {
		return fmt.Errorf("process csv: %w", err)
	}

	d.install(result.transactions, result.skipped, filename)

	snap := &snapshot{
		Source:       filename,
		LoadedAt:     time.Now(),
		Skipped:      result.skipped,
		Transactions: result.transactions,
	}
	if err := saveSnapshot(d.snapshotDir, snap); err != nil {
		d.logger.Warn("failed to save snapshot", "error", err)
	}

	duration := time.Since(start)
	count := len(result.transactions)
	d.logger.Info("csv processing complete",
		"records", count,
		"skipped", result.skipped,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(count)/duration.Seconds()))

	return nil
}

// dataset returns the current rows and the version that scopes cache keys
// to them.
func (d *Dashboard) dataset() (analytics.Dataset, string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.data, d.version
}

// Report computes every view for params, serving repeated parameter sets
// from the cache. Invalid parameters fail before any work is done.
func (d *Dashboard) Report(ctx context.Context, params models.FilterParams) (*analytics.Report, error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.report")

	fail := func(err error) (*analytics.Report, error) {
		span.SetError(err)
		span.Finish()
		return nil, err
	}

	if params.TopN <= 0 {
		return fail(errors.InvalidParameter(fmt.Sprintf("top-N must be a positive integer, got %d", params.TopN)))
	}

	r, err := analytics.ParseDateRange(params.StartDate, params.EndDate)
	if err != nil {
		return fail(err)
	}

	ds, version := d.dataset()
	key := version + "|" + cache.Key(r, params.Countries, params.TopN)
	span.SetTag("cache_key", key)

	if cached, ok := d.cache.Get(ctx, key); ok {
		d.cacheHits.Add(1)
		span.SetTag("cache", "hit")
		span.Finish()
		return forRequest(cached, params), nil
	}
	span.SetTag("cache", "miss")

	report, err := analytics.Build(ctx, ds, params)
	if err != nil {
		return fail(err)
	}
	d.reportsComputed.Add(1)

	logger := observability.FromContext(ctx, d.logger)
	if err := d.cache.Set(ctx, key, report); err != nil {
		logger.Warn("failed to cache report", "error", err)
	}
	span.Finish()

	logger.Debug("report computed",
		"start", params.StartDate,
		"end", params.EndDate,
		"countries", len(params.Countries),
		"top_n", params.TopN,
		"months", len(report.MonthlyRevenue),
		"span", span)

	return report, nil
}

// forRequest echoes the caller's own parameters on a cached report. Keys are
// normalised, so the stored copy may carry another caller's spelling of the
// same filter.
func forRequest(cached *analytics.Report, params models.FilterParams) *analytics.Report {
	report := *cached
	report.StartDate = params.StartDate
	report.EndDate = params.EndDate
	report.Countries = slices.Clone(params.Countries)
	if report.Countries == nil {
		report.Countries = []string{}
	}
	return &report
}

// OtherCountries is the Others membership for a date window, over all
// countries.
func (d *Dashboard) OtherCountries(startDate, endDate string) ([]string, error) {
	r, err := analytics.ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	ds, _ := d.dataset()
	return analytics.OtherCountries(analytics.FilterDates(ds, r)), nil
}

// Resolution is the outcome of a chart selection.
type Resolution struct {
	Selection      interaction.Selection `json:"selection"`
	SelectedLabel  string                `json:"selected_country"`
	OtherCountries []string              `json:"other_countries"`
	Countries      []string              `json:"countries"`
}

// Resolve applies a chart selection to params.Countries. The Others list is
// computed for params' own date window, never reused from an earlier one.
func (d *Dashboard) Resolve(ctx context.Context, params models.FilterParams, sel interaction.Selection) (*Resolution, error) {
	_, span := observability.StartSpan(ctx, "dashboard.resolve")
	defer span.Finish()

	session := interaction.NewSession(d.OtherCountries, params.Countries)
	if err := session.SetDateRange(params.StartDate, params.EndDate); err != nil {
		span.SetError(err)
		return nil, err
	}

	countries := session.Apply(sel)
	selection := session.Selection()
	span.SetTag("selection", selection.State.String())

	return &Resolution{
		Selection:      selection,
		SelectedLabel:  selection.Country,
		OtherCountries: session.OtherCountries(),
		Countries:      countries,
	}, nil
}

// Options describes the filter controls: every country, the date bounds and
// the initial filter.
type Options struct {
	Countries []string            `json:"countries"`
	MinDate   string              `json:"min_date"`
	MaxDate   string              `json:"max_date"`
	Defaults  models.FilterParams `json:"defaults"`
}

func (d *Dashboard) Options() Options {
	d.mu.RLock()
	defer d.mu.RUnlock()

	opts := Options{Countries: slices.Clone(d.countries)}
	if len(d.data) > 0 {
		opts.MinDate = d.firstDate.Format(dateLayout)
		opts.MaxDate = d.lastDate.Format(dateLayout)
	}
	opts.Defaults = models.FilterParams{
		StartDate: opts.MinDate,
		EndDate:   opts.MaxDate,
		Countries: slices.Clone(d.defaultCountries),
		TopN:      d.defaultTopN,
	}
	return opts
}

// Defaults fills the blanks of params from the dataset bounds and the
// configured defaults. A nil country list takes the defaults; an empty,
// non-nil one is kept.
func (d *Dashboard) Defaults(params models.FilterParams) models.FilterParams {
	opts := d.Options()
	if strings.TrimSpace(params.StartDate) == "" {
		params.StartDate = opts.MinDate
	}
	if strings.TrimSpace(params.EndDate) == "" {
		params.EndDate = opts.MaxDate
	}
	if params.Countries == nil {
		params.Countries = opts.Defaults.Countries
	}
	if params.TopN == 0 {
		params.TopN = opts.Defaults.TopN
	}
	return params
}

func (d *Dashboard) RecordCount() int64 {
	return d.recordsProcessed.Load()
}

// Stats is reported on the admin endpoint.
func (d *Dashboard) Stats() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := map[string]any{
		"record_count":     d.recordsProcessed.Load(),
		"skipped_rows":     d.skipped,
		"source":           d.source,
		"last_processed":   d.loadedAt,
		"countries":        len(d.countries),
		"cached_reports":   d.cache.Len(),
		"reports_computed": d.reportsComputed.Load(),
		"cache_hits":       d.cacheHits.Load(),
	}
	if len(d.data) > 0 {
		stats["first_invoice"] = d.firstDate.Format(time.RFC3339)
		stats["last_invoice"] = d.lastDate.Format(time.RFC3339)
	}
	stats["default_top_n"] = d.defaultTopN
	return stats
}
