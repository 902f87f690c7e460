package services

import (
	"context"
	"encoding/csv"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"retailense/internal/models"
)

const (
	batchSize       = 10000
	maxWorkers      = 10
	snapshotVersion = "v1"
)

var invoiceDateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
	"1/2/2006 15:04",
}

var errNoRecords = errors.New("no valid records found")

// columns maps the header names to their positions. StockCode and Revenue
// are optional.
type columns struct {
	invoice, stockCode, description, quantity, date, unitPrice, customer, country, revenue int
}

func mapColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		index[name] = i
	}

	lookup := func(name string, required bool) (int, error) {
		if i, ok := index[strings.ToLower(name)]; ok {
			return i, nil
		}
		if required {
			return -1, fmt.Errorf("missing column %q", name)
		}
		return -1, nil
	}

	var cols columns
	var err error
	for _, c := range []struct {
		name     string
		required bool
		dst      *int
	}{
		{"InvoiceNo", true, &cols.invoice},
		{"StockCode", false, &cols.stockCode},
		{"Description", true, &cols.description},
		{"Quantity", true, &cols.quantity},
		{"InvoiceDate", true, &cols.date},
		{"UnitPrice", true, &cols.unitPrice},
		{"CustomerID", true, &cols.customer},
		{"Country", true, &cols.country},
		{"Revenue", false, &cols.revenue},
	} {
		if *c.dst, err = lookup(c.name, c.required); err != nil {
			return columns{}, err
		}
	}
	return cols, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseInvoiceDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range invoiceDateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// normaliseCustomerID maps blanks and NaN to anonymous and drops the ".0"
// left behind when IDs were exported as floats.
func normaliseCustomerID(value string) string {
	if value == "" || strings.EqualFold(value, "nan") {
		return ""
	}
	return strings.TrimSuffix(value, ".0")
}

func parseTransaction(record []string, cols columns) (models.Transaction, error) {
	quantity, err := strconv.Atoi(field(record, cols.quantity))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("quantity: %w", err)
	}

	invoiceDate, err := parseInvoiceDate(field(record, cols.date))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invoice date: %w", err)
	}

	unitPrice, err := decimal.NewFromString(field(record, cols.unitPrice))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("unit price: %w", err)
	}

	revenue := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	if raw := field(record, cols.revenue); raw != "" {
		if revenue, err = decimal.NewFromString(raw); err != nil {
			return models.Transaction{}, fmt.Errorf("revenue: %w", err)
		}
	}

	country := field(record, cols.country)
	if country == "" {
		return models.Transaction{}, errors.New("country: empty")
	}

	return models.Transaction{
		InvoiceID:   field(record, cols.invoice),
		StockCode:   field(record, cols.stockCode),
		Description: field(record, cols.description),
		Quantity:    quantity,
		InvoiceDate: invoiceDate,
		UnitPrice:   unitPrice,
		CustomerID:  normaliseCustomerID(field(record, cols.customer)),
		Country:     country,
		Revenue:     revenue,
	}, nil
}

type loadResult struct {
	transactions []models.Transaction
	skipped      int
}

// readCSV streams the file in batches. Each batch is split across workers
// that write into their own slots, so row order is preserved.
func readCSV(ctx context.Context, r io.Reader) (*loadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	result := &loadResult{transactions: make([]models.Transaction, 0, batchSize)}
	batch := make([][]string, 0, batchSize)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.skipped++
				continue
			}
			return nil, fmt.Errorf("read record: %w", err)
		}

		batch = append(batch, record)
		if len(batch) >= batchSize {
			if err := processBatch(ctx, batch, cols, result); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := processBatch(ctx, batch, cols, result); err != nil {
			return nil, err
		}
	}

	if len(result.transactions) == 0 {
		return nil, errNoRecords
	}
	return result, nil
}

func processBatch(ctx context.Context, batch [][]string, cols columns, result *loadResult) error {
	parsed := make([]models.Transaction, len(batch))
	valid := make([]bool, len(batch))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	chunk := (len(batch) + maxWorkers - 1) / maxWorkers
	for start := 0; start < len(batch); start += chunk {
		end := min(start+chunk, len(batch))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				tx, err := parseTransaction(batch[i], cols)
				if err != nil {
					continue
				}
				parsed[i] = tx
				valid[i] = true
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for i, ok := range valid {
		if ok {
			result.transactions = append(result.transactions, parsed[i])
		} else {
			result.skipped++
		}
	}
	return nil
}

// snapshot is the gob-encoded parse result stored next to the CSV's name.
type snapshot struct {
	Source       string
	LoadedAt     time.Time
	Skipped      int
	Transactions []models.Transaction
}

func snapshotPath(dir, csvPath string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(csvPath)
	return filepath.Join(dir, fmt.Sprintf("%s_%s.gob", name, snapshotVersion))
}

func saveSnapshot(dir string, snap *snapshot) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(snapshotPath(dir, snap.Source))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(snap)
}

// loadSnapshot returns the snapshot for csvPath if one exists and is newer
// than the CSV itself.
func loadSnapshot(dir, csvPath string) (*snapshot, error) {
	file, err := os.Open(snapshotPath(dir, csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, err
	}

	info, err := os.Stat(csvPath)
	if err != nil {
		return nil, err
	}
	if !info.ModTime().Before(snap.LoadedAt) {
		return nil, errors.New("snapshot is stale")
	}
	if len(snap.Transactions) == 0 {
		return nil, errNoRecords
	}
	return &snap, nil
}
