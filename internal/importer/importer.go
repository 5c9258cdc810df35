package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"cryptomart/internal/domain"
	productsvc "cryptomart/internal/service/product"
)

type ProductCreator interface {
	Create(ctx context.Context, ownerID string, in productsvc.CreateInput) (*domain.Product, error)
}

var requiredColumns = []string{"name", "description", "image", "manufacturingDate", "price", "quantity"}

// CSVImporter loads products from a CSV file with a header row naming the
// columns in requiredColumns, in any order.
type CSVImporter struct {
	reader   *csv.Reader
	products ProductCreator
	ownerID  string
	logger   *zap.Logger
}

func NewCSVImporter(r io.Reader, products ProductCreator, ownerID string, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVImporter{
		reader:   csvr,
		products: products,
		ownerID:  ownerID,
		logger:   logger,
	}
}

// RowError points at the CSV line that could not be imported.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Run validates every row and then creates the products. A row that fails
// validation aborts the import before anything is written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, col := range requiredColumns {
		if _, ok := index[strings.ToLower(col)]; !ok {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	var (
		rows  []productsvc.CreateInput
		lines []int
	)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read row: %w", err)
		}
		if blank(record) {
			continue
		}
		line, _ := i.reader.FieldPos(0)
		in, err := i.parseRow(record, index)
		if err != nil {
			return 0, &RowError{Line: line, Err: err}
		}
		rows = append(rows, in)
		lines = append(lines, line)
	}

	imported := 0
	for n, in := range rows {
		p, err := i.products.Create(ctx, i.ownerID, in)
		if err != nil {
			return imported, &RowError{Line: lines[n], Err: err}
		}
		imported++
		i.logger.Debug("imported product", zap.String("id", p.ID), zap.String("price", p.Price.String()))
	}
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// parseRow runs the same checks as the product service so that no row can
// fail once writing has started.
func (i *CSVImporter) parseRow(record []string, index map[string]int) (productsvc.CreateInput, error) {
	made, err := parseDate(pick(record, index, "manufacturingdate"))
	if err != nil {
		return productsvc.CreateInput{}, err
	}
	qty := 0
	if raw := pick(record, index, "quantity"); raw != "" {
		qty, err = strconv.Atoi(raw)
		if err != nil {
			return productsvc.CreateInput{}, fmt.Errorf("quantity %q is not a whole number", raw)
		}
	}
	in := productsvc.CreateInput{
		Name:              pick(record, index, "name"),
		Description:       pick(record, index, "description"),
		Image:             pick(record, index, "image"),
		ManufacturingDate: made,
		Price:             pick(record, index, "price"),
		Quantity:          qty,
	}
	if _, err := productsvc.Build(i.ownerID, in); err != nil {
		return productsvc.CreateInput{}, err
	}
	return in, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("manufacturingDate %q must be YYYY-MM-DD or YYYY", s)
}

func pick(record []string, index map[string]int, key string) string {
	if pos, ok := index[key]; ok && pos < len(record) {
		return strings.TrimSpace(record[pos])
	}
	return ""
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
