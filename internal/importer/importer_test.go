package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cryptomart/internal/domain"
	"cryptomart/internal/pricing"
	productsvc "cryptomart/internal/service/product"
)

type stubProductCreator struct {
	items []productsvc.CreateInput
	err   error
}

func (s *stubProductCreator) Create(_ context.Context, ownerID string, in productsvc.CreateInput) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.items = append(s.items, in)
	return &domain.Product{ID: "p", Price: pricing.MustParse(in.Price), CreatedBy: ownerID}, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `name,description,image,manufacturingDate,price,quantity
Ledger Nano,Hardware wallet,https://example.com/l.png,2023-02-01,79.99,10

Token pack,Utility tokens,https://example.com/t.png,2021,0.333333333333333,3`

	repo := &stubProductCreator{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, "owner-1", nil)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 || len(repo.items) != 2 {
		t.Fatalf("expected 2 products imported, got %d", count)
	}
	if repo.items[1].Price != "0.333333333333333" || repo.items[1].Quantity != 3 {
		t.Fatalf("unexpected product data: %+v", repo.items[1])
	}
	if repo.items[1].ManufacturingDate.Year() != 2021 {
		t.Fatalf("unexpected date %v", repo.items[1].ManufacturingDate)
	}
}

func TestCSVImporter_BadPriceAbortsBeforeWriting(t *testing.T) {
	csvData := `name,description,image,manufacturingDate,price,quantity
Good,desc,img,2023-01-01,1.00,1
Bad,desc,img,2023-01-01,-2.50,1`

	repo := &stubProductCreator{}
	_, err := NewCSVImporter(strings.NewReader(csvData), repo, "owner-1", nil).Run(context.Background())

	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Line != 3 {
		t.Fatalf("expected error on row 3, got %v", err)
	}
	if !errors.Is(err, pricing.ErrNegativeValue) {
		t.Fatalf("expected ErrNegativeValue, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Fatalf("no product should be written, got %d", len(repo.items))
	}
}

func TestCSVImporter_MissingColumn(t *testing.T) {
	csvData := "name,description,image,price,quantity\nx,y,z,1,1\n"
	_, err := NewCSVImporter(strings.NewReader(csvData), &stubProductCreator{}, "owner-1", nil).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "manufacturingDate") {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestCSVImporter_CreateErrorCarriesRow(t *testing.T) {
	csvData := `name,description,image,manufacturingDate,price,quantity
,desc,img,2023-01-01,1,1`
	repo := &stubProductCreator{err: domain.NewValidationError("Please provide product name")}
	count, err := NewCSVImporter(strings.NewReader(csvData), repo, "owner-1", nil).Run(context.Background())
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Line != 2 || count != 0 {
		t.Fatalf("expected row 2 error, got %v (count %d)", err, count)
	}
}

func TestCSVImporter_InvalidFieldAbortsBeforeWriting(t *testing.T) {
	csvData := `name,description,image,manufacturingDate,price,quantity
Good,desc,img,2023-01-01,1.00,1
,desc,img,2023-01-01,2.00,1
Later,desc,img,2023-01-01,3.00,1`

	repo := &stubProductCreator{}
	count, err := NewCSVImporter(strings.NewReader(csvData), repo, "owner-1", nil).Run(context.Background())

	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Line != 3 {
		t.Fatalf("expected error on row 3, got %v", err)
	}
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || !strings.Contains(verr.Error(), "Please provide product name") {
		t.Fatalf("expected product name validation error, got %v", err)
	}
	if count != 0 || len(repo.items) != 0 {
		t.Fatalf("no product should be written, got count=%d items=%d", count, len(repo.items))
	}
}

func TestCSVImporter_NegativeQuantityAbortsBeforeWriting(t *testing.T) {
	csvData := `name,description,image,manufacturingDate,price,quantity
Good,desc,img,2023-01-01,1.00,1
Bad,desc,img,2023-01-01,1.00,-4`

	repo := &stubProductCreator{}
	_, err := NewCSVImporter(strings.NewReader(csvData), repo, "owner-1", nil).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "quantity cannot be negative") {
		t.Fatalf("expected quantity error, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Fatalf("no product should be written, got %d", len(repo.items))
	}
}
