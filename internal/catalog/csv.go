package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jortegadev/ims-backend/pkg/db/models"
	pkgerrors "github.com/jortegadev/ims-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var csvHeader = []string{"NAME", "DESCRIPTION", "PRICE", "QUANTITY", "PRODUCT_SIZE", "PRODUCT_COLOR"}

// ImportCSV upserts simple products from a CSV stream keyed by product name.
// The whole file applies in one transaction; any bad row aborts the import.
func (s *service) ImportCSV(ctx context.Context, reader io.Reader) (*ImportSummary, error) {
	records := csv.NewReader(reader)
	records.TrimLeadingSpace = true

	header, err := records.Read()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read csv header")
	}
	if err := validateCSVHeader(header); err != nil {
		return nil, err
	}

	summary := &ImportSummary{}
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		line := 1
		for {
			record, err := records.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("read csv line %d", line+1))
			}
			line++

			if err := s.importRow(ctx, txRepo, record, line, summary); err != nil {
				return err
			}
		}
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"created": summary.Created,
			"updated": summary.Updated,
		})
		s.logg.Info(ctx, "csv import completed")
	}
	return summary, nil
}

func (s *service) importRow(ctx context.Context, txRepo *Repository, record []string, line int, summary *ImportSummary) error {
	if len(record) != len(csvHeader) {
		return rowError(line, "expected %d columns, got %d", len(csvHeader), len(record))
	}

	name := strings.TrimSpace(record[0])
	if name == "" {
		return rowError(line, "NAME is required")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(record[2]))
	if err != nil || price.IsNegative() {
		return rowError(line, "invalid PRICE %q", record[2])
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(record[3]))
	if err != nil || quantity < 0 {
		return rowError(line, "invalid QUANTITY %q", record[3])
	}

	existing, err := txRepo.FindByName(ctx, name)
	switch {
	case err == nil:
		if existing.IsBundle {
			return rowError(line, "product %q is a bundle and cannot be imported", name)
		}
		existing.Description = strings.TrimSpace(record[1])
		existing.Price = price
		existing.Quantity = quantity
		existing.Size = strings.TrimSpace(record[4])
		existing.Color = strings.TrimSpace(record[5])
		if _, err := txRepo.UpdateProduct(ctx, existing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update imported product")
		}
		summary.Updated++

	case errors.Is(err, gorm.ErrRecordNotFound):
		product := &models.Product{
			ID:          uuid.New(),
			Name:        name,
			Description: strings.TrimSpace(record[1]),
			Price:       price,
			Quantity:    quantity,
			Size:        strings.TrimSpace(record[4]),
			Color:       strings.TrimSpace(record[5]),
		}
		if _, err := txRepo.CreateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create imported product")
		}
		summary.Created++

	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup imported product")
	}
	return nil
}

// ExportCSV streams the full catalog in the import column layout.
func (s *service) ExportCSV(ctx context.Context, writer io.Writer) error {
	products, err := s.repo.ListAll(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	out := csv.NewWriter(writer)
	if err := out.Write(csvHeader); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}
	for i := range products {
		p := &products[i]
		record := []string{
			p.Name,
			p.Description,
			p.Price.StringFixed(2),
			strconv.Itoa(p.Quantity),
			p.Size,
			p.Color,
		}
		if err := out.Write(record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv record")
		}
	}
	out.Flush()
	if err := out.Error(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush csv")
	}
	return nil
}

func validateCSVHeader(header []string) error {
	if len(header) != len(csvHeader) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unexpected csv header").
			WithDetails(map[string]any{"expected": csvHeader})
	}
	for i, col := range header {
		if !strings.EqualFold(strings.TrimSpace(col), csvHeader[i]) {
			return pkgerrors.New(pkgerrors.CodeValidation, "unexpected csv header").
				WithDetails(map[string]any{"expected": csvHeader})
		}
	}
	return nil
}

func rowError(line int, format string, args ...any) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("csv line %d: %s", line, fmt.Sprintf(format, args...)))
}
