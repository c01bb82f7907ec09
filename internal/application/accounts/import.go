package accounts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/schoolerp/backend/internal/domain/accounts"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/export"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// transactionColumns are the headers a transactions CSV must carry.
var transactionColumns = []string{"type", "category", "amount", "date", "description"}

// ImportTransactions inserts one transaction per valid CSV row. Invalid rows
// are reported by line and skipped; valid rows are kept.
func (s *Service) ImportTransactions(ctx context.Context, r io.Reader) (*ImportResult, error) {
	sheet, err := export.ParseCSV(r)
	if err != nil {
		return nil, shared.NewValidationError("Invalid CSV file: %v", err)
	}
	if missing := sheet.Missing(transactionColumns...); len(missing) > 0 {
		return nil, shared.NewValidationError("CSV is missing columns: %s", strings.Join(missing, ", "))
	}

	result := &ImportResult{Errors: []ImportRowError{}}
	for _, row := range sheet.Rows {
		if row.IsEmpty() {
			continue
		}
		tx, err := s.parseTransaction(row)
		if err == nil {
			var fields shared.Document
			if fields, err = shared.Encode(tx); err == nil {
				_, err = s.store.Insert(ctx, accounts.CollectionTransactions, fields)
			}
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Line: row.Line, Message: rowMessage(err)})
			continue
		}
		result.Imported++
	}

	s.logger.Info("Transactions imported",
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed))
	if result.Imported > 0 {
		s.reload(ctx, accounts.CollectionTransactions)
	}
	return result, nil
}

func (s *Service) parseTransaction(row export.Row) (*accounts.Transaction, error) {
	raw := strings.TrimSpace(row.Get("amount"))
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, shared.NewValidationError("amount %q is not a number", raw)
	}
	tx := &accounts.Transaction{
		Type:        accounts.TransactionType(strings.ToLower(strings.TrimSpace(row.Get("type")))),
		Category:    strings.TrimSpace(row.Get("category")),
		Amount:      amount.InexactFloat64(),
		Date:        strings.TrimSpace(row.Get("date")),
		Description: strings.TrimSpace(row.Get("description")),
	}
	if err := s.validate.Struct(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func rowMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		case "datetime":
			parts = append(parts, fmt.Sprintf("%s must be a %s date", fe.Field(), "YYYY-MM-DD"))
		case "gte":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(parts, "; ")
}
