// Package accounts contains the finance records: income/expense
// transactions, student invoices and fee chalans.
package accounts

import "github.com/schoolerp/backend/internal/domain/shared"

// Collection names
const (
	CollectionTransactions    = "transactions"
	CollectionInvoices        = "invoices"
	CollectionChalans         = "feeChalans"
	CollectionClassFeeAmounts = "classFeeAmounts"
)

// TransactionType is the income/expense discriminant.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// IsValid reports whether t is one of the closed set of values.
func (t TransactionType) IsValid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// Transaction is a single ledger entry.
type Transaction struct {
	shared.BaseRecord
	Type        TransactionType `json:"type" validate:"required,oneof=income expense"`
	Category    string          `json:"category,omitempty"`
	Amount      float64         `json:"amount" validate:"gte=0"`
	Date        string          `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Description string          `json:"description,omitempty"`
}

// EffectiveDate returns the transaction date, else its creation date.
func (t Transaction) EffectiveDate() string {
	return shared.FirstNonEmpty(t.Date, t.CreatedDate())
}
