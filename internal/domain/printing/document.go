package printing

import (
	"fmt"
	"strings"
	"time"

	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Field is one label/value pair of the metadata block.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// LineItem is one row of the amount table.
type LineItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Tone is the status badge colour class.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
	ToneNeutral Tone = "neutral"
)

// ToneOf maps a record status to its badge tone.
func ToneOf(status string) Tone {
	switch strings.ToLower(status) {
	case "paid", "completed", "active", "returned", "available":
		return ToneSuccess
	case "pending", "unpaid", "issued", "delayed":
		return ToneWarning
	case "overdue", "cancelled", "inactive", "ended", "maintenance":
		return ToneDanger
	}
	return ToneNeutral
}

// Document is a printable, self-describing record.
type Document struct {
	Kind          Kind            `json:"kind"`
	RecordID      string          `json:"recordId"`
	Title         string          `json:"title"`
	Number        string          `json:"number"`
	School        school.Profile  `json:"school"`
	Fields        []Field         `json:"fields"`
	Items         []LineItem      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	AmountInWords string          `json:"amountInWords"`
	Status        string          `json:"status"`
	IssuedAt      time.Time       `json:"issuedAt"`
	VerifyURL     string          `json:"verifyUrl,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// Tone returns the badge tone of the document status.
func (d *Document) Tone() Tone {
	return ToneOf(d.Status)
}

// Reference returns the printed number, else the record ID.
func (d *Document) Reference() string {
	return shared.FirstNonEmpty(d.Number, d.RecordID)
}

// Filename returns <kind>-<reference>.<ext>.
func (d *Document) Filename(f Format) string {
	return fmt.Sprintf("%s-%s.%s", d.Kind, d.Reference(), f.Extension())
}

// Validate checks the document is printable and its total equals its items.
func (d *Document) Validate() error {
	if !d.Kind.IsValid() {
		return shared.NewValidationError("unknown document kind %q", d.Kind)
	}
	if d.RecordID == "" {
		return shared.NewValidationError("document has no record")
	}
	if len(d.Items) == 0 {
		return shared.NewValidationError("document has no line items")
	}
	if !d.Total.Equal(sumItems(d.Items)) {
		return shared.NewValidationError("document total %s does not match its items", d.Total)
	}
	return nil
}

func sumItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}

// addItems appends the line items and stamps the total and words.
func (d *Document) addItems(items ...LineItem) {
	d.Items = append(d.Items, items...)
	d.Total = sumItems(d.Items)
	d.AmountInWords = AmountInWords(d.Total)
}

// addField appends a field, skipping empty values.
func (d *Document) addField(label, value string) {
	if value == "" {
		return
	}
	d.Fields = append(d.Fields, Field{Label: label, Value: value})
}
