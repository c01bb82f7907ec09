package printing

import (
	"fmt"

	"github.com/divan/num2words"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AmountInWords spells an amount in title case, e.g. "One Thousand Five
// Hundred Only". Fractions print as "and NN/100".
func AmountInWords(amount decimal.Decimal) string {
	whole := amount.Truncate(0)
	cents := amount.Sub(whole).Abs().Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	words := TitleCase(num2words.Convert(int(whole.IntPart())))
	if cents > 0 {
		words += fmt.Sprintf(" and %02d/100", cents)
	}
	return words + " Only"
}

// TitleCase capitalises a status or label for display. A Caser holds
// state, so each call builds its own.
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}
