package report

import (
	"github.com/schoolerp/backend/internal/domain/accounts"
	"github.com/shopspring/decimal"
)

// Accounts datasets
var (
	TransactionDataset = Dataset[accounts.Transaction]{
		Name:   accounts.CollectionTransactions,
		Date:   accounts.Transaction.EffectiveDate,
		Amount: func(t accounts.Transaction) decimal.Decimal { return Amount(t.Amount) },
	}
	InvoiceDataset = Dataset[accounts.Invoice]{
		Name:   accounts.CollectionInvoices,
		Date:   accounts.Invoice.EffectiveDate,
		Amount: func(i accounts.Invoice) decimal.Decimal { return Amount(i.Amount) },
	}
	ChalanDataset = Dataset[accounts.FeeChalan]{
		Name:   accounts.CollectionChalans,
		Date:   accounts.FeeChalan.EffectiveDate,
		Amount: func(c accounts.FeeChalan) decimal.Decimal { return Amount(c.Fees.TotalAmount) },
	}
)

// AccountsData is the cached input of the accounts report.
type AccountsData struct {
	Transactions []accounts.Transaction
	Invoices     []accounts.Invoice
	Chalans      []accounts.FeeChalan
}

// CategoryTotals is the income/expense split of one category.
type CategoryTotals struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
}

// MonthTotals is the income/expense split of one YYYY-MM month.
type MonthTotals struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// StatusSummary partitions a collection by status.
type StatusSummary struct {
	Total          Bucket          `json:"total"`
	ByStatus       []Bucket        `json:"byStatus"`
	Collected      decimal.Decimal `json:"collected"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	CollectionRate decimal.Decimal `json:"collectionRate"`
}

// AccountsReport is the derived finance view for a date range.
type AccountsReport struct {
	Range            DateRange        `json:"range"`
	TotalIncome      decimal.Decimal  `json:"totalIncome"`
	TotalExpense     decimal.Decimal  `json:"totalExpense"`
	NetProfit        decimal.Decimal  `json:"netProfit"`
	ProfitMargin     decimal.Decimal  `json:"profitMargin"`
	TransactionCount int              `json:"transactionCount"`
	ByType           []Bucket         `json:"byType"`
	ByCategory       []CategoryTotals `json:"byCategory"`
	ByMonth          []MonthTotals    `json:"byMonth"`
	Invoices         StatusSummary    `json:"invoices"`
	Chalans          StatusSummary    `json:"chalans"`

	Transactions   []accounts.Transaction `json:"-"`
	InvoiceRecords []accounts.Invoice     `json:"-"`
	ChalanRecords  []accounts.FeeChalan   `json:"-"`
}

// BuildAccounts derives the accounts report. It is a pure function of its
// input: the same data and range always yield the same report.
func BuildAccounts(data AccountsData, r DateRange) *AccountsReport {
	txns := TransactionDataset.Filter(data.Transactions, r)
	invoices := InvoiceDataset.Filter(data.Invoices, r)
	chalans := ChalanDataset.Filter(data.Chalans, r)

	rep := &AccountsReport{
		Range:            r,
		TransactionCount: len(txns),
		Transactions:     txns,
		InvoiceRecords:   invoices,
		ChalanRecords:    chalans,
	}

	byType := TransactionDataset.GroupBy(txns, func(t accounts.Transaction) string { return string(t.Type) }, Unknown)
	byType.Ensure(string(accounts.TransactionIncome), string(accounts.TransactionExpense))
	rep.ByType = byType.Buckets()
	rep.TotalIncome = byType.Get(string(accounts.TransactionIncome)).Sum
	rep.TotalExpense = byType.Get(string(accounts.TransactionExpense)).Sum
	rep.NetProfit = rep.TotalIncome.Sub(rep.TotalExpense)
	rep.ProfitMargin = Rate(rep.NetProfit, rep.TotalIncome)

	rep.ByCategory = categoryTotals(txns)
	rep.ByMonth = monthTotals(txns)
	rep.Invoices = invoiceSummary(invoices)
	rep.Chalans = chalanSummary(chalans)
	return rep
}

func categoryTotals(txns []accounts.Transaction) []CategoryTotals {
	index := make(map[string]int)
	var out []CategoryTotals
	for _, t := range txns {
		cat := t.Category
		if cat == "" {
			cat = Uncategorized
		}
		i, ok := index[cat]
		if !ok {
			i = len(out)
			index[cat] = i
			out = append(out, CategoryTotals{Category: cat, Income: decimal.Zero, Expense: decimal.Zero})
		}
		out[i].Count++
		switch t.Type {
		case accounts.TransactionIncome:
			out[i].Income = out[i].Income.Add(Amount(t.Amount))
		case accounts.TransactionExpense:
			out[i].Expense = out[i].Expense.Add(Amount(t.Amount))
		}
	}
	return out
}

func monthTotals(txns []accounts.Transaction) []MonthTotals {
	income := TransactionDataset.ByMonth(Where(txns, func(t accounts.Transaction) bool {
		return t.Type == accounts.TransactionIncome
	}))
	expense := TransactionDataset.ByMonth(Where(txns, func(t accounts.Transaction) bool {
		return t.Type == accounts.TransactionExpense
	}))

	months := NewBreakdown()
	for _, b := range income.Buckets() {
		months.Ensure(b.Key)
	}
	for _, b := range expense.Buckets() {
		months.Ensure(b.Key)
	}

	out := make([]MonthTotals, 0, months.Len())
	for _, m := range months.ByKey() {
		in, ex := income.Get(m.Key).Sum, expense.Get(m.Key).Sum
		out = append(out, MonthTotals{Month: m.Key, Income: in, Expense: ex, Net: in.Sub(ex)})
	}
	return out
}

func invoiceSummary(invoices []accounts.Invoice) StatusSummary {
	byStatus := InvoiceDataset.GroupBy(invoices, func(i accounts.Invoice) string { return string(i.Status) }, Unknown)
	byStatus.Ensure(string(accounts.InvoiceUnpaid), string(accounts.InvoicePaid))
	total := InvoiceDataset.Total(invoices)
	paid := byStatus.Get(string(accounts.InvoicePaid)).Sum
	return StatusSummary{
		Total:          total,
		ByStatus:       byStatus.Buckets(),
		Collected:      paid,
		Outstanding:    total.Sum.Sub(paid),
		CollectionRate: Rate(paid, total.Sum),
	}
}

func chalanSummary(chalans []accounts.FeeChalan) StatusSummary {
	byStatus := ChalanDataset.GroupBy(chalans, func(c accounts.FeeChalan) string { return string(c.Status) }, Unknown)
	byStatus.Ensure(string(accounts.ChalanPending), string(accounts.ChalanPaid), string(accounts.ChalanOverdue))
	total := ChalanDataset.Total(chalans)
	collected := Sum(chalans, func(c accounts.FeeChalan) decimal.Decimal {
		if c.Payment == nil {
			return decimal.Zero
		}
		return Amount(c.Payment.AmountReceived)
	})
	outstanding := Sum(chalans, func(c accounts.FeeChalan) decimal.Decimal {
		if c.Status == accounts.ChalanPaid {
			return decimal.Zero
		}
		return Amount(c.Fees.TotalAmount)
	})
	return StatusSummary{
		Total:          total,
		ByStatus:       byStatus.Buckets(),
		Collected:      collected,
		Outstanding:    outstanding,
		CollectionRate: Rate(collected, total.Sum),
	}
}

// Summary implements Summarizer.
func (r *AccountsReport) Summary() []Metric {
	var m metrics
	m.dec("Total Income", r.TotalIncome)
	m.dec("Total Expense", r.TotalExpense)
	m.dec("Net Profit", r.NetProfit)
	m.dec("Profit Margin %", r.ProfitMargin)
	m.int("Transactions", r.TransactionCount)
	m.int("Invoices", r.Invoices.Total.Count)
	m.buckets("Invoices", r.Invoices.ByStatus)
	m.dec("Invoice Collection Rate %", r.Invoices.CollectionRate)
	m.int("Chalans", r.Chalans.Total.Count)
	m.buckets("Chalans", r.Chalans.ByStatus)
	m.dec("Chalan Amount Collected", r.Chalans.Collected)
	m.dec("Chalan Amount Outstanding", r.Chalans.Outstanding)
	m.dec("Chalan Collection Rate %", r.Chalans.CollectionRate)
	return m
}
