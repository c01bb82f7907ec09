package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/schoolerp/backend/internal/application/collection"
	"github.com/schoolerp/backend/internal/domain/accounts"
	"github.com/schoolerp/backend/internal/domain/cafeteria"
	"github.com/schoolerp/backend/internal/domain/library"
	"github.com/schoolerp/backend/internal/domain/report"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/cache"
	"github.com/schoolerp/backend/internal/infrastructure/export"
	"github.com/schoolerp/backend/internal/infrastructure/telemetry"
	"github.com/schoolerp/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var today = time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T, xlsx bool) (*Service, *testutil.MemoryStore, *collection.Registry, *cache.InMemoryReportCache) {
	t.Helper()
	store := testutil.NewMemoryStore()
	store.Seed(school.CollectionUsers,
		shared.Document{"id": "s1", "name": "Ayesha Khan", "role": "student"},
		shared.Document{"id": "t1", "name": "Mr. Rahman", "role": "teacher"},
	)
	store.Seed(accounts.CollectionTransactions,
		shared.Document{"type": "income", "category": "Fees", "amount": 1500, "date": "2024-03-05", "description": "March, tuition"},
		shared.Document{"type": "expense", "category": "Utilities", "amount": 400, "date": "2024-03-09"},
		shared.Document{"type": "income", "category": "Fees", "amount": 900, "date": "2024-02-11"},
	)
	store.Seed(accounts.CollectionInvoices, shared.Document{"studentId": "s1", "amount": 700, "status": "unpaid", "dueDate": "2024-03-20"})

	caches := collection.NewRegistry(store, collection.ModuleSources(), nil)
	rc := cache.NewInMemoryReportCache()
	svc := NewService(caches, rc, Config{
		TTL:         time.Minute,
		KeyPrefix:   "test:",
		XLSXEnabled: xlsx,
		Now:         func() time.Time { return today },
	})
	return svc, store, caches, rc
}

func TestService_ReportIsCachedPerGeneration(t *testing.T) {
	svc, store, caches, rc := setup(t, false)
	ctx := context.Background()
	r, err := report.NewDateRange("2024-03-01", "2024-03-31")
	require.NoError(t, err)

	data, err := svc.Report(ctx, collection.ModuleAccounts, r)
	require.NoError(t, err)

	var got struct {
		TotalIncome      string `json:"totalIncome"`
		TotalExpense     string `json:"totalExpense"`
		NetProfit        string `json:"netProfit"`
		TransactionCount int    `json:"transactionCount"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "1500", got.TotalIncome)
	assert.Equal(t, "400", got.TotalExpense)
	assert.Equal(t, "1100", got.NetProfit)
	assert.Equal(t, 2, got.TransactionCount)
	assert.Equal(t, 1, rc.Len())

	calls := store.Calls(accounts.CollectionTransactions)
	again, err := svc.Report(ctx, collection.ModuleAccounts, r)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
	assert.Equal(t, calls, store.Calls(accounts.CollectionTransactions))

	acc, _ := caches.Module(collection.ModuleAccounts)
	acc.Remove(accounts.CollectionTransactions, acc.Snapshot(accounts.CollectionTransactions)[0].ID())
	changed, err := svc.Report(ctx, collection.ModuleAccounts, r)
	require.NoError(t, err)
	assert.NotEqual(t, string(data), string(changed))
	assert.Equal(t, 2, rc.Len())
}

func TestService_SharedReportCacheAcrossInstances(t *testing.T) {
	svc, store, _, rc := setup(t, false)
	ctx := context.Background()

	data, err := svc.Report(ctx, collection.ModuleAccounts, report.DateRange{})
	require.NoError(t, err)
	require.Equal(t, 1, rc.Len())

	store.Seed(accounts.CollectionTransactions, shared.Document{"type": "income", "category": "Fees", "amount": 500, "date": "2024-03-25"})

	// a second replica with its own registry writing to the same cache
	other := NewService(collection.NewRegistry(store, collection.ModuleSources(), nil), rc, Config{
		TTL:       time.Minute,
		KeyPrefix: "test:",
		Now:       func() time.Time { return today },
	})
	fresh, err := other.Report(ctx, collection.ModuleAccounts, report.DateRange{})
	require.NoError(t, err)

	var before, after struct {
		TotalIncome string `json:"totalIncome"`
	}
	require.NoError(t, json.Unmarshal(data, &before))
	require.NoError(t, json.Unmarshal(fresh, &after))
	assert.Equal(t, "2400", before.TotalIncome)
	assert.Equal(t, "2900", after.TotalIncome)
	assert.Equal(t, 2, rc.Len())
}

func TestService_ExportedTransactionsSumToReportTotals(t *testing.T) {
	svc, store, caches, _ := setup(t, false)
	ctx := context.Background()
	r, err := report.NewDateRange("2024-03-01", "2024-03-31")
	require.NoError(t, err)

	file, err := svc.Export(ctx, collection.ModuleAccounts, KindTransactions, "csv", r)
	require.NoError(t, err)
	sheet, err := export.ParseCSV(bytes.NewReader(file.Data))
	require.NoError(t, err)

	income, expense := decimal.Zero, decimal.Zero
	for _, row := range sheet.Rows {
		amount, err := decimal.NewFromString(row.Get("Amount"))
		require.NoError(t, err, "line %d", row.Line)
		switch row.Get("Type") {
		case string(accounts.TransactionIncome):
			income = income.Add(amount)
		case string(accounts.TransactionExpense):
			expense = expense.Add(amount)
		}
	}

	acc, _ := caches.Module(collection.ModuleAccounts)
	txns, err := collection.View[accounts.Transaction](acc, accounts.CollectionTransactions)
	require.NoError(t, err)
	want := report.BuildAccounts(report.AccountsData{Transactions: txns}, r)

	assert.Len(t, sheet.Rows, want.TransactionCount)
	assert.Equal(t, file.Rows, want.TransactionCount)
	assert.True(t, want.TotalIncome.Equal(income), "income %s != %s", income, want.TotalIncome)
	assert.True(t, want.TotalExpense.Equal(expense), "expense %s != %s", expense, want.TotalExpense)
	assert.Positive(t, store.Calls(accounts.CollectionTransactions))
}

func TestService_ReportUnknownModule(t *testing.T) {
	svc, _, _, _ := setup(t, false)
	_, err := svc.Report(context.Background(), "payroll", report.DateRange{})
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestService_ReportLoadFailure(t *testing.T) {
	svc, store, _, _ := setup(t, false)
	store.FailOn(library.CollectionBooks, errors.New("connection reset"))

	_, err := svc.Report(context.Background(), collection.ModuleLibrary, report.DateRange{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrLoadFailed))
}

func TestService_ExportCSV(t *testing.T) {
	svc, _, _, _ := setup(t, false)
	ctx := context.Background()

	file, err := svc.Export(ctx, collection.ModuleAccounts, KindTransactions, "csv", report.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, "accounts_transactions_2024-04-01.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, 3, file.Rows)

	sheet, err := export.ParseCSV(bytes.NewReader(file.Data))
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Type", "Category", "Amount", "Description"}, sheet.Headers)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "March, tuition", sheet.Rows[0].Get("Description"))
	assert.Equal(t, "1500", sheet.Rows[0].Get("Amount"))
	assert.True(t, strings.Contains(string(file.Data), `"March, tuition"`))

	file, err = svc.Export(ctx, collection.ModuleAccounts, KindInvoices, "", report.DateRange{})
	require.NoError(t, err)
	sheet, err = export.ParseCSV(bytes.NewReader(file.Data))
	require.NoError(t, err)
	assert.Equal(t, "Ayesha Khan", sheet.Rows[0].Get("Student"))
}

func TestService_ExportSummary(t *testing.T) {
	svc, _, _, _ := setup(t, false)

	file, err := svc.Export(context.Background(), collection.ModuleAccounts, KindSummary, "csv", report.DateRange{})
	require.NoError(t, err)
	sheet, err := export.ParseCSV(bytes.NewReader(file.Data))
	require.NoError(t, err)
	assert.Equal(t, []string{"Metric", "Value"}, sheet.Headers)
	assert.Equal(t, "Total Income", sheet.Rows[0].Get("Metric"))
	assert.Equal(t, "2400", sheet.Rows[0].Get("Value"))
}

func TestService_ExportXLSX(t *testing.T) {
	svc, store, _, _ := setup(t, true)
	store.Seed(cafeteria.CollectionInventory, shared.Document{"name": "Rice", "unit": "kg", "quantity": 4, "minQuantity": 5, "costPerUnit": 2.5})

	file, err := svc.Export(context.Background(), collection.ModuleCafeteria, KindInventory, "xlsx", report.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, "cafeteria_inventory_2024-04-01.xlsx", file.Filename)
	assert.Equal(t, export.MIMEXLSX, file.ContentType)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(wb.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Rice", rows[1][0])
	assert.Equal(t, "true", rows[1][5])
}

func TestService_ExportRejects(t *testing.T) {
	svc, _, _, _ := setup(t, false)
	ctx := context.Background()

	_, err := svc.Export(ctx, collection.ModuleAccounts, "payslips", "csv", report.DateRange{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	assert.Contains(t, err.Error(), "chalans, invoices, summary, transactions")

	_, err = svc.Export(ctx, collection.ModuleAccounts, KindSummary, "xlsx", report.DateRange{})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = svc.Export(ctx, collection.ModuleAccounts, KindSummary, "pdf", report.DateRange{})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestService_ReloadClearsModuleReports(t *testing.T) {
	svc, store, _, rc := setup(t, false)
	ctx := context.Background()

	_, err := svc.Report(ctx, collection.ModuleAccounts, report.DateRange{})
	require.NoError(t, err)
	_, err = svc.Report(ctx, collection.ModuleLibrary, report.DateRange{})
	require.NoError(t, err)
	require.Equal(t, 2, rc.Len())

	calls := store.Calls(accounts.CollectionTransactions)
	require.NoError(t, svc.Reload(ctx, collection.ModuleAccounts))
	assert.Greater(t, store.Calls(accounts.CollectionTransactions), calls)
	assert.Equal(t, 1, rc.Len())
}

func TestKinds(t *testing.T) {
	assert.Equal(t, []string{"books", "issues", "summary"}, Kinds(collection.ModuleLibrary))
	assert.Nil(t, Kinds("payroll"))
}

func TestService_ReportMetrics(t *testing.T) {
	svc, _, _, _ := setup(t, false)
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	rec, err := telemetry.NewRecorder(mp)
	require.NoError(t, err)
	svc.cfg.Metrics = rec

	ctx := context.Background()
	for range 2 {
		_, err := svc.Report(ctx, collection.ModuleLibrary, report.DateRange{})
		require.NoError(t, err)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	reads := map[bool]int64{}
	builds := uint64(0)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		switch data := m.Data.(type) {
		case metricdata.Sum[int64]:
			for _, dp := range data.DataPoints {
				hit, _ := dp.Attributes.Value(telemetry.AttrCacheHit)
				reads[hit.AsBool()] += dp.Value
			}
		case metricdata.Histogram[float64]:
			for _, dp := range data.DataPoints {
				builds += dp.Count
			}
		}
	}
	assert.Equal(t, map[bool]int64{false: 1, true: 1}, reads)
	assert.Equal(t, uint64(1), builds)
}
