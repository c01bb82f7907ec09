package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	accountsapp "github.com/schoolerp/backend/internal/application/accounts"
	"github.com/schoolerp/backend/internal/application/collection"
	printingapp "github.com/schoolerp/backend/internal/application/printing"
	"github.com/schoolerp/backend/internal/application/records"
	reportapp "github.com/schoolerp/backend/internal/application/report"
	"github.com/schoolerp/backend/internal/application/status"
	"github.com/schoolerp/backend/internal/domain/accounts"
	"github.com/schoolerp/backend/internal/domain/library"
	"github.com/schoolerp/backend/internal/domain/printing"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/cache"
	infra "github.com/schoolerp/backend/internal/infrastructure/printing"
	"github.com/schoolerp/backend/internal/infrastructure/storage"
	"github.com/schoolerp/backend/internal/interfaces/http/dto"
	"github.com/schoolerp/backend/internal/interfaces/http/middleware"
	"github.com/schoolerp/backend/internal/interfaces/http/router"
	"github.com/schoolerp/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clock = testutil.FixedClock(time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC))

type fixture struct {
	api    *testutil.API
	store  *testutil.MemoryStore
	caches *collection.Registry
	bulk   *printingapp.BulkGenerator
	sink   *storage.MemoryStorage
}

func setup(t *testing.T) *fixture {
	t.Helper()
	middleware.SetupValidator()

	store := testutil.NewMemoryStore()
	caches := collection.NewRegistry(store, collection.ModuleSources(), nil)

	html, err := infra.NewHTMLRenderer(infra.HTMLConfig{})
	require.NoError(t, err)
	sink := storage.NewMemoryStorage(clock)
	printer := printingapp.NewService(store, infra.NewRegistry(html, nil), sink, printingapp.Config{
		Profile: school.Profile{Name: "Green Valley School", Currency: "Rs."},
		Now:     clock,
	})
	bulk := printingapp.NewBulkGenerator(0, nil)
	bulk.SetWait(func(time.Duration) {})

	acc := accountsapp.NewService(store, caches, printer, bulk, nil)
	acc.SetClock(clock)
	st := status.NewService(store, caches, nil)
	st.SetClock(clock)
	reports := reportapp.NewService(caches, cache.NewInMemoryReportCache(), reportapp.Config{
		TTL:         time.Minute,
		KeyPrefix:   "test:",
		XLSXEnabled: true,
		Now:         clock,
	})

	engine := gin.New()
	engine.Use(middleware.RequestID())
	health := NewHealthHandler("memory", func(context.Context) error { return nil }, []string{"html"})
	engine.GET("/health", health.Health)

	r := router.NewRouter(engine)
	r.Register(
		NewRecordHandler(records.NewService(store, caches, nil)).Routes(),
		NewAccountsHandler(acc).Routes(),
		NewReportHandler(reports).Routes(),
		NewPrintHandler(printer).Routes(),
	)
	for _, g := range NewStatusHandler(st).Routes() {
		r.Register(g)
	}
	r.Setup()

	return &fixture{api: testutil.NewAPI(t, engine), store: store, caches: caches, bulk: bulk, sink: sink}
}

func seedClass(store *testutil.MemoryStore) {
	store.Seed(school.CollectionUsers,
		shared.Document{"id": "s1", "name": "Ayesha Khan", "role": "student", "classId": "c7"},
		shared.Document{"id": "s2", "name": "Bilal Ahmed", "role": "student", "classId": "c7"},
	)
	store.Seed(accounts.CollectionClassFeeAmounts, shared.Document{
		"classId": "c7", "monthlyTuition": 1200, "examinationFee": 300,
	})
}

// =============================================================================
// Records
// =============================================================================

func TestRecordHandler(t *testing.T) {
	f := setup(t)
	f.store.Seed(library.CollectionBooks,
		shared.Document{"id": "b1", "title": "Go in Action", "category": "cs", "copies": 2},
		shared.Document{"id": "b2", "title": "Poems", "category": "lit", "copies": 1},
	)

	t.Run("list with filter", func(t *testing.T) {
		w := f.api.Do(http.MethodGet, "/api/v1/collections/books?field=category&value=cs", nil)
		require.Equal(t, http.StatusOK, w.Code)
		env := testutil.Decode(t, w)
		require.NotNil(t, env.Meta)
		assert.Equal(t, 1, env.Meta.Total)

		docs := testutil.DecodeData[[]map[string]any](t, w)
		assert.Equal(t, "b1", docs[0]["id"])
	})

	t.Run("create validates against the entity", func(t *testing.T) {
		w := f.api.Do(http.MethodPost, "/api/v1/collections/books", map[string]any{"author": "Anon", "copies": -1})
		env := testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		fields := map[string]bool{}
		for _, d := range env.Error.Details {
			fields[d.Field] = true
		}
		assert.True(t, fields["title"])
		assert.True(t, fields["copies"])
		assert.Equal(t, 2, f.store.Count(library.CollectionBooks))
	})

	t.Run("create", func(t *testing.T) {
		w := f.api.Do(http.MethodPost, "/api/v1/collections/books", map[string]any{"title": "Algorithms", "copies": 3})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		doc := testutil.DecodeData[map[string]any](t, w)
		assert.NotEmpty(t, doc["id"])
		assert.Equal(t, 3, f.store.Count(library.CollectionBooks))
	})

	t.Run("update merges", func(t *testing.T) {
		w := f.api.Do(http.MethodPut, "/api/v1/collections/books/b2", map[string]any{"copies": 4})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		doc, _ := f.store.Get(library.CollectionBooks, "b2")
		assert.Equal(t, "Poems", doc["title"])
		assert.EqualValues(t, 4, doc["copies"])
	})

	t.Run("delete then get", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, f.api.Do(http.MethodDelete, "/api/v1/collections/books/b2", nil).Code)
		testutil.AssertErrorResponse(t, f.api.Do(http.MethodGet, "/api/v1/collections/books/b2", nil), http.StatusNotFound, dto.ErrCodeNotFound)
	})

	t.Run("unknown collection", func(t *testing.T) {
		testutil.AssertErrorResponse(t, f.api.Do(http.MethodGet, "/api/v1/collections/secrets", nil), http.StatusNotFound, dto.ErrCodeNotFound)
	})

	t.Run("unsafe filter field", func(t *testing.T) {
		w := f.api.Do(http.MethodGet, "/api/v1/collections/books?field=a.b&value=1", nil)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeInvalidInput)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := f.api.Do(http.MethodPost, "/api/v1/collections/books", strings.NewReader("{"))
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeInvalidJSON)
	})

	t.Run("store failure", func(t *testing.T) {
		f.store.FailOn(library.CollectionBooks, errors.New("connection reset"))
		defer f.store.FailOn(library.CollectionBooks, nil)
		w := f.api.Do(http.MethodGet, "/api/v1/collections/books", nil)
		env := testutil.AssertErrorResponse(t, w, http.StatusServiceUnavailable, dto.ErrCodeStoreFailure)
		assert.NotContains(t, env.Error.Message, "connection reset")
	})
}

// =============================================================================
// Accounts
// =============================================================================

func TestAccountsHandler_GenerateChalan(t *testing.T) {
	f := setup(t)
	seedClass(f.store)

	w := f.api.Do(http.MethodPost, "/api/v1/accounts/chalans/generate", map[string]any{
		"studentId": "s1",
		"dueDate":   "2024-04-10",
		"overrides": map[string]any{"sportsFee": 150},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	chalan := testutil.DecodeData[accounts.FeeChalan](t, w)
	assert.True(t, strings.HasPrefix(chalan.ChalanNumber, "CH-202403-S1-"))
	assert.InDelta(t, 1650, chalan.Fees.TotalAmount, 0.001)
	assert.Equal(t, 1, f.store.Count(accounts.CollectionChalans))

	t.Run("missing fields", func(t *testing.T) {
		w := f.api.Do(http.MethodPost, "/api/v1/accounts/chalans/generate", map[string]any{})
		env := testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		assert.Len(t, env.Error.Details, 2)
	})

	t.Run("unknown student", func(t *testing.T) {
		w := f.api.Do(http.MethodPost, "/api/v1/accounts/chalans/generate", map[string]any{"studentId": "nobody", "dueDate": "2024-04-10"})
		testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	})
}

func TestAccountsHandler_BulkGenerate(t *testing.T) {
	f := setup(t)
	seedClass(f.store)

	w := f.api.Do(http.MethodPost, "/api/v1/accounts/chalans/bulk", map[string]any{
		"classId": "c7",
		"dueDate": "2024-04-10",
		"format":  "html",
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	id := testutil.DecodeData[printing.BulkJobView](t, w).ID
	require.NotEmpty(t, id)

	f.bulk.Wait()
	polled := testutil.DecodeData[printing.BulkJobView](t, f.api.Do(http.MethodGet, "/api/v1/accounts/chalans/bulk/"+id, nil))
	assert.Equal(t, printing.Progress{Total: 2, Done: 2, SuccessCount: 2}, polled.Progress)
	assert.Len(t, f.sink.Keys(), 2)

	t.Run("unknown job", func(t *testing.T) {
		testutil.AssertErrorResponse(t, f.api.Do(http.MethodGet, "/api/v1/accounts/chalans/bulk/missing", nil), http.StatusNotFound, dto.ErrCodeNotFound)
	})

	t.Run("failed items report multi-status", func(t *testing.T) {
		// no PDF renderer is configured, so every archive fails
		w := f.api.Do(http.MethodPost, "/api/v1/accounts/chalans/bulk", map[string]any{"classId": "c7", "dueDate": "2024-05-10", "format": "pdf"})
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
		id := testutil.DecodeData[printing.BulkJobView](t, w).ID
		f.bulk.Wait()

		w = f.api.Do(http.MethodGet, "/api/v1/accounts/chalans/bulk/"+id, nil)
		assert.Equal(t, http.StatusMultiStatus, w.Code)
		job := testutil.DecodeData[printing.BulkJobView](t, w)
		assert.Equal(t, printing.JobStatusPartial, job.Status)
		assert.Equal(t, 2, job.Progress.ErrorCount)
		assert.Len(t, job.Errors, 2)
	})

	t.Run("bad format", func(t *testing.T) {
		w := f.api.Do(http.MethodPost, "/api/v1/accounts/chalans/bulk", map[string]any{"classId": "c7", "dueDate": "2024-04-10", "format": "docx"})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})
}

func TestAccountsHandler_Payments(t *testing.T) {
	f := setup(t)
	f.store.Seed(accounts.CollectionChalans,
		shared.Document{"id": "ch1", "studentId": "s1", "status": "pending", "dueDate": "2024-03-10", "totalAmount": 900},
		shared.Document{"id": "ch2", "studentId": "s2", "status": "pending", "dueDate": "2024-04-10", "totalAmount": 900},
	)
	f.store.Seed(accounts.CollectionInvoices, shared.Document{"id": "inv1", "studentId": "s1", "amount": 500, "status": "unpaid"})

	t.Run("pay chalan", func(t *testing.T) {
		w := f.api.Do(http.MethodPost, "/api/v1/accounts/chalans/ch2/pay", map[string]any{
			"amountReceived": 900, "paymentMethod": "cash", "paidDate": "2024-03-20",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		doc, _ := f.store.Get(accounts.CollectionChalans, "ch2")
		assert.Equal(t, "paid", doc["status"])
	})

	t.Run("pay chalan rejects bad payment", func(t *testing.T) {
		w := f.api.Do(http.MethodPost, "/api/v1/accounts/chalans/ch1/pay", map[string]any{"amountReceived": 900})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("pay invoice", func(t *testing.T) {
		require.Equal(t, http.StatusOK, f.api.Do(http.MethodPost, "/api/v1/accounts/invoices/inv1/pay", nil).Code)
		doc, _ := f.store.Get(accounts.CollectionInvoices, "inv1")
		assert.Equal(t, "paid", doc["status"])
	})

	t.Run("mark overdue", func(t *testing.T) {
		res := testutil.DecodeData[accountsapp.MarkOverdueResponse](t, f.api.Do(http.MethodPost, "/api/v1/accounts/chalans/mark-overdue", nil))
		assert.Equal(t, []string{"ch1"}, res.Updated)
	})
}

func TestAccountsHandler_ClassFees(t *testing.T) {
	f := setup(t)

	testutil.AssertErrorResponse(t, f.api.Do(http.MethodGet, "/api/v1/accounts/class-fees/c9", nil), http.StatusNotFound, dto.ErrCodeNotFound)

	w := f.api.Do(http.MethodPut, "/api/v1/accounts/class-fees/c9", map[string]any{"monthlyTuition": 1500})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	fees := testutil.DecodeData[accounts.ClassFeeAmount](t, f.api.Do(http.MethodGet, "/api/v1/accounts/class-fees/c9", nil))
	require.NotNil(t, fees.MonthlyTuition)
	assert.InDelta(t, 1500, *fees.MonthlyTuition, 0.001)

	w = f.api.Do(http.MethodPut, "/api/v1/accounts/class-fees/c9", map[string]any{"monthlyTuition": -5})
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestAccountsHandler_ImportTransactions(t *testing.T) {
	f := setup(t)
	csv := "type,category,amount,date,description\n" +
		"income,fees,1200,2024-03-01,\"March, tuition\"\n" +
		"gift,fees,10,2024-03-02,bad type\n"

	w := f.api.Upload("/api/v1/accounts/transactions/import", "file", "tx.csv", []byte(csv))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := testutil.DecodeData[accountsapp.ImportResult](t, w)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Line)

	t.Run("file required", func(t *testing.T) {
		w := f.api.Upload("/api/v1/accounts/transactions/import", "upload", "tx.csv", []byte(csv))
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)
	})
}

// =============================================================================
// Status, reports, print and health
// =============================================================================

func TestStatusHandler(t *testing.T) {
	f := setup(t)
	f.store.Seed(library.CollectionIssues, shared.Document{"id": "i1", "bookId": "b1", "studentId": "s1", "status": "issued"})

	w := f.api.Do(http.MethodPost, "/api/v1/library/issues/i1/return", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := testutil.DecodeData[status.Result](t, w)
	assert.Equal(t, library.CollectionIssues, res.Collection)
	assert.Equal(t, "returned", res.Fields["status"])

	testutil.AssertErrorResponse(t, f.api.Do(http.MethodPost, "/api/v1/cafeteria/orders/none/pay", nil), http.StatusNotFound, dto.ErrCodeNotFound)
}

func TestReportHandler(t *testing.T) {
	f := setup(t)
	f.store.Seed(accounts.CollectionTransactions,
		shared.Document{"type": "income", "category": "fees", "amount": 1000, "date": "2024-03-01", "description": "March"},
		shared.Document{"type": "expense", "category": "salary", "amount": 400, "date": "2024-03-05", "description": "Staff"},
	)

	t.Run("report", func(t *testing.T) {
		w := f.api.Do(http.MethodGet, "/api/v1/reports/accounts?start_date=2024-03-01&end_date=2024-03-31", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.True(t, testutil.Decode(t, w).Success)
	})

	t.Run("bad dates", func(t *testing.T) {
		w := f.api.Do(http.MethodGet, "/api/v1/reports/accounts?start_date=03/01/2024", nil)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		w = f.api.Do(http.MethodGet, "/api/v1/reports/accounts?start_date=2024-04-01&end_date=2024-03-01", nil)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeInvalidInput)
	})

	t.Run("unknown module", func(t *testing.T) {
		testutil.AssertErrorResponse(t, f.api.Do(http.MethodGet, "/api/v1/reports/payroll", nil), http.StatusNotFound, dto.ErrCodeNotFound)
	})

	t.Run("export csv attachment", func(t *testing.T) {
		w := f.api.Do(http.MethodGet, "/api/v1/reports/accounts/export/transactions", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename=accounts_transactions_2024-03-20.csv`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "2", w.Header().Get("X-Export-Rows"))
		assert.True(t, strings.HasPrefix(w.Body.String(), "Date,Type,Category,Amount,Description\n"))
	})

	t.Run("export rejects format", func(t *testing.T) {
		w := f.api.Do(http.MethodGet, "/api/v1/reports/accounts/export/transactions?format=pdf", nil)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("reload", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, f.api.Do(http.MethodPost, "/api/v1/reports/accounts/reload", nil).Code)
	})

	t.Run("load failure", func(t *testing.T) {
		f.store.FailOn(library.CollectionBooks, errors.New("timeout"))
		w := f.api.Do(http.MethodGet, "/api/v1/reports/library", nil)
		testutil.AssertErrorResponse(t, w, http.StatusServiceUnavailable, dto.ErrCodeLoadFailed)
	})
}

func TestPrintHandler(t *testing.T) {
	f := setup(t)
	f.store.Seed(school.CollectionUsers, shared.Document{"id": "s1", "name": "Ayesha Khan", "role": "student"})
	f.store.Seed(accounts.CollectionInvoices, shared.Document{"id": "inv1", "studentId": "s1", "amount": 2500, "status": "unpaid", "description": "Lab fee"})

	t.Run("inline html", func(t *testing.T) {
		w := f.api.Do(http.MethodGet, "/api/v1/print/invoice/inv1", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "inline"))
		assert.Contains(t, w.Body.String(), "Green Valley School")
		assert.Contains(t, w.Body.String(), "Ayesha Khan")
	})

	t.Run("pdf renderer unavailable", func(t *testing.T) {
		w := f.api.Do(http.MethodGet, "/api/v1/print/invoice/inv1?format=pdf", nil)
		testutil.AssertErrorResponse(t, w, http.StatusServiceUnavailable, dto.ErrCodeRendererUnavailable)
		assert.Empty(t, f.sink.Keys())
	})

	t.Run("unknown kind", func(t *testing.T) {
		testutil.AssertErrorResponse(t, f.api.Do(http.MethodGet, "/api/v1/print/report-card/inv1", nil), http.StatusBadRequest, dto.ErrCodeInvalidInput)
	})

	t.Run("missing record", func(t *testing.T) {
		testutil.AssertErrorResponse(t, f.api.Do(http.MethodGet, "/api/v1/print/invoice/nope", nil), http.StatusNotFound, dto.ErrCodeNotFound)
	})

	t.Run("archive", func(t *testing.T) {
		w := f.api.Do(http.MethodPost, "/api/v1/print/invoice/inv1/archive", nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		res := testutil.DecodeData[printingapp.ArchiveResponse](t, w)
		assert.True(t, strings.HasSuffix(res.Key, "inv1.html"))
		assert.Equal(t, []string{res.Key}, f.sink.Keys())
	})
}

func TestHealthHandler(t *testing.T) {
	engine := gin.New()
	engine.GET("/up", NewHealthHandler("postgres", func(context.Context) error { return nil }, nil).Health)
	engine.GET("/down", NewHealthHandler("postgres", func(context.Context) error { return errors.New("refused") }, nil).Health)
	api := testutil.NewAPI(t, engine)

	up := testutil.DecodeData[dto.HealthResponse](t, api.Do(http.MethodGet, "/up", nil))
	assert.Equal(t, "ok", up.Status)
	assert.Equal(t, "postgres", up.Store)

	w := api.Do(http.MethodGet, "/down", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"unavailable"`)
}

func TestHandleError_RequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	h := &BaseHandler{}
	engine.GET("/fail", func(c *gin.Context) { h.HandleError(c, errors.New("disk on fire")) })

	req := testutil.NewAPI(t, engine)
	w := req.Do(http.MethodGet, "/fail", nil)
	env := testutil.AssertErrorResponse(t, w, http.StatusInternalServerError, dto.ErrCodeInternal)
	assert.Equal(t, w.Header().Get(middleware.RequestIDKey), env.Error.RequestID)
	assert.NotContains(t, w.Body.String(), "disk on fire")
}
