package handlers_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/id"
	"retailcore/internal/domain/stock"
	"retailcore/internal/infrastructure/http/v1/handlers"
	"retailcore/internal/infrastructure/http/v1/middleware"
)

// fakeLedger serves canned entries with offset pagination.
type fakeLedger struct {
	entries []*stock.LedgerEntry
}

func (f *fakeLedger) Append(ctx context.Context, e *stock.LedgerEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeLedger) List(ctx context.Context, filter stock.LedgerFilter) ([]*stock.LedgerEntry, int64, error) {
	var matched []*stock.LedgerEntry
	for _, e := range f.entries {
		if filter.Type != nil && e.Type != *filter.Type {
			continue
		}
		if filter.ProductID != nil && (e.ProductID == nil || *e.ProductID != *filter.ProductID) {
			continue
		}
		matched = append(matched, e)
	}
	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func newLedgerRouter(ledger *fakeLedger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())

	svc := stock.NewService(nil, ledger, nil, nil)
	handlers.NewInventoryHandler(handlers.NewBaseHandler(), svc).RegisterRoutes(r.Group(""))
	return r
}

func ledgerFixture(n int) *fakeLedger {
	ledger := &fakeLedger{}
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		pid := id.New()
		ref := "SAL-2026-00001"
		ledger.entries = append(ledger.entries, &stock.LedgerEntry{
			ID:           id.New(),
			ProductID:    &pid,
			Type:         stock.EntryOut,
			Quantity:     -2,
			Reference:    &ref,
			Reason:       "Sale SAL-2026-00001",
			BalanceAfter: int64(100 - 2*i),
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		})
	}
	return ledger
}

func TestTransactions_ListMeta(t *testing.T) {
	r := newLedgerRouter(ledgerFixture(7))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/inventory/transactions?limit=3&offset=3", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []json.RawMessage `json:"items"`
		Meta  struct {
			TotalCount int64 `json:"totalCount"`
			Limit      int   `json:"limit"`
			Offset     int   `json:"offset"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 3)
	assert.Equal(t, int64(7), resp.Meta.TotalCount)
	assert.Equal(t, 3, resp.Meta.Offset)
}

func TestExport_GzipCSV(t *testing.T) {
	ledger := ledgerFixture(5)
	r := newLedgerRouter(ledger)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/inventory/transactions/export", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/gzip", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv.gz")

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	records, err := csv.NewReader(gz).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 6)
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, "balance_after", records[0][7])

	first := records[1]
	assert.Equal(t, ledger.entries[0].ID.String(), first[0])
	assert.Equal(t, "OUT", first[2])
	assert.Equal(t, "-2", first[3])
	assert.Equal(t, "SAL-2026-00001", first[4])
	assert.Equal(t, "100", first[7])
}

func TestExport_InvalidTypeRejected(t *testing.T) {
	r := newLedgerRouter(ledgerFixture(1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/inventory/transactions/export?type=SIDEWAYS", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
