package stock_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain"
	"retailcore/internal/domain/catalog/product"
	"retailcore/internal/domain/stock"
)

// fakeTxManager runs the function directly. The repositories below mutate
// in place, which matches these tests: every failure path returns before
// the first write.
type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[id.ID]*product.Product
}

func newFakeProductRepo(items ...*product.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[id.ID]*product.Product)}
	for _, p := range items {
		cp := *p
		r.products[p.ID] = &cp
	}
	return r
}

func (r *fakeProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("product", sku)
}

func (r *fakeProductRepo) GetForUpdate(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.GetByID(ctx, productID)
}

func (r *fakeProductRepo) Update(ctx context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.products[p.ID]
	if !ok {
		return apperror.NewNotFound("product", p.ID.String())
	}
	cp := *p
	cp.Quantity = cur.Quantity
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) SetActive(ctx context.Context, productID id.ID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID.String())
	}
	p.Active = active
	return nil
}

func (r *fakeProductRepo) UpdateStock(ctx context.Context, productID id.ID, quantity int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID.String())
	}
	p.Quantity = quantity
	return nil
}

func (r *fakeProductRepo) UpdateStockAndCost(ctx context.Context, productID id.ID, quantity int64, cost types.Money) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID.String())
	}
	p.Quantity = quantity
	p.Cost = cost
	return nil
}

func (r *fakeProductRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*product.Product
	for _, p := range r.products {
		cp := *p
		items = append(items, &cp)
	}
	return domain.ListResult[*product.Product]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *fakeProductRepo) FindLowStock(ctx context.Context) ([]*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*product.Product
	for _, p := range r.products {
		if p.IsLowStock() {
			cp := *p
			items = append(items, &cp)
		}
	}
	return items, nil
}

func (r *fakeProductRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

type fakeLedgerRepo struct {
	mu      sync.Mutex
	entries []*stock.LedgerEntry
}

func (r *fakeLedgerRepo) Append(ctx context.Context, entry *stock.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *fakeLedgerRepo) List(ctx context.Context, filter stock.LedgerFilter) ([]*stock.LedgerEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*stock.LedgerEntry
	for _, e := range r.entries {
		if filter.ProductID != nil && (e.ProductID == nil || *e.ProductID != *filter.ProductID) {
			continue
		}
		if filter.Type != nil && e.Type != *filter.Type {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

type fakeDamageRepo struct {
	mu      sync.Mutex
	records []*stock.DamagedRecord
}

func (r *fakeDamageRepo) Create(ctx context.Context, rec *stock.DamagedRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records = append(r.records, &cp)
	return nil
}

func (r *fakeDamageRepo) List(ctx context.Context, filter stock.DamageFilter) ([]*stock.DamagedRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*stock.DamagedRecord, len(r.records))
	copy(out, r.records)
	return out, int64(len(out)), nil
}

func newService(items ...*product.Product) (*stock.Service, *fakeProductRepo, *fakeLedgerRepo, *fakeDamageRepo) {
	products := newFakeProductRepo(items...)
	ledger := &fakeLedgerRepo{}
	damage := &fakeDamageRepo{}
	svc := stock.NewService(products, ledger, damage, fakeTxManager{})
	return svc, products, ledger, damage
}

func testProduct(qty int64) *product.Product {
	p := product.New("SKU-1", "Widget", types.MustMoney("9.99"), types.MustMoney("4.00"))
	p.Quantity = qty
	return p
}

func TestAdjust_ClampsAtZero(t *testing.T) {
	p := testProduct(5)
	svc, products, ledger, _ := newService(p)

	entry, err := svc.Adjust(context.Background(), p.ID, 20, "cycle count")
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}

	if entry.Quantity != -20 {
		t.Errorf("logged delta = %d, want -20 (requested removal)", entry.Quantity)
	}
	if entry.BalanceAfter != 0 {
		t.Errorf("balance_after = %d, want 0", entry.BalanceAfter)
	}
	got, _ := products.GetByID(context.Background(), p.ID)
	if got.Quantity != 0 {
		t.Errorf("quantity = %d, want 0 (clamped, never negative)", got.Quantity)
	}
	if len(ledger.entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(ledger.entries))
	}
	if ledger.entries[0].Type != stock.EntryAdjust {
		t.Errorf("entry type = %s, want ADJUST", ledger.entries[0].Type)
	}
}

func TestAdjust_DefaultReason(t *testing.T) {
	p := testProduct(10)
	svc, _, ledger, _ := newService(p)

	if _, err := svc.Adjust(context.Background(), p.ID, 3, ""); err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if got := ledger.entries[0].Reason; got != "Net adjustment" {
		t.Errorf("reason = %q, want %q", got, "Net adjustment")
	}
}

func TestStockIn(t *testing.T) {
	p := testProduct(3)
	svc, products, ledger, _ := newService(p)

	cost := types.MustMoney("5.50")
	entry, err := svc.StockIn(context.Background(), stock.StockInInput{
		ProductID:   p.ID,
		Quantity:    7,
		Cost:        &cost,
		SupplierTag: "42",
	})
	if err != nil {
		t.Fatalf("StockIn: %v", err)
	}

	if entry.BalanceAfter != 10 {
		t.Errorf("balance_after = %d, want 10", entry.BalanceAfter)
	}
	got, _ := products.GetByID(context.Background(), p.ID)
	if got.Quantity != 10 {
		t.Errorf("quantity = %d, want 10", got.Quantity)
	}
	if !got.Cost.Equal(cost) {
		t.Errorf("cost = %s, want %s (overwritten on receipt)", got.Cost, cost)
	}
	if ledger.entries[0].Type != stock.EntryIn {
		t.Errorf("entry type = %s, want IN", ledger.entries[0].Type)
	}
	if want := "Direct purchase from supplier #42"; ledger.entries[0].Reason != want {
		t.Errorf("reason = %q, want %q", ledger.entries[0].Reason, want)
	}
}

func TestStockIn_Validation(t *testing.T) {
	p := testProduct(3)
	svc, products, ledger, _ := newService(p)

	for _, qty := range []int64{0, -5} {
		_, err := svc.StockIn(context.Background(), stock.StockInInput{ProductID: p.ID, Quantity: qty})
		appErr, ok := apperror.AsAppError(err)
		if !ok || appErr.Code != apperror.CodeValidation {
			t.Errorf("StockIn(qty=%d) error = %v, want validation", qty, err)
		}
	}
	got, _ := products.GetByID(context.Background(), p.ID)
	if got.Quantity != 3 || len(ledger.entries) != 0 {
		t.Error("failed stock-in must leave quantity and ledger untouched")
	}
}

func TestReportDamage(t *testing.T) {
	p := testProduct(5)
	svc, products, ledger, damage := newService(p)

	entry, err := svc.ReportDamage(context.Background(), p.ID, 5, "dropped pallet")
	if err != nil {
		t.Fatalf("ReportDamage: %v", err)
	}

	got, _ := products.GetByID(context.Background(), p.ID)
	if got.Quantity != 0 {
		t.Errorf("quantity = %d, want 0", got.Quantity)
	}
	if entry.BalanceAfter != 0 {
		t.Errorf("balance_after = %d, want 0", entry.BalanceAfter)
	}
	if len(damage.records) != 1 {
		t.Fatalf("damaged records = %d, want exactly 1", len(damage.records))
	}
	if damage.records[0].Quantity != 5 || damage.records[0].Reason != "dropped pallet" {
		t.Errorf("unexpected damaged record: %+v", damage.records[0])
	}
	if len(ledger.entries) != 1 {
		t.Fatalf("ledger entries = %d, want exactly 1", len(ledger.entries))
	}
	e := ledger.entries[0]
	if e.Type != stock.EntryOut {
		t.Errorf("entry type = %s, want OUT", e.Type)
	}
	if !strings.Contains(e.Reason, "Damaged") {
		t.Errorf("reason = %q, want it to contain %q", e.Reason, "Damaged")
	}
}

func TestReturn(t *testing.T) {
	tests := []struct {
		name        string
		startQty    int64
		returnType  stock.ReturnType
		quantity    int64
		wantBalance int64
		wantDelta   int64
	}{
		{"customer return adds stock", 5, stock.ReturnCustomer, 3, 8, 3},
		{"supplier return removes stock", 5, stock.ReturnSupplier, 3, 2, -3},
		{"supplier return clamps at zero", 2, stock.ReturnSupplier, 10, 0, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProduct(tt.startQty)
			svc, products, ledger, _ := newService(p)

			ref := "SAL-2026-00001"
			entry, err := svc.Return(context.Background(), p.ID, tt.quantity, tt.returnType, "defective", &ref)
			if err != nil {
				t.Fatalf("Return: %v", err)
			}

			if entry.BalanceAfter != tt.wantBalance {
				t.Errorf("balance_after = %d, want %d", entry.BalanceAfter, tt.wantBalance)
			}
			if entry.Quantity != tt.wantDelta {
				t.Errorf("logged delta = %d, want %d", entry.Quantity, tt.wantDelta)
			}
			got, _ := products.GetByID(context.Background(), p.ID)
			if got.Quantity != tt.wantBalance {
				t.Errorf("quantity = %d, want %d", got.Quantity, tt.wantBalance)
			}
			if ledger.entries[0].Type != stock.EntryReturn {
				t.Errorf("entry type = %s, want RETURN", ledger.entries[0].Type)
			}
			if ledger.entries[0].Reference == nil || *ledger.entries[0].Reference != ref {
				t.Error("entry must carry the originating sale reference")
			}
		})
	}
}

func TestReturn_InvalidType(t *testing.T) {
	p := testProduct(5)
	svc, _, ledger, _ := newService(p)

	_, err := svc.Return(context.Background(), p.ID, 1, "warehouse", "", nil)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Fatalf("error = %v, want validation", err)
	}
	if len(ledger.entries) != 0 {
		t.Error("invalid return must not write ledger entries")
	}
}

func TestApplyMovement_NotFound(t *testing.T) {
	svc, _, ledger, _ := newService()

	_, err := svc.Adjust(context.Background(), id.New(), 1, "")
	if !apperror.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
	if len(ledger.entries) != 0 {
		t.Error("missing product must not produce ledger entries")
	}
}

// TestLedgerReconstruction verifies the audit invariant: replaying the
// ledger with clamping applied reproduces the final on-hand quantity.
func TestLedgerReconstruction(t *testing.T) {
	p := testProduct(10)
	svc, products, ledger, _ := newService(p)
	ctx := context.Background()

	if _, err := svc.StockIn(ctx, stock.StockInInput{ProductID: p.ID, Quantity: 5}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Adjust(ctx, p.ID, 20, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Return(ctx, p.ID, 4, stock.ReturnCustomer, "", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ReportDamage(ctx, p.ID, 1, "crushed"); err != nil {
		t.Fatal(err)
	}

	balance := int64(10)
	for _, e := range ledger.entries {
		balance += e.Quantity
		if balance < 0 {
			balance = 0
		}
		if balance != e.BalanceAfter {
			t.Fatalf("replayed balance %d diverges from recorded balance_after %d at entry %s", balance, e.BalanceAfter, e.ID)
		}
	}

	got, _ := products.GetByID(ctx, p.ID)
	if got.Quantity != balance {
		t.Errorf("final quantity = %d, replayed ledger gives %d", got.Quantity, balance)
	}
}

func TestTransactions_Filter(t *testing.T) {
	p := testProduct(10)
	other := testProduct(10)
	other.SKU = "SKU-2"
	svc, _, _, _ := newService(p, other)
	ctx := context.Background()

	if _, err := svc.Adjust(ctx, p.ID, 1, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.StockIn(ctx, stock.StockInInput{ProductID: other.ID, Quantity: 2}); err != nil {
		t.Fatal(err)
	}

	typ := stock.EntryAdjust
	entries, total, err := svc.Transactions(ctx, stock.LedgerFilter{ProductID: &p.ID, Type: &typ})
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if total != 1 || len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].ProductID == nil || *entries[0].ProductID != p.ID {
		t.Error("filter by product returned a foreign entry")
	}
}
