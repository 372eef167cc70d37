package sales_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain"
	"retailcore/internal/domain/catalog/product"
	"retailcore/internal/domain/sales"
	"retailcore/internal/domain/stock"
	"retailcore/pkg/numerator"
)

// memStore is shared committed state. Row locks emulate SELECT ... FOR
// UPDATE: a product's mutex is held from first locked read until the
// transaction commits or rolls back, so concurrent transactions on the
// same product serialize exactly like they would against the database.
type memStore struct {
	mu       sync.Mutex
	products map[id.ID]*product.Product
	rowLocks map[id.ID]*sync.Mutex
	entries  []*stock.LedgerEntry
	sales    map[id.ID]*sales.Sale
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[id.ID]*product.Product),
		rowLocks: make(map[id.ID]*sync.Mutex),
		sales:    make(map[id.ID]*sales.Sale),
	}
}

func (s *memStore) rowLock(productID id.ID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rowLocks[productID]
	if !ok {
		m = &sync.Mutex{}
		s.rowLocks[productID] = m
	}
	return m
}

type txKey struct{}

// txState buffers ledger and sale writes until commit and keeps product
// snapshots for rollback. Product quantity writes go to the store directly
// (the row lock makes them invisible to competing transactions).
type txState struct {
	store     *memStore
	snapshots map[id.ID]product.Product
	lockOrder []id.ID

	pendingEntries []*stock.LedgerEntry
	pendingSales   []*sales.Sale
	pendingStatus  map[id.ID]sales.Status
}

func (st *txState) holds(productID id.ID) bool {
	_, ok := st.snapshots[productID]
	return ok
}

func (st *txState) commit() {
	st.store.mu.Lock()
	st.store.entries = append(st.store.entries, st.pendingEntries...)
	for _, sale := range st.pendingSales {
		st.store.sales[sale.ID] = sale
	}
	for saleID, status := range st.pendingStatus {
		if sale, ok := st.store.sales[saleID]; ok {
			sale.Status = status
		}
	}
	st.store.mu.Unlock()
	st.release()
}

func (st *txState) rollback() {
	st.store.mu.Lock()
	for pid, snap := range st.snapshots {
		cp := snap
		st.store.products[pid] = &cp
	}
	st.store.mu.Unlock()
	st.release()
}

func (st *txState) release() {
	for i := len(st.lockOrder) - 1; i >= 0; i-- {
		st.store.rowLock(st.lockOrder[i]).Unlock()
	}
	st.lockOrder = nil
}

type fakeTxManager struct {
	store *memStore
}

func (m fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	st := &txState{
		store:         m.store,
		snapshots:     make(map[id.ID]product.Product),
		pendingStatus: make(map[id.ID]sales.Status),
	}
	err := fn(context.WithValue(ctx, txKey{}, st))
	if err != nil {
		st.rollback()
		return err
	}
	st.commit()
	return nil
}

func stateFrom(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{}).(*txState)
	return st
}

type fakeProductRepo struct {
	store *memStore
}

func (r fakeProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *p
	r.store.products[p.ID] = &cp
	return nil
}

func (r fakeProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	cp := *p
	return &cp, nil
}

func (r fakeProductRepo) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("product", sku)
}

func (r fakeProductRepo) GetForUpdate(ctx context.Context, productID id.ID) (*product.Product, error) {
	st := stateFrom(ctx)
	if st == nil {
		return nil, fmt.Errorf("GetForUpdate outside transaction")
	}
	if !st.holds(productID) {
		r.store.rowLock(productID).Lock()
		st.lockOrder = append(st.lockOrder, productID)

		r.store.mu.Lock()
		p, ok := r.store.products[productID]
		if ok {
			st.snapshots[productID] = *p
		}
		r.store.mu.Unlock()
		if !ok {
			return nil, apperror.NewNotFound("product", productID.String())
		}
	}
	return r.GetByID(ctx, productID)
}

func (r fakeProductRepo) Update(ctx context.Context, p *product.Product) error { return nil }

func (r fakeProductRepo) SetActive(ctx context.Context, productID id.ID, active bool) error {
	return nil
}

func (r fakeProductRepo) UpdateStock(ctx context.Context, productID id.ID, quantity int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID.String())
	}
	p.Quantity = quantity
	return nil
}

func (r fakeProductRepo) UpdateStockAndCost(ctx context.Context, productID id.ID, quantity int64, cost types.Money) error {
	if err := r.UpdateStock(ctx, productID, quantity); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.products[productID].Cost = cost
	return nil
}

func (r fakeProductRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}

func (r fakeProductRepo) FindLowStock(ctx context.Context) ([]*product.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*product.Product
	for _, p := range r.store.products {
		if p.IsLowStock() {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeProductRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	return false, nil
}

type fakeLedgerRepo struct {
	store *memStore
}

func (r fakeLedgerRepo) Append(ctx context.Context, entry *stock.LedgerEntry) error {
	st := stateFrom(ctx)
	if st == nil {
		return fmt.Errorf("Append outside transaction")
	}
	cp := *entry
	st.pendingEntries = append(st.pendingEntries, &cp)
	return nil
}

func (r fakeLedgerRepo) List(ctx context.Context, filter stock.LedgerFilter) ([]*stock.LedgerEntry, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*stock.LedgerEntry, len(r.store.entries))
	copy(out, r.store.entries)
	return out, int64(len(out)), nil
}

type fakeDamageRepo struct{}

func (fakeDamageRepo) Create(ctx context.Context, rec *stock.DamagedRecord) error { return nil }

func (fakeDamageRepo) List(ctx context.Context, filter stock.DamageFilter) ([]*stock.DamagedRecord, int64, error) {
	return nil, 0, nil
}

type fakeSaleRepo struct {
	store *memStore
}

func (r fakeSaleRepo) Create(ctx context.Context, sale *sales.Sale) error {
	st := stateFrom(ctx)
	if st == nil {
		return fmt.Errorf("Create outside transaction")
	}
	cp := *sale
	st.pendingSales = append(st.pendingSales, &cp)
	return nil
}

func (r fakeSaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sale, ok := r.store.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID.String())
	}
	cp := *sale
	return &cp, nil
}

func (r fakeSaleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	return r.GetByID(ctx, saleID)
}

func (r fakeSaleRepo) UpdateStatus(ctx context.Context, saleID id.ID, status sales.Status) error {
	st := stateFrom(ctx)
	if st == nil {
		return fmt.Errorf("UpdateStatus outside transaction")
	}
	st.pendingStatus[saleID] = status
	return nil
}

func (r fakeSaleRepo) List(ctx context.Context, filter sales.Filter) ([]*sales.Sale, int64, error) {
	return nil, 0, nil
}

type fakeNumbers struct {
	mu   sync.Mutex
	next int64
}

func (n *fakeNumbers) GetNextNumber(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.next++
	return fmt.Sprintf("%s-%s-%05d", cfg.Prefix, period.Format("2006"), n.next), nil
}

func (n *fakeNumbers) SetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time, value int64) error {
	n.next = value
	return nil
}

type fixture struct {
	store    *memStore
	svc      *sales.Service
	products fakeProductRepo
	ledger   fakeLedgerRepo
}

func newFixture() *fixture {
	store := newMemStore()
	txm := fakeTxManager{store: store}
	products := fakeProductRepo{store: store}
	ledger := fakeLedgerRepo{store: store}
	engine := stock.NewService(products, ledger, fakeDamageRepo{}, txm)
	svc := sales.NewService(fakeSaleRepo{store: store}, products, engine, txm, &fakeNumbers{})
	return &fixture{store: store, svc: svc, products: products, ledger: ledger}
}

func (f *fixture) product(sku string, qty int64, price string) *product.Product {
	p := product.New(sku, "Item "+sku, types.MustMoney(price), types.MustMoney("1.00"))
	p.Quantity = qty
	p.LowStockThreshold = 10
	f.store.products[p.ID] = p
	return p
}

func (f *fixture) quantity(productID id.ID) int64 {
	p, _ := f.products.GetByID(context.Background(), productID)
	return p.Quantity
}

func TestCheckout(t *testing.T) {
	f := newFixture()
	p := f.product("A", 50, "4.00")

	sale, err := f.svc.Checkout(context.Background(), sales.CheckoutInput{
		Lines:         []sales.LineInput{{ProductID: p.ID, Quantity: 45}},
		PaymentMethod: sales.PaymentCash,
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if sale.Status != sales.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", sale.Status)
	}
	if want := types.MustMoney("180.00"); !sale.Total.Equal(want) {
		t.Errorf("total = %s, want %s", sale.Total, want)
	}
	if sale.Number == "" || sale.ReceiptNo == "" {
		t.Error("sale must carry generated sale and receipt numbers")
	}
	if got := f.quantity(p.ID); got != 5 {
		t.Errorf("quantity = %d, want 5", got)
	}

	low, _ := f.products.FindLowStock(context.Background())
	if len(low) != 1 {
		t.Errorf("low stock view has %d products, want 1", len(low))
	}

	entries, _, _ := f.ledger.List(context.Background(), stock.LedgerFilter{})
	if len(entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Type != stock.EntryOut || e.Quantity != -45 || e.BalanceAfter != 5 {
		t.Errorf("unexpected ledger entry: %+v", e)
	}
	if e.Reference == nil || *e.Reference != sale.Number {
		t.Error("OUT entry must reference the sale number")
	}

	// Refund restores the stock and clears the low-stock alert.
	refunded, err := f.svc.Refund(context.Background(), sale.ID)
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if refunded.Status != sales.StatusRefunded {
		t.Errorf("status = %s, want REFUNDED", refunded.Status)
	}
	if got := f.quantity(p.ID); got != 50 {
		t.Errorf("quantity after refund = %d, want 50", got)
	}
	low, _ = f.products.FindLowStock(context.Background())
	if len(low) != 0 {
		t.Errorf("low stock view has %d products after refund, want 0", len(low))
	}
}

func TestCheckout_TotalsWithDiscountAndTax(t *testing.T) {
	f := newFixture()
	p1 := f.product("A", 20, "4.00")
	p2 := f.product("B", 20, "10.00")

	override := types.MustMoney("9.50")
	sale, err := f.svc.Checkout(context.Background(), sales.CheckoutInput{
		Lines: []sales.LineInput{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 1, PriceOverride: &override},
		},
		PaymentMethod: sales.PaymentCard,
		Discount:      types.MustMoney("2.50"),
		Tax:           types.MustMoney("1.40"),
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if want := types.MustMoney("17.50"); !sale.Subtotal.Equal(want) {
		t.Errorf("subtotal = %s, want %s", sale.Subtotal, want)
	}
	// 17.50 - 2.50 + 1.40
	if want := types.MustMoney("16.40"); !sale.Total.Equal(want) {
		t.Errorf("total = %s, want %s", sale.Total, want)
	}
	if len(sale.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(sale.Items))
	}
}

func TestCheckout_InsufficientStockAtomic(t *testing.T) {
	f := newFixture()
	p1 := f.product("A", 100, "1.00")
	p2 := f.product("B", 3, "1.00")

	entriesBefore, _, _ := f.ledger.List(context.Background(), stock.LedgerFilter{})

	_, err := f.svc.Checkout(context.Background(), sales.CheckoutInput{
		Lines: []sales.LineInput{
			{ProductID: p1.ID, Quantity: 10},
			{ProductID: p2.ID, Quantity: 5},
		},
		PaymentMethod: sales.PaymentCash,
	})
	if !apperror.IsInsufficientStock(err) {
		t.Fatalf("error = %v, want insufficient stock", err)
	}

	if got := f.quantity(p1.ID); got != 100 {
		t.Errorf("product A quantity = %d, want 100 (no partial decrement)", got)
	}
	if got := f.quantity(p2.ID); got != 3 {
		t.Errorf("product B quantity = %d, want 3", got)
	}
	entriesAfter, _, _ := f.ledger.List(context.Background(), stock.LedgerFilter{})
	if len(entriesAfter) != len(entriesBefore) {
		t.Errorf("ledger grew by %d entries, want 0", len(entriesAfter)-len(entriesBefore))
	}
	if len(f.store.sales) != 0 {
		t.Error("failed checkout must not persist a sale")
	}
}

func TestCheckout_Validation(t *testing.T) {
	f := newFixture()
	p := f.product("A", 10, "1.00")

	tests := []struct {
		name string
		in   sales.CheckoutInput
	}{
		{"no lines", sales.CheckoutInput{PaymentMethod: sales.PaymentCash}},
		{"zero quantity", sales.CheckoutInput{
			Lines:         []sales.LineInput{{ProductID: p.ID, Quantity: 0}},
			PaymentMethod: sales.PaymentCash,
		}},
		{"bad payment method", sales.CheckoutInput{
			Lines:         []sales.LineInput{{ProductID: p.ID, Quantity: 1}},
			PaymentMethod: "check",
		}},
		{"negative discount", sales.CheckoutInput{
			Lines:         []sales.LineInput{{ProductID: p.ID, Quantity: 1}},
			PaymentMethod: sales.PaymentCash,
			Discount:      types.MustMoney("-1"),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Checkout(context.Background(), tt.in)
			appErr, ok := apperror.AsAppError(err)
			if !ok || appErr.Code != apperror.CodeValidation {
				t.Errorf("error = %v, want validation", err)
			}
		})
	}
	if got := f.quantity(p.ID); got != 10 {
		t.Errorf("quantity = %d, want 10 (validation failures move no stock)", got)
	}
}

func TestRefund_Symmetry(t *testing.T) {
	f := newFixture()
	p := f.product("A", 30, "2.00")

	sale, err := f.svc.Checkout(context.Background(), sales.CheckoutInput{
		Lines:         []sales.LineInput{{ProductID: p.ID, Quantity: 3}},
		PaymentMethod: sales.PaymentCash,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := f.quantity(p.ID); got != 27 {
		t.Fatalf("quantity after sale = %d, want 27", got)
	}

	if _, err := f.svc.Refund(context.Background(), sale.ID); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if got := f.quantity(p.ID); got != 30 {
		t.Errorf("quantity after refund = %d, want 30 (exactly +3)", got)
	}

	entries, _, _ := f.ledger.List(context.Background(), stock.LedgerFilter{})
	var returns []*stock.LedgerEntry
	for _, e := range entries {
		if e.Type == stock.EntryReturn {
			returns = append(returns, e)
		}
	}
	if len(returns) != 1 {
		t.Fatalf("RETURN entries = %d, want 1", len(returns))
	}
	if returns[0].Quantity != 3 {
		t.Errorf("RETURN delta = %d, want +3", returns[0].Quantity)
	}
	if returns[0].Reference == nil || *returns[0].Reference != sale.Number {
		t.Error("RETURN entry must reference the originating sale number")
	}
}

func TestRefund_AlreadyRefunded(t *testing.T) {
	f := newFixture()
	p := f.product("A", 10, "1.00")

	sale, err := f.svc.Checkout(context.Background(), sales.CheckoutInput{
		Lines:         []sales.LineInput{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: sales.PaymentCash,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Refund(context.Background(), sale.ID); err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.Refund(context.Background(), sale.ID)
	if !apperror.IsConflict(err) {
		t.Fatalf("second refund error = %v, want conflict", err)
	}
	if got := f.quantity(p.ID); got != 10 {
		t.Errorf("quantity = %d, want 10 (no double restore)", got)
	}
}

func TestRefund_DeletedProductLineSkipped(t *testing.T) {
	f := newFixture()
	p1 := f.product("A", 10, "1.00")
	p2 := f.product("B", 10, "1.00")

	sale, err := f.svc.Checkout(context.Background(), sales.CheckoutInput{
		Lines: []sales.LineInput{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 4},
		},
		PaymentMethod: sales.PaymentCash,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Product B vanishes; its receipt line keeps only the name.
	f.store.mu.Lock()
	delete(f.store.products, p2.ID)
	for _, item := range f.store.sales[sale.ID].Items {
		if item.ProductID != nil && *item.ProductID == p2.ID {
			item.ProductID = nil
		}
	}
	f.store.mu.Unlock()

	refunded, err := f.svc.Refund(context.Background(), sale.ID)
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if refunded.Status != sales.StatusRefunded {
		t.Errorf("status = %s, want REFUNDED", refunded.Status)
	}
	if got := f.quantity(p1.ID); got != 10 {
		t.Errorf("surviving line quantity = %d, want 10 (restored)", got)
	}
}

// TestConcurrentCheckouts races two checkouts over the same product.
// Stock 10, both ask for 8: exactly one must succeed and the loser must
// see InsufficientStock, never a negative or double-decremented balance.
func TestConcurrentCheckouts(t *testing.T) {
	f := newFixture()
	p := f.product("A", 10, "1.00")

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Checkout(context.Background(), sales.CheckoutInput{
				Lines:         []sales.LineInput{{ProductID: p.ID, Quantity: 8}},
				PaymentMethod: sales.PaymentCash,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case apperror.IsInsufficientStock(err):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || insufficient != 1 {
		t.Fatalf("successes = %d, insufficient = %d, want exactly 1 and 1", ok, insufficient)
	}
	if got := f.quantity(p.ID); got != 2 {
		t.Errorf("final quantity = %d, want 2", got)
	}
	if len(f.store.sales) != 1 {
		t.Errorf("persisted sales = %d, want 1", len(f.store.sales))
	}
}
