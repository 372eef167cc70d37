package purchase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain"
	"retailcore/internal/domain/catalog/supplier"
	"retailcore/internal/domain/purchase"
	"retailcore/internal/domain/stock"
	"retailcore/pkg/numerator"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeNumbers struct {
	next int64
}

func (n *fakeNumbers) GetNextNumber(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
	n.next++
	return fmt.Sprintf("%s-%s-%05d", cfg.Prefix, period.Format("2006"), n.next), nil
}

func (n *fakeNumbers) SetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time, value int64) error {
	n.next = value
	return nil
}

type fakeSupplierRepo struct {
	known map[id.ID]*supplier.Supplier
}

func (r *fakeSupplierRepo) Create(ctx context.Context, s *supplier.Supplier) error {
	r.known[s.ID] = s
	return nil
}

func (r *fakeSupplierRepo) GetByID(ctx context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	s, ok := r.known[supplierID]
	if !ok {
		return nil, apperror.NewNotFound("supplier", supplierID.String())
	}
	return s, nil
}

func (r *fakeSupplierRepo) Update(ctx context.Context, s *supplier.Supplier) error { return nil }

func (r *fakeSupplierRepo) SetActive(ctx context.Context, supplierID id.ID, active bool) error {
	return nil
}

func (r *fakeSupplierRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*supplier.Supplier], error) {
	return domain.ListResult[*supplier.Supplier]{}, nil
}

// fakeEngine applies movements against an in-memory quantity map and
// records every movement it saw.
type fakeEngine struct {
	quantities map[id.ID]int64
	costs      map[id.ID]types.Money
	movements  []stock.Movement
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		quantities: make(map[id.ID]int64),
		costs:      make(map[id.ID]types.Money),
	}
}

func (e *fakeEngine) ApplyMovement(ctx context.Context, m stock.Movement) (*stock.LedgerEntry, error) {
	qty, ok := e.quantities[m.ProductID]
	if !ok {
		return nil, apperror.NewNotFound("product", m.ProductID.String())
	}
	newQty := qty + m.Delta
	if newQty < 0 {
		newQty = 0
	}
	e.quantities[m.ProductID] = newQty
	if m.CostOverride != nil {
		e.costs[m.ProductID] = *m.CostOverride
	}
	e.movements = append(e.movements, m)
	pid := m.ProductID
	return &stock.LedgerEntry{ID: id.New(), ProductID: &pid, Type: m.Type, Quantity: m.Delta, BalanceAfter: newQty}, nil
}

type fakePORepo struct {
	orders map[id.ID]*purchase.PurchaseOrder
}

func newFakePORepo() *fakePORepo {
	return &fakePORepo{orders: make(map[id.ID]*purchase.PurchaseOrder)}
}

func (r *fakePORepo) Create(ctx context.Context, po *purchase.PurchaseOrder) error {
	cp := *po
	r.orders[po.ID] = &cp
	return nil
}

func (r *fakePORepo) GetByID(ctx context.Context, poID id.ID) (*purchase.PurchaseOrder, error) {
	po, ok := r.orders[poID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", poID.String())
	}
	cp := *po
	return &cp, nil
}

func (r *fakePORepo) GetForUpdate(ctx context.Context, poID id.ID) (*purchase.PurchaseOrder, error) {
	return r.GetByID(ctx, poID)
}

func (r *fakePORepo) UpdateHeader(ctx context.Context, po *purchase.PurchaseOrder) error {
	cur, ok := r.orders[po.ID]
	if !ok {
		return apperror.NewNotFound("purchase order", po.ID.String())
	}
	cp := *po
	cp.Status = cur.Status
	r.orders[po.ID] = &cp
	return nil
}

func (r *fakePORepo) ReplaceItems(ctx context.Context, poID id.ID, items []*purchase.PurchaseItem) error {
	po, ok := r.orders[poID]
	if !ok {
		return apperror.NewNotFound("purchase order", poID.String())
	}
	po.Items = items
	return nil
}

func (r *fakePORepo) UpdateStatus(ctx context.Context, poID id.ID, status purchase.Status) error {
	po, ok := r.orders[poID]
	if !ok {
		return apperror.NewNotFound("purchase order", poID.String())
	}
	po.Status = status
	return nil
}

func (r *fakePORepo) Delete(ctx context.Context, poID id.ID) error {
	delete(r.orders, poID)
	return nil
}

func (r *fakePORepo) List(ctx context.Context, filter purchase.Filter) ([]*purchase.PurchaseOrder, int64, error) {
	var out []*purchase.PurchaseOrder
	for _, po := range r.orders {
		cp := *po
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

type fixture struct {
	svc        *purchase.Service
	repo       *fakePORepo
	engine     *fakeEngine
	supplierID id.ID
}

func newFixture() *fixture {
	sup := supplier.New("Acme Wholesale")
	suppliers := &fakeSupplierRepo{known: map[id.ID]*supplier.Supplier{sup.ID: sup}}
	repo := newFakePORepo()
	engine := newFakeEngine()
	svc := purchase.NewService(repo, suppliers, engine, fakeTxManager{}, &fakeNumbers{})
	return &fixture{svc: svc, repo: repo, engine: engine, supplierID: sup.ID}
}

func (f *fixture) product(qty int64) id.ID {
	pid := id.New()
	f.engine.quantities[pid] = qty
	return pid
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to purchase.Status
		want     bool
	}{
		{purchase.StatusOpen, purchase.StatusReceived, true},
		{purchase.StatusOpen, purchase.StatusCancelled, true},
		{purchase.StatusReceived, purchase.StatusCancelled, false},
		{purchase.StatusReceived, purchase.StatusOpen, false},
		{purchase.StatusCancelled, purchase.StatusReceived, false},
		{purchase.StatusCancelled, purchase.StatusOpen, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCreate(t *testing.T) {
	f := newFixture()
	p1 := f.product(0)
	p2 := f.product(0)

	po, err := f.svc.Create(context.Background(), purchase.CreateInput{
		SupplierID: f.supplierID,
		Items: []purchase.ItemInput{
			{ProductID: p1, Quantity: 10, UnitCost: types.MustMoney("2.50")},
			{ProductID: p2, Quantity: 3, UnitCost: types.MustMoney("7.00")},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if po.Status != purchase.StatusOpen {
		t.Errorf("status = %s, want OPEN", po.Status)
	}
	if want := types.MustMoney("46.00"); !po.Total.Equal(want) {
		t.Errorf("total = %s, want %s", po.Total, want)
	}
	if po.Number == "" {
		t.Error("purchase order must get a generated number")
	}
	if len(f.engine.movements) != 0 {
		t.Error("creating an order must not move stock")
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	pid := f.product(0)

	tests := []struct {
		name string
		in   purchase.CreateInput
	}{
		{"no items", purchase.CreateInput{SupplierID: f.supplierID}},
		{"zero quantity", purchase.CreateInput{
			SupplierID: f.supplierID,
			Items:      []purchase.ItemInput{{ProductID: pid, Quantity: 0, UnitCost: types.MustMoney("1")}},
		}},
		{"negative cost", purchase.CreateInput{
			SupplierID: f.supplierID,
			Items:      []purchase.ItemInput{{ProductID: pid, Quantity: 1, UnitCost: types.MustMoney("-1")}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.in)
			appErr, ok := apperror.AsAppError(err)
			if !ok || appErr.Code != apperror.CodeValidation {
				t.Errorf("error = %v, want validation", err)
			}
		})
	}
}

func TestCreate_UnknownSupplier(t *testing.T) {
	f := newFixture()
	pid := f.product(0)

	_, err := f.svc.Create(context.Background(), purchase.CreateInput{
		SupplierID: id.New(),
		Items:      []purchase.ItemInput{{ProductID: pid, Quantity: 1, UnitCost: types.MustMoney("1")}},
	})
	if !apperror.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestReceive(t *testing.T) {
	f := newFixture()
	p1 := f.product(5)
	p2 := f.product(0)

	po, err := f.svc.Create(context.Background(), purchase.CreateInput{
		SupplierID: f.supplierID,
		Items: []purchase.ItemInput{
			{ProductID: p1, Quantity: 10, UnitCost: types.MustMoney("2.50")},
			{ProductID: p2, Quantity: 3, UnitCost: types.MustMoney("7.00")},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	received, err := f.svc.Receive(context.Background(), po.ID)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}

	if received.Status != purchase.StatusReceived {
		t.Errorf("status = %s, want RECEIVED", received.Status)
	}
	if got := f.engine.quantities[p1]; got != 15 {
		t.Errorf("product 1 quantity = %d, want 15", got)
	}
	if got := f.engine.quantities[p2]; got != 3 {
		t.Errorf("product 2 quantity = %d, want 3", got)
	}
	if got := f.engine.costs[p1]; !got.Equal(types.MustMoney("2.50")) {
		t.Errorf("product 1 cost = %s, want 2.50 (overwritten by item unit cost)", got)
	}
	if len(f.engine.movements) != 2 {
		t.Fatalf("movements = %d, want 2", len(f.engine.movements))
	}
	for _, m := range f.engine.movements {
		if m.Type != stock.EntryIn {
			t.Errorf("movement type = %s, want IN", m.Type)
		}
		if m.Reference == nil || *m.Reference != po.Number {
			t.Error("movement must reference the PO number")
		}
	}
	if !id.Less(f.engine.movements[0].ProductID, f.engine.movements[1].ProductID) {
		t.Error("items must be applied in ascending product id order")
	}
}

func TestReceive_AlreadyReceived(t *testing.T) {
	f := newFixture()
	pid := f.product(0)

	po, err := f.svc.Create(context.Background(), purchase.CreateInput{
		SupplierID: f.supplierID,
		Items:      []purchase.ItemInput{{ProductID: pid, Quantity: 5, UnitCost: types.MustMoney("1.00")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Receive(context.Background(), po.ID); err != nil {
		t.Fatal(err)
	}
	movesBefore := len(f.engine.movements)

	_, err = f.svc.Receive(context.Background(), po.ID)
	if !apperror.IsConflict(err) {
		t.Fatalf("second receive error = %v, want conflict", err)
	}
	if len(f.engine.movements) != movesBefore {
		t.Error("second receive must perform zero stock mutations")
	}
	if f.engine.quantities[pid] != 5 {
		t.Errorf("quantity = %d, want 5 (unchanged)", f.engine.quantities[pid])
	}
}

func TestReceive_MissingProductAborts(t *testing.T) {
	f := newFixture()
	pid := f.product(0)

	po, err := f.svc.Create(context.Background(), purchase.CreateInput{
		SupplierID: f.supplierID,
		Items: []purchase.ItemInput{
			{ProductID: pid, Quantity: 5, UnitCost: types.MustMoney("1.00")},
			{ProductID: id.New(), Quantity: 2, UnitCost: types.MustMoney("3.00")},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.Receive(context.Background(), po.ID)
	if !apperror.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
	got, err := f.svc.GetByID(context.Background(), po.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != purchase.StatusOpen {
		t.Errorf("status after failed receipt = %s, want OPEN", got.Status)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture()
	pid := f.product(0)

	po, err := f.svc.Create(context.Background(), purchase.CreateInput{
		SupplierID: f.supplierID,
		Items:      []purchase.ItemInput{{ProductID: pid, Quantity: 5, UnitCost: types.MustMoney("1.00")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Cancel(context.Background(), po.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	_, err = f.svc.Receive(context.Background(), po.ID)
	if !apperror.IsConflict(err) {
		t.Fatalf("receive after cancel error = %v, want conflict", err)
	}
	if err := f.svc.Cancel(context.Background(), po.ID); !apperror.IsConflict(err) {
		t.Fatalf("double cancel error = %v, want conflict", err)
	}
}

func TestUpdate_RecomputesTotal(t *testing.T) {
	f := newFixture()
	pid := f.product(0)

	po, err := f.svc.Create(context.Background(), purchase.CreateInput{
		SupplierID: f.supplierID,
		Items:      []purchase.ItemInput{{ProductID: pid, Quantity: 5, UnitCost: types.MustMoney("1.00")}},
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := f.svc.Update(context.Background(), po.ID, purchase.UpdateInput{
		Items: []purchase.ItemInput{{ProductID: pid, Quantity: 4, UnitCost: types.MustMoney("2.25")}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if want := types.MustMoney("9.00"); !updated.Total.Equal(want) {
		t.Errorf("total = %s, want %s", updated.Total, want)
	}
}

func TestUpdate_NotOpen(t *testing.T) {
	f := newFixture()
	pid := f.product(0)

	po, err := f.svc.Create(context.Background(), purchase.CreateInput{
		SupplierID: f.supplierID,
		Items:      []purchase.ItemInput{{ProductID: pid, Quantity: 5, UnitCost: types.MustMoney("1.00")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Receive(context.Background(), po.ID); err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.Update(context.Background(), po.ID, purchase.UpdateInput{
		Items: []purchase.ItemInput{{ProductID: pid, Quantity: 1, UnitCost: types.MustMoney("1.00")}},
	})
	if !apperror.IsConflict(err) {
		t.Fatalf("error = %v, want conflict", err)
	}
}

func TestDelete_ReceivedRefused(t *testing.T) {
	f := newFixture()
	pid := f.product(0)

	po, err := f.svc.Create(context.Background(), purchase.CreateInput{
		SupplierID: f.supplierID,
		Items:      []purchase.ItemInput{{ProductID: pid, Quantity: 5, UnitCost: types.MustMoney("1.00")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Receive(context.Background(), po.ID); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Delete(context.Background(), po.ID); !apperror.IsConflict(err) {
		t.Fatalf("error = %v, want conflict", err)
	}
}
