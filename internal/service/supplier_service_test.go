package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mudogruer/istakip-18.01.26/internal/apierror"
	"github.com/mudogruer/istakip-18.01.26/internal/dto"
	"github.com/mudogruer/istakip-18.01.26/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── In-memory SupplierRepository stub ────────────────────────────────────────

type stubSupplierRepo struct {
	suppliers    map[string]*model.Supplier
	transactions map[string]*model.SupplierTransaction
}

func newStubSupplierRepo() *stubSupplierRepo {
	return &stubSupplierRepo{
		suppliers:    make(map[string]*model.Supplier),
		transactions: make(map[string]*model.SupplierTransaction),
	}
}

func (r *stubSupplierRepo) Create(_ context.Context, s *model.Supplier) error {
	r.suppliers[s.ID] = s
	return nil
}

func (r *stubSupplierRepo) FindByID(_ context.Context, id string) (*model.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return s, nil
}

func (r *stubSupplierRepo) List(_ context.Context, supplierType string) ([]model.Supplier, error) {
	var out []model.Supplier
	for _, s := range r.suppliers {
		if supplierType != "" && s.Type != supplierType {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *stubSupplierRepo) Update(_ context.Context, s *model.Supplier) error {
	r.suppliers[s.ID] = s
	return nil
}

func (r *stubSupplierRepo) Delete(_ context.Context, id string) error {
	delete(r.suppliers, id)
	return nil
}

func (r *stubSupplierRepo) CreateTransaction(_ context.Context, tx *model.SupplierTransaction) error {
	r.transactions[tx.ID] = tx
	return nil
}

func (r *stubSupplierRepo) ListTransactions(_ context.Context, supplierID string) ([]model.SupplierTransaction, error) {
	var out []model.SupplierTransaction
	for _, tx := range r.transactions {
		if tx.SupplierID == supplierID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (r *stubSupplierRepo) DeleteTransaction(_ context.Context, id string) error {
	delete(r.transactions, id)
	return nil
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestCreateSupplierDefaultsToManufacturer(t *testing.T) {
	repo := newStubSupplierRepo()
	svc := NewSupplierService(repo)

	supplier, err := svc.Create(context.Background(), dto.CreateSupplierRequest{Name: "Aydin Profil"})
	require.NoError(t, err)
	assert.Equal(t, model.SupplierManufacturer, supplier.Type)
	assert.NotEmpty(t, supplier.ID)
}

func TestUpdateSupplierPartial(t *testing.T) {
	repo := newStubSupplierRepo()
	svc := NewSupplierService(repo)
	supplier, err := svc.Create(context.Background(), dto.CreateSupplierRequest{
		Name: "Marmara Tekstil", Type: model.SupplierDealer, Category: "fabric",
	})
	require.NoError(t, err)

	rating := 4.5
	updated, err := svc.Update(context.Background(), supplier.ID, dto.UpdateSupplierRequest{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 4.5, updated.Rating)
	// untouched fields survive
	assert.Equal(t, "Marmara Tekstil", updated.Name)
	assert.Equal(t, "fabric", updated.Category)
}

func TestAddTransactionDefaultsDate(t *testing.T) {
	repo := newStubSupplierRepo()
	svc := NewSupplierService(repo)
	supplier, err := svc.Create(context.Background(), dto.CreateSupplierRequest{Name: "Dealer A", Type: model.SupplierDealer})
	require.NoError(t, err)

	tx, err := svc.AddTransaction(context.Background(), supplier.ID, "office1", dto.SupplierTransactionRequest{
		ProductCode: "FAB-01", ColorCode: "GREY", ProductName: "screen fabric",
		Quantity: 25, Unit: "m2", Type: "received",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tx.Date)
	assert.Equal(t, "office1", tx.CreatedBy)
	assert.Equal(t, supplier.Name, tx.SupplierName)
}

func TestTransactionsPerProductBalance(t *testing.T) {
	repo := newStubSupplierRepo()
	svc := NewSupplierService(repo)
	supplier, err := svc.Create(context.Background(), dto.CreateSupplierRequest{Name: "Dealer A", Type: model.SupplierDealer})
	require.NoError(t, err)

	add := func(code string, qty float64, txType string) {
		_, err := svc.AddTransaction(context.Background(), supplier.ID, "office1", dto.SupplierTransactionRequest{
			ProductCode: code, ColorCode: "STD", ProductName: code,
			Quantity: qty, Unit: "m", Type: txType,
		})
		require.NoError(t, err)
	}
	add("FAB-01", 40, "received")
	add("FAB-01", 15, "given")
	add("PRF-40", 10, "received")

	resp, err := svc.Transactions(context.Background(), supplier.ID)
	require.NoError(t, err)
	assert.Len(t, resp.Transactions, 3)
	require.Len(t, resp.Balances, 2)

	// sorted by product code
	assert.Equal(t, "FAB-01", resp.Balances[0].ProductCode)
	assert.Equal(t, float64(40), resp.Balances[0].TotalReceived)
	assert.Equal(t, float64(15), resp.Balances[0].TotalGiven)
	assert.Equal(t, float64(25), resp.Balances[0].Balance)
	assert.Equal(t, float64(10), resp.Balances[1].Balance)
}

func TestTransactionsUnknownSupplier(t *testing.T) {
	repo := newStubSupplierRepo()
	svc := NewSupplierService(repo)

	_, err := svc.Transactions(context.Background(), "SUP-GONE")
	require.Error(t, err)
	assert.Equal(t, apierror.KindNotFound, apierror.AsError(err).Kind)
}
