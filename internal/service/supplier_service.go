package service

import (
	"context"
	"sort"
	"time"

	"github.com/mudogruer/istakip-18.01.26/internal/apierror"
	"github.com/mudogruer/istakip-18.01.26/internal/dto"
	"github.com/mudogruer/istakip-18.01.26/internal/model"
	"github.com/mudogruer/istakip-18.01.26/internal/repository"
)

// SupplierService manages the supplier catalog and dealer consignment
// transactions.
type SupplierService interface {
	Create(ctx context.Context, req dto.CreateSupplierRequest) (*model.Supplier, error)
	Get(ctx context.Context, id string) (*model.Supplier, error)
	List(ctx context.Context, supplierType string) ([]model.Supplier, error)
	Update(ctx context.Context, id string, req dto.UpdateSupplierRequest) (*model.Supplier, error)
	Delete(ctx context.Context, id string) error

	AddTransaction(ctx context.Context, supplierID, createdBy string, req dto.SupplierTransactionRequest) (*model.SupplierTransaction, error)
	Transactions(ctx context.Context, supplierID string) (*dto.SupplierTransactionsResponse, error)
	DeleteTransaction(ctx context.Context, supplierID, txID string) error
}

type supplierService struct {
	repo repository.SupplierRepository
}

func NewSupplierService(repo repository.SupplierRepository) SupplierService {
	return &supplierService{repo: repo}
}

func (s *supplierService) Create(ctx context.Context, req dto.CreateSupplierRequest) (*model.Supplier, error) {
	supplierType := req.Type
	if supplierType == "" {
		supplierType = model.SupplierManufacturer
	}
	supplier := &model.Supplier{
		ID:           model.NewID("SUP"),
		Name:         req.Name,
		Type:         supplierType,
		Category:     req.Category,
		Contact:      req.Contact,
		LeadTimeDays: req.LeadTimeDays,
		Notes:        req.Notes,
	}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *supplierService) Get(ctx context.Context, id string) (*model.Supplier, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("supplier")
	}
	return supplier, nil
}

func (s *supplierService) List(ctx context.Context, supplierType string) ([]model.Supplier, error) {
	return s.repo.List(ctx, supplierType)
}

func (s *supplierService) Update(ctx context.Context, id string, req dto.UpdateSupplierRequest) (*model.Supplier, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("supplier")
	}

	if req.Name != nil {
		supplier.Name = *req.Name
	}
	if req.Type != nil {
		supplier.Type = *req.Type
	}
	if req.Category != nil {
		supplier.Category = *req.Category
	}
	if req.Contact != nil {
		supplier.Contact = req.Contact
	}
	if req.LeadTimeDays != nil {
		supplier.LeadTimeDays = req.LeadTimeDays
	}
	if req.Notes != nil {
		supplier.Notes = *req.Notes
	}
	if req.Rating != nil {
		supplier.Rating = *req.Rating
	}

	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *supplierService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NotFound("supplier")
	}
	return s.repo.Delete(ctx, id)
}

func (s *supplierService) AddTransaction(ctx context.Context, supplierID, createdBy string, req dto.SupplierTransactionRequest) (*model.SupplierTransaction, error) {
	supplier, err := s.repo.FindByID(ctx, supplierID)
	if err != nil {
		return nil, apierror.NotFound("supplier")
	}

	date := req.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	tx := &model.SupplierTransaction{
		ID:           model.NewID("STX"),
		SupplierID:   supplier.ID,
		SupplierName: supplier.Name,
		Date:         date,
		ProductCode:  req.ProductCode,
		ColorCode:    req.ColorCode,
		ProductName:  req.ProductName,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		Type:         req.Type,
		Note:         req.Note,
		CreatedBy:    createdBy,
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Transactions lists a supplier's consignment movements together with the
// per-product balance (received minus given).
func (s *supplierService) Transactions(ctx context.Context, supplierID string) (*dto.SupplierTransactionsResponse, error) {
	if _, err := s.repo.FindByID(ctx, supplierID); err != nil {
		return nil, apierror.NotFound("supplier")
	}

	txs, err := s.repo.ListTransactions(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[string]*dto.ProductBalance)
	for _, tx := range txs {
		key := tx.ProductCode + "/" + tx.ColorCode
		bal, ok := byProduct[key]
		if !ok {
			bal = &dto.ProductBalance{
				ProductCode: tx.ProductCode,
				ColorCode:   tx.ColorCode,
				ProductName: tx.ProductName,
				Unit:        tx.Unit,
			}
			byProduct[key] = bal
		}
		if tx.Type == "received" {
			bal.TotalReceived += tx.Quantity
		} else {
			bal.TotalGiven += tx.Quantity
		}
		bal.Balance = bal.TotalReceived - bal.TotalGiven
	}

	balances := make([]dto.ProductBalance, 0, len(byProduct))
	for _, bal := range byProduct {
		balances = append(balances, *bal)
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].ProductCode < balances[j].ProductCode
	})

	return &dto.SupplierTransactionsResponse{Transactions: txs, Balances: balances}, nil
}

func (s *supplierService) DeleteTransaction(ctx context.Context, supplierID, txID string) error {
	if _, err := s.repo.FindByID(ctx, supplierID); err != nil {
		return apierror.NotFound("supplier")
	}
	return s.repo.DeleteTransaction(ctx, txID)
}
