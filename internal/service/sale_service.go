package service

import (
	"posync/internal/domain"
	"posync/internal/dto"
	"posync/internal/engine"
)

// SaleEngine is the part of the sync engine the sale endpoints drive.
type SaleEngine interface {
	Sales() []engine.Tracked[domain.Sale]
	Sale(id string) (engine.Tracked[domain.Sale], error)
	RecordSale(s domain.Sale) (domain.Sale, error)
	VoidSale(id, by, reason string) (domain.Sale, error)
	PaySale(id, method, by string) (domain.Sale, error)
	ReopenSale(id, by string) (domain.Sale, error)
	SetKitchenStatus(id string, line int, station, status string) (domain.Sale, error)
	MarkServed(id string, line int) (domain.Sale, error)
	RemoveItem(id string, line int, by string) (domain.Sale, error)
}

type SaleService interface {
	List(f dto.SaleFilter) dto.ListResponse[dto.SaleResponse]
	Get(id string) (*dto.SaleResponse, error)
	// Record creates a ticket, or replaces the order of an existing one when
	// req.ID names it.
	Record(req dto.RecordSaleRequest) (*dto.SaleResponse, error)
	Void(id string, req dto.VoidSaleRequest) (*dto.SaleResponse, error)
	Pay(id string, req dto.PaySaleRequest) (*dto.SaleResponse, error)
	Reopen(id string, req dto.ReopenSaleRequest) (*dto.SaleResponse, error)
	SetKitchenStatus(id string, line int, req dto.KitchenStatusRequest) (*dto.SaleResponse, error)
	MarkServed(id string, line int) (*dto.SaleResponse, error)
	RemoveItem(id string, line int, req dto.RemoveItemRequest) (*dto.SaleResponse, error)
}

type saleService struct {
	eng SaleEngine
}

func NewSaleService(eng SaleEngine) SaleService {
	return &saleService{eng: eng}
}

// ── List ──────────────────────────────────────────────────────────────────────

func (s *saleService) List(f dto.SaleFilter) dto.ListResponse[dto.SaleResponse] {
	out := dto.ListResponse[dto.SaleResponse]{Data: []dto.SaleResponse{}}
	for _, t := range s.eng.Sales() {
		sale := t.Record
		if sale.Closed && !f.IncludeClosed {
			continue
		}
		if f.Status != "" && string(sale.Status()) != f.Status {
			continue
		}
		if f.Table != nil && sale.TableNumber != *f.Table {
			continue
		}
		if f.Date != "" && sale.Date != f.Date {
			continue
		}
		out.Data = append(out.Data, toSaleResponse(t))
	}
	out.Total = len(out.Data)
	return out
}

func (s *saleService) Get(id string) (*dto.SaleResponse, error) {
	t, err := s.eng.Sale(id)
	if err != nil {
		return nil, err
	}
	resp := toSaleResponse(t)
	return &resp, nil
}

// ── Writes ────────────────────────────────────────────────────────────────────

func (s *saleService) Record(req dto.RecordSaleRequest) (*dto.SaleResponse, error) {
	sale := domain.Sale{ID: req.ID}
	if req.ID != "" {
		if cur, err := s.eng.Sale(req.ID); err == nil {
			sale = cur.Record.Clone()
		}
	}
	sale.Waiter = req.Waiter
	sale.TableNumber = req.TableNumber
	sale.Order = orderFromRequest(req.Order)
	if req.Type != "" {
		sale.Type = domain.SaleType(req.Type)
	}
	if req.PaymentMethod != "" {
		sale.Notes = req.PaymentMethod
	}
	// the order was replaced, so a stored total is stale
	sale.Total = sale.ComputeTotal()
	return s.written(s.eng.RecordSale(sale))
}

func (s *saleService) Void(id string, req dto.VoidSaleRequest) (*dto.SaleResponse, error) {
	return s.written(s.eng.VoidSale(id, req.By, req.Reason))
}

func (s *saleService) Pay(id string, req dto.PaySaleRequest) (*dto.SaleResponse, error) {
	return s.written(s.eng.PaySale(id, req.Method, req.By))
}

func (s *saleService) Reopen(id string, req dto.ReopenSaleRequest) (*dto.SaleResponse, error) {
	return s.written(s.eng.ReopenSale(id, req.By))
}

func (s *saleService) SetKitchenStatus(id string, line int, req dto.KitchenStatusRequest) (*dto.SaleResponse, error) {
	return s.written(s.eng.SetKitchenStatus(id, line, req.Station, req.Status))
}

func (s *saleService) MarkServed(id string, line int) (*dto.SaleResponse, error) {
	return s.written(s.eng.MarkServed(id, line))
}

func (s *saleService) RemoveItem(id string, line int, req dto.RemoveItemRequest) (*dto.SaleResponse, error) {
	return s.written(s.eng.RemoveItem(id, line, req.By))
}

// written reloads a sale right after a write so the response carries its
// pending state.
func (s *saleService) written(sale domain.Sale, err error) (*dto.SaleResponse, error) {
	if err != nil {
		return nil, err
	}
	return s.Get(sale.ID)
}
