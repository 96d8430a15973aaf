package mapper

import (
	"errors"

	"posync/internal/domain"
	"posync/internal/model"
)

var errMissingID = errors.New("empty id")

func SaleToRemote(s domain.Sale) *model.SaleRow {
	return &model.SaleRow{
		ID:          s.ID,
		StoreID:     s.StoreID,
		Date:        s.Date,
		Time:        s.Time,
		TableNumber: s.TableNumber,
		Waiter:      s.Waiter,
		Total:       s.Total,
		OrderJSON:   encodeJSON(s.Order),
		Type:        string(s.Type),
		Notes:       s.Notes,
		Closed:      s.Closed,
		ClosureID:   s.ClosureID,
		AuditNotes:  encodeJSON(s.AuditNotes),
		CreatedAt:   s.CreatedAt,
		SyncMeta:    model.SyncMeta{Revision: s.Revision},
	}
}

func SaleToDomain(r *model.SaleRow) (domain.Sale, error) {
	if r.ID == "" {
		return domain.Sale{}, &MappingError{Collection: model.TableSales, Field: "id", Err: errMissingID}
	}
	s := domain.Sale{
		ID:          r.ID,
		StoreID:     r.StoreID,
		Date:        r.Date,
		Time:        r.Time,
		TableNumber: r.TableNumber,
		Waiter:      r.Waiter,
		Total:       r.Total,
		Type:        domain.SaleType(r.Type),
		Notes:       r.Notes,
		Closed:      r.Closed,
		ClosureID:   r.ClosureID,
		CreatedAt:   r.CreatedAt,
		Revision:    r.Revision,
	}
	if s.Type == "" {
		s.Type = domain.SaleTypeSale
	}
	if err := decodeJSON(model.TableSales, r.ID, "order_items", r.OrderJSON, &s.Order); err != nil {
		return domain.Sale{}, err
	}
	if err := decodeJSON(model.TableSales, r.ID, "audit_notes", r.AuditNotes, &s.AuditNotes); err != nil {
		return domain.Sale{}, err
	}
	return s, nil
}
