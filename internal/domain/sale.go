package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Notes markers. Any other non-empty notes value is the payment method of a paid sale.
const (
	NotesPending = "PENDIENTE"
	NotesVoided  = "ANULADO"
)

// SaleType: "sale" | "refund"
type SaleType string

const (
	SaleTypeSale   SaleType = "sale"
	SaleTypeRefund SaleType = "refund"
)

// SaleStatus is derived from notes + closed + type; it is never stored.
type SaleStatus string

const (
	StatusOpen   SaleStatus = "open"
	StatusPaid   SaleStatus = "paid"
	StatusVoided SaleStatus = "voided"
)

// Kitchen station statuses used in OrderItem.KitchenStatus.
const (
	KitchenPending   = "pending"
	KitchenPreparing = "preparing"
	KitchenReady     = "ready"
)

var ErrInvalidLine = errors.New("linea de pedido inexistente")

// SelectedModifier is one option chosen from a modifier group.
type SelectedModifier struct {
	Group  string          `json:"group"`
	Option string          `json:"option"`
	Price  decimal.Decimal `json:"price"`
}

// PizzaConfig describes a split pizza: size plus one flavor per half.
type PizzaConfig struct {
	Size      string   `json:"size"`
	LeftHalf  string   `json:"leftHalf,omitempty"`
	RightHalf string   `json:"rightHalf,omitempty"`
	Extras    []string `json:"extras,omitempty"`
}

// OrderItem is a single line of a ticket.
type OrderItem struct {
	Name      string             `json:"name"`
	Price     decimal.Decimal    `json:"price"`
	Quantity  int                `json:"quantity"`
	Modifiers []SelectedModifier `json:"modifiers,omitempty"`
	Pizza     *PizzaConfig       `json:"pizza,omitempty"`
	// KitchenStatus maps station name → status
	KitchenStatus map[string]string `json:"kitchenStatus,omitempty"`
	Served        *bool             `json:"served,omitempty"`
}

// LineTotal is (unit price + modifiers) × quantity.
func (it OrderItem) LineTotal() decimal.Decimal {
	unit := it.Price
	for _, m := range it.Modifiers {
		unit = unit.Add(m.Price)
	}
	return unit.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Sale is a single order/ticket.
type Sale struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"storeId"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	TableNumber int             `json:"tableNumber"` // 0 = ticket mode
	Waiter      string          `json:"waiter"`
	Total       decimal.Decimal `json:"total"`
	Order       []OrderItem     `json:"order"`
	Type        SaleType        `json:"type"`
	Notes       string          `json:"notes"`
	Closed      bool            `json:"closed"`
	ClosureID   *string         `json:"closureId,omitempty"`
	AuditNotes  []string        `json:"auditNotes,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	Revision    int64           `json:"revision"`
}

func (s Sale) RecordID() string      { return s.ID }
func (s Sale) RecordRevision() int64 { return s.Revision }

// NewSale builds an open ticket stamped with the local date/time.
func NewSale(storeID, waiter string, table int, items []OrderItem, now time.Time) Sale {
	s := Sale{
		ID:          uuid.NewString(),
		StoreID:     storeID,
		Date:        now.Format("2006-01-02"),
		Time:        now.Format("15:04"),
		TableNumber: table,
		Waiter:      waiter,
		Order:       items,
		Type:        SaleTypeSale,
		Notes:       NotesPending,
		CreatedAt:   now.UTC(),
	}
	s.Total = s.ComputeTotal()
	return s
}

// Status is read from notes alone. Closed only marks a sale as archived by a
// day closure, and a refund type only flips the sign of the total.
func (s Sale) Status() SaleStatus {
	switch s.Notes {
	case NotesVoided:
		return StatusVoided
	case NotesPending, "":
		return StatusOpen
	default:
		return StatusPaid
	}
}

func (s Sale) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Order {
		total = total.Add(it.LineTotal())
	}
	if s.Type == SaleTypeRefund {
		return total.Neg()
	}
	return total
}

// Clone deep-copies the mutable parts so intents never alias engine state.
func (s Sale) Clone() Sale {
	c := s
	if s.ClosureID != nil {
		id := *s.ClosureID
		c.ClosureID = &id
	}
	c.AuditNotes = append([]string(nil), s.AuditNotes...)
	c.Order = make([]OrderItem, len(s.Order))
	for i, it := range s.Order {
		cp := it
		cp.Modifiers = append([]SelectedModifier(nil), it.Modifiers...)
		if it.Pizza != nil {
			p := *it.Pizza
			p.Extras = append([]string(nil), it.Pizza.Extras...)
			cp.Pizza = &p
		}
		if it.KitchenStatus != nil {
			cp.KitchenStatus = make(map[string]string, len(it.KitchenStatus))
			for k, v := range it.KitchenStatus {
				cp.KitchenStatus[k] = v
			}
		}
		if it.Served != nil {
			v := *it.Served
			cp.Served = &v
		}
		c.Order[i] = cp
	}
	if s.Order == nil {
		c.Order = nil
	}
	return c
}

func (s *Sale) audit(now time.Time, by, action string) {
	s.AuditNotes = append(s.AuditNotes, fmt.Sprintf("%s %s: %s", now.UTC().Format(time.RFC3339), by, action))
}

// Void marks the ticket ANULADO.
func (s *Sale) Void(now time.Time, by, reason string) {
	s.Notes = NotesVoided
	s.audit(now, by, "anulado: "+reason)
}

// Pay records the payment method as the notes value.
func (s *Sale) Pay(now time.Time, method, by string) {
	s.Notes = method
	s.audit(now, by, "cobrado "+method)
}

// Reopen returns a paid or voided ticket to the live floor.
func (s *Sale) Reopen(now time.Time, by string) {
	s.Notes = NotesPending
	s.Closed = false
	s.ClosureID = nil
	s.audit(now, by, "reabierto")
}

func (s *Sale) SetKitchenStatus(line int, station, status string) error {
	if line < 0 || line >= len(s.Order) {
		return ErrInvalidLine
	}
	if s.Order[line].KitchenStatus == nil {
		s.Order[line].KitchenStatus = make(map[string]string)
	}
	s.Order[line].KitchenStatus[station] = status
	return nil
}

func (s *Sale) MarkServed(line int) error {
	if line < 0 || line >= len(s.Order) {
		return ErrInvalidLine
	}
	served := true
	s.Order[line].Served = &served
	return nil
}

// RemoveItem drops a line and recomputes the total.
func (s *Sale) RemoveItem(now time.Time, line int, by string) error {
	if line < 0 || line >= len(s.Order) {
		return ErrInvalidLine
	}
	name := s.Order[line].Name
	s.Order = append(s.Order[:line], s.Order[line+1:]...)
	s.Total = s.ComputeTotal()
	s.audit(now, by, "eliminado "+name)
	return nil
}
