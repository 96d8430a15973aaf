package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DayClosure is the immutable summary produced when a shift ends.
type DayClosure struct {
	ID             string          `json:"id"`
	StoreID        string          `json:"storeId"`
	Date           string          `json:"date"`
	ClosedAt       time.Time       `json:"closedAt"`
	ClosedBy       string          `json:"closedBy"`
	IsAdminClosure bool            `json:"isAdminClosure"`
	TotalPaid      decimal.Decimal `json:"totalPaid"`
	TotalPending   decimal.Decimal `json:"totalPending"`
	TotalVoided    decimal.Decimal `json:"totalVoided"`
	SalesCount     int             `json:"salesCount"`
	ReportIDs      []string        `json:"reportIds"`
	Revision       int64           `json:"revision"`
}

func (c DayClosure) RecordID() string      { return c.ID }
func (c DayClosure) RecordRevision() int64 { return c.Revision }

// SummarizeDay builds the closure over every sale that is still on the floor.
func SummarizeDay(storeID, by string, admin bool, sales []Sale, now time.Time) DayClosure {
	c := DayClosure{
		ID:             uuid.NewString(),
		StoreID:        storeID,
		Date:           now.Format("2006-01-02"),
		ClosedAt:       now.UTC(),
		ClosedBy:       by,
		IsAdminClosure: admin,
		TotalPaid:      decimal.Zero,
		TotalPending:   decimal.Zero,
		TotalVoided:    decimal.Zero,
		ReportIDs:      []string{},
	}
	for _, s := range sales {
		if s.Closed {
			continue
		}
		switch s.Status() {
		case StatusPaid:
			c.TotalPaid = c.TotalPaid.Add(s.Total)
		case StatusVoided:
			c.TotalVoided = c.TotalVoided.Add(s.Total)
		default:
			c.TotalPending = c.TotalPending.Add(s.Total)
		}
		c.SalesCount++
		c.ReportIDs = append(c.ReportIDs, s.ID)
	}
	return c
}

// Expense is a flat, immutable ledger entry.
type Expense struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"storeId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    *string         `json:"category,omitempty"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	User        string          `json:"user"`
	Revision    int64           `json:"revision"`
}

func (e Expense) RecordID() string      { return e.ID }
func (e Expense) RecordRevision() int64 { return e.Revision }

// CashInjection is money put into the drawer (change float, owner top-up).
type CashInjection struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"storeId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	User        string          `json:"user"`
	Revision    int64           `json:"revision"`
}

func (i CashInjection) RecordID() string      { return i.ID }
func (i CashInjection) RecordRevision() int64 { return i.Revision }
