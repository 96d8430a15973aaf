package mapper

import (
	"posync/internal/domain"
	"posync/internal/model"
)

func ClosureToRemote(c domain.DayClosure) *model.DayClosureRow {
	return &model.DayClosureRow{
		ID:             c.ID,
		StoreID:        c.StoreID,
		Date:           c.Date,
		ClosedAt:       c.ClosedAt,
		ClosedBy:       c.ClosedBy,
		IsAdminClosure: c.IsAdminClosure,
		TotalPaid:      c.TotalPaid,
		TotalPending:   c.TotalPending,
		TotalVoided:    c.TotalVoided,
		SalesCount:     c.SalesCount,
		ReportIDs:      encodeJSON(c.ReportIDs),
		SyncMeta:       model.SyncMeta{Revision: c.Revision},
	}
}

func ClosureToDomain(r *model.DayClosureRow) (domain.DayClosure, error) {
	if r.ID == "" {
		return domain.DayClosure{}, &MappingError{Collection: model.TableDayClosures, Field: "id", Err: errMissingID}
	}
	c := domain.DayClosure{
		ID:             r.ID,
		StoreID:        r.StoreID,
		Date:           r.Date,
		ClosedAt:       r.ClosedAt,
		ClosedBy:       r.ClosedBy,
		IsAdminClosure: r.IsAdminClosure,
		TotalPaid:      r.TotalPaid,
		TotalPending:   r.TotalPending,
		TotalVoided:    r.TotalVoided,
		SalesCount:     r.SalesCount,
		Revision:       r.Revision,
	}
	if err := decodeJSON(model.TableDayClosures, r.ID, "report_ids", r.ReportIDs, &c.ReportIDs); err != nil {
		return domain.DayClosure{}, err
	}
	return c, nil
}

func ExpenseToRemote(e domain.Expense) *model.ExpenseRow {
	return &model.ExpenseRow{
		ID:          e.ID,
		StoreID:     e.StoreID,
		Amount:      e.Amount,
		Description: e.Description,
		Category:    e.Category,
		Date:        e.Date,
		Time:        e.Time,
		User:        e.User,
		SyncMeta:    model.SyncMeta{Revision: e.Revision},
	}
}

func ExpenseToDomain(r *model.ExpenseRow) (domain.Expense, error) {
	if r.ID == "" {
		return domain.Expense{}, &MappingError{Collection: model.TableExpenses, Field: "id", Err: errMissingID}
	}
	return domain.Expense{
		ID:          r.ID,
		StoreID:     r.StoreID,
		Amount:      r.Amount,
		Description: r.Description,
		Category:    r.Category,
		Date:        r.Date,
		Time:        r.Time,
		User:        r.User,
		Revision:    r.Revision,
	}, nil
}

func InjectionToRemote(i domain.CashInjection) *model.CashInjectionRow {
	return &model.CashInjectionRow{
		ID:          i.ID,
		StoreID:     i.StoreID,
		Amount:      i.Amount,
		Description: i.Description,
		Date:        i.Date,
		Time:        i.Time,
		User:        i.User,
		SyncMeta:    model.SyncMeta{Revision: i.Revision},
	}
}

func InjectionToDomain(r *model.CashInjectionRow) (domain.CashInjection, error) {
	if r.ID == "" {
		return domain.CashInjection{}, &MappingError{Collection: model.TableCashInjections, Field: "id", Err: errMissingID}
	}
	return domain.CashInjection{
		ID:          r.ID,
		StoreID:     r.StoreID,
		Amount:      r.Amount,
		Description: r.Description,
		Date:        r.Date,
		Time:        r.Time,
		User:        r.User,
		Revision:    r.Revision,
	}, nil
}
