package service

import (
	"posync/internal/domain"
	"posync/internal/dto"
	"posync/internal/engine"
)

type LedgerEngine interface {
	Expenses() []engine.Tracked[domain.Expense]
	RecordExpense(x domain.Expense) (domain.Expense, error)
	Injections() []engine.Tracked[domain.CashInjection]
	RecordInjection(i domain.CashInjection) (domain.CashInjection, error)
}

// LedgerService covers the two append-only cash ledgers.
type LedgerService interface {
	ListExpenses(date string) dto.ListResponse[dto.LedgerEntryResponse]
	RecordExpense(req dto.RecordExpenseRequest) (*dto.LedgerEntryResponse, error)
	ListInjections(date string) dto.ListResponse[dto.LedgerEntryResponse]
	RecordInjection(req dto.RecordInjectionRequest) (*dto.LedgerEntryResponse, error)
}

type ledgerService struct {
	eng LedgerEngine
}

func NewLedgerService(eng LedgerEngine) LedgerService {
	return &ledgerService{eng: eng}
}

func (s *ledgerService) ListExpenses(date string) dto.ListResponse[dto.LedgerEntryResponse] {
	out := dto.ListResponse[dto.LedgerEntryResponse]{Data: []dto.LedgerEntryResponse{}}
	for _, t := range s.eng.Expenses() {
		if date == "" || t.Record.Date == date {
			out.Data = append(out.Data, toExpenseResponse(t))
		}
	}
	out.Total = len(out.Data)
	return out
}

func (s *ledgerService) RecordExpense(req dto.RecordExpenseRequest) (*dto.LedgerEntryResponse, error) {
	x, err := s.eng.RecordExpense(domain.Expense{
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		Date:        req.Date,
		Time:        req.Time,
		User:        req.User,
	})
	if err != nil {
		return nil, err
	}
	resp := toExpenseResponse(engine.Tracked[domain.Expense]{Record: x, PendingSync: true})
	return &resp, nil
}

func (s *ledgerService) ListInjections(date string) dto.ListResponse[dto.LedgerEntryResponse] {
	out := dto.ListResponse[dto.LedgerEntryResponse]{Data: []dto.LedgerEntryResponse{}}
	for _, t := range s.eng.Injections() {
		if date == "" || t.Record.Date == date {
			out.Data = append(out.Data, toInjectionResponse(t))
		}
	}
	out.Total = len(out.Data)
	return out
}

func (s *ledgerService) RecordInjection(req dto.RecordInjectionRequest) (*dto.LedgerEntryResponse, error) {
	i, err := s.eng.RecordInjection(domain.CashInjection{
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		User:        req.User,
	})
	if err != nil {
		return nil, err
	}
	resp := toInjectionResponse(engine.Tracked[domain.CashInjection]{Record: i, PendingSync: true})
	return &resp, nil
}
