package service

import (
	"posync/internal/domain"
	"posync/internal/dto"
	"posync/internal/engine"
)

type ClosureEngine interface {
	Closures() []engine.Tracked[domain.DayClosure]
	RecordClosure(c domain.DayClosure) (domain.DayClosure, error)
	CloseDay(by string, admin bool) (domain.DayClosure, error)
}

type ClosureService interface {
	List() dto.ListResponse[dto.ClosureResponse]
	Record(req dto.RecordClosureRequest) (*dto.ClosureResponse, error)
	// CloseDay summarizes every sale on the floor and closes them.
	CloseDay(req dto.CloseDayRequest) (*dto.ClosureResponse, error)
}

type closureService struct {
	eng ClosureEngine
}

func NewClosureService(eng ClosureEngine) ClosureService {
	return &closureService{eng: eng}
}

func (s *closureService) List() dto.ListResponse[dto.ClosureResponse] {
	out := dto.ListResponse[dto.ClosureResponse]{Data: []dto.ClosureResponse{}}
	for _, t := range s.eng.Closures() {
		out.Data = append(out.Data, toClosureResponse(t))
	}
	out.Total = len(out.Data)
	return out
}

func (s *closureService) Record(req dto.RecordClosureRequest) (*dto.ClosureResponse, error) {
	reportIDs := req.ReportIDs
	if reportIDs == nil {
		reportIDs = []string{}
	}
	c, err := s.eng.RecordClosure(domain.DayClosure{
		ClosedBy:       req.ClosedBy,
		IsAdminClosure: req.IsAdminClosure,
		TotalPaid:      req.TotalPaid,
		TotalPending:   req.TotalPending,
		TotalVoided:    req.TotalVoided,
		SalesCount:     req.SalesCount,
		ReportIDs:      reportIDs,
	})
	if err != nil {
		return nil, err
	}
	return s.find(c)
}

func (s *closureService) CloseDay(req dto.CloseDayRequest) (*dto.ClosureResponse, error) {
	c, err := s.eng.CloseDay(req.By, req.Admin)
	if err != nil {
		return nil, err
	}
	return s.find(c)
}

func (s *closureService) find(c domain.DayClosure) (*dto.ClosureResponse, error) {
	for _, t := range s.eng.Closures() {
		if t.Record.ID == c.ID {
			resp := toClosureResponse(t)
			return &resp, nil
		}
	}
	// confirmed and dropped by a concurrent purge
	resp := toClosureResponse(engine.Tracked[domain.DayClosure]{Record: c})
	return &resp, nil
}
