package report

import (
	"context"
	"time"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/pkg/logger"
	"github.com/frontandrew/yard/internal/repository"
	"github.com/google/uuid"
)

// ShiftReport - сводка по смене: три независимых списка визитов.
// Один визит может попасть в несколько списков
type ShiftReport struct {
	YardID      uuid.UUID       `json:"yard_id"`
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	Entered     []*domain.Visit `json:"entered"`
	Exited      []*domain.Visit `json:"exited"`
	OnSiteAtEnd []*domain.Visit `json:"on_site_at_end"`
}

// Service собирает отчеты по журналу визитов
type Service struct {
	visitRepo repository.VisitRepository
	logger    logger.Logger
}

// NewService создает новый экземпляр ReportService
func NewService(visitRepo repository.VisitRepository, logger logger.Logger) *Service {
	return &Service{
		visitRepo: visitRepo,
		logger:    logger,
	}
}

// Shift строит отчет по окну [start, end]:
//   - entered: визиты с въездом внутри окна
//   - exited: визиты с выездом внутри окна
//   - on_site_at_end: въехали не позже end и на момент end не выехали
func (s *Service) Shift(ctx context.Context, yardID uuid.UUID, start, end time.Time) (*ShiftReport, error) {
	if end.Before(start) {
		return nil, domain.ErrInvalidReportWindow
	}

	visits, err := s.visitRepo.ListTouchingWindow(ctx, yardID, start, end)
	if err != nil {
		return nil, err
	}

	rep := &ShiftReport{
		YardID:      yardID,
		Start:       start,
		End:         end,
		Entered:     make([]*domain.Visit, 0),
		Exited:      make([]*domain.Visit, 0),
		OnSiteAtEnd: make([]*domain.Visit, 0),
	}

	for _, v := range visits {
		if inWindow(v.EnteredAt, start, end) {
			rep.Entered = append(rep.Entered, v)
		}
		if v.ExitedAt != nil && inWindow(*v.ExitedAt, start, end) {
			rep.Exited = append(rep.Exited, v)
		}
		if !v.EnteredAt.After(end) && (v.ExitedAt == nil || v.ExitedAt.After(end)) {
			rep.OnSiteAtEnd = append(rep.OnSiteAtEnd, v)
		}
	}

	s.logger.Debug("Shift report built", map[string]interface{}{
		"yard_id": yardID,
		"entered": len(rep.Entered),
		"exited":  len(rep.Exited),
		"on_site": len(rep.OnSiteAtEnd),
	})

	return rep, nil
}

// inWindow проверяет попадание момента в [start, end] включительно
func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
