package report

import (
	"context"
	"testing"
	"time"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/pkg/logger"
	"github.com/frontandrew/yard/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addVisit(t *testing.T, repo *memory.VisitRepository, yardID uuid.UUID, enteredAt time.Time, exitedAt *time.Time) *domain.Visit {
	t.Helper()
	vehicleID := uuid.New()
	status := domain.VisitStatusOnSite
	if exitedAt != nil {
		status = domain.VisitStatusDeparted
	}
	v := &domain.Visit{
		LicensePlate: "A123BC77",
		VehicleID:    &vehicleID,
		YardID:       yardID,
		EnteredAt:    enteredAt,
		ExitedAt:     exitedAt,
		Status:       status,
	}
	require.NoError(t, repo.Create(context.Background(), v))
	return v
}

func timePtr(t time.Time) *time.Time { return &t }

func TestService_Shift(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	t.Run("три списка независимы, визит может попасть в несколько", func(t *testing.T) {
		visits := memory.NewVisitRepository(nil)
		svc := NewService(visits, logger.NewNoop())
		yardID := uuid.New()

		// Въехал в 09:00, выехал в 11:00
		crossing := addVisit(t, visits, yardID, at(9, 0), timePtr(at(11, 0)))

		// Окно 08:00-10:00: визит въехал внутри окна и на его конец еще на территории
		rep, err := svc.Shift(ctx, yardID, at(8, 0), at(10, 0))
		require.NoError(t, err)
		require.Len(t, rep.Entered, 1)
		assert.Equal(t, crossing.ID, rep.Entered[0].ID)
		assert.Empty(t, rep.Exited)
		require.Len(t, rep.OnSiteAtEnd, 1)
		assert.Equal(t, crossing.ID, rep.OnSiteAtEnd[0].ID)

		// Окно 10:30-12:00: только выезд
		rep, err = svc.Shift(ctx, yardID, at(10, 30), at(12, 0))
		require.NoError(t, err)
		assert.Empty(t, rep.Entered)
		require.Len(t, rep.Exited, 1)
		assert.Equal(t, crossing.ID, rep.Exited[0].ID)
		assert.Empty(t, rep.OnSiteAtEnd)
	})

	t.Run("въезд и выезд внутри одного окна", func(t *testing.T) {
		visits := memory.NewVisitRepository(nil)
		svc := NewService(visits, logger.NewNoop())
		yardID := uuid.New()

		v := addVisit(t, visits, yardID, at(9, 0), timePtr(at(9, 45)))

		rep, err := svc.Shift(ctx, yardID, at(8, 0), at(10, 0))
		require.NoError(t, err)
		require.Len(t, rep.Entered, 1)
		require.Len(t, rep.Exited, 1)
		assert.Equal(t, v.ID, rep.Entered[0].ID)
		assert.Equal(t, v.ID, rep.Exited[0].ID)
		assert.Empty(t, rep.OnSiteAtEnd)
	})

	t.Run("въехал до окна и не выехал - только on_site_at_end", func(t *testing.T) {
		visits := memory.NewVisitRepository(nil)
		svc := NewService(visits, logger.NewNoop())
		yardID := uuid.New()

		v := addVisit(t, visits, yardID, at(6, 0), nil)

		rep, err := svc.Shift(ctx, yardID, at(8, 0), at(10, 0))
		require.NoError(t, err)
		assert.Empty(t, rep.Entered)
		assert.Empty(t, rep.Exited)
		require.Len(t, rep.OnSiteAtEnd, 1)
		assert.Equal(t, v.ID, rep.OnSiteAtEnd[0].ID)
	})

	t.Run("визиты вне окна не попадают в отчет", func(t *testing.T) {
		visits := memory.NewVisitRepository(nil)
		svc := NewService(visits, logger.NewNoop())
		yardID := uuid.New()

		// Полностью до окна
		addVisit(t, visits, yardID, at(5, 0), timePtr(at(6, 0)))
		// Полностью после окна
		addVisit(t, visits, yardID, at(14, 0), timePtr(at(15, 0)))

		rep, err := svc.Shift(ctx, yardID, at(8, 0), at(10, 0))
		require.NoError(t, err)
		assert.Empty(t, rep.Entered)
		assert.Empty(t, rep.Exited)
		assert.Empty(t, rep.OnSiteAtEnd)
	})

	t.Run("чужая площадка не попадает в отчет", func(t *testing.T) {
		visits := memory.NewVisitRepository(nil)
		svc := NewService(visits, logger.NewNoop())
		yardID := uuid.New()

		addVisit(t, visits, uuid.New(), at(9, 0), nil)

		rep, err := svc.Shift(ctx, yardID, at(8, 0), at(10, 0))
		require.NoError(t, err)
		assert.Empty(t, rep.Entered)
		assert.Empty(t, rep.OnSiteAtEnd)
	})

	t.Run("границы окна включительны", func(t *testing.T) {
		visits := memory.NewVisitRepository(nil)
		svc := NewService(visits, logger.NewNoop())
		yardID := uuid.New()

		v := addVisit(t, visits, yardID, at(8, 0), timePtr(at(10, 0)))

		rep, err := svc.Shift(ctx, yardID, at(8, 0), at(10, 0))
		require.NoError(t, err)
		require.Len(t, rep.Entered, 1)
		require.Len(t, rep.Exited, 1)
		assert.Equal(t, v.ID, rep.Entered[0].ID)
		// Выехал ровно в конец окна - на момент end уже не на территории
		assert.Empty(t, rep.OnSiteAtEnd)
	})

	t.Run("окно с концом раньше начала отклоняется", func(t *testing.T) {
		visits := memory.NewVisitRepository(nil)
		svc := NewService(visits, logger.NewNoop())

		_, err := svc.Shift(ctx, uuid.New(), at(10, 0), at(8, 0))
		assert.ErrorIs(t, err, domain.ErrInvalidReportWindow)
	})

	t.Run("мгновенное окно start == end допустимо", func(t *testing.T) {
		visits := memory.NewVisitRepository(nil)
		svc := NewService(visits, logger.NewNoop())
		yardID := uuid.New()

		// Въехал ровно в момент окна, еще на территории
		onSite := addVisit(t, visits, yardID, at(10, 0), nil)
		// Выехал ровно в момент окна
		exited := addVisit(t, visits, yardID, at(9, 0), timePtr(at(10, 0)))

		rep, err := svc.Shift(ctx, yardID, at(10, 0), at(10, 0))
		require.NoError(t, err)
		require.Len(t, rep.Entered, 1)
		assert.Equal(t, onSite.ID, rep.Entered[0].ID)
		require.Len(t, rep.Exited, 1)
		assert.Equal(t, exited.ID, rep.Exited[0].ID)
		require.Len(t, rep.OnSiteAtEnd, 1)
		assert.Equal(t, onSite.ID, rep.OnSiteAtEnd[0].ID)
	})
}
