package weighing

import (
	"context"
	"testing"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/pkg/lock"
	"github.com/frontandrew/yard/internal/pkg/logger"
	"github.com/frontandrew/yard/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weighingFixture struct {
	svc          *Service
	vehicles     *memory.VehicleRepository
	permits      *memory.PermitRepository
	tasks        *memory.TaskRepository
	visits       *memory.VisitRepository
	requirements *memory.RequirementRepository
	weighings    *memory.WeighingRepository
}

func newWeighingFixture() *weighingFixture {
	vehicles := memory.NewVehicleRepository()
	permits := memory.NewPermitRepository()
	tasks := memory.NewTaskRepository()
	visits := memory.NewVisitRepository(permits)
	requirements := memory.NewRequirementRepository()
	weighings := memory.NewWeighingRepository(requirements)

	svc := NewService(
		requirements,
		weighings,
		visits,
		permits,
		tasks,
		vehicles,
		lock.NewKeyedMutex(),
		logger.NewNoop(),
	)

	return &weighingFixture{
		svc:          svc,
		vehicles:     vehicles,
		permits:      permits,
		tasks:        tasks,
		visits:       visits,
		requirements: requirements,
		weighings:    weighings,
	}
}

// onSiteVisit создает ТС и визит on_site, при необходимости с готовым
// требованием указанного вида
func (f *weighingFixture) onSiteVisit(t *testing.T, category domain.VehicleCategory, reqKind *domain.RequirementKind) (*domain.Visit, *domain.WeighingRequirement) {
	t.Helper()
	ctx := context.Background()

	vehicle := &domain.Vehicle{
		LicensePlate: "A123BC77",
		Category:     category,
		IsActive:     true,
	}
	f.vehicles.Add(vehicle)

	visit := &domain.Visit{
		LicensePlate: vehicle.LicensePlate,
		VehicleID:    &vehicle.ID,
		YardID:       uuid.New(),
		Status:       domain.VisitStatusOnSite,
	}
	require.NoError(t, f.visits.Create(ctx, visit))

	if reqKind == nil {
		return visit, nil
	}

	req := &domain.WeighingRequirement{
		VisitID:   visit.ID,
		VehicleID: vehicle.ID,
		Kind:      *reqKind,
		Reason:    domain.RequirementReasonCategory,
		Status:    domain.RequirementStatusPending,
	}
	require.NoError(t, f.requirements.Create(ctx, req))
	return visit, req
}

func kindPtr(k domain.RequirementKind) *domain.RequirementKind { return &k }

func TestService_EnsureRequirement(t *testing.T) {
	ctx := context.Background()

	t.Run("требование выводится по категории ТС", func(t *testing.T) {
		f := newWeighingFixture()
		visit, _ := f.onSiteVisit(t, domain.CategoryTruck, nil)

		req, err := f.svc.EnsureRequirement(ctx, visit)

		require.NoError(t, err)
		require.NotNil(t, req)
		assert.Equal(t, domain.RequirementKindBoth, req.Kind)
		assert.Equal(t, domain.RequirementReasonCategory, req.Reason)
		assert.Equal(t, domain.RequirementStatusPending, req.Status)
	})

	t.Run("повторный вызов возвращает существующее требование", func(t *testing.T) {
		f := newWeighingFixture()
		visit, _ := f.onSiteVisit(t, domain.CategoryTruck, nil)

		first, err := f.svc.EnsureRequirement(ctx, visit)
		require.NoError(t, err)
		second, err := f.svc.EnsureRequirement(ctx, visit)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("легковому ТС требование не создается", func(t *testing.T) {
		f := newWeighingFixture()
		visit, _ := f.onSiteVisit(t, domain.CategoryCar, nil)

		req, err := f.svc.EnsureRequirement(ctx, visit)

		require.NoError(t, err)
		assert.Nil(t, req)
	})
}

func TestService_RecordWeighing_StateMachine(t *testing.T) {
	ctx := context.Background()
	operator := uuid.New()

	t.Run("entry затем exit завершают требование both", func(t *testing.T) {
		f := newWeighingFixture()
		_, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindBoth))

		entry, err := f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindEntry,
			WeightKg:      12000,
			OperatorID:    operator,
		})
		require.NoError(t, err)
		require.NotNil(t, entry.RequirementID)

		current, err := f.requirements.GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RequirementStatusEntryDone, current.Status)

		_, err = f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindExit,
			WeightKg:      26500,
			OperatorID:    operator,
		})
		require.NoError(t, err)

		current, err = f.requirements.GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RequirementStatusCompleted, current.Status)
	})

	t.Run("повторное entry отклоняется конфликтом", func(t *testing.T) {
		f := newWeighingFixture()
		_, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindBoth))

		_, err := f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindEntry,
			WeightKg:      12000,
			OperatorID:    operator,
		})
		require.NoError(t, err)

		_, err = f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindEntry,
			WeightKg:      12100,
			OperatorID:    operator,
		})
		assert.ErrorIs(t, err, domain.ErrRequirementConflict)
	})

	t.Run("exit до entry на требовании both отклоняется", func(t *testing.T) {
		f := newWeighingFixture()
		_, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindBoth))

		_, err := f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindExit,
			WeightKg:      26500,
			OperatorID:    operator,
		})
		assert.ErrorIs(t, err, domain.ErrRequirementConflict)
	})

	t.Run("exit сразу завершает требование exit-only", func(t *testing.T) {
		f := newWeighingFixture()
		_, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindExit))

		_, err := f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindExit,
			WeightKg:      26500,
			OperatorID:    operator,
		})
		require.NoError(t, err)

		current, err := f.requirements.GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RequirementStatusCompleted, current.Status)
	})

	t.Run("entry завершает требование entry-only", func(t *testing.T) {
		f := newWeighingFixture()
		_, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindEntry))

		_, err := f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindEntry,
			WeightKg:      12000,
			OperatorID:    operator,
		})
		require.NoError(t, err)

		current, err := f.requirements.GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RequirementStatusCompleted, current.Status)
	})

	t.Run("запись против завершенного требования отклоняется", func(t *testing.T) {
		f := newWeighingFixture()
		_, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindEntry))

		_, err := f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindEntry,
			WeightKg:      12000,
			OperatorID:    operator,
		})
		require.NoError(t, err)

		_, err = f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindEntry,
			WeightKg:      12100,
			OperatorID:    operator,
		})
		assert.ErrorIs(t, err, domain.ErrRequirementConflict)
	})
}

func TestService_RecordWeighing_Validation(t *testing.T) {
	ctx := context.Background()
	operator := uuid.New()

	t.Run("неположительный вес отклоняется без изменения состояния", func(t *testing.T) {
		f := newWeighingFixture()
		_, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindBoth))

		_, err := f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindEntry,
			WeightKg:      0,
			OperatorID:    operator,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidWeight)

		current, getErr := f.requirements.GetByID(ctx, req.ID)
		require.NoError(t, getErr)
		assert.Equal(t, domain.RequirementStatusPending, current.Status)
	})

	t.Run("вес выше предела отклоняется", func(t *testing.T) {
		f := newWeighingFixture()
		_, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindBoth))

		_, err := f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindEntry,
			WeightKg:      domain.MaxWeightKg + 1,
			OperatorID:    operator,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidWeight)
	})

	t.Run("взвешивание вне визита on_site отклоняется", func(t *testing.T) {
		f := newWeighingFixture()
		visit, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindBoth))

		visit.Status = domain.VisitStatusDeparted
		require.NoError(t, f.visits.Update(ctx, visit))

		_, err := f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindEntry,
			WeightKg:      12000,
			OperatorID:    operator,
		})
		assert.ErrorIs(t, err, domain.ErrVisitNotOnSite)
	})

	t.Run("запрос без адресата отклоняется", func(t *testing.T) {
		f := newWeighingFixture()

		_, err := f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			Kind:       domain.WeighingKindEntry,
			WeightKg:   12000,
			OperatorID: operator,
		})
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})
}

func TestService_RecordWeighing_Informational(t *testing.T) {
	ctx := context.Background()
	operator := uuid.New()

	t.Run("промежуточное измерение не двигает требование", func(t *testing.T) {
		f := newWeighingFixture()
		visit, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindBoth))

		w, err := f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			VisitID:    &visit.ID,
			Kind:       domain.WeighingKindIntermediate,
			WeightKg:   15000,
			OperatorID: operator,
		})
		require.NoError(t, err)
		assert.Nil(t, w.RequirementID)

		current, err := f.requirements.GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RequirementStatusPending, current.Status)
	})

	t.Run("измерение без требования фиксируется как информационное", func(t *testing.T) {
		f := newWeighingFixture()
		visit, _ := f.onSiteVisit(t, domain.CategoryCar, nil)

		w, err := f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			VisitID:    &visit.ID,
			Kind:       domain.WeighingKindEntry,
			WeightKg:   1800,
			OperatorID: operator,
		})
		require.NoError(t, err)
		assert.Nil(t, w.RequirementID)

		list, err := f.svc.WeighingsForVisit(ctx, visit.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestService_Skip(t *testing.T) {
	ctx := context.Background()
	operator := uuid.New()

	t.Run("пропуск требования с причиной", func(t *testing.T) {
		f := newWeighingFixture()
		_, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindBoth))

		skipped, err := f.svc.Skip(ctx, req.ID, operator, "scale out of service")

		require.NoError(t, err)
		assert.Equal(t, domain.RequirementStatusSkipped, skipped.Status)
		assert.Equal(t, "scale out of service", skipped.SkipReason)
		require.NotNil(t, skipped.SkippedBy)
		assert.Equal(t, operator, *skipped.SkippedBy)
	})

	t.Run("пропуск из entry_done сохраняет причину", func(t *testing.T) {
		f := newWeighingFixture()
		_, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindBoth))

		_, err := f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindEntry,
			WeightKg:      12000,
			OperatorID:    operator,
		})
		require.NoError(t, err)

		skipped, err := f.svc.Skip(ctx, req.ID, operator, "vehicle left via side gate")
		require.NoError(t, err)
		assert.Equal(t, domain.RequirementStatusSkipped, skipped.Status)
	})

	t.Run("без причины отклоняется", func(t *testing.T) {
		f := newWeighingFixture()
		_, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindBoth))

		_, err := f.svc.Skip(ctx, req.ID, operator, "")
		assert.ErrorIs(t, err, domain.ErrSkipReasonRequired)
	})

	t.Run("терминальное требование не пропускается", func(t *testing.T) {
		f := newWeighingFixture()
		_, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindEntry))

		_, err := f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindEntry,
			WeightKg:      12000,
			OperatorID:    operator,
		})
		require.NoError(t, err)

		_, err = f.svc.Skip(ctx, req.ID, operator, "too late")
		assert.ErrorIs(t, err, domain.ErrRequirementConflict)
	})

	t.Run("после пропуска измерения отклоняются", func(t *testing.T) {
		f := newWeighingFixture()
		_, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindBoth))

		_, err := f.svc.Skip(ctx, req.ID, operator, "scale out of service")
		require.NoError(t, err)

		_, err = f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindEntry,
			WeightKg:      12000,
			OperatorID:    operator,
		})
		assert.ErrorIs(t, err, domain.ErrRequirementConflict)
	})
}

func TestService_RequirementDetail_Diff(t *testing.T) {
	ctx := context.Background()
	operator := uuid.New()

	t.Run("разница определена только при обоих измерениях", func(t *testing.T) {
		f := newWeighingFixture()
		visit, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindBoth))

		_, err := f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindEntry,
			WeightKg:      12000,
			OperatorID:    operator,
		})
		require.NoError(t, err)

		detail, err := f.svc.RequirementForVisit(ctx, visit.ID)
		require.NoError(t, err)
		require.NotNil(t, detail.EntryWeighing)
		assert.Nil(t, detail.ExitWeighing)
		assert.Nil(t, detail.DiffKg)

		_, err = f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			RequirementID: &req.ID,
			Kind:          domain.WeighingKindExit,
			WeightKg:      26500,
			OperatorID:    operator,
		})
		require.NoError(t, err)

		detail, err = f.svc.Requirement(ctx, req.ID)
		require.NoError(t, err)
		require.NotNil(t, detail.DiffKg)
		assert.InDelta(t, 14500, *detail.DiffKg, 0.001)
	})

	t.Run("промежуточные измерения не попадают в разницу", func(t *testing.T) {
		f := newWeighingFixture()
		visit, req := f.onSiteVisit(t, domain.CategoryTruck, kindPtr(domain.RequirementKindBoth))

		_, err := f.svc.RecordWeighing(ctx, &RecordWeighingRequest{
			VisitID:    &visit.ID,
			Kind:       domain.WeighingKindIntermediate,
			WeightKg:   20000,
			OperatorID: operator,
		})
		require.NoError(t, err)

		detail, err := f.svc.Requirement(ctx, req.ID)
		require.NoError(t, err)
		assert.Nil(t, detail.EntryWeighing)
		assert.Nil(t, detail.ExitWeighing)
		assert.Nil(t, detail.DiffKg)
	})
}
