package visit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/pkg/lock"
	"github.com/frontandrew/yard/internal/pkg/logger"
	"github.com/frontandrew/yard/internal/pkg/platematch"
	"github.com/frontandrew/yard/internal/repository"
	"github.com/frontandrew/yard/internal/usecase/weighing"
	"github.com/google/uuid"
)

// DefaultRejectReason используется, когда оператор отклонил визит
// без указания причины
const DefaultRejectReason = "false positive"

// ConfirmRequest - разрешение ожидающего визита оператором
type ConfirmRequest struct {
	VisitID        uuid.UUID  `json:"visit_id"`
	VehicleID      uuid.UUID  `json:"vehicle_id"`
	TaskID         *uuid.UUID `json:"task_id,omitempty"`
	PermitID       *uuid.UUID `json:"permit_id,omitempty"`
	CorrectedPlate string     `json:"corrected_plate,omitempty"`
	OperatorID     uuid.UUID  `json:"operator_id"`
}

// Detail - визит вместе с требованием взвешивания и измерениями
type Detail struct {
	Visit       *domain.Visit               `json:"visit"`
	Requirement *weighing.RequirementDetail `json:"requirement,omitempty"`
	Weighings   []*domain.Weighing          `json:"weighings,omitempty"`
}

// Service владеет жизненным циклом визита:
// pending_confirmation -> {on_site, rejected}; on_site -> departed
type Service struct {
	visitRepo   repository.VisitRepository
	vehicleRepo repository.VehicleRepository
	permitRepo  repository.PermitRepository
	taskRepo    repository.TaskRepository
	yardRepo    repository.YardRepository
	weighingSvc *weighing.Service
	locks       *lock.KeyedMutex
	logger      logger.Logger
}

// NewService создает новый экземпляр VisitService
func NewService(
	visitRepo repository.VisitRepository,
	vehicleRepo repository.VehicleRepository,
	permitRepo repository.PermitRepository,
	taskRepo repository.TaskRepository,
	yardRepo repository.YardRepository,
	weighingSvc *weighing.Service,
	locks *lock.KeyedMutex,
	logger logger.Logger,
) *Service {
	return &Service{
		visitRepo:   visitRepo,
		vehicleRepo: vehicleRepo,
		permitRepo:  permitRepo,
		taskRepo:    taskRepo,
		yardRepo:    yardRepo,
		weighingSvc: weighingSvc,
		locks:       locks,
		logger:      logger,
	}
}

// Confirm разрешает ожидающий визит: оператор указывает ТС и при
// необходимости задание, пропуск и исправленный номер. Проверка
// пропуска выполняется заново; если строгий режим по-прежнему
// блокирует допуск - возвращается ErrPermitRequired, визит не меняется
func (s *Service) Confirm(ctx context.Context, req *ConfirmRequest) (*domain.Visit, error) {
	if req.VehicleID == uuid.Nil {
		return nil, domain.ErrInvalidVisitData
	}

	v, err := s.visitRepo.GetByID(ctx, req.VisitID)
	if err != nil {
		return nil, err
	}
	if v.Status != domain.VisitStatusPendingConfirmation {
		return nil, domain.ErrVisitNotPending
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(admitKey(vehicle.ID, v.YardID))
	defer unlock()

	if _, err := s.visitRepo.GetActiveByVehicleAndYard(ctx, vehicle.ID, v.YardID); err == nil {
		return nil, domain.ErrVehicleAlreadyOnSite
	} else if !errors.Is(err, domain.ErrNoActiveVisit) {
		return nil, fmt.Errorf("failed to check active visit: %w", err)
	}

	strict, err := s.yardRepo.IsStrict(ctx, v.YardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get yard policy: %w", err)
	}

	permit, err := s.resolvePermit(ctx, req, vehicle.ID, v.YardID)
	if err != nil {
		return nil, err
	}

	// Строгий режим: подтверждение без пропуска не превращается
	// в тихий допуск
	if strict && permit == nil {
		return nil, domain.ErrPermitRequired
	}

	v.VehicleID = &vehicle.ID
	v.PendingReason = domain.PendingReasonNone
	v.Status = domain.VisitStatusOnSite
	if req.CorrectedPlate != "" {
		v.LicensePlate = platematch.Normalize(req.CorrectedPlate)
	}

	v.TaskID = req.TaskID
	if v.TaskID == nil && permit != nil {
		v.TaskID = permit.TaskID
	}

	var consumePermitID *uuid.UUID
	if permit != nil {
		v.PermitID = &permit.ID
		if permit.SingleUse {
			consumePermitID = &permit.ID
		}
	}

	if err := v.Validate(); err != nil {
		return nil, err
	}

	if err := s.visitRepo.UpdateAdmitted(ctx, v, consumePermitID); err != nil {
		return nil, err
	}

	s.logger.Info("Visit confirmed", map[string]interface{}{
		"visit_id":    v.ID,
		"vehicle_id":  vehicle.ID,
		"operator_id": req.OperatorID,
		"permit_id":   v.PermitID,
	})

	// Сопровождающие эффекты не отменяют состоявшееся подтверждение
	if err := s.vehicleRepo.TouchLastSeen(ctx, vehicle.ID, time.Now()); err != nil {
		s.logger.Warn("Failed to update vehicle last seen", map[string]interface{}{
			"vehicle_id": vehicle.ID,
			"error":      err.Error(),
		})
	}

	if v.TaskID != nil {
		if err := s.taskRepo.OnVisitConfirmed(ctx, *v.TaskID, v.ID); err != nil {
			s.logger.Warn("Failed to notify task about arrival", map[string]interface{}{
				"task_id": *v.TaskID,
				"error":   err.Error(),
			})
		}
	}

	if _, err := s.weighingSvc.EnsureRequirement(ctx, v); err != nil {
		s.logger.Error("Failed to derive weighing requirement", map[string]interface{}{
			"visit_id": v.ID,
			"error":    err.Error(),
		})
	}

	return v, nil
}

// Reject отклоняет ожидающий визит. ТС на территорию не попадает,
// запись остается в журнале со статусом rejected
func (s *Service) Reject(ctx context.Context, visitID uuid.UUID, reason string, operatorID uuid.UUID) (*domain.Visit, error) {
	v, err := s.visitRepo.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if v.Status != domain.VisitStatusPendingConfirmation {
		return nil, domain.ErrVisitNotPending
	}

	if reason == "" {
		reason = DefaultRejectReason
	}

	v.Status = domain.VisitStatusRejected
	v.RejectReason = reason

	if err := s.visitRepo.Update(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("Visit rejected", map[string]interface{}{
		"visit_id":    v.ID,
		"reason":      reason,
		"operator_id": operatorID,
	})

	return v, nil
}

// RecordDeparture фиксирует выезд: находит единственный визит on_site
// для пары (ТС, площадка), ставит время выезда и статус departed.
// Если активного визита нет - ErrNoActiveVisit
func (s *Service) RecordDeparture(ctx context.Context, vehicleID, yardID uuid.UUID) (*domain.Visit, error) {
	unlock := s.locks.Lock(admitKey(vehicleID, yardID))
	defer unlock()

	v, err := s.visitRepo.GetActiveByVehicleAndYard(ctx, vehicleID, yardID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	v.ExitedAt = &now
	v.Status = domain.VisitStatusDeparted

	if err := s.visitRepo.Update(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("Vehicle departed", map[string]interface{}{
		"visit_id":   v.ID,
		"vehicle_id": vehicleID,
		"yard_id":    yardID,
	})

	if v.TaskID != nil {
		if err := s.taskRepo.OnVisitDeparted(ctx, *v.TaskID); err != nil {
			s.logger.Warn("Failed to notify task about departure", map[string]interface{}{
				"task_id": *v.TaskID,
				"error":   err.Error(),
			})
		}
	}

	return v, nil
}

// Get возвращает визит с требованием взвешивания и измерениями
func (s *Service) Get(ctx context.Context, visitID uuid.UUID) (*Detail, error) {
	v, err := s.visitRepo.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}

	detail := &Detail{Visit: v}

	requirement, err := s.weighingSvc.RequirementForVisit(ctx, visitID)
	if err != nil && !errors.Is(err, domain.ErrRequirementNotFound) {
		return nil, err
	}
	detail.Requirement = requirement

	weighings, err := s.weighingSvc.WeighingsForVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	detail.Weighings = weighings

	return detail, nil
}

// ListByYard возвращает визиты площадки с пагинацией
func (s *Service) ListByYard(ctx context.Context, yardID uuid.UUID, limit, offset int) ([]*domain.Visit, error) {
	return s.visitRepo.ListByYard(ctx, yardID, limit, offset)
}

// resolvePermit выбирает пропуск для подтверждения: явно указанный
// оператором проверяется на принадлежность и действие, иначе берется
// наиболее подходящий действующий
func (s *Service) resolvePermit(ctx context.Context, req *ConfirmRequest, vehicleID, yardID uuid.UUID) (*domain.EntryPermit, error) {
	now := time.Now()

	if req.PermitID != nil {
		permit, err := s.permitRepo.GetByID(ctx, *req.PermitID)
		if err != nil {
			return nil, err
		}
		if permit.VehicleID != vehicleID || permit.YardID != yardID || !permit.Covers(now) {
			return nil, domain.ErrPermitNotCovering
		}
		return permit, nil
	}

	permits, err := s.permitRepo.FindCovering(ctx, vehicleID, yardID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to find covering permit: %w", err)
	}
	if len(permits) == 0 {
		return nil, nil
	}
	return permits[0], nil
}

func admitKey(vehicleID, yardID uuid.UUID) string {
	return "admit:" + vehicleID.String() + ":" + yardID.String()
}
