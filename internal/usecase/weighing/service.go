package weighing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/pkg/lock"
	"github.com/frontandrew/yard/internal/pkg/logger"
	"github.com/frontandrew/yard/internal/repository"
	"github.com/google/uuid"
)

// RecordWeighingRequest - запрос на фиксацию измерения.
// Измерение адресуется либо требованием, либо визитом
type RecordWeighingRequest struct {
	RequirementID *uuid.UUID          `json:"requirement_id,omitempty"`
	VisitID       *uuid.UUID          `json:"visit_id,omitempty"`
	Kind          domain.WeighingKind `json:"kind"`
	WeightKg      float64             `json:"weight_kg"`
	OperatorID    uuid.UUID           `json:"operator_id"`
	Note          string              `json:"note,omitempty"`
}

// RequirementDetail - требование вместе с засчитанными измерениями.
// DiffKg определен тогда и только тогда, когда есть оба измерения
type RequirementDetail struct {
	Requirement   *domain.WeighingRequirement `json:"requirement"`
	EntryWeighing *domain.Weighing            `json:"entry_weighing,omitempty"`
	ExitWeighing  *domain.Weighing            `json:"exit_weighing,omitempty"`
	DiffKg        *float64                    `json:"diff_kg,omitempty"`
}

// Service содержит бизнес-логику требований и измерений веса
type Service struct {
	requirementRepo repository.RequirementRepository
	weighingRepo    repository.WeighingRepository
	visitRepo       repository.VisitRepository
	permitRepo      repository.PermitRepository
	taskRepo        repository.TaskRepository
	vehicleRepo     repository.VehicleRepository
	locks           *lock.KeyedMutex
	logger          logger.Logger
}

// NewService создает новый экземпляр WeighingService
func NewService(
	requirementRepo repository.RequirementRepository,
	weighingRepo repository.WeighingRepository,
	visitRepo repository.VisitRepository,
	permitRepo repository.PermitRepository,
	taskRepo repository.TaskRepository,
	vehicleRepo repository.VehicleRepository,
	locks *lock.KeyedMutex,
	logger logger.Logger,
) *Service {
	return &Service{
		requirementRepo: requirementRepo,
		weighingRepo:    weighingRepo,
		visitRepo:       visitRepo,
		permitRepo:      permitRepo,
		taskRepo:        taskRepo,
		vehicleRepo:     vehicleRepo,
		locks:           locks,
		logger:          logger,
	}
}

// EnsureRequirement выводит и создает требование взвешивания в момент,
// когда визит становится on_site. Требование выводится один раз:
// повторный вызов возвращает уже существующее
func (s *Service) EnsureRequirement(ctx context.Context, visit *domain.Visit) (*domain.WeighingRequirement, error) {
	if visit.VehicleID == nil {
		return nil, nil
	}

	existing, err := s.requirementRepo.GetByVisitID(ctx, visit.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrRequirementNotFound) {
		return nil, fmt.Errorf("failed to get requirement: %w", err)
	}

	var permit *domain.EntryPermit
	if visit.PermitID != nil {
		permit, err = s.permitRepo.GetByID(ctx, *visit.PermitID)
		if err != nil && !errors.Is(err, domain.ErrPermitNotFound) {
			return nil, fmt.Errorf("failed to get permit: %w", err)
		}
	}

	var task *domain.Task
	if visit.TaskID != nil {
		task, err = s.taskRepo.GetByID(ctx, *visit.TaskID)
		if err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
			return nil, fmt.Errorf("failed to get task: %w", err)
		}
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, *visit.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	spec := DeriveRequirement(permit, task, vehicle)
	if spec == nil {
		s.logger.Debug("No weighing requirement derived", map[string]interface{}{
			"visit_id": visit.ID,
		})
		return nil, nil
	}

	req := &domain.WeighingRequirement{
		VisitID:   visit.ID,
		VehicleID: *visit.VehicleID,
		TaskID:    visit.TaskID,
		Kind:      spec.Kind,
		Reason:    spec.Reason,
		Status:    domain.RequirementStatusPending,
	}

	if err := s.requirementRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create requirement: %w", err)
	}

	s.logger.Info("Weighing requirement created", map[string]interface{}{
		"requirement_id": req.ID,
		"visit_id":       visit.ID,
		"kind":           req.Kind,
		"reason":         req.Reason,
	})

	return req, nil
}

// RecordWeighing фиксирует измерение веса.
// Засчитываемые измерения продвигают статус требования вперед:
// pending -> entry_done -> completed; запись против терминального
// требования отклоняется с конфликтом
func (s *Service) RecordWeighing(ctx context.Context, req *RecordWeighingRequest) (*domain.Weighing, error) {
	if req.RequirementID == nil && req.VisitID == nil {
		return nil, domain.ErrBadRequest
	}

	var requirement *domain.WeighingRequirement
	var visit *domain.Visit
	var err error

	if req.RequirementID != nil {
		requirement, err = s.requirementRepo.GetByID(ctx, *req.RequirementID)
		if err != nil {
			return nil, err
		}
		visit, err = s.visitRepo.GetByID(ctx, requirement.VisitID)
		if err != nil {
			return nil, err
		}
	} else {
		visit, err = s.visitRepo.GetByID(ctx, *req.VisitID)
		if err != nil {
			return nil, err
		}
		requirement, err = s.requirementRepo.GetByVisitID(ctx, visit.ID)
		if err != nil && !errors.Is(err, domain.ErrRequirementNotFound) {
			return nil, err
		}
	}

	if visit.Status != domain.VisitStatusOnSite {
		return nil, domain.ErrVisitNotOnSite
	}
	if visit.VehicleID == nil {
		return nil, domain.ErrVehicleNotFound
	}

	w := &domain.Weighing{
		VisitID:    visit.ID,
		VehicleID:  *visit.VehicleID,
		Kind:       req.Kind,
		WeightKg:   req.WeightKg,
		MeasuredAt: time.Now(),
		OperatorID: req.OperatorID,
		Note:       req.Note,
	}
	// Валидация до любых изменений состояния
	if err := w.Validate(); err != nil {
		return nil, err
	}

	// Измерение не засчитывается: промежуточное, без требования либо
	// такого типа требование не ждет. Фиксируем как информационное
	if !countsToward(requirement, w.Kind) {
		if err := s.weighingRepo.Create(ctx, w); err != nil {
			return nil, fmt.Errorf("failed to create weighing: %w", err)
		}
		return w, nil
	}

	// Засчитываемое измерение: переход статуса требования строго
	// под замком требования, со свежим состоянием
	unlock := s.locks.Lock("requirement:" + requirement.ID.String())
	defer unlock()

	current, err := s.requirementRepo.GetByID(ctx, requirement.ID)
	if err != nil {
		return nil, err
	}

	from, to, err := nextStatus(current, w.Kind)
	if err != nil {
		return nil, err
	}

	w.RequirementID = &current.ID
	if err := s.weighingRepo.CreateCounted(ctx, w, from, to); err != nil {
		return nil, err
	}

	s.logger.Info("Weighing recorded", map[string]interface{}{
		"weighing_id":    w.ID,
		"requirement_id": current.ID,
		"kind":           w.Kind,
		"weight_kg":      w.WeightKg,
		"status":         to,
	})

	return w, nil
}

// Skip переводит требование в skipped по решению оператора.
// Причина обязательна; терминальные требования не пропускаются
func (s *Service) Skip(ctx context.Context, requirementID, operatorID uuid.UUID, reason string) (*domain.WeighingRequirement, error) {
	if reason == "" {
		return nil, domain.ErrSkipReasonRequired
	}

	unlock := s.locks.Lock("requirement:" + requirementID.String())
	defer unlock()

	current, err := s.requirementRepo.GetByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}

	if current.Status.IsTerminal() {
		return nil, domain.ErrRequirementConflict
	}

	if err := s.requirementRepo.Skip(ctx, requirementID, current.Status, reason, operatorID); err != nil {
		return nil, err
	}

	s.logger.Info("Weighing requirement skipped", map[string]interface{}{
		"requirement_id": requirementID,
		"operator_id":    operatorID,
		"reason":         reason,
	})

	return s.requirementRepo.GetByID(ctx, requirementID)
}

// RequirementForVisit возвращает требование визита с засчитанными
// измерениями и разницей весов
func (s *Service) RequirementForVisit(ctx context.Context, visitID uuid.UUID) (*RequirementDetail, error) {
	requirement, err := s.requirementRepo.GetByVisitID(ctx, visitID)
	if err != nil {
		return nil, err
	}

	return s.buildDetail(ctx, requirement)
}

// Requirement возвращает требование по ID с засчитанными измерениями
func (s *Service) Requirement(ctx context.Context, requirementID uuid.UUID) (*RequirementDetail, error) {
	requirement, err := s.requirementRepo.GetByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}

	return s.buildDetail(ctx, requirement)
}

// WeighingsForVisit возвращает все измерения визита
func (s *Service) WeighingsForVisit(ctx context.Context, visitID uuid.UUID) ([]*domain.Weighing, error) {
	return s.weighingRepo.ListByVisit(ctx, visitID)
}

func (s *Service) buildDetail(ctx context.Context, requirement *domain.WeighingRequirement) (*RequirementDetail, error) {
	weighings, err := s.weighingRepo.ListByVisit(ctx, requirement.VisitID)
	if err != nil {
		return nil, err
	}

	detail := &RequirementDetail{Requirement: requirement}
	for _, w := range weighings {
		if w.RequirementID == nil || *w.RequirementID != requirement.ID {
			continue
		}
		switch w.Kind {
		case domain.WeighingKindEntry:
			detail.EntryWeighing = w
		case domain.WeighingKindExit:
			detail.ExitWeighing = w
		}
	}

	// Разница весов определена только при наличии обоих измерений
	if detail.EntryWeighing != nil && detail.ExitWeighing != nil {
		diff := detail.ExitWeighing.WeightKg - detail.EntryWeighing.WeightKg
		detail.DiffKg = &diff
	}

	return detail, nil
}

// countsToward сообщает, засчитывается ли измерение данного типа
// в требование
func countsToward(req *domain.WeighingRequirement, kind domain.WeighingKind) bool {
	if req == nil || kind == domain.WeighingKindIntermediate {
		return false
	}
	switch kind {
	case domain.WeighingKindEntry:
		return req.Kind.IncludesEntry()
	case domain.WeighingKindExit:
		return req.Kind.IncludesExit()
	}
	return false
}

// nextStatus вычисляет переход статуса требования для засчитываемого
// измерения. Статусы движутся только вперед
func nextStatus(req *domain.WeighingRequirement, kind domain.WeighingKind) (from, to domain.RequirementStatus, err error) {
	if req.Status.IsTerminal() {
		return "", "", domain.ErrRequirementConflict
	}

	switch kind {
	case domain.WeighingKindEntry:
		if req.Status != domain.RequirementStatusPending {
			// Въездное измерение уже засчитано
			return "", "", domain.ErrRequirementConflict
		}
		if req.Kind.IncludesExit() {
			return domain.RequirementStatusPending, domain.RequirementStatusEntryDone, nil
		}
		return domain.RequirementStatusPending, domain.RequirementStatusCompleted, nil

	case domain.WeighingKindExit:
		if req.Status == domain.RequirementStatusEntryDone {
			return domain.RequirementStatusEntryDone, domain.RequirementStatusCompleted, nil
		}
		// pending допустим только для требования без въездной части
		if req.Status == domain.RequirementStatusPending && !req.Kind.IncludesEntry() {
			return domain.RequirementStatusPending, domain.RequirementStatusCompleted, nil
		}
		return "", "", domain.ErrRequirementConflict
	}

	return "", "", domain.ErrInvalidWeighingKind
}
