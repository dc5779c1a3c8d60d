package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/pkg/config"
	"github.com/frontandrew/yard/internal/pkg/lock"
	"github.com/frontandrew/yard/internal/pkg/logger"
	"github.com/frontandrew/yard/internal/pkg/platematch"
	"github.com/frontandrew/yard/internal/repository"
	"github.com/frontandrew/yard/internal/usecase/weighing"
	"github.com/google/uuid"
)

// RecognitionEvent - событие идентификации ТС на КПП
type RecognitionEvent struct {
	Plate        string    `json:"plate"`
	YardID       uuid.UUID `json:"yard_id"`
	CheckpointID string    `json:"checkpoint_id"`
	// Confidence - уверенность распознавания 0-100;
	// nil для ручного ввода оператором (трактуется как 100)
	Confidence *float64  `json:"confidence,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// CandidateSource - откуда взялся кандидат
type CandidateSource string

const (
	CandidateSourceSimilar  CandidateSource = "similar"  // Похожий номер в реестре
	CandidateSourceExpected CandidateSource = "expected" // Ожидается по заданию
)

// Candidate - вариант для ручного разрешения оператором
type Candidate struct {
	Vehicle    *domain.Vehicle `json:"vehicle"`
	Similarity int             `json:"similarity"`
	Source     CandidateSource `json:"source"`
}

// Result - итог обработки события: визит со статусом-решением
// и список кандидатов, если решение отдано оператору
type Result struct {
	Visit      *domain.Visit       `json:"visit"`
	Vehicle    *domain.Vehicle     `json:"vehicle,omitempty"`
	Permit     *domain.EntryPermit `json:"permit,omitempty"`
	Candidates []*Candidate        `json:"candidates,omitempty"`
}

// Service - резолвер допуска: превращает шумное событие идентификации
// в решение допустить / отдать оператору / отклонить
type Service struct {
	vehicleRepo repository.VehicleRepository
	permitRepo  repository.PermitRepository
	visitRepo   repository.VisitRepository
	taskRepo    repository.TaskRepository
	yardRepo    repository.YardRepository
	weighingSvc *weighing.Service
	locks       *lock.KeyedMutex
	logger      logger.Logger
	cfg         config.AdmissionConfig
}

// NewService создает новый экземпляр AdmissionService
func NewService(
	vehicleRepo repository.VehicleRepository,
	permitRepo repository.PermitRepository,
	visitRepo repository.VisitRepository,
	taskRepo repository.TaskRepository,
	yardRepo repository.YardRepository,
	weighingSvc *weighing.Service,
	locks *lock.KeyedMutex,
	logger logger.Logger,
	cfg config.AdmissionConfig,
) *Service {
	return &Service{
		vehicleRepo: vehicleRepo,
		permitRepo:  permitRepo,
		visitRepo:   visitRepo,
		taskRepo:    taskRepo,
		yardRepo:    yardRepo,
		weighingSvc: weighingSvc,
		locks:       locks,
		logger:      logger,
		cfg:         cfg,
	}
}

// SubmitRecognition - КЛЮЧЕВОЙ МЕТОД системы.
// Шаги: нормализация номера -> точное совпадение в реестре ->
// проверка порога уверенности -> подбор пропуска -> решение:
// допуск (on_site) либо ожидание оператора (pending_confirmation)
// с ранжированным списком кандидатов
func (s *Service) SubmitRecognition(ctx context.Context, event *RecognitionEvent) (*Result, error) {
	plate := platematch.Normalize(event.Plate)
	if len(plate) < 4 || len(plate) > 20 {
		return nil, domain.ErrInvalidLicensePlate
	}
	if event.YardID == uuid.Nil {
		return nil, domain.ErrInvalidVisitData
	}

	at := event.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	// Ручной ввод оператора приходит без уверенности - считаем 100
	confidence := 100.0
	if event.Confidence != nil {
		if *event.Confidence < 0 || *event.Confidence > 100 {
			return nil, domain.ErrInvalidVisitData
		}
		confidence = *event.Confidence
	}

	s.logger.Info("Recognition event received", map[string]interface{}{
		"plate":      plate,
		"yard_id":    event.YardID,
		"checkpoint": event.CheckpointID,
		"confidence": confidence,
	})

	vehicle, err := s.vehicleRepo.FindExact(ctx, plate)
	if err != nil && !errors.Is(err, domain.ErrVehicleNotFound) {
		return nil, fmt.Errorf("failed to look up vehicle: %w", err)
	}

	// Нет точного совпадения либо уверенность ниже порога -
	// решение отдается оператору вместе со списком кандидатов
	if vehicle == nil || confidence < s.cfg.MinConfidence {
		reason := domain.PendingReasonLowConfidence
		if vehicle == nil {
			reason = domain.PendingReasonVehicleNotFound
		}
		return s.hold(ctx, event, plate, at, confidence, nil, reason, true)
	}

	// ТС распознано однозначно: допуск сериализуется по паре (ТС, площадка)
	unlock := s.locks.Lock(admitKey(vehicle.ID, event.YardID))
	defer unlock()

	if _, err := s.visitRepo.GetActiveByVehicleAndYard(ctx, vehicle.ID, event.YardID); err == nil {
		return nil, domain.ErrVehicleAlreadyOnSite
	} else if !errors.Is(err, domain.ErrNoActiveVisit) {
		return nil, fmt.Errorf("failed to check active visit: %w", err)
	}

	strict, err := s.yardRepo.IsStrict(ctx, event.YardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get yard policy: %w", err)
	}

	permit, err := s.resolvePermit(ctx, vehicle.ID, event.YardID, at)
	if err != nil {
		return nil, err
	}

	// Строгий режим без действующего пропуска: визит уходит оператору
	if strict && permit == nil {
		return s.hold(ctx, event, plate, at, confidence, &vehicle.ID, domain.PendingReasonNoPermit, false)
	}

	return s.admit(ctx, event, plate, at, vehicle, permit)
}

// admit создает визит on_site; разовый пропуск расходуется в той же
// атомарной единице, что и создание визита
func (s *Service) admit(
	ctx context.Context,
	event *RecognitionEvent,
	plate string,
	at time.Time,
	vehicle *domain.Vehicle,
	permit *domain.EntryPermit,
) (*Result, error) {
	visit := &domain.Visit{
		LicensePlate:  plate,
		VehicleID:     &vehicle.ID,
		YardID:        event.YardID,
		CheckpointID:  event.CheckpointID,
		Confidence:    event.Confidence,
		EnteredAt:     at,
		Status:        domain.VisitStatusOnSite,
		PendingReason: domain.PendingReasonNone,
	}

	taskID := s.linkTask(ctx, vehicle.ID, event.YardID, at, permit)
	visit.TaskID = taskID

	var consumePermitID *uuid.UUID
	if permit != nil {
		visit.PermitID = &permit.ID
		if permit.SingleUse {
			consumePermitID = &permit.ID
		}
	}

	if err := visit.Validate(); err != nil {
		return nil, err
	}

	if err := s.visitRepo.CreateAdmitted(ctx, visit, consumePermitID); err != nil {
		return nil, err
	}

	s.logger.Info("Vehicle admitted", map[string]interface{}{
		"visit_id":   visit.ID,
		"vehicle_id": vehicle.ID,
		"yard_id":    event.YardID,
		"plate":      plate,
		"permit_id":  visit.PermitID,
	})

	// Сопровождающие эффекты не отменяют состоявшийся допуск
	if err := s.vehicleRepo.TouchLastSeen(ctx, vehicle.ID, at); err != nil {
		s.logger.Warn("Failed to update vehicle last seen", map[string]interface{}{
			"vehicle_id": vehicle.ID,
			"error":      err.Error(),
		})
	}

	if taskID != nil {
		if err := s.taskRepo.OnVisitConfirmed(ctx, *taskID, visit.ID); err != nil {
			s.logger.Warn("Failed to notify task about arrival", map[string]interface{}{
				"task_id": *taskID,
				"error":   err.Error(),
			})
		}
	}

	if _, err := s.weighingSvc.EnsureRequirement(ctx, visit); err != nil {
		s.logger.Error("Failed to derive weighing requirement", map[string]interface{}{
			"visit_id": visit.ID,
			"error":    err.Error(),
		})
	}

	return &Result{Visit: visit, Vehicle: vehicle, Permit: permit}, nil
}

// hold создает визит pending_confirmation для ручного разрешения
func (s *Service) hold(
	ctx context.Context,
	event *RecognitionEvent,
	plate string,
	at time.Time,
	confidence float64,
	vehicleID *uuid.UUID,
	reason domain.PendingReason,
	withCandidates bool,
) (*Result, error) {
	visit := &domain.Visit{
		LicensePlate:  plate,
		VehicleID:     vehicleID,
		YardID:        event.YardID,
		CheckpointID:  event.CheckpointID,
		Confidence:    event.Confidence,
		EnteredAt:     at,
		Status:        domain.VisitStatusPendingConfirmation,
		PendingReason: reason,
	}

	if err := visit.Validate(); err != nil {
		return nil, err
	}

	if err := s.visitRepo.Create(ctx, visit); err != nil {
		return nil, err
	}

	result := &Result{Visit: visit}
	if withCandidates {
		result.Candidates = s.collectCandidates(ctx, plate, event.YardID, at)
	}

	s.logger.Info("Visit held for confirmation", map[string]interface{}{
		"visit_id":   visit.ID,
		"plate":      plate,
		"yard_id":    event.YardID,
		"reason":     reason,
		"confidence": confidence,
		"candidates": len(result.Candidates),
	})

	return result, nil
}

// Candidates пересобирает список кандидатов для ожидающего визита
// (оператор может запросить его повторно)
func (s *Service) Candidates(ctx context.Context, visitID uuid.UUID) ([]*Candidate, error) {
	visit, err := s.visitRepo.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if visit.Status != domain.VisitStatusPendingConfirmation {
		return nil, domain.ErrVisitNotPending
	}

	return s.collectCandidates(ctx, visit.LicensePlate, visit.YardID, visit.EnteredAt), nil
}

// collectCandidates собирает кандидатов двух видов: похожие номера
// из реестра (top-K по похожести, при равенстве - недавно замеченные
// первыми) и ТС, ожидаемые по заданиям в окне вокруг события -
// последние предлагаются независимо от оценки похожести
func (s *Service) collectCandidates(ctx context.Context, plate string, yardID uuid.UUID, at time.Time) []*Candidate {
	var candidates []*Candidate
	seen := make(map[uuid.UUID]bool)

	matches, err := s.vehicleRepo.FindSimilar(ctx, plate, s.cfg.MinSimilarity, s.cfg.CandidateLimit)
	if err != nil {
		s.logger.Error("Failed to find similar vehicles", map[string]interface{}{
			"plate": plate,
			"error": err.Error(),
		})
	}
	for _, m := range matches {
		candidates = append(candidates, &Candidate{
			Vehicle:    m.Vehicle,
			Similarity: m.Similarity,
			Source:     CandidateSourceSimilar,
		})
		seen[m.Vehicle.ID] = true
	}

	tasks, err := s.taskRepo.FindExpected(ctx, yardID, at.Add(-s.cfg.ExpectedWindow), at.Add(s.cfg.ExpectedWindow))
	if err != nil {
		s.logger.Error("Failed to find expected tasks", map[string]interface{}{
			"yard_id": yardID,
			"error":   err.Error(),
		})
	}
	for _, task := range tasks {
		if seen[task.VehicleID] {
			continue
		}
		vehicle, err := s.vehicleRepo.GetByID(ctx, task.VehicleID)
		if err != nil {
			continue
		}
		candidates = append(candidates, &Candidate{
			Vehicle:    vehicle,
			Similarity: platematch.Similarity(plate, vehicle.LicensePlate),
			Source:     CandidateSourceExpected,
		})
		seen[vehicle.ID] = true
	}

	return candidates
}

// resolvePermit возвращает наиболее подходящий действующий пропуск:
// привязанный к заданию предпочтительнее общего
func (s *Service) resolvePermit(ctx context.Context, vehicleID, yardID uuid.UUID, at time.Time) (*domain.EntryPermit, error) {
	permits, err := s.permitRepo.FindCovering(ctx, vehicleID, yardID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to find covering permit: %w", err)
	}
	if len(permits) == 0 {
		return nil, nil
	}
	// Репозиторий отдает привязанные к заданию первыми
	return permits[0], nil
}

// linkTask подбирает задание для визита: привязка из пропуска имеет
// приоритет, иначе берется ожидаемое задание этого ТС в окне события
func (s *Service) linkTask(ctx context.Context, vehicleID, yardID uuid.UUID, at time.Time, permit *domain.EntryPermit) *uuid.UUID {
	if permit != nil && permit.TaskID != nil {
		return permit.TaskID
	}

	tasks, err := s.taskRepo.FindExpected(ctx, yardID, at.Add(-s.cfg.ExpectedWindow), at.Add(s.cfg.ExpectedWindow))
	if err != nil {
		s.logger.Warn("Failed to find expected tasks", map[string]interface{}{
			"yard_id": yardID,
			"error":   err.Error(),
		})
		return nil
	}
	for _, task := range tasks {
		if task.VehicleID == vehicleID {
			id := task.ID
			return &id
		}
	}
	return nil
}

// admitKey - ключ сериализации допуска по паре (ТС, площадка)
func admitKey(vehicleID, yardID uuid.UUID) string {
	return "admit:" + vehicleID.String() + ":" + yardID.String()
}
