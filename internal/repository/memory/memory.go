// Package memory содержит потокобезопасные реализации репозиториев
// в памяти. Они повторяют контракты postgres-реализаций, включая
// условные переходы статусов, и используются в модульных тестах
// сценариев допуска и взвешивания
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/pkg/platematch"
	"github.com/google/uuid"
)

// VehicleRepository - реестр ТС в памяти
type VehicleRepository struct {
	mu       sync.Mutex
	vehicles map[uuid.UUID]*domain.Vehicle
}

// NewVehicleRepository создает пустой реестр ТС
func NewVehicleRepository() *VehicleRepository {
	return &VehicleRepository{vehicles: make(map[uuid.UUID]*domain.Vehicle)}
}

// Add кладет ТС в реестр, присваивая ID при необходимости
func (r *VehicleRepository) Add(v *domain.Vehicle) *domain.Vehicle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	stored := *v
	r.vehicles[v.ID] = &stored
	return v
}

func (r *VehicleRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, domain.ErrVehicleNotFound
	}
	out := *v
	return &out, nil
}

func (r *VehicleRepository) FindExact(_ context.Context, licensePlate string) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vehicles {
		if v.IsActive && v.LicensePlate == licensePlate {
			out := *v
			return &out, nil
		}
	}
	return nil, domain.ErrVehicleNotFound
}

func (r *VehicleRepository) FindSimilar(_ context.Context, licensePlate string, minSimilarity, limit int) ([]*domain.VehicleMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matches []*domain.VehicleMatch
	for _, v := range r.vehicles {
		if !v.IsActive {
			continue
		}
		score := platematch.Similarity(licensePlate, v.LicensePlate)
		if score < minSimilarity {
			continue
		}
		out := *v
		matches = append(matches, &domain.VehicleMatch{Vehicle: &out, Similarity: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return lastSeenAfter(matches[i].Vehicle.LastSeenAt, matches[j].Vehicle.LastSeenAt)
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *VehicleRepository) TouchLastSeen(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return domain.ErrVehicleNotFound
	}
	v.LastSeenAt = &at
	return nil
}

func lastSeenAfter(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}

// PermitRepository - реестр пропусков в памяти
type PermitRepository struct {
	mu      sync.Mutex
	permits map[uuid.UUID]*domain.EntryPermit
}

// NewPermitRepository создает пустой реестр пропусков
func NewPermitRepository() *PermitRepository {
	return &PermitRepository{permits: make(map[uuid.UUID]*domain.EntryPermit)}
}

// Add кладет пропуск в реестр, присваивая ID при необходимости
func (r *PermitRepository) Add(p *domain.EntryPermit) *domain.EntryPermit {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	stored := *p
	r.permits[p.ID] = &stored
	return p
}

func (r *PermitRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.EntryPermit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.permits[id]
	if !ok {
		return nil, domain.ErrPermitNotFound
	}
	out := *p
	return &out, nil
}

func (r *PermitRepository) FindCovering(_ context.Context, vehicleID, yardID uuid.UUID, at time.Time) ([]*domain.EntryPermit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var covering []*domain.EntryPermit
	for _, p := range r.permits {
		if p.VehicleID != vehicleID || p.YardID != yardID || !p.Covers(at) {
			continue
		}
		out := *p
		covering = append(covering, &out)
	}

	// Привязанные к заданию первыми, как в postgres-реализации
	sort.SliceStable(covering, func(i, j int) bool {
		return covering[i].TaskID != nil && covering[j].TaskID == nil
	})
	return covering, nil
}

func (r *PermitRepository) Deactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.permits[id]
	if !ok {
		return domain.ErrPermitNotFound
	}
	if p.Status != domain.PermitStatusActive {
		return domain.ErrPermitConsumed
	}
	p.Status = domain.PermitStatusInactive
	return nil
}

// YardRepository - справочник площадок в памяти
type YardRepository struct {
	mu    sync.Mutex
	yards map[uuid.UUID]*domain.Yard
}

// NewYardRepository создает пустой справочник площадок
func NewYardRepository() *YardRepository {
	return &YardRepository{yards: make(map[uuid.UUID]*domain.Yard)}
}

// Add кладет площадку в справочник, присваивая ID при необходимости
func (r *YardRepository) Add(y *domain.Yard) *domain.Yard {
	r.mu.Lock()
	defer r.mu.Unlock()
	if y.ID == uuid.Nil {
		y.ID = uuid.New()
	}
	stored := *y
	r.yards[y.ID] = &stored
	return y
}

func (r *YardRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Yard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	y, ok := r.yards[id]
	if !ok {
		return nil, domain.ErrYardNotFound
	}
	out := *y
	return &out, nil
}

func (r *YardRepository) IsStrict(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	y, ok := r.yards[id]
	if !ok {
		return false, domain.ErrYardNotFound
	}
	return y.StrictMode, nil
}

// TaskRepository - логистические задания в памяти
type TaskRepository struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

// NewTaskRepository создает пустое хранилище заданий
func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: make(map[uuid.UUID]*domain.Task)}
}

// Add кладет задание в хранилище, присваивая ID при необходимости
func (r *TaskRepository) Add(t *domain.Task) *domain.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	stored := *t
	r.tasks[t.ID] = &stored
	return t
}

func (r *TaskRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	out := *t
	return &out, nil
}

func (r *TaskRepository) FindExpected(_ context.Context, yardID uuid.UUID, from, to time.Time) ([]*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expected []*domain.Task
	for _, t := range r.tasks {
		if t.YardID != yardID || t.Status != domain.TaskStatusPlanned {
			continue
		}
		if t.PlanTime.Before(from) || t.PlanTime.After(to) {
			continue
		}
		out := *t
		expected = append(expected, &out)
	}

	sort.SliceStable(expected, func(i, j int) bool {
		return expected[i].PlanTime.Before(expected[j].PlanTime)
	})
	return expected, nil
}

func (r *TaskRepository) OnVisitConfirmed(_ context.Context, taskID, visitID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	t.Status = domain.TaskStatusArrived
	t.VisitID = &visitID
	return nil
}

func (r *TaskRepository) OnVisitDeparted(_ context.Context, taskID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	t.Status = domain.TaskStatusCompleted
	return nil
}

// VisitRepository - журнал визитов в памяти. Уникальность визита on_site
// для пары (ТС, площадка) контролируется под мьютексом хранилища,
// как частичный уникальный индекс в postgres
type VisitRepository struct {
	mu      sync.Mutex
	visits  map[uuid.UUID]*domain.Visit
	permits *PermitRepository
}

// NewVisitRepository создает пустой журнал визитов.
// permits нужен для атомарного расхода разовых пропусков; допускается nil
func NewVisitRepository(permits *PermitRepository) *VisitRepository {
	return &VisitRepository{
		visits:  make(map[uuid.UUID]*domain.Visit),
		permits: permits,
	}
}

func (r *VisitRepository) Create(_ context.Context, visit *domain.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(visit)
}

func (r *VisitRepository) CreateAdmitted(ctx context.Context, visit *domain.Visit, consumePermitID *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasActive(visit.VehicleID, visit.YardID) {
		return domain.ErrVehicleAlreadyOnSite
	}
	if err := r.consumePermit(ctx, consumePermitID); err != nil {
		return err
	}
	return r.insert(visit)
}

func (r *VisitRepository) UpdateAdmitted(ctx context.Context, visit *domain.Visit, consumePermitID *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.visits[visit.ID]; !ok {
		return domain.ErrVisitNotFound
	}
	if err := r.consumePermit(ctx, consumePermitID); err != nil {
		return err
	}
	visit.UpdatedAt = time.Now()
	stored := *visit
	r.visits[visit.ID] = &stored
	return nil
}

func (r *VisitRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visits[id]
	if !ok {
		return nil, domain.ErrVisitNotFound
	}
	out := *v
	return &out, nil
}

func (r *VisitRepository) GetActiveByVehicleAndYard(_ context.Context, vehicleID, yardID uuid.UUID) (*domain.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.visits {
		if v.Status == domain.VisitStatusOnSite && v.VehicleID != nil && *v.VehicleID == vehicleID && v.YardID == yardID {
			out := *v
			return &out, nil
		}
	}
	return nil, domain.ErrNoActiveVisit
}

func (r *VisitRepository) Update(_ context.Context, visit *domain.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.visits[visit.ID]; !ok {
		return domain.ErrVisitNotFound
	}
	visit.UpdatedAt = time.Now()
	stored := *visit
	r.visits[visit.ID] = &stored
	return nil
}

func (r *VisitRepository) ListByYard(_ context.Context, yardID uuid.UUID, limit, offset int) ([]*domain.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var list []*domain.Visit
	for _, v := range r.visits {
		if v.YardID != yardID {
			continue
		}
		out := *v
		list = append(list, &out)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].EnteredAt.After(list[j].EnteredAt)
	})

	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *VisitRepository) ListTouchingWindow(_ context.Context, yardID uuid.UUID, start, end time.Time) ([]*domain.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var list []*domain.Visit
	for _, v := range r.visits {
		if v.YardID != yardID {
			continue
		}
		if v.Status != domain.VisitStatusOnSite && v.Status != domain.VisitStatusDeparted {
			continue
		}
		if v.EnteredAt.After(end) {
			continue
		}
		if v.ExitedAt != nil && v.ExitedAt.Before(start) {
			continue
		}
		out := *v
		list = append(list, &out)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].EnteredAt.Before(list[j].EnteredAt)
	})
	return list, nil
}

func (r *VisitRepository) insert(visit *domain.Visit) error {
	if visit.ID == uuid.Nil {
		visit.ID = uuid.New()
	}
	now := time.Now()
	visit.CreatedAt = now
	visit.UpdatedAt = now
	stored := *visit
	r.visits[visit.ID] = &stored
	return nil
}

func (r *VisitRepository) hasActive(vehicleID *uuid.UUID, yardID uuid.UUID) bool {
	if vehicleID == nil {
		return false
	}
	for _, v := range r.visits {
		if v.Status == domain.VisitStatusOnSite && v.VehicleID != nil && *v.VehicleID == *vehicleID && v.YardID == yardID {
			return true
		}
	}
	return false
}

func (r *VisitRepository) consumePermit(ctx context.Context, permitID *uuid.UUID) error {
	if permitID == nil {
		return nil
	}
	if r.permits == nil {
		return domain.ErrPermitNotFound
	}
	return r.permits.Deactivate(ctx, *permitID)
}

// RequirementRepository - требования взвешивания в памяти
type RequirementRepository struct {
	mu           sync.Mutex
	requirements map[uuid.UUID]*domain.WeighingRequirement
}

// NewRequirementRepository создает пустое хранилище требований
func NewRequirementRepository() *RequirementRepository {
	return &RequirementRepository{requirements: make(map[uuid.UUID]*domain.WeighingRequirement)}
}

func (r *RequirementRepository) Create(_ context.Context, req *domain.WeighingRequirement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	stored := *req
	r.requirements[req.ID] = &stored
	return nil
}

func (r *RequirementRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.WeighingRequirement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requirements[id]
	if !ok {
		return nil, domain.ErrRequirementNotFound
	}
	out := *req
	return &out, nil
}

func (r *RequirementRepository) GetByVisitID(_ context.Context, visitID uuid.UUID) (*domain.WeighingRequirement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requirements {
		if req.VisitID == visitID {
			out := *req
			return &out, nil
		}
	}
	return nil, domain.ErrRequirementNotFound
}

func (r *RequirementRepository) Skip(_ context.Context, id uuid.UUID, from domain.RequirementStatus, reason string, actor uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requirements[id]
	if !ok {
		return domain.ErrRequirementNotFound
	}
	if req.Status != from {
		return domain.ErrRequirementConflict
	}
	req.Status = domain.RequirementStatusSkipped
	req.SkipReason = reason
	req.SkippedBy = &actor
	req.UpdatedAt = time.Now()
	return nil
}

// setStatus - условный переход статуса, аналог UPDATE ... WHERE status = from
func (r *RequirementRepository) setStatus(id uuid.UUID, from, to domain.RequirementStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requirements[id]
	if !ok {
		return domain.ErrRequirementNotFound
	}
	if req.Status != from {
		return domain.ErrRequirementConflict
	}
	req.Status = to
	req.UpdatedAt = time.Now()
	return nil
}

// WeighingRepository - журнал измерений в памяти
type WeighingRepository struct {
	mu           sync.Mutex
	weighings    []*domain.Weighing
	requirements *RequirementRepository
}

// NewWeighingRepository создает пустой журнал измерений.
// requirements нужен для засчитываемых измерений; допускается nil
func NewWeighingRepository(requirements *RequirementRepository) *WeighingRepository {
	return &WeighingRepository{requirements: requirements}
}

func (r *WeighingRepository) Create(_ context.Context, w *domain.Weighing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.append(w)
	return nil
}

func (r *WeighingRepository) CreateCounted(_ context.Context, w *domain.Weighing, from, to domain.RequirementStatus) error {
	if w.RequirementID == nil || r.requirements == nil {
		return domain.ErrRequirementNotFound
	}
	if err := r.requirements.setStatus(*w.RequirementID, from, to); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.append(w)
	return nil
}

func (r *WeighingRepository) ListByVisit(_ context.Context, visitID uuid.UUID) ([]*domain.Weighing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var list []*domain.Weighing
	for _, w := range r.weighings {
		if w.VisitID == visitID {
			out := *w
			list = append(list, &out)
		}
	}
	return list, nil
}

func (r *WeighingRepository) append(w *domain.Weighing) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	stored := *w
	r.weighings = append(r.weighings, &stored)
}
