package cached

import (
	"context"
	"time"

	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/pkg/redis"
	"github.com/frontandrew/yard/internal/repository"
	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"
)

const (
	yardPolicyCachePrefix = "yard:strict:"
	yardPolicyCacheTTL    = 5 * time.Minute
)

// YardRepository добавляет кэширование политики площадки.
// Флаг строгого режима читается на каждом событии распознавания,
// поэтому держится в Redis с коротким TTL
type YardRepository struct {
	repo  repository.YardRepository
	cache *redis.Client
}

// NewYardRepository создает новый кэшируемый yard repository
func NewYardRepository(repo repository.YardRepository, cache *redis.Client) *YardRepository {
	return &YardRepository{
		repo:  repo,
		cache: cache,
	}
}

// GetByID возвращает площадку по ID (без кэширования - используется редко)
func (r *YardRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Yard, error) {
	return r.repo.GetByID(ctx, id)
}

// IsStrict возвращает флаг строгого режима площадки (с кэшированием)
func (r *YardRepository) IsStrict(ctx context.Context, id uuid.UUID) (bool, error) {
	cacheKey := yardPolicyCachePrefix + id.String()

	// 1. Проверяем кэш
	cached, err := r.cache.Get(ctx, cacheKey)
	if err == nil {
		return cached == "1", nil
	}
	if err != redisv9.Nil {
		// Ошибка кэша не критична - продолжаем работу с БД
	}

	// 2. Cache miss - идем в БД
	strict, err := r.repo.IsStrict(ctx, id)
	if err != nil {
		return false, err
	}

	// 3. Сохраняем результат в кэш; ошибку записи игнорируем
	cacheValue := "0"
	if strict {
		cacheValue = "1"
	}
	_ = r.cache.Set(ctx, cacheKey, cacheValue, yardPolicyCacheTTL)

	return strict, nil
}

// Invalidate сбрасывает кэш политики площадки (на случай смены режима)
func (r *YardRepository) Invalidate(ctx context.Context, id uuid.UUID) error {
	return r.cache.Del(ctx, yardPolicyCachePrefix+id.String())
}
