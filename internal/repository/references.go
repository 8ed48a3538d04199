package repository

import (
	"context"
	"time"

	"github.com/arnold/charity-quests-api/internal/models"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"gorm.io/gorm"
)

const defaultReferenceTTL = 30 * time.Second

// referenceCache holds cities and organization types. Entries expire after
// ttl so a soft-deleted reference is reported missing again.
type referenceCache struct {
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

type cachedReference struct {
	value     any
	fetchedAt time.Time
}

func newReferenceCache(size int, ttl time.Duration) (*referenceCache, error) {
	if size <= 0 {
		size = 512
	}
	if ttl <= 0 {
		ttl = defaultReferenceTTL
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &referenceCache{cache: cache, ttl: ttl, now: time.Now}, nil
}

func (c *referenceCache) get(key cacheKey) (any, bool) {
	cached, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	entry := cached.(cachedReference)
	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		c.cache.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func (c *referenceCache) add(key cacheKey, value any) {
	c.cache.Add(key, cachedReference{value: value, fetchedAt: c.now()})
}

type cacheKey struct {
	kind string
	id   uuid.UUID
}

type referenceStore struct {
	db    *gorm.DB
	cache *referenceCache
}

func (s referenceStore) GetCity(ctx context.Context, id uuid.UUID) (*models.City, error) {
	key := cacheKey{kind: "city", id: id}
	if cached, ok := s.cache.get(key); ok {
		city := cached.(models.City)
		return &city, nil
	}

	var city models.City
	if err := s.db.WithContext(ctx).First(&city, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	s.cache.add(key, city)
	return &city, nil
}

func (s referenceStore) GetOrganizationType(ctx context.Context, id uuid.UUID) (*models.OrganizationType, error) {
	key := cacheKey{kind: "organization_type", id: id}
	if cached, ok := s.cache.get(key); ok {
		orgType := cached.(models.OrganizationType)
		return &orgType, nil
	}

	var orgType models.OrganizationType
	if err := s.db.WithContext(ctx).First(&orgType, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	s.cache.add(key, orgType)
	return &orgType, nil
}
