// internal/repository/cache.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"company-matching/internal/common/logger"
	"company-matching/internal/common/metrics"
	"company-matching/internal/matching"
	"company-matching/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	profileKeyPrefix = "company:profile:"
	prefsKeyPrefix   = "company:prefs:"
)

// CachedProfiles puts a read-through Redis cache in front of the requester
// profile and preference lookups. The candidate pool is never cached.
// Redis failures are logged and fall through to the wrapped repository.
type CachedProfiles struct {
	next   matching.CompanyRepository
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedProfiles(next matching.CompanyRepository, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedProfiles {
	return &CachedProfiles{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "profile-cache"}),
	}
}

func (c *CachedProfiles) GetCompanyProfile(ctx context.Context, id string) (*models.CompanyProfile, error) {
	key := profileKeyPrefix + id

	var cached models.CompanyProfile
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}

	profile, err := c.next.GetCompanyProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, profile)
	return profile, nil
}

// GetMatchingPreferences caches a missing preferences row as JSON null so
// users without preferences do not hit the database on every run.
func (c *CachedProfiles) GetMatchingPreferences(ctx context.Context, userID string) (*models.MatchingPreferences, error) {
	key := prefsKeyPrefix + userID

	var cached *models.MatchingPreferences
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	prefs, err := c.next.GetMatchingPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, prefs)
	return prefs, nil
}

func (c *CachedProfiles) ListCandidateCompanies(ctx context.Context, filter matching.CandidateFilter, poolCap int) ([]*models.CompanyProfile, error) {
	return c.next.ListCandidateCompanies(ctx, filter, poolCap)
}

// Invalidate drops the cached profile and preferences of one company.
func (c *CachedProfiles) Invalidate(ctx context.Context, companyID, ownerUserID string) error {
	keys := []string{profileKeyPrefix + companyID}
	if ownerUserID != "" {
		keys = append(keys, prefsKeyPrefix+ownerUserID)
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate %s: %w", companyID, err)
	}
	return nil
}

func (c *CachedProfiles) get(ctx context.Context, key string, dest interface{}) bool {
	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.ProfileCacheLookups.WithLabelValues("miss").Inc()
		return false
	case err != nil:
		metrics.ProfileCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("Cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		metrics.ProfileCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("Discarding corrupt cache entry", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	metrics.ProfileCacheLookups.WithLabelValues("hit").Inc()
	return true
}

func (c *CachedProfiles) set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
