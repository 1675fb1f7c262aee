// internal/repository/cache_test.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"company-matching/internal/common/logger"
	"company-matching/internal/matching"
	"company-matching/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	profile        *models.CompanyProfile
	prefs          *models.MatchingPreferences
	err            error
	profileCalls   int
	prefsCalls     int
	candidateCalls int
}

func (r *countingRepo) GetCompanyProfile(_ context.Context, id string) (*models.CompanyProfile, error) {
	r.profileCalls++
	if r.err != nil {
		return nil, r.err
	}
	if r.profile == nil || r.profile.ID != id {
		return nil, matching.ErrCompanyNotFound
	}
	return r.profile, nil
}

func (r *countingRepo) GetMatchingPreferences(_ context.Context, _ string) (*models.MatchingPreferences, error) {
	r.prefsCalls++
	return r.prefs, r.err
}

func (r *countingRepo) ListCandidateCompanies(_ context.Context, _ matching.CandidateFilter, _ int) ([]*models.CompanyProfile, error) {
	r.candidateCalls++
	return []*models.CompanyProfile{r.profile}, nil
}

func newMiniredisCache(t *testing.T, next matching.CompanyRepository) (*CachedProfiles, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewCachedProfiles(next, rdb, time.Minute, logger.NewTestLogger(t)), mr
}

func cachedProfile() *models.CompanyProfile {
	return &models.CompanyProfile{
		ID:          "c-1",
		OwnerUserID: "owner-1",
		Name:        "Spreewerk GmbH",
		District:    models.DistrictPankow,
		Offering:    []models.NeedEntry{{Category: "Logistik", Priority: 2}},
		LastUpdated: time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC),
	}
}

func TestCachedProfiles_ReadThrough(t *testing.T) {
	repo := &countingRepo{profile: cachedProfile()}
	cache, mr := newMiniredisCache(t, repo)
	ctx := context.Background()

	first, err := cache.GetCompanyProfile(ctx, "c-1")
	require.NoError(t, err)
	second, err := cache.GetCompanyProfile(ctx, "c-1")
	require.NoError(t, err)

	assert.Equal(t, 1, repo.profileCalls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("company:profile:c-1"))
	assert.Equal(t, time.Minute, mr.TTL("company:profile:c-1"))
}

func TestCachedProfiles_NotFoundIsNotCached(t *testing.T) {
	repo := &countingRepo{}
	cache, mr := newMiniredisCache(t, repo)

	_, err := cache.GetCompanyProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, matching.ErrCompanyNotFound)
	assert.False(t, mr.Exists("company:profile:ghost"))
}

func TestCachedProfiles_MissingPreferencesCached(t *testing.T) {
	repo := &countingRepo{}
	cache, mr := newMiniredisCache(t, repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		prefs, err := cache.GetMatchingPreferences(ctx, "owner-1")
		require.NoError(t, err)
		assert.Nil(t, prefs)
	}

	assert.Equal(t, 1, repo.prefsCalls)
	value, err := mr.Get("company:prefs:owner-1")
	require.NoError(t, err)
	assert.Equal(t, "null", value)
}

func TestCachedProfiles_CorruptEntryFallsThrough(t *testing.T) {
	repo := &countingRepo{profile: cachedProfile()}
	cache, mr := newMiniredisCache(t, repo)
	require.NoError(t, mr.Set("company:profile:c-1", "{broken"))

	profile, err := cache.GetCompanyProfile(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Spreewerk GmbH", profile.Name)
	assert.Equal(t, 1, repo.profileCalls)
}

func TestCachedProfiles_Invalidate(t *testing.T) {
	repo := &countingRepo{profile: cachedProfile()}
	cache, mr := newMiniredisCache(t, repo)
	ctx := context.Background()

	_, err := cache.GetCompanyProfile(ctx, "c-1")
	require.NoError(t, err)
	_, err = cache.GetMatchingPreferences(ctx, "owner-1")
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(ctx, "c-1", "owner-1"))
	assert.False(t, mr.Exists("company:profile:c-1"))
	assert.False(t, mr.Exists("company:prefs:owner-1"))

	_, err = cache.GetCompanyProfile(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.profileCalls)
}

func TestCachedProfiles_CandidatesBypassCache(t *testing.T) {
	repo := &countingRepo{profile: cachedProfile()}
	cache, mr := newMiniredisCache(t, repo)

	_, err := cache.ListCandidateCompanies(context.Background(), matching.CandidateFilter{ExcludeID: "req"}, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.candidateCalls)
	assert.Empty(t, mr.Keys())
}

func TestCachedProfiles_RedisErrorFallsThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := &countingRepo{profile: cachedProfile()}
	cache := NewCachedProfiles(repo, db, 30*time.Second, logger.NewTestLogger(t))

	data, err := json.Marshal(repo.profile)
	require.NoError(t, err)

	mock.ExpectGet("company:profile:c-1").SetErr(errors.New("connection refused"))
	mock.ExpectSet("company:profile:c-1", data, 30*time.Second).SetVal("OK")

	profile, err := cache.GetCompanyProfile(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", profile.ID)
	assert.Equal(t, 1, repo.profileCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedProfiles_HitSkipsRepository(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := &countingRepo{err: errors.New("must not be called")}
	cache := NewCachedProfiles(repo, db, 30*time.Second, logger.NewTestLogger(t))

	data, err := json.Marshal(cachedProfile())
	require.NoError(t, err)
	mock.ExpectGet("company:profile:c-1").SetVal(string(data))

	profile, err := cache.GetCompanyProfile(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, models.DistrictPankow, profile.District)
	assert.Zero(t, repo.profileCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}
