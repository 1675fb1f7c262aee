// internal/matching/engine_test.go
package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"company-matching/internal/common/logger"
	"company-matching/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Doubles
// ==========================

type memoryRepo struct {
	companies   map[string]*models.CompanyProfile
	preferences map[string]*models.MatchingPreferences
	connected   map[string]bool
	err         error

	lastFilter  CandidateFilter
	lastPoolCap int
}

func newMemoryRepo(companies ...*models.CompanyProfile) *memoryRepo {
	r := &memoryRepo{
		companies:   make(map[string]*models.CompanyProfile),
		preferences: make(map[string]*models.MatchingPreferences),
		connected:   make(map[string]bool),
	}
	for _, c := range companies {
		r.companies[c.ID] = c
	}
	return r
}

func (r *memoryRepo) GetCompanyProfile(_ context.Context, id string) (*models.CompanyProfile, error) {
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.companies[id]
	if !ok {
		return nil, ErrCompanyNotFound
	}
	return c, nil
}

func (r *memoryRepo) GetMatchingPreferences(_ context.Context, userID string) (*models.MatchingPreferences, error) {
	return r.preferences[userID], nil
}

func (r *memoryRepo) ListCandidateCompanies(_ context.Context, filter CandidateFilter, poolCap int) ([]*models.CompanyProfile, error) {
	r.lastFilter = filter
	r.lastPoolCap = poolCap

	var out []*models.CompanyProfile
	for _, id := range sortedKeys(r.companies) {
		c := r.companies[id]
		if c.ID == filter.ExcludeID {
			continue
		}
		if filter.ExcludeConnected && r.connected[c.ID] {
			continue
		}
		if len(filter.Districts) > 0 && !containsValue(filter.Districts, c.District) {
			continue
		}
		out = append(out, c)
		if len(out) == poolCap {
			break
		}
	}
	return out, nil
}

func sortedKeys(m map[string]*models.CompanyProfile) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsValue[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

type recordedEvent struct {
	kind    string
	payload map[string]interface{}
}

type captureRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (c *captureRecorder) RecordActivityEvent(_ context.Context, kind string, payload map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, recordedEvent{kind: kind, payload: payload})
}

func newTestEngine(t *testing.T, repo CompanyRepository, lookup RelationshipLookup, rec ActivityRecorder) *Engine {
	return NewEngine(Config{PoolCap: 200}, repo, lookup, rec, logger.NewTestLogger(t),
		WithCalculator(newTestCalculator()),
		WithNow(func() time.Time { return testNow }),
	)
}

func requesterProfile() *models.CompanyProfile {
	return &models.CompanyProfile{
		ID:          "req",
		OwnerUserID: "owner-1",
		Name:        "Requester GmbH",
		District:    models.DistrictMitte,
		Offering:    []models.NeedEntry{{Category: "IT-Beratung", Priority: 3}},
	}
}

// ==========================
// Tests
// ==========================

func TestFindMatches_Success(t *testing.T) {
	repo := newMemoryRepo(
		requesterProfile(),
		&models.CompanyProfile{ID: "a", Name: "A", District: models.DistrictMitte, SearchingFor: []models.NeedEntry{{Category: "IT-Beratung", Priority: 2}}},
		&models.CompanyProfile{ID: "b", Name: "B", District: models.DistrictSpandau},
		&models.CompanyProfile{ID: "c", Name: "C", District: models.DistrictPankow},
	)
	lookup := &fakeLookup{statuses: map[string]models.RelationshipStatus{"a": models.RelationshipPending}}
	rec := &captureRecorder{}

	resp, err := newTestEngine(t, repo, lookup, rec).FindMatches(context.Background(), MatchRequest{RequesterCompanyID: "req"})
	require.NoError(t, err)

	matches, ok := resp.Matches.([]DetailedMatch)
	require.True(t, ok)
	require.Len(t, matches, 3)
	assert.Equal(t, "a", matches[0].Company.ID)
	assert.Equal(t, models.MatchTypeSupplierCustomer, matches[0].MatchType)
	require.NotNil(t, matches[0].ExistingMatchStatus)
	assert.Equal(t, models.RelationshipPending, *matches[0].ExistingMatchStatus)

	assert.Equal(t, 3, resp.Metadata.TotalCandidates)
	assert.Equal(t, 3, resp.Metadata.Returned)
	assert.Equal(t, 10, resp.Metadata.SearchCriteria.Limit)
	assert.Equal(t, LayoutDetailed, resp.Metadata.SearchCriteria.Layout)
	assert.NotEmpty(t, resp.Metadata.RunID)
	assert.Equal(t, testNow, resp.Metadata.Timestamp)

	assert.Equal(t, 200, repo.lastPoolCap)
	require.Len(t, lookup.calls, 1)

	require.Len(t, rec.events, 1)
	assert.Equal(t, ActivityMatchingCompleted, rec.events[0].kind)
	assert.Equal(t, resp.Metadata.RunID, rec.events[0].payload["runId"])
	assert.Equal(t, 3, rec.events[0].payload["returned"])
}

func TestFindMatches_CompactLayout(t *testing.T) {
	repo := newMemoryRepo(requesterProfile(), &models.CompanyProfile{ID: "a", Name: "A"})

	resp, err := newTestEngine(t, repo, nil, nil).FindMatches(context.Background(), MatchRequest{
		RequesterCompanyID: "req",
		Layout:             LayoutCompact,
	})
	require.NoError(t, err)

	matches, ok := resp.Matches.([]CompactMatch)
	require.True(t, ok)
	assert.Len(t, matches, 1)
}

func TestFindMatches_Validation(t *testing.T) {
	engine := newTestEngine(t, newMemoryRepo(requesterProfile()), nil, nil)

	tests := []struct {
		name string
		req  MatchRequest
	}{
		{name: "missing requester", req: MatchRequest{}},
		{name: "negative limit", req: MatchRequest{RequesterCompanyID: "req", Limit: -1}},
		{name: "unknown layout", req: MatchRequest{RequesterCompanyID: "req", Layout: "fancy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := engine.FindMatches(context.Background(), tt.req)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestFindMatches_RequesterNotFound(t *testing.T) {
	_, err := newTestEngine(t, newMemoryRepo(), nil, nil).FindMatches(context.Background(), MatchRequest{RequesterCompanyID: "missing"})

	assert.ErrorIs(t, err, ErrCompanyNotFound)
	assert.NotErrorIs(t, err, ErrMatchingFailed)
}

func TestFindMatches_RepositoryFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.err = errors.New("dial tcp: connection refused")

	_, err := newTestEngine(t, repo, nil, nil).FindMatches(context.Background(), MatchRequest{RequesterCompanyID: "req"})

	assert.ErrorIs(t, err, ErrMatchingFailed)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFindMatches_RepositoryFailureKeepsCause(t *testing.T) {
	cause := errors.New("statement timeout")
	repo := newMemoryRepo()
	repo.err = cause

	_, err := newTestEngine(t, repo, nil, nil).FindMatches(context.Background(), MatchRequest{RequesterCompanyID: "req"})

	assert.ErrorIs(t, err, ErrMatchingFailed)
	assert.ErrorIs(t, err, cause)
}

func TestFindMatches_EmptyPool(t *testing.T) {
	rec := &captureRecorder{}

	resp, err := newTestEngine(t, newMemoryRepo(requesterProfile()), &fakeLookup{}, rec).
		FindMatches(context.Background(), MatchRequest{RequesterCompanyID: "req"})
	require.NoError(t, err)

	matches, ok := resp.Matches.([]DetailedMatch)
	require.True(t, ok)
	assert.Empty(t, matches)
	assert.Equal(t, 0, resp.Metadata.TotalCandidates)
	assert.Equal(t, 0, resp.Metadata.Returned)
	assert.Len(t, rec.events, 1)
}

func TestFindMatches_NoPreferencesMeansNoFilter(t *testing.T) {
	repo := newMemoryRepo(requesterProfile(), &models.CompanyProfile{ID: "a"})

	resp, err := newTestEngine(t, repo, nil, nil).FindMatches(context.Background(), MatchRequest{RequesterCompanyID: "req"})
	require.NoError(t, err)

	assert.Equal(t, "req", repo.lastFilter.ExcludeID)
	assert.Empty(t, repo.lastFilter.Districts)
	assert.Empty(t, repo.lastFilter.Sizes)
	assert.Empty(t, repo.lastFilter.CustomerTypes)
	assert.False(t, resp.Metadata.SearchCriteria.PreferencesApplied)
}

func TestFindMatches_PreferencesNarrowPool(t *testing.T) {
	repo := newMemoryRepo(
		requesterProfile(),
		&models.CompanyProfile{ID: "a", District: models.DistrictPankow},
		&models.CompanyProfile{ID: "b", District: models.DistrictSpandau},
	)
	repo.preferences["owner-1"] = &models.MatchingPreferences{
		UserID:             "owner-1",
		PreferredDistricts: []models.District{models.DistrictPankow},
		PreferredSizes:     []models.EmployeeRange{models.EmployeeRangeSmall},
	}

	resp, err := newTestEngine(t, repo, nil, nil).FindMatches(context.Background(), MatchRequest{RequesterCompanyID: "req"})
	require.NoError(t, err)

	assert.Equal(t, []models.District{models.DistrictPankow}, repo.lastFilter.Districts)
	assert.Equal(t, []models.EmployeeRange{models.EmployeeRangeSmall}, repo.lastFilter.Sizes)
	assert.True(t, resp.Metadata.SearchCriteria.PreferencesApplied)
	assert.Equal(t, 1, resp.Metadata.TotalCandidates)
}

func TestFindMatches_ExcludeExistingDropsConnected(t *testing.T) {
	repo := newMemoryRepo(requesterProfile(), &models.CompanyProfile{ID: "a"}, &models.CompanyProfile{ID: "b"})
	repo.connected["a"] = true

	resp, err := newTestEngine(t, repo, nil, nil).FindMatches(context.Background(), MatchRequest{
		RequesterCompanyID: "req",
		ExcludeExisting:    true,
	})
	require.NoError(t, err)

	assert.True(t, repo.lastFilter.ExcludeConnected)
	matches := resp.Matches.([]DetailedMatch)
	require.Len(t, matches, 1)
	assert.Equal(t, "b", matches[0].Company.ID)
}

func TestFindMatches_LimitIsAppliedAndClamped(t *testing.T) {
	companies := []*models.CompanyProfile{requesterProfile()}
	for i := 0; i < 80; i++ {
		companies = append(companies, &models.CompanyProfile{ID: fmt.Sprintf("c-%02d", i)})
	}
	engine := newTestEngine(t, newMemoryRepo(companies...), nil, nil)

	resp, err := engine.FindMatches(context.Background(), MatchRequest{RequesterCompanyID: "req", Limit: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Metadata.Returned)

	resp, err = engine.FindMatches(context.Background(), MatchRequest{RequesterCompanyID: "req", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 50, resp.Metadata.SearchCriteria.Limit)
	assert.Equal(t, 50, resp.Metadata.Returned)
}

func TestFindMatches_FaultyCandidateIsSkipped(t *testing.T) {
	repo := newMemoryRepo(requesterProfile(), &models.CompanyProfile{ID: "bad"}, &models.CompanyProfile{ID: "good"})
	calc := &Calculator{
		clock: fixedClock{t: testNow},
		rules: append(DefaultRules(fixedRandom(0)), Rule{
			Name: "explode",
			Apply: func(_, cand *models.CompanyProfile, _ *Accumulator) {
				if cand.ID == "bad" {
					panic("malformed candidate")
				}
			},
		}),
	}
	engine := NewEngine(Config{}, repo, nil, nil, logger.NewTestLogger(t), WithCalculator(calc))

	resp, err := engine.FindMatches(context.Background(), MatchRequest{RequesterCompanyID: "req"})
	require.NoError(t, err)

	matches := resp.Matches.([]DetailedMatch)
	require.Len(t, matches, 1)
	assert.Equal(t, "good", matches[0].Company.ID)
	assert.Equal(t, 2, resp.Metadata.TotalCandidates)
}
