// internal/repository/elastic.go
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "company-matching/internal/common/errors"
	"company-matching/internal/matching"
	"company-matching/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// CandidateSource produces the candidate pool for a filter.
type CandidateSource interface {
	ListCandidateCompanies(ctx context.Context, filter matching.CandidateFilter, poolCap int) ([]*models.CompanyProfile, error)
}

// ConnectionLister returns ids already CONNECTED to a company.
type ConnectionLister interface {
	ConnectedCompanyIDs(ctx context.Context, companyID string) ([]string, error)
}

// ElasticCandidateSource reads the candidate pool from the company search
// index. Relationships live in Postgres, so connected companies are resolved
// there first and excluded by id.
type ElasticCandidateSource struct {
	client      *elasticsearch.Client
	index       string
	connections ConnectionLister
}

// NewElasticCandidateSource needs connections to honour ExcludeConnected;
// with a nil lister such filters fail instead of returning connected companies.
func NewElasticCandidateSource(client *elasticsearch.Client, index string, connections ConnectionLister) *ElasticCandidateSource {
	return &ElasticCandidateSource{client: client, index: index, connections: connections}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string                `json:"_id"`
			Source models.CompanyProfile `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticCandidateSource) ListCandidateCompanies(ctx context.Context, filter matching.CandidateFilter, poolCap int) ([]*models.CompanyProfile, error) {
	excluded := []string{filter.ExcludeID}
	if filter.ExcludeConnected {
		if s.connections == nil {
			return nil, apperrors.NewInternalError(errors.New("candidate search: connected exclusion requested without a connection lister"))
		}
		connected, err := s.connections.ConnectedCompanyIDs(ctx, filter.ExcludeID)
		if err != nil {
			return nil, err
		}
		excluded = append(excluded, connected...)
	}

	body, err := json.Marshal(buildCandidateQuery(filter, excluded))
	if err != nil {
		return nil, fmt.Errorf("marshal candidate query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &poolCap,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewQueryTimeoutError("candidate search")
		}
		return nil, apperrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("search returned %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(s.index, err)
	}

	candidates := make([]*models.CompanyProfile, 0, len(parsed.Hits.Hits))
	for i := range parsed.Hits.Hits {
		hit := &parsed.Hits.Hits[i]
		if hit.Source.ID == "" {
			hit.Source.ID = hit.ID
		}
		candidates = append(candidates, &hit.Source)
	}
	return candidates, nil
}

func buildCandidateQuery(filter matching.CandidateFilter, excluded []string) map[string]interface{} {
	filterClauses := []interface{}{}
	if len(filter.Districts) > 0 {
		filterClauses = append(filterClauses, termsClause("district", filter.Districts))
	}
	if len(filter.Sizes) > 0 {
		filterClauses = append(filterClauses, termsClause("employeeRange", filter.Sizes))
	}
	if len(filter.CustomerTypes) > 0 {
		filterClauses = append(filterClauses, termsClause("customerType", filter.CustomerTypes))
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filterClauses,
				"must_not": []interface{}{
					map[string]interface{}{
						"ids": map[string]interface{}{"values": excluded},
					},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"lastUpdated": map[string]interface{}{"order": "desc", "missing": "_last"}},
		},
	}
}

func termsClause[T ~string](field string, values []T) map[string]interface{} {
	return map[string]interface{}{
		"terms": map[string]interface{}{field: toTextArray(values)},
	}
}

// WithCandidates serves profiles and preferences from repo and the candidate
// pool from src.
func WithCandidates(repo matching.CompanyRepository, src CandidateSource) matching.CompanyRepository {
	return &splitRepository{CompanyRepository: repo, candidates: src}
}

type splitRepository struct {
	matching.CompanyRepository
	candidates CandidateSource
}

func (r *splitRepository) ListCandidateCompanies(ctx context.Context, filter matching.CandidateFilter, poolCap int) ([]*models.CompanyProfile, error) {
	return r.candidates.ListCandidateCompanies(ctx, filter, poolCap)
}
