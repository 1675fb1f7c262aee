// internal/matching/ports.go
package matching

import (
	"context"

	"company-matching/internal/models"
)

// CandidateFilter narrows the candidate pool before scoring.
type CandidateFilter struct {
	ExcludeID        string
	Districts        []models.District
	Sizes            []models.EmployeeRange
	CustomerTypes    []models.CustomerType
	ExcludeConnected bool
}

// CompanyRepository supplies the requester profile and the candidate pool.
// GetCompanyProfile returns ErrCompanyNotFound for unknown ids.
// GetMatchingPreferences returns nil, nil when the user has none.
type CompanyRepository interface {
	GetCompanyProfile(ctx context.Context, id string) (*models.CompanyProfile, error)
	GetMatchingPreferences(ctx context.Context, userID string) (*models.MatchingPreferences, error)
	ListCandidateCompanies(ctx context.Context, filter CandidateFilter, poolCap int) ([]*models.CompanyProfile, error)
}

// RelationshipLookup returns, for each receiver with a PENDING or
// ACCEPTED_BY_SENDER request from senderID, that status. Receivers without
// such a request are absent from the map.
type RelationshipLookup interface {
	FindPendingRelationships(ctx context.Context, senderID string, receiverIDs []string) (map[string]models.RelationshipStatus, error)
}

// ActivityRecorder must not block the caller.
type ActivityRecorder interface {
	RecordActivityEvent(ctx context.Context, kind string, payload map[string]interface{})
}
