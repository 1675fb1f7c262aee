// internal/matching/formatter.go
package matching

import (
	"time"

	"company-matching/internal/models"
)

type Layout string

const (
	LayoutDetailed Layout = "detailed"
	LayoutCompact  Layout = "compact"
)

const (
	compactReasons   = 5
	compactInterests = 5
	compactSynergies = 3
)

type DetailedMatch struct {
	Company             *models.CompanyProfile     `json:"company"`
	MatchScore          int                        `json:"matchScore"`
	MatchPercentage     int                        `json:"matchPercentage"`
	MatchType           models.MatchType           `json:"matchType"`
	Reasons             []string                   `json:"reasons"`
	CommonInterests     []string                   `json:"commonInterests"`
	PotentialSynergies  []string                   `json:"potentialSynergies"`
	DaysSinceUpdate     int                        `json:"daysSinceUpdate"`
	RecentlyActive      bool                       `json:"recentlyActive"`
	ExistingMatchStatus *models.RelationshipStatus `json:"existingMatchStatus"`
}

type CompactMatch struct {
	CompanyID           string                     `json:"companyId"`
	CompanyName         string                     `json:"companyName"`
	OwnerUserID         string                     `json:"ownerUserId"`
	District            models.District            `json:"district,omitempty"`
	IndustryPrimary     string                     `json:"industryPrimary,omitempty"`
	MatchScore          int                        `json:"matchScore"`
	MatchPercentage     int                        `json:"matchPercentage"`
	MatchType           models.MatchType           `json:"matchType"`
	ExistingMatchStatus *models.RelationshipStatus `json:"existingMatchStatus"`
	Reasons             []string                   `json:"reasons"`
	CommonInterests     []string                   `json:"commonInterests"`
	PotentialSynergies  []string                   `json:"potentialSynergies"`
	DaysSinceUpdate     int                        `json:"daysSinceUpdate"`
	RecentlyActive      bool                       `json:"recentlyActive"`
}

type SearchCriteria struct {
	RequesterCompanyID string                 `json:"requesterCompanyId"`
	Limit              int                    `json:"limit"`
	ExcludeExisting    bool                   `json:"excludeExisting"`
	Layout             Layout                 `json:"layout"`
	PreferencesApplied bool                   `json:"preferencesApplied"`
	Districts          []models.District      `json:"districts,omitempty"`
	Sizes              []models.EmployeeRange `json:"sizes,omitempty"`
	CustomerTypes      []models.CustomerType  `json:"customerTypes,omitempty"`
}

type Metadata struct {
	RunID           string         `json:"runId"`
	TotalCandidates int            `json:"totalCandidates"`
	Returned        int            `json:"returned"`
	SearchCriteria  SearchCriteria `json:"searchCriteria"`
	Timestamp       time.Time      `json:"timestamp"`
	DurationMs      int64          `json:"durationMs"`
}

// MatchResponse holds either []DetailedMatch or []CompactMatch in Matches,
// depending on the requested layout.
type MatchResponse struct {
	Matches  interface{} `json:"matches"`
	Metadata Metadata    `json:"metadata"`
}

// Format shapes a ranked shortlist. Unknown layouts fall back to detailed.
func Format(layout Layout, ranked []models.ScoredCandidate, meta Metadata) *MatchResponse {
	meta.Returned = len(ranked)
	if layout == LayoutCompact {
		return &MatchResponse{Matches: FormatCompact(ranked), Metadata: meta}
	}
	return &MatchResponse{Matches: FormatDetailed(ranked), Metadata: meta}
}

func FormatDetailed(ranked []models.ScoredCandidate) []DetailedMatch {
	out := make([]DetailedMatch, 0, len(ranked))
	for _, s := range ranked {
		score := s.Score()
		out = append(out, DetailedMatch{
			Company:             s.Company,
			MatchScore:          score,
			MatchPercentage:     score,
			MatchType:           s.MatchType,
			Reasons:             nonNil(s.Reasons),
			CommonInterests:     nonNil(s.CommonInterests),
			PotentialSynergies:  nonNil(s.PotentialSynergies),
			DaysSinceUpdate:     s.DaysSinceUpdate,
			RecentlyActive:      s.RecentlyActive(),
			ExistingMatchStatus: s.ExistingMatchStatus,
		})
	}
	return out
}

func FormatCompact(ranked []models.ScoredCandidate) []CompactMatch {
	out := make([]CompactMatch, 0, len(ranked))
	for _, s := range ranked {
		score := s.Score()
		out = append(out, CompactMatch{
			CompanyID:           s.Company.ID,
			CompanyName:         s.Company.Name,
			OwnerUserID:         s.Company.OwnerUserID,
			District:            s.Company.District,
			IndustryPrimary:     s.Company.IndustryPrimary,
			MatchScore:          score,
			MatchPercentage:     score,
			MatchType:           s.MatchType,
			ExistingMatchStatus: s.ExistingMatchStatus,
			Reasons:             truncate(s.Reasons, compactReasons),
			CommonInterests:     truncate(s.CommonInterests, compactInterests),
			PotentialSynergies:  truncate(s.PotentialSynergies, compactSynergies),
			DaysSinceUpdate:     s.DaysSinceUpdate,
			RecentlyActive:      s.RecentlyActive(),
		})
	}
	return out
}

func truncate(in []string, n int) []string {
	if len(in) > n {
		in = in[:n]
	}
	return nonNil(in)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
