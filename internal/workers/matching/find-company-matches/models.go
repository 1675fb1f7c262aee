// internal/workers/matching/find-company-matches/models.go
package findcompanymatches

import (
	"company-matching/internal/common/validation"
	"company-matching/internal/matching"
)

type Input struct {
	RequesterCompanyID string `json:"requesterCompanyId"`
	Limit              int    `json:"limit,omitempty"`
	ExcludeExisting    bool   `json:"excludeExisting,omitempty"`
	Layout             string `json:"layout,omitempty"`
}

func (in *Input) toRequest() matching.MatchRequest {
	return matching.MatchRequest{
		RequesterCompanyID: in.RequesterCompanyID,
		Limit:              in.Limit,
		ExcludeExisting:    in.ExcludeExisting,
		Layout:             matching.Layout(in.Layout),
	}
}

// Output is written back to the process as the matches and metadata
// variables.
type Output struct {
	Matches  interface{}       `json:"matches"`
	Metadata matching.Metadata `json:"metadata"`
}

func (o *Output) variables() map[string]interface{} {
	return map[string]interface{}{
		"matches":    o.Matches,
		"metadata":   o.Metadata,
		"matchCount": o.Metadata.Returned,
	}
}

var inputSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["requesterCompanyId"],
  "properties": {
    "requesterCompanyId": {"type": "string", "minLength": 1, "maxLength": 64},
    "limit": {"type": "integer", "minimum": 0},
    "excludeExisting": {"type": "boolean"},
    "layout": {"type": "string", "enum": ["detailed", "compact"]}
  }
}`)
