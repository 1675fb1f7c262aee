// internal/models/match.go
package models

import "time"

type MatchType string

const (
	MatchTypeNetworking        MatchType = "NETWORKING"
	MatchTypeSupplierCustomer  MatchType = "SUPPLIER_CUSTOMER"
	MatchTypeServiceProvider   MatchType = "SERVICE_PROVIDER"
	MatchTypePartnership       MatchType = "PARTNERSHIP"
	MatchTypeKnowledgeExchange MatchType = "KNOWLEDGE_EXCHANGE"
	MatchTypeCollaboration     MatchType = "COLLABORATION"
)

// RelationshipStatus is the state of a directed request between two companies.
type RelationshipStatus string

const (
	RelationshipPending          RelationshipStatus = "PENDING"
	RelationshipAcceptedBySender RelationshipStatus = "ACCEPTED_BY_SENDER"
	RelationshipConnected        RelationshipStatus = "CONNECTED"
	RelationshipDeclined         RelationshipStatus = "DECLINED"
	RelationshipWithdrawn        RelationshipStatus = "WITHDRAWN"
)

type RelationshipRecord struct {
	SenderID   string             `json:"senderId"`
	ReceiverID string             `json:"receiverId"`
	Status     RelationshipStatus `json:"status"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// ScoredCandidate is computed per matching run and never persisted.
type ScoredCandidate struct {
	Company             *CompanyProfile     `json:"company"`
	RawScore            float64             `json:"-"`
	MatchType           MatchType           `json:"matchType"`
	Reasons             []string            `json:"reasons"`
	CommonInterests     []string            `json:"commonInterests"`
	PotentialSynergies  []string            `json:"potentialSynergies"`
	DaysSinceUpdate     int                 `json:"daysSinceUpdate"`
	ExistingMatchStatus *RelationshipStatus `json:"existingMatchStatus"`
}

// Score is the presentation value: raw score clamped to [0,100] and rounded.
func (s ScoredCandidate) Score() int {
	v := s.RawScore
	if v > 100 {
		v = 100
	}
	if v < 0 {
		v = 0
	}
	return int(v + 0.5)
}

func (s ScoredCandidate) RecentlyActive() bool {
	return s.DaysSinceUpdate <= 7
}
