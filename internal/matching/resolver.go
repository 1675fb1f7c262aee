// internal/matching/resolver.go
package matching

import (
	"context"

	"company-matching/internal/common/logger"
	"company-matching/internal/common/metrics"
	"company-matching/internal/models"
)

// Resolver annotates a shortlist with open requests the requester has already
// sent. It never changes scores or order.
type Resolver struct {
	lookup RelationshipLookup
	logger logger.Logger
}

func NewResolver(lookup RelationshipLookup, log logger.Logger) *Resolver {
	return &Resolver{
		lookup: lookup,
		logger: log.WithFields(map[string]interface{}{"component": "relationship-resolver"}),
	}
}

// Annotate issues one batched lookup for the whole shortlist. A failed lookup
// leaves every status nil.
func (r *Resolver) Annotate(ctx context.Context, requesterID string, selected []models.ScoredCandidate) {
	if r.lookup == nil || len(selected) == 0 {
		return
	}

	ids := make([]string, 0, len(selected))
	for _, s := range selected {
		ids = append(ids, s.Company.ID)
	}

	statuses, err := r.lookup.FindPendingRelationships(ctx, requesterID, ids)
	if err != nil {
		metrics.RelationshipLookupFailures.Inc()
		r.logger.Warn("relationship lookup failed, continuing without status", map[string]interface{}{
			"requesterId": requesterID,
			"candidates":  len(ids),
			"error":       err,
		})
		return
	}

	for i := range selected {
		status, ok := statuses[selected[i].Company.ID]
		if !ok || !isOpenRequest(status) {
			continue
		}
		st := status
		selected[i].ExistingMatchStatus = &st
	}
}

func isOpenRequest(s models.RelationshipStatus) bool {
	return s == models.RelationshipPending || s == models.RelationshipAcceptedBySender
}
