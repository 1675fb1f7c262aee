// internal/matching/ranker.go
package matching

import (
	"container/heap"
	"math"
	"sort"

	"company-matching/internal/models"
)

const (
	excellentThreshold = 30.0
	goodThreshold      = 20.0
	excellentShare     = 0.6
	goodTriggerShare   = 0.8
	goodShare          = 0.3
)

// diversityOrder is the order in which match types get a guaranteed slot.
var diversityOrder = []models.MatchType{
	models.MatchTypeSupplierCustomer,
	models.MatchTypePartnership,
	models.MatchTypeServiceProvider,
	models.MatchTypeCollaboration,
	models.MatchTypeKnowledgeExchange,
}

// RankAndSelect builds a shortlist of at most limit candidates: a quota of
// excellent scores, a smaller quota of good scores, one slot per match type
// for diversity, then the best of the rest. The result is ordered by score.
func RankAndSelect(scored []models.ScoredCandidate, limit int) []models.ScoredCandidate {
	if limit <= 0 || len(scored) == 0 {
		return []models.ScoredCandidate{}
	}

	ordered := make([]models.ScoredCandidate, 0, len(scored))
	for _, s := range scored {
		if s.Company != nil {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RawScore > ordered[j].RawScore
	})

	sel := newSelection(ordered, limit)

	excellentQuota := int(math.Ceil(float64(limit) * excellentShare))
	taken := 0
	for i := range ordered {
		if taken >= excellentQuota || sel.full() {
			break
		}
		if ordered[i].RawScore > excellentThreshold && sel.take(i) {
			taken++
		}
	}

	if float64(sel.len()) < float64(limit)*goodTriggerShare {
		goodQuota := int(float64(limit) * goodShare)
		taken = 0
		for i := range ordered {
			if taken >= goodQuota || sel.full() {
				break
			}
			s := ordered[i].RawScore
			if s > goodThreshold && s <= excellentThreshold && sel.take(i) {
				taken++
			}
		}
	}

	buckets := newTypeBuckets(ordered)
	for _, mt := range diversityOrder {
		if sel.full() {
			break
		}
		if i, ok := buckets.popBest(mt, sel); ok {
			sel.take(i)
		}
	}

	for i := range ordered {
		if sel.full() {
			break
		}
		sel.take(i)
	}

	return sel.result()
}

// selection tracks chosen positions in the score-ordered slice and guards
// against picking the same company twice.
type selection struct {
	ordered []models.ScoredCandidate
	limit   int
	picked  []int
	ids     map[string]struct{}
}

func newSelection(ordered []models.ScoredCandidate, limit int) *selection {
	return &selection{
		ordered: ordered,
		limit:   limit,
		ids:     make(map[string]struct{}, limit),
	}
}

func (s *selection) len() int   { return len(s.picked) }
func (s *selection) full() bool { return len(s.picked) >= s.limit }

func (s *selection) has(i int) bool {
	_, ok := s.ids[s.ordered[i].Company.ID]
	return ok
}

func (s *selection) take(i int) bool {
	if s.full() || s.has(i) {
		return false
	}
	s.ids[s.ordered[i].Company.ID] = struct{}{}
	s.picked = append(s.picked, i)
	return true
}

func (s *selection) result() []models.ScoredCandidate {
	positions := append([]int(nil), s.picked...)
	sort.Ints(positions)
	out := make([]models.ScoredCandidate, 0, len(positions))
	for _, i := range positions {
		out = append(out, s.ordered[i])
	}
	return out
}

// positionHeap is a min-heap of positions in the score-ordered slice, so the
// top is the best-scoring member of the bucket.
type positionHeap []int

func (h positionHeap) Len() int            { return len(h) }
func (h positionHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h positionHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *positionHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *positionHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

type typeBuckets map[models.MatchType]*positionHeap

func newTypeBuckets(ordered []models.ScoredCandidate) typeBuckets {
	b := make(typeBuckets)
	for i, s := range ordered {
		h, ok := b[s.MatchType]
		if !ok {
			h = &positionHeap{}
			b[s.MatchType] = h
		}
		*h = append(*h, i)
	}
	for _, h := range b {
		heap.Init(h)
	}
	return b
}

// popBest discards already-selected entries lazily and returns the best
// remaining position for the match type.
func (b typeBuckets) popBest(mt models.MatchType, sel *selection) (int, bool) {
	h, ok := b[mt]
	if !ok {
		return 0, false
	}
	for h.Len() > 0 {
		i := heap.Pop(h).(int)
		if !sel.has(i) {
			return i, true
		}
	}
	return 0, false
}
