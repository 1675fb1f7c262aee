// internal/matching/scoring.go
package matching

import (
	"math"
	"math/rand/v2"
	"time"

	"company-matching/internal/models"
)

// unknownAge is reported when a candidate has never recorded an update.
const unknownAge = 9999

// RandomSource supplies the per-candidate jitter. Implementations must be
// safe for concurrent use.
type RandomSource interface {
	Float64() float64
}

// Clock supplies the reference time for recency scoring.
type Clock interface {
	Now() time.Time
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Accumulator is threaded through the rule chain for one candidate.
type Accumulator struct {
	Score              float64
	MatchType          models.MatchType
	Reasons            []string
	CommonInterests    []string
	PotentialSynergies []string
	DaysSinceUpdate    int
}

func (a *Accumulator) add(points float64) {
	a.Score += points
}

func (a *Accumulator) reason(s string) {
	a.Reasons = append(a.Reasons, s)
}

func (a *Accumulator) interest(s string) {
	a.CommonInterests = append(a.CommonInterests, s)
}

func (a *Accumulator) synergy(s string) {
	a.PotentialSynergies = append(a.PotentialSynergies, s)
}

// upgrade sets the match type only while it is still the NETWORKING default,
// which keeps the first rule that classifies a candidate authoritative.
func (a *Accumulator) upgrade(t models.MatchType) {
	if a.MatchType == models.MatchTypeNetworking {
		a.MatchType = t
	}
}

// Rule is one independent scoring group.
type Rule struct {
	Name  string
	Apply func(requester, candidate *models.CompanyProfile, acc *Accumulator)
}

// Calculator scores candidates against a requester by running the rule chain.
type Calculator struct {
	rules []Rule
	clock Clock
}

// CalculatorOption configures NewCalculator.
type CalculatorOption func(*calculatorOptions)

type calculatorOptions struct {
	random RandomSource
	clock  Clock
}

// WithRandomSource replaces the jitter source; tests pass a fixed value.
func WithRandomSource(r RandomSource) CalculatorOption {
	return func(o *calculatorOptions) { o.random = r }
}

// WithClock replaces the wall clock used for days-since-update.
func WithClock(c Clock) CalculatorOption {
	return func(o *calculatorOptions) { o.clock = c }
}

// NewCalculator returns a Calculator using the default rules, global random
// jitter and the system clock unless overridden.
func NewCalculator(opts ...CalculatorOption) *Calculator {
	o := calculatorOptions{random: globalRand{}, clock: systemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Calculator{
		rules: DefaultRules(o.random),
		clock: o.clock,
	}
}

// DefaultRules returns the scoring groups in evaluation order. Offer/demand
// complementarity must stay first: it is the only rule that assigns a match
// type unconditionally.
func DefaultRules(random RandomSource) []Rule {
	return []Rule{
		{Name: "complementarity", Apply: scoreComplementarity},
		{Name: "pain_points", Apply: scorePainPoints},
		{Name: "geography", Apply: scoreGeography},
		{Name: "industry", Apply: scoreIndustry},
		{Name: "company_size", Apply: scoreCompanySize},
		{Name: "growth", Apply: scoreGrowth},
		{Name: "digitalization", Apply: scoreDigitalization},
		{Name: "sustainability", Apply: scoreSustainability},
		{Name: "certifications", Apply: scoreCertifications},
		{Name: "market", Apply: scoreMarket},
		{Name: "completeness", Apply: scoreCompleteness},
		{Name: "recency", Apply: scoreRecency},
		{Name: "jitter", Apply: jitterRule(random)},
	}
}

// Score computes the compatibility of candidate for requester. requester must
// not be nil; callers validate its existence before scoring.
func (c *Calculator) Score(requester, candidate *models.CompanyProfile) models.ScoredCandidate {
	if requester == nil {
		panic("matching: Score called with nil requester")
	}

	acc := &Accumulator{
		MatchType:          models.MatchTypeNetworking,
		Reasons:            []string{},
		CommonInterests:    []string{},
		PotentialSynergies: []string{},
		DaysSinceUpdate:    daysSince(c.clock.Now(), candidate.LastUpdated),
	}

	for _, rule := range c.rules {
		rule.Apply(requester, candidate, acc)
	}

	return models.ScoredCandidate{
		Company:            candidate,
		RawScore:           acc.Score,
		MatchType:          acc.MatchType,
		Reasons:            acc.Reasons,
		CommonInterests:    acc.CommonInterests,
		PotentialSynergies: acc.PotentialSynergies,
		DaysSinceUpdate:    acc.DaysSinceUpdate,
	}
}

func daysSince(now, updated time.Time) int {
	if updated.IsZero() {
		return unknownAge
	}
	days := int(math.Floor(now.Sub(updated).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}
