// internal/matching/rules.go
package matching

import (
	"fmt"

	"company-matching/internal/models"
)

const (
	complementarityBase  = 20.0
	partnershipBonus     = 15.0
	painPointPoints      = 5.0
	sameDistrictPoints   = 15.0
	locationAdvantagePts = 2.0
	adjacentDistrictPts  = 8.0
	sameIndustryPoints   = 10.0
	sameSectorPoints     = 5.0
	industryTagPoints    = 3.0
	industryTagCap       = 12.0
	sameSizePoints       = 5.0
	complementarySizePts = 3.0
	sameGrowthPoints     = 6.0
	expansionPoints      = 4.0
	digitalClosePoints   = 4.0
	digitalGapPoints     = 2.0
	sustainabilityPoints = 3.0
	certificationPoints  = 2.0
	customerTypePoints   = 4.0
	marketReachPoints    = 3.0
	completenessCap      = 5
	recentPoints         = 5.0
	activePoints         = 2.0
	maxJitter            = 3.0
)

func scoreComplementarity(req, cand *models.CompanyProfile, acc *Accumulator) {
	supplies := false
	for _, offer := range req.Offering {
		for _, search := range cand.SearchingFor {
			if offer.Category == "" || offer.Category != search.Category {
				continue
			}
			supplies = true
			acc.add(complementarityBase + float64(offer.Priority+search.Priority))
			acc.reason(fmt.Sprintf("You offer %q, which they are looking for", offer.Category))
			acc.synergy(fmt.Sprintf("You can supply %s with %s", cand.Name, offer.Category))
		}
	}

	receives := false
	for _, offer := range cand.Offering {
		for _, search := range req.SearchingFor {
			if offer.Category == "" || offer.Category != search.Category {
				continue
			}
			receives = true
			acc.add(complementarityBase + float64(offer.Priority+search.Priority))
			acc.reason(fmt.Sprintf("They offer %q, which you are looking for", offer.Category))
			acc.synergy(fmt.Sprintf("%s can provide %s", cand.Name, offer.Category))
		}
	}

	switch {
	case supplies && receives:
		acc.MatchType = models.MatchTypePartnership
		acc.add(partnershipBonus)
		acc.reason("Mutual offer and demand")
	case supplies:
		acc.MatchType = models.MatchTypeSupplierCustomer
	case receives:
		acc.MatchType = models.MatchTypeServiceProvider
	}
}

func scorePainPoints(req, cand *models.CompanyProfile, acc *Accumulator) {
	shared := intersect(req.PainPoints, cand.PainPoints)
	if len(shared) == 0 {
		return
	}
	acc.add(painPointPoints * float64(len(shared)))
	for _, p := range shared {
		acc.interest(p)
	}
	acc.reason(fmt.Sprintf("%d shared challenge(s)", len(shared)))
	acc.upgrade(models.MatchTypeKnowledgeExchange)
}

func scoreGeography(req, cand *models.CompanyProfile, acc *Accumulator) {
	if req.District == "" || cand.District == "" {
		return
	}
	if req.District == cand.District {
		acc.add(sameDistrictPoints)
		acc.reason(fmt.Sprintf("Same district (%s)", cand.District))
		for _, adv := range intersect(req.LocationAdvantages, cand.LocationAdvantages) {
			acc.add(locationAdvantagePts)
			acc.synergy("Shared location advantage: " + adv)
		}
		return
	}
	if AreAdjacent(req.District, cand.District) {
		acc.add(adjacentDistrictPts)
		acc.reason(fmt.Sprintf("Neighbouring district (%s)", cand.District))
	}
}

func scoreIndustry(req, cand *models.CompanyProfile, acc *Accumulator) {
	a, b := req.IndustryPrimary, cand.IndustryPrimary
	switch {
	case a != "" && a == b:
		acc.add(sameIndustryPoints)
		acc.reason(fmt.Sprintf("Same industry (%s)", a))
	case len(a) >= 2 && len(b) >= 2 && a[:2] == b[:2]:
		acc.add(sameSectorPoints)
		acc.reason(fmt.Sprintf("Same sector (%s)", a[:2]))
	}

	tags := intersect(req.IndustryTags, cand.IndustryTags)
	if len(tags) == 0 {
		return
	}
	points := industryTagPoints * float64(len(tags))
	if points > industryTagCap {
		points = industryTagCap
	}
	acc.add(points)
	for _, t := range tags {
		acc.interest(t)
	}
}

func scoreCompanySize(req, cand *models.CompanyProfile, acc *Accumulator) {
	a, b := req.EmployeeRange, cand.EmployeeRange
	if a == "" || b == "" {
		return
	}
	if a == b {
		acc.add(sameSizePoints)
		acc.reason("Similar company size")
		return
	}
	if (a == models.EmployeeRangeLarge && b == models.EmployeeRangeSmall) ||
		(a == models.EmployeeRangeSmall && b == models.EmployeeRangeLarge) {
		acc.add(complementarySizePts)
		acc.synergy("Large and small company can complement each other")
	}
}

func scoreGrowth(req, cand *models.CompanyProfile, acc *Accumulator) {
	if req.GrowthPhase != "" && req.GrowthPhase == cand.GrowthPhase {
		acc.add(sameGrowthPoints)
		acc.reason(fmt.Sprintf("Same growth phase (%s)", req.GrowthPhase))
	}

	shared := intersect(req.ExpansionPlans, cand.ExpansionPlans)
	digital := false
	for _, e := range shared {
		acc.add(expansionPoints)
		acc.interest("Expansion: " + string(e))
		if e == models.ExpansionDigitalization {
			digital = true
		}
	}
	if digital {
		acc.upgrade(models.MatchTypeCollaboration)
	}
}

func scoreDigitalization(req, cand *models.CompanyProfile, acc *Accumulator) {
	diff := absInt(models.ClampLevel(req.DigitalizationLevel) - models.ClampLevel(cand.DigitalizationLevel))
	switch {
	case diff <= 1:
		acc.add(digitalClosePoints)
	case diff >= 5:
		acc.add(digitalGapPoints)
		acc.synergy("Digital know-how transfer")
		acc.upgrade(models.MatchTypeKnowledgeExchange)
	}
}

func scoreSustainability(req, cand *models.CompanyProfile, acc *Accumulator) {
	diff := absInt(models.ClampLevel(req.SustainabilityFocus) - models.ClampLevel(cand.SustainabilityFocus))
	if diff <= 1 {
		acc.add(sustainabilityPoints)
	}
}

func scoreCertifications(req, cand *models.CompanyProfile, acc *Accumulator) {
	for _, c := range intersect(req.Certifications, cand.Certifications) {
		acc.add(certificationPoints)
		acc.interest("Certification: " + c)
	}
}

func scoreMarket(req, cand *models.CompanyProfile, acc *Accumulator) {
	if req.CustomerType != "" && req.CustomerType == cand.CustomerType {
		acc.add(customerTypePoints)
		acc.reason(fmt.Sprintf("Same customer focus (%s)", req.CustomerType))
	}
	if req.MarketReach != "" && req.MarketReach == cand.MarketReach {
		acc.add(marketReachPoints)
	}
}

func scoreCompleteness(_, cand *models.CompanyProfile, acc *Accumulator) {
	signals := []bool{
		cand.Name != "",
		cand.Description != "",
		cand.BranchDescription != "",
		len(cand.IndustryTags) > 0,
		len(cand.SearchingFor) > 0,
		len(cand.Offering) > 0,
		len(cand.Certifications) > 0,
		cand.EmployeeCount > 0,
		cand.AnnualRevenue > 0,
		cand.DigitalizationLevel > 1,
	}
	count := 0
	for _, ok := range signals {
		if ok {
			count++
		}
	}
	if count > completenessCap {
		count = completenessCap
	}
	acc.add(float64(count))
}

func scoreRecency(_, _ *models.CompanyProfile, acc *Accumulator) {
	switch {
	case acc.DaysSinceUpdate <= 7:
		acc.add(recentPoints)
		acc.reason("Recently active")
	case acc.DaysSinceUpdate <= 30:
		acc.add(activePoints)
	}
}

func jitterRule(random RandomSource) func(_, _ *models.CompanyProfile, acc *Accumulator) {
	return func(_, _ *models.CompanyProfile, acc *Accumulator) {
		acc.add(random.Float64() * maxJitter)
	}
}

// intersect returns the distinct values of a that also occur in b, in a's order.
func intersect[T comparable](a, b []T) []T {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	inB := make(map[T]struct{}, len(b))
	for _, v := range b {
		inB[v] = struct{}{}
	}
	seen := make(map[T]struct{}, len(a))
	var out []T
	for _, v := range a {
		if _, ok := inB[v]; !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
