// internal/models/company.go
package models

import "time"

// District is a Berlin borough.
type District string

const (
	DistrictMitte                     District = "MITTE"
	DistrictFriedrichshainKreuzberg   District = "FRIEDRICHSHAIN_KREUZBERG"
	DistrictPankow                    District = "PANKOW"
	DistrictCharlottenburgWilmersdorf District = "CHARLOTTENBURG_WILMERSDORF"
	DistrictSpandau                   District = "SPANDAU"
	DistrictSteglitzZehlendorf        District = "STEGLITZ_ZEHLENDORF"
	DistrictTempelhofSchoeneberg      District = "TEMPELHOF_SCHOENEBERG"
	DistrictNeukoelln                 District = "NEUKOELLN"
	DistrictTreptowKoepenick          District = "TREPTOW_KOEPENICK"
	DistrictMarzahnHellersdorf        District = "MARZAHN_HELLERSDORF"
	DistrictLichtenberg               District = "LICHTENBERG"
	DistrictReinickendorf             District = "REINICKENDORF"
)

// EmployeeRange is ordinal: SOLO < MICRO < SMALL < MEDIUM < LARGE.
type EmployeeRange string

const (
	EmployeeRangeSolo   EmployeeRange = "SOLO"
	EmployeeRangeMicro  EmployeeRange = "MICRO"
	EmployeeRangeSmall  EmployeeRange = "SMALL"
	EmployeeRangeMedium EmployeeRange = "MEDIUM"
	EmployeeRangeLarge  EmployeeRange = "LARGE"
)

var employeeRangeOrder = map[EmployeeRange]int{
	EmployeeRangeSolo:   1,
	EmployeeRangeMicro:  2,
	EmployeeRangeSmall:  3,
	EmployeeRangeMedium: 4,
	EmployeeRangeLarge:  5,
}

// Rank returns the ordinal position of the bucket, 0 when unknown.
func (r EmployeeRange) Rank() int {
	return employeeRangeOrder[r]
}

type CustomerType string

const (
	CustomerTypeB2B   CustomerType = "B2B"
	CustomerTypeB2C   CustomerType = "B2C"
	CustomerTypeB2B2C CustomerType = "B2B2C"
	CustomerTypeB2G   CustomerType = "B2G"
)

type MarketReach string

const (
	MarketReachLocal    MarketReach = "LOCAL"
	MarketReachRegional MarketReach = "REGIONAL"
	MarketReachNational MarketReach = "NATIONAL"
	MarketReachEuropean MarketReach = "EUROPEAN"
	MarketReachGlobal   MarketReach = "GLOBAL"
)

// GrowthPhase values are compared by identity only. TRANSFORMATION is not a
// later stage of MATURE.
type GrowthPhase string

const (
	GrowthPhaseStartup        GrowthPhase = "STARTUP"
	GrowthPhaseGrowth         GrowthPhase = "GROWTH"
	GrowthPhaseEstablished    GrowthPhase = "ESTABLISHED"
	GrowthPhaseMature         GrowthPhase = "MATURE"
	GrowthPhaseTransformation GrowthPhase = "TRANSFORMATION"
)

type ExpansionType string

const (
	ExpansionNewMarkets           ExpansionType = "NEW_MARKETS"
	ExpansionNewProducts          ExpansionType = "NEW_PRODUCTS"
	ExpansionDigitalization       ExpansionType = "DIGITALIZATION"
	ExpansionInternationalization ExpansionType = "INTERNATIONALIZATION"
	ExpansionAcquisition          ExpansionType = "ACQUISITION"
	ExpansionPartnerships         ExpansionType = "PARTNERSHIPS"
)

// NeedEntry is one "searching for" or "offering" line of a profile.
type NeedEntry struct {
	Category string `json:"category"`
	Detail   string `json:"detail,omitempty"`
	Priority int    `json:"priority"`
}

type CompanyProfile struct {
	ID                  string        `json:"id"`
	OwnerUserID         string        `json:"ownerUserId"`
	Name                string        `json:"name"`
	LegalForm           string        `json:"legalForm,omitempty"`
	Description         string        `json:"description,omitempty"`
	BranchDescription   string        `json:"branchDescription,omitempty"`
	District            District      `json:"district,omitempty"`
	FoundingYear        *int          `json:"foundingYear,omitempty"`
	IndustryPrimary     string        `json:"industryPrimary,omitempty"`
	IndustrySecondary   string        `json:"industrySecondary,omitempty"`
	EmployeeRange       EmployeeRange `json:"employeeRange,omitempty"`
	EmployeeCount       int           `json:"employeeCount,omitempty"`
	AnnualRevenue       float64       `json:"annualRevenue,omitempty"`
	CustomerType        CustomerType  `json:"customerType,omitempty"`
	MarketReach         MarketReach   `json:"marketReach,omitempty"`
	GrowthPhase         GrowthPhase   `json:"growthPhase,omitempty"`
	DigitalizationLevel int           `json:"digitalizationLevel"`
	SustainabilityFocus int           `json:"sustainabilityFocus"`
	ExportQuota         int           `json:"exportQuota"`
	LastUpdated         time.Time     `json:"lastUpdated"`

	IndustryTags       []string        `json:"industryTags,omitempty"`
	SearchingFor       []NeedEntry     `json:"searchingFor,omitempty"`
	Offering           []NeedEntry     `json:"offering,omitempty"`
	PainPoints         []string        `json:"painPoints,omitempty"`
	ExpansionPlans     []ExpansionType `json:"expansionPlans,omitempty"`
	Certifications     []string        `json:"certifications,omitempty"`
	LocationAdvantages []string        `json:"locationAdvantages,omitempty"`
}

// ClampLevel bounds a 1-10 profile level.
func ClampLevel(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}

// MatchingPreferences pre-filter the candidate pool. An empty set means no
// restriction on that attribute.
type MatchingPreferences struct {
	UserID                 string          `json:"userId"`
	PreferredDistricts     []District      `json:"preferredDistricts,omitempty"`
	PreferredSizes         []EmployeeRange `json:"preferredSizes,omitempty"`
	PreferredCustomerTypes []CustomerType  `json:"preferredCustomerTypes,omitempty"`
}
