// internal/repository/postgres.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "company-matching/internal/common/errors"
	"company-matching/internal/matching"
	"company-matching/internal/models"

	"github.com/lib/pq"
)

const companyColumns = `c.id, c.owner_user_id, c.name, c.legal_form, c.description, c.branch_description,
	c.district, c.founding_year, c.industry_primary, c.industry_secondary, c.employee_range,
	c.employee_count, c.annual_revenue, c.customer_type, c.market_reach, c.growth_phase,
	c.digitalization_level, c.sustainability_focus, c.export_quota, c.updated_at,
	c.industry_tags, c.searching_for, c.offering, c.pain_points, c.expansion_plans,
	c.certifications, c.location_advantages`

const (
	queryCompanyByID = `SELECT ` + companyColumns + ` FROM companies c WHERE c.id = $1`

	queryPreferences = `SELECT user_id, preferred_districts, preferred_sizes, preferred_customer_types
	FROM matching_preferences WHERE user_id = $1`

	// Empty filter arrays mean "no restriction".
	queryCandidates = `SELECT ` + companyColumns + ` FROM companies c
	WHERE c.id <> $1
	  AND (cardinality($2::text[]) = 0 OR c.district = ANY($2::text[]))
	  AND (cardinality($3::text[]) = 0 OR c.employee_range = ANY($3::text[]))
	  AND (cardinality($4::text[]) = 0 OR c.customer_type = ANY($4::text[]))
	  AND (NOT $5 OR NOT EXISTS (
	      SELECT 1 FROM company_relationships r
	      WHERE r.status = 'CONNECTED'
	        AND ((r.sender_id = $1 AND r.receiver_id = c.id) OR (r.receiver_id = $1 AND r.sender_id = c.id))))
	ORDER BY c.updated_at DESC NULLS LAST, c.id
	LIMIT $6`

	queryPendingRelationships = `SELECT receiver_id, status FROM company_relationships
	WHERE sender_id = $1 AND receiver_id = ANY($2) AND status IN ('PENDING', 'ACCEPTED_BY_SENDER')
	ORDER BY created_at DESC`

	queryConnectedIDs = `SELECT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END
	FROM company_relationships
	WHERE status = 'CONNECTED' AND (sender_id = $1 OR receiver_id = $1)`

	insertActivity = `INSERT INTO activity_log (kind, payload, created_at) VALUES ($1, $2, $3)`
)

// PostgresStore is the system of record for profiles, preferences and
// relationships. It implements matching.CompanyRepository and
// matching.RelationshipLookup.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetCompanyProfile(ctx context.Context, id string) (*models.CompanyProfile, error) {
	profile, err := scanCompany(s.db.QueryRowContext(ctx, queryCompanyByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, matching.ErrCompanyNotFound
	}
	if err != nil {
		return nil, wrapQueryErr("company by id", err)
	}
	return profile, nil
}

func (s *PostgresStore) GetMatchingPreferences(ctx context.Context, userID string) (*models.MatchingPreferences, error) {
	var (
		prefs                           models.MatchingPreferences
		districts, sizes, customerTypes []string
	)
	err := s.db.QueryRowContext(ctx, queryPreferences, userID).Scan(
		&prefs.UserID,
		pq.Array(&districts),
		pq.Array(&sizes),
		pq.Array(&customerTypes),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapQueryErr("matching preferences", err)
	}

	prefs.PreferredDistricts = fromStrings[models.District](districts)
	prefs.PreferredSizes = fromStrings[models.EmployeeRange](sizes)
	prefs.PreferredCustomerTypes = fromStrings[models.CustomerType](customerTypes)
	return &prefs, nil
}

func (s *PostgresStore) ListCandidateCompanies(ctx context.Context, filter matching.CandidateFilter, poolCap int) ([]*models.CompanyProfile, error) {
	rows, err := s.db.QueryContext(ctx, queryCandidates,
		filter.ExcludeID,
		toTextArray(filter.Districts),
		toTextArray(filter.Sizes),
		toTextArray(filter.CustomerTypes),
		filter.ExcludeConnected,
		poolCap,
	)
	if err != nil {
		return nil, wrapQueryErr("candidate pool", err)
	}
	defer rows.Close()

	candidates := make([]*models.CompanyProfile, 0, poolCap)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, wrapQueryErr("candidate pool", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryErr("candidate pool", err)
	}
	return candidates, nil
}

// FindPendingRelationships resolves the whole shortlist in one round trip.
// When several open requests exist for a receiver the newest wins.
func (s *PostgresStore) FindPendingRelationships(ctx context.Context, senderID string, receiverIDs []string) (map[string]models.RelationshipStatus, error) {
	out := make(map[string]models.RelationshipStatus)
	if len(receiverIDs) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, queryPendingRelationships, senderID, pq.Array(receiverIDs))
	if err != nil {
		return nil, wrapQueryErr("pending relationships", err)
	}
	defer rows.Close()

	for rows.Next() {
		var receiver, status string
		if err := rows.Scan(&receiver, &status); err != nil {
			return nil, wrapQueryErr("pending relationships", err)
		}
		if _, seen := out[receiver]; !seen {
			out[receiver] = models.RelationshipStatus(status)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryErr("pending relationships", err)
	}
	return out, nil
}

// ConnectedCompanyIDs lists companies with a CONNECTED relationship to
// companyID in either direction.
func (s *PostgresStore) ConnectedCompanyIDs(ctx context.Context, companyID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, queryConnectedIDs, companyID)
	if err != nil {
		return nil, wrapQueryErr("connected companies", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapQueryErr("connected companies", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertActivity appends one row to activity_log.
func (s *PostgresStore) InsertActivity(ctx context.Context, kind string, payload map[string]interface{}, at time.Time) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal activity payload: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, insertActivity, kind, body, at.UTC()); err != nil {
		return apperrors.NewQueryExecutionFailedError("insert activity", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCompany(row rowScanner) (*models.CompanyProfile, error) {
	var (
		c                                                 models.CompanyProfile
		legalForm, description, branch, district          sql.NullString
		industryPrimary, industrySecondary, employeeRange sql.NullString
		customerType, marketReach, growthPhase            sql.NullString
		foundingYear, employeeCount                       sql.NullInt64
		digitalization, sustainability, exportQuota       sql.NullInt64
		annualRevenue                                     sql.NullFloat64
		updatedAt                                         sql.NullTime
		searchingFor, offering                            []byte
		expansionPlans                                    []string
	)

	err := row.Scan(
		&c.ID, &c.OwnerUserID, &c.Name, &legalForm, &description, &branch,
		&district, &foundingYear, &industryPrimary, &industrySecondary, &employeeRange,
		&employeeCount, &annualRevenue, &customerType, &marketReach, &growthPhase,
		&digitalization, &sustainability, &exportQuota, &updatedAt,
		pq.Array(&c.IndustryTags), &searchingFor, &offering, pq.Array(&c.PainPoints), pq.Array(&expansionPlans),
		pq.Array(&c.Certifications), pq.Array(&c.LocationAdvantages),
	)
	if err != nil {
		return nil, err
	}

	c.LegalForm = legalForm.String
	c.Description = description.String
	c.BranchDescription = branch.String
	c.District = models.District(district.String)
	if foundingYear.Valid {
		y := int(foundingYear.Int64)
		c.FoundingYear = &y
	}
	c.IndustryPrimary = industryPrimary.String
	c.IndustrySecondary = industrySecondary.String
	c.EmployeeRange = models.EmployeeRange(employeeRange.String)
	c.EmployeeCount = int(employeeCount.Int64)
	c.AnnualRevenue = annualRevenue.Float64
	c.CustomerType = models.CustomerType(customerType.String)
	c.MarketReach = models.MarketReach(marketReach.String)
	c.GrowthPhase = models.GrowthPhase(growthPhase.String)
	c.DigitalizationLevel = models.ClampLevel(int(digitalization.Int64))
	c.SustainabilityFocus = models.ClampLevel(int(sustainability.Int64))
	c.ExportQuota = int(exportQuota.Int64)
	if updatedAt.Valid {
		c.LastUpdated = updatedAt.Time
	}
	c.ExpansionPlans = fromStrings[models.ExpansionType](expansionPlans)

	if c.SearchingFor, err = decodeNeeds(searchingFor); err != nil {
		return nil, fmt.Errorf("company %s searching_for: %w", c.ID, err)
	}
	if c.Offering, err = decodeNeeds(offering); err != nil {
		return nil, fmt.Errorf("company %s offering: %w", c.ID, err)
	}
	return &c, nil
}

func decodeNeeds(raw []byte) ([]models.NeedEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var needs []models.NeedEntry
	if err := json.Unmarshal(raw, &needs); err != nil {
		return nil, err
	}
	return needs, nil
}

// toTextArray never returns a nil array: a NULL parameter would make the
// cardinality checks in queryCandidates evaluate to NULL.
func toTextArray[T ~string](in []T) pq.StringArray {
	out := make(pq.StringArray, 0, len(in))
	for _, v := range in {
		out = append(out, string(v))
	}
	return out
}

func fromStrings[T ~string](in []string) []T {
	if len(in) == 0 {
		return nil
	}
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, T(v))
	}
	return out
}

func wrapQueryErr(query string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewQueryTimeoutError(query)
	}
	return apperrors.NewQueryExecutionFailedError(query, err)
}
