// internal/matching/errors.go
package matching

import "errors"

var (
	ErrInvalidRequest  = errors.New("MATCH_REQUEST_INVALID")
	ErrCompanyNotFound = errors.New("COMPANY_NOT_FOUND")
	ErrMatchingFailed  = errors.New("MATCHING_FAILED")
)
