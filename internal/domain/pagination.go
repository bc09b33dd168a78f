package domain

import "strconv"

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// PageRequest carries pagination parameters for list operations.
type PageRequest struct {
	MaxResults int
	PageToken  string
}

// Limit returns the effective page size, clamped to [1, maxPageSize].
func (p PageRequest) Limit() int {
	if p.MaxResults <= 0 {
		return defaultPageSize
	}
	if p.MaxResults > maxPageSize {
		return maxPageSize
	}
	return p.MaxResults
}

// Offset decodes the page token as a numeric offset. Invalid tokens start
// from the beginning.
func (p PageRequest) Offset() int {
	if p.PageToken == "" {
		return 0
	}
	n, err := strconv.Atoi(p.PageToken)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// NextPageToken returns the token for the page following this one, or ""
// when fewer than a full page was returned.
func (p PageRequest) NextPageToken(returned int) string {
	if returned < p.Limit() {
		return ""
	}
	return strconv.Itoa(p.Offset() + returned)
}
