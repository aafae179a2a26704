// internal/core/query_params.go
package core

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Default and limit constants for pagination
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// ListQueryOptions holds parsed query parameters for the table view
type ListQueryOptions struct {
	// Pagination
	Limit  int
	Offset int

	// Search is matched case-insensitively against every cell.
	Search string
}

// ParseListQueryOptions extracts pagination and search options from query parameters.
// Returns the parsed options and any validation error.
func ParseListQueryOptions(queryParams url.Values) (*ListQueryOptions, error) {
	opts := &ListQueryOptions{
		Limit:  DefaultLimit,
		Offset: 0,
	}

	// Parse limit
	if limitStr := queryParams.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, fmt.Errorf("invalid 'limit' parameter: must be an integer")
		}
		if limit < 1 {
			return nil, fmt.Errorf("invalid 'limit' parameter: must be at least 1")
		}
		if limit > MaxLimit {
			return nil, fmt.Errorf("invalid 'limit' parameter: maximum is %d", MaxLimit)
		}
		opts.Limit = limit
	}

	// Parse offset
	if offsetStr := queryParams.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, fmt.Errorf("invalid 'offset' parameter: must be an integer")
		}
		if offset < 0 {
			return nil, fmt.Errorf("invalid 'offset' parameter: must be non-negative")
		}
		opts.Offset = offset
	}

	opts.Search = strings.TrimSpace(queryParams.Get("search"))

	return opts, nil
}

// Page returns the [start, end) window of a slice of length n selected by the options.
func (o *ListQueryOptions) Page(n int) (start, end int) {
	start = o.Offset
	if start > n {
		start = n
	}
	end = start + o.Limit
	if end > n {
		end = n
	}
	return start, end
}
