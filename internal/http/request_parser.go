package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"registro/internal/services"
)

// ListParams holds validated pagination values from list query strings.
type ListParams struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the current page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// parseListParams extracts page and limit with the API defaults (1, 10).
// Out-of-range values fall back to the defaults rather than erroring.
func parseListParams(query url.Values) ListParams {
	params := ListParams{Page: 1, Limit: 10}

	if v := strings.TrimSpace(query.Get("page")); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page >= 1 {
			params.Page = page
		}
	}
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit >= 1 && limit <= 100 {
			params.Limit = limit
		}
	}

	return params
}

// parseFilter extracts the shared filter query parameters. The same shape
// serves lists and the dashboard; absent parameters leave zero values.
func parseFilter(query url.Values) services.Filter {
	f := services.Filter{
		StartDate: strings.TrimSpace(query.Get("startDate")),
		EndDate:   strings.TrimSpace(query.Get("endDate")),
	}
	if v := strings.TrimSpace(query.Get("clientId")); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.ClientID = id
		}
	}
	if v := strings.TrimSpace(query.Get("expenseTypeId")); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.ExpenseTypeID = id
		}
	}
	return f
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// nullable maps empty optional strings to NULL so absent fields are stored
// as absent, not as empty text.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}
