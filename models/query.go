package models

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListQuery carries pagination, sorting and filtering for list endpoints.
// Zero values are not sent.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
	SortBy string
	Order  string
	Type   UserType
	School string
	Status RequestStatus
}

// Values encodes the query as API query parameters.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	if q.School != "" {
		v.Set("school", q.School)
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	return v
}

// ParseListQuery reads a ListQuery from incoming query parameters, applying
// the default page size and clamping out of range values.
func ParseListQuery(v url.Values) ListQuery {
	q := ListQuery{
		Page:   atoiOr(v.Get("page"), 1),
		Limit:  atoiOr(v.Get("limit"), DefaultPageSize),
		Search: strings.TrimSpace(v.Get("search")),
		SortBy: v.Get("sortBy"),
		Type:   UserType(v.Get("type")),
		School: v.Get("school"),
		Status: RequestStatus(v.Get("status")),
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}

	switch strings.ToLower(v.Get("order")) {
	case "asc":
		q.Order = "asc"
	case "desc":
		q.Order = "desc"
	}

	return q
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
