package domain

import "strings"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListQuery is a 1-based page request with an optional free-text search.
type ListQuery struct {
	Page   int    `form:"page"`
	Size   int    `form:"size"`
	Search string `form:"q"`
}

func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > MaxPageSize {
		q.Size = DefaultPageSize
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

func (q ListQuery) Offset() int { return (q.Page - 1) * q.Size }

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

// Filter narrows repository reads. A nil value in Eq matches SQL NULL.
type Filter struct {
	TenantID string
	Eq       map[string]any
	ExceptID string
}

func ForTenant(tenantID string) Filter { return Filter{TenantID: tenantID} }

func (f Filter) With(column string, value any) Filter {
	eq := make(map[string]any, len(f.Eq)+1)
	for k, v := range f.Eq {
		eq[k] = v
	}
	eq[column] = value
	f.Eq = eq
	return f
}

func (f Filter) Except(id string) Filter {
	f.ExceptID = id
	return f
}

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	Action     string `form:"action"`
	EntityName string `form:"entityName"`
	EntityID   string `form:"entityId"`
	UserID     string `form:"userId"`
	TenantID   string `form:"tenantId"`
	Success    *bool  `form:"success"`
}
