package repo

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"

	"gorm.io/gorm"

	"wms-admin/internal/core/database"
	"wms-admin/internal/domain"
)

// Active is the default read scope: soft-deleted rows are invisible.
func Active(db *gorm.DB) *gorm.DB { return db.Where("is_deleted = ?", false) }

// OnlyDeleted is used by listing and restore flows.
func OnlyDeleted(db *gorm.DB) *gorm.DB { return db.Where("is_deleted = ?", true) }

type entity[T any] interface {
	*T
	domain.Entity
}

// Store is a soft-delete-aware gorm repository for one entity type.
type Store[T any, P entity[T]] struct {
	db     *gorm.DB
	label  string
	search []string
	order  string
}

func NewStore[T any, P entity[T]](db *gorm.DB, label string, searchColumns ...string) *Store[T, P] {
	return &Store[T, P]{db: db, label: label, search: searchColumns, order: "created_at DESC"}
}

func (s *Store[T, P]) conn(ctx context.Context) *gorm.DB { return database.Conn(ctx, s.db) }

func (s *Store[T, P]) model(ctx context.Context) *gorm.DB { return s.conn(ctx).Model(P(new(T))) }

func (s *Store[T, P]) Create(ctx context.Context, e *T) error {
	return s.translate(s.conn(ctx).Create(e).Error)
}

func (s *Store[T, P]) Save(ctx context.Context, e *T) error {
	return s.translate(s.conn(ctx).Save(e).Error)
}

func (s *Store[T, P]) FindActive(ctx context.Context, id string, f domain.Filter) (*T, error) {
	return s.first(Active(s.model(ctx)), id, f)
}

func (s *Store[T, P]) FindDeleted(ctx context.Context, id string, f domain.Filter) (*T, error) {
	return s.first(OnlyDeleted(s.model(ctx)), id, f)
}

func (s *Store[T, P]) ListActive(ctx context.Context, q domain.ListQuery, f domain.Filter) (domain.Page[T], error) {
	return s.list(Active(s.model(ctx)), q, f)
}

func (s *Store[T, P]) ListDeleted(ctx context.Context, q domain.ListQuery, f domain.Filter) (domain.Page[T], error) {
	return s.list(OnlyDeleted(s.model(ctx)), q, f)
}

// ExistsActive backs uniqueness checks: only non-deleted rows count.
func (s *Store[T, P]) ExistsActive(ctx context.Context, f domain.Filter) (bool, error) {
	n, err := s.CountActive(ctx, f)
	return n > 0, err
}

func (s *Store[T, P]) CountActive(ctx context.Context, f domain.Filter) (int64, error) {
	var n int64
	err := applyFilter(f)(Active(s.model(ctx))).Count(&n).Error
	return n, err
}

func (s *Store[T, P]) first(q *gorm.DB, id string, f domain.Filter) (*T, error) {
	var out T
	err := applyFilter(f)(q).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound(s.label, id)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store[T, P]) list(q *gorm.DB, lq domain.ListQuery, f domain.Filter) (domain.Page[T], error) {
	lq = lq.Normalize()
	q = searchScope(s.search, lq.Search)(applyFilter(f)(q)).Session(&gorm.Session{})
	page := domain.Page[T]{Page: lq.Page, Size: lq.Size, Items: []T{}}
	if err := q.Count(&page.Total).Error; err != nil {
		return page, err
	}
	if err := q.Order(s.order).Limit(lq.Size).Offset(lq.Offset()).Find(&page.Items).Error; err != nil {
		return page, err
	}
	return page, nil
}

func (s *Store[T, P]) translate(err error) error {
	if err != nil && isDupKey(err) {
		return &domain.ConflictError{Entity: s.label}
	}
	return err
}

func applyFilter(f domain.Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.TenantID != "" {
			db = db.Where("tenant_id = ?", f.TenantID)
		}
		if f.ExceptID != "" {
			db = db.Where("id <> ?", f.ExceptID)
		}
		cols := make([]string, 0, len(f.Eq))
		for k := range f.Eq {
			cols = append(cols, k)
		}
		sort.Strings(cols)
		for _, col := range cols {
			v := deref(f.Eq[col])
			if v == nil {
				db = db.Where(col + " IS NULL")
			} else {
				db = db.Where(col+" = ?", v)
			}
		}
		return db
	}
}

// likeEscaper makes the search term literal under ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func searchScope(columns []string, term string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" || len(columns) == 0 {
			return db
		}
		like := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		parts := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, c := range columns {
			parts[i] = "LOWER(" + c + ") LIKE ? ESCAPE '!'"
			args[i] = like
		}
		return db.Where("("+strings.Join(parts, " OR ")+")", args...)
	}
}

func deref(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	}
	return v
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
