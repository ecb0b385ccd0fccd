package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity, audit stamps and soft-delete flags shared by
// every persisted entity. IsDeleted and DeletedAt always move together.
type BaseEntity struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`
	CreatedBy string     `gorm:"size:128" json:"createdBy,omitempty"`
	UpdatedBy string     `gorm:"size:128" json:"updatedBy,omitempty"`
	IsDeleted bool       `gorm:"not null;default:false;index" json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	DeletedBy string     `gorm:"size:128" json:"deletedBy,omitempty"`
}

func newBase(actor string, now time.Time) BaseEntity {
	return BaseEntity{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC(),
		CreatedBy: actor,
	}
}

// Base exposes the embedded contract to generic repositories.
func (b *BaseEntity) Base() *BaseEntity { return b }

// Touch stamps a mutation.
func (b *BaseEntity) Touch(actor string, now time.Time) {
	t := now.UTC()
	b.UpdatedAt = &t
	b.UpdatedBy = actor
}

// MarkAsDeleted soft-deletes the entity. Deleting twice is a no-op.
func (b *BaseEntity) MarkAsDeleted(actor string, now time.Time) {
	if b.IsDeleted {
		return
	}
	t := now.UTC()
	b.IsDeleted = true
	b.DeletedAt = &t
	b.DeletedBy = actor
	b.Touch(actor, now)
}

// Restore reverses MarkAsDeleted.
func (b *BaseEntity) Restore(actor string, now time.Time) {
	if !b.IsDeleted {
		return
	}
	b.IsDeleted = false
	b.DeletedAt = nil
	b.DeletedBy = ""
	b.Touch(actor, now)
}

// Entity is implemented by every pointer to a type embedding BaseEntity.
type Entity interface {
	Base() *BaseEntity
	TableName() string
}

// required collects blank-field violations for constructors.
type required struct{ v *ValidationError }

func (r *required) check(field, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		if r.v == nil {
			r.v = NewValidationError()
		}
		r.v.Add(field, "is required")
	}
	return value
}

func (r *required) add(field, msg string) {
	if r.v == nil {
		r.v = NewValidationError()
	}
	r.v.Add(field, msg)
}

func (r *required) err() error {
	if r.v == nil {
		return nil
	}
	return r.v
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
