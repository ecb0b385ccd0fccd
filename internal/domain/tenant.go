package domain

import (
	"regexp"
	"strings"
	"time"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type Tenant struct {
	BaseEntity
	Name                  string     `gorm:"size:128;not null" json:"name"`
	Slug                  string     `gorm:"size:64;not null;index" json:"slug"`
	Domain                *string    `gorm:"size:191;index" json:"domain,omitempty"`
	IsActive              bool       `gorm:"not null;default:true" json:"isActive"`
	MaxUsers              int        `gorm:"not null;default:0" json:"maxUsers"`
	SubscriptionStartsAt  *time.Time `json:"subscriptionStartsAt,omitempty"`
	SubscriptionExpiresAt *time.Time `json:"subscriptionExpiresAt,omitempty"`
}

func (Tenant) TableName() string { return "tenants" }

func NewTenant(name, slug string, domain *string, maxUsers int, actor string, now time.Time) (*Tenant, error) {
	var r required
	name = r.check("name", name)
	slug = strings.ToLower(r.check("slug", slug))
	if slug != "" && !slugPattern.MatchString(slug) {
		r.add("slug", "must contain lowercase letters, digits and single dashes")
	}
	if maxUsers < 0 {
		r.add("maxUsers", "must not be negative")
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return &Tenant{
		BaseEntity: newBase(actor, now),
		Name:       name,
		Slug:       slug,
		Domain:     normalizeDomain(domain),
		IsActive:   true,
		MaxUsers:   maxUsers,
	}, nil
}

func normalizeDomain(d *string) *string {
	d = trimPtr(d)
	if d == nil || *d == "" {
		return nil
	}
	v := strings.ToLower(*d)
	return &v
}

type TenantPatch struct {
	Name                  *string    `json:"name"`
	Domain                *string    `json:"domain"`
	MaxUsers              *int       `json:"maxUsers"`
	SubscriptionStartsAt  *time.Time `json:"subscriptionStartsAt"`
	SubscriptionExpiresAt *time.Time `json:"subscriptionExpiresAt"`
}

func (t *Tenant) Apply(p TenantPatch, actor string, now time.Time) error {
	v := NewValidationError()
	if n := trimPtr(p.Name); n != nil {
		if *n == "" {
			v.Add("name", "is required")
		} else {
			t.Name = *n
		}
	}
	if p.MaxUsers != nil {
		if *p.MaxUsers < 0 {
			v.Add("maxUsers", "must not be negative")
		} else {
			t.MaxUsers = *p.MaxUsers
		}
	}
	if p.SubscriptionStartsAt != nil && p.SubscriptionExpiresAt != nil && p.SubscriptionExpiresAt.Before(*p.SubscriptionStartsAt) {
		v.Add("subscriptionExpiresAt", "must not precede subscriptionStartsAt")
	}
	if err := v.OrNil(); err != nil {
		return err
	}
	if p.Domain != nil {
		t.Domain = normalizeDomain(p.Domain)
	}
	if p.SubscriptionStartsAt != nil {
		t.SubscriptionStartsAt = p.SubscriptionStartsAt
	}
	if p.SubscriptionExpiresAt != nil {
		t.SubscriptionExpiresAt = p.SubscriptionExpiresAt
	}
	t.Touch(actor, now)
	return nil
}

func (t *Tenant) SetActive(active bool, actor string, now time.Time) {
	t.IsActive = active
	t.Touch(actor, now)
}

// Usable reports whether users may be bound to or log in under this tenant.
func (t *Tenant) Usable(now time.Time) bool {
	if !t.IsActive || t.IsDeleted {
		return false
	}
	if t.SubscriptionExpiresAt != nil && !t.SubscriptionExpiresAt.After(now) {
		return false
	}
	return true
}

// HasCapacity reports whether one more user fits. MaxUsers 0 means unlimited.
func (t *Tenant) HasCapacity(current int64) bool {
	return t.MaxUsers == 0 || current < int64(t.MaxUsers)
}
