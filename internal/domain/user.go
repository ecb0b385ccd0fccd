package domain

import (
	"net/mail"
	"strings"
	"time"
)

// LockoutPolicy controls how many consecutive failures lock an account and for how long.
type LockoutPolicy struct {
	MaxFailedAttempts int
	Duration          time.Duration
}

var DefaultLockoutPolicy = LockoutPolicy{MaxFailedAttempts: 5, Duration: 30 * time.Minute}

type User struct {
	BaseEntity
	Username               string     `gorm:"size:64;not null;index" json:"username"`
	Email                  string     `gorm:"size:191;not null;index" json:"email"`
	PasswordHash           string     `gorm:"size:100;not null" json:"-"`
	FirstName              string     `gorm:"size:100" json:"firstName"`
	LastName               string     `gorm:"size:100" json:"lastName"`
	PhoneNumber            string     `gorm:"size:32" json:"phoneNumber,omitempty"`
	IsActive               bool       `gorm:"not null;default:true" json:"isActive"`
	EmailConfirmed         bool       `gorm:"not null;default:false" json:"emailConfirmed"`
	FailedLoginAttempts    int        `gorm:"not null;default:0" json:"failedLoginAttempts"`
	LockoutEnd             *time.Time `json:"lockoutEnd,omitempty"`
	LastLoginAt            *time.Time `json:"lastLoginAt,omitempty"`
	RefreshToken           string     `gorm:"size:64;index" json:"-"`
	RefreshTokenExpiryTime *time.Time `json:"-"`
	TenantID               *string    `gorm:"size:36;index" json:"tenantId,omitempty"`
	UserRoles              []UserRole `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string { return "users" }

// NewUser validates mandatory fields; passwordHash must already be hashed.
func NewUser(username, email, passwordHash, firstName, lastName string, tenantID *string, actor string, now time.Time) (*User, error) {
	var r required
	username = r.check("username", username)
	email = r.check("email", email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			r.add("email", "must be a valid email address")
		}
	}
	if strings.TrimSpace(passwordHash) == "" {
		r.add("password", "is required")
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return &User{
		BaseEntity:   newBase(actor, now),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		IsActive:     true,
		TenantID:     tenantID,
	}, nil
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) UpdateProfile(firstName, lastName, phone, actor string, now time.Time) {
	u.FirstName = strings.TrimSpace(firstName)
	u.LastName = strings.TrimSpace(lastName)
	u.PhoneNumber = strings.TrimSpace(phone)
	u.Touch(actor, now)
}

// IsLockedOut reports whether LockoutEnd is set and still in the future.
func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockoutEnd != nil && u.LockoutEnd.After(now)
}

// RecordFailedLogin bumps the failure counter and locks the account once the
// policy threshold is reached. It returns true when this call set the lockout.
func (u *User) RecordFailedLogin(p LockoutPolicy, now time.Time) bool {
	u.FailedLoginAttempts++
	u.Touch("system", now)
	if p.MaxFailedAttempts > 0 && u.FailedLoginAttempts >= p.MaxFailedAttempts {
		end := now.UTC().Add(p.Duration)
		u.LockoutEnd = &end
		return true
	}
	return false
}

func (u *User) RecordSuccessfulLogin(now time.Time) {
	t := now.UTC()
	u.FailedLoginAttempts = 0
	u.LockoutEnd = nil
	u.LastLoginAt = &t
	u.Touch(u.Username, now)
}

// IssueRefreshToken replaces any outstanding refresh token with digest.
func (u *User) IssueRefreshToken(digest string, expiresAt time.Time) {
	exp := expiresAt.UTC()
	u.RefreshToken = digest
	u.RefreshTokenExpiryTime = &exp
}

func (u *User) RevokeRefreshToken(now time.Time) {
	u.RefreshToken = ""
	u.RefreshTokenExpiryTime = nil
	u.Touch(u.Username, now)
}

func (u *User) RefreshTokenValid(now time.Time) bool {
	return u.RefreshToken != "" && u.RefreshTokenExpiryTime != nil && u.RefreshTokenExpiryTime.After(now)
}

func (u *User) ChangePasswordHash(hash, actor string, now time.Time) {
	u.PasswordHash = hash
	u.Touch(actor, now)
}

func (u *User) SetActive(active bool, actor string, now time.Time) {
	u.IsActive = active
	u.Touch(actor, now)
}

// Unlock clears an active lockout and the failure counter.
func (u *User) Unlock(actor string, now time.Time) {
	u.FailedLoginAttempts = 0
	u.LockoutEnd = nil
	u.Touch(actor, now)
}

func (u *User) AssignTenant(tenantID *string, actor string, now time.Time) {
	u.TenantID = tenantID
	u.Touch(actor, now)
}

// UserRole links a user to a role.
type UserRole struct {
	UserID     string    `gorm:"primaryKey;size:36" json:"userId"`
	RoleID     string    `gorm:"primaryKey;size:36;index" json:"roleId"`
	AssignedAt time.Time `gorm:"not null" json:"assignedAt"`
	AssignedBy string    `gorm:"size:128" json:"assignedBy"`
	Role       *Role     `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

func (UserRole) TableName() string { return "user_roles" }
