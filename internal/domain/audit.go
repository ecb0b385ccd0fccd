package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	AuditLogin            = "LOGIN"
	AuditLoginFailed      = "LOGIN_FAILED"
	AuditLockout          = "ACCOUNT_LOCKED"
	AuditRefresh          = "TOKEN_REFRESH"
	AuditLogout           = "LOGOUT"
	AuditRegister         = "REGISTER"
	AuditChangePassword   = "CHANGE_PASSWORD"
	AuditCreate           = "CREATE"
	AuditUpdate           = "UPDATE"
	AuditDelete           = "DELETE"
	AuditRestore          = "RESTORE"
	AuditAssignRole       = "ASSIGN_ROLE"
	AuditRevokeRole       = "REVOKE_ROLE"
	AuditAssignPermission = "ASSIGN_PERMISSIONS"
	AuditUnlock           = "UNLOCK"
)

// Column sizes of AuditLog. Values are clamped to them before insert.
const (
	AuditActionSize     = 50
	AuditEntityNameSize = 64
	AuditEntityIDSize   = 64
	AuditUsernameSize   = 128
	AuditIPSize         = 64
	AuditUserAgentSize  = 255
	AuditRequestIDSize  = 64
	AuditErrorSize      = 512
)

// AuditLog is append-only: no update or delete path exists.
type AuditLog struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Action       string    `gorm:"size:50;not null;index" json:"action"`
	EntityName   string    `gorm:"size:64;index" json:"entityName"`
	EntityID     string    `gorm:"size:64;index" json:"entityId"`
	UserID       *string   `gorm:"size:36;index" json:"userId,omitempty"`
	Username     string    `gorm:"size:128" json:"username,omitempty"`
	TenantID     *string   `gorm:"size:36;index" json:"tenantId,omitempty"`
	IPAddress    string    `gorm:"size:64" json:"ipAddress,omitempty"`
	UserAgent    string    `gorm:"size:255" json:"userAgent,omitempty"`
	RequestID    string    `gorm:"size:64" json:"requestId,omitempty"`
	Timestamp    time.Time `gorm:"not null;index" json:"timestamp"`
	IsSuccess    bool      `gorm:"not null" json:"isSuccess"`
	ErrorMessage string    `gorm:"size:512" json:"errorMessage,omitempty"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// Clamp cuts every free-text field to its column size on a rune boundary.
func (a *AuditLog) Clamp() {
	a.Action = Truncate(a.Action, AuditActionSize)
	a.EntityName = Truncate(a.EntityName, AuditEntityNameSize)
	a.EntityID = Truncate(a.EntityID, AuditEntityIDSize)
	a.Username = Truncate(a.Username, AuditUsernameSize)
	a.IPAddress = Truncate(a.IPAddress, AuditIPSize)
	a.UserAgent = Truncate(a.UserAgent, AuditUserAgentSize)
	a.RequestID = Truncate(a.RequestID, AuditRequestIDSize)
	a.ErrorMessage = Truncate(a.ErrorMessage, AuditErrorSize)
}

// Truncate returns at most n bytes of s without splitting a rune. Invalid
// UTF-8 sequences are dropped.
func Truncate(s string, n int) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func NewAuditLog(action, entityName, entityID string, success bool, now time.Time) *AuditLog {
	return &AuditLog{
		ID:         uuid.NewString(),
		Action:     action,
		EntityName: entityName,
		EntityID:   entityID,
		Timestamp:  now.UTC(),
		IsSuccess:  success,
	}
}
