package domain

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateKeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("a", 254) + "é"
	got := Truncate(s, 255)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 254), got)

	assert.Equal(t, "short", Truncate("short", 255))
	assert.Equal(t, "ab", Truncate("ab\xffc", 2))
	assert.Equal(t, "", Truncate("日本", 2))
}

func TestAuditLogClamp(t *testing.T) {
	a := &AuditLog{
		Username:     strings.Repeat("u", 300),
		RequestID:    strings.Repeat("r", 100),
		ErrorMessage: strings.Repeat("é", 400),
	}
	a.Clamp()
	assert.Len(t, a.Username, AuditUsernameSize)
	assert.Len(t, a.RequestID, AuditRequestIDSize)
	assert.LessOrEqual(t, len(a.ErrorMessage), AuditErrorSize)
	assert.True(t, utf8.ValidString(a.ErrorMessage))
}
