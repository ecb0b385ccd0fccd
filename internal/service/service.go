// Package service holds the application use cases. Every mutating operation
// runs as one unit of work and writes its audit row inside it.
package service

import (
	"time"

	"go.uber.org/zap"

	"wms-admin/internal/domain"
)

func orNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func clock(now func() time.Time) func() time.Time {
	if now == nil {
		return func() time.Time { return time.Now().UTC() }
	}
	return now
}

type entityPtr[T any] interface {
	*T
	domain.Entity
}

// strp returns nil for "", otherwise a pointer to s.
func strp(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fieldError(field, msg string) error {
	v := domain.NewValidationError()
	v.Add(field, msg)
	return v
}
