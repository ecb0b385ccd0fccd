package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wms-admin/internal/domain"
	"wms-admin/internal/tenancy"
)

// AuditEntry is one audit event. Identity fields default to the principal on ctx.
type AuditEntry struct {
	Action     string
	EntityName string
	EntityID   string
	UserID     *string
	Username   string
	TenantID   *string
	Err        error
}

type AuditService struct {
	repo domain.AuditRepository
	log  *zap.Logger
	now  func() time.Time
}

func NewAuditService(repo domain.AuditRepository, log *zap.Logger, now func() time.Time) *AuditService {
	return &AuditService{repo: repo, log: orNop(log), now: clock(now)}
}

// Record appends e inside the transaction carried by ctx, if any.
func (s *AuditService) Record(ctx context.Context, e AuditEntry) error {
	a := domain.NewAuditLog(e.Action, e.EntityName, e.EntityID, e.Err == nil, s.now())
	if p, ok := tenancy.FromContext(ctx); ok {
		if e.UserID == nil && p.UserID != "" {
			id := p.UserID
			e.UserID = &id
		}
		if e.Username == "" {
			e.Username = p.Username
		}
		if e.TenantID == nil {
			e.TenantID = p.TenantID
		}
	}
	cl := tenancy.ClientFromContext(ctx)
	a.UserID = e.UserID
	a.Username = e.Username
	a.TenantID = e.TenantID
	a.IPAddress = cl.IP
	a.UserAgent = cl.UserAgent
	a.RequestID = cl.RequestID
	if e.Err != nil {
		a.ErrorMessage = e.Err.Error()
	}
	a.Clamp()
	if err := s.repo.Append(ctx, a); err != nil {
		s.log.Error("audit append failed", zap.String("action", e.Action), zap.Error(err))
		return err
	}
	return nil
}

func (s *AuditService) List(ctx context.Context, q domain.ListQuery, f domain.AuditFilter) (domain.Page[domain.AuditLog], error) {
	return s.repo.List(ctx, q, f)
}
