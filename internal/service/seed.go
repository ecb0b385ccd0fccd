package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"wms-admin/internal/core/auth"
	"wms-admin/internal/domain"
)

const seedActor = "seed"

// SeedResult counts what a seeding run created.
type SeedResult struct {
	PermissionsCreated int
	RolesCreated       int
}

// Seeder installs the permission catalog and the built-in roles. Running it
// again only fills in what is missing.
type Seeder struct {
	perms  domain.PermissionRepository
	roles  domain.RoleRepository
	users  domain.UserRepository
	access domain.AccessRepository
	hasher auth.PasswordHasher
	tx     domain.UnitOfWork
	now    func() time.Time
	log    *zap.Logger
}

func NewSeeder(perms domain.PermissionRepository, roles domain.RoleRepository, users domain.UserRepository,
	access domain.AccessRepository, hasher auth.PasswordHasher, tx domain.UnitOfWork, now func() time.Time, log *zap.Logger) *Seeder {
	return &Seeder{perms: perms, roles: roles, users: users, access: access, hasher: hasher, tx: tx, now: clock(now), log: orNop(log)}
}

func (s *Seeder) Seed(ctx context.Context) (SeedResult, error) {
	var res SeedResult
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		now := s.now()
		catalog := domain.PermissionCatalog()
		byKey := make(map[string]*domain.Permission, len(catalog))
		for _, e := range catalog {
			p, err := s.perms.FindByKey(ctx, e.Resource, e.Action)
			if errors.Is(err, domain.ErrNotFound) {
				p, err = domain.NewPermission("", e.Resource, e.Action, e.Module, "", seedActor, now)
				if err != nil {
					return err
				}
				if err := s.perms.Create(ctx, p); err != nil {
					return err
				}
				res.PermissionsCreated++
			} else if err != nil {
				return err
			}
			byKey[p.Key()] = p
		}
		for _, name := range []string{domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleOperator, domain.RoleViewer} {
			r, err := s.roles.FindByName(ctx, name, nil)
			if errors.Is(err, domain.ErrNotFound) {
				r, err = domain.NewRole(name, domain.SystemRoleDescriptions[name], nil, true, seedActor, now)
				if err != nil {
					return err
				}
				if err := s.roles.Create(ctx, r); err != nil {
					return err
				}
				res.RolesCreated++
			} else if err != nil {
				return err
			}
			grant := domain.SystemRoleGrants[name]
			var links []domain.RolePermission
			for _, e := range catalog {
				if grant(e) {
					links = append(links, domain.RolePermission{
						RoleID:       r.ID,
						PermissionID: byKey[domain.PermissionKey(e.Resource, e.Action)].ID,
						AssignedAt:   now.UTC(),
						AssignedBy:   seedActor,
					})
				}
			}
			// system roles are immutable through the role API; the seeder owns their links
			if err := s.roles.ReplacePermissions(ctx, r.ID, links); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	s.log.Info("seed complete", zap.Int("permissions_created", res.PermissionsCreated), zap.Int("roles_created", res.RolesCreated))
	return res, nil
}

type AdminInput struct {
	Username string
	Email    string
	Password string
	TenantID *string
}

// CreateAdmin creates a SuperAdmin account. Seed must have run first.
func (s *Seeder) CreateAdmin(ctx context.Context, in AdminInput) (*domain.User, error) {
	if err := passwordProblems("password", in.Password, in.Password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, passwordHashError(err)
	}
	var out *domain.User
	err = s.tx.Do(ctx, func(ctx context.Context) error {
		now := s.now()
		role, err := s.roles.FindByName(ctx, domain.RoleSuperAdmin, nil)
		if err != nil {
			return err
		}
		u, err := domain.NewUser(in.Username, in.Email, hash, "", "", in.TenantID, seedActor, now)
		if err != nil {
			return err
		}
		u.EmailConfirmed = true
		if err := ensureUniqueUser(ctx, s.users, u); err != nil {
			return err
		}
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		out = u
		return s.access.AssignRole(ctx, domain.UserRole{UserID: u.ID, RoleID: role.ID, AssignedAt: now.UTC(), AssignedBy: seedActor})
	})
	return out, err
}
