package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"wms-admin/internal/core/cache"
	"wms-admin/internal/domain"
)

// Grants is the resolved authorization of one user.
type Grants struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func (g Grants) HasRole(name string) bool {
	for _, r := range g.Roles {
		if strings.EqualFold(r, name) {
			return true
		}
	}
	return false
}

// Allows reports whether resource:action was granted. SuperAdmin is allowed everything.
func (g Grants) Allows(resource, action string) bool {
	if g.HasRole(domain.RoleSuperAdmin) {
		return true
	}
	key := domain.PermissionKey(resource, action)
	i := sort.SearchStrings(g.Permissions, key)
	return i < len(g.Permissions) && g.Permissions[i] == key
}

// GrantCache memoizes Grants per user.
type GrantCache interface {
	Get(ctx context.Context, userID string, load func(context.Context) (*Grants, error)) (*Grants, error)
	Invalidate(ctx context.Context, userIDs ...string) error
}

type redisGrantCache struct {
	c   *cache.Cache
	ttl time.Duration
}

// NewRedisGrantCache stores grants under authz:grants:<userID>.
func NewRedisGrantCache(c *cache.Cache, ttl time.Duration) GrantCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &redisGrantCache{c: c, ttl: ttl}
}

func grantKey(userID string) string { return "authz:grants:" + userID }

func (r *redisGrantCache) Get(ctx context.Context, userID string, load func(context.Context) (*Grants, error)) (*Grants, error) {
	return cache.GetOrLoadJSON(r.c, ctx, grantKey(userID), r.ttl, load)
}

func (r *redisGrantCache) Invalidate(ctx context.Context, userIDs ...string) error {
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = grantKey(id)
	}
	return r.c.Delete(ctx, keys...)
}

type AuthzService struct {
	access domain.AccessRepository
	cache  GrantCache
	log    *zap.Logger
}

// NewAuthzService resolves grants straight from the database when gc is nil.
func NewAuthzService(access domain.AccessRepository, gc GrantCache, log *zap.Logger) *AuthzService {
	return &AuthzService{access: access, cache: gc, log: orNop(log)}
}

// Load always reads the database, using the transaction on ctx if present.
func (s *AuthzService) Load(ctx context.Context, userID string) (*Grants, error) {
	roles, err := s.access.RolesOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	perms, err := s.access.PermissionsOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	g := &Grants{Roles: make([]string, 0, len(roles)), Permissions: make([]string, 0, len(perms))}
	seen := map[string]struct{}{}
	for _, r := range roles {
		if _, ok := seen["r:"+r.Name]; ok {
			continue
		}
		seen["r:"+r.Name] = struct{}{}
		g.Roles = append(g.Roles, r.Name)
	}
	for _, p := range perms {
		k := p.Key()
		if _, ok := seen["p:"+k]; ok {
			continue
		}
		seen["p:"+k] = struct{}{}
		g.Permissions = append(g.Permissions, k)
	}
	sort.Strings(g.Roles)
	sort.Strings(g.Permissions)
	return g, nil
}

func (s *AuthzService) Resolve(ctx context.Context, userID string) (Grants, error) {
	var (
		g   *Grants
		err error
	)
	if s.cache != nil {
		g, err = s.cache.Get(ctx, userID, func(ctx context.Context) (*Grants, error) { return s.Load(ctx, userID) })
	} else {
		g, err = s.Load(ctx, userID)
	}
	if err != nil {
		return Grants{}, err
	}
	if g == nil {
		return Grants{Roles: []string{}, Permissions: []string{}}, nil
	}
	return *g, nil
}

func (s *AuthzService) HasPermission(ctx context.Context, userID, resource, action string) (bool, error) {
	g, err := s.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	return g.Allows(resource, action), nil
}

// Invalidate drops cached grants. Failures are logged; entries expire on their own.
func (s *AuthzService) Invalidate(ctx context.Context, userIDs ...string) {
	if s.cache == nil || len(userIDs) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, userIDs...); err != nil {
		s.log.Warn("grant cache invalidation failed", zap.Strings("user_ids", userIDs), zap.Error(err))
	}
}

// InvalidateRole drops the grants of every user holding roleID.
func (s *AuthzService) InvalidateRole(ctx context.Context, roleID string) {
	if s.cache == nil {
		return
	}
	ids, err := s.access.UserIDsWithRole(ctx, roleID)
	if err != nil {
		s.log.Warn("list role holders failed", zap.String("role_id", roleID), zap.Error(err))
		return
	}
	s.Invalidate(ctx, ids...)
}
