package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"wms-admin/internal/domain"
	"wms-admin/internal/service"
	"wms-admin/internal/tenancy"
	"wms-admin/internal/transport/http/ez"
	mdw "wms-admin/internal/transport/http/middleware"
)

// scopedService is the surface every master-data service exposes. I is the
// create body, P the partial update body.
type scopedService[T, I, P any] interface {
	List(ctx context.Context, sc tenancy.Scope, q domain.ListQuery) (domain.Page[T], error)
	ListDeleted(ctx context.Context, sc tenancy.Scope, q domain.ListQuery) (domain.Page[T], error)
	Get(ctx context.Context, sc tenancy.Scope, id string) (*T, error)
	Create(ctx context.Context, sc tenancy.Scope, in I) (*T, error)
	Update(ctx context.Context, sc tenancy.Scope, id string, p P) (*T, error)
	Delete(ctx context.Context, sc tenancy.Scope, id string) error
	Restore(ctx context.Context, sc tenancy.Scope, id string) (*T, error)
}

type statusService[T any] interface {
	UpdateStatus(ctx context.Context, sc tenancy.Scope, id string, status string) (*T, error)
}

// scopedModule mounts the CRUD, restore and optional status routes of one
// tenant-scoped resource.
type scopedModule[T, I, P any] struct {
	d        Deps
	resource string
	svc      scopedService[T, I, P]
	status   statusService[T]
	priority int
}

func (m scopedModule[T, I, P]) Priority() int { return m.priority }

func companiesModule(d Deps) APIModule {
	return scopedModule[domain.Company, domain.CompanyInput, domain.CompanyPatch]{
		d: d, resource: domain.ResourceCompanies, svc: d.Companies, priority: 20,
	}
}

func warehousesModule(d Deps) APIModule {
	return scopedModule[domain.Warehouse, domain.WarehouseInput, domain.WarehousePatch]{
		d: d, resource: domain.ResourceWarehouses, svc: d.Warehouses, status: d.Warehouses, priority: 21,
	}
}

func customersModule(d Deps) APIModule {
	return scopedModule[domain.Customer, domain.CustomerInput, domain.CustomerPatch]{
		d: d, resource: domain.ResourceCustomers, svc: d.Customers, priority: 22,
	}
}

func productsModule(d Deps) APIModule {
	return scopedModule[domain.Product, domain.ProductInput, domain.ProductPatch]{
		d: d, resource: domain.ResourceProducts, svc: d.Products, status: d.Products, priority: 23,
	}
}

func (m scopedModule[T, I, P]) MountAPI(api ez.EZ) {
	g := api.Group("/"+m.resource, mdw.AuthJWT(m.d.JWT), mdw.RequireTenant())
	can := func(action string) []gin.HandlerFunc {
		return []gin.HandlerFunc{mdw.RequirePermission(m.d.Authz, m.d.Log, m.resource, action)}
	}

	ez.RegisterAction(g, ez.Action[domain.ListQuery, domain.Page[T]]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Guards: can(domain.ActionRead),
		Handler: func(c *gin.Context, q *domain.ListQuery) (domain.Page[T], error) {
			sc, err := scope(c)
			if err != nil {
				return domain.Page[T]{}, err
			}
			return m.svc.List(c.Request.Context(), sc, *q)
		},
	})

	ez.RegisterAction(g, ez.Action[domain.ListQuery, domain.Page[T]]{
		Method: http.MethodGet,
		Path:   "/deleted",
		Binder: ez.BindQuery,
		Guards: can(domain.ActionRead),
		Handler: func(c *gin.Context, q *domain.ListQuery) (domain.Page[T], error) {
			sc, err := scope(c)
			if err != nil {
				return domain.Page[T]{}, err
			}
			return m.svc.ListDeleted(c.Request.Context(), sc, *q)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *T]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Guards: can(domain.ActionRead),
		Handler: func(c *gin.Context, _ *struct{}) (*T, error) {
			sc, err := scope(c)
			if err != nil {
				return nil, err
			}
			return m.svc.Get(c.Request.Context(), sc, c.Param("id"))
		},
	})

	ez.RegisterAction(g, ez.Action[I, *T]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Guards: can(domain.ActionCreate),
		Handler: func(c *gin.Context, in *I) (*T, error) {
			sc, err := scope(c)
			if err != nil {
				return nil, err
			}
			return m.svc.Create(c.Request.Context(), sc, *in)
		},
	})

	ez.RegisterAction(g, ez.Action[P, *T]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Guards: can(domain.ActionUpdate),
		Handler: func(c *gin.Context, p *P) (*T, error) {
			sc, err := scope(c)
			if err != nil {
				return nil, err
			}
			return m.svc.Update(c.Request.Context(), sc, c.Param("id"), *p)
		},
	})

	if m.status != nil {
		ez.RegisterAction(g, ez.Action[service.StatusInput, *T]{
			Method: http.MethodPatch,
			Path:   "/:id/status",
			Binder: ez.BindJSON,
			Guards: can(domain.ActionUpdate),
			Handler: func(c *gin.Context, in *service.StatusInput) (*T, error) {
				sc, err := scope(c)
				if err != nil {
					return nil, err
				}
				return m.status.UpdateStatus(c.Request.Context(), sc, c.Param("id"), in.Status)
			},
		})
	}

	ez.RegisterAction(g, ez.Action[struct{}, noContent]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Status: http.StatusNoContent,
		Guards: can(domain.ActionDelete),
		Handler: func(c *gin.Context, _ *struct{}) (noContent, error) {
			sc, err := scope(c)
			if err != nil {
				return noContent{}, err
			}
			return noContent{}, m.svc.Delete(c.Request.Context(), sc, c.Param("id"))
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *T]{
		Method: http.MethodPost,
		Path:   "/:id/restore",
		Binder: ez.BindNone,
		Guards: can(domain.ActionUpdate),
		Handler: func(c *gin.Context, _ *struct{}) (*T, error) {
			sc, err := scope(c)
			if err != nil {
				return nil, err
			}
			return m.svc.Restore(c.Request.Context(), sc, c.Param("id"))
		},
	})
}
