package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wms-admin/internal/domain"
	"wms-admin/internal/tenancy"
)

func newCompany(t *testing.T, e *env, sc tenancy.Scope, cnpj string) *domain.Company {
	t.Helper()
	c, err := e.companies.Create(context.Background(), sc, domain.CompanyInput{Name: "Acme Logistics", CNPJ: cnpj})
	require.NoError(t, err)
	return c
}

func TestWarehouseCodeReusableAfterSoftDelete(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	sc := e.tenant(t, "acme")
	c := newCompany(t, e, sc, "11.222.333/0001-81")

	w1, err := e.warehouses.Create(ctx, sc, domain.WarehouseInput{CompanyID: c.ID, Code: "wh-01", Name: "Main"})
	require.NoError(t, err)
	assert.Equal(t, "WH-01", w1.Code)

	_, err = e.warehouses.Create(ctx, sc, domain.WarehouseInput{CompanyID: c.ID, Code: "WH-01", Name: "Dup"})
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "code", ce.Field)

	require.NoError(t, e.warehouses.Delete(ctx, sc, w1.ID))
	_, err = e.warehouses.Get(ctx, sc, w1.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	w2, err := e.warehouses.Create(ctx, sc, domain.WarehouseInput{CompanyID: c.ID, Code: "WH-01", Name: "Replacement"})
	require.NoError(t, err)
	assert.NotEqual(t, w1.ID, w2.ID)

	_, err = e.warehouses.Restore(ctx, sc, w1.ID)
	require.ErrorIs(t, err, domain.ErrDuplicate, "restore must not resurrect a duplicate code")

	deleted, err := e.warehouses.ListDeleted(ctx, sc, domain.ListQuery{})
	require.NoError(t, err)
	require.Len(t, deleted.Items, 1)
	assert.Equal(t, w1.ID, deleted.Items[0].ID)
	assert.True(t, deleted.Items[0].IsDeleted)
	assert.NotNil(t, deleted.Items[0].DeletedAt)
	assert.Equal(t, "tester", deleted.Items[0].DeletedBy)
}

func TestWarehouseCodeIsPerTenant(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	a := e.tenant(t, "acme")
	b := e.tenant(t, "globex")
	ca := newCompany(t, e, a, "11222333000181")
	cb := newCompany(t, e, b, "99888777000166")

	_, err := e.warehouses.Create(ctx, a, domain.WarehouseInput{CompanyID: ca.ID, Code: "WH-01", Name: "A"})
	require.NoError(t, err)
	_, err = e.warehouses.Create(ctx, b, domain.WarehouseInput{CompanyID: cb.ID, Code: "WH-01", Name: "B"})
	require.NoError(t, err)

	_, err = e.warehouses.Create(ctx, a, domain.WarehouseInput{CompanyID: cb.ID, Code: "WH-02", Name: "cross"})
	var v *domain.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "companyId")
}

func TestTenantIsolation(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	a := e.tenant(t, "acme")
	b := e.tenant(t, "globex")
	p, err := e.products.Create(ctx, a, domain.ProductInput{SKU: "sku-1", Name: "Box"})
	require.NoError(t, err)

	_, err = e.products.Get(ctx, b, p.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, e.products.Delete(ctx, b, p.ID), domain.ErrNotFound)

	page, err := e.products.List(ctx, b, domain.ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	page, err = e.products.List(ctx, a, domain.ListQuery{Search: "bo"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	sc := e.tenant(t, "acme")
	for _, in := range []domain.ProductInput{
		{SKU: "sku-1", Name: "Box"},
		{SKU: "sku_2", Name: "100% cotton bag"},
		{SKU: "sku-3", Name: "Pallet!"},
	} {
		_, err := e.products.Create(ctx, sc, in)
		require.NoError(t, err)
	}

	cases := map[string]int64{"%": 1, "_": 1, "!": 1, "0%": 1, "sku": 3, "x%y": 0}
	for term, want := range cases {
		page, err := e.products.List(ctx, sc, domain.ListQuery{Search: term})
		require.NoError(t, err, term)
		assert.Equal(t, want, page.Total, "search %q", term)
	}
}

func TestDuplicateCustomerDocumentInSameTenant(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	sc := e.tenant(t, "acme")
	other := e.tenant(t, "globex")

	in := domain.CustomerInput{Name: "Maria", DocumentType: "CPF", DocumentNumber: "123.456.789-09"}
	c, err := e.customers.Create(ctx, sc, in)
	require.NoError(t, err)
	assert.Equal(t, "12345678909", c.DocumentNumber)

	_, err = e.customers.Create(ctx, sc, domain.CustomerInput{Name: "Other", DocumentType: "CPF", DocumentNumber: "12345678909"})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = e.customers.Create(ctx, other, in)
	require.NoError(t, err, "documents are unique per tenant only")
}

func TestCompanyCNPJReusableAfterSoftDelete(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	a := e.tenant(t, "acme")
	b := e.tenant(t, "globex")
	c := newCompany(t, e, a, "11222333000181")

	_, err := e.companies.Create(ctx, b, domain.CompanyInput{Name: "Clone", CNPJ: "11.222.333/0001-81"})
	require.ErrorIs(t, err, domain.ErrDuplicate, "CNPJ is unique across tenants")

	require.NoError(t, e.companies.Delete(ctx, a, c.ID))
	_, err = e.companies.Create(ctx, b, domain.CompanyInput{Name: "Clone", CNPJ: "11.222.333/0001-81"})
	require.NoError(t, err)
}

func TestCompanyWithWarehousesCannotBeDeleted(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	sc := e.tenant(t, "acme")
	c := newCompany(t, e, sc, "11222333000181")
	w, err := e.warehouses.Create(ctx, sc, domain.WarehouseInput{CompanyID: c.ID, Code: "WH-01", Name: "Main"})
	require.NoError(t, err)

	require.ErrorIs(t, e.companies.Delete(ctx, sc, c.ID), domain.ErrInUse)
	require.NoError(t, e.warehouses.Delete(ctx, sc, w.ID))
	require.NoError(t, e.companies.Delete(ctx, sc, c.ID))

	_, err = e.warehouses.Restore(ctx, sc, w.ID)
	var v *domain.ValidationError
	require.ErrorAs(t, err, &v, "warehouse cannot come back without its company")
}

func TestStatusTransitionsAndPatch(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	sc := e.tenant(t, "acme")
	p, err := e.products.Create(ctx, sc, domain.ProductInput{SKU: "SKU-1", Name: "Box"})
	require.NoError(t, err)
	assert.Equal(t, "UN", p.UnitOfMeasure)

	p, err = e.products.UpdateStatus(ctx, sc, p.ID, "Discontinued")
	require.NoError(t, err)
	assert.Equal(t, domain.ProductDiscontinued, p.Status)

	_, err = e.products.UpdateStatus(ctx, sc, p.ID, "Exploded")
	var v *domain.ValidationError
	require.ErrorAs(t, err, &v)

	other, err := e.products.Create(ctx, sc, domain.ProductInput{SKU: "SKU-2", Name: "Crate"})
	require.NoError(t, err)
	sku := "sku-1"
	_, err = e.products.Update(ctx, sc, other.ID, domain.ProductPatch{SKU: &sku})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	name := "Big crate"
	updated, err := e.products.Update(ctx, sc, other.ID, domain.ProductPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Big crate", updated.Name)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, "tester", updated.UpdatedBy)
}

func TestMasterDataMutationsAreAudited(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	sc := e.tenant(t, "acme")
	c := newCompany(t, e, sc, "11222333000181")
	require.NoError(t, e.companies.Delete(ctx, sc, c.ID))
	_, err := e.companies.Restore(ctx, sc, c.ID)
	require.NoError(t, err)

	actions := e.auditActions(t, domain.AuditFilter{EntityName: "company", EntityID: c.ID})
	assert.ElementsMatch(t, []string{domain.AuditCreate, domain.AuditDelete, domain.AuditRestore}, actions)
}
