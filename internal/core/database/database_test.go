package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wms-admin/internal/core/database"
	"wms-admin/internal/core/database/dbtest"
	"wms-admin/internal/domain"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	got := normalize("jdbc:mysql://root:pw@127.0.0.1:3306/wms?useSSL=false&serverTimezone=UTC&characterEncoding=utf8")
	assert.Contains(t, got, "root:pw@tcp(127.0.0.1:3306)/wms?")
	assert.Contains(t, got, "tls=false")
	assert.Contains(t, got, "loc=UTC")
	assert.Contains(t, got, "charset=utf8")
	assert.Contains(t, got, "parseTime=true")

	native := "u:p@tcp(db:3306)/wms"
	assert.Equal(t, native, normalize(native))
}

func normalize(in string) string { return database.NormalizeMySQLDSN(in, "", "") }

func TestUnsupportedDriver(t *testing.T) {
	_, err := database.NewGorm(database.Opts{Driver: "oracle"})
	require.ErrorIs(t, err, database.ErrUnsupportedDriver)
}

func TestActiveUniqueIndexAllowsReuseAfterSoftDelete(t *testing.T) {
	db := dbtest.New(t)
	now := time.Now()
	tenant := "0b7f1f8e-55a4-4a4f-9d58-1f0f6a1e2a11"

	first, err := domain.NewWarehouse(tenant, domain.WarehouseInput{CompanyID: "c1", Code: "WH-01", Name: "Main"}, "test", now)
	require.NoError(t, err)
	require.NoError(t, db.Create(first).Error)

	dup, err := domain.NewWarehouse(tenant, domain.WarehouseInput{CompanyID: "c1", Code: "WH-01", Name: "Other"}, "test", now)
	require.NoError(t, err)
	require.Error(t, db.Create(dup).Error, "active duplicate must violate the index")

	first.MarkAsDeleted("test", now)
	require.NoError(t, db.Save(first).Error)
	require.NoError(t, db.Create(dup).Error)
}

func TestTxManagerRollsBackOnError(t *testing.T) {
	db := dbtest.New(t)
	tm := database.NewTxManager(db)
	ctx := context.Background()
	boom := errors.New("boom")

	err := tm.Do(ctx, func(ctx context.Context) error {
		tn, err := domain.NewTenant("Acme", "acme", nil, 0, "test", time.Now())
		require.NoError(t, err)
		require.NoError(t, database.Conn(ctx, db).Create(tn).Error)
		return tm.Do(ctx, func(ctx context.Context) error { return boom })
	})
	require.ErrorIs(t, err, boom)

	var n int64
	require.NoError(t, db.Model(&domain.Tenant{}).Count(&n).Error)
	assert.Zero(t, n)
}
