package repo

import (
	"gorm.io/gorm"

	"wms-admin/internal/domain"
)

type (
	CompanyRepo   = Store[domain.Company, *domain.Company]
	WarehouseRepo = Store[domain.Warehouse, *domain.Warehouse]
	CustomerRepo  = Store[domain.Customer, *domain.Customer]
	ProductRepo   = Store[domain.Product, *domain.Product]
)

func NewCompanyRepo(db *gorm.DB) *CompanyRepo {
	return NewStore[domain.Company](db, "company", "name", "trade_name", "cnpj")
}

func NewWarehouseRepo(db *gorm.DB) *WarehouseRepo {
	return NewStore[domain.Warehouse](db, "warehouse", "code", "name", "city")
}

func NewCustomerRepo(db *gorm.DB) *CustomerRepo {
	return NewStore[domain.Customer](db, "customer", "name", "document_number", "email")
}

func NewProductRepo(db *gorm.DB) *ProductRepo {
	return NewStore[domain.Product](db, "product", "sku", "name", "barcode")
}
