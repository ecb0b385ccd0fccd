package domain

import (
	"strings"
	"time"
	"unicode"
)

// Company is a legal entity inside a tenant. CNPJ is stored as digits only.
type Company struct {
	BaseEntity
	TenantID  string `gorm:"size:36;not null;index" json:"tenantId"`
	Name      string `gorm:"size:200;not null" json:"name"`
	TradeName string `gorm:"size:200" json:"tradeName,omitempty"`
	CNPJ      string `gorm:"column:cnpj;size:14;not null;index" json:"cnpj"`
	Email     string `gorm:"size:191" json:"email,omitempty"`
	Phone     string `gorm:"size:32" json:"phone,omitempty"`
	Address   string `gorm:"size:255" json:"address,omitempty"`
	IsActive  bool   `gorm:"not null;default:true" json:"isActive"`
}

func (Company) TableName() string { return "companies" }

type CompanyInput struct {
	Name      string `json:"name" binding:"required,max=200"`
	TradeName string `json:"tradeName" binding:"omitempty,max=200"`
	CNPJ      string `json:"cnpj" binding:"required"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone" binding:"omitempty,max=32"`
	Address   string `json:"address" binding:"omitempty,max=255"`
}

func NewCompany(tenantID string, in CompanyInput, actor string, now time.Time) (*Company, error) {
	var r required
	tenantID = r.check("tenantId", tenantID)
	name := r.check("name", in.Name)
	cnpj := r.check("cnpj", in.CNPJ)
	if cnpj != "" {
		cnpj = Digits(cnpj)
		if len(cnpj) != 14 {
			r.add("cnpj", "must have 14 digits")
		}
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return &Company{
		BaseEntity: newBase(actor, now),
		TenantID:   tenantID,
		Name:       name,
		TradeName:  strings.TrimSpace(in.TradeName),
		CNPJ:       cnpj,
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		Address:    strings.TrimSpace(in.Address),
		IsActive:   true,
	}, nil
}

type CompanyPatch struct {
	Name      *string `json:"name"`
	TradeName *string `json:"tradeName"`
	CNPJ      *string `json:"cnpj"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	IsActive  *bool   `json:"isActive"`
}

func (c *Company) Apply(p CompanyPatch, actor string, now time.Time) error {
	v := NewValidationError()
	if n := trimPtr(p.Name); n != nil && *n == "" {
		v.Add("name", "is required")
	}
	var cnpj string
	if p.CNPJ != nil {
		cnpj = Digits(*p.CNPJ)
		if len(cnpj) != 14 {
			v.Add("cnpj", "must have 14 digits")
		}
	}
	if err := v.OrNil(); err != nil {
		return err
	}
	if n := trimPtr(p.Name); n != nil {
		c.Name = *n
	}
	if t := trimPtr(p.TradeName); t != nil {
		c.TradeName = *t
	}
	if p.CNPJ != nil {
		c.CNPJ = cnpj
	}
	if e := trimPtr(p.Email); e != nil {
		c.Email = *e
	}
	if ph := trimPtr(p.Phone); ph != nil {
		c.Phone = *ph
	}
	if a := trimPtr(p.Address); a != nil {
		c.Address = *a
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	c.Touch(actor, now)
	return nil
}

type WarehouseStatus string

const (
	WarehouseActive      WarehouseStatus = "Active"
	WarehouseInactive    WarehouseStatus = "Inactive"
	WarehouseMaintenance WarehouseStatus = "Maintenance"
)

func (s WarehouseStatus) Valid() bool {
	switch s {
	case WarehouseActive, WarehouseInactive, WarehouseMaintenance:
		return true
	}
	return false
}

type Warehouse struct {
	BaseEntity
	TenantID  string          `gorm:"size:36;not null;index" json:"tenantId"`
	CompanyID string          `gorm:"size:36;not null;index" json:"companyId"`
	Code      string          `gorm:"size:32;not null;index" json:"code"`
	Name      string          `gorm:"size:200;not null" json:"name"`
	Address   string          `gorm:"size:255" json:"address,omitempty"`
	City      string          `gorm:"size:100" json:"city,omitempty"`
	State     string          `gorm:"size:32" json:"state,omitempty"`
	ZipCode   string          `gorm:"size:16" json:"zipCode,omitempty"`
	Capacity  float64         `gorm:"not null;default:0" json:"capacity"`
	Status    WarehouseStatus `gorm:"size:16;not null;default:Active" json:"status"`
}

func (Warehouse) TableName() string { return "warehouses" }

type WarehouseInput struct {
	CompanyID string  `json:"companyId" binding:"required"`
	Code      string  `json:"code" binding:"required,max=32"`
	Name      string  `json:"name" binding:"required,max=200"`
	Address   string  `json:"address" binding:"omitempty,max=255"`
	City      string  `json:"city" binding:"omitempty,max=100"`
	State     string  `json:"state" binding:"omitempty,max=32"`
	ZipCode   string  `json:"zipCode" binding:"omitempty,max=16"`
	Capacity  float64 `json:"capacity" binding:"omitempty,gte=0"`
}

func NewWarehouse(tenantID string, in WarehouseInput, actor string, now time.Time) (*Warehouse, error) {
	var r required
	tenantID = r.check("tenantId", tenantID)
	companyID := r.check("companyId", in.CompanyID)
	code := strings.ToUpper(r.check("code", in.Code))
	name := r.check("name", in.Name)
	if in.Capacity < 0 {
		r.add("capacity", "must not be negative")
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return &Warehouse{
		BaseEntity: newBase(actor, now),
		TenantID:   tenantID,
		CompanyID:  companyID,
		Code:       code,
		Name:       name,
		Address:    strings.TrimSpace(in.Address),
		City:       strings.TrimSpace(in.City),
		State:      strings.TrimSpace(in.State),
		ZipCode:    strings.TrimSpace(in.ZipCode),
		Capacity:   in.Capacity,
		Status:     WarehouseActive,
	}, nil
}

type WarehousePatch struct {
	CompanyID *string  `json:"companyId"`
	Code      *string  `json:"code"`
	Name      *string  `json:"name"`
	Address   *string  `json:"address"`
	City      *string  `json:"city"`
	State     *string  `json:"state"`
	ZipCode   *string  `json:"zipCode"`
	Capacity  *float64 `json:"capacity"`
}

func (w *Warehouse) Apply(p WarehousePatch, actor string, now time.Time) error {
	v := NewValidationError()
	if c := trimPtr(p.CompanyID); c != nil && *c == "" {
		v.Add("companyId", "is required")
	}
	if c := trimPtr(p.Code); c != nil && *c == "" {
		v.Add("code", "is required")
	}
	if n := trimPtr(p.Name); n != nil && *n == "" {
		v.Add("name", "is required")
	}
	if p.Capacity != nil && *p.Capacity < 0 {
		v.Add("capacity", "must not be negative")
	}
	if err := v.OrNil(); err != nil {
		return err
	}
	if c := trimPtr(p.CompanyID); c != nil {
		w.CompanyID = *c
	}
	if c := trimPtr(p.Code); c != nil {
		w.Code = strings.ToUpper(*c)
	}
	if n := trimPtr(p.Name); n != nil {
		w.Name = *n
	}
	if a := trimPtr(p.Address); a != nil {
		w.Address = *a
	}
	if c := trimPtr(p.City); c != nil {
		w.City = *c
	}
	if s := trimPtr(p.State); s != nil {
		w.State = *s
	}
	if z := trimPtr(p.ZipCode); z != nil {
		w.ZipCode = *z
	}
	if p.Capacity != nil {
		w.Capacity = *p.Capacity
	}
	w.Touch(actor, now)
	return nil
}

func (w *Warehouse) UpdateStatus(s WarehouseStatus, actor string, now time.Time) error {
	if !s.Valid() {
		v := NewValidationError()
		v.Add("status", "must be one of Active, Inactive, Maintenance")
		return v
	}
	w.Status = s
	w.Touch(actor, now)
	return nil
}

type DocumentType string

const (
	DocumentCPF  DocumentType = "CPF"
	DocumentCNPJ DocumentType = "CNPJ"
)

type Customer struct {
	BaseEntity
	TenantID       string       `gorm:"size:36;not null;index" json:"tenantId"`
	Name           string       `gorm:"size:200;not null" json:"name"`
	DocumentType   DocumentType `gorm:"size:8;not null" json:"documentType"`
	DocumentNumber string       `gorm:"size:20;not null;index" json:"documentNumber"`
	Email          string       `gorm:"size:191" json:"email,omitempty"`
	Phone          string       `gorm:"size:32" json:"phone,omitempty"`
	Address        string       `gorm:"size:255" json:"address,omitempty"`
	IsActive       bool         `gorm:"not null;default:true" json:"isActive"`
}

func (Customer) TableName() string { return "customers" }

type CustomerInput struct {
	Name           string `json:"name" binding:"required,max=200"`
	DocumentType   string `json:"documentType" binding:"required,oneof=CPF CNPJ"`
	DocumentNumber string `json:"documentNumber" binding:"required"`
	Email          string `json:"email" binding:"omitempty,email"`
	Phone          string `json:"phone" binding:"omitempty,max=32"`
	Address        string `json:"address" binding:"omitempty,max=255"`
}

func NewCustomer(tenantID string, in CustomerInput, actor string, now time.Time) (*Customer, error) {
	var r required
	tenantID = r.check("tenantId", tenantID)
	name := r.check("name", in.Name)
	docType := DocumentType(strings.ToUpper(r.check("documentType", in.DocumentType)))
	doc := r.check("documentNumber", in.DocumentNumber)
	if doc != "" {
		doc = Digits(doc)
		if msg := checkDocument(docType, doc); msg != "" {
			r.add("documentNumber", msg)
		}
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return &Customer{
		BaseEntity:     newBase(actor, now),
		TenantID:       tenantID,
		Name:           name,
		DocumentType:   docType,
		DocumentNumber: doc,
		Email:          strings.TrimSpace(in.Email),
		Phone:          strings.TrimSpace(in.Phone),
		Address:        strings.TrimSpace(in.Address),
		IsActive:       true,
	}, nil
}

func checkDocument(t DocumentType, digits string) string {
	switch t {
	case DocumentCPF:
		if len(digits) != 11 {
			return "CPF must have 11 digits"
		}
	case DocumentCNPJ:
		if len(digits) != 14 {
			return "CNPJ must have 14 digits"
		}
	default:
		return "unknown document type"
	}
	return ""
}

type CustomerPatch struct {
	Name           *string `json:"name"`
	DocumentType   *string `json:"documentType"`
	DocumentNumber *string `json:"documentNumber"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	IsActive       *bool   `json:"isActive"`
}

func (c *Customer) Apply(p CustomerPatch, actor string, now time.Time) error {
	v := NewValidationError()
	if n := trimPtr(p.Name); n != nil && *n == "" {
		v.Add("name", "is required")
	}
	docType := c.DocumentType
	if p.DocumentType != nil {
		docType = DocumentType(strings.ToUpper(strings.TrimSpace(*p.DocumentType)))
	}
	doc := c.DocumentNumber
	if p.DocumentNumber != nil {
		doc = Digits(*p.DocumentNumber)
	}
	if p.DocumentType != nil || p.DocumentNumber != nil {
		if msg := checkDocument(docType, doc); msg != "" {
			v.Add("documentNumber", msg)
		}
	}
	if err := v.OrNil(); err != nil {
		return err
	}
	if n := trimPtr(p.Name); n != nil {
		c.Name = *n
	}
	c.DocumentType = docType
	c.DocumentNumber = doc
	if e := trimPtr(p.Email); e != nil {
		c.Email = *e
	}
	if ph := trimPtr(p.Phone); ph != nil {
		c.Phone = *ph
	}
	if a := trimPtr(p.Address); a != nil {
		c.Address = *a
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	c.Touch(actor, now)
	return nil
}

type ProductStatus string

const (
	ProductActive       ProductStatus = "Active"
	ProductInactive     ProductStatus = "Inactive"
	ProductDiscontinued ProductStatus = "Discontinued"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductActive, ProductInactive, ProductDiscontinued:
		return true
	}
	return false
}

type Product struct {
	BaseEntity
	TenantID      string        `gorm:"size:36;not null;index" json:"tenantId"`
	SKU           string        `gorm:"column:sku;size:64;not null;index" json:"sku"`
	Name          string        `gorm:"size:200;not null" json:"name"`
	Description   string        `gorm:"size:1000" json:"description,omitempty"`
	Barcode       string        `gorm:"size:64" json:"barcode,omitempty"`
	UnitOfMeasure string        `gorm:"size:16;not null;default:UN" json:"unitOfMeasure"`
	Weight        float64       `gorm:"not null;default:0" json:"weight"`
	Status        ProductStatus `gorm:"size:16;not null;default:Active" json:"status"`
}

func (Product) TableName() string { return "products" }

type ProductInput struct {
	SKU           string  `json:"sku" binding:"required,max=64"`
	Name          string  `json:"name" binding:"required,max=200"`
	Description   string  `json:"description" binding:"omitempty,max=1000"`
	Barcode       string  `json:"barcode" binding:"omitempty,max=64"`
	UnitOfMeasure string  `json:"unitOfMeasure" binding:"omitempty,max=16"`
	Weight        float64 `json:"weight" binding:"omitempty,gte=0"`
}

func NewProduct(tenantID string, in ProductInput, actor string, now time.Time) (*Product, error) {
	var r required
	tenantID = r.check("tenantId", tenantID)
	sku := strings.ToUpper(r.check("sku", in.SKU))
	name := r.check("name", in.Name)
	if in.Weight < 0 {
		r.add("weight", "must not be negative")
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	uom := strings.ToUpper(strings.TrimSpace(in.UnitOfMeasure))
	if uom == "" {
		uom = "UN"
	}
	return &Product{
		BaseEntity:    newBase(actor, now),
		TenantID:      tenantID,
		SKU:           sku,
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		Barcode:       strings.TrimSpace(in.Barcode),
		UnitOfMeasure: uom,
		Weight:        in.Weight,
		Status:        ProductActive,
	}, nil
}

type ProductPatch struct {
	SKU           *string  `json:"sku"`
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Barcode       *string  `json:"barcode"`
	UnitOfMeasure *string  `json:"unitOfMeasure"`
	Weight        *float64 `json:"weight"`
}

func (p *Product) Apply(patch ProductPatch, actor string, now time.Time) error {
	v := NewValidationError()
	if s := trimPtr(patch.SKU); s != nil && *s == "" {
		v.Add("sku", "is required")
	}
	if n := trimPtr(patch.Name); n != nil && *n == "" {
		v.Add("name", "is required")
	}
	if patch.Weight != nil && *patch.Weight < 0 {
		v.Add("weight", "must not be negative")
	}
	if err := v.OrNil(); err != nil {
		return err
	}
	if s := trimPtr(patch.SKU); s != nil {
		p.SKU = strings.ToUpper(*s)
	}
	if n := trimPtr(patch.Name); n != nil {
		p.Name = *n
	}
	if d := trimPtr(patch.Description); d != nil {
		p.Description = *d
	}
	if b := trimPtr(patch.Barcode); b != nil {
		p.Barcode = *b
	}
	if u := trimPtr(patch.UnitOfMeasure); u != nil && *u != "" {
		p.UnitOfMeasure = strings.ToUpper(*u)
	}
	if patch.Weight != nil {
		p.Weight = *patch.Weight
	}
	p.Touch(actor, now)
	return nil
}

func (p *Product) UpdateStatus(s ProductStatus, actor string, now time.Time) error {
	if !s.Valid() {
		v := NewValidationError()
		v.Add("status", "must be one of Active, Inactive, Discontinued")
		return v
	}
	p.Status = s
	p.Touch(actor, now)
	return nil
}

// Digits strips every non-digit rune (CNPJ/CPF masks).
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
