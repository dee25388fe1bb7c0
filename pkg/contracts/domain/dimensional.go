package domain

import (
	"time"
)

// Warehouse target names, used for row counts in run results and as
// store table identifiers.
const (
	TargetCustomerDim = "dim_customers"
	TargetProductDim  = "dim_products"
	TargetSalesFact   = "fact_sales"
)

// CustomerDimRow is one row of the customer dimension. CustomerKey is the
// surrogate key: a dense integer assigned in deterministic order, unique
// within the dimension, stable only within one batch run.
type CustomerDimRow struct {
	CustomerKey   int        `json:"customer_key" csv:"CustomerKey" validate:"required,min=1"`
	CustomerID    string     `json:"customer_id" csv:"CustomerID" validate:"required"`
	FirstName     string     `json:"first_name" csv:"FirstName"`
	LastName      string     `json:"last_name" csv:"LastName"`
	Country       string     `json:"country" csv:"Country"`
	MaritalStatus string     `json:"marital_status" csv:"MaritalStatus"`
	Gender        string     `json:"gender" csv:"Gender"`
	BirthDate     *time.Time `json:"birth_date,omitempty" csv:"BirthDate"`
	CreateDate    time.Time  `json:"create_date" csv:"CreateDate"`
}

// ProductDimRow is one row of the product dimension. Only currently
// active product versions (open validity range) appear here.
type ProductDimRow struct {
	ProductKey    int       `json:"product_key" csv:"ProductKey" validate:"required,min=1"`
	ProductID     int       `json:"product_id" csv:"ProductID"`
	ProductNumber string    `json:"product_number" csv:"ProductNumber" validate:"required"`
	Name          string    `json:"name" csv:"Name"`
	CategoryID    string    `json:"category_id" csv:"CategoryID"`
	Category      string    `json:"category" csv:"Category"`
	Subcategory   string    `json:"subcategory" csv:"Subcategory"`
	Maintenance   string    `json:"maintenance" csv:"Maintenance"`
	Cost          float64   `json:"cost" csv:"Cost"`
	Line          string    `json:"line" csv:"Line"`
	StartDate     time.Time `json:"start_date" csv:"StartDate"`
}

// SalesFactRow is one transactional measurement referencing the two
// dimensions by surrogate key. A failed natural-key lookup leaves the
// surrogate nil (orphan reference), never a fabricated key. The natural
// keys are retained so referential-integrity checks can name the miss.
type SalesFactRow struct {
	OrderNumber   string     `json:"order_number" csv:"OrderNumber" validate:"required"`
	ProductKey    *int       `json:"product_key,omitempty" csv:"ProductKey"`
	CustomerKey   *int       `json:"customer_key,omitempty" csv:"CustomerKey"`
	ProductNumber string     `json:"product_number" csv:"ProductNumber"`
	CustomerID    string     `json:"customer_id" csv:"CustomerID"`
	OrderDate     *time.Time `json:"order_date,omitempty" csv:"OrderDate"`
	ShipDate      *time.Time `json:"ship_date,omitempty" csv:"ShipDate"`
	DueDate       *time.Time `json:"due_date,omitempty" csv:"DueDate"`
	Quantity      int        `json:"quantity" csv:"Quantity"`
	UnitPrice     *float64   `json:"unit_price,omitempty" csv:"UnitPrice"`
	Amount        float64    `json:"amount" csv:"Amount"`
}
