package domain

import (
	"time"
)

// NotAvailable is the sentinel every normalizer emits for values outside
// its canonical vocabulary, including null and empty input.
const NotAvailable = "n/a"

// ValidityRange is the derived effective window of a versioned record.
// End is nil for the currently active version. Ranges derived from the
// same key sequence never overlap.
type ValidityRange struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// Open reports whether the range has no end date, i.e. the version is
// currently active.
func (v ValidityRange) Open() bool {
	return v.End == nil
}

// ConformedCustomer is the cleaned, typed projection of one CRM customer
// master record. CustomerID is the business key; CreateDate is the
// secondary order key used for latest-wins deduplication.
type ConformedCustomer struct {
	CustomerID    string    `json:"customer_id" validate:"required"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	MaritalStatus string    `json:"marital_status"`
	Gender        string    `json:"gender"`
	CreateDate    time.Time `json:"create_date"`
}

// ConformedProduct is the cleaned, typed projection of one CRM product
// master record. ProductNumber is the business key; versions sharing it
// receive derived validity ranges ordered by Start.
type ConformedProduct struct {
	ProductID     int           `json:"product_id"`
	ProductNumber string        `json:"product_number" validate:"required"`
	CategoryID    string        `json:"category_id"`
	Name          string        `json:"name"`
	Cost          float64       `json:"cost" validate:"min=0"`
	Line          string        `json:"line"`
	Validity      ValidityRange `json:"validity"`
}

// ConformedSale is one cleaned transactional sales line. UnitPrice is nil
// when it could not be recovered (zero quantity and no source price).
type ConformedSale struct {
	OrderNumber   string     `json:"order_number" validate:"required"`
	ProductNumber string     `json:"product_number"`
	CustomerID    string     `json:"customer_id"`
	OrderDate     *time.Time `json:"order_date,omitempty"`
	ShipDate      *time.Time `json:"ship_date,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Quantity      int        `json:"quantity"`
	UnitPrice     *float64   `json:"unit_price,omitempty"`
	LineAmount    float64    `json:"line_amount"`
}

// CustomerDemographics is the conformed ERP customer reference record
// used to enrich the customer dimension.
type CustomerDemographics struct {
	CustomerID string     `json:"customer_id" validate:"required"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Gender     string     `json:"gender"`
}

// CustomerLocation is the conformed ERP location reference record.
type CustomerLocation struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Country    string `json:"country"`
}

// ProductCategory is the conformed ERP product category reference record.
type ProductCategory struct {
	CategoryID  string `json:"category_id" validate:"required"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Maintenance string `json:"maintenance"`
}
