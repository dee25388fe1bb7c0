package conform

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dwcli/pkg/contracts/domain"
)

func raw(entity domain.Entity, seq int, fields map[string]any) domain.RawRecord {
	return domain.RawRecord{Entity: entity, Seq: seq, Fields: fields}
}

func TestConformer_Customers(t *testing.T) {
	c := NewConformer(slog.Default(), nil)

	records := []domain.RawRecord{
		raw(domain.EntityCRMCustomers, 0, map[string]any{
			"customer_id": "AW00011000", "first_name": "  Jon ", "last_name": " Yang ",
			"marital_status": "M", "gender": "m", "create_date": "2025-01-01",
		}),
		// Older duplicate of the same customer, superseded.
		raw(domain.EntityCRMCustomers, 1, map[string]any{
			"customer_id": "AW00011000", "first_name": "Jon", "last_name": "Yang",
			"marital_status": "S", "gender": "M", "create_date": "2024-01-01",
		}),
		// Null business key: dropped, not an error.
		raw(domain.EntityCRMCustomers, 2, map[string]any{
			"customer_id": nil, "first_name": "Ghost", "create_date": "2025-06-01",
		}),
	}

	customers, stats := c.Customers(records)
	require.Len(t, customers, 1)
	assert.Equal(t, 3, stats.Input)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, 1, stats.Output)

	got := customers[0]
	assert.Equal(t, "AW00011000", got.CustomerID)
	assert.Equal(t, "Jon", got.FirstName)
	assert.Equal(t, "Yang", got.LastName)
	assert.Equal(t, "Married", got.MaritalStatus)
	assert.Equal(t, "Male", got.Gender)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), got.CreateDate)
}

func TestConformer_Products(t *testing.T) {
	c := NewConformer(slog.Default(), nil)

	records := []domain.RawRecord{
		raw(domain.EntityCRMProducts, 0, map[string]any{
			"product_id": "210", "product_key": "CO-RF-FR-R92B-58",
			"product_name": " HL Road Frame ", "cost": "1263.46",
			"product_line": "R", "start_date": "2021-01-01",
		}),
		raw(domain.EntityCRMProducts, 1, map[string]any{
			"product_id": "211", "product_key": "CO-RF-FR-R92B-58",
			"product_name": "HL Road Frame", "cost": nil,
			"product_line": "R", "start_date": "2022-01-01",
		}),
	}

	products, stats := c.Products(records)
	require.Len(t, products, 2)
	assert.Zero(t, stats.Dropped)

	assert.Equal(t, "CO_RF", products[0].CategoryID)
	assert.Equal(t, "FR-R92B-58", products[0].ProductNumber)
	assert.Equal(t, "HL Road Frame", products[0].Name)
	assert.InDelta(t, 1263.46, products[0].Cost, 1e-9)
	assert.Equal(t, "Road", products[0].Line)

	// Missing cost repaired to zero; version chain derived.
	assert.Zero(t, products[1].Cost)
	require.NotNil(t, products[0].Validity.End)
	assert.Equal(t, date("2021-12-31"), *products[0].Validity.End)
	assert.Nil(t, products[1].Validity.End)
}

func TestSplitProductKey(t *testing.T) {
	tests := []struct {
		key        string
		wantCat    string
		wantNumber string
	}{
		{key: "CO-RF-FR-R92B-58", wantCat: "CO_RF", wantNumber: "FR-R92B-58"},
		{key: "AC-HE-HL-U509", wantCat: "AC_HE", wantNumber: "HL-U509"},
		{key: "SHORT", wantCat: domain.NotAvailable, wantNumber: "SHORT"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cat, number := SplitProductKey(tt.key)
			assert.Equal(t, tt.wantCat, cat)
			assert.Equal(t, tt.wantNumber, number)
		})
	}
}

func TestConformer_Sales(t *testing.T) {
	c := NewConformer(slog.Default(), nil)

	records := []domain.RawRecord{
		raw(domain.EntityCRMSales, 0, map[string]any{
			"order_number": "SO43697", "product_key": "FR-R92B-58", "customer_id": "AW00011000",
			"order_date": "20210101", "ship_date": "20210108", "due_date": "20210113",
			"quantity": "3", "unit_price": "10", "line_amount": "25",
		}),
		// Zero due date decodes to null, not an error.
		raw(domain.EntityCRMSales, 1, map[string]any{
			"order_number": "SO43698", "product_key": "FR-R92B-58", "customer_id": "AW00011001",
			"order_date": "0", "ship_date": "2021010", "due_date": nil,
			"quantity": "1", "unit_price": "50", "line_amount": "50",
		}),
		// No order number: dropped and counted.
		raw(domain.EntityCRMSales, 2, map[string]any{
			"order_number": " ", "product_key": "X", "customer_id": "Y",
			"quantity": "1", "unit_price": "1", "line_amount": "1",
		}),
	}

	sales, stats := c.Sales(records)
	require.Len(t, sales, 2)
	assert.Equal(t, 1, stats.Dropped)

	first := sales[0]
	assert.Equal(t, "SO43697", first.OrderNumber)
	require.NotNil(t, first.OrderDate)
	assert.Equal(t, date("2021-01-01"), *first.OrderDate)
	assert.InDelta(t, 30, first.LineAmount, 1e-9, "inconsistent amount reconciled")

	second := sales[1]
	assert.Nil(t, second.OrderDate, "zero integer date is null")
	assert.Nil(t, second.ShipDate, "wrong-width integer date is null")
	assert.Nil(t, second.DueDate)
}

func TestConformer_Demographics(t *testing.T) {
	c := NewConformer(slog.Default(), nil)
	c.now = func() time.Time { return date("2026-01-01") }

	records := []domain.RawRecord{
		raw(domain.EntityERPCustomers, 0, map[string]any{
			"customer_id": "NASAW00011000", "birth_date": "1971-10-06", "gender": "Female",
		}),
		raw(domain.EntityERPCustomers, 1, map[string]any{
			"customer_id": "AW00011001", "birth_date": "2050-06-01", "gender": nil,
		}),
	}

	demos, stats := c.Demographics(records)
	require.Len(t, demos, 2)
	assert.Zero(t, stats.Dropped)

	assert.Equal(t, "AW00011000", demos[0].CustomerID, "NAS prefix stripped")
	require.NotNil(t, demos[0].BirthDate)
	assert.Equal(t, "Female", demos[0].Gender)

	assert.Equal(t, "AW00011001", demos[1].CustomerID)
	assert.Nil(t, demos[1].BirthDate, "future birth date nulled")
	assert.Equal(t, domain.NotAvailable, demos[1].Gender)
}

func TestConformer_Locations(t *testing.T) {
	c := NewConformer(slog.Default(), nil)

	records := []domain.RawRecord{
		raw(domain.EntityERPLocations, 0, map[string]any{
			"customer_id": "AW-00011000", "country": "DE",
		}),
		raw(domain.EntityERPLocations, 1, map[string]any{
			"customer_id": "AW-00011001", "country": "unknownia",
		}),
	}

	locations, _ := c.Locations(records)
	require.Len(t, locations, 2)

	assert.Equal(t, "AW00011000", locations[0].CustomerID, "embedded dashes stripped")
	assert.Equal(t, "Germany", locations[0].Country)
	assert.Equal(t, domain.NotAvailable, locations[1].Country)
}

func TestConformer_Categories(t *testing.T) {
	c := NewConformer(slog.Default(), nil)

	records := []domain.RawRecord{
		raw(domain.EntityERPCategories, 0, map[string]any{
			"category_id": "CO_RF", "category": " Components ", "subcategory": "Road Frames",
			"maintenance": "Yes",
		}),
		raw(domain.EntityERPCategories, 1, map[string]any{
			"category_id": nil, "category": "Orphaned",
		}),
	}

	categories, stats := c.Categories(records)
	require.Len(t, categories, 1)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, "Components", categories[0].Category)
}
