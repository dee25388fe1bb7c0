package assembly

import (
	"context"
	"log/slog"
	"sort"

	"dwcli/pkg/contracts/domain"
)

// CustomerDim builds the customer dimension: conformed customers sorted
// by natural id, dense surrogate keys from 1, enriched by left-outer
// lookups against the ERP demographic and location references. A failed
// lookup leaves birth date null and country at the n/a sentinel; it
// never removes the base row.
//
// CRM is the master for gender: the ERP value only fills in when the CRM
// code did not resolve.
func (a *Assembler) CustomerDim(
	ctx context.Context,
	customers []domain.ConformedCustomer,
	demographics []domain.CustomerDemographics,
	locations []domain.CustomerLocation,
) []domain.CustomerDimRow {
	demoByID := make(map[string]domain.CustomerDemographics, len(demographics))
	for _, d := range demographics {
		demoByID[d.CustomerID] = d
	}
	countryByID := make(map[string]string, len(locations))
	for _, l := range locations {
		countryByID[l.CustomerID] = l.Country
	}

	sorted := make([]domain.ConformedCustomer, len(customers))
	copy(sorted, customers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CustomerID < sorted[j].CustomerID
	})

	rows := make([]domain.CustomerDimRow, 0, len(sorted))
	for i, c := range sorted {
		row := domain.CustomerDimRow{
			CustomerKey:   i + 1,
			CustomerID:    c.CustomerID,
			FirstName:     c.FirstName,
			LastName:      c.LastName,
			Country:       domain.NotAvailable,
			MaritalStatus: c.MaritalStatus,
			Gender:        c.Gender,
			CreateDate:    c.CreateDate,
		}
		if demo, ok := demoByID[c.CustomerID]; ok {
			row.BirthDate = demo.BirthDate
			if row.Gender == domain.NotAvailable {
				row.Gender = demo.Gender
			}
		}
		if country, ok := countryByID[c.CustomerID]; ok {
			row.Country = country
		}
		rows = append(rows, row)
	}

	a.logger.InfoContext(ctx, "customer dimension assembled",
		slog.Int("rows", len(rows)),
		slog.Int("demographic_lookups", len(demoByID)),
		slog.Int("location_lookups", len(countryByID)))
	return rows
}

// ProductDim builds the product dimension from currently-active product
// versions only: historical versions never receive a surrogate key.
// Rows are ordered by (start date, product number) before dense key
// assignment, and enriched by a left-outer category lookup.
func (a *Assembler) ProductDim(
	ctx context.Context,
	products []domain.ConformedProduct,
	categories []domain.ProductCategory,
) []domain.ProductDimRow {
	catByID := make(map[string]domain.ProductCategory, len(categories))
	for _, c := range categories {
		catByID[c.CategoryID] = c
	}

	active := make([]domain.ConformedProduct, 0, len(products))
	for _, p := range products {
		if p.Validity.Open() {
			active = append(active, p)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if !active[i].Validity.Start.Equal(active[j].Validity.Start) {
			return active[i].Validity.Start.Before(active[j].Validity.Start)
		}
		return active[i].ProductNumber < active[j].ProductNumber
	})

	rows := make([]domain.ProductDimRow, 0, len(active))
	for i, p := range active {
		row := domain.ProductDimRow{
			ProductKey:    i + 1,
			ProductID:     p.ProductID,
			ProductNumber: p.ProductNumber,
			Name:          p.Name,
			CategoryID:    p.CategoryID,
			Category:      domain.NotAvailable,
			Subcategory:   domain.NotAvailable,
			Maintenance:   domain.NotAvailable,
			Cost:          p.Cost,
			Line:          p.Line,
			StartDate:     p.Validity.Start,
		}
		if cat, ok := catByID[p.CategoryID]; ok {
			row.Category = cat.Category
			row.Subcategory = cat.Subcategory
			row.Maintenance = cat.Maintenance
		}
		rows = append(rows, row)
	}

	a.logger.InfoContext(ctx, "product dimension assembled",
		slog.Int("rows", len(rows)),
		slog.Int("versions_excluded", len(products)-len(active)))
	return rows
}
