package quality

import (
	"fmt"
	"math"
	"strings"
	"time"

	"dwcli/internal/config"
	"dwcli/internal/conform"
	"dwcli/pkg/contracts/domain"
)

// DefaultRules builds the standard rule set: key integrity, string
// hygiene, domain consistency, range checks, cross-field consistency,
// referential integrity, and orphan detection. Severities for the
// referential and orphan rules come from configuration.
func DefaultRules(cfg config.QualityConfig, vocabs *conform.VocabularySet) ([]Rule, error) {
	dateMin, dateMax, err := cfg.DateWindow()
	if err != nil {
		return nil, err
	}
	if vocabs == nil {
		vocabs = conform.DefaultVocabularies()
	}

	rules := []Rule{
		// (a) key integrity
		{
			Name:     "conformed_customer_key_unique",
			Scope:    domain.ScopeConformed,
			Severity: domain.SeverityBlocking,
			Check: func(ds Dataset) []string {
				return duplicates(ds.Conformed.Customers, func(c domain.ConformedCustomer) string {
					return c.CustomerID
				})
			},
		},
		{
			Name:     "dim_customer_surrogate_unique",
			Scope:    domain.ScopeDimensional,
			Severity: domain.SeverityBlocking,
			Check: func(ds Dataset) []string {
				var out []string
				seen := map[int]bool{}
				for _, row := range ds.Dimensional.Customers {
					if row.CustomerKey < 1 || seen[row.CustomerKey] {
						out = append(out, row.CustomerID)
					}
					seen[row.CustomerKey] = true
				}
				return out
			},
		},
		{
			Name:     "dim_product_surrogate_unique",
			Scope:    domain.ScopeDimensional,
			Severity: domain.SeverityBlocking,
			Check: func(ds Dataset) []string {
				var out []string
				seen := map[int]bool{}
				for _, row := range ds.Dimensional.Products {
					if row.ProductKey < 1 || seen[row.ProductKey] {
						out = append(out, row.ProductNumber)
					}
					seen[row.ProductKey] = true
				}
				return out
			},
		},
		{
			Name:     "dim_product_number_unique",
			Scope:    domain.ScopeDimensional,
			Severity: domain.SeverityBlocking,
			Check: func(ds Dataset) []string {
				return duplicates(ds.Dimensional.Products, func(p domain.ProductDimRow) string {
					return p.ProductNumber
				})
			},
		},
		// (b) string hygiene
		{
			Name:     "conformed_strings_trimmed",
			Scope:    domain.ScopeConformed,
			Severity: domain.SeverityAdvisory,
			Check: func(ds Dataset) []string {
				var out []string
				for _, c := range ds.Conformed.Customers {
					if untrimmed(c.CustomerID, c.FirstName, c.LastName) {
						out = append(out, c.CustomerID)
					}
				}
				for _, p := range ds.Conformed.Products {
					if untrimmed(p.ProductNumber, p.Name) {
						out = append(out, p.ProductNumber)
					}
				}
				for _, c := range ds.Conformed.Categories {
					if untrimmed(c.CategoryID, c.Category, c.Subcategory) {
						out = append(out, c.CategoryID)
					}
				}
				return out
			},
		},
		// (c) domain consistency: every produced categorical value must be
		// canonical; a value stuck at the n/a sentinel signals vocabulary
		// drift between the sources and the normalizer tables.
		{
			Name:     "conformed_vocabulary_consistency",
			Scope:    domain.ScopeConformed,
			Severity: domain.SeverityAdvisory,
			Check: func(ds Dataset) []string {
				var out []string
				for _, c := range ds.Conformed.Customers {
					if !vocabs.MaritalStatus.IsCanonical(c.MaritalStatus) || !vocabs.Gender.IsCanonical(c.Gender) {
						out = append(out, c.CustomerID)
					}
				}
				for _, p := range ds.Conformed.Products {
					if !vocabs.ProductLine.IsCanonical(p.Line) {
						out = append(out, fmt.Sprintf("%s@%s", p.ProductNumber, p.Validity.Start.Format("2006-01-02")))
					}
				}
				for _, l := range ds.Conformed.Locations {
					if !vocabs.Country.IsCanonical(l.Country) {
						out = append(out, l.CustomerID)
					}
				}
				return out
			},
		},
		// (d) range checks
		{
			Name:     "conformed_dates_in_window",
			Scope:    domain.ScopeConformed,
			Severity: domain.SeverityAdvisory,
			Check: func(ds Dataset) []string {
				var out []string
				inWindow := func(t *time.Time) bool {
					return t == nil || (!t.Before(dateMin) && !t.After(dateMax))
				}
				for _, c := range ds.Conformed.Customers {
					if !c.CreateDate.IsZero() && !inWindow(&c.CreateDate) {
						out = append(out, c.CustomerID)
					}
				}
				for _, d := range ds.Conformed.Demographics {
					if !inWindow(d.BirthDate) {
						out = append(out, d.CustomerID)
					}
				}
				for _, s := range ds.Conformed.Sales {
					if !inWindow(s.OrderDate) || !inWindow(s.ShipDate) || !inWindow(s.DueDate) {
						out = append(out, s.OrderNumber)
					}
				}
				return out
			},
		},
		{
			Name:     "sales_numeric_bounds",
			Scope:    domain.ScopeConformed,
			Severity: domain.SeverityBlocking,
			Check: func(ds Dataset) []string {
				var out []string
				for _, s := range ds.Conformed.Sales {
					bad := s.Quantity <= 0 || s.Quantity > cfg.MaxQuantity ||
						s.LineAmount <= 0 ||
						(s.UnitPrice != nil && (*s.UnitPrice <= 0 || *s.UnitPrice > cfg.MaxUnitPrice))
					if bad {
						out = append(out, s.OrderNumber)
					}
				}
				return out
			},
		},
		{
			Name:     "product_cost_non_negative",
			Scope:    domain.ScopeConformed,
			Severity: domain.SeverityAdvisory,
			Check: func(ds Dataset) []string {
				var out []string
				for _, p := range ds.Conformed.Products {
					if p.Cost < 0 {
						out = append(out, p.ProductNumber)
					}
				}
				return out
			},
		},
		// (e) cross-field consistency
		{
			Name:     "sales_amount_consistency",
			Scope:    domain.ScopeConformed,
			Severity: domain.SeverityAdvisory,
			Check: func(ds Dataset) []string {
				var out []string
				for _, s := range ds.Conformed.Sales {
					if s.UnitPrice == nil {
						continue
					}
					if math.Abs(s.LineAmount-float64(s.Quantity)*(*s.UnitPrice)) > 1e-9 {
						out = append(out, s.OrderNumber)
					}
				}
				return out
			},
		},
		{
			Name:     "sales_date_sequence",
			Scope:    domain.ScopeConformed,
			Severity: domain.SeverityAdvisory,
			Check: func(ds Dataset) []string {
				var out []string
				for _, s := range ds.Conformed.Sales {
					if s.OrderDate == nil {
						continue
					}
					if (s.ShipDate != nil && s.OrderDate.After(*s.ShipDate)) ||
						(s.DueDate != nil && s.OrderDate.After(*s.DueDate)) {
						out = append(out, s.OrderNumber)
					}
				}
				return out
			},
		},
		// (f) referential integrity
		{
			Name:     "fact_references_resolve",
			Scope:    domain.ScopeDimensional,
			Severity: domain.Severity(cfg.ReferentialSeverity),
			Check: func(ds Dataset) []string {
				var out []string
				for _, f := range ds.Dimensional.Sales {
					if f.ProductKey == nil || f.CustomerKey == nil {
						out = append(out, f.OrderNumber)
					}
				}
				return out
			},
		},
		// (g) orphan detection: dimension rows no fact references.
		// Reported for review, not an error by default.
		{
			Name:     "dim_rows_unreferenced",
			Scope:    domain.ScopeDimensional,
			Severity: domain.Severity(cfg.OrphanSeverity),
			Check: func(ds Dataset) []string {
				usedCustomer := map[int]bool{}
				usedProduct := map[int]bool{}
				for _, f := range ds.Dimensional.Sales {
					if f.CustomerKey != nil {
						usedCustomer[*f.CustomerKey] = true
					}
					if f.ProductKey != nil {
						usedProduct[*f.ProductKey] = true
					}
				}
				var out []string
				for _, c := range ds.Dimensional.Customers {
					if !usedCustomer[c.CustomerKey] {
						out = append(out, fmt.Sprintf("%s:%s", domain.TargetCustomerDim, c.CustomerID))
					}
				}
				for _, p := range ds.Dimensional.Products {
					if !usedProduct[p.ProductKey] {
						out = append(out, fmt.Sprintf("%s:%s", domain.TargetProductDim, p.ProductNumber))
					}
				}
				return out
			},
		},
	}

	return rules, nil
}

func duplicates[T any](items []T, key func(T) string) []string {
	var out []string
	seen := map[string]bool{}
	for _, item := range items {
		k := key(item)
		if k == "" || seen[k] {
			out = append(out, k)
		}
		seen[k] = true
	}
	return out
}

func untrimmed(values ...string) bool {
	for _, v := range values {
		if v != strings.TrimSpace(v) {
			return true
		}
	}
	return false
}
