package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Entity identifies one of the upstream source record sets.
type Entity string

const (
	EntityCRMCustomers  Entity = "crm_customers"
	EntityCRMProducts   Entity = "crm_products"
	EntityCRMSales      Entity = "crm_sales"
	EntityERPCustomers  Entity = "erp_customers"
	EntityERPLocations  Entity = "erp_locations"
	EntityERPCategories Entity = "erp_categories"
)

// AllEntities lists every source entity the pipeline ingests, in load order.
var AllEntities = []Entity{
	EntityCRMCustomers,
	EntityCRMProducts,
	EntityCRMSales,
	EntityERPCustomers,
	EntityERPLocations,
	EntityERPCategories,
}

// SourceSystem returns the upstream system the entity belongs to.
func (e Entity) SourceSystem() string {
	if strings.HasPrefix(string(e), "erp_") {
		return "erp"
	}
	return "crm"
}

// RawRecord is an untyped field map extracted from one upstream system.
// Records are immutable once ingested; a new batch supersedes them wholesale.
// Seq preserves stable input order and is the deterministic tie-break for
// latest-record selection.
type RawRecord struct {
	Entity Entity         `json:"entity"`
	Seq    int            `json:"seq"`
	Fields map[string]any `json:"fields"`
}

// String returns the named field as a string. Missing and nil fields
// return the empty string.
func (r RawRecord) String(field string) string {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Int returns the named field as an integer. The second return value is
// false when the field is missing, nil, or not parseable as an integer.
func (r RawRecord) Int(field string) (int, bool) {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Float returns the named field as a float64. The second return value is
// false when the field is missing, nil, or not parseable as a number.
func (r RawRecord) Float(field string) (float64, bool) {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// IsNull reports whether the named field is absent, nil, or blank.
func (r RawRecord) IsNull(field string) bool {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return true
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) == ""
	}
	return false
}
